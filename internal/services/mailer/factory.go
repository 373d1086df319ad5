package mailer

import (
	"errors"
	"strings"

	"variantshare/internal/config"
	"variantshare/internal/services"
)

// ErrDisabled is returned when no mail transport is configured.
var ErrDisabled = errors.New("mail transport disabled")

// FromConfig builds the configured transport.
func FromConfig(cfg *config.Config) (Transport, error) {
	mail := cfg.Mail
	switch strings.ToLower(strings.TrimSpace(mail.Transport)) {
	case "multipart":
		return NewMultipartTransport(mail.Endpoint, mail.Token, cfg.MailTimeout()), nil
	case "graph":
		return NewGraphTransport(mail.Endpoint, mail.GraphSender, mail.Token, cfg.MailTimeout()), nil
	case "", "none":
		return nil, services.Wrap(services.ErrConfiguration, "mailer", "configure", "mail.transport is none", ErrDisabled)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "mailer", "configure", "unknown transport "+mail.Transport, nil)
	}
}
