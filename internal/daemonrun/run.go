// Package daemonrun boots the variantshare daemon process: it builds the
// logger and collaborators from configuration, starts the daemon and blocks
// until a signal arrives.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"variantshare/internal/config"
	"variantshare/internal/daemon"
	"variantshare/internal/dispatch"
	"variantshare/internal/exporter"
	"variantshare/internal/logging"
	"variantshare/internal/services/mailer"
	"variantshare/internal/userdb"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the variantshare daemon runtime loop.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("variantshare-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update variantshare.log link: %v\n", err)
	}
	logConfigSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.DataDir, "variantshare.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	users, err := userdb.Open(cfg)
	if err != nil {
		logger.Error("open user store", logging.Error(err))
		return err
	}

	pipeline, err := exporter.NewFromConfig(cfg, logger)
	if err != nil {
		_ = users.Close()
		return fmt.Errorf("build export pipeline: %w", err)
	}
	sender, err := newSender(cfg, logger)
	if err != nil {
		_ = users.Close()
		return err
	}

	d, err := daemon.New(cfg, daemon.Dependencies{Users: users, Pipeline: pipeline, Sender: sender}, logger)
	if err != nil {
		_ = users.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed", logging.Error(err))
		return err
	}

	<-signalCtx.Done()
	logger.Info("variantshare daemon shutting down")
	return nil
}

// newSender builds the dispatch client. A disabled transport still yields a
// client; every send then fails as a transport error.
func newSender(cfg *config.Config, logger *slog.Logger) (*dispatch.Client, error) {
	transport, err := mailer.FromConfig(cfg)
	if err != nil {
		if !errors.Is(err, mailer.ErrDisabled) {
			return nil, fmt.Errorf("configure mail transport: %w", err)
		}
		logger.Warn("mail transport disabled; sends will fail", logging.String("transport", cfg.Mail.Transport))
		transport = nil
	}
	return dispatch.NewClient(transport, logger), nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "variantshare.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("api_token_present", strings.TrimSpace(cfg.Paths.APIToken) != ""),
		logging.String("search_index", cfg.Search.Index),
		logging.Int("search_addresses", len(cfg.Search.Addresses)),
		logging.Bool("docgen_configured", strings.TrimSpace(cfg.DocGen.BaseURL) != ""),
		logging.String("mail_transport", cfg.Mail.Transport),
		logging.String("timezone", cfg.Export.Timezone),
		logging.String("locale", cfg.Export.Locale),
	)
}
