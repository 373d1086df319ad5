package variant

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Process identifies the process a variant belongs to.
type Process struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Counters carries aggregate run statistics. Durations and timestamps are
// epoch milliseconds.
type Counters struct {
	CreatedAt     int64   `json:"createdAt"`
	LastRunAt     int64   `json:"lastRunAt"`
	MinDurationMS int64   `json:"minDuration"`
	MaxDurationMS int64   `json:"maxDuration"`
	AvgDurationMS int64   `json:"avgDuration"`
	RunCount      int     `json:"runCount"`
	Coverage      float64 `json:"coverage"`
}

// StepNode is one recorded UI action. Its position in Variant.Steps is the
// execution and display order.
type StepNode struct {
	ID                    string `json:"id"`
	Description           string `json:"description"`
	TranslatedDescription string `json:"translatedDescription,omitempty"`
	ScreenshotKey         string `json:"screenshot"`
	AppType               string `json:"appType"`
	Locator               string `json:"locator,omitempty"`
	URL                   string `json:"url,omitempty"`
}

// Variant is the unit being exported. It is immutable for the duration of one
// export.
type Variant struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Process  Process    `json:"process"`
	Steps    []StepNode `json:"steps"`
	Counters Counters   `json:"counters"`
	AppTypes []string   `json:"appTypes"`
}

// Validate checks structural invariants: identifiers present and step IDs unique.
func (v *Variant) Validate() error {
	if v == nil {
		return errors.New("variant is nil")
	}
	if strings.TrimSpace(v.ID) == "" {
		return errors.New("variant id is required")
	}
	seen := make(map[string]struct{}, len(v.Steps))
	for i, step := range v.Steps {
		if strings.TrimSpace(step.ID) == "" {
			return fmt.Errorf("step %d: id is required", i+1)
		}
		if _, dup := seen[step.ID]; dup {
			return fmt.Errorf("step %d: duplicate id %q", i+1, step.ID)
		}
		seen[step.ID] = struct{}{}
	}
	return nil
}

// ScreenshotRecord is a search index document describing one captured frame.
type ScreenshotRecord struct {
	Timestamp   int64
	Hash        string
	Image       string
	Description string
	AppType     string
}

// Keys returns the lookup keys a step may use to reference this record.
func (r ScreenshotRecord) Keys() []string {
	keys := make([]string, 0, 2)
	if r.Timestamp != 0 {
		keys = append(keys, strconv.FormatInt(r.Timestamp, 10))
	}
	if r.Hash != "" {
		keys = append(keys, r.Hash)
	}
	return keys
}

// CapturedAt returns the capture time.
func (r ScreenshotRecord) CapturedAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// ErrNoImage reports a record without an image payload.
var ErrNoImage = errors.New("screenshot record has no image payload")

// DecodeImage decodes the base64 payload (optionally a data URI) and returns
// the raw bytes with a file extension derived from the content.
func (r ScreenshotRecord) DecodeImage() ([]byte, string, error) {
	payload := strings.TrimSpace(r.Image)
	if payload == "" {
		return nil, "", ErrNoImage
	}
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx >= 0 {
			payload = payload[idx+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode screenshot: %w", err)
		}
	}
	switch http.DetectContentType(data) {
	case "image/png":
		return data, ".png", nil
	case "image/jpeg":
		return data, ".jpeg", nil
	case "image/gif":
		return data, ".gif", nil
	default:
		return nil, "", fmt.Errorf("decode screenshot: unsupported image content")
	}
}
