package correlate

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"variantshare/internal/logging"
	"variantshare/internal/variant"
)

// Rules controls which optional columns a row carries.
type Rules struct {
	// LocatorAppType is the structured-UI application type whose rows keep
	// their locator.
	LocatorAppType string
	// URLDenyAppTypes lists application types whose rows drop the URL.
	URLDenyAppTypes []string
}

// Row is one step enriched with its screenshot record.
type Row struct {
	Index                 int
	Number                string
	StepID                string
	Description           string
	TranslatedDescription string
	AppType               string
	Locator               string
	URL                   string
	ScreenshotKey         string
	Screenshot            variant.ScreenshotRecord
	Unresolved            bool
}

// Result is the correlated output for one variant.
type Result struct {
	Rows []Row
	// AppTypes lists the distinct application types in order of first
	// appearance.
	AppTypes   []string
	Unresolved int
}

// UnresolvedSteps returns the 1-based indexes of rows without a screenshot.
func (r Result) UnresolvedSteps() []int {
	var out []int
	for _, row := range r.Rows {
		if row.Unresolved {
			out = append(out, row.Index)
		}
	}
	return out
}

// Correlator joins steps with records. It is safe for concurrent use.
type Correlator struct {
	rules  Rules
	deny   map[string]struct{}
	logger *slog.Logger

	mu     sync.Mutex
	cached *Index
	builds int
}

// New constructs a correlator.
func New(rules Rules, logger *slog.Logger) *Correlator {
	deny := make(map[string]struct{}, len(rules.URLDenyAppTypes))
	for _, label := range rules.URLDenyAppTypes {
		deny[strings.ToLower(strings.TrimSpace(label))] = struct{}{}
	}
	rules.LocatorAppType = strings.ToLower(strings.TrimSpace(rules.LocatorAppType))
	return &Correlator{
		rules:  rules,
		deny:   deny,
		logger: logging.NewComponentLogger(logger, "correlator"),
	}
}

// IndexBuilds reports how many times the lookup index has been rebuilt.
func (c *Correlator) IndexBuilds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

func (c *Correlator) index(records []variant.ScreenshotRecord) *Index {
	fp := Fingerprint(records)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != nil && c.cached.fingerprint == fp {
		return c.cached
	}
	c.cached = NewIndex(records)
	c.builds++
	c.logger.Debug("screenshot index rebuilt",
		logging.Int("records", len(records)),
		logging.Int("keys", c.cached.Len()),
	)
	return c.cached
}

// Correlate produces one row per step in execution order.
func (c *Correlator) Correlate(v *variant.Variant, records []variant.ScreenshotRecord) Result {
	if v == nil {
		return Result{}
	}
	idx := c.index(records)
	result := Result{Rows: make([]Row, 0, len(v.Steps))}
	seen := make(map[string]struct{})
	addAppType := func(label string) {
		if label == "" {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		result.AppTypes = append(result.AppTypes, label)
	}

	for i, step := range v.Steps {
		row := Row{
			Index:                 i + 1,
			Number:                fmt.Sprintf("%02d", i+1),
			StepID:                step.ID,
			Description:           step.Description,
			TranslatedDescription: step.TranslatedDescription,
			AppType:               step.AppType,
			ScreenshotKey:         step.ScreenshotKey,
		}
		record, ok := idx.Lookup(step.ScreenshotKey)
		if ok {
			row.Screenshot = record
			if row.AppType == "" {
				row.AppType = record.AppType
			}
			if row.Description == "" {
				row.Description = record.Description
			}
		} else {
			row.Unresolved = true
			result.Unresolved++
			if idx.Ambiguous(step.ScreenshotKey) {
				c.logger.Warn("screenshot key matches conflicting records",
					logging.Int("step", row.Index),
					logging.String("key", step.ScreenshotKey),
				)
			}
		}
		if row.AppType != "" && row.AppType == c.rules.LocatorAppType {
			row.Locator = step.Locator
		}
		if _, denied := c.deny[row.AppType]; !denied {
			row.URL = step.URL
		}
		addAppType(row.AppType)
		result.Rows = append(result.Rows, row)
	}
	for _, label := range v.AppTypes {
		addAppType(label)
	}
	if result.Unresolved > 0 {
		c.logger.Info("steps without screenshot",
			logging.String(logging.FieldVariantID, v.ID),
			logging.Int("unresolved", result.Unresolved),
			logging.Int("steps", len(v.Steps)),
		)
	}
	return result
}
