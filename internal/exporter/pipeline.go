package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"variantshare/internal/correlate"
	"variantshare/internal/document"
	"variantshare/internal/logging"
	"variantshare/internal/services"
	"variantshare/internal/services/searchindex"
	"variantshare/internal/timefmt"
	"variantshare/internal/variant"
)

// RecordSource supplies the screenshot records for a variant.
type RecordSource interface {
	Fetch(ctx context.Context, scope searchindex.Scope) (searchindex.Result, error)
}

// Report summarises record ingestion and correlation for one run.
type Report struct {
	Records    int           `json:"records"`
	Rejected   int           `json:"rejected"`
	Unresolved int           `json:"unresolved"`
	AppTypes   []string      `json:"appTypes"`
	Duration   time.Duration `json:"-"`
}

// Pipeline runs exports. It holds no per-variant state.
type Pipeline struct {
	source     RecordSource
	correlator *correlate.Correlator
	builders   *document.Set
	dates      *timefmt.Formatter
	prefix     string
	logger     *slog.Logger
}

// Option customizes the pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.NewComponentLogger(logger, "exporter")
	}
}

// WithFilenamePrefix sets the artifact name prefix.
func WithFilenamePrefix(prefix string) Option {
	return func(p *Pipeline) {
		p.prefix = strings.TrimSpace(prefix)
	}
}

// New assembles a pipeline.
func New(source RecordSource, correlator *correlate.Correlator, builders *document.Set, dates *timefmt.Formatter, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:     source,
		correlator: correlator,
		builders:   builders,
		dates:      dates,
		logger:     logging.NewComponentLogger(nil, "exporter"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BaseName returns the artifact file name stem for v.
func (p *Pipeline) BaseName(v *variant.Variant) string {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		name = v.ID
	}
	if p.prefix == "" {
		return name
	}
	return p.prefix + "_" + name
}

// Run exports v in the given format and mode.
func (p *Pipeline) Run(ctx context.Context, v *variant.Variant, format document.Format, mode document.Mode) (*document.Artifact, Report, error) {
	start := time.Now()
	if err := v.Validate(); err != nil {
		return nil, Report{}, services.Wrap(services.ErrValidation, "exporter", "run", "invalid variant", err)
	}
	if !p.builders.Supports(format) {
		return nil, Report{}, &document.BuildError{Format: format, Kind: document.KindUnsupportedFormat}
	}
	ctx = services.WithVariantID(services.WithFormat(ctx, string(format)), v.ID)
	logger := logging.WithContext(ctx, p.logger)

	var fetched searchindex.Result
	if p.source != nil {
		var err error
		fetched, err = p.source.Fetch(ctx, searchindex.Scope{ProcessID: v.Process.ID, VariantID: v.ID})
		if err != nil {
			return nil, Report{}, &document.BuildError{Format: format, Kind: document.KindRemoteGenerationFailed, Err: fmt.Errorf("fetch screenshots: %w", err)}
		}
	}
	for _, rejection := range fetched.Rejected {
		logger.Debug("screenshot record rejected", logging.String("reason", rejection.String()))
	}

	result := p.correlator.Correlate(v, fetched.Records)
	report := Report{
		Records:    len(fetched.Records),
		Rejected:   len(fetched.Rejected),
		Unresolved: result.Unresolved,
		AppTypes:   result.AppTypes,
	}
	in := document.Input{
		Variant:  v,
		Rows:     result.Rows,
		Metadata: document.NewMetadata(v, result.AppTypes, p.dates),
		Mode:     mode,
		BaseName: p.BaseName(v),
		Dates:    p.dates,
	}
	artifact, err := p.builders.Build(ctx, format, in)
	report.Duration = time.Since(start)
	if err != nil {
		logger.Warn("export failed",
			logging.Error(err),
			logging.Int("records", report.Records),
			logging.Int("unresolved", report.Unresolved),
		)
		return nil, report, err
	}
	logger.Info("export built",
		logging.String("artifact", artifact.Name),
		logging.Int("bytes", artifact.Size()),
		logging.Int("steps", len(result.Rows)),
		logging.Int("rejected", report.Rejected),
		logging.Duration("elapsed", report.Duration),
	)
	return artifact, report, nil
}

// Job binds a pipeline to one variant.
type Job struct {
	pipeline *Pipeline
	variant  *variant.Variant

	mu   sync.Mutex
	last Report
}

// ForVariant returns a job exporting v.
func (p *Pipeline) ForVariant(v *variant.Variant) *Job {
	return &Job{pipeline: p, variant: v}
}

// Generate runs the pipeline for the bound variant.
func (j *Job) Generate(ctx context.Context, format document.Format, mode document.Mode) (*document.Artifact, error) {
	artifact, report, err := j.pipeline.Run(ctx, j.variant, format, mode)
	j.mu.Lock()
	j.last = report
	j.mu.Unlock()
	return artifact, err
}

// LastReport returns the report of the most recent run.
func (j *Job) LastReport() Report {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Variant returns the bound variant.
func (j *Job) Variant() *variant.Variant { return j.variant }
