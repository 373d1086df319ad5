package exporter

import (
	"log/slog"

	"variantshare/internal/config"
	"variantshare/internal/correlate"
	"variantshare/internal/document"
	"variantshare/internal/services/docgen"
	"variantshare/internal/services/searchindex"
	"variantshare/internal/timefmt"
)

// WithSource replaces the record source, e.g. with a StaticSource.
func WithSource(source RecordSource) Option {
	return func(p *Pipeline) {
		if source != nil {
			p.source = source
		}
	}
}

// NewFromConfig builds the production pipeline: Elasticsearch records, the
// remote PDF renderer and the in-process Office builders.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	dates, err := timefmt.Parse(cfg.Export.Timezone, cfg.Export.Locale)
	if err != nil {
		return nil, err
	}
	source, err := searchindex.NewClient(searchindex.Config{
		Addresses:  cfg.Search.Addresses,
		Index:      cfg.Search.Index,
		Username:   cfg.Search.Username,
		Password:   cfg.Search.Password,
		APIKey:     cfg.Search.APIKey,
		MaxResults: cfg.Search.MaxResults,
		Timeout:    cfg.SearchTimeout(),
	})
	if err != nil {
		return nil, err
	}
	renderer := docgen.NewClient(docgen.Config{
		BaseURL:        cfg.DocGen.BaseURL,
		RepositoryID:   cfg.DocGen.RepositoryID,
		TimeoutSeconds: cfg.DocGen.TimeoutSeconds,
	})
	builders := document.NewSet(
		document.NewPDFBuilder(renderer, cfg.DocGen.RepositoryID),
		document.NewWordBuilder(nil),
		document.NewPPTBuilder(),
		document.NewExcelBuilder(cfg.Export.ImageAppTypes),
	)
	correlator := correlate.New(correlate.Rules{
		LocatorAppType:  cfg.Export.LocatorAppType,
		URLDenyAppTypes: cfg.Export.URLDenyAppTypes,
	}, logger)

	base := []Option{WithLogger(logger), WithFilenamePrefix(cfg.Export.FilenamePrefix)}
	return New(source, correlator, builders, dates, append(base, opts...)...), nil
}
