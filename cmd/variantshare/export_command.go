package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"variantshare/internal/api"
	"variantshare/internal/artifact"
	"variantshare/internal/config"
	"variantshare/internal/dispatch"
	"variantshare/internal/document"
	"variantshare/internal/exporter"
	"variantshare/internal/services/mailer"
	"variantshare/internal/variant"
)

type exportOptions struct {
	variantPath string
	recordsPath string
	format      string
	mode        string
	output      string
	force       bool
	to          []string
	cc          []string
	subject     string
	body        string
	jsonOutput  bool
}

type exportSummary struct {
	Artifact string            `json:"artifact"`
	Format   string            `json:"format"`
	Mode     string            `json:"mode"`
	Output   string            `json:"output"`
	Bytes    int               `json:"bytes"`
	Steps    int               `json:"steps"`
	Report   *api.ExportReport `json:"report"`
	SentTo   []string          `json:"sentTo,omitempty"`
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Build a document for a variant file and optionally send it",
		Long: "Build a PDF, Word, PowerPoint or Excel document for a variant.\n" +
			"Screenshots come from the configured search index unless --records points at a JSON dump.\n" +
			"The artifact is written only to --output; pass --to to also dispatch it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runExport(cmd, ctx, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.variantPath, "variant", "", "Variant file (YAML or JSON)")
	flags.StringVar(&opts.recordsPath, "records", "", "Screenshot records JSON (array or search response) instead of the search index")
	flags.StringVarP(&opts.format, "format", "f", "", "Output format: pdf, docx, pptx or xlsx")
	flags.StringVar(&opts.mode, "mode", "", "Text mode: variant or translated")
	flags.StringVarP(&opts.output, "output", "o", "", "Destination file for the artifact")
	flags.BoolVar(&opts.force, "force", false, "Overwrite the output file if it exists")
	flags.StringSliceVar(&opts.to, "to", nil, "Recipient address (repeatable or comma separated)")
	flags.StringSliceVar(&opts.cc, "cc", nil, "Carbon-copy address (repeatable or comma separated)")
	flags.StringVar(&opts.subject, "subject", "", "Mail subject (defaults to the artifact name)")
	flags.StringVar(&opts.body, "body", "", "Mail body text")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the summary as JSON")
	_ = cmd.MarkFlagRequired("variant")
	_ = cmd.MarkFlagRequired("format")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runExport(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, opts exportOptions) error {
	logger := ctx.cliLogger()

	v, err := variant.Load(opts.variantPath)
	if err != nil {
		return fmt.Errorf("load variant: %w", err)
	}
	format, err := document.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	mode, err := document.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	if strings.TrimSpace(opts.mode) == "" && cfg.Export.TranslatedDefault {
		mode = document.ModeTranslated
	}
	output, err := config.ExpandPath(opts.output)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if !opts.force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output %s already exists (use --force to replace it)", output)
		}
	}

	var pipelineOpts []exporter.Option
	if opts.recordsPath != "" {
		source, err := exporter.LoadStaticSource(opts.recordsPath)
		if err != nil {
			return err
		}
		pipelineOpts = append(pipelineOpts, exporter.WithSource(source))
	}
	pipeline, err := exporter.NewFromConfig(cfg, logger, pipelineOpts...)
	if err != nil {
		return err
	}

	var transport mailer.Transport
	if len(opts.to) > 0 {
		transport, err = mailer.FromConfig(cfg)
		if err != nil {
			return fmt.Errorf("configure mail transport: %w", err)
		}
	}
	job := pipeline.ForVariant(v)
	manager := artifact.NewManager(job, dispatch.NewClient(transport, logger), nil, artifact.WithLogger(logger))
	defer manager.Close()

	built, err := manager.Generate(cmd.Context(), format, mode)
	if err != nil {
		return err
	}
	if err := writeArtifactFile(output, built.Data); err != nil {
		return err
	}

	summary := exportSummary{
		Artifact: built.Name,
		Format:   string(format),
		Mode:     string(mode),
		Output:   output,
		Bytes:    built.Size(),
		Steps:    len(v.Steps),
		Report:   api.FromReport(job.LastReport()),
	}

	if len(opts.to) > 0 {
		subject := strings.TrimSpace(opts.subject)
		if subject == "" {
			subject = built.Name
		}
		req := dispatch.Request{To: opts.to, CC: opts.cc, Subject: subject, Body: opts.body}
		if err := manager.Send(cmd.Context(), req); err != nil {
			var dispatchErr *dispatch.Error
			if errors.As(err, &dispatchErr) {
				return fmt.Errorf("artifact written to %s but not sent: %w", output, err)
			}
			return err
		}
		summary.SentTo = opts.to
	}

	if opts.jsonOutput {
		return writeJSON(cmd, summary)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderExportSummary(summary))
	return nil
}

func writeArtifactFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := path + ".partial"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize artifact: %w", err)
	}
	return nil
}

func renderExportSummary(s exportSummary) string {
	pairs := [][2]string{
		{"Artifact", s.Artifact},
		{"Format", s.Format},
		{"Mode", s.Mode},
		{"Output", s.Output},
		{"Size", strconv.Itoa(s.Bytes) + " bytes"},
		{"Steps", strconv.Itoa(s.Steps)},
	}
	if s.Report != nil {
		pairs = append(pairs,
			[2]string{"Records", strconv.Itoa(s.Report.Records)},
			[2]string{"Rejected", strconv.Itoa(s.Report.Rejected)},
			[2]string{"Unresolved", strconv.Itoa(s.Report.Unresolved)},
			[2]string{"Apps", strings.Join(s.Report.AppTypes, ", ")},
		)
	}
	pairs = append(pairs, [2]string{"Sent", yesNo(len(s.SentTo) > 0)})
	if len(s.SentTo) > 0 {
		pairs = append(pairs, [2]string{"Recipients", strings.Join(s.SentTo, ", ")})
	}
	return renderKeyValues(pairs)
}
