package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application"
	"github.com/bryanwahyu/automaton-assurance/internal/application/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/config"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	domain "github.com/bryanwahyu/automaton-assurance/internal/domain/reports"
	"github.com/bryanwahyu/automaton-assurance/internal/export/pdf"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/db/memory"
	"github.com/bryanwahyu/automaton-assurance/internal/render"
)

type exportOptions struct {
	In     string
	Format string
	Mode   string
	Out    string
}

var exportOpts exportOptions

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an analyze result as xlsx, pdf or html",
	Example: `  assurancectl export -i result.json -f xlsx
  assurancectl export -i result.json -f pdf --mode professional -o audit.pdf`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()
		return runExport(cmd.Context(), cfg, log, exportOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportOpts.In, "in", "i", "-", "analyze result JSON, - for stdin")
	f.StringVarP(&exportOpts.Format, "format", "f", "xlsx", "xlsx, pdf or html")
	f.StringVar(&exportOpts.Mode, "mode", string(domain.ViewDashboard), "view for pdf and html: dashboard or professional")
	f.StringVarP(&exportOpts.Out, "out", "o", "", "output file, defaults to the export filename, - for stdout")
}

// cli runs have no tenant; everything goes through a throwaway store.
var localActor = reports.Actor{UserID: "assurancectl", OrganizationID: "local"}

func runExport(ctx context.Context, cfg *config.Config, log *zap.Logger, opts exportOptions, stdin io.Reader, stdout io.Writer) error {
	res, err := readResult(opts.In, stdin)
	if err != nil {
		return err
	}

	views, err := render.New()
	if err != nil {
		return err
	}
	store := memory.New()
	svc := &reports.Service{
		Repo:  store,
		Audit: store.Audit(),
		Views: views,
		Clock: application.SystemClock{},
		Log:   log,
	}

	format := strings.ToLower(opts.Format)
	if format == "pdf" {
		printer := pdf.New(pdf.Config{
			ChromeBin:   cfg.PDF.ChromeBin,
			DebuggerURL: cfg.PDF.DebuggerURL,
			Timeout:     cfg.PDF.Timeout,
		}, log)
		defer printer.Close()
		svc.PDF = printer
	}

	docs := make([]assurance.ProjectDocument, 0, len(res.Documents))
	for _, d := range res.Documents {
		docs = append(docs, assurance.ProjectDocument{ID: d.ID, Name: d.Name, Type: d.Type, Size: d.Size, Category: d.Category})
	}
	saved, err := svc.Save(ctx, localActor, reports.SaveCommand{
		Project: assurance.ProjectData{
			Name:      res.ProjectName,
			Number:    res.ProjectNumber,
			Stage:     assurance.Stage(res.ProjectStage),
			Documents: docs,
		},
		Report:   res.Report,
		ViewMode: domain.ViewMode(opts.Mode),
	})
	if err != nil {
		return err
	}

	mode := domain.ParseViewMode(opts.Mode)
	var out *reports.Export
	switch format {
	case "xlsx":
		out, err = svc.ExportXLSX(ctx, localActor.OrganizationID, saved.ID)
	case "pdf":
		out, err = svc.ExportPDF(ctx, localActor.OrganizationID, saved.ID, mode)
	case "html":
		var html []byte
		html, err = svc.View(ctx, localActor.OrganizationID, saved.ID, mode)
		out = &reports.Export{
			Format:      "html",
			Filename:    fmt.Sprintf("AssurePro_Audit_%s.html", domain.FilePart(res.ProjectNumber)),
			ContentType: "text/html; charset=utf-8",
			Data:        html,
		}
	default:
		return fmt.Errorf("unknown format %q (want xlsx, pdf or html)", opts.Format)
	}
	if err != nil {
		return err
	}

	path := opts.Out
	if path == "" {
		path = out.Filename
	}
	if err := writeOutput(path, stdout, func(w io.Writer) error {
		_, err := w.Write(out.Data)
		return err
	}); err != nil {
		return err
	}
	if path != "-" {
		log.Info("export written", zap.String("file", path), zap.String("format", out.Format))
	}
	return nil
}
