package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-assurance/internal/application/analysis"
	"github.com/bryanwahyu/automaton-assurance/internal/application/ingest"
	"github.com/bryanwahyu/automaton-assurance/internal/config"
	"github.com/bryanwahyu/automaton-assurance/internal/domain/assurance"
	"github.com/bryanwahyu/automaton-assurance/internal/infra/ai"
)

// Result is what analyze writes and export reads. The field names match the
// body of POST /api/reports so a result can be saved as is.
type Result struct {
	ProjectName   string                      `json:"projectName"`
	ProjectNumber string                      `json:"projectNumber"`
	ProjectStage  string                      `json:"projectStage"`
	Report        assurance.AssuranceReport   `json:"report"`
	Documents     []assurance.DocumentSummary `json:"documents"`
}

type analyzeOptions struct {
	Name       string
	Number     string
	Stage      string
	FocusAreas []string
	Provider   string
	Out        string
	Files      []string
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Read project artifacts and run one assurance assessment",
	Example: `  assurancectl analyze -n "Payroll Modernisation" -N PRJ-001 \
    --focus "Budget & Cost Management" --focus "Risk & Issue Management" \
    docs/Business_Case.txt docs/Budget.csv -o result.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer log.Sync()

		opts := analyzeOpts
		opts.Files = args
		return runAnalyze(cmd.Context(), cfg, log, opts, cmd.OutOrStdout())
	},
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeOpts.Name, "name", "n", "", "project name")
	f.StringVarP(&analyzeOpts.Number, "number", "N", "", "project number")
	f.StringVarP(&analyzeOpts.Stage, "stage", "s", string(assurance.StageInitiation), "project stage")
	f.StringArrayVar(&analyzeOpts.FocusAreas, "focus", nil, "audit focus area (repeatable)")
	f.StringVar(&analyzeOpts.Provider, "provider", "", "override ai.provider (openai, gemini, offline)")
	f.StringVarP(&analyzeOpts.Out, "out", "o", "-", "output file, - for stdout")
	_ = analyzeCmd.MarkFlagRequired("name")
	_ = analyzeCmd.MarkFlagRequired("number")
}

func readArtifacts(ctx context.Context, in ingest.Ingestor, paths []string) ([]assurance.ProjectDocument, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		fh, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		files = append(files, ingest.File{Name: filepath.Base(p), Body: fh})
	}
	return in.ReadAll(ctx, files)
}

func runAnalyze(ctx context.Context, cfg *config.Config, log *zap.Logger, opts analyzeOptions, stdout io.Writer) error {
	if opts.Provider != "" {
		cfg.AI.Provider = opts.Provider
	}
	provider, model, err := ai.New(ctx, cfg)
	if err != nil {
		return err
	}

	docs, err := readArtifacts(ctx, ingest.Ingestor{MaxBytes: cfg.Ingest.MaxFileBytes}, opts.Files)
	if err != nil {
		return err
	}

	project := assurance.ProjectData{
		Name:      opts.Name,
		Number:    opts.Number,
		Stage:     assurance.Stage(opts.Stage),
		Documents: docs,
	}
	for _, fa := range opts.FocusAreas {
		project.FocusAreas = append(project.FocusAreas, assurance.FocusArea(fa))
	}

	log.Info("running assessment",
		zap.String("provider", provider.Name()),
		zap.String("model", model),
		zap.Int("documents", len(docs)),
	)
	report, err := analysis.NewService(provider, model, cfg.AI.MaxTokens, log).Analyze(ctx, project)
	if err != nil {
		return err
	}

	stage := project.Stage
	if stage == "" {
		stage = assurance.StageInitiation
	}
	res := Result{
		ProjectName:   project.Name,
		ProjectNumber: project.Number,
		ProjectStage:  string(stage),
		Report:        *report,
		Documents:     project.DocumentSummaries(),
	}
	return writeOutput(opts.Out, stdout, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	})
}

// writeOutput writes to path, or to stdout when path is "-" or empty.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(stdout)
	}
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(fh); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func readResult(path string, stdin io.Reader) (*Result, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		fh, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer fh.Close()
		r = fh
	}
	var res Result
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &res, nil
}
