package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/gather"
	"github.com/ppiankov/corroborate/internal/intelligence"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/osint"
	"github.com/ppiankov/corroborate/internal/semantic"
)

var (
	researchSourceType string
	researchDepth      int
	researchMaxResults int
	researchThreshold  float64
	researchDetail     int
	researchSummary    string
	researchFormat     string
	researchOutput     string
	researchBuild      string
	researchAnalyze    bool
	researchTimeout    time.Duration
)

var researchCmd = &cobra.Command{
	Use:   "research <query>",
	Short: "Gather and analyse evidence for a query",
	Long: `Search for a query, fetch and extract the candidate pages, and keep the
items whose relevance reaches the threshold.

Examples:
  corroborate research "ocean acidification"
  corroborate research "solar cycle 25" --source-type news --max-results 10
  corroborate research "ocean acidification" --format markdown --out results.md
  corroborate research "ocean acidification" --build report
  corroborate research "ocean acidification" --analyze`,
	Args: cobra.ExactArgs(1),
	RunE: runResearch,
}

func init() {
	f := researchCmd.Flags()
	f.StringVar(&researchSourceType, "source-type", "", "source type: all, web, news, academic, reference")
	f.IntVar(&researchDepth, "depth", 0, "research depth (1-10)")
	f.IntVar(&researchMaxResults, "max-results", 0, "maximum number of results (1-100)")
	f.Float64Var(&researchThreshold, "threshold", -1, "relevance threshold (0-1)")
	f.IntVar(&researchDetail, "detail", 0, "detail level (1-10)")
	f.StringVar(&researchSummary, "summary", "", "summary length: brief, moderate, detailed")
	f.StringVarP(&researchFormat, "format", "f", "text", "output format: json, markdown, html, text")
	f.StringVarP(&researchOutput, "out", "o", "", "write output to file instead of stdout")
	f.StringVar(&researchBuild, "build", "", "build a document from the results: article, report, summary, presentation")
	f.BoolVar(&researchAnalyze, "analyze", false, "append intelligence and OSINT analysis (JSON)")
	f.DurationVar(&researchTimeout, "timeout", 5*time.Minute, "overall research timeout")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	format, err := model.ParseResultFormat(researchFormat)
	if err != nil {
		return err
	}

	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := researchConfig(a.cfg.Research, args[0])
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, researchTimeout)
	defer cancelTimeout()

	engine := a.newEngine()
	if verbose {
		engine.OnProgress(func(p model.Progress) {
			fmt.Fprintf(os.Stderr, "\r[%3d%%] processed %d/%d, kept %d", p.Percent, p.Processed, p.Total, p.Results)
		})
	}

	snap, err := engine.Run(ctx, cfg)
	if verbose {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}
	if snap.Stats.Degraded {
		fmt.Fprintln(os.Stderr, "Warning: no search provider returned results; evidence is synthetic")
	}

	out, closeOut, err := openOutput(researchOutput)
	if err != nil {
		return err
	}
	defer closeOut()

	if researchBuild != "" {
		doc, err := gather.NewContentBuilder(snap.Items).Build(gather.BuildKind(researchBuild))
		if err != nil {
			return err
		}
		if _, err := io.WriteString(out, doc); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	} else if err := gather.Render(out, snap, format); err != nil {
		return fmt.Errorf("render results: %w", err)
	}

	if researchAnalyze {
		if err := writeAnalysis(out, a, snap.Items, cfg.Query); err != nil {
			return err
		}
	}

	if researchOutput != "" {
		fmt.Fprintf(os.Stderr, "✓ Wrote %d results to %s\n", len(snap.Items), researchOutput)
	}
	return nil
}

// researchConfig overlays the command flags on the configured defaults
func researchConfig(base model.RunConfig, query string) model.RunConfig {
	cfg := base
	cfg.Query = query
	if researchSourceType != "" {
		cfg.SourceType = model.SourceType(researchSourceType)
	}
	if researchDepth > 0 {
		cfg.Depth = researchDepth
	}
	if researchMaxResults > 0 {
		cfg.MaxResults = researchMaxResults
	}
	if researchThreshold >= 0 {
		cfg.RelevanceThreshold = researchThreshold
	}
	if researchDetail > 0 {
		cfg.DetailLevel = researchDetail
	}
	if researchSummary != "" {
		cfg.SummaryLength = model.SummaryLength(researchSummary)
	}
	return cfg
}

type analysis struct {
	Intelligence intelligence.Report `json:"intelligence"`
	OSINT        osint.Report        `json:"osint"`
}

func writeAnalysis(w io.Writer, a *app, items []model.EvidenceItem, query string) error {
	report := analysis{
		Intelligence: intelligence.New(a.credibility, semantic.Options{SmoothIDF: true}).Analyze(items, query),
		OSINT:        osint.NewEngine().ComprehensiveAnalysis(osint.FromEvidence(items)),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encode analysis: %w", err)
	}
	return nil
}

// openOutput returns stdout or a created file
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
