package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/llm"
	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/verify"
)

var (
	verifyLevel   string
	verifyContext string
	verifySources []string
	verifyJSON    bool
	verifyTimeout time.Duration

	showJSON  bool
	showLimit int
)

var verifyCmd = &cobra.Command{
	Use:   "verify <claim>",
	Short: "Verify a claim against gathered evidence",
	Long: `Gather evidence for a claim, rank it by semantic similarity, score source
credibility and run OSINT analysis, then fuse the results into a verdict.

Levels:
  fast      depth 2, up to 5 sources, 1 credit
  standard  depth 3, up to 10 sources, 3 credits (default)
  deep      depth 5, up to 20 sources, 10 credits

Examples:
  corroborate verify "Water boils at 100 degrees Celsius at sea level"
  corroborate verify "The Great Wall is visible from space" --level deep
  corroborate verify "Aspirin reduces fever" --source https://www.nih.gov/aspirin --json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var showCmd = &cobra.Command{
	Use:   "show [verification-id]",
	Short: "Show a stored verdict, or list recent verdicts",
	Long: `Show a verdict by id from the verdict store. Without an id, list the most
recent verdicts. Verdicts outlive the process only with the sqlite store.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	f := verifyCmd.Flags()
	f.StringVarP(&verifyLevel, "level", "l", string(model.LevelStandard), "verification level: fast, standard, deep")
	f.StringVar(&verifyContext, "context", "", "additional context appended to the search query")
	f.StringArrayVar(&verifySources, "source", nil, "explicit source URL to include (repeatable)")
	f.BoolVar(&verifyJSON, "json", false, "output the verdict as JSON")
	f.DurationVar(&verifyTimeout, "timeout", 5*time.Minute, "overall verification timeout")

	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "number of verdicts to list")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(showCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, verifyTimeout)
	defer cancelTimeout()

	v, err := a.newOrchestrator().Verify(ctx, verify.Request{
		Claim:   args[0],
		Context: verifyContext,
		Sources: verifySources,
		Level:   model.Level(verifyLevel),
	})
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	if verifyJSON {
		return writeJSON(os.Stdout, v)
	}
	printVerdict(os.Stdout, v)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if len(args) == 1 {
		v, err := a.store.Get(ctx, args[0])
		if err != nil {
			return fmt.Errorf("load verdict %s: %w", args[0], err)
		}
		if showJSON {
			return writeJSON(os.Stdout, v)
		}
		printVerdict(os.Stdout, v)
		return nil
	}

	list, err := a.store.List(ctx, showLimit)
	if err != nil {
		return fmt.Errorf("list verdicts: %w", err)
	}
	if showJSON {
		return writeJSON(os.Stdout, list)
	}
	if len(list) == 0 {
		fmt.Println("No stored verdicts")
		return nil
	}
	for _, v := range list {
		fmt.Printf("%s  %-10s  %.2f  %s  %s\n", v.ID, v.Status, v.Confidence, v.CreatedAt.Format(time.RFC3339), truncateClaim(v.Claim, 60))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// printVerdict writes the human-readable verdict
func printVerdict(w io.Writer, v *model.Verdict) {
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  %s\n", v.Claim)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "Status:      %s\n", strings.ToUpper(string(v.Status)))
	fmt.Fprintf(w, "Confidence:  %.3f\n", v.Confidence)
	fmt.Fprintf(w, "Level:       %s (%d credits)\n", v.Level, v.Credits)
	fmt.Fprintf(w, "Sources:     %d analysed in %s\n", v.SourcesAnalyzed, v.ProcessingTime.Round(time.Millisecond))
	fmt.Fprintf(w, "ID:          %s\n", v.ID)
	if v.Degraded {
		fmt.Fprintln(w, "\n⚠ No search provider returned results; evidence is synthetic")
	}
	fmt.Fprintf(w, "\n%s\n", v.Reasoning)

	printSources(w, "Supporting", v.Evidence.Supporting)
	printSources(w, "Conflicting", v.Evidence.Conflicting)
	printSources(w, "Neutral", v.Evidence.Neutral)

	if o := v.Evidence.OSINT; o != nil {
		fmt.Fprintf(w, "\nOSINT: intelligence %.2f (%s), %d communities, %d timeline clusters\n",
			o.IntelligenceScore, o.Quality, o.Communities, o.TimelineClusters)
		for _, r := range o.Recommendations {
			fmt.Fprintf(w, "  - %s\n", r)
		}
	}

	if len(v.Signals) > 0 {
		fmt.Fprintln(w, "\nSignals:")
		for _, s := range v.Signals {
			fmt.Fprintf(w, "  [%s] %s: %s\n", s.Severity, s.Type, s.Description)
		}
	}

	if v.LLM != nil {
		fmt.Fprintf(w, "\n%s", llm.RenderMarkdown(v.LLM))
	}
}

func printSources(w io.Writer, label string, sources []model.SourceAssessment) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s sources:\n", label)
	for _, s := range sources {
		fmt.Fprintf(w, "  • %s\n    %s\n    similarity %.2f, credibility %.2f (%s)\n",
			s.Title, s.URL, s.Similarity, s.Credibility, s.TrustLevel)
	}
}

func truncateClaim(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
