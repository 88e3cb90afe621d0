package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/corroborate/internal/model"
	"github.com/ppiankov/corroborate/internal/verify"
	"github.com/ppiankov/corroborate/internal/worker"
)

var (
	batchConcurrency int
	batchOutputDir   string
	batchLevel       string
	batchTimeout     time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify claims from a file in parallel",
	Long: `Batch verifies many claims concurrently:
- Read claims from the input file (one per line, # starts a comment)
- Verify claims in parallel with a configurable worker count
- Write one JSON verdict per claim to the output directory

Example:
  corroborate batch claims.txt
  corroborate batch claims.txt --concurrency 4 --output-dir ./verdicts
  corroborate batch claims.txt --level fast --timeout 20m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 3, "number of concurrent verifications")
	batchCmd.Flags().StringVar(&batchOutputDir, "output-dir", "./corroborate-verdicts", "output directory for verdicts")
	batchCmd.Flags().StringVar(&batchLevel, "level", string(model.LevelStandard), "verification level: fast, standard, deep")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")

	rootCmd.AddCommand(batchCmd)
}

type verifyJob struct {
	claim  string
	level  model.Level
	pool   chan *verify.Orchestrator
	outDir string
}

type verifyResult struct {
	claim   string
	verdict *model.Verdict
	path    string
	err     error
}

func (r verifyResult) GetError() error { return r.err }

// Execute borrows an orchestrator, since each wraps a single-run engine
func (j verifyJob) Execute(ctx context.Context) worker.Result {
	var o *verify.Orchestrator
	select {
	case o = <-j.pool:
	case <-ctx.Done():
		return verifyResult{claim: j.claim, err: ctx.Err()}
	}
	defer func() { j.pool <- o }()

	v, err := o.Verify(ctx, verify.Request{Claim: j.claim, Level: j.level})
	if err != nil {
		return verifyResult{claim: j.claim, err: err}
	}

	path := filepath.Join(j.outDir, v.ID+".json")
	if err := writeVerdictFile(path, v); err != nil {
		return verifyResult{claim: j.claim, verdict: v, err: err}
	}
	return verifyResult{claim: j.claim, verdict: v, path: path}
}

func writeVerdictFile(path string, v *model.Verdict) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create verdict file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close verdict file: %w", closeErr)
		}
	}()
	return writeJSON(f, v)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	claims, err := worker.ReadLinesFromFile(file)
	if err != nil {
		return err
	}
	if len(claims) == 0 {
		return fmt.Errorf("no claims found in %s", file)
	}
	level := model.Level(batchLevel)
	if _, ok := level.Tier(); !ok {
		return fmt.Errorf("%w: unknown verification level %q", model.ErrConfiguration, batchLevel)
	}
	if batchConcurrency < 1 {
		batchConcurrency = 1
	}

	a, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := os.MkdirAll(batchOutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Corroborate Batch Verification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s (%d claims)\n", file, len(claims))
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", batchConcurrency)
	fmt.Fprintf(os.Stderr, "  Level:        %s\n", level)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n\n", batchOutputDir)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, batchTimeout)
	defer cancelTimeout()

	pool := make(chan *verify.Orchestrator, batchConcurrency)
	for i := 0; i < batchConcurrency; i++ {
		pool <- a.newOrchestrator()
	}

	jobs := make([]worker.Job, len(claims))
	for i, claim := range claims {
		jobs[i] = verifyJob{claim: claim, level: level, pool: pool, outDir: batchOutputDir}
	}

	start := time.Now()
	succeeded, failed := 0, 0
	counts := make(map[model.VerdictStatus]int)
	worker.Ordered(ctx, batchConcurrency, jobs, func(i int, r worker.Result) bool {
		res, _ := r.(verifyResult)
		if err := r.GetError(); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "[%d/%d] ✗ %s: %v\n", i+1, len(claims), truncateClaim(claims[i], 50), err)
			return !errors.Is(err, context.Canceled)
		}
		succeeded++
		counts[res.verdict.Status]++
		fmt.Fprintf(os.Stderr, "[%d/%d] ✓ %-10s %.2f  %s\n", i+1, len(claims), res.verdict.Status, res.verdict.Confidence, truncateClaim(claims[i], 50))
		a.logger.Debug("verdict written", "path", res.path)
		return true
	})

	fmt.Fprintf(os.Stderr, "\nCompleted in %s: %d succeeded, %d failed", time.Since(start).Round(time.Second), succeeded, failed)
	if skipped := len(claims) - succeeded - failed; skipped > 0 {
		fmt.Fprintf(os.Stderr, ", %d skipped", skipped)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "  verified %d, uncertain %d, unverified %d\n",
		counts[model.StatusVerified], counts[model.StatusUncertain], counts[model.StatusUnverified])

	if failed > 0 && succeeded == 0 {
		return fmt.Errorf("all %d verifications failed", failed)
	}
	return nil
}
