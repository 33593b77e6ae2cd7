package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	analyzeTimeout time.Duration
	analyzeFlags   analysisFlags
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url|->",
	Short: "Analyze a single contract and generate a clause risk report",
	Long: `Analyze reads one contract (plain text, HTML, a URL, or "-" for stdin) and:
- Normalizes the text and detects its language (en or hi)
- Splits it into clauses on numbered or lettered markers
- Scores each clause for ownership, exclusivity, obligation and
  termination risk with transparent keyword rules
- Optionally asks a semantic analyzer for a structured second opinion
- Aggregates a composite score and writes JSON and Markdown reports

Example:
  clauserisk analyze contract.txt
  clauserisk analyze contract.html --json report.json --md report.md
  cat contract.txt | clauserisk analyze - --json -
  clauserisk analyze contract.txt --llm --llm-provider groq`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", "report.json", `output JSON path ("-" for stdout, "" to skip)`)
	analyzeCmd.Flags().StringVar(&outMD, "md", "", `output Markdown path ("-" for stdout, optional)`)
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 2*time.Minute, "overall analysis timeout")

	analyzeFlags.register(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ref := args[0]
	if outJSON == pipeline.StdoutPath && outMD == pipeline.StdoutPath {
		return fmt.Errorf("--json and --md cannot both write to stdout")
	}

	cfg, logger, err := setup(cmd, &analyzeFlags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", ref)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", analyzeTimeout)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Analysis.Workers)
		if cfg.Semantic.Provider != "" {
			fmt.Fprintf(os.Stderr, "Semantic analyzer: %s (%s mode)\n", cfg.Semantic.Provider, cfg.Semantic.MergeMode)
		}
		fmt.Fprintln(os.Stderr)
	}

	p, closer, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	doc, err := p.AnalyzeFile(ctx, ref)
	if err != nil {
		logger.Debug("analysis failed", logging.String("source", ref), logging.Err(err))
		return fmt.Errorf("analyze %s: %w", ref, err)
	}

	return p.RenderReport(doc, outJSON, outMD, verbose)
}
