package cli

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauserisk/internal/ingest"
	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchFlags   analysisFlags
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <list-file>",
	Short: "Analyze many contracts from a list file in parallel",
	Long: `Batch analyzes every contract named in a list file:
- One file path or URL per line (blank lines and # comments are skipped)
- Relative paths resolve against the list file's directory
- Contracts are analyzed concurrently with a configurable worker count
- Each contract gets its own JSON and Markdown report

Example:
  clauserisk batch contracts.txt
  clauserisk batch contracts.txt --concurrency 8 --output-dir ./reports
  clauserisk batch contracts.txt --timeout 30m --audit`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of contracts analyzed at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./clauserisk-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	batchFlags.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, logger, err := setup(cmd, &batchFlags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  clauserisk Batch Analysis\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.Semantic.Provider != "" {
		fmt.Fprintf(os.Stderr, "  Semantic:     %s (%s mode)\n", cfg.Semantic.Provider, cfg.Semantic.MergeMode)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, closer, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Analyzing contracts with %d workers...\n\n", concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := p.Renderer()
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Ref, result.Error)
			logger.Debug("batch item failed", logging.String("source", result.Ref), logging.Err(result.Error))
			continue
		}

		base := reportBaseName(result.Index, result.Ref)
		jsonPath := filepath.Join(outputDir, base+".json")
		mdPath := filepath.Join(outputDir, base+".md")

		if err := renderer.RenderJSON(result.Document, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Ref, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Document, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Ref, err)
			continue
		}

		successCount++
		doc := result.Document
		fmt.Fprintf(os.Stderr, "✓ %s (risk: %d/100 %s, %d clauses, %s)\n",
			result.Ref, doc.CompositeScore, doc.Band, len(doc.Clauses), doc.Status)
	}

	// Summary
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d contracts\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if successCount == 0 && failureCount > 0 {
		return fmt.Errorf("all %d contracts failed", failureCount)
	}
	return nil
}

// reportBaseName names a batch report: the list position keeps names unique
// when two contracts share a file name
func reportBaseName(index int, ref string) string {
	var name string
	if u, err := url.Parse(ref); err == nil && ingest.IsURL(ref) {
		name = u.Host
		if base := path.Base(u.Path); base != "." && base != "/" {
			name += "-" + strings.TrimSuffix(base, path.Ext(base))
		}
	} else {
		name = filepath.Base(ref)
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	if name == "" || name == "." || name == string(filepath.Separator) || name == ingest.StdinRef {
		name = "contract"
	}
	return fmt.Sprintf("%03d-%s", index+1, sanitizeFilename(name))
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(s)

	// Limit length
	if runes := []rune(s); len(runes) > 100 {
		s = string(runes[:100])
	}
	return s
}
