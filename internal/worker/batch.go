package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/clauserisk/internal/model"
)

// Analyzer defines the interface for analyzing one contract reference
type Analyzer interface {
	AnalyzeFile(ctx context.Context, ref string) (*model.Document, error)
}

// AnalyzeJob represents one contract analysis
type AnalyzeJob struct {
	Index    int
	Ref      string
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return &BatchResult{Index: j.Index, Ref: j.Ref, Error: err}
	}
	doc, err := j.Analyzer.AnalyzeFile(ctx, j.Ref)
	return &BatchResult{Index: j.Index, Ref: j.Ref, Document: doc, Error: err}
}

// BatchResult represents the result of one analysis in a batch
type BatchResult struct {
	Index    int
	Ref      string
	Document *model.Document
	Error    error
}

// GetError returns the error from the analysis
func (r *BatchResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes multiple contracts concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessRefs analyzes every reference and returns results in input
// order. References never started because ctx ended carry ctx's error.
func (b *BatchProcessor) ProcessRefs(ctx context.Context, refs []string) []*BatchResult {
	if len(refs) == 0 {
		return []*BatchResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	for i, ref := range refs {
		if !pool.Submit(&AnalyzeJob{Index: i, Ref: ref, Analyzer: b.analyzer}) {
			break
		}
	}

	ordered := make([]*BatchResult, len(refs))
	for _, r := range pool.Wait() {
		res := r.(*BatchResult)
		ordered[res.Index] = res
	}

	for i, res := range ordered {
		if res == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &BatchResult{Index: i, Ref: refs[i], Error: err}
		}
	}
	return ordered
}

// ProcessFile reads references from a list file and analyzes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*BatchResult, error) {
	refs, err := ReadRefsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read contract list: %w", err)
	}

	return b.ProcessRefs(ctx, refs), nil
}

// ReadRefsFromFile reads contract references from a file, one per line.
// Blank lines and # comments are skipped, duplicates dropped, and relative
// paths resolved against the list file's directory. URLs and "-" are kept
// as written.
func ReadRefsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	var refs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ref := resolveRef(base, line)
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return refs, nil
}

func resolveRef(base, ref string) string {
	lower := strings.ToLower(ref)
	switch {
	case ref == "-", strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return ref
	case filepath.IsAbs(ref):
		return filepath.Clean(ref)
	default:
		return filepath.Join(base, ref)
	}
}
