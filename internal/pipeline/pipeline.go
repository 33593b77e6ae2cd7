// Package pipeline wires the analysis stages together: script
// classification, segmentation, per-clause feature extraction with an
// optional semantic judgment, scoring, aggregation and report rendering.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ppiankov/clauserisk/internal/extract"
	"github.com/ppiankov/clauserisk/internal/ingest"
	"github.com/ppiankov/clauserisk/internal/llm"
	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/metrics"
	"github.com/ppiankov/clauserisk/internal/model"
	"github.com/ppiankov/clauserisk/internal/score"
	"github.com/ppiankov/clauserisk/internal/segment"
	"github.com/ppiankov/clauserisk/internal/worker"
)

// AuditSink receives every completed analysis
type AuditSink interface {
	Append(ctx context.Context, doc *model.Document) (string, error)
}

// Pipeline orchestrates the complete analysis process
type Pipeline struct {
	segmenter *segment.Segmenter
	extractor *extract.FeatureExtractor
	scorer    *score.Scorer
	mergeMode score.MergeMode
	analyzer  *llm.Analyzer // Optional semantic analyzer (nil if disabled)
	injected  bool          // analyzer came from WithAnalyzer
	loader    *ingest.Loader
	renderer  *Renderer
	recorder  metrics.Recorder
	audit     AuditSink
	logger    logging.Logger
	config    model.AnalysisConfig
	now       func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithAnalyzer sets the semantic analyzer, overriding the configured one
func WithAnalyzer(a *llm.Analyzer) Option {
	return func(p *Pipeline) {
		p.analyzer = a
		p.injected = true
	}
}

// WithLoader sets the document loader used by AnalyzeFile
func WithLoader(l *ingest.Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithAuditSink appends every successful analysis to sink
func WithAuditSink(sink AuditSink) Option {
	return func(p *Pipeline) { p.audit = sink }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the time source stamped on documents
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline creates a new pipeline with the given configuration. A
// semantic analyzer is built from cfg.Semantic unless WithAnalyzer is
// given; if that fails the pipeline runs rule-based only.
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	mode, err := score.ParseMergeMode(cfg.Semantic.MergeMode)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		segmenter: segment.NewSegmenter(cfg.Analysis.MinClauseLength, cfg.Analysis.MaxClauses),
		extractor: extract.NewFeatureExtractor(),
		scorer:    score.NewScorer(score.CanonicalPolicy()),
		mergeMode: mode,
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		recorder:  metrics.NewNopRecorder(),
		logger:    logging.NewNopLogger(),
		config:    cfg.Analysis,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	if !p.injected && cfg.Semantic.Provider != "" {
		a, err := NewAnalyzerFromConfig(cfg, p.logger)
		if err != nil {
			p.logger.Warn("semantic analyzer disabled", logging.Err(err))
		} else {
			p.analyzer = a
		}
	}
	if p.loader == nil {
		p.loader = ingest.NewLoader(cfg.Loader, cfg.Semantic, p.logger)
	}

	return p, nil
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// SemanticEnabled reports whether clauses are sent to a semantic analyzer
func (p *Pipeline) SemanticEnabled() bool {
	return p.analyzer.IsEnabled()
}

// SemanticProvider returns the semantic provider name, or "" when disabled
func (p *Pipeline) SemanticProvider() string {
	return p.analyzer.ProviderName()
}

// AnalyzeFile loads ref (a path, an http(s) URL or "-") and analyzes it
func (p *Pipeline) AnalyzeFile(ctx context.Context, ref string) (*model.Document, error) {
	loaded, err := p.loader.Load(ctx, ref)
	if err != nil {
		p.recorder.ObserveFailure("load")
		return nil, err
	}
	return p.Analyze(ctx, loaded.Source, loaded.Text)
}

// Analyze runs the full analysis over text. Fatal outcomes are returned as
// errors wrapping model.ErrInputTooShort, model.ErrNoClausesDetected or the
// context error; everything else degrades into diagnostics.
func (p *Pipeline) Analyze(ctx context.Context, source, text string) (*model.Document, error) {
	start := time.Now()

	minInput := p.config.MinInputLength
	if n := utf8.RuneCountInString(strings.TrimSpace(text)); n < minInput {
		p.recorder.ObserveFailure("input_too_short")
		return nil, fmt.Errorf("%w: %d characters, need at least %d", model.ErrInputTooShort, n, minInput)
	}

	lang := segment.Classify(text, p.config.ScriptThreshold)
	seg := p.segmenter.Segment(text, lang)
	if len(seg.Clauses) == 0 {
		p.recorder.ObserveFailure("no_clauses")
		return nil, fmt.Errorf("%w: no clause of at least the minimum length found", model.ErrNoClausesDetected)
	}

	id := uuid.NewString()
	logger := p.logger.With(logging.String("document", id), logging.String("language", string(lang)))
	logger.Debug("document segmented",
		logging.Int("clauses", len(seg.Clauses)),
		logging.Bool("fallback", seg.FallbackUsed))

	var diags []model.Diagnostic
	if seg.FallbackUsed {
		diags = append(diags, model.Diagnostic{
			Code:    model.DiagSegmentationFallback,
			Clause:  model.DocumentLevel,
			Message: "fewer than 3 marker-delimited clauses; split on sentences instead",
		})
	}

	results := p.runClauses(ctx, seg.Clauses, lang, logger)
	if len(results) == 0 {
		p.recorder.ObserveFailure("cancelled")
		return nil, fmt.Errorf("analysis cancelled before any clause completed: %w", ctx.Err())
	}
	if dropped := len(seg.Clauses) - len(results); dropped > 0 {
		diags = append(diags, model.Diagnostic{
			Code:    model.DiagAnalysisCancelled,
			Clause:  model.DocumentLevel,
			Message: fmt.Sprintf("%d of %d clauses were not analyzed", dropped, len(seg.Clauses)),
		})
	}

	doc := &model.Document{
		ID:            id,
		Source:        source,
		Language:      lang,
		Normalized:    seg.Normalized,
		Clauses:       results,
		Status:        model.StatusOK,
		Diagnostics:   diags,
		PolicyVersion: p.scorer.Policy().Version,
		AnalyzedAt:    p.now().UTC(),
	}
	doc.CompositeScore, doc.Band, doc.BandCounts = p.scorer.Aggregate(doc.Scores())
	if degraded(doc) {
		doc.Status = model.StatusDegraded
	}

	p.recorder.ObserveAnalysis(doc.Status, time.Since(start))
	for _, c := range doc.Clauses {
		p.recorder.ObserveClause(c.Assessment.Band)
	}

	if p.audit != nil {
		// Audit failures never invalidate a computed analysis
		if _, err := p.audit.Append(context.WithoutCancel(ctx), doc); err != nil {
			logger.Error("audit append failed", logging.Err(err))
		}
	}

	logger.Info("analysis complete",
		logging.String("source", source),
		logging.Int("composite", doc.CompositeScore),
		logging.String("band", string(doc.Band)),
		logging.String("status", string(doc.Status)),
		logging.Duration("took", time.Since(start)))

	return doc, nil
}

// runClauses fans the per-clause stage out on a worker pool and returns
// completed results in clause order. Clauses skipped because ctx was done
// are omitted.
func (p *Pipeline) runClauses(ctx context.Context, clauses []model.Clause, lang model.LanguageTag, logger logging.Logger) []model.ClauseResult {
	pool := worker.NewPool(ctx, p.config.Workers)
	for _, c := range clauses {
		if !pool.Submit(&clauseJob{p: p, clause: c, lang: lang, logger: logger}) {
			break
		}
	}

	var results []model.ClauseResult
	for _, r := range pool.Wait() {
		out := r.(*clauseOutcome)
		if out.err != nil {
			continue
		}
		results = append(results, out.result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Clause.Index < results[j].Clause.Index
	})
	return results
}

// analyzeClause runs extract, the optional judgment, merge and score for
// one clause
func (p *Pipeline) analyzeClause(ctx context.Context, c model.Clause, lang model.LanguageTag, logger logging.Logger) (model.ClauseResult, error) {
	if err := ctx.Err(); err != nil {
		return model.ClauseResult{}, err
	}

	res := model.ClauseResult{Clause: c}
	features := p.extractor.Extract(c.Text)
	res.Features = features

	if p.analyzer.IsEnabled() {
		j, err := p.analyzer.Judge(ctx, c.Text, lang)
		switch {
		case err == nil:
			res.Judgment = j
			features = score.MergeJudgment(features, *j, p.mergeMode)
		case ctx.Err() != nil:
			return model.ClauseResult{}, ctx.Err()
		default:
			code := diagnosticFor(err)
			res.Diagnostics = append(res.Diagnostics, model.Diagnostic{
				Code:    code,
				Clause:  c.Index,
				Message: err.Error(),
			})
			p.recorder.ObserveSemanticFallback(code)
			logger.Debug("clause scored rule-based only",
				logging.Int("clause", c.Index),
				logging.String("reason", string(code)))
		}
	}

	res.Assessment = p.scorer.Score(features)
	return res, nil
}

func diagnosticFor(err error) model.DiagnosticCode {
	if errors.Is(err, llm.ErrMalformedResponse) {
		return model.DiagMalformedExternal
	}
	return model.DiagExternalUnavailable
}

func degraded(doc *model.Document) bool {
	if len(doc.Diagnostics) > 0 {
		return true
	}
	for _, c := range doc.Clauses {
		if len(c.Diagnostics) > 0 {
			return true
		}
	}
	return false
}

// clauseJob adapts one clause to the worker pool
type clauseJob struct {
	p      *Pipeline
	clause model.Clause
	lang   model.LanguageTag
	logger logging.Logger
}

func (j *clauseJob) Execute(ctx context.Context) worker.Result {
	res, err := j.p.analyzeClause(ctx, j.clause, j.lang, j.logger)
	return &clauseOutcome{result: res, err: err}
}

type clauseOutcome struct {
	result model.ClauseResult
	err    error
}

func (o *clauseOutcome) GetError() error {
	return o.err
}
