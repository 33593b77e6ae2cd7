package model

import (
	"errors"
	"time"
)

// Fatal analysis outcomes. Everything else degrades into diagnostics.
var (
	ErrInputTooShort     = errors.New("input too short")
	ErrNoClausesDetected = errors.New("no clauses detected")
)

// Status is the outcome of a non-fatal analysis
type Status string

const (
	StatusOK       Status = "ok"       // Every stage ran at full confidence
	StatusDegraded Status = "degraded" // Usable result, see diagnostics
)

// DiagnosticCode classifies a non-fatal condition
type DiagnosticCode string

const (
	DiagSegmentationFallback DiagnosticCode = "segmentation_fallback_used"
	DiagExternalUnavailable  DiagnosticCode = "external_analysis_unavailable"
	DiagMalformedExternal    DiagnosticCode = "malformed_external_response"
	DiagAnalysisCancelled    DiagnosticCode = "analysis_cancelled"
)

// Diagnostic records a non-fatal condition on the document or a clause
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Clause  int            `json:"clause"` // Clause ordinal, -1 for document-level
	Message string         `json:"message,omitempty"`
}

// DocumentLevel marks a diagnostic that is not tied to one clause
const DocumentLevel = -1

// ClauseResult bundles a clause with everything computed from it
type ClauseResult struct {
	Clause      Clause         `json:"clause"`
	Features    FeatureSet     `json:"features"`
	Assessment  RiskAssessment `json:"assessment"`
	Judgment    *Judgment      `json:"judgment,omitempty"` // Present only when the semantic analyzer succeeded
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

// Document is the top-level aggregate of one analysis request
type Document struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	Language       LanguageTag    `json:"language"`
	Normalized     string         `json:"-"`
	Clauses        []ClauseResult `json:"clauses"`
	CompositeScore int            `json:"composite_score"`
	Band           Band           `json:"band"`
	BandCounts     map[Band]int   `json:"band_counts"`
	Status         Status         `json:"status"`
	Diagnostics    []Diagnostic   `json:"diagnostics,omitempty"`
	PolicyVersion  string         `json:"policy_version"`
	AnalyzedAt     time.Time      `json:"analyzed_at"`
}

// HasDiagnostic reports whether the document, or any of its clauses, carries code
func (d *Document) HasDiagnostic(code DiagnosticCode) bool {
	for _, diag := range d.Diagnostics {
		if diag.Code == code {
			return true
		}
	}
	for _, c := range d.Clauses {
		for _, diag := range c.Diagnostics {
			if diag.Code == code {
				return true
			}
		}
	}
	return false
}

// Scores returns per-clause scores in clause order
func (d *Document) Scores() []int {
	scores := make([]int, len(d.Clauses))
	for i, c := range d.Clauses {
		scores[i] = c.Assessment.Score
	}
	return scores
}
