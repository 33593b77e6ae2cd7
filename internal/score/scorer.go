// Package score maps clause features to bounded, explainable risk scores.
package score

import (
	"fmt"
	"math"
	"strings"

	"github.com/ppiankov/clauserisk/internal/model"
)

// Scorer calculates per-clause risk assessments under one policy
type Scorer struct {
	policy Policy
}

// NewScorer creates a scorer bound to the given policy
func NewScorer(policy Policy) *Scorer {
	return &Scorer{policy: policy}
}

// Policy returns the policy the scorer was built with
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Score computes the risk assessment of one feature set
func (s *Scorer) Score(fs model.FeatureSet) model.RiskAssessment {
	p := s.policy
	var reasons []string
	total := 0

	// Category order is fixed: it determines the order of reasons
	if fs.Ownership.Matched() {
		total += p.Ownership
		reasons = append(reasons, reason("ownership transfer", p.Ownership, fs.Ownership.Terms))
	}

	if obligation := s.obligationScore(fs.Obligation.Count); obligation > 0 {
		total += obligation
		reasons = append(reasons, reason("obligation", obligation, fs.Obligation.Terms))
	}

	if fs.Termination.Matched() {
		total += p.Termination
		reasons = append(reasons, reason("termination/indemnity", p.Termination, fs.Termination.Terms))
	}

	if fs.Exclusivity.Matched() {
		total += p.Exclusivity
		reasons = append(reasons, reason("exclusivity", p.Exclusivity, fs.Exclusivity.Terms))
	}

	if fs.Imbalance {
		total += p.Imbalance
		reasons = append(reasons, reason("party imbalance", p.Imbalance, fs.Roles))
	}

	score := clamp(total)
	band := p.Band(score)

	return model.RiskAssessment{
		Score:         score,
		Band:          band,
		Reasons:       reasons,
		SuggestedFix:  p.Fixes[band],
		PolicyVersion: p.Version,
	}
}

func (s *Scorer) obligationScore(count int) int {
	switch {
	case count >= 2:
		return s.policy.ObligationMultiple
	case count == 1:
		return s.policy.ObligationSingle
	default:
		return 0
	}
}

// Aggregate computes the document composite: the mean of clause scores
// rounded to the nearest integer, banded with the same thresholds
func (s *Scorer) Aggregate(scores []int) (int, model.Band, map[model.Band]int) {
	counts := make(map[model.Band]int, len(model.Bands))
	for _, b := range model.Bands {
		counts[b] = 0
	}
	if len(scores) == 0 {
		return 0, model.BandLow, counts
	}

	sum := 0
	for _, sc := range scores {
		counts[s.policy.Band(sc)]++
		sum += sc
	}

	composite := clamp(int(math.Round(float64(sum) / float64(len(scores)))))
	return composite, s.policy.Band(composite), counts
}

// reason renders one explanation line, e.g. "obligation (+15): shall"
func reason(category string, points int, terms []string) string {
	if len(terms) == 0 {
		return fmt.Sprintf("%s (+%d)", category, points)
	}
	return fmt.Sprintf("%s (+%d): %s", category, points, strings.Join(terms, ", "))
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
