package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauserisk/internal/model"
)

// MergeMode decides how a semantic judgment combines with keyword features
type MergeMode string

const (
	// MergeSupplement lets the judgment add evidence keyword matching missed
	MergeSupplement MergeMode = "supplement"
	// MergeSubstitute replaces ownership, exclusivity and imbalance with the judgment
	MergeSubstitute MergeMode = "substitute"
)

// ParseMergeMode validates a configured merge mode; empty means supplement
func ParseMergeMode(s string) (MergeMode, error) {
	switch MergeMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MergeSupplement:
		return MergeSupplement, nil
	case MergeSubstitute:
		return MergeSubstitute, nil
	default:
		return "", fmt.Errorf("unknown merge mode: %s (supported: supplement, substitute)", s)
	}
}

// Pseudo-terms recorded when a category fired because of the judgment
const (
	semanticAssigned  = "semantic:assigned"
	semanticExclusive = "semantic:exclusive"
	semanticOneSided  = "semantic:one-sided"
)

// MergeJudgment returns a new feature set combining fs with a validated
// judgment. Obligation and termination are never touched: the analyzer
// does not judge them. fs itself is not modified.
func MergeJudgment(fs model.FeatureSet, j model.Judgment, mode MergeMode) model.FeatureSet {
	out := model.FeatureSet{
		Ownership:   copyHits(fs.Ownership),
		Obligation:  copyHits(fs.Obligation),
		Exclusivity: copyHits(fs.Exclusivity),
		Termination: copyHits(fs.Termination),
		Imbalance:   fs.Imbalance,
		Roles:       append([]string(nil), fs.Roles...),
	}

	assigned := j.Ownership == "assigned"
	exclusive := j.Exclusivity == "exclusive"
	oneSided := j.Favor == "one-sided"

	if mode == MergeSubstitute {
		out.Ownership = judged(assigned, semanticAssigned)
		out.Exclusivity = judged(exclusive, semanticExclusive)
		out.Imbalance = oneSided
		out.Roles = nil
		if oneSided {
			out.Roles = []string{semanticOneSided}
		}
		return out
	}

	if assigned {
		out.Ownership = addHit(out.Ownership, semanticAssigned)
	}
	if exclusive {
		out.Exclusivity = addHit(out.Exclusivity, semanticExclusive)
	}
	if oneSided && !out.Imbalance {
		out.Imbalance = true
		out.Roles = []string{semanticOneSided}
	}
	return out
}

func judged(fired bool, term string) model.CategoryHits {
	if !fired {
		return model.CategoryHits{}
	}
	return model.CategoryHits{Count: 1, Terms: []string{term}}
}

func addHit(h model.CategoryHits, term string) model.CategoryHits {
	h.Count++
	h.Terms = append(h.Terms, term)
	return h
}

func copyHits(h model.CategoryHits) model.CategoryHits {
	return model.CategoryHits{Count: h.Count, Terms: append([]string(nil), h.Terms...)}
}
