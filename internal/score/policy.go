package score

import "github.com/ppiankov/clauserisk/internal/model"

// Policy is a versioned set of category weights and band thresholds.
// Every assessment records the version it was computed with.
type Policy struct {
	Version string

	Ownership          int // any ownership-transfer match
	ObligationSingle   int // exactly one obligation match
	ObligationMultiple int // two or more obligation matches
	Termination        int // any termination/indemnity match
	Exclusivity        int // any exclusivity match
	Imbalance          int // opposing roles in the same clause

	HighThreshold   int // score >= HighThreshold is High
	MediumThreshold int // score >= MediumThreshold is Medium

	Fixes map[model.Band]string
}

// CanonicalPolicy returns the single shipped weighting policy
func CanonicalPolicy() Policy {
	return Policy{
		Version:            "canonical-v1",
		Ownership:          35,
		ObligationSingle:   15,
		ObligationMultiple: 25,
		Termination:        15,
		Exclusivity:        10,
		Imbalance:          20,
		HighThreshold:      60,
		MediumThreshold:    30,
		Fixes: map[model.Band]string{
			model.BandHigh:   "retain IP rights, cap liability, add mutual termination rights",
			model.BandMedium: "add time limits to exclusivity, clarify obligations",
			model.BandLow:    "no major changes needed",
		},
	}
}

// Band maps a bounded score to its risk band
func (p Policy) Band(score int) model.Band {
	switch {
	case score >= p.HighThreshold:
		return model.BandHigh
	case score >= p.MediumThreshold:
		return model.BandMedium
	default:
		return model.BandLow
	}
}
