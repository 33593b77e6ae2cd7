package model

// LanguageTag identifies which marker vocabulary applies to a document
type LanguageTag string

const (
	LanguageEnglish LanguageTag = "en" // Latin-script markers (default)
	LanguageHindi   LanguageTag = "hi" // Devanagari-script markers
)

func (l LanguageTag) String() string {
	switch l {
	case LanguageHindi:
		return "Hindi"
	default:
		return "English"
	}
}

// Clause is a contiguous, non-overlapping span of normalized contract text
type Clause struct {
	Index int    `json:"index"` // Ordinal within the document (0-based)
	Text  string `json:"text"`  // Trimmed clause text
	Start int    `json:"start"` // Byte offset into the normalized text (inclusive)
	End   int    `json:"end"`   // Byte offset into the normalized text (exclusive)
}

// CategoryHits records keyword matches for one feature category
type CategoryHits struct {
	Count int      `json:"count"`           // Total occurrences, not deduplicated
	Terms []string `json:"terms,omitempty"` // Distinct terms in order of first occurrence
}

// Matched reports whether the category fired at all
func (c CategoryHits) Matched() bool {
	return c.Count > 0
}

// FeatureSet holds the rule-based features of a single clause
type FeatureSet struct {
	Ownership   CategoryHits `json:"ownership"`
	Obligation  CategoryHits `json:"obligation"`
	Exclusivity CategoryHits `json:"exclusivity"`
	Termination CategoryHits `json:"termination"`
	Imbalance   bool         `json:"imbalance"`
	Roles       []string     `json:"roles,omitempty"` // Opposing role pair that set Imbalance
}

// Band is the coarse risk classification of a score
type Band string

const (
	BandLow    Band = "Low"
	BandMedium Band = "Medium"
	BandHigh   Band = "High"
)

// Bands lists all bands from least to most severe
var Bands = []Band{BandLow, BandMedium, BandHigh}

// RiskAssessment is the explainable score of one clause
type RiskAssessment struct {
	Score         int      `json:"score"` // Bounded to [0,100]
	Band          Band     `json:"band"`
	Reasons       []string `json:"reasons,omitempty"` // Contributing categories, fixed order
	SuggestedFix  string   `json:"suggested_fix"`
	PolicyVersion string   `json:"policy_version"`
}

// Judgment is a validated response from the external semantic analyzer
type Judgment struct {
	Ownership    string `json:"ownership"`   // assigned, licensed, retained, unclear
	Exclusivity  string `json:"exclusivity"` // exclusive, non-exclusive, unclear
	Favor        string `json:"favor"`       // one-sided, balanced, neutral
	RiskReason   string `json:"risk_reason"`
	SuggestedFix string `json:"suggested_fix"`
}

// Allowed categorical values of a Judgment
var (
	OwnershipValues   = []string{"assigned", "licensed", "retained", "unclear"}
	ExclusivityValues = []string{"exclusive", "non-exclusive", "unclear"}
	FavorValues       = []string{"one-sided", "balanced", "neutral"}
)
