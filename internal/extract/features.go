// Package extract derives rule-based risk features from clause text.
package extract

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ppiankov/clauserisk/internal/model"
)

// Keyword vocabularies. Matching is case-insensitive substring matching, so
// a term also catches its inflections ("assign" hits "assigned").
var (
	ownershipTerms = []string{
		"intellectual property", "assign", "transfer", "patent", "copyright",
		"trademark", "non-compete", "ownership", "royalty", "royalties",
		"work made for hire",
		"बौद्धिक संपदा", "हस्तांतरण", "समनुदेशन", "स्वामित्व", "पेटेंट",
		"कॉपीराइट", "ट्रेडमार्क",
	}
	obligationTerms = []string{
		"shall", "must", "obligation", "liable", "responsible",
		"बाध्य", "दायित्व", "उत्तरदायी", "जिम्मेदार",
	}
	exclusivityTerms = []string{
		"exclusive",
		"अनन्य",
	}
	terminationTerms = []string{
		"terminat", "indemnif", "indemnity", "penalty", "penalties",
		"समाप्त", "क्षतिपूर्ति", "जुर्माना", "दंड",
	}
)

// rolePairs are opposing party names; both present in one clause flags imbalance
var rolePairs = [][2]string{
	{"buyer", "seller"},
	{"licensor", "licensee"},
	{"employer", "employee"},
	{"client", "contractor"},
	{"assignor", "assignee"},
	{"क्रेता", "विक्रेता"},
	{"खरीदार", "विक्रेता"},
	{"लाइसेंसदाता", "लाइसेंसधारी"},
	{"नियोक्ता", "कर्मचारी"},
}

// FeatureExtractor scans clause text for risk keyword categories
type FeatureExtractor struct {
	ownership   []string
	obligation  []string
	exclusivity []string
	termination []string
	roles       [][2]string
}

// NewFeatureExtractor creates an extractor with the built-in vocabularies
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{
		ownership:   ownershipTerms,
		obligation:  obligationTerms,
		exclusivity: exclusivityTerms,
		termination: terminationTerms,
		roles:       rolePairs,
	}
}

// Extract computes the feature set of one clause. It is pure: the same text
// always yields the same features, and empty text yields the zero value.
func (e *FeatureExtractor) Extract(text string) model.FeatureSet {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return model.FeatureSet{}
	}

	fs := model.FeatureSet{
		Ownership:   countHits(lower, e.ownership),
		Obligation:  countHits(lower, e.obligation),
		Exclusivity: countHits(lower, e.exclusivity),
		Termination: countHits(lower, e.termination),
	}

	if pair, ok := e.findImbalance(lower); ok {
		fs.Imbalance = true
		fs.Roles = []string{pair[0], pair[1]}
	}

	return fs
}

// countHits counts every occurrence of every term and lists the matched
// terms in the order they first appear in the text
func countHits(lower string, terms []string) model.CategoryHits {
	type hit struct {
		term  string
		first int
	}

	var hits []hit
	total := 0
	for _, term := range terms {
		n := strings.Count(lower, term)
		if n == 0 {
			continue
		}
		total += n
		hits = append(hits, hit{term: term, first: strings.Index(lower, term)})
	}

	if total == 0 {
		return model.CategoryHits{}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].first < hits[j].first
	})

	result := model.CategoryHits{Count: total, Terms: make([]string, len(hits))}
	for i, h := range hits {
		result.Terms[i] = h.term
	}
	return result
}

// findImbalance returns the first role pair whose both sides occur as word
// tokens. Tokens match by prefix so plurals and possessives count.
func (e *FeatureExtractor) findImbalance(lower string) ([2]string, bool) {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r)
	})

	for _, pair := range e.roles {
		if hasTokenPrefix(tokens, pair[0]) && hasTokenPrefix(tokens, pair[1]) {
			return pair, true
		}
	}
	return [2]string{}, false
}

func hasTokenPrefix(tokens []string, role string) bool {
	for _, tok := range tokens {
		if strings.HasPrefix(tok, role) {
			return true
		}
	}
	return false
}
