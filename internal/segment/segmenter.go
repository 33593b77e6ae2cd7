package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/clauserisk/internal/model"
)

// Defaults applied when the caller passes a non-positive limit
const (
	DefaultMinClauseLength = 40
	DefaultMaxClauses      = 15

	// minMarkerClauses is the fewest marker-based clauses accepted before
	// falling back to sentence segmentation
	minMarkerClauses = 3
)

// Boundary markers per language, combined by alternation. Order matters:
// keyword markers must win over the bare numeral they contain.
var markerPatterns = map[model.LanguageTag]*regexp.Regexp{
	model.LanguageEnglish: regexp.MustCompile(
		`(?i)\b(?:section|clause|article)\s+\d+(?:\.\d+)*\.?` +
			`|\d{1,3}\.` +
			`|\(\d{1,3}\)`),
	model.LanguageHindi: regexp.MustCompile(
		`(?:धारा|खंड|अनुच्छेद)\s+[0-9०-९]+(?:\.[0-9०-९]+)*\.?` +
			`|[0-9०-९]{1,3}\.` +
			`|\([0-9०-९]{1,3}\)`),
}

// Result is the output of one segmentation pass
type Result struct {
	Normalized   string         // Whitespace-normalized input; clause offsets index into it
	Clauses      []model.Clause // Ordered, non-overlapping
	FallbackUsed bool           // Sentence segmentation replaced the marker pass
}

// Segmenter splits contract text into clauses
type Segmenter struct {
	minLength  int
	maxClauses int
}

// NewSegmenter creates a segmenter with the given limits
func NewSegmenter(minClauseLength, maxClauses int) *Segmenter {
	if minClauseLength <= 0 {
		minClauseLength = DefaultMinClauseLength
	}
	if maxClauses <= 0 {
		maxClauses = DefaultMaxClauses
	}
	return &Segmenter{
		minLength:  minClauseLength,
		maxClauses: maxClauses,
	}
}

// Normalize collapses every whitespace run to a single space and trims the ends
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Segment normalizes text and splits it into clauses. An empty Clauses slice
// means neither the marker pass nor the sentence pass found anything.
func (s *Segmenter) Segment(text string, lang model.LanguageTag) Result {
	normalized := Normalize(text)
	result := Result{Normalized: normalized}

	clauses := s.byMarkers(normalized, lang)
	if len(clauses) < minMarkerClauses {
		if sentences := s.bySentences(normalized); len(sentences) > 0 {
			clauses = sentences
			result.FallbackUsed = true
		}
	}

	if len(clauses) > s.maxClauses {
		clauses = clauses[:s.maxClauses]
	}
	for i := range clauses {
		clauses[i].Index = i
	}

	result.Clauses = clauses
	return result
}

// byMarkers accumulates text between boundary markers. Each marker flushes
// the current buffer and seeds the next one; text before the first marker
// becomes the implicit leading clause.
func (s *Segmenter) byMarkers(text string, lang model.LanguageTag) []model.Clause {
	re, ok := markerPatterns[lang]
	if !ok {
		re = markerPatterns[model.LanguageEnglish]
	}

	var clauses []model.Clause
	bufStart := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if !isMarker(text, loc[0], loc[1]) {
			continue
		}
		clauses = s.flush(clauses, text, bufStart, loc[0])
		bufStart = loc[0]
	}
	return s.flush(clauses, text, bufStart, len(text))
}

// bySentences splits after terminal punctuation followed by whitespace
func (s *Segmenter) bySentences(text string) []model.Clause {
	var clauses []model.Clause
	start := 0
	for i, r := range text {
		if !isTerminal(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end < len(text) && text[end] == ' ' {
			clauses = s.flush(clauses, text, start, end)
			start = end + 1
		}
	}
	return s.flush(clauses, text, start, len(text))
}

// flush appends text[start:end] as a clause when it survives trimming, the
// length floor and the consecutive-duplicate check
func (s *Segmenter) flush(clauses []model.Clause, text string, start, end int) []model.Clause {
	if start >= end {
		return clauses
	}
	span := text[start:end]
	trimmed := strings.TrimSpace(span)
	if trimmed == "" || utf8.RuneCountInString(trimmed) < s.minLength {
		return clauses
	}
	if n := len(clauses); n > 0 && clauses[n-1].Text == trimmed {
		return clauses
	}

	lead := len(span) - len(strings.TrimLeft(span, " "))
	return append(clauses, model.Clause{
		Text:  trimmed,
		Start: start + lead,
		End:   start + lead + len(trimmed),
	})
}

// isMarker rejects regex hits that are not boundaries: every marker must
// start a word, and a bare numeral must be followed by a space or the end
// of input so decimals and amounts are left alone
func isMarker(text string, start, end int) bool {
	if start > 0 {
		switch text[start-1] {
		case ' ', '(', '[', '"', '\'':
		default:
			return false
		}
	}

	first, _ := utf8.DecodeRuneInString(text[start:])
	if isDigit(first) && strings.HasSuffix(text[start:end], ".") {
		return end == len(text) || text[end] == ' '
	}
	return true
}

func isDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= '०' && r <= '९')
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '।':
		return true
	}
	return false
}
