// Package segment turns normalized contract text into ordered clause spans.
package segment

import (
	"unicode"

	"github.com/ppiankov/clauserisk/internal/model"
)

// DefaultScriptThreshold is the Devanagari share above which text is tagged Hindi
const DefaultScriptThreshold = 0.10

// Devanagari Unicode block
const (
	devanagariFirst = 'ऀ'
	devanagariLast  = 'ॿ'
)

// Classify labels text with the marker vocabulary it should be segmented with.
// The ratio is taken over non-whitespace runes; empty input is English.
func Classify(text string, threshold float64) model.LanguageTag {
	if threshold <= 0 {
		threshold = DefaultScriptThreshold
	}

	total, devanagari := 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r >= devanagariFirst && r <= devanagariLast {
			devanagari++
		}
	}

	if total == 0 {
		return model.LanguageEnglish
	}
	if float64(devanagari)/float64(total) > threshold {
		return model.LanguageHindi
	}
	return model.LanguageEnglish
}
