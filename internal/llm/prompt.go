package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauserisk/internal/model"
)

const systemPrompt = "You review contract clauses for intellectual-property and obligation risk. " +
	"You answer with a single JSON object and nothing else."

// BuildPrompt constructs the per-clause judgment prompt
func BuildPrompt(clauseText string, lang model.LanguageTag) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze the following contract clause (language: %s).\n\n", lang.String())
	b.WriteString("Return a JSON object with exactly these keys:\n")
	fmt.Fprintf(&b, "- ownership: one of %s\n", quoteAll(model.OwnershipValues))
	fmt.Fprintf(&b, "- exclusivity: one of %s\n", quoteAll(model.ExclusivityValues))
	fmt.Fprintf(&b, "- favor: one of %s\n", quoteAll(model.FavorValues))
	b.WriteString("- risk_reason: one sentence explaining the main risk\n")
	b.WriteString("- suggested_fix: one sentence proposing a safer wording\n\n")
	b.WriteString("Do not add any other keys. Answer in English even when the clause is not.\n\n")
	b.WriteString("Clause:\n")
	b.WriteString(clauseText)

	return b.String()
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

func promptFor(req JudgeRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req.ClauseText, req.Language)
}
