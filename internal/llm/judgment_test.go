package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauserisk/internal/model"
)

const validJudgment = `{
  "ownership": "assigned",
  "exclusivity": "exclusive",
  "favor": "one-sided",
  "risk_reason": "All IP moves to the buyer.",
  "suggested_fix": "Limit the assignment to deliverables."
}`

func TestParseJudgment_Valid(t *testing.T) {
	j, err := ParseJudgment(validJudgment)
	require.NoError(t, err)

	assert.Equal(t, model.Judgment{
		Ownership:    "assigned",
		Exclusivity:  "exclusive",
		Favor:        "one-sided",
		RiskReason:   "All IP moves to the buyer.",
		SuggestedFix: "Limit the assignment to deliverables.",
	}, j)
}

func TestParseJudgment_NormalizesCategoricalCase(t *testing.T) {
	j, err := ParseJudgment(`{"ownership":" Licensed ","exclusivity":"NON-EXCLUSIVE","favor":"Balanced","risk_reason":"r","suggested_fix":"f"}`)
	require.NoError(t, err)
	assert.Equal(t, "licensed", j.Ownership)
	assert.Equal(t, "non-exclusive", j.Exclusivity)
	assert.Equal(t, "balanced", j.Favor)
}

func TestParseJudgment_StripsCodeFence(t *testing.T) {
	j, err := ParseJudgment("```json\n" + validJudgment + "\n```")
	require.NoError(t, err)
	assert.Equal(t, "assigned", j.Ownership)

	j, err = ParseJudgment("```" + validJudgment + "```")
	require.NoError(t, err)
	assert.Equal(t, "exclusive", j.Exclusivity)
}

func TestParseJudgment_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"prose", "The clause looks risky."},
		{"array", `[` + validJudgment + `]`},
		{"null", `null`},
		{"truncated", `{"ownership":"assigned","exclusivity":`},
		{"unknown field", `{"ownership":"assigned","exclusivity":"exclusive","favor":"balanced","risk_reason":"r","suggested_fix":"f","confidence":0.9}`},
		{"missing field", `{"ownership":"assigned","exclusivity":"exclusive","favor":"balanced","risk_reason":"r"}`},
		{"empty field", `{"ownership":"assigned","exclusivity":"exclusive","favor":"balanced","risk_reason":"  ","suggested_fix":"f"}`},
		{"ownership out of enum", `{"ownership":"sold","exclusivity":"exclusive","favor":"balanced","risk_reason":"r","suggested_fix":"f"}`},
		{"exclusivity out of enum", `{"ownership":"assigned","exclusivity":"sole","favor":"balanced","risk_reason":"r","suggested_fix":"f"}`},
		{"favor out of enum", `{"ownership":"assigned","exclusivity":"exclusive","favor":"fair","risk_reason":"r","suggested_fix":"f"}`},
		{"wrong type", `{"ownership":1,"exclusivity":"exclusive","favor":"balanced","risk_reason":"r","suggested_fix":"f"}`},
		{"trailing data", validJudgment + ` {"extra":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJudgment(tt.content)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestJudgmentSchema_MatchesModelVocabulary(t *testing.T) {
	data, err := json.Marshal(JudgmentSchema())
	require.NoError(t, err)

	var schema struct {
		Type                 string   `json:"type"`
		Required             []string `json:"required"`
		AdditionalProperties bool     `json:"additionalProperties"`
		Properties           map[string]struct {
			Enum []string `json:"enum"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, "object", schema.Type)
	assert.False(t, schema.AdditionalProperties)
	assert.ElementsMatch(t, []string{"ownership", "exclusivity", "favor", "risk_reason", "suggested_fix"}, schema.Required)
	assert.Equal(t, model.OwnershipValues, schema.Properties["ownership"].Enum)
	assert.Equal(t, model.ExclusivityValues, schema.Properties["exclusivity"].Enum)
	assert.Equal(t, model.FavorValues, schema.Properties["favor"].Enum)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("धारा 1. विक्रेता सभी अधिकार हस्तांतरित करेगा।", model.LanguageHindi)

	assert.Contains(t, p, "language: Hindi")
	assert.Contains(t, p, `"assigned", "licensed", "retained", "unclear"`)
	assert.Contains(t, p, "risk_reason")
	assert.Contains(t, p, "suggested_fix")
	assert.Contains(t, p, "विक्रेता")
}
