package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauserisk/internal/model"
)

func sampleDocument() *model.Document {
	return &model.Document{
		ID:             "doc-1",
		Source:         "contract.txt",
		Language:       model.LanguageEnglish,
		Normalized:     "normalized text is not exported",
		CompositeScore: 48,
		Band:           model.BandMedium,
		BandCounts:     map[model.Band]int{model.BandHigh: 1, model.BandMedium: 0, model.BandLow: 1},
		Status:         model.StatusDegraded,
		PolicyVersion:  "canonical-v1",
		AnalyzedAt:     fixedTime,
		Diagnostics: []model.Diagnostic{
			{Code: model.DiagSegmentationFallback, Clause: model.DocumentLevel},
		},
		Clauses: []model.ClauseResult{
			{
				Clause: model.Clause{Index: 0, Text: "The Buyer shall assign all intellectual property to the Seller."},
				Assessment: model.RiskAssessment{
					Score:        70,
					Band:         model.BandHigh,
					Reasons:      []string{"ownership transfer (+35): assign, intellectual property"},
					SuggestedFix: "retain IP rights, cap liability, add mutual termination rights",
				},
				Judgment: &model.Judgment{
					Ownership:    "assigned",
					Exclusivity:  "unclear",
					Favor:        "one-sided",
					RiskReason:   "all IP moves to the Seller",
					SuggestedFix: "license instead of assigning",
				},
			},
			{
				Clause: model.Clause{Index: 1, Text: "This license is exclusive and shall continue in perpetuity."},
				Assessment: model.RiskAssessment{
					Score:        25,
					Band:         model.BandLow,
					SuggestedFix: "no major changes needed",
				},
				Diagnostics: []model.Diagnostic{
					{Code: model.DiagMalformedExternal, Clause: 1, Message: "unknown field"},
				},
			},
		},
	}
}

func TestRenderer_WriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).WriteJSON(&buf, sampleDocument()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "doc-1", decoded["id"])
	assert.Equal(t, "degraded", decoded["status"])
	assert.EqualValues(t, 48, decoded["composite_score"])
	assert.NotContains(t, buf.String(), "normalized text is not exported")
	assert.Contains(t, buf.String(), `"risk_reason": "all IP moves to the Seller"`)
	assert.Contains(t, buf.String(), `"malformed_external_response"`)
}

func TestRenderer_WriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(true).WriteMarkdown(&buf, sampleDocument()))
	md := buf.String()

	assert.Contains(t, md, "# Contract Risk Report")
	assert.Contains(t, md, "**Composite score:** 48/100 (Medium)")
	assert.Contains(t, md, "| High | 1 |")
	assert.Contains(t, md, "### Clause 1: High (70/100)")
	assert.Contains(t, md, "- ownership transfer (+35): assign, intellectual property")
	assert.Contains(t, md, "**Suggested fix:** retain IP rights, cap liability, add mutual termination rights")
	assert.Contains(t, md, "- Risk: all IP moves to the Seller")
	assert.Contains(t, md, "### Clause 2: Low (25/100)")
	assert.Contains(t, md, "- `malformed_external_response`: unknown field")
	assert.Contains(t, md, "- `segmentation_fallback_used`")
	assert.Contains(t, md, footer)
}

func TestRenderer_WriteMarkdownWithoutFooter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false).WriteMarkdown(&buf, sampleDocument()))
	assert.NotContains(t, buf.String(), footer)
}

func TestRenderer_RenderSummary(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(true)
	r.SetOutput(&buf)

	r.RenderSummary(sampleDocument())
	out := buf.String()

	assert.Contains(t, out, "Composite risk: 48/100 (Medium)")
	assert.Contains(t, out, "High: 1  Medium: 0  Low: 1")
	assert.Contains(t, out, "[High  70] clause 1")
	assert.NotContains(t, out, "clause 2:")
	assert.Contains(t, out, "! segmentation_fallback_used")
	assert.Contains(t, out, "1 clause(s) fell back")
}

func TestRenderer_RenderToFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(true)
	doc := sampleDocument()

	jsonPath := filepath.Join(dir, "out", "report.json")
	mdPath := filepath.Join(dir, "report.md")
	require.NoError(t, r.RenderJSON(doc, jsonPath))
	require.NoError(t, r.RenderMarkdown(doc, mdPath))

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"policy_version": "canonical-v1"`)

	data, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Contract Risk Report")
}

func TestRenderReport_StdoutKeepsOnlyReport(t *testing.T) {
	var buf bytes.Buffer
	p := newTestPipeline(t)
	p.Renderer().SetOutput(&buf)

	require.NoError(t, p.RenderReport(sampleDocument(), StdoutPath, "", false))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotContains(t, buf.String(), "Composite risk")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	assert.Equal(t, "abcd…", excerpt("abcdefgh", 5))
	assert.Equal(t, "धारा…", excerpt("धाराएँ", 5))
}
