package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/ppiankov/clauserisk/internal/model"
)

// judgmentSchema mirrors model.Judgment for structured-output requests
type judgmentSchema struct {
	Ownership    string `json:"ownership" jsonschema:"enum=assigned,enum=licensed,enum=retained,enum=unclear"`
	Exclusivity  string `json:"exclusivity" jsonschema:"enum=exclusive,enum=non-exclusive,enum=unclear"`
	Favor        string `json:"favor" jsonschema:"enum=one-sided,enum=balanced,enum=neutral"`
	RiskReason   string `json:"risk_reason" jsonschema:"minLength=1,description=One sentence explaining the main risk"`
	SuggestedFix string `json:"suggested_fix" jsonschema:"minLength=1,description=One sentence proposing a safer wording"`
}

// JudgmentSchema returns the JSON schema a provider response must satisfy
func JudgmentSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(&judgmentSchema{})
}

// rawJudgment detects absent keys, which a plain string field would hide
type rawJudgment struct {
	Ownership    *string `json:"ownership"`
	Exclusivity  *string `json:"exclusivity"`
	Favor        *string `json:"favor"`
	RiskReason   *string `json:"risk_reason"`
	SuggestedFix *string `json:"suggested_fix"`
}

// ParseJudgment validates raw provider output. Unknown keys, missing keys,
// empty values, values outside the allowed sets and trailing data are all
// rejected with ErrMalformedResponse.
func ParseJudgment(content string) (model.Judgment, error) {
	body := stripFence(content)
	if body == "" {
		return model.Judgment{}, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var raw rawJudgment
	if err := dec.Decode(&raw); err != nil {
		return model.Judgment{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Judgment{}, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedResponse)
	}

	var j model.Judgment
	var err error
	if j.Ownership, err = enumField("ownership", raw.Ownership, model.OwnershipValues); err != nil {
		return model.Judgment{}, err
	}
	if j.Exclusivity, err = enumField("exclusivity", raw.Exclusivity, model.ExclusivityValues); err != nil {
		return model.Judgment{}, err
	}
	if j.Favor, err = enumField("favor", raw.Favor, model.FavorValues); err != nil {
		return model.Judgment{}, err
	}
	if j.RiskReason, err = textField("risk_reason", raw.RiskReason); err != nil {
		return model.Judgment{}, err
	}
	if j.SuggestedFix, err = textField("suggested_fix", raw.SuggestedFix); err != nil {
		return model.Judgment{}, err
	}
	return j, nil
}

func textField(name string, v *string) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: missing field %q", ErrMalformedResponse, name)
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return "", fmt.Errorf("%w: empty field %q", ErrMalformedResponse, name)
	}
	return s, nil
}

func enumField(name string, v *string, allowed []string) (string, error) {
	s, err := textField(name, v)
	if err != nil {
		return "", err
	}
	s = strings.ToLower(s)
	if !slices.Contains(allowed, s) {
		return "", fmt.Errorf("%w: field %q has value %q, want one of %s", ErrMalformedResponse, name, s, strings.Join(allowed, ", "))
	}
	return s, nil
}

// stripFence removes one surrounding ``` or ```json fence. Local models
// often add it even when asked not to.
func stripFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
