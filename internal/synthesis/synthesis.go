// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// instructionBlock closes every synthesis prompt. The response contract is
// enforced by parseContract; anything outside it is replaced by the default.
const instructionBlock = `Based only on the evidence above, assess the safety of this substance during pregnancy and breastfeeding.

Respond with a single JSON object and nothing else:
{"pregnancy_safety": "safe|caution|avoid|unknown", "breastfeeding_safety": "safe|caution|avoid|unknown", "warnings": ["short warning strings"], "summary": "two to three sentences of actionable guidance", "evidence_quality": "high|moderate|low"}`

// DefaultConfidence is carried by the safe default verdict substituted on a
// response contract violation.
const DefaultConfidence = 0.3

// DefaultVerdict is the safe substitution for a contract-violating model
// response. It claims no sources.
func DefaultVerdict(substance string) *types.SafetyVerdict {
	return &types.SafetyVerdict{
		SubstanceName:       substance,
		PregnancySafety:     types.SafetyUnknown,
		BreastfeedingSafety: types.SafetyUnknown,
		Warnings:            []string{"Consult healthcare provider"},
		Summary:             fmt.Sprintf("Analysis of %s could not be completed reliably. Please consult your healthcare provider.", substance),
		Confidence:          DefaultConfidence,
		SourcesUsed:         []string{},
	}
}

// ConfidenceForSources returns the tiered confidence for the number of
// evidence slots that were present at synthesis time.
func ConfidenceForSources(n int) float64 {
	switch {
	case n >= 3:
		return 0.8
	case n >= 2:
		return 0.7
	default:
		return 0.5
	}
}

// Synthesize builds the evidence context, calls the backend once, and maps
// the reply onto a verdict. A backend transport failure is returned to the
// caller; a contract violation is absorbed into the default verdict.
func Synthesize(ctx context.Context, backend Backend, substance string, bundle *types.EvidenceBundle) (*types.SafetyVerdict, error) {
	prompt := BuildContext(substance, bundle)

	raw, err := backend.Invoke(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("synthesis backend: %w", err)
	}

	parsed, err := parseContract(raw)
	if err != nil {
		return DefaultVerdict(substance), nil
	}

	verdict := &types.SafetyVerdict{
		SubstanceName:       substance,
		PregnancySafety:     types.NormalizeSafety(parsed.PregnancySafety),
		BreastfeedingSafety: types.NormalizeSafety(parsed.BreastfeedingSafety),
		Warnings:            parsed.Warnings,
		Summary:             parsed.Summary,
		Confidence:          ConfidenceForSources(bundle.PresentCount()),
		SourcesUsed:         bundle.SourcesPresent(),
	}
	if verdict.Warnings == nil {
		verdict.Warnings = []string{}
	}
	verdict.ClampWarnings()
	return verdict, nil
}

// contractResponse is the required shape of the model reply.
type contractResponse struct {
	PregnancySafety     string   `json:"pregnancy_safety"`
	BreastfeedingSafety string   `json:"breastfeeding_safety"`
	Warnings            []string `json:"warnings"`
	Summary             string   `json:"summary"`
	EvidenceQuality     string   `json:"evidence_quality"`
}

var contractKeys = []string{
	"pregnancy_safety", "breastfeeding_safety", "warnings", "summary", "evidence_quality",
}

// parseContract strips markdown fences and validates the response against
// the contract: a JSON object with all five keys, correctly typed.
func parseContract(raw string) (*contractResponse, error) {
	cleaned := StripFences(raw)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &keys); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	for _, key := range contractKeys {
		if _, ok := keys[key]; !ok {
			return nil, fmt.Errorf("response missing key %q", key)
		}
	}

	var parsed contractResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("response field types: %w", err)
	}
	if parsed.Summary == "" {
		return nil, fmt.Errorf("response has empty summary")
	}
	return &parsed, nil
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag. Unfenced input passes through unchanged.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimSpace(strings.TrimPrefix(text, "```"))
	// Drop a language tag on the opening fence.
	if strings.HasPrefix(text, "json") {
		text = strings.TrimSpace(strings.TrimPrefix(text, "json"))
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
