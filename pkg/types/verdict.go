// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// SafetyLevel is the fixed safety taxonomy. Every assessment, no matter how
// it was produced, lands on one of these four values.
type SafetyLevel string

const (
	SafetySafe    SafetyLevel = "safe"
	SafetyCaution SafetyLevel = "caution"
	SafetyAvoid   SafetyLevel = "avoid"
	SafetyUnknown SafetyLevel = "unknown"
)

// Valid reports whether the level is one of the four taxonomy values.
func (l SafetyLevel) Valid() bool {
	switch l {
	case SafetySafe, SafetyCaution, SafetyAvoid, SafetyUnknown:
		return true
	}
	return false
}

// NormalizeSafety maps free-form assessment text onto the taxonomy. Variants
// the synthesis provider has been observed to emit are folded into their
// canonical value; anything unrecognized becomes unknown.
func NormalizeSafety(value string) SafetyLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "safe", "ok", "yes", "recommended":
		return SafetySafe
	case "caution", "warn", "maybe", "probably safe":
		return SafetyCaution
	case "avoid", "no", "contraindicated":
		return SafetyAvoid
	default:
		return SafetyUnknown
	}
}

// MaxWarnings bounds the warnings list on every verdict.
const MaxWarnings = 5

// SafetyVerdict is the canonical output of an analysis pipeline.
type SafetyVerdict struct {
	SubstanceName string `json:"substance_name" yaml:"substance_name"`

	// PregnancyCategory is the regulatory pregnancy letter category when the
	// regulatory label carries one. Basic mode only; comprehensive mode does
	// not infer it from other sources.
	PregnancyCategory string `json:"pregnancy_category,omitempty" yaml:"pregnancy_category,omitempty"`

	PregnancySafety     SafetyLevel `json:"pregnancy_safety" yaml:"pregnancy_safety"`
	BreastfeedingSafety SafetyLevel `json:"breastfeeding_safety" yaml:"breastfeeding_safety"`

	// Warnings is ordered most context-relevant first, at most MaxWarnings.
	Warnings []string `json:"warnings" yaml:"warnings"`

	// Summary is short, actionable text for the caller.
	Summary string `json:"summary" yaml:"summary"`

	// Confidence is in [0.0, 1.0], computed from evidence availability and
	// quality, never taken from the synthesis provider.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// SourcesUsed lists the evidence slots that contributed.
	SourcesUsed []string `json:"sources_used" yaml:"sources_used"`

	// Degraded marks a verdict produced through the comprehensive-to-basic
	// fallback path.
	Degraded bool `json:"degraded,omitempty" yaml:"degraded,omitempty"`
}

// ClampWarnings truncates the warnings list to MaxWarnings entries.
func (v *SafetyVerdict) ClampWarnings() {
	if len(v.Warnings) > MaxWarnings {
		v.Warnings = v.Warnings[:MaxWarnings]
	}
}

// ConfidenceBand returns the human-readable band for the numeric confidence.
func (v SafetyVerdict) ConfidenceBand() string {
	switch {
	case v.Confidence >= 0.8:
		return "high"
	case v.Confidence >= 0.5:
		return "moderate"
	default:
		return "low"
	}
}

// FallbackVerdict is the safe response used when no evidence is available at
// all. Confidence is zero and no sources are claimed.
func FallbackVerdict(name string) *SafetyVerdict {
	return &SafetyVerdict{
		SubstanceName:       name,
		PregnancySafety:     SafetyUnknown,
		BreastfeedingSafety: SafetyUnknown,
		Warnings:            []string{"Consult healthcare provider"},
		Summary:             fmt.Sprintf("Unable to analyze %s. Please consult your healthcare provider.", name),
		Confidence:          0.0,
		SourcesUsed:         []string{},
	}
}

// ContextualVerdict is a SafetyVerdict annotated for a specific medical
// situation.
type ContextualVerdict struct {
	SafetyVerdict `yaml:",inline"`

	// Context echoes the caller's situation the verdict was tailored to.
	Context *MedicalContext `json:"context,omitempty" yaml:"context,omitempty"`

	// TrimesterNote summarizes trimester-specific findings when the caller is
	// pregnant and named a trimester.
	TrimesterNote string `json:"trimester_note,omitempty" yaml:"trimester_note,omitempty"`

	// TrimesterFindings lists the extracted risk sentences for that trimester.
	TrimesterFindings []string `json:"trimester_findings,omitempty" yaml:"trimester_findings,omitempty"`

	// MilkTransferNote summarizes pharmacokinetic milk-transfer signals when
	// the caller is breastfeeding.
	MilkTransferNote string `json:"milk_transfer_note,omitempty" yaml:"milk_transfer_note,omitempty"`
}
