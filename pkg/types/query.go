// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared records exchanged between pipeline stages.
package types

import "strings"

// AnalysisMode selects the analysis pipeline.
type AnalysisMode string

const (
	// ModeBasic analyzes the regulatory label through narrow staged prompts.
	ModeBasic AnalysisMode = "basic"

	// ModeComprehensive fans out to every provider and runs a single
	// full-context synthesis plus contextualization.
	ModeComprehensive AnalysisMode = "comprehensive"
)

// Valid reports whether the mode is one of the two known pipelines.
func (m AnalysisMode) Valid() bool {
	return m == ModeBasic || m == ModeComprehensive
}

// Trimester identifies a pregnancy trimester in a medical context.
type Trimester string

const (
	TrimesterFirst  Trimester = "first"
	TrimesterSecond Trimester = "second"
	TrimesterThird  Trimester = "third"
)

// Valid reports whether the trimester is one of the three known values.
func (t Trimester) Valid() bool {
	return t == TrimesterFirst || t == TrimesterSecond || t == TrimesterThird
}

// MedicalContext describes the caller's situation. All fields are optional;
// a nil context means "no contextualization requested".
type MedicalContext struct {
	IsPregnant      bool      `json:"is_pregnant" yaml:"is_pregnant"`
	IsBreastfeeding bool      `json:"is_breastfeeding" yaml:"is_breastfeeding"`
	Trimester       Trimester `json:"trimester,omitempty" yaml:"trimester,omitempty"`
}

// SubstanceQuery is one inbound analysis request. Immutable per request.
type SubstanceQuery struct {
	// Name is the brand or generic name of the substance.
	Name string

	// Mode selects basic or comprehensive analysis.
	Mode AnalysisMode

	// Context is the caller's medical situation, or nil.
	Context *MedicalContext
}

// NormalizedName returns the case-folded, whitespace-trimmed substance name.
// Cache keys and provider queries use this form.
func (q SubstanceQuery) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(q.Name))
}

// IsEmpty reports whether the query names no substance.
func (q SubstanceQuery) IsEmpty() bool {
	return strings.TrimSpace(q.Name) == ""
}
