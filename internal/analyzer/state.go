// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/safetycheck/internal/synthesis"
	"github.com/pdiddy/safetycheck/pkg/types"
)

// basicState enumerates the staged label analysis states.
type basicState int

const (
	stateValidate basicState = iota
	stateAnalyzePregnancy
	stateAnalyzeBreastfeeding
	stateExtractWarnings
	stateGenerateSummary
	stateDone
	stateError
)

func (s basicState) String() string {
	switch s {
	case stateValidate:
		return "validate"
	case stateAnalyzePregnancy:
		return "analyze_pregnancy"
	case stateAnalyzeBreastfeeding:
		return "analyze_breastfeeding"
	case stateExtractWarnings:
		return "extract_warnings"
	case stateGenerateSummary:
		return "generate_summary"
	case stateDone:
		return "done"
	case stateError:
		return "error"
	}
	return "unknown"
}

// basicRun carries the working state of one staged analysis.
type basicRun struct {
	backend synthesis.Backend
	query   types.SubstanceQuery
	label   *types.RegulatoryRecord
	w       io.Writer

	pregnancy     types.SafetyLevel
	breastfeeding types.SafetyLevel
	warnings      []string
	summary       string
	err           error
}

// step executes one state and returns the next. Every analysis state absorbs
// its own failure into a default so the remaining states still run; only
// validation can reach the error state.
func (r *basicRun) step(ctx context.Context, s basicState) basicState {
	switch s {
	case stateValidate:
		if r.query.IsEmpty() {
			r.err = fmt.Errorf("%w: empty substance name", ErrInputInvalid)
			return stateError
		}
		if r.label == nil {
			r.err = fmt.Errorf("%w: no label to analyze", ErrInputInvalid)
			return stateError
		}
		return stateAnalyzePregnancy

	case stateAnalyzePregnancy:
		level, err := synthesis.AssessPregnancy(ctx, r.backend, r.query.NormalizedName(), r.label.PregnancyText)
		if err != nil {
			fmt.Fprintf(r.w, "warning: pregnancy assessment failed: %v\n", err)
			level = types.SafetyUnknown
		}
		r.pregnancy = level
		return stateAnalyzeBreastfeeding

	case stateAnalyzeBreastfeeding:
		level, err := synthesis.AssessBreastfeeding(ctx, r.backend, r.query.NormalizedName(), r.label.BreastfeedingText)
		if err != nil {
			fmt.Fprintf(r.w, "warning: breastfeeding assessment failed: %v\n", err)
			level = types.SafetyUnknown
		}
		r.breastfeeding = level
		return stateExtractWarnings

	case stateExtractWarnings:
		warnings, err := synthesis.ExtractWarnings(ctx, r.backend, r.query.NormalizedName(), r.label.WarningsText)
		if err != nil {
			fmt.Fprintf(r.w, "warning: warning extraction failed: %v\n", err)
			warnings = []string{"Consult healthcare provider"}
		}
		r.warnings = warnings
		return stateGenerateSummary

	case stateGenerateSummary:
		summary, err := synthesis.Summarize(ctx, r.backend, r.query.NormalizedName(), r.pregnancy, r.breastfeeding, r.warnings)
		if err != nil || summary == "" {
			if err != nil {
				fmt.Fprintf(r.w, "warning: summary generation failed: %v\n", err)
			}
			summary = fmt.Sprintf("Pregnancy: %s. Breastfeeding: %s. Consult your healthcare provider before use.",
				r.pregnancy, r.breastfeeding)
		}
		r.summary = summary
		return stateDone
	}
	return stateError
}

// runStateMachine drives the staged analysis to completion.
func (r *basicRun) runStateMachine(ctx context.Context) error {
	for s := stateValidate; s != stateDone; {
		next := r.step(ctx, s)
		if next == stateError {
			return r.err
		}
		s = next
	}
	return nil
}
