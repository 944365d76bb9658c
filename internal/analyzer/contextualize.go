// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"fmt"
	"strings"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// Contextualize annotates a verdict for the caller's medical situation. It
// is pure: the same verdict, signals, and context always produce the same
// output, and the input verdict is not modified.
func Contextualize(verdict *types.SafetyVerdict, signals *types.ExtractedSignals, mctx *types.MedicalContext) *types.ContextualVerdict {
	out := &types.ContextualVerdict{
		SafetyVerdict: *verdict,
		Context:       mctx,
	}
	out.Warnings = append([]string(nil), verdict.Warnings...)

	if mctx == nil {
		return out
	}

	if mctx.IsPregnant && mctx.Trimester.Valid() {
		findings := signalsFor(signals, mctx.Trimester)
		out.TrimesterFindings = findings
		if len(findings) > 0 {
			out.TrimesterNote = fmt.Sprintf("%d finding(s) specific to the %s trimester; review the warnings below.", len(findings), mctx.Trimester)
		} else {
			out.TrimesterNote = fmt.Sprintf("No findings specific to the %s trimester were identified.", mctx.Trimester)
		}
	}

	if mctx.IsBreastfeeding && signals.HasMilkTransferData() {
		out.MilkTransferNote = milkTransferNote(signals)
	}

	out.Warnings = prioritizeWarnings(out.Warnings, mctx)
	return out
}

// signalsFor returns a copy of the extracted risk sentences for a trimester.
func signalsFor(signals *types.ExtractedSignals, t types.Trimester) []string {
	if signals == nil {
		return nil
	}
	return append([]string(nil), signals.TrimesterRisks.For(t)...)
}

// milkTransferNote renders the available pharmacokinetic values as one line.
func milkTransferNote(signals *types.ExtractedSignals) string {
	var parts []string
	if signals.MilkPlasmaRatio != nil {
		parts = append(parts, fmt.Sprintf("milk/plasma ratio %.2f", *signals.MilkPlasmaRatio))
	}
	if signals.InfantDosePercent != nil {
		parts = append(parts, fmt.Sprintf("relative infant dose %.1f%%", *signals.InfantDosePercent))
	}
	if signals.HalfLifeHours != nil {
		parts = append(parts, fmt.Sprintf("half-life %.1f h", *signals.HalfLifeHours))
	}
	if signals.TimeToPeakHours != nil {
		parts = append(parts, fmt.Sprintf("peak milk levels at %.1f h", *signals.TimeToPeakHours))
	}
	return "Milk transfer data: " + strings.Join(parts, ", ") + "."
}

// Context keyword sets used to move matching warnings forward.
var (
	pregnancyWarningTerms     = []string{"pregnan", "trimester", "fetal", "fetus", "birth", "teratogen"}
	breastfeedingWarningTerms = []string{"breastfeed", "lactation", "nursing", "milk", "infant"}
)

// prioritizeWarnings stably partitions warnings so the context-relevant ones
// come first. Relative order inside each partition is preserved.
func prioritizeWarnings(warnings []string, mctx *types.MedicalContext) []string {
	if len(warnings) == 0 {
		return warnings
	}

	var terms []string
	if mctx.IsPregnant {
		terms = append(terms, pregnancyWarningTerms...)
	}
	if mctx.IsBreastfeeding {
		terms = append(terms, breastfeedingWarningTerms...)
	}
	if len(terms) == 0 {
		return warnings
	}

	matched := make([]string, 0, len(warnings))
	rest := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lower := strings.ToLower(w)
		relevant := false
		for _, term := range terms {
			if strings.Contains(lower, term) {
				relevant = true
				break
			}
		}
		if relevant {
			matched = append(matched, w)
		} else {
			rest = append(rest, w)
		}
	}
	return append(matched, rest...)
}
