// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// Per-section character caps. Primary free-text label fields get the large
// cap, secondary fields the medium one, the entity summary the small one.
const (
	primaryFieldCap   = 800
	secondaryFieldCap = 500
	entitySummaryCap  = 300
)

// BuildContext renders the evidence bundle into the bounded context block,
// sections in document order. Absent slots contribute nothing.
func BuildContext(substance string, bundle *types.EvidenceBundle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Substance: %s\n", substance)

	if reg := bundle.Regulatory; reg != nil {
		b.WriteString("\n## Regulatory label\n")
		if reg.PregnancyCategory != "" {
			fmt.Fprintf(&b, "Pregnancy category: %s\n", reg.PregnancyCategory)
		}
		writeField(&b, "Pregnancy", reg.PregnancyText, primaryFieldCap)
		writeField(&b, "Nursing mothers", reg.BreastfeedingText, primaryFieldCap)
		writeField(&b, "Warnings", reg.WarningsText, secondaryFieldCap)
	}

	if st := bundle.Structured; st != nil {
		b.WriteString("\n## Structured product label\n")
		writeField(&b, "Lactation", st.LactationSection, primaryFieldCap)
		writeField(&b, "Pregnancy", st.PregnancySection, secondaryFieldCap)
		writeField(&b, "Clinical considerations", st.ClinicalConsiderations, secondaryFieldCap)
	}

	if lit := bundle.Literature; lit != nil {
		b.WriteString("\n## Literature indicators\n")
		fmt.Fprintf(&b, "Total studies: %d (pregnancy %d, breastfeeding %d, recent %d)\n",
			lit.TotalStudies, lit.PregnancyStudies, lit.BreastfeedingStudies, lit.RecentStudies)
		fmt.Fprintf(&b, "Meta-analysis available: %t\n", lit.HasMetaAnalysis)
		fmt.Fprintf(&b, "Randomized controlled trials: %t\n", lit.HasRCT)
	}

	if sig := bundle.Signals; sig != nil {
		if summary := summarizeSignals(sig); summary != "" {
			b.WriteString("\n## Extracted signals\n")
			b.WriteString(truncate(summary, entitySummaryCap))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n" + instructionBlock)
	return b.String()
}

// writeField emits one labeled, truncated text field, skipping empty values.
func writeField(b *strings.Builder, label, value string, limit int) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, truncate(value, limit))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// summarizeSignals renders the extracted signals as short indicator lines.
func summarizeSignals(sig *types.ExtractedSignals) string {
	var lines []string
	if sig.Teratogenic {
		lines = append(lines, "Teratogenicity signal present.")
	}
	if sig.CategoryGuess != "" {
		lines = append(lines, fmt.Sprintf("Label text suggests category %s.", sig.CategoryGuess))
	}
	if n := len(sig.TrimesterRisks.First); n > 0 {
		lines = append(lines, fmt.Sprintf("First trimester risk statements: %d.", n))
	}
	if n := len(sig.TrimesterRisks.Second); n > 0 {
		lines = append(lines, fmt.Sprintf("Second trimester risk statements: %d.", n))
	}
	if n := len(sig.TrimesterRisks.Third); n > 0 {
		lines = append(lines, fmt.Sprintf("Third trimester risk statements: %d.", n))
	}
	if sig.MilkPlasmaRatio != nil {
		lines = append(lines, fmt.Sprintf("Milk/plasma ratio %.2f.", *sig.MilkPlasmaRatio))
	}
	if sig.InfantDosePercent != nil {
		lines = append(lines, fmt.Sprintf("Relative infant dose %.1f%%.", *sig.InfantDosePercent))
	}
	if sig.HalfLifeHours != nil {
		lines = append(lines, fmt.Sprintf("Half-life %.1f hours.", *sig.HalfLifeHours))
	}
	if sig.TimeToPeakHours != nil {
		lines = append(lines, fmt.Sprintf("Peak milk levels at %.1f hours.", *sig.TimeToPeakHours))
	}
	return strings.Join(lines, " ")
}
