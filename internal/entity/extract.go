// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entity extracts safety signals from free-text label sections using
// keyword and pattern rules, with an optional model-backed extractor in front.
package entity

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// Trimester keyword sets. A sentence is attributed to a trimester when it
// contains one of these phrases together with a risk keyword.
var trimesterKeywords = map[types.Trimester][]string{
	types.TrimesterFirst:  {"first trimester", "1st trimester", "early pregnancy", "organogenesis"},
	types.TrimesterSecond: {"second trimester", "2nd trimester", "mid pregnancy", "mid-pregnancy"},
	types.TrimesterThird:  {"third trimester", "3rd trimester", "late pregnancy", "near term", "before delivery"},
}

var riskKeywords = []string{
	"risk", "avoid", "contraindicated", "harm", "defect", "malformation",
	"toxicity", "adverse", "caution", "not recommended",
}

var teratogenKeywords = []string{
	"teratogen", "teratogenic", "birth defect", "congenital malformation",
	"congenital anomal",
}

// Labeled pharmacokinetic value patterns. Each captures a single decimal
// number following its label.
var (
	milkPlasmaPattern = regexp.MustCompile(`(?i)(?:M/P|milk[/:]plasma)(?:\s+ratio)?[^\d]{0,20}(\d+\.?\d*)`)
	infantDosePattern = regexp.MustCompile(`(?i)(?:relative\s+)?infant dose[^\d]{0,20}(\d+\.?\d*)\s*%`)
	halfLifePattern   = regexp.MustCompile(`(?i)half[- ]life[^\d]{0,20}(\d+\.?\d*)\s*(?:hours|hrs|h\b)`)
	timeToPeakPattern = regexp.MustCompile(`(?i)peak (?:milk )?(?:levels?|concentrations?)[^\d]{0,30}(\d+\.?\d*)\s*(?:hours|hrs|h\b)`)
	categoryPattern   = regexp.MustCompile(`(?i)pregnancy category\s+([A-DX])\b`)
)

// Extract runs the rule-based signal extraction over free text. It always
// returns a result; an empty input yields empty signals.
func Extract(text string) *types.ExtractedSignals {
	signals := &types.ExtractedSignals{}
	if strings.TrimSpace(text) == "" {
		return signals
	}

	lower := strings.ToLower(text)

	for _, sentence := range splitSentences(text) {
		sl := strings.ToLower(sentence)
		if !containsAny(sl, riskKeywords) {
			continue
		}
		for trimester, keywords := range trimesterKeywords {
			if containsAny(sl, keywords) {
				appendRisk(&signals.TrimesterRisks, trimester, strings.TrimSpace(sentence))
			}
		}
	}

	signals.Teratogenic = containsAny(lower, teratogenKeywords)

	if m := categoryPattern.FindStringSubmatch(text); m != nil {
		signals.CategoryGuess = strings.ToUpper(m[1])
	}

	signals.MilkPlasmaRatio = findValue(milkPlasmaPattern, text)
	signals.InfantDosePercent = findValue(infantDosePattern, text)
	signals.HalfLifeHours = findValue(halfLifePattern, text)
	signals.TimeToPeakHours = findValue(timeToPeakPattern, text)

	return signals
}

// splitSentences splits on periods. Label text is prose; abbreviation-aware
// splitting buys nothing for keyword co-occurrence.
func splitSentences(text string) []string {
	return strings.Split(text, ".")
}

func appendRisk(r *types.TrimesterRisks, t types.Trimester, sentence string) {
	switch t {
	case types.TrimesterFirst:
		r.First = append(r.First, sentence)
	case types.TrimesterSecond:
		r.Second = append(r.Second, sentence)
	case types.TrimesterThird:
		r.Third = append(r.Third, sentence)
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func findValue(pattern *regexp.Regexp, text string) *float64 {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

// ModelExtractor is an optional model-backed signal extractor.
type ModelExtractor interface {
	ExtractSignals(ctx context.Context, text string) (*types.ExtractedSignals, error)
}

// Extractor runs the model-backed extractor when one is configured and falls
// back to the rule-based extraction on any model failure. It never fails.
type Extractor struct {
	Model ModelExtractor
}

// Extract returns signals for the text. A nil Model or a model error degrades
// to the rule-based path.
func (e *Extractor) Extract(ctx context.Context, text string) *types.ExtractedSignals {
	if e != nil && e.Model != nil {
		if signals, err := e.Model.ExtractSignals(ctx, text); err == nil && signals != nil {
			return signals
		}
	}
	return Extract(text)
}
