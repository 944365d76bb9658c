// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// scriptedBackend answers each narrow prompt by its shape. Prompts asking
// for one word get a safety level, warnings prompts get a JSON array, and
// summary prompts get prose. failOn makes one prompt kind fail.
type scriptedBackend struct {
	pregnancy     string
	breastfeeding string
	warnings      string
	summary       string
	synthesis     string
	failOn        string
	calls         []string
}

func (s *scriptedBackend) Invoke(_ context.Context, prompt string) (string, error) {
	kind := promptKind(prompt)
	s.calls = append(s.calls, kind)
	if s.failOn != "" && kind == s.failOn {
		return "", errors.New("backend down")
	}
	switch kind {
	case "pregnancy":
		return s.pregnancy, nil
	case "breastfeeding":
		return s.breastfeeding, nil
	case "warnings":
		return s.warnings, nil
	case "summary":
		return s.summary, nil
	case "synthesis":
		return s.synthesis, nil
	}
	return "", errors.New("unrecognized prompt")
}

func promptKind(prompt string) string {
	switch {
	case strings.Contains(prompt, "safe during pregnancy"):
		return "pregnancy"
	case strings.Contains(prompt, "safe while breastfeeding"):
		return "breastfeeding"
	case strings.Contains(prompt, "JSON array"):
		return "warnings"
	case strings.Contains(prompt, "two sentences"):
		return "summary"
	case strings.Contains(prompt, "single JSON object"):
		return "synthesis"
	}
	return "unknown"
}

// fixedRegulatory serves one canned label or error and counts fetches.
type fixedRegulatory struct {
	record *types.RegulatoryRecord
	err    error
	calls  int
}

func (f *fixedRegulatory) FetchLabel(_ context.Context, _ string) (*types.RegulatoryRecord, error) {
	f.calls++
	return f.record, f.err
}

func testLabel() *types.RegulatoryRecord {
	return &types.RegulatoryRecord{
		PregnancyCategory: "C",
		PregnancyText:     "Use only if clearly needed during pregnancy.",
		BreastfeedingText: "Excreted in human milk.",
		WarningsText:      "May cause drowsiness.",
	}
}

func happyBackend() *scriptedBackend {
	return &scriptedBackend{
		pregnancy:     "caution",
		breastfeeding: "safe",
		warnings:      `["Use lowest effective dose"]`,
		summary:       "Generally fine while nursing. Ask your doctor about pregnancy use.",
	}
}

func TestBasicAnalyze(t *testing.T) {
	backend := happyBackend()
	a := &BasicAnalyzer{
		Regulatory: &fixedRegulatory{record: testLabel()},
		Backend:    backend,
	}

	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "Benadryl", Mode: types.ModeBasic}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if verdict.SubstanceName != "benadryl" {
		t.Errorf("SubstanceName = %q, want normalized benadryl", verdict.SubstanceName)
	}
	if verdict.PregnancySafety != types.SafetyCaution {
		t.Errorf("PregnancySafety = %q, want caution", verdict.PregnancySafety)
	}
	if verdict.BreastfeedingSafety != types.SafetySafe {
		t.Errorf("BreastfeedingSafety = %q, want safe", verdict.BreastfeedingSafety)
	}
	if verdict.PregnancyCategory != "C" {
		t.Errorf("PregnancyCategory = %q, want C", verdict.PregnancyCategory)
	}
	if verdict.Confidence != BasicConfidence {
		t.Errorf("Confidence = %v, want %v", verdict.Confidence, BasicConfidence)
	}
	if len(verdict.SourcesUsed) != 1 || verdict.SourcesUsed[0] != types.SlotRegulatory {
		t.Errorf("SourcesUsed = %v, want [regulatory_label]", verdict.SourcesUsed)
	}

	wantOrder := []string{"pregnancy", "breastfeeding", "warnings", "summary"}
	if len(backend.calls) != len(wantOrder) {
		t.Fatalf("calls = %v, want %v", backend.calls, wantOrder)
	}
	for i, k := range wantOrder {
		if backend.calls[i] != k {
			t.Errorf("calls[%d] = %q, want %q", i, backend.calls[i], k)
		}
	}
}

func TestBasicStateDegradesIndependently(t *testing.T) {
	tests := []struct {
		failOn string
		check  func(t *testing.T, v *types.SafetyVerdict)
	}{
		{
			failOn: "pregnancy",
			check: func(t *testing.T, v *types.SafetyVerdict) {
				if v.PregnancySafety != types.SafetyUnknown {
					t.Errorf("PregnancySafety = %q, want unknown", v.PregnancySafety)
				}
				if v.BreastfeedingSafety != types.SafetySafe {
					t.Errorf("BreastfeedingSafety = %q, later stage must survive", v.BreastfeedingSafety)
				}
			},
		},
		{
			failOn: "warnings",
			check: func(t *testing.T, v *types.SafetyVerdict) {
				if len(v.Warnings) != 1 || v.Warnings[0] != "Consult healthcare provider" {
					t.Errorf("Warnings = %v, want consult default", v.Warnings)
				}
				if v.Summary == "" {
					t.Error("summary stage must still run")
				}
			},
		},
		{
			failOn: "summary",
			check: func(t *testing.T, v *types.SafetyVerdict) {
				if !strings.Contains(v.Summary, "caution") {
					t.Errorf("Summary = %q, want deterministic fallback naming the levels", v.Summary)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run("fail_"+tt.failOn, func(t *testing.T) {
			backend := happyBackend()
			backend.failOn = tt.failOn
			a := &BasicAnalyzer{Regulatory: &fixedRegulatory{record: testLabel()}, Backend: backend}

			var buf bytes.Buffer
			verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "benadryl"}, &buf)
			if err != nil {
				t.Fatalf("a degraded stage must not fail the run: %v", err)
			}
			tt.check(t, verdict)
			if !strings.Contains(buf.String(), "warning:") {
				t.Error("expected a warning line for the failed stage")
			}
		})
	}
}

func TestBasicNoLabelFallsBack(t *testing.T) {
	a := &BasicAnalyzer{
		Regulatory: &fixedRegulatory{err: errors.New("HTTP 500")},
		Backend:    happyBackend(),
	}

	var buf bytes.Buffer
	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "obscuredrug"}, &buf)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if verdict.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0 with no evidence", verdict.Confidence)
	}
	if len(verdict.SourcesUsed) != 0 {
		t.Errorf("SourcesUsed = %v, want empty", verdict.SourcesUsed)
	}
	if verdict.PregnancySafety != types.SafetyUnknown || verdict.BreastfeedingSafety != types.SafetyUnknown {
		t.Errorf("fallback must not guess: %+v", verdict)
	}
}

func TestBasicEmptyNameRejected(t *testing.T) {
	a := &BasicAnalyzer{Regulatory: &fixedRegulatory{record: testLabel()}, Backend: happyBackend()}
	_, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "   "}, &bytes.Buffer{})
	if !errors.Is(err, ErrInputInvalid) {
		t.Errorf("err = %v, want ErrInputInvalid", err)
	}
}

func TestBasicStateString(t *testing.T) {
	want := map[basicState]string{
		stateValidate:             "validate",
		stateAnalyzePregnancy:     "analyze_pregnancy",
		stateAnalyzeBreastfeeding: "analyze_breastfeeding",
		stateExtractWarnings:      "extract_warnings",
		stateGenerateSummary:      "generate_summary",
		stateDone:                 "done",
		stateError:                "error",
	}
	for s, name := range want {
		if s.String() != name {
			t.Errorf("state %d String() = %q, want %q", s, s.String(), name)
		}
	}
}
