// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pdiddy/safetycheck/internal/entity"
	"github.com/pdiddy/safetycheck/internal/provider"
	"github.com/pdiddy/safetycheck/pkg/types"
)

type fixedStructured struct {
	record *types.StructuredRecord
	err    error
}

func (f *fixedStructured) FetchStructured(_ context.Context, _ string) (*types.StructuredRecord, error) {
	return f.record, f.err
}

type fixedLiterature struct {
	record *types.LiteratureRecord
	err    error
}

func (f *fixedLiterature) FetchLiterature(_ context.Context, _ string) (*types.LiteratureRecord, error) {
	return f.record, f.err
}

const synthesisReply = `{"pregnancy_safety": "caution", "breastfeeding_safety": "safe", "warnings": ["Avoid near term due to bleeding risk"], "summary": "Compatible with breastfeeding. Discuss pregnancy use with your doctor.", "evidence_quality": "high"}`

func newComprehensive(backend *scriptedBackend, clients provider.Clients) *ComprehensiveAnalyzer {
	return &ComprehensiveAnalyzer{
		Clients:   clients,
		Extractor: &entity.Extractor{},
		Backend:   backend,
		Basic:     &BasicAnalyzer{Regulatory: clients.Regulatory, Backend: backend},
	}
}

func allClients() provider.Clients {
	return provider.Clients{
		Regulatory: &fixedRegulatory{record: testLabel()},
		Structured: &fixedStructured{record: &types.StructuredRecord{SetID: "s1", LactationSection: "Present in milk."}},
		Literature: &fixedLiterature{record: &types.LiteratureRecord{TotalStudies: 120, HasMetaAnalysis: true}},
	}
}

func TestComprehensiveAllSources(t *testing.T) {
	backend := happyBackend()
	backend.synthesis = synthesisReply
	a := newComprehensive(backend, allClients())

	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "Aspirin", Mode: types.ModeComprehensive}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if verdict.PregnancySafety != types.SafetyCaution {
		t.Errorf("PregnancySafety = %q, want caution", verdict.PregnancySafety)
	}
	// 0.3 regulatory + 0.2 structured + 0.3 studies>100 + 0.2 meta-analysis.
	if verdict.Confidence != 1.0 {
		t.Errorf("Confidence = %v, want 1.0", verdict.Confidence)
	}
	if verdict.Degraded {
		t.Error("Degraded = true on the normal path")
	}
	if verdict.PregnancyCategory != "" {
		t.Errorf("PregnancyCategory = %q, comprehensive mode must leave it empty", verdict.PregnancyCategory)
	}
	wantSources := []string{types.SlotRegulatory, types.SlotStructured, types.SlotLiterature, types.SlotEntities}
	if len(verdict.SourcesUsed) != len(wantSources) {
		t.Fatalf("SourcesUsed = %v, want %v", verdict.SourcesUsed, wantSources)
	}
}

func TestComprehensiveOneSourceFails(t *testing.T) {
	backend := happyBackend()
	backend.synthesis = synthesisReply
	clients := allClients()
	clients.Structured = &fixedStructured{err: errors.New("HTTP 503")}
	a := newComprehensive(backend, clients)

	var buf bytes.Buffer
	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "aspirin", Mode: types.ModeComprehensive}, &buf)
	if err != nil {
		t.Fatalf("one absent source must not fail the run: %v", err)
	}

	for _, s := range verdict.SourcesUsed {
		if s == types.SlotStructured {
			t.Errorf("SourcesUsed contains the failed slot: %v", verdict.SourcesUsed)
		}
	}
	if !strings.Contains(buf.String(), "structured_label") {
		t.Errorf("expected a warning naming the failed slot, got %q", buf.String())
	}
	// 0.3 regulatory + 0.3 studies>100 + 0.2 meta-analysis.
	if diff := verdict.Confidence - 0.8; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Confidence = %v, want 0.8", verdict.Confidence)
	}
}

func TestComprehensiveAllSourcesAbsent(t *testing.T) {
	backend := happyBackend()
	backend.synthesis = synthesisReply
	clients := provider.Clients{
		Regulatory: &fixedRegulatory{err: errors.New("down")},
		Structured: &fixedStructured{err: errors.New("down")},
		Literature: &fixedLiterature{err: errors.New("down")},
	}
	a := newComprehensive(backend, clients)

	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "aspirin", Mode: types.ModeComprehensive}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if verdict.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0", verdict.Confidence)
	}
	if len(verdict.SourcesUsed) != 0 {
		t.Errorf("SourcesUsed = %v, want empty", verdict.SourcesUsed)
	}
	for _, kind := range backend.calls {
		if kind == "synthesis" {
			t.Error("synthesis must be skipped with no evidence")
		}
	}
}

func TestComprehensiveContractViolationKeepsDefault(t *testing.T) {
	backend := happyBackend()
	backend.synthesis = "I'd say it is mostly fine."
	a := newComprehensive(backend, allClients())

	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "aspirin", Mode: types.ModeComprehensive}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if verdict.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want the default 0.3 after a contract violation", verdict.Confidence)
	}
	if verdict.PregnancySafety != types.SafetyUnknown {
		t.Errorf("PregnancySafety = %q, want unknown default", verdict.PregnancySafety)
	}
	if len(verdict.SourcesUsed) != 0 {
		t.Errorf("SourcesUsed = %v, default must claim none", verdict.SourcesUsed)
	}
}

func TestComprehensiveRegulatoryOnlyWithoutText(t *testing.T) {
	backend := happyBackend()
	backend.synthesis = synthesisReply
	clients := provider.Clients{
		Regulatory: &fixedRegulatory{record: &types.RegulatoryRecord{PregnancyCategory: "B"}},
		Structured: &fixedStructured{err: errors.New("down")},
		Literature: &fixedLiterature{err: errors.New("down")},
	}
	a := newComprehensive(backend, clients)

	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "aspirin", Mode: types.ModeComprehensive}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if diff := verdict.Confidence - 0.3; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Confidence = %v, want 0.3 for regulatory evidence alone", verdict.Confidence)
	}
	if len(verdict.SourcesUsed) != 1 || verdict.SourcesUsed[0] != types.SlotRegulatory {
		t.Errorf("SourcesUsed = %v, want [regulatory_label]", verdict.SourcesUsed)
	}
}

func TestComprehensiveFallbackToBasic(t *testing.T) {
	backend := happyBackend()
	backend.failOn = "synthesis"
	a := newComprehensive(backend, allClients())

	var buf bytes.Buffer
	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "aspirin", Mode: types.ModeComprehensive}, &buf)
	if err != nil {
		t.Fatalf("fallback path must not fail: %v", err)
	}

	if !verdict.Degraded {
		t.Error("Degraded = false, want true on the fallback path")
	}
	if verdict.Confidence > BasicConfidence {
		t.Errorf("Confidence = %v, must not exceed the basic tier %v", verdict.Confidence, BasicConfidence)
	}
	if verdict.PregnancySafety != types.SafetyCaution {
		t.Errorf("PregnancySafety = %q, want the staged result caution", verdict.PregnancySafety)
	}
	if !strings.Contains(buf.String(), "falling back to basic analysis") {
		t.Errorf("expected a fallback warning line, got %q", buf.String())
	}
}

func TestComprehensiveFallbackWithoutRegulatory(t *testing.T) {
	backend := happyBackend()
	backend.failOn = "synthesis"
	clients := allClients()
	clients.Regulatory = &fixedRegulatory{err: errors.New("down")}
	a := newComprehensive(backend, clients)

	verdict, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: "aspirin", Mode: types.ModeComprehensive}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !verdict.Degraded {
		t.Error("Degraded = false, want true")
	}
	if verdict.Confidence != 0.0 {
		t.Errorf("Confidence = %v, want 0.0 without a label to fall back on", verdict.Confidence)
	}
}

func TestComprehensiveTrimesterContext(t *testing.T) {
	backend := happyBackend()
	backend.synthesis = synthesisReply
	clients := allClients()
	clients.Regulatory = &fixedRegulatory{record: &types.RegulatoryRecord{
		PregnancyText: "Third trimester use may cause premature closure of the ductus arteriosus, a serious risk.",
	}}
	a := newComprehensive(backend, clients)

	query := types.SubstanceQuery{
		Name:    "ibuprofen",
		Mode:    types.ModeComprehensive,
		Context: &types.MedicalContext{IsPregnant: true, Trimester: types.TrimesterThird},
	}
	verdict, err := a.Analyze(context.Background(), query, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if len(verdict.TrimesterFindings) == 0 {
		t.Error("TrimesterFindings empty, want the extracted third-trimester sentence")
	}
	if verdict.TrimesterNote == "" {
		t.Error("TrimesterNote empty")
	}
}

func TestComprehensiveEmptyNameRejected(t *testing.T) {
	a := newComprehensive(happyBackend(), allClients())
	_, err := a.Analyze(context.Background(), types.SubstanceQuery{Name: ""}, &bytes.Buffer{})
	if !errors.Is(err, ErrInputInvalid) {
		t.Errorf("err = %v, want ErrInputInvalid", err)
	}
}
