// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyzer runs the basic and comprehensive analysis pipelines and
// the cache-fronted service around them.
package analyzer

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/safetycheck/internal/provider"
	"github.com/pdiddy/safetycheck/internal/synthesis"
	"github.com/pdiddy/safetycheck/pkg/types"
)

// BasicAnalyzer assesses a substance from its regulatory label alone through
// a staged sequence of narrow model prompts.
type BasicAnalyzer struct {
	Regulatory provider.RegulatoryClient
	Backend    synthesis.Backend
}

// Analyze fetches the regulatory label and runs the staged analysis. With no
// label available at all it returns the zero-confidence fallback verdict.
func (a *BasicAnalyzer) Analyze(ctx context.Context, query types.SubstanceQuery, w io.Writer) (*types.SafetyVerdict, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("%w: empty substance name", ErrInputInvalid)
	}

	name := query.NormalizedName()
	label, err := a.Regulatory.FetchLabel(ctx, name)
	if err != nil {
		fmt.Fprintf(w, "warning: regulatory label unavailable for %s: %v\n", name, err)
		return types.FallbackVerdict(name), nil
	}
	return a.AnalyzeLabel(ctx, query, label, w)
}

// AnalyzeLabel runs the staged analysis over an already-fetched label. The
// degraded comprehensive fallback enters here to avoid refetching.
func (a *BasicAnalyzer) AnalyzeLabel(ctx context.Context, query types.SubstanceQuery, label *types.RegulatoryRecord, w io.Writer) (*types.SafetyVerdict, error) {
	run := &basicRun{
		backend: a.Backend,
		query:   query,
		label:   label,
		w:       w,
	}
	if err := run.runStateMachine(ctx); err != nil {
		return nil, err
	}

	verdict := &types.SafetyVerdict{
		SubstanceName:       query.NormalizedName(),
		PregnancyCategory:   label.PregnancyCategory,
		PregnancySafety:     run.pregnancy,
		BreastfeedingSafety: run.breastfeeding,
		Warnings:            run.warnings,
		Summary:             run.summary,
		Confidence:          BasicConfidence,
		SourcesUsed:         []string{types.SlotRegulatory},
	}
	verdict.ClampWarnings()
	return verdict, nil
}
