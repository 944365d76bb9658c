// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/safetycheck/internal/entity"
	"github.com/pdiddy/safetycheck/internal/provider"
	"github.com/pdiddy/safetycheck/internal/synthesis"
	"github.com/pdiddy/safetycheck/pkg/types"
)

// ComprehensiveAnalyzer fans out to every evidence source, extracts signals,
// and runs a single full-context synthesis.
type ComprehensiveAnalyzer struct {
	Clients   provider.Clients
	Extractor *entity.Extractor
	Backend   synthesis.Backend

	// Basic is the staged-analysis fallback used when the synthesis provider
	// is unreachable.
	Basic *BasicAnalyzer

	// FetchTimeout bounds each provider fetch (default provider.DefaultTimeout).
	FetchTimeout time.Duration
}

// Analyze runs the comprehensive pipeline and contextualizes the verdict for
// the query's medical context.
func (a *ComprehensiveAnalyzer) Analyze(ctx context.Context, query types.SubstanceQuery, w io.Writer) (*types.ContextualVerdict, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("%w: empty substance name", ErrInputInvalid)
	}

	name := query.NormalizedName()
	bundle := a.gatherEvidence(ctx, name, w)

	if text := labelFreeText(bundle); text != "" {
		bundle.Signals = a.Extractor.Extract(ctx, text)
	} else {
		bundle.MarkAbsent(types.SlotEntities, "no label text to extract from")
	}

	// With every provider absent there is nothing to synthesize.
	if bundle.IsEmpty() {
		fmt.Fprintf(w, "warning: no evidence found for %s\n", name)
		return Contextualize(types.FallbackVerdict(name), bundle.Signals, query.Context), nil
	}

	verdict, err := synthesis.Synthesize(ctx, a.Backend, name, bundle)
	if err != nil {
		return a.fallback(ctx, query, bundle, w, err)
	}

	// A valid synthesis result claims its sources; the default substitution
	// claims none and keeps its own fixed confidence.
	if len(verdict.SourcesUsed) > 0 {
		verdict.Confidence = EvidenceScore(bundle)
	}
	return Contextualize(verdict, bundle.Signals, query.Context), nil
}

// fallback degrades to the staged label analysis over the evidence already
// fetched. The verdict is flagged and its confidence capped at the basic tier.
func (a *ComprehensiveAnalyzer) fallback(ctx context.Context, query types.SubstanceQuery, bundle *types.EvidenceBundle, w io.Writer, cause error) (*types.ContextualVerdict, error) {
	fmt.Fprintf(w, "warning: %v: %v, falling back to basic analysis\n", ErrSynthesisUnavailable, cause)

	var verdict *types.SafetyVerdict
	if bundle.Regulatory != nil {
		var err error
		verdict, err = a.Basic.AnalyzeLabel(ctx, query, bundle.Regulatory, w)
		if err != nil {
			return nil, err
		}
	} else {
		verdict = types.FallbackVerdict(query.NormalizedName())
	}

	verdict.Degraded = true
	if verdict.Confidence > BasicConfidence {
		verdict.Confidence = BasicConfidence
	}
	return Contextualize(verdict, bundle.Signals, query.Context), nil
}

// gatherEvidence fetches all provider slots concurrently. Each fetch is
// bounded by its own timeout and its failure only marks its slot absent.
func (a *ComprehensiveAnalyzer) gatherEvidence(ctx context.Context, name string, w io.Writer) *types.EvidenceBundle {
	timeout := a.FetchTimeout
	if timeout <= 0 {
		timeout = provider.DefaultTimeout
	}

	type fetchResult struct {
		slot   string
		record any
		err    error
	}

	type fetch struct {
		slot string
		run  func(context.Context) (any, error)
	}

	fetches := []fetch{
		{types.SlotRegulatory, func(ctx context.Context) (any, error) {
			if a.Clients.Regulatory == nil {
				return nil, fmt.Errorf("not configured")
			}
			return a.Clients.Regulatory.FetchLabel(ctx, name)
		}},
		{types.SlotStructured, func(ctx context.Context) (any, error) {
			if a.Clients.Structured == nil {
				return nil, fmt.Errorf("not configured")
			}
			return a.Clients.Structured.FetchStructured(ctx, name)
		}},
		{types.SlotLiterature, func(ctx context.Context) (any, error) {
			if a.Clients.Literature == nil {
				return nil, fmt.Errorf("not configured")
			}
			return a.Clients.Literature.FetchLiterature(ctx, name)
		}},
	}

	ch := make(chan fetchResult, len(fetches))
	var wg sync.WaitGroup

	for _, f := range fetches {
		wg.Add(1)
		go func(f fetch) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			record, err := f.run(fctx)
			ch <- fetchResult{slot: f.slot, record: record, err: err}
		}(f)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	bundle := &types.EvidenceBundle{}
	for fr := range ch {
		if fr.err != nil {
			bundle.MarkAbsent(fr.slot, fr.err.Error())
			fmt.Fprintf(w, "warning: source %s unavailable: %v\n", fr.slot, fr.err)
			continue
		}
		switch rec := fr.record.(type) {
		case *types.RegulatoryRecord:
			bundle.Regulatory = rec
		case *types.StructuredRecord:
			bundle.Structured = rec
		case *types.LiteratureRecord:
			bundle.Literature = rec
		}
	}
	return bundle
}

// labelFreeText concatenates the free-text evidence the extractor scans.
// Extraction needs regulatory label text; structured sections ride along.
func labelFreeText(bundle *types.EvidenceBundle) string {
	reg := bundle.Regulatory
	if reg == nil {
		return ""
	}
	parts := []string{reg.PregnancyText, reg.BreastfeedingText, reg.WarningsText}
	if st := bundle.Structured; st != nil {
		parts = append(parts, st.LactationSection, st.PregnancySection)
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	return text
}
