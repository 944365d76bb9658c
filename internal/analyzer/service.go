// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// VerdictCache is the cache surface the service needs. Lookup misses on
// expired or mode-mismatched entries; Store overwrites.
type VerdictCache interface {
	Lookup(ctx context.Context, name string, mode types.AnalysisMode) (*types.SafetyVerdict, bool)
	Store(ctx context.Context, name string, mode types.AnalysisMode, verdict *types.SafetyVerdict) error
}

// Service is the cache-first entry point for analysis requests.
type Service struct {
	Basic         *BasicAnalyzer
	Comprehensive *ComprehensiveAnalyzer

	// Cache is optional; nil disables caching entirely.
	Cache VerdictCache

	// Progress receives warning and status lines. Nil discards them.
	Progress io.Writer
}

// Check answers one substance query, consulting the cache before running a
// pipeline. Cache failures never fail the request.
func (s *Service) Check(ctx context.Context, query types.SubstanceQuery) (*types.ContextualVerdict, error) {
	if query.IsEmpty() {
		return nil, fmt.Errorf("%w: empty substance name", ErrInputInvalid)
	}
	mode := query.Mode
	if mode == "" {
		mode = types.ModeBasic
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInputInvalid, query.Mode)
	}
	query.Mode = mode

	w := s.Progress
	if w == nil {
		w = io.Discard
	}

	name := query.NormalizedName()
	if s.Cache != nil {
		if cached, ok := s.Cache.Lookup(ctx, name, mode); ok {
			return Contextualize(cached, nil, query.Context), nil
		}
	}

	var result *types.ContextualVerdict
	switch mode {
	case types.ModeBasic:
		verdict, err := s.Basic.Analyze(ctx, query, w)
		if err != nil {
			return nil, err
		}
		result = Contextualize(verdict, nil, query.Context)
	case types.ModeComprehensive:
		verdict, err := s.Comprehensive.Analyze(ctx, query, w)
		if err != nil {
			return nil, err
		}
		result = verdict
	}

	// A cancelled request must not write: a partial pipeline run is not a
	// trustworthy cache entry.
	if s.Cache != nil && ctx.Err() == nil {
		if err := s.Cache.Store(ctx, name, mode, &result.SafetyVerdict); err != nil {
			fmt.Fprintf(w, "warning: cache store failed: %v\n", err)
		}
	}
	return result, nil
}
