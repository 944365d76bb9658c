// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import "github.com/pdiddy/safetycheck/pkg/types"

// BasicConfidence is the confidence of a single-source label analysis.
const BasicConfidence = 0.6

// EvidenceScore computes the additive evidence-quality confidence for a
// comprehensive verdict. Each evidence dimension contributes independently;
// the result is clamped to [0, 1].
func EvidenceScore(bundle *types.EvidenceBundle) float64 {
	score := 0.0
	if bundle.Regulatory != nil {
		score += 0.3
	}
	if bundle.Structured != nil {
		score += 0.2
	}
	if lit := bundle.Literature; lit != nil {
		switch {
		case lit.TotalStudies > 100:
			score += 0.3
		case lit.TotalStudies > 50:
			score += 0.2
		case lit.TotalStudies > 10:
			score += 0.1
		}
		if lit.HasMetaAnalysis {
			score += 0.2
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.0 {
		score = 0.0
	}
	return score
}
