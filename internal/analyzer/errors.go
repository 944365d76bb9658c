// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import "errors"

// ErrInputInvalid reports an unusable query. It is terminal: no pipeline
// stage runs after validation fails.
var ErrInputInvalid = errors.New("invalid input")

// ErrSynthesisUnavailable reports that the synthesis provider could not be
// reached. Comprehensive mode degrades to basic on it; basic mode stages
// absorb it into their defaults.
var ErrSynthesisUnavailable = errors.New("synthesis provider unavailable")
