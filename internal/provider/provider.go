// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider implements the evidence source clients. Each client turns
// a substance name into one evidence record; any transport or payload failure
// is reported as an error the caller records as slot absence, never as a
// pipeline failure.
package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pdiddy/safetycheck/pkg/types"
)

// ErrNotFound reports that the source answered but holds no record for the
// substance. Callers treat it like any other absence reason.
var ErrNotFound = errors.New("no record for substance")

// DefaultTimeout bounds each provider fetch.
const DefaultTimeout = 10 * time.Second

// RegulatoryClient fetches a regulatory drug label.
type RegulatoryClient interface {
	FetchLabel(ctx context.Context, substance string) (*types.RegulatoryRecord, error)
}

// StructuredClient fetches a structured product label.
type StructuredClient interface {
	FetchStructured(ctx context.Context, substance string) (*types.StructuredRecord, error)
}

// LiteratureClient fetches literature index counts.
type LiteratureClient interface {
	FetchLiterature(ctx context.Context, substance string) (*types.LiteratureRecord, error)
}

// Clients bundles the three evidence sources for the analysis pipeline. Any
// nil field is treated as a permanently absent source.
type Clients struct {
	Regulatory RegulatoryClient
	Structured StructuredClient
	Literature LiteratureClient
}

// DefaultClients returns the production client set sharing one http.Client
// configured from cfg.
func DefaultClients(cfg types.ProviderConfig) Clients {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := &http.Client{Timeout: timeout}
	return Clients{
		Regulatory: &OpenFDAClient{Client: hc, Config: cfg},
		Structured: &DailyMedClient{Client: hc, Config: cfg},
		Literature: &PubMedClient{Client: hc, Config: cfg},
	}
}
