// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/safetycheck/internal/httputil"
	"github.com/pdiddy/safetycheck/pkg/types"
)

// openFDAAPIBase is the openFDA drug label search endpoint. Declared as a
// var so tests can substitute an httptest server.
var openFDAAPIBase = "https://api.fda.gov/drug/label.json"

// OpenFDAClient fetches regulatory drug labels from openFDA.
type OpenFDAClient struct {
	Client *http.Client
	Config types.ProviderConfig
}

// FetchLabel queries openFDA for the substance by brand or generic name and
// maps the first matching label onto a RegulatoryRecord.
func (c *OpenFDAClient) FetchLabel(ctx context.Context, substance string) (*types.RegulatoryRecord, error) {
	if substance == "" {
		return nil, fmt.Errorf("empty substance name")
	}

	expr := fmt.Sprintf("(openfda.brand_name:%q OR openfda.generic_name:%q)", substance, substance)
	params := url.Values{
		"search": {expr},
		"limit":  {"1"},
	}
	reqURL := openFDAAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("openFDA request: %w", err)
	}
	defer resp.Body.Close()

	// openFDA answers 404 when the search expression matches no label.
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openFDA returned HTTP %d", resp.StatusCode)
	}

	var fr openFDAResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("parsing openFDA response: %w", err)
	}
	if len(fr.Results) == 0 {
		return nil, ErrNotFound
	}

	label := fr.Results[0]
	rec := &types.RegulatoryRecord{
		BrandNames:        label.OpenFDA.BrandName,
		GenericNames:      label.OpenFDA.GenericName,
		PregnancyCategory: first(label.PregnancyCategory),
		PregnancyText:     first(label.Pregnancy),
		BreastfeedingText: first(label.NursingMothers),
		WarningsText:      first(label.Warnings),
	}
	return rec, nil
}

// first returns the first element of a label field array, or "".
func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// openFDA API JSON structures.
type openFDAResponse struct {
	Results []openFDALabel `json:"results"`
}

type openFDALabel struct {
	PregnancyCategory []string     `json:"pregnancy_category"`
	Pregnancy         []string     `json:"pregnancy"`
	NursingMothers    []string     `json:"nursing_mothers"`
	Warnings          []string     `json:"warnings"`
	OpenFDA           openFDANames `json:"openfda"`
}

type openFDANames struct {
	BrandName   []string `json:"brand_name"`
	GenericName []string `json:"generic_name"`
}
