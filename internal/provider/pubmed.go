// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/safetycheck/internal/httputil"
	"github.com/pdiddy/safetycheck/pkg/types"
)

// pubMedAPIBase is the NCBI E-utilities esearch endpoint. Declared as a var
// so tests can substitute an httptest server.
var pubMedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"

// recentWindowDays bounds the recent-studies count to the last five years.
const recentWindowDays = 1825

// PubMedClient fetches study counts from the PubMed literature index.
type PubMedClient struct {
	Client *http.Client
	Config types.ProviderConfig
}

// FetchLiterature runs the count queries for a substance. Counts are taken
// from esearch result totals; no article records are downloaded.
func (c *PubMedClient) FetchLiterature(ctx context.Context, substance string) (*types.LiteratureRecord, error) {
	if substance == "" {
		return nil, fmt.Errorf("empty substance name")
	}

	pregQuery := fmt.Sprintf("%s AND pregnancy", substance)
	bfQuery := fmt.Sprintf("%s AND (breastfeeding OR lactation)", substance)

	pregnancy, err := c.count(ctx, pregQuery, "")
	if err != nil {
		return nil, err
	}
	breastfeeding, err := c.count(ctx, bfQuery, "")
	if err != nil {
		return nil, err
	}
	recent, err := c.count(ctx, pregQuery, strconv.Itoa(recentWindowDays))
	if err != nil {
		return nil, err
	}
	meta, err := c.count(ctx, pregQuery+" AND meta-analysis[pt]", "")
	if err != nil {
		return nil, err
	}
	rct, err := c.count(ctx, pregQuery+" AND randomized controlled trial[pt]", "")
	if err != nil {
		return nil, err
	}

	rec := &types.LiteratureRecord{
		TotalStudies:         pregnancy + breastfeeding,
		PregnancyStudies:     pregnancy,
		BreastfeedingStudies: breastfeeding,
		RecentStudies:        recent,
		HasRCT:               rct > 0,
		HasMetaAnalysis:      meta > 0,
	}
	return rec, nil
}

// count runs one esearch query and returns its result total. A non-empty
// reldate restricts the query to the last N days.
func (c *PubMedClient) count(ctx context.Context, term, reldate string) (int, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"term":    {term},
		"retmode": {"json"},
		"retmax":  {"0"},
	}
	if reldate != "" {
		params.Set("reldate", reldate)
		params.Set("datetype", "pdat")
	}
	if c.Config.NCBIAPIKey != "" {
		params.Set("api_key", c.Config.NCBIAPIKey)
	}
	reqURL := pubMedAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return 0, fmt.Errorf("PubMed esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("PubMed esearch returned HTTP %d", resp.StatusCode)
	}

	var er esearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return 0, fmt.Errorf("parsing PubMed response: %w", err)
	}

	// esearch reports the count as a string.
	n, err := strconv.Atoi(er.ESearchResult.Count)
	if err != nil {
		return 0, fmt.Errorf("parsing PubMed count %q: %w", er.ESearchResult.Count, err)
	}
	return n, nil
}

// E-utilities JSON structures.
type esearchResponse struct {
	ESearchResult esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	Count string `json:"count"`
}
