// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/safetycheck/internal/httputil"
	"github.com/pdiddy/safetycheck/pkg/types"
)

// DailyMed endpoints. Declared as vars so tests can substitute an httptest
// server.
var (
	dailyMedSearchAPIBase = "https://dailymed.nlm.nih.gov/dailymed/services/v2/spls.json"
	dailyMedSPLAPIBase    = "https://dailymed.nlm.nih.gov/dailymed/services/v2/spls"
)

// LOINC section codes in SPL documents.
const (
	loincLactation = "77306-9"
	loincPregnancy = "42228-7"
)

// DailyMedClient fetches structured product labels from DailyMed.
type DailyMedClient struct {
	Client *http.Client
	Config types.ProviderConfig
}

// FetchStructured resolves the substance to a set ID, downloads the SPL XML,
// and extracts the lactation and pregnancy sections.
func (c *DailyMedClient) FetchStructured(ctx context.Context, substance string) (*types.StructuredRecord, error) {
	if substance == "" {
		return nil, fmt.Errorf("empty substance name")
	}

	setID, err := c.findSetID(ctx, substance)
	if err != nil {
		return nil, err
	}
	return c.fetchSPL(ctx, setID)
}

// findSetID searches the SPL index and returns the first matching set ID.
func (c *DailyMedClient) findSetID(ctx context.Context, substance string) (string, error) {
	params := url.Values{"drug_name": {substance}}
	reqURL := dailyMedSearchAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return "", fmt.Errorf("DailyMed search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("DailyMed search returned HTTP %d", resp.StatusCode)
	}

	var sr dailyMedSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("parsing DailyMed search response: %w", err)
	}
	if len(sr.Data) == 0 || sr.Data[0].SetID == "" {
		return "", ErrNotFound
	}
	return sr.Data[0].SetID, nil
}

// fetchSPL downloads one SPL document and maps its sections.
func (c *DailyMedClient) fetchSPL(ctx context.Context, setID string) (*types.StructuredRecord, error) {
	reqURL := fmt.Sprintf("%s/%s.xml", dailyMedSPLAPIBase, setID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("DailyMed SPL request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DailyMed SPL returned HTTP %d", resp.StatusCode)
	}

	var doc splDocument
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing SPL document: %w", err)
	}

	sections := map[string]string{}
	for i := range doc.Components {
		collectSections(&doc.Components[i].Section, sections)
	}

	lactation := sections[loincLactation]
	rec := &types.StructuredRecord{
		SetID:                  setID,
		LactationSection:       lactation,
		PregnancySection:       sections[loincPregnancy],
		ClinicalConsiderations: clinicalConsiderations(lactation),
		HasMilkLevels:          containsAny(lactation, "milk", "breastmilk"),
		HasInfantEffects:       containsAny(lactation, "infant", "breastfed child", "nursing child"),
	}
	return rec, nil
}

// collectSections walks a section tree and records the flattened text of each
// coded section. The first occurrence of a code wins.
func collectSections(s *splSection, out map[string]string) {
	if s.Code.Code != "" {
		if _, seen := out[s.Code.Code]; !seen {
			out[s.Code.Code] = flattenXML(s.Text.Raw)
		}
	}
	for i := range s.Components {
		collectSections(&s.Components[i].Section, out)
	}
}

var xmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// flattenXML strips markup from an SPL text block and collapses whitespace.
func flattenXML(raw string) string {
	text := xmlTagPattern.ReplaceAllString(raw, " ")
	return strings.Join(strings.Fields(text), " ")
}

// clinicalConsiderations returns the tail of a lactation section starting at
// its Clinical Considerations heading, or "" when the heading is absent.
func clinicalConsiderations(lactation string) string {
	lower := strings.ToLower(lactation)
	idx := strings.Index(lower, "clinical considerations")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(lactation[idx:])
}

// containsAny reports whether text contains any of the terms, case-insensitive.
func containsAny(text string, terms ...string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// DailyMed API structures.
type dailyMedSearchResponse struct {
	Data []dailyMedSPLEntry `json:"data"`
}

type dailyMedSPLEntry struct {
	SetID string `json:"setid"`
	Title string `json:"title"`
}

type splDocument struct {
	Components []splComponent `xml:"component>structuredBody>component"`
}

type splComponent struct {
	Section splSection `xml:"section"`
}

type splSection struct {
	Code       splCode        `xml:"code"`
	Title      string         `xml:"title"`
	Text       splText        `xml:"text"`
	Components []splComponent `xml:"component"`
}

type splCode struct {
	Code string `xml:"code,attr"`
}

type splText struct {
	Raw string `xml:",innerxml"`
}
