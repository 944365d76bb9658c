// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdiddy/safetycheck/pkg/types"
)

func TestPubMedFetchLiterature(t *testing.T) {
	// Answer each count query by its term shape.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		term := r.URL.Query().Get("term")
		reldate := r.URL.Query().Get("reldate")

		count := 0
		switch {
		case strings.Contains(term, "meta-analysis[pt]"):
			count = 3
		case strings.Contains(term, "randomized controlled trial[pt]"):
			count = 0
		case reldate != "":
			count = 12
		case strings.Contains(term, "breastfeeding OR lactation"):
			count = 40
		case strings.Contains(term, "pregnancy"):
			count = 120
		}
		fmt.Fprintf(w, `{"esearchresult": {"count": "%d"}}`, count)
	}))
	defer ts.Close()

	orig := pubMedAPIBase
	pubMedAPIBase = ts.URL
	defer func() { pubMedAPIBase = orig }()

	client := &PubMedClient{Client: ts.Client(), Config: types.ProviderConfig{}}
	rec, err := client.FetchLiterature(context.Background(), "sertraline")
	if err != nil {
		t.Fatalf("FetchLiterature: %v", err)
	}

	if rec.PregnancyStudies != 120 {
		t.Errorf("PregnancyStudies = %d, want 120", rec.PregnancyStudies)
	}
	if rec.BreastfeedingStudies != 40 {
		t.Errorf("BreastfeedingStudies = %d, want 40", rec.BreastfeedingStudies)
	}
	if rec.TotalStudies != 160 {
		t.Errorf("TotalStudies = %d, want 160", rec.TotalStudies)
	}
	if rec.RecentStudies != 12 {
		t.Errorf("RecentStudies = %d, want 12", rec.RecentStudies)
	}
	if !rec.HasMetaAnalysis {
		t.Error("HasMetaAnalysis = false, want true")
	}
	if rec.HasRCT {
		t.Error("HasRCT = true, want false")
	}
}

func TestPubMedSendsAPIKey(t *testing.T) {
	var sawKey bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "nk_test" {
			sawKey = true
		}
		fmt.Fprint(w, `{"esearchresult": {"count": "0"}}`)
	}))
	defer ts.Close()

	orig := pubMedAPIBase
	pubMedAPIBase = ts.URL
	defer func() { pubMedAPIBase = orig }()

	client := &PubMedClient{Client: ts.Client(), Config: types.ProviderConfig{NCBIAPIKey: "nk_test"}}
	if _, err := client.FetchLiterature(context.Background(), "aspirin"); err != nil {
		t.Fatalf("FetchLiterature: %v", err)
	}
	if !sawKey {
		t.Error("api_key parameter was not sent")
	}
}

func TestPubMedBadCount(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"esearchresult": {"count": "not-a-number"}}`)
	}))
	defer ts.Close()

	orig := pubMedAPIBase
	pubMedAPIBase = ts.URL
	defer func() { pubMedAPIBase = orig }()

	client := &PubMedClient{Client: ts.Client(), Config: types.ProviderConfig{}}
	if _, err := client.FetchLiterature(context.Background(), "aspirin"); err == nil {
		t.Fatal("expected error for unparseable count")
	}
}
