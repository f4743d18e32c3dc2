package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stayscout/internal/config"
)

const testCountry = "المملكة العربية السعودية"

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(&config.SearchConfig{
		BaseURL:   srv.URL,
		Language:  "ar",
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
	}, testCountry)
}

func decodeRequest(t *testing.T, r *http.Request) graphqlRequest {
	t.Helper()
	var req graphqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	return req
}

func TestResolveDestination(t *testing.T) {
	var gotOp string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		gotOp = req.OperationName
		fmt.Fprintf(w, `{"data":{"autoCompleteSuggestions":{"results":[
			{"destination":{"countryCode":"sa","destId":900040280,"destType":"city"},
			 "displayInfo":{"label":"جدة، منطقة مكة المكرمة، %s"}}
		]}}}`, testCountry)
	})

	destID, destType, err := c.ResolveDestination(context.Background(), "جدة")
	if err != nil {
		t.Fatalf("ResolveDestination: %v", err)
	}
	if gotOp != "AutoComplete" {
		t.Errorf("operation name: %q", gotOp)
	}
	if destID != 900040280 {
		t.Errorf("dest id: got %d", destID)
	}
	if destType != "city" {
		t.Errorf("dest type: got %q", destType)
	}
}

func TestResolveDestinationRejectsForeign(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"autoCompleteSuggestions":{"results":[
			{"destination":{"countryCode":"ae","destId":123,"destType":"city"},
			 "displayInfo":{"label":"دبي، الإمارات العربية المتحدة"}}
		]}}}`)
	})

	if _, _, err := c.ResolveDestination(context.Background(), "دبي"); err == nil {
		t.Fatal("expected error for destination outside the configured country")
	}
}

func TestResolveDestinationNoResults(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"autoCompleteSuggestions":{"results":[]}}}`)
	})

	if _, _, err := c.ResolveDestination(context.Background(), "مكان غير موجود"); err == nil {
		t.Fatal("expected error for empty suggestion list")
	}
}

func TestSearchPage(t *testing.T) {
	var got graphqlRequest
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = decodeRequest(t, r)
		fmt.Fprint(w, `{"data":{"searchQueries":{"search":{
			"pagination":{"nbResultsTotal":150},
			"results":[
				{"basicPropertyData":{"pageName":"alpha-hotel"}},
				{"basicPropertyData":{"pageName":""}},
				{"basicPropertyData":{"pageName":"beta-hotel"}}
			]
		}}}}`)
	})

	links, total, err := c.SearchPage(context.Background(), PageQuery{
		Target:   "جدة",
		DestID:   900040280,
		DestType: "city",
		Sorter:   "popularity",
		Offset:   100,
		PageSize: 100,
	})
	if err != nil {
		t.Fatalf("SearchPage: %v", err)
	}

	if got.OperationName != "FullSearch" {
		t.Errorf("operation name: %q", got.OperationName)
	}
	input, _ := got.Variables["input"].(map[string]interface{})
	pagination, _ := input["pagination"].(map[string]interface{})
	if pagination["offset"] != float64(100) || pagination["rowsPerPage"] != float64(100) {
		t.Errorf("pagination variables: %v", pagination)
	}
	sorters, _ := input["sorters"].(map[string]interface{})
	if sorters["selectedSorter"] != "popularity" {
		t.Errorf("sorter variable: %v", sorters)
	}

	if total != 150 {
		t.Errorf("total: got %d, want 150", total)
	}
	// Results without a page name are dropped.
	if len(links) != 2 {
		t.Fatalf("links: got %v", links)
	}
	if links[0] != c.baseURL+"/hotel/sa/alpha-hotel.ar.html" {
		t.Errorf("link format: %q", links[0])
	}
}

func TestSearchPageUpstreamError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	if _, _, err := c.SearchPage(context.Background(), PageQuery{}); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
