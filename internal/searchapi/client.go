// Package searchapi talks to the listings site's GraphQL search endpoint. It
// covers the two read paths discovery needs: resolving a place name to a
// destination and walking paginated search results.
package searchapi

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"stayscout/internal/config"
)

const graphqlPath = "/dml/graphql"

// PageQuery identifies one page of search results.
type PageQuery struct {
	Target   string
	DestID   int
	DestType string
	Sorter   string
	Offset   int
	PageSize int
}

// SearchClient is the search surface discovery depends on.
type SearchClient interface {
	// ResolveDestination looks up a place name and returns its destination ID
	// and type. Destinations outside the configured country resolve to an
	// error.
	ResolveDestination(ctx context.Context, name string) (destID int, destType string, err error)

	// SearchPage fetches one page of hotel links plus the reported total
	// result count.
	SearchPage(ctx context.Context, q PageQuery) (links []string, total int, err error)
}

// Client is the resty-backed SearchClient implementation.
type Client struct {
	client      *resty.Client
	baseURL     string
	language    string
	countryName string
}

// New creates a search client from configuration.
func New(cfg *config.SearchConfig, countryName string) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("Accept", "*/*")
	client.SetHeader("User-Agent", cfg.UserAgent)
	client.SetHeader("Origin", cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)

	return &Client{
		client:      client,
		baseURL:     cfg.BaseURL,
		language:    cfg.Language,
		countryName: countryName,
	}
}

type graphqlRequest struct {
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
	Query         string                 `json:"query"`
}

const autoCompleteQuery = `query AutoComplete($input: AutoCompleteRequestInput!) {
  autoCompleteSuggestions(input: $input) {
    results {
      destination { countryCode destId destType }
      displayInfo { label }
    }
  }
}`

type autoCompleteResponse struct {
	Data struct {
		AutoCompleteSuggestions struct {
			Results []struct {
				Destination struct {
					CountryCode string `json:"countryCode"`
					DestID      int    `json:"destId"`
					DestType    string `json:"destType"`
				} `json:"destination"`
				DisplayInfo struct {
					Label string `json:"label"`
				} `json:"displayInfo"`
			} `json:"results"`
		} `json:"autoCompleteSuggestions"`
	} `json:"data"`
}

// ResolveDestination resolves a place name via the autocomplete API. The top
// suggestion wins; suggestions whose label does not mention the configured
// country are rejected so a misspelled target cannot send the scraper abroad.
func (c *Client) ResolveDestination(ctx context.Context, name string) (int, string, error) {
	req := graphqlRequest{
		OperationName: "AutoComplete",
		Variables: map[string]interface{}{
			"input": map[string]interface{}{
				"prefixQuery":   name,
				"nbSuggestions": 1,
			},
		},
		Query: autoCompleteQuery,
	}

	var resp autoCompleteResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.baseURL + graphqlPath)
	if err != nil {
		return 0, "", fmt.Errorf("autocomplete request failed: %w", err)
	}
	if httpResp.StatusCode() != 200 {
		return 0, "", fmt.Errorf("autocomplete request failed: status %d", httpResp.StatusCode())
	}

	results := resp.Data.AutoCompleteSuggestions.Results
	if len(results) == 0 {
		return 0, "", fmt.Errorf("no destination found for %q", name)
	}

	top := results[0]
	if c.countryName != "" && !strings.Contains(top.DisplayInfo.Label, c.countryName) {
		return 0, "", fmt.Errorf("destination %q is outside %s", name, c.countryName)
	}
	if top.Destination.DestID == 0 {
		return 0, "", fmt.Errorf("no destination ID for %q", name)
	}
	return top.Destination.DestID, top.Destination.DestType, nil
}

const fullSearchQuery = `query FullSearch($input: SearchQueryInput!) {
  searchQueries {
    search(input: $input) {
      pagination { nbResultsTotal }
      results {
        basicPropertyData { pageName }
      }
    }
  }
}`

type fullSearchResponse struct {
	Data struct {
		SearchQueries struct {
			Search struct {
				Pagination struct {
					NbResultsTotal int `json:"nbResultsTotal"`
				} `json:"pagination"`
				Results []struct {
					BasicPropertyData struct {
						PageName string `json:"pageName"`
					} `json:"basicPropertyData"`
				} `json:"results"`
			} `json:"search"`
		} `json:"searchQueries"`
	} `json:"data"`
}

// SearchPage fetches one page of search results and returns the detail-page
// links built from each result's page name, plus the total result count the
// API reports for the query.
func (c *Client) SearchPage(ctx context.Context, q PageQuery) ([]string, int, error) {
	req := graphqlRequest{
		OperationName: "FullSearch",
		Variables: map[string]interface{}{
			"input": map[string]interface{}{
				"location": map[string]interface{}{
					"searchString": q.Target,
					"destType":     q.DestType,
					"destId":       q.DestID,
				},
				"sorters": map[string]interface{}{
					"selectedSorter": q.Sorter,
				},
				"pagination": map[string]interface{}{
					"rowsPerPage": q.PageSize,
					"offset":      q.Offset,
				},
				"doAvailabilityCheck":   false,
				"showAparthotelAsHotel": true,
				"nbRooms":               1,
				"nbAdults":              2,
				"nbChildren":            0,
				"filters":               map[string]interface{}{},
			},
		},
		Query: fullSearchQuery,
	}

	var resp fullSearchResponse
	httpResp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(c.baseURL + graphqlPath)
	if err != nil {
		return nil, 0, fmt.Errorf("search request failed: %w", err)
	}
	if httpResp.StatusCode() != 200 {
		return nil, 0, fmt.Errorf("search request failed: status %d", httpResp.StatusCode())
	}

	search := resp.Data.SearchQueries.Search
	links := make([]string, 0, len(search.Results))
	for _, r := range search.Results {
		if r.BasicPropertyData.PageName == "" {
			continue
		}
		links = append(links, c.hotelLink(r.BasicPropertyData.PageName))
	}
	return links, search.Pagination.NbResultsTotal, nil
}

// hotelLink builds a detail-page URL from a result's page name.
func (c *Client) hotelLink(pageName string) string {
	return fmt.Sprintf("%s/hotel/sa/%s.%s.html", c.baseURL, pageName, c.language)
}
