package apileads

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.apollo.io"
	searchPath     = "/v1/mixed_companies/search"
)

// Company is one organization returned by the Apollo company search.
type Company struct {
	Name        string `json:"name"`
	Website     string `json:"website,omitempty"`
	Industry    string `json:"industry,omitempty"`
	Location    string `json:"location,omitempty"`
	Description string `json:"description,omitempty"`
	Employees   int    `json:"employees,omitempty"`
}

// SearchRequest narrows the company search.
type SearchRequest struct {
	Locations  []string
	Industries []string
	Page       int
	PerPage    int
}

// Client talks to the Apollo.io REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type searchPayload struct {
	Locations  []string `json:"organization_locations,omitempty"`
	Industries []string `json:"q_organization_keyword_tags,omitempty"`
	Page       int      `json:"page"`
	PerPage    int      `json:"per_page"`
}

type searchResponse struct {
	Organizations []struct {
		Name                  string `json:"name"`
		WebsiteURL            string `json:"website_url"`
		Industry              string `json:"industry"`
		City                  string `json:"city"`
		Country               string `json:"country"`
		ShortDescription      string `json:"short_description"`
		EstimatedNumEmployees int    `json:"estimated_num_employees"`
	} `json:"organizations"`
	Pagination struct {
		TotalEntries int `json:"total_entries"`
	} `json:"pagination"`
}

// SearchCompanies runs one page of the company search and maps the
// organizations into Company records.
func (c *Client) SearchCompanies(ctx context.Context, req SearchRequest) ([]Company, error) {
	if c.apiKey == "" {
		return nil, eris.New("apileads: missing API key")
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PerPage <= 0 {
		req.PerPage = 25
	}

	payload, err := json.Marshal(searchPayload{
		Locations:  req.Locations,
		Industries: req.Industries,
		Page:       req.Page,
		PerPage:    req.PerPage,
	})
	if err != nil {
		return nil, eris.Wrap(err, "apileads: encode search payload")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "apileads: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "apileads: company search request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, eris.Errorf("apileads: company search returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, eris.Wrap(err, "apileads: decode search response")
	}

	companies := make([]Company, 0, len(decoded.Organizations))
	for _, org := range decoded.Organizations {
		companies = append(companies, Company{
			Name:        org.Name,
			Website:     org.WebsiteURL,
			Industry:    org.Industry,
			Location:    joinLocation(org.City, org.Country),
			Description: org.ShortDescription,
			Employees:   org.EstimatedNumEmployees,
		})
	}

	c.log.Info("company search complete",
		zap.Int("page", req.Page),
		zap.Int("returned", len(companies)),
		zap.Int("total", decoded.Pagination.TotalEntries))
	return companies, nil
}

func joinLocation(city, country string) string {
	switch {
	case city == "":
		return country
	case country == "":
		return city
	default:
		return city + ", " + country
	}
}
