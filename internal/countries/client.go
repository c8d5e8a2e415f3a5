// Package countries reads the public REST Countries catalog and reshapes it for the front end.
package countries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://restcountries.com/v3.1"
	userAgent      = "RestCountriesClient/1.0"

	// the /all endpoint rejects requests without a field list (max 10 fields)
	allFields = "name,capitalInfo,capital,currencies,region,subregion,languages,flags,maps,population"
)

// ErrNotFound is returned when the catalog has no country matching the query.
var ErrNotFound = errors.New("country not found")

// Client is a thin HTTP client for the REST Countries API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// All lists every country in summary form.
func (c *Client) All(ctx context.Context) ([]Summary, error) {
	var raw []apiCountry
	if err := c.get(ctx, "/all?fields="+allFields, &raw); err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return summarize(raw), nil
}

// ByName returns the details of the best match for name.
func (c *Client) ByName(ctx context.Context, name string) (*Details, error) {
	var raw []apiCountry
	if err := c.get(ctx, "/name/"+url.PathEscape(name), &raw); err != nil {
		return nil, fmt.Errorf("country %q: %w", name, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("country %q: %w", name, ErrNotFound)
	}
	details := detail(raw[0])
	return &details, nil
}

// ByRegion lists the countries of region in summary form.
func (c *Client) ByRegion(ctx context.Context, region string) ([]Summary, error) {
	var raw []apiCountry
	if err := c.get(ctx, "/region/"+url.PathEscape(region), &raw); err != nil {
		return nil, fmt.Errorf("region %q: %w", region, err)
	}
	return summarize(raw), nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("request %s: unexpected status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
