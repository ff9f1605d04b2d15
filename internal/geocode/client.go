// Package geocode provides a client for the public ZIP geocoding API used
// when a ZIP code falls outside the built-in table.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jonesrussell/partner-finder/internal/geo"
	"github.com/jonesrussell/partner-finder/internal/httputil"
	"github.com/jonesrussell/partner-finder/internal/logger"
)

// Config holds geocoder client settings.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client resolves US ZIP codes via the remote geocoding API.
type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

// New creates a geocoder client.
func New(cfg Config, log logger.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httputil.NewClient(0)
	}
	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
		log:     log,
	}
}

type zipResponse struct {
	Places []struct {
		PlaceName         string `json:"place name"`
		State             string `json:"state"`
		StateAbbreviation string `json:"state abbreviation"`
	} `json:"places"`
}

// Lookup resolves a ZIP code to a city and state. Unknown ZIPs and upstream
// failures both return nil with a nil error; the resolver treats either as a
// miss.
func (c *Client) Lookup(ctx context.Context, zip string) (*geo.ZipInfo, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(zip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("geocoder request failed", logger.String("zip", zip), logger.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	var parsed zipResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Debug("geocoder response malformed", logger.String("zip", zip), logger.Error(err))
		return nil, nil
	}

	if len(parsed.Places) == 0 {
		return nil, nil
	}

	place := parsed.Places[0]
	return &geo.ZipInfo{
		City:      place.PlaceName,
		State:     place.State,
		StateAbbr: place.StateAbbreviation,
	}, nil
}
