// Package registry wraps the public nonprofit registry API used for
// organization search and 990 filing data.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/httputil"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/retry"
)

// Config holds registry client settings.
type Config struct {
	BaseURL    string
	UserAgent  string
	MaxRetries int
	HTTPClient *http.Client
}

// Client talks to the nonprofit registry API. All methods degrade to empty
// results on upstream failure; the search path never surfaces a hard error.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	retryCfg  retry.Config
	log       logger.Logger
}

// New creates a registry client.
func New(cfg Config, log logger.Logger) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httputil.NewClient(0)
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.MaxRetries
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		http:      httpClient,
		retryCfg:  retryCfg,
		log:       log,
	}
}

type searchResponse struct {
	Organizations []searchOrganization `json:"organizations"`
	TotalResults  int                  `json:"total_results"`
}

type searchOrganization struct {
	EIN      int64   `json:"ein"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	NTEECode string  `json:"ntee_code"`
	Score    float64 `json:"score"`
}

// Search queries the registry for organizations matching the keyword,
// optionally scoped to a state abbreviation. Upstream failures return an
// empty slice; callers report the condition to the user but keep serving.
func (c *Client) Search(ctx context.Context, keyword, state string) []domain.OrganizationRecord {
	params := url.Values{}
	params.Set("q", keyword)
	if state != "" {
		params.Set("state[id]", state)
	}
	endpoint := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	var parsed searchResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		c.log.Warn("registry search failed",
			logger.String("keyword", keyword),
			logger.String("state", state),
			logger.Error(err))
		return nil
	}

	records := make([]domain.OrganizationRecord, 0, len(parsed.Organizations))
	for _, org := range parsed.Organizations {
		records = append(records, domain.OrganizationRecord{
			EIN:      strconv.FormatInt(org.EIN, 10),
			Name:     org.Name,
			City:     org.City,
			State:    org.State,
			NTEECode: org.NTEECode,
			Score:    org.Score,
		})
	}

	c.log.Debug("registry search",
		logger.String("keyword", keyword),
		logger.Int("results", len(records)))
	return records
}

type organizationResponse struct {
	Organization organizationDetail `json:"organization"`
}

type organizationDetail struct {
	EIN                int64    `json:"ein"`
	Name               string   `json:"name"`
	Address            string   `json:"address"`
	City               string   `json:"city"`
	State              string   `json:"state"`
	Zipcode            string   `json:"zipcode"`
	NTEECode           string   `json:"ntee_code"`
	Mission            string   `json:"mission"`
	Website            string   `json:"website"`
	OrganizationStatus string   `json:"organization_status"`
	Filings            []filing `json:"filings_with_data"`
}

type filing struct {
	TaxPeriodYear       int     `json:"tax_prd_yr"`
	TotalRevenue        float64 `json:"totrevenue"`
	TotalExpenses       float64 `json:"totfuncexpns"`
	TotalAssets         float64 `json:"totassetsend"`
	TotalLiabilities    float64 `json:"totliabend"`
	NetAssets           float64 `json:"totnetassetend"`
	ProgramExpenses     float64 `json:"progsvcs"`
	AdminExpenses       float64 `json:"mgmtandgen"`
	FundraisingExpenses float64 `json:"fundrasing"`
}

// GetOrganization fetches the full profile for an EIN. Returns nil when the
// organization is unknown or the upstream call fails.
func (c *Client) GetOrganization(ctx context.Context, ein string) *domain.OrganizationDetail {
	endpoint := fmt.Sprintf("%s/organizations/%s.json", c.baseURL, url.PathEscape(ein))

	var parsed organizationResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		c.log.Warn("registry organization fetch failed",
			logger.String("ein", ein),
			logger.Error(err))
		return nil
	}

	org := parsed.Organization
	if org.Name == "" {
		return nil
	}

	detail := &domain.OrganizationDetail{
		OrganizationRecord: domain.OrganizationRecord{
			EIN:      ein,
			Name:     org.Name,
			City:     org.City,
			State:    org.State,
			NTEECode: org.NTEECode,
		},
		MissionStatement: org.Mission,
		Website:          org.Website,
		Address:          org.Address,
		Status:           mapStatus(org.OrganizationStatus),
	}

	seen := make(map[int]bool)
	for _, f := range org.Filings {
		if f.TaxPeriodYear == 0 || seen[f.TaxPeriodYear] {
			continue
		}
		seen[f.TaxPeriodYear] = true
		detail.FinancialHistory = append(detail.FinancialHistory, domain.FinancialPeriod{
			Year:                f.TaxPeriodYear,
			TotalRevenue:        f.TotalRevenue,
			TotalExpenses:       f.TotalExpenses,
			TotalAssets:         f.TotalAssets,
			TotalLiabilities:    f.TotalLiabilities,
			NetAssets:           f.NetAssets,
			ProgramExpenses:     f.ProgramExpenses,
			AdminExpenses:       f.AdminExpenses,
			FundraisingExpenses: f.FundraisingExpenses,
		})
	}
	detail.SortFinancials()

	return detail
}

// mapStatus translates registry status codes.
func mapStatus(code string) string {
	switch code {
	case "01":
		return "active"
	case "02":
		return "suspended"
	case "03":
		return "inactive"
	default:
		return ""
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return retry.Do(ctx, c.retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("registry returned status %d", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	})
}
