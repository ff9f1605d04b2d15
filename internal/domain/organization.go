// Package domain defines the core types for nonprofit partner discovery.
package domain

import "sort"

// Location describes the resolved geography for a ZIP code.
type Location struct {
	Zip    string `json:"zip"`
	City   string `json:"city"`
	County string `json:"county,omitempty"`
	State  string `json:"state"`
}

// OrganizationRecord is the lightweight search result shape returned by the
// nonprofit registry.
type OrganizationRecord struct {
	EIN      string  `json:"ein"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	NTEECode string  `json:"ntee_code,omitempty"`
	Score    float64 `json:"score"`
}

// FinancialPeriod holds one fiscal year of reported financials.
type FinancialPeriod struct {
	Year                int     `json:"year"`
	TotalRevenue        float64 `json:"total_revenue"`
	TotalExpenses       float64 `json:"total_expenses"`
	TotalAssets         float64 `json:"total_assets"`
	TotalLiabilities    float64 `json:"total_liabilities"`
	NetAssets           float64 `json:"net_assets"`
	ProgramExpenses     float64 `json:"program_expenses"`
	AdminExpenses       float64 `json:"admin_expenses"`
	FundraisingExpenses float64 `json:"fundraising_expenses"`
}

// ProgramExpenseRatio returns program expenses as a share of total expenses,
// or 0 when total expenses are zero.
func (p FinancialPeriod) ProgramExpenseRatio() float64 {
	if p.TotalExpenses == 0 {
		return 0
	}
	return p.ProgramExpenses / p.TotalExpenses
}

// OverheadRatio returns admin plus fundraising expenses as a share of total
// expenses, or 0 when total expenses are zero.
func (p FinancialPeriod) OverheadRatio() float64 {
	if p.TotalExpenses == 0 {
		return 0
	}
	return (p.AdminExpenses + p.FundraisingExpenses) / p.TotalExpenses
}

// SocialPresence describes one social media account for an organization.
type SocialPresence struct {
	Platform  string `json:"platform"`
	URL       string `json:"url"`
	Followers int    `json:"followers,omitempty"`
}

// Leader is a named person in an organization's leadership.
type Leader struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
}

// OrganizationDetail is the full organization profile assembled from the
// registry plus best-effort enrichment.
type OrganizationDetail struct {
	OrganizationRecord

	MissionStatement string            `json:"mission_statement,omitempty"`
	Website          string            `json:"website,omitempty"`
	Address          string            `json:"address,omitempty"`
	Status           string            `json:"status,omitempty"`
	ContactEmail     string            `json:"contact_email,omitempty"`
	ContactPhone     string            `json:"contact_phone,omitempty"`
	FinancialHistory []FinancialPeriod `json:"financial_history,omitempty"`
	SocialMedia      []SocialPresence  `json:"social_media,omitempty"`
	Programs         []string          `json:"programs,omitempty"`
	Leadership       []Leader          `json:"leadership,omitempty"`
}

// LatestFinancials returns the financial period with the greatest year, or
// nil when no history is present.
func (d *OrganizationDetail) LatestFinancials() *FinancialPeriod {
	var latest *FinancialPeriod
	for i := range d.FinancialHistory {
		p := &d.FinancialHistory[i]
		if latest == nil || p.Year > latest.Year {
			latest = p
		}
	}
	return latest
}

// SortFinancials orders the financial history by year descending.
func (d *OrganizationDetail) SortFinancials() {
	sort.SliceStable(d.FinancialHistory, func(i, j int) bool {
		return d.FinancialHistory[i].Year > d.FinancialHistory[j].Year
	})
}

// IsActive reports whether the organization's registry status marks it as
// currently operating.
func (d *OrganizationDetail) IsActive() bool {
	return d.Status == "" || d.Status == "active"
}

// ScoreBundle carries the component scores produced by the ranking engine.
type ScoreBundle struct {
	Mission     float64 `json:"mission"`
	ROIEstimate float64 `json:"roi_estimate"`
	Stability   float64 `json:"stability"`
	Capacity    float64 `json:"capacity"`
	DataQuality float64 `json:"data_quality"`
	Overall     float64 `json:"overall"`
	Rank        int     `json:"rank,omitempty"`
}

// HealthStatus reports service and dependency health.
type HealthStatus struct {
	Status       string            `json:"status"`
	Service      string            `json:"service"`
	Version      string            `json:"version,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}
