package scoring

import (
	"fmt"
	"strings"

	"github.com/jonesrussell/partner-finder/internal/domain"
)

// Assumptions are the tunable dollar-value assumptions behind the ROI model.
type Assumptions struct {
	// VolunteerHourValue follows the Independent Sector 2023 estimate.
	VolunteerHourValue    float64
	DonorLifetimeValue    float64
	BeneficiaryValue      float64
	BasePartnershipCost   float64
	TechnologyBaseCost    float64
	CoordinationFirstYear float64
}

// DefaultAssumptions returns the standard valuation assumptions.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		VolunteerHourValue:    29.95,
		DonorLifetimeValue:    1200,
		BeneficiaryValue:      150,
		BasePartnershipCost:   25000,
		TechnologyBaseCost:    10000,
		CoordinationFirstYear: 15000,
	}
}

// ResourceSharing breaks down value from shared resources.
type ResourceSharing struct {
	Facilities float64 `json:"facilities"`
	Volunteers float64 `json:"volunteers"`
	Equipment  float64 `json:"equipment"`
	Expertise  float64 `json:"expertise"`
	Total      float64 `json:"total"`
}

// CostSavings breaks down partnership cost savings.
type CostSavings struct {
	Procurement    float64 `json:"procurement"`
	Marketing      float64 `json:"marketing"`
	Administration float64 `json:"administration"`
	Training       float64 `json:"training"`
	Technology     float64 `json:"technology"`
	Total          float64 `json:"total"`
}

// ReachExpansion breaks down value from expanded reach.
type ReachExpansion struct {
	NewBeneficiaries    int     `json:"new_beneficiaries"`
	NewDonors           float64 `json:"new_donors"`
	GeographicExpansion float64 `json:"geographic_expansion"`
	Total               float64 `json:"total"`
}

// ROIEstimate is the full partnership value estimate for one organization.
type ROIEstimate struct {
	EstimatedValue   float64         `json:"estimated_value"`
	ResourceSharing  ResourceSharing `json:"resource_sharing"`
	CostSavings      CostSavings     `json:"cost_savings"`
	Reach            ReachExpansion  `json:"reach_expansion"`
	CapabilityValue  float64         `json:"capability_value"`
	RiskValue        float64         `json:"risk_mitigation_value"`
	Investment       float64         `json:"investment_required"`
	ROIRatio         float64         `json:"roi_ratio"`
	ImpactMultiplier float64         `json:"impact_multiplier"`
	PaybackMonths    int             `json:"payback_months,omitempty"`
	Explanation      string          `json:"explanation"`
}

// ROICalculator estimates partnership value from financial and profile data.
type ROICalculator struct {
	assumptions Assumptions
}

// NewROICalculator creates a calculator with the given assumptions.
func NewROICalculator(assumptions Assumptions) *ROICalculator {
	return &ROICalculator{assumptions: assumptions}
}

// Calculate produces the ROI estimate. Organizations with no financial
// history get a zero estimate with an explanatory note.
func (c *ROICalculator) Calculate(org *domain.OrganizationDetail) *ROIEstimate {
	latest := org.LatestFinancials()
	if latest == nil {
		return &ROIEstimate{
			ImpactMultiplier: 1.0,
			Explanation:      "Insufficient data for ROI calculation",
		}
	}

	resource := c.resourceSharing(org, latest)
	savings := c.costSavings(latest)
	reach := c.reachExpansion(latest)
	capability := c.capabilityEnhancement(org, latest)
	risk := c.riskMitigation(org, latest)

	total := resource.Total + savings.Total + reach.Total + capability + risk
	investment := c.investmentRequired(org, latest)

	var ratio float64
	if investment > 0 {
		ratio = (total - investment) / investment
	}

	est := &ROIEstimate{
		EstimatedValue:   total,
		ResourceSharing:  resource,
		CostSavings:      savings,
		Reach:            reach,
		CapabilityValue:  capability,
		RiskValue:        risk,
		Investment:       investment,
		ROIRatio:         ratio,
		ImpactMultiplier: 1 + ratio*0.5,
	}

	if annual := resource.Total + savings.Total; ratio > 0 && annual > 0 {
		est.PaybackMonths = int(investment / annual * 12)
	}

	est.Explanation = c.explain(est)
	return est
}

func (c *ROICalculator) resourceSharing(org *domain.OrganizationDetail, f *domain.FinancialPeriod) ResourceSharing {
	var v ResourceSharing

	// Roughly 10% of assets are facilities; shared at 2% of value monthly.
	if f.TotalAssets > 500000 {
		v.Facilities = f.TotalAssets * 0.1 * 0.02 * 12
	}

	if len(org.SocialMedia) > 0 {
		followers := 0
		for _, sm := range org.SocialMedia {
			followers += sm.Followers
		}
		estimatedVolunteers := float64(followers) * 0.01
		volunteerHours := estimatedVolunteers * 20
		v.Volunteers = volunteerHours * c.assumptions.VolunteerHourValue
	}

	if f.ProgramExpenses > 0 {
		v.Equipment = f.ProgramExpenses * 0.05
	}

	v.Expertise = float64(len(org.Programs)) * 5000

	v.Total = v.Facilities + v.Volunteers + v.Equipment + v.Expertise
	return v
}

func (c *ROICalculator) costSavings(f *domain.FinancialPeriod) CostSavings {
	var s CostSavings

	s.Procurement = f.TotalExpenses * 0.04
	if f.FundraisingExpenses > 0 {
		s.Marketing = f.FundraisingExpenses * 0.15
	}
	if f.AdminExpenses > 0 {
		s.Administration = f.AdminExpenses * 0.10
	}
	s.Training = 10000 * (f.TotalRevenue / 1000000)
	s.Technology = 5000 + f.TotalRevenue*0.001

	s.Total = s.Procurement + s.Marketing + s.Administration + s.Training + s.Technology
	return s
}

func (c *ROICalculator) reachExpansion(f *domain.FinancialPeriod) ReachExpansion {
	var r ReachExpansion
	if f.ProgramExpenses <= 0 {
		return r
	}

	currentBeneficiaries := f.ProgramExpenses / c.assumptions.BeneficiaryValue
	r.NewBeneficiaries = int(currentBeneficiaries * 0.3)

	beneficiaryValue := float64(r.NewBeneficiaries) * c.assumptions.BeneficiaryValue
	r.NewDonors = float64(r.NewBeneficiaries) * 0.05
	donorValue := r.NewDonors * c.assumptions.DonorLifetimeValue
	r.GeographicExpansion = beneficiaryValue * 0.1

	r.Total = beneficiaryValue + donorValue + r.GeographicExpansion
	return r
}

func (c *ROICalculator) capabilityEnhancement(org *domain.OrganizationDetail, f *domain.FinancialPeriod) float64 {
	var value float64

	value += float64(len(org.Programs)) * 8000

	switch ratio := f.ProgramExpenseRatio(); {
	case ratio > 0.75:
		value += 20000
	case ratio > 0.65:
		value += 10000
	}

	value += float64(len(org.Leadership)) * 2000
	return value
}

func (c *ROICalculator) riskMitigation(org *domain.OrganizationDetail, f *domain.FinancialPeriod) float64 {
	var value float64

	value += f.ProgramExpenses * 0.02

	switch stability := StabilityScore(org); {
	case stability > 0.7:
		value += 15000
	case stability > 0.5:
		value += 8000
	}

	if org.IsActive() {
		value += 5000
	}
	return value
}

func (c *ROICalculator) investmentRequired(org *domain.OrganizationDetail, f *domain.FinancialPeriod) float64 {
	investment := c.assumptions.BasePartnershipCost

	sizeFactor := f.TotalRevenue / 5000000
	if sizeFactor > 1 {
		sizeFactor = 1
	}
	investment += 20000 * sizeFactor

	investment += float64(len(org.Programs)) * 1000
	investment += c.assumptions.TechnologyBaseCost
	investment += c.assumptions.CoordinationFirstYear
	return investment
}

func (c *ROICalculator) explain(est *ROIEstimate) string {
	var parts []string

	switch {
	case est.ROIRatio > 3:
		parts = append(parts, fmt.Sprintf("Exceptional ROI potential (%.1fx return)", est.ROIRatio))
	case est.ROIRatio > 2:
		parts = append(parts, fmt.Sprintf("Strong ROI potential (%.1fx return)", est.ROIRatio))
	case est.ROIRatio > 1:
		parts = append(parts, fmt.Sprintf("Positive ROI potential (%.1fx return)", est.ROIRatio))
	default:
		parts = append(parts, fmt.Sprintf("Limited ROI potential (%.1fx return)", est.ROIRatio))
	}

	var drivers []string
	if est.ResourceSharing.Total > 50000 {
		drivers = append(drivers, fmt.Sprintf("Resource sharing: $%.0f", est.ResourceSharing.Total))
	}
	if est.CostSavings.Total > 30000 {
		drivers = append(drivers, fmt.Sprintf("Cost savings: $%.0f", est.CostSavings.Total))
	}
	if est.Reach.NewBeneficiaries > 100 {
		drivers = append(drivers, fmt.Sprintf("Reach expansion: %d new beneficiaries", est.Reach.NewBeneficiaries))
	}
	if len(drivers) > 0 {
		if len(drivers) > 3 {
			drivers = drivers[:3]
		}
		parts = append(parts, "Key value drivers: "+strings.Join(drivers, ", "))
	}

	parts = append(parts, fmt.Sprintf("Estimated investment: $%.0f", est.Investment))

	if est.PaybackMonths > 0 {
		parts = append(parts, fmt.Sprintf("Payback period: %d months", est.PaybackMonths))
	}

	var strategic []string
	if est.CapabilityValue > 20000 {
		strategic = append(strategic, "significant capability enhancement")
	}
	if est.RiskValue > 15000 {
		strategic = append(strategic, "strong risk mitigation")
	}
	if est.ResourceSharing.Volunteers > 20000 {
		strategic = append(strategic, "substantial volunteer network")
	}
	if len(strategic) > 0 {
		parts = append(parts, "Strategic benefits: "+strings.Join(strategic, ", "))
	}

	return strings.Join(parts, ". ")
}
