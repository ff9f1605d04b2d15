package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/logger"
)

// roiNormalizer converts the dollar-valued ROI estimate to [0, 1]. $100k of
// annual partnership value scores 1.0.
const roiNormalizer = 100000

// Criteria are the overall score component weights. Callers may override
// them per request.
type Criteria struct {
	MissionWeight     float64 `json:"mission_weight"`
	ROIWeight         float64 `json:"roi_weight"`
	StabilityWeight   float64 `json:"stability_weight"`
	CapacityWeight    float64 `json:"capacity_weight"`
	DataQualityWeight float64 `json:"data_quality_weight"`
}

// DefaultCriteria returns the standard component weighting.
func DefaultCriteria() Criteria {
	return Criteria{
		MissionWeight:     0.35,
		ROIWeight:         0.25,
		StabilityWeight:   0.15,
		CapacityWeight:    0.15,
		DataQualityWeight: 0.10,
	}
}

// Overall applies the criteria weights to a score bundle.
func (c Criteria) Overall(s domain.ScoreBundle) float64 {
	return c.MissionWeight*s.Mission +
		c.ROIWeight*s.ROIEstimate +
		c.StabilityWeight*s.Stability +
		c.CapacityWeight*s.Capacity +
		c.DataQualityWeight*s.DataQuality
}

// Evaluation bundles an organization with its scores.
type Evaluation struct {
	Detail  *domain.OrganizationDetail `json:"organization"`
	Scores  domain.ScoreBundle         `json:"scores"`
	Mission *MissionAlignment          `json:"mission_alignment,omitempty"`
	ROI     *ROIEstimate               `json:"roi,omitempty"`
}

// Engine produces partnership rankings.
type Engine struct {
	mission  *MissionAnalyzer
	roi      *ROICalculator
	criteria Criteria
	log      logger.Logger
}

// NewEngine creates a ranking engine with the default criteria.
func NewEngine(mission *MissionAnalyzer, roi *ROICalculator, log logger.Logger) *Engine {
	return &Engine{
		mission:  mission,
		roi:      roi,
		criteria: DefaultCriteria(),
		log:      log,
	}
}

// Evaluate scores a single organization using the engine's criteria.
func (e *Engine) Evaluate(ctx context.Context, org *domain.OrganizationDetail) *Evaluation {
	return e.evaluate(ctx, org, e.criteria)
}

func (e *Engine) evaluate(ctx context.Context, org *domain.OrganizationDetail, criteria Criteria) *Evaluation {
	if org == nil {
		return &Evaluation{Scores: domain.ScoreBundle{}}
	}

	alignment := e.mission.Analyze(ctx, org)
	roi := e.roi.Calculate(org)

	roiScore := roi.EstimatedValue / roiNormalizer
	if roiScore > 1 {
		roiScore = 1
	}

	scores := domain.ScoreBundle{
		Mission:     alignment.Score,
		ROIEstimate: roiScore,
		Stability:   StabilityScore(org),
		Capacity:    CapacityScore(org),
		DataQuality: DataQualityScore(org),
	}
	scores.Overall = criteria.Overall(scores)

	return &Evaluation{
		Detail:  org,
		Scores:  scores,
		Mission: alignment,
		ROI:     roi,
	}
}

// Rank evaluates and orders organizations by descending overall score. The
// sort is stable, ranks are 1-based, and an organization that cannot be
// scored keeps its place with an overall score of 0.
func (e *Engine) Rank(ctx context.Context, orgs []*domain.OrganizationDetail, criteria *Criteria) []*Evaluation {
	crit := e.criteria
	if criteria != nil {
		crit = *criteria
	}

	evals := make([]*Evaluation, 0, len(orgs))
	for _, org := range orgs {
		eval := e.evaluate(ctx, org, crit)
		if org == nil {
			e.log.Warn("skipping score for missing organization detail")
		}
		evals = append(evals, eval)
	}

	sort.SliceStable(evals, func(i, j int) bool {
		return evals[i].Scores.Overall > evals[j].Scores.Overall
	})

	for i := range evals {
		evals[i].Scores.Rank = i + 1
	}
	return evals
}

// StabilityScore measures financial stability from the filing history.
// Organizations with under two years of history score a neutral 0.5.
func StabilityScore(org *domain.OrganizationDetail) float64 {
	if len(org.FinancialHistory) < 2 {
		return 0.5
	}

	latest := org.LatestFinancials()
	if latest == nil {
		return 0.5
	}

	score := 0.0

	if latest.TotalRevenue > 0 {
		score += 0.3
	}

	if latest.TotalLiabilities > 0 {
		switch ratio := latest.TotalAssets / latest.TotalLiabilities; {
		case ratio > 2:
			score += 0.3
		case ratio > 1:
			score += 0.2
		}
	}

	score += latest.ProgramExpenseRatio() * 0.4

	if score > 1 {
		score = 1
	}
	return score
}

// CapacityScore measures organizational capacity from size, efficiency, and
// revenue trend.
func CapacityScore(org *domain.OrganizationDetail) float64 {
	score := 0.5

	latest := org.LatestFinancials()
	if latest == nil {
		return score
	}

	switch {
	case latest.TotalRevenue > 5000000:
		score += 0.2
	case latest.TotalRevenue > 1000000:
		score += 0.15
	case latest.TotalRevenue > 100000:
		score += 0.1
	}

	switch ratio := latest.ProgramExpenseRatio(); {
	case ratio > 0.8:
		score += 0.2
	case ratio > 0.7:
		score += 0.1
	}

	if revenueNonDecreasing(org.FinancialHistory, 3) {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}

// revenueNonDecreasing reports whether revenue held or grew over the most
// recent n years. Requires at least n years of history.
func revenueNonDecreasing(history []domain.FinancialPeriod, n int) bool {
	if len(history) < n {
		return false
	}

	byYear := make([]domain.FinancialPeriod, len(history))
	copy(byYear, history)
	sort.Slice(byYear, func(i, j int) bool { return byYear[i].Year < byYear[j].Year })

	recent := byYear[len(byYear)-n:]
	for i := 0; i < len(recent)-1; i++ {
		if recent[i].TotalRevenue > recent[i+1].TotalRevenue {
			return false
		}
	}
	return true
}

// DataQualityScore measures profile completeness.
func DataQualityScore(org *domain.OrganizationDetail) float64 {
	score := 0.0

	if org.MissionStatement != "" {
		score += 0.2
	}
	if n := len(org.FinancialHistory); n > 0 {
		score += 0.25 * capped(float64(n)/3)
	}
	if n := len(org.Programs); n > 0 {
		score += 0.15 * capped(float64(n)/5)
	}
	if org.Website != "" {
		score += 0.1
	}
	if n := len(org.SocialMedia); n > 0 {
		score += 0.1 * capped(float64(n)/3)
	}
	if n := len(org.Leadership); n > 0 {
		score += 0.1 * capped(float64(n)/5)
	}
	if org.Address != "" {
		score += 0.1
	}

	if score > 1 {
		score = 1
	}
	return score
}

func capped(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

// Explain renders a readable breakdown of an evaluation.
func (e *Engine) Explain(eval *Evaluation) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s - Rank #%d", eval.Detail.Name, eval.Scores.Rank))
	lines = append(lines, fmt.Sprintf("Overall Score: %.1f%%", eval.Scores.Overall*100))
	lines = append(lines, "")

	if eval.Mission != nil {
		lines = append(lines, "Mission Alignment", eval.Mission.Explanation, "")
	}

	if eval.ROI != nil {
		lines = append(lines, "Partnership ROI", eval.ROI.Explanation, "")
	}

	lines = append(lines, "Financial Stability")
	switch stability := eval.Scores.Stability; {
	case stability > 0.7:
		lines = append(lines, fmt.Sprintf("Strong financial stability (%.1f%%)", stability*100))
	case stability > 0.5:
		lines = append(lines, fmt.Sprintf("Moderate financial stability (%.1f%%)", stability*100))
	default:
		lines = append(lines, fmt.Sprintf("Limited financial data available (%.1f%%)", stability*100))
	}
	if latest := eval.Detail.LatestFinancials(); latest != nil {
		lines = append(lines, fmt.Sprintf("- Revenue: $%.0f", latest.TotalRevenue))
		lines = append(lines, fmt.Sprintf("- Program efficiency: %.1f%%", latest.ProgramExpenseRatio()*100))
	}
	lines = append(lines, "")

	lines = append(lines, "Organizational Capacity")
	switch capacity := eval.Scores.Capacity; {
	case capacity > 0.7:
		lines = append(lines, fmt.Sprintf("Strong organizational capacity (%.1f%%)", capacity*100))
	case capacity > 0.5:
		lines = append(lines, fmt.Sprintf("Moderate organizational capacity (%.1f%%)", capacity*100))
	default:
		lines = append(lines, fmt.Sprintf("Developing organizational capacity (%.1f%%)", capacity*100))
	}
	if n := len(eval.Detail.Programs); n > 0 {
		lines = append(lines, fmt.Sprintf("- %d active programs", n))
	}
	if len(eval.Detail.SocialMedia) > 0 {
		reach := 0
		for _, sm := range eval.Detail.SocialMedia {
			reach += sm.Followers
		}
		lines = append(lines, fmt.Sprintf("- Social media reach: %d followers", reach))
	}

	if eval.Scores.DataQuality < 0.5 {
		lines = append(lines, "", "Note: Limited data available may affect ranking accuracy")
	}

	return strings.Join(lines, "\n")
}
