package scoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/embedder"
	"github.com/jonesrussell/partner-finder/internal/logger"
)

// Keyword tier weights.
const (
	primaryKeywordWeight   = 1.0
	secondaryKeywordWeight = 0.7
	tertiaryKeywordWeight  = 0.4
)

// Semantic similarity rescaling bounds. Raw cosine similarities for short
// mission texts cluster in [0.2, 0.8].
const (
	semanticFloor = 0.2
	semanticRange = 0.6
)

// geographicPlaceholder stands in until coverage data is wired to the
// resolver. TODO: derive from the organization's state against active
// response regions.
const geographicPlaceholder = 0.7

// MissionAlignment is the outcome of analyzing one organization against the
// sponsor mission.
type MissionAlignment struct {
	Score           float64            `json:"score"`
	MatchedKeywords []string           `json:"matched_keywords,omitempty"`
	ServiceOverlap  map[string]float64 `json:"service_overlap,omitempty"`
	Explanation     string             `json:"explanation"`
	Confidence      float64            `json:"confidence"`
}

// MissionAnalyzer scores organizations against the configured mission.
// Semantic similarity uses the embedding service when available; otherwise
// scoring degrades to keyword matching alone.
type MissionAnalyzer struct {
	cfg *KeywordConfig
	emb embedder.TextEmbedder
	log logger.Logger

	mu          sync.Mutex
	keywordVecs [][]float64
	vecsFailed  bool
}

// NewMissionAnalyzer creates an analyzer. emb may be nil.
func NewMissionAnalyzer(cfg *KeywordConfig, emb embedder.TextEmbedder, log logger.Logger) *MissionAnalyzer {
	return &MissionAnalyzer{cfg: cfg, emb: emb, log: log}
}

// Analyze computes the mission alignment for an organization.
func (a *MissionAnalyzer) Analyze(ctx context.Context, org *domain.OrganizationDetail) *MissionAlignment {
	text := compileText(org)

	keywordScore, matched := a.keywordMatch(text)
	semanticScore, semanticOK := a.semanticSimilarity(ctx, text)
	if !semanticOK {
		// Keyword-only fallback when embeddings are unavailable.
		semanticScore = keywordScore
	}

	overlap := a.serviceOverlap(text)

	w := a.cfg.ScoringWeights
	score := w.MissionAlignment*semanticScore +
		w.ServiceOverlap*meanValues(overlap) +
		w.GeographicCoverage*geographicPlaceholder +
		w.OrganizationalCapacity*missionCapacityScore(org) +
		w.PartnershipHistory*StabilityScore(org)

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}

	return &MissionAlignment{
		Score:           score,
		MatchedKeywords: matched,
		ServiceOverlap:  overlap,
		Explanation:     a.explainAlignment(org, score, semanticScore, overlap, matched),
		Confidence:      confidence(org),
	}
}

// compileText gathers all descriptive text about an organization.
func compileText(org *domain.OrganizationDetail) string {
	parts := []string{org.MissionStatement, strings.Join(org.Programs, " "), org.Name}
	for _, l := range org.Leadership {
		parts = append(parts, l.Title)
	}

	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// keywordMatch scores tiered keyword hits, normalized so that matching every
// primary keyword yields 1.0.
func (a *MissionAnalyzer) keywordMatch(text string) (float64, []string) {
	lower := strings.ToLower(text)
	var matched []string
	var score float64

	check := func(keywords []string, weight float64) {
		for _, kw := range keywords {
			if strings.Contains(lower, strings.ToLower(kw)) {
				matched = append(matched, kw)
				score += weight
			}
		}
	}

	check(a.cfg.MissionKeywords.Primary, primaryKeywordWeight)
	check(a.cfg.MissionKeywords.Secondary, secondaryKeywordWeight)
	check(a.cfg.MissionKeywords.Tertiary, tertiaryKeywordWeight)

	maxPossible := float64(len(a.cfg.MissionKeywords.Primary)) * primaryKeywordWeight
	if maxPossible == 0 {
		return 0, matched
	}

	normalized := score / maxPossible
	if normalized > 1 {
		normalized = 1
	}
	return normalized, matched
}

// semanticSimilarity embeds the organization text and averages its top five
// cosine similarities against the mission keyword embeddings, rescaled to
// [0, 1]. The second return is false when embeddings are unavailable.
func (a *MissionAnalyzer) semanticSimilarity(ctx context.Context, text string) (float64, bool) {
	if a.emb == nil || text == "" {
		return 0, false
	}

	keywordVecs := a.keywordEmbeddings(ctx)
	if keywordVecs == nil {
		return 0, false
	}

	textVec, err := a.emb.Embed(ctx, text)
	if err != nil {
		a.log.Debug("text embedding failed", logger.Error(err))
		return 0, false
	}

	sims := make([]float64, 0, len(keywordVecs))
	for _, kv := range keywordVecs {
		sims = append(sims, embedder.Cosine(textVec, kv))
	}
	sort.Float64s(sims)

	top := sims
	if len(top) > 5 {
		top = top[len(top)-5:]
	}
	var sum float64
	for _, s := range top {
		sum += s
	}
	avg := sum / float64(len(top))

	scaled := (avg - semanticFloor) / semanticRange
	if scaled < 0 {
		scaled = 0
	}
	if scaled > 1 {
		scaled = 1
	}
	return scaled, true
}

// keywordEmbeddings lazily embeds all mission keywords. A failed build is
// remembered so every request does not re-hit a down service.
func (a *MissionAnalyzer) keywordEmbeddings(ctx context.Context) [][]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.keywordVecs != nil || a.vecsFailed {
		return a.keywordVecs
	}

	all := make([]string, 0,
		len(a.cfg.MissionKeywords.Primary)+
			len(a.cfg.MissionKeywords.Secondary)+
			len(a.cfg.MissionKeywords.Tertiary))
	all = append(all, a.cfg.MissionKeywords.Primary...)
	all = append(all, a.cfg.MissionKeywords.Secondary...)
	all = append(all, a.cfg.MissionKeywords.Tertiary...)

	vecs := make([][]float64, 0, len(all))
	for _, kw := range all {
		vec, err := a.emb.Embed(ctx, kw)
		if err != nil {
			a.log.Warn("keyword embedding failed, using keyword-only scoring", logger.Error(err))
			a.vecsFailed = true
			return nil
		}
		vecs = append(vecs, vec)
	}

	a.keywordVecs = vecs
	return a.keywordVecs
}

// serviceOverlap scores subcategory mentions per service category, weighted
// by the category weight.
func (a *MissionAnalyzer) serviceOverlap(text string) map[string]float64 {
	lower := strings.ToLower(text)
	overlap := make(map[string]float64, len(a.cfg.ServiceCategories))

	for name, cat := range a.cfg.ServiceCategories {
		if len(cat.Subcategories) == 0 {
			overlap[name] = 0
			continue
		}

		matches := 0
		for _, sub := range cat.Subcategories {
			phrase := strings.ToLower(strings.ReplaceAll(sub, "_", " "))
			if strings.Contains(lower, phrase) {
				matches++
			}
		}
		overlap[name] = float64(matches) / float64(len(cat.Subcategories)) * cat.Weight
	}

	return overlap
}

// missionCapacityScore is the capacity sub-score used inside the mission
// analysis. It is looser than the ranking engine's capacity score.
func missionCapacityScore(org *domain.OrganizationDetail) float64 {
	score := 0.5

	if latest := org.LatestFinancials(); latest != nil {
		switch {
		case latest.TotalRevenue > 1000000:
			score += 0.2
		case latest.TotalRevenue > 100000:
			score += 0.1
		}

		switch ratio := latest.ProgramExpenseRatio(); {
		case ratio > 0.75:
			score += 0.2
		case ratio > 0.65:
			score += 0.1
		}
	}

	if len(org.SocialMedia) > 0 {
		active := 0
		for _, sm := range org.SocialMedia {
			if sm.Followers > 100 {
				active++
			}
		}
		bonus := float64(active) * 0.02
		if bonus > 0.1 {
			bonus = 0.1
		}
		score += bonus
	}

	if score > 1 {
		score = 1
	}
	return score
}

// confidence reflects how complete the underlying data is.
func confidence(org *domain.OrganizationDetail) float64 {
	c := 0.0
	if org.MissionStatement != "" {
		c += 0.3
	}
	if len(org.Programs) > 0 {
		c += 0.2
	}
	if len(org.FinancialHistory) > 0 {
		c += 0.2
	}
	if org.Website != "" {
		c += 0.1
	}
	if len(org.SocialMedia) > 0 {
		c += 0.1
	}
	if len(org.Leadership) > 0 {
		c += 0.1
	}
	if c > 1 {
		c = 1
	}
	return c
}

func meanValues(m map[string]float64) float64 {
	if len(m) == 0 {
		return 0
	}
	var sum float64
	for _, v := range m {
		sum += v
	}
	return sum / float64(len(m))
}

func (a *MissionAnalyzer) explainAlignment(org *domain.OrganizationDetail, score, semantic float64, overlap map[string]float64, matched []string) string {
	var parts []string

	switch {
	case score > 0.8:
		parts = append(parts, fmt.Sprintf("Strong mission alignment (%.1f%%)", score*100))
	case score > 0.6:
		parts = append(parts, fmt.Sprintf("Good mission alignment (%.1f%%)", score*100))
	case score > 0.4:
		parts = append(parts, fmt.Sprintf("Moderate mission alignment (%.1f%%)", score*100))
	default:
		parts = append(parts, fmt.Sprintf("Limited mission alignment (%.1f%%)", score*100))
	}

	if len(matched) > 0 {
		show := matched
		if len(show) > 5 {
			show = show[:5]
		}
		parts = append(parts, "Matched keywords: "+strings.Join(show, ", "))
	}

	if top := topOverlap(overlap, 3); len(top) > 0 {
		parts = append(parts, "Service overlap in: "+strings.Join(top, ", "))
	}

	if semantic > 0.7 {
		parts = append(parts, "Mission statement shows strong thematic alignment")
	} else if semantic > 0.5 {
		parts = append(parts, "Mission statement shows moderate thematic alignment")
	}

	if latest := org.LatestFinancials(); latest != nil {
		if ratio := latest.ProgramExpenseRatio(); ratio > 0.75 {
			parts = append(parts, fmt.Sprintf("Efficient operations (%.0f%% to programs)", ratio*100))
		}
	}

	return strings.Join(parts, ". ")
}

// topOverlap returns the n highest non-zero overlap categories, formatted
// for display, in descending order.
func topOverlap(overlap map[string]float64, n int) []string {
	type kv struct {
		name  string
		score float64
	}
	sorted := make([]kv, 0, len(overlap))
	for name, score := range overlap {
		if score > 0 {
			sorted = append(sorted, kv{name, score})
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].score != sorted[j].score {
			return sorted[i].score > sorted[j].score
		}
		return sorted[i].name < sorted[j].name
	})

	if len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]string, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, fmt.Sprintf("%s (%.0f%%)", strings.ReplaceAll(e.name, "_", " "), e.score*100))
	}
	return out
}
