// Package service composes the registry, geo-tiering, cache, scoring, and
// enrichment layers behind the HTTP handlers.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/partner-finder/internal/cache"
	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/geo"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/scoring"
	"github.com/jonesrussell/partner-finder/internal/telemetry"
)

// Registry is the slice of the registry client the service needs.
type Registry interface {
	Search(ctx context.Context, keyword, state string) []domain.OrganizationRecord
	GetOrganization(ctx context.Context, ein string) *domain.OrganizationDetail
}

// LocationResolver resolves ZIP codes to locations.
type LocationResolver interface {
	Resolve(ctx context.Context, zip string) *domain.Location
}

// Ranker scores and orders organizations.
type Ranker interface {
	Evaluate(ctx context.Context, org *domain.OrganizationDetail) *scoring.Evaluation
	Rank(ctx context.Context, orgs []*domain.OrganizationDetail, criteria *scoring.Criteria) []*scoring.Evaluation
	Explain(eval *scoring.Evaluation) string
}

// Enricher fills in organization profiles from their websites.
type Enricher interface {
	Enrich(ctx context.Context, org *domain.OrganizationDetail)
}

// Config holds service behavior knobs.
type Config struct {
	Caps          geo.Caps
	CacheTTL      time.Duration
	EnrichEnabled bool
	EnrichTimeout time.Duration
}

// Deps are the collaborators the service is built from. Resolver, Store,
// and Enricher may be nil; the corresponding behavior is skipped.
type Deps struct {
	Resolver LocationResolver
	Registry Registry
	Store    cache.Store
	Ranker   Ranker
	Enricher Enricher
	Metrics  *telemetry.Metrics
	Log      logger.Logger
}

// SearchService implements tiered nonprofit search and partnership analysis.
type SearchService struct {
	cfg     Config
	deps    Deps
	enrichW sync.WaitGroup
}

// New creates the search service.
func New(cfg Config, deps Deps) *SearchService {
	if cfg.EnrichTimeout == 0 {
		cfg.EnrichTimeout = 30 * time.Second
	}
	return &SearchService{cfg: cfg, deps: deps}
}

// Analysis is a scored organization with a readable explanation.
type Analysis struct {
	Evaluation  *scoring.Evaluation `json:"evaluation"`
	Explanation string              `json:"explanation"`
}

// Ranking is the result of a comparative ranking request.
type Ranking struct {
	Evaluations []*scoring.Evaluation `json:"evaluations"`
	Criteria    scoring.Criteria      `json:"criteria"`
}

// Search runs a geo-tiered nonprofit search. A leading 5-digit token in the
// query is treated as a ZIP code; without one (or when the ZIP cannot be
// resolved) the search degrades to a plain keyword search. Upstream failures
// produce an empty result set with the error field set, never a hard error.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		s.deps.Metrics.SearchesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	zip, keyword := geo.SplitQuery(req.Query)

	var loc *domain.Location
	if zip != "" && s.deps.Resolver != nil {
		loc = s.deps.Resolver.Resolve(ctx, zip)
	}

	resp := &domain.SearchResponse{
		Query:    req.Query,
		Keyword:  keyword,
		Location: loc,
	}

	// A resolved location scopes the registry query to its state.
	state := ""
	if loc != nil {
		state = loc.State
	}

	records, upstreamOK := s.searchRegistry(ctx, keyword, state)
	if !upstreamOK {
		resp.Results = []domain.OrganizationRecord{}
		resp.Error = "nonprofit registry unavailable"
		resp.Message = fmt.Sprintf("No '%s' organizations found", keyword)
		s.deps.Metrics.SearchesTotal.WithLabelValues("upstream_error").Inc()
		telemetry.ObserveDuration(s.deps.Metrics.SearchDuration, start)
		return resp, nil
	}

	if loc != nil {
		s.deps.Metrics.TieredSearches.Inc()
		tiers := geo.Partition(records, loc, geo.CountyCities(loc.County, loc.State))
		resp.Tiers = tiers.Counts()
		resp.Results = tiers.Combine(s.cfg.Caps)
		resp.Message = tieredMessage(resp.Tiers, keyword, loc)
	} else {
		s.deps.Metrics.KeywordSearches.Inc()
		tiers := geo.Partition(records, nil, nil)
		resp.Tiers = tiers.Counts()
		resp.Results = tiers.Other
		resp.Message = fmt.Sprintf("Found %d '%s' organizations", len(resp.Results), keyword)
	}

	if resp.Results == nil {
		resp.Results = []domain.OrganizationRecord{}
	}
	resp.Total = len(resp.Results)

	s.deps.Metrics.SearchesTotal.WithLabelValues("ok").Inc()
	s.deps.Metrics.SearchResults.Observe(float64(resp.Total))
	telemetry.ObserveDuration(s.deps.Metrics.SearchDuration, start)

	s.deps.Log.Info("search served",
		logger.String("keyword", keyword),
		logger.String("zip", zip),
		logger.Bool("tiered", loc != nil),
		logger.Int("results", resp.Total))
	return resp, nil
}

// searchRegistry runs a keyword search through the read-through cache. The
// second return is false when the registry itself failed.
func (s *SearchService) searchRegistry(ctx context.Context, keyword, state string) ([]domain.OrganizationRecord, bool) {
	cacheKey := "search:" + keyword
	if state != "" {
		cacheKey += ":" + state
	}

	if s.deps.Store != nil {
		if cached, ok := s.deps.Store.Get(ctx, cacheKey); ok {
			var records []domain.OrganizationRecord
			if err := json.Unmarshal([]byte(cached), &records); err == nil {
				s.deps.Metrics.CacheHits.WithLabelValues("search").Inc()
				return records, true
			}
		}
		s.deps.Metrics.CacheMisses.WithLabelValues("search").Inc()
	}

	start := time.Now()
	records := s.deps.Registry.Search(ctx, keyword, state)
	telemetry.ObserveDuration(s.deps.Metrics.RegistryDuration, start)

	if records == nil {
		s.deps.Metrics.RegistryCalls.WithLabelValues("error").Inc()
		return nil, false
	}
	s.deps.Metrics.RegistryCalls.WithLabelValues("ok").Inc()

	if s.deps.Store != nil {
		if data, err := json.Marshal(records); err == nil {
			s.deps.Store.Set(ctx, cacheKey, string(data), s.cfg.CacheTTL)
		}
	}
	return records, true
}

// tieredMessage summarizes where the results came from, preferring the most
// local tier that produced anything.
func tieredMessage(counts domain.TierCounts, keyword string, loc *domain.Location) string {
	switch {
	case counts.ExactCity > 0:
		return fmt.Sprintf("Found %d '%s' organizations in %s", counts.ExactCity, keyword, loc.City)
	case counts.County > 0 && loc.County != "":
		return fmt.Sprintf("Found %d '%s' organizations in %s", counts.County, keyword, loc.County)
	case counts.County > 0:
		return fmt.Sprintf("Found %d '%s' organizations nearby", counts.County, keyword)
	case counts.State > 0:
		return fmt.Sprintf("Found %d '%s' organizations in %s", counts.State, keyword, loc.State)
	default:
		return fmt.Sprintf("No local '%s' organizations found", keyword)
	}
}

// Details fetches the full organization profile. When enrichment is enabled
// and the organization has a website, profile scraping runs in a detached
// goroutine so it never delays the response; a later request sees the
// enriched cache-free profile only by refetching.
func (s *SearchService) Details(ctx context.Context, ein string) *domain.OrganizationDetail {
	org := s.deps.Registry.GetOrganization(ctx, ein)
	if org == nil {
		return nil
	}

	if s.cfg.EnrichEnabled && s.deps.Enricher != nil && org.Website != "" {
		s.enrichW.Add(1)
		s.deps.Metrics.EnrichmentRunning.Inc()
		go func() {
			defer s.enrichW.Done()
			defer s.deps.Metrics.EnrichmentRunning.Dec()

			enrichCtx, cancel := context.WithTimeout(context.Background(), s.cfg.EnrichTimeout)
			defer cancel()

			s.deps.Enricher.Enrich(enrichCtx, org)
			s.deps.Metrics.EnrichmentsTotal.WithLabelValues("ok").Inc()
		}()
	} else {
		s.deps.Metrics.EnrichmentsTotal.WithLabelValues("skipped").Inc()
	}

	return org
}

// Analyze scores a single organization and explains the result. Enrichment
// runs synchronously here so the scores see the scraped profile.
func (s *SearchService) Analyze(ctx context.Context, ein string) *Analysis {
	org := s.deps.Registry.GetOrganization(ctx, ein)
	if org == nil {
		return nil
	}

	if s.cfg.EnrichEnabled && s.deps.Enricher != nil && org.Website != "" {
		enrichCtx, cancel := context.WithTimeout(ctx, s.cfg.EnrichTimeout)
		s.deps.Enricher.Enrich(enrichCtx, org)
		cancel()
	}

	start := time.Now()
	eval := s.deps.Ranker.Evaluate(ctx, org)
	telemetry.ObserveDuration(s.deps.Metrics.ScoringDuration, start)

	return &Analysis{
		Evaluation:  eval,
		Explanation: s.deps.Ranker.Explain(eval),
	}
}

// Rank fetches each requested organization and returns them ordered by
// overall partnership score. Unknown EINs stay in the list with zero scores
// so callers see every EIN they asked about.
func (s *SearchService) Rank(ctx context.Context, req domain.RankRequest) (*Ranking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	orgs := make([]*domain.OrganizationDetail, 0, len(req.EINs))
	for _, ein := range req.EINs {
		orgs = append(orgs, s.deps.Registry.GetOrganization(ctx, ein))
	}

	criteria := criteriaFromWeights(req.Weights)

	start := time.Now()
	evals := s.deps.Ranker.Rank(ctx, orgs, criteria)
	telemetry.ObserveDuration(s.deps.Metrics.ScoringDuration, start)
	s.deps.Metrics.RankingsTotal.Inc()

	used := scoring.DefaultCriteria()
	if criteria != nil {
		used = *criteria
	}
	return &Ranking{Evaluations: evals, Criteria: used}, nil
}

// criteriaFromWeights builds ranking criteria from request weight overrides.
// Missing keys keep their default weight; nil means no overrides at all.
func criteriaFromWeights(weights map[string]float64) *scoring.Criteria {
	if len(weights) == 0 {
		return nil
	}

	criteria := scoring.DefaultCriteria()
	for key, value := range weights {
		switch key {
		case "mission":
			criteria.MissionWeight = value
		case "roi":
			criteria.ROIWeight = value
		case "stability":
			criteria.StabilityWeight = value
		case "capacity":
			criteria.CapacityWeight = value
		case "data_quality":
			criteria.DataQualityWeight = value
		}
	}
	return &criteria
}

// HealthCheck reports service liveness.
func (s *SearchService) HealthCheck(ctx context.Context) domain.HealthStatus {
	return domain.HealthStatus{
		Status:  "healthy",
		Service: "partner-finder",
	}
}

// WaitForEnrichment blocks until background enrichment goroutines finish.
// Used by graceful shutdown and tests.
func (s *SearchService) WaitForEnrichment() {
	s.enrichW.Wait()
}
