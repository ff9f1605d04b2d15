package service

import (
	"context"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partner-finder/internal/cache"
	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/geo"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/scoring"
	"github.com/jonesrussell/partner-finder/internal/telemetry"
)

type fakeRegistry struct {
	records     []domain.OrganizationRecord
	orgs        map[string]*domain.OrganizationDetail
	fail        bool
	searchCalls int32
	lastState   string
}

func (f *fakeRegistry) Search(_ context.Context, _, state string) []domain.OrganizationRecord {
	atomic.AddInt32(&f.searchCalls, 1)
	f.lastState = state
	if f.fail {
		return nil
	}
	if f.records == nil {
		return []domain.OrganizationRecord{}
	}
	return f.records
}

func (f *fakeRegistry) GetOrganization(_ context.Context, ein string) *domain.OrganizationDetail {
	return f.orgs[ein]
}

type fakeRanker struct {
	scores       map[string]float64
	lastCriteria *scoring.Criteria
}

func (f *fakeRanker) Evaluate(_ context.Context, org *domain.OrganizationDetail) *scoring.Evaluation {
	return &scoring.Evaluation{
		Detail: org,
		Scores: domain.ScoreBundle{Overall: f.scores[org.EIN]},
	}
}

func (f *fakeRanker) Rank(_ context.Context, orgs []*domain.OrganizationDetail, criteria *scoring.Criteria) []*scoring.Evaluation {
	f.lastCriteria = criteria

	evals := make([]*scoring.Evaluation, 0, len(orgs))
	for _, org := range orgs {
		eval := &scoring.Evaluation{Detail: org}
		if org != nil {
			eval.Scores.Overall = f.scores[org.EIN]
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

func (f *fakeRanker) Explain(eval *scoring.Evaluation) string {
	return "explanation for " + eval.Detail.Name
}

type fakeEnricher struct {
	enriched int32
}

func (f *fakeEnricher) Enrich(_ context.Context, org *domain.OrganizationDetail) {
	atomic.AddInt32(&f.enriched, 1)
	org.MissionStatement = "scraped mission"
}

func texasRecords() []domain.OrganizationRecord {
	return []domain.OrganizationRecord{
		{EIN: "1", Name: "Dallas Relief", City: "Dallas", State: "TX", Score: 10},
		{EIN: "2", Name: "Irving Pantry", City: "Irving", State: "TX", Score: 9},
		{EIN: "3", Name: "Austin Aid", City: "Austin", State: "TX", Score: 8},
		{EIN: "4", Name: "Brooklyn Bridge Fund", City: "Brooklyn", State: "NY", Score: 7},
	}
}

func newTestService(t *testing.T, reg *fakeRegistry, opts ...func(*Config, *Deps)) *SearchService {
	t.Helper()

	cfg := Config{Caps: geo.DefaultCaps(), CacheTTL: time.Minute}
	deps := Deps{
		Resolver: geo.NewResolver(nil, nil, 0, nil, logger.NewNop()),
		Registry: reg,
		Ranker:   &fakeRanker{},
		Metrics:  telemetry.NewMetricsWith(prometheus.NewRegistry()),
		Log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}
	return New(cfg, deps)
}

func TestSearchTiered(t *testing.T) {
	reg := &fakeRegistry{records: texasRecords()}
	svc := newTestService(t, reg)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "75201 food bank"})
	require.NoError(t, err)

	require.NotNil(t, resp.Location)
	assert.Equal(t, "Dallas", resp.Location.City)
	assert.Equal(t, "food bank", resp.Keyword)

	assert.Equal(t, 1, resp.Tiers.ExactCity)
	assert.Equal(t, 1, resp.Tiers.County) // Irving shares Dallas County
	assert.Equal(t, 1, resp.Tiers.State)
	assert.Equal(t, 1, resp.Tiers.Other)

	// City first, then county, then state backfill. Brooklyn never appears.
	require.Len(t, resp.Results, 3)
	assert.Equal(t, "Dallas Relief", resp.Results[0].Name)
	assert.Equal(t, "Irving Pantry", resp.Results[1].Name)
	assert.Equal(t, "Austin Aid", resp.Results[2].Name)

	assert.Equal(t, "Found 1 'food bank' organizations in Dallas", resp.Message)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "TX", reg.lastState, "registry query is scoped to the resolved state")
}

func TestSearchStateScoping(t *testing.T) {
	reg := &fakeRegistry{records: texasRecords()}
	svc := newTestService(t, reg, func(_ *Config, deps *Deps) {
		deps.Store = cache.NewMemory(nil)
	})

	_, err := svc.Search(context.Background(), domain.SearchRequest{Query: "75201 food bank"})
	require.NoError(t, err)
	assert.Equal(t, "TX", reg.lastState)

	// A keyword-only search is unscoped and must not reuse the TX-scoped
	// cache entry.
	_, err = svc.Search(context.Background(), domain.SearchRequest{Query: "food bank"})
	require.NoError(t, err)
	assert.Equal(t, "", reg.lastState)
	assert.EqualValues(t, 2, atomic.LoadInt32(&reg.searchCalls))

	// Repeating the scoped search hits the cache.
	_, err = svc.Search(context.Background(), domain.SearchRequest{Query: "75201 food bank"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&reg.searchCalls))
}

func TestSearchKeywordOnly(t *testing.T) {
	reg := &fakeRegistry{records: texasRecords()}
	svc := newTestService(t, reg)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "food bank"})
	require.NoError(t, err)

	assert.Nil(t, resp.Location)
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, 4, resp.Tiers.Other)
	assert.Equal(t, "Dallas Relief", resp.Results[0].Name, "sorted by relevance score")
	assert.Equal(t, "Found 4 'food bank' organizations", resp.Message)
}

func TestSearchUnresolvableZip(t *testing.T) {
	reg := &fakeRegistry{records: texasRecords()}
	svc := newTestService(t, reg)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "00000 food bank"})
	require.NoError(t, err)

	assert.Nil(t, resp.Location)
	assert.Equal(t, 4, resp.Total, "unknown ZIP degrades to keyword search")
}

func TestSearchUpstreamFailure(t *testing.T) {
	reg := &fakeRegistry{fail: true}
	svc := newTestService(t, reg)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "75201"})
	require.NoError(t, err, "upstream failures are never fatal")

	assert.Empty(t, resp.Results)
	assert.Equal(t, "nonprofit registry unavailable", resp.Error)
	assert.NotEmpty(t, resp.Message)
}

func TestSearchInvalidQuery(t *testing.T) {
	svc := newTestService(t, &fakeRegistry{})

	_, err := svc.Search(context.Background(), domain.SearchRequest{Query: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestSearchReadsThroughCache(t *testing.T) {
	reg := &fakeRegistry{records: texasRecords()}
	svc := newTestService(t, reg, func(_ *Config, deps *Deps) {
		deps.Store = cache.NewMemory(nil)
	})

	for i := 0; i < 3; i++ {
		resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "food bank"})
		require.NoError(t, err)
		assert.Equal(t, 4, resp.Total)
	}

	assert.EqualValues(t, 1, atomic.LoadInt32(&reg.searchCalls))
}

func TestDetails(t *testing.T) {
	org := &domain.OrganizationDetail{
		OrganizationRecord: domain.OrganizationRecord{EIN: "11", Name: "Dallas Relief"},
	}
	reg := &fakeRegistry{orgs: map[string]*domain.OrganizationDetail{"11": org}}
	svc := newTestService(t, reg)

	assert.Equal(t, org, svc.Details(context.Background(), "11"))
	assert.Nil(t, svc.Details(context.Background(), "99"))
}

func TestDetailsBackgroundEnrichment(t *testing.T) {
	org := &domain.OrganizationDetail{
		OrganizationRecord: domain.OrganizationRecord{EIN: "11", Name: "Dallas Relief"},
		Website:            "https://dallasrelief.org",
	}
	reg := &fakeRegistry{orgs: map[string]*domain.OrganizationDetail{"11": org}}
	enricher := &fakeEnricher{}
	svc := newTestService(t, reg, func(cfg *Config, deps *Deps) {
		cfg.EnrichEnabled = true
		deps.Enricher = enricher
	})

	got := svc.Details(context.Background(), "11")
	require.NotNil(t, got)
	svc.WaitForEnrichment()

	assert.EqualValues(t, 1, atomic.LoadInt32(&enricher.enriched))
	assert.Equal(t, "scraped mission", got.MissionStatement)
}

func TestDetailsNoEnrichmentWithoutWebsite(t *testing.T) {
	org := &domain.OrganizationDetail{
		OrganizationRecord: domain.OrganizationRecord{EIN: "11", Name: "Dallas Relief"},
	}
	reg := &fakeRegistry{orgs: map[string]*domain.OrganizationDetail{"11": org}}
	enricher := &fakeEnricher{}
	svc := newTestService(t, reg, func(cfg *Config, deps *Deps) {
		cfg.EnrichEnabled = true
		deps.Enricher = enricher
	})

	svc.Details(context.Background(), "11")
	svc.WaitForEnrichment()

	assert.Zero(t, atomic.LoadInt32(&enricher.enriched))
}

func TestAnalyze(t *testing.T) {
	org := &domain.OrganizationDetail{
		OrganizationRecord: domain.OrganizationRecord{EIN: "11", Name: "Dallas Relief"},
	}
	reg := &fakeRegistry{orgs: map[string]*domain.OrganizationDetail{"11": org}}
	svc := newTestService(t, reg, func(_ *Config, deps *Deps) {
		deps.Ranker = &fakeRanker{scores: map[string]float64{"11": 0.72}}
	})

	analysis := svc.Analyze(context.Background(), "11")
	require.NotNil(t, analysis)
	assert.InDelta(t, 0.72, analysis.Evaluation.Scores.Overall, 1e-9)
	assert.Equal(t, "explanation for Dallas Relief", analysis.Explanation)

	assert.Nil(t, svc.Analyze(context.Background(), "99"))
}

func TestRank(t *testing.T) {
	orgs := map[string]*domain.OrganizationDetail{
		"1": {OrganizationRecord: domain.OrganizationRecord{EIN: "1", Name: "A"}},
		"2": {OrganizationRecord: domain.OrganizationRecord{EIN: "2", Name: "B"}},
	}
	ranker := &fakeRanker{scores: map[string]float64{"1": 0.4, "2": 0.9}}
	svc := newTestService(t, &fakeRegistry{orgs: orgs}, func(_ *Config, deps *Deps) {
		deps.Ranker = ranker
	})

	ranking, err := svc.Rank(context.Background(), domain.RankRequest{EINs: []string{"1", "2"}})
	require.NoError(t, err)

	require.Len(t, ranking.Evaluations, 2)
	assert.Equal(t, "B", ranking.Evaluations[0].Detail.Name)
	assert.Equal(t, 1, ranking.Evaluations[0].Scores.Rank)
	assert.Nil(t, ranker.lastCriteria, "no overrides means engine defaults")
	assert.Equal(t, scoring.DefaultCriteria(), ranking.Criteria)
}

func TestRankWithWeightOverrides(t *testing.T) {
	orgs := map[string]*domain.OrganizationDetail{
		"1": {OrganizationRecord: domain.OrganizationRecord{EIN: "1", Name: "A"}},
	}
	ranker := &fakeRanker{scores: map[string]float64{"1": 0.4}}
	svc := newTestService(t, &fakeRegistry{orgs: orgs}, func(_ *Config, deps *Deps) {
		deps.Ranker = ranker
	})

	ranking, err := svc.Rank(context.Background(), domain.RankRequest{
		EINs:    []string{"1"},
		Weights: map[string]float64{"mission": 0.8, "roi": 0.2},
	})
	require.NoError(t, err)

	require.NotNil(t, ranker.lastCriteria)
	assert.InDelta(t, 0.8, ranker.lastCriteria.MissionWeight, 1e-9)
	assert.InDelta(t, 0.2, ranker.lastCriteria.ROIWeight, 1e-9)
	assert.InDelta(t, 0.8, ranking.Criteria.MissionWeight, 1e-9)
}

func TestRankValidates(t *testing.T) {
	svc := newTestService(t, &fakeRegistry{})

	_, err := svc.Rank(context.Background(), domain.RankRequest{})
	assert.Error(t, err)
}

func TestRankKeepsUnknownEINs(t *testing.T) {
	orgs := map[string]*domain.OrganizationDetail{
		"1": {OrganizationRecord: domain.OrganizationRecord{EIN: "1", Name: "A"}},
	}
	ranker := &fakeRanker{scores: map[string]float64{"1": 0.4}}
	svc := newTestService(t, &fakeRegistry{orgs: orgs}, func(_ *Config, deps *Deps) {
		deps.Ranker = ranker
	})

	ranking, err := svc.Rank(context.Background(), domain.RankRequest{EINs: []string{"1", "404"}})
	require.NoError(t, err)

	require.Len(t, ranking.Evaluations, 2)
	assert.Nil(t, ranking.Evaluations[1].Detail)
	assert.Zero(t, ranking.Evaluations[1].Scores.Overall)
}

func TestCriteriaFromWeights(t *testing.T) {
	assert.Nil(t, criteriaFromWeights(nil))
	assert.Nil(t, criteriaFromWeights(map[string]float64{}))

	criteria := criteriaFromWeights(map[string]float64{"mission": 1.0, "bogus": 0.3})
	require.NotNil(t, criteria)
	assert.InDelta(t, 1.0, criteria.MissionWeight, 1e-9)
	// Unknown keys are ignored; everything else keeps its default.
	assert.InDelta(t, scoring.DefaultCriteria().ROIWeight, criteria.ROIWeight, 1e-9)
}

func TestHealthCheck(t *testing.T) {
	svc := newTestService(t, &fakeRegistry{})

	status := svc.HealthCheck(context.Background())
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "partner-finder", status.Service)
}
