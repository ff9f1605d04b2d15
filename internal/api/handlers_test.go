package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/service"
)

type fakeService struct {
	searchResp *domain.SearchResponse
	searchErr  error
	orgs       map[string]*domain.OrganizationDetail
	analysis   *service.Analysis
	ranking    *service.Ranking
	rankErr    error
	lastRank   domain.RankRequest
}

func (f *fakeService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	resp := f.searchResp
	if resp == nil {
		resp = &domain.SearchResponse{Query: req.Query, Results: []domain.OrganizationRecord{}}
	}
	return resp, nil
}

func (f *fakeService) Details(_ context.Context, ein string) *domain.OrganizationDetail {
	return f.orgs[ein]
}

func (f *fakeService) Analyze(_ context.Context, ein string) *service.Analysis {
	if f.orgs[ein] == nil {
		return nil
	}
	return f.analysis
}

func (f *fakeService) Rank(_ context.Context, req domain.RankRequest) (*service.Ranking, error) {
	f.lastRank = req
	if f.rankErr != nil {
		return nil, f.rankErr
	}
	return f.ranking, nil
}

func (f *fakeService) HealthCheck(_ context.Context) domain.HealthStatus {
	return domain.HealthStatus{Status: "healthy", Service: "partner-finder"}
}

func newTestRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware())
	SetupRoutes(router, NewHandler(svc, logger.NewNop()))
	return router
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	svc := &fakeService{
		searchResp: &domain.SearchResponse{
			Query:   "75201 food bank",
			Keyword: "food bank",
			Results: []domain.OrganizationRecord{{EIN: "1", Name: "Dallas Relief"}},
			Total:   1,
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/search?q=75201+food+bank", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp domain.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "food bank", resp.Keyword)
	assert.Equal(t, 1, resp.Total)
}

func TestSearchEndpointMissingQuery(t *testing.T) {
	router := newTestRouter(&fakeService{})

	w := doRequest(router, http.MethodGet, "/api/v1/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing query parameter")
}

func TestSearchEndpointValidationError(t *testing.T) {
	router := newTestRouter(&fakeService{searchErr: domain.ErrQueryTooLong})

	w := doRequest(router, http.MethodGet, "/api/v1/search?q=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpointUpstreamFailureStill200(t *testing.T) {
	svc := &fakeService{
		searchResp: &domain.SearchResponse{
			Query:   "food bank",
			Results: []domain.OrganizationRecord{},
			Error:   "nonprofit registry unavailable",
		},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/search?q=food+bank", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nonprofit registry unavailable")
}

func TestGetOrganization(t *testing.T) {
	svc := &fakeService{orgs: map[string]*domain.OrganizationDetail{
		"142007220": {OrganizationRecord: domain.OrganizationRecord{EIN: "142007220", Name: "Dallas Relief"}},
	}}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/organizations/142007220", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dallas Relief")

	w = doRequest(router, http.MethodGet, "/api/v1/organizations/999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeOrganization(t *testing.T) {
	svc := &fakeService{
		orgs: map[string]*domain.OrganizationDetail{
			"142007220": {OrganizationRecord: domain.OrganizationRecord{EIN: "142007220"}},
		},
		analysis: &service.Analysis{Explanation: "strong partnership candidate"},
	}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodGet, "/api/v1/organizations/142007220/analysis", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "strong partnership candidate")

	w = doRequest(router, http.MethodGet, "/api/v1/organizations/999/analysis", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRankEndpoint(t *testing.T) {
	svc := &fakeService{ranking: &service.Ranking{}}
	router := newTestRouter(svc)

	w := doRequest(router, http.MethodPost, "/api/v1/rank",
		`{"eins": ["1", "2"], "weights": {"mission": 0.8}}`)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, []string{"1", "2"}, svc.lastRank.EINs)
	assert.InDelta(t, 0.8, svc.lastRank.Weights["mission"], 1e-9)
}

func TestRankEndpointBadBody(t *testing.T) {
	router := newTestRouter(&fakeService{})

	w := doRequest(router, http.MethodPost, "/api/v1/rank", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRankEndpointValidationError(t *testing.T) {
	router := newTestRouter(&fakeService{rankErr: errors.New("eins must not be empty")})

	w := doRequest(router, http.MethodPost, "/api/v1/rank", `{"eins": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(&fakeService{})

	w := doRequest(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w = doRequest(router, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ready")
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(&fakeService{})

	w := doRequest(router, http.MethodGet, "/health", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
