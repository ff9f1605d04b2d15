// Package api exposes the partner-finder HTTP surface.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/partner-finder/internal/domain"
	"github.com/jonesrussell/partner-finder/internal/logger"
	"github.com/jonesrussell/partner-finder/internal/service"
)

// Service is the application surface the handlers need.
type Service interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
	Details(ctx context.Context, ein string) *domain.OrganizationDetail
	Analyze(ctx context.Context, ein string) *service.Analysis
	Rank(ctx context.Context, req domain.RankRequest) (*service.Ranking, error)
	HealthCheck(ctx context.Context) domain.HealthStatus
}

// Handler holds the HTTP handlers.
type Handler struct {
	svc Service
	log logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc Service, log logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Search handles GET /api/v1/search?q=<query>. Upstream failures still
// return 200; the response carries an error field instead.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter 'q'"})
		return
	}

	resp, err := h.svc.Search(c.Request.Context(), domain.SearchRequest{Query: query})
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, domain.ErrEmptyQuery) && !errors.Is(err, domain.ErrQueryTooLong) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetOrganization handles GET /api/v1/organizations/:ein.
func (h *Handler) GetOrganization(c *gin.Context) {
	ein := c.Param("ein")

	org := h.svc.Details(c.Request.Context(), ein)
	if org == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		return
	}

	c.JSON(http.StatusOK, org)
}

// AnalyzeOrganization handles GET /api/v1/organizations/:ein/analysis.
func (h *Handler) AnalyzeOrganization(c *gin.Context) {
	ein := c.Param("ein")

	analysis := h.svc.Analyze(c.Request.Context(), ein)
	if analysis == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "organization not found"})
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// Rank handles POST /api/v1/rank.
func (h *Handler) Rank(c *gin.Context) {
	var req domain.RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ranking, err := h.svc.Rank(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ranking)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.HealthCheck(c.Request.Context()))
}

// ReadinessCheck handles GET /ready.
func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
