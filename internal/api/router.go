package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/LJTian/NewsDesk/internal/aggregator"
	"github.com/LJTian/NewsDesk/internal/desk"
	"github.com/LJTian/NewsDesk/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewsDesk 路由层依赖的门面能力，*desk.Desk 满足
type NewsDesk interface {
	Fetch(ctx context.Context, name string) ([]model.Article, error)
	FetchAll(ctx context.Context) []aggregator.Outcome
	ForceRefreshAll(ctx context.Context) []aggregator.Outcome
	ClearCache(ctx context.Context) error
	IsStale(ctx context.Context) bool
	LastUpdate(ctx context.Context) (time.Time, error)
}

type Server struct {
	desk     NewsDesk
	gatherer prometheus.Gatherer
}

// NewServer gatherer 为 nil 时不挂 /metrics
func NewServer(d NewsDesk, gatherer prometheus.Gatherer) *Server {
	return &Server{desk: d, gatherer: gatherer}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/categories", s.listCategories)
		v1.GET("/news", s.listAllNews)
		v1.GET("/news/:category", s.listNews)
		v1.POST("/refresh", s.refresh)
		v1.DELETE("/cache", s.clearCache)
		v1.GET("/cache/status", s.cacheStatus)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func internalError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

func (s *Server) listCategories(c *gin.Context) {
	respondOK(c, model.Categories())
}

func (s *Server) listAllNews(c *gin.Context) {
	respondOK(c, s.desk.FetchAll(c.Request.Context()))
}

func (s *Server) listNews(c *gin.Context) {
	items, err := s.desk.Fetch(c.Request.Context(), c.Param("category"))
	if errors.Is(err, desk.ErrUnknownCategory) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": err.Error(),
		})
		return
	}
	if err != nil {
		internalError(c)
		return
	}

	// limit 只做截断，排序已经在聚合时完成
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit < len(items) {
			items = items[:limit]
		}
	}

	respondOK(c, items)
}

func (s *Server) refresh(c *gin.Context) {
	respondOK(c, s.desk.ForceRefreshAll(c.Request.Context()))
}

func (s *Server) clearCache(c *gin.Context) {
	if err := s.desk.ClearCache(c.Request.Context()); err != nil {
		internalError(c)
		return
	}
	respondOK(c, nil)
}

type cacheStatus struct {
	Stale      bool       `json:"stale"`
	LastUpdate *time.Time `json:"lastUpdate"`
}

func (s *Server) cacheStatus(c *gin.Context) {
	ctx := c.Request.Context()
	last, err := s.desk.LastUpdate(ctx)
	if err != nil {
		internalError(c)
		return
	}

	status := cacheStatus{Stale: s.desk.IsStale(ctx)}
	if !last.IsZero() {
		status.LastUpdate = &last
	}
	respondOK(c, status)
}
