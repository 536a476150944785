// Package server exposes the statement pipeline over HTTP with gin.
package server

import (
	"net/http"
	"time"

	"github.com/Lllllllleong/financialstatementflow/internal/metrics"
	"github.com/gin-gonic/gin"
)

// RouterConfig configures NewRouter. Metrics may be nil.
type RouterConfig struct {
	Handler            *Handler
	Metrics            *metrics.Metrics
	RateLimitPerMinute int
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(RequestID())
	router.Use(RequestLogger(cfg.Metrics))
	router.Use(Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	h := cfg.Handler
	api := router.Group("/")
	api.Use(RateLimit(cfg.RateLimitPerMinute))
	{
		api.POST("/analyze-financials", h.AnalyzeFinancials)
		api.POST("/build-financial-model", h.BuildFinancialModel)
		api.GET("/convert-pdf", h.ConvertPDF)
		api.POST("/convert-pdf", h.ConvertPDF)
		api.GET("/records/:id", h.GetRecord)
		api.GET("/records/:id/csv", h.GetRecordCSV)
	}

	return router
}
