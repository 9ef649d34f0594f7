package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"farm-advisor/api/internal/advisory"
	"farm-advisor/api/internal/advisory/types"
	"farm-advisor/api/internal/store"
)

// Runner executes one advisory request.
type Runner interface {
	Run(ctx context.Context, req advisory.Request) (types.Result, error)
}

// ResultStore persists results; nil disables persistence.
type ResultStore interface {
	Insert(ctx context.Context, rec store.Record) (store.Record, error)
	ListByUser(ctx context.Context, userID string, useCase types.UseCase, limit int) ([]store.Record, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (store.Record, error)
}

type Handle struct {
	runner    Runner
	store     ResultStore
	maxUpload int64
	timeout   time.Duration
}

func New(runner Runner, rs ResultStore, maxUpload int64) *Handle {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handle{runner: runner, store: rs, maxUpload: maxUpload, timeout: 180 * time.Second}
}

// Router builds the gin engine with every route mounted.
func (h *Handle) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	{
		v1.POST("/diagnose", h.Diagnose)
		v1.POST("/fertilizer-plan", h.FertilizerPlan)
		v1.POST("/weather/advisory", h.WeatherAdvisory)
		v1.POST("/weather/forecast", h.WeatherForecast)
		v1.POST("/projects", h.ProjectPlan)
		v1.POST("/market/prices", h.MarketPrices)
		v1.GET("/results", h.ListResults)
		v1.GET("/results/:id", h.GetResult)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
			"took":   time.Since(start).Round(time.Millisecond).String(),
		}).Info("http request")
	}
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusFor maps an error kind to the HTTP status returned to callers.
func StatusFor(k types.Kind) int {
	switch k {
	case types.KindUnsupportedInput, types.KindInvalidRequest:
		return http.StatusBadRequest
	case types.KindParseFailure:
		return http.StatusUnprocessableEntity
	case types.KindModelUnavailable, types.KindModelEmptyResponse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	var e *types.Error
	if !errors.As(err, &e) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorBody{Kind: "internal", Message: "internal error"}})
		return
	}
	c.JSON(StatusFor(e.Kind), gin.H{"error": errorBody{Kind: string(e.Kind), Message: e.Message}})
}

func badRequest(c *gin.Context, format string, args ...any) {
	writeError(c, types.NewError(types.KindInvalidRequest, format, args...))
}
