package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/thesurve-web/internal/service"
)

func TestReadyReportsFailingCheck(t *testing.T) {
	h := NewMetricsHandler(nil,
		ReadinessCheck{Name: "api", Probe: func(context.Context) error { return nil }},
		ReadinessCheck{Name: "cache", Probe: func(context.Context) error { return errors.New("connection refused") }},
	)
	r := gin.New()
	r.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":"connection refused"`)
	assert.Contains(t, w.Body.String(), `"api":"ok"`)
}

func TestReadyAndPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.RecordFeedPage("http")
	h := NewMetricsHandler(metrics)
	r := gin.New()
	r.GET("/ready", h.Ready)
	r.GET("/metrics", h.Prometheus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "feed_pages_total")
}
