package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/lingua/domain/entities"
	"github.com/satriahrh/lingua/internal/jobs"
)

func TestRecordTurn(t *testing.T) {
	m := New(nil)

	m.RecordTurn(entities.InputKindText, entities.StateGreeting, entities.StateConversing, 0.4, false)
	m.RecordTurn(entities.InputKindAudio, entities.StateConversing, entities.StateConversing, -0.2, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("greeting", "conversing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal))
}

func TestObserveJob(t *testing.T) {
	m := New(nil)
	started := time.Now().Add(-3 * time.Second)
	done := time.Now()

	m.ObserveJob(jobs.Event{Type: jobs.EventJobStarted, Job: jobs.Job{Status: entities.JobStatusStarted}})
	m.ObserveJob(jobs.Event{Type: jobs.EventJobSucceeded, Job: jobs.Job{
		Status: entities.JobStatusSuccess, StartedAt: &started, CompletedAt: &done,
	}})
	m.ObserveJob(jobs.Event{Type: jobs.EventJobFailed, Job: jobs.Job{Status: entities.JobStatusFailure}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageJobsTotal.WithLabelValues("SUCCESS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageJobsTotal.WithLabelValues("FAILURE")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ImageJobsTotal.WithLabelValues("STARTED")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New(nil)
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ok", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/boom", func(c echo.Context) error { return errors.New("boom") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	for _, path := range []string{"/ok", "/ok", "/boom"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/ok", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/boom", "GET", "500")))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "lingua_http_requests_total"))
}
