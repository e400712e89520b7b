// README: Tests for request id, recovery and logging middleware.
package middleware_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"rides/internal/http/middleware"
	"rides/internal/logger"
)

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = logger.RequestID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	got := w.Header().Get(middleware.HeaderRequestID)
	if got == "" || got != seen {
		t.Fatalf("header %q, context %q", got, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.HeaderRequestID, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(middleware.HeaderRequestID) != "abc-123" || seen != "abc-123" {
		t.Fatalf("incoming id not propagated: %q", w.Header().Get(middleware.HeaderRequestID))
	}
}

func TestRecovery_Returns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(middleware.Recovery(logger.NewWithWriter(&buf, "test", logger.LevelInfo)))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "handler panicked") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestLogging_RecordsRouteAndError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(middleware.Logging(logger.NewWithWriter(&buf, "test", logger.LevelInfo)))
	r.GET("/items/:id", func(c *gin.Context) {
		_ = c.Error(errors.New("db unavailable"))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/items/42", nil))
	out := buf.String()
	if !strings.Contains(out, `"/items/:id"`) || !strings.Contains(out, "db unavailable") {
		t.Fatalf("unexpected log line: %s", out)
	}
}

func TestLogging_ErrorCarriesOriginContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(middleware.Logging(logger.NewWithWriter(&buf, "test", logger.LevelInfo)))
	r.GET("/trips/:id/fare", func(c *gin.Context) {
		origin := logger.WithAction(logger.WithTripID(c.Request.Context(), "trip-7"), "quote_fare")
		_ = c.Error(logger.WrapError(origin, errors.New("db unavailable")))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trips/7/fare", nil))
	out := buf.String()
	for _, want := range []string{`"action":"quote_fare"`, `"trip_id":"trip-7"`, `"msg":"db unavailable"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}
