package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/weather-log-collector/internal/store"
	"github.com/i474232898/weather-log-collector/internal/weather"
)

type staticCollector struct{}

func (staticCollector) Collect(context.Context) (weather.Observation, error) {
	return weather.Normalize(weather.RawCurrent{}, weather.Coordinates{Lat: "1", Lon: "2"}, time.Now()), nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, weather.Observation) error { return nil }

func newTestApp(t *testing.T) (*fiber.App, *weather.Service) {
	t.Helper()
	app := fiber.New()
	memStore := store.NewMemoryStore(10, time.Hour)
	svc := weather.NewService(staticCollector{}, nopPublisher{}, memStore, zap.NewNop())
	RegisterRoutes(app, svc)
	return app, svc
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestLatestCycle(t *testing.T) {
	app, svc := newTestApp(t)

	// No cycle yet.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cycles/latest", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	svc.RunCycle(context.Background())

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/cycles/latest", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var report weather.CycleReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Outcome != weather.OutcomePublished {
		t.Errorf("expected outcome %q, got %q", weather.OutcomePublished, report.Outcome)
	}
	if report.Observation == nil || report.Observation.Condition != weather.ConditionUnknown {
		t.Errorf("expected observation in report, got %+v", report.Observation)
	}
}

// TestCyclesRangeValidation verifies that the history endpoint rejects
// missing, malformed and inverted ranges.
func TestCyclesRangeValidation(t *testing.T) {
	app, _ := newTestApp(t)

	urls := []string{
		"/api/v1/cycles",
		"/api/v1/cycles?from=yesterday&to=today",
		"/api/v1/cycles?from=2026-10-18T10:00:00Z&to=2026-10-18T09:00:00Z",
	}

	for _, u := range urls {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, u, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", u, http.StatusBadRequest, resp.StatusCode)
		}
	}
}

func TestCyclesRange(t *testing.T) {
	app, svc := newTestApp(t)
	svc.RunCycle(context.Background())

	from := time.Now().Add(-time.Minute).UTC().Format(time.RFC3339)
	to := strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cycles?from="+from+"&to="+to, nil)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Cycles []weather.CycleReport `json:"cycles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Cycles) != 1 {
		t.Fatalf("expected 1 cycle, got %d", len(body.Cycles))
	}
}

func TestLatestCycleWithoutStore(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app, weather.NewService(staticCollector{}, nopPublisher{}, nil, zap.NewNop()))

	for _, u := range []string{"/api/v1/cycles/latest", "/api/v1/cycles?from=2026-10-18T09:00:00Z&to=2026-10-18T10:00:00Z"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, u, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected status %d, got %d", u, http.StatusNotFound, resp.StatusCode)
		}
	}
}
