package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/voltgrid/console/internal/adapter/http/fiber/middleware"
	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/mocks"
	"github.com/voltgrid/console/internal/ports"
	"github.com/voltgrid/console/internal/service/analytics"
)

const testJWTSecret = "integration-test-secret"

func signTestToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "operator-1",
		"role": "operator",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return signed
}

func setupReportApp(t *testing.T) (*fiber.App, *mocks.MockAggregationProvider) {
	t.Helper()

	provider := &mocks.MockAggregationProvider{
		FetchAllFunc: func(ctx context.Context, filter domain.ReportFilter, window domain.TimeWindow) *ports.AggregateResult {
			return &ports.AggregateResult{
				Revenue: &ports.RevenueSlice{
					DataPoints: []domain.RevenueDataPoint{
						{TimeLabel: "2026-03-10", Revenue: 120.5, Sessions: 6},
					},
					TotalRevenue:  120.5,
					TotalSessions: 6,
				},
				Usage:     &ports.UsageSlice{TopStations: []domain.StationAggregate{{StationID: 1, Name: "Harbor North", Revenue: 120.5}}},
				PeakHours: &ports.PeakHoursSlice{HourlyData: []domain.PeakHourSlot{{Hour: 9, HourLabel: "09:00", Sessions: 6}}},
				Forecast:  &ports.ForecastSlice{},
			}
		},
	}

	svc := analytics.NewService(analytics.Deps{
		Provider: provider,
		Stations: &mocks.MockStationDirectory{},
		Sessions: &mocks.MockSessionSource{},
		Payments: &mocks.MockPaymentSource{},
		Logger:   zap.NewNop(),
	}, nil, analytics.Config{})

	app := fiber.New()
	analytics.NewHandler(svc).RegisterRoutes(app, middleware.AuthRequired(testJWTSecret))
	return app, provider
}

func TestAPI_Analytics_RequiresAuth(t *testing.T) {
	app, _ := setupReportApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/analytics", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.StatusCode)
	}
}

func TestAPI_Analytics_InvalidToken(t *testing.T) {
	app, _ := setupReportApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/analytics", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", resp.StatusCode)
	}
}

func TestAPI_Analytics(t *testing.T) {
	app, _ := setupReportApp(t)
	token := signTestToken(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/analytics?range=week&region=North", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var report domain.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	if report.Source != domain.ReportSourceRemote {
		t.Errorf("Expected remote source, got '%s'", report.Source)
	}
	if report.TotalRevenue != 120.5 {
		t.Errorf("Expected total revenue 120.5, got %v", report.TotalRevenue)
	}
	if report.Filter.Range != domain.RangeWeek || report.Filter.Region != "North" {
		t.Errorf("Expected filter echoed back, got %+v", report.Filter)
	}
	if report.Window.Granularity != domain.GranularityDay {
		t.Errorf("Expected day granularity for week range, got '%s'", report.Window.Granularity)
	}
	if len(report.Suggestions) == 0 {
		t.Error("Expected suggestions in report")
	}
}

func TestAPI_Analytics_UnknownRangeFallsBack(t *testing.T) {
	app, _ := setupReportApp(t)
	token := signTestToken(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/analytics?range=fortnight", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var report domain.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode report: %v", err)
	}
	// An unknown keyword resolves as the month default, never an error
	if report.Window.Granularity != domain.GranularityDay {
		t.Errorf("Expected month-default window, got %+v", report.Window)
	}
	if len(report.RevenueData) == 0 {
		t.Error("Expected revenue data in report")
	}
}

func TestAPI_Sync(t *testing.T) {
	app, provider := setupReportApp(t)
	provider.TriggerSyncFunc = func(ctx context.Context) (*ports.SyncResult, error) {
		return &ports.SyncResult{Success: true, SyncedCount: 5, Message: "sync complete"}, nil
	}
	token := signTestToken(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result ports.SyncResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if !result.Success || result.SyncedCount != 5 {
		t.Errorf("Unexpected sync result %+v", result)
	}
	// A successful sync triggers a follow-up refresh
	if provider.FetchAllCalls == 0 {
		t.Error("Expected refresh after sync")
	}
}

func TestAPI_Export(t *testing.T) {
	app, _ := setupReportApp(t)
	token := signTestToken(t)

	// Export before any refresh has run
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404 before first refresh, got %d", resp.StatusCode)
	}

	// Refresh through the analytics endpoint, then export
	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/analytics", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Failed to refresh: %v", err)
	}
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/api/v1/reports/export", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, 5000)
	if err != nil {
		t.Fatalf("Failed to export: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected text/csv content type, got '%s'", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "revenue_report.csv") {
		t.Errorf("Expected attachment filename, got '%s'", cd)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if !strings.HasPrefix(string(body), "Time,Revenue,Sessions,Energy (kWh)") {
		t.Errorf("Unexpected CSV header: %s", body)
	}
}
