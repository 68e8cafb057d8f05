package ports

import (
	"context"
	"time"

	"github.com/voltgrid/console/internal/domain"
)

// ResultKind classifies the outcome of a remote aggregation fetch. The
// fallback decision is a single match on this kind, never an implicit nil
// check scattered across call sites.
type ResultKind int

const (
	// ResultOk means all four slices arrived.
	ResultOk ResultKind = iota
	// ResultDegraded means revenue arrived but at least one secondary slice
	// did not.
	ResultDegraded
	// ResultUnavailable means the revenue slice is missing or empty; the
	// whole remote result is unusable and local fallback aggregation takes
	// over.
	ResultUnavailable
)

func (k ResultKind) String() string {
	switch k {
	case ResultOk:
		return "ok"
	case ResultDegraded:
		return "degraded"
	case ResultUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// RevenueSlice is the remote revenue series response.
type RevenueSlice struct {
	DataPoints    []domain.RevenueDataPoint `json:"dataPoints"`
	TotalRevenue  float64                   `json:"totalRevenue"`
	TotalSessions int                       `json:"totalSessions"`
}

// UsageSlice is the remote per-station usage response.
type UsageSlice struct {
	TopStations []domain.StationAggregate `json:"topStations"`
}

// PeakHoursSlice is the remote hour-of-day histogram response.
type PeakHoursSlice struct {
	HourlyData []domain.PeakHourSlot `json:"hourlyData"`
}

// ForecastSlice is the remote forecast response.
type ForecastSlice struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
}

// AggregateResult is the combined outcome of the four parallel remote
// requests. Each slice is independently nil when its request failed.
type AggregateResult struct {
	Revenue   *RevenueSlice
	Usage     *UsageSlice
	PeakHours *PeakHoursSlice
	Forecast  *ForecastSlice
}

// Kind classifies the result. A nil or empty revenue slice makes the whole
// result unavailable regardless of the other slices: a remote service that
// answers with zero revenue rows is treated the same as one that failed, so
// local aggregation gets a chance to recover the numbers from raw records.
func (r *AggregateResult) Kind() ResultKind {
	if r == nil || r.Revenue == nil || len(r.Revenue.DataPoints) == 0 {
		return ResultUnavailable
	}
	if r.Usage == nil || r.PeakHours == nil || r.Forecast == nil {
		return ResultDegraded
	}
	return ResultOk
}

// SyncResult is the response of the out-of-band sync trigger.
type SyncResult struct {
	Success     bool   `json:"success"`
	SyncedCount int    `json:"syncedCount,omitempty"`
	Message     string `json:"message,omitempty"`
}

// AggregationProvider is the remote analytics service boundary. FetchAll
// never returns an error: individual request failures degrade the result
// instead of aborting the siblings.
type AggregationProvider interface {
	FetchAll(ctx context.Context, filter domain.ReportFilter, window domain.TimeWindow) *AggregateResult
	TriggerSync(ctx context.Context) (*SyncResult, error)
}

// ReportService drives the analytics refresh cycle and owns the current
// report view model.
type ReportService interface {
	// Refresh resolves the filter and rebuilds the report. The returned
	// report is the one produced by this call; it may not be the applied
	// view state if a newer refresh completed concurrently.
	Refresh(ctx context.Context, filter domain.ReportFilter) (*domain.Report, error)

	// Current returns the last applied report, nil before the first refresh.
	Current() *domain.Report

	// TriggerSync asks the remote service for an out-of-band data refresh.
	TriggerSync(ctx context.Context) (*SyncResult, error)

	// ExportCSV renders the current report's revenue series as CSV.
	ExportCSV(ctx context.Context) ([]byte, error)
}

// Cache abstracts Redis with a local in-memory fallback.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// EmailService sends operator-facing mail.
type EmailService interface {
	Send(ctx context.Context, to, subject, body string) error
	SendHTML(ctx context.Context, to, subject, htmlBody string) error
	SendReportDigest(ctx context.Context, to string, report *domain.Report) error
}
