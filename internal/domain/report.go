package domain

import (
	"time"
)

// RangeKeyword is the operator-selected reporting range.
type RangeKeyword string

const (
	RangeDay     RangeKeyword = "day"
	RangeWeek    RangeKeyword = "week"
	RangeMonth   RangeKeyword = "month"
	RangeQuarter RangeKeyword = "quarter"
	RangeYear    RangeKeyword = "year"
	RangeCustom  RangeKeyword = "custom"
)

// Granularity is the bucket width of a time-series aggregate.
type Granularity string

const (
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ReportFilter scopes a report to a station, region and time range. Custom
// bounds are carried as date strings exactly as entered; unparseable bounds
// make the resolver fall back to the month default, by policy.
type ReportFilter struct {
	StationID   *int64       `json:"station_id,omitempty"`
	Region      string       `json:"region,omitempty"`
	Range       RangeKeyword `json:"range"`
	CustomStart string       `json:"custom_start,omitempty"`
	CustomEnd   string       `json:"custom_end,omitempty"`
}

// MatchesStation reports whether a station passes the station filter.
func (f *ReportFilter) MatchesStation(stationID int64) bool {
	return f.StationID == nil || *f.StationID == stationID
}

// TimeWindow is a concrete reporting interval with its bucket granularity.
type TimeWindow struct {
	From        time.Time   `json:"from"`
	To          time.Time   `json:"to"`
	Granularity Granularity `json:"granularity"`
}

// Valid reports whether the window can be bucketed at all.
func (w TimeWindow) Valid() bool {
	return !w.From.IsZero() && !w.To.IsZero() && !w.From.After(w.To)
}

// Contains reports whether t falls inside the window, bounds inclusive.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// RevenueDataPoint is one time bucket of the revenue series. The series is
// gap-free: every bucket in the window is materialized even when zero-valued.
type RevenueDataPoint struct {
	TimeLabel string  `json:"time_label"`
	Revenue   float64 `json:"revenue"`
	Sessions  int     `json:"sessions"`
	EnergyKWh float64 `json:"energy_kwh"`
}

// StationAggregate is the per-station rollup, ordered by revenue descending.
type StationAggregate struct {
	StationID      int64   `json:"station_id"`
	Name           string  `json:"name"`
	Revenue        float64 `json:"revenue"`
	Sessions       int     `json:"sessions"`
	EnergyKWh      float64 `json:"energy_kwh"`
	PercentOfTotal float64 `json:"percentage_of_total"`
}

// PeakHourSlot is one slot of the 24-hour session histogram.
type PeakHourSlot struct {
	Hour      int    `json:"hour"`
	HourLabel string `json:"hour_label"`
	Sessions  int    `json:"sessions"`
}

// TransactionStats counts payments by folded canonical status over the
// window. TotalAmount sums the completed bucket only.
type TransactionStats struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Pending     int     `json:"pending"`
	Failed      int     `json:"failed"`
	TotalAmount float64 `json:"total_amount"`
}

// Suggestion is a single advisory message for the operator. Suggestions are
// recomputed on every refresh and never persisted.
type Suggestion struct {
	Message string `json:"message"`
}

// ReportSource tells which path produced the aggregates.
type ReportSource string

const (
	ReportSourceRemote ReportSource = "remote"
	ReportSourceLocal  ReportSource = "local"
)

// Report is the full view model consumed by the console's reporting screen.
// It is transient view state, rebuilt on every filter change or periodic
// refresh.
type Report struct {
	Sequence    uint64       `json:"sequence"`
	GeneratedAt time.Time    `json:"generated_at"`
	Filter      ReportFilter `json:"filter"`
	Window      TimeWindow   `json:"window"`
	Source      ReportSource `json:"source"`
	Degraded    bool         `json:"degraded"`

	RevenueData       []RevenueDataPoint `json:"revenue_data"`
	StationAggregates []StationAggregate `json:"station_aggregates"`
	PeakHours         []PeakHourSlot     `json:"peak_hours"`
	Stats             TransactionStats   `json:"transaction_stats"`
	Forecast          []Suggestion       `json:"forecast,omitempty"`
	Suggestions       []Suggestion       `json:"suggestions"`

	TotalRevenue   float64 `json:"total_revenue"`
	TotalSessions  int     `json:"total_sessions"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
}

// HasData reports whether the report carries any usable revenue series.
func (r *Report) HasData() bool {
	for i := range r.RevenueData {
		if r.RevenueData[i].Revenue > 0 || r.RevenueData[i].Sessions > 0 {
			return true
		}
	}
	return false
}
