package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/infrastructure/circuitbreaker"
	"github.com/voltgrid/console/internal/observability/telemetry"
	"github.com/voltgrid/console/internal/ports"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config configures the remote aggregation client.
type Config struct {
	// BaseURL is the root of the remote aggregation API, e.g.
	// http://analytics.internal/api/v1/analytics.
	BaseURL string
	// Timeout bounds every individual slice request.
	Timeout time.Duration
}

// Client talks to the remote aggregation service. The four aggregate slices
// are fetched concurrently and fail independently: a slice request that
// errors or times out yields a nil slice, never an aborted sibling.
type Client struct {
	baseURL  string
	http     HTTPDoer
	timeout  time.Duration
	breakers *circuitbreaker.Manager
	log      *zap.Logger
}

// NewClient builds the aggregation client. A nil doer gets a default
// http.Client; a zero timeout defaults to 30 seconds.
func NewClient(cfg Config, doer HTTPDoer, breakers *circuitbreaker.Manager, log *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     doer,
		timeout:  cfg.Timeout,
		breakers: breakers,
		log:      log,
	}
}

// Wire shapes of the remote API. Field names follow the remote service's
// camelCase convention; forecast entries carry either message or description.
type revenuePayload struct {
	DataPoints []struct {
		TimeLabel string  `json:"timeLabel"`
		Revenue   float64 `json:"revenue"`
		Sessions  int     `json:"sessions"`
		EnergyKwh float64 `json:"energyKwh"`
	} `json:"dataPoints"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalSessions int     `json:"totalSessions"`
}

type usagePayload struct {
	TopStations []struct {
		StationID int64   `json:"stationId"`
		Name      string  `json:"name"`
		Revenue   float64 `json:"revenue"`
		Sessions  int     `json:"sessions"`
		EnergyKwh float64 `json:"energyKwh"`
	} `json:"topStations"`
}

type peakHoursPayload struct {
	HourlyData []struct {
		HourLabel string `json:"hourLabel"`
		Sessions  int    `json:"sessions"`
	} `json:"hourlyData"`
}

type forecastPayload struct {
	Suggestions []struct {
		Message     string `json:"message"`
		Description string `json:"description"`
	} `json:"suggestions"`
}

// FetchAll requests the four aggregate slices in parallel, each guarded by
// its own circuit breaker. It never returns an error: failed slices come
// back nil and the caller classifies the combined result.
func (c *Client) FetchAll(ctx context.Context, filter domain.ReportFilter, window domain.TimeWindow) *ports.AggregateResult {
	rangeQuery := c.rangeQuery(filter, window)
	forecastQuery := c.forecastQuery(filter, window)

	result := &ports.AggregateResult{}
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		var payload revenuePayload
		if c.fetchSlice(ctx, "revenue", rangeQuery, &payload) {
			result.Revenue = mapRevenue(&payload)
		}
	}()
	go func() {
		defer wg.Done()
		var payload usagePayload
		if c.fetchSlice(ctx, "usage", rangeQuery, &payload) {
			result.Usage = mapUsage(&payload)
		}
	}()
	go func() {
		defer wg.Done()
		var payload peakHoursPayload
		if c.fetchSlice(ctx, "peak-hours", rangeQuery, &payload) {
			result.PeakHours = mapPeakHours(&payload)
		}
	}()
	go func() {
		defer wg.Done()
		var payload forecastPayload
		if c.fetchSlice(ctx, "forecast", forecastQuery, &payload) {
			result.Forecast = mapForecast(&payload)
		}
	}()

	wg.Wait()
	return result
}

// TriggerSync asks the remote service to refresh its source data.
func (c *Client) TriggerSync(ctx context.Context) (*ports.SyncResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sync/trigger", nil)
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var result ports.SyncResult
	err = circuitbreaker.Execute(c.breaker("sync"), func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("sync request: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("sync request: unexpected status %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode sync response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// fetchSlice performs one guarded GET and reports whether out was populated.
func (c *Client) fetchSlice(ctx context.Context, name string, query url.Values, out interface{}) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	timer := prometheus.NewTimer(telemetry.RemoteSliceLatency.WithLabelValues(name))
	defer timer.ObserveDuration()

	err := circuitbreaker.Execute(c.breaker(name), func() error {
		u := c.baseURL + "/" + name
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("build %s request: %w", name, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s request: %w", name, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("%s request: unexpected status %d", name, resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", name, err)
		}
		return nil
	})
	if err != nil {
		telemetry.RemoteSliceFailuresTotal.WithLabelValues(name).Inc()
		c.log.Warn("Aggregate slice fetch failed",
			zap.String("slice", name),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (c *Client) breaker(name string) *circuitbreaker.CircuitBreaker {
	return c.breakers.Get("analytics."+name, circuitbreaker.DefaultSettings())
}

// rangeQuery carries the exact window bounds the resolver produced; the
// remote service buckets on these, so they are never re-derived here.
func (c *Client) rangeQuery(filter domain.ReportFilter, window domain.TimeWindow) url.Values {
	q := url.Values{}
	if filter.StationID != nil {
		q.Set("stationId", strconv.FormatInt(*filter.StationID, 10))
	}
	if filter.Region != "" {
		q.Set("region", filter.Region)
	}
	q.Set("from", window.From.Format(time.RFC3339))
	q.Set("to", window.To.Format(time.RFC3339))
	q.Set("granularity", string(window.Granularity))
	return q
}

func (c *Client) forecastQuery(filter domain.ReportFilter, window domain.TimeWindow) url.Values {
	q := url.Values{}
	if filter.StationID != nil {
		q.Set("stationId", strconv.FormatInt(*filter.StationID, 10))
	}
	if filter.Region != "" {
		q.Set("region", filter.Region)
	}
	q.Set("horizonMonths", strconv.Itoa(horizonMonths(window)))
	return q
}

// horizonMonths is the window span rounded up to whole months, minimum one.
func horizonMonths(window domain.TimeWindow) int {
	if !window.Valid() {
		return 1
	}
	months := int(window.To.Sub(window.From)/(30*24*time.Hour)) + 1
	if months < 1 {
		months = 1
	}
	return months
}

func mapRevenue(payload *revenuePayload) *ports.RevenueSlice {
	slice := &ports.RevenueSlice{
		DataPoints:    make([]domain.RevenueDataPoint, 0, len(payload.DataPoints)),
		TotalRevenue:  payload.TotalRevenue,
		TotalSessions: payload.TotalSessions,
	}
	for _, p := range payload.DataPoints {
		slice.DataPoints = append(slice.DataPoints, domain.RevenueDataPoint{
			TimeLabel: p.TimeLabel,
			Revenue:   p.Revenue,
			Sessions:  p.Sessions,
			EnergyKWh: p.EnergyKwh,
		})
	}
	return slice
}

func mapUsage(payload *usagePayload) *ports.UsageSlice {
	slice := &ports.UsageSlice{
		TopStations: make([]domain.StationAggregate, 0, len(payload.TopStations)),
	}
	for _, s := range payload.TopStations {
		slice.TopStations = append(slice.TopStations, domain.StationAggregate{
			StationID: s.StationID,
			Name:      s.Name,
			Revenue:   s.Revenue,
			Sessions:  s.Sessions,
			EnergyKWh: s.EnergyKwh,
		})
	}
	return slice
}

func mapPeakHours(payload *peakHoursPayload) *ports.PeakHoursSlice {
	slice := &ports.PeakHoursSlice{
		HourlyData: make([]domain.PeakHourSlot, 0, len(payload.HourlyData)),
	}
	for _, h := range payload.HourlyData {
		slice.HourlyData = append(slice.HourlyData, domain.PeakHourSlot{
			Hour:      parseHourLabel(h.HourLabel),
			HourLabel: h.HourLabel,
			Sessions:  h.Sessions,
		})
	}
	return slice
}

func mapForecast(payload *forecastPayload) *ports.ForecastSlice {
	slice := &ports.ForecastSlice{
		Suggestions: make([]domain.Suggestion, 0, len(payload.Suggestions)),
	}
	for _, s := range payload.Suggestions {
		msg := s.Message
		if msg == "" {
			msg = s.Description
		}
		if msg == "" {
			continue
		}
		slice.Suggestions = append(slice.Suggestions, domain.Suggestion{Message: msg})
	}
	return slice
}

// parseHourLabel extracts the hour from labels like "14:00"; -1 when the
// label is unparseable.
func parseHourLabel(label string) int {
	h, _, ok := strings.Cut(label, ":")
	if !ok {
		h = label
	}
	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hour < 0 || hour > 23 {
		return -1
	}
	return hour
}
