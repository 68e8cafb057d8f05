package analytics

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltgrid/console/internal/domain"
	"github.com/voltgrid/console/internal/observability/telemetry"
	"github.com/voltgrid/console/internal/ports"
)

const (
	reportCacheKey = "reports:current"

	// SubjectReportRefreshed is published after every applied refresh.
	SubjectReportRefreshed = "report.refreshed"
	// SubjectReportSync triggers an off-cycle refresh when received.
	SubjectReportSync = "report.sync"
)

var ErrNoReport = errors.New("no report available yet")

// EventPublisher publishes report lifecycle events. Implemented by the queue
// adapters.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// EventSubscriber receives report lifecycle events.
type EventSubscriber interface {
	Subscribe(subject string, handler func(data []byte) error) error
}

// Broadcaster pushes an applied report to connected console clients.
// Implemented by the websocket hub.
type Broadcaster interface {
	Broadcast(data []byte)
}

// Config tunes the refresh cycle.
type Config struct {
	RefreshInterval time.Duration
	CacheTTL        time.Duration
}

// Deps bundles the service collaborators. Cache, Publisher and Broadcaster
// are optional; the refresh cycle works without them.
type Deps struct {
	Provider    ports.AggregationProvider
	Stations    ports.StationDirectory
	Sessions    ports.SessionSource
	Payments    ports.PaymentSource
	Cache       ports.Cache
	Publisher   EventPublisher
	Broadcaster Broadcaster
	Logger      *zap.Logger
}

// Service owns the report view state and drives the refresh cycle: periodic
// ticks, filter changes and sync events all funnel into Refresh. Every
// refresh carries a sequence number issued at its start; a finished refresh
// is applied only if no newer one has been issued since, so a slow response
// can never overwrite the state of a later filter change.
type Service struct {
	provider ports.AggregationProvider
	stations ports.StationDirectory
	sessions ports.SessionSource
	payments ports.PaymentSource

	fallback *FallbackAggregator
	engine   *SuggestionEngine

	cache       ports.Cache
	publisher   EventPublisher
	broadcaster Broadcaster
	log         *zap.Logger

	refreshInterval time.Duration
	cacheTTL        time.Duration
	now             func() time.Time

	seq atomic.Uint64

	mu      sync.RWMutex
	applied uint64
	current *domain.Report
	filter  domain.ReportFilter

	stopOnce sync.Once
	stop     chan struct{}
}

// NewService creates the report service. Zero-valued config fields take
// their defaults (one-minute refresh, five-minute cache TTL).
func NewService(deps Deps, engine *SuggestionEngine, cfg Config) *Service {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Minute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if engine == nil {
		engine = NewSuggestionEngine(DefaultSuggestionPolicy())
	}
	return &Service{
		provider:        deps.Provider,
		stations:        deps.Stations,
		sessions:        deps.Sessions,
		payments:        deps.Payments,
		fallback:        NewFallbackAggregator(deps.Logger),
		engine:          engine,
		cache:           deps.Cache,
		publisher:       deps.Publisher,
		broadcaster:     deps.Broadcaster,
		log:             deps.Logger,
		refreshInterval: cfg.RefreshInterval,
		cacheTTL:        cfg.CacheTTL,
		now:             time.Now,
		filter:          domain.ReportFilter{Range: domain.RangeMonth},
		stop:            make(chan struct{}),
	}
}

// Refresh resolves the filter's window, fetches remote aggregates, falls
// back to local aggregation when the remote revenue slice is missing, and
// applies the result to the view state unless a newer refresh was issued in
// the meantime. The built report is returned either way.
func (s *Service) Refresh(ctx context.Context, filter domain.ReportFilter) (*domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := s.seq.Add(1)
	window := ResolveWindow(filter.Range, filter.CustomStart, filter.CustomEnd, s.now())

	started := s.now()
	report := s.buildReport(ctx, seq, filter, window)
	telemetry.ReportRefreshLatency.Observe(s.now().Sub(started).Seconds())

	if !s.apply(report, filter) {
		telemetry.StaleRefreshesDropped.Inc()
		s.log.Debug("Stale refresh dropped",
			zap.Uint64("sequence", seq),
			zap.Uint64("latest", s.seq.Load()),
		)
		return report, nil
	}
	telemetry.ReportRefreshTotal.WithLabelValues(string(report.Source), refreshOutcome(report)).Inc()
	s.afterApply(ctx, report)
	return report, nil
}

func refreshOutcome(report *domain.Report) string {
	if report.Degraded {
		return "degraded"
	}
	return "ok"
}

func (s *Service) buildReport(ctx context.Context, seq uint64, filter domain.ReportFilter, window domain.TimeWindow) *domain.Report {
	log := s.log.With(
		zap.String("cycle_id", uuid.NewString()),
		zap.Uint64("sequence", seq),
		zap.String("range", string(filter.Range)),
	)

	stations, err := s.stations.ListStations(ctx)
	if err != nil {
		log.Warn("Station listing failed; regions degrade to Other", zap.Error(err))
		stations = nil
	}
	regionMap := domain.BuildStationRegionMap(stations)

	result := s.provider.FetchAll(ctx, filter, window)
	kind := result.Kind()

	report := &domain.Report{
		Sequence:    seq,
		GeneratedAt: s.now(),
		Filter:      filter,
		Window:      window,
	}

	// Raw records are loaded at most once per refresh, shared between the
	// full fallback path and partial slice substitution.
	var local *LocalAggregates
	computeLocal := func() *LocalAggregates {
		if local == nil {
			local = s.computeLocal(ctx, log, stations, filter, window)
		}
		return local
	}

	switch kind {
	case ports.ResultUnavailable:
		telemetry.FallbackActivationsTotal.Inc()
		log.Info("Remote aggregation unavailable; recomputing from raw records")
		l := computeLocal()
		report.Source = domain.ReportSourceLocal
		report.Degraded = true
		report.RevenueData = l.RevenueData
		report.StationAggregates = l.StationAggregates
		report.PeakHours = l.PeakHours
		report.Stats = l.Stats
		report.TotalRevenue = l.TotalRevenue
		report.TotalSessions = l.TotalSessions
		report.TotalEnergyKWh = l.TotalEnergyKWh
		regionMap = l.RegionMap
	default:
		report.Source = domain.ReportSourceRemote
		report.Degraded = kind == ports.ResultDegraded
		report.RevenueData = result.Revenue.DataPoints
		report.TotalRevenue = result.Revenue.TotalRevenue
		report.TotalSessions = result.Revenue.TotalSessions
		for i := range report.RevenueData {
			report.TotalEnergyKWh += report.RevenueData[i].EnergyKWh
		}

		if result.Usage != nil {
			report.StationAggregates = enrichStationAggregates(result.Usage.TopStations, stations)
		} else {
			log.Warn("Usage slice missing; substituting local station aggregates")
			report.StationAggregates = computeLocal().StationAggregates
		}
		if result.PeakHours != nil {
			report.PeakHours = result.PeakHours.HourlyData
		} else {
			log.Warn("Peak-hours slice missing; substituting local histogram")
			report.PeakHours = computeLocal().PeakHours
		}
		// A missing forecast slice is simply omitted; suggestions below
		// cover the advisory role.
		if result.Forecast != nil {
			report.Forecast = result.Forecast.Suggestions
		}
		// The remote service has no transaction stats endpoint; the stats
		// ride along whenever raw records were loaded anyway.
		if local != nil {
			report.Stats = local.Stats
		}
	}

	report.Suggestions = s.engine.Derive(report.RevenueData, report.StationAggregates, report.PeakHours, regionMap)
	return report
}

// enrichStationAggregates fills in names and percentage-of-total for remote
// usage rows, which carry neither reliably.
func enrichStationAggregates(aggregates []domain.StationAggregate, stations []domain.Station) []domain.StationAggregate {
	names := make(map[int64]string, len(stations))
	for i := range stations {
		names[stations[i].ID] = stations[i].Name
	}
	var total float64
	for i := range aggregates {
		total += aggregates[i].Revenue
	}
	out := make([]domain.StationAggregate, len(aggregates))
	copy(out, aggregates)
	for i := range out {
		if out[i].Name == "" {
			if name := names[out[i].StationID]; name != "" {
				out[i].Name = name
			} else {
				out[i].Name = fmt.Sprintf("Station %d", out[i].StationID)
			}
		}
		if out[i].PercentOfTotal == 0 && total > 0 {
			out[i].PercentOfTotal = out[i].Revenue / total * 100
		}
	}
	return out
}

func (s *Service) computeLocal(ctx context.Context, log *zap.Logger, stations []domain.Station, filter domain.ReportFilter, window domain.TimeWindow) *LocalAggregates {
	payments, err := s.payments.ListPayments(ctx, window.From, window.To)
	if err != nil {
		log.Warn("Payment listing failed; aggregating without payments", zap.Error(err))
		payments = nil
	}
	sessions, err := s.sessions.ListSessions(ctx, window.From, window.To)
	if err != nil {
		log.Warn("Session listing failed; aggregating without sessions", zap.Error(err))
		sessions = nil
	}
	return s.fallback.ComputeAll(payments, sessions, stations, filter, window)
}

// apply installs the report as current view state. It reports false, and
// changes nothing, when a newer refresh was issued after this one started.
func (s *Service) apply(report *domain.Report, filter domain.ReportFilter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report.Sequence != s.seq.Load() || report.Sequence < s.applied {
		return false
	}
	s.applied = report.Sequence
	s.current = report
	s.filter = filter
	return true
}

func (s *Service) afterApply(ctx context.Context, report *domain.Report) {
	payload, err := json.Marshal(report)
	if err != nil {
		s.log.Error("Report marshal failed", zap.Error(err))
		return
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, reportCacheKey, string(payload), s.cacheTTL); err != nil {
			s.log.Warn("Report cache write failed", zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(SubjectReportRefreshed, payload); err != nil {
			s.log.Warn("Refresh event publish failed", zap.Error(err))
		}
	}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(payload)
	}
}

// Current returns the last applied report, nil before the first refresh.
func (s *Service) Current() *domain.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// CurrentFilter returns the filter of the last applied refresh.
func (s *Service) CurrentFilter() domain.ReportFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// TriggerSync asks the remote service for an out-of-band data sync and, when
// it succeeds, refreshes the report off the freshly synced data.
func (s *Service) TriggerSync(ctx context.Context) (*ports.SyncResult, error) {
	res, err := s.provider.TriggerSync(ctx)
	if err != nil {
		return nil, fmt.Errorf("trigger sync: %w", err)
	}
	if res.Success {
		if _, err := s.Refresh(ctx, s.CurrentFilter()); err != nil {
			s.log.Warn("Post-sync refresh failed", zap.Error(err))
		}
	}
	return res, nil
}

// ExportCSV renders the current report's revenue series as CSV with a
// trailing totals row.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	report := s.Current()
	if report == nil {
		return nil, ErrNoReport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"Time", "Revenue", "Sessions", "Energy (kWh)"}); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for i := range report.RevenueData {
		p := &report.RevenueData[i]
		record := []string{
			p.TimeLabel,
			strconv.FormatFloat(p.Revenue, 'f', 2, 64),
			strconv.Itoa(p.Sessions),
			strconv.FormatFloat(p.EnergyKWh, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	totals := []string{
		"Total",
		strconv.FormatFloat(report.TotalRevenue, 'f', 2, 64),
		strconv.Itoa(report.TotalSessions),
		strconv.FormatFloat(report.TotalEnergyKWh, 'f', 2, 64),
	}
	if err := w.Write(totals); err != nil {
		return nil, fmt.Errorf("write csv totals: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Start launches the periodic refresh loop. The loop runs until Stop is
// called or ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.Refresh(ctx, s.CurrentFilter()); err != nil {
					s.log.Warn("Periodic refresh failed", zap.Error(err))
				}
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop terminates the periodic refresh loop. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// SubscribeSyncEvents wires the off-cycle refresh trigger: a report.sync
// event refreshes the report with the currently applied filter.
func (s *Service) SubscribeSyncEvents(sub EventSubscriber) error {
	return sub.Subscribe(SubjectReportSync, func(data []byte) error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.Refresh(ctx, s.CurrentFilter()); err != nil {
			return fmt.Errorf("sync-triggered refresh: %w", err)
		}
		return nil
	})
}
