package analytics

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/voltgrid/console/internal/domain"
)

// LocalAggregates is the fallback counterpart of the remote aggregate
// shapes: gap-free revenue series, per-station rollup, 24-hour histogram and
// payment status counts, all computed from raw records under the same filter
// and bucketing rules the remote service applies.
type LocalAggregates struct {
	RevenueData       []domain.RevenueDataPoint
	StationAggregates []domain.StationAggregate
	PeakHours         []domain.PeakHourSlot
	Stats             domain.TransactionStats

	TotalRevenue   float64
	TotalSessions  int
	TotalEnergyKWh float64

	RegionMap domain.StationRegionMap
}

// FallbackAggregator recomputes the remote aggregate shapes locally when the
// remote analytics service is degraded or returns no data.
type FallbackAggregator struct {
	log *zap.Logger
}

// NewFallbackAggregator creates a fallback aggregator.
func NewFallbackAggregator(log *zap.Logger) *FallbackAggregator {
	return &FallbackAggregator{log: log}
}

// ComputeAll aggregates raw payment and session records into the four
// report shapes. An invalid window yields an empty (not nil) result so the
// caller can render a no-data state instead of crashing. Records missing
// expected fields are skipped individually, never aborting the computation.
func (a *FallbackAggregator) ComputeAll(
	payments []domain.Payment,
	sessions []domain.ChargingSession,
	stations []domain.Station,
	filter domain.ReportFilter,
	window domain.TimeWindow,
) *LocalAggregates {
	regionMap := domain.BuildStationRegionMap(stations)
	out := &LocalAggregates{
		RevenueData: []domain.RevenueDataPoint{},
		PeakHours:   emptyPeakHours(),
		RegionMap:   regionMap,
	}

	if !window.Valid() {
		a.log.Warn("Fallback aggregation skipped: invalid window",
			zap.Time("from", window.From),
			zap.Time("to", window.To),
		)
		return out
	}

	// Sessions passing the station/region filter; payments join through
	// them by session ID.
	inScope := make(map[string]*domain.ChargingSession, len(sessions))
	for i := range sessions {
		sess := &sessions[i]
		if sess.ID == "" || sess.StartTime.IsZero() {
			continue
		}
		if !filter.MatchesStation(sess.StationID) {
			continue
		}
		if filter.Region != "" && regionMap[sess.StationID] != filter.Region {
			continue
		}
		inScope[sess.ID] = sess
	}

	buckets := makeBuckets(window)
	series := make([]domain.RevenueDataPoint, len(buckets))
	for i := range buckets {
		series[i].TimeLabel = buckets[i].label
	}

	stationRevenue := make(map[int64]float64)

	for i := range payments {
		p := &payments[i]
		if !a.paymentInScope(p, filter, inScope) {
			continue
		}

		status := p.NormalizedStatus()
		when := p.EffectiveTime()
		if when.IsZero() || !window.Contains(when) {
			continue
		}

		out.Stats.Total++
		switch domain.FoldStatus(status) {
		case domain.PaymentStatusCompleted:
			out.Stats.Completed++
			out.Stats.TotalAmount += p.Amount
		case domain.PaymentStatusPending:
			out.Stats.Pending++
		case domain.PaymentStatusFailed:
			out.Stats.Failed++
		}

		if !domain.IsCompletedStatus(status) || p.IsTopUp() {
			continue
		}
		if idx := bucketIndex(buckets, window.Granularity, when); idx >= 0 {
			series[idx].Revenue += p.Amount
		}
		if sess, ok := inScope[p.SessionID]; ok {
			stationRevenue[sess.StationID] += p.Amount
		}
	}

	type stationAcc struct {
		sessions  int
		energyKWh float64
	}
	perStation := make(map[int64]*stationAcc)

	for _, sess := range inScope {
		if !window.Contains(sess.StartTime) {
			continue
		}

		if idx := bucketIndex(buckets, window.Granularity, sess.StartTime); idx >= 0 {
			series[idx].Sessions++
			series[idx].EnergyKWh += sess.EnergyKWh
		}
		out.PeakHours[sess.StartTime.Hour()].Sessions++

		acc := perStation[sess.StationID]
		if acc == nil {
			acc = &stationAcc{}
			perStation[sess.StationID] = acc
		}
		acc.sessions++
		acc.energyKWh += sess.EnergyKWh
	}

	for i := range series {
		out.TotalRevenue += series[i].Revenue
		out.TotalSessions += series[i].Sessions
		out.TotalEnergyKWh += series[i].EnergyKWh
	}
	out.RevenueData = series

	names := make(map[int64]string, len(stations))
	for i := range stations {
		names[stations[i].ID] = stations[i].Name
	}

	var grandTotal float64
	for _, rev := range stationRevenue {
		grandTotal += rev
	}

	for stationID, acc := range perStation {
		name := names[stationID]
		if name == "" {
			name = fmt.Sprintf("Station %d", stationID)
		}
		agg := domain.StationAggregate{
			StationID: stationID,
			Name:      name,
			Revenue:   stationRevenue[stationID],
			Sessions:  acc.sessions,
			EnergyKWh: acc.energyKWh,
		}
		if grandTotal > 0 {
			agg.PercentOfTotal = agg.Revenue / grandTotal * 100
		}
		out.StationAggregates = append(out.StationAggregates, agg)
	}
	sort.Slice(out.StationAggregates, func(i, j int) bool {
		if out.StationAggregates[i].Revenue != out.StationAggregates[j].Revenue {
			return out.StationAggregates[i].Revenue > out.StationAggregates[j].Revenue
		}
		return out.StationAggregates[i].StationID < out.StationAggregates[j].StationID
	})

	return out
}

// paymentInScope applies the station/region filter to a payment through its
// linked session. Wallet top-ups have no session: they stay in scope for
// status counting while no station/region filter narrows the view, and drop
// out otherwise.
func (a *FallbackAggregator) paymentInScope(p *domain.Payment, filter domain.ReportFilter, inScope map[string]*domain.ChargingSession) bool {
	if p.ID == "" {
		return false
	}
	if p.SessionID == "" {
		return filter.StationID == nil && filter.Region == ""
	}
	if filter.StationID == nil && filter.Region == "" {
		return true
	}
	_, ok := inScope[p.SessionID]
	return ok
}

func emptyPeakHours() []domain.PeakHourSlot {
	slots := make([]domain.PeakHourSlot, 24)
	for h := range slots {
		slots[h].Hour = h
		slots[h].HourLabel = fmt.Sprintf("%02d:00", h)
	}
	return slots
}
