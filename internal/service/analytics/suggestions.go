package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/voltgrid/console/internal/domain"
)

// SuggestionPolicy carries the thresholds of the upgrade heuristics. The
// share percentages are operator policy, not algorithmic constants, and come
// from configuration.
type SuggestionPolicy struct {
	// StationSharePct is the revenue share above which a single station is
	// flagged as a concentration risk.
	StationSharePct float64
	// RegionSharePct is the revenue share above which a region is flagged
	// for expansion.
	RegionSharePct float64
	// TopPeakHours is how many leading hours the peak concentration
	// heuristic examines.
	TopPeakHours int
}

// DefaultSuggestionPolicy returns the stock thresholds.
func DefaultSuggestionPolicy() SuggestionPolicy {
	return SuggestionPolicy{
		StationSharePct: 30,
		RegionSharePct:  40,
		TopPeakHours:    3,
	}
}

// SuggestionEngine derives advisory infrastructure-upgrade messages from
// aggregated numbers. Suggestions are text only; nothing acts on them
// automatically.
type SuggestionEngine struct {
	policy SuggestionPolicy
}

// NewSuggestionEngine creates an engine with the given policy. Zero-valued
// policy fields take their defaults.
func NewSuggestionEngine(policy SuggestionPolicy) *SuggestionEngine {
	def := DefaultSuggestionPolicy()
	if policy.StationSharePct <= 0 {
		policy.StationSharePct = def.StationSharePct
	}
	if policy.RegionSharePct <= 0 {
		policy.RegionSharePct = def.RegionSharePct
	}
	if policy.TopPeakHours <= 0 {
		policy.TopPeakHours = def.TopPeakHours
	}
	return &SuggestionEngine{policy: policy}
}

// Derive runs the three heuristics in order: station concentration, peak
// hour concentration, regional concentration. Each appends at most one
// suggestion and they are evaluated independently. With no revenue data at
// all a single insufficient-data message is returned and the heuristics are
// skipped; with data but no findings a single all-clear message is returned.
func (e *SuggestionEngine) Derive(
	revenueSeries []domain.RevenueDataPoint,
	stationAggregates []domain.StationAggregate,
	peakHours []domain.PeakHourSlot,
	regions domain.StationRegionMap,
) []domain.Suggestion {
	if !hasSeriesData(revenueSeries) {
		return []domain.Suggestion{{Message: "Insufficient data to generate suggestions for the selected period."}}
	}

	var suggestions []domain.Suggestion

	if s, ok := e.stationConcentration(stationAggregates); ok {
		suggestions = append(suggestions, s)
	}
	if s, ok := e.peakConcentration(peakHours); ok {
		suggestions = append(suggestions, s)
	}
	if s, ok := e.regionConcentration(stationAggregates, regions); ok {
		suggestions = append(suggestions, s)
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, domain.Suggestion{Message: "Network utilization is stable; no overload risk detected."})
	}
	return suggestions
}

func hasSeriesData(series []domain.RevenueDataPoint) bool {
	for i := range series {
		if series[i].Revenue > 0 || series[i].Sessions > 0 {
			return true
		}
	}
	return false
}

func (e *SuggestionEngine) stationConcentration(aggregates []domain.StationAggregate) (domain.Suggestion, bool) {
	var total float64
	for i := range aggregates {
		total += aggregates[i].Revenue
	}
	if total <= 0 {
		return domain.Suggestion{}, false
	}

	top := aggregates[0]
	for i := range aggregates {
		if aggregates[i].Revenue > top.Revenue {
			top = aggregates[i]
		}
	}
	share := top.Revenue / total * 100
	if share <= e.policy.StationSharePct {
		return domain.Suggestion{}, false
	}
	return domain.Suggestion{Message: fmt.Sprintf(
		"Station %s handles %.1f%% of total revenue; consider a charger capacity upgrade there to reduce concentration risk.",
		top.Name, share,
	)}, true
}

func (e *SuggestionEngine) peakConcentration(peakHours []domain.PeakHourSlot) (domain.Suggestion, bool) {
	total := 0
	for i := range peakHours {
		total += peakHours[i].Sessions
	}
	if total == 0 {
		return domain.Suggestion{}, false
	}

	sorted := make([]domain.PeakHourSlot, len(peakHours))
	copy(sorted, peakHours)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Sessions != sorted[j].Sessions {
			return sorted[i].Sessions > sorted[j].Sessions
		}
		return sorted[i].Hour < sorted[j].Hour
	})

	n := e.policy.TopPeakHours
	if n > len(sorted) {
		n = len(sorted)
	}
	topSessions := 0
	labels := make([]string, 0, n)
	for _, slot := range sorted[:n] {
		if slot.Sessions == 0 {
			break
		}
		topSessions += slot.Sessions
		labels = append(labels, slot.HourLabel)
	}
	if len(labels) == 0 {
		return domain.Suggestion{}, false
	}

	share := float64(topSessions) / float64(total) * 100
	return domain.Suggestion{Message: fmt.Sprintf(
		"Charging concentrates around %s (%.1f%% of all sessions); consider peak-hour pricing or load balancing.",
		strings.Join(labels, ", "), share,
	)}, true
}

func (e *SuggestionEngine) regionConcentration(aggregates []domain.StationAggregate, regions domain.StationRegionMap) (domain.Suggestion, bool) {
	// With no directory data every station would fold into the Other
	// sentinel and the heuristic would always report full concentration.
	// Individual unmapped stations still fold to Other below.
	if len(regions) == 0 {
		return domain.Suggestion{}, false
	}

	byRegion := make(map[string]float64)
	var total float64
	for i := range aggregates {
		region := regions[aggregates[i].StationID]
		if region == "" {
			region = domain.RegionOther
		}
		byRegion[region] += aggregates[i].Revenue
		total += aggregates[i].Revenue
	}
	if total <= 0 {
		return domain.Suggestion{}, false
	}

	topRegion := ""
	var topRevenue float64
	for region, revenue := range byRegion {
		if revenue > topRevenue || (revenue == topRevenue && region < topRegion) {
			topRegion = region
			topRevenue = revenue
		}
	}
	share := topRevenue / total * 100
	if share <= e.policy.RegionSharePct {
		return domain.Suggestion{}, false
	}
	return domain.Suggestion{Message: fmt.Sprintf(
		"Region %s generates %.1f%% of total revenue; consider expanding station coverage there.",
		topRegion, share,
	)}, true
}
