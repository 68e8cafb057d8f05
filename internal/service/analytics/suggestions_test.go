package analytics

import (
	"strings"
	"testing"

	"github.com/voltgrid/console/internal/domain"
)

func seriesWithData() []domain.RevenueDataPoint {
	return []domain.RevenueDataPoint{
		{TimeLabel: "2026-03-10", Revenue: 100, Sessions: 5},
		{TimeLabel: "2026-03-11", Revenue: 200, Sessions: 8},
	}
}

func TestDerive_InsufficientData(t *testing.T) {
	// Arrange
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	emptySeries := []domain.RevenueDataPoint{
		{TimeLabel: "2026-03-10"},
		{TimeLabel: "2026-03-11"},
	}

	// Act
	suggestions := engine.Derive(emptySeries, nil, nil, nil)

	// Assert
	if len(suggestions) != 1 {
		t.Fatalf("expected exactly 1 suggestion, got %d", len(suggestions))
	}
	if !strings.Contains(suggestions[0].Message, "Insufficient data") {
		t.Errorf("expected insufficient-data message, got '%s'", suggestions[0].Message)
	}
}

func TestDerive_StationConcentration_AboveThreshold(t *testing.T) {
	// Arrange
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "Harbor North", Revenue: 310000},
		{StationID: 2, Name: "Airport East", Revenue: 690000},
	}

	// Act: Airport East holds 69% of revenue
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, nil)

	// Assert
	found := false
	for _, s := range suggestions {
		if strings.Contains(s.Message, "Airport East") && strings.Contains(s.Message, "charger capacity upgrade") {
			found = true
			if !strings.Contains(s.Message, "69.0%") {
				t.Errorf("expected 69.0%% share in message, got '%s'", s.Message)
			}
		}
	}
	if !found {
		t.Errorf("expected station concentration suggestion, got %+v", suggestions)
	}
}

func TestDerive_StationConcentration_JustAboveThreshold(t *testing.T) {
	// Arrange: the leading station holds 31% of revenue
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "Harbor North", Revenue: 310},
		{StationID: 2, Name: "Airport East", Revenue: 230},
		{StationID: 3, Name: "Depot South", Revenue: 230},
		{StationID: 4, Name: "Marina West", Revenue: 230},
	}

	// Act
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, nil)

	// Assert
	found := false
	for _, s := range suggestions {
		if strings.Contains(s.Message, "Harbor North") && strings.Contains(s.Message, "charger capacity upgrade") {
			found = true
			if !strings.Contains(s.Message, "31.0%") {
				t.Errorf("expected 31.0%% share in message, got '%s'", s.Message)
			}
		}
	}
	if !found {
		t.Errorf("expected station concentration suggestion at 31%%, got %+v", suggestions)
	}
}

func TestDerive_StationConcentration_AtThresholdDoesNotFire(t *testing.T) {
	// Arrange: top station sits exactly at the 30% threshold
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "Harbor North", Revenue: 300},
		{StationID: 2, Name: "Airport East", Revenue: 350},
		{StationID: 3, Name: "Depot South", Revenue: 350},
	}

	// Act
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, nil)

	// Assert: 35% fires, so pick a layout where nothing exceeds the bar
	for _, s := range suggestions {
		if strings.Contains(s.Message, "Harbor North") {
			t.Errorf("expected no suggestion for station at threshold, got '%s'", s.Message)
		}
	}
}

func TestDerive_StationConcentration_BelowThreshold(t *testing.T) {
	// Arrange: four stations at 25% each
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "A", Revenue: 250},
		{StationID: 2, Name: "B", Revenue: 250},
		{StationID: 3, Name: "C", Revenue: 250},
		{StationID: 4, Name: "D", Revenue: 250},
	}

	// Act
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, nil)

	// Assert
	if len(suggestions) != 1 || !strings.Contains(suggestions[0].Message, "stable") {
		t.Errorf("expected the all-clear message only, got %+v", suggestions)
	}
}

func TestDerive_PeakConcentration(t *testing.T) {
	// Arrange
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	peaks := make([]domain.PeakHourSlot, 24)
	for h := range peaks {
		peaks[h] = domain.PeakHourSlot{Hour: h, HourLabel: emptyPeakHours()[h].HourLabel}
	}
	peaks[18].Sessions = 50
	peaks[19].Sessions = 40
	peaks[8].Sessions = 30
	peaks[12].Sessions = 10

	// Act
	suggestions := engine.Derive(seriesWithData(), nil, peaks, nil)

	// Assert
	found := false
	for _, s := range suggestions {
		if strings.Contains(s.Message, "peak-hour pricing") {
			found = true
			if !strings.Contains(s.Message, "18:00") || !strings.Contains(s.Message, "19:00") || !strings.Contains(s.Message, "08:00") {
				t.Errorf("expected top 3 hours in message, got '%s'", s.Message)
			}
			if strings.Contains(s.Message, "12:00") {
				t.Errorf("expected only top 3 hours, got '%s'", s.Message)
			}
			// 120 of 130 sessions
			if !strings.Contains(s.Message, "92.3%") {
				t.Errorf("expected 92.3%% share, got '%s'", s.Message)
			}
		}
	}
	if !found {
		t.Errorf("expected peak concentration suggestion, got %+v", suggestions)
	}
}

func TestDerive_PeakConcentration_SkipsZeroHours(t *testing.T) {
	// Arrange: only one active hour, fewer than the top-N policy
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	peaks := emptyPeakHours()
	peaks[9].Sessions = 12

	// Act
	suggestions := engine.Derive(seriesWithData(), nil, peaks, nil)

	// Assert
	for _, s := range suggestions {
		if strings.Contains(s.Message, "peak-hour pricing") {
			if strings.Contains(s.Message, "00:00") {
				t.Errorf("expected zero-session hours excluded, got '%s'", s.Message)
			}
			if !strings.Contains(s.Message, "09:00") {
				t.Errorf("expected 09:00 in message, got '%s'", s.Message)
			}
		}
	}
}

func TestDerive_RegionConcentration(t *testing.T) {
	// Arrange
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "A", Revenue: 250},
		{StationID: 2, Name: "B", Revenue: 250},
		{StationID: 3, Name: "C", Revenue: 500},
	}
	regions := domain.StationRegionMap{1: "North", 2: "North", 3: "East"}

	// Act: North 50%, East 50%; deterministic tie-break picks East
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, regions)

	// Assert
	found := false
	for _, s := range suggestions {
		if strings.Contains(s.Message, "expanding station coverage") {
			found = true
			if !strings.Contains(s.Message, "Region East") {
				t.Errorf("expected East as top region, got '%s'", s.Message)
			}
		}
	}
	if !found {
		t.Errorf("expected region concentration suggestion, got %+v", suggestions)
	}
}

func TestDerive_RegionConcentration_UnmappedStationsFoldToOther(t *testing.T) {
	// Arrange
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "A", Revenue: 900},
		{StationID: 2, Name: "B", Revenue: 100},
	}
	regions := domain.StationRegionMap{2: "North"}

	// Act
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, regions)

	// Assert
	found := false
	for _, s := range suggestions {
		if strings.Contains(s.Message, "Region Other") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Other region suggestion, got %+v", suggestions)
	}
}

func TestDerive_RegionConcentration_NoDirectoryDataSkipped(t *testing.T) {
	// Arrange: heavy concentration, but no region map at all
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "A", Revenue: 900},
		{StationID: 2, Name: "B", Revenue: 100},
	}

	// Act
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, nil)

	// Assert: without directory data everything folds to the sentinel, so
	// the region heuristic stays silent instead of flagging it at 100%
	for _, s := range suggestions {
		if strings.Contains(s.Message, "expanding station coverage") {
			t.Errorf("expected region heuristic skipped without a region map, got '%s'", s.Message)
		}
	}
}

func TestDerive_MultipleHeuristicsFireIndependently(t *testing.T) {
	// Arrange: concentration everywhere
	engine := NewSuggestionEngine(DefaultSuggestionPolicy())
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "Harbor North", Revenue: 800},
		{StationID: 2, Name: "Airport East", Revenue: 200},
	}
	regions := domain.StationRegionMap{1: "North", 2: "East"}
	peaks := emptyPeakHours()
	peaks[18].Sessions = 90
	peaks[19].Sessions = 10

	// Act
	suggestions := engine.Derive(seriesWithData(), aggregates, peaks, regions)

	// Assert
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d: %+v", len(suggestions), suggestions)
	}
}

func TestNewSuggestionEngine_ZeroPolicyTakesDefaults(t *testing.T) {
	// Act
	engine := NewSuggestionEngine(SuggestionPolicy{})

	// Assert
	def := DefaultSuggestionPolicy()
	if engine.policy != def {
		t.Errorf("expected default policy %+v, got %+v", def, engine.policy)
	}
}

func TestNewSuggestionEngine_CustomThresholds(t *testing.T) {
	// Arrange: a stricter station threshold flags a 26% share
	engine := NewSuggestionEngine(SuggestionPolicy{StationSharePct: 25})
	aggregates := []domain.StationAggregate{
		{StationID: 1, Name: "A", Revenue: 260},
		{StationID: 2, Name: "B", Revenue: 250},
		{StationID: 3, Name: "C", Revenue: 250},
		{StationID: 4, Name: "D", Revenue: 240},
	}

	// Act
	suggestions := engine.Derive(seriesWithData(), aggregates, nil, nil)

	// Assert
	found := false
	for _, s := range suggestions {
		if strings.Contains(s.Message, "charger capacity upgrade") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected custom threshold to fire, got %+v", suggestions)
	}
}
