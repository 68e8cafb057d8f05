package analytics

import (
	"testing"
	"time"

	"github.com/voltgrid/console/internal/domain"
)

var fixedNow = time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC)

func TestResolveWindow_Day(t *testing.T) {
	// Act
	window := ResolveWindow(domain.RangeDay, "", "", fixedNow)

	// Assert
	if window.Granularity != domain.GranularityHour {
		t.Errorf("expected hour granularity, got %s", window.Granularity)
	}
	wantFrom := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !window.From.Equal(wantFrom) {
		t.Errorf("expected from %v, got %v", wantFrom, window.From)
	}
	if window.To.Day() != 15 || window.To.Hour() != 23 || window.To.Minute() != 59 {
		t.Errorf("expected end of day, got %v", window.To)
	}
}

func TestResolveWindow_Week(t *testing.T) {
	// Act
	window := ResolveWindow(domain.RangeWeek, "", "", fixedNow)

	// Assert
	if window.Granularity != domain.GranularityDay {
		t.Errorf("expected day granularity, got %s", window.Granularity)
	}
	wantFrom := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if !window.From.Equal(wantFrom) {
		t.Errorf("expected from %v, got %v", wantFrom, window.From)
	}
}

func TestResolveWindow_Month(t *testing.T) {
	// Act
	window := ResolveWindow(domain.RangeMonth, "", "", fixedNow)

	// Assert
	if window.Granularity != domain.GranularityDay {
		t.Errorf("expected day granularity, got %s", window.Granularity)
	}
	wantFrom := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	if !window.From.Equal(wantFrom) {
		t.Errorf("expected from %v, got %v", wantFrom, window.From)
	}
}

func TestResolveWindow_Year_TwelveMonthBuckets(t *testing.T) {
	// Act
	window := ResolveWindow(domain.RangeYear, "", "", fixedNow)

	// Assert
	if window.Granularity != domain.GranularityMonth {
		t.Errorf("expected month granularity, got %s", window.Granularity)
	}
	wantFrom := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if !window.From.Equal(wantFrom) {
		t.Errorf("expected from %v, got %v", wantFrom, window.From)
	}
	if got := len(makeBuckets(window)); got != 12 {
		t.Errorf("expected 12 month buckets, got %d", got)
	}
}

func TestResolveWindow_UnknownKeywordDefaultsToMonth(t *testing.T) {
	// Act
	window := ResolveWindow(domain.RangeKeyword("fortnight"), "", "", fixedNow)
	month := ResolveWindow(domain.RangeMonth, "", "", fixedNow)

	// Assert
	if !window.From.Equal(month.From) || !window.To.Equal(month.To) || window.Granularity != month.Granularity {
		t.Errorf("expected month window, got %+v", window)
	}
}

func TestResolveWindow_Custom(t *testing.T) {
	// Act
	window := ResolveWindow(domain.RangeCustom, "2026-01-01", "2026-01-10", fixedNow)

	// Assert
	if window.Granularity != domain.GranularityDay {
		t.Errorf("expected day granularity, got %s", window.Granularity)
	}
	wantFrom := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if !window.From.Equal(wantFrom) {
		t.Errorf("expected from %v, got %v", wantFrom, window.From)
	}
	if window.To.Day() != 10 || window.To.Hour() != 23 {
		t.Errorf("expected end of Jan 10, got %v", window.To)
	}
	if got := len(makeBuckets(window)); got != 10 {
		t.Errorf("expected 10 day buckets, got %d", got)
	}
}

func TestResolveWindow_CustomFallsBackToMonth(t *testing.T) {
	month := ResolveWindow(domain.RangeMonth, "", "", fixedNow)

	cases := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "2026-01-10"},
		{"missing end", "2026-01-01", ""},
		{"unparseable start", "not-a-date", "2026-01-10"},
		{"reversed bounds", "2026-01-10", "2026-01-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			window := ResolveWindow(domain.RangeCustom, tc.start, tc.end, fixedNow)

			// Assert
			if !window.From.Equal(month.From) || !window.To.Equal(month.To) {
				t.Errorf("expected month fallback, got %+v", window)
			}
		})
	}
}

func TestResolveWindow_Deterministic(t *testing.T) {
	// Act
	first := ResolveWindow(domain.RangeQuarter, "", "", fixedNow)
	second := ResolveWindow(domain.RangeQuarter, "", "", fixedNow)

	// Assert
	if !first.From.Equal(second.From) || !first.To.Equal(second.To) {
		t.Error("expected identical windows for identical inputs")
	}
}

func TestMakeBuckets_Counts(t *testing.T) {
	cases := []struct {
		name    string
		keyword domain.RangeKeyword
		want    int
	}{
		{"day has 24 hour buckets", domain.RangeDay, 24},
		{"week has 7 day buckets", domain.RangeWeek, 7},
		{"month has 30 day buckets", domain.RangeMonth, 30},
		{"quarter has 13 week buckets", domain.RangeQuarter, 13},
		{"year has 12 month buckets", domain.RangeYear, 12},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			buckets := makeBuckets(ResolveWindow(tc.keyword, "", "", fixedNow))

			// Assert
			if len(buckets) != tc.want {
				t.Errorf("expected %d buckets, got %d", tc.want, len(buckets))
			}
		})
	}
}

func TestMakeBuckets_InvalidWindow(t *testing.T) {
	// Act
	buckets := makeBuckets(domain.TimeWindow{})

	// Assert
	if buckets != nil {
		t.Errorf("expected nil buckets for invalid window, got %d", len(buckets))
	}
}

func TestMakeBuckets_Labels(t *testing.T) {
	// Arrange
	day := ResolveWindow(domain.RangeDay, "", "", fixedNow)
	year := ResolveWindow(domain.RangeYear, "", "", fixedNow)

	// Act
	hourBuckets := makeBuckets(day)
	monthBuckets := makeBuckets(year)

	// Assert
	if hourBuckets[14].label != "14:00" {
		t.Errorf("expected hour label '14:00', got '%s'", hourBuckets[14].label)
	}
	if monthBuckets[0].label != "2025-04" {
		t.Errorf("expected month label '2025-04', got '%s'", monthBuckets[0].label)
	}
}

func TestBucketIndex(t *testing.T) {
	// Arrange
	window := ResolveWindow(domain.RangeWeek, "", "", fixedNow)
	buckets := makeBuckets(window)

	// Act / Assert
	if idx := bucketIndex(buckets, window.Granularity, window.From); idx != 0 {
		t.Errorf("expected window start in bucket 0, got %d", idx)
	}
	if idx := bucketIndex(buckets, window.Granularity, fixedNow); idx != 6 {
		t.Errorf("expected now in last bucket, got %d", idx)
	}
	before := window.From.Add(-time.Second)
	if idx := bucketIndex(buckets, window.Granularity, before); idx != -1 {
		t.Errorf("expected -1 for instant before window, got %d", idx)
	}
	after := window.To.Add(24 * time.Hour)
	if idx := bucketIndex(buckets, window.Granularity, after); idx != -1 {
		t.Errorf("expected -1 for instant after window, got %d", idx)
	}
}
