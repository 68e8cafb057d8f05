package analytics

import (
	"time"

	"github.com/voltgrid/console/internal/domain"
)

// Date layouts accepted for custom range bounds, tried in order.
var customDateLayouts = []string{"2006-01-02", time.RFC3339}

// ResolveWindow turns an operator-selected range keyword into a concrete
// reporting window and bucket granularity. It is a pure function of now.
//
// Custom ranges with a missing or unparseable bound silently resolve as the
// month default; that fallback is the defined policy, not an error.
func ResolveWindow(keyword domain.RangeKeyword, customStart, customEnd string, now time.Time) domain.TimeWindow {
	switch keyword {
	case domain.RangeDay:
		return domain.TimeWindow{
			From:        startOfDay(now),
			To:          endOfDay(now),
			Granularity: domain.GranularityHour,
		}
	case domain.RangeWeek:
		return domain.TimeWindow{
			From:        startOfDay(now.AddDate(0, 0, -6)),
			To:          endOfDay(now),
			Granularity: domain.GranularityDay,
		}
	case domain.RangeQuarter:
		return domain.TimeWindow{
			From:        startOfDay(now.AddDate(0, 0, -89)),
			To:          endOfDay(now),
			Granularity: domain.GranularityWeek,
		}
	case domain.RangeYear:
		// Pinned to the first of the month, eleven months back, so the
		// series always spans twelve month buckets ending this month.
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -11, 0)
		return domain.TimeWindow{
			From:        start,
			To:          endOfDay(now),
			Granularity: domain.GranularityMonth,
		}
	case domain.RangeCustom:
		from, okFrom := parseCustomDate(customStart, now.Location())
		to, okTo := parseCustomDate(customEnd, now.Location())
		if !okFrom || !okTo || from.After(to) {
			return ResolveWindow(domain.RangeMonth, "", "", now)
		}
		return domain.TimeWindow{
			From:        from,
			To:          endOfDay(to),
			Granularity: domain.GranularityDay,
		}
	default: // month is the default for unknown keywords as well
		return domain.TimeWindow{
			From:        startOfDay(now.AddDate(0, 0, -29)),
			To:          endOfDay(now),
			Granularity: domain.GranularityDay,
		}
	}
}

func parseCustomDate(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range customDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// bucket is one materialized interval of the resolved window.
type bucket struct {
	start time.Time
	label string
}

// makeBuckets materializes every bucket covering the window, in
// chronological order. The revenue series is built over exactly these
// buckets so empty periods still appear as zero-valued points.
func makeBuckets(window domain.TimeWindow) []bucket {
	if !window.Valid() {
		return nil
	}

	var buckets []bucket
	for cur := truncateToBucket(window.From, window.Granularity); !cur.After(window.To); cur = nextBucket(cur, window.Granularity) {
		buckets = append(buckets, bucket{start: cur, label: bucketLabel(cur, window.Granularity)})
	}
	return buckets
}

func truncateToBucket(t time.Time, g domain.Granularity) time.Time {
	switch g {
	case domain.GranularityHour:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	case domain.GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default: // day and week buckets start at a day boundary
		return startOfDay(t)
	}
}

func nextBucket(t time.Time, g domain.Granularity) time.Time {
	switch g {
	case domain.GranularityHour:
		return t.Add(time.Hour)
	case domain.GranularityWeek:
		return t.AddDate(0, 0, 7)
	case domain.GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketLabel(start time.Time, g domain.Granularity) string {
	switch g {
	case domain.GranularityHour:
		return start.Format("15:00")
	case domain.GranularityMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// bucketIndex locates the bucket an instant falls into, -1 when outside the
// window. Buckets are half-open on the right except the last one, which is
// capped by the window end.
func bucketIndex(buckets []bucket, g domain.Granularity, t time.Time) int {
	for i := len(buckets) - 1; i >= 0; i-- {
		if !t.Before(buckets[i].start) {
			if t.Before(nextBucket(buckets[i].start, g)) {
				return i
			}
			return -1
		}
	}
	return -1
}
