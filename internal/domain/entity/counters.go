package entity

import "time"

// SameUTCDay reports whether last falls on the same UTC calendar day as now.
// A missing last click is never the same day.
func SameUTCDay(last *time.Time, now time.Time) bool {
	if last == nil || last.IsZero() {
		return false
	}
	ly, lm, ld := last.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ly == ny && lm == nm && ld == nd
}

// ClickUpdate is the write produced by one accepted click.
type ClickUpdate struct {
	ClickCount      int64
	DailyClickCount int64
	LastClickDate   time.Time
}

// ApplyClick computes the counters after a click by actingUserID at now.
// It returns false for self-clicks by the owner, which must not mutate anything.
func ApplyClick(item *Item, actingUserID string, now time.Time) (ClickUpdate, bool) {
	if actingUserID != "" && actingUserID == item.OwnerID {
		return ClickUpdate{}, false
	}

	daily := int64(1)
	if SameUTCDay(item.LastClickDate, now) {
		daily = item.DailyClickCount + 1
	}

	return ClickUpdate{
		ClickCount:      item.ClickCount + 1,
		DailyClickCount: daily,
		LastClickDate:   now,
	}, true
}

// BoostDelta is the growth of a counter since the boost started, floored at zero
// so a counter reset or an out-of-order update never shows a negative delta.
func BoostDelta(current, atStart int64) int64 {
	if d := current - atStart; d > 0 {
		return d
	}
	return 0
}

type BoostStats struct {
	IsBoosted       bool       `json:"is_boosted"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	ImpressionDelta int64      `json:"impression_delta"`
	ClickDelta      int64      `json:"click_delta"`
}

// BoostStats reports deltas only while the boost is live. Once the sweeper
// clears isBoosted the deltas read zero instead of counting later traffic.
func (i *Item) BoostStats() BoostStats {
	stats := BoostStats{
		IsBoosted: i.IsBoosted,
		StartTime: i.BoostStartTime,
		EndTime:   i.BoostEndTime,
	}
	if i.IsBoosted && i.BoostStartTime != nil {
		stats.ImpressionDelta = BoostDelta(i.ImpressionCount, i.BoostImpressionCountAtStart)
		stats.ClickDelta = BoostDelta(i.ClickCount, i.BoostClickCountAtStart)
	}
	return stats
}

// BoostExpired reports whether an active boost window has ended at now.
func (i *Item) BoostExpired(now time.Time) bool {
	return i.IsBoosted && i.BoostEndTime != nil && !i.BoostEndTime.After(now)
}
