package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestApplyClickResetsOnNextUTCDay(t *testing.T) {
	item := &Item{
		OwnerID:         "owner",
		ClickCount:      40,
		DailyClickCount: 7,
		LastClickDate:   ptrTime(time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)),
	}

	update, ok := ApplyClick(item, "u2", time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC))

	assert.True(t, ok)
	assert.Equal(t, int64(41), update.ClickCount)
	assert.Equal(t, int64(1), update.DailyClickCount)
}

func TestApplyClickIncrementsSameDay(t *testing.T) {
	item := &Item{
		OwnerID:         "owner",
		ClickCount:      3,
		DailyClickCount: 3,
		LastClickDate:   ptrTime(time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)),
	}

	update, ok := ApplyClick(item, "u2", time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC))

	assert.True(t, ok)
	assert.Equal(t, int64(4), update.DailyClickCount)
}

func TestApplyClickComparesInUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 2024-01-02 08:00 JST is still 2024-01-01 in UTC.
	item := &Item{
		OwnerID:         "owner",
		DailyClickCount: 2,
		LastClickDate:   ptrTime(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)),
	}

	update, ok := ApplyClick(item, "u2", time.Date(2024, 1, 2, 8, 0, 0, 0, tokyo))

	assert.True(t, ok)
	assert.Equal(t, int64(3), update.DailyClickCount)
}

func TestApplyClickWithoutPreviousClick(t *testing.T) {
	item := &Item{OwnerID: "owner", DailyClickCount: 9}

	update, ok := ApplyClick(item, "u2", time.Now())

	assert.True(t, ok)
	assert.Equal(t, int64(1), update.DailyClickCount)
	assert.Equal(t, int64(1), update.ClickCount)
}

func TestApplyClickSkipsOwner(t *testing.T) {
	item := &Item{OwnerID: "u1", ClickCount: 5}

	_, ok := ApplyClick(item, "u1", time.Now())

	assert.False(t, ok)
}

func TestBoostDeltaFloorsAtZero(t *testing.T) {
	assert.Equal(t, int64(0), BoostDelta(5, 10))
	assert.Equal(t, int64(0), BoostDelta(10, 10))
	assert.Equal(t, int64(4), BoostDelta(14, 10))
}

func TestBoostStats(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	item := &Item{
		IsBoosted:                   true,
		BoostStartTime:              &start,
		BoostEndTime:                ptrTime(start.Add(time.Hour)),
		ImpressionCount:             120,
		BoostImpressionCountAtStart: 100,
		ClickCount:                  3,
		BoostClickCountAtStart:      8,
	}

	stats := item.BoostStats()

	assert.Equal(t, int64(20), stats.ImpressionDelta)
	assert.Equal(t, int64(0), stats.ClickDelta)
	assert.False(t, item.BoostExpired(start.Add(30*time.Minute)))
	assert.True(t, item.BoostExpired(start.Add(time.Hour)))

	item.IsBoosted = false
	item.ImpressionCount = 500
	ended := item.BoostStats()
	assert.Zero(t, ended.ImpressionDelta)
	assert.Zero(t, ended.ClickDelta)
	assert.Equal(t, &start, ended.StartTime)
}
