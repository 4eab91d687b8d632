package babytrack_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiwenloh/babytrack/pkg/babytrack"
)

// aggFixture extends the tracker fixture with an aggregator sharing
// the same store and clock.
type aggFixture struct {
	*fixture
	agg *babytrack.Aggregator
}

func newAggFixture(t *testing.T) *aggFixture {
	t.Helper()
	f := newFixture(t)
	return &aggFixture{
		fixture: f,
		agg:     babytrack.NewAggregator(f.store, babytrack.WithClock(func() time.Time { return f.now })),
	}
}

// seedDay writes a representative day of history ending at f.now:
// three feedings (2 bottle, 1 breast), two diapers, one completed and
// one ongoing sleep, one crying episode with feedback.
func (f *aggFixture) seedDay(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	start := func(kind babytrack.EventKind, opts babytrack.StartOptions) *babytrack.Session {
		s, err := f.tracker.StartSession(ctx, f.baby.ID, kind, opts)
		require.NoError(t, err)
		return s
	}
	end := func(id string, opts babytrack.EndOptions) {
		_, err := f.tracker.EndSession(ctx, id, opts)
		require.NoError(t, err)
	}

	amount1, amount2 := 120.0, 90.0

	// T+0: bottle feeding, 20 min.
	s := start(babytrack.KindFeeding, babytrack.StartOptions{FeedingType: babytrack.FeedingBottle, Amount: &amount1})
	f.advance(20 * time.Minute)
	end(s.ID, babytrack.EndOptions{})

	// T+30m: wet diaper.
	f.advance(10 * time.Minute)
	_, err := f.tracker.LogInstant(ctx, f.baby.ID, babytrack.DiaperWet, babytrack.InstantOptions{})
	require.NoError(t, err)

	// T+1h: sleep, 90 min.
	f.advance(30 * time.Minute)
	s = start(babytrack.KindSleep, babytrack.StartOptions{})
	f.advance(90 * time.Minute)
	end(s.ID, babytrack.EndOptions{})

	// T+3h: crying for 15 min, hungry.
	f.advance(30 * time.Minute)
	s = start(babytrack.KindCrying, babytrack.StartOptions{})
	f.advance(15 * time.Minute)
	hungry := babytrack.ReasonHungry
	end(s.ID, babytrack.EndOptions{ActualReason: &hungry})

	// T+3h15m: breast feeding, 25 min.
	s = start(babytrack.KindFeeding, babytrack.StartOptions{FeedingType: babytrack.FeedingBreast})
	f.advance(25 * time.Minute)
	end(s.ID, babytrack.EndOptions{})

	// T+4h: dirty diaper.
	f.advance(20 * time.Minute)
	_, err = f.tracker.LogInstant(ctx, f.baby.ID, babytrack.DiaperDirty, babytrack.InstantOptions{})
	require.NoError(t, err)

	// T+5h: second bottle feeding, 20 min.
	f.advance(60 * time.Minute)
	s = start(babytrack.KindFeeding, babytrack.StartOptions{FeedingType: babytrack.FeedingBottle, Amount: &amount2})
	f.advance(20 * time.Minute)
	end(s.ID, babytrack.EndOptions{})

	// T+6h: sleep still ongoing at query time.
	f.advance(40 * time.Minute)
	start(babytrack.KindSleep, babytrack.StartOptions{})
	f.advance(30 * time.Minute)
}

func TestCountByKind(t *testing.T) {
	f := newAggFixture(t)
	f.seedDay(t)
	ctx := context.Background()
	w := babytrack.LastDays(f.now, 1)

	n, err := f.agg.CountByKind(ctx, f.baby.ID, babytrack.KindFeeding, "", w)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = f.agg.CountByKind(ctx, f.baby.ID, babytrack.KindFeeding, "bottle", w)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.agg.CountByKind(ctx, f.baby.ID, babytrack.KindDiaper, "dirty", w)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.agg.CountByKind(ctx, f.baby.ID, babytrack.KindCrying, "hungry", w)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var verr *babytrack.ValidationError
	_, err = f.agg.CountByKind(ctx, f.baby.ID, babytrack.KindSleep, "deep", w)
	assert.ErrorAs(t, err, &verr)
}

func TestTotalDurationPartialCredit(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	_, err := f.tracker.StartSession(ctx, f.baby.ID, babytrack.KindSleep, babytrack.StartOptions{})
	require.NoError(t, err)
	startAt := f.now

	f.advance(time.Hour)
	w := babytrack.Window{Start: startAt.Add(-time.Minute), End: f.now.Add(time.Minute)}
	d1, err := f.agg.TotalDuration(ctx, f.baby.ID, babytrack.KindSleep, w)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d1)

	// The open session keeps accruing as the clock advances.
	f.advance(30 * time.Minute)
	d2, err := f.agg.TotalDuration(ctx, f.baby.ID, babytrack.KindSleep, w)
	require.NoError(t, err)
	assert.Greater(t, d2, d1)
	assert.Equal(t, 90*time.Minute, d2)
}

func TestAverageInterval(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	w := babytrack.LastDays(f.now.Add(12*time.Hour), 1)

	// No events, and then a single event: both yield zero.
	d, err := f.agg.AverageInterval(ctx, f.baby.ID, babytrack.KindDiaper, w)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	_, err = f.tracker.LogInstant(ctx, f.baby.ID, babytrack.DiaperWet, babytrack.InstantOptions{})
	require.NoError(t, err)
	d, err = f.agg.AverageInterval(ctx, f.baby.ID, babytrack.KindDiaper, w)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), d)

	// Two more, 2h and 6h later: mean gap is 3h.
	f.advance(2 * time.Hour)
	_, err = f.tracker.LogInstant(ctx, f.baby.ID, babytrack.DiaperWet, babytrack.InstantOptions{})
	require.NoError(t, err)
	f.advance(4 * time.Hour)
	_, err = f.tracker.LogInstant(ctx, f.baby.ID, babytrack.DiaperDirty, babytrack.InstantOptions{})
	require.NoError(t, err)

	d, err = f.agg.AverageInterval(ctx, f.baby.ID, babytrack.KindDiaper, w)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour, d)
}

func TestSnapshot(t *testing.T) {
	f := newAggFixture(t)
	f.seedDay(t)

	r, err := f.agg.Snapshot(context.Background(), f.baby.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, r.FeedingCount)
	assert.Equal(t, 2, r.DiaperCount)
	assert.Equal(t, 1, r.WetDiapers)
	assert.Equal(t, 1, r.DirtyDiapers)
	assert.Equal(t, 1, r.CryingCount)
	assert.Equal(t, 1, r.CryingReasons[babytrack.ReasonHungry])

	// 90 min completed + 30 min ongoing = 2.0 hours.
	assert.Equal(t, 2*time.Hour, r.TotalSleep)
	assert.Equal(t, 2.0, r.SleepHours)

	var verr *babytrack.ValidationError
	_, err = f.agg.Snapshot(context.Background(), f.baby.ID, 0)
	assert.ErrorAs(t, err, &verr)
}

func TestLastSession(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	r, err := f.agg.LastSession(ctx, f.baby.ID, babytrack.KindFeeding)
	require.NoError(t, err)
	assert.False(t, r.Found)

	f.seedDay(t)

	r, err = f.agg.LastSession(ctx, f.baby.ID, babytrack.KindFeeding)
	require.NoError(t, err)
	require.True(t, r.Found)
	assert.False(t, r.Ongoing)
	assert.Equal(t, babytrack.FeedingBottle, r.FeedingType)
	assert.Equal(t, 20, r.DurationMinutes)
	require.NotNil(t, r.Amount)
	assert.Equal(t, 90.0, *r.Amount)

	// The second sleep is still open, so the report is ongoing and its
	// duration grows with the clock.
	r, err = f.agg.LastSession(ctx, f.baby.ID, babytrack.KindSleep)
	require.NoError(t, err)
	require.True(t, r.Found)
	assert.True(t, r.Ongoing)
	assert.Equal(t, 30, r.DurationMinutes)

	f.advance(15 * time.Minute)
	r, err = f.agg.LastSession(ctx, f.baby.ID, babytrack.KindSleep)
	require.NoError(t, err)
	assert.Equal(t, 45, r.DurationMinutes)
}

func TestLastDiaper(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	r, err := f.agg.LastDiaper(ctx, f.baby.ID)
	require.NoError(t, err)
	assert.False(t, r.Found)

	f.seedDay(t)

	r, err = f.agg.LastDiaper(ctx, f.baby.ID)
	require.NoError(t, err)
	require.True(t, r.Found)
	assert.Equal(t, babytrack.DiaperDirty, r.Type)
}

func TestFeedingCount(t *testing.T) {
	f := newAggFixture(t)
	f.seedDay(t)

	r, err := f.agg.FeedingCount(context.Background(), f.baby.ID, babytrack.LastDays(f.now, 1))
	require.NoError(t, err)

	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Bottle)
	assert.Equal(t, 1, r.Breast)
	assert.Equal(t, 0, r.Solid)
	assert.Equal(t, 210.0, r.BottleTotal)
}

func TestSleepDuration(t *testing.T) {
	f := newAggFixture(t)
	f.seedDay(t)

	r, err := f.agg.SleepDuration(context.Background(), f.baby.ID, babytrack.LastDays(f.now, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, r.Completed)
	assert.Equal(t, 1, r.Ongoing)
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, 2.0, r.TotalHours)
}

func TestCryingEpisodes(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()
	f.seedDay(t)

	// Add an episode closed without feedback: it histograms as unknown.
	s, err := f.tracker.StartSession(ctx, f.baby.ID, babytrack.KindCrying, babytrack.StartOptions{})
	require.NoError(t, err)
	f.advance(5 * time.Minute)
	_, err = f.tracker.EndSession(ctx, s.ID, babytrack.EndOptions{})
	require.NoError(t, err)

	r, err := f.agg.CryingEpisodes(ctx, f.baby.ID, babytrack.LastDays(f.now, 1))
	require.NoError(t, err)

	assert.Equal(t, 2, r.Completed)
	assert.Equal(t, 0, r.Ongoing)
	assert.Equal(t, 20, r.TotalMinutes)
	assert.Equal(t, 1, r.Reasons[babytrack.ReasonHungry])
	assert.Equal(t, 1, r.Reasons[babytrack.ReasonUnknown])
}

func TestSchedule(t *testing.T) {
	f := newAggFixture(t)
	ctx := context.Background()

	// Feedings every 3 hours, diapers every 4.
	for i := 0; i < 3; i++ {
		s, err := f.tracker.StartSession(ctx, f.baby.ID, babytrack.KindFeeding, babytrack.StartOptions{
			FeedingType: babytrack.FeedingBreast,
		})
		require.NoError(t, err)
		f.advance(20 * time.Minute)
		_, err = f.tracker.EndSession(ctx, s.ID, babytrack.EndOptions{})
		require.NoError(t, err)
		f.advance(2*time.Hour + 40*time.Minute)
	}

	r, err := f.agg.Schedule(ctx, f.baby.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Days)
	assert.Equal(t, 3, r.FeedingCount)
	assert.Equal(t, 3.0, r.AvgFeedingIntervalHours)
	assert.Equal(t, 0.0, r.AvgDiaperIntervalHours)
	assert.Equal(t, 0.0, r.AvgSleepDurationHours)
}
