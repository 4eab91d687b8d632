package babytrack_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaiwenloh/babytrack/pkg/babytrack"
)

// stubClassifier stands in for the external language-model classifier.
type stubClassifier struct {
	intent babytrack.Intent
	params babytrack.Params
}

func (c stubClassifier) Classify(context.Context, string) (babytrack.Intent, babytrack.Params, error) {
	return c.intent, c.params, nil
}

func newIntentsFixture(t *testing.T) (*aggFixture, *babytrack.Intents) {
	t.Helper()
	f := newAggFixture(t)
	in := babytrack.NewIntents(f.agg, babytrack.WithClock(func() time.Time { return f.now }))
	return f, in
}

func TestHandleDispatch(t *testing.T) {
	f, in := newIntentsFixture(t)
	f.seedDay(t)
	ctx := context.Background()

	tests := []struct {
		intent babytrack.Intent
		check  func(t *testing.T, a *babytrack.Answer)
	}{
		{babytrack.IntentLastFeeding, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.LastFeeding)
			assert.True(t, a.LastFeeding.Found)
		}},
		{babytrack.IntentLastSleep, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.LastSleep)
			assert.True(t, a.LastSleep.Ongoing)
		}},
		{babytrack.IntentLastCrying, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.LastCrying)
			assert.Equal(t, babytrack.ReasonHungry, a.LastCrying.ActualReason)
		}},
		{babytrack.IntentLastDiaper, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.LastDiaper)
			assert.Equal(t, babytrack.DiaperDirty, a.LastDiaper.Type)
		}},
		{babytrack.IntentFeedingCount, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.FeedingCount)
			assert.Equal(t, 3, a.FeedingCount.Total)
		}},
		{babytrack.IntentSleepDuration, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.SleepDuration)
			assert.Equal(t, 2.0, a.SleepDuration.TotalHours)
		}},
		{babytrack.IntentDiaperCount, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.DiaperCount)
			assert.Equal(t, 2, a.DiaperCount.Total)
		}},
		{babytrack.IntentCryingEpisodes, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.CryingEpisodes)
			assert.Equal(t, 1, a.CryingEpisodes.Total)
		}},
		{babytrack.IntentBabySchedule, func(t *testing.T, a *babytrack.Answer) {
			require.NotNil(t, a.Schedule)
			assert.Equal(t, 3, a.Schedule.Days)
		}},
	}
	for _, tc := range tests {
		t.Run(string(tc.intent), func(t *testing.T) {
			a, err := in.Handle(ctx, f.baby.ID, tc.intent, babytrack.Params{})
			require.NoError(t, err)
			assert.Equal(t, tc.intent, a.Intent)
			tc.check(t, a)
		})
	}
}

func TestHandleUnknownIntent(t *testing.T) {
	f, in := newIntentsFixture(t)

	_, err := in.Handle(context.Background(), f.baby.ID, babytrack.IntentUnknown, babytrack.Params{})
	assert.ErrorIs(t, err, babytrack.ErrUnknownIntent)

	_, err = in.Handle(context.Background(), f.baby.ID, babytrack.Intent("weather"), babytrack.Params{})
	assert.ErrorIs(t, err, babytrack.ErrUnknownIntent)
}

func TestHandlePeriodScopesCounts(t *testing.T) {
	f, in := newIntentsFixture(t)
	ctx := context.Background()

	// One diaper change yesterday, one today.
	f.now = time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	_, err := f.tracker.LogInstant(ctx, f.baby.ID, babytrack.DiaperWet, babytrack.InstantOptions{})
	require.NoError(t, err)
	f.now = time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	_, err = f.tracker.LogInstant(ctx, f.baby.ID, babytrack.DiaperDirty, babytrack.InstantOptions{})
	require.NoError(t, err)

	a, err := in.Handle(ctx, f.baby.ID, babytrack.IntentDiaperCount, babytrack.Params{Period: "today"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.DiaperCount.Total)
	assert.Equal(t, 1, a.DiaperCount.Dirty)

	a, err = in.Handle(ctx, f.baby.ID, babytrack.IntentDiaperCount, babytrack.Params{Period: "yesterday"})
	require.NoError(t, err)
	assert.Equal(t, 1, a.DiaperCount.Total)
	assert.Equal(t, 1, a.DiaperCount.Wet)
}

func TestHandleScheduleDays(t *testing.T) {
	f, in := newIntentsFixture(t)
	ctx := context.Background()

	a, err := in.Handle(ctx, f.baby.ID, babytrack.IntentBabySchedule, babytrack.Params{Days: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, a.Schedule.Days)

	// Zero days falls back to the default lookback.
	a, err = in.Handle(ctx, f.baby.ID, babytrack.IntentBabySchedule, babytrack.Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, a.Schedule.Days)
}

func TestClassifierContract(t *testing.T) {
	f, in := newIntentsFixture(t)
	f.seedDay(t)
	ctx := context.Background()

	// A classifier implementation plugs straight into Handle.
	var c babytrack.Classifier = stubClassifier{
		intent: babytrack.IntentFeedingCount,
		params: babytrack.Params{Period: "today"},
	}
	intent, params, err := c.Classify(ctx, "how many times did Sam eat today?")
	require.NoError(t, err)

	a, err := in.Handle(ctx, f.baby.ID, intent, params)
	require.NoError(t, err)
	require.NotNil(t, a.FeedingCount)
}
