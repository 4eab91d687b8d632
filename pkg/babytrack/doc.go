/*
Package babytrack records time-bounded caregiving events for infants
(feeding, sleep, crying) and instant events (diaper changes), answers
windowed aggregate queries over that history, and heuristically
predicts why a baby is currently crying.

# Overview

Three components share one storage backend:

  - Tracker is the event store. It is the only writer: it opens and
    closes sessions, logs diaper changes, and enforces the lifecycle
    invariants (a session is OPEN until ended exactly once; at most one
    OPEN session per baby and kind).
  - Aggregator turns raw events into numeric summaries over half-open
    time windows, giving sessions still open at query time partial
    credit up to now.
  - Predictor scores three candidate causes of crying (hunger, diaper,
    attention) from the recency of the relevant prior events, using
    explicit piecewise-linear ramps, and records the winner on the open
    crying episode.

All timestamps are normalized to UTC at write time; backends never
store a naive local time.

# Basic Usage

Create a storage backend, then the components on top of it:

	st, err := store.NewSQLiteStore("./babytrack.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer st.Close()

	tracker := babytrack.NewTracker(st)
	agg := babytrack.NewAggregator(st)

	user, _ := tracker.CreateUser(ctx, "jamie", "jamie@example.com")
	baby, _ := tracker.CreateBaby(ctx, user.ID, "Mia", nil)

	feeding, _ := tracker.StartSession(ctx, baby.ID, babytrack.KindFeeding,
	    babytrack.StartOptions{FeedingType: babytrack.FeedingBottle})
	// ... later ...
	amount := 120.0
	tracker.EndSession(ctx, feeding.ID, babytrack.EndOptions{Amount: &amount})

	stats, _ := agg.Snapshot(ctx, baby.ID, 1)
	fmt.Printf("%d feedings, %.1f hours of sleep\n", stats.FeedingCount, stats.SleepHours)

# Crying Prediction

When a crying episode starts, open it as a session and ask the
Predictor to analyze it:

	crying, _ := tracker.StartSession(ctx, baby.ID, babytrack.KindCrying, babytrack.StartOptions{})
	pred, _ := babytrack.NewPredictor(st).Analyze(ctx, baby.ID)
	fmt.Printf("probably %s (%.0f%% confidence)\n", pred.Reason, pred.Confidence)

	// Caregiver feedback when the episode ends:
	reason := babytrack.ReasonHungry
	tracker.EndSession(ctx, crying.ID, babytrack.EndOptions{ActualReason: &reason})

# Intents

The Intents dispatcher maps the structured output of an external
natural-language classifier onto aggregator queries; see the Classifier
interface. Free-text understanding and answer rendering both belong to
the caller.

# Errors

Missing records surface as sentinel errors (ErrBabyNotFound,
ErrSessionNotFound, ...). Malformed input is rejected before any write
with *ValidationError. Backend failures are wrapped in *StoreError and
never retried. Ending an already-closed session is not an error: the
stored record is returned unchanged.
*/
package babytrack
