package babytrack

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/kaiwenloh/babytrack/pkg/babytrack/observability"
)

// Thresholds are the per-cause elapsed-time thresholds the Predictor
// scores against.
type Thresholds struct {
	// Hunger is the time since the last feeding after which hunger
	// becomes the leading explanation.
	Hunger time.Duration
	// Diaper is the time since the last diaper change.
	Diaper time.Duration
	// Attention is the time awake since the last completed sleep.
	Attention time.Duration
}

// DefaultThresholds returns the tuned default thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Hunger:    150 * time.Minute,
		Diaper:    3 * time.Hour,
		Attention: 90 * time.Minute,
	}
}

// Cold-start scores, used when no prior event of a kind exists at all.
// Absence of data is elevated risk, not evidence against the cause.
const (
	coldStartHunger    = 90.0
	coldStartDiaper    = 80.0
	coldStartAttention = 50.0
)

// asleepAttentionScore is the fixed attention score while the latest
// sleep session is still open: a baby should not be asleep and crying
// at once, so the signal is treated as anomalous and low.
const asleepAttentionScore = 10.0

// Confidence bounds.
const (
	minConfidence = 30.0
	maxConfidence = 95.0
)

// ramp is a two-segment piecewise-linear scoring curve against a
// threshold. Below the threshold the score grows at belowRate per
// threshold-unit of elapsed time (clipped to floor); at or above it
// grows at aboveRate (clipped to ceiling).
type ramp struct {
	threshold time.Duration
	belowRate float64
	aboveRate float64
	floor     float64
	ceiling   float64
}

// score evaluates the ramp for an elapsed time. Pure.
func (r ramp) score(elapsed time.Duration) float64 {
	ratio := elapsed.Seconds() / r.threshold.Seconds()
	if ratio < 1 {
		return math.Max(r.floor, r.belowRate*ratio)
	}
	return math.Min(r.ceiling, r.aboveRate*ratio)
}

// hungerScore scores hunger from time since the last feeding.
func hungerScore(elapsed, threshold time.Duration) float64 {
	return ramp{threshold: threshold, belowRate: 40, aboveRate: 70, floor: 0, ceiling: 100}.score(elapsed)
}

// diaperScore scores a dirty diaper from time since the last change.
func diaperScore(elapsed, threshold time.Duration) float64 {
	return ramp{threshold: threshold, belowRate: 30, aboveRate: 70, floor: 0, ceiling: 90}.score(elapsed)
}

// attentionScore scores attention-seeking from time awake.
func attentionScore(elapsed, threshold time.Duration) float64 {
	return ramp{threshold: threshold, belowRate: 50, aboveRate: 65, floor: 10, ceiling: 85}.score(elapsed)
}

// Scores holds the three raw cause scores, each in [0, 100].
type Scores struct {
	Hunger    float64
	Diaper    float64
	Attention float64
}

// Prediction is the outcome of scoring a crying baby.
type Prediction struct {
	// Reason is the highest-scoring cause. Ties break in the fixed
	// order hungry > diaper > attention.
	Reason CryingReason
	// Confidence is in [30, 95]: how far the winner outscores the
	// runner-up, plus half the winning score.
	Confidence float64
	// Scores are the raw per-cause scores behind the prediction.
	Scores Scores
}

// Predictor produces a heuristic cause-of-crying prediction from the
// recency of the baby's last feeding, diaper change, and wake-up. The
// scoring itself never fails: missing history degrades to cold-start
// defaults.
type Predictor struct {
	store      Store
	thresholds Thresholds
	opts       options
}

// NewPredictor creates a Predictor on top of a storage backend.
func NewPredictor(store Store, opts ...Option) *Predictor {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Predictor{store: store, thresholds: DefaultThresholds(), opts: o}
}

// SetThresholds overrides the default scoring thresholds. Zero or
// negative values keep the defaults.
func (p *Predictor) SetThresholds(t Thresholds) {
	if t.Hunger > 0 {
		p.thresholds.Hunger = t.Hunger
	}
	if t.Diaper > 0 {
		p.thresholds.Diaper = t.Diaper
	}
	if t.Attention > 0 {
		p.thresholds.Attention = t.Attention
	}
}

// Predict scores the three causes for a baby at the current instant.
// It has no side effects and is deterministic for a fixed clock and
// history.
func (p *Predictor) Predict(ctx context.Context, babyID string) (Prediction, error) {
	ctx, span := p.opts.spans.StartPredictionSpan(ctx, babyID)
	pred, err := p.predict(ctx, babyID)
	p.opts.spans.EndSpanWithError(span, err)
	return pred, err
}

func (p *Predictor) predict(ctx context.Context, babyID string) (Prediction, error) {
	now := p.opts.clock().UTC()
	var scores Scores

	feeding, err := p.store.LatestSession(ctx, babyID, KindFeeding)
	if err != nil {
		return Prediction{}, err
	}
	if feeding == nil {
		scores.Hunger = coldStartHunger
	} else {
		// Hunger is measured from when the feeding ended; an open
		// feeding falls back to its start.
		anchor := feeding.StartTime
		if feeding.EndTime != nil {
			anchor = *feeding.EndTime
		}
		scores.Hunger = hungerScore(now.Sub(anchor), p.thresholds.Hunger)
	}

	diaper, err := p.store.LatestInstant(ctx, babyID)
	if err != nil {
		return Prediction{}, err
	}
	if diaper == nil {
		scores.Diaper = coldStartDiaper
	} else {
		scores.Diaper = diaperScore(now.Sub(diaper.Time), p.thresholds.Diaper)
	}

	sleep, err := p.store.LatestSession(ctx, babyID, KindSleep)
	if err != nil {
		return Prediction{}, err
	}
	switch {
	case sleep == nil:
		scores.Attention = coldStartAttention
	case sleep.Open():
		scores.Attention = asleepAttentionScore
	default:
		scores.Attention = attentionScore(now.Sub(*sleep.EndTime), p.thresholds.Attention)
	}

	pred := rank(scores)
	observability.LogPrediction(p.opts.logger, babyID, string(pred.Reason), pred.Confidence)
	p.opts.metrics.RecordPrediction(ctx, string(pred.Reason), pred.Confidence)
	return pred, nil
}

// rank picks the winning cause and derives the confidence. Pure and
// deterministic: equal scores resolve in the enumeration order
// hungry > diaper > attention.
func rank(s Scores) Prediction {
	candidates := []struct {
		reason CryingReason
		score  float64
	}{
		{ReasonHungry, s.Hunger},
		{ReasonDiaper, s.Diaper},
		{ReasonAttention, s.Attention},
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.score > best.score {
			best = c
		}
	}
	secondMax := math.Inf(-1)
	for _, c := range candidates {
		if c.reason != best.reason && c.score > secondMax {
			secondMax = c.score
		}
	}
	confidence := (best.score - secondMax) + best.score/2
	confidence = math.Min(maxConfidence, math.Max(minConfidence, confidence))
	return Prediction{Reason: best.reason, Confidence: confidence, Scores: s}
}

// Analyze predicts the cause for the baby's crying episode currently
// in progress and persists the prediction onto that record. Fails with
// ErrNoOpenCrying when no episode is open. The caregiver's actual
// reason is untouched; it only arrives later via EndSession feedback.
func (p *Predictor) Analyze(ctx context.Context, babyID string) (Prediction, error) {
	ctx, span := p.opts.spans.StartPredictionSpan(ctx, babyID)
	pred, err := p.analyze(ctx, babyID)
	p.opts.spans.EndSpanWithError(span, err)
	return pred, err
}

func (p *Predictor) analyze(ctx context.Context, babyID string) (Prediction, error) {
	crying, err := p.store.OpenSession(ctx, babyID, KindCrying)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Prediction{}, ErrNoOpenCrying
		}
		return Prediction{}, err
	}

	pred, err := p.predict(ctx, babyID)
	if err != nil {
		return Prediction{}, err
	}
	if err := p.store.SetPrediction(ctx, crying.ID, pred.Reason, pred.Confidence); err != nil {
		return Prediction{}, err
	}
	return pred, nil
}
