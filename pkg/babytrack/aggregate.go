package babytrack

import (
	"context"
	"math"
	"sort"
	"time"
)

// Aggregator answers windowed numeric queries over the event history.
// Durations are carried as time.Duration internally; rounding to
// minutes or hours happens only at the report boundary so rounding
// error never compounds across aggregates.
//
// Ongoing sessions get partial credit up to now on every call, so
// duration totals are re-derived per call, never cached.
type Aggregator struct {
	store Store
	opts  options
}

// NewAggregator creates an Aggregator on top of a storage backend.
func NewAggregator(store Store, opts ...Option) *Aggregator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Aggregator{store: store, opts: o}
}

// CountByKind counts events of one kind whose anchor time falls in the
// window. subtype optionally narrows the count: a feeding type for
// feedings, a diaper type for diapers, an actual crying reason for
// crying episodes. The empty subtype counts everything.
func (a *Aggregator) CountByKind(ctx context.Context, babyID string, kind EventKind, subtype string, w Window) (int, error) {
	switch kind {
	case KindDiaper:
		instants, err := a.store.ListInstants(ctx, babyID, w)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, i := range instants {
			if subtype == "" || string(i.Type) == subtype {
				n++
			}
		}
		return n, nil
	case KindFeeding, KindSleep, KindCrying:
		if kind == KindSleep && subtype != "" {
			return 0, &ValidationError{Field: "subtype", Reason: "sleep sessions have no subtype"}
		}
		sessions, err := a.store.ListSessions(ctx, babyID, kind, w)
		if err != nil {
			return 0, err
		}
		n := 0
		for _, s := range sessions {
			switch {
			case subtype == "":
				n++
			case kind == KindFeeding && string(s.FeedingType) == subtype:
				n++
			case kind == KindCrying && string(s.ActualReason) == subtype:
				n++
			}
		}
		return n, nil
	}
	return 0, &ValidationError{Field: "kind", Reason: "unknown event kind"}
}

// TotalDuration sums the durations of all sessions of one kind whose
// start time falls in the window. A session still open at query time
// contributes its elapsed-so-far duration.
func (a *Aggregator) TotalDuration(ctx context.Context, babyID string, kind EventKind, w Window) (time.Duration, error) {
	if !kind.IsSession() {
		return 0, &ValidationError{Field: "kind", Reason: "not a session kind"}
	}
	sessions, err := a.store.ListSessions(ctx, babyID, kind, w)
	if err != nil {
		return 0, err
	}
	now := a.now()
	var total time.Duration
	for _, s := range sessions {
		total += s.Duration(now)
	}
	return total, nil
}

// AverageInterval returns the mean gap between consecutive anchor
// times of events of one kind in the window, in ascending order.
// Fewer than two events yields zero, not an error.
func (a *Aggregator) AverageInterval(ctx context.Context, babyID string, kind EventKind, w Window) (time.Duration, error) {
	anchors, err := a.anchors(ctx, babyID, kind, w)
	if err != nil {
		return 0, err
	}
	if len(anchors) < 2 {
		return 0, nil
	}
	span := anchors[len(anchors)-1].Sub(anchors[0])
	return span / time.Duration(len(anchors)-1), nil
}

// anchors returns ascending anchor times for one kind in a window.
func (a *Aggregator) anchors(ctx context.Context, babyID string, kind EventKind, w Window) ([]time.Time, error) {
	var anchors []time.Time
	if kind == KindDiaper {
		instants, err := a.store.ListInstants(ctx, babyID, w)
		if err != nil {
			return nil, err
		}
		for _, i := range instants {
			anchors = append(anchors, i.Time)
		}
	} else if kind.IsSession() {
		sessions, err := a.store.ListSessions(ctx, babyID, kind, w)
		if err != nil {
			return nil, err
		}
		for _, s := range sessions {
			anchors = append(anchors, s.StartTime)
		}
	} else {
		return nil, &ValidationError{Field: "kind", Reason: "unknown event kind"}
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Before(anchors[j]) })
	return anchors, nil
}

// StatsReport bundles the headline statistics over a lookback window.
type StatsReport struct {
	Window        Window
	FeedingCount  int
	TotalSleep    time.Duration
	SleepHours    float64 // rounded to one decimal
	DiaperCount   int
	WetDiapers    int
	DirtyDiapers  int
	BothDiapers   int
	CryingCount   int
	CryingReasons map[CryingReason]int // by actual reason; unset reasons not counted
}

// Snapshot computes the headline statistics for [now-days*24h, now).
func (a *Aggregator) Snapshot(ctx context.Context, babyID string, days int) (*StatsReport, error) {
	if days <= 0 {
		return nil, &ValidationError{Field: "days", Reason: "must be greater than 0"}
	}
	now := a.now()
	w := LastDays(now, days)
	r := &StatsReport{Window: w, CryingReasons: make(map[CryingReason]int)}

	feedings, err := a.store.ListSessions(ctx, babyID, KindFeeding, w)
	if err != nil {
		return nil, err
	}
	r.FeedingCount = len(feedings)

	sleeps, err := a.store.ListSessions(ctx, babyID, KindSleep, w)
	if err != nil {
		return nil, err
	}
	for _, s := range sleeps {
		r.TotalSleep += s.Duration(now)
	}
	r.SleepHours = roundTo(r.TotalSleep.Hours(), 1)

	instants, err := a.store.ListInstants(ctx, babyID, w)
	if err != nil {
		return nil, err
	}
	r.DiaperCount = len(instants)
	for _, i := range instants {
		switch i.Type {
		case DiaperWet:
			r.WetDiapers++
		case DiaperDirty:
			r.DirtyDiapers++
		case DiaperBoth:
			r.BothDiapers++
		}
	}

	cryings, err := a.store.ListSessions(ctx, babyID, KindCrying, w)
	if err != nil {
		return nil, err
	}
	r.CryingCount = len(cryings)
	for _, c := range cryings {
		if c.ActualReason != "" {
			r.CryingReasons[c.ActualReason]++
		}
	}
	return r, nil
}

// LastSessionReport describes the most recent session of one kind.
type LastSessionReport struct {
	Found           bool
	Kind            EventKind
	StartTime       time.Time
	EndTime         *time.Time
	Ongoing         bool
	DurationMinutes int // rounded; elapsed so far when ongoing

	// Feeding only.
	FeedingType FeedingType
	Amount      *float64

	// Crying only.
	ActualReason CryingReason
}

// LastSession reports on the most recent session of one kind.
// Found is false when the baby has no record of that kind.
func (a *Aggregator) LastSession(ctx context.Context, babyID string, kind EventKind) (*LastSessionReport, error) {
	if !kind.IsSession() {
		return nil, &ValidationError{Field: "kind", Reason: "not a session kind"}
	}
	s, err := a.store.LatestSession(ctx, babyID, kind)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return &LastSessionReport{Kind: kind}, nil
	}
	r := &LastSessionReport{
		Found:           true,
		Kind:            kind,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Ongoing:         s.Open(),
		DurationMinutes: int(math.Round(s.Duration(a.now()).Minutes())),
		FeedingType:     s.FeedingType,
		Amount:          s.Amount,
		ActualReason:    s.ActualReason,
	}
	return r, nil
}

// LastDiaperReport describes the most recent diaper change.
type LastDiaperReport struct {
	Found bool
	Type  DiaperType
	Time  time.Time
}

// LastDiaper reports on the most recent diaper change.
func (a *Aggregator) LastDiaper(ctx context.Context, babyID string) (*LastDiaperReport, error) {
	i, err := a.store.LatestInstant(ctx, babyID)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return &LastDiaperReport{}, nil
	}
	return &LastDiaperReport{Found: true, Type: i.Type, Time: i.Time}, nil
}

// FeedingCountReport breaks down feedings in a window by type.
type FeedingCountReport struct {
	Window      Window
	Total       int
	Breast      int
	Bottle      int
	Solid       int
	BottleTotal float64 // summed bottle amounts in milliliters
}

// FeedingCount counts feedings by type over a window, including the
// total bottle volume.
func (a *Aggregator) FeedingCount(ctx context.Context, babyID string, w Window) (*FeedingCountReport, error) {
	sessions, err := a.store.ListSessions(ctx, babyID, KindFeeding, w)
	if err != nil {
		return nil, err
	}
	r := &FeedingCountReport{Window: w, Total: len(sessions)}
	for _, s := range sessions {
		switch s.FeedingType {
		case FeedingBreast:
			r.Breast++
		case FeedingBottle:
			r.Bottle++
			if s.Amount != nil {
				r.BottleTotal += *s.Amount
			}
		case FeedingSolid:
			r.Solid++
		}
	}
	return r, nil
}

// SleepDurationReport summarizes sleep over a window.
type SleepDurationReport struct {
	Window     Window
	TotalSleep time.Duration
	TotalHours float64 // rounded to one decimal
	Completed  int
	Ongoing    int
	Total      int
}

// SleepDuration sums sleep over a window, counting completed and
// ongoing sessions separately. Ongoing sessions contribute their
// elapsed-so-far duration.
func (a *Aggregator) SleepDuration(ctx context.Context, babyID string, w Window) (*SleepDurationReport, error) {
	sessions, err := a.store.ListSessions(ctx, babyID, KindSleep, w)
	if err != nil {
		return nil, err
	}
	now := a.now()
	r := &SleepDurationReport{Window: w}
	for _, s := range sessions {
		r.TotalSleep += s.Duration(now)
		if s.Open() {
			r.Ongoing++
		} else {
			r.Completed++
		}
	}
	r.Total = r.Completed + r.Ongoing
	r.TotalHours = roundTo(r.TotalSleep.Hours(), 1)
	return r, nil
}

// DiaperCountReport breaks down diaper changes in a window by type.
type DiaperCountReport struct {
	Window Window
	Total  int
	Wet    int
	Dirty  int
	Both   int
}

// DiaperCount counts diaper changes by type over a window.
func (a *Aggregator) DiaperCount(ctx context.Context, babyID string, w Window) (*DiaperCountReport, error) {
	instants, err := a.store.ListInstants(ctx, babyID, w)
	if err != nil {
		return nil, err
	}
	r := &DiaperCountReport{Window: w, Total: len(instants)}
	for _, i := range instants {
		switch i.Type {
		case DiaperWet:
			r.Wet++
		case DiaperDirty:
			r.Dirty++
		case DiaperBoth:
			r.Both++
		}
	}
	return r, nil
}

// CryingEpisodesReport summarizes crying episodes over a window.
type CryingEpisodesReport struct {
	Window       Window
	TotalMinutes int // rounded; ongoing episodes counted up to now
	Completed    int
	Ongoing      int
	Total        int
	// Reasons histograms completed episodes by actual reason;
	// episodes closed without feedback count as unknown.
	Reasons map[CryingReason]int
}

// CryingEpisodes summarizes crying over a window.
func (a *Aggregator) CryingEpisodes(ctx context.Context, babyID string, w Window) (*CryingEpisodesReport, error) {
	sessions, err := a.store.ListSessions(ctx, babyID, KindCrying, w)
	if err != nil {
		return nil, err
	}
	now := a.now()
	r := &CryingEpisodesReport{Window: w, Reasons: make(map[CryingReason]int)}
	var total time.Duration
	for _, s := range sessions {
		total += s.Duration(now)
		if s.Open() {
			r.Ongoing++
			continue
		}
		r.Completed++
		reason := s.ActualReason
		if reason == "" {
			reason = ReasonUnknown
		}
		r.Reasons[reason]++
	}
	r.Total = r.Completed + r.Ongoing
	r.TotalMinutes = int(math.Round(total.Minutes()))
	return r, nil
}

// ScheduleReport describes a baby's rhythm over a recent lookback.
type ScheduleReport struct {
	Days                    int
	FeedingCount            int
	SleepCount              int
	DiaperCount             int
	AvgFeedingIntervalHours float64 // rounded to one decimal
	AvgSleepIntervalHours   float64
	AvgDiaperIntervalHours  float64
	AvgSleepDurationHours   float64 // completed sleeps only
}

// Schedule derives average intervals and sleep length from the last
// days of history. Kinds with fewer than two events report a zero
// interval.
func (a *Aggregator) Schedule(ctx context.Context, babyID string, days int) (*ScheduleReport, error) {
	if days <= 0 {
		return nil, &ValidationError{Field: "days", Reason: "must be greater than 0"}
	}
	now := a.now()
	w := LastDays(now, days)

	feedInterval, err := a.AverageInterval(ctx, babyID, KindFeeding, w)
	if err != nil {
		return nil, err
	}
	sleepInterval, err := a.AverageInterval(ctx, babyID, KindSleep, w)
	if err != nil {
		return nil, err
	}
	diaperInterval, err := a.AverageInterval(ctx, babyID, KindDiaper, w)
	if err != nil {
		return nil, err
	}

	feedings, err := a.store.ListSessions(ctx, babyID, KindFeeding, w)
	if err != nil {
		return nil, err
	}
	sleeps, err := a.store.ListSessions(ctx, babyID, KindSleep, w)
	if err != nil {
		return nil, err
	}
	instants, err := a.store.ListInstants(ctx, babyID, w)
	if err != nil {
		return nil, err
	}

	var sleepTotal time.Duration
	completed := 0
	for _, s := range sleeps {
		if !s.Open() {
			sleepTotal += s.Duration(now)
			completed++
		}
	}
	avgSleep := 0.0
	if completed > 0 {
		avgSleep = sleepTotal.Hours() / float64(completed)
	}

	return &ScheduleReport{
		Days:                    days,
		FeedingCount:            len(feedings),
		SleepCount:              len(sleeps),
		DiaperCount:             len(instants),
		AvgFeedingIntervalHours: roundTo(feedInterval.Hours(), 1),
		AvgSleepIntervalHours:   roundTo(sleepInterval.Hours(), 1),
		AvgDiaperIntervalHours:  roundTo(diaperInterval.Hours(), 1),
		AvgSleepDurationHours:   roundTo(avgSleep, 1),
	}, nil
}

// now returns the current time in UTC from the configured clock.
func (a *Aggregator) now() time.Time {
	return a.opts.clock().UTC()
}

// roundTo rounds v to the given number of decimal places. Used only at
// report boundaries.
func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
