package babytrack

import "context"

// Intent names the structured query classes produced by the external
// intent classifier. The core never resolves free text itself; it only
// consumes the classifier's (intent, parameters) output.
type Intent string

// Supported intents, one per aggregator query.
const (
	IntentLastFeeding    Intent = "last_feeding"
	IntentLastSleep      Intent = "last_sleep"
	IntentLastDiaper     Intent = "last_diaper"
	IntentLastCrying     Intent = "last_crying"
	IntentFeedingCount   Intent = "feeding_count"
	IntentSleepDuration  Intent = "sleep_duration"
	IntentDiaperCount    Intent = "diaper_count"
	IntentCryingEpisodes Intent = "crying_episodes"
	IntentBabySchedule   Intent = "baby_schedule"
	IntentUnknown        Intent = "unknown"
)

// Params are the parameters the classifier extracted alongside the
// intent.
type Params struct {
	// Period is a time-period token ("today", "yesterday", "this
	// week", ...). Empty or unrecognized tokens default to today.
	Period string
	// Days is the lookback for schedule queries. Zero means the
	// default of 3 days.
	Days int
}

// Classifier is the external natural-language intent resolver. An
// implementation typically calls out to a language model; the core
// only depends on this structured contract.
type Classifier interface {
	Classify(ctx context.Context, text string) (Intent, Params, error)
}

// Answer is the structured result of dispatching one intent. Exactly
// one report field is set, matching Intent.
type Answer struct {
	Intent Intent

	LastFeeding    *LastSessionReport
	LastSleep      *LastSessionReport
	LastCrying     *LastSessionReport
	LastDiaper     *LastDiaperReport
	FeedingCount   *FeedingCountReport
	SleepDuration  *SleepDurationReport
	DiaperCount    *DiaperCountReport
	CryingEpisodes *CryingEpisodesReport
	Schedule       *ScheduleReport
}

// Intents maps classifier output onto aggregator queries. Presentation
// of the structured answers is the front-end's job.
type Intents struct {
	agg  *Aggregator
	opts options
}

// NewIntents creates an intent dispatcher over an aggregator.
func NewIntents(agg *Aggregator, opts ...Option) *Intents {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Intents{agg: agg, opts: o}
}

// scheduleDefaultDays is the lookback for schedule queries when the
// classifier extracted none.
const scheduleDefaultDays = 3

// Handle dispatches one classified intent for a baby. Unknown intents
// fail with ErrUnknownIntent.
func (in *Intents) Handle(ctx context.Context, babyID string, intent Intent, p Params) (*Answer, error) {
	w := ParsePeriod(p.Period, in.opts.clock(), in.opts.location)
	ans := &Answer{Intent: intent}
	var err error

	switch intent {
	case IntentLastFeeding:
		ans.LastFeeding, err = in.agg.LastSession(ctx, babyID, KindFeeding)
	case IntentLastSleep:
		ans.LastSleep, err = in.agg.LastSession(ctx, babyID, KindSleep)
	case IntentLastCrying:
		ans.LastCrying, err = in.agg.LastSession(ctx, babyID, KindCrying)
	case IntentLastDiaper:
		ans.LastDiaper, err = in.agg.LastDiaper(ctx, babyID)
	case IntentFeedingCount:
		ans.FeedingCount, err = in.agg.FeedingCount(ctx, babyID, w)
	case IntentSleepDuration:
		ans.SleepDuration, err = in.agg.SleepDuration(ctx, babyID, w)
	case IntentDiaperCount:
		ans.DiaperCount, err = in.agg.DiaperCount(ctx, babyID, w)
	case IntentCryingEpisodes:
		ans.CryingEpisodes, err = in.agg.CryingEpisodes(ctx, babyID, w)
	case IntentBabySchedule:
		days := p.Days
		if days <= 0 {
			days = scheduleDefaultDays
		}
		ans.Schedule, err = in.agg.Schedule(ctx, babyID, days)
	default:
		return nil, ErrUnknownIntent
	}
	if err != nil {
		return nil, err
	}
	return ans, nil
}
