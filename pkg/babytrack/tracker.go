package babytrack

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kaiwenloh/babytrack/pkg/babytrack/observability"
)

// Tracker is the event store: the only component that creates and
// terminates event records. It enforces the session lifecycle
// (OPEN -> CLOSED, terminal) and the one-open-session-per-kind
// invariant on top of a Store backend.
//
// Every operation is a single synchronous round trip to the store;
// a write is visible to any query issued after it returns.
type Tracker struct {
	store Store
	opts  options
}

// NewTracker creates a Tracker on top of a storage backend.
func NewTracker(store Store, opts ...Option) *Tracker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Tracker{store: store, opts: o}
}

// StartOptions carries the kind-specific attributes for StartSession.
type StartOptions struct {
	// FeedingType is required for feeding sessions and must be empty
	// for other kinds.
	FeedingType FeedingType
	// Amount is the feeding amount in milliliters, if already known.
	Amount *float64 `validate:"omitempty,gte=0"`
	// Notes is optional free text.
	Notes string `validate:"max=500"`
}

// EndOptions carries the closing attributes for EndSession. Nil fields
// leave the stored values untouched.
type EndOptions struct {
	// Amount is the feeding amount in milliliters.
	Amount *float64 `validate:"omitempty,gte=0"`
	// ActualReason is the caregiver-reported cause of a crying episode.
	ActualReason *CryingReason
	// Notes replaces the stored notes.
	Notes *string `validate:"omitempty,max=500"`
}

// InstantOptions carries the optional attributes for LogInstant.
type InstantOptions struct {
	// Notes is optional free text.
	Notes string `validate:"max=500"`
}

// StartSession opens a new session of the given kind with start time
// now. It fails with ErrBabyNotFound if the baby does not exist and
// with ErrSessionConflict if the baby already has an open session of
// the same kind.
func (t *Tracker) StartSession(ctx context.Context, babyID string, kind EventKind, opts StartOptions) (*Session, error) {
	ctx, span := t.opts.spans.StartOpSpan(ctx, "start_session", babyID)
	s, err := t.startSession(ctx, babyID, kind, opts)
	t.opts.spans.EndSpanWithError(span, err)
	return s, err
}

func (t *Tracker) startSession(ctx context.Context, babyID string, kind EventKind, opts StartOptions) (*Session, error) {
	if !kind.IsSession() {
		return nil, &ValidationError{Field: "kind", Reason: "not a session kind"}
	}
	if err := checkStruct(opts); err != nil {
		return nil, err
	}
	if kind == KindFeeding {
		if _, err := ParseFeedingType(string(opts.FeedingType)); err != nil {
			return nil, &ValidationError{Field: "feeding_type", Reason: "must be one of: breast bottle solid"}
		}
	} else if opts.FeedingType != "" {
		return nil, &ValidationError{Field: "feeding_type", Reason: "only valid for feeding sessions"}
	}

	if _, err := t.store.GetBaby(ctx, babyID); err != nil {
		return nil, t.fail(ctx, err)
	}

	// Reject a second open session of the same kind so that open
	// state is always recoverable from the store alone.
	switch _, err := t.store.OpenSession(ctx, babyID, kind); {
	case err == nil:
		return nil, ErrSessionConflict
	case !errors.Is(err, ErrSessionNotFound):
		return nil, t.fail(ctx, err)
	}

	s := &Session{
		ID:          uuid.NewString(),
		BabyID:      babyID,
		Kind:        kind,
		StartTime:   t.now(),
		Notes:       opts.Notes,
		FeedingType: opts.FeedingType,
	}
	if opts.Amount != nil {
		a := *opts.Amount
		s.Amount = &a
	}
	if err := t.store.InsertSession(ctx, s); err != nil {
		return nil, t.fail(ctx, err)
	}

	observability.LogSessionStart(t.opts.logger, string(kind), babyID, s.ID)
	t.opts.metrics.RecordSessionStart(ctx, string(kind))
	return s, nil
}

// EndSession closes an open session, setting end time to now and
// merging the closing attributes. Ending an already-closed session is
// a successful no-op that returns the stored record unchanged.
func (t *Tracker) EndSession(ctx context.Context, sessionID string, opts EndOptions) (*Session, error) {
	ctx, span := t.opts.spans.StartOpSpan(ctx, "end_session", sessionID)
	s, err := t.endSession(ctx, sessionID, opts)
	t.opts.spans.EndSpanWithError(span, err)
	return s, err
}

func (t *Tracker) endSession(ctx context.Context, sessionID string, opts EndOptions) (*Session, error) {
	if err := checkStruct(opts); err != nil {
		return nil, err
	}
	if opts.ActualReason != nil {
		if _, err := ParseCryingReason(string(*opts.ActualReason)); err != nil {
			return nil, &ValidationError{Field: "actual_reason", Reason: "must be one of: hungry diaper attention unknown"}
		}
	}

	existing, err := t.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	if !existing.Open() {
		observability.LogSessionEnd(t.opts.logger, string(existing.Kind), sessionID, existing.Duration(t.now()), true)
		return existing, nil
	}

	// Conditional close: the store only transitions when end_time is
	// still null, so a racing double-close degrades to the no-op path.
	s, closed, err := t.store.CloseSession(ctx, sessionID, t.now(), CloseAttrs{
		Amount:       opts.Amount,
		ActualReason: opts.ActualReason,
		Notes:        opts.Notes,
	})
	if err != nil {
		return nil, t.fail(ctx, err)
	}

	observability.LogSessionEnd(t.opts.logger, string(s.Kind), sessionID, s.Duration(t.now()), !closed)
	if closed {
		t.opts.metrics.RecordSessionEnd(ctx, string(s.Kind), s.Duration(t.now()))
	}
	return s, nil
}

// LogInstant records a diaper change. The record is terminal on
// creation. Fails with ErrBabyNotFound if the baby does not exist.
func (t *Tracker) LogInstant(ctx context.Context, babyID string, diaperType DiaperType, opts InstantOptions) (*Instant, error) {
	ctx, span := t.opts.spans.StartOpSpan(ctx, "log_instant", babyID)
	i, err := t.logInstant(ctx, babyID, diaperType, opts)
	t.opts.spans.EndSpanWithError(span, err)
	return i, err
}

func (t *Tracker) logInstant(ctx context.Context, babyID string, diaperType DiaperType, opts InstantOptions) (*Instant, error) {
	if _, err := ParseDiaperType(string(diaperType)); err != nil {
		return nil, &ValidationError{Field: "type", Reason: "must be one of: wet dirty both"}
	}
	if err := checkStruct(opts); err != nil {
		return nil, err
	}
	if _, err := t.store.GetBaby(ctx, babyID); err != nil {
		return nil, t.fail(ctx, err)
	}

	i := &Instant{
		ID:     uuid.NewString(),
		BabyID: babyID,
		Type:   diaperType,
		Time:   t.now(),
		Notes:  opts.Notes,
	}
	if err := t.store.InsertInstant(ctx, i); err != nil {
		return nil, t.fail(ctx, err)
	}

	observability.LogInstant(t.opts.logger, babyID, string(diaperType))
	t.opts.metrics.RecordInstant(ctx, string(diaperType))
	return i, nil
}

// RecentEvents merges all four event kinds whose anchor time falls in
// [now-lookback, now], most recent first, truncated to limit. Each
// call re-queries the store. An unknown baby yields an empty slice.
func (t *Tracker) RecentEvents(ctx context.Context, babyID string, limit int, lookback time.Duration) ([]Event, error) {
	if limit <= 0 {
		return nil, &ValidationError{Field: "limit", Reason: "must be greater than 0"}
	}
	if lookback <= 0 {
		return nil, &ValidationError{Field: "lookback", Reason: "must be greater than 0"}
	}

	now := t.now()
	w := Window{Start: now.Add(-lookback), End: throughNow(now)}

	var events []Event
	for _, kind := range []EventKind{KindFeeding, KindSleep, KindCrying} {
		sessions, err := t.store.ListSessions(ctx, babyID, kind, w)
		if err != nil {
			return nil, t.fail(ctx, err)
		}
		for _, s := range sessions {
			events = append(events, Event{Kind: kind, Time: s.StartTime, Session: s})
		}
	}
	instants, err := t.store.ListInstants(ctx, babyID, w)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	for _, i := range instants {
		events = append(events, Event{Kind: KindDiaper, Time: i.Time, Instant: i})
	}

	sort.Slice(events, func(a, b int) bool {
		if !events[a].Time.Equal(events[b].Time) {
			return events[a].Time.After(events[b].Time)
		}
		return events[a].Kind < events[b].Kind
	})
	if len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// MostRecentOfKind returns the single most recent event of one kind,
// or (nil, nil) if the baby has no record of that kind.
func (t *Tracker) MostRecentOfKind(ctx context.Context, babyID string, kind EventKind) (*Event, error) {
	if kind == KindDiaper {
		i, err := t.store.LatestInstant(ctx, babyID)
		if err != nil {
			return nil, t.fail(ctx, err)
		}
		if i == nil {
			return nil, nil
		}
		return &Event{Kind: KindDiaper, Time: i.Time, Instant: i}, nil
	}
	if !kind.IsSession() {
		return nil, &ValidationError{Field: "kind", Reason: "unknown event kind"}
	}
	s, err := t.store.LatestSession(ctx, babyID, kind)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	if s == nil {
		return nil, nil
	}
	return &Event{Kind: kind, Time: s.StartTime, Session: s}, nil
}

// newUser is the validation shape for CreateUser input.
type newUser struct {
	Username string `validate:"required,max=255"`
	Email    string `validate:"required,email,max=255"`
}

// CreateUser registers a caregiver account.
func (t *Tracker) CreateUser(ctx context.Context, username, email string) (*User, error) {
	if err := checkStruct(newUser{Username: username, Email: email}); err != nil {
		return nil, err
	}
	u := &User{ID: uuid.NewString(), Username: username, Email: email}
	if err := t.store.CreateUser(ctx, u); err != nil {
		return nil, t.fail(ctx, err)
	}
	return u, nil
}

// GetUser retrieves a user by id.
func (t *Tracker) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := t.store.GetUser(ctx, id)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username.
func (t *Tracker) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	u, err := t.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	return u, nil
}

// newBaby is the validation shape for CreateBaby input.
type newBaby struct {
	Name string `validate:"required,max=255"`
}

// CreateBaby registers a baby under the given user.
func (t *Tracker) CreateBaby(ctx context.Context, userID, name string, birthDate *time.Time) (*Baby, error) {
	if err := checkStruct(newBaby{Name: name}); err != nil {
		return nil, err
	}
	b := &Baby{ID: uuid.NewString(), UserID: userID, Name: name}
	if birthDate != nil {
		bd := birthDate.UTC()
		b.BirthDate = &bd
	}
	if err := t.store.CreateBaby(ctx, b); err != nil {
		return nil, t.fail(ctx, err)
	}
	return b, nil
}

// GetBaby retrieves a baby by id.
func (t *Tracker) GetBaby(ctx context.Context, id string) (*Baby, error) {
	b, err := t.store.GetBaby(ctx, id)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	return b, nil
}

// BabyByName retrieves a user's baby by display name.
func (t *Tracker) BabyByName(ctx context.Context, userID, name string) (*Baby, error) {
	b, err := t.store.GetBabyByName(ctx, userID, name)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	return b, nil
}

// Babies lists all babies owned by the user.
func (t *Tracker) Babies(ctx context.Context, userID string) ([]*Baby, error) {
	bs, err := t.store.ListBabies(ctx, userID)
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	return bs, nil
}

// DeleteBaby removes a baby and every event recorded for it. The
// deletion cascades and cannot be undone.
func (t *Tracker) DeleteBaby(ctx context.Context, id string) error {
	if err := t.store.DeleteBaby(ctx, id); err != nil {
		return t.fail(ctx, err)
	}
	observability.LogBabyDeleted(t.opts.logger, id)
	return nil
}

// now returns the current time in UTC from the configured clock.
func (t *Tracker) now() time.Time {
	return t.opts.clock().UTC()
}

// fail records persistence failures on the way out; typed domain
// errors pass through untouched.
func (t *Tracker) fail(ctx context.Context, err error) error {
	var se *StoreError
	if errors.As(err, &se) {
		observability.LogStoreError(t.opts.logger, se.Op, se.Entity, se.Err)
		t.opts.metrics.RecordStoreError(ctx, se.Op)
	}
	return err
}
