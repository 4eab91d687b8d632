package babytrack

import "time"

// User owns babies. Deleting a user cascades to its babies and their
// events at the storage layer.
type User struct {
	ID       string
	Username string
	Email    string
}

// Baby is the owner of all event records tracked for one child.
type Baby struct {
	ID        string
	UserID    string
	Name      string
	BirthDate *time.Time
}

// Session is a time-bounded event: feeding, sleep, or crying episode.
// A session is OPEN while EndTime is nil; closing it is terminal.
// All timestamps are stored and returned in UTC.
type Session struct {
	ID        string
	BabyID    string
	Kind      EventKind
	StartTime time.Time
	EndTime   *time.Time
	Notes     string

	// Feeding only.
	FeedingType FeedingType
	Amount      *float64

	// Crying episode only. PredictedReason and PredictionConfidence
	// are written by the Predictor; ActualReason is caregiver feedback
	// supplied when the episode ends.
	PredictedReason      CryingReason
	PredictionConfidence *float64
	ActualReason         CryingReason
}

// Open reports whether the session has not been closed yet.
func (s *Session) Open() bool {
	return s.EndTime == nil
}

// Duration returns the session length. Open sessions get partial
// credit up to now, so the result grows between calls.
func (s *Session) Duration(now time.Time) time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return now.Sub(s.StartTime)
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	if s.Amount != nil {
		a := *s.Amount
		c.Amount = &a
	}
	if s.PredictionConfidence != nil {
		p := *s.PredictionConfidence
		c.PredictionConfidence = &p
	}
	return &c
}

// Instant is a point-in-time event: a diaper change. It is created
// already terminal and never mutated.
type Instant struct {
	ID     string
	BabyID string
	Type   DiaperType
	Time   time.Time
	Notes  string
}

// Clone returns a copy of the instant.
func (i *Instant) Clone() *Instant {
	c := *i
	return &c
}

// Event is the merged read-side view over all four kinds. Exactly one
// of Session and Instant is set; Time is the anchor time used for
// ordering and window membership (start time for sessions, the change
// time for diapers).
type Event struct {
	Kind    EventKind
	Time    time.Time
	Session *Session
	Instant *Instant
}
