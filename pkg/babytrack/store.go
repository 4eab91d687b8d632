package babytrack

import (
	"context"
	"time"
)

// Store persists users, babies, and event records. Implementations
// live in the store subpackage; all of them must be safe for
// concurrent use and must return timestamps normalized to UTC.
//
// Lookup methods return the package sentinels (ErrBabyNotFound,
// ErrSessionNotFound, ...) for missing records and wrap backend
// failures in *StoreError.
type Store interface {
	// CreateUser persists a new user. Returns ErrDuplicateUser if the
	// username or email is taken.
	CreateUser(ctx context.Context, u *User) error

	// GetUser retrieves a user by id.
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// CreateBaby persists a new baby. Returns ErrUserNotFound if the
	// owning user does not exist.
	CreateBaby(ctx context.Context, b *Baby) error

	// GetBaby retrieves a baby by id.
	GetBaby(ctx context.Context, id string) (*Baby, error)

	// GetBabyByName retrieves a user's baby by display name.
	GetBabyByName(ctx context.Context, userID, name string) (*Baby, error)

	// ListBabies returns all babies owned by the user.
	ListBabies(ctx context.Context, userID string) ([]*Baby, error)

	// DeleteBaby removes a baby and cascades deletion of all its
	// event records. Returns ErrBabyNotFound if the baby is missing.
	DeleteBaby(ctx context.Context, id string) error

	// InsertSession persists a new session record as given.
	InsertSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session of any kind by id.
	GetSession(ctx context.Context, id string) (*Session, error)

	// CloseSession sets the end time and merges closing attributes,
	// but only if the session is still open (end_time IS NULL). If the
	// session was already closed the stored record is returned
	// unchanged, so racing closers observe an idempotent no-op.
	// closed reports whether this call performed the transition.
	CloseSession(ctx context.Context, id string, end time.Time, attrs CloseAttrs) (s *Session, closed bool, err error)

	// OpenSession returns the open session of the given kind for the
	// baby, or ErrSessionNotFound if none is open.
	OpenSession(ctx context.Context, babyID string, kind EventKind) (*Session, error)

	// SetPrediction writes the predicted reason and confidence onto a
	// crying session. A single UPDATE; ActualReason is untouched.
	SetPrediction(ctx context.Context, id string, reason CryingReason, confidence float64) error

	// ListSessions returns sessions of one kind whose start time falls
	// in the window, ascending by start time.
	ListSessions(ctx context.Context, babyID string, kind EventKind, w Window) ([]*Session, error)

	// LatestSession returns the most recent session of one kind, or
	// (nil, nil) if the baby has none. Absence is normal predictor
	// input, not a failure.
	LatestSession(ctx context.Context, babyID string, kind EventKind) (*Session, error)

	// InsertInstant persists a new instant record as given.
	InsertInstant(ctx context.Context, i *Instant) error

	// ListInstants returns instants whose time falls in the window,
	// ascending by time.
	ListInstants(ctx context.Context, babyID string, w Window) ([]*Instant, error)

	// LatestInstant returns the most recent instant, or (nil, nil) if
	// the baby has none.
	LatestInstant(ctx context.Context, babyID string) (*Instant, error)

	// Close releases backend resources.
	Close() error
}

// CloseAttrs carries the optional attributes merged into a session when
// it is closed. Nil fields leave the stored value untouched.
type CloseAttrs struct {
	// Amount is the feeding amount in milliliters.
	Amount *float64
	// ActualReason is the caregiver-reported cause of a crying episode.
	ActualReason *CryingReason
	// Notes is appended free text.
	Notes *string
}
