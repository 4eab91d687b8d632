package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kaiwenloh/babytrack/pkg/babytrack"
)

// MemoryStore is an in-memory Store implementation. Suitable for tests
// and examples; data is lost when the process exits.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*babytrack.User
	babies   map[string]*babytrack.Baby
	sessions map[string]*babytrack.Session
	instants map[string]*babytrack.Instant
	closed   bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*babytrack.User),
		babies:   make(map[string]*babytrack.Baby),
		sessions: make(map[string]*babytrack.Session),
		instants: make(map[string]*babytrack.Instant),
	}
}

// Compile-time check that MemoryStore implements babytrack.Store.
var _ babytrack.Store = (*MemoryStore)(nil)

// CreateUser persists a new user.
func (m *MemoryStore) CreateUser(_ context.Context, u *babytrack.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return babytrack.ErrStoreClosed
	}
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return babytrack.ErrDuplicateUser
		}
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

// GetUser retrieves a user by id.
func (m *MemoryStore) GetUser(_ context.Context, id string) (*babytrack.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	u, ok := m.users[id]
	if !ok {
		return nil, babytrack.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

// GetUserByUsername retrieves a user by username.
func (m *MemoryStore) GetUserByUsername(_ context.Context, username string) (*babytrack.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	for _, u := range m.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, babytrack.ErrUserNotFound
}

// CreateBaby persists a new baby.
func (m *MemoryStore) CreateBaby(_ context.Context, b *babytrack.Baby) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return babytrack.ErrStoreClosed
	}
	if _, ok := m.users[b.UserID]; !ok {
		return babytrack.ErrUserNotFound
	}
	c := *b
	if b.BirthDate != nil {
		bd := *b.BirthDate
		c.BirthDate = &bd
	}
	m.babies[b.ID] = &c
	return nil
}

// GetBaby retrieves a baby by id.
func (m *MemoryStore) GetBaby(_ context.Context, id string) (*babytrack.Baby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	return m.getBabyLocked(id)
}

// getBabyLocked requires at least a read lock.
func (m *MemoryStore) getBabyLocked(id string) (*babytrack.Baby, error) {
	b, ok := m.babies[id]
	if !ok {
		return nil, babytrack.ErrBabyNotFound
	}
	c := *b
	if b.BirthDate != nil {
		bd := *b.BirthDate
		c.BirthDate = &bd
	}
	return &c, nil
}

// GetBabyByName retrieves a user's baby by display name.
func (m *MemoryStore) GetBabyByName(_ context.Context, userID, name string) (*babytrack.Baby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	for id, b := range m.babies {
		if b.UserID == userID && b.Name == name {
			return m.getBabyLocked(id)
		}
	}
	return nil, babytrack.ErrBabyNotFound
}

// ListBabies returns all babies owned by the user.
func (m *MemoryStore) ListBabies(_ context.Context, userID string) ([]*babytrack.Baby, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	var result []*babytrack.Baby
	for id, b := range m.babies {
		if b.UserID == userID {
			c, _ := m.getBabyLocked(id)
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// DeleteBaby removes a baby and cascades to all its event records.
func (m *MemoryStore) DeleteBaby(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return babytrack.ErrStoreClosed
	}
	if _, ok := m.babies[id]; !ok {
		return babytrack.ErrBabyNotFound
	}
	delete(m.babies, id)
	for sid, s := range m.sessions {
		if s.BabyID == id {
			delete(m.sessions, sid)
		}
	}
	for iid, i := range m.instants {
		if i.BabyID == id {
			delete(m.instants, iid)
		}
	}
	return nil
}

// InsertSession persists a new session record.
func (m *MemoryStore) InsertSession(_ context.Context, s *babytrack.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return babytrack.ErrStoreClosed
	}
	if _, ok := m.babies[s.BabyID]; !ok {
		return babytrack.ErrBabyNotFound
	}
	c := s.Clone()
	c.StartTime = c.StartTime.UTC()
	if c.EndTime != nil {
		t := c.EndTime.UTC()
		c.EndTime = &t
	}
	clearInapplicable(c)
	m.sessions[c.ID] = c
	return nil
}

// clearInapplicable zeroes fields the session's kind has no column for,
// so round-trips match the per-kind SQL schemas.
func clearInapplicable(s *babytrack.Session) {
	if s.Kind != babytrack.KindFeeding {
		s.FeedingType = ""
		s.Amount = nil
	}
	if s.Kind != babytrack.KindCrying {
		s.PredictedReason = ""
		s.PredictionConfidence = nil
		s.ActualReason = ""
	}
}

// GetSession retrieves a session by id.
func (m *MemoryStore) GetSession(_ context.Context, id string) (*babytrack.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, babytrack.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// CloseSession transitions an open session to closed. Already-closed
// sessions are returned unchanged with closed=false.
func (m *MemoryStore) CloseSession(_ context.Context, id string, end time.Time, attrs babytrack.CloseAttrs) (*babytrack.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, babytrack.ErrStoreClosed
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, false, babytrack.ErrSessionNotFound
	}
	if s.EndTime != nil {
		return s.Clone(), false, nil
	}
	endUTC := end.UTC()
	s.EndTime = &endUTC
	if attrs.Amount != nil && s.Kind == babytrack.KindFeeding {
		a := *attrs.Amount
		s.Amount = &a
	}
	if attrs.ActualReason != nil && s.Kind == babytrack.KindCrying {
		s.ActualReason = *attrs.ActualReason
	}
	if attrs.Notes != nil {
		s.Notes = *attrs.Notes
	}
	return s.Clone(), true, nil
}

// OpenSession returns the open session of the kind for the baby.
func (m *MemoryStore) OpenSession(_ context.Context, babyID string, kind babytrack.EventKind) (*babytrack.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	var latest *babytrack.Session
	for _, s := range m.sessions {
		if s.BabyID != babyID || s.Kind != kind || s.EndTime != nil {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	if latest == nil {
		return nil, babytrack.ErrSessionNotFound
	}
	return latest.Clone(), nil
}

// SetPrediction writes the prediction fields onto a crying session.
func (m *MemoryStore) SetPrediction(_ context.Context, id string, reason babytrack.CryingReason, confidence float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return babytrack.ErrStoreClosed
	}
	s, ok := m.sessions[id]
	if !ok || s.Kind != babytrack.KindCrying {
		return babytrack.ErrSessionNotFound
	}
	s.PredictedReason = reason
	c := confidence
	s.PredictionConfidence = &c
	return nil
}

// ListSessions returns sessions of one kind starting in the window,
// ascending by start time.
func (m *MemoryStore) ListSessions(_ context.Context, babyID string, kind babytrack.EventKind, w babytrack.Window) ([]*babytrack.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	var result []*babytrack.Session
	for _, s := range m.sessions {
		if s.BabyID == babyID && s.Kind == kind && w.Contains(s.StartTime) {
			result = append(result, s.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartTime.Before(result[j].StartTime) })
	return result, nil
}

// LatestSession returns the most recent session of one kind, or nil.
func (m *MemoryStore) LatestSession(_ context.Context, babyID string, kind babytrack.EventKind) (*babytrack.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	var latest *babytrack.Session
	for _, s := range m.sessions {
		if s.BabyID != babyID || s.Kind != kind {
			continue
		}
		if latest == nil || s.StartTime.After(latest.StartTime) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.Clone(), nil
}

// InsertInstant persists a new instant record.
func (m *MemoryStore) InsertInstant(_ context.Context, i *babytrack.Instant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return babytrack.ErrStoreClosed
	}
	if _, ok := m.babies[i.BabyID]; !ok {
		return babytrack.ErrBabyNotFound
	}
	c := i.Clone()
	c.Time = c.Time.UTC()
	m.instants[c.ID] = c
	return nil
}

// ListInstants returns instants in the window, ascending by time.
func (m *MemoryStore) ListInstants(_ context.Context, babyID string, w babytrack.Window) ([]*babytrack.Instant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	var result []*babytrack.Instant
	for _, i := range m.instants {
		if i.BabyID == babyID && w.Contains(i.Time) {
			result = append(result, i.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Time.Before(result[j].Time) })
	return result, nil
}

// LatestInstant returns the most recent instant, or nil.
func (m *MemoryStore) LatestInstant(_ context.Context, babyID string) (*babytrack.Instant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, babytrack.ErrStoreClosed
	}
	var latest *babytrack.Instant
	for _, i := range m.instants {
		if i.BabyID != babyID {
			continue
		}
		if latest == nil || i.Time.After(latest.Time) {
			latest = i
		}
	}
	if latest == nil {
		return nil, nil
	}
	return latest.Clone(), nil
}

// Close marks the store closed. Subsequent operations fail with
// ErrStoreClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
