package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/kaiwenloh/babytrack/pkg/babytrack"
)

// timeLayout is RFC 3339 with fixed-width nanoseconds so that string
// comparison of stored timestamps matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// SQLiteStore persists events to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Compile-time check that SQLiteStore implements babytrack.Store.
var _ babytrack.Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS babies (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	birth_date TEXT
);

CREATE TABLE IF NOT EXISTS feedings (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT,
	amount REAL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sleeps (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	start_time TEXT NOT NULL,
	end_time TEXT,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cryings (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	start_time TEXT NOT NULL,
	end_time TEXT,
	predicted_reason TEXT,
	prediction_confidence REAL,
	actual_reason TEXT,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS diapers (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	time TEXT NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_feedings_baby_start ON feedings(baby_id, start_time);
CREATE INDEX IF NOT EXISTS idx_sleeps_baby_start ON sleeps(baby_id, start_time);
CREATE INDEX IF NOT EXISTS idx_cryings_baby_start ON cryings(baby_id, start_time);
CREATE INDEX IF NOT EXISTS idx_diapers_baby_time ON diapers(baby_id, time);
`

// NewSQLiteStore creates a new SQLite event store.
// The path should be a file path (e.g., "./babytrack.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Cascading deletes depend on foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// sessionTable maps a session kind to its table name.
func sessionTable(kind babytrack.EventKind) (string, error) {
	switch kind {
	case babytrack.KindFeeding:
		return "feedings", nil
	case babytrack.KindSleep:
		return "sleeps", nil
	case babytrack.KindCrying:
		return "cryings", nil
	default:
		return "", fmt.Errorf("no session table for kind %q", kind)
	}
}

// CreateUser implements babytrack.Store.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *babytrack.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return babytrack.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email) VALUES (?, ?, ?)
	`, u.ID, u.Username, u.Email)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return babytrack.ErrDuplicateUser
		}
		return &babytrack.StoreError{Op: "create", Entity: "user", Err: err}
	}
	return nil
}

// GetUser implements babytrack.Store.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*babytrack.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email FROM users WHERE id = ?
	`, id))
}

// GetUserByUsername implements babytrack.Store.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*babytrack.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email FROM users WHERE username = ?
	`, username))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*babytrack.User, error) {
	var u babytrack.User
	err := row.Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, babytrack.ErrUserNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "user", Err: err}
	}
	return &u, nil
}

// CreateBaby implements babytrack.Store.
func (s *SQLiteStore) CreateBaby(ctx context.Context, b *babytrack.Baby) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return babytrack.ErrStoreClosed
	}

	var birth sql.NullString
	if b.BirthDate != nil {
		birth = sql.NullString{String: encodeTime(*b.BirthDate), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO babies (id, user_id, name, birth_date) VALUES (?, ?, ?, ?)
	`, b.ID, b.UserID, b.Name, birth)

	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return babytrack.ErrUserNotFound
		}
		return &babytrack.StoreError{Op: "create", Entity: "baby", Err: err}
	}
	return nil
}

// GetBaby implements babytrack.Store.
func (s *SQLiteStore) GetBaby(ctx context.Context, id string) (*babytrack.Baby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	return s.scanBaby(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, birth_date FROM babies WHERE id = ?
	`, id))
}

// GetBabyByName implements babytrack.Store.
func (s *SQLiteStore) GetBabyByName(ctx context.Context, userID, name string) (*babytrack.Baby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	return s.scanBaby(s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, birth_date FROM babies WHERE user_id = ? AND name = ?
	`, userID, name))
}

func (s *SQLiteStore) scanBaby(row *sql.Row) (*babytrack.Baby, error) {
	var b babytrack.Baby
	var birth sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &birth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, babytrack.ErrBabyNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "baby", Err: err}
	}
	if birth.Valid {
		t, err := decodeTime(birth.String)
		if err != nil {
			return nil, &babytrack.StoreError{Op: "get", Entity: "baby", Err: err}
		}
		b.BirthDate = &t
	}
	return &b, nil
}

// ListBabies implements babytrack.Store.
func (s *SQLiteStore) ListBabies(ctx context.Context, userID string) ([]*babytrack.Baby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, birth_date FROM babies
		WHERE user_id = ? ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "baby", Err: err}
	}
	defer rows.Close()

	var result []*babytrack.Baby
	for rows.Next() {
		var b babytrack.Baby
		var birth sql.NullString
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &birth); err != nil {
			return nil, &babytrack.StoreError{Op: "list", Entity: "baby", Err: err}
		}
		if birth.Valid {
			t, err := decodeTime(birth.String)
			if err != nil {
				return nil, &babytrack.StoreError{Op: "list", Entity: "baby", Err: err}
			}
			b.BirthDate = &t
		}
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "baby", Err: err}
	}
	return result, nil
}

// DeleteBaby implements babytrack.Store. Event records cascade via
// foreign keys.
func (s *SQLiteStore) DeleteBaby(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return babytrack.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM babies WHERE id = ?`, id)
	if err != nil {
		return &babytrack.StoreError{Op: "delete", Entity: "baby", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &babytrack.StoreError{Op: "delete", Entity: "baby", Err: err}
	}
	if n == 0 {
		return babytrack.ErrBabyNotFound
	}
	return nil
}

// InsertSession implements babytrack.Store.
func (s *SQLiteStore) InsertSession(ctx context.Context, sess *babytrack.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return babytrack.ErrStoreClosed
	}

	var err error
	switch sess.Kind {
	case babytrack.KindFeeding:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO feedings (id, baby_id, type, start_time, end_time, amount, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, sess.ID, sess.BabyID, string(sess.FeedingType), encodeTime(sess.StartTime),
			nullTime(sess.EndTime), nullFloat(sess.Amount), sess.Notes)
	case babytrack.KindSleep:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO sleeps (id, baby_id, start_time, end_time, notes)
			VALUES (?, ?, ?, ?, ?)
		`, sess.ID, sess.BabyID, encodeTime(sess.StartTime), nullTime(sess.EndTime), sess.Notes)
	case babytrack.KindCrying:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO cryings (id, baby_id, start_time, end_time, predicted_reason,
				prediction_confidence, actual_reason, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sess.ID, sess.BabyID, encodeTime(sess.StartTime), nullTime(sess.EndTime),
			nullReason(sess.PredictedReason), nullFloat(sess.PredictionConfidence),
			nullReason(sess.ActualReason), sess.Notes)
	default:
		return fmt.Errorf("no session table for kind %q", sess.Kind)
	}

	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return babytrack.ErrBabyNotFound
		}
		return &babytrack.StoreError{Op: "insert", Entity: "session", Err: err}
	}
	return nil
}

// GetSession implements babytrack.Store. The id is looked up across
// all session tables.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*babytrack.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	return s.getSessionLocked(ctx, id)
}

func (s *SQLiteStore) getSessionLocked(ctx context.Context, id string) (*babytrack.Session, error) {
	for _, kind := range []babytrack.EventKind{babytrack.KindFeeding, babytrack.KindSleep, babytrack.KindCrying} {
		sess, err := s.querySession(ctx, kind, "id = ?", "", id)
		if errors.Is(err, babytrack.ErrSessionNotFound) {
			continue
		}
		return sess, err
	}
	return nil, babytrack.ErrSessionNotFound
}

// querySession fetches a single session of the kind matching the WHERE
// clause, with an optional ORDER BY / LIMIT suffix.
func (s *SQLiteStore) querySession(ctx context.Context, kind babytrack.EventKind, where, suffix string, args ...any) (*babytrack.Session, error) {
	table, err := sessionTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s %s", sessionColumns(kind), table, where, suffix)
	row := s.db.QueryRowContext(ctx, query, args...)
	return scanSession(kind, row)
}

func sessionColumns(kind babytrack.EventKind) string {
	switch kind {
	case babytrack.KindFeeding:
		return "id, baby_id, type, start_time, end_time, amount, notes"
	case babytrack.KindCrying:
		return "id, baby_id, start_time, end_time, predicted_reason, prediction_confidence, actual_reason, notes"
	default:
		return "id, baby_id, start_time, end_time, notes"
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(kind babytrack.EventKind, row rowScanner) (*babytrack.Session, error) {
	sess := babytrack.Session{Kind: kind}
	var start string
	var end, feedType, predicted, actual sql.NullString
	var amount, confidence sql.NullFloat64

	var err error
	switch kind {
	case babytrack.KindFeeding:
		err = row.Scan(&sess.ID, &sess.BabyID, &feedType, &start, &end, &amount, &sess.Notes)
	case babytrack.KindCrying:
		err = row.Scan(&sess.ID, &sess.BabyID, &start, &end, &predicted, &confidence, &actual, &sess.Notes)
	default:
		err = row.Scan(&sess.ID, &sess.BabyID, &start, &end, &sess.Notes)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, babytrack.ErrSessionNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "session", Err: err}
	}

	sess.StartTime, err = decodeTime(start)
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "session", Err: err}
	}
	if end.Valid {
		t, err := decodeTime(end.String)
		if err != nil {
			return nil, &babytrack.StoreError{Op: "get", Entity: "session", Err: err}
		}
		sess.EndTime = &t
	}
	if feedType.Valid {
		sess.FeedingType = babytrack.FeedingType(feedType.String)
	}
	if amount.Valid {
		a := amount.Float64
		sess.Amount = &a
	}
	if predicted.Valid {
		sess.PredictedReason = babytrack.CryingReason(predicted.String)
	}
	if confidence.Valid {
		c := confidence.Float64
		sess.PredictionConfidence = &c
	}
	if actual.Valid {
		sess.ActualReason = babytrack.CryingReason(actual.String)
	}
	return &sess, nil
}

// CloseSession implements babytrack.Store. The UPDATE is conditional on
// end_time IS NULL so a concurrent or repeated close is a no-op.
func (s *SQLiteStore) CloseSession(ctx context.Context, id string, end time.Time, attrs babytrack.CloseAttrs) (*babytrack.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, false, babytrack.ErrStoreClosed
	}

	existing, err := s.getSessionLocked(ctx, id)
	if err != nil {
		return nil, false, err
	}

	table, err := sessionTable(existing.Kind)
	if err != nil {
		return nil, false, err
	}

	var res sql.Result
	switch existing.Kind {
	case babytrack.KindFeeding:
		res, err = s.db.ExecContext(ctx, `
			UPDATE feedings
			SET end_time = ?, amount = COALESCE(?, amount), notes = COALESCE(?, notes)
			WHERE id = ? AND end_time IS NULL
		`, encodeTime(end), nullFloat(attrs.Amount), nullString(attrs.Notes), id)
	case babytrack.KindCrying:
		var actual *string
		if attrs.ActualReason != nil {
			r := string(*attrs.ActualReason)
			actual = &r
		}
		res, err = s.db.ExecContext(ctx, `
			UPDATE cryings
			SET end_time = ?, actual_reason = COALESCE(?, actual_reason), notes = COALESCE(?, notes)
			WHERE id = ? AND end_time IS NULL
		`, encodeTime(end), nullString(actual), nullString(attrs.Notes), id)
	default:
		res, err = s.db.ExecContext(ctx, fmt.Sprintf(`
			UPDATE %s
			SET end_time = ?, notes = COALESCE(?, notes)
			WHERE id = ? AND end_time IS NULL
		`, table), encodeTime(end), nullString(attrs.Notes), id)
	}
	if err != nil {
		return nil, false, &babytrack.StoreError{Op: "close", Entity: "session", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, &babytrack.StoreError{Op: "close", Entity: "session", Err: err}
	}

	sess, err := s.getSessionLocked(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return sess, n > 0, nil
}

// OpenSession implements babytrack.Store.
func (s *SQLiteStore) OpenSession(ctx context.Context, babyID string, kind babytrack.EventKind) (*babytrack.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	return s.querySession(ctx, kind,
		"baby_id = ? AND end_time IS NULL",
		"ORDER BY start_time DESC LIMIT 1", babyID)
}

// SetPrediction implements babytrack.Store.
func (s *SQLiteStore) SetPrediction(ctx context.Context, id string, reason babytrack.CryingReason, confidence float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return babytrack.ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cryings SET predicted_reason = ?, prediction_confidence = ? WHERE id = ?
	`, string(reason), confidence, id)
	if err != nil {
		return &babytrack.StoreError{Op: "predict", Entity: "session", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &babytrack.StoreError{Op: "predict", Entity: "session", Err: err}
	}
	if n == 0 {
		return babytrack.ErrSessionNotFound
	}
	return nil
}

// ListSessions implements babytrack.Store.
func (s *SQLiteStore) ListSessions(ctx context.Context, babyID string, kind babytrack.EventKind, w babytrack.Window) ([]*babytrack.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	table, err := sessionTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE baby_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time ASC
	`, sessionColumns(kind), table), babyID, encodeTime(w.Start), encodeTime(w.End))
	if err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "session", Err: err}
	}
	defer rows.Close()

	var result []*babytrack.Session
	for rows.Next() {
		sess, err := scanSession(kind, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "session", Err: err}
	}
	return result, nil
}

// LatestSession implements babytrack.Store.
func (s *SQLiteStore) LatestSession(ctx context.Context, babyID string, kind babytrack.EventKind) (*babytrack.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	sess, err := s.querySession(ctx, kind, "baby_id = ?", "ORDER BY start_time DESC LIMIT 1", babyID)
	if errors.Is(err, babytrack.ErrSessionNotFound) {
		return nil, nil
	}
	return sess, err
}

// InsertInstant implements babytrack.Store.
func (s *SQLiteStore) InsertInstant(ctx context.Context, i *babytrack.Instant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return babytrack.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diapers (id, baby_id, type, time, notes) VALUES (?, ?, ?, ?, ?)
	`, i.ID, i.BabyID, string(i.Type), encodeTime(i.Time), i.Notes)

	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return babytrack.ErrBabyNotFound
		}
		return &babytrack.StoreError{Op: "insert", Entity: "instant", Err: err}
	}
	return nil
}

// ListInstants implements babytrack.Store.
func (s *SQLiteStore) ListInstants(ctx context.Context, babyID string, w babytrack.Window) ([]*babytrack.Instant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, baby_id, type, time, notes FROM diapers
		WHERE baby_id = ? AND time >= ? AND time < ?
		ORDER BY time ASC
	`, babyID, encodeTime(w.Start), encodeTime(w.End))
	if err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "instant", Err: err}
	}
	defer rows.Close()

	var result []*babytrack.Instant
	for rows.Next() {
		i, err := scanInstant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, i)
	}
	if err := rows.Err(); err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "instant", Err: err}
	}
	return result, nil
}

// LatestInstant implements babytrack.Store.
func (s *SQLiteStore) LatestInstant(ctx context.Context, babyID string) (*babytrack.Instant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, babytrack.ErrStoreClosed
	}

	i, err := scanInstant(s.db.QueryRowContext(ctx, `
		SELECT id, baby_id, type, time, notes FROM diapers
		WHERE baby_id = ? ORDER BY time DESC LIMIT 1
	`, babyID))
	if errors.Is(err, babytrack.ErrSessionNotFound) {
		return nil, nil
	}
	return i, err
}

func scanInstant(row rowScanner) (*babytrack.Instant, error) {
	var i babytrack.Instant
	var typ, ts string
	err := row.Scan(&i.ID, &i.BabyID, &typ, &ts, &i.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, babytrack.ErrSessionNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "instant", Err: err}
	}
	i.Type = babytrack.DiaperType(typ)
	i.Time, err = decodeTime(ts)
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "instant", Err: err}
	}
	return &i, nil
}

// Close implements babytrack.Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullReason(r babytrack.CryingReason) sql.NullString {
	if r == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(r), Valid: true}
}
