package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kaiwenloh/babytrack/pkg/babytrack"
)

// Postgres error codes for constraint violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore persists events to PostgreSQL. It is the backend for
// multi-process deployments; all other behavior matches SQLiteStore.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Compile-time check that PostgresStore implements babytrack.Store.
var _ babytrack.Store = (*PostgresStore)(nil)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS babies (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	birth_date TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS feedings (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	amount DOUBLE PRECISION,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sleeps (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS cryings (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ,
	predicted_reason TEXT,
	prediction_confidence DOUBLE PRECISION,
	actual_reason TEXT,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS diapers (
	id TEXT PRIMARY KEY,
	baby_id TEXT NOT NULL REFERENCES babies(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	time TIMESTAMPTZ NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_feedings_baby_start ON feedings(baby_id, start_time);
CREATE INDEX IF NOT EXISTS idx_sleeps_baby_start ON sleeps(baby_id, start_time);
CREATE INDEX IF NOT EXISTS idx_cryings_baby_start ON cryings(baby_id, start_time);
CREATE INDEX IF NOT EXISTS idx_diapers_baby_time ON diapers(baby_id, time);
`

// NewPostgresStore connects to PostgreSQL and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// CreateUser implements babytrack.Store.
func (p *PostgresStore) CreateUser(ctx context.Context, u *babytrack.User) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, username, email) VALUES ($1, $2, $3)
	`, u.ID, u.Username, u.Email)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return babytrack.ErrDuplicateUser
		}
		return &babytrack.StoreError{Op: "create", Entity: "user", Err: err}
	}
	return nil
}

// GetUser implements babytrack.Store.
func (p *PostgresStore) GetUser(ctx context.Context, id string) (*babytrack.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, username, email FROM users WHERE id = $1
	`, id))
}

// GetUserByUsername implements babytrack.Store.
func (p *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*babytrack.User, error) {
	return p.scanUser(p.pool.QueryRow(ctx, `
		SELECT id, username, email FROM users WHERE username = $1
	`, username))
}

func (p *PostgresStore) scanUser(row pgx.Row) (*babytrack.User, error) {
	var u babytrack.User
	err := row.Scan(&u.ID, &u.Username, &u.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, babytrack.ErrUserNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "user", Err: err}
	}
	return &u, nil
}

// CreateBaby implements babytrack.Store.
func (p *PostgresStore) CreateBaby(ctx context.Context, b *babytrack.Baby) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO babies (id, user_id, name, birth_date) VALUES ($1, $2, $3, $4)
	`, b.ID, b.UserID, b.Name, b.BirthDate)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return babytrack.ErrUserNotFound
		}
		return &babytrack.StoreError{Op: "create", Entity: "baby", Err: err}
	}
	return nil
}

// GetBaby implements babytrack.Store.
func (p *PostgresStore) GetBaby(ctx context.Context, id string) (*babytrack.Baby, error) {
	return p.scanBaby(p.pool.QueryRow(ctx, `
		SELECT id, user_id, name, birth_date FROM babies WHERE id = $1
	`, id))
}

// GetBabyByName implements babytrack.Store.
func (p *PostgresStore) GetBabyByName(ctx context.Context, userID, name string) (*babytrack.Baby, error) {
	return p.scanBaby(p.pool.QueryRow(ctx, `
		SELECT id, user_id, name, birth_date FROM babies WHERE user_id = $1 AND name = $2
	`, userID, name))
}

func (p *PostgresStore) scanBaby(row pgx.Row) (*babytrack.Baby, error) {
	var b babytrack.Baby
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &b.BirthDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, babytrack.ErrBabyNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "baby", Err: err}
	}
	normalizeBaby(&b)
	return &b, nil
}

// ListBabies implements babytrack.Store.
func (p *PostgresStore) ListBabies(ctx context.Context, userID string) ([]*babytrack.Baby, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, user_id, name, birth_date FROM babies
		WHERE user_id = $1 ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "baby", Err: err}
	}
	defer rows.Close()

	var result []*babytrack.Baby
	for rows.Next() {
		var b babytrack.Baby
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.BirthDate); err != nil {
			return nil, &babytrack.StoreError{Op: "list", Entity: "baby", Err: err}
		}
		normalizeBaby(&b)
		result = append(result, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "baby", Err: err}
	}
	return result, nil
}

// DeleteBaby implements babytrack.Store.
func (p *PostgresStore) DeleteBaby(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM babies WHERE id = $1`, id)
	if err != nil {
		return &babytrack.StoreError{Op: "delete", Entity: "baby", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return babytrack.ErrBabyNotFound
	}
	return nil
}

// InsertSession implements babytrack.Store.
func (p *PostgresStore) InsertSession(ctx context.Context, sess *babytrack.Session) error {
	var err error
	switch sess.Kind {
	case babytrack.KindFeeding:
		_, err = p.pool.Exec(ctx, `
			INSERT INTO feedings (id, baby_id, type, start_time, end_time, amount, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, sess.ID, sess.BabyID, string(sess.FeedingType), sess.StartTime.UTC(),
			sess.EndTime, sess.Amount, sess.Notes)
	case babytrack.KindSleep:
		_, err = p.pool.Exec(ctx, `
			INSERT INTO sleeps (id, baby_id, start_time, end_time, notes)
			VALUES ($1, $2, $3, $4, $5)
		`, sess.ID, sess.BabyID, sess.StartTime.UTC(), sess.EndTime, sess.Notes)
	case babytrack.KindCrying:
		_, err = p.pool.Exec(ctx, `
			INSERT INTO cryings (id, baby_id, start_time, end_time, predicted_reason,
				prediction_confidence, actual_reason, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, sess.ID, sess.BabyID, sess.StartTime.UTC(), sess.EndTime,
			reasonOrNil(sess.PredictedReason), sess.PredictionConfidence,
			reasonOrNil(sess.ActualReason), sess.Notes)
	default:
		return fmt.Errorf("no session table for kind %q", sess.Kind)
	}

	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return babytrack.ErrBabyNotFound
		}
		return &babytrack.StoreError{Op: "insert", Entity: "session", Err: err}
	}
	return nil
}

// GetSession implements babytrack.Store.
func (p *PostgresStore) GetSession(ctx context.Context, id string) (*babytrack.Session, error) {
	for _, kind := range []babytrack.EventKind{babytrack.KindFeeding, babytrack.KindSleep, babytrack.KindCrying} {
		sess, err := p.querySession(ctx, kind, "id = $1", "", id)
		if errors.Is(err, babytrack.ErrSessionNotFound) {
			continue
		}
		return sess, err
	}
	return nil, babytrack.ErrSessionNotFound
}

func (p *PostgresStore) querySession(ctx context.Context, kind babytrack.EventKind, where, suffix string, args ...any) (*babytrack.Session, error) {
	table, err := sessionTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s %s", sessionColumns(kind), table, where, suffix)
	return scanPgSession(kind, p.pool.QueryRow(ctx, query, args...))
}

func scanPgSession(kind babytrack.EventKind, row pgx.Row) (*babytrack.Session, error) {
	sess := babytrack.Session{Kind: kind}
	var feedType, predicted, actual *string

	var err error
	switch kind {
	case babytrack.KindFeeding:
		err = row.Scan(&sess.ID, &sess.BabyID, &feedType, &sess.StartTime, &sess.EndTime,
			&sess.Amount, &sess.Notes)
	case babytrack.KindCrying:
		err = row.Scan(&sess.ID, &sess.BabyID, &sess.StartTime, &sess.EndTime,
			&predicted, &sess.PredictionConfidence, &actual, &sess.Notes)
	default:
		err = row.Scan(&sess.ID, &sess.BabyID, &sess.StartTime, &sess.EndTime, &sess.Notes)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, babytrack.ErrSessionNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "session", Err: err}
	}

	if feedType != nil {
		sess.FeedingType = babytrack.FeedingType(*feedType)
	}
	if predicted != nil {
		sess.PredictedReason = babytrack.CryingReason(*predicted)
	}
	if actual != nil {
		sess.ActualReason = babytrack.CryingReason(*actual)
	}
	normalizeSession(&sess)
	return &sess, nil
}

// CloseSession implements babytrack.Store.
func (p *PostgresStore) CloseSession(ctx context.Context, id string, end time.Time, attrs babytrack.CloseAttrs) (*babytrack.Session, bool, error) {
	existing, err := p.GetSession(ctx, id)
	if err != nil {
		return nil, false, err
	}

	table, err := sessionTable(existing.Kind)
	if err != nil {
		return nil, false, err
	}

	var tag pgconn.CommandTag
	switch existing.Kind {
	case babytrack.KindFeeding:
		tag, err = p.pool.Exec(ctx, `
			UPDATE feedings
			SET end_time = $1, amount = COALESCE($2, amount), notes = COALESCE($3, notes)
			WHERE id = $4 AND end_time IS NULL
		`, end.UTC(), attrs.Amount, attrs.Notes, id)
	case babytrack.KindCrying:
		var actual *string
		if attrs.ActualReason != nil {
			r := string(*attrs.ActualReason)
			actual = &r
		}
		tag, err = p.pool.Exec(ctx, `
			UPDATE cryings
			SET end_time = $1, actual_reason = COALESCE($2, actual_reason), notes = COALESCE($3, notes)
			WHERE id = $4 AND end_time IS NULL
		`, end.UTC(), actual, attrs.Notes, id)
	default:
		tag, err = p.pool.Exec(ctx, fmt.Sprintf(`
			UPDATE %s
			SET end_time = $1, notes = COALESCE($2, notes)
			WHERE id = $3 AND end_time IS NULL
		`, table), end.UTC(), attrs.Notes, id)
	}
	if err != nil {
		return nil, false, &babytrack.StoreError{Op: "close", Entity: "session", Err: err}
	}

	sess, err := p.GetSession(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return sess, tag.RowsAffected() > 0, nil
}

// OpenSession implements babytrack.Store.
func (p *PostgresStore) OpenSession(ctx context.Context, babyID string, kind babytrack.EventKind) (*babytrack.Session, error) {
	return p.querySession(ctx, kind,
		"baby_id = $1 AND end_time IS NULL",
		"ORDER BY start_time DESC LIMIT 1", babyID)
}

// SetPrediction implements babytrack.Store.
func (p *PostgresStore) SetPrediction(ctx context.Context, id string, reason babytrack.CryingReason, confidence float64) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE cryings SET predicted_reason = $1, prediction_confidence = $2 WHERE id = $3
	`, string(reason), confidence, id)
	if err != nil {
		return &babytrack.StoreError{Op: "predict", Entity: "session", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return babytrack.ErrSessionNotFound
	}
	return nil
}

// ListSessions implements babytrack.Store.
func (p *PostgresStore) ListSessions(ctx context.Context, babyID string, kind babytrack.EventKind, w babytrack.Window) ([]*babytrack.Session, error) {
	table, err := sessionTable(kind)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE baby_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC
	`, sessionColumns(kind), table), babyID, w.Start.UTC(), w.End.UTC())
	if err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "session", Err: err}
	}
	defer rows.Close()

	var result []*babytrack.Session
	for rows.Next() {
		sess, err := scanPgSession(kind, rows)
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
func (p *PostgresStore) LatestSession(ctx context.Context, babyID string, kind babytrack.EventKind) (*babytrack.Session, error) {
	sess, err := p.querySession(ctx, kind, "baby_id = $1", "ORDER BY start_time DESC LIMIT 1", babyID)
	if errors.Is(err, babytrack.ErrSessionNotFound) {
		return nil, nil
	}
	return sess, err
}

// InsertInstant implements babytrack.Store.
func (p *PostgresStore) InsertInstant(ctx context.Context, i *babytrack.Instant) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO diapers (id, baby_id, type, time, notes) VALUES ($1, $2, $3, $4, $5)
	`, i.ID, i.BabyID, string(i.Type), i.Time.UTC(), i.Notes)
	if err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return babytrack.ErrBabyNotFound
		}
		return &babytrack.StoreError{Op: "insert", Entity: "instant", Err: err}
	}
	return nil
}

// ListInstants implements babytrack.Store.
func (p *PostgresStore) ListInstants(ctx context.Context, babyID string, w babytrack.Window) ([]*babytrack.Instant, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, baby_id, type, time, notes FROM diapers
		WHERE baby_id = $1 AND time >= $2 AND time < $3
		ORDER BY time ASC
	`, babyID, w.Start.UTC(), w.End.UTC())
	if err != nil {
		return nil, &babytrack.StoreError{Op: "list", Entity: "instant", Err: err}
	}
	defer rows.Close()

	var result []*babytrack.Instant
	for rows.Next() {
		i, err := scanPgInstant(rows)
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
func (p *PostgresStore) LatestInstant(ctx context.Context, babyID string) (*babytrack.Instant, error) {
	i, err := scanPgInstant(p.pool.QueryRow(ctx, `
		SELECT id, baby_id, type, time, notes FROM diapers
		WHERE baby_id = $1 ORDER BY time DESC LIMIT 1
	`, babyID))
	if errors.Is(err, babytrack.ErrSessionNotFound) {
		return nil, nil
	}
	return i, err
}

func scanPgInstant(row pgx.Row) (*babytrack.Instant, error) {
	var i babytrack.Instant
	var typ string
	err := row.Scan(&i.ID, &i.BabyID, &typ, &i.Time, &i.Notes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, babytrack.ErrSessionNotFound
	}
	if err != nil {
		return nil, &babytrack.StoreError{Op: "get", Entity: "instant", Err: err}
	}
	i.Type = babytrack.DiaperType(typ)
	i.Time = i.Time.UTC()
	return &i, nil
}

// Close implements babytrack.Store.
func (p *PostgresStore) Close() error {
	p.pool.Close()
	return nil
}

// reasonOrNil maps the zero CryingReason to SQL NULL.
func reasonOrNil(r babytrack.CryingReason) *string {
	if r == "" {
		return nil
	}
	s := string(r)
	return &s
}

// normalizeSession converts driver-local timestamps back to UTC.
func normalizeSession(s *babytrack.Session) {
	s.StartTime = s.StartTime.UTC()
	if s.EndTime != nil {
		t := s.EndTime.UTC()
		s.EndTime = &t
	}
}

func normalizeBaby(b *babytrack.Baby) {
	if b.BirthDate != nil {
		t := b.BirthDate.UTC()
		b.BirthDate = &t
	}
}
