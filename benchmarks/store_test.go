package benchmarks

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kaiwenloh/babytrack/pkg/babytrack"
	"github.com/kaiwenloh/babytrack/pkg/babytrack/store"
)

func seedBaby(b *testing.B, st babytrack.Store) string {
	b.Helper()
	ctx := context.Background()
	userID := uuid.NewString()
	if err := st.CreateUser(ctx, &babytrack.User{
		ID: userID, Username: "bench", Email: "bench@example.com",
	}); err != nil {
		b.Fatal(err)
	}
	babyID := uuid.NewString()
	if err := st.CreateBaby(ctx, &babytrack.Baby{ID: babyID, UserID: userID, Name: "Sam"}); err != nil {
		b.Fatal(err)
	}
	return babyID
}

func newSession(babyID string, start time.Time) *babytrack.Session {
	return &babytrack.Session{
		ID:          uuid.NewString(),
		BabyID:      babyID,
		Kind:        babytrack.KindFeeding,
		StartTime:   start,
		FeedingType: babytrack.FeedingBottle,
	}
}

// BenchmarkMemoryStore_InsertSession measures in-memory session writes.
func BenchmarkMemoryStore_InsertSession(b *testing.B) {
	st := store.NewMemoryStore()
	defer st.Close()
	babyID := seedBaby(b, st)
	ctx := context.Background()
	base := time.Now().UTC()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.InsertSession(ctx, newSession(babyID, base.Add(time.Duration(i)*time.Second)))
	}
}

// BenchmarkMemoryStore_ListSessions measures a windowed read over a
// day of history.
func BenchmarkMemoryStore_ListSessions(b *testing.B) {
	st := store.NewMemoryStore()
	defer st.Close()
	babyID := seedBaby(b, st)
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 500; i++ {
		_ = st.InsertSession(ctx, newSession(babyID, base.Add(time.Duration(i)*time.Minute)))
	}
	w := babytrack.Window{Start: base, End: base.Add(24 * time.Hour)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = st.ListSessions(ctx, babyID, babytrack.KindFeeding, w)
	}
}

// BenchmarkSQLiteStore_InsertSession measures SQLite session writes.
func BenchmarkSQLiteStore_InsertSession(b *testing.B) {
	st, err := store.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer st.Close()
	babyID := seedBaby(b, st)
	ctx := context.Background()
	base := time.Now().UTC()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = st.InsertSession(ctx, newSession(babyID, base.Add(time.Duration(i)*time.Second)))
	}
}

// BenchmarkSQLiteStore_ListSessions measures SQLite windowed reads.
func BenchmarkSQLiteStore_ListSessions(b *testing.B) {
	st, err := store.NewSQLiteStore(filepath.Join(b.TempDir(), "bench.db"))
	if err != nil {
		b.Fatal(err)
	}
	defer st.Close()
	babyID := seedBaby(b, st)
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 500; i++ {
		_ = st.InsertSession(ctx, newSession(babyID, base.Add(time.Duration(i)*time.Minute)))
	}
	w := babytrack.Window{Start: base, End: base.Add(24 * time.Hour)}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = st.ListSessions(ctx, babyID, babytrack.KindFeeding, w)
	}
}
