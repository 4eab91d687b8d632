// Package store provides persistence backends for babytrack.
//
// Three implementations of babytrack.Store are available:
//
//   - MemoryStore: in-memory maps, for tests and examples
//   - SQLiteStore: embedded SQLite file (pure Go driver), for
//     single-process deployments
//   - PostgresStore: PostgreSQL via pgx, for shared deployments
//
// All backends store timestamps in UTC and enforce the same
// semantics: cascading deletes from babies to their events,
// conditional session close (closing an already-closed session is a
// no-op), and sentinel errors from the babytrack package for
// not-found and conflict conditions.
package store
