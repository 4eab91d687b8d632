package store

import (
	"context"
	"fmt"

	"github.com/kaiwenloh/babytrack/pkg/babytrack"
)

// Open constructs the backend named by driver. path is used by the
// sqlite driver and dsn by the postgres driver.
func Open(ctx context.Context, driver, path, dsn string) (babytrack.Store, error) {
	switch driver {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path)
	case "postgres":
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
