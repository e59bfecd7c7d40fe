package progress

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

func noClose() error { return nil }

// Open builds the backend named by kind. path is a directory for the file
// store and a database file (or its directory) for SQLite.
func Open(ctx context.Context, kind, path, databaseURL string) (KV, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", StoreFile:
		kv, err := NewFileKV(path)
		if err != nil {
			return nil, nil, err
		}
		return kv, noClose, nil
	case StoreSQLite:
		if strings.TrimSpace(path) == "" {
			dir, err := DefaultDir()
			if err != nil {
				return nil, nil, err
			}
			path = dir
		}
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "garden.db")
		}
		kv, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil
	case StorePostgres:
		if strings.TrimSpace(databaseURL) == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		kv, err := OpenPostgres(ctx, databaseURL)
		if err != nil {
			return nil, nil, err
		}
		return kv, kv.Close, nil
	case StoreMemory:
		return NewMemoryKV(), noClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want file, sqlite, postgres or memory)", kind)
	}
}
