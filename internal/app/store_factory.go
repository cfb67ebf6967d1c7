package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/lussekatt/internal/store"
	"github.com/shrimpsizemoose/lussekatt/internal/store/postgres"
	sredis "github.com/shrimpsizemoose/lussekatt/internal/store/redis"
	"github.com/shrimpsizemoose/lussekatt/internal/store/sqlite"
)

func NewStore(dsn string) (store.StateStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}
	if strings.HasPrefix(dsn, "redis") {
		dbType = store.DBTypeRedis
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn)
	case store.DBTypeRedis:
		return sredis.NewRedisStore(dsn)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
