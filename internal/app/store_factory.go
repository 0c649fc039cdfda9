package app

import (
	"strings"

	"github.com/shrimpsizemoose/labscore/internal/store"
	"github.com/shrimpsizemoose/labscore/internal/store/postgres"
	"github.com/shrimpsizemoose/labscore/internal/store/sqlite"
)

// NewStore picks the dialect from the DSN. Migrations are applied separately.
func NewStore(dsn string) (store.ScoreStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, "")
	default:
		return sqlite.NewSQLiteStore(dsn, "")
	}
}
