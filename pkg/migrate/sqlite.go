package migrate

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// sqliteSchema mirrors the goose migrations for the local sqlite driver, which
// has no enum types, gen_random_uuid() or timestamptz.
//
//go:embed sqlite_schema.sql
var sqliteSchema string

// ApplySQLiteSchema creates every table and index the service needs on a sqlite connection.
// Statements are idempotent, so it is safe to run on every start.
func ApplySQLiteSchema(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db is required")
	}
	for _, stmt := range sqliteStatements() {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}

func sqliteStatements() []string {
	parts := strings.Split(sqliteSchema, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
