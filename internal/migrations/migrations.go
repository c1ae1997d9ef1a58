// Package migrations embeds the SQL schema migrations, applied with goose at
// startup when Postgres is configured.
package migrations

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var Migrations embed.FS

func Up(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(Migrations)
	return goose.UpContext(ctx, db, ".")
}
