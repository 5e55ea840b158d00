package journal_test

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

func bumpSchemaVersion(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, "UPDATE schema_version SET version = version + 1")
	return err
}
