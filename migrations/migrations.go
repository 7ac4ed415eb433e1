// Package migrations embeds the SQL schema so that bookingctl and the e2e suite apply the same files.
package migrations

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"parcel-booking/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed *.sql
var files embed.FS

// Apply runs every migration in file name order and returns the names applied.
// All statements use IF NOT EXISTS, so re-running is harmless.
func Apply(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, errs.Wrap(err, "list migrations")
	}
	sort.Strings(names)

	applied := make([]string, 0, len(names))
	for _, name := range names {
		sql, err := files.ReadFile(name)
		if err != nil {
			return applied, errs.Wrap(err, "read migration "+name)
		}
		if _, err := pool.Exec(ctx, string(sql)); err != nil {
			return applied, errs.Wrap(err, "apply migration "+name)
		}
		applied = append(applied, name)
	}
	return applied, nil
}
