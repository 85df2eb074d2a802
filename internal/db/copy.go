package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using PostgreSQL COPY protocol.
// Schema-qualified names ("schema.table") are split before quoting.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	copySource := pgx.CopyFromRows(rows)
	n, err := pool.CopyFrom(ctx, identifier(table), columns, copySource)
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}

// InsertIgnore inserts each distinct value into column of table, skipping
// values that already exist. The column must carry a unique constraint.
// It returns the number of rows actually created.
func InsertIgnore(ctx context.Context, pool Pool, table, column string, values []string) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}

	col := pgx.Identifier{column}.Sanitize()
	sql := "INSERT INTO " + sanitizeTable(table) + " (" + col + ") " +
		"SELECT DISTINCT v FROM unnest($1::text[]) AS t(v) " +
		"ON CONFLICT (" + col + ") DO NOTHING"

	tag, err := pool.Exec(ctx, sql, values)
	if err != nil {
		return 0, eris.Wrapf(err, "db: insert ignore into %s", table)
	}
	return tag.RowsAffected(), nil
}

func identifier(table string) pgx.Identifier {
	if schema, name, ok := cutTable(table); ok {
		return pgx.Identifier{schema, name}
	}
	return pgx.Identifier{table}
}
