package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

const (
	invoicesTable = "facturas"
	profitColumn  = "ganancia"
)

// EnsureProfitColumn adds facturas.ganancia when it is missing. Ledgers created
// before profit tracking lack the column, so it is checked against the catalog
// instead of attempting the ALTER and discarding the failure.
func EnsureProfitColumn(ctx context.Context, db *sql.DB, dialect string) (bool, error) {
	if db == nil {
		return false, fmt.Errorf("db is required")
	}
	exists, err := hasColumn(ctx, db, dialect, invoicesTable, profitColumn)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	columnType := "REAL NOT NULL DEFAULT 0"
	if dialect == DialectPostgres {
		columnType = "NUMERIC(14, 2) NOT NULL DEFAULT 0"
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", invoicesTable, profitColumn, columnType)
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return false, fmt.Errorf("adding %s.%s: %w", invoicesTable, profitColumn, err)
	}
	return true, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func hasColumn(ctx context.Context, q queryRower, dialect, table, column string) (bool, error) {
	var query string
	switch dialect {
	case DialectSQLite:
		query = "SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?"
	case DialectPostgres:
		query = "SELECT COUNT(*) FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2"
	default:
		return false, fmt.Errorf("unsupported dialect %q", dialect)
	}

	var count int
	if err := q.QueryRowContext(ctx, query, table, column).Scan(&count); err != nil {
		return false, fmt.Errorf("inspecting %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}
