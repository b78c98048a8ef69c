package migrate

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/colchonesapp/pkg/config"
	"github.com/angelmondragon/colchonesapp/pkg/db"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
)

func openLedger(t *testing.T) (*db.Client, *sql.DB) {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver:       config.DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "facturas.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	return client, sqlDB
}

func TestBootstrap_FreshLedger(t *testing.T) {
	ctx := context.Background()
	client, sqlDB := openLedger(t)

	if err := Bootstrap(ctx, client, logger.Nop()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	for _, column := range []string{"id", "fecha", "metodo_pago", "total", "items", "ganancia"} {
		ok, err := hasColumn(ctx, sqlDB, DialectSQLite, invoicesTable, column)
		if err != nil {
			t.Fatalf("hasColumn(%s): %v", column, err)
		}
		if !ok {
			t.Fatalf("expected column %s to exist", column)
		}
	}

	version, err := Version(ctx, sqlDB, DialectSQLite)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 20250820000001 {
		t.Fatalf("expected schema version 20250820000001, got %d", version)
	}
}

func TestBootstrap_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	client, sqlDB := openLedger(t)

	if err := Bootstrap(ctx, client, nil); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if _, err := sqlDB.ExecContext(ctx,
		`INSERT INTO facturas (fecha, metodo_pago, total, ganancia, items) VALUES (?, ?, ?, ?, ?)`,
		"2025-01-15T10:30:00", "EFECTIVO", 2000, 800, `[]`,
	); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := Bootstrap(ctx, client, nil); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}

	var count int
	if err := sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM facturas`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected existing invoice to survive, got %d rows", count)
	}
}

func TestBootstrap_AddsProfitToLegacyLedger(t *testing.T) {
	ctx := context.Background()
	client, sqlDB := openLedger(t)

	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE facturas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fecha TEXT NOT NULL,
		metodo_pago TEXT NOT NULL,
		total REAL NOT NULL,
		items TEXT NOT NULL
	)`); err != nil {
		t.Fatalf("create legacy table: %v", err)
	}
	if _, err := sqlDB.ExecContext(ctx,
		`INSERT INTO facturas (fecha, metodo_pago, total, items) VALUES (?, ?, ?, ?)`,
		"2024-11-02T09:00:00", "DEBITO", 1500, `[]`,
	); err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	if err := Bootstrap(ctx, client, logger.Nop()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	var profit float64
	if err := sqlDB.QueryRowContext(ctx, `SELECT ganancia FROM facturas WHERE id = 1`).Scan(&profit); err != nil {
		t.Fatalf("select profit: %v", err)
	}
	if profit != 0 {
		t.Fatalf("expected legacy profit to default to 0, got %v", profit)
	}
}

func TestEnsureProfitColumn_LeavesExistingColumn(t *testing.T) {
	ctx := context.Background()
	_, sqlDB := openLedger(t)

	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE facturas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fecha TEXT NOT NULL,
		metodo_pago TEXT NOT NULL,
		total REAL NOT NULL,
		ganancia REAL DEFAULT 0,
		items TEXT NOT NULL
	)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	added, err := EnsureProfitColumn(ctx, sqlDB, DialectSQLite)
	if err != nil {
		t.Fatalf("ensure profit column: %v", err)
	}
	if added {
		t.Fatal("expected existing profit column to be left alone")
	}
}

func TestEnsureProfitColumn_UnknownDialect(t *testing.T) {
	_, sqlDB := openLedger(t)
	if _, err := EnsureProfitColumn(context.Background(), sqlDB, "mysql"); err == nil {
		t.Fatal("expected unsupported dialect error")
	}
}

func TestDirFor(t *testing.T) {
	cases := []struct {
		dialect string
		want    string
		wantErr bool
	}{
		{dialect: DialectSQLite, want: "sqlite"},
		{dialect: DialectPostgres, want: "postgres"},
		{dialect: "mysql", wantErr: true},
	}
	for _, tc := range cases {
		got, err := DirFor(tc.dialect)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("DirFor(%q) expected error", tc.dialect)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("DirFor(%q) = %q, %v; want %q", tc.dialect, got, err, tc.want)
		}
	}
}

func TestValidateDir_EmbeddedMigrations(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("embedded migrations invalid: %v", err)
	}
}

func TestCreateSQLMigration_WritesBothDialects(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	paths, err := CreateSQLMigration(root, "Add Customer Name!", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 files, got %d", len(paths))
	}
	for _, p := range paths {
		if filepath.Base(p) != "20250901120000_add_customer_name.sql" {
			t.Fatalf("unexpected filename %s", p)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if !strings.Contains(string(b), "-- +goose Up") {
			t.Fatalf("missing goose header in %s", p)
		}
	}

	if err := ValidateDir(root); err != nil {
		t.Fatalf("validate created migrations: %v", err)
	}

	if _, err := CreateSQLMigration(root, "add customer name", now); err == nil {
		t.Fatal("expected duplicate migration error")
	}
}

func TestValidateDir_Rejects(t *testing.T) {
	cases := []struct {
		name  string
		files map[string]string
	}{
		{
			name: "bad filename",
			files: map[string]string{
				"sqlite/create.sql":   "-- +goose Up\n-- +goose Down\n",
				"postgres/create.sql": "-- +goose Up\n-- +goose Down\n",
			},
		},
		{
			name: "missing down",
			files: map[string]string{
				"sqlite/20250101000000_a.sql":   "-- +goose Up\n",
				"postgres/20250101000000_a.sql": "-- +goose Up\n-- +goose Down\n",
			},
		},
		{
			name: "dialects out of sync",
			files: map[string]string{
				"sqlite/20250101000000_a.sql":   "-- +goose Up\n-- +goose Down\n",
				"postgres/20250102000000_a.sql": "-- +goose Up\n-- +goose Down\n",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			for _, dialect := range dialectDirs {
				if err := os.MkdirAll(filepath.Join(root, dialect), 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
			}
			for name, body := range tc.files {
				if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0o644); err != nil {
					t.Fatalf("write %s: %v", name, err)
				}
			}
			if err := ValidateDir(root); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
