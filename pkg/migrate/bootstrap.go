package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/colchonesapp/pkg/db"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/pressly/goose/v3"
)

// Bootstrap brings the invoice ledger schema up to date. It is safe to call on
// every startup: applied versions are skipped and the legacy profit column is
// only added when missing.
func Bootstrap(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	if logg == nil {
		logg = logger.Nop()
	}

	dialect := client.Dialect()
	ctx = logg.WithField(ctx, "dialect", dialect)
	goose.SetLogger(gooseLogger{ctx: ctx, logg: logg})

	logg.Info(ctx, "bootstrapping invoice ledger schema")
	if err := Run(ctx, sqlDB, dialect, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	added, err := EnsureProfitColumn(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("ensuring profit column: %w", err)
	}
	if added {
		logg.Info(ctx, "added profit column to invoice ledger")
	}

	version, err := Version(ctx, sqlDB, dialect)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	logg.Info(logg.WithField(ctx, "schema_version", version), "invoice ledger schema ready")
	return nil
}

type gooseLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.logg.Info(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	g.logg.Error(g.ctx, "goose fatal", fmt.Errorf("%s", msg))
	panic(msg)
}
