package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/angelmondragon/colchonesapp/internal/invoices"
	"github.com/angelmondragon/colchonesapp/internal/receipts"
	"github.com/angelmondragon/colchonesapp/pkg/config"
	"github.com/angelmondragon/colchonesapp/pkg/db"
	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/angelmondragon/colchonesapp/pkg/migrate"
)

// facturero browses the ledger: list, filter by day, show one invoice with
// per-line profit, or print its receipt. It never writes invoices; opening
// the ledger bootstraps its schema like the api does.
func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "facturero",
		Usage: "browse the invoice ledger",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list invoices, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "only invoices of this day (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "from", Usage: "first day of a range (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "last day of a range (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "method", Usage: "payment method"},
				},
				Action: withLedger(listInvoices),
			},
			{
				Name:      "show",
				Usage:     "show one invoice with per-line profit",
				ArgsUsage: "<id>",
				Action:    withLedger(showInvoice),
			},
			{
				Name:      "receipt",
				Usage:     "write the PDF receipt of one invoice",
				ArgsUsage: "<id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output file (defaults to factura-<id>.pdf)"},
				},
				Action: withLedger(writeReceipt),
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type ledgerAction func(c *cli.Context, cfg *config.Config, ledger invoices.Service) error

// withLedger opens the configured ledger, bootstraps its schema and hands the
// invoice service to action.
func withLedger(action ledgerAction) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logg := logger.New(logger.Options{
			ServiceName: "facturero",
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			Format:      cfg.App.LogFormat,
			Output:      os.Stderr,
		})

		ctx := c.Context
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		defer client.Close()

		if err := migrate.Bootstrap(ctx, client, logg); err != nil {
			return err
		}
		ledger, err := invoices.NewService(invoices.NewRepository(client.DB()), client, nil)
		if err != nil {
			return err
		}
		return action(c, cfg, ledger)
	}
}

func listInvoices(c *cli.Context, _ *config.Config, ledger invoices.Service) error {
	ctx := c.Context
	var (
		list []models.Invoice
		err  error
	)
	switch {
	case c.IsSet("date"):
		list, err = ledger.ListByDate(ctx, c.String("date"))
	case c.IsSet("from") || c.IsSet("to") || c.IsSet("method"):
		list, err = ledger.Search(ctx, invoices.SearchInput{
			From:          c.String("from"),
			To:            c.String("to"),
			PaymentMethod: c.String("method"),
		})
	default:
		list, err = ledger.ListAll(ctx)
	}
	if err != nil {
		return err
	}
	return printList(c.App.Writer, list)
}

func showInvoice(c *cli.Context, _ *config.Config, ledger invoices.Service) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	invoice, err := ledger.Get(c.Context, id)
	if err != nil {
		return err
	}
	return printDetail(c.App.Writer, invoice)
}

func writeReceipt(c *cli.Context, cfg *config.Config, ledger invoices.Service) error {
	id, err := invoiceID(c)
	if err != nil {
		return err
	}
	invoice, err := ledger.Get(c.Context, id)
	if err != nil {
		return err
	}

	path := c.String("out")
	if path == "" {
		path = fmt.Sprintf("factura-%d.pdf", id)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := receipts.Render(f, invoice, receipts.Options{StoreName: cfg.POS.StoreName, Compress: true}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "receipt written:", path)
	return nil
}

func invoiceID(c *cli.Context) (int64, error) {
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, cli.Exit(fmt.Sprintf("invalid invoice id %q", raw), 2)
	}
	return id, nil
}
