package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	"github.com/shopspring/decimal"
)

func printList(w io.Writer, list []models.Invoice) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "no invoices")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFECHA\tMETODO DE PAGO\tTOTAL\tGANANCIA")
	for _, invoice := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			invoice.ID, invoice.Timestamp, invoice.PaymentMethod, formatMoney(invoice.Total), formatMoney(invoice.Profit))
	}
	return tw.Flush()
}

// printDetail recomputes the per-line profit from the frozen prices, like the
// ledger viewer always did, next to the stored invoice profit.
func printDetail(w io.Writer, invoice *models.Invoice) error {
	fmt.Fprintf(w, "Factura #%d  %s  %s\n\n", invoice.ID, invoice.Timestamp, invoice.PaymentMethod)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DESCRIPCION\tCANT\tPRECIO\tCOSTO\tGANANCIA")
	for _, item := range invoice.Items {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			item.Description, item.Quantity, formatMoney(item.UnitPrice), formatMoney(item.UnitCost), formatMoney(item.Profit()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\nTotal: %s\nGanancia total: %s\n",
		formatMoney(invoice.Total), formatMoney(models.ComputeProfit(invoice.Items)))
	return err
}

// formatMoney renders whole pesos with dot thousands separators, e.g. $1.234.
func formatMoney(d decimal.Decimal) string {
	digits := d.Abs().StringFixed(0)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if d.Round(0).IsNegative() {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
