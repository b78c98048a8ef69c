package receipts

import (
	"fmt"
	"io"
	"strconv"

	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	pageWidth   = 190.0
	lineHeight  = 7.0
	descWidth   = 100.0
	qtyWidth    = 20.0
	amountWidth = 35.0
)

// Options controls the receipt header.
type Options struct {
	StoreName string
	// Compress is disabled in tests so the content stream stays readable.
	Compress bool
}

// Render writes a one-page A4 customer receipt for the invoice. Cost and
// profit are internal and never printed.
func Render(w io.Writer, invoice *models.Invoice, opts Options) error {
	if invoice == nil {
		return fmt.Errorf("invoice required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetTitle(fmt.Sprintf("Factura %d", invoice.ID), true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if opts.StoreName != "" {
		pdf.SetFont("Arial", "B", 18)
		pdf.CellFormat(pageWidth, 10, tr(opts.StoreName), "", 1, "C", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(pageWidth, 9, fmt.Sprintf("Factura #%d", invoice.ID), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(pageWidth, lineHeight, tr("Fecha: "+invoice.Timestamp), "", 1, "L", false, 0, "")
	pdf.CellFormat(pageWidth, lineHeight, tr("Método de pago: "+invoice.PaymentMethod), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(descWidth, lineHeight, tr("Descripción"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(qtyWidth, lineHeight, "Cant.", "1", 0, "C", true, 0, "")
	pdf.CellFormat(amountWidth, lineHeight, "Precio", "1", 0, "R", true, 0, "")
	pdf.CellFormat(amountWidth, lineHeight, "Subtotal", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, item := range invoice.Items {
		pdf.CellFormat(descWidth, lineHeight, tr(truncate(item.Description, 55)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(qtyWidth, lineHeight, strconv.Itoa(item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(amountWidth, lineHeight, money(item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(amountWidth, lineHeight, money(item.Subtotal()), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(descWidth+qtyWidth+amountWidth, 9, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(amountWidth, 9, money(invoice.Total), "1", 1, "R", false, 0, "")

	if pdf.Err() {
		return fmt.Errorf("render receipt: %w", pdf.Error())
	}
	return pdf.Output(w)
}

func money(d decimal.Decimal) string {
	return "$ " + d.StringFixed(2)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
