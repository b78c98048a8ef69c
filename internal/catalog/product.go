package catalog

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/colchonesapp/pkg/enums"
	"github.com/shopspring/decimal"
)

// Column keys used by the catalog spreadsheets.
const (
	ColumnCode            = "CÓDIGO"
	ColumnCodeUnaccented  = "CODIGO"
	ColumnModel           = "MODELO"
	ColumnCharacteristics = "CARACTERISTICAS"
	ColumnProvider        = "PROVEEDOR"
	ColumnCost            = "COSTO"
	ColumnCash            = "EFECTIVO/TRANSF"
	ColumnCard            = "DEBIT/CREDIT"
	ColumnInstallments3   = "3 CUOTAS"
	ColumnInstallments6   = "6 CUOTAS"
)

var priceColumns = map[enums.PriceField]string{
	enums.PriceFieldCash:          ColumnCash,
	enums.PriceFieldCard:          ColumnCard,
	enums.PriceFieldInstallments3: ColumnInstallments3,
	enums.PriceFieldInstallments6: ColumnInstallments6,
}

// PriceColumn returns the catalog column holding the given price field.
func PriceColumn(field enums.PriceField) string {
	return priceColumns[field]
}

// Row is a parsed catalog row as handed over by the ingestion layer.
type Row map[string]any

// Prices holds one optional unit price per payment price field.
type Prices struct {
	Cash          decimal.NullDecimal `json:"cash"`
	Card          decimal.NullDecimal `json:"card"`
	Installments3 decimal.NullDecimal `json:"installments_3"`
	Installments6 decimal.NullDecimal `json:"installments_6"`
}

// For returns the price stored for field.
func (p Prices) For(field enums.PriceField) decimal.NullDecimal {
	switch field {
	case enums.PriceFieldCash:
		return p.Cash
	case enums.PriceFieldCard:
		return p.Card
	case enums.PriceFieldInstallments3:
		return p.Installments3
	case enums.PriceFieldInstallments6:
		return p.Installments6
	}
	return decimal.NullDecimal{}
}

func (p *Prices) set(field enums.PriceField, value decimal.NullDecimal) {
	switch field {
	case enums.PriceFieldCash:
		p.Cash = value
	case enums.PriceFieldCard:
		p.Card = value
	case enums.PriceFieldInstallments3:
		p.Installments3 = value
	case enums.PriceFieldInstallments6:
		p.Installments6 = value
	}
}

// Product is the typed form of a catalog row.
type Product struct {
	Code            string              `json:"code"`
	Model           string              `json:"model"`
	Characteristics string              `json:"characteristics"`
	Provider        string              `json:"provider,omitempty"`
	Cost            decimal.NullDecimal `json:"cost"`
	Prices          Prices              `json:"prices"`
}

// Description is "Model Characteristics", or a label built from the code when
// both are blank.
func (p Product) Description() string {
	desc := strings.TrimSpace(strings.TrimSpace(p.Model) + " " + strings.TrimSpace(p.Characteristics))
	if desc != "" {
		return desc
	}
	return fmt.Sprintf("Producto %s", p.Code)
}

// DataQualityWarning reports a recoverable gap in a product row. The affected
// value is treated as 0.
type DataQualityWarning struct {
	Code   string
	Field  string
	Issue  enums.DataQualityIssue
	Detail string
}

func (w DataQualityWarning) String() string {
	msg := fmt.Sprintf("product %s: %s %s", w.Code, w.Field, w.Issue)
	if w.Detail != "" {
		msg += ": " + w.Detail
	}
	return msg
}
