package catalog

import (
	"fmt"

	"github.com/angelmondragon/colchonesapp/pkg/enums"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/shopspring/decimal"
)

// Markup columns carry the fractional markup applied over cost per price field.
const (
	ColumnMarkupCash          = "PORC_EFECTIVO"
	ColumnMarkupCard          = "PORC_TRANSF"
	ColumnMarkupInstallments3 = "PORC_3CUOTAS"
	ColumnMarkupInstallments6 = "PORC_6CUOTAS"
)

var markupColumns = []struct {
	field  enums.PriceField
	column string
}{
	{enums.PriceFieldCash, ColumnMarkupCash},
	{enums.PriceFieldCard, ColumnMarkupCard},
	{enums.PriceFieldInstallments3, ColumnMarkupInstallments3},
	{enums.PriceFieldInstallments6, ColumnMarkupInstallments6},
}

var fifty = decimal.NewFromInt(50)

// RoundUpTo50 rounds value up to the next multiple of 50.
func RoundUpTo50(value decimal.Decimal) decimal.Decimal {
	return value.Div(fifty).Ceil().Mul(fifty)
}

// PricesFromMarkup derives every price as ceil(cost*(1+markup)/50)*50. The
// cost and all markup columns must be present; a null markup counts as 0.
func PricesFromMarkup(row Row) (Prices, error) {
	rawCost, ok := row[ColumnCost]
	if !ok {
		return Prices{}, missingColumn(ColumnCost)
	}
	for _, m := range markupColumns {
		if _, ok := row[m.column]; !ok {
			return Prices{}, missingColumn(m.column)
		}
	}

	if rawCost == nil {
		return Prices{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be numeric", ColumnCost))
	}
	cost, err := toDecimal(rawCost)
	if err != nil {
		return Prices{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("%s must be numeric", ColumnCost))
	}

	var prices Prices
	one := decimal.NewFromInt(1)
	for _, m := range markupColumns {
		markup := decimal.Zero
		if raw := row[m.column]; raw != nil {
			markup, err = toDecimal(raw)
			if err != nil {
				return Prices{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("%s must be numeric", m.column))
			}
		}
		prices.set(m.field, decimal.NewNullDecimal(RoundUpTo50(cost.Mul(one.Add(markup)))))
	}
	return prices, nil
}

// InstallmentAmount is the per-installment quote floor(price/n).
func InstallmentAmount(price decimal.Decimal, installments int) (decimal.Decimal, error) {
	if installments <= 0 {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "installments must be positive")
	}
	return price.Div(decimal.NewFromInt(int64(installments))).Floor(), nil
}

func missingColumn(column string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("missing required field %q", column)).
		WithDetails(map[string]string{"field": column})
}
