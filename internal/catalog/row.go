package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/angelmondragon/colchonesapp/pkg/enums"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/shopspring/decimal"
)

// FromRow converts a catalog row into a Product. A missing code is a
// validation error; missing or unparseable numbers are reported as warnings
// and left null.
func FromRow(row Row) (Product, []DataQualityWarning, error) {
	code := firstString(row, ColumnCode, ColumnCodeUnaccented)
	if code == "" {
		return Product{}, nil, pkgerrors.New(pkgerrors.CodeValidation, "product row has no code")
	}

	product := Product{
		Code:            code,
		Model:           firstString(row, ColumnModel),
		Characteristics: firstString(row, ColumnCharacteristics),
		Provider:        firstString(row, ColumnProvider),
	}

	var warnings []DataQualityWarning
	readNumber := func(column string) decimal.NullDecimal {
		value, warning := numberField(row, column)
		if warning != nil {
			warning.Code = code
			warnings = append(warnings, *warning)
		}
		return value
	}

	product.Cost = readNumber(ColumnCost)
	for _, field := range enums.PriceFields() {
		product.Prices.set(field, readNumber(PriceColumn(field)))
	}
	return product, warnings, nil
}

func firstString(row Row, keys ...string) string {
	for _, key := range keys {
		raw, ok := row[key]
		if !ok || raw == nil {
			continue
		}
		var s string
		switch v := raw.(type) {
		case string:
			s = v
		case fmt.Stringer:
			s = v.String()
		default:
			s = fmt.Sprint(v)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func numberField(row Row, column string) (decimal.NullDecimal, *DataQualityWarning) {
	raw, ok := row[column]
	if !ok || raw == nil {
		return decimal.NullDecimal{}, &DataQualityWarning{Field: column, Issue: enums.DataQualityIssueMissing}
	}
	value, err := toDecimal(raw)
	if err != nil {
		return decimal.NullDecimal{}, &DataQualityWarning{Field: column, Issue: enums.DataQualityIssueUnparseable, Detail: err.Error()}
	}
	return decimal.NewNullDecimal(value), nil
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Decimal{}, fmt.Errorf("non-finite value %v", v)
		}
		return decimal.NewFromFloat(v), nil
	case float32:
		if f := float64(v); math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Decimal{}, fmt.Errorf("non-finite value %v", v)
		}
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int32:
		return decimal.NewFromInt32(v), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return decimal.Decimal{}, fmt.Errorf("empty value")
		}
		return decimal.NewFromString(s)
	}
	return decimal.Decimal{}, fmt.Errorf("unsupported type %T", raw)
}
