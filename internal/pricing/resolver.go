package pricing

import (
	"context"
	"strings"

	"github.com/angelmondragon/colchonesapp/internal/catalog"
	"github.com/angelmondragon/colchonesapp/pkg/enums"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/shopspring/decimal"
)

// Rule maps payment-method keywords to the price field they select.
type Rule struct {
	Keywords []string
	Field    enums.PriceField
}

// DefaultRules is evaluated in order and the first match wins. Card keywords
// come before the installment digits so a method only reaches installment
// pricing when nothing earlier claims it.
var DefaultRules = []Rule{
	{Keywords: []string{"efectivo", "transferencia"}, Field: enums.PriceFieldCash},
	{Keywords: []string{"debito", "crédito", "credito", "tarjeta"}, Field: enums.PriceFieldCard},
	{Keywords: []string{"3"}, Field: enums.PriceFieldInstallments3},
	{Keywords: []string{"6"}, Field: enums.PriceFieldInstallments6},
}

// FallbackField is used when no rule matches.
const FallbackField = enums.PriceFieldCash

// Match returns the price field selected for method by rules.
func Match(rules []Rule, method string) enums.PriceField {
	label := strings.ToLower(method)
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(label, keyword) {
				return rule.Field
			}
		}
	}
	return FallbackField
}

// Resolution is the unit price picked for a product and payment method.
type Resolution struct {
	Field     enums.PriceField
	Amount    decimal.Decimal
	Defaulted bool
}

// Resolve picks the unit price for method. A missing price resolves to 0 with
// Defaulted set.
func Resolve(rules []Rule, product catalog.Product, method string) Resolution {
	field := Match(rules, method)
	price := product.Prices.For(field)
	if !price.Valid {
		return Resolution{Field: field, Amount: decimal.Zero, Defaulted: true}
	}
	return Resolution{Field: field, Amount: price.Decimal}
}

// Resolver applies a rule table and logs defaulted prices.
type Resolver struct {
	rules []Rule
	logg  *logger.Logger
}

// NewResolver builds a resolver over DefaultRules.
func NewResolver(logg *logger.Logger) *Resolver {
	return NewResolverWithRules(DefaultRules, logg)
}

// NewResolverWithRules builds a resolver over a custom rule table.
func NewResolverWithRules(rules []Rule, logg *logger.Logger) *Resolver {
	if logg == nil {
		logg = logger.Nop()
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Resolver{rules: copied, logg: logg}
}

// Price returns the unit price for product under method. It never fails; a
// missing price is logged and charged as 0.
func (r *Resolver) Price(ctx context.Context, product catalog.Product, method string) decimal.Decimal {
	res := Resolve(r.rules, product, method)
	if res.Defaulted {
		ctx = r.logg.WithFields(ctx, map[string]any{
			"product_code":   product.Code,
			"payment_method": method,
			"price_field":    res.Field.String(),
			"column":         catalog.PriceColumn(res.Field),
		})
		r.logg.Warn(ctx, "product price missing, charging 0")
	}
	return res.Amount
}
