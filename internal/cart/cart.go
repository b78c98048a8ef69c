package cart

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/angelmondragon/colchonesapp/internal/catalog"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceResolver picks the unit price of a product for a payment method.
type PriceResolver interface {
	Price(ctx context.Context, product catalog.Product, method string) decimal.Decimal
}

// Item is one product line held in the cart.
type Item struct {
	Code     string          `json:"code"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// PricedItem is an Item priced against the cart's current payment method.
type PricedItem struct {
	Item
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Settlement is the priced content handed to a checkout.
type Settlement struct {
	PaymentMethod string
	Lines         []PricedItem
	Total         decimal.Decimal
}

// Cart is an insertion-ordered set of items plus one cart-wide payment
// method. Prices are resolved on read, never stored. Safe for concurrent use.
type Cart struct {
	mu       sync.Mutex
	resolver PriceResolver
	methods  []string
	method   string
	items    []Item
}

// New builds an empty cart. defaultMethod must be one of methods.
func New(resolver PriceResolver, methods []string, defaultMethod string) (*Cart, error) {
	if resolver == nil {
		return nil, fmt.Errorf("price resolver required")
	}
	if len(methods) == 0 {
		return nil, fmt.Errorf("at least one payment method required")
	}
	c := &Cart{
		resolver: resolver,
		methods:  append([]string(nil), methods...),
	}
	if !c.recognized(defaultMethod) {
		return nil, fmt.Errorf("default payment method %q is not configured", defaultMethod)
	}
	c.method = defaultMethod
	return c, nil
}

func (c *Cart) recognized(method string) bool {
	for _, candidate := range c.methods {
		if candidate == method {
			return true
		}
	}
	return false
}

// PaymentMethods lists the labels accepted by SetPaymentMethod.
func (c *Cart) PaymentMethods() []string {
	return append([]string(nil), c.methods...)
}

// SetPaymentMethod replaces the cart-wide payment method.
func (c *Cart) SetPaymentMethod(method string) error {
	if !c.recognized(method) {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment method %q", method)).
			WithDetails(map[string]any{"allowed": c.PaymentMethods()})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.method = method
	return nil
}

// PaymentMethod returns the current cart-wide payment method.
func (c *Cart) PaymentMethod() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.method
}

// AddItem adds quantity units of product. An existing line is incremented
// (a negative quantity decrements) and removed once it drops to 0 or below.
// A new line is only created for a positive quantity.
func (c *Cart) AddItem(product catalog.Product, quantity int) error {
	code := strings.TrimSpace(product.Code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product code is required")
	}
	product.Code = code

	c.mu.Lock()
	defer c.mu.Unlock()

	if idx := c.indexOf(code); idx >= 0 {
		c.items[idx].Quantity = addQuantity(c.items[idx].Quantity, quantity)
		if c.items[idx].Quantity <= 0 {
			c.removeAt(idx)
		}
		return nil
	}
	if quantity <= 0 {
		return nil
	}
	c.items = append(c.items, Item{Code: code, Product: product, Quantity: quantity})
	return nil
}

// RemoveItem drops the line for code. Absent codes are ignored.
func (c *Cart) RemoveItem(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(code); idx >= 0 {
		c.removeAt(idx)
	}
}

// UpdateQuantity sets the absolute quantity for code; 0 or below removes it.
func (c *Cart) UpdateQuantity(code string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := c.indexOf(code)
	if idx < 0 {
		return
	}
	if quantity <= 0 {
		c.removeAt(idx)
		return
	}
	c.items[idx].Quantity = quantity
}

// addQuantity sums two line quantities, saturating at the int bounds.
func addQuantity(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	if b < 0 && a < math.MinInt-b {
		return math.MinInt
	}
	return a + b
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyItems()
}

// Len reports the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Priced returns every line priced against the current payment method.
func (c *Cart) Priced(ctx context.Context) ([]PricedItem, decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.settlement(ctx)
	return s.Lines, s.Total
}

// Total is the sum of unit price times quantity, resolved fresh on each call.
func (c *Cart) Total(ctx context.Context) decimal.Decimal {
	_, total := c.Priced(ctx)
	return total
}

// Clear empties the cart. The payment method is kept.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

// Settle prices the cart and hands the result to fn while holding the cart
// lock, so no mutation can interleave. The cart is cleared only when fn
// succeeds. An empty cart returns false without calling fn.
func (c *Cart) Settle(ctx context.Context, fn func(Settlement) error) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) == 0 {
		return false, nil
	}
	if err := fn(c.settlement(ctx)); err != nil {
		return false, err
	}
	c.items = nil
	return true, nil
}

func (c *Cart) settlement(ctx context.Context) Settlement {
	lines := make([]PricedItem, 0, len(c.items))
	total := decimal.Zero
	for _, item := range c.items {
		price := c.resolver.Price(ctx, item.Product, c.method)
		subtotal := price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)
		lines = append(lines, PricedItem{Item: item, UnitPrice: price, Subtotal: subtotal})
	}
	return Settlement{PaymentMethod: c.method, Lines: lines, Total: total}
}

func (c *Cart) indexOf(code string) int {
	for i := range c.items {
		if c.items[i].Code == code {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.items = append(c.items[:idx], c.items[idx+1:]...)
}

func (c *Cart) copyItems() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}
