package cart

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/angelmondragon/colchonesapp/internal/catalog"
	"github.com/angelmondragon/colchonesapp/internal/pricing"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/shopspring/decimal"
)

var testMethods = []string{"EFECTIVO", "TRANSFERENCIA", "DEBITO", "CREDITO", "3 CUOTAS", "6 CUOTAS"}

func newTestCart(t *testing.T) *Cart {
	t.Helper()
	c, err := New(pricing.NewResolver(nil), testMethods, "EFECTIVO")
	if err != nil {
		t.Fatalf("new cart: %v", err)
	}
	return c
}

func product(code string, cash, card int64) catalog.Product {
	return catalog.Product{
		Code:  code,
		Model: "Modelo " + code,
		Cost:  decimal.NewNullDecimal(decimal.NewFromInt(cash / 2)),
		Prices: catalog.Prices{
			Cash: decimal.NewNullDecimal(decimal.NewFromInt(cash)),
			Card: decimal.NewNullDecimal(decimal.NewFromInt(card)),
		},
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	resolver := pricing.NewResolver(nil)
	if _, err := New(nil, testMethods, "EFECTIVO"); err == nil {
		t.Fatal("expected error without resolver")
	}
	if _, err := New(resolver, nil, "EFECTIVO"); err == nil {
		t.Fatal("expected error without methods")
	}
	if _, err := New(resolver, testMethods, "BITCOIN"); err == nil {
		t.Fatal("expected error for unknown default method")
	}
}

func TestAddItemMergesSameCode(t *testing.T) {
	c := newTestCart(t)
	a1 := product("A1", 1000, 1100)

	if err := c.AddItem(a1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.AddItem(a1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", items[0].Quantity)
	}
}

func TestAddItemNegativeQuantity(t *testing.T) {
	c := newTestCart(t)
	a1 := product("A1", 1000, 1100)

	if err := c.AddItem(a1, -1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("non-positive add of a new code must be a no-op")
	}

	_ = c.AddItem(a1, 3)
	_ = c.AddItem(a1, -1)
	if got := c.Items()[0].Quantity; got != 2 {
		t.Fatalf("expected decrement to 2, got %d", got)
	}
	_ = c.AddItem(a1, -2)
	if c.Len() != 0 {
		t.Fatal("expected line to be removed when quantity reaches 0")
	}
}

func TestAddItemSaturatesQuantity(t *testing.T) {
	c := newTestCart(t)
	a1 := product("A1", 1000, 1100)

	_ = c.AddItem(a1, math.MaxInt)
	_ = c.AddItem(a1, 1)
	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected the line to survive, got %+v", items)
	}
	if items[0].Quantity != math.MaxInt {
		t.Fatalf("expected quantity to saturate, got %d", items[0].Quantity)
	}

	_ = c.AddItem(a1, math.MinInt)
	if c.Len() != 0 {
		t.Fatal("expected a large decrement to remove the line")
	}
}

func TestAddItemRequiresCode(t *testing.T) {
	c := newTestCart(t)
	err := c.AddItem(catalog.Product{Code: "   "}, 1)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateQuantityAndRemove(t *testing.T) {
	c := newTestCart(t)
	_ = c.AddItem(product("A1", 1000, 1100), 1)
	_ = c.AddItem(product("B2", 500, 550), 1)

	c.UpdateQuantity("A1", 5)
	if got := c.Items()[0].Quantity; got != 5 {
		t.Fatalf("expected absolute quantity 5, got %d", got)
	}

	c.UpdateQuantity("A1", 0)
	items := c.Items()
	if len(items) != 1 || items[0].Code != "B2" {
		t.Fatalf("expected A1 removed, got %+v", items)
	}

	c.UpdateQuantity("ZZ", 3)
	c.RemoveItem("ZZ")
	c.RemoveItem("B2")
	c.RemoveItem("B2")
	if c.Len() != 0 {
		t.Fatalf("expected empty cart, got %d lines", c.Len())
	}
}

func TestItemsPreservesInsertionOrder(t *testing.T) {
	c := newTestCart(t)
	for _, code := range []string{"C3", "A1", "B2"} {
		_ = c.AddItem(product(code, 100, 110), 1)
	}
	_ = c.AddItem(product("A1", 100, 110), 1)

	var codes []string
	for _, item := range c.Items() {
		codes = append(codes, item.Code)
	}
	if len(codes) != 3 || codes[0] != "C3" || codes[1] != "A1" || codes[2] != "B2" {
		t.Fatalf("unexpected order %v", codes)
	}
}

func TestItemsReturnsIndependentCopy(t *testing.T) {
	c := newTestCart(t)
	_ = c.AddItem(product("A1", 1000, 1100), 1)

	items := c.Items()
	items[0].Quantity = 99
	items[0].Product.Model = "mutated"

	got := c.Items()[0]
	if got.Quantity != 1 || got.Product.Model != "Modelo A1" {
		t.Fatalf("snapshot mutation leaked into cart: %+v", got)
	}
}

func TestTotalFollowsPaymentMethod(t *testing.T) {
	ctx := context.Background()
	c := newTestCart(t)
	_ = c.AddItem(product("A1", 1000, 1100), 2)
	_ = c.AddItem(product("B2", 300, 350), 1)

	if got := c.Total(ctx); !got.Equal(decimal.NewFromInt(2300)) {
		t.Fatalf("expected cash total 2300, got %s", got)
	}

	if err := c.SetPaymentMethod("DEBITO"); err != nil {
		t.Fatalf("set method: %v", err)
	}
	if got := c.Total(ctx); !got.Equal(decimal.NewFromInt(2550)) {
		t.Fatalf("expected card total 2550, got %s", got)
	}

	if err := c.SetPaymentMethod("3 CUOTAS"); err != nil {
		t.Fatalf("set method: %v", err)
	}
	if got := c.Total(ctx); !got.IsZero() {
		t.Fatalf("expected missing installment prices to total 0, got %s", got)
	}
}

func TestSetPaymentMethodRejectsUnknown(t *testing.T) {
	c := newTestCart(t)
	err := c.SetPaymentMethod("efectivo")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if c.PaymentMethod() != "EFECTIVO" {
		t.Fatalf("method must be unchanged, got %s", c.PaymentMethod())
	}
}

func TestPricedLines(t *testing.T) {
	c := newTestCart(t)
	_ = c.AddItem(product("A1", 1000, 1100), 2)

	lines, total := c.Priced(context.Background())
	if len(lines) != 1 {
		t.Fatalf("expected one line, got %d", len(lines))
	}
	if !lines[0].UnitPrice.Equal(decimal.NewFromInt(1000)) || !lines[0].Subtotal.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected priced line %+v", lines[0])
	}
	if !total.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected total %s", total)
	}
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart skips callback", func(t *testing.T) {
		c := newTestCart(t)
		called := false
		settled, err := c.Settle(ctx, func(Settlement) error {
			called = true
			return nil
		})
		if err != nil || settled || called {
			t.Fatalf("unexpected settle result settled=%v called=%v err=%v", settled, called, err)
		}
	})

	t.Run("success clears cart", func(t *testing.T) {
		c := newTestCart(t)
		_ = c.AddItem(product("A1", 1000, 1100), 2)

		var got Settlement
		settled, err := c.Settle(ctx, func(s Settlement) error {
			got = s
			return nil
		})
		if err != nil || !settled {
			t.Fatalf("expected settle, got settled=%v err=%v", settled, err)
		}
		if got.PaymentMethod != "EFECTIVO" || !got.Total.Equal(decimal.NewFromInt(2000)) || len(got.Lines) != 1 {
			t.Fatalf("unexpected settlement %+v", got)
		}
		if c.Len() != 0 {
			t.Fatal("expected cart to be cleared")
		}
		if c.PaymentMethod() != "EFECTIVO" {
			t.Fatal("clearing must keep the payment method")
		}
	})

	t.Run("failure keeps cart", func(t *testing.T) {
		c := newTestCart(t)
		_ = c.AddItem(product("A1", 1000, 1100), 2)

		boom := errors.New("disk full")
		settled, err := c.Settle(ctx, func(Settlement) error { return boom })
		if !errors.Is(err, boom) || settled {
			t.Fatalf("expected callback error, got settled=%v err=%v", settled, err)
		}
		if c.Len() != 1 || c.Items()[0].Quantity != 2 {
			t.Fatalf("cart must survive a failed settle, got %+v", c.Items())
		}
	})
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	c := newTestCart(t)
	rng := rand.New(rand.NewSource(7))
	codes := []string{"A1", "B2", "C3", "D4"}

	for i := 0; i < 500; i++ {
		code := codes[rng.Intn(len(codes))]
		switch rng.Intn(3) {
		case 0:
			_ = c.AddItem(product(code, 100, 110), rng.Intn(7)-3)
		case 1:
			c.RemoveItem(code)
		case 2:
			c.UpdateQuantity(code, rng.Intn(7)-3)
		}

		seen := map[string]bool{}
		for _, item := range c.Items() {
			if seen[item.Code] {
				t.Fatalf("duplicate line for %s after step %d", item.Code, i)
			}
			seen[item.Code] = true
			if item.Quantity <= 0 {
				t.Fatalf("non-positive quantity for %s after step %d", item.Code, i)
			}
		}
	}
}
