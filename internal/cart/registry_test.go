package cart

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/colchonesapp/internal/pricing"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/redis/go-redis/v9"
)

func testFactory() (*Cart, error) {
	return New(pricing.NewResolver(nil), testMethods, "EFECTIVO")
}

type stubKV struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newStubKV() *stubKV {
	return &stubKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *stubKV) Get(_ context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (s *stubKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = fmt.Sprint(value)
	s.ttls[key] = ttl
	return nil
}

func (s *stubKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *stubKV) CartSnapshotKey(sessionID string) string {
	return "colchones:cart:" + sessionID
}

func TestRegistryWithoutStore(t *testing.T) {
	ctx := context.Background()
	reg, err := NewRegistry(testFactory, nil, nil)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	first, err := reg.Get(ctx, "caja-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	again, _ := reg.Get(ctx, "caja-1")
	other, _ := reg.Get(ctx, "caja-2")
	if first != again {
		t.Fatal("expected the same cart for the same session")
	}
	if first == other {
		t.Fatal("expected separate carts per session")
	}
	if reg.Sessions() != 2 {
		t.Fatalf("expected 2 sessions, got %d", reg.Sessions())
	}
	if err := reg.Persist(ctx, "caja-1"); err != nil {
		t.Fatalf("persist without store should be a no-op: %v", err)
	}

	if _, err := reg.Get(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for blank session, got %v", err)
	}
	if _, err := NewRegistry(nil, nil, nil); err == nil {
		t.Fatal("expected error without factory")
	}
}

func TestRegistryRestoresSnapshots(t *testing.T) {
	ctx := context.Background()
	kv := newStubKV()
	store, err := NewRedisSnapshots(kv, 12*time.Hour)
	if err != nil {
		t.Fatalf("new snapshots: %v", err)
	}

	reg, _ := NewRegistry(testFactory, store, nil)
	c, _ := reg.Get(ctx, "caja-1")
	_ = c.AddItem(product("A1", 1000, 1100), 2)
	_ = c.SetPaymentMethod("DEBITO")
	if err := reg.Persist(ctx, "caja-1"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if kv.ttls["colchones:cart:caja-1"] != 12*time.Hour {
		t.Fatalf("expected ttl to be applied, got %v", kv.ttls)
	}

	restarted, _ := NewRegistry(testFactory, store, nil)
	restored, err := restarted.Get(ctx, "caja-1")
	if err != nil {
		t.Fatalf("get after restart: %v", err)
	}
	if restored.PaymentMethod() != "DEBITO" {
		t.Fatalf("expected restored method, got %s", restored.PaymentMethod())
	}
	items := restored.Items()
	if len(items) != 1 || items[0].Code != "A1" || items[0].Quantity != 2 {
		t.Fatalf("unexpected restored items %+v", items)
	}
	if !items[0].Product.Prices.Card.Decimal.Equal(c.Items()[0].Product.Prices.Card.Decimal) {
		t.Fatal("expected product prices to survive the snapshot")
	}

	restored.Clear()
	if err := restarted.Persist(ctx, "caja-1"); err != nil {
		t.Fatalf("persist empty: %v", err)
	}
	if _, ok := kv.data["colchones:cart:caja-1"]; ok {
		t.Fatal("expected empty cart snapshot to be deleted")
	}
}

func TestRegistryStartsEmptyOnBrokenSnapshot(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		setup func(kv *stubKV)
	}{
		{name: "redis down", setup: func(kv *stubKV) { kv.getErr = errors.New("connection refused") }},
		{name: "corrupt json", setup: func(kv *stubKV) { kv.data["colchones:cart:caja-1"] = "{" }},
		{name: "unknown method", setup: func(kv *stubKV) {
			kv.data["colchones:cart:caja-1"] = `{"payment_method":"BITCOIN","items":[{"code":"A1","quantity":1}]}`
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv := newStubKV()
			tc.setup(kv)
			store, _ := NewRedisSnapshots(kv, 0)
			reg, _ := NewRegistry(testFactory, store, nil)

			c, err := reg.Get(ctx, "caja-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if c.Len() != 0 || c.PaymentMethod() != "EFECTIVO" {
				t.Fatalf("expected a fresh cart, got %d lines method %s", c.Len(), c.PaymentMethod())
			}
		})
	}
}

func TestRegistryPersistAllCombinesErrors(t *testing.T) {
	ctx := context.Background()
	kv := newStubKV()
	store, _ := NewRedisSnapshots(kv, 0)
	reg, _ := NewRegistry(testFactory, store, nil)

	for _, id := range []string{"caja-1", "caja-2"} {
		c, _ := reg.Get(ctx, id)
		_ = c.AddItem(product("A1", 1000, 1100), 1)
	}
	kv.setErr = errors.New("read only replica")

	err := reg.PersistAll(ctx)
	if err == nil {
		t.Fatal("expected combined error")
	}
	if strings.Count(err.Error(), "read only replica") != 2 {
		t.Fatalf("expected both failures to be reported, got %v", err)
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error code, got %v", err)
	}
}

func TestRestoreMergesAndSkipsBadLines(t *testing.T) {
	c, _ := testFactory()
	err := c.Restore(Snapshot{
		PaymentMethod: "CREDITO",
		Items: []Item{
			{Code: "A1", Product: product("A1", 1000, 1100), Quantity: 1},
			{Code: "", Quantity: 4},
			{Code: "B2", Product: product("B2", 10, 11), Quantity: 0},
			{Code: "A1", Product: product("A1", 1000, 1100), Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	items := c.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Fatalf("unexpected restored items %+v", items)
	}
	if c.PaymentMethod() != "CREDITO" {
		t.Fatalf("unexpected method %s", c.PaymentMethod())
	}
}

func TestRestoreSaturatesMergedQuantity(t *testing.T) {
	c, _ := testFactory()
	err := c.Restore(Snapshot{
		PaymentMethod: "EFECTIVO",
		Items: []Item{
			{Code: "A1", Product: product("A1", 1000, 1100), Quantity: math.MaxInt},
			{Code: "A1", Product: product("A1", 1000, 1100), Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	items := c.Items()
	if len(items) != 1 || items[0].Quantity != math.MaxInt {
		t.Fatalf("unexpected restored items %+v", items)
	}
}
