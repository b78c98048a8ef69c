package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepository struct {
	createFn func(ctx context.Context, invoice *models.Invoice) error
	findFn   func(ctx context.Context, id int64) (*models.Invoice, error)
	listFn   func(ctx context.Context, filter Filter) ([]models.Invoice, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if f.createFn != nil {
		return f.createFn(ctx, invoice)
	}
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id int64) (*models.Invoice, error) {
	if f.findFn != nil {
		return f.findFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) List(ctx context.Context, filter Filter) ([]models.Invoice, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return []models.Invoice{}, nil
}

type fakeTx struct {
	calls int
}

func (f *fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	f.calls++
	return fn(nil)
}

func fixedClock() time.Time {
	return time.Date(2025, 8, 20, 14, 5, 9, 987654321, time.Local)
}

func TestNewServiceValidatesDependencies(t *testing.T) {
	if _, err := NewService(nil, &fakeTx{}, nil); err == nil {
		t.Fatal("expected error without repository")
	}
	if _, err := NewService(&fakeRepository{}, nil, nil); err == nil {
		t.Fatal("expected error without transaction runner")
	}
}

func TestService_Append(t *testing.T) {
	repo := &fakeRepository{}
	tx := &fakeTx{}
	svc, err := NewService(repo, tx, fixedClock)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	var created *models.Invoice
	repo.createFn = func(ctx context.Context, invoice *models.Invoice) error {
		invoice.ID = 7
		created = invoice
		return nil
	}

	items := []models.LineItem{
		{Description: "Modelo A1", Quantity: 2, UnitPrice: decimal.NewFromInt(1000), UnitCost: decimal.NewFromInt(600)},
	}
	got, err := svc.Append(context.Background(), AppendInput{
		PaymentMethod: "EFECTIVO",
		Total:         decimal.NewFromInt(2000),
		Items:         items,
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if created == nil || got != created {
		t.Fatal("service should return the created invoice")
	}
	if tx.calls != 1 {
		t.Fatalf("expected one transaction, got %d", tx.calls)
	}
	if got.ID != 7 || got.Timestamp != "2025-08-20T14:05:09" {
		t.Fatalf("unexpected id/timestamp %d %q", got.ID, got.Timestamp)
	}
	if !got.Profit.Equal(decimal.NewFromInt(800)) || !got.Total.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected totals total=%s profit=%s", got.Total, got.Profit)
	}

	items[0].Quantity = 50
	if got.Items[0].Quantity != 2 {
		t.Fatal("appended invoice must not alias the caller's items")
	}
}

func TestService_AppendValidation(t *testing.T) {
	repo := &fakeRepository{}
	repo.createFn = func(ctx context.Context, invoice *models.Invoice) error {
		t.Fatal("create must not be called for invalid input")
		return nil
	}
	svc, _ := NewService(repo, &fakeTx{}, fixedClock)

	cases := []AppendInput{
		{PaymentMethod: "", Total: decimal.NewFromInt(1)},
		{PaymentMethod: "   ", Total: decimal.NewFromInt(1)},
		{PaymentMethod: "EFECTIVO", Items: []models.LineItem{{Description: "x", Quantity: 0}}},
	}
	for _, input := range cases {
		if _, err := svc.Append(context.Background(), input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}

func TestService_AppendStorageFailure(t *testing.T) {
	boom := errors.New("database is locked")
	repo := &fakeRepository{createFn: func(ctx context.Context, invoice *models.Invoice) error { return boom }}
	svc, _ := NewService(repo, &fakeTx{}, fixedClock)

	_, err := svc.Append(context.Background(), AppendInput{PaymentMethod: "EFECTIVO"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected driver error to be preserved, got %v", err)
	}
}

func TestService_Get(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := NewService(repo, &fakeTx{}, fixedClock)
	ctx := context.Background()

	if _, err := svc.Get(ctx, 3); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Get(ctx, 0); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	repo.findFn = func(ctx context.Context, id int64) (*models.Invoice, error) {
		return nil, errors.New("disk I/O error")
	}
	if _, err := svc.Get(ctx, 3); !pkgerrors.IsCode(err, pkgerrors.CodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestService_ListByDate(t *testing.T) {
	var captured Filter
	repo := &fakeRepository{listFn: func(ctx context.Context, filter Filter) ([]models.Invoice, error) {
		captured = filter
		return []models.Invoice{}, nil
	}}
	svc, _ := NewService(repo, &fakeTx{}, fixedClock)
	ctx := context.Background()

	if _, err := svc.ListByDate(ctx, "2025-08-20"); err != nil {
		t.Fatalf("ListByDate error: %v", err)
	}
	if captured.DatePrefix != "2025-08-20" {
		t.Fatalf("unexpected filter %+v", captured)
	}

	for _, bad := range []string{"2025-8-20", "20250820", "", "2025-08-20T10", "2025-13-40", "2025/08/20"} {
		if _, err := svc.ListByDate(ctx, bad); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestService_Search(t *testing.T) {
	var captured Filter
	repo := &fakeRepository{listFn: func(ctx context.Context, filter Filter) ([]models.Invoice, error) {
		captured = filter
		return []models.Invoice{}, nil
	}}
	svc, _ := NewService(repo, &fakeTx{}, fixedClock)
	ctx := context.Background()

	if _, err := svc.Search(ctx, SearchInput{From: "2025-08-01", To: " 2025-08-31 ", PaymentMethod: "DEBITO"}); err != nil {
		t.Fatalf("Search error: %v", err)
	}
	if captured.From != "2025-08-01" || captured.To != "2025-08-31" || captured.PaymentMethod != "DEBITO" || captured.DatePrefix != "" {
		t.Fatalf("unexpected filter %+v", captured)
	}

	cases := []SearchInput{
		{From: "2025-8-1"},
		{To: "yesterday"},
		{From: "2025-09-01", To: "2025-08-01"},
	}
	for _, input := range cases {
		if _, err := svc.Search(ctx, input); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %+v, got %v", input, err)
		}
	}
}
