package invoices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/colchonesapp/pkg/db"
	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/angelmondragon/colchonesapp/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dayLayout = "2006-01-02"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the append-only invoice ledger.
type Service interface {
	Append(ctx context.Context, input AppendInput) (*models.Invoice, error)
	Get(ctx context.Context, id int64) (*models.Invoice, error)
	ListAll(ctx context.Context) ([]models.Invoice, error)
	ListByDate(ctx context.Context, day string) ([]models.Invoice, error)
	Search(ctx context.Context, input SearchInput) ([]models.Invoice, error)
	Page(ctx context.Context, input PageInput) (*Page, error)
}

// AppendInput carries a completed checkout.
type AppendInput struct {
	PaymentMethod string
	Total         decimal.Decimal
	Items         []models.LineItem
}

// SearchInput narrows a listing by inclusive YYYY-MM-DD bounds and payment
// method. Every field is optional.
type SearchInput struct {
	From          string
	To            string
	PaymentMethod string
}

// PageInput selects one newest-first page. Date wins over the search fields,
// matching how listings are chosen elsewhere.
type PageInput struct {
	Date   string
	Search SearchInput
	Params pagination.Params
}

// Page is one slice of a listing. NextCursor is empty on the last page.
type Page struct {
	Invoices   []models.Invoice
	NextCursor string
}

type service struct {
	repo Repository
	tx   txRunner
	now  func() time.Time
}

// NewService wires the ledger service. now defaults to time.Now.
func NewService(repo Repository, tx txRunner, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("invoice repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, tx: tx, now: now}, nil
}

// Append stamps, prices the profit of, and persists one invoice. The insert
// runs in its own transaction so a failure leaves no partial row.
func (s *service) Append(ctx context.Context, input AppendInput) (*models.Invoice, error) {
	method := strings.TrimSpace(input.PaymentMethod)
	if method == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	items := make([]models.LineItem, len(input.Items))
	copy(items, input.Items)
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d quantity must be positive", i+1))
		}
	}

	invoice := &models.Invoice{
		Timestamp:     s.now().Format(models.TimestampLayout),
		PaymentMethod: method,
		Total:         input.Total,
		Profit:        models.ComputeProfit(items),
		Items:         items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, invoice)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "append invoice")
	}
	return invoice, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Invoice, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id must be positive")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("invoice %d not found", id))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load invoice")
	}
	return invoice, nil
}

func (s *service) ListAll(ctx context.Context) ([]models.Invoice, error) {
	return s.list(ctx, Filter{})
}

// ListByDate returns the invoices stamped on day, newest first.
func (s *service) ListByDate(ctx context.Context, day string) ([]models.Invoice, error) {
	if err := validateDay("date", day); err != nil {
		return nil, err
	}
	return s.list(ctx, Filter{DatePrefix: day})
}

func (s *service) Search(ctx context.Context, input SearchInput) ([]models.Invoice, error) {
	filter, err := searchFilter(input)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

func (s *service) Page(ctx context.Context, input PageInput) (*Page, error) {
	var filter Filter
	if input.Date != "" {
		if err := validateDay("date", input.Date); err != nil {
			return nil, err
		}
		filter.DatePrefix = input.Date
	} else {
		var err error
		if filter, err = searchFilter(input.Search); err != nil {
			return nil, err
		}
	}

	cursor, err := pagination.ParseCursor(input.Params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		filter.BeforeID = cursor.ID
	}
	limit := pagination.NormalizeLimit(input.Params.Limit)
	filter.Limit = pagination.LimitWithBuffer(input.Params.Limit)

	list, err := s.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := &Page{Invoices: list}
	if len(list) > limit {
		page.Invoices = list[:limit]
		last := page.Invoices[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{Timestamp: last.Timestamp, ID: last.ID})
	}
	return page, nil
}

func searchFilter(input SearchInput) (Filter, error) {
	filter := Filter{
		From:          strings.TrimSpace(input.From),
		To:            strings.TrimSpace(input.To),
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
	}
	if filter.From != "" {
		if err := validateDay("from", filter.From); err != nil {
			return Filter{}, err
		}
	}
	if filter.To != "" {
		if err := validateDay("to", filter.To); err != nil {
			return Filter{}, err
		}
	}
	if filter.From != "" && filter.To != "" && filter.From > filter.To {
		return Filter{}, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	return filter, nil
}

func (s *service) list(ctx context.Context, filter Filter) ([]models.Invoice, error) {
	invoices, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list invoices")
	}
	return invoices, nil
}

func validateDay(field, day string) error {
	if len(day) != len(dayLayout) {
		return invalidDay(field, day)
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return invalidDay(field, day)
	}
	return nil
}

func invalidDay(field, day string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be formatted YYYY-MM-DD", field)).
		WithDetails(map[string]string{"field": field, "value": day})
}
