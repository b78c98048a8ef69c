package invoices

import (
	"context"

	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	"gorm.io/gorm"
)

// Rows written before profit tracking may carry a NULL ganancia.
const selectColumns = "id, fecha, metodo_pago, total, COALESCE(ganancia, 0) AS ganancia, items"

// Filter narrows ledger listings. Empty fields are ignored and the rest are
// AND-combined.
type Filter struct {
	// DatePrefix matches fecha by literal prefix, e.g. "2025-08-20".
	DatePrefix string
	// From and To bound fecha as inclusive YYYY-MM-DD days.
	From          string
	To            string
	PaymentMethod string
	// BeforeID keeps ids strictly below it; zero disables the bound.
	BeforeID int64
	// Limit caps the result; zero returns every match.
	Limit int
}

// Repository manages persistence for the invoice ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id int64) (*models.Invoice, error)
	List(ctx context.Context, filter Filter) ([]models.Invoice, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.WithContext(ctx).
		Select(selectColumns).
		Where("id = ?", id).
		Take(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&models.Invoice{}).Select(selectColumns)
	if filter.DatePrefix != "" {
		query = query.Where("fecha LIKE ?", filter.DatePrefix+"%")
	}
	if filter.From != "" {
		query = query.Where("fecha >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("fecha <= ?", filter.To+"T23:59:59")
	}
	if filter.PaymentMethod != "" {
		query = query.Where("metodo_pago = ?", filter.PaymentMethod)
	}
	if filter.BeforeID > 0 {
		query = query.Where("id < ?", filter.BeforeID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	invoices := []models.Invoice{}
	if err := query.Order("id DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
