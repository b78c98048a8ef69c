package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/colchonesapp/internal/cart"
	"github.com/angelmondragon/colchonesapp/internal/catalog"
	"github.com/angelmondragon/colchonesapp/internal/invoices"
	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	"github.com/angelmondragon/colchonesapp/pkg/enums"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/angelmondragon/colchonesapp/pkg/metrics"
	"github.com/shopspring/decimal"
)

type invoiceAppender interface {
	Append(ctx context.Context, input invoices.AppendInput) (*models.Invoice, error)
}

// Service turns a cart into an invoice.
type Service interface {
	// Checkout returns (nil, nil) when the cart is empty.
	Checkout(ctx context.Context, c *cart.Cart) (*models.Invoice, error)
}

type service struct {
	// mu keeps at most one checkout in flight.
	mu       sync.Mutex
	invoices invoiceAppender
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
}

// NewService builds the checkout service. metrics and logg are optional.
func NewService(appender invoiceAppender, m *metrics.CheckoutMetrics, logg *logger.Logger) (Service, error) {
	if appender == nil {
		return nil, fmt.Errorf("invoice service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{invoices: appender, metrics: m, logg: logg}, nil
}

func (s *service) Checkout(ctx context.Context, c *cart.Cart) (*models.Invoice, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	var invoice *models.Invoice
	settled, err := c.Settle(ctx, func(settlement cart.Settlement) error {
		appended, err := s.invoices.Append(ctx, invoices.AppendInput{
			PaymentMethod: settlement.PaymentMethod,
			Total:         settlement.Total,
			Items:         s.lineItems(ctx, settlement.Lines),
		})
		if err != nil {
			return err
		}
		invoice = appended
		return nil
	})

	switch {
	case err != nil:
		s.metrics.Observe(metrics.OutcomeFailure, time.Since(started))
		s.logg.Error(ctx, "checkout failed; cart kept", err)
		return nil, err
	case !settled:
		s.metrics.Observe(metrics.OutcomeEmpty, time.Since(started))
		return nil, nil
	}

	s.metrics.Observe(metrics.OutcomeSuccess, time.Since(started))
	s.metrics.AddInvoice(invoice.PaymentMethod, invoice.Total.InexactFloat64(), invoice.Profit.InexactFloat64())

	logCtx := s.logg.WithInvoiceID(ctx, invoice.ID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"payment_method": invoice.PaymentMethod,
		"total":          invoice.Total.String(),
		"lines":          len(invoice.Items),
	})
	s.logg.Info(logCtx, "invoice recorded")
	return invoice, nil
}

// lineItems freezes the settled lines into invoice rows.
func (s *service) lineItems(ctx context.Context, lines []cart.PricedItem) []models.LineItem {
	items := make([]models.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.LineItem{
			Description: line.Product.Description(),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			UnitCost:    s.unitCost(ctx, line.Product),
		})
	}
	return items
}

func (s *service) unitCost(ctx context.Context, product catalog.Product) decimal.Decimal {
	if product.Cost.Valid {
		return product.Cost.Decimal
	}
	warning := catalog.DataQualityWarning{
		Code:  product.Code,
		Field: catalog.ColumnCost,
		Issue: enums.DataQualityIssueMissing,
	}
	s.logg.Warn(s.logg.WithField(ctx, "product_code", product.Code), warning.String())
	return decimal.Zero
}
