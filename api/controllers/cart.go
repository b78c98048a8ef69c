package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/colchonesapp/api/middleware"
	"github.com/angelmondragon/colchonesapp/api/responses"
	"github.com/angelmondragon/colchonesapp/api/validators"
	"github.com/angelmondragon/colchonesapp/internal/cart"
	"github.com/angelmondragon/colchonesapp/internal/catalog"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/shopspring/decimal"
)

// CartStore hands out the cart of a session and persists its snapshot.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (*cart.Cart, error)
	Persist(ctx context.Context, sessionID string) error
}

type cartLineResponse struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	Session        string             `json:"session"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentMethods []string           `json:"payment_methods"`
	Items          []cartLineResponse `json:"items"`
	Total          decimal.Decimal    `json:"total"`
	Warnings       []string           `json:"warnings,omitempty"`
}

func newCartResponse(ctx context.Context, sessionID string, c *cart.Cart) cartResponse {
	lines, total := c.Priced(ctx)
	items := make([]cartLineResponse, 0, len(lines))
	for _, line := range lines {
		items = append(items, cartLineResponse{
			Code:        line.Code,
			Description: line.Product.Description(),
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Subtotal:    line.Subtotal,
		})
	}
	return cartResponse{
		Session:        sessionID,
		PaymentMethod:  c.PaymentMethod(),
		PaymentMethods: c.PaymentMethods(),
		Items:          items,
		Total:          total,
	}
}

type setPaymentMethodRequest struct {
	Method string `json:"method" validate:"required"`
}

type addItemRequest struct {
	Product  catalog.Row `json:"product" validate:"required"`
	Quantity *int        `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// sessionCart resolves the cart bound to the request's session.
func sessionCart(r *http.Request, store CartStore) (string, *cart.Cart, error) {
	if store == nil {
		return "", nil, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable")
	}
	sessionID := middleware.CartSessionFromContext(r.Context())
	c, err := store.Get(r.Context(), sessionID)
	if err != nil {
		return "", nil, err
	}
	return sessionID, c, nil
}

// persist saves the cart snapshot. A failure only costs restart recovery, so
// it is logged and the request still succeeds.
func persist(ctx context.Context, store CartStore, logg *logger.Logger, sessionID string) {
	if err := store.Persist(ctx, sessionID); err != nil && logg != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "cart.snapshot_failed")
	}
}

func CartGet(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, c, err := sessionCart(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(r.Context(), sessionID, c))
	}
}

func CartSetPaymentMethod(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, c, err := sessionCart(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setPaymentMethodRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := c.SetPaymentMethod(validators.SanitizeString(payload.Method, 64)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		persist(r.Context(), store, logg, sessionID)
		responses.WriteSuccess(w, newCartResponse(r.Context(), sessionID, c))
	}
}

func CartAddItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, c, err := sessionCart(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, warnings, err := catalog.FromRow(payload.Product)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}
		if err := c.AddItem(product, quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		persist(r.Context(), store, logg, sessionID)

		resp := newCartResponse(r.Context(), sessionID, c)
		for _, warning := range warnings {
			resp.Warnings = append(resp.Warnings, warning.String())
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "product_code", warning.Code), warning.String())
			}
		}
		responses.WriteSuccess(w, resp)
	}
}

func CartUpdateQuantity(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, c, err := sessionCart(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := validators.RequiredParam(r, "code")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c.UpdateQuantity(code, *payload.Quantity)

		persist(r.Context(), store, logg, sessionID)
		responses.WriteSuccess(w, newCartResponse(r.Context(), sessionID, c))
	}
}

func CartRemoveItem(store CartStore, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, c, err := sessionCart(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		code, err := validators.RequiredParam(r, "code")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		c.RemoveItem(code)

		persist(r.Context(), store, logg, sessionID)
		responses.WriteSuccess(w, newCartResponse(r.Context(), sessionID, c))
	}
}
