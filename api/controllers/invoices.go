package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/angelmondragon/colchonesapp/api/responses"
	"github.com/angelmondragon/colchonesapp/api/validators"
	"github.com/angelmondragon/colchonesapp/internal/checkout"
	"github.com/angelmondragon/colchonesapp/internal/invoices"
	"github.com/angelmondragon/colchonesapp/internal/receipts"
	"github.com/angelmondragon/colchonesapp/pkg/db/models"
	pkgerrors "github.com/angelmondragon/colchonesapp/pkg/errors"
	"github.com/angelmondragon/colchonesapp/pkg/logger"
	"github.com/angelmondragon/colchonesapp/pkg/pagination"
	"github.com/shopspring/decimal"
)

type invoiceLineResponse struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Profit      decimal.Decimal `json:"profit"`
}

type invoiceResponse struct {
	ID            int64                 `json:"id"`
	Timestamp     string                `json:"timestamp"`
	PaymentMethod string                `json:"payment_method"`
	Total         decimal.Decimal       `json:"total"`
	Profit        decimal.Decimal       `json:"profit"`
	Items         []invoiceLineResponse `json:"items"`
}

func newInvoiceResponse(invoice *models.Invoice) invoiceResponse {
	items := make([]invoiceLineResponse, 0, len(invoice.Items))
	for _, item := range invoice.Items {
		items = append(items, invoiceLineResponse{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			UnitCost:    item.UnitCost,
			Subtotal:    item.Subtotal(),
			Profit:      item.Profit(),
		})
	}
	return invoiceResponse{
		ID:            invoice.ID,
		Timestamp:     invoice.Timestamp,
		PaymentMethod: invoice.PaymentMethod,
		Total:         invoice.Total,
		Profit:        invoice.Profit,
		Items:         items,
	}
}

// CartCheckout settles the session cart into an invoice: 201 with the invoice,
// or 204 when the cart was empty.
func CartCheckout(store CartStore, svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		sessionID, c, err := sessionCart(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invoice, err := svc.Checkout(r.Context(), c)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if invoice == nil {
			responses.WriteNoContent(w)
			return
		}

		persist(r.Context(), store, logg, sessionID)
		w.Header().Set("Location", fmt.Sprintf("/api/v1/invoices/%d", invoice.ID))
		responses.WriteSuccessStatus(w, http.StatusCreated, newInvoiceResponse(invoice))
	}
}

// InvoicesList serves ?date=YYYY-MM-DD, or the optional from/to/method
// search, or the whole ledger. Always newest first. Passing limit or cursor
// switches to paged output.
func InvoicesList(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}

		query := r.URL.Query()
		search := invoices.SearchInput{
			From:          validators.QueryString(r, "from"),
			To:            validators.QueryString(r, "to"),
			PaymentMethod: validators.QueryString(r, "method"),
		}

		if query.Has("limit") || query.Has("cursor") {
			limit, err := validators.QueryInt(r, "limit")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			page, err := svc.Page(r.Context(), invoices.PageInput{
				Date:   validators.QueryString(r, "date"),
				Search: search,
				Params: pagination.Params{Limit: limit, Cursor: query.Get("cursor")},
			})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			out := invoiceResponses(page.Invoices)
			responses.WritePage(w, out, len(out), page.NextCursor)
			return
		}

		var (
			list []models.Invoice
			err  error
		)
		switch {
		case query.Has("date"):
			list, err = svc.ListByDate(r.Context(), validators.QueryString(r, "date"))
		case query.Has("from") || query.Has("to") || query.Has("method"):
			list, err = svc.Search(r.Context(), search)
		default:
			list, err = svc.ListAll(r.Context())
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := invoiceResponses(list)
		responses.WriteList(w, out, len(out))
	}
}

func invoiceResponses(list []models.Invoice) []invoiceResponse {
	out := make([]invoiceResponse, 0, len(list))
	for i := range list {
		out = append(out, newInvoiceResponse(&list[i]))
	}
	return out
}

func InvoiceGet(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newInvoiceResponse(invoice))
	}
}

func InvoiceReceipt(svc invoices.Service, storeName string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoice, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var buf bytes.Buffer
		if err := receipts.Render(&buf, invoice, receipts.Options{StoreName: storeName, Compress: true}); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render receipt"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithInvoiceID(r.Context(), invoice.ID), "receipt.rendered")
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="factura-%d.pdf"`, invoice.ID))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}
