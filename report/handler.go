package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/orderdesk/internal/advpayments"
	"github.com/orderdesk/orderdesk/internal/clients"
	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/products"
	"github.com/orderdesk/orderdesk/internal/suborders"
	"github.com/orderdesk/orderdesk/internal/transactions"
)

// Renderer turns HTML into a PDF document.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// OrderSource loads orders with their payments attached.
type OrderSource interface {
	GetWithTransactions(ctx context.Context, id int64) (*orders.OrderWithTransactions, error)
	ListWithTransactions(ctx context.Context, req orders.ListOrdersRequest) ([]orders.OrderWithTransactions, int, error)
}

// ClientSource resolves client display data.
type ClientSource interface {
	Get(ctx context.Context, id int64) (*clients.Client, error)
}

// ProductSource resolves product display data.
type ProductSource interface {
	Get(ctx context.Context, id int64) (*products.Product, error)
}

// TransactionSource loads payment ledger rows.
type TransactionSource interface {
	Get(ctx context.Context, id int64) (*transactions.TransactionDetail, error)
}

// AdvanceSource loads advance payment rows.
type AdvanceSource interface {
	Get(ctx context.Context, id int64) (*advpayments.AdvancePaymentDetail, error)
}

// SubOrderSource loads sub-order detail rows.
type SubOrderSource interface {
	Get(ctx context.Context, id int64) (*suborders.SubOrderDetail, error)
}

// Handler serves the PDF endpoints.
type Handler struct {
	logger       *slog.Logger
	renderer     Renderer
	orders       OrderSource
	clients      ClientSource
	products     ProductSource
	transactions TransactionSource
	advances     AdvanceSource
	subOrders    SubOrderSource
}

func NewHandler(logger *slog.Logger, renderer Renderer, orders OrderSource, clients ClientSource, products ProductSource, transactions TransactionSource, advances AdvanceSource, subOrders SubOrderSource) *Handler {
	return &Handler{
		logger:       logger,
		renderer:     renderer,
		orders:       orders,
		clients:      clients,
		products:     products,
		transactions: transactions,
		advances:     advances,
		subOrders:    subOrders,
	}
}

type orderReceiptView struct {
	Order        orders.Order
	ClientName   string
	ProductNames map[int64]string
	Financials   finance.OrderFinancials
}

// OrderReceipt serves GET /order/receipt-pdf?orderId=N.
func (h *Handler) OrderReceipt(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.URL.Query().Get("orderId"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "orderId must be an integer")
		return
	}

	order, err := h.orders.GetWithTransactions(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("load order for receipt failed", slog.Any("error", err), slog.Int64("orderId", orderID))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	client, err := h.clients.Get(r.Context(), order.ClientID)
	if err != nil {
		h.logger.Error("load client for receipt failed", slog.Any("error", err), slog.Int64("clientId", order.ClientID))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load client")
		return
	}

	names, err := h.productNames(r.Context(), order.Products)
	if err != nil {
		h.logger.Error("load products for receipt failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load products")
		return
	}

	html, err := renderTemplate(orderReceiptTmpl, orderReceiptView{
		Order:        order.Order,
		ClientName:   client.Name,
		ProductNames: names,
		Financials:   order.Financials,
	})
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.servePDF(w, r, html, fmt.Sprintf("order-%d.pdf", order.OrderNo))
}

// TransactionReceipt serves GET /transaction/receipt/{id}.
func (h *Handler) TransactionReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	detail, err := h.transactions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, transactions.ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.logger.Error("load transaction for receipt failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}

	html, err := renderTemplate(transactionReceiptTmpl, detail)
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.servePDF(w, r, html, fmt.Sprintf("receipt-%d.pdf", detail.ID))
}

// AdvanceReceipt serves GET /advanced-payment/receipt/{id}.
func (h *Handler) AdvanceReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid advance payment id")
		return
	}

	detail, err := h.advances.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, advpayments.ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "advance payment not found")
			return
		}
		h.logger.Error("load advance for receipt failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load advance payment")
		return
	}

	html, err := renderTemplate(advanceReceiptTmpl, detail)
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.servePDF(w, r, html, fmt.Sprintf("advance-%d.pdf", detail.ID))
}

type ledgerRow struct {
	OrderNo     int64
	OrderedDate interface{}
	Status      finance.OrderStatus
	Total       float64
	Paid        float64
	Remaining   float64
}

type ledgerView struct {
	ClientName   string
	Rows         []ledgerRow
	TotalOrdered float64
	TotalPaid    float64
	Outstanding  float64
}

// ClientLedger serves GET /order/client/{id}/ledger-pdf: every order of the
// client with derived totals, plus the aggregate position.
func (h *Handler) ClientLedger(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid client id")
		return
	}

	client, err := h.clients.Get(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "client not found")
			return
		}
		h.logger.Error("load client for ledger failed", slog.Any("error", err), slog.Int64("clientId", clientID))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load client")
		return
	}

	list, _, err := h.orders.ListWithTransactions(r.Context(), orders.ListOrdersRequest{
		ClientID: &clientID,
		Limit:    1000,
	})
	if err != nil {
		h.logger.Error("load orders for ledger failed", slog.Any("error", err), slog.Int64("clientId", clientID))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load orders")
		return
	}

	view := ledgerView{ClientName: client.Name}
	for _, o := range list {
		view.Rows = append(view.Rows, ledgerRow{
			OrderNo:     o.OrderNo,
			OrderedDate: o.OrderedDate,
			Status:      o.Status,
			Total:       o.Financials.Total,
			Paid:        o.Financials.Paid,
			Remaining:   o.Financials.Remaining,
		})
		view.TotalOrdered += o.Financials.Total
		view.TotalPaid += o.Financials.Paid
		view.Outstanding += o.Financials.Remaining
	}

	html, err := renderTemplate(ledgerTmpl, view)
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.servePDF(w, r, html, fmt.Sprintf("ledger-client-%d.pdf", clientID))
}

// SubOrderInvoice serves GET /sub-order/invoices/{id}/pdf.
func (h *Handler) SubOrderInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid sub-order id")
		return
	}

	detail, err := h.subOrders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, suborders.ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "sub-order not found")
			return
		}
		h.logger.Error("load sub-order for invoice failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load sub-order")
		return
	}

	html, err := renderTemplate(subOrderInvoiceTmpl, detail)
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.servePDF(w, r, html, fmt.Sprintf("invoice-s%d.pdf", detail.ID))
}

func (h *Handler) productNames(ctx context.Context, lines []orders.OrderLine) (map[int64]string, error) {
	names := make(map[int64]string, len(lines))
	for _, line := range lines {
		if _, ok := names[line.ProductID]; ok {
			continue
		}
		p, err := h.products.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, products.ErrNotFound) {
				names[line.ProductID] = fmt.Sprintf("product %d", line.ProductID)
				continue
			}
			return nil, err
		}
		names[line.ProductID] = p.Name
	}
	return names, nil
}

func (h *Handler) servePDF(w http.ResponseWriter, r *http.Request, html, filename string) {
	pdf, err := h.renderer.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("pdf conversion failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusBadGateway, "document conversion failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	h.logger.Error("template render failed", slog.Any("error", err))
	httpx.Fail(w, http.StatusInternalServerError, "failed to render document")
}
