package report

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/advpayments"
	"github.com/orderdesk/orderdesk/internal/clients"
	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/products"
	"github.com/orderdesk/orderdesk/internal/suborders"
	"github.com/orderdesk/orderdesk/internal/transactions"
)

type stubRenderer struct {
	lastHTML string
}

func (s *stubRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	s.lastHTML = html
	return []byte("%PDF-1.7 stub"), nil
}

type stubOrders struct {
	order *orders.OrderWithTransactions
	list  []orders.OrderWithTransactions
}

func (s *stubOrders) GetWithTransactions(ctx context.Context, id int64) (*orders.OrderWithTransactions, error) {
	if s.order == nil {
		return nil, orders.ErrNotFound
	}
	return s.order, nil
}

func (s *stubOrders) ListWithTransactions(ctx context.Context, req orders.ListOrdersRequest) ([]orders.OrderWithTransactions, int, error) {
	return s.list, len(s.list), nil
}

type stubClients struct{}

func (stubClients) Get(ctx context.Context, id int64) (*clients.Client, error) {
	return &clients.Client{ID: id, Name: "Acme Traders"}, nil
}

type stubProducts struct{}

func (stubProducts) Get(ctx context.Context, id int64) (*products.Product, error) {
	return &products.Product{ID: id, Name: "Widget"}, nil
}

type stubTransactions struct {
	detail *transactions.TransactionDetail
}

func (s *stubTransactions) Get(ctx context.Context, id int64) (*transactions.TransactionDetail, error) {
	if s.detail == nil {
		return nil, transactions.ErrNotFound
	}
	return s.detail, nil
}

type stubAdvances struct {
	detail *advpayments.AdvancePaymentDetail
}

func (s *stubAdvances) Get(ctx context.Context, id int64) (*advpayments.AdvancePaymentDetail, error) {
	if s.detail == nil {
		return nil, advpayments.ErrNotFound
	}
	return s.detail, nil
}

type stubSubOrders struct {
	detail *suborders.SubOrderDetail
}

func (s *stubSubOrders) Get(ctx context.Context, id int64) (*suborders.SubOrderDetail, error) {
	if s.detail == nil {
		return nil, suborders.ErrNotFound
	}
	return s.detail, nil
}

func sampleOrder() *orders.OrderWithTransactions {
	return &orders.OrderWithTransactions{
		Order: orders.Order{
			ID:          1,
			OrderNo:     42,
			ClientID:    7,
			OrderedDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			GSTPercent:  18,
			Status:      finance.OrderStatusPending,
			Subtotal:    1000,
			Amount:      1180,
			TotalAmount: 1180,
			Products: []orders.OrderLine{
				{ID: 1, ProductID: 3, Quantity: 10, Unit: finance.UnitNos, RatePrice: 100, Amount: 1000, LineOrder: 1},
			},
		},
		Transactions: []orders.TransactionView{{ID: 1, OrderID: 1, Amount: 500}},
		Financials:   finance.OrderFinancials{Total: 1180, Paid: 500, Remaining: 680},
	}
}

func newTestHandler(renderer *stubRenderer, ord *stubOrders, txn *stubTransactions, adv *stubAdvances, sub *stubSubOrders) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, renderer, ord, stubClients{}, stubProducts{}, txn, adv, sub)
}

func router(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/order/receipt-pdf", h.OrderReceipt)
	r.Get("/order/client/{id}/ledger-pdf", h.ClientLedger)
	r.Get("/transaction/receipt/{id}", h.TransactionReceipt)
	r.Get("/advanced-payment/receipt/{id}", h.AdvanceReceipt)
	r.Get("/sub-order/invoices/{id}/pdf", h.SubOrderInvoice)
	return r
}

func TestOrderReceiptPDF(t *testing.T) {
	renderer := &stubRenderer{}
	h := newTestHandler(renderer, &stubOrders{order: sampleOrder()}, &stubTransactions{}, &stubAdvances{}, &stubSubOrders{})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/receipt-pdf?orderId=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())
	assert.Contains(t, renderer.lastHTML, "Order #42")
	assert.Contains(t, renderer.lastHTML, "Acme Traders")
	assert.Contains(t, renderer.lastHTML, "Widget")
}

func TestOrderReceiptNotFound(t *testing.T) {
	h := newTestHandler(&stubRenderer{}, &stubOrders{}, &stubTransactions{}, &stubAdvances{}, &stubSubOrders{})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/receipt-pdf?orderId=99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientLedgerPDF(t *testing.T) {
	renderer := &stubRenderer{}
	ord := &stubOrders{list: []orders.OrderWithTransactions{*sampleOrder()}}
	h := newTestHandler(renderer, ord, &stubTransactions{}, &stubAdvances{}, &stubSubOrders{})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/order/client/7/ledger-pdf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, renderer.lastHTML, "Client Ledger")
	assert.Contains(t, renderer.lastHTML, "#42")
	assert.Contains(t, renderer.lastHTML, "680.00")
}

func TestTransactionReceiptPDF(t *testing.T) {
	renderer := &stubRenderer{}
	orderNo := int64(42)
	txn := &stubTransactions{detail: &transactions.TransactionDetail{
		Transaction: transactions.Transaction{
			ID: 9, ClientID: 7, Amount: 2500, TransactionType: transactions.TypeCash,
			TransactedAt: time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC),
		},
		ClientName: "Acme Traders",
		OrderNo:    &orderNo,
	}}
	h := newTestHandler(renderer, &stubOrders{}, txn, &stubAdvances{}, &stubSubOrders{})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transaction/receipt/9", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, renderer.lastHTML, "Receipt #9")
	assert.Contains(t, renderer.lastHTML, "2,500.00")
}

func TestAdvanceReceiptPDF(t *testing.T) {
	renderer := &stubRenderer{}
	adv := &stubAdvances{detail: &advpayments.AdvancePaymentDetail{
		AdvancePayment: advpayments.AdvancePayment{
			ID: 3, ClientID: 7, Amount: 10000, PaymentType: "online",
			ReceivedAt: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		},
		ClientName: "Acme Traders",
	}}
	h := newTestHandler(renderer, &stubOrders{}, &stubTransactions{}, adv, &stubSubOrders{})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/advanced-payment/receipt/3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, renderer.lastHTML, "Receipt #A3")
	assert.Contains(t, renderer.lastHTML, "10,000.00")
}

func TestSubOrderInvoicePDF(t *testing.T) {
	renderer := &stubRenderer{}
	sub := &stubSubOrders{detail: &suborders.SubOrderDetail{
		SubOrder: suborders.SubOrder{
			ID: 5, OrderID: 1, ProductID: 3, Quantity: 4,
			Unit: finance.UnitSet, Status: suborders.StatusDispatched,
		},
		OrderNo:     42,
		ClientName:  "Acme Traders",
		ProductName: "Widget",
		RatePrice:   100,
		Amount:      400,
	}}
	h := newTestHandler(renderer, &stubOrders{}, &stubTransactions{}, &stubAdvances{}, sub)

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sub-order/invoices/5/pdf", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, renderer.lastHTML, "Invoice #S5")
	assert.Contains(t, renderer.lastHTML, "DISPATCHED")
}
