package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/finance"
)

type mockRepository struct {
	orders      map[int64]*Order
	lines       map[int64][]OrderLine
	subOrders   map[int64][]int64
	txns        map[int64][]TransactionView
	nextID      int64
	nextLineID  int64
	txError     error
	getError    error
	deleteCalls int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		orders:     make(map[int64]*Order),
		lines:      make(map[int64][]OrderLine),
		subOrders:  make(map[int64][]int64),
		txns:       make(map[int64][]TransactionView),
		nextID:     1,
		nextLineID: 1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Order, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *o
	copied.Products = m.lines[id]
	return &copied, nil
}

func (m *mockRepository) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithClient, int, error) {
	var result []OrderWithClient
	for _, o := range m.orders {
		if req.ClientID != nil && o.ClientID != *req.ClientID {
			continue
		}
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		result = append(result, OrderWithClient{Order: *o, ClientName: "Client"})
	}
	return result, len(result), nil
}

func (m *mockRepository) Create(ctx context.Context, order Order) (int64, error) {
	id := m.nextID
	m.nextID++
	order.ID = id
	m.orders[id] = &order
	return id, nil
}

func (m *mockRepository) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	line.ID = m.nextLineID
	m.nextLineID++
	m.lines[line.OrderID] = append(m.lines[line.OrderID], line)
	return line.ID, nil
}

func (m *mockRepository) DeleteLines(ctx context.Context, orderID int64) error {
	delete(m.lines, orderID)
	return nil
}

func (m *mockRepository) InsertSubOrder(ctx context.Context, lineID int64, line OrderLine) (int64, error) {
	m.subOrders[line.OrderID] = append(m.subOrders[line.OrderID], lineID)
	return int64(len(m.subOrders[line.OrderID])), nil
}

func (m *mockRepository) DeleteSubOrders(ctx context.Context, orderID int64) error {
	delete(m.subOrders, orderID)
	return nil
}

func (m *mockRepository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	if v, ok := updates["status"]; ok {
		o.Status = finance.OrderStatus(v.(string))
	}
	if v, ok := updates["subtotal"]; ok {
		o.Subtotal = v.(float64)
	}
	if v, ok := updates["amount"]; ok {
		o.Amount = v.(float64)
	}
	if v, ok := updates["total_amount"]; ok {
		o.TotalAmount = v.(float64)
	}
	if v, ok := updates["gst_percent"]; ok {
		o.GSTPercent = v.(float64)
	}
	if v, ok := updates["discount_percent"]; ok {
		o.DiscountPercent = v.(float64)
	}
	if v, ok := updates["notes"]; ok {
		notes := v.(string)
		o.Notes = &notes
	}
	if v, ok := updates["closed_at"]; ok {
		t := v.(time.Time)
		o.ClosedAt = &t
	}
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	m.deleteCalls++
	delete(m.orders, id)
	delete(m.lines, id)
	return nil
}

func (m *mockRepository) NextOrderNo(ctx context.Context) (int64, error) {
	var max int64
	for _, o := range m.orders {
		if o.OrderNo > max {
			max = o.OrderNo
		}
	}
	return max + 1, nil
}

func (m *mockRepository) HasTransactions(ctx context.Context, id int64) (bool, error) {
	return len(m.txns[id]) > 0, nil
}

func (m *mockRepository) TransactionsForOrders(ctx context.Context, orderIDs []int64) (map[int64][]TransactionView, error) {
	result := make(map[int64][]TransactionView)
	for _, id := range orderIDs {
		if txns, ok := m.txns[id]; ok {
			result[id] = txns
		}
	}
	return result, nil
}

func (m *mockRepository) SearchByOrderNoPrefix(ctx context.Context, prefix string, limit int) ([]OrderWithClient, error) {
	var result []OrderWithClient
	for _, o := range m.orders {
		if hasPrefix(o.OrderNo, prefix) {
			result = append(result, OrderWithClient{Order: *o, ClientName: "Client"})
		}
	}
	return result, nil
}

func (m *mockRepository) SearchFreeText(ctx context.Context, query string, limit int) ([]OrderWithClient, error) {
	return nil, nil
}

func hasPrefix(n int64, prefix string) bool {
	s := []byte{}
	for n > 0 {
		s = append([]byte{byte('0' + n%10)}, s...)
		n /= 10
	}
	str := string(s)
	return len(str) >= len(prefix) && str[:len(prefix)] == prefix
}

type stubClients struct {
	exists bool
}

func (s stubClients) Exists(ctx context.Context, id int64) (bool, error) {
	return s.exists, nil
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, stubClients{exists: true}, nil, nil)
}

func createReq() CreateOrderRequest {
	disc := 10.0
	return CreateOrderRequest{
		ClientID:    7,
		OrderedDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		GSTPercent:  18,
		Products: []CreateOrderLineReq{
			{ProductID: 1, Quantity: 10, Unit: finance.UnitNos, RatePrice: 100},
			{ProductID: 2, Quantity: 2, Unit: finance.UnitSet, RatePrice: 500, DiscountPercent: &disc},
		},
	}
}

func TestCreateOrderComputesTotals(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	// 10*100 + 2*500*0.9 = 1900; amount = 1900 * 1.18 = 2242
	assert.Equal(t, int64(1), order.OrderNo)
	assert.Equal(t, finance.OrderStatusPending, order.Status)
	assert.InDelta(t, 1900, order.Subtotal, 0.001)
	assert.InDelta(t, 2242, order.Amount, 0.001)
	assert.InDelta(t, 2242, order.TotalAmount, 0.001)
	require.Len(t, order.Products, 2)
	assert.InDelta(t, 1000, order.Products[0].Amount, 0.001)
	assert.InDelta(t, 900, order.Products[1].Amount, 0.001)
}

func TestCreateOrderSequentialNumbers(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	first, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	assert.Equal(t, first.OrderNo+1, second.OrderNo)
}

func TestCreateOrderUnknownClient(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, stubClients{exists: false}, nil, nil)

	_, err := svc.Create(context.Background(), createReq(), 1)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestCreateOrderRejectsUnknownUnit(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	req := createReq()
	req.Products[0].Unit = "BUSHEL"
	_, err := svc.Create(context.Background(), req, 1)
	assert.Error(t, err)
}

func TestUpdateOrderRefusesTerminal(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)
	repo.orders[order.ID].Status = finance.OrderStatusClosed

	notes := "late note"
	_, err = svc.Update(context.Background(), order.ID, UpdateOrderRequest{Notes: &notes}, 1)
	assert.ErrorIs(t, err, ErrTerminal)
}

func TestUpdateOrderRecomputesOnDiscountChange(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	discount := 25.0
	updated, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{DiscountPercent: &discount}, 1)
	require.NoError(t, err)

	assert.InDelta(t, 2242, updated.Amount, 0.001)
	assert.InDelta(t, 1681.5, updated.TotalAmount, 0.001)
}

func TestUpdateOrderReplacesLines(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	newLines := []CreateOrderLineReq{
		{ProductID: 3, Quantity: 4, Unit: finance.UnitSquareFeet, RatePrice: 50},
	}
	updated, err := svc.Update(context.Background(), order.ID, UpdateOrderRequest{Products: &newLines}, 1)
	require.NoError(t, err)

	require.Len(t, updated.Products, 1)
	assert.InDelta(t, 200, updated.Subtotal, 0.001)
	assert.InDelta(t, 236, updated.Amount, 0.001)
}

func TestUpdateOrderInvalidStatus(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	bad := finance.OrderStatus("SHIPPED")
	_, err = svc.Update(context.Background(), order.ID, UpdateOrderRequest{Status: &bad}, 1)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCloseOrder(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	closed, err := svc.Close(context.Background(), order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, finance.OrderStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	// Closing again is a no-op.
	again, err := svc.Close(context.Background(), order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, finance.OrderStatusClosed, again.Status)
}

func TestCloseCancelledOrderRefused(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)
	repo.orders[order.ID].Status = finance.OrderStatusCancelled

	_, err = svc.Close(context.Background(), order.ID, 1)
	assert.ErrorIs(t, err, ErrTerminal)
}

func TestDeleteOrderWithTransactionsRefused(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)
	repo.txns[order.ID] = []TransactionView{{ID: 1, OrderID: order.ID, Amount: 500}}

	err = svc.Delete(context.Background(), order.ID, 1)
	assert.ErrorIs(t, err, ErrHasTransactions)
	assert.Zero(t, repo.deleteCalls)
}

func TestDeleteOrderWithoutTransactions(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), order.ID, 1))
	_, err = svc.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetWithTransactionsDerivesFinancials(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)
	repo.txns[order.ID] = []TransactionView{
		{ID: 1, OrderID: order.ID, Amount: 1000},
		{ID: 2, OrderID: order.ID, Amount: 600},
	}

	got, err := svc.GetWithTransactions(context.Background(), order.ID)
	require.NoError(t, err)

	assert.InDelta(t, 2242, got.Financials.Total, 0.001)
	assert.InDelta(t, 1600, got.Financials.Paid, 0.001)
	assert.InDelta(t, 642, got.Financials.Remaining, 0.001)
	assert.Len(t, got.Transactions, 2)
}

func TestGetWithTransactionsOverpaymentFloorsAtZero(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)
	repo.txns[order.ID] = []TransactionView{{ID: 1, OrderID: order.ID, Amount: 5000}}

	got, err := svc.GetWithTransactions(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Financials.Remaining)
}

func TestSearchPromotesExactOrderNo(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	for _, no := range []int64{340, 345, 34} {
		id := repo.nextID
		repo.nextID++
		repo.orders[id] = &Order{ID: id, OrderNo: no, ClientID: 7, Status: finance.OrderStatusPending}
	}

	result, err := svc.Search(context.Background(), "#34", 20)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, int64(34), result[0].OrderNo)
	assert.Equal(t, int64(340), result[1].OrderNo)
	assert.Equal(t, int64(345), result[2].OrderNo)
}

func TestSearchEmptyPrefixFallsBackAscending(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	for _, no := range []int64{300, 31, 3000} {
		id := repo.nextID
		repo.nextID++
		repo.orders[id] = &Order{ID: id, OrderNo: no, ClientID: 7, Status: finance.OrderStatusPending}
	}

	result, err := svc.Search(context.Background(), "3", 20)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, int64(31), result[0].OrderNo)
	assert.Equal(t, int64(300), result[1].OrderNo)
	assert.Equal(t, int64(3000), result[2].OrderNo)
}

func TestCreateOrderSpawnsSubOrders(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)

	assert.Len(t, repo.subOrders[order.ID], 2)
}

func TestUpdateOrderLineReplacementResetsSubOrders(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	order, err := svc.Create(context.Background(), createReq(), 1)
	require.NoError(t, err)
	require.Len(t, repo.subOrders[order.ID], 2)

	products := []CreateOrderLineReq{{ProductID: 7, Quantity: 1, Unit: finance.UnitNos, RatePrice: 50}}
	_, err = svc.Update(context.Background(), order.ID, UpdateOrderRequest{Products: &products}, 1)
	require.NoError(t, err)

	assert.Len(t, repo.subOrders[order.ID], 1)
}
