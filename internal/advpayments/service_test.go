package advpayments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	advances map[int64]*AdvancePayment
	nextID   int64
	// allocated mirrors what the transaction ledger would hold.
	allocated map[int64]float64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		advances:  make(map[int64]*AdvancePayment),
		allocated: make(map[int64]float64),
		nextID:    1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*AdvancePaymentDetail, error) {
	p, ok := m.advances[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &AdvancePaymentDetail{AdvancePayment: *p, ClientName: "Client"}, nil
}

func (m *mockRepository) ListForClient(ctx context.Context, clientID int64) ([]AdvancePaymentDetail, error) {
	var result []AdvancePaymentDetail
	for _, p := range m.advances {
		if p.ClientID == clientID {
			result = append(result, AdvancePaymentDetail{AdvancePayment: *p})
		}
	}
	return result, nil
}

func (m *mockRepository) Create(ctx context.Context, p AdvancePayment) (int64, error) {
	id := m.nextID
	m.nextID++
	p.ID = id
	m.advances[id] = &p
	return id, nil
}

func (m *mockRepository) Balance(ctx context.Context, clientID int64) (Balance, error) {
	b := Balance{ClientID: clientID}
	for _, p := range m.advances {
		if p.ClientID == clientID {
			b.Received += p.Amount
		}
	}
	b.Allocated = m.allocated[clientID]
	b.Available = b.Received - b.Allocated
	return b, nil
}

func (m *mockRepository) Analytics(ctx context.Context, clientID int64) (Analytics, error) {
	balance, _ := m.Balance(ctx, clientID)
	return Analytics{Balance: balance}, nil
}

type stubClients struct{ exists bool }

func (s stubClients) Exists(ctx context.Context, id int64) (bool, error) {
	return s.exists, nil
}

type stubAllocator struct {
	repo *mockRepository
	err  error
}

func (s *stubAllocator) RecordAllocation(ctx context.Context, orderID, clientID int64, amount float64, createdBy int64) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.repo.allocated[clientID] += amount
	return 1, nil
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, stubClients{exists: true}, &stubAllocator{repo: repo}, nil, nil, nil)
}

func createReq(clientID int64, amount float64) CreateRequest {
	return CreateRequest{ClientID: clientID, Amount: amount, PaymentType: "cash"}
}

func TestCreateAdvance(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	detail, err := svc.Create(context.Background(), createReq(7, 5000), nil, "", 1)
	require.NoError(t, err)

	assert.Equal(t, 5000.0, detail.Amount)
	assert.False(t, detail.ReceivedAt.IsZero())

	balance, err := svc.Balance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, balance.Available)
}

func TestCreateAdvanceUnknownClient(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, stubClients{exists: false}, &stubAllocator{repo: repo}, nil, nil, nil)

	_, err := svc.Create(context.Background(), createReq(7, 5000), nil, "", 1)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestAllocateDrawsBalanceDown(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), createReq(7, 5000), nil, "", 1)
	require.NoError(t, err)

	balance, err := svc.Allocate(context.Background(), AllocateRequest{ClientID: 7, OrderID: 3, Amount: 2000}, 1)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, balance.Available)
	assert.Equal(t, 2000.0, balance.Allocated)
}

func TestAllocateRefusesOverdraw(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), createReq(7, 1000), nil, "", 1)
	require.NoError(t, err)

	_, err = svc.Allocate(context.Background(), AllocateRequest{ClientID: 7, OrderID: 3, Amount: 1500}, 1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	balance, err := svc.Balance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balance.Available)
}

func TestAllocateExactBalance(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), createReq(7, 1000), nil, "", 1)
	require.NoError(t, err)

	balance, err := svc.Allocate(context.Background(), AllocateRequest{ClientID: 7, OrderID: 3, Amount: 1000}, 1)
	require.NoError(t, err)
	assert.Zero(t, balance.Available)
}

func TestBalanceAcrossMultipleAdvances(t *testing.T) {
	repo := newMockRepository()
	svc := newTestService(repo)

	for _, amount := range []float64{500, 1500, 250} {
		_, err := svc.Create(context.Background(), createReq(7, amount), nil, "", 1)
		require.NoError(t, err)
	}
	_, err := svc.Allocate(context.Background(), AllocateRequest{ClientID: 7, OrderID: 3, Amount: 700}, 1)
	require.NoError(t, err)

	balance, err := svc.Balance(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2250.0, balance.Received)
	assert.Equal(t, 1550.0, balance.Available)
}
