package dashboard

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/finance"
)

type mockRepo struct {
	totals      finance.DashboardTotals
	txns        []finance.Transaction
	clients     []finance.Client
	orders      []finance.Order
	totalsCalls int
	debtCalls   int
}

func (m *mockRepo) Totals(ctx context.Context) (finance.DashboardTotals, error) {
	m.totalsCalls++
	return m.totals, nil
}

func (m *mockRepo) AllTransactions(ctx context.Context) ([]finance.Transaction, error) {
	return m.txns, nil
}

func (m *mockRepo) DebtInputs(ctx context.Context) ([]finance.Client, []finance.Order, []finance.Transaction, error) {
	m.debtCalls++
	return m.clients, m.orders, m.txns, nil
}

func newTestService(t *testing.T, repo *mockRepo) (*Service, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	return NewService(repo, cache), cache
}

func TestStatsComputesOutstanding(t *testing.T) {
	repo := &mockRepo{
		totals: finance.DashboardTotals{
			TotalOrders:  4,
			TotalRevenue: 10_000,
		},
		txns: []finance.Transaction{
			{ID: 1, ClientID: 1, Amount: 2_500.0},
			{ID: 2, ClientID: 2, Amount: 1_500.0},
		},
	}
	svc, _ := newTestService(t, repo)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalOrders)
	assert.InDelta(t, 6_000, stats.OutstandingPayments, 0.001)
}

func TestStatsOutstandingFloorsAtZero(t *testing.T) {
	repo := &mockRepo{
		totals: finance.DashboardTotals{TotalRevenue: 1_000},
		txns:   []finance.Transaction{{ID: 1, ClientID: 1, Amount: 5_000.0}},
	}
	svc, _ := newTestService(t, repo)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.OutstandingPayments)
}

func TestStatsServedFromCache(t *testing.T) {
	repo := &mockRepo{totals: finance.DashboardTotals{TotalOrders: 1}}
	svc, _ := newTestService(t, repo)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, repo.totalsCalls)
}

func TestBumpInvalidatesCache(t *testing.T) {
	repo := &mockRepo{totals: finance.DashboardTotals{TotalOrders: 1}}
	svc, cache := newTestService(t, repo)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.NoError(t, cache.Bump(context.Background()))

	repo.totals.TotalOrders = 2
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 2, repo.totalsCalls)
}

func TestClientDebtsSortedDescending(t *testing.T) {
	repo := &mockRepo{
		clients: []finance.Client{
			{ID: 1, Name: "Aman"},
			{ID: 2, Name: "Bina"},
			{ID: 3, Name: "Chirag"},
		},
		orders: []finance.Order{
			{ID: 10, ClientID: 1, Amount: 500},
			{ID: 11, ClientID: 2, Amount: 2_000},
			{ID: 12, ClientID: 3, Amount: 1_000},
		},
		txns: []finance.Transaction{
			{ID: 1, ClientID: 3, Amount: 400.0},
		},
	}
	svc, _ := newTestService(t, repo)

	debts, err := svc.ClientDebts(context.Background())
	require.NoError(t, err)

	require.Len(t, debts, 3)
	assert.Equal(t, int64(2), debts[0].ClientID)
	assert.Equal(t, int64(3), debts[1].ClientID)
	assert.Equal(t, int64(1), debts[2].ClientID)
}

func TestClientDebtsSettledClientOmitted(t *testing.T) {
	repo := &mockRepo{
		clients: []finance.Client{{ID: 1, Name: "Aman"}},
		orders:  []finance.Order{{ID: 10, ClientID: 1, Amount: 500}},
		txns:    []finance.Transaction{{ID: 1, ClientID: 1, Amount: 500.0}},
	}
	svc, _ := newTestService(t, repo)

	debts, err := svc.ClientDebts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, debts)
}

func TestWarmPopulatesBothViews(t *testing.T) {
	repo := &mockRepo{totals: finance.DashboardTotals{TotalOrders: 1}}
	svc, _ := newTestService(t, repo)

	require.NoError(t, svc.Warm(context.Background()))

	// Subsequent reads hit the cache, not the repository.
	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	_, err = svc.ClientDebts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.totalsCalls)
	assert.Equal(t, 1, repo.debtCalls)
}
