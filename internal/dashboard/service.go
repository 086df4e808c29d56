package dashboard

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/orderdesk/orderdesk/internal/finance"
)

type Service struct {
	repo  Repository
	cache *Cache
	group singleflight.Group
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// Stats serves the dashboard payload. Reads go through the versioned cache;
// concurrent cache misses collapse into one rebuild via singleflight.
func (s *Service) Stats(ctx context.Context) (finance.DashboardStats, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "stats")
	if err != nil {
		return finance.DashboardStats{}, fmt.Errorf("build cache key: %w", err)
	}

	var stats finance.DashboardStats
	err = s.cache.FetchJSON(ctx, key, &stats, func(ctx context.Context) (interface{}, error) {
		v, err, _ := s.group.Do(key, func() (interface{}, error) {
			return s.buildStats(ctx)
		})
		return v, err
	})
	if err != nil {
		return finance.DashboardStats{}, err
	}
	return stats, nil
}

func (s *Service) buildStats(ctx context.Context) (finance.DashboardStats, error) {
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return finance.DashboardStats{}, fmt.Errorf("load dashboard totals: %w", err)
	}
	txns, err := s.repo.AllTransactions(ctx)
	if err != nil {
		return finance.DashboardStats{}, fmt.Errorf("load transactions: %w", err)
	}
	return finance.ComputeDashboardStats(totals, txns), nil
}

// ClientDebts serves the debts page: per-client outstanding over all orders,
// descending.
func (s *Service) ClientDebts(ctx context.Context) ([]finance.ClientDebt, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "debts")
	if err != nil {
		return nil, fmt.Errorf("build cache key: %w", err)
	}

	var debts []finance.ClientDebt
	err = s.cache.FetchJSON(ctx, key, &debts, func(ctx context.Context) (interface{}, error) {
		v, err, _ := s.group.Do(key, func() (interface{}, error) {
			return s.buildDebts(ctx)
		})
		return v, err
	})
	if err != nil {
		return nil, err
	}
	return debts, nil
}

func (s *Service) buildDebts(ctx context.Context) ([]finance.ClientDebt, error) {
	clients, orders, txns, err := s.repo.DebtInputs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load debt inputs: %w", err)
	}
	return finance.AggregateClientDebts(clients, orders, txns), nil
}

// Warm rebuilds both cached views. The worker calls this on a schedule so the
// first request after a quiet period does not pay the build cost.
func (s *Service) Warm(ctx context.Context) error {
	if _, err := s.Stats(ctx); err != nil {
		return err
	}
	_, err := s.ClientDebts(ctx)
	return err
}
