package suborders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/shared"
)

var (
	// ErrInvalidStatus is returned for status values outside the enum.
	ErrInvalidStatus = errors.New("invalid sub-order status")
	// ErrNoNextStatus is returned when advancing a completed sub-order.
	ErrNoNextStatus = errors.New("sub-order is already completed")
)

// CacheBumper invalidates derived caches after successful mutations.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo  Repository
	cache CacheBumper
	audit AuditRecorder
}

func NewService(repo Repository, cache CacheBumper, audit AuditRecorder) *Service {
	return &Service{repo: repo, cache: cache, audit: audit}
}

func (s *Service) Get(ctx context.Context, id int64) (*SubOrderDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListSubOrdersRequest) ([]SubOrderDetail, int, error) {
	return s.repo.List(ctx, req)
}

// UpdateStatus sets a sub-order to any valid status. Free selection across
// the enum is deliberate here; the sequential rule lives in Advance. Both
// surfaces exist on purpose.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status, actorID int64) (*SubOrderDetail, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		orderID = existing.OrderID
		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		return rollUpOrderStatus(ctx, repo, orderID)
	})
	if err != nil {
		return nil, fmt.Errorf("update sub-order status: %w", err)
	}

	s.recordAudit(ctx, actorID, "suborder.status", id)
	s.bumpCache(ctx)
	return s.repo.GetDetail(ctx, id)
}

// Advance moves a sub-order one step forward along
// PENDING, DISPATCHED, COMPLETED.
func (s *Service) Advance(ctx context.Context, id int64, actorID int64) (*SubOrderDetail, error) {
	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		existing, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		next, ok := NextStatus(existing.Status)
		if !ok {
			return ErrNoNextStatus
		}
		orderID = existing.OrderID
		if err := repo.UpdateStatus(ctx, id, next); err != nil {
			return err
		}
		return rollUpOrderStatus(ctx, repo, orderID)
	})
	if err != nil {
		if errors.Is(err, ErrNoNextStatus) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("advance sub-order: %w", err)
	}

	s.recordAudit(ctx, actorID, "suborder.advance", id)
	s.bumpCache(ctx)
	return s.repo.GetDetail(ctx, id)
}

// BulkUpdateStatus applies one status to a batch in a single transaction. A
// missing id fails the whole batch.
func (s *Service) BulkUpdateStatus(ctx context.Context, req BulkUpdateStatusRequest, actorID int64) error {
	if !ValidStatus(req.Status) {
		return ErrInvalidStatus
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		touched := make(map[int64]struct{})
		for _, id := range req.IDs {
			existing, err := repo.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("sub-order %d: %w", id, err)
			}
			if err := repo.UpdateStatus(ctx, id, req.Status); err != nil {
				return fmt.Errorf("sub-order %d: %w", id, err)
			}
			touched[existing.OrderID] = struct{}{}
		}
		for orderID := range touched {
			if err := rollUpOrderStatus(ctx, repo, orderID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, id := range req.IDs {
		s.recordAudit(ctx, actorID, "suborder.status", id)
	}
	s.bumpCache(ctx)
	return nil
}

// rollUpOrderStatus re-derives the parent order's dispatch state from its
// sub-orders: none moved keeps PENDING, some moved is PARTIALLY_DISPATCHED,
// all moved is DISPATCHED. The roll-up stops there even when every sub-order
// is COMPLETED; COMPLETED on the order is a manual call made through the
// order update endpoint once the books are settled.
func rollUpOrderStatus(ctx context.Context, repo Repository, orderID int64) error {
	total, moved, err := repo.DispatchCounts(ctx, orderID)
	if err != nil || total == 0 {
		return err
	}

	status := finance.OrderStatusPending
	switch {
	case moved == total:
		status = finance.OrderStatusDispatched
	case moved > 0:
		status = finance.OrderStatusPartiallyDispatched
	}
	return repo.SetOrderStatus(ctx, orderID, status)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "sub_order",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
