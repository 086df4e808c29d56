package products

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/shared"
)

var (
	// ErrInUse is returned when deleting a product referenced by order lines.
	ErrInUse = errors.New("product is referenced by orders and cannot be deleted")
	// ErrInvalidUnit is returned for units outside the supported set.
	ErrInvalidUnit = errors.New("invalid unit")
)

type CacheBumper interface {
	Bump(ctx context.Context) error
}

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

func (s *Service) Create(ctx context.Context, req CreateProductRequest, createdBy int64) (*Product, error) {
	if !finance.ValidUnit(req.Unit) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUnit, req.Unit)
	}

	product := Product{
		Name:        req.Name,
		Description: req.Description,
		Unit:        req.Unit,
		RatePrice:   req.RatePrice,
		CashRate:    req.CashRate,
		CreatedBy:   createdBy,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, product)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.recordAudit(ctx, createdBy, "product.create", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateProductRequest, actorID int64) (*Product, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Unit != nil {
		if !finance.ValidUnit(*req.Unit) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidUnit, *req.Unit)
		}
		updates["unit"] = string(*req.Unit)
	}
	if req.RatePrice != nil {
		updates["rate_price"] = *req.RatePrice
	}
	if req.CashRate != nil {
		updates["cash_rate"] = *req.CashRate
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.recordAudit(ctx, actorID, "product.update", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListProductsRequest) ([]Product, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return fmt.Errorf("check product usage: %w", err)
	}
	if inUse {
		return ErrInUse
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.recordAudit(ctx, actorID, "product.delete", id)
	s.bumpCache(ctx)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
