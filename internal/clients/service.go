package clients

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/orderdesk/orderdesk/internal/shared"
)

// ErrHasOrders is returned when deleting a client that still owns orders.
var ErrHasOrders = errors.New("client has orders and cannot be deleted")

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

func (s *Service) Create(ctx context.Context, req CreateClientRequest, createdBy int64) (*Client, error) {
	if err := s.checkUnique(ctx, "email", req.Email, 0); err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, "mobile", req.Mobile, 0); err != nil {
		return nil, err
	}

	client := Client{
		Name:                  req.Name,
		Alias:                 req.Alias,
		Email:                 req.Email,
		Mobile:                req.Mobile,
		CorrespondenceAddress: addressFromInput(req.CorrespondenceAddress),
		PermanentAddress:      addressFromInput(req.PermanentAddress),
		CreatedBy:             createdBy,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, client)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.recordAudit(ctx, createdBy, "client.create", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest, actorID int64) (*Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Alias != nil {
		updates["alias"] = *req.Alias
	}
	if req.Email != nil && *req.Email != existing.Email {
		if err := s.checkUnique(ctx, "email", *req.Email, id); err != nil {
			return nil, err
		}
		updates["email"] = *req.Email
	}
	if req.Mobile != nil && *req.Mobile != existing.Mobile {
		if err := s.checkUnique(ctx, "mobile", *req.Mobile, id); err != nil {
			return nil, err
		}
		updates["mobile"] = *req.Mobile
	}
	if req.CorrespondenceAddress != nil {
		applyAddressUpdates(updates, "corr", *req.CorrespondenceAddress)
	}
	if req.PermanentAddress != nil {
		applyAddressUpdates(updates, "perm", *req.PermanentAddress)
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	s.recordAudit(ctx, actorID, "client.update", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	return s.repo.List(ctx, req)
}

// Delete hard-deletes a client. Clients that still own orders are refused so
// order history stays intact.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	hasOrders, err := s.repo.HasOrders(ctx, id)
	if err != nil {
		return fmt.Errorf("check client orders: %w", err)
	}
	if hasOrders {
		return ErrHasOrders
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}

	s.recordAudit(ctx, actorID, "client.delete", id)
	s.bumpCache(ctx)
	return nil
}

// CheckAvailability reports whether an email or mobile value is free to use.
// excludeID skips the client currently being edited.
func (s *Service) CheckAvailability(ctx context.Context, field, value string, excludeID int64) (bool, error) {
	exists, err := s.repo.ExistsByField(ctx, field, value, excludeID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

func (s *Service) checkUnique(ctx context.Context, field, value string, excludeID int64) error {
	exists, err := s.repo.ExistsByField(ctx, field, value, excludeID)
	if err != nil {
		return fmt.Errorf("check %s uniqueness: %w", field, err)
	}
	if exists {
		return fmt.Errorf("%w: %s already in use", ErrAlreadyExists, field)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "client",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}

func addressFromInput(in AddressInput) Address {
	return Address{
		Country:    in.Country,
		State:      in.State,
		City:       in.City,
		Area:       in.Area,
		PostalCode: in.PostalCode,
		Landmark:   in.Landmark,
	}
}

func applyAddressUpdates(updates map[string]interface{}, prefix string, in AddressInput) {
	updates[prefix+"_country"] = in.Country
	updates[prefix+"_state"] = in.State
	updates[prefix+"_city"] = in.City
	updates[prefix+"_area"] = in.Area
	updates[prefix+"_postal_code"] = in.PostalCode
	updates[prefix+"_landmark"] = in.Landmark
}
