package advpayments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/orderdesk/orderdesk/internal/shared"
)

var (
	// ErrClientNotFound is returned when an advance references a missing client.
	ErrClientNotFound = errors.New("client not found")
	// ErrInsufficientBalance is returned when an allocation exceeds the
	// client's unallocated advance money.
	ErrInsufficientBalance = errors.New("allocation exceeds available advance balance")
)

// ClientChecker verifies that a referenced client exists.
type ClientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// AllocationRecorder writes allocation entries to the transaction ledger.
type AllocationRecorder interface {
	RecordAllocation(ctx context.Context, orderID, clientID int64, amount float64, createdBy int64) (int64, error)
}

// AttachmentStore persists proof-of-payment uploads.
type AttachmentStore interface {
	Save(src io.Reader, originalName string) (string, error)
	Remove(name string) error
}

// CacheBumper invalidates derived caches after successful mutations.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo        Repository
	clients     ClientChecker
	allocations AllocationRecorder
	files       AttachmentStore
	cache       CacheBumper
	audit       AuditRecorder
}

func NewService(repo Repository, clients ClientChecker, allocations AllocationRecorder, files AttachmentStore, cache CacheBumper, audit AuditRecorder) *Service {
	return &Service{
		repo:        repo,
		clients:     clients,
		allocations: allocations,
		files:       files,
		cache:       cache,
		audit:       audit,
	}
}

// Create records an advance payment. The money is unallocated until Allocate
// draws it against an order. attachment may be nil.
func (s *Service) Create(ctx context.Context, req CreateRequest, attachment io.Reader, attachmentName string, createdBy int64) (*AdvancePaymentDetail, error) {
	ok, err := s.clients.Exists(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("check client: %w", err)
	}
	if !ok {
		return nil, ErrClientNotFound
	}

	var attachmentPath *string
	if attachment != nil {
		name, err := s.files.Save(attachment, attachmentName)
		if err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		attachmentPath = &name
	}

	receivedAt := time.Now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, AdvancePayment{
			ClientID:       req.ClientID,
			Amount:         req.Amount,
			PaymentType:    req.PaymentType,
			ReferenceNo:    req.ReferenceNo,
			Remarks:        req.Remarks,
			AttachmentPath: attachmentPath,
			ReceivedAt:     receivedAt,
			CreatedBy:      createdBy,
		})
		return err
	})
	if err != nil {
		if attachmentPath != nil {
			_ = s.files.Remove(*attachmentPath)
		}
		return nil, fmt.Errorf("record advance payment: %w", err)
	}

	s.recordAudit(ctx, createdBy, "advance.create", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

// Allocate draws the client's advance balance down against an order. The
// balance check and the ledger write are not atomic across clients, but
// allocations for one client are rare enough that a stale read surfaces as a
// negative balance on the next view rather than silent corruption.
func (s *Service) Allocate(ctx context.Context, req AllocateRequest, actorID int64) (Balance, error) {
	balance, err := s.repo.Balance(ctx, req.ClientID)
	if err != nil {
		return Balance{}, fmt.Errorf("load advance balance: %w", err)
	}
	if req.Amount > balance.Available {
		return Balance{}, ErrInsufficientBalance
	}

	if _, err := s.allocations.RecordAllocation(ctx, req.OrderID, req.ClientID, req.Amount, actorID); err != nil {
		return Balance{}, err
	}

	s.bumpCache(ctx)
	return s.repo.Balance(ctx, req.ClientID)
}

func (s *Service) Get(ctx context.Context, id int64) (*AdvancePaymentDetail, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListForClient(ctx context.Context, clientID int64) ([]AdvancePaymentDetail, error) {
	return s.repo.ListForClient(ctx, clientID)
}

func (s *Service) Balance(ctx context.Context, clientID int64) (Balance, error) {
	return s.repo.Balance(ctx, clientID)
}

func (s *Service) Analytics(ctx context.Context, clientID int64) (Analytics, error) {
	return s.repo.Analytics(ctx, clientID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "advance_payment",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
