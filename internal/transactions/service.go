package transactions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/shared"
)

var (
	// ErrOrderTerminal is returned when paying against a closed, completed or
	// cancelled order.
	ErrOrderTerminal = errors.New("order no longer accepts payments")
	// ErrOrderNotFound is returned when the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidType is returned for transaction types outside the enum.
	ErrInvalidType = errors.New("invalid transaction type")
	// ErrInvalidAmount is returned for zero or negative payment amounts.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrPaymentMethod is returned when the payment method does not pair with
	// the transaction type.
	ErrPaymentMethod = errors.New("payment method must accompany online payments only")
)

// OrderRef is the slice of an order the payment rules care about.
type OrderRef struct {
	ID       int64
	ClientID int64
	Status   finance.OrderStatus
}

// OrderSource resolves order references without importing the orders package.
type OrderSource interface {
	OrderRef(ctx context.Context, id int64) (OrderRef, error)
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
	repo   Repository
	orders OrderSource
	files  AttachmentStore
	cache  CacheBumper
	audit  AuditRecorder
}

func NewService(repo Repository, orders OrderSource, files AttachmentStore, cache CacheBumper, audit AuditRecorder) *Service {
	return &Service{repo: repo, orders: orders, files: files, cache: cache, audit: audit}
}

// Pay records a payment against an open order. attachment may be nil. The
// ledger is append-only; over-payment is allowed because remaining floors at
// zero on derivation, but closed, completed and cancelled orders refuse new
// money outright.
func (s *Service) Pay(ctx context.Context, req PayRequest, attachment io.Reader, attachmentName string, createdBy int64) (*TransactionDetail, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if !ValidType(req.TransactionType) {
		return nil, ErrInvalidType
	}
	// A payment method identifies the online channel; cash carries none.
	if online := req.TransactionType == TypeOnline; online != (req.PaymentMethod != nil && *req.PaymentMethod != "") {
		return nil, ErrPaymentMethod
	}

	ref, err := s.orders.OrderRef(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("resolve order: %w", err)
	}
	if terminal(ref.Status) {
		return nil, ErrOrderTerminal
	}

	var attachmentPath *string
	if attachment != nil {
		name, err := s.files.Save(attachment, attachmentName)
		if err != nil {
			return nil, fmt.Errorf("store attachment: %w", err)
		}
		attachmentPath = &name
	}

	transactedAt := time.Now()
	if req.TransactedAt != nil {
		transactedAt = *req.TransactedAt
	}

	orderID := req.OrderID
	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, Transaction{
			OrderID:         &orderID,
			ClientID:        ref.ClientID,
			Amount:          req.Amount,
			TransactionType: req.TransactionType,
			PaymentMethod:   req.PaymentMethod,
			ReferenceNo:     req.ReferenceNo,
			Remarks:         req.Remarks,
			AttachmentPath:  attachmentPath,
			TransactedAt:    transactedAt,
			CreatedBy:       createdBy,
		})
		return err
	})
	if err != nil {
		if attachmentPath != nil {
			_ = s.files.Remove(*attachmentPath)
		}
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.recordAudit(ctx, createdBy, "transaction.pay", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

// RecordAllocation writes an allocation entry: money already counted when the
// advance was received, now settled against a specific order. Flagged rows
// are excluded from debt aggregation paid sums but still reduce what the
// order owes.
func (s *Service) RecordAllocation(ctx context.Context, orderID, clientID int64, amount float64, createdBy int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	ref, err := s.orders.OrderRef(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return 0, ErrOrderNotFound
		}
		return 0, fmt.Errorf("resolve order: %w", err)
	}
	if ref.ClientID != clientID {
		return 0, fmt.Errorf("%w: order belongs to another client", ErrOrderNotFound)
	}
	if terminal(ref.Status) {
		return 0, ErrOrderTerminal
	}

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, Transaction{
			OrderID:           &orderID,
			ClientID:          clientID,
			Amount:            amount,
			TransactionType:   TypeCash,
			AdvanceAllocation: true,
			TransactedAt:      time.Now(),
			CreatedBy:         createdBy,
		})
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("record allocation: %w", err)
	}

	s.recordAudit(ctx, createdBy, "transaction.allocate", id)
	s.bumpCache(ctx)
	return id, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*TransactionDetail, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListTransactionsRequest) ([]TransactionDetail, int, error) {
	return s.repo.List(ctx, req)
}

func terminal(status finance.OrderStatus) bool {
	return status == finance.OrderStatusClosed ||
		status == finance.OrderStatusCompleted ||
		status == finance.OrderStatusCancelled
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "transaction",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
