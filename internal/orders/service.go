package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/shared"
)

var (
	// ErrTerminal is returned when mutating an order in a terminal state.
	ErrTerminal = errors.New("order is closed, completed or cancelled")
	// ErrHasTransactions is returned when deleting an order that has payments.
	ErrHasTransactions = errors.New("order has transactions and cannot be deleted")
	// ErrClientNotFound is returned when an order references a missing client.
	ErrClientNotFound = errors.New("client not found")
	// ErrInvalidStatus is returned for status values outside the enum.
	ErrInvalidStatus = errors.New("invalid order status")
)

// ClientChecker verifies that a referenced client exists.
type ClientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
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
	repo    Repository
	clients ClientChecker
	cache   CacheBumper
	audit   AuditRecorder
}

func NewService(repo Repository, clients ClientChecker, cache CacheBumper, audit AuditRecorder) *Service {
	return &Service{repo: repo, clients: clients, cache: cache, audit: audit}
}

// Create persists an order with its lines. The order number is allocated and
// the document totals are computed inside one transaction.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, createdBy int64) (*Order, error) {
	ok, err := s.clients.Exists(ctx, req.ClientID)
	if err != nil {
		return nil, fmt.Errorf("check client: %w", err)
	}
	if !ok {
		return nil, ErrClientNotFound
	}

	lines, subtotal, err := buildLines(req.Products)
	if err != nil {
		return nil, err
	}
	amount, totalAmount := documentTotals(subtotal, req.GSTPercent, req.DiscountPercent)

	var id int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		orderNo, err := repo.NextOrderNo(ctx)
		if err != nil {
			return fmt.Errorf("allocate order number: %w", err)
		}

		id, err = repo.Create(ctx, Order{
			OrderNo:         orderNo,
			ClientID:        req.ClientID,
			OrderedDate:     req.OrderedDate,
			DueDate:         req.DueDate,
			GSTPercent:      req.GSTPercent,
			DiscountPercent: req.DiscountPercent,
			Status:          finance.OrderStatusPending,
			Subtotal:        subtotal,
			Amount:          amount,
			TotalAmount:     totalAmount,
			Notes:           req.Notes,
			CreatedBy:       createdBy,
		})
		if err != nil {
			return err
		}

		for _, line := range lines {
			line.OrderID = id
			lineID, err := repo.InsertLine(ctx, line)
			if err != nil {
				return err
			}
			if _, err := repo.InsertSubOrder(ctx, lineID, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.recordAudit(ctx, createdBy, "order.create", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

// Update applies a partial update. Orders in a terminal state are refused;
// replacing the product lines recomputes the document totals.
func (s *Service) Update(ctx context.Context, id int64, req UpdateOrderRequest, actorID int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if Terminal(existing.Status) {
		return nil, ErrTerminal
	}

	updates := make(map[string]interface{})
	if req.OrderedDate != nil {
		updates["ordered_date"] = *req.OrderedDate
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.Status != nil {
		if !ValidStatus(*req.Status) {
			return nil, ErrInvalidStatus
		}
		updates["status"] = string(*req.Status)
		if *req.Status == finance.OrderStatusClosed {
			updates["closed_at"] = time.Now()
		}
	}

	gst := existing.GSTPercent
	if req.GSTPercent != nil {
		gst = *req.GSTPercent
		updates["gst_percent"] = gst
	}
	discount := existing.DiscountPercent
	if req.DiscountPercent != nil {
		discount = *req.DiscountPercent
		updates["discount_percent"] = discount
	}

	var newLines []OrderLine
	subtotal := existing.Subtotal
	if req.Products != nil {
		var err error
		newLines, subtotal, err = buildLines(*req.Products)
		if err != nil {
			return nil, err
		}
	}
	if req.Products != nil || req.GSTPercent != nil || req.DiscountPercent != nil {
		amount, totalAmount := documentTotals(subtotal, gst, discount)
		updates["subtotal"] = subtotal
		updates["amount"] = amount
		updates["total_amount"] = totalAmount
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if req.Products != nil {
			// Replacing the lines resets dispatch tracking for the order.
			if err := repo.DeleteSubOrders(ctx, id); err != nil {
				return err
			}
			if err := repo.DeleteLines(ctx, id); err != nil {
				return err
			}
			for _, line := range newLines {
				line.OrderID = id
				lineID, err := repo.InsertLine(ctx, line)
				if err != nil {
					return err
				}
				if _, err := repo.InsertSubOrder(ctx, lineID, line); err != nil {
					return err
				}
			}
		}
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	s.recordAudit(ctx, actorID, "order.update", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

// Close marks an order CLOSED. Closing is idempotent on already-closed orders
// and refused on cancelled ones.
func (s *Service) Close(ctx context.Context, id int64, actorID int64) (*Order, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if existing.Status == finance.OrderStatusClosed {
		return existing, nil
	}
	if existing.Status == finance.OrderStatusCancelled {
		return nil, ErrTerminal
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, map[string]interface{}{
			"status":    string(finance.OrderStatusClosed),
			"closed_at": time.Now(),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("close order: %w", err)
	}

	s.recordAudit(ctx, actorID, "order.close", id)
	s.bumpCache(ctx)
	return s.repo.Get(ctx, id)
}

// Delete removes an order and its lines. Orders that already have payments
// recorded against them are refused to keep the ledger consistent.
func (s *Service) Delete(ctx context.Context, id int64, actorID int64) error {
	has, err := s.repo.HasTransactions(ctx, id)
	if err != nil {
		return fmt.Errorf("check order transactions: %w", err)
	}
	if has {
		return ErrHasTransactions
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	s.recordAudit(ctx, actorID, "order.delete", id)
	s.bumpCache(ctx)
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// GetWithTransactions returns one order with its payments and derived
// financial state attached.
func (s *Service) GetWithTransactions(ctx context.Context, id int64) (*OrderWithTransactions, error) {
	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	txns, err := s.repo.TransactionsForOrders(ctx, []int64{id})
	if err != nil {
		return nil, fmt.Errorf("load order transactions: %w", err)
	}
	result := attachTransactions(*order, txns[id])
	return &result, nil
}

func (s *Service) List(ctx context.Context, req ListOrdersRequest) ([]OrderWithClient, int, error) {
	return s.repo.List(ctx, req)
}

// ListWithTransactions decorates a page of orders with their payments and
// derived financials in a single extra query.
func (s *Service) ListWithTransactions(ctx context.Context, req ListOrdersRequest) ([]OrderWithTransactions, int, error) {
	orders, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	txns, err := s.repo.TransactionsForOrders(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load order transactions: %w", err)
	}

	result := make([]OrderWithTransactions, 0, len(orders))
	for _, o := range orders {
		result = append(result, attachTransactions(o.Order, txns[o.ID]))
	}
	return result, total, nil
}

// Search resolves a free query. Numeric queries (optionally prefixed with
// '#') match order numbers by digit prefix with the exact match promoted to
// the front; anything else falls back to client name and notes matching.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]OrderWithClient, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	wanted, numeric := finance.ParseOrderNoQuery(query)
	if !numeric {
		return s.repo.SearchFreeText(ctx, query, limit)
	}

	candidates, err := s.repo.SearchByOrderNoPrefix(ctx, strconv.FormatInt(wanted, 10), limit)
	if err != nil {
		return nil, err
	}

	byOrderNo := make(map[int64]OrderWithClient, len(candidates))
	finOrders := make([]finance.Order, 0, len(candidates))
	for _, c := range candidates {
		byOrderNo[c.OrderNo] = c
		finOrders = append(finOrders, c.FinanceOrder())
	}

	ranked := finance.RankOrderSearchResults(query, finOrders)
	result := make([]OrderWithClient, 0, len(ranked))
	for _, fo := range ranked {
		result = append(result, byOrderNo[fo.OrderNo])
	}
	return result, nil
}

func attachTransactions(order Order, txns []TransactionView) OrderWithTransactions {
	finTxns := make([]finance.Transaction, 0, len(txns))
	for _, t := range txns {
		if t.AdvanceAllocation {
			// Allocations settle a balance already counted when the advance
			// was received, yet they still reduce what the order owes.
			finTxns = append(finTxns, finance.Transaction{
				ID: t.ID, OrderID: t.OrderID, ClientID: t.ClientID,
				Amount: t.Amount, AdvanceAllocation: true,
			})
			continue
		}
		finTxns = append(finTxns, finance.Transaction{
			ID: t.ID, OrderID: t.OrderID, ClientID: t.ClientID, Amount: t.Amount,
		})
	}
	if txns == nil {
		txns = []TransactionView{}
	}
	return OrderWithTransactions{
		Order:        order,
		Transactions: txns,
		Financials:   finance.DeriveOrderFinancials(order.FinanceOrder(), finTxns),
	}
}

func buildLines(reqs []CreateOrderLineReq) ([]OrderLine, float64, error) {
	lines := make([]OrderLine, 0, len(reqs))
	var subtotal float64
	for i, lr := range reqs {
		if !finance.ValidUnit(lr.Unit) {
			return nil, 0, fmt.Errorf("line %d: unknown unit %q", i+1, lr.Unit)
		}
		amount := finance.ComputeLineAmount(finance.LineItem{
			Quantity:        lr.Quantity,
			RatePrice:       lr.RatePrice,
			DiscountPercent: lr.DiscountPercent,
		})
		lineOrder := lr.LineOrder
		if lineOrder == 0 {
			lineOrder = i + 1
		}
		lines = append(lines, OrderLine{
			ProductID:       lr.ProductID,
			Quantity:        lr.Quantity,
			Unit:            lr.Unit,
			RatePrice:       lr.RatePrice,
			DiscountPercent: lr.DiscountPercent,
			CashRate:        lr.CashRate,
			Amount:          amount,
			LineOrder:       lineOrder,
		})
		subtotal += amount
	}
	return lines, subtotal, nil
}

// documentTotals derives the GST-inclusive amount and the discounted figure
// payments settle against. Both round to two decimals.
func documentTotals(subtotal, gstPercent, discountPercent float64) (amount, totalAmount float64) {
	amount = round2(subtotal * (1 + gstPercent/100))
	totalAmount = round2(amount * (1 - discountPercent/100))
	return amount, totalAmount
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "order",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}

func (s *Service) bumpCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
