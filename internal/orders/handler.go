package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/finance"
	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/shared"
)

type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

type listResponse struct {
	Data       []OrderWithClient `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

type listWithTransactionsResponse struct {
	Data       []OrderWithTransactions `json:"data"`
	Pagination shared.Pagination       `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.ParsePageQuery(r)
	pagination := shared.Pagination{Page: page, PerPage: perPage}
	req := listRequestFromQuery(r, perPage, pagination.Offset())

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if result == nil {
		result = []OrderWithClient{}
	}

	httpx.JSON(w, http.StatusOK, listResponse{
		Data:       result,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) ListWithTransactions(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.ParsePageQuery(r)
	pagination := shared.Pagination{Page: page, PerPage: perPage}
	req := listRequestFromQuery(r, perPage, pagination.Offset())

	result, total, err := h.service.ListWithTransactions(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders with transactions failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if result == nil {
		result = []OrderWithTransactions{}
	}

	httpx.JSON(w, http.StatusOK, listWithTransactionsResponse{
		Data:       result,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.service.GetWithTransactions(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("get order failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	httpx.OK(w, order)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	order, err := h.service.Create(r.Context(), req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			httpx.Fail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("create order failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to create order")
		return
	}
	httpx.Created(w, order)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	order, err := h.service.Update(r.Context(), id, req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "order not found")
		case errors.Is(err, ErrTerminal):
			httpx.Fail(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidStatus):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("update order failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to update order")
		}
		return
	}
	httpx.OK(w, order)
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.service.Close(r.Context(), id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "order not found")
		case errors.Is(err, ErrTerminal):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("close order failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to close order")
		}
		return
	}
	httpx.OK(w, order)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if err := h.service.Delete(r.Context(), id, auth.UserIDFromContext(r.Context())); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "order not found")
		case errors.Is(err, ErrHasTransactions):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("delete order failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to delete order")
		}
		return
	}
	httpx.OK(w, map[string]string{"status": "deleted"})
}

// Search answers the global search box. Empty queries return an empty list
// instead of an error so a cleared input never breaks the UI.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		httpx.OK(w, []OrderWithClient{})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.service.Search(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("order search failed", slog.Any("error", err), slog.String("query", query))
		httpx.Fail(w, http.StatusInternalServerError, "search failed")
		return
	}
	if result == nil {
		result = []OrderWithClient{}
	}
	httpx.OK(w, result)
}

func listRequestFromQuery(r *http.Request, limit, offset int) ListOrdersRequest {
	req := ListOrdersRequest{Limit: limit, Offset: offset}
	q := r.URL.Query()

	if raw := q.Get("clientId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if raw := q.Get("status"); raw != "" {
		status := finance.OrderStatus(raw)
		if ValidStatus(status) {
			req.Status = &status
		}
	}
	if raw := q.Get("from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			req.DateFrom = &t
		}
	}
	if raw := q.Get("to"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			req.DateTo = &t
		}
	}
	return req
}
