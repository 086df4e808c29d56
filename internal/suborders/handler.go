package suborders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderdesk/orderdesk/internal/auth"
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
	Data       []SubOrderDetail  `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.ParsePageQuery(r)
	pagination := shared.Pagination{Page: page, PerPage: perPage}

	req := ListSubOrdersRequest{Limit: perPage, Offset: pagination.Offset()}
	q := r.URL.Query()
	if raw := q.Get("orderId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			req.OrderID = &id
		}
	}
	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		if ValidStatus(status) {
			req.Status = &status
		}
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list sub-orders failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load sub-orders")
		return
	}
	if result == nil {
		result = []SubOrderDetail{}
	}

	httpx.JSON(w, http.StatusOK, listResponse{
		Data:       result,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid sub-order id")
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "sub-order not found")
			return
		}
		h.logger.Error("get sub-order failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load sub-order")
		return
	}
	httpx.OK(w, detail)
}

// UpdateStatus sets any valid status, matching the dropdown surface.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid sub-order id")
		return
	}

	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	detail, err := h.service.UpdateStatus(r.Context(), id, req.Status, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "sub-order not found")
		case errors.Is(err, ErrInvalidStatus):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("update sub-order status failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to update sub-order")
		}
		return
	}
	httpx.OK(w, detail)
}

// Advance moves one step along the sequential path, matching the
// next-status-only surface.
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid sub-order id")
		return
	}

	detail, err := h.service.Advance(r.Context(), id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "sub-order not found")
		case errors.Is(err, ErrNoNextStatus):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("advance sub-order failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to advance sub-order")
		}
		return
	}
	httpx.OK(w, detail)
}

func (h *Handler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	if err := h.service.BulkUpdateStatus(r.Context(), req, auth.UserIDFromContext(r.Context())); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidStatus):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("bulk sub-order status failed", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "failed to update sub-orders")
		}
		return
	}
	httpx.OK(w, map[string]any{"updated": len(req.IDs), "status": req.Status})
}
