package clients

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
	Data       []Client          `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.ParsePageQuery(r)
	pagination := shared.Pagination{Page: page, PerPage: perPage}

	req := ListClientsRequest{Limit: perPage, Offset: pagination.Offset()}
	if search := r.URL.Query().Get("search"); search != "" {
		req.Search = &search
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list clients failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load clients")
		return
	}
	if result == nil {
		result = []Client{}
	}

	httpx.JSON(w, http.StatusOK, listResponse{
		Data:       result,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid client id")
		return
	}

	client, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "client not found")
			return
		}
		h.logger.Error("get client failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load client")
		return
	}
	httpx.OK(w, client)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	client, err := h.service.Create(r.Context(), req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Fail(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("create client failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to create client")
		return
	}
	httpx.Created(w, client)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid client id")
		return
	}

	var req UpdateClientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	client, err := h.service.Update(r.Context(), id, req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "client not found")
		case errors.Is(err, ErrAlreadyExists):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("update client failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to update client")
		}
		return
	}
	httpx.OK(w, client)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid client id")
		return
	}

	if err := h.service.Delete(r.Context(), id, auth.UserIDFromContext(r.Context())); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "client not found")
		case errors.Is(err, ErrHasOrders):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("delete client failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to delete client")
		}
		return
	}
	httpx.OK(w, map[string]string{"status": "deleted"})
}

// Check probes email/mobile availability for the duplicate-check UI.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("field")
	value := r.URL.Query().Get("value")
	if (field != "email" && field != "mobile") || value == "" {
		httpx.Fail(w, http.StatusBadRequest, "field must be email or mobile and value must be set")
		return
	}
	var excludeID int64
	if exclude := r.URL.Query().Get("exclude"); exclude != "" {
		excludeID, _ = strconv.ParseInt(exclude, 10, 64)
	}

	available, err := h.service.CheckAvailability(r.Context(), field, value, excludeID)
	if err != nil {
		h.logger.Error("availability check failed", slog.Any("error", err), slog.String("field", field))
		httpx.Fail(w, http.StatusInternalServerError, "availability check failed")
		return
	}
	httpx.OK(w, map[string]any{"field": field, "value": value, "available": available})
}
