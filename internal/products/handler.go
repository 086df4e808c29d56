package products

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

// MountRoutes registers product routes under /product.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/all", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type listResponse struct {
	Data       []Product         `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.ParsePageQuery(r)
	pagination := shared.Pagination{Page: page, PerPage: perPage}

	req := ListProductsRequest{Limit: perPage, Offset: pagination.Offset()}
	if search := r.URL.Query().Get("search"); search != "" {
		req.Search = &search
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	if result == nil {
		result = []Product{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Data:       result,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("get product failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	httpx.OK(w, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	product, err := h.service.Create(r.Context(), req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, ErrInvalidUnit) {
			httpx.Fail(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("create product failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	httpx.Created(w, product)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	product, err := h.service.Update(r.Context(), id, req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "product not found")
		case errors.Is(err, ErrInvalidUnit):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("update product failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}
	httpx.OK(w, product)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.service.Delete(r.Context(), id, auth.UserIDFromContext(r.Context())); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Fail(w, http.StatusNotFound, "product not found")
		case errors.Is(err, ErrInUse):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("delete product failed", slog.Any("error", err), slog.Int64("id", id))
			httpx.Fail(w, http.StatusInternalServerError, "failed to delete product")
		}
		return
	}
	httpx.OK(w, map[string]string{"status": "deleted"})
}
