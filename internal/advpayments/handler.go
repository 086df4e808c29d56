package advpayments

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/transactions"
)

const maxUploadSize = 10 << 20 // 10 MiB

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

// Create accepts multipart form data: advance fields plus an optional
// proof-of-payment file under the "attachment" key.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req, err := createRequestFromForm(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	var attachment io.Reader
	var attachmentName string
	if file, header, err := r.FormFile("attachment"); err == nil {
		defer file.Close()
		attachment = file
		attachmentName = header.Filename
	}

	detail, err := h.service.Create(r.Context(), req, attachment, attachmentName, auth.UserIDFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, ErrClientNotFound) {
			httpx.Fail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.Error("create advance payment failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to record advance payment")
		return
	}
	httpx.Created(w, detail)
}

func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	var req AllocateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	balance, err := h.service.Allocate(r.Context(), req, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			httpx.Fail(w, http.StatusConflict, err.Error())
		case errors.Is(err, transactions.ErrOrderNotFound):
			httpx.Fail(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, transactions.ErrOrderTerminal):
			httpx.Fail(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("allocate advance failed", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "failed to allocate advance")
		}
		return
	}
	httpx.OK(w, balance)
}

func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientId"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid client id")
		return
	}

	balance, err := h.service.Balance(r.Context(), clientID)
	if err != nil {
		h.logger.Error("advance balance failed", slog.Any("error", err), slog.Int64("clientId", clientID))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load balance")
		return
	}
	httpx.OK(w, balance)
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientId"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid client id")
		return
	}

	analytics, err := h.service.Analytics(r.Context(), clientID)
	if err != nil {
		h.logger.Error("advance analytics failed", slog.Any("error", err), slog.Int64("clientId", clientID))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load analytics")
		return
	}
	httpx.OK(w, analytics)
}

func (h *Handler) ListForClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := strconv.ParseInt(chi.URLParam(r, "clientId"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid client id")
		return
	}

	result, err := h.service.ListForClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("list advances failed", slog.Any("error", err), slog.Int64("clientId", clientID))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load advance payments")
		return
	}
	if result == nil {
		result = []AdvancePaymentDetail{}
	}
	httpx.OK(w, result)
}

func createRequestFromForm(r *http.Request) (CreateRequest, error) {
	var req CreateRequest

	clientID, err := strconv.ParseInt(r.FormValue("clientId"), 10, 64)
	if err != nil {
		return req, errors.New("clientId must be an integer")
	}
	amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
	if err != nil {
		return req, errors.New("amount must be a number")
	}

	req.ClientID = clientID
	req.Amount = amount
	req.PaymentType = r.FormValue("paymentType")
	if v := r.FormValue("referenceNo"); v != "" {
		req.ReferenceNo = &v
	}
	if v := r.FormValue("remarks"); v != "" {
		req.Remarks = &v
	}
	if v := r.FormValue("receivedAt"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.New("receivedAt must be RFC 3339")
		}
		req.ReceivedAt = &t
	}
	return req, nil
}
