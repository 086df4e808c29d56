package transactions

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
	"github.com/orderdesk/orderdesk/internal/shared"
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

type listResponse struct {
	Data       []TransactionDetail `json:"data"`
	Pagination shared.Pagination   `json:"pagination"`
}

// Pay accepts multipart form data: payment fields plus an optional
// proof-of-payment file under the "attachment" key.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	req, err := payRequestFromForm(r)
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

	detail, err := h.service.Pay(r.Context(), req, attachment, attachmentName, auth.UserIDFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			httpx.Fail(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, ErrOrderTerminal):
			httpx.Fail(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidType), errors.Is(err, ErrPaymentMethod):
			httpx.Fail(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("record payment failed", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "failed to record payment")
		}
		return
	}
	httpx.Created(w, detail)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.ParsePageQuery(r)
	pagination := shared.Pagination{Page: page, PerPage: perPage}

	req := ListTransactionsRequest{Limit: perPage, Offset: pagination.Offset()}
	q := r.URL.Query()
	if raw := q.Get("clientId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			req.ClientID = &id
		}
	}
	if raw := q.Get("orderId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			req.OrderID = &id
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

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list transactions failed", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}
	if result == nil {
		result = []TransactionDetail{}
	}

	httpx.JSON(w, http.StatusOK, listResponse{
		Data:       result,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Fail(w, http.StatusNotFound, "transaction not found")
			return
		}
		h.logger.Error("get transaction failed", slog.Any("error", err), slog.Int64("id", id))
		httpx.Fail(w, http.StatusInternalServerError, "failed to load transaction")
		return
	}
	httpx.OK(w, detail)
}

func payRequestFromForm(r *http.Request) (PayRequest, error) {
	var req PayRequest

	orderID, err := strconv.ParseInt(r.FormValue("orderId"), 10, 64)
	if err != nil {
		return req, errors.New("orderId must be an integer")
	}
	amount, err := strconv.ParseFloat(r.FormValue("amount"), 64)
	if err != nil {
		return req, errors.New("amount must be a number")
	}

	req.OrderID = orderID
	req.Amount = amount
	req.TransactionType = TransactionType(r.FormValue("transactionType"))
	if v := r.FormValue("paymentMethod"); v != "" {
		req.PaymentMethod = &v
	}
	if v := r.FormValue("referenceNo"); v != "" {
		req.ReferenceNo = &v
	}
	if v := r.FormValue("remarks"); v != "" {
		req.Remarks = &v
	}
	if v := r.FormValue("transactedAt"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.New("transactedAt must be RFC 3339")
		}
		req.TransactedAt = &t
	}
	return req, nil
}
