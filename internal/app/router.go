package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/orderdesk/orderdesk/internal/advpayments"
	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/clients"
	"github.com/orderdesk/orderdesk/internal/dashboard"
	"github.com/orderdesk/orderdesk/internal/observability"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/products"
	"github.com/orderdesk/orderdesk/internal/suborders"
	"github.com/orderdesk/orderdesk/internal/transactions"
	"github.com/orderdesk/orderdesk/jobs"
	"github.com/orderdesk/orderdesk/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger                 *slog.Logger
	Config                 *Config
	Auth                   *auth.Service
	AuthHandler            *auth.Handler
	ClientsHandler         *clients.Handler
	ProductsHandler        *products.Handler
	OrdersHandler          *orders.Handler
	SubOrdersHandler       *suborders.Handler
	TransactionsHandler    *transactions.Handler
	AdvancePaymentsHandler *advpayments.Handler
	DashboardHandler       *dashboard.Handler
	ReportHandler          *report.Handler
	JobHandler             *jobs.Handler
	Metrics                *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults. Everything
// except login, health and metrics sits behind the auth guard.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(params.Auth.RequireAuth)

		r.Route("/client", func(r chi.Router) {
			params.ClientsHandler.MountRoutes(r)
			if params.DashboardHandler != nil {
				// Static segment beats the {id} match, so /client/debts
				// stays distinct from GET /client/{id}.
				r.Get("/debts", params.DashboardHandler.ClientDebts)
			}
		})
		r.Route("/product", params.ProductsHandler.MountRoutes)
		r.Route("/order", func(r chi.Router) {
			params.OrdersHandler.MountRoutes(r)
			if params.ReportHandler != nil {
				r.Get("/receipt-pdf", params.ReportHandler.OrderReceipt)
				r.Get("/client/{id}/ledger-pdf", params.ReportHandler.ClientLedger)
			}
		})
		r.Route("/sub-order", func(r chi.Router) {
			params.SubOrdersHandler.MountRoutes(r)
			if params.ReportHandler != nil {
				r.Get("/invoices/{id}/pdf", params.ReportHandler.SubOrderInvoice)
			}
		})
		r.Route("/transaction", func(r chi.Router) {
			params.TransactionsHandler.MountRoutes(r)
			if params.ReportHandler != nil {
				r.Get("/receipt/{id}", params.ReportHandler.TransactionReceipt)
			}
		})
		r.Route("/advanced-payment", func(r chi.Router) {
			params.AdvancePaymentsHandler.MountRoutes(r)
			if params.ReportHandler != nil {
				r.Get("/receipt/{id}", params.ReportHandler.AdvanceReceipt)
			}
		})
		if params.DashboardHandler != nil {
			r.Route("/dashboard", params.DashboardHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
