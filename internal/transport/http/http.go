package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
	countorders "github.com/corray333/backend-labs/bookstore/internal/transport/http/count_orders"
	createorder "github.com/corray333/backend-labs/bookstore/internal/transport/http/create_order"
	getorder "github.com/corray333/backend-labs/bookstore/internal/transport/http/get_order"
	listorders "github.com/corray333/backend-labs/bookstore/internal/transport/http/list_orders"
	orderstatus "github.com/corray333/backend-labs/bookstore/internal/transport/http/order_status"
	returnrequests "github.com/corray333/backend-labs/bookstore/internal/transport/http/return_requests"
	"github.com/corray333/backend-labs/bookstore/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/bookstore/pkg/logger"
)

type service interface {
	CreateOrder(ctx context.Context, in order.CreateOrderModel) (*order.Order, error)
	GetOrder(ctx context.Context, code string) (*order.Order, error)
	TrackOrder(ctx context.Context, code, email string) (*order.Order, error)
	ListOrders(ctx context.Context, filter order.ListFilter) (*order.ListResult, error)
	GetOrderCount(ctx context.Context, from, to *time.Time) (order.StatusCount, error)

	ChangeOrderStatus(ctx context.Context, code string, status int) error
	ConfirmPayment(ctx context.Context, code string) error
	CancelOrder(ctx context.Context, code, email, reason string) error
	ConfirmReceivedOrder(ctx context.Context, code, email string) error

	CreateReturnRequest(
		ctx context.Context,
		in returnrequest.CreateReturnRequestModel,
	) (*returnrequest.ReturnRequest, error)
	GetReturnRequest(ctx context.Context, id int64) (*returnrequest.ReturnRequest, error)
	ListReturnRequests(ctx context.Context, filter returnrequest.ListFilter) (*returnrequest.ListResult, error)
	ChangeReturnRequestStatus(ctx context.Context, id int64, status int) error
	ConfirmReturnRequest(ctx context.Context, id int64, response string) error
	DeclineReturnRequest(ctx context.Context, id int64, response string) error
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

// Run serves HTTP until Shutdown is called.
func (h *HTTPTransport) Run() error {
	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/count", h.countOrders)
			r.Get("/tracking", h.trackOrder)
			r.Post("/cancel", h.cancelOrder)
			r.Post("/confirm-received", h.confirmReceived)
			r.Get("/{code}", h.getOrder)
			r.Patch("/{code}/status", h.changeOrderStatus)
			r.Patch("/{code}/confirm-payment", h.confirmPayment)
		})

		r.Route("/return-requests", func(r chi.Router) {
			r.Post("/", h.createReturnRequest)
			r.Get("/", h.listReturnRequests)
			r.Get("/{id}", h.getReturnRequest)
			r.Patch("/{id}/status", h.changeReturnRequestStatus)
			r.Patch("/{id}/confirm", h.confirmReturnRequest)
			r.Patch("/{id}/decline", h.declineReturnRequest)
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) countOrders(w http.ResponseWriter, r *http.Request) {
	countorders.CountOrders(w, r, h.service)
}

func (h *HTTPTransport) trackOrder(w http.ResponseWriter, r *http.Request) {
	getorder.TrackOrder(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderstatus.CancelOrder(w, r, h.service)
}

func (h *HTTPTransport) confirmReceived(w http.ResponseWriter, r *http.Request) {
	orderstatus.ConfirmReceived(w, r, h.service)
}

func (h *HTTPTransport) changeOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderstatus.ChangeStatus(w, r, h.service)
}

func (h *HTTPTransport) confirmPayment(w http.ResponseWriter, r *http.Request) {
	orderstatus.ConfirmPayment(w, r, h.service)
}

func (h *HTTPTransport) createReturnRequest(w http.ResponseWriter, r *http.Request) {
	returnrequests.Create(w, r, h.service)
}

func (h *HTTPTransport) listReturnRequests(w http.ResponseWriter, r *http.Request) {
	returnrequests.List(w, r, h.service)
}

func (h *HTTPTransport) getReturnRequest(w http.ResponseWriter, r *http.Request) {
	returnrequests.Get(w, r, h.service)
}

func (h *HTTPTransport) changeReturnRequestStatus(w http.ResponseWriter, r *http.Request) {
	returnrequests.ChangeStatus(w, r, h.service)
}

func (h *HTTPTransport) confirmReturnRequest(w http.ResponseWriter, r *http.Request) {
	returnrequests.Confirm(w, r, h.service)
}

func (h *HTTPTransport) declineReturnRequest(w http.ResponseWriter, r *http.Request) {
	returnrequests.Decline(w, r, h.service)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	c := cors.New(cors.Options{
		AllowedOrigins:   viper.GetStringSlice("server.http.cors.allowed_origins"),
		AllowedMethods:   viper.GetStringSlice("server.http.cors.allowed_methods"),
		AllowedHeaders:   viper.GetStringSlice("server.http.cors.allowed_headers"),
		ExposedHeaders:   viper.GetStringSlice("server.http.cors.exposed_headers"),
		AllowCredentials: viper.GetBool("server.http.cors.allow_credentials"),
		MaxAge:           viper.GetInt("server.http.cors.max_age"),
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	port := viper.GetString("server.http.port")
	if port == "" {
		port = "8080"
	}

	return &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
