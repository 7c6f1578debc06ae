package getorder

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/transport/http/httpx"
)

type service interface {
	GetOrder(ctx context.Context, code string) (*order.Order, error)
	TrackOrder(ctx context.Context, code, email string) (*order.Order, error)
}

// GetOrder returns the order named by the {code} path parameter.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	o, err := service.GetOrder(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, o)
}

type trackOrderRequest struct {
	Code  string `schema:"code"  validate:"required"`
	Email string `schema:"email" validate:"required,email"`
}

// TrackOrder returns an order to the customer who placed it.
func TrackOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := trackOrderRequest{}
	if err := httpx.DecodeQuery(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	o, err := service.TrackOrder(r.Context(), req.Code, req.Email)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, o)
}
