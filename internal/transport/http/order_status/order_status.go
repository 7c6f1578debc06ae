// Package orderstatus handles the requests that move an order through its lifecycle.
package orderstatus

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corray333/backend-labs/bookstore/internal/transport/http/httpx"
)

type service interface {
	ChangeOrderStatus(ctx context.Context, code string, status int) error
	ConfirmPayment(ctx context.Context, code string) error
	CancelOrder(ctx context.Context, code, email, reason string) error
	ConfirmReceivedOrder(ctx context.Context, code, email string) error
}

// StatusResponse acknowledges a transition.
type StatusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type changeStatusRequest struct {
	Status *int `json:"status" validate:"required"`
}

// ChangeStatus overwrites the status of the order named by {code}.
func ChangeStatus(w http.ResponseWriter, r *http.Request, service service) {
	req := changeStatusRequest{}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	code := chi.URLParam(r, "code")
	if err := service.ChangeOrderStatus(r.Context(), code, *req.Status); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, StatusResponse{Code: code, Message: "order status updated"})
}

// ConfirmPayment marks the payment of the order named by {code} as received.
func ConfirmPayment(w http.ResponseWriter, r *http.Request, service service) {
	code := chi.URLParam(r, "code")
	if err := service.ConfirmPayment(r.Context(), code); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, StatusResponse{Code: code, Message: "payment confirmed"})
}

type cancelOrderRequest struct {
	Code         string `json:"code"         validate:"required"`
	Email        string `json:"email"        validate:"required,email"`
	CancelReason string `json:"cancelReason"`
}

func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := cancelOrderRequest{}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	if err := service.CancelOrder(r.Context(), req.Code, req.Email, req.CancelReason); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, StatusResponse{Code: req.Code, Message: "order canceled"})
}

type confirmReceivedRequest struct {
	Code  string `json:"code"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func ConfirmReceived(w http.ResponseWriter, r *http.Request, service service) {
	req := confirmReceivedRequest{}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	if err := service.ConfirmReceivedOrder(r.Context(), req.Code, req.Email); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, StatusResponse{Code: req.Code, Message: "order completed"})
}
