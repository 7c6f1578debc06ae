// Package returnrequests handles the return request endpoints.
package returnrequests

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
	"github.com/corray333/backend-labs/bookstore/internal/transport/http/httpx"
)

type service interface {
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

type itemInCreateReturnRequest struct {
	OrderProductID int64 `json:"orderProductId" validate:"gt=0"`
	ReturnQuantity int   `json:"returnQuantity" validate:"gt=0"`
}

type createReturnRequest struct {
	OrderID       int64                       `json:"orderId"       validate:"gt=0"`
	ReturnReason  string                      `json:"returnReason"  validate:"required"`
	RefundAmount  decimal.Decimal             `json:"refundAmount"`
	OrderProducts []itemInCreateReturnRequest `json:"orderProducts" validate:"required,min=1,dive"`
	Images        []string                    `json:"images"        validate:"dive,url"`
}

func (r *createReturnRequest) toModel() returnrequest.CreateReturnRequestModel {
	items := make([]orderitem.ReturnQuantity, len(r.OrderProducts))
	for i, item := range r.OrderProducts {
		items[i] = orderitem.ReturnQuantity{
			OrderItemID: item.OrderProductID,
			Quantity:    item.ReturnQuantity,
		}
	}

	return returnrequest.CreateReturnRequestModel{
		OrderID:      r.OrderID,
		ReturnReason: r.ReturnReason,
		RefundAmount: r.RefundAmount,
		Items:        items,
		Images:       r.Images,
	}
}

// Create files a new return request.
func Create(w http.ResponseWriter, r *http.Request, service service) {
	req := createReturnRequest{}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	created, err := service.CreateReturnRequest(r.Context(), req.toModel())
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusCreated, created)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.NewFieldError("id", "must be a positive integer")
	}

	return id, nil
}

func Get(w http.ResponseWriter, r *http.Request, service service) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	rr, err := service.GetReturnRequest(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, rr)
}

type listReturnRequestsRequest struct {
	httpx.ListQuery
	Status *int `schema:"status" validate:"omitempty,gte=0"`
}

// List returns a page of return requests.
func List(w http.ResponseWriter, r *http.Request, service service) {
	query := &listReturnRequestsRequest{}
	if err := httpx.DecodeQuery(r, query); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	f, err := query.Filter()
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}
	filter := returnrequest.ListFilter{Filter: f}
	if query.Status != nil {
		s := returnrequest.Status(*query.Status)
		filter.Status = &s
	}

	result, err := service.ListReturnRequests(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, result)
}

// StatusResponse acknowledges a transition.
type StatusResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type changeStatusRequest struct {
	Status *int `json:"status" validate:"required"`
}

func ChangeStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	req := changeStatusRequest{}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	if err := service.ChangeReturnRequestStatus(r.Context(), id, *req.Status); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, StatusResponse{ID: id, Message: "return request status updated"})
}

type respondRequest struct {
	Response string `json:"response" validate:"required"`
}

// Confirm accepts the return request named by {id}.
func Confirm(w http.ResponseWriter, r *http.Request, service service) {
	respond(w, r, service.ConfirmReturnRequest, "return request confirmed")
}

// Decline rejects the return request named by {id}.
func Decline(w http.ResponseWriter, r *http.Request, service service) {
	respond(w, r, service.DeclineReturnRequest, "return request declined")
}

func respond(
	w http.ResponseWriter,
	r *http.Request,
	apply func(ctx context.Context, id int64, response string) error,
	message string,
) {
	id, err := pathID(r)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	req := respondRequest{}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	if err := apply(r.Context(), id, req.Response); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, StatusResponse{ID: id, Message: message})
}
