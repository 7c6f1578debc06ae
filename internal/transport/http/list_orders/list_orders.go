package listorders

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/transport/http/httpx"
)

type service interface {
	ListOrders(ctx context.Context, filter order.ListFilter) (*order.ListResult, error)
}

type queryOrdersRequest struct {
	httpx.ListQuery
	Status *int `schema:"status" validate:"omitempty,gte=0"`
}

func (q *queryOrdersRequest) toModel() (order.ListFilter, error) {
	f, err := q.Filter()
	if err != nil {
		return order.ListFilter{}, err
	}

	filter := order.ListFilter{Filter: f}
	if q.Status != nil {
		s := order.Status(*q.Status)
		filter.Status = &s
	}

	return filter, nil
}

func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryOrdersRequest{}
	if err := httpx.DecodeQuery(r, query); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	filter, err := query.toModel()
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	result, err := service.ListOrders(r.Context(), filter)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, result)
}
