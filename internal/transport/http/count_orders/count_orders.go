package countorders

import (
	"context"
	"net/http"
	"time"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/transport/http/httpx"
)

type service interface {
	GetOrderCount(ctx context.Context, from, to *time.Time) (order.StatusCount, error)
}

type countOrdersRequest struct {
	FromDate string `schema:"fromDate" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string `schema:"toDate"   validate:"omitempty,datetime=2006-01-02"`
}

// CountOrders returns the dashboard counters. Without dates it counts today's orders.
func CountOrders(w http.ResponseWriter, r *http.Request, service service) {
	req := countOrdersRequest{}
	if err := httpx.DecodeQuery(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	from, err := httpx.ParseDate("fromDate", req.FromDate)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}
	to, err := httpx.ParseDate("toDate", req.ToDate)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	count, err := service.GetOrderCount(r.Context(), from, to)
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusOK, count)
}
