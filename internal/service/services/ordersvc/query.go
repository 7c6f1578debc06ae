package ordersvc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/listing"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
)

// GetOrder returns the order with its line items and return request.
func (s *OrderService) GetOrder(ctx context.Context, code string) (_ *order.Order, err error) {
	ctx, span := s.startSpan(ctx, "GetOrder", attribute.String("order.code", code))
	defer func() { endSpan(span, err) }()

	generation, fill := int64(0), false
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, code)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read order cache", "code", code, "error", err)
		} else if cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))

			return cached, nil
		}

		// Taken before the read so a transition committed meanwhile rejects the fill.
		generation, err = s.cache.Generation(ctx, code)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read order cache generation", "code", code, "error", err)
		}
		fill = err == nil
	}

	work := s.newUOW()
	o, err := work.OrderRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.loadDetails(ctx, work, o); err != nil {
		return nil, err
	}

	if fill {
		stored, err := s.cache.Set(ctx, o, generation)
		if err != nil {
			slog.WarnContext(ctx, "Failed to cache order", "code", code, "error", err)
		} else if !stored {
			slog.DebugContext(ctx, "Skipped caching order invalidated during read", "code", code)
		}
	}

	return o, nil
}

// TrackOrder returns the order only to the customer who placed it.
func (s *OrderService) TrackOrder(ctx context.Context, code, email string) (*order.Order, error) {
	if email == "" {
		return nil, errs.NewFieldError("email", "is required")
	}

	o, err := s.GetOrder(ctx, code)
	if err != nil {
		return nil, err
	}
	if !o.MatchesEmail(email) {
		return nil, errs.ErrOrderNotFound
	}

	return o, nil
}

// loadDetails fills the line items and the return request of o.
func (s *OrderService) loadDetails(ctx context.Context, work unitOfWork, o *order.Order) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := work.OrderItemRepository().Query(gctx, orderitem.QueryOrderItemsModel{OrderIds: []int64{o.ID}})
		if err != nil {
			return err
		}
		o.OrderItems = items

		return nil
	})

	g.Go(func() error {
		rr, err := work.ReturnRequestRepository().GetByOrderID(gctx, o.ID)
		if errors.Is(err, errs.ErrReturnRequestNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		images, err := work.ReturnRequestRepository().ListImages(gctx, []int64{rr.ID})
		if err != nil {
			return err
		}
		rr.Images = append([]string{}, images[rr.ID]...)
		o.ReturnRequest = rr

		return nil
	})

	return g.Wait()
}

// ListOrders returns one page of orders matching filter, each with its line items.
func (s *OrderService) ListOrders(ctx context.Context, filter order.ListFilter) (_ *order.ListResult, err error) {
	ctx, span := s.startSpan(ctx, "ListOrders", attribute.String("filter.search", filter.Search))
	defer func() { endSpan(span, err) }()

	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, errs.NewFieldError("status", "unknown order status")
	}

	query := filter.ToQuery()
	work := s.newUOW()

	var (
		orders []order.Order
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		orders, err = work.OrderRepository().Query(gctx, query)

		return err
	})
	g.Go(func() error {
		var err error
		total, err = work.OrderRepository().Count(gctx, query)

		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(orders) > 0 {
		itemQuery := orderitem.QueryOrderItemsModel{}
		for _, o := range orders {
			itemQuery.OrderIds = append(itemQuery.OrderIds, o.ID)
		}
		items, err := work.OrderItemRepository().Query(ctx, itemQuery)
		if err != nil {
			return nil, err
		}

		byOrder := make(map[int64][]orderitem.OrderItem, len(orders))
		for _, item := range items {
			byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
		}
		for i := range orders {
			orders[i].OrderItems = byOrder[orders[i].ID]
			if orders[i].OrderItems == nil {
				orders[i].OrderItems = []orderitem.OrderItem{}
			}
		}
	}

	if orders == nil {
		orders = []order.Order{}
	}

	return &order.ListResult{
		Orders:     orders,
		TotalItems: total,
		TotalPages: filter.TotalPages(total),
	}, nil
}

// GetOrderCount returns the dashboard counters for orders created between
// from and the end of the day to. Without any bound it counts today's orders.
func (s *OrderService) GetOrderCount(ctx context.Context, from, to *time.Time) (_ order.StatusCount, err error) {
	ctx, span := s.startSpan(ctx, "GetOrderCount")
	defer func() { endSpan(span, err) }()

	if from == nil && to == nil {
		today := listing.StartOfDay(s.now())
		from = &today
	}

	w := listing.Filter{From: from, To: to}
	if err := w.Validate(); err != nil {
		return order.StatusCount{}, err
	}
	window := w.Window()

	return s.newUOW().OrderRepository().CountByStatus(ctx, order.CountRange{
		CreatedFrom:   window.CreatedFrom,
		CreatedBefore: window.CreatedBefore,
	})
}

// attachImages fills Images of every request from one batched lookup.
func attachImages(ctx context.Context, work unitOfWork, requests []returnrequest.ReturnRequest) error {
	if len(requests) == 0 {
		return nil
	}

	ids := make([]int64, len(requests))
	for i, rr := range requests {
		ids[i] = rr.ID
	}

	images, err := work.ReturnRequestRepository().ListImages(ctx, ids)
	if err != nil {
		return err
	}
	for i := range requests {
		requests[i].Images = append([]string{}, images[requests[i].ID]...)
	}

	return nil
}
