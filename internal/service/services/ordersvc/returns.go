package ordersvc

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/notification"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
)

func validateCreateReturnRequest(in returnrequest.CreateReturnRequestModel) error {
	if in.OrderID <= 0 {
		return errs.NewFieldError("orderId", "must be positive")
	}
	if strings.TrimSpace(in.ReturnReason) == "" {
		return errs.NewFieldError("returnReason", "is required")
	}
	if in.RefundAmount.IsNegative() {
		return errs.NewFieldError("refundAmount", "must not be negative")
	}
	if len(in.Items) == 0 {
		return errs.NewFieldError("orderProducts", "at least one item is required")
	}

	seen := make(map[int64]struct{}, len(in.Items))
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return errs.NewFieldError("returnQuantity", fmt.Sprintf("line item %d: must be positive", item.OrderItemID))
		}
		if _, ok := seen[item.OrderItemID]; ok {
			return errs.NewFieldError("orderProducts", fmt.Sprintf("line item %d is listed twice", item.OrderItemID))
		}
		seen[item.OrderItemID] = struct{}{}
	}

	for _, url := range in.Images {
		if strings.TrimSpace(url) == "" {
			return errs.NewFieldError("images", "must not contain empty urls")
		}
	}

	return nil
}

// CreateReturnRequest files a return against an order and records the
// returned quantity of each listed line item.
func (s *OrderService) CreateReturnRequest(
	ctx context.Context,
	in returnrequest.CreateReturnRequestModel,
) (_ *returnrequest.ReturnRequest, err error) {
	ctx, span := s.startSpan(ctx, "CreateReturnRequest", attribute.Int64("order.id", in.OrderID))
	defer func() { endSpan(span, err) }()

	if err := validateCreateReturnRequest(in); err != nil {
		return nil, err
	}

	var (
		created returnrequest.ReturnRequest
		parent  *order.Order
	)
	err = s.inTx(ctx, func(work unitOfWork) error {
		o, err := work.OrderRepository().GetByID(ctx, in.OrderID)
		if err != nil {
			return err
		}

		items, err := work.OrderItemRepository().Query(ctx, orderitem.QueryOrderItemsModel{OrderIds: []int64{o.ID}})
		if err != nil {
			return err
		}
		byID := make(map[int64]orderitem.OrderItem, len(items))
		for _, item := range items {
			byID[item.ID] = item
		}
		for _, ret := range in.Items {
			item, ok := byID[ret.OrderItemID]
			if !ok {
				return errs.NewFieldError("orderProductId",
					fmt.Sprintf("line item %d does not belong to order %d", ret.OrderItemID, o.ID))
			}
			if ret.Quantity > item.Quantity {
				return errs.NewFieldError("returnQuantity",
					fmt.Sprintf("line item %d: %d exceeds ordered quantity %d", item.ID, ret.Quantity, item.Quantity))
			}
		}

		now := s.now()
		rr := returnrequest.ReturnRequest{
			OrderID:      o.ID,
			Status:       returnrequest.StatusRequested,
			ReturnReason: in.ReturnReason,
			RefundAmount: in.RefundAmount,
			Images:       append([]string{}, in.Images...),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		id, err := work.ReturnRequestRepository().Insert(ctx, rr)
		if err != nil {
			return err
		}
		rr.ID = id

		if err := work.ReturnRequestRepository().InsertImages(ctx, id, in.Images); err != nil {
			return err
		}
		if err := work.OrderItemRepository().SetReturnQuantities(ctx, in.Items); err != nil {
			return err
		}

		created = rr
		parent = o

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, parent.Code)
	s.notify(ctx, notification.SubjectReturnRequestReceived, parent.Email, &created)

	return &created, nil
}

// updateReturnStatus writes the new status of request id and, with closeOrder,
// forces the parent order to COMPLETED in the same transaction.
func (s *OrderService) updateReturnStatus(
	ctx context.Context,
	id int64,
	status returnrequest.Status,
	response *string,
	closeOrder bool,
) (*returnrequest.ReturnRequest, *order.Order, error) {
	var (
		updated *returnrequest.ReturnRequest
		parent  *order.Order
	)
	err := s.inTx(ctx, func(work unitOfWork) error {
		rr, err := work.ReturnRequestRepository().GetByID(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		ok, err := work.ReturnRequestRepository().UpdateStatus(ctx, returnrequest.StatusUpdate{
			ID:        rr.ID,
			To:        status,
			Response:  response,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrReturnRequestNotFound
		}

		o, err := work.OrderRepository().GetByID(ctx, rr.OrderID)
		if err != nil {
			return err
		}

		if closeOrder {
			if _, err := work.OrderRepository().UpdateStatus(ctx, order.StatusUpdate{
				ID:        o.ID,
				To:        order.StatusCompleted,
				UpdatedAt: now,
			}); err != nil {
				return err
			}
			o.Status = order.StatusCompleted
			o.UpdatedAt = now
		}

		rr.Status = status
		rr.UpdatedAt = now
		if response != nil {
			rr.Response = response
		}
		updated = rr
		parent = o

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidate(ctx, parent.Code)

	return updated, parent, nil
}

// ChangeReturnRequestStatus overwrites the status of a return request.
// COMPLETED also completes the parent order.
func (s *OrderService) ChangeReturnRequestStatus(ctx context.Context, id int64, status int) (err error) {
	ctx, span := s.startSpan(ctx, "ChangeReturnRequestStatus",
		attribute.Int64("return_request.id", id),
		attribute.Int("return_request.status", status),
	)
	defer func() { endSpan(span, err) }()

	target := returnrequest.Status(status)
	if !target.Valid() {
		return errs.NewFieldError("status", "unknown return request status")
	}

	_, _, err = s.updateReturnStatus(ctx, id, target, nil, target == returnrequest.StatusCompleted)

	return err
}

func requireResponse(response string) (*string, error) {
	if strings.TrimSpace(response) == "" {
		return nil, errs.NewFieldError("response", "is required")
	}

	return &response, nil
}

// ConfirmReturnRequest accepts a return request with the staff response.
func (s *OrderService) ConfirmReturnRequest(ctx context.Context, id int64, response string) (err error) {
	ctx, span := s.startSpan(ctx, "ConfirmReturnRequest", attribute.Int64("return_request.id", id))
	defer func() { endSpan(span, err) }()

	resp, err := requireResponse(response)
	if err != nil {
		return err
	}

	rr, parent, err := s.updateReturnStatus(ctx, id, returnrequest.StatusConfirmed, resp, false)
	if err != nil {
		return err
	}

	s.notify(ctx, notification.SubjectReturnRequestConfirmed, parent.Email, rr)

	return nil
}

// DeclineReturnRequest rejects a return request with the staff response.
// The parent order is completed all the same.
func (s *OrderService) DeclineReturnRequest(ctx context.Context, id int64, response string) (err error) {
	ctx, span := s.startSpan(ctx, "DeclineReturnRequest", attribute.Int64("return_request.id", id))
	defer func() { endSpan(span, err) }()

	resp, err := requireResponse(response)
	if err != nil {
		return err
	}

	rr, parent, err := s.updateReturnStatus(ctx, id, returnrequest.StatusDeclined, resp, true)
	if err != nil {
		return err
	}

	s.notify(ctx, notification.SubjectReturnRequestDeclined, parent.Email, rr)

	return nil
}

// GetReturnRequest returns a return request with its images.
func (s *OrderService) GetReturnRequest(ctx context.Context, id int64) (_ *returnrequest.ReturnRequest, err error) {
	ctx, span := s.startSpan(ctx, "GetReturnRequest", attribute.Int64("return_request.id", id))
	defer func() { endSpan(span, err) }()

	work := s.newUOW()
	rr, err := work.ReturnRequestRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	requests := []returnrequest.ReturnRequest{*rr}
	if err := attachImages(ctx, work, requests); err != nil {
		return nil, err
	}

	return &requests[0], nil
}

// ListReturnRequests returns one page of return requests matching filter.
func (s *OrderService) ListReturnRequests(
	ctx context.Context,
	filter returnrequest.ListFilter,
) (_ *returnrequest.ListResult, err error) {
	ctx, span := s.startSpan(ctx, "ListReturnRequests", attribute.String("filter.search", filter.Search))
	defer func() { endSpan(span, err) }()

	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, errs.NewFieldError("status", "unknown return request status")
	}

	query := filter.ToQuery()
	work := s.newUOW()

	var (
		requests []returnrequest.ReturnRequest
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requests, err = work.ReturnRequestRepository().Query(gctx, query)

		return err
	})
	g.Go(func() error {
		var err error
		total, err = work.ReturnRequestRepository().Count(gctx, query)

		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := attachImages(ctx, work, requests); err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []returnrequest.ReturnRequest{}
	}

	return &returnrequest.ListResult{
		ReturnRequests: requests,
		TotalItems:     total,
		TotalPages:     filter.TotalPages(total),
	}, nil
}
