package createorder

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
	"github.com/corray333/backend-labs/bookstore/internal/transport/http/httpx"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, in order.CreateOrderModel) (*order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID int64 `json:"productId" validate:"gt=0"`
	Quantity  int   `json:"quantity"  validate:"gt=0"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	Name          string                     `json:"name"          validate:"required"`
	Email         string                     `json:"email"         validate:"required,email"`
	Phone         string                     `json:"phone"         validate:"required"`
	Address       string                     `json:"address"       validate:"required"`
	District      string                     `json:"district"`
	Province      string                     `json:"province"`
	Country       string                     `json:"country"`
	Note          *string                    `json:"note"`
	PaymentMethod string                     `json:"paymentMethod" validate:"required"`
	DeliveryFee   decimal.Decimal            `json:"deliveryFee"`
	CouponCode    *string                    `json:"couponCode"`
	UserID        *int64                     `json:"userId"`
	OrderProducts []itemInCreateOrderRequest `json:"orderProducts" validate:"required,min=1,dive"`
}

// toModel converts createOrderRequest to order.CreateOrderModel.
func (r *createOrderRequest) toModel() order.CreateOrderModel {
	items := make([]order.CreateOrderItemModel, len(r.OrderProducts))
	for i, item := range r.OrderProducts {
		items[i] = order.CreateOrderItemModel{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}

	return order.CreateOrderModel{
		Customer: order.Customer{
			Name:     r.Name,
			Email:    r.Email,
			Phone:    r.Phone,
			Address:  r.Address,
			District: r.District,
			Province: r.Province,
			Country:  r.Country,
		},
		Items:         items,
		CouponCode:    r.CouponCode,
		DeliveryFee:   r.DeliveryFee,
		Note:          r.Note,
		UserID:        r.UserID,
		PaymentMethod: strings.ToUpper(r.PaymentMethod),
	}
}

// CreateOrder handles the create order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toModel())
	if err != nil {
		httpx.WriteError(w, r, err)

		return
	}

	httpx.WriteJSON(w, r, http.StatusCreated, created)
}
