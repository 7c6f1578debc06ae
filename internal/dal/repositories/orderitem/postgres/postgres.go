package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/bookstore/internal/dal/postgres"
	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/orderitem"
)

const orderProductConstraint = "order_items_order_id_product_id_key"

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id             int64
	OrderId        int64
	ProductId      int64
	Quantity       int
	Price          decimal.Decimal
	VatRate        decimal.Decimal
	ReturnQuantity *int
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (i *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:             i.Id,
		OrderID:        i.OrderId,
		ProductID:      i.ProductId,
		Quantity:       i.Quantity,
		Price:          i.Price,
		VatRate:        i.VatRate,
		ReturnQuantity: i.ReturnQuantity,
	}
}

// PostgresOrderItemRepository implements the order item repository for PostgreSQL.
type PostgresOrderItemRepository struct {
	conn postgres.DBTX
}

func NewPostgresOrderItemRepository(conn postgres.DBTX) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
	}
}

// BulkInsert inserts line items and returns them with their ids.
func (r *PostgresOrderItemRepository) BulkInsert(
	ctx context.Context,
	orderItems []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(orderItems) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	sql := `
		INSERT INTO order_items (
			order_id,
			product_id,
			quantity,
			price,
			vat_rate
		)
		SELECT
			order_id,
			product_id,
			quantity,
			price,
			vat_rate
		FROM unnest($1::bigint[], $2::bigint[], $3::int[], $4::numeric[], $5::numeric[])
		WITH ORDINALITY AS t(order_id, product_id, quantity, price, vat_rate, ord)
		ORDER BY t.ord
		RETURNING
			id,
			order_id,
			product_id,
			quantity,
			price,
			vat_rate,
			return_quantity
	`

	orderIds := make([]int64, len(orderItems))
	productIds := make([]int64, len(orderItems))
	quantities := make([]int32, len(orderItems))
	prices := make([]string, len(orderItems))
	vatRates := make([]string, len(orderItems))

	for i, item := range orderItems {
		orderIds[i] = item.OrderID
		productIds[i] = item.ProductID
		quantities[i] = int32(item.Quantity)
		prices[i] = item.Price.String()
		vatRates[i] = item.VatRate.String()
	}

	rows, err := r.conn.Query(ctx, sql, orderIds, productIds, quantities, prices, vatRates)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	result := make([]orderitem.OrderItem, 0, len(orderItems))
	for rows.Next() {
		var dal OrderItemDal
		if err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.Price,
			&dal.VatRate,
			&dal.ReturnQuantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		if postgres.IsUniqueViolation(err, orderProductConstraint) {
			return nil, errs.NewFieldError("orderProducts", "a product may appear only once per order")
		}

		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Query retrieves order items based on filter criteria.
func (r *PostgresOrderItemRepository) Query(
	ctx context.Context,
	filter orderitem.QueryOrderItemsModel,
) ([]orderitem.OrderItem, error) {
	query, args, err := buildQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	result := []orderitem.OrderItem{}
	for rows.Next() {
		var dal OrderItemDal
		if err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Quantity,
			&dal.Price,
			&dal.VatRate,
			&dal.ReturnQuantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func buildQuery(filter orderitem.QueryOrderItemsModel) sq.SelectBuilder {
	b := sq.Select(
		"id",
		"order_id",
		"product_id",
		"quantity",
		"price",
		"vat_rate",
		"return_quantity",
	).
		From("order_items").
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar)

	if len(filter.Ids) > 0 {
		b = b.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.OrderIds) > 0 {
		b = b.Where(sq.Eq{"order_id": filter.OrderIds})
	}

	return b
}

// SetReturnQuantities records the returned quantity of each listed line item.
func (r *PostgresOrderItemRepository) SetReturnQuantities(
	ctx context.Context,
	quantities []orderitem.ReturnQuantity,
) error {
	if len(quantities) == 0 {
		return nil
	}

	sql := `
		UPDATE order_items AS oi
		SET return_quantity = t.quantity
		FROM unnest($1::bigint[], $2::int[]) AS t(id, quantity)
		WHERE oi.id = t.id
	`

	ids := make([]int64, len(quantities))
	qtys := make([]int32, len(quantities))
	for i, q := range quantities {
		ids[i] = q.OrderItemID
		qtys[i] = int32(q.Quantity)
	}

	if _, err := r.conn.Exec(ctx, sql, ids, qtys); err != nil {
		return fmt.Errorf("failed to set return quantities: %w", err)
	}

	return nil
}
