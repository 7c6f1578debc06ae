package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/bookstore/internal/dal/postgres"
	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
)

var orderColumns = []string{
	"id",
	"code",
	"status",
	"name",
	"email",
	"phone",
	"address",
	"district",
	"province",
	"country",
	"note",
	"payment_method",
	"subtotal",
	"delivery_fee",
	"coupon_code",
	"coupon_amount",
	"grand_total",
	"cancel_reason",
	"user_id",
	"created_at",
	"updated_at",
}

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id            int64
	Code          string
	Status        int
	Name          string
	Email         string
	Phone         string
	Address       string
	District      string
	Province      string
	Country       string
	Note          *string
	PaymentMethod string
	Subtotal      decimal.Decimal
	DeliveryFee   decimal.Decimal
	CouponCode    *string
	CouponAmount  decimal.NullDecimal
	GrandTotal    decimal.Decimal
	CancelReason  *string
	UserId        *int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (o *OrderDal) scanTargets() []any {
	return []any{
		&o.Id,
		&o.Code,
		&o.Status,
		&o.Name,
		&o.Email,
		&o.Phone,
		&o.Address,
		&o.District,
		&o.Province,
		&o.Country,
		&o.Note,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.CouponCode,
		&o.CouponAmount,
		&o.GrandTotal,
		&o.CancelReason,
		&o.UserId,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() *order.Order {
	return &order.Order{
		ID:     o.Id,
		Code:   o.Code,
		Status: order.Status(o.Status),
		Customer: order.Customer{
			Name:     o.Name,
			Email:    o.Email,
			Phone:    o.Phone,
			Address:  o.Address,
			District: o.District,
			Province: o.Province,
			Country:  o.Country,
		},
		Note:          o.Note,
		PaymentMethod: order.PaymentMethod(o.PaymentMethod),
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		CouponCode:    o.CouponCode,
		CouponAmount:  o.CouponAmount.Decimal,
		GrandTotal:    o.GrandTotal,
		CancelReason:  o.CancelReason,
		UserID:        o.UserId,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// OrderDalFromModel converts service layer Order model to OrderDal.
func OrderDalFromModel(o *order.Order) *OrderDal {
	dal := &OrderDal{
		Id:            o.ID,
		Code:          o.Code,
		Status:        int(o.Status),
		Name:          o.Name,
		Email:         o.Email,
		Phone:         o.Phone,
		Address:       o.Address,
		District:      o.District,
		Province:      o.Province,
		Country:       o.Country,
		Note:          o.Note,
		PaymentMethod: string(o.PaymentMethod),
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		CouponCode:    o.CouponCode,
		GrandTotal:    o.GrandTotal,
		CancelReason:  o.CancelReason,
		UserId:        o.UserID,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
	if o.CouponCode != nil {
		dal.CouponAmount = decimal.NewNullDecimal(o.CouponAmount)
	}

	return dal
}

// PostgresOrderRepository implements the order repository for PostgreSQL.
type PostgresOrderRepository struct {
	conn postgres.DBTX
}

// NewPostgresOrderRepository creates a repository bound to a pool or a transaction.
func NewPostgresOrderRepository(conn postgres.DBTX) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
	}
}

// Insert stores the order unless its code is already taken.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (int64, error) {
	dal := OrderDalFromModel(&o)

	query, args, err := sq.Insert("orders").
		Columns(orderColumns[1:]...).
		Values(
			dal.Code,
			dal.Status,
			dal.Name,
			dal.Email,
			dal.Phone,
			dal.Address,
			dal.District,
			dal.Province,
			dal.Country,
			dal.Note,
			dal.PaymentMethod,
			dal.Subtotal,
			dal.DeliveryFee,
			dal.CouponCode,
			dal.CouponAmount,
			dal.GrandTotal,
			dal.CancelReason,
			dal.UserId,
			dal.CreatedAt,
			dal.UpdatedAt,
		).
		Suffix("ON CONFLICT (code) DO NOTHING RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert query: %w", err)
	}

	var id int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrDuplicateCode
		}

		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	return id, nil
}

// GetByCode returns the order with the given code.
func (r *PostgresOrderRepository) GetByCode(ctx context.Context, code string) (*order.Order, error) {
	return r.getOne(ctx, sq.Eq{"code": code})
}

// GetByID returns the order with the given id.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *PostgresOrderRepository) getOne(ctx context.Context, where sq.Eq) (*order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(where).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal OrderDal
	if err := r.conn.QueryRow(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrOrderNotFound
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return dal.ToModel(), nil
}

// UpdateStatus applies a status write and reports whether the order matched.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, upd order.StatusUpdate) (bool, error) {
	query, args, err := buildUpdateStatus(upd).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func buildUpdateStatus(upd order.StatusUpdate) sq.UpdateBuilder {
	b := sq.Update("orders").
		Set("status", int(upd.To)).
		Set("updated_at", upd.UpdatedAt).
		Where(sq.Eq{"id": upd.ID}).
		PlaceholderFormat(sq.Dollar)
	if upd.CancelReason != nil {
		b = b.Set("cancel_reason", *upd.CancelReason)
	}
	if len(upd.From) > 0 {
		from := make([]int, len(upd.From))
		for i, s := range upd.From {
			from[i] = int(s)
		}
		b = b.Where(sq.Eq{"status": from})
	}

	return b
}

// Query retrieves orders based on filter criteria.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter order.QueryOrdersModel) ([]order.Order, error) {
	query, args, err := buildQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	result := []order.Order{}
	for rows.Next() {
		var dal OrderDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Count returns the number of orders matching filter, ignoring pagination.
func (r *PostgresOrderRepository) Count(ctx context.Context, filter order.QueryOrdersModel) (int64, error) {
	query, args, err := applyFilter(sq.Select("COUNT(*)").From("orders"), filter).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return total, nil
}

// CountByStatus returns the dashboard counters for orders created in rng.
func (r *PostgresOrderRepository) CountByStatus(ctx context.Context, rng order.CountRange) (order.StatusCount, error) {
	query, args, err := buildCountByStatus(rng).ToSql()
	if err != nil {
		return order.StatusCount{}, fmt.Errorf("failed to build count query: %w", err)
	}

	var c order.StatusCount
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&c.Total, &c.Confirmed, &c.Shipping, &c.Delivered); err != nil {
		return order.StatusCount{}, fmt.Errorf("failed to count orders by status: %w", err)
	}

	return c, nil
}

func buildCountByStatus(rng order.CountRange) sq.SelectBuilder {
	b := sq.Select(
		"COUNT(*)",
		countStatus(order.StatusConfirmed),
		countStatus(order.StatusShipping),
		countStatus(order.StatusDelivered),
	).
		From("orders").
		PlaceholderFormat(sq.Dollar)
	if rng.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": *rng.CreatedFrom})
	}
	if rng.CreatedBefore != nil {
		b = b.Where(sq.Lt{"created_at": *rng.CreatedBefore})
	}

	return b
}

func countStatus(s order.Status) string {
	return fmt.Sprintf("COUNT(*) FILTER (WHERE status = %d)", int(s))
}

func buildQuery(filter order.QueryOrdersModel) sq.SelectBuilder {
	b := applyFilter(sq.Select(orderColumns...).From("orders"), filter)

	if filter.OrderByDesc {
		b = b.OrderBy("created_at DESC", "id DESC")
	} else {
		b = b.OrderBy("created_at ASC", "id ASC")
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	return b.PlaceholderFormat(sq.Dollar)
}

func applyFilter(b sq.SelectBuilder, filter order.QueryOrdersModel) sq.SelectBuilder {
	if filter.Status != nil {
		b = b.Where(sq.Eq{"status": int(*filter.Status)})
	}
	if filter.Search != "" {
		pattern := postgres.ContainsPattern(filter.Search)
		b = b.Where(sq.Or{
			sq.ILike{"code": pattern},
			sq.ILike{"name": pattern},
			sq.ILike{"phone": pattern},
			sq.ILike{"email": pattern},
		})
	}
	if filter.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedBefore != nil {
		b = b.Where(sq.Lt{"created_at": *filter.CreatedBefore})
	}

	return b
}
