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
	"github.com/corray333/backend-labs/bookstore/internal/service/models/coupon"
)

// CouponDal represents coupon data access layer model.
type CouponDal struct {
	Id             int64
	Code           string
	StartDate      time.Time
	EndDate        time.Time
	DiscountType   string
	Discount       decimal.Decimal
	MaxReduction   decimal.NullDecimal
	Quantity       int
	MinimumRequire decimal.Decimal
	DeletedAt      *time.Time
}

// ToModel converts CouponDal to service layer Coupon model.
func (c *CouponDal) ToModel() *coupon.Coupon {
	m := &coupon.Coupon{
		ID:             c.Id,
		Code:           c.Code,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		DiscountType:   coupon.DiscountType(c.DiscountType),
		Discount:       c.Discount,
		Quantity:       c.Quantity,
		MinimumRequire: c.MinimumRequire,
		DeletedAt:      c.DeletedAt,
	}
	if c.MaxReduction.Valid {
		maxReduction := c.MaxReduction.Decimal
		m.MaxReduction = &maxReduction
	}

	return m
}

// PostgresCouponRepository is the coupon ledger over the coupons table.
type PostgresCouponRepository struct {
	conn postgres.DBTX
}

func NewPostgresCouponRepository(conn postgres.DBTX) *PostgresCouponRepository {
	return &PostgresCouponRepository{
		conn: conn,
	}
}

// GetByCode returns the coupon or nil when the code is unknown.
func (r *PostgresCouponRepository) GetByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	query, args, err := sq.Select(
		"id",
		"code",
		"start_date",
		"end_date",
		"discount_type",
		"discount",
		"max_reduction",
		"quantity",
		"minimum_require",
		"deleted_at",
	).
		From("coupons").
		Where(sq.Eq{"code": code}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal CouponDal
	err = r.conn.QueryRow(ctx, query, args...).Scan(
		&dal.Id,
		&dal.Code,
		&dal.StartDate,
		&dal.EndDate,
		&dal.DiscountType,
		&dal.Discount,
		&dal.MaxReduction,
		&dal.Quantity,
		&dal.MinimumRequire,
		&dal.DeletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	return dal.ToModel(), nil
}

// TryConsume takes one redemption in a single guarded statement.
func (r *PostgresCouponRepository) TryConsume(ctx context.Context, code string) error {
	query, args, err := buildConsume(code).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to consume coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("coupon %q: %w", code, errs.ErrCouponExhausted)
	}

	return nil
}

func buildConsume(code string) sq.UpdateBuilder {
	return sq.Update("coupons").
		Set("quantity", sq.Expr("quantity - 1")).
		Where(sq.Eq{"code": code}).
		Where(sq.Gt{"quantity": 0}).
		PlaceholderFormat(sq.Dollar)
}
