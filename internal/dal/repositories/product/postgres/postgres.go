package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/corray333/backend-labs/bookstore/internal/dal/postgres"
	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/product"
)

// PostgresProductRepository is the inventory ledger over the products table.
type PostgresProductRepository struct {
	conn postgres.DBTX
}

func NewPostgresProductRepository(conn postgres.DBTX) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
	}
}

// Get returns the inventory view of a product.
func (r *PostgresProductRepository) Get(ctx context.Context, id int64) (*product.Product, error) {
	query, args, err := sq.Select("id", "price", "vat_rate", "quantity").
		From("products").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var p product.Product
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&p.ID, &p.Price, &p.VatRate, &p.Quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrProductNotFound
		}

		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

// TryReserve decrements the stock in a single guarded statement.
func (r *PostgresProductRepository) TryReserve(ctx context.Context, id int64, qty int) error {
	query, args, err := buildReserve(id, qty).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to reserve product %d: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if _, err := r.Get(ctx, id); err != nil {
		return err
	}

	return fmt.Errorf("product %d: %w", id, errs.ErrInsufficientStock)
}

func buildReserve(id int64, qty int) sq.UpdateBuilder {
	return sq.Update("products").
		Set("quantity", sq.Expr("quantity - ?", qty)).
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"quantity": qty}).
		PlaceholderFormat(sq.Dollar)
}

// Release returns qty units to stock.
func (r *PostgresProductRepository) Release(ctx context.Context, id int64, qty int) error {
	query, args, err := sq.Update("products").
		Set("quantity", sq.Expr("quantity + ?", qty)).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to release product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("release product %d: %w", id, errs.ErrProductNotFound)
	}

	return nil
}
