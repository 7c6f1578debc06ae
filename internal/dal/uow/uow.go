package uow

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/ireturnrequestrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/postgres"
	couponrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/coupon/postgres"
	orderrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/orderitem/postgres"
	productrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/product/postgres"
	returnrequestrepo "github.com/corray333/backend-labs/bookstore/internal/dal/repositories/returnrequest/postgres"
)

// UnitOfWork groups the repositories of one request. Before Begin they run on
// the pool; after Begin every repository shares the transaction.
type UnitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx

	orderRepo         iorderrepo.IOrderRepository
	orderItemRepo     iorderitemrepo.IOrderItemRepository
	returnRequestRepo ireturnrequestrepo.IReturnRequestRepository
	productRepo       iproductrepo.IProductRepository
	couponRepo        icouponrepo.ICouponRepository
}

// NewUnitOfWork creates a unit of work bound to the client's pool.
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{pool: client.Pool()}
	u.bind(client.Pool())

	return u
}

func (u *UnitOfWork) bind(conn postgres.DBTX) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.returnRequestRepo = returnrequestrepo.NewPostgresReturnRequestRepository(conn)
	u.productRepo = productrepo.NewPostgresProductRepository(conn)
	u.couponRepo = couponrepo.NewPostgresCouponRepository(conn)
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) ReturnRequestRepository() ireturnrequestrepo.IReturnRequestRepository {
	return u.returnRequestRepo
}

func (u *UnitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return u.productRepo
}

func (u *UnitOfWork) CouponRepository() icouponrepo.ICouponRepository {
	return u.couponRepo
}

// Begin opens a read committed transaction and rebinds the repositories to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Rollback aborts the transaction. It is a no-op once the transaction is committed.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	if err := u.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	return nil
}
