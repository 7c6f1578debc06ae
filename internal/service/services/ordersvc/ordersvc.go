package ordersvc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/icouponrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/inotificationrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iordercache"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iproductrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/ireturnrequestrepo"
	"github.com/corray333/backend-labs/bookstore/internal/dal/postgres"
	"github.com/corray333/backend-labs/bookstore/internal/dal/uow"
)

const (
	tracerName             = "bookstore-svc"
	defaultCodeMaxAttempts = 5
)

// OrderService is a service for managing orders and their return requests.
type OrderService struct {
	newUOW          func() unitOfWork
	notifier        inotificationrepo.INotificationRepository
	cache           iordercache.IOrderCache
	staffRecipients []string
	codeMaxAttempts int
	restockOnCancel bool

	now          func() time.Time
	newCode      codeGenerator
	newMessageID func() string
	tracer       trace.Tracer
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	ReturnRequestRepository() ireturnrequestrepo.IReturnRequestRepository
	ProductRepository() iproductrepo.IProductRepository
	CouponRepository() icouponrepo.ICouponRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		codeMaxAttempts: defaultCodeMaxAttempts,
		now:             time.Now,
		newCode:         generateCode,
		newMessageID:    uuid.NewString,
		tracer:          otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("ordersvc: postgres client is required")
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(pgClient)
		}
	}
}

// WithNotificationRepository sets where transition notifications go.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithNotificationRepository(notifier inotificationrepo.INotificationRepository) option {
	return func(s *OrderService) {
		s.notifier = notifier
	}
}

// WithOrderCache enables the order details cache.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderCache(cache iordercache.IOrderCache) option {
	return func(s *OrderService) {
		s.cache = cache
	}
}

// WithStaffRecipients adds addresses that receive a copy of every notification.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithStaffRecipients(recipients []string) option {
	return func(s *OrderService) {
		s.staffRecipients = recipients
	}
}

// WithCodeMaxAttempts bounds the order code generation retries.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCodeMaxAttempts(attempts int) option {
	return func(s *OrderService) {
		if attempts > 0 {
			s.codeMaxAttempts = attempts
		}
	}
}

// WithRestockOnCancel makes cancellation return reserved stock to the inventory.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRestockOnCancel(restock bool) option {
	return func(s *OrderService) {
		s.restockOnCancel = restock
	}
}

// WithClock overrides the time source.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *OrderService) {
		s.now = now
	}
}

// inTx runs fn inside a transaction. Any error returned by fn rolls back
// every write made through work.
func (s *OrderService) inTx(ctx context.Context, fn func(work unitOfWork) error) error {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(work); err != nil {
		return err
	}

	return work.Commit(ctx)
}

func (s *OrderService) startSpan(
	ctx context.Context,
	name string,
	attrs ...attribute.KeyValue,
) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "OrderService."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (s *OrderService) invalidate(ctx context.Context, orderCodes ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, orderCodes...); err != nil {
		slog.WarnContext(ctx, "Failed to invalidate cached orders", "codes", orderCodes, "error", err)
	}
}
