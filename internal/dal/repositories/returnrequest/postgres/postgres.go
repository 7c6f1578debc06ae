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
	"github.com/corray333/backend-labs/bookstore/internal/service/models/returnrequest"
)

var returnRequestColumns = []string{
	"rr.id",
	"rr.order_id",
	"rr.status",
	"rr.return_reason",
	"rr.refund_amount",
	"rr.response",
	"rr.created_at",
	"rr.updated_at",
}

// ReturnRequestDal represents return request data access layer model.
type ReturnRequestDal struct {
	Id           int64
	OrderId      int64
	Status       int
	ReturnReason string
	RefundAmount decimal.Decimal
	Response     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (d *ReturnRequestDal) scanTargets() []any {
	return []any{
		&d.Id,
		&d.OrderId,
		&d.Status,
		&d.ReturnReason,
		&d.RefundAmount,
		&d.Response,
		&d.CreatedAt,
		&d.UpdatedAt,
	}
}

// ToModel converts ReturnRequestDal to service layer ReturnRequest model.
func (d *ReturnRequestDal) ToModel() *returnrequest.ReturnRequest {
	return &returnrequest.ReturnRequest{
		ID:           d.Id,
		OrderID:      d.OrderId,
		Status:       returnrequest.Status(d.Status),
		ReturnReason: d.ReturnReason,
		RefundAmount: d.RefundAmount,
		Response:     d.Response,
		Images:       []string{},
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// PostgresReturnRequestRepository implements the return request repository for PostgreSQL.
type PostgresReturnRequestRepository struct {
	conn postgres.DBTX
}

func NewPostgresReturnRequestRepository(conn postgres.DBTX) *PostgresReturnRequestRepository {
	return &PostgresReturnRequestRepository{
		conn: conn,
	}
}

// Insert stores a return request; the order may hold only one.
func (r *PostgresReturnRequestRepository) Insert(ctx context.Context, rr returnrequest.ReturnRequest) (int64, error) {
	query, args, err := sq.Insert("return_requests").
		Columns(
			"order_id",
			"status",
			"return_reason",
			"refund_amount",
			"response",
			"created_at",
			"updated_at",
		).
		Values(
			rr.OrderID,
			int(rr.Status),
			rr.ReturnReason,
			rr.RefundAmount,
			rr.Response,
			rr.CreatedAt,
			rr.UpdatedAt,
		).
		Suffix("ON CONFLICT (order_id) DO NOTHING RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build insert query: %w", err)
	}

	var id int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrReturnRequestExists
		}

		return 0, fmt.Errorf("failed to insert return request: %w", err)
	}

	return id, nil
}

// InsertImages attaches evidence image URLs to a request.
func (r *PostgresReturnRequestRepository) InsertImages(ctx context.Context, requestID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	b := sq.Insert("return_request_images").
		Columns("request_id", "url").
		PlaceholderFormat(sq.Dollar)
	for _, url := range urls {
		b = b.Values(requestID, url)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert return request images: %w", err)
	}

	return nil
}

// GetByID returns the request with the given id.
func (r *PostgresReturnRequestRepository) GetByID(ctx context.Context, id int64) (*returnrequest.ReturnRequest, error) {
	return r.getOne(ctx, sq.Eq{"rr.id": id})
}

// GetByOrderID returns the request filed against the order.
func (r *PostgresReturnRequestRepository) GetByOrderID(
	ctx context.Context,
	orderID int64,
) (*returnrequest.ReturnRequest, error) {
	return r.getOne(ctx, sq.Eq{"rr.order_id": orderID})
}

func (r *PostgresReturnRequestRepository) getOne(ctx context.Context, where sq.Eq) (*returnrequest.ReturnRequest, error) {
	query, args, err := sq.Select(returnRequestColumns...).
		From("return_requests rr").
		Where(where).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var dal ReturnRequestDal
	if err := r.conn.QueryRow(ctx, query, args...).Scan(dal.scanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrReturnRequestNotFound
		}

		return nil, fmt.Errorf("failed to get return request: %w", err)
	}

	return dal.ToModel(), nil
}

// UpdateStatus overwrites the status and, when given, the staff response.
func (r *PostgresReturnRequestRepository) UpdateStatus(
	ctx context.Context,
	upd returnrequest.StatusUpdate,
) (bool, error) {
	b := sq.Update("return_requests").
		Set("status", int(upd.To)).
		Set("updated_at", upd.UpdatedAt).
		Where(sq.Eq{"id": upd.ID}).
		PlaceholderFormat(sq.Dollar)
	if upd.Response != nil {
		b = b.Set("response", *upd.Response)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update return request status: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Query retrieves return requests based on filter criteria.
func (r *PostgresReturnRequestRepository) Query(
	ctx context.Context,
	filter returnrequest.QueryReturnRequestsModel,
) ([]returnrequest.ReturnRequest, error) {
	query, args, err := buildQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query return requests: %w", err)
	}
	defer rows.Close()

	result := []returnrequest.ReturnRequest{}
	for rows.Next() {
		var dal ReturnRequestDal
		if err := rows.Scan(dal.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan return request: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Count returns the number of return requests matching filter, ignoring pagination.
func (r *PostgresReturnRequestRepository) Count(
	ctx context.Context,
	filter returnrequest.QueryReturnRequestsModel,
) (int64, error) {
	query, args, err := applyFilter(sq.Select("COUNT(*)"), filter).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count return requests: %w", err)
	}

	return total, nil
}

// ListImages returns image URLs grouped by request id.
func (r *PostgresReturnRequestRepository) ListImages(ctx context.Context, requestIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(requestIDs))
	if len(requestIDs) == 0 {
		return result, nil
	}

	query, args, err := sq.Select("request_id", "url").
		From("return_request_images").
		Where(sq.Eq{"request_id": requestIDs}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query return request images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			requestID int64
			url       string
		)
		if err := rows.Scan(&requestID, &url); err != nil {
			return nil, fmt.Errorf("failed to scan return request image: %w", err)
		}
		result[requestID] = append(result[requestID], url)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

func buildQuery(filter returnrequest.QueryReturnRequestsModel) sq.SelectBuilder {
	b := applyFilter(sq.Select(returnRequestColumns...), filter)

	if filter.OrderByDesc {
		b = b.OrderBy("rr.created_at DESC", "rr.id DESC")
	} else {
		b = b.OrderBy("rr.created_at ASC", "rr.id ASC")
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}

	return b.PlaceholderFormat(sq.Dollar)
}

func applyFilter(b sq.SelectBuilder, filter returnrequest.QueryReturnRequestsModel) sq.SelectBuilder {
	b = b.From("return_requests rr").Join("orders o ON o.id = rr.order_id")

	if filter.Status != nil {
		b = b.Where(sq.Eq{"rr.status": int(*filter.Status)})
	}
	if filter.Search != "" {
		pattern := postgres.ContainsPattern(filter.Search)
		b = b.Where(sq.Or{
			sq.ILike{"o.code": pattern},
			sq.ILike{"o.name": pattern},
			sq.ILike{"o.phone": pattern},
			sq.ILike{"o.email": pattern},
		})
	}
	if filter.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"rr.created_at": *filter.CreatedFrom})
	}
	if filter.CreatedBefore != nil {
		b = b.Where(sq.Lt{"rr.created_at": *filter.CreatedBefore})
	}

	return b
}
