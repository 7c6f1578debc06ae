package icouponrepo

import (
	"context"

	"github.com/corray333/backend-labs/bookstore/internal/service/models/coupon"
)

// ICouponRepository is the coupon ledger.
type ICouponRepository interface {
	// GetByCode returns nil when no coupon has the code.
	GetByCode(ctx context.Context, code string) (*coupon.Coupon, error)
	// TryConsume takes one redemption, failing with errs.ErrCouponExhausted when none is left.
	TryConsume(ctx context.Context, code string) error
}
