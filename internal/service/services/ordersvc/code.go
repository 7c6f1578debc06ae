package ordersvc

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/corray333/backend-labs/bookstore/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/backend-labs/bookstore/internal/service/errs"
	"github.com/corray333/backend-labs/bookstore/internal/service/models/order"
)

const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffixLength = 4
	codeTimeLayout   = "060102150405"
)

type codeGenerator func(method order.PaymentMethod, at time.Time) string

// generateCode builds prefix + yyMMddHHmmss + 4 random characters of [A-Z0-9].
func generateCode(method order.PaymentMethod, at time.Time) string {
	suffix := make([]byte, codeSuffixLength)
	for i := range suffix {
		suffix[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}

	return method.CodePrefix() + at.Format(codeTimeLayout) + string(suffix)
}

// insertWithUniqueCode assigns a fresh code to o and inserts it, regenerating
// the code whenever the insert reports a collision.
func (s *OrderService) insertWithUniqueCode(ctx context.Context, repo iorderrepo.IOrderRepository, o *order.Order) error {
	for attempt := 1; attempt <= s.codeMaxAttempts; attempt++ {
		o.Code = s.newCode(o.PaymentMethod, o.CreatedAt)

		id, err := repo.Insert(ctx, *o)
		if errors.Is(err, errs.ErrDuplicateCode) {
			slog.WarnContext(ctx, "Order code collision, regenerating", "code", o.Code, "attempt", attempt)

			continue
		}
		if err != nil {
			return err
		}

		o.ID = id

		return nil
	}

	return errs.ErrCodeGenerationExhausted
}
