package postgresrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReserveIsSingleGuardedDecrement(t *testing.T) {
	query, args, err := buildReserve(7, 3).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE products SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $3", query)
	assert.Equal(t, []any{3, int64(7), 3}, args)
}
