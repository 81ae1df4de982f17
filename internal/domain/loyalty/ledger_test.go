package loyalty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore map[uint]int64

func (m memStore) AddPoints(_ context.Context, userID uint, points int64) error {
	m[userID] += points
	return nil
}

func (m memStore) SubtractPointsClamped(_ context.Context, userID uint, points int64) error {
	m[userID] = max(m[userID]-points, 0)
	return nil
}

func (m memStore) Balance(_ context.Context, userID uint) (int64, error) {
	return m[userID], nil
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	store := memStore{1: 10}
	l := NewLedger(store, nil)

	t.Run("发放", func(t *testing.T) {
		require.NoError(t, l.Credit(ctx, 1, 41))
		assert.EqualValues(t, 51, store[1])
	})

	t.Run("扣回钳制在0", func(t *testing.T) {
		require.NoError(t, l.Debit(ctx, 1, 100))
		assert.EqualValues(t, 0, store[1])
	})

	t.Run("非正数不变", func(t *testing.T) {
		store[1] = 5
		require.NoError(t, l.Credit(ctx, 1, 0))
		require.NoError(t, l.Debit(ctx, 1, -3))
		assert.EqualValues(t, 5, store[1])
	})
}

func TestRedeemable(t *testing.T) {
	tests := []struct {
		name                      string
		requested, balance, total int64
		want                      int64
	}{
		{"受申请数限制", 10, 50, 300000, 10},
		{"受余额限制", 100, 20, 300000, 20},
		{"受金额限制", 100, 500, 45500, 45},
		{"负数申请", -5, 50, 300000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redeemable(tt.requested, tt.balance, tt.total))
		})
	}
}
