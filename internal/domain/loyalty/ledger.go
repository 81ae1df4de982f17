// Package loyalty 积分台账
//
// 积分余额存放在用户表上，本包只负责加减规则：
// 发放直接累加，回收钳制在0（单条SQL完成，不做先读后写）。
// 积分变动不留流水。
package loyalty

import (
	"context"

	"go.uber.org/zap"
)

// PointValue 1积分抵扣的金额（VND）
const PointValue = 1000

// BalanceStore 积分余额存储
type BalanceStore interface {
	// AddPoints loyalty_points = loyalty_points + points
	AddPoints(ctx context.Context, userID uint, points int64) error

	// SubtractPointsClamped loyalty_points = GREATEST(loyalty_points - points, 0)
	SubtractPointsClamped(ctx context.Context, userID uint, points int64) error

	Balance(ctx context.Context, userID uint) (int64, error)
}

// Ledger 积分台账
type Ledger struct {
	store  BalanceStore
	logger *zap.Logger
}

// NewLedger 创建积分台账
func NewLedger(store BalanceStore, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, logger: logger}
}

// Credit 发放积分，points<=0时不做任何事
func (l *Ledger) Credit(ctx context.Context, userID uint, points int64) error {
	if points <= 0 || userID == 0 {
		return nil
	}
	if err := l.store.AddPoints(ctx, userID, points); err != nil {
		return err
	}
	l.logger.Info("积分发放", zap.Uint("user_id", userID), zap.Int64("points", points))
	return nil
}

// Debit 扣回积分，余额不足时扣到0为止
func (l *Ledger) Debit(ctx context.Context, userID uint, points int64) error {
	if points <= 0 || userID == 0 {
		return nil
	}
	if err := l.store.SubtractPointsClamped(ctx, userID, points); err != nil {
		return err
	}
	l.logger.Info("积分扣回", zap.Uint("user_id", userID), zap.Int64("points", points))
	return nil
}

// Balance 当前余额
func (l *Ledger) Balance(ctx context.Context, userID uint) (int64, error) {
	return l.store.Balance(ctx, userID)
}

// MaxRedeemable 按应付金额计算最多可抵扣的积分
func MaxRedeemable(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount / PointValue
}

// Redeemable 实际可抵扣积分 = min(申请, 余额, 上限)
func Redeemable(requested, balance, amount int64) int64 {
	n := requested
	if balance < n {
		n = balance
	}
	if limit := MaxRedeemable(amount); limit < n {
		n = limit
	}
	if n < 0 {
		return 0
	}
	return n
}
