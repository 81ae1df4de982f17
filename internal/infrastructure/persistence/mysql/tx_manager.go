package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/plantshop/internal/domain"
)

type txKey struct{}

// TxManager 事务管理器
// 事务DB通过context传递，fn内的所有Repository操作都在同一事务中执行；
// 嵌套调用时GORM自动使用Savepoint
type TxManager struct {
	db *gorm.DB
}

var _ domain.TxManager = (*TxManager)(nil)

// NewTxManager 创建事务管理器
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// Transaction fn返回error时ROLLBACK，返回nil时COMMIT
//
//	err := txManager.Transaction(ctx, func(ctx context.Context) error {
//	    o, err := orderRepo.LockByID(ctx, id)
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	    return outboxRepo.Enqueue(ctx, tasks...)
//	})
func (m *TxManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return dbFrom(ctx, m.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom 从context获取事务DB，如果没有则使用默认DB
func dbFrom(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return db.WithContext(ctx)
}
