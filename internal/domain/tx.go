// Package domain 放置跨聚合共享的领域抽象
package domain

import "context"

// TxManager 事务边界
// fn内通过ctx传递的Repository操作在同一事务中执行；fn返回error则回滚
type TxManager interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}
