package inventory

import "context"

// ProductRepository 商品库存仓储
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*Product, error)

	// LockByID 加行锁读取商品及其规格，必须在事务中调用
	LockByID(ctx context.Context, id uint) (*Product, error)

	// SaveStock 保存InStock、SoldCount和各规格Stock
	SaveStock(ctx context.Context, p *Product) error

	// DecrementStock 条件扣减：仅当库存 >= qty 时扣减并 sold_count += qty
	// 库存不足返回ErrInsufficientStock；返回扣减前后的库存
	DecrementStock(ctx context.Context, productID, variantID uint, qty int) (prev, next int, err error)

	List(ctx context.Context, params ListParams) ([]*Product, int64, error)

	// CountStockLevels 统计低库存（1..10）和缺货商品数
	CountStockLevels(ctx context.Context) (low, out int64, err error)
}

// LogRepository 库存流水仓储（只追加）
type LogRepository interface {
	Append(ctx context.Context, log *Log) error

	// ListByProduct 某商品最近的流水
	ListByProduct(ctx context.Context, productID uint, limit int) ([]*Log, error)

	List(ctx context.Context, params LogListParams) ([]*Log, int64, error)
}

// StockFilter 库存过滤
type StockFilter string

const (
	StockAll StockFilter = "all"
	StockLow StockFilter = "low" // 1..10
	StockOut StockFilter = "out" // 0
)

// ListParams 库存列表查询参数
type ListParams struct {
	Page     int
	PageSize int
	Keyword  string // 名称/slug/SKU模糊匹配
	Stock    StockFilter
	Type     ProductType // 为空表示全部
}

// LogListParams 流水查询参数
type LogListParams struct {
	Page     int
	PageSize int
	Type     LogType // 为空表示全部
}
