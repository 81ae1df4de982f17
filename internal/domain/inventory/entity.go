package inventory

import "time"

// ProductType 商品类型
type ProductType string

const (
	TypeIndoor  ProductType = "indoor"
	TypeOutdoor ProductType = "outdoor"
	TypePot     ProductType = "pot"
)

// LowStockThreshold 库存 1..10 视为低库存
const LowStockThreshold = 10

// Product 商品（库存视角）
// 有规格时 InStock = Σ Variant.Stock
type Product struct {
	ID        uint
	Name      string
	Slug      string
	SKU       string
	Type      ProductType
	Price     int64
	InStock   int
	SoldCount int
	Variants  []Variant
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Variant 商品规格
type Variant struct {
	ID        uint
	ProductID uint
	Name      string
	SKU       string
	Price     int64
	Stock     int
}

// HasVariants 是否按规格管理库存
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// Variant 按ID查找规格
func (p *Product) Variant(id uint) *Variant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// RecomputeInStock 用规格库存之和刷新InStock
func (p *Product) RecomputeInStock() {
	if !p.HasVariants() {
		return
	}
	total := 0
	for _, v := range p.Variants {
		total += v.Stock
	}
	p.InStock = total
}

// StockOf 指定规格（或商品本身）的当前库存
func (p *Product) StockOf(variantID uint) (int, error) {
	if variantID == 0 {
		return p.InStock, nil
	}
	v := p.Variant(variantID)
	if v == nil {
		return 0, ErrVariantNotFound
	}
	return v.Stock, nil
}

// setStock 设置库存并维护InStock；调用方负责钳制
func (p *Product) setStock(variantID uint, stock int) error {
	if variantID == 0 {
		p.InStock = stock
		return nil
	}
	v := p.Variant(variantID)
	if v == nil {
		return ErrVariantNotFound
	}
	v.Stock = stock
	p.RecomputeInStock()
	return nil
}

// LogType 库存变动类型
type LogType string

const (
	LogImport     LogType = "import"
	LogExport     LogType = "export"
	LogAdjustment LogType = "adjustment"
	LogSale       LogType = "sale"
)

// ParseLogType 解析类型过滤条件，空串和all返回""
func ParseLogType(s string) (LogType, bool) {
	switch LogType(s) {
	case LogImport, LogExport, LogAdjustment, LogSale:
		return LogType(s), true
	case "", "all":
		return "", true
	}
	return "", false
}

// Log 库存流水（只追加，不修改不删除）
type Log struct {
	ID            uint
	ProductID     uint
	ProductName   string // 查询时关联填充
	VariantID     uint
	Type          LogType
	Quantity      int
	PreviousStock int
	NewStock      int
	Reason        string
	Note          string
	AdminID       *uint
	OrderID       *uint
	CreatedAt     time.Time
}
