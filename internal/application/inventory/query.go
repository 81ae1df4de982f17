package inventory

import (
	"context"

	"github.com/xiebiao/plantshop/internal/domain/inventory"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

const (
	listPageSize   = 20
	logsPageSize   = 50
	recentLogLimit = 50
	maxPageSize    = 100
)

// ErrInvalidStockFilter 库存过滤条件无效
var ErrInvalidStockFilter = apperrors.New(apperrors.ErrCodeInvalidParams, "库存过滤条件无效")

// VariantView 规格库存
type VariantView struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	SKU   string `json:"sku,omitempty"`
	Stock int    `json:"stock"`
	Level string `json:"level"`
}

// ProductView 商品库存
type ProductView struct {
	ID        uint          `json:"id"`
	Name      string        `json:"name"`
	Slug      string        `json:"slug"`
	SKU       string        `json:"sku,omitempty"`
	Type      string        `json:"type"`
	Price     int64         `json:"price"`
	InStock   int           `json:"in_stock"`
	SoldCount int           `json:"sold_count"`
	Level     string        `json:"level"`
	Variants  []VariantView `json:"variants,omitempty"`
}

func NewProductView(p *inventory.Product) *ProductView {
	v := &ProductView{
		ID:        p.ID,
		Name:      p.Name,
		Slug:      p.Slug,
		SKU:       p.SKU,
		Type:      string(p.Type),
		Price:     p.Price,
		InStock:   p.InStock,
		SoldCount: p.SoldCount,
		Level:     stockLevel(p.InStock),
	}
	for _, variant := range p.Variants {
		v.Variants = append(v.Variants, VariantView{
			ID:    variant.ID,
			Name:  variant.Name,
			SKU:   variant.SKU,
			Stock: variant.Stock,
			Level: stockLevel(variant.Stock),
		})
	}
	return v
}

func normalizePage(page, pageSize, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ListStockUseCase 库存列表
type ListStockUseCase struct {
	products inventory.ProductRepository
}

func NewListStockUseCase(products inventory.ProductRepository) *ListStockUseCase {
	return &ListStockUseCase{products: products}
}

// ListStockRequest 库存列表查询
type ListStockRequest struct {
	Page     int
	PageSize int
	Keyword  string
	Stock    string // all / low / out
	Type     string
}

// ListStockResponse 库存列表和低库存统计
type ListStockResponse struct {
	Products []*ProductView `json:"products"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	LowStock int64          `json:"low_stock"`
	OutStock int64          `json:"out_of_stock"`
}

func (uc *ListStockUseCase) Execute(ctx context.Context, req ListStockRequest) (*ListStockResponse, error) {
	filter := inventory.StockFilter(req.Stock)
	switch filter {
	case "", inventory.StockAll:
		filter = inventory.StockAll
	case inventory.StockLow, inventory.StockOut:
	default:
		return nil, ErrInvalidStockFilter
	}

	productType := inventory.ProductType(req.Type)
	if req.Type == "all" {
		productType = ""
	}

	page, pageSize := normalizePage(req.Page, req.PageSize, listPageSize)
	products, total, err := uc.products.List(ctx, inventory.ListParams{
		Page:     page,
		PageSize: pageSize,
		Keyword:  req.Keyword,
		Stock:    filter,
		Type:     productType,
	})
	if err != nil {
		return nil, err
	}
	low, out, err := uc.products.CountStockLevels(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*ProductView, 0, len(products))
	for _, p := range products {
		views = append(views, NewProductView(p))
	}
	return &ListStockResponse{
		Products: views,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		LowStock: low,
		OutStock: out,
	}, nil
}

// GetStockUseCase 商品库存详情（含最近50条流水）
type GetStockUseCase struct {
	products inventory.ProductRepository
	logs     inventory.LogRepository
}

func NewGetStockUseCase(products inventory.ProductRepository, logs inventory.LogRepository) *GetStockUseCase {
	return &GetStockUseCase{products: products, logs: logs}
}

// GetStockResponse 商品库存详情
type GetStockResponse struct {
	Product *ProductView `json:"product"`
	Logs    []*LogView   `json:"logs"`
}

func (uc *GetStockUseCase) Execute(ctx context.Context, productID uint) (*GetStockResponse, error) {
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	logs, err := uc.logs.ListByProduct(ctx, productID, recentLogLimit)
	if err != nil {
		return nil, err
	}
	return &GetStockResponse{Product: NewProductView(p), Logs: newLogViews(logs)}, nil
}

// ListLogsUseCase 全部库存流水
type ListLogsUseCase struct {
	logs inventory.LogRepository
}

func NewListLogsUseCase(logs inventory.LogRepository) *ListLogsUseCase {
	return &ListLogsUseCase{logs: logs}
}

// ListLogsRequest 流水查询
type ListLogsRequest struct {
	Page     int
	PageSize int
	Type     string // import / export / adjustment / sale，空或all表示全部
}

// ListLogsResponse 流水分页
type ListLogsResponse struct {
	Logs     []*LogView `json:"logs"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

func (uc *ListLogsUseCase) Execute(ctx context.Context, req ListLogsRequest) (*ListLogsResponse, error) {
	typ, ok := inventory.ParseLogType(req.Type)
	if !ok {
		return nil, ErrInvalidLogType
	}
	page, pageSize := normalizePage(req.Page, req.PageSize, logsPageSize)
	logs, total, err := uc.logs.List(ctx, inventory.LogListParams{Page: page, PageSize: pageSize, Type: typ})
	if err != nil {
		return nil, err
	}
	return &ListLogsResponse{Logs: newLogViews(logs), Total: total, Page: page, PageSize: pageSize}, nil
}
