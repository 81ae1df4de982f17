package dto

// StockMovementRequest 入库/出库/盘点
// 盘点时quantity为新的库存值，可以为0
type StockMovementRequest struct {
	VariantID uint   `json:"variant_id" example:"0"`
	Quantity  int    `json:"quantity" binding:"min=0" example:"20"`
	Reason    string `json:"reason" binding:"max=200" example:"Nhập hàng từ nhà vườn"`
	Note      string `json:"note" binding:"max=500"`
}

// ListStockQuery 库存列表筛选
type ListStockQuery struct {
	PageQuery
	Keyword string `form:"keyword" binding:"max=100"`
	Stock   string `form:"stock" example:"low"` // all / low / out
	Type    string `form:"type" example:"indoor"`
}

// ListLogsQuery 库存流水筛选
type ListLogsQuery struct {
	PageQuery
	Type string `form:"type" example:"import"`
}
