package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appinventory "github.com/xiebiao/plantshop/internal/application/inventory"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/interface/http/dto"
	"github.com/xiebiao/plantshop/internal/interface/http/middleware"
	"github.com/xiebiao/plantshop/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InventoryHandler 后台库存管理
type InventoryHandler struct {
	listUseCase   *appinventory.ListStockUseCase
	getUseCase    *appinventory.GetStockUseCase
	moveUseCase   *appinventory.MoveStockUseCase
	logsUseCase   *appinventory.ListLogsUseCase
	exportUseCase *appinventory.ExportLogsUseCase
	logger        *zap.Logger
}

func NewInventoryHandler(
	listUseCase *appinventory.ListStockUseCase,
	getUseCase *appinventory.GetStockUseCase,
	moveUseCase *appinventory.MoveStockUseCase,
	logsUseCase *appinventory.ListLogsUseCase,
	exportUseCase *appinventory.ExportLogsUseCase,
	logger *zap.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		listUseCase:   listUseCase,
		getUseCase:    getUseCase,
		moveUseCase:   moveUseCase,
		logsUseCase:   logsUseCase,
		exportUseCase: exportUseCase,
		logger:        logger,
	}
}

// List 库存列表
// @Summary      库存列表
// @Description  返回低库存（1-10）和缺货商品数
// @Tags         后台-库存
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Param        keyword query string false "商品名关键字"
// @Param        stock query string false "库存筛选" Enums(all, low, out)
// @Param        type query string false "商品分类"
// @Success      200 {object} response.Response{data=appinventory.ListStockResponse}
// @Router       /api/v1/admin/inventory [get]
func (h *InventoryHandler) List(c *gin.Context) {
	var q dto.ListStockQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appinventory.ListStockRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		Keyword:  q.Keyword,
		Stock:    q.Stock,
		Type:     q.Type,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Detail 商品库存详情
// @Summary      库存详情
// @Tags         后台-库存
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Success      200 {object} response.Response{data=appinventory.GetStockResponse}
// @Router       /api/v1/admin/inventory/{id} [get]
func (h *InventoryHandler) Detail(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.getUseCase.Execute(c.Request.Context(), productID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Import 入库
// @Summary      入库
// @Tags         后台-库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Param        request body dto.StockMovementRequest true "数量与原因"
// @Success      200 {object} response.Response{data=appinventory.MoveStockResponse}
// @Router       /api/v1/admin/inventory/{id}/import [post]
func (h *InventoryHandler) Import(c *gin.Context) {
	h.move(c, inventory.LogImport)
}

// Export 出库，超出库存时按实际库存扣减
// @Summary      出库
// @Tags         后台-库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Param        request body dto.StockMovementRequest true "数量与原因"
// @Success      200 {object} response.Response{data=appinventory.MoveStockResponse}
// @Router       /api/v1/admin/inventory/{id}/export [post]
func (h *InventoryHandler) Export(c *gin.Context) {
	h.move(c, inventory.LogExport)
}

// Adjust 盘点，quantity为盘点后的库存
// @Summary      盘点
// @Tags         后台-库存
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "商品ID"
// @Param        request body dto.StockMovementRequest true "新库存与原因"
// @Success      200 {object} response.Response{data=appinventory.MoveStockResponse}
// @Router       /api/v1/admin/inventory/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	h.move(c, inventory.LogAdjustment)
}

func (h *InventoryHandler) move(c *gin.Context, typ inventory.LogType) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.StockMovementRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.moveUseCase.Execute(c.Request.Context(), appinventory.MoveStockRequest{
		ProductID: productID,
		VariantID: req.VariantID,
		Type:      typ,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Note:      req.Note,
		AdminID:   middleware.MustGetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Logs 库存流水
// @Summary      库存流水
// @Tags         后台-库存
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Param        type query string false "类型" Enums(all, import, export, adjustment, sale)
// @Success      200 {object} response.Response{data=appinventory.ListLogsResponse}
// @Router       /api/v1/admin/inventory/logs [get]
func (h *InventoryHandler) Logs(c *gin.Context) {
	var q dto.ListLogsQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.logsUseCase.Execute(c.Request.Context(), appinventory.ListLogsRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
		Type:     q.Type,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ExportLogs 导出库存流水xlsx
// @Summary      导出库存流水
// @Tags         后台-库存
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        type query string false "类型" Enums(all, import, export, adjustment, sale)
// @Success      200 {file} file
// @Router       /api/v1/admin/inventory/logs/export [get]
func (h *InventoryHandler) ExportLogs(c *gin.Context) {
	result, err := h.exportUseCase.Execute(c.Request.Context(), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := result.File.Write(c.Writer); err != nil {
		// 响应头已写出，只能记录日志
		h.logger.Error("写出库存流水xlsx失败", zap.String("filename", result.Filename), zap.Error(err))
	}
}
