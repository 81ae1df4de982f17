package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apporder "github.com/xiebiao/plantshop/internal/application/order"
	"github.com/xiebiao/plantshop/internal/application/report"
	"github.com/xiebiao/plantshop/internal/interface/http/dto"
	"github.com/xiebiao/plantshop/internal/interface/http/middleware"
	"github.com/xiebiao/plantshop/pkg/response"
)

// OrderHandler 订单HTTP处理器（顾客与后台共用）
type OrderHandler struct {
	checkoutUseCase   *apporder.CheckoutUseCase
	listMineUseCase   *apporder.ListUserOrdersUseCase
	getOrderUseCase   *apporder.GetOrderUseCase
	cancelUseCase     *apporder.CancelOrderUseCase
	invoiceUseCase    *report.InvoiceUseCase
	listOrdersUseCase *apporder.ListOrdersUseCase
	setStatusUseCase  *apporder.SetStatusUseCase
	recordSaleUseCase *apporder.RecordSaleUseCase
	expireUseCase     *apporder.ExpireStalePaymentsUseCase
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(
	checkoutUseCase *apporder.CheckoutUseCase,
	listMineUseCase *apporder.ListUserOrdersUseCase,
	getOrderUseCase *apporder.GetOrderUseCase,
	cancelUseCase *apporder.CancelOrderUseCase,
	invoiceUseCase *report.InvoiceUseCase,
	listOrdersUseCase *apporder.ListOrdersUseCase,
	setStatusUseCase *apporder.SetStatusUseCase,
	recordSaleUseCase *apporder.RecordSaleUseCase,
	expireUseCase *apporder.ExpireStalePaymentsUseCase,
) *OrderHandler {
	return &OrderHandler{
		checkoutUseCase:   checkoutUseCase,
		listMineUseCase:   listMineUseCase,
		getOrderUseCase:   getOrderUseCase,
		cancelUseCase:     cancelUseCase,
		invoiceUseCase:    invoiceUseCase,
		listOrdersUseCase: listOrdersUseCase,
		setStatusUseCase:  setStatusUseCase,
		recordSaleUseCase: recordSaleUseCase,
		expireUseCase:     expireUseCase,
	}
}

// Checkout 货到付款下单
// @Summary      货到付款下单
// @Description  以当前购物车创建COD订单，清空购物车并计入优惠券使用次数
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CheckoutRequest true "收货地址"
// @Success      200 {object} response.Response{data=apporder.CheckoutResponse}
// @Failure      400 {object} response.Response "购物车为空或地址不完整"
// @Router       /api/v1/orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.checkoutUseCase.Execute(c.Request.Context(), apporder.CheckoutRequest{
		UserID:  middleware.MustGetUserID(c),
		Address: req.Address.ToAddress(),
		Note:    req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListMine 我的订单
// @Summary      我的订单
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=apporder.ListResponse}
// @Router       /api/v1/orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.listMineUseCase.Execute(c.Request.Context(), apporder.ListUserOrdersRequest{
		UserID:   middleware.MustGetUserID(c),
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Detail 订单详情（含状态历史）
// @Summary      订单详情
// @Tags         订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Failure      404 {object} response.Response "订单不存在"
// @Router       /api/v1/orders/{id} [get]
func (h *OrderHandler) Detail(c *gin.Context) {
	h.detail(c, middleware.MustGetUserID(c))
}

// AdminDetail 后台订单详情，不校验归属
// @Summary      订单详情（后台）
// @Tags         后台-订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.OrderView}
// @Router       /api/v1/admin/orders/{id} [get]
func (h *OrderHandler) AdminDetail(c *gin.Context) {
	h.detail(c, 0)
}

func (h *OrderHandler) detail(c *gin.Context, userID uint) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.getOrderUseCase.Execute(c.Request.Context(), apporder.GetOrderRequest{
		OrderID: orderID,
		UserID:  userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Cancel 顾客取消订单
// @Summary      取消订单
// @Description  仅pending/preparing可取消，需填写原因
// @Tags         订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Param        request body dto.CancelOrderRequest true "取消原因"
// @Success      200 {object} response.Response{data=apporder.CancelOrderResponse}
// @Failure      400 {object} response.Response "订单不可取消"
// @Router       /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.cancelUseCase.Execute(c.Request.Context(), apporder.CancelOrderRequest{
		OrderID: orderID,
		UserID:  middleware.MustGetUserID(c),
		Reason:  req.Reason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Invoice 下载发票PDF
// 管理员可以下载任意订单的发票
// @Summary      下载发票
// @Tags         订单
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {file} file
// @Router       /api/v1/orders/{id}/invoice [get]
func (h *OrderHandler) Invoice(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	req := report.InvoiceRequest{OrderID: orderID}
	if !middleware.IsAdmin(c) {
		req.UserID = middleware.MustGetUserID(c)
	}
	invoice, err := h.invoiceUseCase.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+invoice.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", invoice.Content)
}

// AdminList 后台订单列表
// @Summary      订单列表（后台）
// @Tags         后台-订单
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Param        status query string false "状态" Enums(all, pending, preparing, shipping, done, canceled)
// @Param        payment_method query string false "支付方式" Enums(cod, momo)
// @Param        keyword query string false "订单号关键字"
// @Success      200 {object} response.Response{data=apporder.ListResponse}
// @Router       /api/v1/admin/orders [get]
func (h *OrderHandler) AdminList(c *gin.Context) {
	var q dto.ListOrdersQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.listOrdersUseCase.Execute(c.Request.Context(), apporder.ListOrdersRequest{
		Page:          q.Page,
		PageSize:      q.PageSize,
		Status:        q.Status,
		PaymentMethod: q.PaymentMethod,
		Keyword:       q.Keyword,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// SetStatus 后台修改订单状态
// @Summary      修改订单状态
// @Description  进入done扣库存并发放积分，离开done回补库存并扣回积分；目标状态与当前相同时不产生副作用
// @Tags         后台-订单
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Param        request body dto.SetStatusRequest true "目标状态"
// @Success      200 {object} response.Response{data=apporder.SetStatusResponse}
// @Failure      400 {object} response.Response "状态值非法或流转不允许"
// @Router       /api/v1/admin/orders/{id}/status [put]
func (h *OrderHandler) SetStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.SetStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.setStatusUseCase.Execute(c.Request.Context(), apporder.SetStatusRequest{
		OrderID: orderID,
		Status:  req.Status,
		ActorID: middleware.MustGetUserID(c),
		Note:    req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RecordSale 门店销售出库
// @Summary      销售出库
// @Tags         后台-订单
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "订单ID"
// @Success      200 {object} response.Response{data=apporder.RecordSaleResponse}
// @Failure      400 {object} response.Response "库存不足或已出库"
// @Router       /api/v1/admin/orders/{id}/sale [post]
func (h *OrderHandler) RecordSale(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.recordSaleUseCase.Execute(c.Request.Context(), apporder.RecordSaleRequest{
		OrderID: orderID,
		ActorID: middleware.MustGetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Expire 立即执行一次支付超时扫描
// @Summary      取消超时未支付订单
// @Tags         后台-订单
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=apporder.ExpireResponse}
// @Router       /api/v1/admin/orders/expire [post]
func (h *OrderHandler) Expire(c *gin.Context) {
	result, err := h.expireUseCase.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
