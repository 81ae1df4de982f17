package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apppayment "github.com/xiebiao/plantshop/internal/application/payment"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/internal/interface/http/dto"
	"github.com/xiebiao/plantshop/internal/interface/http/middleware"
	"github.com/xiebiao/plantshop/pkg/response"
)

// PaymentHandler MoMo在线支付
type PaymentHandler struct {
	createUseCase *apppayment.CreateMomoPaymentUseCase
	returnUseCase *apppayment.ReturnUseCase
	ipnUseCase    *apppayment.IPNUseCase
	logger        *zap.Logger
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(
	createUseCase *apppayment.CreateMomoPaymentUseCase,
	returnUseCase *apppayment.ReturnUseCase,
	ipnUseCase *apppayment.IPNUseCase,
	logger *zap.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		createUseCase: createUseCase,
		returnUseCase: returnUseCase,
		ipnUseCase:    ipnUseCase,
		logger:        logger,
	}
}

// CreateMomo 创建MoMo支付
// @Summary      创建MoMo支付
// @Description  以当前购物车创建待支付订单并返回MoMo支付链接；积分在支付成功后才扣减
// @Tags         支付
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateMomoPaymentRequest true "积分抵扣与收货地址"
// @Success      200 {object} response.Response{data=apppayment.CreateMomoPaymentResponse}
// @Failure      400 {object} response.Response "购物车为空或库存不足"
// @Failure      502 {object} response.Response "支付网关不可用"
// @Router       /api/v1/payments/momo [post]
func (h *PaymentHandler) CreateMomo(c *gin.Context) {
	var req dto.CreateMomoPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), apppayment.CreateMomoPaymentRequest{
		UserID:      middleware.MustGetUserID(c),
		PointsToUse: req.PointsToUse,
		Address:     req.Address.ToAddress(),
		Note:        req.Note,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Return MoMo浏览器回跳
// 只用于展示结果，始终302到前端订单页
// @Summary      MoMo回跳
// @Tags         支付
// @Param        orderId query string false "订单号"
// @Param        resultCode query string false "结果码，0为成功"
// @Param        message query string false "结果描述"
// @Param        transId query string false "MoMo交易号"
// @Param        extraData query string false "附加数据"
// @Success      302
// @Router       /api/v1/payments/momo/return [get]
func (h *PaymentHandler) Return(c *gin.Context) {
	var req apppayment.ReturnRequest
	// 参数缺失也要回跳，绑定失败按空值处理
	_ = c.ShouldBindQuery(&req)

	result, err := h.returnUseCase.Execute(c.Request.Context(), req)
	if err != nil && result == nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, result.RedirectURL)
}

// IPN MoMo服务端回调
// 应答体决定MoMo是否重发：签名错误403、订单不存在404、其余业务结果均为200
// @Summary      MoMo IPN
// @Tags         支付
// @Accept       json
// @Produce      json
// @Param        request body payment.IPN true "IPN报文"
// @Success      200 {object} dto.IPNAck
// @Failure      400 {object} dto.IPNAck "报文格式错误"
// @Failure      403 {object} dto.IPNAck "签名错误"
// @Failure      404 {object} dto.IPNAck "订单不存在"
// @Router       /api/v1/payments/momo/ipn [post]
func (h *PaymentHandler) IPN(c *gin.Context) {
	var ipn payment.IPN
	if err := c.ShouldBindJSON(&ipn); err != nil {
		c.JSON(http.StatusBadRequest, dto.IPNAck{ResultCode: dto.IPNAckInvalidPayload, Message: "invalid payload"})
		return
	}

	result, err := h.ipnUseCase.Execute(c.Request.Context(), &ipn)
	switch {
	case errors.Is(err, payment.ErrInvalidSignature):
		c.JSON(http.StatusForbidden, dto.IPNAck{ResultCode: dto.IPNAckInvalidSignature, Message: "invalid signature"})
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, dto.IPNAck{ResultCode: dto.IPNAckNotFound, Message: "order not found"})
	case errors.Is(err, payment.ErrNotOnlinePayment):
		c.JSON(http.StatusOK, dto.IPNAck{ResultCode: dto.IPNAckOK, Message: "ignored"})
	case err != nil:
		h.logger.Error("处理IPN失败",
			zap.String("order_id", ipn.OrderID),
			zap.String("request_id", ipn.RequestID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.IPNAck{ResultCode: dto.IPNAckInternal, Message: "internal error"})
	case result.AlreadyProcessed:
		c.JSON(http.StatusOK, dto.IPNAck{ResultCode: dto.IPNAckOK, Message: "already processed"})
	default:
		c.JSON(http.StatusOK, dto.IPNAck{ResultCode: dto.IPNAckOK, Message: "success"})
	}
}
