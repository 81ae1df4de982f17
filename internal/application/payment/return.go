package payment

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
)

// 回跳结果提示
const (
	MsgPaid      = "paid"
	MsgPayFailed = "pay_failed"
	MsgNotFound  = "not_found"
	MsgError     = "error"
)

// ReturnUseCase 浏览器支付完成后的回跳
// 回跳参数用于展示；入账与IPN共用Reconciler，重复时以先到者为准
type ReturnUseCase struct {
	reconciler  *Reconciler
	frontendURL string
	logger      *zap.Logger
}

func NewReturnUseCase(reconciler *Reconciler, cfg *config.Config, logger *zap.Logger) *ReturnUseCase {
	return &ReturnUseCase{
		reconciler:  reconciler,
		frontendURL: strings.TrimRight(cfg.App.FrontendURL, "/"),
		logger:      logger,
	}
}

// ReturnRequest 回跳查询参数
type ReturnRequest struct {
	OrderID    string `form:"orderId"`
	ResultCode string `form:"resultCode"`
	Message    string `form:"message"`
	TransID    string `form:"transId"`
	ExtraData  string `form:"extraData"`
}

// ReturnResponse 回跳结果
type ReturnResponse struct {
	OrderNo     string
	Msg         string
	RedirectURL string
}

// Execute 总是返回一个可重定向的地址；err仅用于记录日志
func (uc *ReturnUseCase) Execute(ctx context.Context, req ReturnRequest) (*ReturnResponse, error) {
	orderNo := payment.ResolveOrderNo(req.OrderID, req.ExtraData)

	result, err := uc.reconciler.Reconcile(ctx, Callback{
		Source:     SourceReturn,
		OrderNo:    orderNo,
		ResultCode: strings.TrimSpace(req.ResultCode),
		Message:    req.Message,
		TransID:    req.TransID,
	})

	msg := MsgPayFailed
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		msg = MsgNotFound
	case err != nil:
		msg = MsgError
		uc.logger.Error("处理支付回跳失败", zap.String("order_no", orderNo), zap.Error(err))
	case result.PaymentStatus == string(order.PaymentPaid):
		msg = MsgPaid
	}

	return &ReturnResponse{OrderNo: orderNo, Msg: msg, RedirectURL: uc.redirect(orderNo, msg)}, err
}

func (uc *ReturnUseCase) redirect(orderNo, msg string) string {
	path := uc.frontendURL + "/orders"
	if orderNo != "" {
		path += "/" + url.PathEscape(orderNo)
	}
	return path + "?msg=" + url.QueryEscape(msg)
}
