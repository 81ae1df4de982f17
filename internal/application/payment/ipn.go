package payment

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/pkg/metrics"
)

// IPNUseCase MoMo服务端异步回调（权威的支付结果）
type IPNUseCase struct {
	orderRepo  order.Repository
	signer     *payment.Signer
	reconciler *Reconciler
	logger     *zap.Logger
}

func NewIPNUseCase(orderRepo order.Repository, signer *payment.Signer, reconciler *Reconciler, logger *zap.Logger) *IPNUseCase {
	return &IPNUseCase{orderRepo: orderRepo, signer: signer, reconciler: reconciler, logger: logger}
}

// Execute 处理IPN
//
//  1. 按orderId（其次extraData.oid）找到订单，找不到返回ErrOrderNotFound
//  2. 验签失败返回ErrInvalidSignature，订单不做任何修改
//  3. 交给Reconciler入账
func (uc *IPNUseCase) Execute(ctx context.Context, ipn *payment.IPN) (*ReconcileResult, error) {
	orderNo := payment.ResolveOrderNo(ipn.OrderID, ipn.ExtraData)
	if orderNo == "" {
		metrics.RecordPaymentCallback(SourceIPN, "not_found")
		return nil, order.ErrOrderNotFound
	}
	if _, err := uc.orderRepo.FindByOrderNo(ctx, orderNo); err != nil {
		metrics.RecordPaymentCallback(SourceIPN, "not_found")
		return nil, err
	}

	if !uc.signer.VerifyIPN(ipn) {
		metrics.RecordPaymentCallback(SourceIPN, "invalid_signature")
		uc.logger.Warn("IPN签名校验失败",
			zap.String("order_no", orderNo),
			zap.String("request_id", ipn.RequestID),
		)
		return nil, payment.ErrInvalidSignature
	}

	return uc.reconciler.Reconcile(ctx, Callback{
		Source:     SourceIPN,
		OrderNo:    orderNo,
		ResultCode: ipn.ResultCode.String(),
		Message:    ipn.Message,
		TransID:    ipn.TransID.String(),
	})
}
