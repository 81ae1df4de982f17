package payment

import (
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

var (
	ErrInvalidSignature = apperrors.New(apperrors.ErrCodeInvalidSignature, "支付回调签名错误")

	ErrAlreadyProcessed = apperrors.New(apperrors.ErrCodeAlreadyProcessed, "支付已处理")

	ErrPaymentGateway = apperrors.ErrPaymentGateway

	ErrNotOnlinePayment = apperrors.New(apperrors.ErrCodeBusinessError, "订单不是在线支付订单")
)
