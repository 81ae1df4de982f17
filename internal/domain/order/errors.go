package order

import (
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// 订单领域错误
var (
	ErrOrderNotFound = apperrors.ErrOrderNotFound

	// ErrInvalidStatus 状态值不在白名单内
	ErrInvalidStatus = apperrors.New(apperrors.ErrCodeInvalidStatus, "订单状态值非法")

	// ErrInvalidStatusTransition 状态流转边不允许
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidOrderStatus, "订单状态不允许此操作")

	ErrCannotCancel = apperrors.New(apperrors.ErrCodeCannotCancel, "订单当前状态不可取消")

	ErrCancelReasonRequired = apperrors.New(apperrors.ErrCodeCancelReasonRequired, "请填写取消原因")

	ErrInvalidOrderItems = apperrors.New(apperrors.ErrCodeInvalidParams, "订单明细不能为空")

	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "购买数量必须大于0")

	ErrAddressRequired = apperrors.New(apperrors.ErrCodeInvalidParams, "收货地址不完整")
)
