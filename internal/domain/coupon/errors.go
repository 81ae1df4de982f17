package coupon

import (
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

var (
	ErrInvalidCouponCode = apperrors.New(apperrors.ErrCodeInvalidCoupon, "优惠码无效")

	ErrCouponNotFound = apperrors.New(apperrors.ErrCodeCouponNotFound, "优惠券不存在")

	ErrCouponUsageExceeded = apperrors.New(apperrors.ErrCodeCouponUsageExceeded, "优惠券使用次数已达上限")

	ErrCouponCodeDuplicate = apperrors.New(apperrors.ErrCodeDuplicateEntry, "优惠码已存在")

	ErrInvalidDiscount = apperrors.New(apperrors.ErrCodeInvalidParams, "百分比折扣不能超过100")
)
