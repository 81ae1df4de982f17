package order

import (
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// ErrStockAlreadyDeducted 订单库存已扣减（已出库或已完成）
var ErrStockAlreadyDeducted = apperrors.New(apperrors.ErrCodeAlreadyProcessed, "订单库存已扣减")
