package inventory

import (
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

var (
	ErrProductNotFound = apperrors.New(apperrors.ErrCodeProductNotFound, "商品不存在")

	ErrVariantNotFound = apperrors.New(apperrors.ErrCodeVariantNotFound, "商品规格不存在")

	ErrInvalidQuantity = apperrors.New(apperrors.ErrCodeInvalidQuantity, "数量必须大于0")

	ErrInsufficientStock = apperrors.ErrInsufficientStock
)
