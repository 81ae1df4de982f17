package handler

import (
	"github.com/gin-gonic/gin"

	appcart "github.com/xiebiao/plantshop/internal/application/cart"
	"github.com/xiebiao/plantshop/internal/interface/http/dto"
	"github.com/xiebiao/plantshop/internal/interface/http/middleware"
	"github.com/xiebiao/plantshop/pkg/response"
)

// CartHandler 购物车
type CartHandler struct {
	getUseCase          *appcart.GetCartUseCase
	addItemUseCase      *appcart.AddItemUseCase
	updateItemUseCase   *appcart.UpdateItemUseCase
	applyCouponUseCase  *appcart.ApplyCouponUseCase
	removeCouponUseCase *appcart.RemoveCouponUseCase
}

func NewCartHandler(
	getUseCase *appcart.GetCartUseCase,
	addItemUseCase *appcart.AddItemUseCase,
	updateItemUseCase *appcart.UpdateItemUseCase,
	applyCouponUseCase *appcart.ApplyCouponUseCase,
	removeCouponUseCase *appcart.RemoveCouponUseCase,
) *CartHandler {
	return &CartHandler{
		getUseCase:          getUseCase,
		addItemUseCase:      addItemUseCase,
		updateItemUseCase:   updateItemUseCase,
		applyCouponUseCase:  applyCouponUseCase,
		removeCouponUseCase: removeCouponUseCase,
	}
}

// Get 查看购物车
// @Summary      查看购物车
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appcart.CartResponse}
// @Router       /api/v1/cart [get]
func (h *CartHandler) Get(c *gin.Context) {
	result, err := h.getUseCase.Execute(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// AddItem 加入购物车
// @Summary      加入购物车
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.AddCartItemRequest true "商品"
// @Success      200 {object} response.Response{data=appcart.CartResponse}
// @Failure      404 {object} response.Response "商品或规格不存在"
// @Router       /api/v1/cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.AddCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.addItemUseCase.Execute(c.Request.Context(), appcart.AddItemRequest{
		UserID:    middleware.MustGetUserID(c),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateItem 修改数量
// @Summary      修改购物车数量
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.UpdateCartItemRequest true "商品与数量（0为移除）"
// @Success      200 {object} response.Response{data=appcart.CartResponse}
// @Router       /api/v1/cart/items [put]
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.updateItemUseCase.Execute(c.Request.Context(), appcart.UpdateItemRequest{
		UserID:    middleware.MustGetUserID(c),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ApplyCoupon 使用优惠券
// @Summary      使用优惠券
// @Description  校验有效期和使用次数，不计入使用次数（下单或支付成功时才计入）
// @Tags         购物车
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ApplyCouponRequest true "优惠码"
// @Success      200 {object} response.Response{data=appcart.CartResponse}
// @Failure      400 {object} response.Response "优惠券不可用或次数已用尽"
// @Router       /api/v1/cart/coupon [post]
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	var req dto.ApplyCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.applyCouponUseCase.Execute(c.Request.Context(), middleware.MustGetUserID(c), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RemoveCoupon 取消优惠券
// @Summary      取消优惠券
// @Tags         购物车
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appcart.CartResponse}
// @Router       /api/v1/cart/coupon [delete]
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	result, err := h.removeCouponUseCase.Execute(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
