package handler

import (
	"github.com/gin-gonic/gin"

	appcoupon "github.com/xiebiao/plantshop/internal/application/coupon"
	"github.com/xiebiao/plantshop/internal/interface/http/dto"
	"github.com/xiebiao/plantshop/internal/interface/http/middleware"
	"github.com/xiebiao/plantshop/pkg/response"
)

// CouponHandler 后台优惠券管理
type CouponHandler struct {
	listUseCase   *appcoupon.ListCouponsUseCase
	createUseCase *appcoupon.CreateCouponUseCase
	toggleUseCase *appcoupon.ToggleCouponUseCase
	deleteUseCase *appcoupon.DeleteCouponUseCase
}

func NewCouponHandler(
	listUseCase *appcoupon.ListCouponsUseCase,
	createUseCase *appcoupon.CreateCouponUseCase,
	toggleUseCase *appcoupon.ToggleCouponUseCase,
	deleteUseCase *appcoupon.DeleteCouponUseCase,
) *CouponHandler {
	return &CouponHandler{
		listUseCase:   listUseCase,
		createUseCase: createUseCase,
		toggleUseCase: toggleUseCase,
		deleteUseCase: deleteUseCase,
	}
}

// List 优惠券列表
// @Summary      优惠券列表
// @Tags         后台-优惠券
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "页码"
// @Param        page_size query int false "每页数量"
// @Success      200 {object} response.Response{data=appcoupon.ListCouponsResponse}
// @Router       /api/v1/admin/coupons [get]
func (h *CouponHandler) List(c *gin.Context) {
	var q dto.PageQuery
	if !bindQuery(c, &q) {
		return
	}

	result, err := h.listUseCase.Execute(c.Request.Context(), appcoupon.ListCouponsRequest{
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Create 创建优惠券
// @Summary      创建优惠券
// @Description  code留空时自动生成；max_usage至少为1
// @Tags         后台-优惠券
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateCouponRequest true "优惠券"
// @Success      200 {object} response.Response{data=appcoupon.CouponView}
// @Router       /api/v1/admin/coupons [post]
func (h *CouponHandler) Create(c *gin.Context) {
	var req dto.CreateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.createUseCase.Execute(c.Request.Context(), appcoupon.CreateCouponRequest{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		MaxUsage:      req.MaxUsage,
		IsActive:      req.IsActive,
		AdminID:       middleware.MustGetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Toggle 启用/停用
// @Summary      切换优惠券启用状态
// @Tags         后台-优惠券
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "优惠券ID"
// @Success      200 {object} response.Response{data=appcoupon.CouponView}
// @Router       /api/v1/admin/coupons/{id}/toggle [put]
func (h *CouponHandler) Toggle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.toggleUseCase.Execute(c.Request.Context(), id, middleware.MustGetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete 删除优惠券
// @Summary      删除优惠券
// @Tags         后台-优惠券
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "优惠券ID"
// @Success      200 {object} response.Response
// @Router       /api/v1/admin/coupons/{id} [delete]
func (h *CouponHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.deleteUseCase.Execute(c.Request.Context(), id, middleware.MustGetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}
