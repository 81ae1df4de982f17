package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xiebiao/plantshop/internal/application/dashboard"
	"github.com/xiebiao/plantshop/pkg/response"
)

// DashboardHandler 后台首页统计
type DashboardHandler struct {
	summaryUseCase *dashboard.SummaryUseCase
}

func NewDashboardHandler(summaryUseCase *dashboard.SummaryUseCase) *DashboardHandler {
	return &DashboardHandler{summaryUseCase: summaryUseCase}
}

// Summary 订单与库存统计
// 结果按range缓存，订单事件到达时失效
// @Summary      后台统计
// @Tags         后台-统计
// @Produce      json
// @Security     BearerAuth
// @Param        range query string false "统计区间" Enums(today, week, month, year)
// @Success      200 {object} response.Response{data=dashboard.Summary}
// @Router       /api/v1/admin/dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	result, err := h.summaryUseCase.Execute(c.Request.Context(), c.Query("range"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
