package order

import (
	"context"
	"strings"

	"github.com/xiebiao/plantshop/internal/domain/order"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// ListResponse 分页结果
type ListResponse struct {
	Orders   []OrderView `json:"orders"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func newListResponse(orders []*order.Order, total int64, page, pageSize int) *ListResponse {
	views := make([]OrderView, len(orders))
	for i, o := range orders {
		views[i] = NewOrderView(o, false)
	}
	return &ListResponse{Orders: views, Total: total, Page: page, PageSize: pageSize}
}

// ListUserOrdersUseCase 我的订单
type ListUserOrdersUseCase struct {
	orderRepo order.Repository
}

func NewListUserOrdersUseCase(orderRepo order.Repository) *ListUserOrdersUseCase {
	return &ListUserOrdersUseCase{orderRepo: orderRepo}
}

type ListUserOrdersRequest struct {
	UserID   uint
	Page     int
	PageSize int
}

func (uc *ListUserOrdersUseCase) Execute(ctx context.Context, req ListUserOrdersRequest) (*ListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	orders, total, err := uc.orderRepo.ListByUserID(ctx, req.UserID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return newListResponse(orders, total, page, pageSize), nil
}

// GetOrderUseCase 订单详情
type GetOrderUseCase struct {
	orderRepo order.Repository
}

func NewGetOrderUseCase(orderRepo order.Repository) *GetOrderUseCase {
	return &GetOrderUseCase{orderRepo: orderRepo}
}

// GetOrderRequest UserID为0表示管理员查看（不校验归属）
type GetOrderRequest struct {
	OrderID uint
	UserID  uint
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, req GetOrderRequest) (*OrderView, error) {
	o, err := uc.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	view := NewOrderView(o, true)
	return &view, nil
}

// Load 读取订单领域对象（发票生成复用）
func (uc *GetOrderUseCase) Load(ctx context.Context, req GetOrderRequest) (*order.Order, error) {
	o, err := uc.orderRepo.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if req.UserID != 0 && !o.IsOwnedBy(req.UserID) {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// ListOrdersUseCase 后台订单列表
type ListOrdersUseCase struct {
	orderRepo order.Repository
}

func NewListOrdersUseCase(orderRepo order.Repository) *ListOrdersUseCase {
	return &ListOrdersUseCase{orderRepo: orderRepo}
}

type ListOrdersRequest struct {
	Page          int
	PageSize      int
	Status        string // 空串或all表示全部
	PaymentMethod string
	Keyword       string
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, req ListOrdersRequest) (*ListResponse, error) {
	page, pageSize := normalizePage(req.Page, req.PageSize)
	params := order.ListParams{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(req.Keyword),
	}

	if req.Status != "" && req.Status != "all" {
		st, err := order.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		params.Status = st
	}
	switch order.PaymentMethod(req.PaymentMethod) {
	case order.PaymentCOD, order.PaymentMomo:
		params.PaymentMethod = order.PaymentMethod(req.PaymentMethod)
	}

	orders, total, err := uc.orderRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	return newListResponse(orders, total, page, pageSize), nil
}
