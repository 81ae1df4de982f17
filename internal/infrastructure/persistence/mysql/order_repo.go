package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/plantshop/internal/domain/order"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// orderRepository 订单仓储实现(MySQL)
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepository{db: db}
}

// Create 创建订单，回填ID
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	model := toOrderModel(o)
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "创建订单失败")
	}
	o.ID = model.ID
	o.CreatedAt = model.CreatedAt
	o.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(dbFrom(ctx, r.db).Where("id = ?", id))
}

func (r *orderRepository) FindByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return r.first(dbFrom(ctx, r.db).Where("order_no = ?", orderNo))
}

// LockByID SELECT ... FOR UPDATE
func (r *orderRepository) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.first(dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *orderRepository) LockByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return r.first(dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_no = ?", orderNo))
}

func (r *orderRepository) first(query *gorm.DB) (*order.Order, error) {
	var model OrderModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toOrderEntity(&model), nil
}

// Update 保存状态相关字段，不写effects
func (r *orderRepository) Update(ctx context.Context, o *order.Order) error {
	result := dbFrom(ctx, r.db).Model(&OrderModel{}).Where("id = ?", o.ID).Updates(mutableColumns(o))
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新订单失败")
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// UpdateIfUnpaid 附加条件 payment_status <> 'paid'
func (r *orderRepository) UpdateIfUnpaid(ctx context.Context, o *order.Order) (bool, error) {
	result := dbFrom(ctx, r.db).Model(&OrderModel{}).
		Where("id = ? AND payment_status <> ?", o.ID, string(order.PaymentPaid)).
		Updates(mutableColumns(o))
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "更新订单失败")
	}
	return result.RowsAffected == 1, nil
}

func mutableColumns(o *order.Order) map[string]any {
	return map[string]any{
		"status":         string(o.Status),
		"payment_status": string(o.PaymentStatus),
		"status_history": toHistoryDocs(o.StatusHistory),
		"momo_trans_id":  o.MomoTransID,
		"cancel_reason":  o.CancelReason,
		"canceled_at":    o.CanceledAt,
		"updated_at":     o.UpdatedAt,
	}
}

// SwapEffect 单条条件UPDATE翻转副作用位
//
//	设置: UPDATE orders SET effects = effects | bit WHERE id = ? AND effects & bit = 0
//	清除: UPDATE orders SET effects = effects & ~bit WHERE id = ? AND effects & bit <> 0
func (r *orderRepository) SwapEffect(ctx context.Context, id uint, effect order.Effect, applied bool) (bool, error) {
	bit := uint8(effect)
	query := dbFrom(ctx, r.db).Model(&OrderModel{})

	var result *gorm.DB
	if applied {
		result = query.Where("id = ? AND effects & ? = 0", id, bit).
			UpdateColumn("effects", gorm.Expr("effects | ?", bit))
	} else {
		result = query.Where("id = ? AND effects & ? <> 0", id, bit).
			UpdateColumn("effects", gorm.Expr("effects & ?", ^bit))
	}
	if result.Error != nil {
		return false, apperrors.Wrap(result.Error, "更新订单副作用标记失败")
	}
	return result.RowsAffected == 1, nil
}

// ListByUserID 用户订单列表
func (r *orderRepository) ListByUserID(ctx context.Context, userID uint, page, pageSize int) ([]*order.Order, int64, error) {
	query := dbFrom(ctx, r.db).Model(&OrderModel{}).Where("user_id = ?", userID)
	return r.list(query, page, pageSize)
}

// List 后台订单列表
func (r *orderRepository) List(ctx context.Context, params order.ListParams) ([]*order.Order, int64, error) {
	query := dbFrom(ctx, r.db).Model(&OrderModel{})
	if params.Status != "" {
		query = query.Where("status = ?", string(params.Status))
	}
	if params.PaymentMethod != "" {
		query = query.Where("payment_method = ?", string(params.PaymentMethod))
	}
	if params.Keyword != "" {
		query = query.Where("order_no LIKE ?", likePattern(params.Keyword))
	}
	return r.list(query, params.Page, params.PageSize)
}

func (r *orderRepository) list(query *gorm.DB, page, pageSize int) ([]*order.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单总数失败")
	}

	var models []OrderModel
	if err := query.Order("created_at DESC").Scopes(paginate(page, pageSize)).Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询订单列表失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, total, nil
}

// FindAwaitingPayment 超时未支付的MoMo订单
func (r *orderRepository) FindAwaitingPayment(ctx context.Context, before time.Time, limit int) ([]*order.Order, error) {
	var models []OrderModel
	err := dbFrom(ctx, r.db).
		Where("payment_method = ? AND status = ? AND payment_status IN ? AND created_at < ?",
			string(order.PaymentMomo), string(order.StatusPending),
			[]string{string(order.PaymentUnpaid), string(order.PaymentPending)}, before).
		Order("id ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询待支付订单失败")
	}

	orders := make([]*order.Order, len(models))
	for i := range models {
		orders[i] = toOrderEntity(&models[i])
	}
	return orders, nil
}

// Stats 仪表盘统计
func (r *orderRepository) Stats(ctx context.Context, since time.Time) (*order.Stats, error) {
	db := dbFrom(ctx, r.db)
	stats := &order.Stats{CountByStatus: make(map[order.Status]int64)}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := db.Model(&OrderModel{}).Select("status, COUNT(*) AS count").
		Where("created_at >= ?", since).Group("status").Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计订单失败")
	}
	for _, row := range rows {
		stats.CountByStatus[order.Status(row.Status)] = row.Count
		stats.TotalOrders += row.Count
	}

	if err := db.Model(&OrderModel{}).Select("COALESCE(SUM(total_price), 0)").
		Where("created_at >= ? AND status = ?", since, string(order.StatusDone)).
		Scan(&stats.Revenue).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计营收失败")
	}

	if err := db.Model(&OrderModel{}).
		Where("created_at >= ? AND payment_method = ? AND payment_status = ?",
			since, string(order.PaymentMomo), string(order.PaymentPaid)).
		Count(&stats.PaidOnline).Error; err != nil {
		return nil, apperrors.Wrap(err, "统计在线支付失败")
	}
	return stats, nil
}

// toOrderModel 领域实体 → GORM模型
func toOrderModel(o *order.Order) *OrderModel {
	return &OrderModel{
		ID:            o.ID,
		OrderNo:       o.OrderNo,
		UserID:        o.UserID,
		Items:         toItemDocs(o.Items),
		Subtotal:      o.Subtotal,
		Discount:      o.Discount,
		Tax:           o.Tax,
		ShippingFee:   o.ShippingFee,
		PointUsed:     o.PointUsed,
		TotalPrice:    o.TotalPrice,
		PointEarned:   o.PointEarned,
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		PaymentStatus: string(o.PaymentStatus),
		StatusHistory: toHistoryDocs(o.StatusHistory),
		Effects:       uint8(o.Effects),
		CouponID:      o.CouponID,
		Note:          o.Note,
		Address: addressCols{
			Number:   o.Address.Number,
			Street:   o.Address.Street,
			District: o.Address.District,
			City:     o.Address.City,
		},
		MomoTransID:  o.MomoTransID,
		CancelReason: o.CancelReason,
		CanceledAt:   o.CanceledAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

// toOrderEntity GORM模型 → 领域实体
func toOrderEntity(m *OrderModel) *order.Order {
	return &order.Order{
		ID:            m.ID,
		OrderNo:       m.OrderNo,
		UserID:        m.UserID,
		Items:         toOrderItems(m.Items),
		Subtotal:      m.Subtotal,
		Discount:      m.Discount,
		Tax:           m.Tax,
		ShippingFee:   m.ShippingFee,
		PointUsed:     m.PointUsed,
		TotalPrice:    m.TotalPrice,
		PointEarned:   m.PointEarned,
		Status:        order.Status(m.Status),
		PaymentMethod: order.PaymentMethod(m.PaymentMethod),
		PaymentStatus: order.PaymentStatus(m.PaymentStatus),
		StatusHistory: toHistory(m.StatusHistory),
		Effects:       order.EffectSet(m.Effects),
		CouponID:      m.CouponID,
		Note:          m.Note,
		Address: order.Address{
			Number:   m.Address.Number,
			Street:   m.Address.Street,
			District: m.Address.District,
			City:     m.Address.City,
		},
		MomoTransID:  m.MomoTransID,
		CancelReason: m.CancelReason,
		CanceledAt:   m.CanceledAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
