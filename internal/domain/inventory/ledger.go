package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/pkg/metrics"
)

// Direction 库存调整方向
type Direction int

const (
	Decrease Direction = iota // 出库：库存减少，销量增加
	Increase                  // 回补：库存增加，销量减少
)

func (d Direction) String() string {
	if d == Increase {
		return "restore"
	}
	return "deduct"
}

// Outcome 单个明细的调整结果
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// 跳过原因
const (
	ReasonInvalidQuantity = "invalid_quantity"
	ReasonMissingProduct  = "missing_product"
	ReasonProductNotFound = "product_not_found"
	ReasonVariantNotFound = "variant_not_found"
)

// Line 一条待调整的订单明细
type Line struct {
	ProductID uint
	VariantID uint
	Quantity  int
}

// ItemResult 单条明细的调整结果
type ItemResult struct {
	Index         int     `json:"index"`
	ProductID     uint    `json:"product_id"`
	VariantID     uint    `json:"variant_id,omitempty"`
	Quantity      int     `json:"quantity"`
	Outcome       Outcome `json:"outcome"`
	Reason        string  `json:"reason,omitempty"`
	PreviousStock int     `json:"previous_stock"`
	NewStock      int     `json:"new_stock"`
}

// Movement 后台库存操作参数
type Movement struct {
	ProductID uint
	VariantID uint
	Quantity  int
	Reason    string
	Note      string
	AdminID   uint
}

// 后台操作的默认原因
const (
	defaultImportReason = "Nhập kho"
	defaultExportReason = "Xuất kho"
	defaultAdjustReason = "Điều chỉnh tồn kho"
	saleReason          = "Bán hàng"
)

// Ledger 库存台账
//
// 两条路径：
//   - Adjust / DeductOrder / RestoreOrder：订单done流转的副作用，不写流水，库存钳制在0
//   - DecrementForSale / Import / Export / SetStock：写InventoryLog
//
// 所有方法都应在事务中调用（LockByID需要事务）
type Ledger struct {
	products ProductRepository
	logs     LogRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedger 创建库存台账
func NewLedger(products ProductRepository, logs LogRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{
		products: products,
		logs:     logs,
		logger:   logger,
		now:      time.Now,
	}
}

// Adjust 调整单个商品（或规格）库存
// 商品不存在时返回skipped结果而不是错误；只有存储层错误才返回error
func (l *Ledger) Adjust(ctx context.Context, line Line, dir Direction) (ItemResult, error) {
	result := ItemResult{ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity}

	if line.Quantity <= 0 {
		return skip(result, ReasonInvalidQuantity), nil
	}
	if line.ProductID == 0 {
		return skip(result, ReasonMissingProduct), nil
	}

	p, err := l.products.LockByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			l.logger.Warn("库存调整跳过：商品不存在", zap.Uint("product_id", line.ProductID))
			return skip(result, ReasonProductNotFound), nil
		}
		return result, err
	}

	delta := line.Quantity
	if dir == Decrease {
		delta = -delta
	}

	// 只有商品确实按规格管理时才走规格路径，否则调整商品自身库存
	variantMissing := false
	if line.VariantID != 0 && p.HasVariants() {
		if v := p.Variant(line.VariantID); v != nil {
			result.PreviousStock = v.Stock
			v.Stock = clamp(v.Stock + delta)
			result.NewStock = v.Stock
		} else {
			// 规格不存在：不改规格库存，但仍按规格之和刷新InStock并记销量
			variantMissing = true
			result.PreviousStock = p.InStock
		}
		p.RecomputeInStock()
		if variantMissing {
			result.NewStock = p.InStock
		}
	} else {
		result.PreviousStock = p.InStock
		p.InStock = clamp(p.InStock + delta)
		result.NewStock = p.InStock
	}

	// 销量与库存反向变动
	p.SoldCount = clamp(p.SoldCount - delta)

	if err := l.products.SaveStock(ctx, p); err != nil {
		return result, err
	}

	if variantMissing {
		l.logger.Warn("库存调整跳过：规格不存在",
			zap.Uint("product_id", line.ProductID), zap.Uint("variant_id", line.VariantID))
		return skip(result, ReasonVariantNotFound), nil
	}

	result.Outcome = OutcomeApplied
	metrics.RecordStockAdjustment(dir.String(), string(OutcomeApplied))
	return result, nil
}

// DeductOrder 逐条扣减订单明细，单条失败不影响其他明细
func (l *Ledger) DeductOrder(ctx context.Context, lines []Line) []ItemResult {
	return l.adjustAll(ctx, lines, Decrease)
}

// RestoreOrder 逐条回补订单明细
func (l *Ledger) RestoreOrder(ctx context.Context, lines []Line) []ItemResult {
	return l.adjustAll(ctx, lines, Increase)
}

func (l *Ledger) adjustAll(ctx context.Context, lines []Line, dir Direction) []ItemResult {
	results := make([]ItemResult, 0, len(lines))
	for i, line := range lines {
		r, err := l.Adjust(ctx, line, dir)
		r.Index = i
		if err != nil {
			l.logger.Error("库存调整失败",
				zap.String("direction", dir.String()),
				zap.Uint("product_id", line.ProductID),
				zap.Uint("variant_id", line.VariantID),
				zap.Error(err))
			r.Outcome = OutcomeFailed
			r.Reason = err.Error()
			metrics.RecordStockAdjustment(dir.String(), string(OutcomeFailed))
		} else if r.Outcome == OutcomeSkipped {
			metrics.RecordStockAdjustment(dir.String(), string(OutcomeSkipped))
		}
		results = append(results, r)
	}
	return results
}

// DecrementForSale 销售出库：库存充足时才扣减，并写sale流水
func (l *Ledger) DecrementForSale(ctx context.Context, line Line, orderID uint, orderNo string) (ItemResult, error) {
	result := ItemResult{ProductID: line.ProductID, VariantID: line.VariantID, Quantity: line.Quantity}
	if line.Quantity <= 0 {
		return result, ErrInvalidQuantity
	}

	prev, next, err := l.products.DecrementStock(ctx, line.ProductID, line.VariantID, line.Quantity)
	if err != nil {
		metrics.RecordStockAdjustment(string(LogSale), string(OutcomeFailed))
		return result, err
	}

	oid := orderID
	if err := l.logs.Append(ctx, &Log{
		ProductID:     line.ProductID,
		VariantID:     line.VariantID,
		Type:          LogSale,
		Quantity:      line.Quantity,
		PreviousStock: prev,
		NewStock:      next,
		Reason:        saleReason,
		Note:          fmt.Sprintf("Đơn hàng: %s", orderNo),
		OrderID:       &oid,
		CreatedAt:     l.now(),
	}); err != nil {
		return result, err
	}

	result.Outcome = OutcomeApplied
	result.PreviousStock, result.NewStock = prev, next
	metrics.RecordStockAdjustment(string(LogSale), string(OutcomeApplied))
	return result, nil
}

// Import 入库
func (l *Ledger) Import(ctx context.Context, m Movement) (*Log, error) {
	if m.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return l.move(ctx, m, LogImport, defaultImportReason, func(prev int) int {
		return prev + m.Quantity
	})
}

// Export 出库，库存钳制在0
func (l *Ledger) Export(ctx context.Context, m Movement) (*Log, error) {
	if m.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	return l.move(ctx, m, LogExport, defaultExportReason, func(prev int) int {
		return clamp(prev - m.Quantity)
	})
}

// SetStock 盘点：直接设置库存，流水数量为 |new-prev|
func (l *Ledger) SetStock(ctx context.Context, m Movement) (*Log, error) {
	if m.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	return l.move(ctx, m, LogAdjustment, defaultAdjustReason, func(int) int {
		return m.Quantity
	})
}

func (l *Ledger) move(ctx context.Context, m Movement, typ LogType, defaultReason string, next func(prev int) int) (*Log, error) {
	p, err := l.products.LockByID(ctx, m.ProductID)
	if err != nil {
		return nil, err
	}

	prev, err := p.StockOf(m.VariantID)
	if err != nil {
		return nil, err
	}
	newStock := next(prev)
	if err := p.setStock(m.VariantID, newStock); err != nil {
		return nil, err
	}
	if err := l.products.SaveStock(ctx, p); err != nil {
		return nil, err
	}

	quantity := m.Quantity
	if typ == LogAdjustment {
		quantity = abs(newStock - prev)
	}
	reason := strings.TrimSpace(m.Reason)
	if reason == "" {
		reason = defaultReason
	}

	log := &Log{
		ProductID:     p.ID,
		ProductName:   p.Name,
		VariantID:     m.VariantID,
		Type:          typ,
		Quantity:      quantity,
		PreviousStock: prev,
		NewStock:      newStock,
		Reason:        reason,
		Note:          strings.TrimSpace(m.Note),
		CreatedAt:     l.now(),
	}
	if m.AdminID != 0 {
		adminID := m.AdminID
		log.AdminID = &adminID
	}
	if err := l.logs.Append(ctx, log); err != nil {
		return nil, err
	}

	metrics.RecordStockAdjustment(string(typ), string(OutcomeApplied))
	l.logger.Info("库存变动",
		zap.String("type", string(typ)),
		zap.Uint("product_id", p.ID),
		zap.Uint("variant_id", m.VariantID),
		zap.Int("previous", prev),
		zap.Int("new", newStock),
	)
	return log, nil
}

func skip(r ItemResult, reason string) ItemResult {
	r.Outcome = OutcomeSkipped
	r.Reason = reason
	return r
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
