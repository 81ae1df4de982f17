// Package inventory 后台库存管理：入库、出库、盘点、库存列表和流水
package inventory

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
	"github.com/xiebiao/plantshop/pkg/tracing"
)

// ErrInvalidLogType 不支持的流水类型
var ErrInvalidLogType = apperrors.New(apperrors.ErrCodeInvalidParams, "库存变动类型无效")

// MoveStockUseCase 后台库存变动
//
// 支持三种操作：
//   - import：库存 += quantity
//   - export：库存 -= quantity（最低为0）
//   - adjustment：库存 = quantity，流水数量记为 |新库存-原库存|
//
// 商品加行锁，变动和流水在同一事务提交
type MoveStockUseCase struct {
	ledger    *inventory.Ledger
	txManager domain.TxManager
	logger    *zap.Logger
}

func NewMoveStockUseCase(ledger *inventory.Ledger, txManager domain.TxManager, logger *zap.Logger) *MoveStockUseCase {
	return &MoveStockUseCase{ledger: ledger, txManager: txManager, logger: logger}
}

// MoveStockRequest 库存变动请求
type MoveStockRequest struct {
	ProductID uint
	VariantID uint // 0 表示无规格商品
	Type      inventory.LogType
	Quantity  int
	Reason    string
	Note      string
	AdminID   uint
}

// MoveStockResponse 变动结果
type MoveStockResponse struct {
	Log *LogView `json:"log"`
}

func (uc *MoveStockUseCase) Execute(ctx context.Context, req MoveStockRequest) (*MoveStockResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "inventory", "MoveStock")
	defer span.End()

	var move func(context.Context, inventory.Movement) (*inventory.Log, error)
	switch req.Type {
	case inventory.LogImport:
		move = uc.ledger.Import
	case inventory.LogExport:
		move = uc.ledger.Export
	case inventory.LogAdjustment:
		move = uc.ledger.SetStock
	default:
		return nil, ErrInvalidLogType
	}

	var log *inventory.Log
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		log, err = move(txCtx, inventory.Movement{
			ProductID: req.ProductID,
			VariantID: req.VariantID,
			Quantity:  req.Quantity,
			Reason:    req.Reason,
			Note:      req.Note,
			AdminID:   req.AdminID,
		})
		return err
	})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	uc.logger.Info("后台库存变动完成",
		zap.Uint("admin_id", req.AdminID),
		zap.Uint("product_id", req.ProductID),
		zap.String("type", string(req.Type)),
		zap.Int("quantity", log.Quantity),
	)
	return &MoveStockResponse{Log: NewLogView(log)}, nil
}

const timeLayout = "2006-01-02 15:04:05"

// LogView 库存流水展示
type LogView struct {
	ID            uint   `json:"id"`
	ProductID     uint   `json:"product_id"`
	ProductName   string `json:"product_name"`
	VariantID     uint   `json:"variant_id,omitempty"`
	Type          string `json:"type"`
	Quantity      int    `json:"quantity"`
	PreviousStock int    `json:"previous_stock"`
	NewStock      int    `json:"new_stock"`
	Reason        string `json:"reason"`
	Note          string `json:"note,omitempty"`
	AdminID       *uint  `json:"admin_id,omitempty"`
	OrderID       *uint  `json:"order_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func NewLogView(l *inventory.Log) *LogView {
	return &LogView{
		ID:            l.ID,
		ProductID:     l.ProductID,
		ProductName:   l.ProductName,
		VariantID:     l.VariantID,
		Type:          string(l.Type),
		Quantity:      l.Quantity,
		PreviousStock: l.PreviousStock,
		NewStock:      l.NewStock,
		Reason:        l.Reason,
		Note:          l.Note,
		AdminID:       l.AdminID,
		OrderID:       l.OrderID,
		CreatedAt:     l.CreatedAt.Format(timeLayout),
	}
}

func newLogViews(logs []*inventory.Log) []*LogView {
	views := make([]*LogView, 0, len(logs))
	for _, l := range logs {
		views = append(views, NewLogView(l))
	}
	return views
}

// stockLevel 库存状态：out / low / ok
func stockLevel(stock int) string {
	switch {
	case stock <= 0:
		return "out"
	case stock <= inventory.LowStockThreshold:
		return "low"
	}
	return "ok"
}
