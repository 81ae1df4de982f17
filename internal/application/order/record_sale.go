package order

import (
	"context"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/application/effect"
	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/order"
)

// RecordSaleUseCase 门店销售出库
// 按订单明细做带流水的条件扣减，并设置StockDeducted，之后的done流转不会再扣一次
type RecordSaleUseCase struct {
	orderRepo order.Repository
	stock     *inventory.Ledger
	txManager domain.TxManager
	logger    *zap.Logger
}

func NewRecordSaleUseCase(orderRepo order.Repository, stock *inventory.Ledger, txManager domain.TxManager, logger *zap.Logger) *RecordSaleUseCase {
	return &RecordSaleUseCase{orderRepo: orderRepo, stock: stock, txManager: txManager, logger: logger}
}

type RecordSaleRequest struct {
	OrderID uint
	ActorID uint
}

type RecordSaleResponse struct {
	OrderID uint                   `json:"order_id"`
	OrderNo string                 `json:"order_no"`
	Items   []inventory.ItemResult `json:"items"`
}

// Execute 任意一件库存不足则整单回滚（包括StockDeducted标记）
func (uc *RecordSaleUseCase) Execute(ctx context.Context, req RecordSaleRequest) (*RecordSaleResponse, error) {
	var resp *RecordSaleResponse
	err := uc.txManager.Transaction(ctx, func(txCtx context.Context) error {
		o, err := uc.orderRepo.LockByID(txCtx, req.OrderID)
		if err != nil {
			return err
		}
		if o.Status == order.StatusCanceled {
			return order.ErrInvalidStatusTransition
		}

		swapped, err := uc.orderRepo.SwapEffect(txCtx, o.ID, order.EffectStockDeducted, true)
		if err != nil {
			return err
		}
		if !swapped {
			return ErrStockAlreadyDeducted
		}

		resp = &RecordSaleResponse{OrderID: o.ID, OrderNo: o.OrderNo}
		for i, line := range effect.Lines(o) {
			result, err := uc.stock.DecrementForSale(txCtx, line, o.ID, o.OrderNo)
			result.Index = i
			if err != nil {
				return err
			}
			resp.Items = append(resp.Items, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("门店销售已出库",
		zap.String("order_no", resp.OrderNo),
		zap.Uint("actor_id", req.ActorID),
		zap.Int("items", len(resp.Items)),
	)
	return resp, nil
}
