package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/xiebiao/plantshop/internal/domain/inventory"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// inventoryLogRepository 库存流水仓储，只提供追加和查询
type inventoryLogRepository struct {
	db *gorm.DB
}

func NewInventoryLogRepository(db *gorm.DB) inventory.LogRepository {
	return &inventoryLogRepository{db: db}
}

func (r *inventoryLogRepository) Append(ctx context.Context, log *inventory.Log) error {
	model := &InventoryLogModel{
		ProductID:     log.ProductID,
		VariantID:     log.VariantID,
		Type:          string(log.Type),
		Quantity:      log.Quantity,
		PreviousStock: log.PreviousStock,
		NewStock:      log.NewStock,
		Reason:        truncate(log.Reason, 255),
		Note:          truncate(log.Note, 500),
		AdminID:       log.AdminID,
		OrderID:       log.OrderID,
		CreatedAt:     log.CreatedAt,
	}
	if err := dbFrom(ctx, r.db).Create(model).Error; err != nil {
		return apperrors.Wrap(err, "写入库存流水失败")
	}
	log.ID = model.ID
	log.CreatedAt = model.CreatedAt
	return nil
}

func (r *inventoryLogRepository) ListByProduct(ctx context.Context, productID uint, limit int) ([]*inventory.Log, error) {
	var models []InventoryLogModel
	err := dbFrom(ctx, r.db).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询库存流水失败")
	}
	return r.withProductNames(ctx, models)
}

func (r *inventoryLogRepository) List(ctx context.Context, params inventory.LogListParams) ([]*inventory.Log, int64, error) {
	query := dbFrom(ctx, r.db).Model(&InventoryLogModel{})
	if params.Type != "" {
		query = query.Where("type = ?", string(params.Type))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询库存流水总数失败")
	}

	var models []InventoryLogModel
	if err := query.Order("created_at DESC, id DESC").
		Scopes(paginate(params.Page, params.PageSize)).
		Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询库存流水失败")
	}

	logs, err := r.withProductNames(ctx, models)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// withProductNames 一次查询补齐商品名
func (r *inventoryLogRepository) withProductNames(ctx context.Context, models []InventoryLogModel) ([]*inventory.Log, error) {
	ids := make([]uint, 0, len(models))
	seen := make(map[uint]bool, len(models))
	for _, m := range models {
		if !seen[m.ProductID] {
			seen[m.ProductID] = true
			ids = append(ids, m.ProductID)
		}
	}

	names := make(map[uint]string, len(ids))
	if len(ids) > 0 {
		var rows []struct {
			ID   uint
			Name string
		}
		if err := dbFrom(ctx, r.db).Model(&ProductModel{}).Select("id, name").
			Where("id IN ?", ids).Scan(&rows).Error; err != nil {
			return nil, apperrors.Wrap(err, "查询商品名称失败")
		}
		for _, row := range rows {
			names[row.ID] = row.Name
		}
	}

	logs := make([]*inventory.Log, len(models))
	for i, m := range models {
		logs[i] = &inventory.Log{
			ID:            m.ID,
			ProductID:     m.ProductID,
			ProductName:   names[m.ProductID],
			VariantID:     m.VariantID,
			Type:          inventory.LogType(m.Type),
			Quantity:      m.Quantity,
			PreviousStock: m.PreviousStock,
			NewStock:      m.NewStock,
			Reason:        m.Reason,
			Note:          m.Note,
			AdminID:       m.AdminID,
			OrderID:       m.OrderID,
			CreatedAt:     m.CreatedAt,
		}
	}
	return logs, nil
}
