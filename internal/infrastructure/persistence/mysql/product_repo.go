package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/plantshop/internal/domain/inventory"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// productRepository 商品库存仓储实现(MySQL)
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品库存仓储
func NewProductRepository(db *gorm.DB) inventory.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*inventory.Product, error) {
	var model ProductModel
	err := dbFrom(ctx, r.db).Preload("Variants", orderVariants).First(&model, id).Error
	if err != nil {
		return nil, productErr(err)
	}
	return toProductEntity(&model), nil
}

// LockByID 商品行和规格行都加FOR UPDATE
func (r *productRepository) LockByID(ctx context.Context, id uint) (*inventory.Product, error) {
	var model ProductModel
	err := dbFrom(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return orderVariants(db).Clauses(clause.Locking{Strength: "UPDATE"})
		}).
		First(&model, id).Error
	if err != nil {
		return nil, productErr(err)
	}
	return toProductEntity(&model), nil
}

func orderVariants(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func productErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return inventory.ErrProductNotFound
	}
	return apperrors.Wrap(err, "查询商品失败")
}

// SaveStock 保存商品库存、销量和各规格库存
func (r *productRepository) SaveStock(ctx context.Context, p *inventory.Product) error {
	db := dbFrom(ctx, r.db)
	result := db.Model(&ProductModel{}).Where("id = ?", p.ID).Updates(map[string]any{
		"in_stock":   p.InStock,
		"sold_count": p.SoldCount,
	})
	if result.Error != nil {
		return apperrors.Wrap(result.Error, "更新商品库存失败")
	}

	for _, v := range p.Variants {
		if err := db.Model(&ProductVariantModel{}).
			Where("id = ? AND product_id = ?", v.ID, p.ID).
			UpdateColumn("stock", v.Stock).Error; err != nil {
			return apperrors.Wrap(err, "更新规格库存失败")
		}
	}
	return nil
}

// DecrementStock 条件扣减
//
//	UPDATE products SET in_stock = in_stock - ?, sold_count = sold_count + ? WHERE id = ? AND in_stock >= ?
//
// 规格商品先扣规格库存，再把in_stock刷新为规格库存之和
func (r *productRepository) DecrementStock(ctx context.Context, productID, variantID uint, qty int) (int, int, error) {
	db := dbFrom(ctx, r.db)

	if variantID == 0 {
		result := db.Model(&ProductModel{}).
			Where("id = ? AND in_stock >= ?", productID, qty).
			Updates(map[string]any{
				"in_stock":   gorm.Expr("in_stock - ?", qty),
				"sold_count": gorm.Expr("sold_count + ?", qty),
			})
		if result.Error != nil {
			return 0, 0, apperrors.Wrap(result.Error, "扣减库存失败")
		}
		if result.RowsAffected == 0 {
			return 0, 0, r.whyNotDecremented(ctx, productID, 0)
		}

		var next int
		if err := db.Model(&ProductModel{}).Select("in_stock").Where("id = ?", productID).Scan(&next).Error; err != nil {
			return 0, 0, apperrors.Wrap(err, "查询库存失败")
		}
		return next + qty, next, nil
	}

	result := db.Model(&ProductVariantModel{}).
		Where("id = ? AND product_id = ? AND stock >= ?", variantID, productID, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return 0, 0, apperrors.Wrap(result.Error, "扣减规格库存失败")
	}
	if result.RowsAffected == 0 {
		return 0, 0, r.whyNotDecremented(ctx, productID, variantID)
	}

	if err := db.Model(&ProductModel{}).Where("id = ?", productID).Updates(map[string]any{
		"in_stock":   gorm.Expr("(SELECT COALESCE(SUM(stock), 0) FROM product_variants WHERE product_id = ?)", productID),
		"sold_count": gorm.Expr("sold_count + ?", qty),
	}).Error; err != nil {
		return 0, 0, apperrors.Wrap(err, "更新商品库存失败")
	}

	var next int
	if err := db.Model(&ProductVariantModel{}).Select("stock").Where("id = ?", variantID).Scan(&next).Error; err != nil {
		return 0, 0, apperrors.Wrap(err, "查询规格库存失败")
	}
	return next + qty, next, nil
}

// whyNotDecremented 区分“不存在”和“库存不足”
func (r *productRepository) whyNotDecremented(ctx context.Context, productID, variantID uint) error {
	db := dbFrom(ctx, r.db)
	var count int64
	if err := db.Model(&ProductModel{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return apperrors.Wrap(err, "查询商品失败")
	}
	if count == 0 {
		return inventory.ErrProductNotFound
	}
	if variantID != 0 {
		if err := db.Model(&ProductVariantModel{}).
			Where("id = ? AND product_id = ?", variantID, productID).Count(&count).Error; err != nil {
			return apperrors.Wrap(err, "查询规格失败")
		}
		if count == 0 {
			return inventory.ErrVariantNotFound
		}
	}
	return inventory.ErrInsufficientStock
}

// List 库存列表：关键字匹配名称/slug/SKU，按更新时间倒序
func (r *productRepository) List(ctx context.Context, params inventory.ListParams) ([]*inventory.Product, int64, error) {
	query := dbFrom(ctx, r.db).Model(&ProductModel{})

	if params.Keyword != "" {
		kw := likePattern(params.Keyword)
		query = query.Where("name LIKE ? OR slug LIKE ? OR sku LIKE ?", kw, kw, kw)
	}
	if params.Type != "" {
		query = query.Where("type = ?", string(params.Type))
	}
	switch params.Stock {
	case inventory.StockOut:
		query = query.Where("in_stock = 0")
	case inventory.StockLow:
		query = query.Where("in_stock BETWEEN 1 AND ?", inventory.LowStockThreshold)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询商品总数失败")
	}

	var models []ProductModel
	if err := query.Preload("Variants", orderVariants).
		Order("updated_at DESC").
		Scopes(paginate(params.Page, params.PageSize)).
		Find(&models).Error; err != nil {
		return nil, 0, apperrors.Wrap(err, "查询库存列表失败")
	}

	products := make([]*inventory.Product, len(models))
	for i := range models {
		products[i] = toProductEntity(&models[i])
	}
	return products, total, nil
}

// CountStockLevels 低库存(1..10)和缺货商品数
func (r *productRepository) CountStockLevels(ctx context.Context) (int64, int64, error) {
	db := dbFrom(ctx, r.db)
	var low, out int64
	if err := db.Model(&ProductModel{}).Where("in_stock BETWEEN 1 AND ?", inventory.LowStockThreshold).Count(&low).Error; err != nil {
		return 0, 0, apperrors.Wrap(err, "统计低库存失败")
	}
	if err := db.Model(&ProductModel{}).Where("in_stock = 0").Count(&out).Error; err != nil {
		return 0, 0, apperrors.Wrap(err, "统计缺货失败")
	}
	return low, out, nil
}

func toProductEntity(m *ProductModel) *inventory.Product {
	variants := make([]inventory.Variant, len(m.Variants))
	for i, v := range m.Variants {
		variants[i] = inventory.Variant{
			ID:        v.ID,
			ProductID: v.ProductID,
			Name:      v.Name,
			SKU:       v.SKU,
			Price:     v.Price,
			Stock:     v.Stock,
		}
	}
	return &inventory.Product{
		ID:        m.ID,
		Name:      m.Name,
		Slug:      m.Slug,
		SKU:       m.SKU,
		Type:      inventory.ProductType(m.Type),
		Price:     m.Price,
		InStock:   m.InStock,
		SoldCount: m.SoldCount,
		Variants:  variants,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
