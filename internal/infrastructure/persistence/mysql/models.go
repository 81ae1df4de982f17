package mysql

import (
	"time"

	"gorm.io/gorm"
)

// 这里是infrastructure层的数据模型（带GORM tag），domain层实体不依赖GORM，
// 各Repository负责两者之间的转换。

// UserModel 用户表
type UserModel struct {
	ID            uint           `gorm:"primaryKey"`
	Email         string         `gorm:"uniqueIndex;size:100;not null;comment:邮箱"`
	Password      string         `gorm:"size:255;not null;comment:密码（bcrypt加密）"`
	Nickname      string         `gorm:"size:50;not null;comment:昵称"`
	Role          string         `gorm:"size:16;not null;default:customer;comment:角色"`
	LoyaltyPoints int64          `gorm:"not null;default:0;comment:积分余额"`
	CreatedAt     time.Time      `gorm:"comment:创建时间"`
	UpdatedAt     time.Time      `gorm:"comment:更新时间"`
	DeletedAt     gorm.DeletedAt `gorm:"index;comment:删除时间（软删除）"`
}

func (UserModel) TableName() string {
	return "users"
}

// ProductModel 商品表（只映射库存相关字段，目录信息由商品模块维护）
type ProductModel struct {
	ID        uint                  `gorm:"primaryKey"`
	Name      string                `gorm:"size:200;not null;comment:商品名"`
	Slug      string                `gorm:"uniqueIndex;size:200;not null"`
	SKU       string                `gorm:"size:64;index;comment:SKU"`
	Type      string                `gorm:"size:16;index;comment:indoor/outdoor/pot"`
	Price     int64                 `gorm:"not null;default:0;comment:价格(VND)"`
	InStock   int                   `gorm:"not null;default:0;index;comment:库存"`
	SoldCount int                   `gorm:"not null;default:0;comment:销量"`
	Variants  []ProductVariantModel `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index"`
}

func (ProductModel) TableName() string {
	return "products"
}

// ProductVariantModel 商品规格表
type ProductVariantModel struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"index;not null"`
	Name      string `gorm:"size:100;comment:规格名"`
	SKU       string `gorm:"size:64"`
	Price     int64  `gorm:"not null;default:0"`
	Stock     int    `gorm:"not null;default:0"`
}

func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// InventoryLogModel 库存流水表（只追加）
type InventoryLogModel struct {
	ID            uint      `gorm:"primaryKey"`
	ProductID     uint      `gorm:"index:idx_product_created,priority:1;not null"`
	VariantID     uint      `gorm:"not null;default:0"`
	Type          string    `gorm:"size:16;index;not null;comment:import/export/adjustment/sale"`
	Quantity      int       `gorm:"not null"`
	PreviousStock int       `gorm:"not null"`
	NewStock      int       `gorm:"not null"`
	Reason        string    `gorm:"size:255"`
	Note          string    `gorm:"size:500"`
	AdminID       *uint     `gorm:"comment:操作管理员"`
	OrderID       *uint     `gorm:"index;comment:关联订单"`
	CreatedAt     time.Time `gorm:"index:idx_product_created,priority:2;index"`
}

func (InventoryLogModel) TableName() string {
	return "inventory_logs"
}

// CouponModel 优惠券表
type CouponModel struct {
	ID            uint    `gorm:"primaryKey"`
	Code          string  `gorm:"uniqueIndex;size:16;not null"`
	DiscountType  string  `gorm:"size:16;not null"`
	DiscountValue float64 `gorm:"not null"`
	MaxUsage      int     `gorm:"not null;default:1"`
	TimeUsed      int     `gorm:"not null;default:0"`
	IsActive      bool    `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CouponModel) TableName() string {
	return "coupons"
}

// OrderModel 订单表
// 1. 明细和状态历史以JSON文档保存（读取时兼容旧字段名）
// 2. Effects是副作用位图，只通过条件UPDATE翻转
type OrderModel struct {
	ID            uint        `gorm:"primaryKey"`
	OrderNo       string      `gorm:"uniqueIndex;size:32;not null;comment:订单号"`
	UserID        uint        `gorm:"index;not null;comment:买家用户ID"`
	Items         itemList    `gorm:"type:json;not null;comment:订单明细"`
	Subtotal      int64       `gorm:"not null;default:0"`
	Discount      int64       `gorm:"not null;default:0"`
	Tax           int64       `gorm:"not null;default:0"`
	ShippingFee   int64       `gorm:"not null;default:0"`
	PointUsed     int64       `gorm:"not null;default:0;comment:积分抵扣金额"`
	TotalPrice    int64       `gorm:"not null;comment:应付总额"`
	PointEarned   int64       `gorm:"not null;default:0"`
	Status        string      `gorm:"size:16;index;not null;comment:pending/preparing/shipping/done/canceled"`
	PaymentMethod string      `gorm:"size:16;not null;comment:cod/momo"`
	PaymentStatus string      `gorm:"size:16;index;not null;comment:unpaid/pending/paid/failed/canceled"`
	StatusHistory historyList `gorm:"type:json;not null"`
	Effects       uint8       `gorm:"type:tinyint unsigned;not null;default:0;comment:已执行的副作用位图"`
	CouponID      *uint       `gorm:"index"`
	Note          string      `gorm:"size:500"`
	Address       addressCols `gorm:"embedded;embeddedPrefix:address_"`
	MomoTransID   string      `gorm:"size:64"`
	CancelReason  string      `gorm:"size:255"`
	CanceledAt    *time.Time
	CreatedAt     time.Time `gorm:"index;comment:创建时间"`
	UpdatedAt     time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

type addressCols struct {
	Number   string `gorm:"size:32"`
	Street   string `gorm:"size:255"`
	District string `gorm:"size:100"`
	City     string `gorm:"size:100"`
}

// EffectTaskModel 订单副作用任务表
type EffectTaskModel struct {
	ID          uint   `gorm:"primaryKey"`
	OrderID     uint   `gorm:"index:idx_order_status,priority:1;not null"`
	Kind        string `gorm:"size:32;not null"`
	Payload     string `gorm:"type:text"`
	Status      string `gorm:"size:16;not null;index:idx_order_status,priority:2;index"`
	Attempts    int    `gorm:"not null;default:0"`
	LastError   string `gorm:"size:512"`
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

func (EffectTaskModel) TableName() string {
	return "order_effect_tasks"
}

// allModels AutoMigrate的模型列表
func allModels() []any {
	return []any{
		&UserModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&InventoryLogModel{},
		&CouponModel{},
		&OrderModel{},
		&EffectTaskModel{},
	}
}
