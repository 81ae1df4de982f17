package coupon

import (
	"math/rand/v2"
	"strings"
	"time"
)

// DiscountType 折扣类型
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// CodeLength 优惠码固定5位
const CodeLength = 5

// codeAlphabet 自动生成优惠码用的字符，不含I、O、0、1
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateCode 随机生成5位优惠码
// 唯一性最终由coupons.code唯一索引保证
func GenerateCode() string {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return string(b)
}

// Coupon 优惠券
type Coupon struct {
	ID            uint
	Code          string
	DiscountType  DiscountType
	DiscountValue float64
	MaxUsage      int
	TimeUsed      int
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NormalizeCode 去空格并转大写，长度不为5返回ErrInvalidCouponCode
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != CodeLength {
		return "", ErrInvalidCouponCode
	}
	return code, nil
}

// NewCoupon 后台创建优惠券
//
// code为空时自动生成；折扣类型除fixed外一律按百分比；折扣值小于0按0处理；
// 最大使用次数至少为1
func NewCoupon(code string, typ DiscountType, value float64, maxUsage int, active bool) (*Coupon, error) {
	if strings.TrimSpace(code) == "" {
		code = GenerateCode()
	}
	normalized, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	if typ != DiscountFixed {
		typ = DiscountPercentage
	}
	value = max(value, 0)
	if typ == DiscountPercentage && value > 100 {
		return nil, ErrInvalidDiscount
	}
	return &Coupon{
		Code:          normalized,
		DiscountType:  typ,
		DiscountValue: value,
		MaxUsage:      max(maxUsage, 1),
		IsActive:      active,
	}, nil
}

// Exhausted 使用次数是否已达上限（MaxUsage<=0表示不限）
func (c *Coupon) Exhausted() bool {
	return c.MaxUsage > 0 && c.TimeUsed >= c.MaxUsage
}

// CheckApplicable 应用前校验
func (c *Coupon) CheckApplicable() error {
	if !c.IsActive {
		return ErrCouponNotFound
	}
	if c.Exhausted() {
		return ErrCouponUsageExceeded
	}
	return nil
}

// Discount 计算折扣金额，不超过小计
func (c *Coupon) Discount(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}
	var d int64
	switch c.DiscountType {
	case DiscountPercentage:
		d = int64(float64(subtotal) * c.DiscountValue / 100)
	default:
		d = int64(c.DiscountValue)
	}
	if d < 0 {
		return 0
	}
	return min(d, subtotal)
}

// Applied 购物车上已应用的优惠券快照
type Applied struct {
	CouponID uint   `json:"coupon_id"`
	Code     string `json:"code"`
	Discount int64  `json:"discount"`
}
