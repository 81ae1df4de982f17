package order

// Effect 订单上已生效的副作用标记（位掩码）
// 每个标记的翻转都是存储层的一次条件更新（CAS），不做读后写
type Effect uint8

const (
	EffectStockDeducted  Effect = 1 << iota // 已扣减库存
	EffectPointsRewarded                    // 已发放积分
	EffectPointsRedeemed                    // 已扣除抵扣积分
	EffectCouponRedeemed                    // 优惠券已计数
	EffectCartCleared                       // 购物车已清空
)

func (e Effect) String() string {
	switch e {
	case EffectStockDeducted:
		return "stock_deducted"
	case EffectPointsRewarded:
		return "points_rewarded"
	case EffectPointsRedeemed:
		return "points_redeemed"
	case EffectCouponRedeemed:
		return "coupon_redeemed"
	case EffectCartCleared:
		return "cart_cleared"
	default:
		return "unknown"
	}
}

// EffectSet 已生效副作用集合
type EffectSet uint8

// Has 是否包含e
func (s EffectSet) Has(e Effect) bool {
	return uint8(s)&uint8(e) != 0
}

// With 加入e
func (s EffectSet) With(e Effect) EffectSet {
	return EffectSet(uint8(s) | uint8(e))
}

// Without 移除e
func (s EffectSet) Without(e Effect) EffectSet {
	return EffectSet(uint8(s) &^ uint8(e))
}

// Names 已生效标记名称（API展示用）
func (s EffectSet) Names() []string {
	names := make([]string, 0, 5)
	for _, e := range []Effect{EffectStockDeducted, EffectPointsRewarded, EffectPointsRedeemed, EffectCouponRedeemed, EffectCartCleared} {
		if s.Has(e) {
			names = append(names, e.String())
		}
	}
	return names
}
