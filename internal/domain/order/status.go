package order

// Status 订单履约状态
// 取值与持久化的字符串完全一致
type Status string

const (
	StatusPending   Status = "pending"   // 待处理
	StatusPreparing Status = "preparing" // 备货中
	StatusShipping  Status = "shipping"  // 配送中
	StatusDone      Status = "done"      // 已完成
	StatusCanceled  Status = "canceled"  // 已取消
)

// AllStatuses 合法状态白名单
var AllStatuses = []Status{StatusPending, StatusPreparing, StatusShipping, StatusDone, StatusCanceled}

// ParseStatus 白名单校验
func ParseStatus(s string) (Status, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

// Label 中文展示名（发票、后台列表使用）
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "待处理"
	case StatusPreparing:
		return "备货中"
	case StatusShipping:
		return "配送中"
	case StatusDone:
		return "已完成"
	case StatusCanceled:
		return "已取消"
	default:
		return "未知状态"
	}
}

// transitions 允许的状态流转边
// done可以回退到任意状态（管理员纠错，副作用会被撤销）；canceled不可流出
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusShipping, StatusDone, StatusCanceled},
	StatusPreparing: {StatusPending, StatusShipping, StatusDone, StatusCanceled},
	StatusShipping:  {StatusPreparing, StatusDone},
	StatusDone:      {StatusPending, StatusPreparing, StatusShipping, StatusCanceled},
	StatusCanceled:  {},
}

// CanTransition 判断 from → to 是否为合法边（同状态不算流转）
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"  // 货到付款
	PaymentMomo PaymentMethod = "momo" // MoMo钱包
)

// PaymentStatus 支付状态（与履约状态相互独立）
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentCanceled PaymentStatus = "canceled"
)
