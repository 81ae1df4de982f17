package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GenerateOrderNo 生成订单号：ORD + Unix秒 + 6位随机数
// 唯一性最终由orders.order_no唯一索引保证
func GenerateOrderNo(now time.Time) string {
	return fmt.Sprintf("ORD%d%06d", now.Unix(), rand.IntN(1000000))
}
