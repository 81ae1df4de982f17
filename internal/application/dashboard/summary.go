// Package dashboard 后台仪表盘统计
package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/pkg/cache"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// 统计区间
const (
	RangeToday = "today"
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

const (
	defaultTTL      = 60 * time.Second
	defaultCapacity = 16
)

var ErrInvalidRange = apperrors.New(apperrors.ErrCodeInvalidParams, "统计区间无效（today/week/month/year）")

// Summary 仪表盘数据
type Summary struct {
	Range         string           `json:"range"`
	Since         time.Time        `json:"since"`
	TotalOrders   int64            `json:"total_orders"`
	CountByStatus map[string]int64 `json:"count_by_status"`
	Revenue       int64            `json:"revenue"`
	PaidOnline    int64            `json:"paid_online"`
	LowStock      int64            `json:"low_stock"`
	OutOfStock    int64            `json:"out_of_stock"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// SummaryCache 仪表盘缓存，按区间名缓存
type SummaryCache = cache.TTLCache[string, *Summary]

// NewSummaryCache 按配置创建缓存，在main中构造一次
func NewSummaryCache(cfg *config.Config, clock cache.Clock) *SummaryCache {
	ttl := cfg.Cache.DashboardTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	capacity := cfg.Cache.DashboardCapacity
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return cache.NewTTLCache[string, *Summary](ttl, capacity, cache.WithClock(clock))
}

// SummaryUseCase 仪表盘汇总
type SummaryUseCase struct {
	orderRepo order.Repository
	products  inventory.ProductRepository
	cache     *SummaryCache
	logger    *zap.Logger
	now       func() time.Time
}

func NewSummaryUseCase(orderRepo order.Repository, products inventory.ProductRepository, summaryCache *SummaryCache, logger *zap.Logger) *SummaryUseCase {
	return &SummaryUseCase{
		orderRepo: orderRepo,
		products:  products,
		cache:     summaryCache,
		logger:    logger,
		now:       time.Now,
	}
}

// Execute 读取区间统计，缓存未命中时查库
func (uc *SummaryUseCase) Execute(ctx context.Context, rangeName string) (*Summary, error) {
	if rangeName == "" {
		rangeName = RangeToday
	}
	now := uc.now()
	since, err := rangeStart(rangeName, now)
	if err != nil {
		return nil, err
	}

	return uc.cache.GetOrLoad(rangeName, func() (*Summary, error) {
		return uc.load(ctx, rangeName, since, now)
	})
}

func (uc *SummaryUseCase) load(ctx context.Context, rangeName string, since, now time.Time) (*Summary, error) {
	stats, err := uc.orderRepo.Stats(ctx, since)
	if err != nil {
		return nil, err
	}
	low, out, err := uc.products.CountStockLevels(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(order.AllStatuses))
	for _, s := range order.AllStatuses {
		counts[string(s)] = stats.CountByStatus[s]
	}

	uc.logger.Debug("仪表盘统计已刷新", zap.String("range", rangeName), zap.Int64("orders", stats.TotalOrders))
	return &Summary{
		Range:         rangeName,
		Since:         since,
		TotalOrders:   stats.TotalOrders,
		CountByStatus: counts,
		Revenue:       stats.Revenue,
		PaidOnline:    stats.PaidOnline,
		LowStock:      low,
		OutOfStock:    out,
		GeneratedAt:   now,
	}, nil
}

// Invalidate 清空缓存（订单事件触发）
func (uc *SummaryUseCase) Invalidate() {
	uc.cache.Purge()
}

// rangeStart 区间起点
// today：当天0点；week：含今天在内的最近7天；month：本月1日；year：本年1月1日
func rangeStart(rangeName string, now time.Time) (time.Time, error) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch rangeName {
	case RangeToday:
		return today, nil
	case RangeWeek:
		return today.AddDate(0, 0, -6), nil
	case RangeMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), nil
	case RangeYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, now.Location()), nil
	}
	return time.Time{}, ErrInvalidRange
}
