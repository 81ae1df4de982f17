package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// CartStore 购物车存储：plantshop:cart:{user_id} → JSON文档
// 每次写入刷新TTL，长期不活跃的购物车自动过期
type CartStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

var _ cart.Store = (*CartStore)(nil)

// NewCartStore 创建购物车存储
func NewCartStore(client *redis.Client, cfg *config.Config) *CartStore {
	return &CartStore{client: client, ttl: cfg.Redis.CartTTL}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("plantshop:cart:%d", userID)
}

func (s *CartStore) Get(ctx context.Context, userID uint) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &cart.Cart{UserID: userID, Items: []cart.Item{}}, nil
		}
		return nil, apperrors.Wrap(err, "读取购物车失败")
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperrors.Wrap(err, "解析购物车失败")
	}
	c.UserID = userID
	return &c, nil
}

func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return apperrors.Wrap(err, "序列化购物车失败")
	}
	if err := s.client.Set(ctx, cartKey(c.UserID), data, s.ttl).Err(); err != nil {
		return apperrors.Wrap(err, "保存购物车失败")
	}
	return nil
}

// Clear 删除整个购物车（含已应用的优惠券），幂等
func (s *CartStore) Clear(ctx context.Context, userID uint) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return apperrors.Wrap(err, "清空购物车失败")
	}
	return nil
}
