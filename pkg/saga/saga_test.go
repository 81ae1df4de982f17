package saga

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func recorder(log *[]string, name string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		*log = append(*log, name)
		return nil
	}
}

func TestSaga_Execute(t *testing.T) {
	t.Run("全部步骤成功不触发补偿", func(t *testing.T) {
		var executed []string
		s := NewSaga("checkout", 5*time.Second, zap.NewNop())
		s.AddStep("创建订单", recorder(&executed, "创建订单"), recorder(&executed, "取消订单"))
		s.AddStep("请求支付链接", recorder(&executed, "请求支付链接"), nil)

		require.NoError(t, s.Execute(context.Background()))
		assert.Equal(t, []string{"创建订单", "请求支付链接"}, executed)
	})

	t.Run("失败时逆序补偿已完成步骤", func(t *testing.T) {
		var executed []string
		gatewayErr := errors.New("网关无响应")

		s := NewSaga("checkout", 5*time.Second, nil)
		s.AddStep("校验购物车", recorder(&executed, "校验购物车"), recorder(&executed, "撤销校验"))
		s.AddStep("创建订单", recorder(&executed, "创建订单"), recorder(&executed, "取消订单"))
		s.AddStep("请求支付链接", func(ctx context.Context) error {
			executed = append(executed, "请求支付链接")
			return gatewayErr
		}, recorder(&executed, "不应执行"))

		err := s.Execute(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, gatewayErr)
		assert.Equal(t, []string{"校验购物车", "创建订单", "请求支付链接", "取消订单", "撤销校验"}, executed)
	})

	t.Run("补偿失败继续执行后续补偿", func(t *testing.T) {
		var executed []string
		s := NewSaga("checkout", 0, zap.NewNop())
		s.AddStep("A", recorder(&executed, "A"), recorder(&executed, "撤销A"))
		s.AddStep("B", recorder(&executed, "B"), func(ctx context.Context) error {
			executed = append(executed, "撤销B")
			return errors.New("补偿失败")
		})
		s.AddStep("C", func(ctx context.Context) error { return errors.New("失败") }, nil)

		require.Error(t, s.Execute(context.Background()))
		assert.Equal(t, []string{"A", "B", "撤销B", "撤销A"}, executed)
	})

	t.Run("超时触发补偿", func(t *testing.T) {
		var executed []string
		s := NewSaga("checkout", 50*time.Millisecond, zap.NewNop())
		s.AddStep("快速步骤", recorder(&executed, "快速步骤"), recorder(&executed, "快速步骤补偿"))
		s.AddStep("慢速步骤", func(ctx context.Context) error {
			select {
			case <-time.After(time.Second):
				executed = append(executed, "慢速步骤")
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, recorder(&executed, "慢速步骤补偿"))

		err := s.Execute(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, []string{"快速步骤", "快速步骤补偿"}, executed)
	})

	t.Run("补偿Context不随超时取消", func(t *testing.T) {
		var compensateErr error
		s := NewSaga("checkout", 20*time.Millisecond, zap.NewNop())
		s.AddStep("创建订单", func(ctx context.Context) error { return nil }, func(ctx context.Context) error {
			compensateErr = ctx.Err()
			return nil
		})
		s.AddStep("等待", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}, nil)

		require.Error(t, s.Execute(context.Background()))
		assert.NoError(t, compensateErr)
	})
}

func BenchmarkSaga_Execute(b *testing.B) {
	noop := func(ctx context.Context) error { return nil }
	for i := 0; i < b.N; i++ {
		s := NewSaga("bench", 5*time.Second, zap.NewNop())
		s.AddStep("步骤1", noop, nil)
		s.AddStep("步骤2", noop, nil)
		_ = s.Execute(context.Background())
	}
}
