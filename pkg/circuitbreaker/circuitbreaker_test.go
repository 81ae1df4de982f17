package circuitbreaker

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errGateway = errors.New("gateway unavailable")

func tripAfter(n uint32, timeout time.Duration) Config {
	return Config{
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= n
		},
	}
}

func TestCircuitBreaker_Closed(t *testing.T) {
	cb := NewCircuitBreaker("momo", tripAfter(5, 30*time.Second))

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(func() error { return nil }))
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.EqualValues(t, 10, cb.Counts().TotalSuccesses)
}

func TestCircuitBreaker_Open(t *testing.T) {
	cb := NewCircuitBreaker("momo", tripAfter(3, 30*time.Second))

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errGateway }), errGateway)
	}
	assert.Equal(t, StateOpen, cb.State())

	t.Run("打开状态不调用实际函数", func(t *testing.T) {
		called := false
		err := cb.Execute(func() error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrOpenState)
		assert.False(t, called)
	})
}

func TestCircuitBreaker_HalfOpen(t *testing.T) {
	t.Run("探测成功回到CLOSED", func(t *testing.T) {
		cb := NewCircuitBreaker("momo", tripAfter(2, 20*time.Millisecond))
		_ = cb.Execute(func() error { return errGateway })
		_ = cb.Execute(func() error { return errGateway })
		require.Equal(t, StateOpen, cb.State())

		time.Sleep(40 * time.Millisecond)
		assert.Equal(t, StateHalfOpen, cb.State())

		require.NoError(t, cb.Execute(func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("探测失败重新OPEN", func(t *testing.T) {
		cb := NewCircuitBreaker("momo", tripAfter(1, 20*time.Millisecond))
		_ = cb.Execute(func() error { return errGateway })
		time.Sleep(40 * time.Millisecond)

		_ = cb.Execute(func() error { return errGateway })
		assert.Equal(t, StateOpen, cb.State())
	})
}

func TestCircuitBreaker_IsSuccessful(t *testing.T) {
	errRejected := errors.New("rejected by gateway")
	cfg := tripAfter(1, 30*time.Second)
	cfg.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, errRejected)
	}
	cb := NewCircuitBreaker("momo", cfg)

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return errRejected }), errRejected)
	}
	assert.Equal(t, StateClosed, cb.State(), "业务拒绝不计入失败")
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	cb := NewCircuitBreaker("momo", tripAfter(1, 20*time.Millisecond))
	cb.SetStateChangeCallback(func(name string, from, to State) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	_ = cb.Execute(func() error { return errGateway })
	time.Sleep(40 * time.Millisecond)
	_ = cb.Execute(func() error { return nil })

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"CLOSED->OPEN", "OPEN->HALF_OPEN", "HALF_OPEN->CLOSED"}, transitions)
}

func TestCounts_FailureRate(t *testing.T) {
	c := Counts{}
	assert.Zero(t, c.FailureRate())

	c = Counts{Requests: 4, TotalFailures: 1}
	assert.InDelta(t, 0.25, c.FailureRate(), 1e-9)
}

func BenchmarkCircuitBreaker(b *testing.B) {
	cb := NewCircuitBreaker("bench", DefaultConfig())
	for i := 0; i < b.N; i++ {
		_ = cb.Execute(func() error { return nil })
	}
}
