package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xiebiao/plantshop/internal/domain/user"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/internal/testutil/memstore"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
	"github.com/xiebiao/plantshop/pkg/jwt"
)

type fakeSessions struct {
	saved     map[uint]map[string]any
	ttl       time.Duration
	blacklist map[string]time.Duration
	saveErr   error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{saved: map[uint]map[string]any{}, blacklist: map[string]time.Duration{}}
}

func (f *fakeSessions) SaveSession(_ context.Context, userID uint, data map[string]any, ttl time.Duration) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[userID] = data
	f.ttl = ttl
	return nil
}

func (f *fakeSessions) DeleteSession(_ context.Context, userID uint) error {
	delete(f.saved, userID)
	return nil
}

func (f *fakeSessions) AddToBlacklist(_ context.Context, token string, ttl time.Duration) error {
	f.blacklist[token] = ttl
	return nil
}

var testConfig = &config.Config{
	JWT: config.JWTConfig{Secret: "test-secret", AccessTokenExpire: 2 * time.Hour, RefreshTokenExpire: 7 * 24 * time.Hour},
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()
	s := memstore.New()
	svc := user.NewServiceWithCost(s.Users(), bcrypt.MinCost)
	sessions := newFakeSessions()
	manager := jwt.NewManager(testConfig.JWT.Secret, testConfig.JWT.AccessTokenExpire, testConfig.JWT.RefreshTokenExpire)

	info, err := NewRegisterUseCase(svc, logger).Execute(ctx, RegisterRequest{Email: "An@Example.com", Password: "caykieng1", Nickname: "An"})
	require.NoError(t, err)
	assert.Equal(t, "an@example.com", info.Email)
	assert.Equal(t, "customer", info.Role)

	t.Run("邮箱重复", func(t *testing.T) {
		_, err := NewRegisterUseCase(svc, logger).Execute(ctx, RegisterRequest{Email: "an@example.com", Password: "caykieng1", Nickname: "An"})
		assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
	})

	login := NewLoginUseCase(svc, manager, sessions, testConfig, logger)

	t.Run("登录成功", func(t *testing.T) {
		resp, err := login.Execute(ctx, LoginRequest{Email: "an@example.com", Password: "caykieng1", ClientIP: "10.0.0.8"})
		require.NoError(t, err)
		assert.Equal(t, info.ID, resp.User.ID)
		assert.EqualValues(t, 7200, resp.ExpiresIn)

		claims, err := manager.ParseToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "customer", claims.Role)

		require.Contains(t, sessions.saved, info.ID)
		assert.Equal(t, "10.0.0.8", sessions.saved[info.ID]["ip"])
		assert.Equal(t, 7*24*time.Hour, sessions.ttl)
	})

	t.Run("密码错误", func(t *testing.T) {
		_, err := login.Execute(ctx, LoginRequest{Email: "an@example.com", Password: "wrongpass1"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)
	})

	t.Run("会话保存失败不影响登录", func(t *testing.T) {
		failing := newFakeSessions()
		failing.saveErr = errors.New("redis down")
		_, err := NewLoginUseCase(svc, manager, failing, testConfig, logger).
			Execute(ctx, LoginRequest{Email: "an@example.com", Password: "caykieng1"})
		assert.NoError(t, err)
	})

	t.Run("登出", func(t *testing.T) {
		require.NoError(t, NewLogoutUseCase(sessions, testConfig).Execute(ctx, info.ID, "token-abc"))
		assert.NotContains(t, sessions.saved, info.ID)
		assert.Equal(t, 2*time.Hour, sessions.blacklist["token-abc"])
	})
}

func TestProfile(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	s.PutUser(&user.User{ID: 100, Email: "an@example.com", Nickname: "An", Role: user.RoleCustomer, LoyaltyPoints: 43})

	p, err := NewGetProfileUseCase(s.Users()).Execute(ctx, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 43, p.LoyaltyPoints)
	assert.EqualValues(t, 43000, p.PointsValue)

	_, err = NewGetProfileUseCase(s.Users()).Execute(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	t.Run("修改昵称", func(t *testing.T) {
		p, err := NewUpdateProfileUseCase(s.Users()).Execute(ctx, 100, "  Bình An ")
		require.NoError(t, err)
		assert.Equal(t, "Bình An", p.Nickname)

		again, err := NewGetProfileUseCase(s.Users()).Execute(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, "Bình An", again.Nickname)
	})

	t.Run("昵称过短", func(t *testing.T) {
		_, err := NewUpdateProfileUseCase(s.Users()).Execute(ctx, 100, "A")
		assert.Error(t, err)
	})
}
