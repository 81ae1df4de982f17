package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

type memRepo struct {
	byEmail map[string]*User
}

func (m *memRepo) Create(_ context.Context, u *User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return apperrors.ErrEmailDuplicate
	}
	u.ID = uint(len(m.byEmail) + 1)
	m.byEmail[u.Email] = u
	return nil
}

func (m *memRepo) FindByID(_ context.Context, id uint) (*User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (m *memRepo) Update(context.Context, *User) error { return nil }

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := NewServiceWithCost(&memRepo{byEmail: map[string]*User{}}, bcrypt.MinCost)

	t.Run("注册成功默认为顾客", func(t *testing.T) {
		u, err := svc.Register(ctx, " Lan@Example.com ", "secret123", "Lan")
		require.NoError(t, err)
		assert.Equal(t, "lan@example.com", u.Email)
		assert.Equal(t, RoleCustomer, u.Role)
		assert.NotEqual(t, "secret123", u.Password)
	})

	t.Run("重复邮箱", func(t *testing.T) {
		_, err := svc.Register(ctx, "lan@example.com", "secret123", "Lan")
		assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
	})

	t.Run("弱密码", func(t *testing.T) {
		for _, pwd := range []string{"short1", "onlyletters", "12345678901"} {
			_, err := svc.Register(ctx, "x@example.com", pwd, "Xx")
			assert.ErrorIs(t, err, apperrors.ErrWeakPassword, pwd)
		}
	})

	t.Run("邮箱格式错误", func(t *testing.T) {
		_, err := svc.Register(ctx, "not-an-email", "secret123", "Xx")
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidParams))
	})

	t.Run("登录", func(t *testing.T) {
		u, err := svc.Login(ctx, "LAN@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "Lan", u.Nickname)

		_, err = svc.Login(ctx, "lan@example.com", "wrong1234")
		assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

		_, err = svc.Login(ctx, "nobody@example.com", "secret123")
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
