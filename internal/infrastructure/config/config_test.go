package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("无配置文件时使用默认值", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Minute, cfg.Payment.ExpireAfter)
		assert.Equal(t, 60*time.Second, cfg.Cache.DashboardTTL)
		assert.Equal(t, "plantshop.events", cfg.MQ.Exchange)
	})

	t.Run("环境变量覆盖", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("PLANTSHOP_MOMO_PARTNER_CODE", "MOMOTEST")
		t.Setenv("PLANTSHOP_PAYMENT_EXPIRE_AFTER", "15m")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "MOMOTEST", cfg.Momo.PartnerCode)
		assert.Equal(t, 15*time.Minute, cfg.Payment.ExpireAfter)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080, Mode: "release"},
			JWT:     JWTConfig{Secret: "s3cret"},
			Momo:    MomoConfig{PartnerCode: "MOMO", AccessKey: "a", SecretKey: "s"},
			Payment: PaymentConfig{ExpireAfter: time.Minute},
			Effect:  EffectConfig{MaxAttempts: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"合法配置", func(c *Config) {}, false},
		{"端口非法", func(c *Config) { c.Server.Port = 70000 }, true},
		{"生产环境默认JWT密钥", func(c *Config) { c.JWT.Secret = defaultJWTSecret }, true},
		{"生产环境缺少MoMo密钥", func(c *Config) { c.Momo.SecretKey = "" }, true},
		{"开发环境允许缺少MoMo密钥", func(c *Config) { c.Server.Mode = "debug"; c.Momo = MomoConfig{} }, false},
		{"超时时间为0", func(c *Config) { c.Payment.ExpireAfter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db", Port: 3306, User: "u", Password: "p", DBName: "plantshop",
		Charset: "utf8mb4", ParseTime: true, Loc: "Asia/Ho_Chi_Minh",
	}
	assert.Equal(t, "u:p@tcp(db:3306)/plantshop?charset=utf8mb4&parseTime=true&loc=Asia%2FHo_Chi_Minh", d.DSN())
}
