package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcoupon "github.com/xiebiao/plantshop/internal/application/coupon"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/testutil/memstore"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

type couponEnv struct {
	store  *memstore.Store
	engine *gin.Engine
}

func newCouponEnv(t *testing.T) *couponEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := memstore.New()
	logger := zap.NewNop()
	repo := s.Coupons()
	h := NewCouponHandler(
		appcoupon.NewListCouponsUseCase(repo),
		appcoupon.NewCreateCouponUseCase(repo, logger),
		appcoupon.NewToggleCouponUseCase(repo, logger),
		appcoupon.NewDeleteCouponUseCase(repo, logger),
	)

	r := gin.New()
	admin := r.Group("/api/v1/admin/coupons", func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Next()
	})
	admin.GET("", h.List)
	admin.POST("", h.Create)
	admin.PUT("/:id/toggle", h.Toggle)
	admin.DELETE("/:id", h.Delete)

	s.PutCoupon(&coupon.Coupon{ID: 7, Code: "GREEN", DiscountType: coupon.DiscountFixed, DiscountValue: 50000, MaxUsage: 10, IsActive: true})
	return &couponEnv{store: s, engine: r}
}

type couponResp struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *couponEnv) do(t *testing.T, method, path, body string) couponResp {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp couponResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestCouponHandler(t *testing.T) {
	t.Run("创建后出现在列表中", func(t *testing.T) {
		e := newCouponEnv(t)

		resp := e.do(t, http.MethodPost, "/api/v1/admin/coupons", `{"code":"tet26","discount_type":"fixed","discount_value":30000,"max_usage":0}`)
		require.Equal(t, 0, resp.Code, resp.Message)
		var created appcoupon.CouponView
		require.NoError(t, json.Unmarshal(resp.Data, &created))
		assert.Equal(t, "TET26", created.Code)
		assert.Equal(t, 1, created.MaxUsage)
		assert.True(t, created.IsActive)

		resp = e.do(t, http.MethodGet, "/api/v1/admin/coupons", "")
		require.Equal(t, 0, resp.Code)
		var list appcoupon.ListCouponsResponse
		require.NoError(t, json.Unmarshal(resp.Data, &list))
		assert.EqualValues(t, 2, list.Total)
	})

	t.Run("折扣类型非法", func(t *testing.T) {
		e := newCouponEnv(t)
		resp := e.do(t, http.MethodPost, "/api/v1/admin/coupons", `{"discount_type":"gift","discount_value":10}`)
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	})

	t.Run("优惠码重复", func(t *testing.T) {
		e := newCouponEnv(t)
		resp := e.do(t, http.MethodPost, "/api/v1/admin/coupons", `{"code":"GREEN","discount_value":10}`)
		assert.Equal(t, apperrors.ErrCodeDuplicateEntry, resp.Code)
	})

	t.Run("切换启用状态", func(t *testing.T) {
		e := newCouponEnv(t)
		resp := e.do(t, http.MethodPut, "/api/v1/admin/coupons/7/toggle", "")
		require.Equal(t, 0, resp.Code)
		assert.False(t, e.store.Coupon(7).IsActive)
	})

	t.Run("删除", func(t *testing.T) {
		e := newCouponEnv(t)
		resp := e.do(t, http.MethodDelete, "/api/v1/admin/coupons/7", "")
		require.Equal(t, 0, resp.Code)
		assert.Nil(t, e.store.Coupon(7))

		resp = e.do(t, http.MethodDelete, "/api/v1/admin/coupons/7", "")
		assert.Equal(t, apperrors.ErrCodeCouponNotFound, resp.Code)
	})

	t.Run("ID非法", func(t *testing.T) {
		e := newCouponEnv(t)
		resp := e.do(t, http.MethodPut, "/api/v1/admin/coupons/abc/toggle", "")
		assert.Equal(t, apperrors.ErrCodeInvalidParams, resp.Code)
	})
}
