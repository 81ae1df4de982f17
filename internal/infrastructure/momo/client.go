// Package momo MoMo钱包网关HTTP客户端
//
// 对外只暴露payment.Gateway：签名由payment.Signer完成，
// 调用经过熔断器，网关连续故障时直接返回ErrPaymentGateway。
package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/payment"
	"github.com/xiebiao/plantshop/internal/infrastructure/config"
	"github.com/xiebiao/plantshop/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
	"github.com/xiebiao/plantshop/pkg/tracing"
)

const createPath = "/v2/gateway/api/create"

// Client MoMo网关客户端
type Client struct {
	endpoint    string
	redirectURL string
	ipnURL      string
	signer      *payment.Signer
	httpClient  *http.Client
	breaker     *circuitbreaker.CircuitBreaker
	logger      *zap.Logger
	now         func() time.Time
}

var _ payment.Gateway = (*Client)(nil)

// NewSigner 由配置构造签名器（IPN验签与下单签名共用）
func NewSigner(cfg *config.Config) *payment.Signer {
	return payment.NewSigner(payment.Credentials{
		PartnerCode: cfg.Momo.PartnerCode,
		AccessKey:   cfg.Momo.AccessKey,
		SecretKey:   cfg.Momo.SecretKey,
	})
}

// NewClient 创建MoMo客户端
func NewClient(cfg *config.Config, signer *payment.Signer, logger *zap.Logger) *Client {
	return newClient(cfg.Momo, signer, &http.Client{Timeout: cfg.Momo.Timeout}, logger)
}

func newClient(cfg config.MomoConfig, signer *payment.Signer, httpClient *http.Client, logger *zap.Logger) *Client {
	breakerCfg := circuitbreaker.DefaultConfig()
	// 网关返回的业务拒绝（resultCode≠0）不算故障
	breakerCfg.IsSuccessful = func(err error) bool {
		var rejected *rejectedError
		return err == nil || errors.As(err, &rejected)
	}

	return &Client{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		redirectURL: cfg.RedirectURL,
		ipnURL:      cfg.IPNURL,
		signer:      signer,
		httpClient:  httpClient,
		breaker:     circuitbreaker.NewCircuitBreaker("momo", breakerCfg),
		logger:      logger,
		now:         time.Now,
	}
}

// rejectedError 网关正常应答但拒绝创建支付
type rejectedError struct {
	code    string
	message string
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("momo resultCode=%s: %s", e.code, e.message)
}

// CreatePayment 请求支付链接
// 任何失败（网络、非2xx、resultCode≠0、缺少payUrl、熔断）都返回ErrPaymentGateway
func (c *Client) CreatePayment(ctx context.Context, req payment.SessionRequest) (*payment.CreateResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "momo", "CreatePayment")
	defer span.End()

	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = payment.DefaultOrderInfo(req.OrderNo)
	}

	body := &payment.CreateRequest{
		PartnerCode: c.signer.PartnerCode(),
		RequestID:   payment.RequestID(c.signer.PartnerCode(), req.OrderNo, c.now()),
		Amount:      strconv.FormatInt(req.Amount, 10),
		OrderID:     req.OrderNo,
		OrderInfo:   orderInfo,
		RedirectURL: c.redirectURL,
		IpnURL:      c.ipnURL,
		ExtraData:   payment.EncodeExtraData(req.OrderNo),
		RequestType: payment.RequestTypeCaptureWallet,
		Lang:        payment.LangVI,
	}
	c.signer.SignCreate(body)

	var resp *payment.CreateResponse
	err := c.breaker.Execute(func() error {
		var err error
		resp, err = c.post(ctx, body)
		return err
	})
	if err != nil {
		tracing.RecordError(span, err)
		c.logger.Warn("MoMo创建支付失败", zap.String("order_no", req.OrderNo), zap.Error(err))
		return nil, apperrors.WithCause(payment.ErrPaymentGateway, err)
	}

	c.logger.Info("MoMo支付链接已创建", zap.String("order_no", req.OrderNo), zap.String("request_id", body.RequestID))
	return resp, nil
}

func (c *Client) post(ctx context.Context, body *payment.CreateRequest) (*payment.CreateResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+createPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("请求MoMo失败: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("读取MoMo响应失败: %w", err)
	}
	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("MoMo返回HTTP %d", httpResp.StatusCode)
	}

	var resp payment.CreateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("解析MoMo响应失败(HTTP %d): %w", httpResp.StatusCode, err)
	}
	if resp.ResultCode.String() != payment.ResultSuccess || resp.PayURL == "" {
		return nil, &rejectedError{code: resp.ResultCode.String(), message: resp.Message}
	}
	return &resp, nil
}
