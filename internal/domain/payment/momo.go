// Package payment MoMo钱包的签名约定与报文结构
//
// 创建支付和IPN回调使用两套不同的签名字段顺序，必须逐字节一致：
//
//	创建: accessKey amount extraData ipnUrl orderId orderInfo partnerCode redirectUrl requestId requestType
//	IPN:  accessKey amount extraData message orderId orderInfo orderType partnerCode payType requestId responseTime resultCode transId
//
// 签名 = hex(HMAC-SHA256(secretKey, raw))
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	RequestTypeCaptureWallet = "captureWallet"
	LangVI                   = "vi"
	ResultSuccess            = "0"
)

// Credentials 商户凭证
type Credentials struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
}

// Numeric MoMo报文中的数字字段
// 回调中这些字段可能是JSON数字也可能是字符串，统一保留原文用于签名
type Numeric string

// UnmarshalJSON 同时接受数字和字符串
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Numeric(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = Numeric(num.String())
	return nil
}

func (n Numeric) String() string { return string(n) }

// Int64 解析为整数，失败返回0
func (n Numeric) Int64() int64 {
	v, _ := strconv.ParseInt(string(n), 10, 64)
	return v
}

// CreateRequest 创建支付请求体
type CreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	AccessKey   string `json:"accessKey"`
	RequestID   string `json:"requestId"`
	Amount      string `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	ExtraData   string `json:"extraData"`
	RequestType string `json:"requestType"`
	Signature   string `json:"signature"`
	Lang        string `json:"lang"`
}

// CreateResponse 创建支付响应
type CreateResponse struct {
	PartnerCode  string  `json:"partnerCode"`
	OrderID      string  `json:"orderId"`
	RequestID    string  `json:"requestId"`
	Amount       Numeric `json:"amount"`
	ResponseTime Numeric `json:"responseTime"`
	Message      string  `json:"message"`
	ResultCode   Numeric `json:"resultCode"`
	PayURL       string  `json:"payUrl"`
	Deeplink     string  `json:"deeplink,omitempty"`
	QrCodeURL    string  `json:"qrCodeUrl,omitempty"`
}

// IPN 异步回调报文
type IPN struct {
	PartnerCode  string  `json:"partnerCode"`
	OrderID      string  `json:"orderId"`
	RequestID    string  `json:"requestId"`
	Amount       Numeric `json:"amount"`
	OrderInfo    string  `json:"orderInfo"`
	OrderType    string  `json:"orderType"`
	TransID      Numeric `json:"transId"`
	ResultCode   Numeric `json:"resultCode"`
	Message      string  `json:"message"`
	PayType      string  `json:"payType"`
	ResponseTime Numeric `json:"responseTime"`
	ExtraData    string  `json:"extraData"`
	Signature    string  `json:"signature"`
}

// Succeeded resultCode == "0"
func (i *IPN) Succeeded() bool {
	return i.ResultCode.String() == ResultSuccess
}

// Sign hex(HMAC-SHA256(secret, raw))
func Sign(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Signer 使用商户凭证签名和验签
type Signer struct {
	creds Credentials
}

func NewSigner(creds Credentials) *Signer {
	return &Signer{creds: creds}
}

// PartnerCode 商户号
func (s *Signer) PartnerCode() string { return s.creds.PartnerCode }

// RawCreateSignature 创建支付的待签名串
func (s *Signer) RawCreateSignature(r *CreateRequest) string {
	return joinPairs(
		"accessKey", s.creds.AccessKey,
		"amount", r.Amount,
		"extraData", r.ExtraData,
		"ipnUrl", r.IpnURL,
		"orderId", r.OrderID,
		"orderInfo", r.OrderInfo,
		"partnerCode", r.PartnerCode,
		"redirectUrl", r.RedirectURL,
		"requestId", r.RequestID,
		"requestType", r.RequestType,
	)
}

// SignCreate 填充AccessKey和Signature
func (s *Signer) SignCreate(r *CreateRequest) {
	r.AccessKey = s.creds.AccessKey
	r.Signature = Sign(s.creds.SecretKey, s.RawCreateSignature(r))
}

// RawIPNSignature IPN的待签名串
// 回调报文不携带accessKey，使用本方配置的accessKey
func (s *Signer) RawIPNSignature(i *IPN) string {
	return joinPairs(
		"accessKey", s.creds.AccessKey,
		"amount", i.Amount.String(),
		"extraData", i.ExtraData,
		"message", i.Message,
		"orderId", i.OrderID,
		"orderInfo", i.OrderInfo,
		"orderType", i.OrderType,
		"partnerCode", i.PartnerCode,
		"payType", i.PayType,
		"requestId", i.RequestID,
		"responseTime", i.ResponseTime.String(),
		"resultCode", i.ResultCode.String(),
		"transId", i.TransID.String(),
	)
}

// SignIPN 计算IPN签名（测试和本地模拟回调使用）
func (s *Signer) SignIPN(i *IPN) string {
	return Sign(s.creds.SecretKey, s.RawIPNSignature(i))
}

// VerifyIPN 常数时间比较签名
func (s *Signer) VerifyIPN(i *IPN) bool {
	if i.Signature == "" {
		return false
	}
	expected := s.SignIPN(i)
	return hmac.Equal([]byte(expected), []byte(i.Signature))
}

func joinPairs(kv ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv[i])
		b.WriteByte('=')
		b.WriteString(kv[i+1])
	}
	return b.String()
}

// RequestID partnerCode-orderId-unixMillis
func RequestID(partnerCode, orderID string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%d", partnerCode, orderID, now.UnixMilli())
}

// DefaultOrderInfo 默认订单描述
func DefaultOrderInfo(orderID string) string {
	return "Thanh toan don hang " + orderID
}

type extraData struct {
	OID string `json:"oid"`
}

// EncodeExtraData base64(JSON{"oid": orderID})
func EncodeExtraData(orderID string) string {
	raw, _ := json.Marshal(extraData{OID: orderID})
	return base64.StdEncoding.EncodeToString(raw)
}

// DecodeExtraData 从extraData中取出订单号
func DecodeExtraData(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	var d extraData
	if err := json.Unmarshal(raw, &d); err != nil || d.OID == "" {
		return "", false
	}
	return d.OID, true
}

// ResolveOrderNo orderId优先，其次extraData.oid
func ResolveOrderNo(orderID, extra string) string {
	if id := strings.TrimSpace(orderID); id != "" {
		return id
	}
	oid, _ := DecodeExtraData(extra)
	return oid
}

// SessionRequest 创建支付会话的业务参数
type SessionRequest struct {
	OrderNo   string
	Amount    int64
	OrderInfo string
}

// Gateway 支付网关
type Gateway interface {
	// CreatePayment 创建支付会话，返回支付跳转地址
	CreatePayment(ctx context.Context, req SessionRequest) (*CreateResponse, error)
}
