package dto

// CreateMomoPaymentRequest 创建MoMo支付
type CreateMomoPaymentRequest struct {
	PointsToUse int64          `json:"points_to_use" binding:"min=0" example:"3"`
	Address     AddressRequest `json:"address"`
	Note        string         `json:"note" binding:"max=500"`
}

// IPN应答resultCode
const (
	IPNAckOK               = 0
	IPNAckNotFound         = 1
	IPNAckInvalidPayload   = 20 // 报文格式错误（MoMo: Bad format request）
	IPNAckInvalidSignature = 97
	IPNAckInternal         = 99
)

// IPNAck 返回给MoMo的IPN应答
type IPNAck struct {
	ResultCode int    `json:"resultCode" example:"0"`
	Message    string `json:"message" example:"success"`
}
