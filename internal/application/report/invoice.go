// Package report 订单发票PDF
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	orderapp "github.com/xiebiao/plantshop/internal/application/order"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/user"
)

const (
	shopName    = "PLANTSHOP"
	shopAddress = "12 Le Loi, Quan 1, TP. Ho Chi Minh"
	shopContact = "Email: support@plantshop.vn | Hotline: 1900 6868"
)

// 发票上的状态与支付方式用越南语（PDF内置字体只支持拉丁字符，输出前去掉声调）
var statusLabels = map[order.Status]string{
	order.StatusPending:   "Chờ xử lý",
	order.StatusPreparing: "Đang chuẩn bị",
	order.StatusShipping:  "Đang giao",
	order.StatusDone:      "Hoàn tất",
	order.StatusCanceled:  "Đã hủy",
}

var paymentLabels = map[order.PaymentMethod]string{
	order.PaymentCOD:  "Thanh toán khi nhận hàng (COD)",
	order.PaymentMomo: "Ví MoMo",
}

// Invoice 生成好的发票
type Invoice struct {
	Filename string
	Content  []byte
}

// InvoiceUseCase 订单发票
type InvoiceUseCase struct {
	orders   *orderapp.GetOrderUseCase
	userRepo user.Repository
	logger   *zap.Logger
	now      func() time.Time
}

func NewInvoiceUseCase(orders *orderapp.GetOrderUseCase, userRepo user.Repository, logger *zap.Logger) *InvoiceUseCase {
	return &InvoiceUseCase{orders: orders, userRepo: userRepo, logger: logger, now: time.Now}
}

// InvoiceRequest UserID为0表示管理员
type InvoiceRequest struct {
	OrderID uint
	UserID  uint
}

// Execute 生成发票
// 顾客只能下载自己的订单；已取消的订单同样可以下载（标注状态）
func (uc *InvoiceUseCase) Execute(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	o, err := uc.orders.Load(ctx, orderapp.GetOrderRequest{OrderID: req.OrderID, UserID: req.UserID})
	if err != nil {
		return nil, err
	}

	// 买家信息缺失不影响开票
	customer, err := uc.userRepo.FindByID(ctx, o.UserID)
	if err != nil {
		uc.logger.Warn("发票读取买家信息失败", zap.Uint("user_id", o.UserID), zap.Error(err))
	}

	var buf bytes.Buffer
	if err := uc.render(&buf, o, customer); err != nil {
		return nil, err
	}

	uc.logger.Info("发票已生成", zap.String("order_no", o.OrderNo), zap.Int("bytes", buf.Len()))
	return &Invoice{
		Filename: fmt.Sprintf("invoice_%s.pdf", o.OrderNo),
		Content:  buf.Bytes(),
	}, nil
}

func (uc *InvoiceUseCase) render(buf *bytes.Buffer, o *order.Order, customer *user.User) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreator(shopName, true)
	pdf.SetTitle("Invoice "+o.OrderNo, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(100, 10, shopName)
	pdf.SetFont("Arial", "", 11)
	pdf.Ln(8)
	pdf.Cell(100, 7, shopAddress)
	pdf.Ln(6)
	pdf.Cell(100, 7, shopContact)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(100, 10, "HOA DON")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(90, 7, "Ma don hang: "+o.OrderNo)
	pdf.Cell(90, 7, "Ngay dat: "+o.CreatedAt.Format("2006-01-02 15:04:05"))
	pdf.Ln(7)
	pdf.Cell(90, 7, "Thanh toan: "+fold(paymentLabels[o.PaymentMethod]))
	pdf.Cell(90, 7, "Trang thai: "+fold(statusLabels[o.Status]))
	pdf.Ln(7)
	if o.MomoTransID != "" {
		pdf.Cell(90, 7, "Ma giao dich MoMo: "+o.MomoTransID)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(100, 7, "Khach hang:")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 11)
	if customer != nil {
		pdf.Cell(100, 7, fold(customer.Nickname))
		pdf.Ln(6)
		pdf.Cell(100, 7, customer.Email)
		pdf.Ln(6)
	}
	pdf.Cell(100, 7, fold(o.Address.String()))
	pdf.Ln(10)

	widths := []float64{80, 20, 40, 40}
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(220, 235, 220)
	for i, h := range []string{"San pham", "SL", "Don gia", "Thanh tien"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 11)
	for _, item := range o.Items {
		name := item.ProductName
		if item.VariantName != "" {
			name += " - " + item.VariantName
		}
		pdf.CellFormat(widths[0], 8, fold(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 8, formatVND(item.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 8, formatVND(item.SubTotal), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	lines := [][2]string{
		{"Tam tinh:", formatVND(o.Subtotal)},
		{"Giam gia:", "-" + formatVND(o.Discount)},
		{"Diem thuong:", "-" + formatVND(o.PointUsed)},
		{"Thue VAT (10%):", formatVND(o.Tax)},
		{"Phi van chuyen:", formatVND(o.ShippingFee)},
	}
	for _, l := range lines {
		pdf.CellFormat(140, 7, l[0], "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, l[1], "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(140, 9, "Tong cong:", "", 0, "R", false, 0, "")
	pdf.CellFormat(40, 9, formatVND(o.TotalPrice), "", 1, "R", false, 0, "")

	if o.PointEarned > 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Ln(4)
		pdf.Cell(0, 7, fmt.Sprintf("Diem tich luy cho don hang: %d", o.PointEarned))
	}
	if o.Status == order.StatusCanceled && o.CancelReason != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.Ln(6)
		pdf.Cell(0, 7, "Ly do huy: "+fold(o.CancelReason))
	}

	pdf.SetFont("Arial", "", 9)
	pdf.Ln(12)
	pdf.Cell(0, 6, "Xuat luc "+uc.now().Format("2006-01-02 15:04:05"))

	return pdf.Output(buf)
}

// formatVND 415000 -> "415.000 VND"
func formatVND(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + " VND"
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold 去掉越南语声调，đ/Đ 单独处理；非拉丁字符（如中文）替换为?
func fold(s string) string {
	s = strings.NewReplacer("đ", "d", "Đ", "D").Replace(s)
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '?'
		}
		return r
	}, out)
}
