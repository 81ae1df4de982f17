package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"github.com/xiebiao/plantshop/internal/domain/inventory"
)

const exportBatchSize = 500

var exportHeaders = []string{"ID", "Thời gian", "Sản phẩm", "Biến thể", "Loại", "Số lượng", "Tồn trước", "Tồn sau", "Lý do", "Ghi chú", "Đơn hàng"}

var logTypeLabels = map[inventory.LogType]string{
	inventory.LogImport:     "Nhập kho",
	inventory.LogExport:     "Xuất kho",
	inventory.LogAdjustment: "Điều chỉnh",
	inventory.LogSale:       "Bán hàng",
}

// ExportLogsUseCase 导出库存流水为xlsx
type ExportLogsUseCase struct {
	logs   inventory.LogRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewExportLogsUseCase(logs inventory.LogRepository, logger *zap.Logger) *ExportLogsUseCase {
	return &ExportLogsUseCase{logs: logs, logger: logger, now: time.Now}
}

// ExportLogsResponse 导出结果
type ExportLogsResponse struct {
	File     *xlsx.File
	Filename string
	Rows     int
}

// Execute 按类型过滤导出全部流水（按时间倒序）
func (uc *ExportLogsUseCase) Execute(ctx context.Context, logType string) (*ExportLogsResponse, error) {
	typ, ok := inventory.ParseLogType(logType)
	if !ok {
		return nil, ErrInvalidLogType
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Inventory Logs")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		cell := header.AddCell()
		cell.SetString(h)
		style := xlsx.NewStyle()
		font := xlsx.DefaultFont()
		font.Bold = true
		style.Font = *font
		cell.SetStyle(style)
	}

	rows := 0
	for page := 1; ; page++ {
		logs, total, err := uc.logs.List(ctx, inventory.LogListParams{Page: page, PageSize: exportBatchSize, Type: typ})
		if err != nil {
			return nil, err
		}
		for _, l := range logs {
			writeLogRow(sheet.AddRow(), l)
		}
		rows += len(logs)
		if len(logs) == 0 || int64(rows) >= total {
			break
		}
	}

	name := "all"
	if typ != "" {
		name = string(typ)
	}
	uc.logger.Info("导出库存流水", zap.String("type", name), zap.Int("rows", rows))
	return &ExportLogsResponse{
		File:     file,
		Filename: fmt.Sprintf("inventory_logs_%s_%s.xlsx", name, uc.now().Format("20060102")),
		Rows:     rows,
	}, nil
}

func writeLogRow(row *xlsx.Row, l *inventory.Log) {
	row.AddCell().SetInt(int(l.ID))
	row.AddCell().SetString(l.CreatedAt.Format(timeLayout))
	row.AddCell().SetString(l.ProductName)
	if l.VariantID != 0 {
		row.AddCell().SetInt(int(l.VariantID))
	} else {
		row.AddCell().SetString("")
	}
	label, ok := logTypeLabels[l.Type]
	if !ok {
		label = string(l.Type)
	}
	row.AddCell().SetString(label)
	row.AddCell().SetInt(l.Quantity)
	row.AddCell().SetInt(l.PreviousStock)
	row.AddCell().SetInt(l.NewStock)
	row.AddCell().SetString(l.Reason)
	row.AddCell().SetString(l.Note)
	if l.OrderID != nil {
		row.AddCell().SetInt(int(*l.OrderID))
	} else {
		row.AddCell().SetString("")
	}
}
