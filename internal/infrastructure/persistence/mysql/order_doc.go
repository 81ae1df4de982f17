package mysql

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/xiebiao/plantshop/internal/domain/order"
)

// itemDoc 订单明细的JSON文档
type itemDoc struct {
	ProductID   uint   `json:"productId"`
	ProductName string `json:"productName"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	SubTotal    int64  `json:"subTotal"`
	VariantID   uint   `json:"variantId,omitempty"`
	VariantName string `json:"variantName,omitempty"`
}

// UnmarshalJSON 兼容历史数据中的多种字段名：
//
//	商品ID: productId | productID | id
//	规格ID: variantId | variant.variantId | variant._id
//	数量:   quantity | qty
func (d *itemDoc) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	d.ProductID = firstID(raw, "productId", "productID", "id")
	d.VariantID = firstID(raw, "variantId")
	if d.VariantID == 0 {
		if v, ok := raw["variant"]; ok {
			var variant map[string]json.RawMessage
			if json.Unmarshal(v, &variant) == nil {
				d.VariantID = firstID(variant, "variantId", "_id")
				if name, ok := variant["variantName"]; ok && d.VariantName == "" {
					_ = json.Unmarshal(name, &d.VariantName)
				}
			}
		}
	}
	d.Quantity = int(firstInt(raw, "quantity", "qty"))
	d.Price = firstInt(raw, "price")
	d.SubTotal = firstInt(raw, "subTotal")
	if d.SubTotal == 0 {
		d.SubTotal = d.Price * int64(d.Quantity)
	}
	if name, ok := raw["productName"]; ok {
		_ = json.Unmarshal(name, &d.ProductName)
	}
	if name, ok := raw["variantName"]; ok {
		_ = json.Unmarshal(name, &d.VariantName)
	}
	return nil
}

// firstID 按顺序取第一个能解析为正整数的字段（兼容数字和字符串）
func firstID(raw map[string]json.RawMessage, keys ...string) uint {
	if n := firstInt(raw, keys...); n > 0 {
		return uint(n)
	}
	return 0
}

func firstInt(raw map[string]json.RawMessage, keys ...string) int64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var num json.Number
		if err := json.Unmarshal(v, &num); err == nil {
			if n, err := num.Int64(); err == nil {
				return n
			}
			if f, err := num.Float64(); err == nil {
				return int64(f)
			}
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}

// itemList 实现driver.Valuer和sql.Scanner，以JSON保存
type itemList []itemDoc

func (l itemList) Value() (driver.Value, error) {
	if l == nil {
		l = itemList{}
	}
	b, err := json.Marshal([]itemDoc(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *itemList) Scan(src any) error {
	return scanJSON(src, (*[]itemDoc)(l))
}

type historyDoc struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
	Note      string    `json:"note,omitempty"`
}

type historyList []historyDoc

func (l historyList) Value() (driver.Value, error) {
	if l == nil {
		l = historyList{}
	}
	b, err := json.Marshal([]historyDoc(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *historyList) Scan(src any) error {
	return scanJSON(src, (*[]historyDoc)(l))
}

func scanJSON(src any, dst any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("不支持的JSON列类型: %T", src)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Join(errors.New("解析JSON列失败"), err)
	}
	return nil
}

func toItemDocs(items []order.OrderItem) itemList {
	docs := make(itemList, len(items))
	for i, it := range items {
		docs[i] = itemDoc{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Price:       it.Price,
			Quantity:    it.Quantity,
			SubTotal:    it.SubTotal,
			VariantID:   it.VariantID,
			VariantName: it.VariantName,
		}
	}
	return docs
}

func toOrderItems(docs itemList) []order.OrderItem {
	items := make([]order.OrderItem, len(docs))
	for i, d := range docs {
		items[i] = order.OrderItem{
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Price:       d.Price,
			Quantity:    d.Quantity,
			SubTotal:    d.SubTotal,
			VariantID:   d.VariantID,
			VariantName: d.VariantName,
		}
	}
	return items
}

func toHistoryDocs(entries []order.HistoryEntry) historyList {
	docs := make(historyList, len(entries))
	for i, e := range entries {
		docs[i] = historyDoc{Status: string(e.Status), UpdatedAt: e.UpdatedAt, Note: e.Note}
	}
	return docs
}

func toHistory(docs historyList) []order.HistoryEntry {
	entries := make([]order.HistoryEntry, len(docs))
	for i, d := range docs {
		entries[i] = order.HistoryEntry{Status: order.Status(d.Status), UpdatedAt: d.UpdatedAt, Note: d.Note}
	}
	return entries
}
