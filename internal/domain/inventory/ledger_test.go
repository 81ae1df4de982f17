package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProducts 内存商品仓储，读写都复制，模拟数据库行
type fakeProducts struct {
	items   map[uint]*Product
	saveErr error
}

func newFakeProducts(ps ...*Product) *fakeProducts {
	f := &fakeProducts{items: make(map[uint]*Product)}
	for _, p := range ps {
		f.items[p.ID] = clone(p)
	}
	return f
}

func clone(p *Product) *Product {
	cp := *p
	cp.Variants = append([]Variant(nil), p.Variants...)
	return &cp
}

func (f *fakeProducts) FindByID(_ context.Context, id uint) (*Product, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return clone(p), nil
}

func (f *fakeProducts) LockByID(ctx context.Context, id uint) (*Product, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeProducts) SaveStock(_ context.Context, p *Product) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.items[p.ID] = clone(p)
	return nil
}

func (f *fakeProducts) DecrementStock(_ context.Context, productID, variantID uint, qty int) (int, int, error) {
	p, ok := f.items[productID]
	if !ok {
		return 0, 0, ErrProductNotFound
	}
	if variantID == 0 {
		if p.InStock < qty {
			return 0, 0, ErrInsufficientStock
		}
		prev := p.InStock
		p.InStock -= qty
		p.SoldCount += qty
		return prev, p.InStock, nil
	}
	v := p.Variant(variantID)
	if v == nil {
		return 0, 0, ErrVariantNotFound
	}
	if v.Stock < qty {
		return 0, 0, ErrInsufficientStock
	}
	prev := v.Stock
	v.Stock -= qty
	p.SoldCount += qty
	p.RecomputeInStock()
	return prev, v.Stock, nil
}

func (f *fakeProducts) List(context.Context, ListParams) ([]*Product, int64, error) {
	return nil, 0, nil
}

func (f *fakeProducts) CountStockLevels(context.Context) (int64, int64, error) {
	return 0, 0, nil
}

type fakeLogs struct {
	logs []*Log
}

func (f *fakeLogs) Append(_ context.Context, log *Log) error {
	log.ID = uint(len(f.logs) + 1)
	f.logs = append(f.logs, log)
	return nil
}

func (f *fakeLogs) ListByProduct(context.Context, uint, int) ([]*Log, error) {
	return f.logs, nil
}

func (f *fakeLogs) List(context.Context, LogListParams) ([]*Log, int64, error) {
	return f.logs, int64(len(f.logs)), nil
}

func seedProducts() *fakeProducts {
	return newFakeProducts(
		&Product{ID: 10, Name: "Sen đá", InStock: 5, SoldCount: 2},
		&Product{ID: 20, Name: "Chậu gốm", InStock: 7, SoldCount: 0, Variants: []Variant{
			{ID: 201, ProductID: 20, Name: "S", Stock: 3},
			{ID: 202, ProductID: 20, Name: "L", Stock: 4},
		}},
	)
}

func TestLedger_Adjust(t *testing.T) {
	ctx := context.Background()

	t.Run("扣减商品库存并增加销量", func(t *testing.T) {
		products := seedProducts()
		l := NewLedger(products, &fakeLogs{}, nil)

		r, err := l.Adjust(ctx, Line{ProductID: 10, Quantity: 3}, Decrease)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, r.Outcome)
		assert.Equal(t, 5, r.PreviousStock)
		assert.Equal(t, 2, r.NewStock)
		assert.Equal(t, 5, products.items[10].SoldCount)
	})

	t.Run("库存钳制在0", func(t *testing.T) {
		products := seedProducts()
		l := NewLedger(products, &fakeLogs{}, nil)

		r, err := l.Adjust(ctx, Line{ProductID: 10, Quantity: 9}, Decrease)
		require.NoError(t, err)
		assert.Equal(t, 0, r.NewStock)
		assert.Equal(t, 0, products.items[10].InStock)
	})

	t.Run("回补规格库存并重算总库存", func(t *testing.T) {
		products := seedProducts()
		l := NewLedger(products, &fakeLogs{}, nil)

		r, err := l.Adjust(ctx, Line{ProductID: 20, VariantID: 201, Quantity: 2}, Increase)
		require.NoError(t, err)
		assert.Equal(t, 5, r.NewStock)
		assert.Equal(t, 9, products.items[20].InStock)
		assert.Equal(t, 0, products.items[20].SoldCount, "销量钳制在0")
	})

	t.Run("规格不存在时重算总库存并记销量", func(t *testing.T) {
		products := seedProducts()
		products.items[20].InStock = 100
		l := NewLedger(products, &fakeLogs{}, nil)

		r, err := l.Adjust(ctx, Line{ProductID: 20, VariantID: 999, Quantity: 1}, Decrease)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, r.Outcome)
		assert.Equal(t, ReasonVariantNotFound, r.Reason)
		assert.Equal(t, 100, r.PreviousStock)
		assert.Equal(t, 7, r.NewStock)
		assert.Equal(t, 7, products.items[20].InStock)
		assert.Equal(t, 3, products.items[20].Variants[0].Stock)
		assert.Equal(t, 4, products.items[20].Variants[1].Stock)
		assert.Equal(t, 1, products.items[20].SoldCount)

		_, err = l.Adjust(ctx, Line{ProductID: 20, VariantID: 999, Quantity: 1}, Increase)
		require.NoError(t, err)
		assert.Equal(t, 0, products.items[20].SoldCount)
	})

	t.Run("无规格商品忽略明细上的规格ID", func(t *testing.T) {
		products := seedProducts()
		l := NewLedger(products, &fakeLogs{}, nil)

		r, err := l.Adjust(ctx, Line{ProductID: 10, VariantID: 999, Quantity: 3}, Decrease)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, r.Outcome)
		assert.Equal(t, 5, r.PreviousStock)
		assert.Equal(t, 2, r.NewStock)
		assert.Equal(t, 2, products.items[10].InStock)
		assert.Equal(t, 5, products.items[10].SoldCount)

		r, err = l.Adjust(ctx, Line{ProductID: 10, VariantID: 999, Quantity: 3}, Increase)
		require.NoError(t, err)
		assert.Equal(t, OutcomeApplied, r.Outcome)
		assert.Equal(t, 5, products.items[10].InStock)
		assert.Equal(t, 2, products.items[10].SoldCount)
	})

	t.Run("商品不存在跳过", func(t *testing.T) {
		l := NewLedger(seedProducts(), &fakeLogs{}, nil)
		r, err := l.Adjust(ctx, Line{ProductID: 99, Quantity: 1}, Decrease)
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, r.Outcome)
		assert.Equal(t, ReasonProductNotFound, r.Reason)
	})
}

func TestLedger_DeductRestoreOrder(t *testing.T) {
	ctx := context.Background()
	products := seedProducts()
	l := NewLedger(products, &fakeLogs{}, nil)

	lines := []Line{
		{ProductID: 10, Quantity: 2},
		{ProductID: 0, Quantity: 1},
		{ProductID: 20, VariantID: 202, Quantity: 0},
		{ProductID: 20, VariantID: 202, Quantity: 1},
	}

	results := l.DeductOrder(ctx, lines)
	require.Len(t, results, 4)
	assert.Equal(t, OutcomeApplied, results[0].Outcome)
	assert.Equal(t, ReasonMissingProduct, results[1].Reason)
	assert.Equal(t, ReasonInvalidQuantity, results[2].Reason)
	assert.Equal(t, OutcomeApplied, results[3].Outcome)
	assert.Equal(t, 3, results[3].Index)

	assert.Equal(t, 3, products.items[10].InStock)
	assert.Equal(t, 6, products.items[20].InStock)

	// 回补后恢复原值
	l.RestoreOrder(ctx, lines)
	assert.Equal(t, 5, products.items[10].InStock)
	assert.Equal(t, 2, products.items[10].SoldCount)
	assert.Equal(t, 7, products.items[20].InStock)

	t.Run("存储错误记为failed且继续处理", func(t *testing.T) {
		products := seedProducts()
		products.saveErr = errors.New("db down")
		l := NewLedger(products, &fakeLogs{}, nil)

		results := l.DeductOrder(ctx, []Line{{ProductID: 10, Quantity: 1}, {ProductID: 99, Quantity: 1}})
		assert.Equal(t, OutcomeFailed, results[0].Outcome)
		assert.Equal(t, OutcomeSkipped, results[1].Outcome)
	})
}

func TestLedger_DecrementForSale(t *testing.T) {
	ctx := context.Background()

	t.Run("库存充足写sale流水", func(t *testing.T) {
		products := seedProducts()
		logs := &fakeLogs{}
		l := NewLedger(products, logs, nil)

		r, err := l.DecrementForSale(ctx, Line{ProductID: 20, VariantID: 201, Quantity: 2}, 5, "ORD1")
		require.NoError(t, err)
		assert.Equal(t, 3, r.PreviousStock)
		assert.Equal(t, 1, r.NewStock)

		require.Len(t, logs.logs, 1)
		log := logs.logs[0]
		assert.Equal(t, LogSale, log.Type)
		assert.Equal(t, "Bán hàng", log.Reason)
		assert.Equal(t, "Đơn hàng: ORD1", log.Note)
		require.NotNil(t, log.OrderID)
		assert.EqualValues(t, 5, *log.OrderID)
	})

	t.Run("库存不足不扣减", func(t *testing.T) {
		products := seedProducts()
		logs := &fakeLogs{}
		l := NewLedger(products, logs, nil)

		_, err := l.DecrementForSale(ctx, Line{ProductID: 10, Quantity: 6}, 5, "ORD1")
		assert.ErrorIs(t, err, ErrInsufficientStock)
		assert.Equal(t, 5, products.items[10].InStock)
		assert.Empty(t, logs.logs)
	})
}

func TestLedger_Movements(t *testing.T) {
	ctx := context.Background()

	t.Run("入库使用默认原因", func(t *testing.T) {
		products := seedProducts()
		logs := &fakeLogs{}
		l := NewLedger(products, logs, nil)

		log, err := l.Import(ctx, Movement{ProductID: 10, Quantity: 4, AdminID: 1})
		require.NoError(t, err)
		assert.Equal(t, LogImport, log.Type)
		assert.Equal(t, "Nhập kho", log.Reason)
		assert.Equal(t, 5, log.PreviousStock)
		assert.Equal(t, 9, log.NewStock)
		require.NotNil(t, log.AdminID)
		assert.Equal(t, 9, products.items[10].InStock)
	})

	t.Run("出库钳制在0", func(t *testing.T) {
		products := seedProducts()
		l := NewLedger(products, &fakeLogs{}, nil)

		log, err := l.Export(ctx, Movement{ProductID: 20, VariantID: 202, Quantity: 10, Reason: "hỏng"})
		require.NoError(t, err)
		assert.Equal(t, 0, log.NewStock)
		assert.Equal(t, "hỏng", log.Reason)
		assert.Equal(t, 3, products.items[20].InStock)
	})

	t.Run("盘点记录差值", func(t *testing.T) {
		products := seedProducts()
		l := NewLedger(products, &fakeLogs{}, nil)

		log, err := l.SetStock(ctx, Movement{ProductID: 10, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, LogAdjustment, log.Type)
		assert.Equal(t, 4, log.Quantity)
		assert.Equal(t, "Điều chỉnh tồn kho", log.Reason)
	})

	t.Run("参数校验", func(t *testing.T) {
		l := NewLedger(seedProducts(), &fakeLogs{}, nil)

		_, err := l.Import(ctx, Movement{ProductID: 10, Quantity: 0})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = l.SetStock(ctx, Movement{ProductID: 10, Quantity: -1})
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = l.Export(ctx, Movement{ProductID: 20, VariantID: 999, Quantity: 1})
		assert.ErrorIs(t, err, ErrVariantNotFound)

		_, err = l.Import(ctx, Movement{ProductID: 99, Quantity: 1})
		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}
