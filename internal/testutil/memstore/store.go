// Package memstore 内存版仓储，供用例层测试使用
//
// 所有仓储共享一个Store；TxManager在事务开始时对整个Store做快照，
// fn返回error时整体回滚，与数据库事务的可见效果一致。
// 读写都复制实体，调用方拿到的对象与存储互不影响。
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xiebiao/plantshop/internal/domain"
	"github.com/xiebiao/plantshop/internal/domain/cart"
	"github.com/xiebiao/plantshop/internal/domain/coupon"
	"github.com/xiebiao/plantshop/internal/domain/inventory"
	"github.com/xiebiao/plantshop/internal/domain/loyalty"
	"github.com/xiebiao/plantshop/internal/domain/order"
	"github.com/xiebiao/plantshop/internal/domain/outbox"
	"github.com/xiebiao/plantshop/internal/domain/user"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

type state struct {
	orders   map[uint]*order.Order
	products map[uint]*inventory.Product
	logs     []*inventory.Log
	coupons  map[uint]*coupon.Coupon
	users    map[uint]*user.User
	tasks    []*outbox.Task
	carts    map[uint]*cart.Cart
	seq      uint
}

// Store 内存存储
type Store struct {
	mu    sync.Mutex
	st    state
	fails map[string]error
	Now   func() time.Time
}

// New 创建空存储
func New() *Store {
	return &Store{
		st: state{
			orders:   make(map[uint]*order.Order),
			products: make(map[uint]*inventory.Product),
			coupons:  make(map[uint]*coupon.Coupon),
			users:    make(map[uint]*user.User),
			carts:    make(map[uint]*cart.Cart),
		},
		fails: make(map[string]error),
		Now:   time.Now,
	}
}

// 可注入失败的操作名
const (
	OpOrderCreate   = "order.create"
	OpOrderUpdate   = "order.update"
	OpAddPoints     = "loyalty.add"
	OpSubtractPts   = "loyalty.subtract"
	OpCartClear     = "cart.clear"
	OpCouponRedeem  = "coupon.increment"
	OpProductSave   = "product.save"
	OpOutboxEnqueue = "outbox.enqueue"
)

// FailOn 让指定操作返回err；err为nil时取消注入
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fails, op)
		return
	}
	s.fails[op] = err
}

func (s *Store) failLocked(op string) error {
	return s.fails[op]
}

func (s *Store) nextID() uint {
	s.st.seq++
	return s.st.seq
}

// =========================================
// 事务
// =========================================

type txManager struct{ s *Store }

// TxManager 快照式事务
func (s *Store) TxManager() domain.TxManager { return txManager{s} }

func (t txManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.mu.Lock()
	snap := t.s.st.clone()
	t.s.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.s.mu.Lock()
		snap.seq = t.s.st.seq
		t.s.st = snap
		t.s.mu.Unlock()
		return err
	}
	return nil
}

func (st state) clone() state {
	cp := state{
		orders:   make(map[uint]*order.Order, len(st.orders)),
		products: make(map[uint]*inventory.Product, len(st.products)),
		logs:     make([]*inventory.Log, len(st.logs)),
		coupons:  make(map[uint]*coupon.Coupon, len(st.coupons)),
		users:    make(map[uint]*user.User, len(st.users)),
		tasks:    make([]*outbox.Task, len(st.tasks)),
		carts:    make(map[uint]*cart.Cart, len(st.carts)),
		seq:      st.seq,
	}
	for k, v := range st.orders {
		cp.orders[k] = copyOrder(v)
	}
	for k, v := range st.products {
		cp.products[k] = copyProduct(v)
	}
	for i, v := range st.logs {
		l := *v
		cp.logs[i] = &l
	}
	for k, v := range st.coupons {
		c := *v
		cp.coupons[k] = &c
	}
	for k, v := range st.users {
		u := *v
		cp.users[k] = &u
	}
	for i, v := range st.tasks {
		cp.tasks[i] = copyTask(v)
	}
	for k, v := range st.carts {
		cp.carts[k] = copyCart(v)
	}
	return cp
}

func copyOrder(o *order.Order) *order.Order {
	cp := *o
	cp.Items = append([]order.OrderItem(nil), o.Items...)
	cp.StatusHistory = append([]order.HistoryEntry(nil), o.StatusHistory...)
	if o.CouponID != nil {
		id := *o.CouponID
		cp.CouponID = &id
	}
	if o.CanceledAt != nil {
		at := *o.CanceledAt
		cp.CanceledAt = &at
	}
	return &cp
}

func copyProduct(p *inventory.Product) *inventory.Product {
	cp := *p
	cp.Variants = append([]inventory.Variant(nil), p.Variants...)
	return &cp
}

func copyTask(t *outbox.Task) *outbox.Task {
	cp := *t
	cp.Payload = append([]byte(nil), t.Payload...)
	return &cp
}

func copyCart(c *cart.Cart) *cart.Cart {
	cp := *c
	cp.Items = append([]cart.Item(nil), c.Items...)
	if c.AppliedCoupon != nil {
		a := *c.AppliedCoupon
		cp.AppliedCoupon = &a
	}
	return &cp
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// =========================================
// 种子数据与断言辅助
// =========================================

// PutProduct 写入商品（保留传入ID）
func (s *Store) PutProduct(p *inventory.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.products[p.ID] = copyProduct(p)
}

// Product 读取商品快照
func (s *Store) Product(id uint) *inventory.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.products[id]
	if !ok {
		return nil
	}
	return copyProduct(p)
}

// PutUser 写入用户（保留传入ID）
func (s *Store) PutUser(u *user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.st.users[u.ID] = &cp
}

// Points 用户积分余额
func (s *Store) Points(userID uint) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.st.users[userID]; ok {
		return u.LoyaltyPoints
	}
	return 0
}

// PutCoupon 写入优惠券（保留传入ID）
func (s *Store) PutCoupon(c *coupon.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.st.coupons[c.ID] = &cp
}

// Coupon 读取优惠券快照
func (s *Store) Coupon(id uint) *coupon.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.st.coupons[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// PutOrder 直接写入订单（含Effects），ID为0时分配
func (s *Store) PutOrder(o *order.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == 0 {
		o.ID = s.nextID()
	}
	s.st.orders[o.ID] = copyOrder(o)
}

// Order 读取订单快照（含Effects）
func (s *Store) Order(id uint) *order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.st.orders[id]
	if !ok {
		return nil
	}
	return copyOrder(o)
}

// Tasks 所有副作用任务快照
func (s *Store) Tasks() []*outbox.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*outbox.Task, len(s.st.tasks))
	for i, t := range s.st.tasks {
		out[i] = copyTask(t)
	}
	return out
}

// Logs 所有库存流水
func (s *Store) Logs() []*inventory.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*inventory.Log, len(s.st.logs))
	for i, l := range s.st.logs {
		cp := *l
		out[i] = &cp
	}
	return out
}

// PutCart 写入购物车
func (s *Store) PutCart(c *cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.carts[c.UserID] = copyCart(c)
}

// HasCart 购物车是否存在
func (s *Store) HasCart(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.st.carts[userID]
	return ok
}

// =========================================
// 订单
// =========================================

type orderRepo struct{ s *Store }

// Orders 订单仓储
func (s *Store) Orders() order.Repository { return orderRepo{s} }

func (r orderRepo) Create(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failLocked(OpOrderCreate); err != nil {
		return err
	}
	for _, existing := range r.s.st.orders {
		if existing.OrderNo == o.OrderNo {
			return apperrors.New(apperrors.ErrCodeDuplicateEntry, "订单号重复")
		}
	}
	o.ID = r.s.nextID()
	r.s.st.orders[o.ID] = copyOrder(o)
	return nil
}

func (r orderRepo) FindByID(_ context.Context, id uint) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.st.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r orderRepo) FindByOrderNo(_ context.Context, orderNo string) (*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.st.orders {
		if o.OrderNo == orderNo {
			return copyOrder(o), nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r orderRepo) LockByID(ctx context.Context, id uint) (*order.Order, error) {
	return r.FindByID(ctx, id)
}

func (r orderRepo) LockByOrderNo(ctx context.Context, orderNo string) (*order.Order, error) {
	return r.FindByOrderNo(ctx, orderNo)
}

func (r orderRepo) Update(_ context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failLocked(OpOrderUpdate); err != nil {
		return err
	}
	return r.updateLocked(o)
}

func (r orderRepo) UpdateIfUnpaid(_ context.Context, o *order.Order) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failLocked(OpOrderUpdate); err != nil {
		return false, err
	}
	stored, ok := r.s.st.orders[o.ID]
	if !ok {
		return false, order.ErrOrderNotFound
	}
	if stored.PaymentStatus == order.PaymentPaid {
		return false, nil
	}
	return true, r.updateLocked(o)
}

// updateLocked 只写可变列，不写Effects
func (r orderRepo) updateLocked(o *order.Order) error {
	stored, ok := r.s.st.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	cp := copyOrder(o)
	stored.Status = cp.Status
	stored.PaymentStatus = cp.PaymentStatus
	stored.StatusHistory = cp.StatusHistory
	stored.MomoTransID = cp.MomoTransID
	stored.CancelReason = cp.CancelReason
	stored.CanceledAt = cp.CanceledAt
	stored.UpdatedAt = cp.UpdatedAt
	return nil
}

func (r orderRepo) SwapEffect(_ context.Context, id uint, effect order.Effect, applied bool) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.st.orders[id]
	if !ok {
		return false, nil
	}
	if stored.Effects.Has(effect) == applied {
		return false, nil
	}
	if applied {
		stored.Effects = stored.Effects.With(effect)
	} else {
		stored.Effects = stored.Effects.Without(effect)
	}
	return true, nil
}

func (r orderRepo) ListByUserID(_ context.Context, userID uint, page, pageSize int) ([]*order.Order, int64, error) {
	return r.filter(page, pageSize, func(o *order.Order) bool { return o.UserID == userID })
}

func (r orderRepo) List(_ context.Context, p order.ListParams) ([]*order.Order, int64, error) {
	return r.filter(p.Page, p.PageSize, func(o *order.Order) bool {
		if p.Status != "" && o.Status != p.Status {
			return false
		}
		if p.PaymentMethod != "" && o.PaymentMethod != p.PaymentMethod {
			return false
		}
		return p.Keyword == "" || strings.Contains(o.OrderNo, p.Keyword)
	})
}

func (r orderRepo) filter(page, pageSize int, keep func(*order.Order) bool) ([]*order.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*order.Order
	for _, o := range r.s.st.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page, pageSize), int64(len(out)), nil
}

func (r orderRepo) FindAwaitingPayment(_ context.Context, before time.Time, limit int) ([]*order.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*order.Order
	for _, o := range r.s.st.orders {
		if o.AwaitingPayment() && o.CreatedAt.Before(before) {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r orderRepo) Stats(_ context.Context, since time.Time) (*order.Stats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := &order.Stats{CountByStatus: make(map[order.Status]int64)}
	for _, o := range r.s.st.orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		stats.TotalOrders++
		stats.CountByStatus[o.Status]++
		if o.Status == order.StatusDone {
			stats.Revenue += o.TotalPrice
		}
		if o.PaymentMethod == order.PaymentMomo && o.PaymentStatus == order.PaymentPaid {
			stats.PaidOnline++
		}
	}
	return stats, nil
}

// =========================================
// 商品与库存流水
// =========================================

type productRepo struct{ s *Store }

// Products 商品仓储
func (s *Store) Products() inventory.ProductRepository { return productRepo{s} }

func (r productRepo) FindByID(_ context.Context, id uint) (*inventory.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[id]
	if !ok {
		return nil, inventory.ErrProductNotFound
	}
	return copyProduct(p), nil
}

func (r productRepo) LockByID(ctx context.Context, id uint) (*inventory.Product, error) {
	return r.FindByID(ctx, id)
}

func (r productRepo) SaveStock(_ context.Context, p *inventory.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failLocked(OpProductSave); err != nil {
		return err
	}
	stored, ok := r.s.st.products[p.ID]
	if !ok {
		return inventory.ErrProductNotFound
	}
	stored.InStock = p.InStock
	stored.SoldCount = p.SoldCount
	for _, v := range p.Variants {
		if sv := stored.Variant(v.ID); sv != nil {
			sv.Stock = v.Stock
		}
	}
	return nil
}

func (r productRepo) DecrementStock(_ context.Context, productID, variantID uint, qty int) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.products[productID]
	if !ok {
		return 0, 0, inventory.ErrProductNotFound
	}
	if variantID == 0 {
		if p.InStock < qty {
			return 0, 0, inventory.ErrInsufficientStock
		}
		prev := p.InStock
		p.InStock -= qty
		p.SoldCount += qty
		return prev, p.InStock, nil
	}
	v := p.Variant(variantID)
	if v == nil {
		return 0, 0, inventory.ErrVariantNotFound
	}
	if v.Stock < qty {
		return 0, 0, inventory.ErrInsufficientStock
	}
	prev := v.Stock
	v.Stock -= qty
	p.SoldCount += qty
	p.RecomputeInStock()
	return prev, v.Stock, nil
}

func (r productRepo) List(_ context.Context, params inventory.ListParams) ([]*inventory.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	keyword := strings.ToLower(params.Keyword)
	var out []*inventory.Product
	for _, p := range r.s.st.products {
		if params.Type != "" && p.Type != params.Type {
			continue
		}
		switch params.Stock {
		case inventory.StockLow:
			if p.InStock < 1 || p.InStock > inventory.LowStockThreshold {
				continue
			}
		case inventory.StockOut:
			if p.InStock != 0 {
				continue
			}
		}
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.Slug), keyword) &&
			!strings.Contains(strings.ToLower(p.SKU), keyword) {
			continue
		}
		out = append(out, copyProduct(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, params.Page, params.PageSize), int64(len(out)), nil
}

func (r productRepo) CountStockLevels(context.Context) (int64, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var low, out int64
	for _, p := range r.s.st.products {
		switch {
		case p.InStock == 0:
			out++
		case p.InStock <= inventory.LowStockThreshold:
			low++
		}
	}
	return low, out, nil
}

type logRepo struct{ s *Store }

// InventoryLogs 库存流水仓储
func (s *Store) InventoryLogs() inventory.LogRepository { return logRepo{s} }

func (r logRepo) Append(_ context.Context, l *inventory.Log) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.nextID()
	if l.ProductName == "" {
		if p, ok := r.s.st.products[l.ProductID]; ok {
			l.ProductName = p.Name
		}
	}
	cp := *l
	r.s.st.logs = append(r.s.st.logs, &cp)
	return nil
}

// newestFirst 按时间倒序，同一时间按ID倒序
func newestFirst(logs []*inventory.Log) {
	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].CreatedAt.After(logs[j].CreatedAt)
		}
		return logs[i].ID > logs[j].ID
	})
}

func (r logRepo) ListByProduct(_ context.Context, productID uint, limit int) ([]*inventory.Log, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*inventory.Log
	for _, l := range r.s.st.logs {
		if l.ProductID == productID {
			cp := *l
			out = append(out, &cp)
		}
	}
	newestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r logRepo) List(_ context.Context, params inventory.LogListParams) ([]*inventory.Log, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*inventory.Log
	for _, l := range r.s.st.logs {
		if params.Type == "" || l.Type == params.Type {
			cp := *l
			out = append(out, &cp)
		}
	}
	newestFirst(out)
	return paginate(out, params.Page, params.PageSize), int64(len(out)), nil
}

// =========================================
// 优惠券
// =========================================

type couponRepo struct{ s *Store }

// Coupons 优惠券仓储
func (s *Store) Coupons() coupon.Repository { return couponRepo{s} }

func (r couponRepo) FindActiveByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.st.coupons {
		if c.Code == code && c.IsActive {
			cp := *c
			return &cp, nil
		}
	}
	return nil, coupon.ErrCouponNotFound
}

func (r couponRepo) FindByID(_ context.Context, id uint) (*coupon.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.coupons[id]
	if !ok {
		return nil, coupon.ErrCouponNotFound
	}
	cp := *c
	return &cp, nil
}

func (r couponRepo) IncrementUsage(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failLocked(OpCouponRedeem); err != nil {
		return err
	}
	c, ok := r.s.st.coupons[id]
	if !ok {
		return coupon.ErrCouponNotFound
	}
	c.TimeUsed++
	return nil
}

func (r couponRepo) Create(_ context.Context, c *coupon.Coupon) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.coupons {
		if existing.Code == c.Code {
			return coupon.ErrCouponCodeDuplicate
		}
	}
	// 跳过PutCoupon预置的ID
	c.ID = r.s.nextID()
	for r.s.st.coupons[c.ID] != nil {
		c.ID = r.s.nextID()
	}
	c.CreatedAt = r.s.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.s.st.coupons[c.ID] = &cp
	return nil
}

func (r couponRepo) List(_ context.Context, page, pageSize int) ([]*coupon.Coupon, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*coupon.Coupon, 0, len(r.s.st.coupons))
	for _, c := range r.s.st.coupons {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return paginate(out, page, pageSize), int64(len(out)), nil
}

func (r couponRepo) SetActive(_ context.Context, id uint, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.st.coupons[id]
	if !ok {
		return coupon.ErrCouponNotFound
	}
	c.IsActive = active
	c.UpdatedAt = r.s.Now()
	return nil
}

func (r couponRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.coupons[id]; !ok {
		return coupon.ErrCouponNotFound
	}
	delete(r.s.st.coupons, id)
	return nil
}

// =========================================
// 用户与积分
// =========================================

type userRepo struct{ s *Store }

// Users 用户仓储
func (s *Store) Users() user.Repository { return userRepo{s} }

func (r userRepo) Create(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.st.users {
		if existing.Email == u.Email {
			return apperrors.ErrEmailDuplicate
		}
	}
	u.ID = r.s.nextID()
	cp := *u
	r.s.st.users[u.ID] = &cp
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uint) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r userRepo) Update(_ context.Context, u *user.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.st.users[u.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	stored.Nickname = u.Nickname
	stored.UpdatedAt = u.UpdatedAt
	return nil
}

type balanceStore struct{ s *Store }

// Balances 积分余额存储
func (s *Store) Balances() loyalty.BalanceStore { return balanceStore{s} }

func (b balanceStore) AddPoints(_ context.Context, userID uint, points int64) error {
	return b.update(OpAddPoints, userID, func(cur int64) int64 { return cur + points })
}

func (b balanceStore) SubtractPointsClamped(_ context.Context, userID uint, points int64) error {
	return b.update(OpSubtractPts, userID, func(cur int64) int64 {
		if cur-points < 0 {
			return 0
		}
		return cur - points
	})
}

func (b balanceStore) update(op string, userID uint, fn func(int64) int64) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if err := b.s.failLocked(op); err != nil {
		return err
	}
	u, ok := b.s.st.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	u.LoyaltyPoints = fn(u.LoyaltyPoints)
	return nil
}

func (b balanceStore) Balance(_ context.Context, userID uint) (int64, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	u, ok := b.s.st.users[userID]
	if !ok {
		return 0, apperrors.ErrUserNotFound
	}
	return u.LoyaltyPoints, nil
}

// =========================================
// 副作用任务
// =========================================

type outboxRepo struct{ s *Store }

// Outbox 副作用任务仓储
func (s *Store) Outbox() outbox.Repository { return outboxRepo{s} }

func (r outboxRepo) Enqueue(_ context.Context, tasks ...*outbox.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failLocked(OpOutboxEnqueue); err != nil {
		return err
	}
	now := r.s.Now()
	for _, t := range tasks {
		if opposite := t.Kind.Opposite(); opposite != "" {
			for _, existing := range r.s.st.tasks {
				if existing.OrderID == t.OrderID && existing.Kind == opposite && existing.Status == outbox.StatusPending {
					existing.Status = outbox.StatusSuperseded
					at := now
					existing.ProcessedAt = &at
				}
			}
		}
		if t.Status == "" {
			t.Status = outbox.StatusPending
		}
		t.ID = r.s.nextID()
		t.CreatedAt = now
		r.s.st.tasks = append(r.s.st.tasks, copyTask(t))
	}
	return nil
}

func (r outboxRepo) PendingByOrder(_ context.Context, orderID uint) ([]*outbox.Task, error) {
	return r.pending(0, func(t *outbox.Task) bool { return t.OrderID == orderID }), nil
}

func (r outboxRepo) Pending(_ context.Context, limit int) ([]*outbox.Task, error) {
	return r.pending(limit, func(*outbox.Task) bool { return true }), nil
}

func (r outboxRepo) pending(limit int, keep func(*outbox.Task) bool) []*outbox.Task {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*outbox.Task
	for _, t := range r.s.st.tasks {
		if t.Status == outbox.StatusPending && keep(t) {
			out = append(out, copyTask(t))
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

func (r outboxRepo) Supersede(_ context.Context, orderID uint, kinds ...outbox.Kind) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.Now()
	for _, t := range r.s.st.tasks {
		if t.OrderID != orderID || t.Status != outbox.StatusPending || !slices.Contains(kinds, t.Kind) {
			continue
		}
		t.Status = outbox.StatusSuperseded
		at := now
		t.ProcessedAt = &at
	}
	return nil
}

func (r outboxRepo) LockPending(_ context.Context, id uint) (*outbox.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.st.tasks {
		if t.ID == id && t.Status == outbox.StatusPending {
			return copyTask(t), nil
		}
	}
	return nil, nil
}

func (r outboxRepo) MarkDone(_ context.Context, id uint, at time.Time) error {
	return r.mutate(id, func(t *outbox.Task) {
		t.Status = outbox.StatusDone
		t.ProcessedAt = &at
		t.LastError = ""
	})
}

func (r outboxRepo) MarkAttemptFailed(_ context.Context, id uint, lastErr string, maxAttempts int) error {
	now := r.s.Now()
	return r.mutate(id, func(t *outbox.Task) {
		t.Attempts++
		t.LastError = lastErr
		if t.Status == outbox.StatusPending && t.Attempts >= maxAttempts {
			t.Status = outbox.StatusFailed
			t.ProcessedAt = &now
		}
	})
}

func (r outboxRepo) mutate(id uint, fn func(*outbox.Task)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.st.tasks {
		if t.ID == id {
			fn(t)
			return nil
		}
	}
	return fmt.Errorf("task %d not found", id)
}

// =========================================
// 购物车
// =========================================

type cartStore struct{ s *Store }

// Carts 购物车存储
func (s *Store) Carts() cart.Store { return cartStore{s} }

func (c cartStore) Get(_ context.Context, userID uint) (*cart.Cart, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	stored, ok := c.s.st.carts[userID]
	if !ok {
		return &cart.Cart{UserID: userID, Items: []cart.Item{}}, nil
	}
	return copyCart(stored), nil
}

func (c cartStore) Save(_ context.Context, ct *cart.Cart) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.st.carts[ct.UserID] = copyCart(ct)
	return nil
}

func (c cartStore) Clear(_ context.Context, userID uint) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if err := c.s.failLocked(OpCartClear); err != nil {
		return err
	}
	delete(c.s.st.carts, userID)
	return nil
}
