package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xiebiao/plantshop/internal/domain/outbox"
	apperrors "github.com/xiebiao/plantshop/pkg/errors"
)

// outboxRepository 副作用任务仓储
type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) outbox.Repository {
	return &outboxRepository{db: db}
}

// Enqueue 应在订单状态变更的同一事务中调用
func (r *outboxRepository) Enqueue(ctx context.Context, tasks ...*outbox.Task) error {
	db := dbFrom(ctx, r.db)
	for _, t := range tasks {
		if opposite := t.Kind.Opposite(); opposite != "" {
			if err := db.Model(&EffectTaskModel{}).
				Where("order_id = ? AND kind = ? AND status = ?", t.OrderID, string(opposite), string(outbox.StatusPending)).
				Updates(map[string]any{
					"status":       string(outbox.StatusSuperseded),
					"processed_at": time.Now(),
				}).Error; err != nil {
				return apperrors.Wrap(err, "抵消副作用任务失败")
			}
		}

		if t.Status == "" {
			t.Status = outbox.StatusPending
		}
		model := &EffectTaskModel{
			OrderID: t.OrderID,
			Kind:    string(t.Kind),
			Payload: string(t.Payload),
			Status:  string(t.Status),
		}
		if err := db.Create(model).Error; err != nil {
			return apperrors.Wrap(err, "写入副作用任务失败")
		}
		t.ID = model.ID
		t.CreatedAt = model.CreatedAt
	}
	return nil
}

func (r *outboxRepository) PendingByOrder(ctx context.Context, orderID uint) ([]*outbox.Task, error) {
	var models []EffectTaskModel
	err := dbFrom(ctx, r.db).
		Where("order_id = ? AND status = ?", orderID, string(outbox.StatusPending)).
		Order("id ASC").Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询副作用任务失败")
	}
	return toTasks(models), nil
}

func (r *outboxRepository) Pending(ctx context.Context, limit int) ([]*outbox.Task, error) {
	var models []EffectTaskModel
	err := dbFrom(ctx, r.db).
		Where("status = ?", string(outbox.StatusPending)).
		Order("id ASC").Limit(limit).Find(&models).Error
	if err != nil {
		return nil, apperrors.Wrap(err, "查询副作用任务失败")
	}
	return toTasks(models), nil
}

func (r *outboxRepository) Supersede(ctx context.Context, orderID uint, kinds ...outbox.Kind) error {
	if len(kinds) == 0 {
		return nil
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	err := dbFrom(ctx, r.db).Model(&EffectTaskModel{}).
		Where("order_id = ? AND kind IN ? AND status = ?", orderID, names, string(outbox.StatusPending)).
		Updates(map[string]any{
			"status":       string(outbox.StatusSuperseded),
			"processed_at": time.Now(),
		}).Error
	if err != nil {
		return apperrors.Wrap(err, "抵消副作用任务失败")
	}
	return nil
}

// LockPending SELECT ... FOR UPDATE，任务已被处理时返回nil
func (r *outboxRepository) LockPending(ctx context.Context, id uint) (*outbox.Task, error) {
	var model EffectTaskModel
	err := dbFrom(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND status = ?", id, string(outbox.StatusPending)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(err, "锁定副作用任务失败")
	}
	return toTask(&model), nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id uint, at time.Time) error {
	err := dbFrom(ctx, r.db).Model(&EffectTaskModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":       string(outbox.StatusDone),
		"processed_at": at,
		"last_error":   "",
	}).Error
	if err != nil {
		return apperrors.Wrap(err, "更新副作用任务失败")
	}
	return nil
}

// MarkAttemptFailed 先累加次数，再把达到上限的任务置为failed
func (r *outboxRepository) MarkAttemptFailed(ctx context.Context, id uint, lastErr string, maxAttempts int) error {
	db := dbFrom(ctx, r.db)
	if err := db.Model(&EffectTaskModel{}).Where("id = ?", id).Updates(map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": truncate(lastErr, 512),
	}).Error; err != nil {
		return apperrors.Wrap(err, "更新副作用任务失败")
	}

	if err := db.Model(&EffectTaskModel{}).
		Where("id = ? AND status = ? AND attempts >= ?", id, string(outbox.StatusPending), maxAttempts).
		Updates(map[string]any{
			"status":       string(outbox.StatusFailed),
			"processed_at": time.Now(),
		}).Error; err != nil {
		return apperrors.Wrap(err, "更新副作用任务失败")
	}
	return nil
}

func toTasks(models []EffectTaskModel) []*outbox.Task {
	tasks := make([]*outbox.Task, len(models))
	for i := range models {
		tasks[i] = toTask(&models[i])
	}
	return tasks
}

func toTask(m *EffectTaskModel) *outbox.Task {
	t := &outbox.Task{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Kind:        outbox.Kind(m.Kind),
		Status:      outbox.Status(m.Status),
		Attempts:    m.Attempts,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		ProcessedAt: m.ProcessedAt,
	}
	if m.Payload != "" {
		t.Payload = []byte(m.Payload)
	}
	return t
}
