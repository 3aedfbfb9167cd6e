package mysql

import (
	"context"

	"Lee_Events/internal/model"

	"gorm.io/gorm"
)

type OutboxRepository struct {
	DB *gorm.DB
}

// List 查询待投递的报名事件
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.RegistrationOutbox, error) {
	var list []model.RegistrationOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = 0").
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败，记一次重试
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.RegistrationOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": 2, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.RegistrationOutbox{}).Where("id = ?", id).
		Update("status", 1).Error
}

// AttendCountReconcilerRepo 报名计数对账
type AttendCountReconcilerRepo struct {
	DB *gorm.DB
}

// EventCountPair 对账消息结构体
type EventCountPair struct {
	ID            uint64
	AttendeeCount int64
}

// ReconcileList 按主键游标批量取事件的冗余计数
func (r *AttendCountReconcilerRepo) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]EventCountPair, uint64, error) {
	var list []EventCountPair
	if err := r.DB.WithContext(ctx).Model(&model.Event{}).
		Select("id", "attendee_count").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealCount ledger 真实行数
func (r *AttendCountReconcilerRepo) RealCount(ctx context.Context, eventID uint64) (int64, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.Attendee{}).
		Where("event_id = ?", eventID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Reconcile 修正漂移的冗余计数
func (r *AttendCountReconcilerRepo) Reconcile(ctx context.Context, eventID uint64, real int64) error {
	return r.DB.WithContext(ctx).Model(&model.Event{}).Where("id = ?", eventID).
		UpdateColumn("attendee_count", real).Error
}
