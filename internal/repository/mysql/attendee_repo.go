package mysql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"Lee_Events/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendeeRepository struct {
	DB *gorm.DB
}

// Register 报名的唯一写路径，必须在一个事务里串行化完成。
// select for update 锁住事件行，锁内复查窗口与容量，再做恰好一次插入。
// 不允许先 COUNT 再 INSERT 的两步写法：并发抢最后一个席位会超卖
func (r *AttendeeRepository) Register(ctx context.Context, eventID, userID uint64, now int64) (*model.Attendee, error) {
	att := &model.Attendee{
		EventID:      eventID,
		UserID:       userID,
		RegisteredAt: now,
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ev model.Event
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ev, eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return err
		}
		// 创建者隐式在席，不允许再报名
		if ev.CreatorID == userID {
			return model.ErrAlreadyRegistered
		}
		if !ev.IsRegistrationOpen(now) {
			return model.ErrRegistrationClosed
		}
		// 容量判断基于锁内读到的冗余计数，含创建者的隐式席位
		if ev.IsFull() {
			return model.ErrEventFull
		}
		inserted, err := insertIfAbsent(tx, []string{"event_id", "user_id"}, att)
		if err != nil {
			return err
		}
		if !inserted {
			return model.ErrAlreadyRegistered
		}
		if err = tx.Model(&model.Event{}).
			Where("id = ?", eventID).
			UpdateColumn("attendee_count", gorm.Expr("attendee_count + 1")).Error; err != nil {
			return err
		}
		return r.insertOutbox(tx, "register", eventID, userID, now)
	})
	if err != nil {
		return nil, err
	}
	return att, nil
}

// CountForEvent ledger 真实行数，对账用
func (r *AttendeeRepository) CountForEvent(ctx context.Context, eventID uint64) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Attendee{}).
		Where("event_id = ?", eventID).
		Count(&n).Error
	return n, err
}

func (r *AttendeeRepository) ExistsFor(ctx context.Context, eventID, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Attendee{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&n).Error
	return n > 0, err
}

// ListForEvent 报名名单，带用户信息
func (r *AttendeeRepository) ListForEvent(ctx context.Context, eventID uint64) ([]model.AttendeeInfo, error) {
	var list []model.AttendeeInfo
	err := r.DB.WithContext(ctx).Model(&model.Attendee{}).
		Select("attendees.user_id", "attendees.registered_at", "users.first_name", "users.last_name", "users.email").
		Joins("JOIN users ON users.id = attendees.user_id").
		Where("attendees.event_id = ?", eventID).
		Order("attendees.registered_at ASC").
		Find(&list).Error
	return list, err
}

// RemoveAllForEvent 只用于硬删除事件的运维路径，归档不会走到这里
func (r *AttendeeRepository) RemoveAllForEvent(ctx context.Context, eventID uint64) error {
	return r.DB.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&model.Attendee{}).Error
}

// 写outbox表，与报名同事务提交
func (r *AttendeeRepository) insertOutbox(tx *gorm.DB, event string, eventID, userID uint64, now int64) error {
	payload, _ := json.Marshal(map[string]any{
		"event_time": time.Now().UTC().Format(time.RFC3339Nano),
		"event_id":   eventID,
		"user_id":    userID,
		"registered": now,
	})
	ob := &model.RegistrationOutbox{
		EventType: event,
		EventID:   eventID,
		UserID:    userID,
		Payload:   string(payload),
		Status:    0,
	}
	return tx.Create(ob).Error
}
