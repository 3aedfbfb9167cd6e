package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Lee_Events/internal/model"
	"Lee_Events/internal/repository/mysql"
	"Lee_Events/internal/repository/redis"

	"gorm.io/gorm"
)

// EventFinder 报名路径只需要读事件
type EventFinder interface {
	FindByID(id uint64) (*model.Event, error)
}

// AttendanceLedger 报名事实的存储抽象。Register 必须自己保证
// 容量复查+唯一插入在事件维度上串行化，调用方不做任何锁
type AttendanceLedger interface {
	Register(ctx context.Context, eventID, userID uint64, now int64) (*model.Attendee, error)
	CountForEvent(ctx context.Context, eventID uint64) (int64, error)
	ExistsFor(ctx context.Context, eventID, userID uint64) (bool, error)
	ListForEvent(ctx context.Context, eventID uint64) ([]model.AttendeeInfo, error)
}

// AttendCache 缓存是旁路，失败只降级不报错
type AttendCache interface {
	AddAttendee(ctx context.Context, userID, eventID uint64) error
	IsAttendingCached(ctx context.Context, userID, eventID uint64) (bool, bool, error)
	GetCountCached(ctx context.Context, eventID uint64) (int64, bool, error)
	SetCount(ctx context.Context, eventID uint64, cnt int64) error
	WarmIsAttending(ctx context.Context, userID, eventID uint64, attending bool)
	DeleteCount(ctx context.Context, eventID uint64, delay ...time.Duration) error
}

type CountLock interface {
	Acquire(ctx context.Context, eventID uint64, token string) (bool, error)
	Release(ctx context.Context, eventID uint64, token string) error
}

type RegistrationService struct {
	events EventFinder
	ledger AttendanceLedger
	cache  AttendCache
	lock   CountLock
	now    func() int64 // 毫秒
}

func NewRegistrationService() *RegistrationService {
	return &RegistrationService{
		events: &mysql.EventRepository{DB: mysql.DB},
		ledger: &mysql.AttendeeRepository{DB: mysql.DB},
		cache:  redis.NewAttendCacheRepository(),
		lock:   &redis.DistLock{RDB: redis.Client},
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// Register 报名。先做快速失败检查，容量与唯一性的最终裁决在 ledger 的
// 事务里完成，这里读到的计数只用来提前拒绝，不作为放行依据
func (s *RegistrationService) Register(ctx context.Context, eventID, userID uint64) (*model.Attendee, error) {
	if eventID == 0 || userID == 0 {
		return nil, errors.New("invalid id")
	}

	ev, err := s.events.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	now := s.now()
	if ev.CreatorID == userID {
		return nil, model.ErrAlreadyRegistered
	}
	if !ev.IsRegistrationOpen(now) {
		return nil, model.ErrRegistrationClosed
	}
	if ev.IsFull() {
		return nil, model.ErrEventFull
	}

	att, err := s.ledger.Register(ctx, eventID, userID, now)
	if err != nil {
		return nil, err
	}

	// 写库成功后旁路更新缓存：集合不强制。INCR 会在计数Key过期后从1起建，
	// 所以拿到锁就用 ledger 行数校准一次，拿不到就删Key交给读侧重建
	if s.cache != nil {
		_ = s.cache.AddAttendee(ctx, userID, eventID)
		token := fmt.Sprintf("%d-%d-%d", userID, eventID, time.Now().UnixNano())
		got, _ := s.lock.Acquire(ctx, eventID, token)
		if got {
			if n, cntErr := s.ledger.CountForEvent(ctx, eventID); cntErr == nil {
				_ = s.cache.SetCount(ctx, eventID, n)
			}
			_ = s.lock.Release(ctx, eventID, token)
		} else {
			_ = s.cache.DeleteCount(ctx, eventID)
		}
	}
	return att, nil
}

// IsAttending 先查缓存集合，miss 回源并惰性回填
func (s *RegistrationService) IsAttending(ctx context.Context, eventID, userID uint64) (bool, error) {
	if s.cache != nil {
		if b, ok, err := s.cache.IsAttendingCached(ctx, userID, eventID); err == nil && ok {
			return b, nil
		}
	}
	b, err := s.ledger.ExistsFor(ctx, eventID, userID)
	if err == nil && s.cache != nil {
		s.cache.WarmIsAttending(ctx, userID, eventID, b)
	}
	return b, err
}

// NumberAttending ledger 行数 + 创建者的隐式席位。
// 计数缓存miss时加锁回源，双检避免全体打DB
func (s *RegistrationService) NumberAttending(ctx context.Context, eventID uint64) (int64, error) {
	if s.cache == nil {
		n, err := s.ledger.CountForEvent(ctx, eventID)
		return n + 1, err
	}
	if v, ok, err := s.cache.GetCountCached(ctx, eventID); err == nil && ok {
		return v + 1, nil
	}

	token := fmt.Sprintf("cnt-%d-%d", eventID, time.Now().UnixNano())
	got, _ := s.lock.Acquire(ctx, eventID, token)
	if got {
		defer s.lock.Release(ctx, eventID, token)

		// 第二次检查
		if v, ok, err := s.cache.GetCountCached(ctx, eventID); err == nil && ok {
			return v + 1, nil
		}
		v, err := s.ledger.CountForEvent(ctx, eventID)
		if err != nil {
			return 0, err
		}
		_ = s.cache.SetCount(ctx, eventID, v)
		return v + 1, nil
	}

	// 没拿到锁，短暂退避后再读一次缓存
	time.Sleep(50 * time.Millisecond)
	if v, ok, err := s.cache.GetCountCached(ctx, eventID); err == nil && ok {
		return v + 1, nil
	}
	v, err := s.ledger.CountForEvent(ctx, eventID)
	return v + 1, err
}

// ListAttendees 报名名单
func (s *RegistrationService) ListAttendees(ctx context.Context, eventID uint64) ([]model.AttendeeInfo, error) {
	if _, err := s.events.FindByID(eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return s.ledger.ListForEvent(ctx, eventID)
}
