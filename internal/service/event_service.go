package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"Lee_Events/internal/model"
	"Lee_Events/internal/repository/mysql"

	"gorm.io/gorm"
)

const (
	SearchLimitDefault = 20
	SearchLimitMax     = 100
)

// EventStore 事件的持久化抽象
type EventStore interface {
	Create(e *model.Event, categories []string) error
	FindByID(id uint64) (*model.Event, error)
	FindByIDWithCategories(id uint64) (*model.Event, error)
	UpdateFields(id uint64, fields map[string]any) error
	Archive(id uint64) error
	Questions(eventID uint64) ([]model.Question, error)
	Search(f mysql.SearchFilter) ([]model.Event, error)
}

type UserFinder interface {
	FindByID(id uint64) (*model.User, error)
}

type EventService struct {
	repo   EventStore
	users  UserFinder
	ledger AttendanceLedger
	now    func() int64 // 毫秒
}

func NewEventService() *EventService {
	return &EventService{
		repo:   &mysql.EventRepository{DB: mysql.DB},
		users:  &mysql.UserRepository{DB: mysql.DB},
		ledger: &mysql.AttendeeRepository{DB: mysql.DB},
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

type CreateEventInput struct {
	Name              string
	Description       string
	Location          string
	StartTime         int64
	CloseRegistration int64
	MaxAttendees      int
	Categories        []string
}

func (s *EventService) CreateEvent(creatorID uint64, in CreateEventInput) (*model.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, errors.New("event name required")
	}
	if in.MaxAttendees < 1 {
		return nil, errors.New("max_attendees must be at least 1")
	}
	if in.StartTime <= 0 || in.CloseRegistration <= 0 {
		return nil, errors.New("start and close_registration required")
	}
	// 创建时约束：报名截止必须早于开始时间
	if in.CloseRegistration >= in.StartTime {
		return nil, errors.New("close_registration must be before start")
	}

	ev := &model.Event{
		CreatorID:         creatorID,
		Name:              in.Name,
		Description:       in.Description,
		Location:          in.Location,
		StartTime:         in.StartTime,
		CloseRegistration: in.CloseRegistration,
		MaxAttendees:      in.MaxAttendees,
		Status:            model.EventStatusActive,
	}
	if err := s.repo.Create(ev, in.Categories); err != nil {
		return nil, err
	}
	return ev, nil
}

// EventDetail 详情响应：事件 + 创建者 + 出席计数 + 名单 + 提问
type EventDetail struct {
	Event           *model.Event         `json:"event"`
	Creator         *model.User          `json:"creator"`
	NumberAttending int64                `json:"number_attending"`
	Attendees       []model.AttendeeInfo `json:"attendees"`
	Questions       []model.Question     `json:"questions"`
}

func (s *EventService) GetEvent(ctx context.Context, eventID uint64) (*EventDetail, error) {
	ev, err := s.repo.FindByIDWithCategories(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("load event: %w", err)
	}

	creator, err := s.users.FindByID(ev.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("load creator: %w", err)
	}
	attendees, err := s.ledger.ListForEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("load attendees: %w", err)
	}
	questions, err := s.repo.Questions(eventID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	return &EventDetail{
		Event:           ev,
		Creator:         creator,
		NumberAttending: ev.NumberAttending(),
		Attendees:       attendees,
		Questions:       questions,
	}, nil
}

// UpdateEventInput 部分更新：nil 字段不动
type UpdateEventInput struct {
	Name              *string
	Description       *string
	Location          *string
	StartTime         *int64
	CloseRegistration *int64
	MaxAttendees      *int
}

// UpdateEvent 仅创建者可改；合并后的时间窗仍需满足创建时约束
func (s *EventService) UpdateEvent(eventID, actorID uint64, in UpdateEventInput) (*model.Event, error) {
	ev, err := s.repo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	if ev.CreatorID != actorID {
		return nil, model.ErrForbidden
	}

	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errors.New("event name required")
		}
		fields["name"] = name
		ev.Name = name
	}
	if in.Description != nil {
		fields["description"] = *in.Description
		ev.Description = *in.Description
	}
	if in.Location != nil {
		fields["location"] = *in.Location
		ev.Location = *in.Location
	}
	if in.StartTime != nil {
		fields["start_time"] = *in.StartTime
		ev.StartTime = *in.StartTime
	}
	if in.CloseRegistration != nil {
		fields["close_registration"] = *in.CloseRegistration
		ev.CloseRegistration = *in.CloseRegistration
	}
	if in.MaxAttendees != nil {
		if *in.MaxAttendees < 1 {
			return nil, errors.New("max_attendees must be at least 1")
		}
		fields["max_attendees"] = *in.MaxAttendees
		ev.MaxAttendees = *in.MaxAttendees
	}

	if ev.CloseRegistration >= ev.StartTime {
		return nil, errors.New("close_registration must be before start")
	}

	if err := s.repo.UpdateFields(eventID, fields); err != nil {
		return nil, err
	}
	return ev, nil
}

// ArchiveEvent 创建者专属的终态迁移。重复归档视为成功
func (s *EventService) ArchiveEvent(eventID, actorID uint64) error {
	ev, err := s.repo.FindByID(eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.ErrNotFound
		}
		return err
	}
	if ev.CreatorID != actorID {
		return model.ErrForbidden
	}
	return s.repo.Archive(eventID)
}

type SearchParams struct {
	Query      string
	Status     string
	Categories []string
	Limit      int
	Offset     int
}

// Search 参数收口后透传给仓储。MY_EVENTS / ATTENDING 必须登录
func (s *EventService) Search(p SearchParams, userID uint64) ([]model.Event, SearchParams, error) {
	switch p.Status {
	case model.EventFilterOpen, model.EventFilterArchive:
	case model.EventFilterMyEvents, model.EventFilterAttending:
		if userID == 0 {
			return nil, p, model.ErrUnauthorized
		}
	default:
		return nil, p, errors.New("status must be one of OPEN, ARCHIVE, MY_EVENTS, ATTENDING")
	}

	if p.Limit <= 0 {
		p.Limit = SearchLimitDefault
	}
	if p.Limit > SearchLimitMax {
		p.Limit = SearchLimitMax
	}
	if p.Offset < 0 {
		p.Offset = 0
	}

	list, err := s.repo.Search(mysql.SearchFilter{
		Query:      strings.TrimSpace(p.Query),
		Status:     p.Status,
		Categories: p.Categories,
		UserID:     userID,
		Now:        s.now(),
		Limit:      p.Limit,
		Offset:     p.Offset,
	})
	return list, p, err
}
