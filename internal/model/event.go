package model

import "time"

// 事件生命周期状态，替代旧版用 close_registration=-1 表示归档的魔法值
const (
	EventStatusActive   int8 = 0
	EventStatusArchived int8 = 1
)

// 搜索时的状态过滤值
const (
	EventFilterOpen      = "OPEN"
	EventFilterArchive   = "ARCHIVE"
	EventFilterMyEvents  = "MY_EVENTS"
	EventFilterAttending = "ATTENDING"
)

type Event struct {
	ID                uint64     `gorm:"primaryKey" json:"event_id"`
	CreatorID         uint64     `gorm:"not null;index" json:"creator_id"`
	Name              string     `gorm:"size:200;not null" json:"name"`
	Description       string     `gorm:"type:text" json:"description"`
	Location          string     `gorm:"size:200" json:"location"`
	StartTime         int64      `gorm:"not null;index:idx_start_time,sort:desc" json:"start"` // 毫秒时间戳
	CloseRegistration int64      `gorm:"not null" json:"close_registration"`                   // 毫秒时间戳
	MaxAttendees      int        `gorm:"not null" json:"max_attendees"`
	AttendeeCount     int64      `gorm:"not null;default:0" json:"-"` // 冗余计数，含义=ledger行数，不含创建者
	Status            int8       `gorm:"not null;default:0" json:"-"` // 0=active 1=archived
	Categories        []Category `gorm:"many2many:event_categories" json:"categories,omitempty"`
	CreatedAt         time.Time  `json:"-"`
	UpdatedAt         time.Time  `json:"-"`
}

type Category struct {
	ID   uint64 `gorm:"primaryKey" json:"category_id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

// IsRegistrationOpen 归档即永久关闭；否则以截止时间为准
func (e *Event) IsRegistrationOpen(now int64) bool {
	if e.Status == EventStatusArchived {
		return false
	}
	return now < e.CloseRegistration
}

// Classify 搜索视角的二分类：OPEN / ARCHIVE
// MY_EVENTS、ATTENDING 是归属过滤，不是状态
func (e *Event) Classify(now int64) string {
	if e.Status == EventStatusArchived || e.CloseRegistration < now {
		return EventFilterArchive
	}
	return EventFilterOpen
}

// NumberAttending 创建者隐式占一个席位
func (e *Event) NumberAttending() int64 {
	return e.AttendeeCount + 1
}

// IsFull 容量判断：ledger行数+创建者 >= 上限
func (e *Event) IsFull() bool {
	return e.AttendeeCount+1 >= int64(e.MaxAttendees)
}

// Attendee 一条报名事实，(event_id, user_id) 唯一
type Attendee struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	EventID      uint64    `gorm:"not null;index;uniqueIndex:uk_event_user" json:"event_id"`
	UserID       uint64    `gorm:"not null;index;uniqueIndex:uk_event_user" json:"user_id"`
	RegisteredAt int64     `gorm:"not null" json:"registered_at"` // 毫秒时间戳
	CreatedAt    time.Time `json:"-"`
}

func (Attendee) TableName() string {
	return "attendees"
}

// AttendeeInfo 报名名单一行，附带用户信息
type AttendeeInfo struct {
	UserID       uint64 `json:"user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	RegisteredAt int64  `json:"registered_at"`
}

// RegistrationOutbox 报名事件监控表
type RegistrationOutbox struct {
	ID        uint64 `gorm:"primaryKey"`
	EventType string `gorm:"size:16;not null"` // register / cancel
	EventID   uint64 `gorm:"not null"`
	UserID    uint64 `gorm:"not null"`
	Payload   string `gorm:"type:json;not null"`
	Status    int8   `gorm:"not null;default:0"` // 0=pending,1=sent,2=failed
	Retry     int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (RegistrationOutbox) TableName() string { return "registration_outbox" }
