package model

import "time"

type Question struct {
	ID        uint64    `gorm:"primaryKey" json:"question_id"`
	EventID   uint64    `gorm:"not null;index" json:"event_id"`
	AuthorID  uint64    `gorm:"not null;index" json:"asked_by"`
	Question  string    `gorm:"size:500;not null" json:"question"`
	Votes     int64     `gorm:"not null;default:0" json:"votes"` // 冗余计数，对账兜底
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// QuestionVote 一人一票，(question_id, user_id) 唯一
type QuestionVote struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	QuestionID uint64    `gorm:"not null;index;uniqueIndex:uk_question_user"`
	UserID     uint64    `gorm:"not null;index;uniqueIndex:uk_question_user"`
	CreatedAt  time.Time
}

func (QuestionVote) TableName() string {
	return "question_votes"
}
