package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"Lee_Events/internal/model"
	"Lee_Events/internal/repository/mysql"
	"Lee_Events/internal/repository/redis"

	"gorm.io/gorm"
)

// QuestionStore 提问与投票的持久化抽象
type QuestionStore interface {
	Create(q *model.Question) error
	FindByID(id uint64) (*model.Question, error)
	DeleteWithPermission(questionID, operatorID uint64) (int64, error)
	Vote(ctx context.Context, questionID, userID uint64) error
	Unvote(ctx context.Context, questionID, userID uint64) (bool, error)
	HasVoted(ctx context.Context, questionID, userID uint64) (bool, error)
	GetVoteCount(ctx context.Context, questionID uint64) (int64, error)
}

type VoteCache interface {
	GetCountCached(ctx context.Context, questionID uint64) (int64, bool, error)
	SetCount(ctx context.Context, questionID uint64, cnt int64) error
	DeleteCount(ctx context.Context, questionID uint64) error
}

type QuestionService struct {
	repo   QuestionStore
	events EventFinder
	cache  VoteCache
}

func NewQuestionService() *QuestionService {
	return &QuestionService{
		repo:   &mysql.QuestionRepository{DB: mysql.DB},
		events: &mysql.EventRepository{DB: mysql.DB},
		cache:  &redis.VoteCacheRepository{},
	}
}

// Ask 对某个事件提问
func (s *QuestionService) Ask(eventID, userID uint64, text string) (*model.Question, error) {
	text = strings.TrimSpace(text)
	// 字符数按 rune 算，多字节文本不吃亏
	if n := utf8.RuneCountInString(text); n < 5 || n > 500 {
		return nil, errors.New("question must be between 5 and 500 characters")
	}

	if _, err := s.events.FindByID(eventID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	q := &model.Question{
		EventID:  eventID,
		AuthorID: userID,
		Question: text,
	}
	if err := s.repo.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

// Delete 提问作者或事件创建者方可删除
func (s *QuestionService) Delete(questionID, operatorID uint64) error {
	affected, err := s.repo.DeleteWithPermission(questionID, operatorID)
	if err != nil {
		return err
	}
	if affected == 0 {
		// 区分不存在与无权限
		if _, err := s.repo.FindByID(questionID); err != nil {
			return model.ErrNotFound
		}
		return model.ErrForbidden
	}
	if s.cache != nil {
		_ = s.cache.DeleteCount(context.Background(), questionID)
	}
	return nil
}

// Vote 一人一票，重复投票报 ErrAlreadyVoted
func (s *QuestionService) Vote(ctx context.Context, questionID, userID uint64) error {
	if questionID == 0 || userID == 0 {
		return errors.New("invalid id")
	}
	if err := s.repo.Vote(ctx, questionID, userID); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.DeleteCount(ctx, questionID)
	}
	return nil
}

// Unvote 撤票幂等：没投过也视为成功
func (s *QuestionService) Unvote(ctx context.Context, questionID, userID uint64) (bool, error) {
	if questionID == 0 || userID == 0 {
		return false, errors.New("invalid id")
	}
	changed, err := s.repo.Unvote(ctx, questionID, userID)
	if err != nil {
		return false, err
	}
	if changed && s.cache != nil {
		_ = s.cache.DeleteCount(ctx, questionID)
	}
	return changed, nil
}

// HasVoted 某用户是否已给该提问投过票
func (s *QuestionService) HasVoted(ctx context.Context, questionID, userID uint64) (bool, error) {
	return s.repo.HasVoted(ctx, questionID, userID)
}

// VoteCount 计数缓存旁路，miss 回源并回填
func (s *QuestionService) VoteCount(ctx context.Context, questionID uint64) (int64, error) {
	if s.cache != nil {
		if v, ok, err := s.cache.GetCountCached(ctx, questionID); err == nil && ok {
			return v, nil
		}
	}
	v, err := s.repo.GetVoteCount(ctx, questionID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		_ = s.cache.SetCount(ctx, questionID, v)
	}
	return v, nil
}
