package mysql

import (
	"context"
	"errors"

	"Lee_Events/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id uint64) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

// DeleteWithPermission 一步删除：提问作者或事件创建者方可删除
// 返回受影响行数，0 表示不存在或无权限，由 service 再区分
func (r *QuestionRepository) DeleteWithPermission(questionID, operatorID uint64) (int64, error) {
	tx := r.DB.Exec(`
		DELETE q FROM questions q
		JOIN events e ON e.id = q.event_id
		WHERE q.id = ?
		  AND (q.author_id = ? OR e.creator_id = ?)`,
		questionID, operatorID, operatorID,
	)
	return tx.RowsAffected, tx.Error
}

// Vote 一人一票。锁内恰好一次插入并维护冗余计数，和报名共用同一套写法
func (r *QuestionRepository) Vote(ctx context.Context, questionID, userID uint64) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q model.Question
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return err
		}
		inserted, err := insertIfAbsent(tx, []string{"question_id", "user_id"},
			&model.QuestionVote{QuestionID: questionID, UserID: userID})
		if err != nil {
			return err
		}
		if !inserted {
			return model.ErrAlreadyVoted
		}
		return tx.Model(&model.Question{}).
			Where("id = ?", questionID).
			UpdateColumn("votes", gorm.Expr("votes + 1")).Error
	})
}

// Unvote 撤票幂等：没投过视为成功，返回 changed=false
func (r *QuestionRepository) Unvote(ctx context.Context, questionID, userID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q model.Question
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&q, questionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrNotFound
			}
			return err
		}
		res := tx.Where("question_id = ? AND user_id = ?", questionID, userID).
			Delete(&model.QuestionVote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		// 计数防负，由对账兜底
		return tx.Model(&model.Question{}).
			Where("id = ?", questionID).
			UpdateColumn("votes", gorm.Expr("CASE WHEN votes > 0 THEN votes - 1 ELSE 0 END")).Error
	})
	return changed, err
}

func (r *QuestionRepository) HasVoted(ctx context.Context, questionID, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.QuestionVote{}).
		Where("question_id = ? AND user_id = ?", questionID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *QuestionRepository) GetVoteCount(ctx context.Context, questionID uint64) (int64, error) {
	var q model.Question
	err := r.DB.WithContext(ctx).Select("id", "votes").First(&q, questionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, model.ErrNotFound
		}
		return 0, err
	}
	return q.Votes, nil
}
