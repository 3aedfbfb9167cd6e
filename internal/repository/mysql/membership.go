package mysql

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// insertIfAbsent 恰好一次的成员关系插入原语：
// 按给定唯一列做 OnConflict DoNothing，返回本次是否真的插入了新行。
// attendees（报名）和 question_votes（投票）共用这一套
func insertIfAbsent(tx *gorm.DB, cols []string, value any) (bool, error) {
	conflict := make([]clause.Column, 0, len(cols))
	for _, c := range cols {
		conflict = append(conflict, clause.Column{Name: c})
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   conflict,
		DoNothing: true,
	}).Create(value)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
