package mysql

import (
	"Lee_Events/internal/model"

	"gorm.io/gorm"
)

type EventRepository struct {
	DB *gorm.DB
}

// Create 创建事件，分类按名称 FirstOrCreate 后挂到关联上
func (r *EventRepository) Create(e *model.Event, categories []string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Create(e).Error; err != nil {
			return err
		}
		if len(categories) == 0 {
			return nil
		}
		cats := make([]model.Category, 0, len(categories))
		for _, name := range categories {
			var c model.Category
			if err := tx.Where("name = ?", name).FirstOrCreate(&c, model.Category{Name: name}).Error; err != nil {
				return err
			}
			cats = append(cats, c)
		}
		return tx.Model(e).Association("Categories").Replace(cats)
	})
}

func (r *EventRepository) FindByID(id uint64) (*model.Event, error) {
	var e model.Event
	err := r.DB.First(&e, id).Error
	return &e, err
}

func (r *EventRepository) FindByIDWithCategories(id uint64) (*model.Event, error) {
	var e model.Event
	err := r.DB.Preload("Categories").First(&e, id).Error
	return &e, err
}

// UpdateFields 部分更新：只写入调用方给出的字段，其余保持原值
func (r *EventRepository) UpdateFields(id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.Model(&model.Event{}).Where("id = ?", id).Updates(fields).Error
}

// Archive 归档（软删除）。重复归档不报错，保持幂等
func (r *EventRepository) Archive(id uint64) error {
	return r.DB.Model(&model.Event{}).
		Where("id = ?", id).
		Update("status", model.EventStatusArchived).Error
}

// Questions 某个事件下的全部提问，按票数倒序
func (r *EventRepository) Questions(eventID uint64) ([]model.Question, error) {
	var list []model.Question
	err := r.DB.Where("event_id = ?", eventID).
		Order("votes DESC, id ASC").
		Find(&list).Error
	return list, err
}

// SearchFilter 搜索条件，经 service 校验后传入
type SearchFilter struct {
	Query      string
	Status     string // OPEN / ARCHIVE / MY_EVENTS / ATTENDING
	Categories []string
	UserID     uint64 // MY_EVENTS / ATTENDING 时必填
	Now        int64
	Limit      int
	Offset     int
}

// Search 按条件分页查询，start_time 倒序
func (r *EventRepository) Search(f SearchFilter) ([]model.Event, error) {
	q := r.DB.Model(&model.Event{}).Preload("Categories")

	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("(name LIKE ? OR description LIKE ? OR location LIKE ?)", like, like, like)
	}

	switch f.Status {
	case model.EventFilterMyEvents:
		q = q.Where("creator_id = ?", f.UserID)
	case model.EventFilterAttending:
		q = q.Where("EXISTS (SELECT 1 FROM attendees a WHERE a.event_id = events.id AND a.user_id = ?)", f.UserID)
	case model.EventFilterOpen:
		q = q.Where("status = ? AND close_registration > ?", model.EventStatusActive, f.Now)
	case model.EventFilterArchive:
		q = q.Where("(status = ? OR close_registration < ?)", model.EventStatusArchived, f.Now)
	}

	if len(f.Categories) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM event_categories ec JOIN categories c ON c.id = ec.category_id"+
			" WHERE ec.event_id = events.id AND c.name IN ?)", f.Categories)
	}

	var list []model.Event
	err := q.Order("start_time DESC").Offset(f.Offset).Limit(f.Limit).Find(&list).Error
	return list, err
}
