package repository

import (
	"errors"

	"github.com/lshigami/Bandicoots/internal/apperr"
	"github.com/lshigami/Bandicoots/internal/model"
	"gorm.io/gorm"
)

type ModuleRepository interface {
	Save(module *model.CourseModule) error
	FindByID(id uint) (*model.CourseModule, error)
	FindByCourseID(courseID uint) ([]model.CourseModule, error)
}

type moduleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) Save(module *model.CourseModule) error {
	return r.db.Save(module).Error
}

func (r *moduleRepository) FindByID(id uint) (*model.CourseModule, error) {
	var module model.CourseModule
	if err := r.db.Preload("Quiz").First(&module, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("module", id)
		}
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepository) FindByCourseID(courseID uint) ([]model.CourseModule, error) {
	var modules []model.CourseModule
	err := r.db.Where("course_id = ?", courseID).Order("position ASC").Find(&modules).Error
	return modules, err
}
