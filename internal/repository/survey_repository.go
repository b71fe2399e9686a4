package repository

import (
	"staff_portal_backend/internal/model"

	"gorm.io/gorm"
)

type SurveyRepository struct {
	DB *gorm.DB
}

func NewSurveyRepository(db *gorm.DB) *SurveyRepository {
	return &SurveyRepository{DB: db}
}

func (r *SurveyRepository) Create(survey *model.Survey) error {
	return r.DB.Create(survey).Error
}

func (r *SurveyRepository) FindByID(id uint) (*model.Survey, error) {
	var survey model.Survey
	if err := r.DB.First(&survey, id).Error; err != nil {
		return nil, err
	}
	return &survey, nil
}

func (r *SurveyRepository) FindByIDWithQuestions(id uint) (*model.Survey, error) {
	var survey model.Survey
	err := r.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("questions.order ASC, questions.id ASC")
	}).First(&survey, id).Error
	if err != nil {
		return nil, err
	}
	return &survey, nil
}

// ListActive returns active surveys; assignment-scope and window filtering
// happens in the service, where the caller identity is known.
func (r *SurveyRepository) ListActive() ([]model.Survey, error) {
	var surveys []model.Survey
	err := r.DB.Where("is_active = ?", true).Order("created_at DESC").Find(&surveys).Error
	return surveys, err
}

func (r *SurveyRepository) List(page, limit int) ([]model.Survey, int64, error) {
	var surveys []model.Survey
	var total int64
	if err := r.DB.Model(&model.Survey{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.DB.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&surveys).Error
	return surveys, total, err
}

func (r *SurveyRepository) Update(survey *model.Survey) error {
	return r.DB.Save(survey).Error
}

func (r *SurveyRepository) SetActive(id uint, active bool) error {
	return r.DB.Model(&model.Survey{}).Where("id = ?", id).Update("is_active", active).Error
}
