package repository

import (
	"staff_portal_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

// Upsert stores the snapshot, replacing any previous aggregate for the survey.
func (r *AnalyticsRepository) Upsert(snap *model.AnalyticsSnapshot) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "survey_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_submissions",
			"completed_submissions",
			"average_score",
			"average_time_spent",
			"pass_rate",
			"last_calculated_at",
			"updated_at",
		}),
	}).Create(snap).Error
}

func (r *AnalyticsRepository) FindBySurvey(surveyID uint) (*model.AnalyticsSnapshot, error) {
	var snap model.AnalyticsSnapshot
	if err := r.DB.Where("survey_id = ?", surveyID).First(&snap).Error; err != nil {
		return nil, err
	}
	return &snap, nil
}
