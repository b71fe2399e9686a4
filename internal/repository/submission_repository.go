package repository

import (
	"time"

	"staff_portal_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(sub *model.Submission) error {
	return r.DB.Create(sub).Error
}

func (r *SubmissionRepository) FindByID(id string) (*model.Submission, error) {
	var sub model.Submission
	if err := r.DB.Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) FindInProgress(surveyID, userID uint) (*model.Submission, error) {
	var sub model.Submission
	err := r.DB.Where("survey_id = ? AND user_id = ? AND status = ?",
		surveyID, userID, model.SubmissionInProgress).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *SubmissionRepository) CountBySurveyAndUser(surveyID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) ListBySurveyAndUser(surveyID, userID uint) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.DB.Where("survey_id = ? AND user_id = ?", surveyID, userID).
		Order("attempt_number ASC").Find(&subs).Error
	return subs, err
}

func (r *SubmissionRepository) ListSubmittedBySurvey(surveyID uint) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.DB.Where("survey_id = ? AND status = ?", surveyID, model.SubmissionSubmitted).
		Find(&subs).Error
	return subs, err
}

// LatestSubmitted returns the user's most recent finalized attempt, or nil.
func (r *SubmissionRepository) LatestSubmitted(surveyID, userID uint) (*model.Submission, error) {
	var sub model.Submission
	err := r.DB.Where("survey_id = ? AND user_id = ? AND status = ?",
		surveyID, userID, model.SubmissionSubmitted).
		Order("attempt_number DESC").First(&sub).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Finalize flips in_progress → submitted with a conditional update so that
// two concurrent submits cannot both succeed. The returned count is the
// number of rows actually transitioned (0 or 1).
func (r *SubmissionRepository) Finalize(sub *model.Submission) (int64, error) {
	res := r.DB.Model(&model.Submission{}).
		Where("id = ? AND status = ?", sub.ID, model.SubmissionInProgress).
		Updates(map[string]interface{}{
			"status":             model.SubmissionSubmitted,
			"active_key":         nil,
			"submitted_at":       sub.SubmittedAt,
			"responses":          sub.Responses,
			"total_score":        sub.TotalScore,
			"max_score":          sub.MaxScore,
			"percentage_score":   sub.PercentageScore,
			"passed":             sub.Passed,
			"time_spent_seconds": sub.TimeSpentSeconds,
			"notes":              sub.Notes,
		})
	return res.RowsAffected, res.Error
}

// ListExpiredInProgress returns open attempts whose server-side deadline has
// passed; the sweeper finalizes them.
func (r *SubmissionRepository) ListExpiredInProgress(now time.Time) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.DB.Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?",
		model.SubmissionInProgress, now).Find(&subs).Error
	return subs, err
}
