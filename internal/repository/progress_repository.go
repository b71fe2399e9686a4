package repository

import (
	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/progression"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) Find(courseID, userID uint) (*model.CourseProgress, error) {
	var p model.CourseProgress
	err := r.DB.Where("course_id = ? AND user_id = ?", courseID, userID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindOrCreate returns the learner's progress row, creating a fresh welcome
// state on first contact with the course.
func (r *ProgressRepository) FindOrCreate(courseID, userID uint) (*model.CourseProgress, error) {
	p, err := r.Find(courseID, userID)
	if err == nil {
		return p, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	fresh := &model.CourseProgress{
		CourseID: courseID,
		UserID:   userID,
		Phase:    string(progression.PhaseWelcome),
	}
	if err := r.DB.Create(fresh).Error; err != nil {
		// A concurrent first contact may have won the unique (course, user)
		// race; fall back to reading the winner's row.
		if existing, findErr := r.Find(courseID, userID); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return fresh, nil
}

func (r *ProgressRepository) Save(p *model.CourseProgress) error {
	return r.DB.Save(p).Error
}
