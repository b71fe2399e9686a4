package model

import (
	"encoding/json"
	"time"
)

// CourseProgress is the persisted learner state for one course: the state
// machine phase, position, and which slide quizzes have been cleared.
// swagger:model CourseProgress
type CourseProgress struct {
	BaseModel

	CourseID uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_course_user,priority:1" json:"courseId"`
	UserID   uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_course_user,priority:2" json:"userId"`

	Phase     string `gorm:"size:30;default:'welcome'" json:"phase"`
	LessonIdx int    `gorm:"default:0" json:"lessonIdx"`
	SlideIdx  int    `gorm:"default:0" json:"slideIdx"`

	ClearedQuizzes json.RawMessage `gorm:"type:json" json:"clearedQuizzes,omitempty"` // slide IDs whose gate is satisfied

	ExamScore   *float64   `json:"examScore,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (CourseProgress) TableName() string {
	return "course_progress"
}

func (p *CourseProgress) DecodedCleared() map[uint]bool {
	cleared := make(map[uint]bool)
	if len(p.ClearedQuizzes) == 0 {
		return cleared
	}
	var ids []uint
	if err := json.Unmarshal(p.ClearedQuizzes, &ids); err != nil {
		return cleared
	}
	for _, id := range ids {
		cleared[id] = true
	}
	return cleared
}

func (p *CourseProgress) SetCleared(cleared map[uint]bool) {
	ids := make([]uint, 0, len(cleared))
	for id, ok := range cleared {
		if ok {
			ids = append(ids, id)
		}
	}
	raw, _ := json.Marshal(ids)
	p.ClearedQuizzes = raw
}
