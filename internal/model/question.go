package model

import "encoding/json"

const (
	QuestionMultipleChoice = "multiple_choice"
	QuestionYesNo          = "yes_no"
	QuestionCheckbox       = "checkbox"
	QuestionText           = "text"
	QuestionRating         = "rating"
)

// Question is shared by surveys, slide micro-quizzes and course final exams;
// exactly one of SurveyID / SlideID / CourseID is set.
// swagger:model Question
type Question struct {
	BaseModel

	SurveyID *uint `gorm:"index;type:bigint unsigned" json:"surveyId,omitempty"`
	SlideID  *uint `gorm:"index;type:bigint unsigned" json:"slideId,omitempty"`
	CourseID *uint `gorm:"index;type:bigint unsigned" json:"courseId,omitempty"` // final exam questions

	Type     string `gorm:"size:30;not null" json:"type"`
	Prompt   string `gorm:"type:text;not null" json:"prompt"`
	Required bool   `gorm:"default:false" json:"required"`
	Points   int    `gorm:"default:1" json:"points"`
	Order    int    `gorm:"default:0" json:"order"`

	Options       json.RawMessage `gorm:"type:json" json:"options,omitempty"`
	CorrectAnswer json.RawMessage `gorm:"type:json" json:"-"` // string, []string, or keyword list; hidden from learners
}

func (Question) TableName() string {
	return "questions"
}
