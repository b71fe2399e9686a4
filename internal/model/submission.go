package model

import (
	"encoding/json"
	"time"
)

const (
	SubmissionInProgress = "in_progress"
	SubmissionSubmitted  = "submitted"
)

// QuestionResponse is one answer inside a submission; the answer shape depends
// on the question variant (string, []string or number).
type QuestionResponse struct {
	QuestionID uint            `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

// Submission is one attempt at a survey. It is created in_progress and mutated
// exactly once, on submit; after that it is immutable.
//
// ActiveKey is "active" while in_progress and NULL once submitted, so the
// composite unique index allows at most one open attempt per (survey, user)
// while permitting any number of finalized ones.
// swagger:model Submission
type Submission struct {
	UUIDBase

	SurveyID      uint    `gorm:"index;type:bigint unsigned;uniqueIndex:idx_open_attempt,priority:1" json:"surveyId"`
	UserID        uint    `gorm:"index;type:bigint unsigned;uniqueIndex:idx_open_attempt,priority:2" json:"userId"`
	ActiveKey     *string `gorm:"size:10;uniqueIndex:idx_open_attempt,priority:3" json:"-"`
	AttemptNumber int     `gorm:"not null" json:"attemptNumber"`
	Status        string  `gorm:"type:enum('in_progress','submitted');default:'in_progress'" json:"status"`

	StartedAt   time.Time  `json:"startedAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"` // deadline authority for timed surveys
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`

	Responses json.RawMessage `gorm:"type:json" json:"responses,omitempty"`

	TotalScore       *int     `json:"totalScore,omitempty"`
	MaxScore         *int     `json:"maxScore,omitempty"`
	PercentageScore  *float64 `json:"percentageScore,omitempty"`
	Passed           *bool    `json:"passed,omitempty"`
	TimeSpentSeconds *int     `json:"timeSpentSeconds,omitempty"`
	Notes            string   `gorm:"type:text" json:"notes,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// DecodedResponses unmarshals the stored response array.
func (s *Submission) DecodedResponses() ([]QuestionResponse, error) {
	if len(s.Responses) == 0 {
		return nil, nil
	}
	var rs []QuestionResponse
	if err := json.Unmarshal(s.Responses, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}
