package model

import "time"

// Certificate records an issued completion artifact for a passed test.
// swagger:model Certificate
type Certificate struct {
	BaseModel

	SurveyID     uint      `gorm:"index;type:bigint unsigned" json:"surveyId"`
	UserID       uint      `gorm:"index;type:bigint unsigned" json:"userId"`
	SubmissionID string    `gorm:"size:36;index" json:"submissionId"`
	FileKey      string    `gorm:"size:255" json:"fileKey"`
	IssuedAt     time.Time `json:"issuedAt"`
}

func (Certificate) TableName() string {
	return "certificates"
}
