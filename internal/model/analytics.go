package model

import "time"

// AnalyticsSnapshot is the per-survey aggregate, fully recomputed after each
// finalized submission rather than incrementally maintained.
// swagger:model AnalyticsSnapshot
type AnalyticsSnapshot struct {
	BaseModel

	SurveyID             uint       `gorm:"uniqueIndex;type:bigint unsigned" json:"surveyId"`
	TotalSubmissions     int64      `gorm:"default:0" json:"totalSubmissions"`
	CompletedSubmissions int64      `gorm:"default:0" json:"completedSubmissions"`
	AverageScore         *float64   `json:"averageScore,omitempty"` // nil for unscored survey types
	AverageTimeSpent     *float64   `json:"averageTimeSpent,omitempty"`
	PassRate             *float64   `json:"passRate,omitempty"`
	LastCalculatedAt     time.Time  `json:"lastCalculatedAt"`
}

func (AnalyticsSnapshot) TableName() string {
	return "analytics_snapshots"
}
