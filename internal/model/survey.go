package model

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	SurveyTypeSurvey     = "survey"
	SurveyTypeAssessment = "assessment"
	SurveyTypeTest       = "test"
)

const (
	AssignGlobal     = "GLOBAL"
	AssignCountry    = "COUNTRY"
	AssignDepartment = "DEPARTMENT"
	AssignRole       = "ROLE"
	AssignUsers      = "USERS"
)

// swagger:model Survey
type Survey struct {
	BaseModel

	CreatorID   uint   `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Type        string `gorm:"type:enum('survey','assessment','test');default:'survey'" json:"type"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`

	PassingScore     *int `json:"passingScore,omitempty"` // percentage threshold; nil = no pass/fail
	MaxAttempts      *int `json:"maxAttempts,omitempty"`  // nil = unlimited
	HasTimeLimit     bool `gorm:"default:false" json:"hasTimeLimit"`
	TimeLimitMinutes *int `json:"timeLimitMinutes,omitempty"`

	AssignmentType   string          `gorm:"size:20;default:'GLOBAL'" json:"assignmentType"`
	AssignmentValues json.RawMessage `gorm:"type:json" json:"assignmentValues"` // countries/departments/roles/userIds per type

	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	Questions []Question `gorm:"foreignKey:SurveyID" json:"questions,omitempty"`
}

func (Survey) TableName() string {
	return "surveys"
}

// IsScored reports whether submissions to this survey receive scores.
func (s *Survey) IsScored() bool {
	return s.Type == SurveyTypeAssessment || s.Type == SurveyTypeTest
}

// InWindow reports whether now falls inside [StartDate, EndDate]; either bound may be open.
func (s *Survey) InWindow(now time.Time) bool {
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// MatchesAssignment reports whether the survey's assignment scope covers the user.
func (s *Survey) MatchesAssignment(u *User) bool {
	switch s.AssignmentType {
	case AssignGlobal, "":
		return true
	case AssignCountry:
		return containsFold(decodeStrings(s.AssignmentValues), u.Country)
	case AssignDepartment:
		return containsFold(decodeStrings(s.AssignmentValues), u.Department)
	case AssignRole:
		return containsFold(decodeStrings(s.AssignmentValues), string(u.Role))
	case AssignUsers:
		var ids []uint
		if err := json.Unmarshal(s.AssignmentValues, &ids); err != nil {
			return false
		}
		for _, id := range ids {
			if id == u.ID {
				return true
			}
		}
		return false
	}
	return false
}

// VisibleTo combines the activity flag, availability window and assignment scope.
func (s *Survey) VisibleTo(u *User, now time.Time) bool {
	return s.IsActive && s.InWindow(now) && s.MatchesAssignment(u)
}

func decodeStrings(raw json.RawMessage) []string {
	var vals []string
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil
	}
	return vals
}

func containsFold(vals []string, target string) bool {
	for _, v := range vals {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
