package service

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/scoring"
	"staff_portal_backend/internal/util"
	"staff_portal_backend/pkg/logger"
	"staff_portal_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// deadlineGrace absorbs clock skew and request latency before a submit
// against an expired attempt is rejected.
const deadlineGrace = 30 * time.Second

// AnalyticsEnqueuer decouples the submit path from the analytics recompute;
// enqueue failures are logged by the implementation, never surfaced here.
type AnalyticsEnqueuer interface {
	EnqueueRecompute(surveyID uint)
}

// SurveyStore is the slice of the survey repository the attempt manager needs.
type SurveyStore interface {
	Create(survey *model.Survey) error
	FindByID(id uint) (*model.Survey, error)
	FindByIDWithQuestions(id uint) (*model.Survey, error)
	ListActive() ([]model.Survey, error)
	List(page, limit int) ([]model.Survey, int64, error)
	SetActive(id uint, active bool) error
}

// SubmissionStore covers the attempt lifecycle: open-attempt lookup, counting,
// creation under the unique open-attempt constraint, and the conditional
// finalize.
type SubmissionStore interface {
	Create(sub *model.Submission) error
	FindByID(id string) (*model.Submission, error)
	FindInProgress(surveyID, userID uint) (*model.Submission, error)
	CountBySurveyAndUser(surveyID, userID uint) (int64, error)
	ListBySurveyAndUser(surveyID, userID uint) ([]model.Submission, error)
	Finalize(sub *model.Submission) (int64, error)
	ListExpiredInProgress(now time.Time) ([]model.Submission, error)
}

type SurveyService struct {
	Surveys     SurveyStore
	Submissions SubmissionStore
	Analytics   AnalyticsEnqueuer
}

func NewSurveyService(surveys SurveyStore, submissions SubmissionStore, analytics AnalyticsEnqueuer) *SurveyService {
	return &SurveyService{
		Surveys:     surveys,
		Submissions: submissions,
		Analytics:   analytics,
	}
}

// CreateSurvey persists a new survey with its questions.
func (s *SurveyService) CreateSurvey(survey *model.Survey) error {
	return s.Surveys.Create(survey)
}

// AdminList pages through all surveys regardless of state or scope.
func (s *SurveyService) AdminList(page, limit int) ([]model.Survey, int64, error) {
	return s.Surveys.List(page, limit)
}

func (s *SurveyService) SetActive(surveyID uint, active bool) error {
	if _, err := s.Surveys.FindByID(surveyID); err != nil {
		return util.ErrSurveyNotFound
	}
	return s.Surveys.SetActive(surveyID, active)
}

// SurveySummary is a listing entry annotated with the caller's standing.
type SurveySummary struct {
	Survey       model.Survey `json:"survey"`
	UserStatus   string       `json:"userStatus"` // not_started | in_progress | completed
	UserScore    *float64     `json:"userScore,omitempty"`
	UserAttempts int          `json:"userAttempts"`
}

// SurveyDetail is the full view for one survey and caller.
type SurveyDetail struct {
	Survey           model.Survey       `json:"survey"`
	Submissions      []model.Submission `json:"submissions"`
	CanTakeMore      bool               `json:"canTakeMore"`
	LatestSubmission *model.Submission  `json:"latestSubmission,omitempty"`
}

type SubmitRequest struct {
	Responses        []model.QuestionResponse `json:"responses" binding:"required"`
	Notes            string                   `json:"notes"`
	TimeSpentSeconds *int                     `json:"timeSpentSeconds"`
}

// ListAvailable returns the surveys visible to the user: active, inside their
// availability window, and covered by the assignment scope.
func (s *SurveyService) ListAvailable(user *model.User) ([]SurveySummary, error) {
	surveys, err := s.Surveys.ListActive()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	summaries := make([]SurveySummary, 0, len(surveys))
	for _, survey := range surveys {
		if !survey.VisibleTo(user, now) {
			continue
		}

		subs, err := s.Submissions.ListBySurveyAndUser(survey.ID, user.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, annotate(survey, subs))
	}
	return summaries, nil
}

func annotate(survey model.Survey, subs []model.Submission) SurveySummary {
	summary := SurveySummary{
		Survey:       survey,
		UserStatus:   "not_started",
		UserAttempts: len(subs),
	}
	for i := range subs {
		switch subs[i].Status {
		case model.SubmissionInProgress:
			if summary.UserStatus == "not_started" {
				summary.UserStatus = "in_progress"
			}
		case model.SubmissionSubmitted:
			summary.UserStatus = "completed"
			summary.UserScore = subs[i].PercentageScore
		}
	}
	return summary
}

func (s *SurveyService) GetDetail(surveyID uint, user *model.User) (*SurveyDetail, error) {
	survey, err := s.Surveys.FindByIDWithQuestions(surveyID)
	if err != nil {
		return nil, util.ErrSurveyNotFound
	}

	subs, err := s.Submissions.ListBySurveyAndUser(surveyID, user.ID)
	if err != nil {
		return nil, err
	}

	detail := &SurveyDetail{
		Survey:      *survey,
		Submissions: subs,
		CanTakeMore: survey.MaxAttempts == nil || len(subs) < *survey.MaxAttempts,
	}
	for i := range subs {
		if subs[i].Status == model.SubmissionSubmitted {
			detail.LatestSubmission = &subs[i]
		}
	}
	return detail, nil
}

// Start opens a new attempt, or returns the caller's existing open attempt
// unchanged: starting is idempotent while an attempt is in progress.
func (s *SurveyService) Start(surveyID uint, user *model.User) (*model.Submission, error) {
	survey, err := s.Surveys.FindByID(surveyID)
	if err != nil {
		return nil, util.ErrSurveyNotFound
	}

	now := time.Now()
	if err := guardSurveyOpen(survey, now); err != nil {
		return nil, err
	}

	if existing, err := s.Submissions.FindInProgress(surveyID, user.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	priorCount, err := s.Submissions.CountBySurveyAndUser(surveyID, user.ID)
	if err != nil {
		return nil, err
	}
	if err := guardAttemptLimit(survey, priorCount); err != nil {
		return nil, err
	}

	sub := newSubmission(survey, user.ID, int(priorCount)+1, now)
	if err := s.Submissions.Create(sub); err != nil {
		// The unique open-attempt index absorbs concurrent starts; the loser
		// of the race resumes the winner's row.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, findErr := s.Submissions.FindInProgress(surveyID, user.ID); findErr == nil {
				return existing, nil
			}
		}
		return nil, err
	}
	return sub, nil
}

// guardSurveyOpen rejects starts against inactive surveys or outside the
// availability window.
func guardSurveyOpen(survey *model.Survey, now time.Time) error {
	if !survey.IsActive {
		return util.ErrSurveyInactive
	}
	if survey.StartDate != nil && now.Before(*survey.StartDate) {
		return util.ErrSurveyNotYetAvailable
	}
	if survey.EndDate != nil && now.After(*survey.EndDate) {
		return util.ErrSurveyNoLongerAvailable
	}
	return nil
}

func guardAttemptLimit(survey *model.Survey, priorCount int64) error {
	if survey.MaxAttempts != nil && priorCount >= int64(*survey.MaxAttempts) {
		return &util.MaxAttemptsError{Limit: *survey.MaxAttempts}
	}
	return nil
}

func newSubmission(survey *model.Survey, userID uint, attemptNumber int, now time.Time) *model.Submission {
	active := "active"
	sub := &model.Submission{
		SurveyID:      survey.ID,
		UserID:        userID,
		ActiveKey:     &active,
		AttemptNumber: attemptNumber,
		Status:        model.SubmissionInProgress,
		StartedAt:     now,
		Responses:     json.RawMessage("[]"),
	}
	if survey.HasTimeLimit && survey.TimeLimitMinutes != nil {
		expires := now.Add(time.Duration(*survey.TimeLimitMinutes) * time.Minute)
		sub.ExpiresAt = &expires
	}
	return sub
}

// Submit finalizes an attempt: validates ownership, write-once status and the
// server-side deadline, scores unless the type is survey, and persists via a
// conditional update so a concurrent duplicate submit loses.
func (s *SurveyService) Submit(surveyID uint, submissionID string, userID uint, req SubmitRequest) (*model.Submission, error) {
	sub, err := s.Submissions.FindByID(submissionID)
	if err != nil || sub.SurveyID != surveyID || sub.UserID != userID {
		return nil, util.ErrSubmissionNotFound
	}
	if sub.Status == model.SubmissionSubmitted {
		return nil, util.ErrAlreadySubmitted
	}

	now := time.Now()
	if deadlineExceeded(sub, now) {
		return nil, util.ErrTimeLimitExceeded
	}

	survey, err := s.Surveys.FindByIDWithQuestions(surveyID)
	if err != nil {
		return nil, util.ErrSurveyNotFound
	}

	if err := validateResponses(survey, req.Responses); err != nil {
		return nil, err
	}

	result, err := scoring.Score(survey.Type,
		toScoringQuestions(survey.Questions),
		toScoringResponses(req.Responses),
		survey.PassingScore)
	if err != nil {
		return nil, err
	}

	responsesJSON, err := json.Marshal(req.Responses)
	if err != nil {
		return nil, err
	}

	sub.Status = model.SubmissionSubmitted
	sub.ActiveKey = nil
	sub.SubmittedAt = &now
	sub.Responses = responsesJSON
	sub.TotalScore = result.TotalScore
	sub.MaxScore = result.MaxScore
	sub.PercentageScore = result.Percentage
	sub.Passed = result.Passed
	sub.Notes = req.Notes
	sub.TimeSpentSeconds = req.TimeSpentSeconds
	if sub.TimeSpentSeconds == nil {
		elapsed := int(now.Sub(sub.StartedAt).Seconds())
		sub.TimeSpentSeconds = &elapsed
	}

	rows, err := s.Submissions.Finalize(sub)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, util.ErrAlreadySubmitted
	}

	monitoring.SubmissionsScored.WithLabelValues(survey.Type, passedLabel(result.Passed)).Inc()
	s.Analytics.EnqueueRecompute(surveyID)

	return sub, nil
}

// SweepExpired finalizes open attempts whose deadline has passed, scoring
// whatever was collected (nothing, in the current design) without the
// required-question completeness check.
func (s *SurveyService) SweepExpired() error {
	expired, err := s.Submissions.ListExpiredInProgress(time.Now())
	if err != nil {
		return err
	}

	for i := range expired {
		sub := &expired[i]
		survey, err := s.Surveys.FindByIDWithQuestions(sub.SurveyID)
		if err != nil {
			logger.Log.Error("sweep: survey load failed",
				zap.Uint("surveyId", sub.SurveyID), zap.Error(err))
			continue
		}

		responses, _ := sub.DecodedResponses()
		result, err := scoring.Score(survey.Type,
			toScoringQuestions(survey.Questions),
			toScoringResponses(responses),
			survey.PassingScore)
		if err != nil {
			logger.Log.Error("sweep: scoring failed",
				zap.String("submissionId", sub.ID), zap.Error(err))
			continue
		}

		now := time.Now()
		elapsed := int(sub.ExpiresAt.Sub(sub.StartedAt).Seconds())
		sub.Status = model.SubmissionSubmitted
		sub.ActiveKey = nil
		sub.SubmittedAt = &now
		sub.TotalScore = result.TotalScore
		sub.MaxScore = result.MaxScore
		sub.PercentageScore = result.Percentage
		sub.Passed = result.Passed
		sub.TimeSpentSeconds = &elapsed
		sub.Notes = "auto-submitted: time limit expired"

		rows, err := s.Submissions.Finalize(sub)
		if err != nil {
			logger.Log.Error("sweep: finalize failed",
				zap.String("submissionId", sub.ID), zap.Error(err))
			continue
		}
		if rows == 0 {
			continue // the learner submitted in the meantime
		}

		monitoring.SubmissionsScored.WithLabelValues(survey.Type, passedLabel(result.Passed)).Inc()
		s.Analytics.EnqueueRecompute(sub.SurveyID)
	}
	return nil
}

// deadlineExceeded checks the persisted absolute expiry; the client-side
// countdown is advisory only.
func deadlineExceeded(sub *model.Submission, now time.Time) bool {
	return sub.ExpiresAt != nil && now.After(sub.ExpiresAt.Add(deadlineGrace))
}

// validateResponses rejects answers to unknown questions and, for scored
// types, missing answers to required questions.
func validateResponses(survey *model.Survey, responses []model.QuestionResponse) error {
	known := make(map[uint]bool, len(survey.Questions))
	answered := make(map[uint]bool, len(responses))
	for _, q := range survey.Questions {
		known[q.ID] = true
	}
	for _, r := range responses {
		if !known[r.QuestionID] {
			return util.ErrUnknownQuestion
		}
		answered[r.QuestionID] = true
	}

	if survey.IsScored() {
		for _, q := range survey.Questions {
			if q.Required && !answered[q.ID] {
				return util.ErrMissingRequiredAnswer
			}
		}
	}
	return nil
}

func toScoringQuestions(questions []model.Question) []scoring.Question {
	out := make([]scoring.Question, len(questions))
	for i, q := range questions {
		out[i] = scoring.Question{
			ID:            q.ID,
			Type:          q.Type,
			Required:      q.Required,
			Points:        q.Points,
			CorrectAnswer: q.CorrectAnswer,
		}
	}
	return out
}

func toScoringResponses(responses []model.QuestionResponse) []scoring.Response {
	out := make([]scoring.Response, len(responses))
	for i, r := range responses {
		out[i] = scoring.Response{QuestionID: r.QuestionID, Answer: r.Answer}
	}
	return out
}

func passedLabel(passed *bool) string {
	if passed == nil {
		return "n/a"
	}
	return strconv.FormatBool(*passed)
}
