package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func question(id uint, qType string, required bool) model.Question {
	q := model.Question{Type: qType, Required: required}
	q.ID = id
	return q
}

func TestGuardSurveyOpen(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("active inside window", func(t *testing.T) {
		s := &model.Survey{IsActive: true, StartDate: &past, EndDate: &future}
		assert.NoError(t, guardSurveyOpen(s, now))
	})

	t.Run("inactive", func(t *testing.T) {
		s := &model.Survey{IsActive: false}
		assert.ErrorIs(t, guardSurveyOpen(s, now), util.ErrSurveyInactive)
	})

	t.Run("not yet open", func(t *testing.T) {
		s := &model.Survey{IsActive: true, StartDate: &future}
		assert.ErrorIs(t, guardSurveyOpen(s, now), util.ErrSurveyNotYetAvailable)
	})

	t.Run("window closed", func(t *testing.T) {
		s := &model.Survey{IsActive: true, EndDate: &past}
		assert.ErrorIs(t, guardSurveyOpen(s, now), util.ErrSurveyNoLongerAvailable)
	})

	t.Run("no window", func(t *testing.T) {
		s := &model.Survey{IsActive: true}
		assert.NoError(t, guardSurveyOpen(s, now))
	})
}

func TestGuardAttemptLimit(t *testing.T) {
	limit := 3

	assert.NoError(t, guardAttemptLimit(&model.Survey{}, 100), "no limit configured")
	assert.NoError(t, guardAttemptLimit(&model.Survey{MaxAttempts: &limit}, 2))

	err := guardAttemptLimit(&model.Survey{MaxAttempts: &limit}, 3)
	var maxErr *util.MaxAttemptsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, 3, maxErr.Limit)
}

func TestNewSubmission(t *testing.T) {
	now := time.Now()

	t.Run("untimed", func(t *testing.T) {
		s := &model.Survey{}
		s.ID = 7
		sub := newSubmission(s, 42, 1, now)

		assert.Equal(t, model.SubmissionInProgress, sub.Status)
		assert.Equal(t, 1, sub.AttemptNumber)
		require.NotNil(t, sub.ActiveKey)
		assert.Equal(t, "active", *sub.ActiveKey)
		assert.Nil(t, sub.ExpiresAt)
	})

	t.Run("timed gets an absolute deadline", func(t *testing.T) {
		minutes := 30
		s := &model.Survey{HasTimeLimit: true, TimeLimitMinutes: &minutes}
		sub := newSubmission(s, 42, 2, now)

		require.NotNil(t, sub.ExpiresAt)
		assert.Equal(t, now.Add(30*time.Minute), *sub.ExpiresAt)
	})
}

func TestDeadlineExceeded(t *testing.T) {
	now := time.Now()
	expired := now.Add(-time.Minute)
	insideGrace := now.Add(-10 * time.Second)

	assert.False(t, deadlineExceeded(&model.Submission{}, now), "no deadline")
	assert.True(t, deadlineExceeded(&model.Submission{ExpiresAt: &expired}, now))
	assert.False(t, deadlineExceeded(&model.Submission{ExpiresAt: &insideGrace}, now),
		"grace window absorbs request latency")
}

func TestValidateResponses(t *testing.T) {
	survey := &model.Survey{
		Type: model.SurveyTypeAssessment,
		Questions: []model.Question{
			question(1, model.QuestionMultipleChoice, true),
			question(2, model.QuestionText, false),
		},
	}

	t.Run("complete", func(t *testing.T) {
		err := validateResponses(survey, []model.QuestionResponse{
			{QuestionID: 1, Answer: json.RawMessage(`"A"`)},
		})
		assert.NoError(t, err)
	})

	t.Run("unknown question", func(t *testing.T) {
		err := validateResponses(survey, []model.QuestionResponse{
			{QuestionID: 99, Answer: json.RawMessage(`"A"`)},
		})
		assert.ErrorIs(t, err, util.ErrUnknownQuestion)
	})

	t.Run("required answer missing on scored type", func(t *testing.T) {
		err := validateResponses(survey, []model.QuestionResponse{
			{QuestionID: 2, Answer: json.RawMessage(`"hi"`)},
		})
		assert.ErrorIs(t, err, util.ErrMissingRequiredAnswer)
	})

	t.Run("surveys skip the completeness check", func(t *testing.T) {
		feedback := &model.Survey{
			Type:      model.SurveyTypeSurvey,
			Questions: []model.Question{question(1, model.QuestionText, true)},
		}
		assert.NoError(t, validateResponses(feedback, nil))
	})
}

func TestAnnotate(t *testing.T) {
	score := 85.0

	t.Run("never started", func(t *testing.T) {
		got := annotate(model.Survey{}, nil)
		assert.Equal(t, "not_started", got.UserStatus)
		assert.Zero(t, got.UserAttempts)
		assert.Nil(t, got.UserScore)
	})

	t.Run("open attempt", func(t *testing.T) {
		got := annotate(model.Survey{}, []model.Submission{
			{Status: model.SubmissionInProgress},
		})
		assert.Equal(t, "in_progress", got.UserStatus)
		assert.Equal(t, 1, got.UserAttempts)
	})

	t.Run("completed wins over an open retake", func(t *testing.T) {
		got := annotate(model.Survey{}, []model.Submission{
			{Status: model.SubmissionSubmitted, PercentageScore: &score},
			{Status: model.SubmissionInProgress},
		})
		assert.Equal(t, "completed", got.UserStatus)
		assert.Equal(t, 2, got.UserAttempts)
		require.NotNil(t, got.UserScore)
		assert.Equal(t, 85.0, *got.UserScore)
	})
}

// stubSurveyStore serves a fixed set of surveys.
type stubSurveyStore struct {
	surveys map[uint]*model.Survey
}

func (s *stubSurveyStore) Create(sv *model.Survey) error { s.surveys[sv.ID] = sv; return nil }

func (s *stubSurveyStore) FindByID(id uint) (*model.Survey, error) {
	sv, ok := s.surveys[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sv, nil
}

func (s *stubSurveyStore) FindByIDWithQuestions(id uint) (*model.Survey, error) {
	return s.FindByID(id)
}

func (s *stubSurveyStore) ListActive() ([]model.Survey, error) {
	var out []model.Survey
	for _, sv := range s.surveys {
		if sv.IsActive {
			out = append(out, *sv)
		}
	}
	return out, nil
}

func (s *stubSurveyStore) List(page, limit int) ([]model.Survey, int64, error) {
	return nil, 0, nil
}

func (s *stubSurveyStore) SetActive(id uint, active bool) error {
	if sv, ok := s.surveys[id]; ok {
		sv.IsActive = active
	}
	return nil
}

// stubSubmissionStore mimics the database contract the attempt lifecycle
// leans on: the unique open-attempt constraint on Create and the conditional
// status flip on Finalize. Reads hand out copies, like any real row scan.
// staleReads makes FindByID report in_progress even after a finalize, the
// snapshot a concurrent submitter would see.
type stubSubmissionStore struct {
	rows       map[string]*model.Submission
	seq        int
	staleReads bool
}

func newStubSubmissionStore() *stubSubmissionStore {
	return &stubSubmissionStore{rows: map[string]*model.Submission{}}
}

func (s *stubSubmissionStore) Create(sub *model.Submission) error {
	for _, r := range s.rows {
		if r.SurveyID == sub.SurveyID && r.UserID == sub.UserID && r.Status == model.SubmissionInProgress {
			return gorm.ErrDuplicatedKey
		}
	}
	s.seq++
	sub.ID = fmt.Sprintf("sub-%d", s.seq)
	stored := *sub
	s.rows[sub.ID] = &stored
	return nil
}

func (s *stubSubmissionStore) FindByID(id string) (*model.Submission, error) {
	r, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *r
	if s.staleReads {
		out.Status = model.SubmissionInProgress
	}
	return &out, nil
}

func (s *stubSubmissionStore) FindInProgress(surveyID, userID uint) (*model.Submission, error) {
	for _, r := range s.rows {
		if r.SurveyID == surveyID && r.UserID == userID && r.Status == model.SubmissionInProgress {
			out := *r
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubSubmissionStore) CountBySurveyAndUser(surveyID, userID uint) (int64, error) {
	var count int64
	for _, r := range s.rows {
		if r.SurveyID == surveyID && r.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *stubSubmissionStore) ListBySurveyAndUser(surveyID, userID uint) ([]model.Submission, error) {
	var out []model.Submission
	for _, r := range s.rows {
		if r.SurveyID == surveyID && r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (s *stubSubmissionStore) Finalize(sub *model.Submission) (int64, error) {
	r, ok := s.rows[sub.ID]
	if !ok || r.Status != model.SubmissionInProgress {
		return 0, nil
	}
	stored := *sub
	s.rows[sub.ID] = &stored
	return 1, nil
}

func (s *stubSubmissionStore) ListExpiredInProgress(now time.Time) ([]model.Submission, error) {
	return nil, nil
}

type recordingEnqueuer struct {
	surveys []uint
}

func (r *recordingEnqueuer) EnqueueRecompute(surveyID uint) {
	r.surveys = append(r.surveys, surveyID)
}

func lifecycleFixture(maxAttempts *int) (*SurveyService, *stubSubmissionStore, *recordingEnqueuer) {
	q := question(1, model.QuestionMultipleChoice, true)
	q.CorrectAnswer = json.RawMessage(`"A"`)

	passing := 50
	survey := &model.Survey{
		Type:         model.SurveyTypeAssessment,
		IsActive:     true,
		PassingScore: &passing,
		MaxAttempts:  maxAttempts,
		Questions:    []model.Question{q},
	}
	survey.ID = 1

	subs := newStubSubmissionStore()
	enq := &recordingEnqueuer{}
	svc := NewSurveyService(&stubSurveyStore{surveys: map[uint]*model.Survey{1: survey}}, subs, enq)
	return svc, subs, enq
}

func correctAnswers() SubmitRequest {
	return SubmitRequest{Responses: []model.QuestionResponse{
		{QuestionID: 1, Answer: json.RawMessage(`"A"`)},
	}}
}

func TestStartIsIdempotentWhileInProgress(t *testing.T) {
	svc, subs, _ := lifecycleFixture(nil)
	user := &model.User{}
	user.ID = 42

	first, err := svc.Start(1, user)
	require.NoError(t, err)

	second, err := svc.Start(1, user)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "re-entering an open attempt returns the same submission")
	assert.Len(t, subs.rows, 1, "no duplicate attempt row created")
}

func TestAttemptNumbersIncrementAcrossAttempts(t *testing.T) {
	limit := 3
	svc, _, enq := lifecycleFixture(&limit)
	user := &model.User{}
	user.ID = 42

	for want := 1; want <= limit; want++ {
		sub, err := svc.Start(1, user)
		require.NoError(t, err)
		assert.Equal(t, want, sub.AttemptNumber)

		_, err = svc.Submit(1, sub.ID, user.ID, correctAnswers())
		require.NoError(t, err)
	}

	_, err := svc.Start(1, user)
	var maxErr *util.MaxAttemptsError
	require.ErrorAs(t, err, &maxErr)
	assert.Equal(t, limit, maxErr.Limit)

	assert.Len(t, enq.surveys, limit, "one analytics recompute per finalized attempt")
}

func TestSubmitIsWriteOnce(t *testing.T) {
	svc, _, _ := lifecycleFixture(nil)
	user := &model.User{}
	user.ID = 42

	sub, err := svc.Start(1, user)
	require.NoError(t, err)

	done, err := svc.Submit(1, sub.ID, user.ID, correctAnswers())
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionSubmitted, done.Status)
	require.NotNil(t, done.Passed)
	assert.True(t, *done.Passed)

	_, err = svc.Submit(1, sub.ID, user.ID, correctAnswers())
	assert.ErrorIs(t, err, util.ErrAlreadySubmitted)
}

// Two submitters can both read the attempt as in_progress; only the one that
// wins the conditional update succeeds.
func TestConcurrentSubmitLosesConditionalUpdate(t *testing.T) {
	svc, subs, enq := lifecycleFixture(nil)
	user := &model.User{}
	user.ID = 42

	sub, err := svc.Start(1, user)
	require.NoError(t, err)

	subs.staleReads = true

	_, err = svc.Submit(1, sub.ID, user.ID, correctAnswers())
	require.NoError(t, err)

	_, err = svc.Submit(1, sub.ID, user.ID, correctAnswers())
	assert.ErrorIs(t, err, util.ErrAlreadySubmitted)
	assert.Len(t, enq.surveys, 1, "the losing submit enqueues nothing")
}

func TestSubmitRejectsForeignSubmission(t *testing.T) {
	svc, _, _ := lifecycleFixture(nil)
	owner := &model.User{}
	owner.ID = 42

	sub, err := svc.Start(1, owner)
	require.NoError(t, err)

	_, err = svc.Submit(1, sub.ID, 99, correctAnswers())
	assert.ErrorIs(t, err, util.ErrSubmissionNotFound)
}

func TestToScoringQuestions(t *testing.T) {
	q := question(5, model.QuestionCheckbox, true)
	q.Points = 3
	q.CorrectAnswer = json.RawMessage(`["a","b"]`)

	out := toScoringQuestions([]model.Question{q})
	require.Len(t, out, 1)
	assert.Equal(t, uint(5), out[0].ID)
	assert.Equal(t, model.QuestionCheckbox, out[0].Type)
	assert.Equal(t, 3, out[0].Points)
	assert.JSONEq(t, `["a","b"]`, string(out[0].CorrectAnswer))
}
