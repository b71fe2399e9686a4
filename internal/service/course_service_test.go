package service

import (
	"encoding/json"
	"testing"

	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/progression"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func slide(id uint, hasQuiz bool) model.Slide {
	s := model.Slide{HasQuiz: hasQuiz, QuizPassingScore: 80, QuizRequired: true}
	s.ID = id
	if hasQuiz {
		s.QuizQuestions = []model.Question{question(id*10, model.QuestionYesNo, true)}
	}
	return s
}

func TestToReducerCourse(t *testing.T) {
	passing := 70
	course := &model.Course{
		ExamPassingScore: &passing,
		Lessons: []model.Lesson{
			{Slides: []model.Slide{slide(1, false), slide(2, true)}},
			{Slides: []model.Slide{slide(3, false)}},
		},
		ExamQuestions: []model.Question{question(100, model.QuestionMultipleChoice, true)},
	}

	reduced := toReducerCourse(course)

	require.Len(t, reduced.Lessons, 2)
	require.Len(t, reduced.Lessons[0].Slides, 2)
	assert.False(t, reduced.Lessons[0].Slides[0].HasQuiz)
	assert.Empty(t, reduced.Lessons[0].Slides[0].QuizQuestions)

	quizSlide := reduced.Lessons[0].Slides[1]
	assert.True(t, quizSlide.HasQuiz)
	assert.Equal(t, 80, quizSlide.QuizPassingScore)
	require.Len(t, quizSlide.QuizQuestions, 1)
	assert.Equal(t, uint(20), quizSlide.QuizQuestions[0].ID)

	assert.True(t, reduced.HasExam())
	assert.Equal(t, 70, reduced.ExamPassingScore)
}

// A course whose exam passing score was never configured has no exam, even if
// stray exam questions exist.
func TestToReducerCourseNoExam(t *testing.T) {
	course := &model.Course{
		Lessons:       []model.Lesson{{Slides: []model.Slide{slide(1, false)}}},
		ExamQuestions: []model.Question{question(100, model.QuestionYesNo, true)},
	}

	reduced := toReducerCourse(course)
	assert.False(t, reduced.HasExam())
}

func TestReducerStateRoundTrip(t *testing.T) {
	record := &model.CourseProgress{}

	st := progression.State{
		Phase:          progression.PhaseViewing,
		LessonIdx:      1,
		SlideIdx:       2,
		ClearedQuizzes: map[uint]bool{4: true},
	}
	applyState(record, st)

	assert.Equal(t, "viewing", record.Phase)
	assert.Nil(t, record.CompletedAt)

	back := toReducerState(record)
	assert.Equal(t, st.Phase, back.Phase)
	assert.Equal(t, 1, back.LessonIdx)
	assert.Equal(t, 2, back.SlideIdx)
	assert.True(t, back.ClearedQuizzes[4])
}

type stubCourseStore struct {
	course *model.Course
}

func (s *stubCourseStore) Create(c *model.Course) error { s.course = c; return nil }

func (s *stubCourseStore) FindByIDFull(id uint) (*model.Course, error) {
	if s.course == nil || s.course.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.course, nil
}

func (s *stubCourseStore) ListActive() ([]model.Course, error) { return nil, nil }

func (s *stubCourseStore) List(page, limit int) ([]model.Course, int64, error) {
	return nil, 0, nil
}

type stubProgressStore struct {
	rec *model.CourseProgress
}

func (s *stubProgressStore) FindOrCreate(courseID, userID uint) (*model.CourseProgress, error) {
	return s.rec, nil
}

func (s *stubProgressStore) Save(p *model.CourseProgress) error { s.rec = p; return nil }

type captureNotifier struct {
	calls   int
	answers []model.QuestionResponse
	outcome progression.QuizOutcome
	err     error
}

func (n *captureNotifier) NotifyCompletion(userID, courseID uint, answers []model.QuestionResponse, outcome progression.QuizOutcome) error {
	n.calls++
	n.answers = answers
	n.outcome = outcome
	return n.err
}

func examFixture(notifier *captureNotifier) (*CourseService, *stubProgressStore) {
	examQ := question(100, model.QuestionYesNo, true)
	examQ.CorrectAnswer = json.RawMessage(`"yes"`)

	passing := 70
	course := &model.Course{
		ExamPassingScore: &passing,
		Lessons:          []model.Lesson{{Slides: []model.Slide{slide(1, false)}}},
		ExamQuestions:    []model.Question{examQ},
	}
	course.ID = 5

	progress := &stubProgressStore{rec: &model.CourseProgress{
		CourseID: 5,
		UserID:   42,
		Phase:    string(progression.PhaseFinalExam),
	}}
	return NewCourseService(&stubCourseStore{course: course}, progress, notifier), progress
}

// The completion system receives the exam answers alongside the outcome.
func TestSubmitExamNotifiesWithAnswers(t *testing.T) {
	notifier := &captureNotifier{}
	svc, progress := examFixture(notifier)

	answers := []model.QuestionResponse{{QuestionID: 100, Answer: json.RawMessage(`"yes"`)}}
	record, outcome, err := svc.SubmitExam(5, 42, answers)
	require.NoError(t, err)

	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, answers, notifier.answers)
	assert.True(t, notifier.outcome.Passed)
	assert.Equal(t, 100.0, notifier.outcome.Score)

	require.NotNil(t, outcome)
	assert.Equal(t, string(progression.PhaseCompleted), record.Phase)
	require.NotNil(t, progress.rec.ExamScore)
	assert.Equal(t, 100.0, *progress.rec.ExamScore)
}

func TestSubmitExamNotifierFailureBlocksTransition(t *testing.T) {
	notifier := &captureNotifier{err: assert.AnError}
	svc, progress := examFixture(notifier)

	answers := []model.QuestionResponse{{QuestionID: 100, Answer: json.RawMessage(`"yes"`)}}
	_, _, err := svc.SubmitExam(5, 42, answers)
	require.Error(t, err)

	assert.Equal(t, string(progression.PhaseFinalExam), progress.rec.Phase,
		"learner stays at the exam prompt and can resubmit")
	assert.Nil(t, progress.rec.ExamScore)
}

func TestApplyStateStampsCompletion(t *testing.T) {
	record := &model.CourseProgress{}

	applyState(record, progression.State{Phase: progression.PhaseCompleted})
	require.NotNil(t, record.CompletedAt)

	first := *record.CompletedAt
	applyState(record, progression.State{Phase: progression.PhaseCompleted})
	assert.Equal(t, first, *record.CompletedAt, "completion time is stamped once")
}
