package progression

import (
	"encoding/json"
	"testing"

	"staff_portal_backend/internal/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(v interface{}) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

func yesNoQuestion(id uint, correct string) scoring.Question {
	return scoring.Question{ID: id, Type: scoring.YesNo, CorrectAnswer: raw(correct)}
}

// Two lessons: lesson 0 has two plain slides, lesson 1 has a quiz slide
// (80% required) followed by two plain slides, then a final exam at 70%.
func testCourse() *Course {
	return &Course{
		Lessons: []Lesson{
			{Slides: []Slide{{ID: 1}, {ID: 2}}},
			{Slides: []Slide{
				{
					ID:               3,
					HasQuiz:          true,
					QuizPassingScore: 80,
					QuizRequired:     true,
					QuizQuestions: []scoring.Question{
						yesNoQuestion(31, "yes"),
						yesNoQuestion(32, "no"),
					},
				},
				{ID: 4},
				{ID: 5},
			}},
		},
		ExamQuestions:    []scoring.Question{yesNoQuestion(91, "yes"), yesNoQuestion(92, "yes")},
		ExamPassingScore: 70,
	}
}

func TestStart(t *testing.T) {
	c := testCourse()
	s, err := Start(c, NewState())
	require.NoError(t, err)
	assert.Equal(t, PhaseViewing, s.Phase)
	assert.Equal(t, 0, s.LessonIdx)
	assert.Equal(t, 0, s.SlideIdx)

	_, err = Start(c, s)
	assert.ErrorIs(t, err, ErrInvalidTransition, "start is only valid from welcome")
}

func TestAdvanceWithinAndAcrossLessons(t *testing.T) {
	c := testCourse()
	s, _ := Start(c, NewState())

	s, err := Advance(c, s)
	require.NoError(t, err)
	assert.Equal(t, PhaseViewing, s.Phase)
	assert.Equal(t, 1, s.SlideIdx)

	s, err = Advance(c, s)
	require.NoError(t, err)
	assert.Equal(t, 1, s.LessonIdx, "crosses the lesson boundary")
	assert.Equal(t, 0, s.SlideIdx)
}

func TestAdvancePausesAtUnansweredQuiz(t *testing.T) {
	c := testCourse()
	s := State{Phase: PhaseViewing, LessonIdx: 1, SlideIdx: 0, ClearedQuizzes: map[uint]bool{}}

	s, err := Advance(c, s)
	require.NoError(t, err)
	assert.Equal(t, PhaseMicroQuiz, s.Phase)
	assert.Equal(t, 1, s.LessonIdx)
	assert.Equal(t, 0, s.SlideIdx, "position is held while the gate is open")
}

func TestSubmitQuizFailRequiredStays(t *testing.T) {
	c := testCourse()
	s := State{Phase: PhaseMicroQuiz, LessonIdx: 1, SlideIdx: 0, ClearedQuizzes: map[uint]bool{}}

	// 1 of 2 correct = 50% against a required 80% gate.
	next, outcome, err := SubmitQuiz(c, s, []scoring.Response{
		{QuestionID: 31, Answer: raw("yes")},
		{QuestionID: 32, Answer: raw("yes")},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, outcome.Score)
	assert.False(t, outcome.Passed)
	assert.Equal(t, PhaseMicroQuiz, next.Phase, "no advance on a failed required quiz")
	assert.Equal(t, s.LessonIdx, next.LessonIdx)
	assert.Equal(t, s.SlideIdx, next.SlideIdx)
}

func TestSubmitQuizPassAdvances(t *testing.T) {
	c := testCourse()
	s := State{Phase: PhaseMicroQuiz, LessonIdx: 1, SlideIdx: 0, ClearedQuizzes: map[uint]bool{}}

	next, outcome, err := SubmitQuiz(c, s, []scoring.Response{
		{QuestionID: 31, Answer: raw("yes")},
		{QuestionID: 32, Answer: raw("no")},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, PhaseViewing, next.Phase)
	assert.Equal(t, 1, next.SlideIdx, "gate cleared, advance re-ran")
	assert.True(t, next.ClearedQuizzes[3])
}

func TestSubmitQuizOptionalFailStillAdvances(t *testing.T) {
	c := testCourse()
	c.Lessons[1].Slides[0].QuizRequired = false
	s := State{Phase: PhaseMicroQuiz, LessonIdx: 1, SlideIdx: 0, ClearedQuizzes: map[uint]bool{}}

	next, outcome, err := SubmitQuiz(c, s, nil)
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	assert.Equal(t, PhaseViewing, next.Phase, "optional quiz never blocks")
	assert.Equal(t, 1, next.SlideIdx)
}

func TestRetreat(t *testing.T) {
	c := testCourse()

	s := State{Phase: PhaseViewing, LessonIdx: 1, SlideIdx: 0, ClearedQuizzes: map[uint]bool{}}
	s, err := Retreat(c, s)
	require.NoError(t, err)
	assert.Equal(t, 0, s.LessonIdx)
	assert.Equal(t, 1, s.SlideIdx, "lands on the previous lesson's last slide")

	s = State{Phase: PhaseViewing, LessonIdx: 0, SlideIdx: 0, ClearedQuizzes: map[uint]bool{}}
	s, err = Retreat(c, s)
	require.NoError(t, err)
	assert.Equal(t, 0, s.LessonIdx, "no-op at the first slide")
	assert.Equal(t, 0, s.SlideIdx)
}

func TestAdvancePastLastSlideReachesExam(t *testing.T) {
	c := testCourse()
	// Last overall slide, quiz already cleared upstream, no quiz here.
	s := State{Phase: PhaseViewing, LessonIdx: 1, SlideIdx: 2, ClearedQuizzes: map[uint]bool{3: true}}

	s, err := Advance(c, s)
	require.NoError(t, err)
	assert.Equal(t, PhaseFinalExam, s.Phase)
}

func TestAdvancePastLastSlideNoExamCompletes(t *testing.T) {
	c := testCourse()
	c.ExamQuestions = nil
	s := State{Phase: PhaseViewing, LessonIdx: 1, SlideIdx: 2, ClearedQuizzes: map[uint]bool{3: true}}

	s, err := Advance(c, s)
	require.NoError(t, err)
	assert.Equal(t, PhaseCompleted, s.Phase)
}

func TestSubmitExam(t *testing.T) {
	c := testCourse()
	s := State{Phase: PhaseFinalExam, ClearedQuizzes: map[uint]bool{}}

	next, outcome, err := SubmitExam(c, s, []scoring.Response{
		{QuestionID: 91, Answer: raw("yes")},
		{QuestionID: 92, Answer: raw("no")},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, outcome.Score)
	assert.False(t, outcome.Passed)
	assert.Equal(t, PhaseFinalExam, next.Phase, "failed exam stays at the prompt")

	next, outcome, err = SubmitExam(c, next, []scoring.Response{
		{QuestionID: 91, Answer: raw("yes")},
		{QuestionID: 92, Answer: raw("yes")},
	})
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, PhaseCompleted, next.Phase)
}

func TestStateIsNotMutatedInPlace(t *testing.T) {
	c := testCourse()
	s := State{Phase: PhaseMicroQuiz, LessonIdx: 1, SlideIdx: 0, ClearedQuizzes: map[uint]bool{}}

	_, _, err := SubmitQuiz(c, s, []scoring.Response{
		{QuestionID: 31, Answer: raw("yes")},
		{QuestionID: 32, Answer: raw("no")},
	})
	require.NoError(t, err)
	assert.False(t, s.ClearedQuizzes[3], "caller's map is untouched")
}
