// Package progression drives a learner through a structured course: lessons of
// slides, slide-gating micro-quizzes, an optional final exam, completion. The
// state machine is a pure reducer over an explicit State value; side effects
// (persistence, the completion callback) belong to the caller's transition
// handlers.
package progression

import (
	"errors"

	"staff_portal_backend/internal/scoring"
)

type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseViewing   Phase = "viewing"
	PhaseMicroQuiz Phase = "micro_quiz_prompt"
	PhaseFinalExam Phase = "final_exam_prompt"
	PhaseCompleted Phase = "completed"
)

var ErrInvalidTransition = errors.New("event not valid in current phase")

// Slide is the reducer's view of one slide; QuizQuestions is empty unless
// HasQuiz is set.
type Slide struct {
	ID               uint
	HasQuiz          bool
	QuizPassingScore int
	QuizRequired     bool
	QuizQuestions    []scoring.Question
}

type Lesson struct {
	Slides []Slide
}

// Course content as the reducer sees it. An empty ExamQuestions slice means
// the course ends after its last slide.
type Course struct {
	Lessons          []Lesson
	ExamQuestions    []scoring.Question
	ExamPassingScore int
}

func (c *Course) HasExam() bool {
	return len(c.ExamQuestions) > 0
}

// State is the whole of the learner's position. ClearedQuizzes holds slide IDs
// whose gate has been satisfied (passed, or failed but optional).
type State struct {
	Phase          Phase
	LessonIdx      int
	SlideIdx       int
	ClearedQuizzes map[uint]bool
}

func NewState() State {
	return State{Phase: PhaseWelcome, ClearedQuizzes: map[uint]bool{}}
}

// QuizOutcome is surfaced to the learner after a quiz or exam submission.
type QuizOutcome struct {
	Score  float64 `json:"score"`
	Passed bool    `json:"passed"`
}

func (s State) withCleared(slideID uint) State {
	cleared := make(map[uint]bool, len(s.ClearedQuizzes)+1)
	for k, v := range s.ClearedQuizzes {
		cleared[k] = v
	}
	cleared[slideID] = true
	s.ClearedQuizzes = cleared
	return s
}

func (s State) currentSlide(c *Course) *Slide {
	if s.LessonIdx >= len(c.Lessons) {
		return nil
	}
	lesson := c.Lessons[s.LessonIdx]
	if s.SlideIdx >= len(lesson.Slides) {
		return nil
	}
	return &lesson.Slides[s.SlideIdx]
}

// Start moves Welcome → Viewing(0,0). A course with no slides at all skips
// straight to the exam prompt (or completion when there is no exam either).
func Start(c *Course, s State) (State, error) {
	if s.Phase != PhaseWelcome {
		return s, ErrInvalidTransition
	}
	if len(c.Lessons) == 0 || len(c.Lessons[0].Slides) == 0 {
		return endOfSlides(c, s), nil
	}
	s.Phase = PhaseViewing
	s.LessonIdx = 0
	s.SlideIdx = 0
	return s, nil
}

// Advance handles the "advance" event from Viewing. An unanswered micro-quiz
// on the current slide pauses advancement at MicroQuizPrompt; otherwise the
// position moves to the next slide, the next lesson's first slide, or the
// final-exam prompt after the last slide.
func Advance(c *Course, s State) (State, error) {
	if s.Phase != PhaseViewing {
		return s, ErrInvalidTransition
	}

	if slide := s.currentSlide(c); slide != nil && slide.HasQuiz && !s.ClearedQuizzes[slide.ID] {
		s.Phase = PhaseMicroQuiz
		return s, nil
	}
	return moveForward(c, s), nil
}

// Retreat steps back one slide, crossing lesson boundaries onto the previous
// lesson's last slide; at the very first slide it is a no-op.
func Retreat(c *Course, s State) (State, error) {
	if s.Phase != PhaseViewing {
		return s, ErrInvalidTransition
	}
	if s.SlideIdx > 0 {
		s.SlideIdx--
		return s, nil
	}
	if s.LessonIdx > 0 {
		s.LessonIdx--
		s.SlideIdx = len(c.Lessons[s.LessonIdx].Slides) - 1
		return s, nil
	}
	return s, nil
}

// SubmitQuiz grades the pending micro-quiz. Passing the threshold, or failing
// a quiz that is not required, clears the gate and re-runs the advance
// transition; otherwise the state is unchanged and the failing score is
// surfaced for a retry.
func SubmitQuiz(c *Course, s State, responses []scoring.Response) (State, QuizOutcome, error) {
	if s.Phase != PhaseMicroQuiz {
		return s, QuizOutcome{}, ErrInvalidTransition
	}
	slide := s.currentSlide(c)
	if slide == nil {
		return s, QuizOutcome{}, ErrInvalidTransition
	}

	score, err := scoring.QuizScore(slide.QuizQuestions, responses)
	if err != nil {
		return s, QuizOutcome{}, err
	}
	passed := score >= float64(slide.QuizPassingScore)
	outcome := QuizOutcome{Score: score, Passed: passed}

	if !passed && slide.QuizRequired {
		return s, outcome, nil
	}

	next := s.withCleared(slide.ID)
	next.Phase = PhaseViewing
	next = moveForward(c, next)
	return next, outcome, nil
}

// SubmitExam grades the final exam. On a pass the state becomes Completed; on
// a fail it stays at the prompt with the score surfaced. The caller invokes
// the external completion API with the outcome either way.
func SubmitExam(c *Course, s State, responses []scoring.Response) (State, QuizOutcome, error) {
	if s.Phase != PhaseFinalExam {
		return s, QuizOutcome{}, ErrInvalidTransition
	}

	score, err := scoring.QuizScore(c.ExamQuestions, responses)
	if err != nil {
		return s, QuizOutcome{}, err
	}
	passed := score >= float64(c.ExamPassingScore)
	outcome := QuizOutcome{Score: score, Passed: passed}

	if passed {
		s.Phase = PhaseCompleted
	}
	return s, outcome, nil
}

// moveForward advances position past the current slide. Within a lesson it
// moves to the next slide, at a lesson end onto the next lesson, and past the
// last slide of the last lesson to the exam prompt or completion.
func moveForward(c *Course, s State) State {
	if s.LessonIdx >= len(c.Lessons) {
		return endOfSlides(c, s)
	}
	lesson := c.Lessons[s.LessonIdx]
	if s.SlideIdx+1 < len(lesson.Slides) {
		s.SlideIdx++
		return s
	}
	if s.LessonIdx+1 < len(c.Lessons) {
		s.LessonIdx++
		s.SlideIdx = 0
		return s
	}
	return endOfSlides(c, s)
}

func endOfSlides(c *Course, s State) State {
	if c.HasExam() {
		s.Phase = PhaseFinalExam
	} else {
		s.Phase = PhaseCompleted
	}
	return s
}
