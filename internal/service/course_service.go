package service

import (
	"time"

	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/progression"
	"staff_portal_backend/internal/util"
	"staff_portal_backend/pkg/logger"

	"go.uber.org/zap"
)

// CompletionNotifier reports a final-exam submission, with its answers and
// outcome, to the external completion system. A non-nil error blocks the
// transition to completed so the learner can resubmit once the system
// recovers.
type CompletionNotifier interface {
	NotifyCompletion(userID, courseID uint, answers []model.QuestionResponse, outcome progression.QuizOutcome) error
}

// LogCompletionNotifier is the default notifier; it only records the outcome.
type LogCompletionNotifier struct{}

func (LogCompletionNotifier) NotifyCompletion(userID, courseID uint, answers []model.QuestionResponse, outcome progression.QuizOutcome) error {
	logger.Log.Info("course exam outcome",
		zap.Uint("userId", userID),
		zap.Uint("courseId", courseID),
		zap.Int("answers", len(answers)),
		zap.Float64("score", outcome.Score),
		zap.Bool("passed", outcome.Passed))
	return nil
}

// CourseStore is the slice of the course repository the progression flow needs.
type CourseStore interface {
	Create(course *model.Course) error
	FindByIDFull(id uint) (*model.Course, error)
	ListActive() ([]model.Course, error)
	List(page, limit int) ([]model.Course, int64, error)
}

type ProgressStore interface {
	FindOrCreate(courseID, userID uint) (*model.CourseProgress, error)
	Save(p *model.CourseProgress) error
}

type CourseService struct {
	Courses  CourseStore
	Progress ProgressStore
	Notifier CompletionNotifier
}

func NewCourseService(courses CourseStore, progress ProgressStore, notifier CompletionNotifier) *CourseService {
	return &CourseService{Courses: courses, Progress: progress, Notifier: notifier}
}

func (s *CourseService) CreateCourse(course *model.Course) error {
	return s.Courses.Create(course)
}

func (s *CourseService) AdminList(page, limit int) ([]model.Course, int64, error) {
	return s.Courses.List(page, limit)
}

func (s *CourseService) ListActive() ([]model.Course, error) {
	return s.Courses.ListActive()
}

func (s *CourseService) GetContent(courseID uint) (*model.Course, error) {
	course, err := s.Courses.FindByIDFull(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) GetProgress(courseID, userID uint) (*model.CourseProgress, error) {
	if _, err := s.Courses.FindByIDFull(courseID); err != nil {
		return nil, util.ErrCourseNotFound
	}
	return s.Progress.FindOrCreate(courseID, userID)
}

// transition loads course and progress, applies fn to the reducer state and
// persists the result.
func (s *CourseService) transition(courseID, userID uint, fn func(*progression.Course, progression.State) (progression.State, error)) (*model.CourseProgress, error) {
	course, err := s.Courses.FindByIDFull(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}

	record, err := s.Progress.FindOrCreate(courseID, userID)
	if err != nil {
		return nil, err
	}

	reduced := toReducerCourse(course)
	next, err := fn(reduced, toReducerState(record))
	if err != nil {
		return nil, err
	}

	applyState(record, next)
	if err := s.Progress.Save(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *CourseService) Start(courseID, userID uint) (*model.CourseProgress, error) {
	return s.transition(courseID, userID, progression.Start)
}

func (s *CourseService) Advance(courseID, userID uint) (*model.CourseProgress, error) {
	return s.transition(courseID, userID, progression.Advance)
}

func (s *CourseService) Retreat(courseID, userID uint) (*model.CourseProgress, error) {
	return s.transition(courseID, userID, progression.Retreat)
}

func (s *CourseService) SubmitQuiz(courseID, userID uint, responses []model.QuestionResponse) (*model.CourseProgress, *progression.QuizOutcome, error) {
	var outcome progression.QuizOutcome
	record, err := s.transition(courseID, userID, func(c *progression.Course, st progression.State) (progression.State, error) {
		next, out, err := progression.SubmitQuiz(c, st, toScoringResponses(responses))
		outcome = out
		return next, err
	})
	if err != nil {
		return nil, nil, err
	}
	return record, &outcome, nil
}

// SubmitExam grades the final exam, reports the outcome to the completion
// system and persists the new state. A notifier failure leaves the learner at
// the exam prompt so the submission can be retried.
func (s *CourseService) SubmitExam(courseID, userID uint, responses []model.QuestionResponse) (*model.CourseProgress, *progression.QuizOutcome, error) {
	course, err := s.Courses.FindByIDFull(courseID)
	if err != nil {
		return nil, nil, util.ErrCourseNotFound
	}

	record, err := s.Progress.FindOrCreate(courseID, userID)
	if err != nil {
		return nil, nil, err
	}

	next, outcome, err := progression.SubmitExam(toReducerCourse(course), toReducerState(record), toScoringResponses(responses))
	if err != nil {
		return nil, nil, err
	}
	if err := s.Notifier.NotifyCompletion(userID, courseID, responses, outcome); err != nil {
		return nil, nil, err
	}

	applyState(record, next)
	record.ExamScore = &outcome.Score
	if err := s.Progress.Save(record); err != nil {
		return nil, nil, err
	}
	return record, &outcome, nil
}

// toReducerCourse projects the persisted course onto the reducer's view.
func toReducerCourse(course *model.Course) *progression.Course {
	out := &progression.Course{
		Lessons:       make([]progression.Lesson, len(course.Lessons)),
		ExamQuestions: toScoringQuestions(course.ExamQuestions),
	}
	if course.ExamPassingScore != nil {
		out.ExamPassingScore = *course.ExamPassingScore
	} else {
		out.ExamQuestions = nil
	}

	for i, lesson := range course.Lessons {
		slides := make([]progression.Slide, len(lesson.Slides))
		for j, slide := range lesson.Slides {
			slides[j] = progression.Slide{
				ID:               slide.ID,
				HasQuiz:          slide.HasQuiz,
				QuizPassingScore: slide.QuizPassingScore,
				QuizRequired:     slide.QuizRequired,
			}
			if slide.HasQuiz {
				slides[j].QuizQuestions = toScoringQuestions(slide.QuizQuestions)
			}
		}
		out.Lessons[i] = progression.Lesson{Slides: slides}
	}
	return out
}

func toReducerState(record *model.CourseProgress) progression.State {
	return progression.State{
		Phase:          progression.Phase(record.Phase),
		LessonIdx:      record.LessonIdx,
		SlideIdx:       record.SlideIdx,
		ClearedQuizzes: record.DecodedCleared(),
	}
}

func applyState(record *model.CourseProgress, s progression.State) {
	record.Phase = string(s.Phase)
	record.LessonIdx = s.LessonIdx
	record.SlideIdx = s.SlideIdx
	record.SetCleared(s.ClearedQuizzes)
	if s.Phase == progression.PhaseCompleted && record.CompletedAt == nil {
		now := time.Now()
		record.CompletedAt = &now
	}
}
