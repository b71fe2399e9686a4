package controller

import (
	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/progression"
	"staff_portal_backend/internal/service"
	"staff_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// swagger:model QuizSubmitRequest
type QuizSubmitRequest struct {
	Responses []model.QuestionResponse `json:"responses" binding:"required"`
}

// ProgressView pairs the persisted progress with the outcome of a graded
// event, when there was one.
type ProgressView struct {
	Progress *model.CourseProgress    `json:"progress"`
	Outcome  *progression.QuizOutcome `json:"outcome,omitempty"`
}

// List godoc
// @Summary Active courses
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.Course}
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	courses, err := c.CourseService.ListActive()
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// Get godoc
// @Summary Course content
// @Description Lessons, slides and quizzes in playback order
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "course id"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	course, err := c.CourseService.GetContent(id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, course)
}

// GetProgress godoc
// @Summary Caller's progress in a course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "course id"
// @Success 200 {object} util.Response{data=model.CourseProgress}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id}/progress [get]
func (c *CourseController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	progress, err := c.CourseService.GetProgress(id, claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// event runs one ungraded state-machine event and returns the new progress.
func (c *CourseController) event(ctx *gin.Context, fn func(courseID, userID uint) (*model.CourseProgress, error)) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	progress, err := fn(id, claims.UserID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, ProgressView{Progress: progress})
}

// Start godoc
// @Summary Begin the course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "course id"
// @Success 200 {object} util.Response{data=ProgressView}
// @Failure 409 {object} util.Response "already started"
// @Router /api/courses/{id}/progress/start [post]
func (c *CourseController) Start(ctx *gin.Context) {
	c.event(ctx, c.CourseService.Start)
}

// Advance godoc
// @Summary Move forward one slide
// @Description Pauses at the micro-quiz prompt when the current slide has an unanswered quiz
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "course id"
// @Success 200 {object} util.Response{data=ProgressView}
// @Failure 409 {object} util.Response "not in the viewing phase"
// @Router /api/courses/{id}/progress/advance [post]
func (c *CourseController) Advance(ctx *gin.Context) {
	c.event(ctx, c.CourseService.Advance)
}

// Retreat godoc
// @Summary Move back one slide
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path int true "course id"
// @Success 200 {object} util.Response{data=ProgressView}
// @Failure 409 {object} util.Response "not in the viewing phase"
// @Router /api/courses/{id}/progress/retreat [post]
func (c *CourseController) Retreat(ctx *gin.Context) {
	c.event(ctx, c.CourseService.Retreat)
}

// SubmitQuiz godoc
// @Summary Answer the pending micro-quiz
// @Description Passing (or failing an optional quiz) clears the gate and advances; failing a required quiz leaves the learner at the prompt for a retry
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "course id"
// @Param body body QuizSubmitRequest true "quiz answers"
// @Success 200 {object} util.Response{data=ProgressView}
// @Failure 409 {object} util.Response "no quiz pending"
// @Router /api/courses/{id}/progress/quiz [post]
func (c *CourseController) SubmitQuiz(ctx *gin.Context) {
	c.gradedEvent(ctx, c.CourseService.SubmitQuiz)
}

// SubmitExam godoc
// @Summary Take the final exam
// @Description Passing completes the course; failing leaves the learner at the exam prompt with the score
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "course id"
// @Param body body QuizSubmitRequest true "exam answers"
// @Success 200 {object} util.Response{data=ProgressView}
// @Failure 409 {object} util.Response "exam not reached"
// @Router /api/courses/{id}/progress/exam [post]
func (c *CourseController) SubmitExam(ctx *gin.Context) {
	c.gradedEvent(ctx, c.CourseService.SubmitExam)
}

func (c *CourseController) gradedEvent(ctx *gin.Context, fn func(courseID, userID uint, responses []model.QuestionResponse) (*model.CourseProgress, *progression.QuizOutcome, error)) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req QuizSubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	progress, outcome, err := fn(id, claims.UserID, req.Responses)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, ProgressView{Progress: progress, Outcome: outcome})
}
