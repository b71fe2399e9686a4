package controller

import (
	"strconv"

	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/service"
	"staff_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminController groups the authoring and reporting surface; every route is
// behind the admin role.
type AdminController struct {
	SurveyService    *service.SurveyService
	CourseService    *service.CourseService
	AnalyticsService *service.AnalyticsService
}

func NewAdminController(surveyService *service.SurveyService, courseService *service.CourseService, analyticsService *service.AnalyticsService) *AdminController {
	return &AdminController{
		SurveyService:    surveyService,
		CourseService:    courseService,
		AnalyticsService: analyticsService,
	}
}

func pagination(ctx *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// CreateSurvey godoc
// @Summary Create a survey
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.Survey true "survey with questions"
// @Success 201 {object} util.Response{data=model.Survey}
// @Router /api/admin/surveys [post]
func (c *AdminController) CreateSurvey(ctx *gin.Context) {
	var survey model.Survey
	if err := ctx.ShouldBindJSON(&survey); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	survey.CreatorID = claims.UserID

	if err := c.SurveyService.CreateSurvey(&survey); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, survey)
}

// ListSurveys godoc
// @Summary All surveys, paginated
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/admin/surveys [get]
func (c *AdminController) ListSurveys(ctx *gin.Context) {
	page, limit := pagination(ctx)
	surveys, total, err := c.SurveyService.AdminList(page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": surveys, "total": total, "page": page, "limit": limit})
}

// swagger:model SetActiveRequest
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetSurveyActive godoc
// @Summary Activate or deactivate a survey
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "survey id"
// @Param body body SetActiveRequest true "flag"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id}/active [put]
func (c *AdminController) SetSurveyActive(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.SurveyService.SetActive(id, *req.IsActive); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "isActive": *req.IsActive})
}

// SurveyAnalytics godoc
// @Summary Aggregate snapshot for a survey
// @Description Totals, average score, average time spent and pass rate over all finalized attempts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path int true "survey id"
// @Param refresh query bool false "recompute before reading"
// @Success 200 {object} util.Response{data=model.AnalyticsSnapshot}
// @Failure 404 {object} util.Response
// @Router /api/admin/surveys/{id}/analytics [get]
func (c *AdminController) SurveyAnalytics(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	if ctx.Query("refresh") == "true" {
		if err := c.AnalyticsService.RecomputeSurvey(id); err != nil {
			util.RespondError(ctx, err)
			return
		}
	}

	snap, err := c.AnalyticsService.GetSnapshot(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, snap)
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.Course true "course with lessons, slides and questions"
// @Success 201 {object} util.Response{data=model.Course}
// @Router /api/admin/courses [post]
func (c *AdminController) CreateCourse(ctx *gin.Context) {
	var course model.Course
	if err := ctx.ShouldBindJSON(&course); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course.CreatorID = claims.UserID

	if err := c.CourseService.CreateCourse(&course); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// ListCourses godoc
// @Summary All courses, paginated
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "page"
// @Param limit query int false "page size"
// @Success 200 {object} util.Response
// @Router /api/admin/courses [get]
func (c *AdminController) ListCourses(ctx *gin.Context) {
	page, limit := pagination(ctx)
	courses, total, err := c.CourseService.AdminList(page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"items": courses, "total": total, "page": page, "limit": limit})
}
