package controller

import (
	"strconv"

	"staff_portal_backend/internal/service"
	"staff_portal_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SurveyController struct {
	SurveyService      *service.SurveyService
	CertificateService *service.CertificateService
}

func NewSurveyController(surveyService *service.SurveyService, certificateService *service.CertificateService) *SurveyController {
	return &SurveyController{
		SurveyService:      surveyService,
		CertificateService: certificateService,
	}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// List godoc
// @Summary Surveys visible to the caller
// @Description Active surveys inside their availability window whose assignment scope covers the caller, annotated with the caller's attempts and best standing
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]service.SurveySummary}
// @Router /api/surveys [get]
func (c *SurveyController) List(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	summaries, err := c.SurveyService.ListAvailable(claims.Identity())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, summaries)
}

// Get godoc
// @Summary Survey detail
// @Description One survey with its questions, the caller's submissions and whether another attempt is allowed
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Param id path int true "survey id"
// @Success 200 {object} util.Response{data=service.SurveyDetail}
// @Failure 404 {object} util.Response
// @Router /api/surveys/{id} [get]
func (c *SurveyController) Get(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.SurveyService.GetDetail(id, claims.Identity())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// Start godoc
// @Summary Start or resume an attempt
// @Description Opens a new attempt, or returns the existing open attempt unchanged
// @Tags surveys
// @Produce json
// @Security BearerAuth
// @Param id path int true "survey id"
// @Success 201 {object} util.Response{data=model.Submission}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "inactive, outside window, or attempt limit reached"
// @Router /api/surveys/{id}/start [post]
func (c *SurveyController) Start(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	sub, err := c.SurveyService.Start(id, claims.Identity())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, sub)
}

// Submit godoc
// @Summary Submit an attempt
// @Description Finalizes the attempt: responses are validated, scored (except plain surveys) and written once
// @Tags surveys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "survey id"
// @Param submissionId path string true "submission id"
// @Param body body service.SubmitRequest true "responses"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 400 {object} util.Response "unknown question, missing required answer or malformed answer"
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "already submitted or time limit exceeded"
// @Router /api/surveys/{id}/submissions/{submissionId} [put]
func (c *SurveyController) Submit(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.SurveyService.Submit(id, ctx.Param("submissionId"), claims.UserID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, sub)
}

// Certificate godoc
// @Summary Download a completion certificate
// @Description Renders (on first request) and streams the certificate for a passed test attempt; defaults to the caller's latest finalized attempt
// @Tags surveys
// @Produce html
// @Security BearerAuth
// @Param id path int true "survey id"
// @Param submissionId query string false "submission id"
// @Success 200 {string} string "certificate document"
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "not a test, or not earned"
// @Router /api/surveys/{id}/certificate [get]
func (c *SurveyController) Certificate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	cert, err := c.CertificateService.Issue(ctx.Request.Context(), id, ctx.Query("submissionId"), claims.Identity())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}

	content, contentType, err := c.CertificateService.OpenFile(ctx.Request.Context(), cert)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	ctx.Data(200, contentType, content)
}
