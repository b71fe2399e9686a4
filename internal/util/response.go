package util

import (
	"errors"
	"net/http"

	"staff_portal_backend/internal/progression"
	"staff_portal_backend/internal/scoring"
	"staff_portal_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response is the shared JSON envelope.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	c.JSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "Unauthorized")
}

func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "Forbidden")
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "Resource not found")
}

func InternalServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, "Internal server error")
}

func LogInternalError(c *gin.Context, err error) {
	logger.Log.Error("Internal server error", zap.Error(err))
	InternalServerError(c)
}

// RespondError maps a service error onto the portal's taxonomy: 404 for
// missing resources, 403 for cross-user access, 409 for state conflicts,
// 400 for malformed submissions, and a generic 500 otherwise.
func RespondError(c *gin.Context, err error) {
	var maxAttempts *MaxAttemptsError
	var shape *scoring.ShapeError

	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrSurveyNotFound),
		errors.Is(err, ErrSubmissionNotFound),
		errors.Is(err, ErrCourseNotFound):
		Error(c, http.StatusNotFound, err.Error())

	case errors.Is(err, ErrPermissionDenied):
		Forbidden(c)

	case errors.Is(err, ErrBadCredentials):
		Unauthorized(c)

	case errors.Is(err, ErrSurveyInactive),
		errors.Is(err, ErrSurveyNotYetAvailable),
		errors.Is(err, ErrSurveyNoLongerAvailable),
		errors.Is(err, ErrAlreadySubmitted),
		errors.Is(err, ErrTimeLimitExceeded),
		errors.Is(err, ErrCertificateTestOnly),
		errors.Is(err, ErrCertificateNotEarned),
		errors.As(err, &maxAttempts):
		Error(c, http.StatusConflict, err.Error())

	case errors.Is(err, progression.ErrInvalidTransition):
		Error(c, http.StatusConflict, err.Error())

	case errors.Is(err, ErrMissingRequiredAnswer),
		errors.Is(err, ErrUnknownQuestion),
		errors.As(err, &shape):
		BadRequest(c, err.Error())

	default:
		LogInternalError(c, err)
	}
}
