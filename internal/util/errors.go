package util

import (
	"errors"
	"fmt"
)

// Sentinels grouped by the portal's error taxonomy: not-found, forbidden,
// invalid-state and validation. Controllers map them through RespondError.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrSurveyNotFound     = errors.New("survey not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrCourseNotFound     = errors.New("course not found")

	ErrPermissionDenied = errors.New("permission denied")
	ErrBadCredentials   = errors.New("invalid email or password")

	ErrSurveyInactive          = errors.New("survey is not active")
	ErrSurveyNotYetAvailable   = errors.New("survey not yet available")
	ErrSurveyNoLongerAvailable = errors.New("survey no longer available")
	ErrAlreadySubmitted        = errors.New("submission already finalized")
	ErrTimeLimitExceeded       = errors.New("time limit exceeded")
	ErrCertificateTestOnly     = errors.New("certificates are only issued for tests")
	ErrCertificateNotEarned    = errors.New("no passing submitted attempt for this test")

	ErrMissingRequiredAnswer = errors.New("a required question was not answered")
	ErrUnknownQuestion       = errors.New("response references an unknown question")
)

// MaxAttemptsError is raised when starting a new attempt would exceed the
// survey's attempt limit.
type MaxAttemptsError struct {
	Limit int
}

func (e *MaxAttemptsError) Error() string {
	return fmt.Sprintf("maximum attempts (%d) reached", e.Limit)
}
