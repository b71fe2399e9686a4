package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/repository"
	"staff_portal_backend/internal/util"
)

// CertificateData is what a renderer needs to produce the document.
type CertificateData struct {
	UserName    string
	SurveyTitle string
	Score       *float64
	IssuedAt    time.Time
}

// CertificateRenderer turns certificate data into a downloadable document.
type CertificateRenderer interface {
	Render(data CertificateData) (content []byte, contentType string, err error)
}

// HTMLCertificateRenderer is the default renderer; the output opens in any
// browser and prints cleanly.
type HTMLCertificateRenderer struct{}

func (HTMLCertificateRenderer) Render(data CertificateData) ([]byte, string, error) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>Certificate</title></head><body>")
	buf.WriteString("<h1>Certificate of Completion</h1>")
	fmt.Fprintf(&buf, "<p>This certifies that <strong>%s</strong> has successfully completed</p>", data.UserName)
	fmt.Fprintf(&buf, "<h2>%s</h2>", data.SurveyTitle)
	if data.Score != nil {
		fmt.Fprintf(&buf, "<p>Score: %.1f%%</p>", *data.Score)
	}
	fmt.Fprintf(&buf, "<p>Issued on %s</p>", data.IssuedAt.Format("January 2, 2006"))
	buf.WriteString("</body></html>")
	return buf.Bytes(), "text/html; charset=utf-8", nil
}

type CertificateService struct {
	Certificates *repository.CertificateRepository
	Surveys      *repository.SurveyRepository
	Submissions  *repository.SubmissionRepository
	Users        *repository.UserRepository
	Storage      StorageProvider
	Renderer     CertificateRenderer
}

func NewCertificateService(certificates *repository.CertificateRepository, surveys *repository.SurveyRepository, submissions *repository.SubmissionRepository, users *repository.UserRepository, storage StorageProvider, renderer CertificateRenderer) *CertificateService {
	return &CertificateService{
		Certificates: certificates,
		Surveys:      surveys,
		Submissions:  submissions,
		Users:        users,
		Storage:      storage,
		Renderer:     renderer,
	}
}

// Issue returns the certificate for a passed test submission, rendering and
// storing it on first request. An empty submissionID resolves to the caller's
// latest finalized attempt. Admins may fetch certificates for any user;
// everyone else only their own.
func (s *CertificateService) Issue(ctx context.Context, surveyID uint, submissionID string, caller *model.User) (*model.Certificate, error) {
	survey, err := s.Surveys.FindByID(surveyID)
	if err != nil {
		return nil, util.ErrSurveyNotFound
	}
	if survey.Type != model.SurveyTypeTest {
		return nil, util.ErrCertificateTestOnly
	}

	var sub *model.Submission
	if submissionID == "" {
		sub, err = s.Submissions.LatestSubmitted(surveyID, caller.ID)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			return nil, util.ErrCertificateNotEarned
		}
		submissionID = sub.ID
	} else {
		sub, err = s.Submissions.FindByID(submissionID)
		if err != nil || sub.SurveyID != surveyID {
			return nil, util.ErrSubmissionNotFound
		}
	}
	if sub.UserID != caller.ID && caller.Role != model.Admin {
		return nil, util.ErrPermissionDenied
	}
	if sub.Status != model.SubmissionSubmitted {
		return nil, util.ErrCertificateNotEarned
	}
	if sub.Passed != nil && !*sub.Passed {
		return nil, util.ErrCertificateNotEarned
	}

	if existing, err := s.Certificates.FindBySubmission(submissionID); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	owner, err := s.Users.FindByID(sub.UserID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	issuedAt := time.Now()
	content, contentType, err := s.Renderer.Render(CertificateData{
		UserName:    owner.Name,
		SurveyTitle: survey.Title,
		Score:       sub.PercentageScore,
		IssuedAt:    issuedAt,
	})
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("certificates/%d/%s.html", surveyID, submissionID)
	if _, err := s.Storage.Upload(ctx, key, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		SurveyID:     surveyID,
		UserID:       sub.UserID,
		SubmissionID: submissionID,
		FileKey:      key,
		IssuedAt:     issuedAt,
	}
	if err := s.Certificates.Create(cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// OpenFile streams a stored certificate document.
func (s *CertificateService) OpenFile(ctx context.Context, cert *model.Certificate) (content []byte, contentType string, err error) {
	reader, err := s.Storage.Open(ctx, cert.FileKey)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/html; charset=utf-8", nil
}
