package service

import (
	"context"
	"strconv"
	"time"

	"staff_portal_backend/internal/model"
	"staff_portal_backend/internal/repository"
	"staff_portal_backend/pkg/logger"
	"staff_portal_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AnalyticsService maintains one aggregate snapshot per survey. Submits
// enqueue the survey id on a Redis list; a worker drains the queue and
// recomputes the full aggregate. A periodic catch-up pass recomputes every
// survey so snapshots converge even if queue entries were lost.
type AnalyticsService struct {
	Snapshots   *repository.AnalyticsRepository
	Surveys     *repository.SurveyRepository
	Submissions *repository.SubmissionRepository
	Redis       *redis.Client
	QueueKey    string
}

func NewAnalyticsService(snapshots *repository.AnalyticsRepository, surveys *repository.SurveyRepository, submissions *repository.SubmissionRepository, rdb *redis.Client, queueKey string) *AnalyticsService {
	return &AnalyticsService{
		Snapshots:   snapshots,
		Surveys:     surveys,
		Submissions: submissions,
		Redis:       rdb,
		QueueKey:    queueKey,
	}
}

// EnqueueRecompute schedules a snapshot refresh. Failures are logged and
// swallowed: the catch-up pass will repair the snapshot.
func (s *AnalyticsService) EnqueueRecompute(surveyID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	id := strconv.FormatUint(uint64(surveyID), 10)
	if err := s.Redis.LPush(ctx, s.QueueKey, id).Err(); err != nil {
		logger.Log.Warn("analytics enqueue failed",
			zap.Uint("surveyId", surveyID), zap.Error(err))
	}
}

// RunWorker blocks on the queue and recomputes snapshots until the context
// is cancelled.
func (s *AnalyticsService) RunWorker(ctx context.Context) {
	logger.Log.Info("analytics worker started", zap.String("queue", s.QueueKey))
	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("analytics worker stopped")
			return
		default:
		}

		vals, err := s.Redis.BRPop(ctx, 5*time.Second, s.QueueKey).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			logger.Log.Warn("analytics dequeue failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if len(vals) < 2 {
			continue
		}

		surveyID, err := strconv.ParseUint(vals[1], 10, 32)
		if err != nil {
			logger.Log.Warn("analytics: bad queue entry", zap.String("value", vals[1]))
			continue
		}

		if err := s.RecomputeSurvey(uint(surveyID)); err != nil {
			monitoring.AnalyticsRecomputes.WithLabelValues("queue", "error").Inc()
			logger.Log.Error("analytics recompute failed",
				zap.Uint64("surveyId", surveyID), zap.Error(err))
			continue
		}
		monitoring.AnalyticsRecomputes.WithLabelValues("queue", "ok").Inc()
	}
}

// RunCatchUp periodically recomputes snapshots for all active surveys.
func (s *AnalyticsService) RunCatchUp(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.recomputeAll()
		}
	}
}

func (s *AnalyticsService) recomputeAll() {
	surveys, err := s.Surveys.ListActive()
	if err != nil {
		logger.Log.Error("analytics catch-up: survey list failed", zap.Error(err))
		return
	}
	for _, survey := range surveys {
		if err := s.RecomputeSurvey(survey.ID); err != nil {
			monitoring.AnalyticsRecomputes.WithLabelValues("catchup", "error").Inc()
			logger.Log.Error("analytics catch-up recompute failed",
				zap.Uint("surveyId", survey.ID), zap.Error(err))
			continue
		}
		monitoring.AnalyticsRecomputes.WithLabelValues("catchup", "ok").Inc()
	}
}

// RecomputeSurvey rebuilds the aggregate from all submitted attempts and
// upserts the snapshot row.
func (s *AnalyticsService) RecomputeSurvey(surveyID uint) error {
	submitted, err := s.Submissions.ListSubmittedBySurvey(surveyID)
	if err != nil {
		return err
	}

	snap := computeSnapshot(surveyID, submitted, time.Now())
	return s.Snapshots.Upsert(snap)
}

func (s *AnalyticsService) GetSnapshot(surveyID uint) (*model.AnalyticsSnapshot, error) {
	return s.Snapshots.FindBySurvey(surveyID)
}

// computeSnapshot folds submitted attempts into one aggregate. Averages and
// the pass rate stay nil when no attempt carries the underlying value.
func computeSnapshot(surveyID uint, submitted []model.Submission, now time.Time) *model.AnalyticsSnapshot {
	snap := &model.AnalyticsSnapshot{
		SurveyID:             surveyID,
		TotalSubmissions:     int64(len(submitted)),
		CompletedSubmissions: int64(len(submitted)),
		LastCalculatedAt:     now,
	}

	var (
		scoreSum   float64
		scoreCount int
		timeSum    float64
		timeCount  int
		passCount  int
		passTotal  int
	)
	for i := range submitted {
		sub := &submitted[i]
		if sub.PercentageScore != nil {
			scoreSum += *sub.PercentageScore
			scoreCount++
		}
		if sub.TimeSpentSeconds != nil {
			timeSum += float64(*sub.TimeSpentSeconds)
			timeCount++
		}
		if sub.Passed != nil {
			passTotal++
			if *sub.Passed {
				passCount++
			}
		}
	}

	if scoreCount > 0 {
		avg := scoreSum / float64(scoreCount)
		snap.AverageScore = &avg
	}
	if timeCount > 0 {
		avg := timeSum / float64(timeCount)
		snap.AverageTimeSpent = &avg
	}
	if passTotal > 0 {
		rate := float64(passCount) / float64(passTotal) * 100
		snap.PassRate = &rate
	}
	return snap
}
