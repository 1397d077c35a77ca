package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// Monitor event types published on the Redis channel.
const (
	EventAttemptStarted = "attempt_started"
	EventAnswersSaved   = "answers_saved"
	EventViolation      = "violation"
	EventSubmitted      = "submitted"
)

// MonitorEvent is the live activity record streamed to the admin monitor.
type MonitorEvent struct {
	Type          string `json:"type"`
	ParticipantID int    `json:"participant_id"`
	Detail        string `json:"detail,omitempty"`
	Count         int    `json:"count,omitempty"`
	At            int64  `json:"at"`
}

// MonitorService fans live quiz activity out to admin dashboards over
// Redis pub/sub, and aggregates the dashboard snapshot.
type MonitorService struct {
	participantRepo *repository.ParticipantRepository
	submissionRepo  *repository.SubmissionRepository
	violationRepo   *repository.ViolationRepository
	questionRepo    *repository.QuestionRepository
	rdb             *redis.Client
	log             zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	participantRepo *repository.ParticipantRepository,
	submissionRepo *repository.SubmissionRepository,
	violationRepo *repository.ViolationRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *MonitorService {
	return &MonitorService{
		participantRepo: participantRepo,
		submissionRepo:  submissionRepo,
		violationRepo:   violationRepo,
		questionRepo:    questionRepo,
		rdb:             rdb,
		log:             log.With().Str("component", "monitor_service").Logger(),
	}
}

// PublishEvent pushes an event to the monitor channel. Publishing is
// best-effort: a failure is logged but never propagates to the caller,
// because the participant's request must not fail over a dashboard feed.
func (s *MonitorService) PublishEvent(ctx context.Context, event MonitorEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal monitor event")
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.MonitorChannel(), data).Err(); err != nil {
		s.log.Warn().Err(err).Str("type", event.Type).Msg("Publish monitor event failed")
	}
}

// Subscribe opens a subscription on the monitor channel. The caller
// owns the returned PubSub and must Close it.
func (s *MonitorService) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, config.CacheKey.MonitorChannel())
}

// DashboardSnapshot aggregates the headline numbers for the admin dashboard.
type DashboardSnapshot struct {
	Participants     map[model.AttemptStatus]int `json:"participants"`
	Submissions      int                         `json:"submissions"`
	AverageScore     float64                     `json:"average_score"`
	AutoSubmissions  int                         `json:"auto_submissions"`
	RecentViolations int                         `json:"recent_violations"`
	ActiveQuestions  int                         `json:"active_questions"`
}

// GetDashboard fetches the dashboard aggregates. The independent
// queries run concurrently to keep the endpoint snappy under refresh.
func (s *MonitorService) GetDashboard(ctx context.Context) (*DashboardSnapshot, error) {
	snapshot := &DashboardSnapshot{}

	var (
		wg                                     sync.WaitGroup
		statusErr, statsErr, violErr, questErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.Participants, statusErr = s.participantRepo.CountByStatus(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.Submissions, snapshot.AverageScore, snapshot.AutoSubmissions, statsErr = s.submissionRepo.Stats(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.RecentViolations, violErr = s.violationRepo.CountSince(ctx, time.Now().Add(-5*time.Minute))
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot.ActiveQuestions, questErr = s.questionRepo.CountActive(ctx)
	}()

	wg.Wait()

	// Participant and submission numbers are the headline; the rest is
	// best-effort.
	if statusErr != nil {
		return nil, statusErr
	}
	if statsErr != nil {
		return nil, statsErr
	}
	if violErr != nil {
		s.log.Warn().Err(violErr).Msg("Recent violations count failed")
	}
	if questErr != nil {
		s.log.Warn().Err(questErr).Msg("Active question count failed")
	}

	return snapshot, nil
}
