package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// ErrAlreadySubmitted rejects a second submission for the same participant.
var ErrAlreadySubmitted = errors.New("participant has already submitted")

// submitGrace is how far past the allowed duration the server accepts a
// submission as user-initiated before forcing the auto-submitted flag.
// It absorbs network latency on the final request.
const submitGrace = 30 * time.Second

// SubmissionService grades and stores final submissions. Scoring is
// entirely server-side: the client payload carries selections only.
type SubmissionService struct {
	participantRepo *repository.ParticipantRepository
	questionRepo    *repository.QuestionRepository
	submissionRepo  *repository.SubmissionRepository
	answerRepo      *repository.AnswerRepository
	settingRepo     *repository.SettingRepository
	rdb             *redis.Client
	monitor         *MonitorService
	redirectURL     string
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	participantRepo *repository.ParticipantRepository,
	questionRepo *repository.QuestionRepository,
	submissionRepo *repository.SubmissionRepository,
	answerRepo *repository.AnswerRepository,
	settingRepo *repository.SettingRepository,
	rdb *redis.Client,
	monitor *MonitorService,
	redirectURL string,
) *SubmissionService {
	return &SubmissionService{
		participantRepo: participantRepo,
		questionRepo:    questionRepo,
		submissionRepo:  submissionRepo,
		answerRepo:      answerRepo,
		settingRepo:     settingRepo,
		rdb:             rdb,
		monitor:         monitor,
		redirectURL:     redirectURL,
	}
}

// SubmitResult is the response to a final submission.
type SubmitResult struct {
	Score         int    `json:"score"`
	TotalMarks    int    `json:"total_marks"`
	AutoSubmitted bool   `json:"auto_submitted"`
	Redirect      string `json:"redirect"`
}

// Submit grades and stores a participant's final answers. The server
// clock is authoritative: a submission arriving after the allowed
// duration plus grace is recorded as auto-submitted regardless of what
// the client claims.
func (s *SubmissionService) Submit(ctx context.Context, participantID int, req *model.SubmitRequest) (*SubmitResult, error) {
	exists, err := s.submissionRepo.Exists(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("check submission: %w", err)
	}
	if exists {
		return nil, ErrAlreadySubmitted
	}

	setting, err := s.settingRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	now := time.Now()
	allowed := time.Duration(setting.DurationMinutes) * time.Minute

	autoSubmitted := req.AutoSubmitted
	reason := req.Reason
	timeTaken := req.TimeTaken

	startedAt, err := s.attemptStart(ctx, participantID)
	if err == nil {
		elapsed := now.Sub(startedAt)
		if elapsed > allowed+submitGrace {
			autoSubmitted = true
			if reason == "" || reason == "user" {
				reason = "time_expired"
			}
		}
		// Never trust a client-reported duration longer than the wall clock.
		if serverSeconds := int(elapsed.Seconds()); timeTaken > serverSeconds {
			timeTaken = serverSeconds
		}
	}
	if reason == "" {
		reason = "user"
	}

	key, err := s.answerKey(ctx)
	if err != nil {
		return nil, err
	}

	score, totalMarks := gradeAnswers(req.Answers, key)

	sub := &model.Submission{
		ParticipantID: participantID,
		Score:         score,
		TotalMarks:    totalMarks,
		TimeTaken:     timeTaken,
		AutoSubmitted: autoSubmitted,
		Reason:        reason,
		Answers:       req.Answers,
		SubmittedAt:   now,
	}

	if _, err := s.submissionRepo.Insert(ctx, sub); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race against a concurrent submit from the same
			// participant. The first one stands.
			return nil, ErrAlreadySubmitted
		}
		return nil, fmt.Errorf("insert submission: %w", err)
	}

	if err := s.participantRepo.MarkCompleted(ctx, participantID); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}

	s.cleanupAttempt(ctx, participantID)

	s.monitor.PublishEvent(ctx, MonitorEvent{
		Type:          EventSubmitted,
		ParticipantID: participantID,
		Count:         score,
		At:            now.Unix(),
	})

	return &SubmitResult{
		Score:         score,
		TotalMarks:    totalMarks,
		AutoSubmitted: autoSubmitted,
		Redirect:      s.redirectURL,
	}, nil
}

// gradeAnswers scores a selection map against the answer key. Unknown
// question IDs and malformed selections score zero rather than erroring.
func gradeAnswers(answers map[string]string, key map[int]repository.AnswerKeyEntry) (score, totalMarks int) {
	for _, entry := range key {
		totalMarks += entry.Marks
	}
	for qidStr, selected := range answers {
		qid, err := strconv.Atoi(qidStr)
		if err != nil {
			continue
		}
		entry, ok := key[qid]
		if !ok {
			continue
		}
		if selected == entry.Correct {
			score += entry.Marks
		}
	}
	return score, totalMarks
}

// cleanupAttempt drops the per-attempt Redis state. Failures are
// ignored: keys have no effect once the submission row exists.
func (s *SubmissionService) cleanupAttempt(ctx context.Context, participantID int) {
	_ = s.rdb.Del(ctx,
		config.CacheKey.ParticipantAnswersKey(participantID),
		config.CacheKey.AttemptStartKey(participantID),
		config.CacheKey.QuizTokenKey(participantID),
	).Err()
	_ = s.answerRepo.Delete(ctx, participantID)
}

// attemptStart resolves the attempt start time from Redis with a
// Postgres fallback.
func (s *SubmissionService) attemptStart(ctx context.Context, participantID int) (time.Time, error) {
	startKey := config.CacheKey.AttemptStartKey(participantID)

	val, err := s.rdb.Get(ctx, startKey).Result()
	if errors.Is(err, redis.Nil) {
		startedAt, dbErr := s.participantRepo.GetStartedAt(ctx, participantID)
		if dbErr != nil || startedAt == nil {
			return time.Time{}, errors.New("attempt start unknown")
		}
		return *startedAt, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get attempt start: %w", err)
	}

	unix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time in cache: %w", err)
	}
	return time.Unix(unix, 0), nil
}

// answerKey loads the grading key from Redis, falling back to Postgres
// and self-healing the cache.
func (s *SubmissionService) answerKey(ctx context.Context) (map[int]repository.AnswerKeyEntry, error) {
	cacheKey := config.CacheKey.AnswerKeyKey()

	val, err := s.rdb.Get(ctx, cacheKey).Result()
	if err == nil {
		key := map[int]repository.AnswerKeyEntry{}
		if err := json.Unmarshal([]byte(val), &key); err == nil {
			return key, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get cached answer key: %w", err)
	}

	key, err := s.questionRepo.AnswerKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("load answer key: %w", err)
	}
	if data, err := json.Marshal(key); err == nil {
		_ = s.rdb.Set(ctx, cacheKey, data, 0).Err()
	}
	return key, nil
}
