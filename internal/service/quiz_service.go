package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/engine"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// Quiz lifecycle errors.
var (
	ErrQuizClosed  = errors.New("quiz is not currently open")
	ErrNoQuestions = errors.New("no active questions in the paper")
)

// QuizService handles the participant-facing quiz lifecycle: paper
// delivery, attempt state recovery, and answer autosaving.
type QuizService struct {
	participantRepo *repository.ParticipantRepository
	questionRepo    *repository.QuestionRepository
	answerRepo      *repository.AnswerRepository
	violationRepo   *repository.ViolationRepository
	settingRepo     *repository.SettingRepository
	rdb             *redis.Client
	monitor         *MonitorService
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	participantRepo *repository.ParticipantRepository,
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRepository,
	violationRepo *repository.ViolationRepository,
	settingRepo *repository.SettingRepository,
	rdb *redis.Client,
	monitor *MonitorService,
) *QuizService {
	return &QuizService{
		participantRepo: participantRepo,
		questionRepo:    questionRepo,
		answerRepo:      answerRepo,
		violationRepo:   violationRepo,
		settingRepo:     settingRepo,
		rdb:             rdb,
		monitor:         monitor,
	}
}

// Paper is the full payload a participant needs to start the session:
// questions without answers plus the session parameters.
type Paper struct {
	Questions       []model.PaperQuestion `json:"questions"`
	TotalQuestions  int                   `json:"total_questions"`
	DurationSeconds int                   `json:"duration_seconds"`
	MaxViolations   int                   `json:"max_violations"`
}

// QuizState is the recovery payload for a participant whose page was
// reloaded mid-attempt. It carries everything the session engine needs
// to rebuild: saved answers, authoritative remaining time, violation
// progress, the anti-forgery token, and the hardening directives.
type QuizState struct {
	Answers          Answers   `json:"answers"`
	RemainingSeconds int       `json:"remaining_seconds"`
	ViolationCount   int       `json:"violation_count"`
	MaxViolations    int       `json:"max_violations"`
	QuizToken        string    `json:"quiz_token"`
	Hardening        Hardening `json:"hardening"`
}

// Hardening tells the page adapter which interaction classes to suppress
// while the session is active.
type Hardening struct {
	SuppressedEvents []string `json:"suppressed_events"`
}

// Answers is a question-ID to selected-option map. Question IDs travel
// as strings because they are JSON object keys.
type Answers = map[string]string

// GetPaper returns the question paper and starts the participant's
// attempt clock on first delivery. The paper itself is cached in Redis
// so a hall full of participants does not stampede Postgres.
func (s *QuizService) GetPaper(ctx context.Context, participantID int) (*Paper, error) {
	setting, err := s.settingRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if !setting.Open(time.Now()) {
		return nil, ErrQuizClosed
	}

	p, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if p.AttemptStatus == model.AttemptCompleted {
		return nil, ErrAlreadySubmitted
	}

	questions, err := s.cachedPaper(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	if p.AttemptStatus == model.AttemptNotAttempted {
		if err := s.startAttempt(ctx, participantID); err != nil {
			return nil, err
		}
	}

	return &Paper{
		Questions:       questions,
		TotalQuestions:  len(questions),
		DurationSeconds: setting.DurationMinutes * 60,
		MaxViolations:   setting.MaxViolations,
	}, nil
}

// startAttempt records the attempt start in Postgres and mirrors the
// Unix timestamp into Redis so state reads stay off the database.
func (s *QuizService) startAttempt(ctx context.Context, participantID int) error {
	startedAt := time.Now()
	if err := s.participantRepo.MarkStarted(ctx, participantID, startedAt); err != nil {
		return fmt.Errorf("mark started: %w", err)
	}

	startKey := config.CacheKey.AttemptStartKey(participantID)
	if err := s.rdb.Set(ctx, startKey, startedAt.Unix(), 0).Err(); err != nil {
		// The state endpoint falls back to Postgres, so a cache write
		// failure is not fatal here.
		return nil
	}

	s.monitor.PublishEvent(ctx, MonitorEvent{
		Type:          EventAttemptStarted,
		ParticipantID: participantID,
		At:            startedAt.Unix(),
	})
	return nil
}

// GetState rebuilds a participant's session after a page reload: saved
// answers, authoritative remaining time, and the violation count.
func (s *QuizService) GetState(ctx context.Context, participantID int) (*QuizState, error) {
	answers, err := s.savedAnswers(ctx, participantID)
	if err != nil {
		return nil, err
	}

	startedAt, err := s.attemptStart(ctx, participantID)
	if err != nil {
		return nil, err
	}

	setting, err := s.settingRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	endTime := startedAt.Add(time.Duration(setting.DurationMinutes) * time.Minute)
	remaining := time.Until(endTime)
	if remaining < 0 {
		remaining = 0
	}

	violations, err := s.violationCount(ctx, participantID)
	if err != nil {
		return nil, err
	}

	quizToken, err := s.quizToken(ctx, participantID)
	if err != nil {
		return nil, err
	}

	return &QuizState{
		Answers:          answers,
		RemainingSeconds: int(remaining.Seconds()),
		ViolationCount:   violations,
		MaxViolations:    setting.MaxViolations,
		QuizToken:        quizToken,
		Hardening:        Hardening{SuppressedEvents: engine.SuppressedEvents()},
	}, nil
}

// quizToken returns the participant's anti-forgery token so a reloaded
// page can resume posting. Missing token means the session was cleaned
// up; the client must log in again before writing.
func (s *QuizService) quizToken(ctx context.Context, participantID int) (string, error) {
	val, err := s.rdb.Get(ctx, config.CacheKey.QuizTokenKey(participantID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get quiz token: %w", err)
	}
	return val, nil
}

// SaveAnswers stores the autosave snapshot in Redis and queues it for
// asynchronous persistence to Postgres. The client always sends the
// full answer set, so the snapshot simply replaces the previous one.
func (s *QuizService) SaveAnswers(ctx context.Context, participantID int, answers Answers) error {
	key := config.CacheKey.ParticipantAnswersKey(participantID)

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, key)
	if len(answers) > 0 {
		flat := make(map[string]interface{}, len(answers))
		for q, a := range answers {
			flat[q] = a
		}
		pipe.HSet(ctx, key, flat)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache answers: %w", err)
	}

	payload, err := json.Marshal(answersPayload{ParticipantID: participantID, Answers: answers})
	if err != nil {
		return fmt.Errorf("marshal answers payload: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, payload).Err(); err != nil {
		return fmt.Errorf("queue answers: %w", err)
	}

	s.monitor.PublishEvent(ctx, MonitorEvent{
		Type:          EventAnswersSaved,
		ParticipantID: participantID,
		Count:         len(answers),
		At:            time.Now().Unix(),
	})
	return nil
}

// answersPayload is the queue message consumed by the autosave worker.
type answersPayload struct {
	ParticipantID int     `json:"participant_id"`
	Answers       Answers `json:"answers"`
}

// cachedPaper loads the participant paper from Redis, falling back to
// Postgres and self-healing the cache on a miss.
func (s *QuizService) cachedPaper(ctx context.Context) ([]model.PaperQuestion, error) {
	key := config.CacheKey.QuizPaperKey()

	val, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		var questions []model.PaperQuestion
		if err := json.Unmarshal([]byte(val), &questions); err == nil {
			return questions, nil
		}
		// Corrupt cache entry, rebuild below.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get cached paper: %w", err)
	}

	full, err := s.questionRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	questions := make([]model.PaperQuestion, 0, len(full))
	for i := range full {
		questions = append(questions, full[i].Paper())
	}

	if data, err := json.Marshal(questions); err == nil {
		_ = s.rdb.Set(ctx, key, data, 0).Err()
	}
	return questions, nil
}

// savedAnswers reads the autosave snapshot from Redis, falling back to
// the persisted snapshot when the cache is empty.
func (s *QuizService) savedAnswers(ctx context.Context, participantID int) (Answers, error) {
	key := config.CacheKey.ParticipantAnswersKey(participantID)
	answers, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get cached answers: %w", err)
	}
	if len(answers) > 0 {
		return answers, nil
	}

	persisted, err := s.answerRepo.Get(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("get persisted answers: %w", err)
	}
	return persisted, nil
}

// attemptStart resolves the attempt start time from Redis with a
// Postgres fallback, self-healing the cache on a miss.
func (s *QuizService) attemptStart(ctx context.Context, participantID int) (time.Time, error) {
	startKey := config.CacheKey.AttemptStartKey(participantID)

	val, err := s.rdb.Get(ctx, startKey).Result()
	if errors.Is(err, redis.Nil) {
		startedAt, dbErr := s.participantRepo.GetStartedAt(ctx, participantID)
		if dbErr != nil {
			return time.Time{}, fmt.Errorf("attempt start not found: %w", dbErr)
		}
		if startedAt == nil {
			return time.Time{}, errors.New("attempt has not started")
		}
		_ = s.rdb.Set(ctx, startKey, startedAt.Unix(), 0)
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

// violationCount reads the live counter from Redis with a Postgres fallback.
func (s *QuizService) violationCount(ctx context.Context, participantID int) (int, error) {
	key := config.CacheKey.ViolationCountKey(participantID)
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		count, dbErr := s.violationRepo.CountByParticipant(ctx, participantID)
		if dbErr != nil {
			return 0, fmt.Errorf("count violations: %w", dbErr)
		}
		if count > 0 {
			_ = s.rdb.Set(ctx, key, count, 0)
		}
		return count, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get violation count: %w", err)
	}

	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid violation count in cache: %w", err)
	}
	return count, nil
}
