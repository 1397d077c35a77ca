package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// QuestionService handles admin question management. Every mutation
// invalidates the cached paper and answer key.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, rdb *redis.Client) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, rdb: rdb}
}

// List returns every question including inactive ones.
func (s *QuestionService) List(ctx context.Context) ([]model.Question, error) {
	return s.questionRepo.ListAll(ctx)
}

// Get returns a single question.
func (s *QuestionService) Get(ctx context.Context, id int) (*model.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// Create adds a question to the paper.
func (s *QuestionService) Create(ctx context.Context, req *model.UpsertQuestionRequest) (*model.Question, error) {
	id, err := s.questionRepo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.invalidatePaper(ctx)
	return s.questionRepo.GetByID(ctx, id)
}

// Update modifies a question.
func (s *QuestionService) Update(ctx context.Context, id int, req *model.UpsertQuestionRequest) (*model.Question, error) {
	if err := s.questionRepo.Update(ctx, id, req); err != nil {
		return nil, err
	}
	s.invalidatePaper(ctx)
	return s.questionRepo.GetByID(ctx, id)
}

// SetActive toggles a question in or out of the paper.
func (s *QuestionService) SetActive(ctx context.Context, id int, active bool) error {
	if err := s.questionRepo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidatePaper(ctx)
	return nil
}

func (s *QuestionService) invalidatePaper(ctx context.Context) {
	_ = s.rdb.Del(ctx, config.CacheKey.QuizPaperKey(), config.CacheKey.AnswerKeyKey()).Err()
}
