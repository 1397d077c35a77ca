package service

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// SettingService manages the global quiz configuration.
type SettingService struct {
	settingRepo *repository.SettingRepository
	rdb         *redis.Client
}

// NewSettingService creates a new SettingService.
func NewSettingService(settingRepo *repository.SettingRepository, rdb *redis.Client) *SettingService {
	return &SettingService{settingRepo: settingRepo, rdb: rdb}
}

// Get returns the current quiz settings.
func (s *SettingService) Get(ctx context.Context) (*model.QuizSetting, error) {
	return s.settingRepo.Get(ctx)
}

// Update replaces the quiz settings and drops the cached paper so the
// next paper request rebuilds from the database.
func (s *SettingService) Update(ctx context.Context, req *model.UpdateSettingsRequest) (*model.QuizSetting, error) {
	if err := s.settingRepo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}

	_ = s.rdb.Del(ctx, config.CacheKey.QuizPaperKey(), config.CacheKey.AnswerKeyKey()).Err()

	return s.settingRepo.Get(ctx)
}
