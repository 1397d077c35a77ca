package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartquiz/quizrun-backend/internal/model"
)

// SettingRepository handles the single global quiz settings row.
type SettingRepository struct {
	pool *pgxpool.Pool
}

// NewSettingRepository creates a new SettingRepository.
func NewSettingRepository(pool *pgxpool.Pool) *SettingRepository {
	return &SettingRepository{pool: pool}
}

// Get retrieves the quiz settings. The migrations seed the row, so it
// always exists.
func (r *SettingRepository) Get(ctx context.Context) (*model.QuizSetting, error) {
	s := &model.QuizSetting{}
	err := r.pool.QueryRow(ctx,
		`SELECT duration_minutes, is_active, start_time, end_time, max_violations, updated_at
		 FROM quiz_settings WHERE id = 1`,
	).Scan(&s.DurationMinutes, &s.IsActive, &s.StartTime, &s.EndTime, &s.MaxViolations, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the quiz settings.
func (r *SettingRepository) Update(ctx context.Context, req *model.UpdateSettingsRequest) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE quiz_settings
		 SET duration_minutes = $1, is_active = $2, start_time = $3, end_time = $4, max_violations = $5, updated_at = NOW()
		 WHERE id = 1`,
		req.DurationMinutes, req.IsActive, req.StartTime, req.EndTime, req.MaxViolations,
	)
	return err
}
