package model

import "time"

// QuizSetting is the single global quiz configuration row.
type QuizSetting struct {
	DurationMinutes int        `json:"duration_minutes"`
	IsActive        bool       `json:"is_active"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	MaxViolations   int        `json:"max_violations"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Open reports whether the quiz accepts participants at the given instant.
func (s *QuizSetting) Open(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.StartTime != nil && now.Before(*s.StartTime) {
		return false
	}
	if s.EndTime != nil && now.After(*s.EndTime) {
		return false
	}
	return true
}

// UpdateSettingsRequest is the admin payload for quiz window configuration.
type UpdateSettingsRequest struct {
	DurationMinutes int        `json:"duration_minutes" binding:"required,min=1,max=600"`
	IsActive        bool       `json:"is_active"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	MaxViolations   int        `json:"max_violations" binding:"required,min=1,max=100"`
}
