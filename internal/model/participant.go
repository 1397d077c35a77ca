package model

import "time"

// AttemptStatus enumerates a participant's quiz attempt lifecycle.
type AttemptStatus string

const (
	AttemptNotAttempted AttemptStatus = "not_attempted"
	AttemptInProgress   AttemptStatus = "in_progress"
	AttemptCompleted    AttemptStatus = "completed"
)

// Participant represents a registered quiz taker. One attempt is allowed
// per participant.
type Participant struct {
	ID            int           `json:"id"`
	Name          string        `json:"name"`
	RegisterNo    string        `json:"register_no"`
	Email         string        `json:"email"`
	AttemptStatus AttemptStatus `json:"attempt_status"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ParticipantLoginRequest is the payload for participant login/registration.
type ParticipantLoginRequest struct {
	Name       string `json:"name" binding:"required,min=2,max=100"`
	RegisterNo string `json:"register_no" binding:"required,min=1,max=50"`
	Email      string `json:"email" binding:"required,email"`
}
