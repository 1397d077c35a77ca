package model

import "time"

// ViolationType tags the detected event class reported by the client.
type ViolationType string

const (
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationWindowBlur     ViolationType = "window_blur"
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
)

// Violation is a persisted anti-cheat event.
type Violation struct {
	ID            int           `json:"id"`
	ParticipantID int           `json:"participant_id"`
	Type          ViolationType `json:"type"`
	DeviceInfo    string        `json:"device_info"`
	RecordedAt    time.Time     `json:"recorded_at"`
}

// ViolationRequest is the client-side violation report payload.
type ViolationRequest struct {
	Type   string `json:"type" binding:"required,oneof=tab_switch window_blur fullscreen_exit"`
	Device string `json:"device" binding:"max=200"`
}

// ViolationReport aggregates violations per participant for the admin view.
type ViolationReport struct {
	ParticipantID int           `json:"participant_id"`
	Name          string        `json:"name"`
	RegisterNo    string        `json:"register_no"`
	Count         int           `json:"count"`
	LastType      ViolationType `json:"last_type"`
	LastAt        time.Time     `json:"last_at"`
}
