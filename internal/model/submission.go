package model

import "time"

// Submission is a graded final answer set for one participant.
type Submission struct {
	ID            int               `json:"id"`
	ParticipantID int               `json:"participant_id"`
	Score         int               `json:"score"`
	TotalMarks    int               `json:"total_marks"`
	TimeTaken     int               `json:"time_taken"`
	AutoSubmitted bool              `json:"auto_submitted"`
	Reason        string            `json:"reason"`
	Answers       map[string]string `json:"answers"`
	SubmittedAt   time.Time         `json:"submitted_at"`
}

// SubmitRequest is the final submission payload from the session engine.
type SubmitRequest struct {
	Answers       map[string]string `json:"answers" binding:"required"`
	TimeTaken     int               `json:"time_taken" binding:"min=0"`
	AutoSubmitted bool              `json:"auto_submitted"`
	Reason        string            `json:"reason" binding:"omitempty,oneof=user time_expired violations"`
}

// SaveAnswersRequest is the debounced autosave payload: always the full
// current answer set, never a diff.
type SaveAnswersRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// LeaderboardRow is one public leaderboard entry.
type LeaderboardRow struct {
	Name        string    `json:"name"`
	RegisterNo  string    `json:"register_no"`
	Score       int       `json:"score"`
	TotalMarks  int       `json:"total_marks"`
	TimeTaken   int       `json:"time_taken"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Result is a participant's own outcome view.
type Result struct {
	Name          string    `json:"name"`
	RegisterNo    string    `json:"register_no"`
	Score         int       `json:"score"`
	TotalMarks    int       `json:"total_marks"`
	Percent       float64   `json:"percent"`
	Rank          int       `json:"rank"`
	TimeTaken     int       `json:"time_taken"`
	AutoSubmitted bool      `json:"auto_submitted"`
	Violations    int       `json:"violations"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
