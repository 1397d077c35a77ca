package engine

import "context"

// ViolationType tags a detected suspicious browser-environment event.
type ViolationType string

const (
	ViolationTabSwitch      ViolationType = "tab_switch"
	ViolationWindowBlur     ViolationType = "window_blur"
	ViolationFullscreenExit ViolationType = "fullscreen_exit"
)

// Violation is a single detected event reported to the server.
type Violation struct {
	Type   ViolationType `json:"type"`
	Device string        `json:"device"`
}

// Submission is the final payload sent exactly once per session.
type Submission struct {
	Answers       map[string]string `json:"answers"`
	TimeTaken     int               `json:"time_taken"`
	AutoSubmitted bool              `json:"auto_submitted"`
	Reason        Reason            `json:"reason"`
}

// AnswerStore accepts periodic snapshots of the full answer set.
// Persistence is best-effort; the engine swallows errors.
type AnswerStore interface {
	SaveAnswers(ctx context.Context, answers map[string]string) error
}

// ViolationReporter accepts a violation event and returns whether the
// server demands an immediate forced submission.
type ViolationReporter interface {
	Report(ctx context.Context, v Violation) (autoSubmit bool, err error)
}

// SubmissionService accepts the final answer set and produces the
// post-quiz redirect target.
type SubmissionService interface {
	Submit(ctx context.Context, sub Submission) (redirect string, err error)
}
