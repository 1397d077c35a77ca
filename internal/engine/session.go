// Package engine implements the quiz session state machine: countdown
// timing, violation tracking, incremental answer persistence, and the
// single irrevocable submission transition. The engine owns all mutable
// session state and talks to the server only through the collaborator
// interfaces, so it can be driven headlessly by any event adapter.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// State is the submission lifecycle. Transitions are one-directional:
// active → submitting → submitted. No other edge is valid.
type State int

const (
	StateActive State = iota
	StateSubmitting
	StateSubmitted
)

// Reason records what triggered the submission transition.
type Reason string

const (
	ReasonUser        Reason = "user"
	ReasonTimeExpired Reason = "time_expired"
	ReasonViolations  Reason = "violations"
)

const (
	blurDebounce        = 500 * time.Millisecond
	persistDebounce     = 1500 * time.Millisecond
	submitFallbackDelay = 2 * time.Second
	maxDeviceLen        = 200
)

// Config is the immutable session configuration injected at creation.
// It is never mutated after construction.
type Config struct {
	TotalQuestions  int
	MaxViolations   int
	DurationSeconds int
	// Token is the anti-forgery token forwarded on every collaborator
	// request. The engine never fetches it itself.
	Token string
	// Device is the client environment fingerprint attached to violation
	// reports, clamped to 200 characters.
	Device string
	// ResultsURL is the fallback redirect used when the submission
	// request cannot be confirmed.
	ResultsURL string
}

// Deps bundles the engine's collaborators. Store, Reporter and Submitter
// are required; the rest default to system implementations.
type Deps struct {
	Store     AnswerStore
	Reporter  ViolationReporter
	Submitter SubmissionService
	Display   Display
	Clock     Clock
	Scheduler Scheduler
	Log       zerolog.Logger
}

// Session is the single live instance for one participant's attempt.
// All mutation goes through its methods; the mutex stands in for the
// browser's single-threaded event loop, and every entry point checks the
// submission guard before touching state.
type Session struct {
	cfg       Config
	store     AnswerStore
	reporter  ViolationReporter
	submitter SubmissionService
	display   Display
	clock     Clock
	sched     Scheduler
	log       zerolog.Logger
	ctx       context.Context

	mu         sync.Mutex
	state      State
	answers    map[string]string
	current    int
	violations int
	remaining  int
	startedAt  time.Time

	tickTimer    Timer
	persistTimer Timer
	blurTimer    Timer
}

// NewSession constructs a session in the active state. The start
// timestamp is captured here, once, and later used to compute elapsed
// time independent of timer drift.
func NewSession(ctx context.Context, cfg Config, deps Deps) *Session {
	if deps.Display == nil {
		deps.Display = NopDisplay{}
	}
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = systemScheduler{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if len(cfg.Device) > maxDeviceLen {
		cfg.Device = cfg.Device[:maxDeviceLen]
	}

	return &Session{
		cfg:       cfg,
		store:     deps.Store,
		reporter:  deps.Reporter,
		submitter: deps.Submitter,
		display:   deps.Display,
		clock:     deps.Clock,
		sched:     deps.Scheduler,
		log:       deps.Log.With().Str("component", "quiz_engine").Logger(),
		ctx:       ctx,
		state:     StateActive,
		answers:   make(map[string]string),
		current:   1,
		remaining: cfg.DurationSeconds,
		startedAt: deps.Clock.Now(),
	}
}

// State returns the current submission lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ViolationCount returns the accumulated violation count.
func (s *Session) ViolationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violations
}

// CurrentQuestion returns the 1-based active question index.
func (s *Session) CurrentQuestion() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Answers returns a copy of the current answer set.
func (s *Session) Answers() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() map[string]string {
	snap := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		snap[k] = v
	}
	return snap
}

// SubmitRequested begins submission after explicit user confirmation.
func (s *Session) SubmitRequested() {
	s.beginSubmission(false, ReasonUser)
}

// beginSubmission is the only entry into the submitting state. Re-entrant
// calls while already submitting or submitted are no-ops, which is what
// guarantees at most one submission request per session even when the
// timer hits zero on the same tick a violation threshold is breached.
func (s *Session) beginSubmission(auto bool, reason Reason) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.state = StateSubmitting

	stopTimer(s.tickTimer)
	stopTimer(s.persistTimer)
	stopTimer(s.blurTimer)
	s.tickTimer, s.persistTimer, s.blurTimer = nil, nil, nil

	s.display.HideSubmitConfirm()
	s.display.ShowSubmitting()

	sub := Submission{
		Answers:       s.snapshotLocked(),
		TimeTaken:     int(s.clock.Now().Sub(s.startedAt) / time.Second),
		AutoSubmitted: auto,
		Reason:        reason,
	}
	s.mu.Unlock()

	redirect, err := s.submitter.Submit(s.ctx, sub)

	s.mu.Lock()
	s.state = StateSubmitted
	s.mu.Unlock()

	if err != nil {
		// Never strand the participant on a dead submission screen:
		// after a fixed delay, redirect regardless of acknowledgment.
		s.log.Warn().Err(err).Str("reason", string(reason)).Msg("Submission failed, scheduling fallback redirect")
		s.sched.AfterFunc(submitFallbackDelay, func() {
			s.display.NavigateTo(s.cfg.ResultsURL)
		})
		return
	}

	s.log.Info().
		Str("reason", string(reason)).
		Bool("auto", auto).
		Int("time_taken", sub.TimeTaken).
		Msg("Submission accepted")
	s.display.NavigateTo(redirect)
}
