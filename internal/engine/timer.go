package engine

import (
	"fmt"
	"time"
)

// TimerLevel is a presentation-only signal derived from remaining time.
// It is not a state-machine state.
type TimerLevel int

const (
	LevelNormal TimerLevel = iota
	LevelWarning
	LevelCritical
)

const (
	warningThreshold  = 300 // seconds
	criticalThreshold = 60  // seconds
)

func levelFor(remaining int) TimerLevel {
	switch {
	case remaining <= criticalThreshold:
		return LevelCritical
	case remaining <= warningThreshold:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// FormatRemaining renders a second count as zero-padded MM:SS.
// Negative values clamp to 00:00.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Start begins the recurring one-second tick. Starting an already-running
// session is a no-op, so two concurrent tick streams can never exist.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.tickTimer != nil {
		return
	}
	s.display.UpdateTimer(s.remaining, levelFor(s.remaining))
	s.tickTimer = s.sched.AfterFunc(time.Second, s.tick)
}

// tick decrements remaining time and either reschedules itself or, at
// zero, hands control to the submission transition.
func (s *Session) tick() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}

	s.remaining--
	if s.remaining < 0 {
		s.remaining = 0
	}
	remaining := s.remaining
	s.display.UpdateTimer(remaining, levelFor(remaining))

	if remaining <= 0 {
		s.mu.Unlock()
		s.beginSubmission(true, ReasonTimeExpired)
		return
	}

	s.tickTimer = s.sched.AfterFunc(time.Second, s.tick)
	s.mu.Unlock()
}

// Remaining returns the clamped remaining seconds.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}
