package engine

// OnVisibilityHidden handles the page/tab losing visibility.
func (s *Session) OnVisibilityHidden() {
	s.recordViolation(ViolationTabSwitch)
}

// OnFullscreenExit handles leaving fullscreen while the session is active.
func (s *Session) OnFullscreenExit() {
	s.recordViolation(ViolationFullscreenExit)
}

// OnWindowBlur starts the 500ms debounce window. Transient focus changes
// (opening a native file dialog, for instance) fire blur without a real
// tab switch, so the violation only counts if focus has not returned
// before the window elapses.
func (s *Session) OnWindowBlur() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	stopTimer(s.blurTimer)
	s.blurTimer = s.sched.AfterFunc(blurDebounce, func() {
		s.recordViolation(ViolationWindowBlur)
	})
}

// OnWindowFocus cancels a pending blur confirmation.
func (s *Session) OnWindowFocus() {
	s.mu.Lock()
	defer s.mu.Unlock()
	stopTimer(s.blurTimer)
	s.blurTimer = nil
}

// recordViolation increments the count, updates the banner, and reports
// the event. The count only ever moves while the session is active, so it
// is monotonically non-decreasing for the session lifetime.
func (s *Session) recordViolation(t ViolationType) {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	s.violations++
	count := s.violations
	s.display.ShowViolation(count, s.cfg.MaxViolations)
	s.mu.Unlock()

	autoSubmit, err := s.reporter.Report(s.ctx, Violation{Type: t, Device: s.cfg.Device})
	if err != nil {
		s.log.Warn().Err(err).Str("type", string(t)).Int("count", count).Msg("Violation report failed")
		// Local fallback policy: the server being unreachable must not
		// keep the session alive once the local threshold is breached.
		if count >= s.cfg.MaxViolations {
			s.beginSubmission(true, ReasonViolations)
		}
		return
	}

	if autoSubmit {
		s.display.DismissViolationBanner()
		s.beginSubmission(true, ReasonViolations)
	}
}
