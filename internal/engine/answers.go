package engine

// SelectAnswer records a selection for a question. Repeated selections
// for the same question overwrite (last write wins). Each call restarts
// the 1500ms persistence debounce, so a burst of selections results in a
// single snapshot upload per quiet period.
func (s *Session) SelectAnswer(questionID, option string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}

	s.answers[questionID] = option
	s.display.MarkAnswered(questionID)
	s.updateProgressLocked()

	stopTimer(s.persistTimer)
	s.persistTimer = s.sched.AfterFunc(persistDebounce, s.persistAnswers)
}

// persistAnswers uploads the full current answer set. Failures are
// swallowed: the server reconciles on final submission.
func (s *Session) persistAnswers() {
	s.mu.Lock()
	if s.state != StateActive {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.store.SaveAnswers(s.ctx, snap); err != nil {
		s.log.Debug().Err(err).Int("answers", len(snap)).Msg("Autosave failed")
	}
}

// Navigate switches the active question. Out-of-range targets are
// silently ignored with no state change.
func (s *Session) Navigate(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return
	}
	if index < 1 || index > s.cfg.TotalQuestions {
		return
	}
	s.current = index
	s.display.ShowQuestion(index)
	s.updateProgressLocked()
}

func (s *Session) updateProgressLocked() {
	answered := len(s.answers)
	percent := 0
	if s.cfg.TotalQuestions > 0 {
		percent = answered * 100 / s.cfg.TotalQuestions
	}
	s.display.UpdateProgress(Progress{
		Answered: answered,
		Total:    s.cfg.TotalQuestions,
		Percent:  percent,
		Current:  s.current,
	})
}
