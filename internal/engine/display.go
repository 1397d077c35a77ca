package engine

// Progress summarizes answer/navigation state for the progress indicator.
type Progress struct {
	Answered int
	Total    int
	Percent  int
	Current  int
}

// Display is the presentation boundary. A thin adapter binds these calls
// to the actual page; the engine itself never touches a DOM. All methods
// are invoked with session state already updated and with the session
// lock held: implementations must not call back into Session methods
// (State, Remaining, Answers, ...) or they will deadlock. Adapters that
// need session state should capture the values passed to these calls.
type Display interface {
	// UpdateTimer is called on every tick with the clamped remaining
	// seconds and the presentation level (normal/warning/critical).
	UpdateTimer(remaining int, level TimerLevel)

	// ShowViolation updates the violation banner and counter.
	ShowViolation(count, max int)

	// DismissViolationBanner hides the banner before a forced submission.
	DismissViolationBanner()

	// MarkAnswered flags a question as answered in the navigation grid.
	MarkAnswered(questionID string)

	// ShowQuestion switches the visible question panel.
	ShowQuestion(index int)

	// UpdateProgress refreshes the answered-count indicator.
	UpdateProgress(p Progress)

	// HideSubmitConfirm suppresses the confirmation dialog if visible.
	HideSubmitConfirm()

	// ShowSubmitting displays the submission-in-progress indicator.
	ShowSubmitting()

	// NavigateTo sends the browser to the post-quiz location.
	NavigateTo(url string)
}

// NopDisplay discards all presentation calls.
type NopDisplay struct{}

func (NopDisplay) UpdateTimer(int, TimerLevel) {}
func (NopDisplay) ShowViolation(int, int)      {}
func (NopDisplay) DismissViolationBanner()     {}
func (NopDisplay) MarkAnswered(string)         {}
func (NopDisplay) ShowQuestion(int)            {}
func (NopDisplay) UpdateProgress(Progress)     {}
func (NopDisplay) HideSubmitConfirm()          {}
func (NopDisplay) ShowSubmitting()             {}
func (NopDisplay) NavigateTo(string)           {}
