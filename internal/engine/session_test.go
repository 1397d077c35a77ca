package engine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smartquiz/quizrun-backend/internal/engine"
)

// virtualTime implements engine.Clock and engine.Scheduler with manually
// advanced time, so debounce windows and tick streams run deterministically.
type virtualTime struct {
	mu    sync.Mutex
	now   time.Time
	tasks []*virtualTimer
}

type virtualTimer struct {
	vt      *virtualTime
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newVirtualTime() *virtualTime {
	return &virtualTime{now: time.Unix(1700000000, 0)}
}

func (v *virtualTime) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *virtualTime) AfterFunc(d time.Duration, fn func()) engine.Timer {
	v.mu.Lock()
	defer v.mu.Unlock()
	t := &virtualTimer{vt: v, at: v.now.Add(d), fn: fn}
	v.tasks = append(v.tasks, t)
	return t
}

func (t *virtualTimer) Stop() bool {
	t.vt.mu.Lock()
	defer t.vt.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves virtual time forward, firing due tasks in timestamp order.
// Tasks scheduled by fired callbacks are honored within the same advance.
func (v *virtualTime) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	for {
		var next *virtualTimer
		for _, t := range v.tasks {
			if t.fired || t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			break
		}
		v.now = next.at
		next.fired = true
		fn := next.fn
		v.mu.Unlock()
		fn()
		v.mu.Lock()
	}
	v.now = target
	v.mu.Unlock()
}

// ─── Collaborator stubs ─────────────────────────────────────────────

type stubStore struct {
	mu        sync.Mutex
	snapshots []map[string]string
	err       error
}

func (s *stubStore) SaveAnswers(_ context.Context, answers map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]string, len(answers))
	for k, v := range answers {
		snap[k] = v
	}
	s.snapshots = append(s.snapshots, snap)
	return s.err
}

func (s *stubStore) calls() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots
}

type stubReporter struct {
	mu      sync.Mutex
	reports []engine.Violation
	// respond is called with the 1-based report number.
	respond func(n int, v engine.Violation) (bool, error)
}

func (r *stubReporter) Report(_ context.Context, v engine.Violation) (bool, error) {
	r.mu.Lock()
	r.reports = append(r.reports, v)
	n := len(r.reports)
	r.mu.Unlock()
	if r.respond == nil {
		return false, nil
	}
	return r.respond(n, v)
}

func (r *stubReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

type stubSubmitter struct {
	mu          sync.Mutex
	submissions []engine.Submission
	redirect    string
	err         error
}

func (s *stubSubmitter) Submit(_ context.Context, sub engine.Submission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)
	return s.redirect, s.err
}

func (s *stubSubmitter) calls() []engine.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissions
}

type recordingDisplay struct {
	engine.NopDisplay
	mu           sync.Mutex
	timerUpdates []int
	navigations  []string
	submitting   bool
	dismissed    bool
}

func (d *recordingDisplay) UpdateTimer(remaining int, _ engine.TimerLevel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timerUpdates = append(d.timerUpdates, remaining)
}

func (d *recordingDisplay) ShowSubmitting() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = true
}

func (d *recordingDisplay) DismissViolationBanner() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dismissed = true
}

func (d *recordingDisplay) NavigateTo(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.navigations = append(d.navigations, url)
}

// ─── Harness ────────────────────────────────────────────────────────

type harness struct {
	vt        *virtualTime
	store     *stubStore
	reporter  *stubReporter
	submitter *stubSubmitter
	display   *recordingDisplay
	session   *engine.Session
}

func newHarness(t *testing.T, cfg engine.Config) *harness {
	t.Helper()
	h := &harness{
		vt:        newVirtualTime(),
		store:     &stubStore{},
		reporter:  &stubReporter{},
		submitter: &stubSubmitter{redirect: "/result"},
		display:   &recordingDisplay{},
	}
	h.session = engine.NewSession(context.Background(), cfg, engine.Deps{
		Store:     h.store,
		Reporter:  h.reporter,
		Submitter: h.submitter,
		Display:   h.display,
		Clock:     h.vt,
		Scheduler: h.vt,
	})
	return h
}

func defaultConfig() engine.Config {
	return engine.Config{
		TotalQuestions:  10,
		MaxViolations:   3,
		DurationSeconds: 600,
		Token:           "tok",
		Device:          "Mozilla/5.0 test agent",
		ResultsURL:      "/result",
	}
}

// ─── Answer tracking ────────────────────────────────────────────────

func TestSelectAnswerLastWriteWins(t *testing.T) {
	h := newHarness(t, defaultConfig())

	h.session.SelectAnswer("q1", "A")
	h.session.SelectAnswer("q2", "B")
	h.session.SelectAnswer("q1", "C")
	h.session.SelectAnswer("q1", "D")

	got := h.session.Answers()
	if len(got) != 2 {
		t.Fatalf("answers = %v, want exactly 2 entries", got)
	}
	if got["q1"] != "D" || got["q2"] != "B" {
		t.Errorf("answers = %v, want q1=D q2=B", got)
	}
}

func TestDebouncedPersistence(t *testing.T) {
	h := newHarness(t, defaultConfig())

	// Selections at t=0ms, t=500ms, t=1999ms: each restarts the 1500ms
	// delay, so exactly one snapshot fires at ~3499ms. The third
	// selection lands strictly inside the quiet window; a selection
	// arriving exactly at expiry races the timer and may observe the
	// snapshot it meant to preempt.
	h.session.SelectAnswer("q1", "A")
	h.vt.Advance(500 * time.Millisecond)
	h.session.SelectAnswer("q2", "B")
	h.vt.Advance(1499 * time.Millisecond)
	h.session.SelectAnswer("q1", "C")

	if n := len(h.store.calls()); n != 0 {
		t.Fatalf("persistence fired %d times before quiet period elapsed", n)
	}

	h.vt.Advance(1500 * time.Millisecond)

	calls := h.store.calls()
	if len(calls) != 1 {
		t.Fatalf("persistence fired %d times, want exactly 1", len(calls))
	}
	want := map[string]string{"q1": "C", "q2": "B"}
	if calls[0]["q1"] != want["q1"] || calls[0]["q2"] != want["q2"] || len(calls[0]) != 2 {
		t.Errorf("snapshot = %v, want %v", calls[0], want)
	}

	// No further calls in a later quiet period without new selections.
	h.vt.Advance(10 * time.Second)
	if n := len(h.store.calls()); n != 1 {
		t.Errorf("persistence fired %d times total, want 1", n)
	}
}

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.store.err = errors.New("network down")

	h.session.SelectAnswer("q1", "A")
	h.vt.Advance(2 * time.Second)

	if got := h.session.State(); got != engine.StateActive {
		t.Errorf("state after failed autosave = %v, want active", got)
	}
}

func TestNavigateBounds(t *testing.T) {
	h := newHarness(t, defaultConfig())

	h.session.Navigate(5)
	if got := h.session.CurrentQuestion(); got != 5 {
		t.Fatalf("current = %d, want 5", got)
	}

	h.session.Navigate(0)
	h.session.Navigate(11)
	h.session.Navigate(-3)
	if got := h.session.CurrentQuestion(); got != 5 {
		t.Errorf("current after out-of-range navigation = %d, want 5", got)
	}
}

// ─── Timer ──────────────────────────────────────────────────────────

func TestStartIsIdempotent(t *testing.T) {
	h := newHarness(t, defaultConfig())

	h.session.Start()
	h.session.Start()
	h.vt.Advance(1 * time.Second)

	if got := h.session.Remaining(); got != 599 {
		t.Errorf("remaining after 1s with double Start = %d, want 599 (single tick stream)", got)
	}
}

func TestTimeExpiredSubmission(t *testing.T) {
	cfg := defaultConfig()
	cfg.DurationSeconds = 1
	h := newHarness(t, cfg)

	h.session.SelectAnswer("q1", "A")
	h.session.Start()
	h.vt.Advance(1 * time.Second)

	subs := h.submitter.calls()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if !subs[0].AutoSubmitted || subs[0].Reason != engine.ReasonTimeExpired {
		t.Errorf("submission = %+v, want autoSubmitted with reason time_expired", subs[0])
	}
	if subs[0].Answers["q1"] != "A" {
		t.Errorf("submitted answers = %v, want q1=A", subs[0].Answers)
	}
	if got := h.session.Remaining(); got != 0 {
		t.Errorf("remaining = %d, want exactly 0", got)
	}

	// Timer must be stopped: no further ticks observed.
	before := len(h.display.timerUpdates)
	h.vt.Advance(10 * time.Second)
	if after := len(h.display.timerUpdates); after != before {
		t.Errorf("observed %d ticks after submission", after-before)
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	cfg := defaultConfig()
	cfg.DurationSeconds = 3
	h := newHarness(t, cfg)

	h.session.Start()
	h.vt.Advance(30 * time.Second)

	if got := h.session.Remaining(); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
	for _, r := range h.display.timerUpdates {
		if r < 0 {
			t.Fatalf("displayed negative remaining %d", r)
		}
	}
}

// ─── Violations ─────────────────────────────────────────────────────

func TestViolationReportPayload(t *testing.T) {
	cfg := defaultConfig()
	cfg.Device = strings.Repeat("x", 500)
	h := newHarness(t, cfg)

	h.session.OnVisibilityHidden()

	if h.reporter.count() != 1 {
		t.Fatalf("reports = %d, want 1", h.reporter.count())
	}
	v := h.reporter.reports[0]
	if v.Type != engine.ViolationTabSwitch {
		t.Errorf("type = %q, want tab_switch", v.Type)
	}
	if len(v.Device) != 200 {
		t.Errorf("device fingerprint length = %d, want clamped to 200", len(v.Device))
	}
}

func TestBlurDebounce(t *testing.T) {
	h := newHarness(t, defaultConfig())

	// Focus returns inside the 500ms window: no violation.
	h.session.OnWindowBlur()
	h.vt.Advance(300 * time.Millisecond)
	h.session.OnWindowFocus()
	h.vt.Advance(1 * time.Second)
	if got := h.session.ViolationCount(); got != 0 {
		t.Fatalf("violations after cancelled blur = %d, want 0", got)
	}

	// Focus never returns: one window_blur violation.
	h.session.OnWindowBlur()
	h.vt.Advance(500 * time.Millisecond)
	if got := h.session.ViolationCount(); got != 1 {
		t.Fatalf("violations after confirmed blur = %d, want 1", got)
	}
	if h.reporter.reports[0].Type != engine.ViolationWindowBlur {
		t.Errorf("type = %q, want window_blur", h.reporter.reports[0].Type)
	}
}

func TestServerOrderedAutoSubmit(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.reporter.respond = func(n int, _ engine.Violation) (bool, error) {
		return n >= 3, nil
	}

	h.session.OnVisibilityHidden()
	h.session.OnVisibilityHidden()
	if got := h.session.State(); got != engine.StateActive {
		t.Fatalf("state after 2 violations = %v, want active", got)
	}

	h.session.OnFullscreenExit()

	subs := h.submitter.calls()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if subs[0].Reason != engine.ReasonViolations || !subs[0].AutoSubmitted {
		t.Errorf("submission = %+v, want auto with reason violations", subs[0])
	}
	if !h.display.dismissed {
		t.Error("violation banner was not dismissed before forced submission")
	}
}

func TestLocalFallbackWhenReporterUnreachable(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.reporter.respond = func(n int, _ engine.Violation) (bool, error) {
		if n >= 3 {
			return false, errors.New("connection refused")
		}
		return false, nil
	}

	h.session.OnVisibilityHidden()
	h.session.OnVisibilityHidden()
	h.session.OnVisibilityHidden() // report fails, local count == max

	subs := h.submitter.calls()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1 (local fallback)", len(subs))
	}
	if subs[0].Reason != engine.ReasonViolations {
		t.Errorf("reason = %q, want violations", subs[0].Reason)
	}
}

func TestReportFailureBelowThresholdKeepsSessionAlive(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.reporter.respond = func(int, engine.Violation) (bool, error) {
		return false, errors.New("connection refused")
	}

	h.session.OnVisibilityHidden()
	h.session.OnVisibilityHidden()

	if got := h.session.State(); got != engine.StateActive {
		t.Errorf("state = %v, want active (threshold not reached)", got)
	}
	if len(h.submitter.calls()) != 0 {
		t.Errorf("submission fired below threshold")
	}
}

func TestViolationsIgnoredAfterSubmission(t *testing.T) {
	h := newHarness(t, defaultConfig())

	h.session.OnVisibilityHidden()
	h.session.SubmitRequested()

	h.session.OnVisibilityHidden()
	h.session.OnFullscreenExit()
	h.session.OnWindowBlur()
	h.vt.Advance(1 * time.Second)

	if got := h.session.ViolationCount(); got != 1 {
		t.Errorf("violations = %d, want 1 (events after submission ignored)", got)
	}
	if got := h.reporter.count(); got != 1 {
		t.Errorf("reports = %d, want 1", got)
	}
}

// ─── Submission ─────────────────────────────────────────────────────

func TestSingleSubmissionGuard(t *testing.T) {
	cfg := defaultConfig()
	cfg.DurationSeconds = 1
	h := newHarness(t, cfg)
	h.reporter.respond = func(int, engine.Violation) (bool, error) {
		return true, nil
	}

	h.session.Start()
	// Timer expiry and a server-ordered violation submission race: only
	// one submission request may ever be issued.
	h.vt.Advance(1 * time.Second)
	h.session.OnVisibilityHidden()
	h.session.SubmitRequested()
	h.session.SubmitRequested()

	if got := len(h.submitter.calls()); got != 1 {
		t.Errorf("submissions = %d, want exactly 1", got)
	}
	if got := h.session.State(); got != engine.StateSubmitted {
		t.Errorf("state = %v, want submitted", got)
	}
}

func TestManualSubmission(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.submitter.redirect = "/result?id=42"

	h.session.SelectAnswer("q1", "A")
	h.session.Start()
	h.vt.Advance(95 * time.Second)
	h.session.SubmitRequested()

	subs := h.submitter.calls()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if subs[0].AutoSubmitted || subs[0].Reason != engine.ReasonUser {
		t.Errorf("submission = %+v, want manual with reason user", subs[0])
	}
	if subs[0].TimeTaken != 95 {
		t.Errorf("timeTaken = %d, want 95 (wall clock since session start)", subs[0].TimeTaken)
	}
	if !h.display.submitting {
		t.Error("submission-in-progress indicator was not shown")
	}
	if len(h.display.navigations) != 1 || h.display.navigations[0] != "/result?id=42" {
		t.Errorf("navigations = %v, want the server redirect", h.display.navigations)
	}
}

func TestSubmissionFailureFallbackRedirect(t *testing.T) {
	h := newHarness(t, defaultConfig())
	h.submitter.err = errors.New("502 bad gateway")

	h.session.SubmitRequested()

	if len(h.display.navigations) != 0 {
		t.Fatalf("navigated before the fallback delay elapsed")
	}
	h.vt.Advance(2 * time.Second)

	if len(h.display.navigations) != 1 || h.display.navigations[0] != "/result" {
		t.Errorf("navigations = %v, want fallback /result after 2s", h.display.navigations)
	}
	if got := h.session.State(); got != engine.StateSubmitted {
		t.Errorf("state = %v, want submitted", got)
	}
}

func TestEndToEndViolationFallbackScenario(t *testing.T) {
	// maxViolations=3, reporter returns autoSubmit=false twice, then is
	// unreachable on the third event: local fallback fires the submission
	// with reason violations and wall-clock timeTaken.
	h := newHarness(t, defaultConfig())
	h.reporter.respond = func(n int, _ engine.Violation) (bool, error) {
		if n == 3 {
			return false, errors.New("timeout")
		}
		return false, nil
	}

	h.session.Start()
	h.vt.Advance(10 * time.Second)
	h.session.OnVisibilityHidden()
	h.vt.Advance(10 * time.Second)
	h.session.OnVisibilityHidden()
	h.vt.Advance(10 * time.Second)
	h.session.OnVisibilityHidden()

	subs := h.submitter.calls()
	if len(subs) != 1 {
		t.Fatalf("submissions = %d, want 1", len(subs))
	}
	if subs[0].Reason != engine.ReasonViolations || !subs[0].AutoSubmitted {
		t.Errorf("submission = %+v, want auto with reason violations", subs[0])
	}
	if subs[0].TimeTaken != 30 {
		t.Errorf("timeTaken = %d, want 30", subs[0].TimeTaken)
	}
	if got := h.session.ViolationCount(); got != 3 {
		t.Errorf("violations = %d, want 3", got)
	}
}
