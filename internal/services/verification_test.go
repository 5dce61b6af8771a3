package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
)

const testEmail = "bruno@example.com"

func unverifiedUser(f *fixture) models.User {
	user := named("u-bruno", "Bruno", "Costa")
	user.IsVerified = false
	return f.api.AddUser(user, "pw")
}

type runResult struct {
	dest Destination
	err  error
}

func startRun(t *testing.T, f *fixture, flow *VerificationFlow) (context.CancelFunc, <-chan runResult) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan runResult, 1)
	go func() {
		dest, err := flow.Run(ctx)
		done <- runResult{dest, err}
	}()
	t.Cleanup(cancel)

	// Both tickers exist only after the first poll has been applied.
	f.clock.WaitForTimers(2)
	return cancel, done
}

func waitResult(t *testing.T, done <-chan runResult) runResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
		return runResult{}
	}
}

func (f *VerificationFlow) expirationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expirations
}

func TestVerificationCountdownExpiresOnce(t *testing.T) {
	f := newFixture(t)
	unverifiedUser(f)
	f.api.StartVerification(testEmail, "424242", 3*time.Second)

	flow := NewVerificationFlow(f.auth, nil, f.clock, DefaultVerificationConfig(), testEmail)
	cancel, done := startRun(t, f, flow)

	state := flow.Snapshot()
	if state.CodeRemaining == nil || *state.CodeRemaining != 3 {
		t.Fatalf("CodeRemaining after first poll = %v", state.CodeRemaining)
	}
	if !state.DeletionPending() || state.Phase() != PhaseAwaitingCode {
		t.Fatalf("state after first poll = %+v", state)
	}

	deletion := *state.DeletionRemaining
	for i := 1; i <= 6; i++ {
		f.clock.Advance(time.Second)
		want := deletion - i
		eventually(t, "tick", func() bool {
			s := flow.Snapshot()
			return s.DeletionRemaining != nil && *s.DeletionRemaining <= want
		})
	}
	eventually(t, "second poll", func() bool {
		return f.api.Calls(http.MethodGet, "/auth/verification-status") >= 2
	})

	state = flow.Snapshot()
	if state.Phase() != PhaseCodeExpired || !state.CanResend {
		t.Fatalf("state after expiry = %+v", state)
	}
	if state.CodeCountdownVisible() {
		t.Error("countdown still visible after expiry")
	}
	if n := flow.expirationCount(); n != 1 {
		t.Errorf("expired %d times, want 1", n)
	}

	cancel()
	r := waitResult(t, done)
	if !errors.Is(r.err, context.Canceled) || r.dest != DestinationNone {
		t.Errorf("Run = %q, %v", r.dest, r.err)
	}
	if f.clock.PendingCount() != 0 {
		t.Errorf("%d timers still running after Run returned", f.clock.PendingCount())
	}
}

func TestVerificationApplyStatusExpiresOnce(t *testing.T) {
	f := newFixture(t)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, testEmail)

	var changes int
	flow.OnChange(func(VerificationState) { changes++ })

	flow.ApplyStatus(&models.VerificationStatus{TimeRemainingSeconds: intPtr(0)})
	flow.ApplyStatus(&models.VerificationStatus{TimeRemainingSeconds: intPtr(-4)})
	flow.Tick()

	if n := flow.expirationCount(); n != 1 {
		t.Errorf("expired %d times, want 1", n)
	}
	if changes != 3 {
		t.Errorf("OnChange called %d times, want 3", changes)
	}

	// A fresh code re-arms the expiry.
	flow.ApplyStatus(&models.VerificationStatus{TimeRemainingSeconds: intPtr(1)})
	if flow.Snapshot().CodeExpired {
		t.Fatal("still expired after a fresh code")
	}
	flow.Tick()
	if n := flow.expirationCount(); n != 2 {
		t.Errorf("expired %d times, want 2", n)
	}
}

func TestVerificationDeletionCountdownHidesAtZero(t *testing.T) {
	f := newFixture(t)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, testEmail)

	flow.ApplyStatus(&models.VerificationStatus{DeletionTimeRemainingSeconds: intPtr(1)})
	if !flow.Snapshot().DeletionPending() {
		t.Fatal("deletion warning not shown")
	}
	flow.Tick()
	if s := flow.Snapshot(); s.DeletionPending() || s.DeletionRemaining != nil {
		t.Errorf("deletion warning still shown: %v", s.DeletionRemaining)
	}
}

func TestVerificationRejectsIncompleteCodeLocally(t *testing.T) {
	f := newFixture(t)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, testEmail)
	ctx := context.Background()

	for _, code := range []string{"", "12345", "1234567"} {
		if err := flow.SubmitCodeValue(ctx, code); !errors.Is(err, ErrIncompleteCode) {
			t.Errorf("SubmitCodeValue(%q) err = %v", code, err)
		}
	}
	if got := flow.Snapshot().Error; got != MsgIncompleteCode {
		t.Errorf("Error = %q", got)
	}
	if calls := f.api.Calls(http.MethodPost, "/auth/verify-email"); calls != 0 {
		t.Errorf("verify-email called %d times", calls)
	}
}

func TestVerificationWrongCodeClearsCells(t *testing.T) {
	f := newFixture(t)
	unverifiedUser(f)
	f.api.StartVerification(testEmail, "424242", time.Minute)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, testEmail)

	flow.Paste("111111")
	err := flow.SubmitCode(context.Background())
	if !repository.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("err = %v, want 400", err)
	}

	state := flow.Snapshot()
	if state.Error != "Invalid verification code" {
		t.Errorf("Error = %q", state.Error)
	}
	if state.Code.Value() != "" || state.Code.Focus != 0 || state.Loading {
		t.Errorf("code after rejection = %+v loading=%v", state.Code, state.Loading)
	}
}

func TestVerificationSubmitRefreshesProfileAndEndsRun(t *testing.T) {
	f := newFixture(t)
	user := unverifiedUser(f)
	f.signIn(t, user)
	f.api.StartVerification(testEmail, "424242", time.Minute)
	sessions := f.sessions()

	flow := NewVerificationFlow(f.auth, sessions, f.clock, DefaultVerificationConfig(), testEmail)
	_, done := startRun(t, f, flow)

	flow.Paste("424242")
	if err := flow.SubmitCode(context.Background()); err != nil {
		t.Fatalf("SubmitCode: %v", err)
	}

	r := waitResult(t, done)
	if r.err != nil || r.dest != DestinationDashboard {
		t.Fatalf("Run = %q, %v", r.dest, r.err)
	}
	if flow.Snapshot().Phase() != PhaseVerified {
		t.Errorf("phase = %q", flow.Snapshot().Phase())
	}
	if u := sessions.CurrentUser(); u == nil || !u.IsVerified {
		t.Errorf("profile not refreshed: %+v", u)
	}
	if sess, err := f.store.Load(); err != nil || !sess.User.IsVerified {
		t.Errorf("persisted profile not refreshed: %+v, %v", sess, err)
	}
}

func TestVerificationPollDetectsVerification(t *testing.T) {
	f := newFixture(t)
	unverifiedUser(f)
	f.api.StartVerification(testEmail, "424242", time.Minute)

	flow := NewVerificationFlow(f.auth, nil, f.clock, DefaultVerificationConfig(), testEmail)
	_, done := startRun(t, f, flow)

	// Verified from another device.
	if err := f.auth.VerifyEmail(context.Background(), testEmail, "424242"); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	f.clock.Advance(5 * time.Second)

	r := waitResult(t, done)
	if r.err != nil || r.dest != DestinationDashboard {
		t.Fatalf("Run = %q, %v", r.dest, r.err)
	}
}

func TestVerificationUnknownEmailGoesHome(t *testing.T) {
	f := newFixture(t)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, "nobody@example.com")

	dest, err := flow.Run(context.Background())
	if err != nil || dest != DestinationHome {
		t.Fatalf("Run = %q, %v", dest, err)
	}
	if f.clock.PendingCount() != 0 {
		t.Error("timers started for an unknown email")
	}
}

func TestVerificationWithoutEmailGoesHome(t *testing.T) {
	f := newFixture(t)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, "")

	dest, err := flow.Run(context.Background())
	if err != nil || dest != DestinationHome {
		t.Fatalf("Run = %q, %v", dest, err)
	}
	if calls := f.api.Calls(http.MethodGet, "/auth/verification-status"); calls != 0 {
		t.Errorf("status polled %d times without an email", calls)
	}
}

func TestVerificationResend(t *testing.T) {
	f := newFixture(t)
	unverifiedUser(f)
	f.api.StartVerification(testEmail, "424242", time.Minute)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, testEmail)
	ctx := context.Background()

	err := flow.Resend(ctx)
	if !repository.IsStatus(err, http.StatusTooManyRequests) {
		t.Fatalf("early resend err = %v, want 429", err)
	}
	if got := flow.Snapshot().Error; got != MsgResendCooldown {
		t.Errorf("Error = %q", got)
	}

	f.clock.Advance(5 * time.Minute)
	flow.ApplyStatus(&models.VerificationStatus{TimeRemainingSeconds: intPtr(0)})
	flow.Paste("12")

	if err := flow.Resend(ctx); err != nil {
		t.Fatalf("Resend: %v", err)
	}
	state := flow.Snapshot()
	if state.CodeExpired || state.CanResend || state.Loading || state.Error != "" {
		t.Errorf("state after resend = %+v", state)
	}
	if state.Code.Value() != "" {
		t.Errorf("cells not cleared: %q", state.Code.Value())
	}
	if state.CodeRemaining == nil || *state.CodeRemaining <= 0 {
		t.Errorf("CodeRemaining after resend = %v", state.CodeRemaining)
	}
	if f.api.VerificationCode(testEmail) == "424242" {
		t.Error("server kept the old code")
	}
}

func TestVerificationResendGenericFailure(t *testing.T) {
	f := newFixture(t)
	flow := NewVerificationFlow(f.auth, nil, f.clock, VerificationConfig{}, testEmail)
	f.api.Fail(http.MethodPost, "/auth/resend-verification", http.StatusInternalServerError, "")

	if err := flow.Resend(context.Background()); err == nil {
		t.Fatal("Resend succeeded despite injected failure")
	}
	if got := flow.Snapshot().Error; got != MsgResendFailed {
		t.Errorf("Error = %q", got)
	}
}
