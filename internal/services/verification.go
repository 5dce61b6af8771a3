package services

import (
	"context"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"synvoy-client/internal/clock"
	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"

	"github.com/rs/zerolog/log"
)

// User-facing verification messages.
const (
	MsgIncompleteCode = "Please enter the complete 6-digit code"
	MsgInvalidCode    = "Invalid verification code. Please try again."
	MsgResendCooldown = "Please wait 5 minutes before requesting a new code."
	MsgResendFailed   = "Failed to resend verification code. Please try again."
)

// Phase is the verification screen's primary state
type Phase string

const (
	PhaseAwaitingCode Phase = "awaiting_code"
	PhaseCodeExpired  Phase = "code_expired"
	PhaseVerified     Phase = "verified"
)

// VerificationConfig holds the two timer intervals
type VerificationConfig struct {
	PollInterval time.Duration
	TickInterval time.Duration
}

// DefaultVerificationConfig polls every 5 s and ticks every second.
func DefaultVerificationConfig() VerificationConfig {
	return VerificationConfig{
		PollInterval: 5 * time.Second,
		TickInterval: time.Second,
	}
}

// VerificationState is a snapshot of the verification screen
type VerificationState struct {
	Email             string
	Status            *models.VerificationStatus
	CodeRemaining     *int
	DeletionRemaining *int
	CodeExpired       bool
	CanResend         bool
	Verified          bool
	Loading           bool
	Error             string
	Code              CodeInput
}

// Phase derives the primary state.
func (s VerificationState) Phase() Phase {
	switch {
	case s.Verified:
		return PhaseVerified
	case s.CodeExpired:
		return PhaseCodeExpired
	default:
		return PhaseAwaitingCode
	}
}

// DeletionPending reports whether the account-deletion warning is shown.
func (s VerificationState) DeletionPending() bool {
	return s.DeletionRemaining != nil && *s.DeletionRemaining > 0
}

// CodeCountdownVisible reports whether the code expiry countdown is shown.
func (s VerificationState) CodeCountdownVisible() bool {
	return s.CodeRemaining != nil && *s.CodeRemaining > 0
}

// VerificationFlow runs the email verification screen: a status poll, a local
// one-second countdown, code submission and resend. The countdowns approximate
// the server between polls and are overwritten by every poll.
type VerificationFlow struct {
	authRepo *repository.AuthRepository
	sessions *SessionManager
	clock    clock.Clock
	config   VerificationConfig

	mu          sync.Mutex
	state       VerificationState
	expirations int
	onChange    func(VerificationState)

	verifiedOnce sync.Once
	verified     chan struct{}
}

// NewVerificationFlow creates a flow for email. sessions may be nil.
func NewVerificationFlow(
	authRepo *repository.AuthRepository,
	sessions *SessionManager,
	clk clock.Clock,
	config VerificationConfig,
	email string,
) *VerificationFlow {
	if clk == nil {
		clk = clock.Real()
	}
	defaults := DefaultVerificationConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.TickInterval <= 0 {
		config.TickInterval = defaults.TickInterval
	}
	return &VerificationFlow{
		authRepo: authRepo,
		sessions: sessions,
		clock:    clk,
		config:   config,
		state:    VerificationState{Email: email},
		verified: make(chan struct{}),
	}
}

// OnChange registers a callback invoked with a snapshot after every state change.
// It must be set before Run.
func (f *VerificationFlow) OnChange(fn func(VerificationState)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Snapshot returns a copy of the state.
func (f *VerificationFlow) Snapshot() VerificationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Run polls immediately, then polls and ticks until the email is verified, the
// status endpoint reports 404, or ctx is done. Both timers stop on return.
func (f *VerificationFlow) Run(ctx context.Context) (Destination, error) {
	if f.state.Email == "" {
		return DestinationHome, nil
	}

	if dest := f.Poll(ctx); dest != DestinationNone {
		return dest, nil
	}

	poll := f.clock.NewTicker(f.config.PollInterval)
	defer poll.Stop()
	tick := f.clock.NewTicker(f.config.TickInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return DestinationNone, ctx.Err()
		case <-f.verified:
			return DestinationDashboard, nil
		case <-poll.C:
			if dest := f.Poll(ctx); dest != DestinationNone {
				return dest, nil
			}
		case <-tick.C:
			f.Tick()
		}
	}
}

// Poll fetches the status once and applies it. It returns DestinationDashboard
// once verified and DestinationHome when the server does not know the email.
// Other errors are logged and leave the state untouched.
func (f *VerificationFlow) Poll(ctx context.Context) Destination {
	status, err := f.authRepo.GetVerificationStatus(ctx, f.state.Email)
	if err != nil {
		if repository.IsStatus(err, http.StatusNotFound) {
			return DestinationHome
		}
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("email", f.state.Email).Msg("Failed to fetch verification status")
		}
		return DestinationNone
	}

	f.ApplyStatus(status)
	if status.IsVerified {
		return DestinationDashboard
	}
	return DestinationNone
}

// ApplyStatus reconciles local state with a server status.
func (f *VerificationFlow) ApplyStatus(status *models.VerificationStatus) {
	f.mu.Lock()
	f.state.Status = status

	if status.TimeRemainingSeconds != nil {
		remaining := *status.TimeRemainingSeconds
		f.state.CodeRemaining = &remaining
		if remaining <= 0 {
			f.expireLocked()
		} else {
			f.state.CodeExpired = false
			f.state.CanResend = false
		}
	} else {
		f.state.CodeRemaining = nil
		f.state.CodeExpired = false
		f.state.CanResend = false
	}

	if status.DeletionTimeRemainingSeconds != nil {
		remaining := *status.DeletionTimeRemainingSeconds
		f.state.DeletionRemaining = &remaining
	}

	if status.IsVerified {
		f.markVerifiedLocked()
	}
	f.notifyLocked()
}

// Tick decrements both countdowns by one, clamping at zero. The code
// countdown crossing zero expires the code; the deletion countdown reaching
// zero hides the warning.
func (f *VerificationFlow) Tick() {
	f.mu.Lock()
	if f.state.CodeRemaining != nil && *f.state.CodeRemaining > 0 {
		remaining := *f.state.CodeRemaining - 1
		f.state.CodeRemaining = &remaining
		if remaining <= 0 {
			f.expireLocked()
		}
	}

	if f.state.DeletionRemaining != nil {
		remaining := *f.state.DeletionRemaining - 1
		f.state.DeletionRemaining = nil
		if remaining > 0 {
			f.state.DeletionRemaining = &remaining
		}
	}
	f.notifyLocked()
}

// TypeDigit writes one character into a cell.
func (f *VerificationFlow) TypeDigit(index int, value string) bool {
	f.mu.Lock()
	ok := f.state.Code.Type(index, value)
	if ok {
		f.state.Error = ""
	}
	f.notifyLocked()
	return ok
}

// Backspace applies a backspace key press at index.
func (f *VerificationFlow) Backspace(index int) {
	f.mu.Lock()
	f.state.Code.Backspace(index)
	f.notifyLocked()
}

// Paste distributes pasted text over the cells.
func (f *VerificationFlow) Paste(text string) {
	f.mu.Lock()
	f.state.Code.Paste(text)
	f.state.Error = ""
	f.notifyLocked()
}

// SubmitCode submits the code currently in the cells.
func (f *VerificationFlow) SubmitCode(ctx context.Context) error {
	f.mu.Lock()
	code := f.state.Code.Value()
	f.mu.Unlock()
	return f.SubmitCodeValue(ctx, code)
}

// SubmitCodeValue submits code. Codes that are not exactly six characters are
// rejected without a request. A rejected code clears every cell.
func (f *VerificationFlow) SubmitCodeValue(ctx context.Context, code string) error {
	f.mu.Lock()
	if utf8.RuneCountInString(code) != CodeLength {
		f.state.Error = MsgIncompleteCode
		f.notifyLocked()
		return ErrIncompleteCode
	}
	if f.state.Loading {
		f.mu.Unlock()
		return ErrBusy
	}
	f.state.Loading = true
	f.state.Error = ""
	f.notifyLocked()

	err := f.authRepo.VerifyEmail(ctx, f.state.Email, code)
	if err != nil {
		log.Info().Err(err).Str("email", f.state.Email).Msg("Verification code rejected")
		f.mu.Lock()
		f.state.Loading = false
		f.state.Error = repository.Message(err, MsgInvalidCode)
		f.state.Code.Clear()
		f.notifyLocked()
		return err
	}

	if f.sessions != nil {
		f.sessions.RefreshProfile(ctx)
	}

	log.Info().Str("email", f.state.Email).Msg("Email verified")
	f.mu.Lock()
	f.state.Loading = false
	f.markVerifiedLocked()
	f.notifyLocked()
	return nil
}

// Resend requests a new code. On success the expiry flags reset, the cells
// clear and the status is polled at once.
func (f *VerificationFlow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.state.Loading {
		f.mu.Unlock()
		return ErrBusy
	}
	f.state.Loading = true
	f.state.Error = ""
	f.notifyLocked()

	err := f.authRepo.ResendVerification(ctx, f.state.Email)
	if err != nil {
		msg := repository.Message(err, MsgResendFailed)
		if repository.IsStatus(err, http.StatusTooManyRequests) {
			msg = MsgResendCooldown
		}
		log.Info().Err(err).Str("email", f.state.Email).Msg("Resend rejected")
		f.mu.Lock()
		f.state.Loading = false
		f.state.Error = msg
		f.notifyLocked()
		return err
	}

	log.Info().Str("email", f.state.Email).Msg("Verification code resent")
	f.mu.Lock()
	f.state.CanResend = false
	f.state.CodeExpired = false
	f.state.Code.Clear()
	f.notifyLocked()

	f.Poll(ctx)

	f.mu.Lock()
	f.state.Loading = false
	f.notifyLocked()
	return nil
}

// expireLocked flips the expiry flags once per crossing.
func (f *VerificationFlow) expireLocked() {
	if f.state.CodeExpired {
		return
	}
	f.state.CodeExpired = true
	f.state.CanResend = true
	f.expirations++
}

func (f *VerificationFlow) markVerifiedLocked() {
	f.state.Verified = true
	f.verifiedOnce.Do(func() { close(f.verified) })
}

func (f *VerificationFlow) snapshotLocked() VerificationState {
	s := f.state
	if s.CodeRemaining != nil {
		v := *s.CodeRemaining
		s.CodeRemaining = &v
	}
	if s.DeletionRemaining != nil {
		v := *s.DeletionRemaining
		s.DeletionRemaining = &v
	}
	return s
}

// notifyLocked releases f.mu and then calls the change callback.
func (f *VerificationFlow) notifyLocked() {
	fn := f.onChange
	snapshot := f.snapshotLocked()
	f.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}
