package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"synvoy-client/internal/services"
)

// refreshMsg tells the model to re-read the flow state.
type refreshMsg struct{}

// flowDoneMsg carries the result of VerificationFlow.Run.
type flowDoneMsg struct {
	destination services.Destination
	err         error
}

// actionDoneMsg reports a finished submit or resend.
type actionDoneMsg struct {
	err error
}

// VerifyModel is the bubbletea model of the verify-email screen. The flow owns
// all state; the model renders snapshots of it and forwards key presses.
type VerifyModel struct {
	ctx    context.Context
	flow   *services.VerificationFlow
	state  services.VerificationState
	styles styles

	result services.Destination
	err    error
}

// NewVerifyModel creates the screen for flow. ctx bounds the submit and resend requests.
func NewVerifyModel(ctx context.Context, flow *services.VerificationFlow, theme Theme) VerifyModel {
	return VerifyModel{
		ctx:    ctx,
		flow:   flow,
		state:  flow.Snapshot(),
		styles: newStyles(theme),
	}
}

// Result returns where the user should go once the screen closed.
func (m VerifyModel) Result() services.Destination {
	return m.result
}

// Err returns the error that ended the flow, if any.
func (m VerifyModel) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m VerifyModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m VerifyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.state = m.flow.Snapshot()
		if m.state.Verified {
			m.result = services.DestinationDashboard
			return m, tea.Quit
		}
		return m, nil

	case flowDoneMsg:
		m.state = m.flow.Snapshot()
		m.result = msg.destination
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		return m, tea.Quit

	case actionDoneMsg:
		m.state = m.flow.Snapshot()
		if m.state.Verified {
			m.result = services.DestinationDashboard
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m VerifyModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if m.state.Loading {
			return m, nil
		}
		return m, m.submit()

	case tea.KeyBackspace:
		m.flow.Backspace(m.state.Code.Focus)
		m.state = m.flow.Snapshot()
		return m, nil

	case tea.KeyRunes:
		if msg.Paste {
			m.flow.Paste(strings.TrimSpace(string(msg.Runes)))
			m.state = m.flow.Snapshot()
			return m, nil
		}
		for _, r := range msg.Runes {
			switch {
			case r >= '0' && r <= '9':
				m.flow.TypeDigit(m.state.Code.Focus, string(r))
				m.state = m.flow.Snapshot()
			case r == 'r' && !m.state.Loading:
				return m, m.resend()
			case r == 'q':
				return m, tea.Quit
			}
		}
		return m, nil
	}
	return m, nil
}

func (m VerifyModel) submit() tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		return actionDoneMsg{err: flow.SubmitCode(ctx)}
	}
}

func (m VerifyModel) resend() tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		return actionDoneMsg{err: flow.Resend(ctx)}
	}
}

// View implements tea.Model.
func (m VerifyModel) View() string {
	s := m.styles
	state := m.state
	var b strings.Builder

	b.WriteString(s.title.Render("Verify Your Email"))
	b.WriteString("\n")
	b.WriteString(s.text.Render("Enter the 6-digit code sent to "))
	b.WriteString(s.strong.Render(state.Email))
	b.WriteString("\n\n")

	if state.Verified {
		b.WriteString(s.successMsg.Render("Email verified."))
		b.WriteString("\n")
		return b.String()
	}

	if state.DeletionPending() {
		b.WriteString(s.deletion.Render(fmt.Sprintf(
			"Account Deletion Warning: your account will be deleted in %s if not verified.",
			services.FormatHours(state.DeletionRemaining))))
		b.WriteString("\n")
	}
	if state.CodeCountdownVisible() {
		b.WriteString(s.countdown.Render("Code expires in " + services.FormatClock(state.CodeRemaining)))
		b.WriteString("\n")
	}
	if state.CodeExpired {
		b.WriteString(s.expired.Render("Your verification code has expired. Press r to request a new one."))
		b.WriteString("\n")
	}

	cells := make([]string, 0, services.CodeLength)
	for i, value := range state.Code.Cells {
		style := s.cell
		if i == state.Code.Focus {
			style = s.focused
		}
		if value == "" {
			value = " "
		}
		cells = append(cells, style.Render(value))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	b.WriteString("\n")

	switch {
	case state.Loading:
		b.WriteString(s.faint.Render("Working..."))
		b.WriteString("\n")
	case state.Error != "":
		b.WriteString(s.errorText.Render(state.Error))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.faint.Render("Can't find the email? Check your spam or junk folder."))
	b.WriteString("\n")
	b.WriteString(s.faint.Render("enter verify · r resend code · esc quit"))
	b.WriteString("\n")
	return b.String()
}

// RunVerify shows the verify-email screen until the email is verified, the
// server no longer knows it, or the user quits. The flow's timers run for as
// long as the screen is up.
func RunVerify(ctx context.Context, flow *services.VerificationFlow, theme Theme, options ...tea.ProgramOption) (services.Destination, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(NewVerifyModel(ctx, flow, theme), append(options, tea.WithContext(ctx))...)
	flow.OnChange(func(services.VerificationState) {
		go program.Send(refreshMsg{})
	})

	go func() {
		destination, err := flow.Run(ctx)
		program.Send(flowDoneMsg{destination: destination, err: err})
	}()

	final, err := program.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return services.DestinationNone, fmt.Errorf("failed to run verification screen: %w", err)
	}

	model, ok := final.(VerifyModel)
	if !ok {
		return services.DestinationNone, nil
	}
	return model.Result(), model.Err()
}
