package tui

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"synvoy-client/internal/apitest"
	"synvoy-client/internal/clock"
	"synvoy-client/internal/models"
	"synvoy-client/internal/repository"
	"synvoy-client/internal/services"
	"synvoy-client/internal/session"
)

const testEmail = "carla@example.com"

func newTestModel(t *testing.T) (VerifyModel, *apitest.Server) {
	t.Helper()
	clk := clock.Fake(time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC))
	api := apitest.New(t, clk)
	api.AddUser(models.User{ID: "u-carla", Email: testEmail, FirstName: "Carla"}, "pw")
	api.StartVerification(testEmail, "314159", 10*time.Minute)

	store := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	client := repository.NewClient(api.URL, api.HTTPClient(store))
	flow := services.NewVerificationFlow(repository.NewAuthRepository(client), nil, clk, services.VerificationConfig{}, testEmail)
	flow.Poll(context.Background())

	return NewVerifyModel(context.Background(), flow, DefaultTheme), api
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m VerifyModel, msg tea.Msg) (VerifyModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(VerifyModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model, cmd
}

func TestVerifyModelTypingAndBackspace(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = update(t, m, keys("31"))
	m, _ = update(t, m, keys("x"))
	if got := m.state.Code.Value(); got != "31" {
		t.Fatalf("code = %q, want 31", got)
	}
	if m.state.Code.Focus != 2 {
		t.Errorf("focus = %d", m.state.Code.Focus)
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.state.Code.Value(); got != "3" {
		t.Errorf("code after two backspaces = %q, want 3", got)
	}
}

func TestVerifyModelPasteAndSubmit(t *testing.T) {
	m, api := newTestModel(t)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("314159\n"), Paste: true})
	want := [services.CodeLength]string{"3", "1", "4", "1", "5", "9"}
	if m.state.Code.Cells != want {
		t.Fatalf("cells = %v", m.state.Code.Cells)
	}

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	m, cmd = update(t, m, cmd())
	if m.Result() != services.DestinationDashboard {
		t.Errorf("result = %q", m.Result())
	}
	if cmd == nil {
		t.Fatal("verified model did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("verified model did not quit")
	}
	if user, _ := api.User("u-carla"); !user.IsVerified {
		t.Error("server did not mark the user verified")
	}
}

func TestVerifyModelIncompleteSubmit(t *testing.T) {
	m, api := newTestModel(t)

	m, _ = update(t, m, keys("12"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())

	if m.state.Error != services.MsgIncompleteCode {
		t.Errorf("error = %q", m.state.Error)
	}
	if !strings.Contains(m.View(), services.MsgIncompleteCode) {
		t.Error("view does not show the error")
	}
	if calls := api.Calls(http.MethodPost, "/auth/verify-email"); calls != 0 {
		t.Errorf("verify-email called %d times", calls)
	}
}

func TestVerifyModelView(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()
	for _, want := range []string{"Verify Your Email", testEmail, "Code expires in 10:00", "Account Deletion Warning", "2h 0m"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "has expired") {
		t.Error("fresh code shown as expired")
	}
}

func TestVerifyModelFlowDoneQuits(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := update(t, m, flowDoneMsg{destination: services.DestinationHome})
	if m.Result() != services.DestinationHome {
		t.Errorf("result = %q", m.Result())
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("model did not quit when the flow ended")
	}
}

func TestVerifyModelQuitKeys(t *testing.T) {
	m, _ := newTestModel(t)

	for _, msg := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}, keys("q")} {
		_, cmd := update(t, m, msg)
		if cmd == nil {
			t.Fatalf("%v returned no command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%v did not quit", msg)
		}
	}
}
