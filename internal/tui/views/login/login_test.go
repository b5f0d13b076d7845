package login

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
)

type fakeAuth struct {
	username, password string
	err                error
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*api.LoginResult, error) {
	f.username, f.password = username, password
	if f.err != nil {
		return nil, f.err
	}
	return &api.LoginResult{Token: "tok", Username: username, Branches: []models.Branch{{ID: 1, Name: "Centro"}}}, nil
}

type fakeStarter struct {
	started *models.Session
}

func (f *fakeStarter) Begin(_ context.Context, s models.Session) error {
	f.started = &s
	return nil
}

func typeText(v *View, text string) {
	for _, r := range text {
		v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// run executes cmd and feeds its message back, returning the follow-up.
func run(v *View, cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	next := v.Update(cmd())
	if next == nil {
		return nil
	}
	return next()
}

func TestLogin_Success(t *testing.T) {
	auth := &fakeAuth{}
	starter := &fakeStarter{}
	v := New(auth, starter, "NutriPlan")

	typeText(v, "ana")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "clave")
	cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a login command")
	}
	if !v.Pending() {
		t.Error("view should be pending while logging in")
	}

	msg := run(v, cmd)
	logged, ok := msg.(LoggedInMsg)
	if !ok {
		t.Fatalf("expected LoggedInMsg, got %T", msg)
	}
	if logged.Username != "ana" || auth.password != "clave" {
		t.Errorf("login used %q/%q", auth.username, auth.password)
	}
	if starter.started == nil || starter.started.Token != "tok" {
		t.Errorf("session not started: %+v", starter.started)
	}
	if v.Pending() {
		t.Error("pending should clear after the result")
	}
}

func TestLogin_RequiresBothFields(t *testing.T) {
	v := New(&fakeAuth{}, &fakeStarter{}, "NutriPlan")
	typeText(v, "ana")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	if cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Error("empty password should not submit")
	}
	if !strings.Contains(v.Render(80, 24), "Requerido") {
		t.Error("expected inline required error")
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	auth := &fakeAuth{err: &api.Error{Status: 401, Message: "Bad credentials"}}
	v := New(auth, &fakeStarter{}, "NutriPlan")

	typeText(v, "ana")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "mala")
	if msg := run(v, v.Update(tea.KeyMsg{Type: tea.KeyEnter})); msg != nil {
		t.Fatalf("unexpected follow-up %T", msg)
	}

	out := v.Render(80, 24)
	if !strings.Contains(out, "Usuario o contraseña incorrectos") {
		t.Errorf("expected credential error, got:\n%s", out)
	}
	if v.password.Value() != "" {
		t.Error("password should be cleared after a failure")
	}
}

func TestLogin_BackendError(t *testing.T) {
	auth := &fakeAuth{err: errors.New("connection refused")}
	v := New(auth, &fakeStarter{}, "NutriPlan")
	typeText(v, "ana")
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	typeText(v, "x")
	run(v, v.Update(tea.KeyMsg{Type: tea.KeyEnter}))

	if !strings.Contains(v.Render(80, 24), "connection refused") {
		t.Error("expected transport error in the form")
	}
}

func TestLogin_Notice(t *testing.T) {
	v := New(&fakeAuth{}, &fakeStarter{}, "NutriPlan")
	v.SetNotice("La sesión expiró")
	if !strings.Contains(v.Render(80, 24), "La sesión expiró") {
		t.Error("expected notice")
	}
}
