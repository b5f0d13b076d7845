// Package login provides the sign-in screen.
package login

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

// Authenticator checks credentials against the backend.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*api.LoginResult, error)
}

// Starter installs a new session.
type Starter interface {
	Begin(ctx context.Context, s models.Session) error
}

// LoggedInMsg is emitted once a session has started.
type LoggedInMsg struct {
	Username string
}

type resultMsg struct {
	username string
	err      error
}

// View is the sign-in form.
type View struct {
	auth    Authenticator
	session Starter
	program string

	username *components.Input
	password *components.Input
	form     *components.Form
	pending  bool
	notice   string
}

// New creates the sign-in view.
func New(auth Authenticator, session Starter, program string) *View {
	v := &View{auth: auth, session: session, program: program}
	v.Reset()
	return v
}

// Reset clears the form. notice, if set by SetNotice, survives.
func (v *View) Reset() {
	v.username = components.NewInput("Usuario").SetRequired(true).SetMaxLength(50)
	v.password = components.NewInput("Contraseña").SetRequired(true).SetMasked(true)
	v.form = components.NewForm("Iniciar sesión").AddField(v.username).AddField(v.password)
	v.pending = false
}

// SetNotice shows a message above the form, e.g. after a forced logout.
func (v *View) SetNotice(msg string) {
	v.notice = msg
}

// Pending reports whether a login request is in flight.
func (v *View) Pending() bool {
	return v.pending
}

// Update handles keys and login results.
func (v *View) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.pending {
			return nil
		}
		key := msg.String()
		if key == "esc" {
			return nil
		}
		v.form.HandleKey(key)
		if v.form.IsSubmitted() {
			v.form.Reopen()
			return v.submit()
		}

	case resultMsg:
		v.pending = false
		if msg.err != nil {
			v.form.SetError(loginError(msg.err))
			v.password.SetValue("")
			return nil
		}
		v.notice = ""
		v.Reset()
		return func() tea.Msg { return LoggedInMsg{Username: msg.username} }
	}
	return nil
}

func (v *View) submit() tea.Cmd {
	okUser := v.username.Validate()
	okPass := v.password.Validate()
	if !okUser || !okPass {
		return nil
	}

	username := strings.TrimSpace(v.username.Value())
	password := v.password.Value()
	v.pending = true
	v.form.SetError("")

	return func() tea.Msg {
		ctx := context.Background()
		res, err := v.auth.Login(ctx, username, password)
		if err != nil {
			return resultMsg{err: err}
		}
		if err := v.session.Begin(ctx, res.Session()); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{username: res.Username}
	}
}

func loginError(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return "Usuario o contraseña incorrectos"
	}
	return components.ErrorText(err)
}

// Render renders the sign-in screen.
func (v *View) Render(width, height int) string {
	var b strings.Builder

	b.WriteString(components.TitleStyle.Render(v.program))
	b.WriteString("\n\n")

	if v.notice != "" {
		b.WriteString(components.WarningStyle.Render(v.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(v.form.Render())
	b.WriteString("\n\n")

	if v.pending {
		b.WriteString(components.MutedStyle.Render("Verificando credenciales..."))
	}
	return b.String()
}
