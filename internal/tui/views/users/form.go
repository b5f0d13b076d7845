package users

import (
	"strings"
	"unicode/utf8"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/tui/components"
)

const minPassword = 6

// ParseRoles reads a comma separated role list. Roles are upper-cased and
// duplicates dropped, keeping the first occurrence.
func ParseRoles(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		role := strings.ToUpper(strings.TrimSpace(part))
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		out = append(out, role)
	}
	return out
}

// Form creates or edits a user.
type Form struct {
	form     *components.Form
	base     models.User
	creating bool
	username *components.Input
	fullName *components.Input
	password *components.Input
	roles    *components.Input
	status   *components.Select
	pending  bool
}

// NewForm creates the form. A nil user opens an empty create form, where
// the password is required. When editing, a blank password keeps the
// current one.
func NewForm(user *models.User) *Form {
	statuses := make([]string, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		if s != models.StatusDeleted {
			statuses = append(statuses, s.String())
		}
	}

	f := &Form{
		creating: user == nil,
		username: components.NewInput("Usuario").SetRequired(true).SetMaxLength(50),
		fullName: components.NewInput("Nombre completo").SetMaxLength(120).SetWidth(40),
		password: components.NewInput("Contraseña").SetMasked(true).SetMaxLength(100),
		roles:    components.NewInput("Roles").SetRequired(true).SetMaxLength(200).SetPlaceholder("ADMIN, NUTRICIONISTA"),
		status:   components.NewSelect("Estado", statuses),
	}

	title := "Nuevo usuario"
	if user != nil {
		title = "Editar usuario"
		f.base = *user
		f.base.Password = ""
		f.username.SetValue(user.Username)
		f.fullName.SetValue(user.FullName)
		f.roles.SetValue(strings.Join(user.Roles, ", "))
		f.status.SetValue(user.Status.String())
		f.password.SetPlaceholder("sin cambios")
	} else {
		f.password.SetRequired(true)
	}

	f.form = components.NewForm(title).
		AddField(f.username).
		AddField(f.fullName).
		AddField(f.password).
		AddField(f.roles).
		AddField(f.status)
	return f
}

// HandleKey feeds key to the form and returns the user to save once it is
// submitted and valid.
func (f *Form) HandleKey(key string) (models.User, bool) {
	if f.pending {
		return models.User{}, false
	}
	f.form.HandleKey(key)
	if !f.form.IsSubmitted() {
		return models.User{}, false
	}
	f.form.Reopen()

	u, ok := f.build()
	if !ok {
		return models.User{}, false
	}
	f.pending = true
	f.form.SetError("")
	return u, true
}

func (f *Form) build() (models.User, bool) {
	ok := f.username.Validate()
	ok = f.password.Validate() && ok
	ok = f.roles.Validate() && ok

	u := f.base
	u.Username = strings.TrimSpace(f.username.Value())
	u.FullName = strings.TrimSpace(f.fullName.Value())
	u.Password = f.password.Value()
	u.Roles = ParseRoles(f.roles.Value())
	u.Status = models.Status(f.status.Value())

	if f.username.Error() == "" && utf8.RuneCountInString(u.Username) < 3 {
		f.username.SetError("mínimo 3 caracteres")
		ok = false
	}
	if f.password.Error() == "" && u.Password != "" && utf8.RuneCountInString(u.Password) < minPassword {
		f.password.SetError("mínimo 6 caracteres")
		ok = false
	}
	if f.roles.Error() == "" && len(u.Roles) == 0 {
		f.roles.SetError("Requerido")
		ok = false
	}

	if !ok {
		f.form.SetError("Revise los campos marcados")
		return u, false
	}
	if err := models.Validate(u); err != nil {
		f.form.SetError(components.ErrorText(err))
		return u, false
	}
	return u, true
}

// Done reports the result of the save started by HandleKey.
func (f *Form) Done(err error) {
	f.pending = false
	if err != nil {
		f.form.SetError(components.ErrorText(err))
	}
}

// Cancelled reports whether the user left the form.
func (f *Form) Cancelled() bool {
	return !f.pending && f.form.IsCancelled()
}

// Render renders the form.
func (f *Form) Render() string {
	out := f.form.Render()
	if f.pending {
		out += "\n" + components.MutedStyle.Render("Guardando...")
	}
	return out
}
