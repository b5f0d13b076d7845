package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/config"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/services/exports"
	"github.com/nutriplan/nutriplan/internal/session"
	"github.com/nutriplan/nutriplan/internal/tui/views/foods"
	"github.com/nutriplan/nutriplan/internal/tui/views/login"
	"github.com/nutriplan/nutriplan/internal/tui/views/menus"
	"github.com/nutriplan/nutriplan/internal/tui/views/planner"
	"github.com/nutriplan/nutriplan/internal/tui/views/recipes"
	"github.com/nutriplan/nutriplan/internal/tui/views/reports"
	"github.com/nutriplan/nutriplan/internal/tui/views/users"
	"github.com/nutriplan/nutriplan/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 120

// RoleAdmin unlocks user administration.
const RoleAdmin = "ADMIN"

// ExpiredNotice is shown on the login screen after a forced logout.
const ExpiredNotice = "La sesión expiró. Inicie sesión nuevamente."

// Module represents a screen of the application.
type Module string

const (
	ModuleLogin     Module = "login"
	ModuleDashboard Module = "dashboard"
	ModuleFoods     Module = "foods"
	ModuleRecipes   Module = "recipes"
	ModuleMenus     Module = "menus"
	ModulePlanner   Module = "planner"
	ModuleReports   Module = "reports"
	ModuleUsers     Module = "users"
	ModuleBranch    Module = "branch"
	ModuleHelp      Module = "help"
)

// View is a module screen driven by the shell.
type View interface {
	Update(msg tea.Msg) tea.Cmd
	Render(width, height int) string

	// Capturing reports whether the view needs every key, e.g. while a
	// form or search box is open.
	Capturing() bool
	Refresh() tea.Cmd
	Reset()
}

// Deps are the collaborators built by main.
type Deps struct {
	Config   *config.Config
	Session  *session.Context
	Client   *api.Client
	Stores   *catalog.Stores
	Exporter *exports.Exporter
	Clock    util.Clock
}

// App is the main Bubble Tea application model.
type App struct {
	// Dependencies
	config   *config.Config
	session  *session.Context
	client   *api.Client
	stores   *catalog.Stores
	exporter *exports.Exporter
	clock    util.Clock

	// Views
	login *login.View
	views map[Module]View

	// UI state
	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool

	// Current view
	currentModule  Module
	previousModule Module
	branches       *branchPicker
	dash           dashboard

	alerts []Alert
}

// Alert represents a message in the alert bar.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

// New creates the application. A hydrated session skips the login screen.
func New(d Deps) *App {
	clock := d.Clock
	if clock == nil {
		clock = util.SystemClock{}
	}
	cfg := d.Config
	pageSize := cfg.Display.PageSize
	program := cfg.Program.Name

	a := &App{
		config:   cfg,
		session:  d.Session,
		client:   d.Client,
		stores:   d.Stores,
		exporter: d.Exporter,
		clock:    clock,
		login:    login.New(d.Client, d.Session, program),
		theme:    NewTheme(cfg.Display.ColorScheme),
		keys:     DefaultKeyMap(),
		alerts:   []Alert{},
	}

	a.views = map[Module]View{
		ModuleFoods:   foods.New(d.Stores.Foods, d.Session.BranchContext, pageSize),
		ModuleRecipes: recipes.New(d.Stores.Recipes, d.Stores.Foods, d.Client.GetRecipe, d.Session, d.Exporter, pageSize),
		ModuleMenus:   menus.New(d.Stores.Menus, d.Stores.Recipes, d.Client.GetMenu, d.Session, d.Exporter, pageSize),
		ModulePlanner: planner.New(d.Stores.Assignments, d.Stores.Menus, d.Client, d.Exporter, d.Session, planner.Options{
			Program:          program,
			DefaultHeadcount: cfg.Program.DefaultHeadcount,
			Clock:            clock,
		}),
		ModuleReports: reports.New(d.Client, d.Exporter, d.Session, reports.Options{
			DefaultHeadcount: cfg.Program.DefaultHeadcount,
			Clock:            clock,
		}),
		ModuleUsers: users.New(d.Stores.Users, d.Session.BranchContext, pageSize),
	}

	a.currentModule = ModuleLogin
	if d.Session.LoggedIn() {
		a.currentModule = ModuleDashboard
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	if a.currentModule == ModuleLogin {
		return tea.EnterAltScreen
	}
	return tea.Batch(tea.EnterAltScreen, a.loadDashboard())
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true

	case login.LoggedInMsg:
		cmd = a.startSession(msg.Username)

	case dashboardMsg:
		a.dash.loading = false
		a.dash.recent = msg.recent
		a.dash.err = msg.err

	case branchesMsg:
		if a.branches != nil {
			a.branches.loaded(msg.branches, msg.err)
		}

	case branchSelectedMsg:
		cmd = a.branchSelected(msg)

	default:
		cmd = a.broadcast(msg)
	}

	if a.session.WasUnauthorized() && a.session.LoggedIn() {
		return a, a.forceLogout()
	}
	return a, cmd
}

// broadcast hands msg to every view. Each view only reacts to its own
// message types.
func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	cmds := []tea.Cmd{a.login.Update(msg)}
	for _, v := range a.views {
		cmds = append(cmds, v.Update(msg))
	}
	return tea.Batch(cmds...)
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) tea.Cmd {
	// Quit confirmation first (modal takes priority)
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "s", "S", "enter":
			a.quitting = true
			return tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
		}
		return nil
	}

	// The login form owns every key except the hard quit keys
	if a.currentModule == ModuleLogin {
		if msg.String() == "ctrl+c" || a.keys.F10.Matches(msg) {
			a.showConfirm = true
			return nil
		}
		return a.login.Update(msg)
	}

	if a.currentModule == ModuleBranch {
		return a.handleBranchKeys(msg)
	}

	// Forms and search boxes need all input
	view := a.views[a.currentModule]
	if view != nil && view.Capturing() {
		if msg.String() == "ctrl+c" {
			a.showConfirm = true
			return nil
		}
		return view.Update(msg)
	}

	// Global key bindings (only when not in input mode)
	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return nil
	}

	if a.keys.Logout.Matches(msg) {
		return a.logout()
	}

	if a.keys.IsFunctionKey(msg) {
		return a.switchTo(a.keys.GetFunctionKeyModule(msg))
	}

	if a.keys.Help.Matches(msg) {
		return a.switchTo(ModuleHelp)
	}

	if a.currentModule == ModuleHelp {
		if a.keys.Back.Matches(msg) {
			a.currentModule = a.previousModule
			a.previousModule = ""
			if a.currentModule == "" {
				a.currentModule = ModuleDashboard
			}
		}
		return nil
	}

	if a.currentModule == ModuleDashboard {
		if msg.String() == "r" {
			return a.loadDashboard()
		}
		return nil
	}

	if view != nil {
		return view.Update(msg)
	}
	return nil
}

// switchTo opens module m.
func (a *App) switchTo(m Module) tea.Cmd {
	switch m {
	case "":
		return nil
	case ModuleHelp:
		if a.currentModule != ModuleHelp {
			a.previousModule = a.currentModule
			a.currentModule = ModuleHelp
		}
		return nil
	case ModuleBranch:
		return a.openBranchPicker()
	case ModuleDashboard:
		a.currentModule = ModuleDashboard
		return a.loadDashboard()
	case ModuleUsers:
		if !a.isAdmin() {
			a.AddAlert(AlertWarning, "Acceso restringido a administradores")
			return nil
		}
	}

	view, ok := a.views[m]
	if !ok {
		return nil
	}
	if a.currentModule == m {
		return nil
	}
	a.currentModule = m
	return view.Refresh()
}

func (a *App) isAdmin() bool {
	s, ok := a.session.Session()
	return ok && s.HasRole(RoleAdmin)
}

// startSession opens the dashboard after a successful login.
func (a *App) startSession(username string) tea.Cmd {
	a.resetViews()
	a.ClearAlerts()
	a.currentModule = ModuleDashboard
	a.previousModule = ""
	a.AddAlert(AlertInfo, "Bienvenido, "+username)
	return a.loadDashboard()
}

// logout clears the session and returns to the login screen.
func (a *App) logout() tea.Cmd {
	a.endSession("")
	a.AddAlert(AlertInfo, "Sesión cerrada")
	return nil
}

// forceLogout handles a token rejected by the backend.
func (a *App) forceLogout() tea.Cmd {
	slog.Warn("backend rejected the session token, logging out")
	a.endSession(ExpiredNotice)
	a.AddAlert(AlertWarning, ExpiredNotice)
	return nil
}

func (a *App) endSession(notice string) {
	if err := a.session.Teardown(context.Background()); err != nil {
		slog.Error("clearing session", "error", err)
	}
	a.resetViews()
	a.ClearAlerts()
	a.dash = dashboard{}
	a.branches = nil
	a.login.Reset()
	a.login.SetNotice(notice)
	a.currentModule = ModuleLogin
	a.previousModule = ""
}

// resetViews drops every cached collection and view state.
func (a *App) resetViews() {
	a.stores.Reset()
	for _, v := range a.views {
		v.Reset()
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Iniciando..."
	}

	if a.quitting {
		return a.theme.Title.Render("Cerrando " + a.config.Program.Name + "...")
	}

	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	contentHeight := ContentHeight(a.height, 6) // header, alert, footer
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// renderHeader renders the top header bar.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("%s v%s", strings.ToUpper(a.config.Program.Name), Version)

	var info string
	if s, ok := a.session.Session(); ok {
		info = s.Username
		if branch, ok := a.session.Branch(); ok {
			info += " | " + branch.Name
		} else {
			info += " | Sin sucursal"
		}
	}

	maxInfo := a.width - lipgloss.Width(title) - 4
	info = Truncate(info, maxInfo)
	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(info) - 4
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	return header + "\n" + a.theme.DrawDoubleLine(a.width)
}

// renderAlertBar shows today's date and the latest alert.
func (a *App) renderAlertBar() string {
	dateStr := a.clock.Now().Format(a.config.Display.DateFormat)

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("ERROR: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("AVISO: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render(alert.Message)
		}
	} else {
		alertText = a.theme.Muted.Render("Sin novedades")
	}

	return a.theme.Value.Render(dateStr) + a.theme.StatusDivider.Render() + alertText
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	contentWidth := ContentWidth(a.width, 20, MaxContentWidth)
	content := a.getModuleContent(contentWidth, height)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	return style.Render(lipgloss.NewStyle().Width(contentWidth).Render(content))
}

// getModuleContent returns the content for the current module.
func (a *App) getModuleContent(width, height int) string {
	switch a.currentModule {
	case ModuleLogin:
		return a.login.Render(width, height)
	case ModuleDashboard:
		return a.renderDashboard(width)
	case ModuleBranch:
		return a.renderBranchPicker()
	case ModuleHelp:
		return a.renderHelp()
	}
	if v, ok := a.views[a.currentModule]; ok {
		return v.Render(width, height)
	}
	return ""
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("═══ AYUDA ═══"))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Subtitle.Render("MÓDULOS"))
	b.WriteString("\n\n")

	navItems := [][2]string{
		{"F1", "Ayuda"},
		{"F2", "Inicio"},
		{"F3", "Insumos"},
		{"F4", "Recetas"},
		{"F5", "Menús"},
		{"F6", "Planificador"},
		{"F7", "Reporte nutricional"},
	}
	if a.isAdmin() {
		navItems = append(navItems, [2]string{"F8", "Usuarios"})
	}
	navItems = append(navItems,
		[2]string{"F9", "Cambiar sucursal"},
		[2]string{"F10", "Salir"},
	)

	for _, item := range navItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Subtitle.Render("CONTROLES"))
	b.WriteString("\n\n")

	ctrlItems := [][2]string{
		{"↑/↓", "Mover"},
		{"Enter", "Ver / seleccionar"},
		{"Esc", "Volver / cancelar"},
		{"/", "Buscar"},
		{"Tab", "Campo siguiente"},
		{"Ctrl+S", "Guardar formulario"},
		{"PgUp/Dn", "Página"},
		{"L", "Cerrar sesión"},
	}

	for _, item := range ctrlItems {
		line := fmt.Sprintf("    %-8s  %s", item[0], item[1])
		b.WriteString(a.theme.Primary.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Presione Esc para volver"))

	return b.String()
}

// renderConfirmDialog renders the quit confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRMAR SALIDA") + "\n\n" +
			a.theme.Base.Render("¿Desea salir de "+a.config.Program.Name+"?") + "\n\n" +
			a.theme.Label.Render("[S]í  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	separator := a.theme.DrawHorizontalLine(a.width)

	help := a.keys.StatusBarHelp(a.isAdmin(), a.width)
	if a.currentModule == ModuleLogin {
		help = "[Enter]Ingresar [Tab]Campo siguiente [F10]Salir"
	}

	return separator + "\n" + a.theme.Footer.Render(help)
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    a.clock.Now(),
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// ClearAlerts removes all alerts.
func (a *App) ClearAlerts() {
	a.alerts = []Alert{}
}

// Run starts the TUI application.
func Run(ctx context.Context, d Deps) error {
	app := New(d)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	// Handle context cancellation
	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
