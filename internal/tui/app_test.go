package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/testutil"
)

func TestApp_InitialState_LoggedOut(t *testing.T) {
	env := newTestEnv(t, nil)
	app := env.app

	if app.currentModule != ModuleLogin {
		t.Errorf("expected login screen, got %s", app.currentModule)
	}
	if app.quitting || app.showConfirm {
		t.Error("expected no quit state initially")
	}

	output := app.View()
	if !strings.Contains(output, "Iniciar sesión") {
		t.Error("expected the login form")
	}
	if !strings.Contains(output, "Comedor escolar") {
		t.Error("expected the program name on the login screen")
	}
}

func TestApp_InitialState_LoggedIn(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.init()

	if env.app.currentModule != ModuleDashboard {
		t.Errorf("expected dashboard, got %s", env.app.currentModule)
	}
	output := env.app.View()
	if !strings.Contains(output, "PANEL PRINCIPAL") {
		t.Error("expected dashboard title in view output")
	}
	if !strings.Contains(output, "nutricionista | Centro") {
		t.Error("expected user and branch in the header")
	}
}

func TestApp_View_NotReady(t *testing.T) {
	env := newTestEnv(t, nil)
	env.app.ready = false

	if !strings.Contains(env.app.View(), "Iniciando") {
		t.Error("expected initialization message when not ready")
	}
}

func TestApp_View_Quitting(t *testing.T) {
	env := newTestEnv(t, nil)
	env.app.quitting = true

	if !strings.Contains(env.app.View(), "Cerrando Comedor escolar") {
		t.Error("expected shutdown message when quitting")
	}
}

func TestApp_LoginFlow(t *testing.T) {
	env := newTestEnv(t, nil)

	env.typeText("ana")
	env.press("enter")
	env.typeText("secreto")
	env.press("enter")

	if !env.session.LoggedIn() {
		t.Fatal("expected an active session")
	}
	if env.app.currentModule != ModuleDashboard {
		t.Fatalf("expected dashboard after login, got %s", env.app.currentModule)
	}
	if env.session.BranchID() != 1 {
		t.Errorf("expected default branch 1, got %d", env.session.BranchID())
	}

	output := env.app.View()
	for _, want := range []string{"ana | Centro", "Bienvenido, ana", "NUTRICIONISTA"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in:\n%s", want, output)
		}
	}
	env.db.AssertRowCount(t, "local_state", 5)
}

func TestApp_LoginRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	env.typeText("ana")
	env.press("enter")
	env.typeText("incorrecta")
	env.press("enter")

	if env.session.LoggedIn() {
		t.Fatal("expected no session")
	}
	if env.app.currentModule != ModuleLogin {
		t.Errorf("expected to stay on login, got %s", env.app.currentModule)
	}
	if !strings.Contains(env.app.View(), "Usuario o contraseña incorrectos") {
		t.Error("expected the credentials error")
	}
}

func TestApp_LoginScreenTypesQuitKeys(t *testing.T) {
	env := newTestEnv(t, nil)

	env.typeText("quique")
	if env.app.showConfirm {
		t.Fatal("q is text on the login form")
	}

	env.press("f10")
	if !env.app.showConfirm {
		t.Error("F10 should open the quit confirmation")
	}
}

func TestApp_ModuleNavigation_FKeys(t *testing.T) {
	tests := []struct {
		key      string
		expected Module
		title    string
	}{
		{"f3", ModuleFoods, "INSUMOS"},
		{"f4", ModuleRecipes, "RECETAS"},
		{"f5", ModuleMenus, "MENÚS"},
		{"f6", ModulePlanner, "MARZO 2024"},
		{"f7", ModuleReports, "REPORTE NUTRICIONAL"},
		{"f8", ModuleUsers, "USUARIOS"},
		{"f2", ModuleDashboard, "PANEL PRINCIPAL"},
	}

	for _, tt := range tests {
		t.Run(string(tt.expected), func(t *testing.T) {
			env := newTestEnv(t, adminSession())
			if tt.expected == ModuleDashboard {
				env.press("f3")
			}

			env.press(tt.key)
			if env.app.currentModule != tt.expected {
				t.Errorf("expected module %s, got %s", tt.expected, env.app.currentModule)
			}
			if out := env.app.View(); !strings.Contains(out, tt.title) {
				t.Errorf("expected %q in view:\n%s", tt.title, out)
			}
		})
	}
}

func TestApp_FoodsLoadOnOpen(t *testing.T) {
	env := newTestEnv(t, adminSession())

	env.press("f3")
	output := env.app.View()
	if !strings.Contains(output, "Arroz") || !strings.Contains(output, "Lentejas") {
		t.Errorf("expected the fetched foods:\n%s", output)
	}
	if strings.Contains(output, "Harina") {
		t.Error("deleted items are hidden")
	}
	if scopes := env.backend.foodScopes(); len(scopes) == 0 || scopes[len(scopes)-1] != "1" {
		t.Errorf("expected requests scoped to branch 1, got %v", scopes)
	}
}

func TestApp_UsersRequireAdmin(t *testing.T) {
	env := newTestEnv(t, adminSession(func(s *models.Session) {
		s.Roles = []string{"NUTRICIONISTA"}
	}))

	env.press("f8")
	if env.app.currentModule != ModuleDashboard {
		t.Errorf("expected to stay on dashboard, got %s", env.app.currentModule)
	}
	output := env.app.View()
	if !strings.Contains(output, "Acceso restringido a administradores") {
		t.Error("expected the restriction alert")
	}
	if strings.Contains(output, "[F8]Usuarios") {
		t.Error("users entry should be hidden from the status bar")
	}
}

func TestApp_HelpAndBack(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.press("f5")

	env.press("f1")
	if env.app.currentModule != ModuleHelp {
		t.Fatalf("expected help, got %s", env.app.currentModule)
	}
	if !strings.Contains(env.app.View(), "AYUDA") {
		t.Error("expected help screen")
	}

	env.press("esc")
	if env.app.currentModule != ModuleMenus {
		t.Errorf("expected to return to menus, got %s", env.app.currentModule)
	}

	env.press("?")
	if env.app.currentModule != ModuleHelp {
		t.Error("? should open help")
	}
}

func TestApp_QuitConfirmation(t *testing.T) {
	t.Run("show and cancel", func(t *testing.T) {
		env := newTestEnv(t, adminSession())
		env.press("q")
		if !env.app.showConfirm {
			t.Fatal("expected confirmation dialog")
		}
		if !strings.Contains(env.app.View(), "CONFIRMAR SALIDA") {
			t.Error("expected dialog in view")
		}
		env.press("n")
		if env.app.showConfirm {
			t.Error("expected dialog closed")
		}
	})

	t.Run("confirm", func(t *testing.T) {
		env := newTestEnv(t, adminSession())
		env.press("q")
		_, cmd := env.app.Update(testutil.Key("s"))
		if !env.app.quitting {
			t.Error("expected quitting")
		}
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})

	t.Run("F10 and esc", func(t *testing.T) {
		env := newTestEnv(t, adminSession())
		env.press("f10")
		if !env.app.showConfirm {
			t.Fatal("F10 should ask for confirmation")
		}
		env.press("esc")
		if env.app.showConfirm {
			t.Error("esc should cancel")
		}
	})

	t.Run("ignores other keys", func(t *testing.T) {
		env := newTestEnv(t, adminSession())
		env.press("q", "x", "f3")
		if !env.app.showConfirm || env.app.quitting {
			t.Error("dialog should stay open")
		}
		if env.app.currentModule != ModuleDashboard {
			t.Error("module should not change behind the dialog")
		}
	})
}

func TestApp_CapturingViewGetsKeys(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.press("f3", "/")

	env.typeText("q")
	if env.app.showConfirm {
		t.Fatal("q should go to the search box")
	}
	env.press("f5")
	if env.app.currentModule != ModuleFoods {
		t.Error("function keys are held while searching")
	}

	env.press("esc", "f5")
	if env.app.currentModule != ModuleMenus {
		t.Errorf("expected menus after leaving search, got %s", env.app.currentModule)
	}
}

func TestApp_Logout(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.press("f3")

	env.press("L")
	if env.session.LoggedIn() {
		t.Fatal("expected session cleared")
	}
	if env.app.currentModule != ModuleLogin {
		t.Errorf("expected login screen, got %s", env.app.currentModule)
	}
	if n := len(env.app.stores.Foods.Items()); n != 0 {
		t.Errorf("expected stores reset, %d foods left", n)
	}
	env.db.AssertRowCount(t, "local_state", 0)
	if strings.Contains(env.app.View(), "expiró") {
		t.Error("a voluntary logout shows no expiry notice")
	}
}

func TestApp_ForcedLogoutOnUnauthorized(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.backend.setExpired(true)

	env.press("f3")

	if env.session.LoggedIn() {
		t.Fatal("a 401 must end the session")
	}
	if env.app.currentModule != ModuleLogin {
		t.Errorf("expected login screen, got %s", env.app.currentModule)
	}
	if !strings.Contains(env.app.View(), ExpiredNotice) {
		t.Errorf("expected the expiry notice:\n%s", env.app.View())
	}
	env.db.AssertRowCount(t, "local_state", 0)

	// Logging back in clears the notice and the flag.
	env.backend.setExpired(false)
	env.typeText("ana")
	env.press("enter")
	env.typeText("secreto")
	env.press("enter")
	if env.app.currentModule != ModuleDashboard || !env.session.LoggedIn() {
		t.Fatalf("expected a new session, module %s", env.app.currentModule)
	}
	if strings.Contains(env.app.View(), ExpiredNotice) {
		t.Error("notice should be gone after logging in")
	}
}

func TestApp_BranchSwitch(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.press("f3")
	epoch := env.session.Epoch()

	env.press("f9")
	if env.app.currentModule != ModuleBranch {
		t.Fatalf("expected branch picker, got %s", env.app.currentModule)
	}
	output := env.app.View()
	if !strings.Contains(output, "Centro (actual)") || !strings.Contains(output, "Norte") {
		t.Errorf("expected the session branches:\n%s", output)
	}

	env.press("down", "enter")

	if env.session.BranchID() != 2 {
		t.Fatalf("expected branch 2, got %d", env.session.BranchID())
	}
	if env.session.Epoch() == epoch {
		t.Error("switching branches must bump the epoch")
	}
	if env.app.currentModule != ModuleFoods {
		t.Errorf("expected to return to foods, got %s", env.app.currentModule)
	}
	scopes := env.backend.foodScopes()
	if scopes[len(scopes)-1] != "2" {
		t.Errorf("expected a refetch for branch 2, got %v", scopes)
	}
	output = env.app.View()
	if !strings.Contains(output, "Sucursal activa: Norte") || !strings.Contains(output, "nutricionista | Norte") {
		t.Errorf("expected the new branch in the shell:\n%s", output)
	}
}

func TestApp_BranchPickerEsc(t *testing.T) {
	env := newTestEnv(t, adminSession())

	env.press("f9", "down", "esc")
	if env.app.currentModule != ModuleDashboard {
		t.Errorf("expected dashboard, got %s", env.app.currentModule)
	}
	if env.session.BranchID() != 1 {
		t.Error("esc must not change the branch")
	}
}

func TestApp_BranchPickerLoadsFromBackend(t *testing.T) {
	env := newTestEnv(t, adminSession(func(s *models.Session) {
		s.Branches = nil
		s.DefaultBranchID = 0
	}))

	env.press("f9")
	output := env.app.View()
	if !strings.Contains(output, "Sur") {
		t.Fatalf("expected backend branches:\n%s", output)
	}

	env.press("down", "down", "enter")
	if b, ok := env.session.Branch(); !ok || b.Name != "Sur" {
		t.Errorf("expected Sur selected, got %+v", b)
	}
}

func TestApp_Dashboard(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.init()

	output := env.app.View()
	if !strings.Contains(output, "Sin exportaciones registradas.") {
		t.Errorf("expected empty history:\n%s", output)
	}
	if !strings.Contains(output, "Insumos:") {
		t.Error("expected catalog counts")
	}

	err := env.history.Record(context.Background(), &models.ExportRecord{
		Kind:      models.ExportShoppingList,
		FileName:  "Lista_Compras_2024-03-04.xlsx",
		Path:      "/tmp/Lista_Compras_2024-03-04.xlsx",
		BranchID:  1,
		CreatedAt: testNow,
	})
	if err != nil {
		t.Fatalf("recording export: %v", err)
	}

	env.press("r")
	output = env.app.View()
	if !strings.Contains(output, "Lista_Compras_2024-03-04.xlsx") {
		t.Errorf("expected the recorded export:\n%s", output)
	}
	if !strings.Contains(output, "Lista de compras") {
		t.Error("expected the export kind label")
	}
}

func TestApp_DashboardCountsLiveItems(t *testing.T) {
	env := newTestEnv(t, adminSession())
	env.init()

	summary := env.app.catalogSummary()
	if !strings.Contains(summary, "2") {
		t.Errorf("expected 2 live foods in %q", summary)
	}
}

func TestApp_WindowResize(t *testing.T) {
	env := newTestEnv(t, nil)

	env.send(tea.WindowSizeMsg{Width: 80, Height: 24})
	if env.app.width != 80 || env.app.height != 24 {
		t.Errorf("expected 80x24, got %dx%d", env.app.width, env.app.height)
	}
}

func TestApp_ResponsiveFooter(t *testing.T) {
	env := newTestEnv(t, adminSession())

	env.app.width = 70
	if !strings.Contains(env.app.View(), "[F1]Ayuda [F9]Sucursal [F10]Salir") {
		t.Error("expected short help on narrow terminals")
	}

	env.app.width = 140
	if !strings.Contains(env.app.View(), "[F8]Usuarios") {
		t.Error("expected full help on wide terminals")
	}
}

func TestApp_AlertManagement(t *testing.T) {
	env := newTestEnv(t, adminSession())
	app := env.app

	if !strings.Contains(app.renderAlertBar(), "Sin novedades") {
		t.Error("expected quiet alert bar")
	}

	app.AddAlert(AlertWarning, "Sin conexión")
	app.AddAlert(AlertCritical, "Error de disco")

	if len(app.alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(app.alerts))
	}
	if app.alerts[0].Message != "Error de disco" {
		t.Errorf("expected newest alert first, got %q", app.alerts[0].Message)
	}
	bar := app.renderAlertBar()
	if !strings.Contains(bar, "ERROR: Error de disco") || !strings.Contains(bar, "2024-03-04") {
		t.Errorf("unexpected alert bar %q", bar)
	}

	app.ClearAlerts()
	if len(app.alerts) != 0 {
		t.Error("expected alerts cleared")
	}
}

func TestApp_AlertLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 15; i++ {
		env.app.AddAlert(AlertInfo, fmt.Sprintf("aviso %d", i))
	}
	if len(env.app.alerts) != 10 {
		t.Errorf("expected 10 alerts, got %d", len(env.app.alerts))
	}
	if env.app.alerts[0].Message != "aviso 14" {
		t.Errorf("expected newest first, got %q", env.app.alerts[0].Message)
	}
}
