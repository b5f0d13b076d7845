package tui

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/config"
	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/repository"
	"github.com/nutriplan/nutriplan/internal/services/catalog"
	"github.com/nutriplan/nutriplan/internal/services/exports"
	"github.com/nutriplan/nutriplan/internal/session"
	"github.com/nutriplan/nutriplan/internal/testutil"
	"github.com/nutriplan/nutriplan/internal/util"
)

var testNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// fakeBackend answers the REST endpoints the shell touches.
type fakeBackend struct {
	mu       sync.Mutex
	expired  bool
	foods    []models.FoodItem
	branches []models.Branch
	scopes   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		foods: []models.FoodItem{
			testutil.FixtureFood(),
			testutil.FixtureFood(func(f *models.FoodItem) { f.ID = 2; f.Name = "Lentejas"; f.Group = "Legumbres" }),
			testutil.FixtureFood(func(f *models.FoodItem) { f.ID = 3; f.Name = "Harina"; f.Status = models.StatusDeleted }),
		},
		branches: []models.Branch{{ID: 1, Name: "Centro"}, {ID: 2, Name: "Norte"}, {ID: 3, Name: "Sur"}},
	}
}

func (b *fakeBackend) setExpired(v bool) {
	b.mu.Lock()
	b.expired = v
	b.mu.Unlock()
}

// foodScopes returns the branch header of every food list request.
func (b *fakeBackend) foodScopes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.scopes...)
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.URL.Path == "/auth/login" {
		b.login(w, r)
		return
	}
	if b.expired {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message": "token expirado"}`)
		return
	}

	switch r.URL.Path {
	case "/insumos":
		b.scopes = append(b.scopes, r.Header.Get("X-Sucursal-Id"))
		json.NewEncoder(w).Encode(b.foods)
	case "/recetas", "/menus", "/menus/asignaciones":
		io.WriteString(w, "[]")
	case "/sucursales":
		json.NewEncoder(w).Encode(b.branches)
	case "/auth/users":
		io.WriteString(w, `{"success": true, "data": []}`)
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	json.NewDecoder(r.Body).Decode(&body)
	if body["password"] != "secreto" {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"success": false, "message": "Credenciales inválidas"}`)
		return
	}
	io.WriteString(w, `{
		"success": true,
		"data": {
			"token": "tkn-ana",
			"username": "`+body["username"]+`",
			"roles": ["NUTRICIONISTA"],
			"sucursales": [{"sucursalId": 1, "nombre": "Centro"}, {"sucursalId": 2, "nombre": "Norte"}],
			"sucursalPorDefecto": 1
		}
	}`)
}

// testEnv is an App wired to a fake backend and an in-memory state store.
type testEnv struct {
	app     *App
	backend *fakeBackend
	session *session.Context
	history *repository.ExportRepository
	db      *testutil.TestDB
}

// newTestEnv creates an App sized 120x40. A non-nil s starts logged in.
func newTestEnv(t *testing.T, s *models.Session) *testEnv {
	t.Helper()
	env := newUnsizedEnv(t, s)

	env.app.width = 120
	env.app.height = 40
	env.app.ready = true
	return env
}

// newUnsizedEnv leaves sizing to the caller, e.g. teatest's
// WithInitialTermSize.
func newUnsizedEnv(t *testing.T, s *models.Session) *testEnv {
	t.Helper()

	backend := newFakeBackend()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	db := testutil.NewTestDB(t)
	state := repository.NewStateRepository(db.DB.DB)
	history := repository.NewExportRepository(db.DB.DB)
	clock := util.FixedClock{T: testNow}

	sess := session.New(context.Background(), state, clock)
	if s != nil {
		if err := sess.Begin(context.Background(), *s); err != nil {
			t.Fatalf("starting session: %v", err)
		}
	}

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Program.Name = "Comedor escolar"

	client := api.New(cfg.API, sess)
	app := New(Deps{
		Config:   cfg,
		Session:  sess,
		Client:   client,
		Stores:   catalog.NewStores(client),
		Exporter: exports.New(t.TempDir(), cfg.Program.Name, "Pruebas", clock, history),
		Clock:    clock,
	})

	return &testEnv{app: app, backend: backend, session: sess, history: history, db: db}
}

func adminSession(overrides ...func(*models.Session)) *models.Session {
	s := testutil.FixtureSession(overrides...)
	return &s
}

// send delivers msg and runs every resulting command to completion.
func (e *testEnv) send(msg tea.Msg) []tea.Msg {
	_, cmd := e.app.Update(msg)
	return testutil.Drain(e.update, cmd)
}

func (e *testEnv) update(msg tea.Msg) tea.Cmd {
	_, cmd := e.app.Update(msg)
	return cmd
}

// press sends each named key in turn.
func (e *testEnv) press(keys ...string) {
	for _, k := range keys {
		e.send(testutil.Key(k))
	}
}

func (e *testEnv) typeText(text string) {
	for _, msg := range testutil.Type(text) {
		e.send(msg)
	}
}

// init runs the startup commands.
func (e *testEnv) init() {
	testutil.Drain(e.update, e.app.Init())
}
