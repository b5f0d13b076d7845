package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriplan/nutriplan/internal/config"
	"github.com/nutriplan/nutriplan/internal/models"
)

type fakeCreds struct {
	token        string
	branch       int64
	epoch        atomic.Uint64
	unauthorized atomic.Int32
}

func (f *fakeCreds) Token() string   { return f.token }
func (f *fakeCreds) BranchID() int64 { return f.branch }
func (f *fakeCreds) Epoch() uint64   { return f.epoch.Load() }
func (f *fakeCreds) Unauthorized()   { f.unauthorized.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeCreds) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default().API
	cfg.BaseURL = srv.URL
	creds := &fakeCreds{token: "tkn", branch: 3}
	return New(cfg, creds), creds
}

func TestClient_ScopesRequests(t *testing.T) {
	var got *http.Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Write([]byte(`[{"insumoId": 1, "grupo": "Cereales", "nombre": "Arroz"}]`))
	})

	foods, err := client.ListFoods(context.Background())
	require.NoError(t, err)
	require.Len(t, foods, 1)
	assert.Equal(t, "Arroz", foods[0].Name)

	assert.Equal(t, "/insumos", got.URL.Path)
	assert.Equal(t, "Bearer tkn", got.Header.Get("Authorization"))
	assert.Equal(t, "3", got.Header.Get("X-Sucursal-Id"))
	assert.Equal(t, "3", got.URL.Query().Get("sucursalId"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
}

func TestClient_ErrorShapes(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantIs      error
	}{
		{"JSON message", 400, `{"message": "Nombre duplicado"}`, "Nombre duplicado", nil},
		{"JSON error field", 500, `{"error": "fallo interno"}`, "fallo interno", nil},
		{"Plain text", 400, "cantidad inválida", "cantidad inválida", nil},
		{"Empty body", 502, "", "Error 502", nil},
		{"Conflict", 409, `{"message": "en uso"}`, "en uso", ErrInUse},
		{"Constraint code", 400, `{"message": "x", "code": "CONSTRAINT_VIOLATION"}`, "x", ErrInUse},
		{"In use code", 422, `{"message": "y", "code": "IN_USE"}`, "y", ErrInUse},
		{"Not found", 404, "", "Error 404", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.ListRecipes(context.Background())
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestClient_UnauthorizedNotifiesCredentials(t *testing.T) {
	client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.ListMenus(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), creds.unauthorized.Load())
	assert.Equal(t, "La sesión expiró. Inicie sesión nuevamente.", Message(err))
}

func TestClient_StaleBranchIsDiscarded(t *testing.T) {
	var creds *fakeCreds
	var client *Client
	client, creds = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// The user switches branch while the request is in flight.
		creds.epoch.Add(1)
		w.Write([]byte(`[]`))
	})

	_, err := client.ListAssignments(context.Background(), "2024-03-04", "2024-03-10")
	assert.ErrorIs(t, err, ErrStaleBranch)
}

func TestClient_CancelledBranchContext(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	client, creds := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.AssignmentDetails(ctx, "2024-03-04")
		done <- err
	}()

	<-started
	creds.epoch.Add(1)
	cancel()
	assert.ErrorIs(t, <-done, ErrStaleBranch)
}

func TestClient_LoginEnvelope(t *testing.T) {
	var body map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("X-Sucursal-Id"))
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{
			"success": true,
			"message": "ok",
			"data": {
				"token": "jwt",
				"username": "ana",
				"roles": ["ADMIN"],
				"sucursales": [{"sucursalId": 1, "nombre": "Centro"}],
				"sucursalPorDefecto": 1
			}
		}`))
	})

	res, err := client.Login(context.Background(), "ana", "secreta")
	require.NoError(t, err)
	assert.Equal(t, "ana", body["username"])
	assert.Equal(t, "jwt", res.Token)

	s := res.Session()
	assert.Equal(t, "ana", s.Username)
	require.Len(t, s.Branches, 1)
	assert.True(t, s.ExpiresAt.IsZero())
}

func TestClient_LoginEnvelopeFailure(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "Credenciales inválidas"}`))
	})

	_, err := client.Login(context.Background(), "ana", "mala")
	require.Error(t, err)
	assert.Equal(t, "Credenciales inválidas", Message(err))
}

func TestClient_RejectsMalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"Negative total", `[{"recetaId": 1, "nombre": "Sopa", "rendimiento": 4, "energiaKcalTotal": -5}]`},
		{"String total", `[{"recetaId": 1, "nombre": "Sopa", "rendimiento": 4, "grasaTotalG": "mucho"}]`},
		{"Missing name", `[{"recetaId": 1, "rendimiento": 4}]`},
		{"Not JSON", `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			_, err := client.ListRecipes(context.Background())
			assert.ErrorIs(t, err, models.ErrInvalidPayload)
		})
	}
}

func TestClient_ObservationNotFoundIsEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-04", r.URL.Query().Get("fecha"))
		w.WriteHeader(http.StatusNotFound)
	})

	obs, err := client.Observation(context.Background(), "2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", obs.Date)
	assert.Empty(t, obs.Note)
}

func TestClient_SaveWithEmptyResponse(t *testing.T) {
	var method, path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.UpdateFood(context.Background(), models.FoodItem{ID: 9, Group: "Frutas", Name: "Pera"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/insumos/9", path)

	require.NoError(t, client.DeleteAssignment(context.Background(), 12))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/menus/asignaciones/12", path)
}

func TestClient_NutritionReportTotals(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "120", r.URL.Query().Get("comensales"))
		w.Write([]byte(`{"fecha": "2024-03-04", "sucursalId": 3, "comensales": 120, "energiaKcalTotal": 2100.5, "hierroTotalMg": null}`))
	})

	report, err := client.NutritionReport(context.Background(), "2024-03-04", 120)
	require.NoError(t, err)
	v, ok := report.Totals.Get(models.KeyEnergyTotal)
	assert.True(t, ok)
	assert.Equal(t, 2100.5, v)
	assert.Contains(t, report.Totals, models.KeyIronTotal)
}

func TestParseError_HTMLBodyFallsBack(t *testing.T) {
	e := parseError(503, []byte("<html>Service Unavailable</html>"))
	assert.Equal(t, "Error 503", e.Message)
	assert.NoError(t, e.Unwrap())
}
