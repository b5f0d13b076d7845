package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nutriplan/nutriplan/internal/models"
)

// LoginResult is the data block of a successful login.
type LoginResult struct {
	Token           string          `json:"token" validate:"required"`
	Username        string          `json:"username" validate:"required"`
	Roles           []string        `json:"roles"`
	ExpiresAt       *time.Time      `json:"expiresAt,omitempty"`
	Branches        []models.Branch `json:"sucursales" validate:"dive"`
	DefaultBranchID int64           `json:"sucursalPorDefecto"`
}

// Session converts the login data into a session.
func (r LoginResult) Session() models.Session {
	s := models.Session{
		Token:           r.Token,
		Username:        r.Username,
		Roles:           r.Roles,
		Branches:        r.Branches,
		DefaultBranchID: r.DefaultBranchID,
	}
	if r.ExpiresAt != nil {
		s.ExpiresAt = *r.ExpiresAt
	}
	return s
}

// Login authenticates against /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, call{
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     map[string]string{"username": username, "password": password},
		out:      &out,
		anon:     true,
		envelope: true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Branches lists the branches visible to the user.
func (c *Client) Branches(ctx context.Context) ([]models.Branch, error) {
	var out []models.Branch
	if err := c.do(ctx, call{method: http.MethodGet, path: "/sucursales", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

func list[T any](ctx context.Context, c *Client, path string, query map[string]string) ([]T, error) {
	var out []T
	err := c.do(ctx, call{method: http.MethodGet, path: path, query: query, out: &out, scoped: true})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, path string, query map[string]string) (*T, error) {
	var out T
	err := c.do(ctx, call{method: http.MethodGet, path: path, query: query, out: &out, scoped: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func send[T any](ctx context.Context, c *Client, method, path string, body T, wrapped bool) (T, error) {
	var out T
	err := c.do(ctx, call{method: method, path: path, body: body, out: &out, scoped: true, envelope: wrapped})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func itemPath(base string, id int64) string {
	return base + "/" + strconv.FormatInt(id, 10)
}

// Food items.

func (c *Client) ListFoods(ctx context.Context) ([]models.FoodItem, error) {
	return list[models.FoodItem](ctx, c, "/insumos", nil)
}

func (c *Client) CreateFood(ctx context.Context, f models.FoodItem) (models.FoodItem, error) {
	return send(ctx, c, http.MethodPost, "/insumos", f, false)
}

func (c *Client) UpdateFood(ctx context.Context, f models.FoodItem) (models.FoodItem, error) {
	return send(ctx, c, http.MethodPut, itemPath("/insumos", f.ID), f, false)
}

// Recipes.

func (c *Client) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	return list[models.Recipe](ctx, c, "/recetas", nil)
}

func (c *Client) GetRecipe(ctx context.Context, id int64) (*models.Recipe, error) {
	return get[models.Recipe](ctx, c, itemPath("/recetas", id), nil)
}

func (c *Client) CreateRecipe(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	return send(ctx, c, http.MethodPost, "/recetas", r, false)
}

func (c *Client) UpdateRecipe(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	return send(ctx, c, http.MethodPut, itemPath("/recetas", r.ID), r, false)
}

// Menus.

func (c *Client) ListMenus(ctx context.Context) ([]models.Menu, error) {
	return list[models.Menu](ctx, c, "/menus", nil)
}

func (c *Client) GetMenu(ctx context.Context, id int64) (*models.Menu, error) {
	return get[models.Menu](ctx, c, itemPath("/menus", id), nil)
}

func (c *Client) CreateMenu(ctx context.Context, m models.Menu) (models.Menu, error) {
	return send(ctx, c, http.MethodPost, "/menus", m, false)
}

func (c *Client) UpdateMenu(ctx context.Context, m models.Menu) (models.Menu, error) {
	return send(ctx, c, http.MethodPut, itemPath("/menus", m.ID), m, false)
}

// Menu assignments.

// ListAssignments returns the assignments of the selected branch between
// from and to, inclusive.
func (c *Client) ListAssignments(ctx context.Context, from, to string) ([]models.MenuAssignment, error) {
	return list[models.MenuAssignment](ctx, c, "/menus/asignaciones", map[string]string{"desde": from, "hasta": to})
}

func (c *Client) CreateAssignment(ctx context.Context, a models.MenuAssignment) (models.MenuAssignment, error) {
	return send(ctx, c, http.MethodPost, "/menus/asignaciones", a, false)
}

func (c *Client) UpdateAssignment(ctx context.Context, a models.MenuAssignment) (models.MenuAssignment, error) {
	return send(ctx, c, http.MethodPut, itemPath("/menus/asignaciones", a.ID), a, false)
}

// DeleteAssignment hard-deletes an assignment.
func (c *Client) DeleteAssignment(ctx context.Context, id int64) error {
	return c.do(ctx, call{method: http.MethodDelete, path: itemPath("/menus/asignaciones", id), scoped: true})
}

// AssignmentDetails returns the day's assignments resolved to ingredients.
func (c *Client) AssignmentDetails(ctx context.Context, date string) ([]models.AssignmentDetail, error) {
	return list[models.AssignmentDetail](ctx, c, "/menus/asignaciones/detalle", map[string]string{"fecha": date})
}

// Day observations.

// Observation returns the note of date for the selected branch. A missing
// note is not an error.
func (c *Client) Observation(ctx context.Context, date string) (models.DayObservation, error) {
	obs, err := get[models.DayObservation](ctx, c, "/menus/observaciones", map[string]string{"fecha": date})
	if errors.Is(err, ErrNotFound) {
		return models.DayObservation{Date: date, BranchID: c.creds.BranchID()}, nil
	}
	if err != nil {
		return models.DayObservation{}, err
	}
	return *obs, nil
}

// SaveObservation stores the note of a date.
func (c *Client) SaveObservation(ctx context.Context, obs models.DayObservation) error {
	if err := models.Validate(obs); err != nil {
		return err
	}
	return c.do(ctx, call{method: http.MethodPut, path: "/menus/observaciones", body: obs, scoped: true})
}

// Nutrition report.

// NutritionReport fetches the aggregate of a day for the selected branch.
func (c *Client) NutritionReport(ctx context.Context, date string, headcount int) (*models.NutritionReport, error) {
	if headcount < 0 {
		return nil, fmt.Errorf("negative headcount %d", headcount)
	}
	return get[models.NutritionReport](ctx, c, "/menus/reporte-nutricional", map[string]string{
		"fecha":      date,
		"comensales": strconv.Itoa(headcount),
	})
}

// Users.

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.do(ctx, call{method: http.MethodGet, path: "/auth/users", out: &out, envelope: true})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	var out models.User
	err := c.do(ctx, call{method: http.MethodPost, path: "/auth/register", body: u, out: &out, envelope: true})
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, u models.User) (models.User, error) {
	var out models.User
	err := c.do(ctx, call{method: http.MethodPut, path: itemPath("/auth/users", u.ID), body: u, out: &out, envelope: true})
	return out, err
}
