package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriplan/nutriplan/internal/api"
	"github.com/nutriplan/nutriplan/internal/models"
	"github.com/nutriplan/nutriplan/internal/testutil"
)

type fakeRecipes struct {
	items    []models.Recipe
	listErr  error
	saveErr  error
	created  []models.Recipe
	updated  []models.Recipe
	listCall int
}

func (f *fakeRecipes) List(ctx context.Context) ([]models.Recipe, error) {
	f.listCall++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeRecipes) Create(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	if f.saveErr != nil {
		return r, f.saveErr
	}
	f.created = append(f.created, r)
	r.ID = int64(100 + len(f.created))
	f.items = append(f.items, r)
	return r, nil
}

func (f *fakeRecipes) Update(ctx context.Context, r models.Recipe) (models.Recipe, error) {
	if f.saveErr != nil {
		return r, f.saveErr
	}
	f.updated = append(f.updated, r)
	for i := range f.items {
		if f.items[i].ID == r.ID {
			f.items[i] = r
		}
	}
	return r, nil
}

func newRecipeStore(backend *fakeRecipes) *Store[models.Recipe] {
	return NewStore[models.Recipe]("recetas", backend, Messages{
		Created: "creada", Updated: "actualizada", Deleted: "eliminada",
	}, func(r models.Recipe) models.Recipe {
		r.Status = models.StatusDeleted
		return r
	})
}

func TestStore_SaveChoosesPath(t *testing.T) {
	ctx := context.Background()

	t.Run("With id updates", func(t *testing.T) {
		backend := &fakeRecipes{items: []models.Recipe{testutil.FixtureRecipe()}}
		store := newRecipeStore(backend)

		r := testutil.FixtureRecipe(func(r *models.Recipe) { r.Name = "Arroz con pollo al horno" })
		require.NoError(t, store.Save(ctx, r))

		assert.Len(t, backend.updated, 1)
		assert.Empty(t, backend.created)
		assert.Equal(t, "actualizada", store.SuccessMessage())
		assert.Equal(t, 1, backend.listCall, "a mutation always refetches")
	})

	t.Run("Without id creates", func(t *testing.T) {
		backend := &fakeRecipes{}
		store := newRecipeStore(backend)

		r := testutil.FixtureRecipe(func(r *models.Recipe) { r.ID = 0 })
		require.NoError(t, store.Save(ctx, r))

		assert.Len(t, backend.created, 1)
		assert.Empty(t, backend.updated)
		assert.Equal(t, "creada", store.SuccessMessage())
		assert.Len(t, store.Items(), 1)
	})
}

func TestStore_FailedMutationKeepsList(t *testing.T) {
	ctx := context.Background()
	backend := &fakeRecipes{items: []models.Recipe{testutil.FixtureRecipe()}}
	store := newRecipeStore(backend)
	require.NoError(t, store.Fetch(ctx))

	backend.saveErr = &api.Error{Status: 409, Message: "en uso"}
	err := store.SoftDelete(ctx, testutil.FixtureRecipe())
	require.Error(t, err)

	assert.Equal(t, PhaseError, store.OperationPhase())
	assert.ErrorIs(t, store.OperationError(), api.ErrInUse)
	assert.Equal(t, PhaseSuccess, store.ListPhase())
	assert.NoError(t, store.Err())
	assert.Len(t, store.Items(), 1)
	assert.Empty(t, store.SuccessMessage())
}

func TestStore_ValidationBlocksCall(t *testing.T) {
	backend := &fakeRecipes{}
	store := newRecipeStore(backend)

	err := store.Save(context.Background(), models.Recipe{Portions: 2})
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "nombre")
	assert.Empty(t, backend.created)
	assert.Equal(t, 0, backend.listCall)
}

func TestStore_SoftDeleteUsesUpdate(t *testing.T) {
	backend := &fakeRecipes{items: []models.Recipe{testutil.FixtureRecipe()}}
	store := newRecipeStore(backend)

	require.NoError(t, store.SoftDelete(context.Background(), testutil.FixtureRecipe()))
	require.Len(t, backend.updated, 1)
	assert.Equal(t, models.StatusDeleted, backend.updated[0].Status)
	assert.Equal(t, "eliminada", store.SuccessMessage())

	err := store.SoftDelete(context.Background(), models.Recipe{Name: "nueva"})
	assert.Error(t, err, "items without id cannot be deleted")
}

func TestStore_FetchErrors(t *testing.T) {
	ctx := context.Background()
	backend := &fakeRecipes{items: []models.Recipe{testutil.FixtureRecipe()}}
	store := newRecipeStore(backend)
	require.NoError(t, store.Fetch(ctx))

	backend.listErr = errors.New("boom")
	require.Error(t, store.Fetch(ctx))
	assert.Equal(t, PhaseError, store.ListPhase())
	assert.Len(t, store.Items(), 1, "failed fetch keeps previous items")

	backend.listErr = api.ErrStaleBranch
	err := store.Fetch(ctx)
	assert.ErrorIs(t, err, api.ErrStaleBranch)
	assert.Len(t, store.Items(), 1, "stale response is not applied")

	store.Reset()
	assert.Equal(t, PhaseIdle, store.ListPhase())
	assert.Empty(t, store.Items())
}

func TestStore_Find(t *testing.T) {
	backend := &fakeRecipes{items: []models.Recipe{testutil.FixtureRecipe()}}
	store := newRecipeStore(backend)
	require.NoError(t, store.Fetch(context.Background()))

	r, ok := store.Find(10)
	assert.True(t, ok)
	assert.Equal(t, "Arroz con pollo", r.Name)

	_, ok = store.Find(99)
	assert.False(t, ok)
}

type fakeAssignments struct {
	items   []models.MenuAssignment
	deleted []int64
	from    string
	to      string
	delErr  error
}

func (f *fakeAssignments) ListAssignments(ctx context.Context, from, to string) ([]models.MenuAssignment, error) {
	f.from, f.to = from, to
	return f.items, nil
}

func (f *fakeAssignments) CreateAssignment(ctx context.Context, a models.MenuAssignment) (models.MenuAssignment, error) {
	return a, nil
}

func (f *fakeAssignments) UpdateAssignment(ctx context.Context, a models.MenuAssignment) (models.MenuAssignment, error) {
	return a, nil
}

func (f *fakeAssignments) DeleteAssignment(ctx context.Context, id int64) error {
	if f.delErr != nil {
		return f.delErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func TestAssignmentStore_RemoveByID(t *testing.T) {
	ctx := context.Background()
	backend := &fakeAssignments{items: []models.MenuAssignment{
		testutil.FixtureAssignment(func(a *models.MenuAssignment) { a.ID = 1 }),
		testutil.FixtureAssignment(func(a *models.MenuAssignment) { a.ID = 2; a.Slot = models.SlotDinner }),
		testutil.FixtureAssignment(func(a *models.MenuAssignment) { a.ID = 3; a.Date = "2024-03-05" }),
	}}
	store := NewAssignmentStore(backend)
	store.SetRange("2024-03-04", "2024-03-10")
	require.NoError(t, store.Fetch(ctx))
	assert.Equal(t, "2024-03-04", backend.from)
	assert.Equal(t, "2024-03-10", backend.to)

	before := store.Items()
	require.NoError(t, store.Remove(ctx, 2))

	after := store.Items()
	require.Len(t, after, 2)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[1])
	assert.Equal(t, []int64{2}, backend.deleted)
	assert.Equal(t, "Asignación eliminada", store.SuccessMessage())

	backend.delErr = &api.Error{Status: 500, Message: "fallo"}
	require.Error(t, store.Remove(ctx, 1))
	assert.Len(t, store.Items(), 2, "failed delete leaves memory untouched")
	assert.Equal(t, PhaseError, store.OperationPhase())
}

func TestFilter_DiacriticInsensitive(t *testing.T) {
	foods := []models.FoodItem{
		testutil.FixtureFood(func(f *models.FoodItem) { f.Name = "Arroz" }),
		testutil.FixtureFood(func(f *models.FoodItem) { f.Name = "Azúcar" }),
		testutil.FixtureFood(func(f *models.FoodItem) { f.Name = "Harina de trigo" }),
	}
	byName := func(f models.FoodItem) []string { return []string{f.Name} }

	got := Filter(foods, "harina", byName)
	require.Len(t, got, 1)
	assert.Equal(t, "Harina de trigo", got[0].Name)

	got = Filter(foods, "AZUCAR", byName)
	require.Len(t, got, 1)
	assert.Equal(t, "Azúcar", got[0].Name)

	assert.Len(t, Filter(foods, "  ", byName), 3)
	assert.Empty(t, Filter(foods, "leche", byName))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "nandu fosforo", Fold("Ñandú Fósforo"))
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Page(items, models.Pagination{Page: 2, PageSize: 2}))
	assert.Equal(t, []int{5}, Page(items, models.Pagination{Page: 3, PageSize: 2}))
	assert.Nil(t, Page(items, models.Pagination{Page: 4, PageSize: 2}))
}

func TestWithoutDeleted(t *testing.T) {
	foods := []models.FoodItem{
		testutil.FixtureFood(),
		testutil.FixtureFood(func(f *models.FoodItem) { f.ID = 2; f.Status = models.StatusDeleted }),
	}
	got := WithoutDeleted(foods, func(f models.FoodItem) models.Status { return f.Status })
	assert.Len(t, got, 1)
}
