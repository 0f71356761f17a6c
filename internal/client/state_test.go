package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
)

// fakeAPI implements API with scriptable failures so State behavior can
// be tested without a server.
type fakeAPI struct {
	token string

	loginResp model.AuthResponse
	loginErr  error

	favorites []json.RawMessage
	mealPlan  map[string][]json.RawMessage

	addFavoriteErr    error
	removeFavoriteErr error
	addMealErr        error
	removeMealErr     error
	removeDateErr     error
	listErr           error
}

func (f *fakeAPI) Register(context.Context, string, string, string) error { return nil }

func (f *fakeAPI) Login(context.Context, string, string) (model.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) ForgotPassword(context.Context, string) error { return nil }

func (f *fakeAPI) ResetPassword(context.Context, string, string) error { return nil }

func (f *fakeAPI) Profile(context.Context) (model.UserResponse, error) {
	return f.loginResp.User, nil
}

func (f *fakeAPI) ListFavorites(context.Context) ([]json.RawMessage, error) {
	return f.favorites, f.listErr
}

func (f *fakeAPI) AddFavorite(context.Context, string, json.RawMessage) error {
	return f.addFavoriteErr
}

func (f *fakeAPI) RemoveFavorite(context.Context, string) error { return f.removeFavoriteErr }

func (f *fakeAPI) MealPlan(context.Context) (map[string][]json.RawMessage, error) {
	return f.mealPlan, f.listErr
}

func (f *fakeAPI) AddMealPlanRecipe(context.Context, string, json.RawMessage) error {
	return f.addMealErr
}

func (f *fakeAPI) RemoveMealPlanRecipe(context.Context, string, string) error {
	return f.removeMealErr
}

func (f *fakeAPI) RemoveMealPlanDate(context.Context, string) error { return f.removeDateErr }

func (f *fakeAPI) SetToken(token string) { f.token = token }

func snap(id string) json.RawMessage {
	return json.RawMessage(`{"idMeal":"` + id + `","strMeal":"Dish ` + id + `"}`)
}

func loggedInState(t *testing.T, api *fakeAPI) *State {
	t.Helper()
	if api.loginResp.Token == "" {
		api.loginResp = model.AuthResponse{
			Token: "session-token",
			User:  model.UserResponse{ID: 1, Name: "Alice", Email: "alice@example.com"},
		}
	}
	s := NewState(api)
	require.NoError(t, s.Login(context.Background(), "alice@example.com", "password123"))
	return s
}

func TestStateLogin_InstallsSessionAndMirrors(t *testing.T) {
	api := &fakeAPI{
		favorites: []json.RawMessage{snap("1")},
		mealPlan:  map[string][]json.RawMessage{"2024-05-01": {snap("2")}},
	}
	s := loggedInState(t, api)

	require.Equal(t, "session-token", api.token)
	session := s.Session()
	require.NotNil(t, session)
	require.Equal(t, "Alice", session.User.Name)

	require.Len(t, s.Favorites(), 1)
	require.Len(t, s.MealPlan()["2024-05-01"], 1)
}

func TestStateMutations_RequireSession(t *testing.T) {
	s := NewState(&fakeAPI{})
	ctx := context.Background()

	require.ErrorIs(t, s.AddFavorite(ctx, "1", snap("1")), ErrNotLoggedIn)
	require.ErrorIs(t, s.RemoveFavorite(ctx, "1"), ErrNotLoggedIn)
	require.ErrorIs(t, s.AddMealPlanRecipe(ctx, "2024-05-01", snap("1")), ErrNotLoggedIn)
	require.ErrorIs(t, s.RemoveMealPlanRecipe(ctx, "2024-05-01", "1"), ErrNotLoggedIn)
	require.ErrorIs(t, s.RemoveMealPlanDate(ctx, "2024-05-01"), ErrNotLoggedIn)
}

func TestStateAddFavorite_OptimisticThenConfirmed(t *testing.T) {
	api := &fakeAPI{}
	s := loggedInState(t, api)

	require.NoError(t, s.AddFavorite(context.Background(), "1", snap("1")))

	favorites := s.Favorites()
	require.Len(t, favorites, 1)
	require.Equal(t, "1", recipeIDOf(favorites[0]))
}

func TestStateAddFavorite_RollbackOnFailure(t *testing.T) {
	api := &fakeAPI{favorites: []json.RawMessage{snap("1")}}
	s := loggedInState(t, api)

	api.addFavoriteErr = errors.New("api: recipe already in favorites")
	err := s.AddFavorite(context.Background(), "2", snap("2"))
	require.Error(t, err)

	favorites := s.Favorites()
	require.Len(t, favorites, 1, "mirror should be restored to its pre-mutation state")
	require.Equal(t, "1", recipeIDOf(favorites[0]))
	require.NotNil(t, s.Session(), "non-auth failures keep the session")
}

func TestStateAddFavorite_NewestFirst(t *testing.T) {
	api := &fakeAPI{}
	s := loggedInState(t, api)
	ctx := context.Background()

	require.NoError(t, s.AddFavorite(ctx, "1", snap("1")))
	require.NoError(t, s.AddFavorite(ctx, "2", snap("2")))

	favorites := s.Favorites()
	require.Equal(t, "2", recipeIDOf(favorites[0]))
	require.Equal(t, "1", recipeIDOf(favorites[1]))
}

func TestStateRemoveFavorite_RollbackOnFailure(t *testing.T) {
	api := &fakeAPI{favorites: []json.RawMessage{snap("1"), snap("2")}}
	s := loggedInState(t, api)

	api.removeFavoriteErr = errors.New("api: favorite not found")
	require.Error(t, s.RemoveFavorite(context.Background(), "1"))
	require.Len(t, s.Favorites(), 2)
}

func TestStateUnauthorized_ClearsSession(t *testing.T) {
	api := &fakeAPI{}
	s := loggedInState(t, api)

	api.addFavoriteErr = ErrUnauthorized
	err := s.AddFavorite(context.Background(), "1", snap("1"))
	require.ErrorIs(t, err, ErrUnauthorized)

	require.Nil(t, s.Session())
	require.Empty(t, api.token, "token should be cleared on the transport too")
	require.Empty(t, s.Favorites())
	require.Empty(t, s.MealPlan())
}

func TestStateMealPlan_AddAndRollback(t *testing.T) {
	api := &fakeAPI{}
	s := loggedInState(t, api)
	ctx := context.Background()

	require.NoError(t, s.AddMealPlanRecipe(ctx, "2024-05-01", snap("1")))
	require.Len(t, s.MealPlan()["2024-05-01"], 1)

	api.addMealErr = errors.New("api: recipe already planned for this date")
	require.Error(t, s.AddMealPlanRecipe(ctx, "2024-05-01", snap("1")))
	require.Len(t, s.MealPlan()["2024-05-01"], 1, "failed append must roll back")
}

func TestStateMealPlan_RemoveLastRecipeDropsDate(t *testing.T) {
	api := &fakeAPI{mealPlan: map[string][]json.RawMessage{"2024-05-01": {snap("1")}}}
	s := loggedInState(t, api)

	require.NoError(t, s.RemoveMealPlanRecipe(context.Background(), "2024-05-01", "1"))
	require.NotContains(t, s.MealPlan(), "2024-05-01")
}

func TestStateMealPlan_RemoveDateRollback(t *testing.T) {
	api := &fakeAPI{mealPlan: map[string][]json.RawMessage{"2024-05-01": {snap("1"), snap("2")}}}
	s := loggedInState(t, api)

	api.removeDateErr = errors.New("api: meal plan not found for this date")
	require.Error(t, s.RemoveMealPlanDate(context.Background(), "2024-05-01"))

	plan := s.MealPlan()
	require.Len(t, plan["2024-05-01"], 2, "failed date removal must restore the whole day")
}

func TestStateLogout(t *testing.T) {
	api := &fakeAPI{favorites: []json.RawMessage{snap("1")}}
	s := loggedInState(t, api)

	s.Logout()
	require.Nil(t, s.Session())
	require.Empty(t, s.Favorites())
	require.Empty(t, api.token)
}
