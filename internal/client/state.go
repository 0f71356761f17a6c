package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
)

// ErrNotLoggedIn is returned by mutations attempted without a session.
var ErrNotLoggedIn = errors.New("not logged in")

// Session is the client-side authenticated identity.
type Session struct {
	Token string
	User  model.UserResponse
}

// State is the client-side state container. It mirrors the user's
// favorites and meal plan, applies every mutation optimistically, and
// rolls the mirror back to its pre-mutation snapshot when the backend
// rejects the call. Any unauthorized response clears the session so the
// caller can force re-authentication.
//
// All methods are safe for concurrent use.
type State struct {
	mu        sync.Mutex
	api       API
	session   *Session
	favorites []json.RawMessage
	mealPlan  map[string][]json.RawMessage
}

// NewState creates a state container over the given API client.
func NewState(api API) *State {
	return &State{
		api:      api,
		mealPlan: make(map[string][]json.RawMessage),
	}
}

// Register creates an account. No session is established; call Login next.
func (s *State) Register(ctx context.Context, name, email, password string) error {
	return s.api.Register(ctx, name, email, password)
}

// Login authenticates, installs the session and loads both mirrors.
func (s *State) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.session = &Session{Token: resp.Token, User: resp.User}
	s.mu.Unlock()
	s.api.SetToken(resp.Token)

	return s.Refresh(ctx)
}

// Logout discards the session and both mirrors.
func (s *State) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearSessionLocked()
}

// Session returns the current session, or nil when logged out.
func (s *State) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	copied := *s.session
	return &copied
}

// Refresh reloads both mirrors from the backend, replacing any optimistic
// state.
func (s *State) Refresh(ctx context.Context) error {
	favorites, err := s.api.ListFavorites(ctx)
	if err != nil {
		return s.fail(err)
	}
	plan, err := s.api.MealPlan(ctx)
	if err != nil {
		return s.fail(err)
	}
	if plan == nil {
		plan = make(map[string][]json.RawMessage)
	}

	s.mu.Lock()
	s.favorites = favorites
	s.mealPlan = plan
	s.mu.Unlock()
	return nil
}

// Favorites returns the favorites mirror, most recently added first.
func (s *State) Favorites() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]json.RawMessage, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// MealPlan returns the meal plan mirror as a date-to-recipes map.
func (s *State) MealPlan() map[string][]json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]json.RawMessage, len(s.mealPlan))
	for date, recipes := range s.mealPlan {
		copied := make([]json.RawMessage, len(recipes))
		copy(copied, recipes)
		out[date] = copied
	}
	return out
}

// AddFavorite prepends the snapshot to the favorites mirror, then persists
// it. On failure the mirror is restored.
func (s *State) AddFavorite(ctx context.Context, recipeID string, snapshot json.RawMessage) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	prev := s.favorites
	s.favorites = append([]json.RawMessage{snapshot}, s.favorites...)
	s.mu.Unlock()

	if err := s.api.AddFavorite(ctx, recipeID, snapshot); err != nil {
		s.mu.Lock()
		s.favorites = prev
		s.mu.Unlock()
		return s.fail(err)
	}
	return nil
}

// RemoveFavorite drops the snapshot with the given recipe id from the
// mirror, then persists the removal. On failure the mirror is restored.
func (s *State) RemoveFavorite(ctx context.Context, recipeID string) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	prev := s.favorites
	kept := make([]json.RawMessage, 0, len(s.favorites))
	for _, snap := range s.favorites {
		if recipeIDOf(snap) != recipeID {
			kept = append(kept, snap)
		}
	}
	s.favorites = kept
	s.mu.Unlock()

	if err := s.api.RemoveFavorite(ctx, recipeID); err != nil {
		s.mu.Lock()
		s.favorites = prev
		s.mu.Unlock()
		return s.fail(err)
	}
	return nil
}

// AddMealPlanRecipe appends the recipe to the date's list in the mirror,
// then persists it. On failure the mirror is restored.
func (s *State) AddMealPlanRecipe(ctx context.Context, date string, recipe json.RawMessage) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	prev := s.snapshotPlanLocked()
	s.mealPlan[date] = append(s.mealPlan[date], recipe)
	s.mu.Unlock()

	if err := s.api.AddMealPlanRecipe(ctx, date, recipe); err != nil {
		s.mu.Lock()
		s.mealPlan = prev
		s.mu.Unlock()
		return s.fail(err)
	}
	return nil
}

// RemoveMealPlanRecipe drops every instance of the recipe from the date's
// list, deleting the date key when the list empties, then persists the
// removal. On failure the mirror is restored.
func (s *State) RemoveMealPlanRecipe(ctx context.Context, date, recipeID string) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	prev := s.snapshotPlanLocked()
	kept := make([]json.RawMessage, 0, len(s.mealPlan[date]))
	for _, snap := range s.mealPlan[date] {
		if recipeIDOf(snap) != recipeID {
			kept = append(kept, snap)
		}
	}
	if len(kept) == 0 {
		delete(s.mealPlan, date)
	} else {
		s.mealPlan[date] = kept
	}
	s.mu.Unlock()

	if err := s.api.RemoveMealPlanRecipe(ctx, date, recipeID); err != nil {
		s.mu.Lock()
		s.mealPlan = prev
		s.mu.Unlock()
		return s.fail(err)
	}
	return nil
}

// RemoveMealPlanDate drops the whole date from the mirror, then persists
// the removal. On failure the mirror is restored.
func (s *State) RemoveMealPlanDate(ctx context.Context, date string) error {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	prev := s.snapshotPlanLocked()
	delete(s.mealPlan, date)
	s.mu.Unlock()

	if err := s.api.RemoveMealPlanDate(ctx, date); err != nil {
		s.mu.Lock()
		s.mealPlan = prev
		s.mu.Unlock()
		return s.fail(err)
	}
	return nil
}

// fail translates an API error into container behavior: an unauthorized
// response tears the session down before propagating.
func (s *State) fail(err error) error {
	if errors.Is(err, ErrUnauthorized) {
		s.mu.Lock()
		s.clearSessionLocked()
		s.mu.Unlock()
	}
	return err
}

func (s *State) clearSessionLocked() {
	s.session = nil
	s.favorites = nil
	s.mealPlan = make(map[string][]json.RawMessage)
	s.api.SetToken("")
}

// snapshotPlanLocked deep-copies the plan map so a rollback restores the
// exact pre-mutation structure. Callers must hold s.mu.
func (s *State) snapshotPlanLocked() map[string][]json.RawMessage {
	out := make(map[string][]json.RawMessage, len(s.mealPlan))
	for date, recipes := range s.mealPlan {
		copied := make([]json.RawMessage, len(recipes))
		copy(copied, recipes)
		out[date] = copied
	}
	return out
}

// recipeIDOf pulls the catalog identifier out of an opaque snapshot.
func recipeIDOf(snapshot json.RawMessage) string {
	var doc struct {
		IDMeal string `json:"idMeal"`
	}
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return ""
	}
	return doc.IDMeal
}
