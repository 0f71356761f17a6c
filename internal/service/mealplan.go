package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
	"github.com/recipeplanner/recipeplanner-go/internal/repository"
)

var (
	ErrDateRecipeRequired   = errors.New("date and recipe are required")
	ErrInvalidDate          = errors.New("invalid date format, use YYYY-MM-DD")
	ErrRecipeAlreadyPlanned = errors.New("recipe already planned for this date")
	ErrMealPlanNotFound     = errors.New("meal plan not found for this date")
)

var dateFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MealPlanStore is the persistence surface MealPlanService needs.
type MealPlanStore interface {
	Create(ctx context.Context, entry *model.MealPlanEntry) error
	GetByDate(ctx context.Context, userID int64, date string) (*model.MealPlanEntry, error)
	ListByUser(ctx context.Context, userID int64) ([]model.MealPlanEntry, error)
	UpdateRecipes(ctx context.Context, id int64, recipes []json.RawMessage) error
	DeleteByID(ctx context.Context, id int64) error
	DeleteByDate(ctx context.Context, userID int64, date string) error
}

// MealPlanService handles calendar meal planning. A recipe id may appear
// at most once per date: re-adding an already planned recipe is a
// conflict. Removal still drops every matching instance so data written
// under the older duplicate-permitting behavior drains correctly.
type MealPlanService struct {
	store MealPlanStore
}

// NewMealPlanService creates a new MealPlanService.
func NewMealPlanService(store MealPlanStore) *MealPlanService {
	return &MealPlanService{store: store}
}

// List returns the user's plan as a date-to-recipes map. Rows sharing a
// date (possible before the uniqueness constraint existed) have their
// lists concatenated in row order.
func (s *MealPlanService) List(ctx context.Context, userID int64) (map[string][]json.RawMessage, error) {
	entries, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	plan := make(map[string][]json.RawMessage)
	for _, e := range entries {
		plan[e.Date] = append(plan[e.Date], e.Recipes...)
	}
	return plan, nil
}

// AddRecipe plans a recipe for a date, creating the day's entry on first
// add and appending afterwards.
func (s *MealPlanService) AddRecipe(ctx context.Context, userID int64, req model.AddMealPlanRequest) (*model.MealPlanEntry, error) {
	if req.Date == "" || len(req.Recipe) == 0 {
		return nil, ErrDateRecipeRequired
	}
	if !dateFormat.MatchString(req.Date) {
		return nil, ErrInvalidDate
	}

	entry, err := s.store.GetByDate(ctx, userID, req.Date)
	if errors.Is(err, repository.ErrMealPlanNotFound) {
		entry = &model.MealPlanEntry{
			UserID:  userID,
			Date:    req.Date,
			Recipes: []json.RawMessage{req.Recipe},
		}
		err = s.store.Create(ctx, entry)
		if errors.Is(err, repository.ErrDuplicateMealPlan) {
			// Lost the create race to a concurrent add; fall through to append.
			entry, err = s.store.GetByDate(ctx, userID, req.Date)
			if err != nil {
				return nil, err
			}
			return s.appendRecipe(ctx, entry, req.Recipe)
		}
		if err != nil {
			return nil, err
		}
		return entry, nil
	}
	if err != nil {
		return nil, err
	}

	return s.appendRecipe(ctx, entry, req.Recipe)
}

func (s *MealPlanService) appendRecipe(ctx context.Context, entry *model.MealPlanEntry, recipe json.RawMessage) (*model.MealPlanEntry, error) {
	if id := snapshotRecipeID(recipe); id != "" {
		for _, existing := range entry.Recipes {
			if snapshotRecipeID(existing) == id {
				return nil, ErrRecipeAlreadyPlanned
			}
		}
	}

	entry.Recipes = append(entry.Recipes, recipe)
	if err := s.store.UpdateRecipes(ctx, entry.ID, entry.Recipes); err != nil {
		return nil, err
	}
	return entry, nil
}

// RemoveRecipe drops every instance of the recipe from the date's entry.
// Emptying the list deletes the entry rather than leaving an empty row.
func (s *MealPlanService) RemoveRecipe(ctx context.Context, userID int64, date, recipeID string) error {
	entry, err := s.store.GetByDate(ctx, userID, date)
	if err != nil {
		if errors.Is(err, repository.ErrMealPlanNotFound) {
			return ErrMealPlanNotFound
		}
		return err
	}

	kept := entry.Recipes[:0:0]
	for _, r := range entry.Recipes {
		if snapshotRecipeID(r) != recipeID {
			kept = append(kept, r)
		}
	}

	// Nothing matched. Removing an absent recipe is a no-op, not an
	// error; writing the unchanged list back would also trip the
	// driver's changed-rows counting, which reports 0 for an
	// identical value.
	if len(kept) == len(entry.Recipes) {
		return nil
	}

	if len(kept) == 0 {
		err = s.store.DeleteByID(ctx, entry.ID)
	} else {
		err = s.store.UpdateRecipes(ctx, entry.ID, kept)
	}
	if errors.Is(err, repository.ErrMealPlanNotFound) {
		// Entry vanished under us; the recipe is gone either way.
		return nil
	}
	return err
}

// RemoveDate deletes the whole entry for a date.
func (s *MealPlanService) RemoveDate(ctx context.Context, userID int64, date string) error {
	err := s.store.DeleteByDate(ctx, userID, date)
	if errors.Is(err, repository.ErrMealPlanNotFound) {
		return ErrMealPlanNotFound
	}
	return err
}

// snapshotRecipeID pulls the catalog identifier out of an opaque recipe
// snapshot. Snapshots without one get the zero id and never collide.
func snapshotRecipeID(snapshot json.RawMessage) string {
	var doc struct {
		IDMeal string `json:"idMeal"`
	}
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return ""
	}
	return doc.IDMeal
}
