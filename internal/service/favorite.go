package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
	"github.com/recipeplanner/recipeplanner-go/internal/repository"
)

var (
	ErrRecipeFieldsRequired = errors.New("recipe ID and data are required")
	ErrAlreadyFavorite      = errors.New("recipe already in favorites")
	ErrFavoriteNotFound     = errors.New("favorite not found")
)

// FavoriteStore is the persistence surface FavoriteService needs.
type FavoriteStore interface {
	Create(ctx context.Context, fav *model.Favorite) error
	Exists(ctx context.Context, userID int64, recipeID string) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error)
	Delete(ctx context.Context, userID int64, recipeID string) error
}

// FavoriteService handles saved-recipe business logic.
type FavoriteService struct {
	store FavoriteStore
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(store FavoriteStore) *FavoriteService {
	return &FavoriteService{store: store}
}

// List returns the user's favorite recipe snapshots, most recently added
// first, exactly as they were submitted.
func (s *FavoriteService) List(ctx context.Context, userID int64) ([]json.RawMessage, error) {
	favorites, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	snapshots := make([]json.RawMessage, len(favorites))
	for i, f := range favorites {
		snapshots[i] = f.RecipeData
	}
	return snapshots, nil
}

// Add saves a recipe snapshot for the user. The existence pre-check keeps
// the common duplicate path cheap; the unique-key fallback from the store
// covers the race between check and insert.
func (s *FavoriteService) Add(ctx context.Context, userID int64, req model.AddFavoriteRequest) (json.RawMessage, error) {
	if req.RecipeID == "" || len(req.RecipeData) == 0 {
		return nil, ErrRecipeFieldsRequired
	}

	exists, err := s.store.Exists(ctx, userID, req.RecipeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyFavorite
	}

	fav := &model.Favorite{
		UserID:     userID,
		RecipeID:   req.RecipeID,
		RecipeData: req.RecipeData,
	}
	if err := s.store.Create(ctx, fav); err != nil {
		if errors.Is(err, repository.ErrDuplicateFavorite) {
			return nil, ErrAlreadyFavorite
		}
		return nil, err
	}

	return fav.RecipeData, nil
}

// Remove deletes the user's favorite for the given recipe.
func (s *FavoriteService) Remove(ctx context.Context, userID int64, recipeID string) error {
	err := s.store.Delete(ctx, userID, recipeID)
	if errors.Is(err, repository.ErrFavoriteNotFound) {
		return ErrFavoriteNotFound
	}
	return err
}
