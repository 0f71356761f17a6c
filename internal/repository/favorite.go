package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
)

var (
	ErrFavoriteNotFound  = errors.New("favorite not found")
	ErrDuplicateFavorite = errors.New("recipe already in favorites")
)

// FavoriteRepository handles favorite persistence operations. The
// (user_id, recipe_id) unique key is the source of truth for duplicate
// detection; Exists is only a cheap pre-check. recipe_data is a plain
// text column, not JSON: the MySQL JSON type normalizes stored values
// and listing must return the exact bytes the client submitted.
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new FavoriteRepository.
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create inserts a new favorite and sets the generated ID on the struct.
// Returns ErrDuplicateFavorite when the unique key rejects the row, which
// covers the race between a pre-check and the insert.
func (r *FavoriteRepository) Create(ctx context.Context, fav *model.Favorite) error {
	query := `INSERT INTO favorites (user_id, recipe_id, recipe_data) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, fav.UserID, fav.RecipeID, []byte(fav.RecipeData))
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateFavorite
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	fav.ID = id
	return nil
}

// Exists reports whether the user has already favorited the recipe.
func (r *FavoriteRepository) Exists(ctx context.Context, userID int64, recipeID string) (bool, error) {
	query := `SELECT 1 FROM favorites WHERE user_id = ? AND recipe_id = ?`

	var one int
	err := r.db.QueryRowContext(ctx, query, userID, recipeID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ListByUser retrieves all favorites for a user, most recently added first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	query := `SELECT id, user_id, recipe_id, recipe_data, created_at
		FROM favorites WHERE user_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []model.Favorite
	for rows.Next() {
		var f model.Favorite
		var data []byte
		if err := rows.Scan(&f.ID, &f.UserID, &f.RecipeID, &data, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.RecipeData = data
		favorites = append(favorites, f)
	}

	return favorites, rows.Err()
}

// Delete removes the user's favorite for the given recipe.
func (r *FavoriteRepository) Delete(ctx context.Context, userID int64, recipeID string) error {
	query := `DELETE FROM favorites WHERE user_id = ? AND recipe_id = ?`

	result, err := r.db.ExecContext(ctx, query, userID, recipeID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFavoriteNotFound
	}

	return nil
}
