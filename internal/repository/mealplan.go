package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
)

var (
	ErrMealPlanNotFound  = errors.New("meal plan not found for this date")
	ErrDuplicateMealPlan = errors.New("meal plan entry already exists for this date")
)

// MealPlanRepository handles meal plan persistence. One row holds the
// whole recipe list for a (user, date); the list travels as a JSON array
// column so snapshots stay opaque. A unique key on (user_id, date) guards
// entry creation, but rows predating the constraint may still share a
// date, so readers must tolerate duplicates.
type MealPlanRepository struct {
	db *sql.DB
}

// NewMealPlanRepository creates a new MealPlanRepository.
func NewMealPlanRepository(db *sql.DB) *MealPlanRepository {
	return &MealPlanRepository{db: db}
}

// Create inserts a new entry for a (user, date) and sets the generated ID.
func (r *MealPlanRepository) Create(ctx context.Context, entry *model.MealPlanEntry) error {
	data, err := json.Marshal(entry.Recipes)
	if err != nil {
		return err
	}

	query := `INSERT INTO meal_plans (user_id, date, recipes) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, entry.UserID, entry.Date, data)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateMealPlan
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	entry.ID = id
	return nil
}

// GetByDate retrieves the entry for a (user, date). When legacy duplicate
// rows exist the oldest one is returned, matching what a single-document
// lookup would have found.
func (r *MealPlanRepository) GetByDate(ctx context.Context, userID int64, date string) (*model.MealPlanEntry, error) {
	query := `SELECT id, user_id, date, recipes, created_at, updated_at
		FROM meal_plans WHERE user_id = ? AND date = ? ORDER BY id ASC LIMIT 1`

	entry, err := r.scanEntry(r.db.QueryRowContext(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMealPlanNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ListByUser retrieves all meal plan rows for a user, oldest rows first so
// date collisions concatenate in insertion order.
func (r *MealPlanRepository) ListByUser(ctx context.Context, userID int64) ([]model.MealPlanEntry, error) {
	query := `SELECT id, user_id, date, recipes, created_at, updated_at
		FROM meal_plans WHERE user_id = ? ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.MealPlanEntry
	for rows.Next() {
		var e model.MealPlanEntry
		var data []byte
		if err := rows.Scan(&e.ID, &e.UserID, &e.Date, &data, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &e.Recipes); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// UpdateRecipes replaces the recipe list of an existing entry.
func (r *MealPlanRepository) UpdateRecipes(ctx context.Context, id int64, recipes []json.RawMessage) error {
	data, err := json.Marshal(recipes)
	if err != nil {
		return err
	}

	query := `UPDATE meal_plans SET recipes = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, data, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMealPlanNotFound
	}

	return nil
}

// DeleteByID removes a single entry row.
func (r *MealPlanRepository) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMealPlanNotFound
	}

	return nil
}

// DeleteByDate removes every entry row for a (user, date), draining legacy
// duplicate rows along with the current one.
func (r *MealPlanRepository) DeleteByDate(ctx context.Context, userID int64, date string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meal_plans WHERE user_id = ? AND date = ?`, userID, date)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMealPlanNotFound
	}

	return nil
}

func (r *MealPlanRepository) scanEntry(row *sql.Row) (*model.MealPlanEntry, error) {
	entry := &model.MealPlanEntry{}
	var data []byte
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Date, &data, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &entry.Recipes); err != nil {
		return nil, err
	}
	return entry, nil
}
