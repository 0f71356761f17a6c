package model

import (
	"encoding/json"
	"time"
)

// MealPlanEntry represents one day of a user's meal plan: an ordered list
// of recipe snapshots keyed by (user, date). Recipes is stored as a single
// JSON array column.
type MealPlanEntry struct {
	ID        int64
	UserID    int64
	Date      string // YYYY-MM-DD
	Recipes   []json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AddMealPlanRequest represents a request to plan a recipe for a date.
type AddMealPlanRequest struct {
	Date   string          `json:"date"`
	Recipe json.RawMessage `json:"recipe"`
}

// AddMealPlanResponse returns the updated entry for the date.
type AddMealPlanResponse struct {
	Message string            `json:"message"`
	Date    string            `json:"date"`
	Recipes []json.RawMessage `json:"recipes"`
}
