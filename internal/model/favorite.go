package model

import (
	"encoding/json"
	"time"
)

// Favorite represents a saved recipe reference in the database. RecipeData
// is the denormalized snapshot stored verbatim, so listing returns exactly
// the bytes the client submitted.
type Favorite struct {
	ID         int64
	UserID     int64
	RecipeID   string
	RecipeData json.RawMessage
	CreatedAt  time.Time
}

// AddFavoriteRequest represents a request to save a recipe.
type AddFavoriteRequest struct {
	RecipeID   string          `json:"recipeId"`
	RecipeData json.RawMessage `json:"recipeData"`
}

// AddFavoriteResponse echoes the stored snapshot back to the client.
type AddFavoriteResponse struct {
	Message  string          `json:"message"`
	Favorite json.RawMessage `json:"favorite"`
}
