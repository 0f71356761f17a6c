// Package client provides the pieces a frontend needs to talk to the
// Recipe Planner backend: a typed API client, a client for the external
// recipe catalog, and a session-scoped state container that mirrors
// favorites and meal plan data with optimistic updates.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/recipeplanner/recipeplanner-go/internal/model"
)

// ErrUnauthorized signals a missing, invalid or expired session. State
// reacts to it by discarding the session and forcing re-authentication.
var ErrUnauthorized = errors.New("unauthorized")

// API is the backend surface the state container depends on.
type API interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (model.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Profile(ctx context.Context) (model.UserResponse, error)

	ListFavorites(ctx context.Context) ([]json.RawMessage, error)
	AddFavorite(ctx context.Context, recipeID string, snapshot json.RawMessage) error
	RemoveFavorite(ctx context.Context, recipeID string) error

	MealPlan(ctx context.Context) (map[string][]json.RawMessage, error)
	AddMealPlanRecipe(ctx context.Context, date string, recipe json.RawMessage) error
	RemoveMealPlanRecipe(ctx context.Context, date, recipeID string) error
	RemoveMealPlanDate(ctx context.Context, date string) error

	SetToken(token string)
}

// HTTPAPI is the HTTP implementation of API. It is safe for concurrent
// use; the state container swaps the token while requests may be in
// flight.
type HTTPAPI struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewHTTPAPI creates an API client for the given backend origin, e.g.
// "http://localhost:5000".
func NewHTTPAPI(baseURL string) *HTTPAPI {
	return &HTTPAPI{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the bearer token used on authenticated calls. An empty
// token clears it.
func (c *HTTPAPI) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPAPI) bearerToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPAPI) Register(ctx context.Context, name, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", model.RegisterRequest{
		Name: name, Email: email, Password: password,
	}, nil)
}

func (c *HTTPAPI) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", model.LoginRequest{
		Email: email, Password: password,
	}, &resp)
	return resp, err
}

func (c *HTTPAPI) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", model.ForgotPasswordRequest{Email: email}, nil)
}

func (c *HTTPAPI) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", model.ResetPasswordRequest{
		Token: token, NewPassword: newPassword,
	}, nil)
}

func (c *HTTPAPI) Profile(ctx context.Context) (model.UserResponse, error) {
	var resp model.UserResponse
	err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp)
	return resp, err
}

func (c *HTTPAPI) ListFavorites(ctx context.Context) ([]json.RawMessage, error) {
	var resp []json.RawMessage
	err := c.do(ctx, http.MethodGet, "/api/favorites", nil, &resp)
	return resp, err
}

func (c *HTTPAPI) AddFavorite(ctx context.Context, recipeID string, snapshot json.RawMessage) error {
	return c.do(ctx, http.MethodPost, "/api/favorites", model.AddFavoriteRequest{
		RecipeID: recipeID, RecipeData: snapshot,
	}, nil)
}

func (c *HTTPAPI) RemoveFavorite(ctx context.Context, recipeID string) error {
	return c.do(ctx, http.MethodDelete, "/api/favorites/"+url.PathEscape(recipeID), nil, nil)
}

func (c *HTTPAPI) MealPlan(ctx context.Context) (map[string][]json.RawMessage, error) {
	var resp map[string][]json.RawMessage
	err := c.do(ctx, http.MethodGet, "/api/mealplan", nil, &resp)
	return resp, err
}

func (c *HTTPAPI) AddMealPlanRecipe(ctx context.Context, date string, recipe json.RawMessage) error {
	return c.do(ctx, http.MethodPost, "/api/mealplan", model.AddMealPlanRequest{
		Date: date, Recipe: recipe,
	}, nil)
}

func (c *HTTPAPI) RemoveMealPlanRecipe(ctx context.Context, date, recipeID string) error {
	path := "/api/mealplan/" + url.PathEscape(date) + "/" + url.PathEscape(recipeID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *HTTPAPI) RemoveMealPlanDate(ctx context.Context, date string) error {
	return c.do(ctx, http.MethodDelete, "/api/mealplan/"+url.PathEscape(date), nil, nil)
}

// do performs one JSON round-trip. A 401 becomes ErrUnauthorized; other
// failures carry the server's message.
func (c *HTTPAPI) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearerToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil {
			if apiErr.Message != "" {
				return fmt.Errorf("api: %s", apiErr.Message)
			}
			if apiErr.Error != "" {
				return fmt.Errorf("api: %s", apiErr.Error)
			}
		}
		return fmt.Errorf("api: unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
