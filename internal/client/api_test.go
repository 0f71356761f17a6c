package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPAPI_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL)
	api.SetToken("session-token")

	_, err := api.ListFavorites(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer session-token", gotAuth)
}

func TestHTTPAPI_ConcurrentTokenSwap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			api.SetToken("token")
			api.SetToken("")
		}
	}()

	for i := 0; i < 50; i++ {
		_, err := api.ListFavorites(context.Background())
		require.NoError(t, err)
	}
	<-done
}

func TestHTTPAPI_UnauthorizedBecomesSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid or expired token"}`))
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL)
	_, err := api.ListFavorites(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPAPI_ErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"recipe already in favorites"}`))
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL)
	err := api.AddFavorite(context.Background(), "1", json.RawMessage(`{"idMeal":"1"}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "recipe already in favorites")
}

func TestHTTPAPI_AddMealPlanRecipeBody(t *testing.T) {
	var body map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/mealplan", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Recipe added to meal plan"}`))
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL)
	err := api.AddMealPlanRecipe(context.Background(), "2024-05-01", json.RawMessage(`{"idMeal":"1"}`))
	require.NoError(t, err)
	require.JSONEq(t, `"2024-05-01"`, string(body["date"]))
	require.JSONEq(t, `{"idMeal":"1"}`, string(body["recipe"]))
}

func TestHTTPAPI_RemovePathsEscaped(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"message":"ok"}`))
	}))
	defer srv.Close()

	api := NewHTTPAPI(srv.URL)
	require.NoError(t, api.RemoveMealPlanRecipe(context.Background(), "2024-05-01", "52772"))
	require.Equal(t, "/api/mealplan/2024-05-01/52772", gotPath)
}
