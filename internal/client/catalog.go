package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultCatalogURL is the public recipe catalog the app searches against.
const DefaultCatalogURL = "https://www.themealdb.com/api/json/v1/1"

// maxIngredientSlots is how many numbered ingredient/measure column pairs a
// catalog document carries.
const maxIngredientSlots = 20

// RecipeSummary is the shape returned by ingredient search: enough to
// render a result card and fetch the full document later.
type RecipeSummary struct {
	ID        string `json:"idMeal"`
	Title     string `json:"strMeal"`
	Thumbnail string `json:"strMealThumb"`
}

// Ingredient is one ingredient/measure pair from a recipe document.
type Ingredient struct {
	Name    string
	Measure string
}

// Recipe is a full catalog document. Raw holds the document verbatim and
// is what gets stored as the snapshot in favorites and meal plans.
type Recipe struct {
	ID           string
	Title        string
	Thumbnail    string
	Category     string
	Area         string
	Instructions string
	Ingredients  []Ingredient
	Raw          json.RawMessage
}

// Catalog queries the external recipe lookup service. The backend never
// proxies these calls; the frontend talks to the catalog directly.
type Catalog struct {
	baseURL string
	http    *http.Client
}

// NewCatalog creates a catalog client. An empty baseURL selects the public
// catalog.
func NewCatalog(baseURL string) *Catalog {
	if baseURL == "" {
		baseURL = DefaultCatalogURL
	}
	return &Catalog{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// SearchByIngredient returns summaries of recipes using the ingredient. A
// no-match response yields an empty slice, not an error.
func (c *Catalog) SearchByIngredient(ctx context.Context, ingredient string) ([]RecipeSummary, error) {
	var payload struct {
		Meals []RecipeSummary `json:"meals"`
	}
	if err := c.get(ctx, "/filter.php?i="+url.QueryEscape(ingredient), &payload); err != nil {
		return nil, err
	}
	return payload.Meals, nil
}

// LookupByID fetches the full recipe document for a catalog id. Returns
// nil when the catalog has no such recipe.
func (c *Catalog) LookupByID(ctx context.Context, id string) (*Recipe, error) {
	var payload struct {
		Meals []json.RawMessage `json:"meals"`
	}
	if err := c.get(ctx, "/lookup.php?i="+url.QueryEscape(id), &payload); err != nil {
		return nil, err
	}
	if len(payload.Meals) == 0 {
		return nil, nil
	}
	return parseRecipe(payload.Meals[0])
}

func (c *Catalog) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parseRecipe extracts the typed fields from a catalog document while
// keeping the raw bytes for snapshot storage. The numbered
// strIngredientN/strMeasureN pairs collapse into a list, skipping empty
// slots.
func parseRecipe(raw json.RawMessage) (*Recipe, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	r := &Recipe{
		ID:           docString(doc, "idMeal"),
		Title:        docString(doc, "strMeal"),
		Thumbnail:    docString(doc, "strMealThumb"),
		Category:     docString(doc, "strCategory"),
		Area:         docString(doc, "strArea"),
		Instructions: docString(doc, "strInstructions"),
		Raw:          raw,
	}

	for i := 1; i <= maxIngredientSlots; i++ {
		name := docString(doc, fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, Ingredient{
			Name:    name,
			Measure: docString(doc, fmt.Sprintf("strMeasure%d", i)),
		})
	}

	return r, nil
}

// docString reads a string field from a catalog document, treating null
// and whitespace-only values as absent.
func docString(doc map[string]any, key string) string {
	v, ok := doc[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return ""
	}
	return v
}
