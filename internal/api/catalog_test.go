package api

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
)

func TestTagsEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	tag := env.seedTag(t, "Dinner", "dinner")
	env.seedTag(t, "Breakfast", "breakfast")

	w := env.request(t, http.MethodGet, "/api/v1/tags", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var tags []models.Tag
	decodeJSON(t, w, &tags)
	assert.Len(t, tags, 2)

	w = env.request(t, http.MethodGet, "/api/v1/tags/"+tag.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.Tag
	decodeJSON(t, w, &got)
	assert.Equal(t, "dinner", got.Slug)

	w = env.request(t, http.MethodGet, "/api/v1/tags/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngredientsEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	env.seedIngredient(t, "Salt", "g")
	env.seedIngredient(t, "salmon", "g")
	env.seedIngredient(t, "pepper", "g")

	w := env.request(t, http.MethodGet, "/api/v1/ingredients", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ingredients []models.Ingredient
	decodeJSON(t, w, &ingredients)
	assert.Len(t, ingredients, 3)

	w = env.request(t, http.MethodGet, "/api/v1/ingredients?name=sal", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeJSON(t, w, &ingredients)
	assert.Len(t, ingredients, 2)
}
