package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/testhelpers"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testhelpers.NewTestDB(t)
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhashAAAAAAAAAAAAAAAAAA",
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: "#" + slug, Slug: slug}
	require.NoError(t, db.Create(&tag).Error)
	return &tag
}

func createIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ing).Error)
	return &ing
}

func createRecipe(t *testing.T, db *gorm.DB, authorID uuid.UUID, name string, tagIDs []uuid.UUID, ingredients []IngredientAmount) *models.Recipe {
	t.Helper()
	svc := NewRecipeService(db)
	recipe, err := svc.Create(context.Background(), authorID, RecipeInput{
		Name:        name,
		Text:        "Instructions for " + name,
		CookingTime: 30,
		TagIDs:      tagIDs,
		Ingredients: ingredients,
	})
	require.NoError(t, err)
	return recipe
}
