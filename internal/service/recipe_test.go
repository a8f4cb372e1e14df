package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
)

func TestValidateRecipeInput(t *testing.T) {
	tagID := uuid.New()
	ingID := uuid.New()
	valid := RecipeInput{
		Name:        "Borscht",
		Text:        "Boil everything",
		CookingTime: 60,
		TagIDs:      []uuid.UUID{tagID},
		Ingredients: []IngredientAmount{{ID: ingID, Amount: 2}},
	}

	tests := []struct {
		name    string
		mutate  func(in *RecipeInput)
		wantErr bool
	}{
		{name: "valid input", mutate: func(in *RecipeInput) {}, wantErr: false},
		{name: "empty name", mutate: func(in *RecipeInput) { in.Name = "  " }, wantErr: true},
		{name: "zero cooking time", mutate: func(in *RecipeInput) { in.CookingTime = 0 }, wantErr: true},
		{name: "no tags", mutate: func(in *RecipeInput) { in.TagIDs = nil }, wantErr: true},
		{name: "duplicate tags", mutate: func(in *RecipeInput) { in.TagIDs = []uuid.UUID{tagID, tagID} }, wantErr: true},
		{name: "no ingredients", mutate: func(in *RecipeInput) { in.Ingredients = nil }, wantErr: true},
		{name: "duplicate ingredients", mutate: func(in *RecipeInput) {
			in.Ingredients = []IngredientAmount{{ID: ingID, Amount: 1}, {ID: ingID, Amount: 2}}
		}, wantErr: true},
		{name: "zero amount", mutate: func(in *RecipeInput) {
			in.Ingredients = []IngredientAmount{{ID: ingID, Amount: 0}}
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := ValidateRecipeInput(in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidationError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecipeCreate(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	breakfast := createTag(t, db, "Breakfast", "breakfast")
	flour := createIngredient(t, db, "flour", "g")
	milk := createIngredient(t, db, "milk", "ml")

	recipe, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry",
		CookingTime: 20,
		TagIDs:      []uuid.UUID{breakfast.ID},
		Ingredients: []IngredientAmount{
			{ID: flour.ID, Amount: 200},
			{ID: milk.ID, Amount: 300},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, author.ID, recipe.AuthorID)
	assert.Equal(t, "chef", recipe.Author.Username)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "breakfast", recipe.Tags[0].Slug)
	require.Len(t, recipe.Ingredients, 2)
}

func TestRecipeCreateUnknownReferences(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	flour := createIngredient(t, db, "flour", "g")

	_, err := svc.Create(ctx, author.ID, RecipeInput{
		Name:        "Mystery",
		CookingTime: 10,
		TagIDs:      []uuid.UUID{uuid.New()},
		Ingredients: []IngredientAmount{{ID: flour.ID, Amount: 100}},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	// Nothing should have been persisted.
	var count int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRecipeUpdate(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	breakfast := createTag(t, db, "Breakfast", "breakfast")
	dinner := createTag(t, db, "Dinner", "dinner")
	flour := createIngredient(t, db, "flour", "g")
	salt := createIngredient(t, db, "salt", "g")

	recipe := createRecipe(t, db, author.ID, "Bread",
		[]uuid.UUID{breakfast.ID},
		[]IngredientAmount{{ID: flour.ID, Amount: 500}})

	newName := "Sourdough"
	newTags := []uuid.UUID{dinner.ID}
	newIngredients := []IngredientAmount{
		{ID: flour.ID, Amount: 400},
		{ID: salt.ID, Amount: 10},
	}
	updated, err := svc.Update(ctx, author.ID, recipe.ID, RecipeUpdateInput{
		Name:        &newName,
		TagIDs:      &newTags,
		Ingredients: &newIngredients,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sourdough", updated.Name)
	assert.Equal(t, 30, updated.CookingTime, "untouched field keeps its value")
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 2)

	// No stale join rows may survive a wholesale replace.
	var joinCount int64
	require.NoError(t, db.Model(&models.RecipeIngredient{}).
		Where("recipe_id = ?", recipe.ID).Count(&joinCount).Error)
	assert.Equal(t, int64(2), joinCount)
}

func TestRecipeUpdateNotAuthor(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	other := createUser(t, db, "intruder")
	tag := createTag(t, db, "Lunch", "lunch")
	ing := createIngredient(t, db, "rice", "g")
	recipe := createRecipe(t, db, author.ID, "Pilaf",
		[]uuid.UUID{tag.ID}, []IngredientAmount{{ID: ing.ID, Amount: 300}})

	newName := "Stolen"
	_, err := svc.Update(ctx, other.ID, recipe.ID, RecipeUpdateInput{Name: &newName})
	assert.ErrorIs(t, err, ErrForbidden)

	err = svc.Delete(ctx, other.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRecipeDelete(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	fan := createUser(t, db, "fan")
	tag := createTag(t, db, "Lunch", "lunch")
	ing := createIngredient(t, db, "rice", "g")
	recipe := createRecipe(t, db, author.ID, "Pilaf",
		[]uuid.UUID{tag.ID}, []IngredientAmount{{ID: ing.ID, Amount: 300}})

	require.NoError(t, svc.AddFavorite(ctx, fan.ID, recipe.ID))
	require.NoError(t, svc.AddToCart(ctx, fan.ID, recipe.ID))

	require.NoError(t, svc.Delete(ctx, author.ID, recipe.ID))

	_, err := svc.Get(ctx, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var favorites, carts, joins int64
	require.NoError(t, db.Model(&models.Favorite{}).Where("recipe_id = ?", recipe.ID).Count(&favorites).Error)
	require.NoError(t, db.Model(&models.Cart{}).Where("recipe_id = ?", recipe.ID).Count(&carts).Error)
	require.NoError(t, db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipe.ID).Count(&joins).Error)
	assert.Zero(t, favorites)
	assert.Zero(t, carts)
	assert.Zero(t, joins)

	err = svc.Delete(ctx, author.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecipeListFilters(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	breakfast := createTag(t, db, "Breakfast", "breakfast")
	dinner := createTag(t, db, "Dinner", "dinner")
	egg := createIngredient(t, db, "egg", "pcs")

	omelette := createRecipe(t, db, alice.ID, "Omelette",
		[]uuid.UUID{breakfast.ID}, []IngredientAmount{{ID: egg.ID, Amount: 3}})
	stew := createRecipe(t, db, bob.ID, "Stew",
		[]uuid.UUID{dinner.ID}, []IngredientAmount{{ID: egg.ID, Amount: 1}})

	require.NoError(t, svc.AddFavorite(ctx, bob.ID, omelette.ID))
	require.NoError(t, svc.AddToCart(ctx, bob.ID, stew.ID))

	t.Run("by author", func(t *testing.T) {
		recipes, total, err := svc.List(ctx, ListFilter{AuthorID: &alice.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Omelette", recipes[0].Name)
	})

	t.Run("by tag slugs any-of", func(t *testing.T) {
		_, total, err := svc.List(ctx, ListFilter{TagSlugs: []string{"breakfast", "dinner"}})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)

		recipes, total, err := svc.List(ctx, ListFilter{TagSlugs: []string{"dinner"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Stew", recipes[0].Name)
	})

	t.Run("by favorited", func(t *testing.T) {
		recipes, total, err := svc.List(ctx, ListFilter{FavoritedBy: &bob.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Omelette", recipes[0].Name)
	})

	t.Run("by cart", func(t *testing.T) {
		recipes, total, err := svc.List(ctx, ListFilter{InCartOf: &bob.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Stew", recipes[0].Name)
	})

	t.Run("pagination", func(t *testing.T) {
		recipes, total, err := svc.List(ctx, ListFilter{Page: 1, Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Stew", recipes[0].Name, "newest first")

		recipes, _, err = svc.List(ctx, ListFilter{Page: 2, Limit: 1})
		require.NoError(t, err)
		require.Len(t, recipes, 1)
		assert.Equal(t, "Omelette", recipes[0].Name)
	})
}

func TestFavoriteRelations(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	fan := createUser(t, db, "fan")
	tag := createTag(t, db, "Lunch", "lunch")
	ing := createIngredient(t, db, "rice", "g")
	recipe := createRecipe(t, db, author.ID, "Pilaf",
		[]uuid.UUID{tag.ID}, []IngredientAmount{{ID: ing.ID, Amount: 300}})

	require.NoError(t, svc.AddFavorite(ctx, fan.ID, recipe.ID))

	err := svc.AddFavorite(ctx, fan.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, svc.RemoveFavorite(ctx, fan.ID, recipe.ID))

	err = svc.RemoveFavorite(ctx, fan.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrNotInRelation)

	err = svc.AddFavorite(ctx, fan.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCartRelations(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	fan := createUser(t, db, "fan")
	tag := createTag(t, db, "Lunch", "lunch")
	ing := createIngredient(t, db, "rice", "g")
	recipe := createRecipe(t, db, author.ID, "Pilaf",
		[]uuid.UUID{tag.ID}, []IngredientAmount{{ID: ing.ID, Amount: 300}})

	require.NoError(t, svc.AddToCart(ctx, fan.ID, recipe.ID))
	assert.ErrorIs(t, svc.AddToCart(ctx, fan.ID, recipe.ID), ErrAlreadyExists)
	require.NoError(t, svc.RemoveFromCart(ctx, fan.ID, recipe.ID))
	assert.ErrorIs(t, svc.RemoveFromCart(ctx, fan.ID, recipe.ID), ErrNotInRelation)
}

func TestFlagSets(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	fan := createUser(t, db, "fan")
	tag := createTag(t, db, "Lunch", "lunch")
	ing := createIngredient(t, db, "rice", "g")
	first := createRecipe(t, db, author.ID, "Pilaf",
		[]uuid.UUID{tag.ID}, []IngredientAmount{{ID: ing.ID, Amount: 300}})
	second := createRecipe(t, db, author.ID, "Risotto",
		[]uuid.UUID{tag.ID}, []IngredientAmount{{ID: ing.ID, Amount: 250}})

	require.NoError(t, svc.AddFavorite(ctx, fan.ID, first.ID))
	require.NoError(t, svc.AddToCart(ctx, fan.ID, second.ID))

	ids := []uuid.UUID{first.ID, second.ID}
	favorited, inCart, err := svc.FlagSets(ctx, &fan.ID, ids)
	require.NoError(t, err)
	assert.True(t, favorited[first.ID])
	assert.False(t, favorited[second.ID])
	assert.True(t, inCart[second.ID])
	assert.False(t, inCart[first.ID])

	favorited, inCart, err = svc.FlagSets(ctx, nil, ids)
	require.NoError(t, err)
	assert.Empty(t, favorited)
	assert.Empty(t, inCart)
}

func TestShoppingList(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)
	ctx := context.Background()

	author := createUser(t, db, "chef")
	buyer := createUser(t, db, "buyer")
	tag := createTag(t, db, "Dinner", "dinner")
	salt := createIngredient(t, db, "salt", "g")
	pasta := createIngredient(t, db, "pasta", "g")

	first := createRecipe(t, db, author.ID, "Carbonara",
		[]uuid.UUID{tag.ID},
		[]IngredientAmount{{ID: pasta.ID, Amount: 200}, {ID: salt.ID, Amount: 5}})
	second := createRecipe(t, db, author.ID, "Cacio e Pepe",
		[]uuid.UUID{tag.ID},
		[]IngredientAmount{{ID: pasta.ID, Amount: 150}, {ID: salt.ID, Amount: 3}})

	require.NoError(t, svc.AddToCart(ctx, buyer.ID, first.ID))
	require.NoError(t, svc.AddToCart(ctx, buyer.ID, second.ID))

	items, err := svc.ShoppingList(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Sorted by ingredient name, amounts summed across recipes.
	assert.Equal(t, ShoppingItem{Name: "pasta", MeasurementUnit: "g", Total: 350}, items[0])
	assert.Equal(t, ShoppingItem{Name: "salt", MeasurementUnit: "g", Total: 8}, items[1])

	text := RenderShoppingList(items)
	assert.Contains(t, text, "pasta (g) — 350")
	assert.Contains(t, text, "salt (g) — 8")
}

func TestShoppingListEmptyCart(t *testing.T) {
	db := setupDB(t)
	svc := NewRecipeService(db)

	buyer := createUser(t, db, "buyer")
	_, err := svc.ShoppingList(context.Background(), buyer.ID)
	assert.ErrorIs(t, err, ErrEmptyCart)
}
