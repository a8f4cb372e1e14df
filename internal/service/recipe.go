package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// RecipeService handles recipe CRUD, favorite/cart relations and
// shopping-list aggregation.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// IngredientAmount is one entry of the recipe write shape.
type IngredientAmount struct {
	ID     uuid.UUID
	Amount int
}

// RecipeInput is the full write shape used on create.
type RecipeInput struct {
	Name        string
	Image       string
	Text        string
	CookingTime int
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

// RecipeUpdateInput is the partial write shape used on update. Nil slices
// leave the corresponding associations untouched.
type RecipeUpdateInput struct {
	Name        *string
	Image       *string
	Text        *string
	CookingTime *int
	TagIDs      *[]uuid.UUID
	Ingredients *[]IngredientAmount
}

// ValidateRecipeInput enforces every write invariant that does not need
// database access: at least one tag and ingredient, no duplicates,
// positive cooking time and amounts.
func ValidateRecipeInput(in RecipeInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return validationErr("name", "name is required")
	}
	if in.CookingTime < 1 {
		return validationErr("cooking_time", "cooking time must be at least 1 minute")
	}
	if len(in.TagIDs) == 0 {
		return validationErr("tags", "at least one tag is required")
	}
	seenTags := make(map[uuid.UUID]struct{}, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if _, dup := seenTags[id]; dup {
			return validationErr("tags", "duplicate tag %s", id)
		}
		seenTags[id] = struct{}{}
	}
	if len(in.Ingredients) == 0 {
		return validationErr("ingredients", "at least one ingredient is required")
	}
	seenIngredients := make(map[uuid.UUID]struct{}, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if _, dup := seenIngredients[item.ID]; dup {
			return validationErr("ingredients", "duplicate ingredient %s", item.ID)
		}
		seenIngredients[item.ID] = struct{}{}
		if item.Amount < 1 {
			return validationErr("ingredients", "amount for ingredient %s must be at least 1", item.ID)
		}
	}
	return nil
}

// checkReferences verifies inside the transaction that every referenced
// tag and ingredient row exists.
func checkReferences(tx *gorm.DB, tagIDs []uuid.UUID, ingredients []IngredientAmount) error {
	if len(tagIDs) > 0 {
		var count int64
		if err := tx.Model(&models.Tag{}).Where("id IN ?", tagIDs).Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(tagIDs)) {
			return validationErr("tags", "one or more tags do not exist")
		}
	}
	for _, item := range ingredients {
		var count int64
		if err := tx.Model(&models.Ingredient{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return validationErr("ingredients", "ingredient %s does not exist", item.ID)
		}
	}
	return nil
}

// Create persists the recipe, its tag associations and ingredient join
// rows in one transaction. Nothing is written unless every check passes.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*models.Recipe, error) {
	if err := ValidateRecipeInput(in); err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		Name:        in.Name,
		AuthorID:    authorID,
		Image:       in.Image,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, in.TagIDs, in.Ingredients); err != nil {
			return err
		}
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		if err := setTags(tx, &recipe, in.TagIDs); err != nil {
			return err
		}
		return replaceIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipe.ID)
}

// Update applies the partial write shape. Ingredient joins and tag
// associations are replaced wholesale only when present in the input.
// Only the author may update a recipe.
func (s *RecipeService) Update(ctx context.Context, requesterID, recipeID uuid.UUID, in RecipeUpdateInput) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipe.AuthorID != requesterID {
		return nil, ErrForbidden
	}

	if err := validateUpdateInput(in); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tagIDs []uuid.UUID
		var ingredients []IngredientAmount
		if in.TagIDs != nil {
			tagIDs = *in.TagIDs
		}
		if in.Ingredients != nil {
			ingredients = *in.Ingredients
		}
		if err := checkReferences(tx, tagIDs, ingredients); err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Image != nil {
			updates["image"] = *in.Image
		}
		if in.Text != nil {
			updates["text"] = *in.Text
		}
		if in.CookingTime != nil {
			updates["cooking_time"] = *in.CookingTime
		}
		if len(updates) > 0 {
			if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
				return err
			}
		}

		if in.TagIDs != nil {
			if err := setTags(tx, &recipe, tagIDs); err != nil {
				return err
			}
		}
		if in.Ingredients != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if err := replaceIngredients(tx, recipe.ID, ingredients); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, recipeID)
}

func validateUpdateInput(in RecipeUpdateInput) error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return validationErr("name", "name must not be empty")
	}
	if in.CookingTime != nil && *in.CookingTime < 1 {
		return validationErr("cooking_time", "cooking time must be at least 1 minute")
	}
	if in.TagIDs != nil {
		if len(*in.TagIDs) == 0 {
			return validationErr("tags", "at least one tag is required")
		}
		seen := make(map[uuid.UUID]struct{}, len(*in.TagIDs))
		for _, id := range *in.TagIDs {
			if _, dup := seen[id]; dup {
				return validationErr("tags", "duplicate tag %s", id)
			}
			seen[id] = struct{}{}
		}
	}
	if in.Ingredients != nil {
		if len(*in.Ingredients) == 0 {
			return validationErr("ingredients", "at least one ingredient is required")
		}
		seen := make(map[uuid.UUID]struct{}, len(*in.Ingredients))
		for _, item := range *in.Ingredients {
			if _, dup := seen[item.ID]; dup {
				return validationErr("ingredients", "duplicate ingredient %s", item.ID)
			}
			seen[item.ID] = struct{}{}
			if item.Amount < 1 {
				return validationErr("ingredients", "amount for ingredient %s must be at least 1", item.ID)
			}
		}
	}
	return nil
}

func setTags(tx *gorm.DB, recipe *models.Recipe, tagIDs []uuid.UUID) error {
	var tags []models.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return err
	}
	return tx.Model(recipe).Association("Tags").Replace(tags)
}

func replaceIngredients(tx *gorm.DB, recipeID uuid.UUID, items []IngredientAmount) error {
	for _, item := range items {
		row := models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a recipe with its author, tags and ingredient rows.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// Delete removes the recipe and explicitly cleans up its join rows,
// favorites and cart entries. Only the author may delete.
func (s *RecipeService) Delete(ctx context.Context, requesterID, recipeID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if recipe.AuthorID != requesterID {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
}

// ListFilter restricts the recipe listing. FavoritedBy/InCartOf are set
// only for authenticated requesters; anonymous requests with those query
// flags fall back to the unfiltered list.
type ListFilter struct {
	AuthorID    *uuid.UUID
	TagSlugs    []string
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
	Page        int
	Limit       int
}

// List returns a page of recipes ordered newest first, plus the total
// count of matches.
func (s *RecipeService) List(ctx context.Context, f ListFilter) ([]models.Recipe, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.Recipe{})

	if f.AuthorID != nil {
		q = q.Where("author_id = ?", *f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		sub := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		q = q.Where("id IN (?)", sub)
	}
	if f.FavoritedBy != nil {
		sub := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *f.FavoritedBy)
		q = q.Where("id IN (?)", sub)
	}
	if f.InCartOf != nil {
		sub := s.db.Model(&models.Cart{}).Select("recipe_id").Where("user_id = ?", *f.InCartOf)
		q = q.Where("id IN (?)", sub)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Page > 0 && f.Limit > 0 {
		q = q.Offset((f.Page - 1) * f.Limit).Limit(f.Limit)
	}

	var recipes []models.Recipe
	err := q.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Order("created_at DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// AddFavorite inserts the (user, recipe) favorite row. A duplicate add is
// a conflict, not a silent no-op.
func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.addRelation(ctx, userID, recipeID, &models.Favorite{UserID: userID, RecipeID: recipeID},
		&models.Favorite{}, "recipe is already in favorites")
}

// RemoveFavorite deletes the favorite row; removing an absent relation is
// an explicit error.
func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRelation(ctx, userID, recipeID, &models.Favorite{}, "recipe is not in favorites")
}

// AddToCart inserts the (user, recipe) cart row.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.addRelation(ctx, userID, recipeID, &models.Cart{UserID: userID, RecipeID: recipeID},
		&models.Cart{}, "recipe is already in the shopping cart")
}

// RemoveFromCart deletes the cart row.
func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeRelation(ctx, userID, recipeID, &models.Cart{}, "recipe is not in the shopping cart")
}

func (s *RecipeService) addRelation(ctx context.Context, userID, recipeID uuid.UUID, row interface{}, model interface{}, conflictMsg string) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", conflictMsg, ErrAlreadyExists)
	}

	// The composite unique index rejects a concurrent duplicate insert.
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *RecipeService) removeRelation(ctx context.Context, userID, recipeID uuid.UUID, model interface{}, missingMsg string) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", missingMsg, ErrNotInRelation)
	}
	return nil
}

// FlagSets returns which of the given recipes are favorited by and in the
// cart of the user. Both sets are empty for the nil user (anonymous).
func (s *RecipeService) FlagSets(ctx context.Context, userID *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, map[uuid.UUID]bool, error) {
	favorited := make(map[uuid.UUID]bool)
	inCart := make(map[uuid.UUID]bool)
	if userID == nil || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	var favorites []models.Favorite
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Find(&favorites).Error; err != nil {
		return nil, nil, err
	}
	for _, f := range favorites {
		favorited[f.RecipeID] = true
	}

	var carts []models.Cart
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Find(&carts).Error; err != nil {
		return nil, nil, err
	}
	for _, c := range carts {
		inCart[c.RecipeID] = true
	}

	return favorited, inCart, nil
}

// ShoppingItem is one aggregated line of the shopping list.
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Total           int
}

// ShoppingList aggregates the ingredient rows of every recipe in the
// user's cart, grouped by (name, unit) and sorted by name. An empty cart
// is an explicit error.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error) {
	var items []ShoppingItem
	err := s.db.WithContext(ctx).
		Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN carts ON carts.recipe_id = recipe_ingredients.recipe_id").
		Where("carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	return items, nil
}

// RenderShoppingList formats the aggregated items one per line.
func RenderShoppingList(items []ShoppingItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String()
}
