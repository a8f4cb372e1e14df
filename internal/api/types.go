package api

import (
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

// Write shapes.

type recipeIngredientRequest struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Amount int       `json:"amount" binding:"required"`
}

// CreateRecipeRequest is the recipe write shape: tag ids, ingredient
// id/amount pairs and a base64 image payload. Responses never echo this
// shape back.
type CreateRecipeRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Text        string                    `json:"text" binding:"required"`
	Image       string                    `json:"image"`
	CookingTime int                       `json:"cooking_time" binding:"required"`
	Tags        []uuid.UUID               `json:"tags" binding:"required"`
	Ingredients []recipeIngredientRequest `json:"ingredients" binding:"required"`
}

// UpdateRecipeRequest is the partial write shape; absent fields leave the
// recipe untouched.
type UpdateRecipeRequest struct {
	Name        *string                    `json:"name"`
	Text        *string                    `json:"text"`
	Image       *string                    `json:"image"`
	CookingTime *int                       `json:"cooking_time"`
	Tags        *[]uuid.UUID               `json:"tags"`
	Ingredients *[]recipeIngredientRequest `json:"ingredients"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Read shapes.

type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

type IngredientAmountResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeResponse is the list/detail shape: nested tags, author and
// ingredients plus the two requester-dependent booleans.
type RecipeResponse struct {
	ID               uuid.UUID                  `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []IngredientAmountResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// ShortRecipeResponse is the compact recipe shape embedded in
// subscription entries.
type ShortRecipeResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// SubscriptionResponse is a followed user enriched with recent recipes
// and a recipe count.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

// PageResponse wraps a paginated listing.
type PageResponse struct {
	Count   int64       `json:"count"`
	Results interface{} `json:"results"`
}

// recipeFlags carries the requester-dependent booleans for one mapping
// call.
type recipeFlags struct {
	favorited map[uuid.UUID]bool
	inCart    map[uuid.UUID]bool
	following map[uuid.UUID]bool
}

func toUserResponse(u models.User, isSubscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
	}
}

func toRecipeResponse(r models.Recipe, flags recipeFlags) RecipeResponse {
	ingredients := make([]IngredientAmountResponse, 0, len(r.Ingredients))
	for _, row := range r.Ingredients {
		ingredients = append(ingredients, IngredientAmountResponse{
			ID:              row.IngredientID,
			Name:            row.Ingredient.Name,
			MeasurementUnit: row.Ingredient.MeasurementUnit,
			Amount:          row.Amount,
		})
	}

	tags := r.Tags
	if tags == nil {
		tags = []models.Tag{}
	}

	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           toUserResponse(r.Author, flags.following[r.AuthorID]),
		Ingredients:      ingredients,
		IsFavorited:      flags.favorited[r.ID],
		IsInShoppingCart: flags.inCart[r.ID],
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func toShortRecipeResponse(r models.Recipe) ShortRecipeResponse {
	return ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

func toSubscriptionResponse(sub service.Subscription) SubscriptionResponse {
	recipes := make([]ShortRecipeResponse, 0, len(sub.Recipes))
	for _, r := range sub.Recipes {
		recipes = append(recipes, toShortRecipeResponse(r))
	}
	return SubscriptionResponse{
		UserResponse: toUserResponse(sub.User, true),
		Recipes:      recipes,
		RecipesCount: sub.RecipeCount,
	}
}

func toRecipeInput(req CreateRecipeRequest) service.RecipeInput {
	ingredients := make([]service.IngredientAmount, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		ingredients = append(ingredients, service.IngredientAmount{ID: item.ID, Amount: item.Amount})
	}
	return service.RecipeInput{
		Name:        req.Name,
		Image:       req.Image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: ingredients,
	}
}

func toRecipeUpdateInput(req UpdateRecipeRequest) service.RecipeUpdateInput {
	in := service.RecipeUpdateInput{
		Name:        req.Name,
		Image:       req.Image,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
	}
	if req.Ingredients != nil {
		ingredients := make([]service.IngredientAmount, 0, len(*req.Ingredients))
		for _, item := range *req.Ingredients {
			ingredients = append(ingredients, service.IngredientAmount{ID: item.ID, Amount: item.Amount})
		}
		in.Ingredients = &ingredients
	}
	return in
}
