package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
)

type RecipeHandler struct {
	recipes     *service.RecipeService
	users       *service.UserService
	authService *service.AuthService
	limiter     *middleware.RateLimiter
	pageSize    int
}

func NewRecipeHandler(recipes *service.RecipeService, users *service.UserService, authService *service.AuthService, limiter *middleware.RateLimiter, pageSize int) *RecipeHandler {
	return &RecipeHandler{
		recipes:     recipes,
		users:       users,
		authService: authService,
		limiter:     limiter,
		pageSize:    pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)
	optional := middleware.OptionalAuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.GET("/download_shopping_cart", auth, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		if h.limiter != nil {
			recipes.POST("", auth, h.limiter.RateLimitMiddleware(), h.CreateRecipe)
		} else {
			recipes.POST("", auth, h.CreateRecipe)
		}
		recipes.PATCH("/:id", auth, h.UpdateRecipe)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", auth, h.AddFavorite)
		recipes.DELETE("/:id/favorite", auth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", auth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", auth, h.RemoveFromCart)
	}
}

// ListRecipes returns a paginated listing, newest first. The
// is_favorited / is_in_shopping_cart flags only restrict the listing for
// authenticated requesters; anonymous requests get the unfiltered list.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.ListFilter{}
	filter.Page, filter.Limit = pageParams(c, h.pageSize)

	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &authorID
	}
	if slugs := c.QueryArray("tags"); len(slugs) > 0 {
		filter.TagSlugs = slugs
	}

	var requester *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		requester = &id
	}
	if requester != nil {
		if c.Query("is_favorited") == "1" || c.Query("is_favorited") == "true" {
			filter.FavoritedBy = requester
		}
		if c.Query("is_in_shopping_cart") == "1" || c.Query("is_in_shopping_cart") == "true" {
			filter.InCartOf = requester
		}
	}

	recipes, total, err := h.recipes.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	recipeIDs := make([]uuid.UUID, 0, len(recipes))
	authorIDs := make([]uuid.UUID, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorited, inCart, err := h.recipes.FlagSets(c.Request.Context(), requester, recipeIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	following, err := h.users.FollowingSet(c.Request.Context(), requester, authorIDs)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	flags := recipeFlags{favorited: favorited, inCart: inCart, following: following}
	results := make([]RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		results = append(results, toRecipeResponse(r, flags))
	}

	c.JSON(http.StatusOK, PageResponse{Count: total, Results: results})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), recipeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.respondWithRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipe, err := h.recipes.Create(c.Request.Context(), userID, toRecipeInput(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.respondWithRecipe(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	var req UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipe, err := h.recipes.Update(c.Request.Context(), userID, recipeID, toRecipeUpdateInput(req))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	h.respondWithRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), userID, recipeID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addRelation(c, h.recipes.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.recipes.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, h.recipes.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.recipes.RemoveFromCart)
}

// DownloadShoppingCart renders the aggregated shopping list as a plain
// text attachment, one ingredient per line.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	items, err := h.recipes.ShoppingList(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=shopping_list.txt")
	c.String(http.StatusOK, "%s", service.RenderShoppingList(items))
}

type relationOp func(ctx context.Context, userID, recipeID uuid.UUID) error

// addRelation handles the POST half of favorite / shopping_cart: insert
// the row and answer with the compact recipe shape.
func (h *RecipeHandler) addRelation(c *gin.Context, op relationOp) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := op(c.Request.Context(), userID, recipeID); err != nil {
		handleServiceError(c, err)
		return
	}

	recipe, err := h.recipes.Get(c.Request.Context(), recipeID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toShortRecipeResponse(*recipe))
}

func (h *RecipeHandler) removeRelation(c *gin.Context, op relationOp) {
	recipeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := op(c.Request.Context(), userID, recipeID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// respondWithRecipe serializes a recipe with the requester-dependent
// flags resolved.
func (h *RecipeHandler) respondWithRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	var requester *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		requester = &id
	}

	favorited, inCart, err := h.recipes.FlagSets(c.Request.Context(), requester, []uuid.UUID{recipe.ID})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	following, err := h.users.FollowingSet(c.Request.Context(), requester, []uuid.UUID{recipe.AuthorID})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	flags := recipeFlags{favorited: favorited, inCart: inCart, following: following}
	c.JSON(status, toRecipeResponse(*recipe, flags))
}
