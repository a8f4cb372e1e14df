package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// UserHandler serves user listings, registration, account management and
// the subscription endpoints.
type UserHandler struct {
	users       *service.UserService
	authService *service.AuthService
	pageSize    int
}

func NewUserHandler(users *service.UserService, authService *service.AuthService, pageSize int) *UserHandler {
	return &UserHandler{
		users:       users,
		authService: authService,
		pageSize:    pageSize,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)
	optional := middleware.OptionalAuthMiddleware(h.authService)

	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", optional, h.ListUsers)
		users.GET("/me", auth, h.Me)
		users.GET("/subscriptions", auth, h.Subscriptions)
		users.POST("/set_password", auth, h.SetPassword)
		users.DELETE("/me", auth, h.DeleteAccount)
		users.GET("/:id", optional, h.GetUser)
		users.POST("/:id/subscribe", auth, h.Subscribe)
		users.DELETE("/:id/subscribe", auth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(*user, false))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c, h.pageSize)
	users, total, err := h.users.List(c.Request.Context(), page, limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	var requester *uuid.UUID
	if id, ok := middleware.UserID(c); ok {
		requester = &id
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	following, err := h.users.FollowingSet(c.Request.Context(), requester, ids)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results := make([]UserResponse, 0, len(users))
	for _, u := range users {
		results = append(results, toUserResponse(u, following[u.ID]))
	}
	c.JSON(http.StatusOK, PageResponse{Count: total, Results: results})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	var requester *uuid.UUID
	if rid, ok := middleware.UserID(c); ok {
		requester = &rid
	}
	following, err := h.users.FollowingSet(c.Request.Context(), requester, []uuid.UUID{user.ID})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(*user, following[user.ID]))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(*user, false))
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteAccount removes the requester's account and everything it owns.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.users.Delete(c.Request.Context(), userID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subscriptions lists the users the requester follows, each enriched
// with recent recipes (capped by recipes_limit) and a recipe count.
func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	page, limit := pageParams(c, h.pageSize)
	recipesLimit := 0
	if v, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && v > 0 {
		recipesLimit = v
	}

	subs, total, err := h.users.Subscriptions(c.Request.Context(), userID, page, limit, recipesLimit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results := make([]SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		results = append(results, toSubscriptionResponse(sub))
	}
	c.JSON(http.StatusOK, PageResponse{Count: total, Results: results})
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.users.Subscribe(c.Request.Context(), userID, targetID); err != nil {
		handleServiceError(c, err)
		return
	}

	subs, _, err := h.users.Subscriptions(c.Request.Context(), userID, 0, 0, 0)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	for _, sub := range subs {
		if sub.User.ID == targetID {
			c.JSON(http.StatusCreated, toSubscriptionResponse(sub))
			return
		}
	}
	c.Status(http.StatusCreated)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.users.Unsubscribe(c.Request.Context(), userID, targetID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
