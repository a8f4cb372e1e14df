package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

const (
	testJWTSecret = "test-secret"
	testPageSize  = 6
)

// testEnv bundles the router, the database and the services behind it so
// handler tests can both drive HTTP and seed rows directly.
type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	sqlDB   *database.DB
	auth    *service.AuthService
	recipes *service.RecipeService
	users   *service.UserService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.NewTestDB(t)
	rawDB, err := db.DB()
	require.NoError(t, err)
	sqlDB := &database.DB{DB: rawDB}

	auth := service.NewAuthService(db, nil, testJWTSecret)
	users := service.NewUserService(db)
	recipes := service.NewRecipeService(db)
	catalog := service.NewCatalogService(db)

	router := gin.New()
	router.GET("/health", NewHealthHandler(sqlDB).Check)

	v1 := router.Group("/api/v1")
	NewAuthHandler(auth).RegisterRoutes(v1)
	NewUserHandler(users, auth, testPageSize).RegisterRoutes(v1)
	NewRecipeHandler(recipes, users, auth, nil, testPageSize).RegisterRoutes(v1)
	NewCatalogHandler(catalog).RegisterRoutes(v1)

	return &testEnv{
		router:  router,
		db:      db,
		sqlDB:   sqlDB,
		auth:    auth,
		recipes: recipes,
		users:   users,
	}
}

// registerUser creates an account through the service layer and returns
// the user plus a valid bearer token.
func (e *testEnv) registerUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user, err := e.auth.Register(context.Background(), service.RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: "Test",
		LastName:  "User",
		Password:  "secret123",
	})
	require.NoError(t, err)

	token, err := e.auth.Login(context.Background(), user.Email, "secret123")
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) seedTag(t *testing.T, name, slug string) *models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: "#" + slug, Slug: slug}
	require.NoError(t, e.db.Create(&tag).Error)
	return &tag
}

func (e *testEnv) seedIngredient(t *testing.T, name, unit string) *models.Ingredient {
	t.Helper()
	ing := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, e.db.Create(&ing).Error)
	return &ing
}

func (e *testEnv) seedRecipe(t *testing.T, authorID uuid.UUID, name string, tagIDs []uuid.UUID, ingredients []service.IngredientAmount) *models.Recipe {
	t.Helper()
	recipe, err := e.recipes.Create(context.Background(), authorID, service.RecipeInput{
		Name:        name,
		Text:        "Instructions for " + name,
		CookingTime: 30,
		TagIDs:      tagIDs,
		Ingredients: ingredients,
	})
	require.NoError(t, err)
	return recipe
}

// request performs an HTTP call against the test router. A non-empty
// token is sent as a bearer Authorization header; a non-nil body is JSON
// encoded.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}
