package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pantrychef/internal/engine"
	"pantrychef/internal/recipe"
	"pantrychef/internal/user"
)

// mockRecipeStore backs both the engine and the scan flow in tests.
type mockRecipeStore struct {
	recipes     []*recipe.Recipe
	product     *recipe.Product
	returnError error
}

func (m *mockRecipeStore) FindByAnyIngredient(ctx context.Context, ingredients []string) ([]*recipe.Recipe, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.recipes, nil
}

func (m *mockRecipeStore) GetProductByBarcode(ctx context.Context, barcode string) (*recipe.Product, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.product, nil
}

// mockDecoder is a stand-in for the external barcode pipeline.
type mockDecoder struct {
	barcode     string
	returnError error
}

func (m *mockDecoder) DecodeBarcode(ctx context.Context, imageData []byte) (string, error) {
	if m.returnError != nil {
		return "", m.returnError
	}
	return m.barcode, nil
}

// mockUserStore keeps a single account in memory.
type mockUserStore struct {
	existing    *user.User
	takenError  bool
	returnError error
}

func (m *mockUserStore) Register(ctx context.Context, username, email, password, dietaryPreference string) (*user.User, error) {
	if m.takenError {
		return nil, user.ErrUsernameTaken
	}
	if m.returnError != nil {
		return nil, m.returnError
	}
	return &user.User{ID: "u1", Username: username, Email: email, DietaryPreference: dietaryPreference}, nil
}

func (m *mockUserStore) Authenticate(ctx context.Context, username, password string) (*user.User, error) {
	if m.existing == nil || m.existing.Username != username || password != "secret" {
		return nil, user.ErrInvalidCredentials
	}
	return m.existing, nil
}

func (m *mockUserStore) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	if m.existing == nil || m.existing.Username != username {
		return nil, nil
	}
	return m.existing, nil
}

func (m *mockUserStore) UpdateProfile(ctx context.Context, username, email, dietaryPreference string) (*user.User, error) {
	if m.existing == nil || m.existing.Username != username {
		return nil, nil
	}
	updated := *m.existing
	updated.Email = email
	updated.DietaryPreference = dietaryPreference
	return &updated, nil
}

func newTestRouter(store *mockRecipeStore, users *mockUserStore, decoder *mockDecoder) *gin.Engine {
	gin.SetMode(gin.TestMode)

	eng := engine.New(store, engine.DefaultTables(), engine.CacheConfig{MaxSize: 10}, zap.NewNop())
	h := NewHandler(eng, store, users, decoder, zap.NewNop())

	r := gin.New()
	r.POST("/suggestRecipes", h.SuggestRecipes)
	r.POST("/scanBarcode", h.ScanBarcode)
	r.GET("/cache/stats", h.CacheStats)
	r.POST("/users/register", h.Register)
	r.POST("/users/login", h.Login)
	r.GET("/users/:username", h.GetProfile)
	r.PUT("/users/:username", h.UpdateProfile)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSuggestRecipesHappyPath(t *testing.T) {
	store := &mockRecipeStore{recipes: []*recipe.Recipe{
		{
			ID:              "r1",
			Title:           "Chicken Rub",
			Instructions:    "Mix and rub.",
			Ingredients:     []string{"chicken", "salt", "pepper"},
			PreparationTime: 5,
			CookingTime:     20,
			Calories:        350,
			ImageURL:        "https://example.com/rub.jpg",
		},
	}}
	r := newTestRouter(store, &mockUserStore{}, &mockDecoder{})

	w := postJSON(t, r, "/suggestRecipes", `{"ingredients":["chicken","salt"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Recipes []struct {
			Title              string   `json:"title"`
			MatchedCount       int      `json:"matchedCount"`
			TotalIngredients   int      `json:"totalIngredients"`
			MissingIngredients []string `json:"missingIngredients"`
			WeightedScore      float64  `json:"weightedScore"`
			MatchCategory      string   `json:"matchCategory"`
			CurrentIngredients []string `json:"currentIngredients"`
			PreparationTime    int      `json:"preparationTime"`
			CookingTime        int      `json:"cookingTime"`
			Calories           int      `json:"calories"`
		} `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Len(t, resp.Recipes, 1)

	got := resp.Recipes[0]
	assert.Equal(t, "Chicken Rub", got.Title)
	assert.Equal(t, 2, got.MatchedCount)
	assert.Equal(t, 3, got.TotalIngredients)
	assert.Equal(t, []string{"pepper"}, got.MissingIngredients)
	assert.Equal(t, []string{"chicken", "salt"}, got.CurrentIngredients)
	assert.Equal(t, "full_with_extras", got.MatchCategory)
	assert.InDelta(t, 3.3333, got.WeightedScore, 0.001)
	assert.Equal(t, 5, got.PreparationTime)
	assert.Equal(t, 20, got.CookingTime)
	assert.Equal(t, 350, got.Calories)
}

func TestSuggestRecipesEmptyResult(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{}, &mockUserStore{}, &mockDecoder{})

	w := postJSON(t, r, "/suggestRecipes", `{"ingredients":["dragonfruit"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "No recipes found matching your criteria.", resp["message"])
}

func TestSuggestRecipesStringBounds(t *testing.T) {
	store := &mockRecipeStore{recipes: []*recipe.Recipe{
		{ID: "r1", Title: "Quick Beef", Ingredients: []string{"beef"}, PreparationTime: 5, CookingTime: 10},
		{ID: "r2", Title: "Slow Beef", Ingredients: []string{"beef"}, PreparationTime: 30, CookingTime: 90},
	}}
	r := newTestRouter(store, &mockUserStore{}, &mockDecoder{})

	// String-typed bound is parsed like a number.
	w := postJSON(t, r, "/suggestRecipes", `{"ingredients":["beef"],"maxTime":"60"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recipes []struct {
			Title string `json:"title"`
		} `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "Quick Beef", resp.Recipes[0].Title)
}

func TestSuggestRecipesUnparsableBoundIgnored(t *testing.T) {
	store := &mockRecipeStore{recipes: []*recipe.Recipe{
		{ID: "r1", Title: "Slow Beef", Ingredients: []string{"beef"}, PreparationTime: 30, CookingTime: 90},
	}}
	r := newTestRouter(store, &mockUserStore{}, &mockDecoder{})

	// "abc" is not a number, so the bound is treated as unset.
	w := postJSON(t, r, "/suggestRecipes", `{"ingredients":["beef"],"maxTime":"abc"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Recipes []json.RawMessage `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Recipes, 1)
}

func TestSuggestRecipesStoreError(t *testing.T) {
	store := &mockRecipeStore{returnError: errors.New("connection refused")}
	r := newTestRouter(store, &mockUserStore{}, &mockDecoder{})

	w := postJSON(t, r, "/suggestRecipes", `{"ingredients":["beef"]}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSuggestRecipesInvalidBody(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{}, &mockUserStore{}, &mockDecoder{})

	w := postJSON(t, r, "/suggestRecipes", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseBound(t *testing.T) {
	assert.Nil(t, parseBound(nil))
	assert.Nil(t, parseBound(json.RawMessage("null")))
	assert.Nil(t, parseBound(json.RawMessage(`"abc"`)))
	assert.Nil(t, parseBound(json.RawMessage(`{"x":1}`)))

	if v := parseBound(json.RawMessage("45")); assert.NotNil(t, v) {
		assert.Equal(t, int64(45), *v)
	}
	if v := parseBound(json.RawMessage(`"  30 "`)); assert.NotNil(t, v) {
		assert.Equal(t, int64(30), *v)
	}
	if v := parseBound(json.RawMessage("45.9")); assert.NotNil(t, v) {
		assert.Equal(t, int64(45), *v)
	}
}

func multipartImage(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestScanBarcodeHappyPath(t *testing.T) {
	store := &mockRecipeStore{
		product: &recipe.Product{Barcode: "5012345678900", Name: "Tomato Passata", Ingredients: []string{"tomato"}},
		recipes: []*recipe.Recipe{{ID: "r1", Title: "Marinara", Ingredients: []string{"tomato", "garlic"}}},
	}
	r := newTestRouter(store, &mockUserStore{}, &mockDecoder{barcode: "5012345678900"})

	body, contentType := multipartImage(t)
	req := httptest.NewRequest(http.MethodPost, "/scanBarcode", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "5012345678900", resp["barcode"])
	assert.Equal(t, "Tomato Passata", resp["productName"])
}

func TestScanBarcodeNotDetected(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{}, &mockUserStore{}, &mockDecoder{barcode: ""})

	body, contentType := multipartImage(t)
	req := httptest.NewRequest(http.MethodPost, "/scanBarcode", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Barcode not detected.", resp["message"])
}

func TestScanBarcodeUnknownProduct(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{product: nil}, &mockUserStore{}, &mockDecoder{barcode: "000"})

	body, contentType := multipartImage(t)
	req := httptest.NewRequest(http.MethodPost, "/scanBarcode", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Product not found for barcode: 000", resp["message"])
}

func TestScanBarcodeMissingFile(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{}, &mockUserStore{}, &mockDecoder{})

	req := httptest.NewRequest(http.MethodPost, "/scanBarcode", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCacheStatsEndpoint(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{}, &mockUserStore{}, &mockDecoder{})

	req := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats engine.CacheStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.MaxSize)
}

func TestRegisterConflict(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{}, &mockUserStore{takenError: true}, &mockDecoder{})

	w := postJSON(t, r, "/users/register", `{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterCreated(t *testing.T) {
	r := newTestRouter(&mockRecipeStore{}, &mockUserStore{}, &mockDecoder{})

	w := postJSON(t, r, "/users/register", `{"username":"alice","password":"secret","dietary_preference":"vegetarian"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool      `json:"success"`
		User    user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "vegetarian", resp.User.DietaryPreference)
}

func TestLogin(t *testing.T) {
	users := &mockUserStore{existing: &user.User{ID: "u1", Username: "alice"}}
	r := newTestRouter(&mockRecipeStore{}, users, &mockDecoder{})

	w := postJSON(t, r, "/users/login", `{"username":"alice","password":"secret"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, r, "/users/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetProfile(t *testing.T) {
	users := &mockUserStore{existing: &user.User{ID: "u1", Username: "alice", Email: "a@example.com"}}
	r := newTestRouter(&mockRecipeStore{}, users, &mockDecoder{})

	req := httptest.NewRequest(http.MethodGet, "/users/alice", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/users/bob", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	users := &mockUserStore{existing: &user.User{ID: "u1", Username: "alice"}}
	r := newTestRouter(&mockRecipeStore{}, users, &mockDecoder{})

	req := httptest.NewRequest(http.MethodPut, "/users/alice", bytes.NewBufferString(`{"email":"new@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		User user.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.User.Email)
}
