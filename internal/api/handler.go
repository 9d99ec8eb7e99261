package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantrychef/internal/engine"
	"pantrychef/internal/recipe"
	"pantrychef/internal/user"
)

// Suggester is the engine surface the handlers need.
type Suggester interface {
	Suggest(ctx context.Context, req engine.Request) ([]engine.Match, error)
	Substitutions(missing []string) []string
	CacheStats() engine.CacheStats
}

// RecipeStore defines the store operations used by the handlers.
type RecipeStore interface {
	FindByAnyIngredient(ctx context.Context, ingredients []string) ([]*recipe.Recipe, error)
	GetProductByBarcode(ctx context.Context, barcode string) (*recipe.Product, error)
}

// UserStore defines the account operations used by the handlers.
type UserStore interface {
	Register(ctx context.Context, username, email, password, dietaryPreference string) (*user.User, error)
	Authenticate(ctx context.Context, username, password string) (*user.User, error)
	GetByUsername(ctx context.Context, username string) (*user.User, error)
	UpdateProfile(ctx context.Context, username, email, dietaryPreference string) (*user.User, error)
}

// BarcodeDecoder defines the interface to the external photo-to-barcode
// pipeline.
type BarcodeDecoder interface {
	DecodeBarcode(ctx context.Context, imageData []byte) (string, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Engine      Suggester
	RecipeStore RecipeStore
	UserStore   UserStore
	Decoder     BarcodeDecoder
	Logger      *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(eng Suggester, recipeStore RecipeStore, userStore UserStore, decoder BarcodeDecoder, logger *zap.Logger) *Handler {
	return &Handler{
		Engine:      eng,
		RecipeStore: recipeStore,
		UserStore:   userStore,
		Decoder:     decoder,
		Logger:      logger,
	}
}

// suggestRequest mirrors the inbound payload. The bounds arrive as either
// JSON numbers or numeric strings, so they are captured raw and parsed
// leniently.
type suggestRequest struct {
	Ingredients       []string        `json:"ingredients"`
	BannedIngredients []string        `json:"bannedIngredients"`
	MaxTime           json.RawMessage `json:"maxTime"`
	MaxCalories       json.RawMessage `json:"maxCalories"`
}

// suggestedRecipe is one ranked row in the response.
type suggestedRecipe struct {
	Title              string          `json:"title"`
	Instructions       string          `json:"instructions"`
	ImageURL           string          `json:"imageUrl"`
	MatchedCount       int             `json:"matchedCount"`
	TotalIngredients   int             `json:"totalIngredients"`
	MissingIngredients []string        `json:"missingIngredients"`
	WeightedScore      float64         `json:"weightedScore"`
	MatchCategory      engine.Category `json:"matchCategory"`
	CurrentIngredients []string        `json:"currentIngredients"`
	MissingSuggestions []string        `json:"missingSuggestions"`
	PreparationTime    int             `json:"preparationTime"`
	CookingTime        int             `json:"cookingTime"`
	Calories           int             `json:"calories"`
}

// SuggestRecipes runs the full suggestion pipeline for the posted pantry.
func (h *Handler) SuggestRecipes(c *gin.Context) {
	var payload suggestRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Ingredients not provided or invalid format."})
		return
	}

	req := engine.Request{
		UserIngredients:   payload.Ingredients,
		BannedIngredients: payload.BannedIngredients,
		MaxTime:           parseBound(payload.MaxTime),
		MaxCalories:       parseBound(payload.MaxCalories),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	matches, err := h.Engine.Suggest(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusRequestTimeout, gin.H{"success": false, "message": "Suggestion query timed out"})
			return
		}
		h.Logger.Error("suggestion pipeline failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("Error: %s", err.Error())})
		return
	}

	if len(matches) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"recipes": []suggestedRecipe{},
			"message": "No recipes found matching your criteria.",
		})
		return
	}

	results := make([]suggestedRecipe, 0, len(matches))
	for _, m := range matches {
		results = append(results, suggestedRecipe{
			Title:              m.Recipe.Title,
			Instructions:       m.Recipe.Instructions,
			ImageURL:           m.Recipe.ImageURL,
			MatchedCount:       m.MatchedCount,
			TotalIngredients:   m.TotalIngredients,
			MissingIngredients: m.MissingIngredients,
			WeightedScore:      m.WeightedScore,
			MatchCategory:      m.Category,
			CurrentIngredients: m.CurrentIngredients,
			MissingSuggestions: h.Engine.Substitutions(m.MissingIngredients),
			PreparationTime:    m.Recipe.PreparationTime,
			CookingTime:        m.Recipe.CookingTime,
			Calories:           m.Recipe.Calories,
		})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recipes": results})
}

// parseBound accepts a JSON number or a numeric string. Anything unparsable
// means the bound is simply not set; it is never an error.
func parseBound(raw json.RawMessage) *int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		v := int64(f)
		return &v
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return &v
		}
	}
	return nil
}

// ScanBarcode accepts a product photo, asks the external pipeline for a
// barcode, and returns the product plus the raw candidate recipes for its
// ingredient list.
func (h *Handler) ScanBarcode(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": fmt.Sprintf("get form err: %s", err.Error())})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("open file err: %s", err.Error())})
		return
	}
	defer src.Close()

	imageData, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("read image err: %s", err.Error())})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	barcode, err := h.Decoder.DecodeBarcode(ctx, imageData)
	if err != nil {
		h.Logger.Error("barcode decode failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("Error processing image: %s", err.Error())})
		return
	}
	if barcode == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Barcode not detected."})
		return
	}

	product, err := h.RecipeStore.GetProductByBarcode(ctx, barcode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("database error: %s", err.Error())})
		return
	}
	if product == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": fmt.Sprintf("Product not found for barcode: %s", barcode),
			"barcode": barcode,
		})
		return
	}
	if len(product.Ingredients) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": fmt.Sprintf("No ingredients found for product: %s", product.Name),
			"barcode": barcode,
		})
		return
	}

	recipes, err := h.RecipeStore.FindByAnyIngredient(ctx, product.Ingredients)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("database error: %s", err.Error())})
		return
	}
	if len(recipes) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": fmt.Sprintf("No recipes found for product ingredients: %v", product.Ingredients),
			"barcode": barcode,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"message":            "Barcode scanned successfully.",
		"barcode":            barcode,
		"productName":        product.Name,
		"productIngredients": product.Ingredients,
		"recipes":            recipes,
	})
}

// CacheStats reports the suggestion cache counters.
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.Engine.CacheStats())
}

type registerRequest struct {
	Username          string `json:"username" binding:"required"`
	Email             string `json:"email"`
	Password          string `json:"password" binding:"required"`
	DietaryPreference string `json:"dietary_preference"`
}

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var payload registerRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "username and password are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.UserStore.Register(ctx, payload.Username, payload.Email, payload.Password, payload.DietaryPreference)
	if err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("database error: %s", err.Error())})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": u})
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials.
func (h *Handler) Login(c *gin.Context) {
	var payload loginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "username and password are required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.UserStore.Authenticate(ctx, payload.Username, payload.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid username or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("database error: %s", err.Error())})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

// GetProfile returns an account's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	username := c.Param("username")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.UserStore.GetByUsername(ctx, username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("database error: %s", err.Error())})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}

type updateProfileRequest struct {
	Email             string `json:"email"`
	DietaryPreference string `json:"dietary_preference"`
}

// UpdateProfile updates an account's mutable fields.
func (h *Handler) UpdateProfile(c *gin.Context) {
	username := c.Param("username")

	var payload updateProfileRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	u, err := h.UserStore.UpdateProfile(ctx, username, payload.Email, payload.DietaryPreference)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fmt.Sprintf("database error: %s", err.Error())})
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u})
}
