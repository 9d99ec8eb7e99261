// Command seed loads recipes and products from a JSON file into the
// database. Intended for local development and demo data.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"pantrychef/internal/config"
	"pantrychef/internal/logging"
	"pantrychef/internal/recipe"
)

type seedFile struct {
	Recipes  []*recipe.Recipe  `json:"recipes"`
	Products []*recipe.Product `json:"products"`
}

func main() {
	path := flag.String("file", "seed.json", "path to the seed JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	data, err := os.ReadFile(*path)
	if err != nil {
		logger.Fatal("failed to read seed file", zap.Error(err))
	}

	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		logger.Fatal("failed to parse seed file", zap.Error(err))
	}

	db, err := recipe.Connect(cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store, err := recipe.NewPostgresStore(db)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}

	ctx := context.Background()
	for _, r := range seed.Recipes {
		if err := store.SaveRecipe(ctx, r); err != nil {
			logger.Fatal("failed to save recipe", zap.String("title", r.Title), zap.Error(err))
		}
	}
	for _, p := range seed.Products {
		if err := store.SaveProduct(ctx, p); err != nil {
			logger.Fatal("failed to save product", zap.String("barcode", p.Barcode), zap.Error(err))
		}
	}

	logger.Info("seed complete",
		zap.Int("recipes", len(seed.Recipes)),
		zap.Int("products", len(seed.Products)),
	)
}
