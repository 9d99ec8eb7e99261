package recipe

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Store defines the candidate-store operations the rest of the service needs.
type Store interface {
	FindByAnyIngredient(ctx context.Context, ingredients []string) ([]*Recipe, error)
	SaveRecipe(ctx context.Context, r *Recipe) error
	GetProductByBarcode(ctx context.Context, barcode string) (*Product, error)
	SaveProduct(ctx context.Context, p *Product) error
}

// PostgresStore implements Store on PostgreSQL. Ingredient lists live in
// JSONB columns so the any-token candidate query stays a single indexable
// operator.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore prepares the schema on the given connection.
func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		title TEXT,
		instructions TEXT,
		ingredients JSONB,
		preparation_time INTEGER,
		cooking_time INTEGER,
		calories INTEGER,
		image_url TEXT
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create recipes table: %w", err)
	}

	schema = `
	CREATE TABLE IF NOT EXISTS products (
		barcode TEXT PRIMARY KEY,
		name TEXT,
		ingredients JSONB
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create products table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Connect opens a pooled connection to Postgres.
func Connect(dataSourceName string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// FindByAnyIngredient returns every recipe whose ingredient array contains at
// least one of the given tokens. Containment is exact and case-sensitive at
// this layer; the engine re-checks each candidate with fuzzier rules. Results
// are ordered by id so downstream ranking ties stay deterministic.
func (s *PostgresStore) FindByAnyIngredient(ctx context.Context, ingredients []string) ([]*Recipe, error) {
	if len(ingredients) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, instructions, ingredients, preparation_time, cooking_time, calories, image_url
		 FROM recipes WHERE ingredients ?| $1 ORDER BY id`,
		pq.Array(ingredients),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []*Recipe
	for rows.Next() {
		var r Recipe
		var ingredientsJSON []byte
		err := rows.Scan(
			&r.ID,
			&r.Title,
			&r.Instructions,
			&ingredientsJSON,
			&r.PreparationTime,
			&r.CookingTime,
			&r.Calories,
			&r.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recipe row: %w", err)
		}
		if err := json.Unmarshal(ingredientsJSON, &r.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ingredients: %w", err)
		}
		recipes = append(recipes, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return recipes, nil
}

// SaveRecipe upserts a recipe.
func (s *PostgresStore) SaveRecipe(ctx context.Context, r *Recipe) error {
	ingredientsJSON, err := json.Marshal(r.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredients: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recipes (id, title, instructions, ingredients, preparation_time, cooking_time, calories, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET title = $2, instructions = $3, ingredients = $4,
		 preparation_time = $5, cooking_time = $6, calories = $7, image_url = $8`,
		r.ID,
		r.Title,
		r.Instructions,
		ingredientsJSON,
		r.PreparationTime,
		r.CookingTime,
		r.Calories,
		r.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// GetProductByBarcode retrieves a product, or nil when the barcode is unknown.
func (s *PostgresStore) GetProductByBarcode(ctx context.Context, barcode string) (*Product, error) {
	var p Product
	var ingredientsJSON []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT barcode, name, ingredients FROM products WHERE barcode = $1", barcode,
	).Scan(&p.Barcode, &p.Name, &ingredientsJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Product not found
		}
		return nil, fmt.Errorf("failed to get product by barcode: %w", err)
	}

	if err := json.Unmarshal(ingredientsJSON, &p.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product ingredients: %w", err)
	}
	return &p, nil
}

// SaveProduct upserts a product.
func (s *PostgresStore) SaveProduct(ctx context.Context, p *Product) error {
	ingredientsJSON, err := json.Marshal(p.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal product ingredients: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO products (barcode, name, ingredients) VALUES ($1, $2, $3)
		 ON CONFLICT (barcode) DO UPDATE SET name = $2, ingredients = $3`,
		p.Barcode,
		p.Name,
		ingredientsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}
