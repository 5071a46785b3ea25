package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Denno-Labs/Logistria/internal/db"
)

// Applies the schema file to the database behind DATABASE_URL. The schema is
// idempotent (CREATE TABLE IF NOT EXISTS), so re-running is safe.
func main() {
	_ = godotenv.Load()

	path := "migrations/schema.sql"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	schema, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Unable to read schema file %s: %v", path, err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}
	log.Printf("Schema applied from %s", path)
}
