package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nextshoptx/internal/config"
	"nextshoptx/internal/db"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	dir := flag.String("dir", "migrations", "directory of .sql migration files")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		log.Fatalf("ensure schema table failed: %v", err)
	}

	files, err := pendingMigrations(ctx, pool, *dir)
	if err != nil {
		log.Fatalf("list migrations failed: %v", err)
	}
	if len(files) == 0 {
		log.Println("schema up to date")
		return
	}

	for _, file := range files {
		if err := apply(ctx, pool, file); err != nil {
			log.Fatalf("apply migration failed (%s): %v", file, err)
		}
		log.Printf("applied %s", file)
	}
}

// pendingMigrations returns the .sql files under dir, in lexical order,
// that have no schema_migrations row yet.
func pendingMigrations(ctx context.Context, pool *db.Pool, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		file := filepath.Join(dir, e.Name())
		var applied bool
		row := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE filename=$1)`, file)
		if err := row.Scan(&applied); err != nil {
			return nil, err
		}
		if !applied {
			files = append(files, file)
		}
	}
	sort.Strings(files)
	return files, nil
}

// apply runs one migration file and records it in the same transaction,
// so a failed statement leaves neither the schema change nor the
// bookkeeping row behind.
func apply(ctx context.Context, pool *db.Pool, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	sql := strings.TrimSpace(string(data))
	if sql == "" {
		return nil
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, file)
		return err
	})
}
