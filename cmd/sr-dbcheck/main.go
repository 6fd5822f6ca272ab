package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"

	"siderequest/internal/server"
)

func main() {
	dbPath := os.Getenv("SR_DB_PATH")
	if dbPath == "" {
		dbPath = "./data/siderequest.db"
	}
	if len(os.Args) > 1 {
		dbPath = os.Args[1]
	}

	ctx := context.Background()
	db, err := server.OpenDB(ctx, dbPath, nil)
	if err != nil {
		log.Fatalf("OpenDB failed: %v", err)
	}
	err = report(ctx, db, os.Stdout)
	db.Close()
	if err != nil {
		log.Fatal(err)
	}
}

// report prints the tables, applied migrations and balance count of db.
func report(ctx context.Context, db *sql.DB, w io.Writer) error {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' ORDER BY name;`)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	fmt.Fprintln(w, "Tables:")
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		fmt.Fprintln(w, " -", name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read tables failed: %w", err)
	}

	applied, err := server.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Migrations:")
	for _, name := range applied {
		fmt.Fprintln(w, " -", name)
	}

	n, err := server.NewSQLiteStore(db).Count(ctx)
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}
	fmt.Fprintln(w, "Balances:", n)
	return nil
}
