package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/repository/sqlite"
)

func main() {
	envFile := flag.String("env-file", ".env", "File with KEY=VALUE settings")
	dbPath := flag.String("db", "", "Database path (defaults to DB_PATH)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("Failed to load %s: %v", *envFile, err)
	}
	if *dbPath == "" {
		*dbPath = config.Load().DatabasePath
	}

	fmt.Printf("Applying schema to %s\n", *dbPath)

	// Opening the database creates missing tables and indexes
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	counts, err := db.TableCounts()
	if err != nil {
		log.Fatalf("Failed to read table counts: %v", err)
	}

	tables := make([]string, 0, len(counts))
	for name := range counts {
		tables = append(tables, name)
	}
	sort.Strings(tables)

	fmt.Printf("✅ Schema is up to date\n")
	fmt.Printf("\n📊 Database Statistics:\n")
	for _, name := range tables {
		fmt.Printf("   %s: %d rows\n", name, counts[name])
	}
}
