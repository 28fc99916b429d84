// Command migrate manages the SQLite schema outside a pipeline run.
// The ingest command applies pending migrations on startup; this tool
// exists for inspecting status and rolling back during development.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/dvloznov/spendsmart/internal/store"
)

func main() {
	dbPath := flag.String("db", "", "path to the SQLite database (defaults to DB_PATH)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-db path] <up|down|status>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	path := *dbPath
	if path == "" {
		// Other credentials are irrelevant here, only DB_PATH matters.
		_ = godotenv.Load()
		path = os.Getenv("DB_PATH")
		if path == "" {
			path = "./data/spendsmart.db"
		}
	}

	db, err := store.Connect(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := store.RunMigrationCommand(db, command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
