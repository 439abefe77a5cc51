package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"finalfeliz/internal/pkg/database"
)

// Uso: migrate [-dsn URL] [comando] [args]
// Comandos do goose: up, down, status, version, redo, reset, up-to N, down-to N.
// As migrações vêm embutidas no binário (internal/pkg/database/migrations).
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Warning: .env file not found or failed to read. Loading configs from system environment only: %v", err)
	}

	var dsn string
	flag.StringVar(&dsn, "dsn", "", "Postgres connection URL (default: $DATABASE_URL)")
	flag.Parse()
	if dsn == "" {
		// Só DATABASE_URL: o migrate não precisa de SESSION_SECRET.
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		log.Fatal("❌ Erro de Configuração: informe -dsn ou defina DATABASE_URL.")
	}

	// Connect to the database
	db, err := database.NewPostgresDB(dsn)
	if err != nil {
		log.Fatalf("goose: failed to connect to DB: %v\n", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Fatalf("goose: failed to close DB: %v\n", err)
		}
	}()

	if err := database.SetupGoose(); err != nil {
		log.Fatalf("goose: %v", err)
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"} // Default to 'up' if no command is provided
	}

	command := arguments[0]
	var args []string
	if len(arguments) > 1 {
		args = arguments[1:]
	}

	if err := goose.Run(command, db, database.MigrationsDir, args...); err != nil {
		log.Fatalf("goose %v: %v", command, err)
	}

	fmt.Printf("goose %s success\n", command)
}
