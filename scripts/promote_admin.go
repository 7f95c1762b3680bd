package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Promotes an account to admin by email:
//
//	go run scripts/promote_admin.go someone@example.com
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/promote_admin.go <email>")
	}
	email := os.Args[1]

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	result, err := db.Exec(`UPDATE accounts SET is_admin = TRUE WHERE email = $1`, email)
	if err != nil {
		log.Fatalf("Failed to promote account: %v", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		log.Fatalf("No account found with email %s", email)
	}
	log.Printf("Account %s is now an admin", email)
}
