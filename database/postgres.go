package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"loragw/config"
)

const maxRetries = 10

func DSN(cfg config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
}

// ConnectDB opens the device table database, retrying with linear backoff.
func ConnectDB(cfg config.Config) (*sql.DB, error) {
	dsn := DSN(cfg)

	var lastErr error
	for i := range maxRetries {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			lastErr = err
			log.Printf("Error opening database: %v. Retrying in %d seconds...", err, i+1)
			time.Sleep(time.Duration(i+1) * time.Second)
			continue
		}
		if err = db.Ping(); err == nil {
			log.Println("Database connection successful!")

			db.SetMaxOpenConns(5)
			db.SetMaxIdleConns(2)
			db.SetConnMaxLifetime(5 * time.Minute)

			return db, nil
		}
		lastErr = err
		log.Printf("Error pinging database: %v. Retrying in %d seconds...", err, i+1)
		db.Close()
		time.Sleep(time.Duration(i+1) * time.Second)
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, lastErr)
}
