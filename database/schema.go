package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist
func InitSchema(db *sql.DB) error {
	log.Info("Initializing civicwatch database schema...")

	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS reports(
		id BIGINT NOT NULL AUTO_INCREMENT,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		reporter_name VARCHAR(255) NOT NULL,
		severity ENUM('Low', 'Medium', 'High', 'Severe', 'Critical') NOT NULL,
		image_url TEXT,
		city VARCHAR(255) NOT NULL,
		latitude DOUBLE NOT NULL,
		longitude DOUBLE NOT NULL,
		status ENUM('Active', 'Closed') NOT NULL DEFAULT 'Active',
		resolution_image_url TEXT,
		resolution_notes TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX city_index (city),
		INDEX status_index (status),
		INDEX created_at_index (created_at)
	)`

	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	log.Info("Reports table created/verified")

	usersTableSQL := `
	CREATE TABLE IF NOT EXISTS users(
		id BIGINT NOT NULL AUTO_INCREMENT,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('citizen', 'government', 'admin') NOT NULL DEFAULT 'citizen',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE INDEX email_index (email)
	)`

	if _, err := db.Exec(usersTableSQL); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Info("Users table created/verified")

	log.Info("Civicwatch database schema initialization completed")
	return nil
}
