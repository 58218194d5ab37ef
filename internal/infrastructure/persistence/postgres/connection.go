// internal/infrastructure/persistence/postgres/connection.go
package postgres

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"meteovip-backend/pkg/logger"
)

type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	MaxConns       int
	MaxIdle        int
	MigrationsPath string
}

func DefaultConfig() *Config {
	return &Config{
		Host:           "localhost",
		Port:           5432,
		User:           "meteovip",
		Password:       "password",
		Database:       "meteovip_db",
		SSLMode:        "disable",
		MaxConns:       25,
		MaxIdle:        10,
		MigrationsPath: "internal/infrastructure/persistence/postgres/migrations",
	}
}

func Connect(cfg *Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Настройки пула соединений
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Проверка подключения
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info("✅ Connected to PostgreSQL")

	if cfg.MigrationsPath != "" {
		if err := NewMigrator(db).Apply(cfg.MigrationsPath); err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return db, nil
}
