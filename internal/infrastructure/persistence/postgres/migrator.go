// internal/infrastructure/persistence/postgres/migrator.go
package postgres

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"meteovip-backend/pkg/logger"
)

// Migrator применяет нумерованные SQL миграции из директории.
// Формат файла: 001_create_users.sql; применённые миграции
// учитываются в таблице migrations вместе с контрольной суммой.
type Migrator struct {
	db *sqlx.DB
}

// Migration - одна загруженная миграция
type Migration struct {
	ID       int
	Name     string
	SQL      string
	Checksum string
}

// MigrationRecord - запись о применённой миграции
type MigrationRecord struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	AppliedAt time.Time `db:"applied_at"`
	Checksum  string    `db:"checksum"`
}

// NewMigrator создает новый мигратор
func NewMigrator(db *sqlx.DB) *Migrator {
	return &Migrator{db: db}
}

// Apply загружает миграции из директории и применяет недостающие
func (m *Migrator) Apply(dir string) error {
	if err := m.init(); err != nil {
		return err
	}

	migrations, err := loadMigrations(dir)
	if err != nil {
		return err
	}

	applied, err := m.appliedMigrations()
	if err != nil {
		return err
	}

	var appliedCount int
	for _, migration := range migrations {
		if record, ok := applied[migration.ID]; ok {
			if record.Checksum != migration.Checksum {
				return fmt.Errorf("checksum mismatch for migration %d (%s): file changed after being applied",
					migration.ID, migration.Name)
			}
			continue
		}

		if err := m.applyOne(migration); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", migration.ID, migration.Name, err)
		}
		appliedCount++
	}

	if appliedCount > 0 {
		logger.Info("✅ Применено миграций: %d", appliedCount)
	} else {
		logger.Info("✅ Схема БД актуальна")
	}
	return nil
}

func (m *Migrator) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		checksum VARCHAR(64) NOT NULL
	)
	`
	if _, err := m.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) appliedMigrations() (map[int]MigrationRecord, error) {
	rows, err := m.db.Queryx(`SELECT id, name, applied_at, checksum FROM migrations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]MigrationRecord)
	for rows.Next() {
		var record MigrationRecord
		if err := rows.StructScan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan migration record: %w", err)
		}
		applied[record.ID] = record
	}
	return applied, rows.Err()
}

func (m *Migrator) applyOne(migration Migration) error {
	logger.Info("📤 Применение миграции: %03d %s", migration.ID, migration.Name)

	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}

	query := `INSERT INTO migrations (id, name, checksum) VALUES ($1, $2, $3)`
	if _, err := tx.Exec(query, migration.ID, migration.Name, migration.Checksum); err != nil {
		return fmt.Errorf("failed to save migration record: %w", err)
	}

	return tx.Commit()
}

// loadMigrations читает и сортирует *.sql файлы директории
func loadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		id, title, err := parseMigrationFilename(name)
		if err != nil {
			return nil, err
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		sum := sha256.Sum256(content)
		migrations = append(migrations, Migration{
			ID:       id,
			Name:     title,
			SQL:      string(content),
			Checksum: hex.EncodeToString(sum[:]),
		})
	}
	return migrations, nil
}

func parseMigrationFilename(filename string) (int, string, error) {
	base := strings.TrimSuffix(filename, ".sql")

	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("invalid migration filename %s (expected 001_name.sql)", filename)
	}

	id, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid migration ID in filename %s", filename)
	}

	return id, strings.ReplaceAll(parts[1], "_", " "), nil
}
