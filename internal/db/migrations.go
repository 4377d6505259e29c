package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"slices"
	"strconv"
	"strings"

	embeddedmigrations "github.com/terraincognita07/cyclecal/migrations"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	migrationFilePattern      = regexp.MustCompile(`^(\d+)_[\w-]+\.sql$`)
	addColumnStatementPattern = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+(\S+)\s+ADD\s+COLUMN\s+(\S+)`)
)

// ErrMigrationChanged means an applied migration file was edited after it
// ran. Schema changes go into a new numbered file instead.
var ErrMigrationChanged = errors.New("applied migration was modified")

type migration struct {
	version    int
	name       string
	checksum   string
	statements []string
}

type migrationRecord struct {
	Version  int    `gorm:"column:version"`
	Name     string `gorm:"column:name"`
	Checksum string `gorm:"column:checksum"`
}

type migrator struct {
	database *gorm.DB
	files    fs.FS
	logger   *zap.Logger
}

func newMigrator(database *gorm.DB, logger *zap.Logger) *migrator {
	return &migrator{database: database, files: embeddedmigrations.Files, logger: logger}
}

// run applies pending migrations in version order, each in its own
// transaction, and returns the names it applied.
func (m *migrator) run(ctx context.Context) ([]string, error) {
	database := m.database.WithContext(ctx)
	if err := database.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  checksum TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`).Error; err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	pending, err := parseMigrations(m.files)
	if err != nil {
		return nil, err
	}

	records := []migrationRecord{}
	if err := database.Raw(`SELECT version, name, checksum FROM schema_migrations`).Scan(&records).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}
	applied := make(map[int]migrationRecord, len(records))
	for _, record := range records {
		applied[record.Version] = record
	}

	names := []string{}
	for _, next := range pending {
		if record, ok := applied[next.version]; ok {
			if record.Checksum != next.checksum {
				return names, fmt.Errorf("%w: %s", ErrMigrationChanged, next.name)
			}
			continue
		}
		if err := m.apply(database, next); err != nil {
			return names, err
		}
		m.logger.Info("migration applied", zap.String("migration", next.name))
		names = append(names, next.name)
	}
	return names, nil
}

func (m *migrator) apply(database *gorm.DB, next migration) error {
	return database.Transaction(func(tx *gorm.DB) error {
		for _, statement := range next.statements {
			if exists, err := addedColumnExists(tx, statement); err != nil {
				return fmt.Errorf("inspect migration %s: %w", next.name, err)
			} else if exists {
				continue
			}
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("execute migration %s statement %q: %w", next.name, statement, err)
			}
		}
		return tx.Exec(
			`INSERT INTO schema_migrations(version, name, checksum) VALUES (?, ?, ?)`,
			next.version, next.name, next.checksum,
		).Error
	})
}

// parseMigrations reads NNN_name.sql files from files. Other files are
// ignored; two files with the same number are an error.
func parseMigrations(files fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	migrations := make([]migration, 0, len(entries))
	byVersion := map[int]string{}
	for _, entry := range entries {
		matches := migrationFilePattern.FindStringSubmatch(entry.Name())
		if entry.IsDir() || matches == nil {
			continue
		}
		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("parse migration version of %s: %w", entry.Name(), err)
		}
		if other, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("migrations %s and %s share version %d", other, entry.Name(), version)
		}
		byVersion[version] = entry.Name()

		body, err := fs.ReadFile(files, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		statements := splitSQLStatements(string(body))
		if len(statements) == 0 {
			return nil, fmt.Errorf("migration %s has no statements", entry.Name())
		}
		sum := sha256.Sum256(body)
		migrations = append(migrations, migration{
			version:    version,
			name:       entry.Name(),
			checksum:   hex.EncodeToString(sum[:]),
			statements: statements,
		})
	}

	slices.SortFunc(migrations, func(a, b migration) int {
		return a.version - b.version
	})
	return migrations, nil
}

func splitSQLStatements(sqlText string) []string {
	statements := []string{}
	for _, part := range strings.Split(sqlText, ";") {
		if statement := strings.TrimSpace(part); statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}

// addedColumnExists reports whether statement is an ADD COLUMN for a
// column the table already has, so re-running it would fail on SQLite.
func addedColumnExists(database *gorm.DB, statement string) (bool, error) {
	matches := addColumnStatementPattern.FindStringSubmatch(strings.TrimSpace(statement))
	if matches == nil {
		return false, nil
	}
	table := unquoteIdentifier(matches[1])
	column := unquoteIdentifier(matches[2])

	columns := []struct {
		Name string `gorm:"column:name"`
	}{}
	query := fmt.Sprintf(`PRAGMA table_info("%s")`, strings.ReplaceAll(table, `"`, `""`))
	if err := database.Raw(query).Scan(&columns).Error; err != nil {
		return false, fmt.Errorf("load table_info for %s: %w", table, err)
	}
	for _, existing := range columns {
		if strings.EqualFold(existing.Name, column) {
			return true, nil
		}
	}
	return false, nil
}

func unquoteIdentifier(identifier string) string {
	return strings.Trim(strings.TrimSpace(identifier), "\"`[]")
}
