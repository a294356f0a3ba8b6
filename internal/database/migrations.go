package database

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"skiipper/internal/logger"
)

//go:embed migrations
var migrationFiles embed.FS

// RunMigrations applies the embedded migrations for the connection's dialect
// that have not been recorded yet.
func (db *DB) RunMigrations() error {
	if _, err := db.Exec(db.Dialect.CreateMigrationsTableQuery()); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	dir := path.Join("migrations", db.Dialect.MigrationsSubdir())
	files, err := fs.Glob(migrationFiles, path.Join(dir, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		filename := path.Base(file)

		hasRun, err := db.hasMigrationRun(filename)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}

		content, err := migrationFiles.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		err = db.WithTx(func(tx *Tx) error {
			for _, stmt := range splitStatements(string(content)) {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec("INSERT INTO migrations (filename) VALUES (?)", filename)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}

		logger.Info("Migration completed", "file", filename, "dialect", db.Dialect.MigrationsSubdir())
	}

	return nil
}

func (db *DB) hasMigrationRun(filename string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE filename = ?", filename).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// splitStatements breaks a migration into single statements. MySQL rejects
// multi-statement Exec without a DSN flag, so every dialect goes one at a time.
func splitStatements(content string) []string {
	var stmts []string
	for _, part := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			lines = append(lines, line)
		}
		stmt := strings.TrimSpace(strings.Join(lines, "\n"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
