package migrations

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/hotelops/roster/internal/shared/infrastructure/database"
)

//go:embed sql/*.up.sql
var schemaFS embed.FS

// Run executes all schema migrations in order. Every statement is written
// with IF NOT EXISTS so reruns are idempotent, and the DDL is kept portable
// across PostgreSQL and SQLite.
func Run(ctx context.Context, conn database.Connection) error {
	entries, err := schemaFS.ReadDir("sql")
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		migration, err := schemaFS.ReadFile("sql/" + file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		for _, statement := range splitStatements(string(migration)) {
			if _, err := conn.Exec(ctx, statement); err != nil {
				return fmt.Errorf("execute migration %s: %w", file, err)
			}
		}
	}
	return nil
}

// splitStatements breaks a migration file into single statements so both
// drivers accept it. None of our DDL embeds semicolons in literals.
func splitStatements(migration string) []string {
	var statements []string
	for _, chunk := range strings.Split(migration, ";") {
		statement := strings.TrimSpace(chunk)
		if statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}
