// Package migrations ships the schema behind the SQL replay ledger. The same
// statements back sqlstore.ReplayLedgerStore.EnsureSchema and go-persistence-bun
// migration runs, so both paths create an identical table.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"
	simplyq "github.com/simplyqio/simplyq-go"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const (
	migrationsDir    = "data/sql/migrations"
	replayClaimsUp   = "00001_webhook_replay_claims.up.sql"
	replayClaimsDown = "00001_webhook_replay_claims.down.sql"
	statementSplit   = "--bun:split"
)

// DialectForDriver maps a database/sql driver or bun dialect name to its
// migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// ReplayClaims returns the webhook_replay_claims migration directory for
// dialect, ready for a go-persistence-bun client.
func ReplayClaims(dialect string) (fs.FS, error) {
	return replayClaimsFS(simplyq.GetMigrationsFS(), dialect)
}

func replayClaimsFS(root fs.FS, dialect string) (fs.FS, error) {
	resolved, err := DialectForDriver(dialect)
	if err != nil {
		return nil, err
	}
	dir := migrationsDir
	if resolved == DialectSQLite {
		dir += "/sqlite"
	}
	sub, err := fs.Sub(root, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve %s: %w", dir, err)
	}
	for _, name := range []string{replayClaimsUp, replayClaimsDown} {
		if _, err := fs.Stat(sub, name); err != nil {
			return nil, fmt.Errorf("migrations: %s replay claims migration %s: %w", resolved, name, err)
		}
	}
	return sub, nil
}

// UpStatements returns the statements creating the replay claims table and
// its expiry index, in order. Each is safe to run against an existing schema.
func UpStatements(dialect string) ([]string, error) {
	return statements(simplyq.GetMigrationsFS(), dialect, replayClaimsUp)
}

// DownStatements returns the statements dropping the replay claims schema.
func DownStatements(dialect string) ([]string, error) {
	return statements(simplyq.GetMigrationsFS(), dialect, replayClaimsDown)
}

func statements(root fs.FS, dialect string, name string) ([]string, error) {
	fsys, err := replayClaimsFS(root, dialect)
	if err != nil {
		return nil, err
	}
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("migrations: read %s: %w", name, err)
	}
	parts := strings.Split(string(content), statementSplit)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("migrations: %s has no statements", name)
	}
	return out, nil
}

// Apply registers the replay claims migrations for dialect on client and runs
// every pending migration.
func Apply(ctx context.Context, client *persistence.Client, dialect string) error {
	if client == nil {
		return fmt.Errorf("migrations: persistence client is required")
	}
	fsys, err := ReplayClaims(dialect)
	if err != nil {
		return err
	}
	client.RegisterSQLMigrations(fsys)
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: migrate replay claims: %w", err)
	}
	return nil
}
