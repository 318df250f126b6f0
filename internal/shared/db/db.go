package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Dialetos suportados pelo store SQL do ledger.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

func ConnectPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

// OpenSQLite abre (ou cria) o arquivo SQLite; path ":memory:" é usado nos testes.
// SQLite é single-writer, então o pool fica em uma conexão.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	return db, nil
}

// Open conecta no backend indicado por driver ("postgres" ou "sqlite").
func Open(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DialectPostgres:
		return ConnectPostgres(dsn)
	case DialectSQLite:
		return OpenSQLite(dsn)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// Rebind converte os placeholders "?" para "$n" no Postgres. SQLite aceita "?" como está.
func Rebind(driver, q string) string {
	if driver != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate aplica as migrations embutidas (goose) no banco.
func Migrate(ctx context.Context, db *sql.DB, driver string, log *zap.Logger) error {
	goose.SetBaseFS(migrations)
	if log != nil {
		goose.SetLogger(zap.NewStdLog(log))
	}

	dialect := "postgres"
	if driver == DialectSQLite {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
