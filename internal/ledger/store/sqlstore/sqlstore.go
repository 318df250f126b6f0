// Package sqlstore implementa store.Store sobre database/sql (Postgres ou SQLite).
// O schema vem das migrations de internal/shared/db.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/radieske/sports-bet-ledger/internal/ledger/address"
	"github.com/radieske/sports-bet-ledger/internal/ledger/domain"
	"github.com/radieske/sports-bet-ledger/internal/ledger/store"
	shareddb "github.com/radieske/sports-bet-ledger/internal/shared/db"
)

// dialect isola as diferenças de SQL entre os backends.
type dialect struct {
	dollarParams bool   // postgres usa $1..$n
	lockSuffix   string // lock pessimista na leitura dentro da transação
}

var (
	postgresDialect = dialect{dollarParams: true, lockSuffix: " FOR UPDATE"}
	// SQLite trava o banco inteiro na escrita; com uma conexão só as transações já são seriais.
	// Por isso nada pode consultar s.db enquanto uma Tx está aberta.
	sqliteDialect = dialect{}
)

func (d dialect) rebind(q string) string {
	if !d.dollarParams {
		return q
	}
	return shareddb.Rebind(shareddb.DialectPostgres, q)
}

// Store implementa store.Store usando a tabela ledger_records.
type Store struct {
	db *sql.DB
	d  dialect
}

// New embrulha uma conexão aberta. driver é shareddb.DialectPostgres ou shareddb.DialectSQLite.
func New(db *sql.DB, driver string) (*Store, error) {
	switch driver {
	case shareddb.DialectPostgres:
		return &Store{db: db, d: postgresDialect}, nil
	case shareddb.DialectSQLite:
		return &Store{db: db, d: sqliteDialect}, nil
	}
	return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: begin: %w", err)
	}
	return &sqlTx{tx: tx, d: s.d}, nil
}

func (s *Store) List(ctx context.Context, kind domain.Kind) ([]store.Entry, error) {
	q := s.d.rebind(`SELECT record_key, kind, delegation, body, updated_at
		FROM ledger_records WHERE kind = ? ORDER BY record_key`)
	rows, err := s.db.QueryContext(ctx, q, string(kind))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]store.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

type sqlTx struct {
	tx *sql.Tx
	d  dialect
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (store.Entry, error) {
	var (
		e          store.Entry
		key, kind  string
		delegation string
		body       string
		updatedAt  int64
	)
	if err := sc.Scan(&key, &kind, &delegation, &body, &updatedAt); err != nil {
		return store.Entry{}, err
	}
	e.Key = address.Key(key)
	e.Kind = domain.Kind(kind)
	e.Body = []byte(body)
	e.UpdatedAt = time.Unix(0, updatedAt).UTC()
	if err := json.Unmarshal([]byte(delegation), &e.Delegation); err != nil {
		return store.Entry{}, fmt.Errorf("sqlstore: decode delegation of %s: %w", key, err)
	}
	return e, nil
}

func (t *sqlTx) Load(ctx context.Context, key address.Key) (store.Entry, error) {
	q := t.d.rebind(`SELECT record_key, kind, delegation, body, updated_at
		FROM ledger_records WHERE record_key = ?` + t.d.lockSuffix)
	e, err := scanEntry(t.tx.QueryRowContext(ctx, q, string(key)))
	if errors.Is(err, sql.ErrNoRows) {
		return store.Entry{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return store.Entry{}, fmt.Errorf("sqlstore: load %s: %w", key, err)
	}
	return e, nil
}

// Save aplica store.CheckWrite contra a linha atual (travada) e grava.
func (t *sqlTx) Save(ctx context.Context, e store.Entry) error {
	var prev *store.Entry
	p, err := t.Load(ctx, e.Key)
	switch {
	case err == nil:
		prev = &p
	case !errors.Is(err, domain.ErrAccountNotFound):
		return err
	}
	if err := store.CheckWrite(prev, e); err != nil {
		return err
	}

	delegation, err := json.Marshal(e.Delegation)
	if err != nil {
		return fmt.Errorf("sqlstore: encode delegation of %s: %w", e.Key, err)
	}
	updatedAt := e.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	args := []any{
		string(e.Kind), e.Delegation.IsDelegated(), int64(e.Delegation.Epoch),
		string(delegation), string(e.Body), updatedAt.UnixNano(), string(e.Key),
	}
	// criação concorrente da mesma chave falha na PK em vez de sobrescrever
	q := `INSERT INTO ledger_records
		  (kind, delegated, epoch, delegation, body, updated_at, record_key)
		VALUES (?,?,?,?,?,?,?)`
	if prev != nil {
		q = `UPDATE ledger_records SET
		  kind = ?, delegated = ?, epoch = ?, delegation = ?, body = ?, updated_at = ?
		WHERE record_key = ?`
	}
	if _, err := t.tx.ExecContext(ctx, t.d.rebind(q), args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s was created by another transaction", domain.ErrWriteConflict, e.Key)
		}
		return fmt.Errorf("sqlstore: save %s: %w", e.Key, err)
	}
	return nil
}

// isUniqueViolation detecta o 23505 do Postgres. No SQLite a conexão única serializa as
// transações e o INSERT nunca corre contra outro.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (t *sqlTx) Commit() error { return t.tx.Commit() }

// Rollback ignora sql.ErrTxDone para permitir defer tx.Rollback() após Commit.
func (t *sqlTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
