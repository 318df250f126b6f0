package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/sports-bet-ledger/internal/ledger/oracle"
	"github.com/radieske/sports-bet-ledger/internal/odds-processor/cache"
	shareddb "github.com/radieske/sports-bet-ledger/internal/shared/db"
	"github.com/radieske/sports-bet-ledger/pkg/contracts/events"
)

// QuoteRepo persiste a última cotação de cada seleção na tabela odds_quotes
// DB: conexão com o banco de dados (Postgres ou SQLite)
type QuoteRepo struct {
	DB     *sql.DB
	driver string
}

// NewQuoteRepo retorna uma instância de repositório; driver é shareddb.DialectPostgres ou DialectSQLite
func NewQuoteRepo(db *sql.DB, driver string) *QuoteRepo {
	return &QuoteRepo{DB: db, driver: driver}
}

// Quote é a linha de odds_quotes.
type Quote struct {
	Key       string
	MatchID   string
	BetType   string
	Subject   string
	Threshold uint64
	Odds      string
	Version   int
	UpdatedAt int64 // unix nanos
}

// UpsertCurrent insere ou atualiza a cotação corrente da seleção.
// ON CONFLICT com guarda de versão: atualização atrasada (versão menor ou igual) não sobrescreve.
// Retorna false quando a linha não mudou.
func (r *QuoteRepo) UpsertCurrent(ctx context.Context, e events.OddsUpdate) (bool, error) {
	d, err := cache.ParseOdds(e)
	if err != nil {
		return false, err
	}
	q := shareddb.Rebind(r.driver, `
		INSERT INTO odds_quotes
		  (quote_key, match_id, bet_type, subject, threshold, odds, version, updated_at)
		VALUES
		  (?,?,?,?,?,?,?,?)
		ON CONFLICT (quote_key) DO UPDATE SET
		  odds       = EXCLUDED.odds,
		  version    = EXCLUDED.version,
		  updated_at = EXCLUDED.updated_at
		WHERE odds_quotes.version < EXCLUDED.version
	`)
	res, err := r.DB.ExecContext(ctx, q,
		oracle.QuoteKey(cache.QueryOf(e)), e.MatchID, e.BetType, e.Subject, int64(e.Threshold),
		d.String(), e.Version, e.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("upsert quote: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ByMatch lista as cotações de uma partida ordenadas pela chave.
func (r *QuoteRepo) ByMatch(ctx context.Context, matchID string) ([]Quote, error) {
	rows, err := r.DB.QueryContext(ctx, shareddb.Rebind(r.driver, `
		SELECT quote_key, match_id, bet_type, subject, threshold, odds, version, updated_at
		FROM odds_quotes WHERE match_id = ? ORDER BY quote_key`), matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		var q Quote
		var threshold int64
		if err := rows.Scan(&q.Key, &q.MatchID, &q.BetType, &q.Subject, &threshold, &q.Odds, &q.Version, &q.UpdatedAt); err != nil {
			return nil, err
		}
		q.Threshold = uint64(threshold)
		out = append(out, q)
	}
	return out, rows.Err()
}
