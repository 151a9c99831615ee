package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gmailfeed/internal/domain"
)

const defaultHistoryLimit = 50

type PostgresJournal struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresJournal(pool *pgxpool.Pool, log *slog.Logger) *PostgresJournal {
	log.Info("Initializing Postgres fetch journal")
	return &PostgresJournal{
		pool: pool,
		log:  log,
	}
}

func (db *PostgresJournal) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// SaveOutcome
func (db *PostgresJournal) SaveOutcome(ctx context.Context, o domain.FetchOutcome) error {
	const op = "storage.postgres.SaveOutcome"
	query := `
	INSERT INTO fetch_journal (account, fetched_at, outcome, status_code, fullcount, entries, message)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := db.pool.Exec(ctx, query,
		o.Account,
		o.FetchedAt,
		o.Outcome,
		o.StatusCode,
		o.FullCount,
		o.Entries,
		o.Message,
	)
	if err != nil {
		db.log.Error("Failed to insert fetch outcome",
			slog.String("op", op),
			slog.Any("error", err),
		)
		return fmt.Errorf("%s: failed to insert: %w", op, err)
	}
	return nil
}

func (db *PostgresJournal) ListOutcomes(ctx context.Context, n int) ([]domain.FetchOutcome, error) {
	limit := n
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	const op = "storage.postgres.ListOutcomes"
	log := db.log.With(slog.String("op", op), slog.Int("limit", limit))
	query := `
	SELECT account, fetched_at, outcome, status_code, fullcount, entries, message
	FROM fetch_journal
	ORDER BY fetched_at DESC, id DESC
	LIMIT $1;
	`
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()
	outcomes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.FetchOutcome, error) {
		var o domain.FetchOutcome
		err := row.Scan(
			&o.Account,
			&o.FetchedAt,
			&o.Outcome,
			&o.StatusCode,
			&o.FullCount,
			&o.Entries,
			&o.Message,
		)
		return o, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	log.Debug("Retrieved fetch journal", slog.Int("count", len(outcomes)))
	return outcomes, nil
}
