// Package postgres persists the dashboard dataset and a log of pipeline
// runs in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers the postgres:// migration driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers the postgres database/sql driver

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

const upsertRecordSQL = `
INSERT INTO risk_records (
	id, codigo_estacao, data, precipitacao_total, pressao_atmosferica,
	temperatura_ar, umidade_relativa, velocidade_vento, latitude, longitude,
	bioma, regiao, uf, estacao, altitude, temperatura_ponto_orvalho,
	dias_sem_chuva, angstrom_index, angstrom_risk, telicyn_index, telicyn_risk,
	nesterov_index, nesterov_risk, foco_incendio, distancia_estacao_mais_proxima,
	latitude_foco_incendio, longitude_foco_incendio, is_prediction, processed_at
) VALUES (
	:id, :codigo_estacao, :data, :precipitacao_total, :pressao_atmosferica,
	:temperatura_ar, :umidade_relativa, :velocidade_vento, :latitude, :longitude,
	:bioma, :regiao, :uf, :estacao, :altitude, :temperatura_ponto_orvalho,
	:dias_sem_chuva, :angstrom_index, :angstrom_risk, :telicyn_index, :telicyn_risk,
	:nesterov_index, :nesterov_risk, :foco_incendio, :distancia_estacao_mais_proxima,
	:latitude_foco_incendio, :longitude_foco_incendio, :is_prediction, :processed_at
)
ON CONFLICT (id) DO UPDATE SET
	precipitacao_total = EXCLUDED.precipitacao_total,
	pressao_atmosferica = EXCLUDED.pressao_atmosferica,
	temperatura_ar = EXCLUDED.temperatura_ar,
	umidade_relativa = EXCLUDED.umidade_relativa,
	velocidade_vento = EXCLUDED.velocidade_vento,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	bioma = EXCLUDED.bioma,
	regiao = EXCLUDED.regiao,
	uf = EXCLUDED.uf,
	estacao = EXCLUDED.estacao,
	altitude = EXCLUDED.altitude,
	temperatura_ponto_orvalho = EXCLUDED.temperatura_ponto_orvalho,
	dias_sem_chuva = EXCLUDED.dias_sem_chuva,
	angstrom_index = EXCLUDED.angstrom_index,
	angstrom_risk = EXCLUDED.angstrom_risk,
	telicyn_index = EXCLUDED.telicyn_index,
	telicyn_risk = EXCLUDED.telicyn_risk,
	nesterov_index = EXCLUDED.nesterov_index,
	nesterov_risk = EXCLUDED.nesterov_risk,
	distancia_estacao_mais_proxima = EXCLUDED.distancia_estacao_mais_proxima,
	processed_at = EXCLUDED.processed_at`

// batchSize bounds how many rows are written per transaction.
const batchSize = 500

// Store writes risk records and run bookkeeping.
type Store struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema migrations. An up-to-date schema is
// not an error.
func Migrate(databaseURL string, logger *slog.Logger) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("database schema up to date")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, _, _ := m.Version()
	logger.Info("database migrations applied", "version", version)
	return nil
}

// UpsertRecords inserts records or refreshes rows with the same ID.
func (s *Store) UpsertRecords(ctx context.Context, records []domain.RiskRecord) (int, error) {
	written := 0
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		if err := s.upsertBatch(ctx, records[start:end]); err != nil {
			return written, err
		}
		written += end - start
		s.logger.Debug("risk records upserted", "written", written, "total", len(records))
	}
	return written, nil
}

func (s *Store) upsertBatch(ctx context.Context, records []domain.RiskRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareNamedContext(ctx, upsertRecordSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, toRow(r)); err != nil {
			return fmt.Errorf("upsert %s: %w", r.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// CountRecords returns the number of stored records.
func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM risk_records`); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// Run is one row of pipeline_runs.
type Run struct {
	ID         uuid.UUID  `db:"id"`
	Stage      string     `db:"stage"`
	Status     string     `db:"status"`
	Records    int        `db:"records"`
	Error      string     `db:"error"`
	StartedAt  time.Time  `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
}

// StartRun records the start of a batch stage and returns its ID.
func (s *Store) StartRun(ctx context.Context, stage string) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pipeline_runs (id, stage, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, stage, StatusRunning, time.Now().UTC())
	if err != nil {
		return uuid.Nil, fmt.Errorf("start run: %w", err)
	}
	return id, nil
}

// FinishRun closes a run. runErr marks it failed.
func (s *Store) FinishRun(ctx context.Context, id uuid.UUID, records int, runErr error) error {
	status, msg := StatusSucceeded, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = $2, records = $3, error = $4, finished_at = $5 WHERE id = $1`,
		id, status, records, msg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// GetRun loads a run by ID.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	var r Run
	if err := s.db.GetContext(ctx, &r, `SELECT * FROM pipeline_runs WHERE id = $1`, id); err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}
