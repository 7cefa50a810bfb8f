//go:build integration

package postgres

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bzamith/BR-FireRisk-Dashboard/internal/domain"
)

func TestStore_Postgres(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("firerisk"),
		tcpostgres.WithUsername("fire"),
		tcpostgres.WithPassword("risk"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := slog.Default()
	require.NoError(t, Migrate(url, logger))
	require.NoError(t, Migrate(url, logger), "second run is a no-op")

	store, err := Open(ctx, url, logger)
	require.NoError(t, err)
	defer store.Close()

	obs := domain.DailyObservation{Station: "A001", Date: "2023-08-01", Precipitation: domain.Some(0), Temperature: domain.Some(31), Humidity: domain.Some(22)}
	_, idx := domain.Step(domain.RiskState{}, obs)
	rec := domain.NewRiskRecord(obs, domain.StationInfo{Code: "A001", UF: "DF"}, idx, false)

	runID, err := store.StartRun(ctx, "export")
	require.NoError(t, err)

	n, err := store.UpsertRecords(ctx, []domain.RiskRecord{rec, rec})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := store.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same ID upserts a single row")

	require.NoError(t, store.FinishRun(ctx, runID, n, nil))
	run, err := store.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, run.Status)
	assert.Equal(t, 2, run.Records)
	assert.NotNil(t, run.FinishedAt)

	failedID, err := store.StartRun(ctx, "export")
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, failedID, 0, errors.New("disk full")))
	failed, err := store.GetRun(ctx, failedID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "disk full", failed.Error)
}
