//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/tug/internal/domain"
)

func newTestPool(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("tug"),
		postgrescontainer.WithUsername("tug"),
		postgrescontainer.WithPassword("tug"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func testRecord(ownerID string) domain.ActivityRecord {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Normalize(domain.ActivityRecord{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		ValueRefs:     []string{"health"},
		Title:         "Running",
		DurationMin:   30,
		OccurredOn:    now,
		SchemaVersion: domain.CurrentSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func TestRepositoryCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t, ctx)
	repo := NewActivityRepository(pool)

	record := testRecord(uuid.NewString())
	require.NoError(t, repo.Create(ctx, record, "key-1"))

	stored, err := repo.Get(ctx, record.OwnerID, record.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, record.ID, stored.ID)
	require.Equal(t, []string{"health"}, stored.ValueRefs)
	require.Equal(t, "health", stored.LegacyValueRef)

	replay, err := repo.FindByIdempotency(ctx, record.OwnerID, "key-1")
	require.NoError(t, err)
	require.NotNil(t, replay)
	require.Equal(t, record.ID, replay.ID)

	// Exactly one outbox row for the create.
	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type='activity.logged'`,
		record.ID).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)
}

func TestRepositoryPromotesLegacyRows(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t, ctx)
	repo := NewActivityRepository(pool)

	ownerID := uuid.NewString()
	activityID := uuid.NewString()
	now := time.Now().UTC()

	// Simulate a row written before multi-value support: value_refs empty,
	// only the single-value column populated.
	_, err := pool.Exec(ctx, `INSERT INTO activities
        (activity_id, owner_id, title, value_refs, legacy_value_ref, duration_min, occurred_on, notes, is_public, notes_public, schema_version, created_at, updated_at)
        VALUES ($1,$2,'Journaling','{}','calm',15,$3,'',true,false,1,$3,$3)`,
		activityID, ownerID, now)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, ownerID, activityID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, []string{"calm"}, stored.ValueRefs)
	require.Equal(t, "calm", stored.PrimaryValue())
}

func TestRepositoryOwnerScoping(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t, ctx)
	repo := NewActivityRepository(pool)

	record := testRecord(uuid.NewString())
	require.NoError(t, repo.Create(ctx, record, ""))

	other, err := repo.Get(ctx, uuid.NewString(), record.ID)
	require.NoError(t, err)
	require.Nil(t, other)

	found, err := repo.Delete(ctx, uuid.NewString(), record.ID)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRepositorySumDurationWindow(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t, ctx)
	repo := NewActivityRepository(pool)

	ownerID := uuid.NewString()
	day := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)

	seed := func(at time.Time, title string, minutes int) {
		record := testRecord(ownerID)
		record.ID = uuid.NewString()
		record.Title = title
		record.DurationMin = minutes
		record.OccurredOn = at
		require.NoError(t, repo.Create(ctx, record, ""))
	}

	seed(day, "Running", 10)
	seed(day.Add(23*time.Hour+59*time.Minute), "Running", 20)
	seed(day.AddDate(0, 0, 1), "Running", 30) // next midnight, excluded
	seed(day.Add(12*time.Hour), "Cycling", 40)

	total, err := repo.SumDurationInWindow(ctx, ownerID, "Running", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 30, total)
}

func TestRepositoryDeleteEmitsEvent(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t, ctx)
	repo := NewActivityRepository(pool)

	record := testRecord(uuid.NewString())
	require.NoError(t, repo.Create(ctx, record, ""))

	found, err := repo.Delete(ctx, record.OwnerID, record.ID)
	require.NoError(t, err)
	require.True(t, found)

	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id=$1 AND event_type='activity.deleted'`,
		record.ID).Scan(&outboxCount))
	require.Equal(t, 1, outboxCount)
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	files := []string{
		"../../../db/postgres/migrations/0001_init.up.sql",
	}

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	for _, rel := range files {
		path := resolvePath(t, rel)
		contents, readErr := os.ReadFile(path)
		require.NoError(t, readErr)

		_, execErr := pool.Exec(ctx, string(contents))
		require.NoError(t, execErr)
	}
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
