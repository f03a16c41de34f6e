package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestIntegrationPostgresSource(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16",
		postgres.WithInitScripts(filepath.Join("testdata", "init-db.sql")),
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate pgContainer: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.PingContext(ctx))

	source := NewSource(db, WithTable("products"))

	t.Run("full export applies eligibility", func(t *testing.T) {
		records, err := source.Eligible(ctx, nil)
		require.NoError(t, err)

		// The inactive jacket and the draft coat are filtered out in SQL.
		require.Len(t, records, 3)

		boots := records[0]
		assert.Equal(t, `Boots, Winter "Classic"`, boots.Name)
		assert.Equal(t, "Women / Shoes / Boots", boots.Category)
		assert.InDelta(t, 129.90, boots.Price, 0.001)
		assert.Equal(t, "38(2), 39(1)", boots.Sizes.Format())
		assert.Len(t, boots.Images, 2)
		assert.Equal(t, ProvenanceCatalog, boots.Provenance)

		scarf := records[1]
		assert.Equal(t, ProvenanceImport, scarf.Provenance)
		assert.Equal(t, "one-size", scarf.Sizes.Format())

		dress := records[2]
		assert.Empty(t, dress.Description, "null description reads as empty")
		assert.Equal(t, "M, S", dress.Sizes.Format())
		assert.Empty(t, dress.Images)
	})

	t.Run("incremental window", func(t *testing.T) {
		cutoff := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
		records, err := source.Eligible(ctx, &cutoff)
		require.NoError(t, err)

		// Only the dress was created or updated at or after the cutoff.
		require.Len(t, records, 1)
		assert.Equal(t, "Summer Dress", records[0].Name)
	})

	t.Run("future cutoff yields no records", func(t *testing.T) {
		cutoff := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		records, err := source.Eligible(ctx, &cutoff)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
