package pipeline

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/canonical"
	"github.com/FACorreiaa/ecdf-canonical/internal/domain/gate"
)

func storedModel() *canonical.Model {
	return &canonical.Model{
		Metadata: canonical.Metadata{
			SchemaVersion:     canonical.SchemaVersion,
			DictionaryVersion: "pcn-2020.3",
			GeneratedAt:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		Gates: gate.Gates{
			ID:        uuid.New(),
			Readiness: gate.ReadyFull,
		},
	}
}

func TestExtractionRepository_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewExtractionRepository(mock)
	m := storedModel()

	mock.ExpectExec("INSERT INTO extractions").
		WithArgs(m.Gates.ID, "doc-1", "READY_FULL", "pcn-2020.3", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Save(context.Background(), "doc-1", m)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractionRepository_Latest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewExtractionRepository(mock)
	m := storedModel()
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT model").
		WithArgs("doc-1").
		WillReturnRows(pgxmock.NewRows([]string{"model"}).AddRow(raw))

	got, err := repo.Latest(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, m.Gates.ID, got.Gates.ID)
	assert.Equal(t, gate.ReadyFull, got.Gates.Readiness)
	assert.Equal(t, "pcn-2020.3", got.Metadata.DictionaryVersion)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExtractionRepository_LatestNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewExtractionRepository(mock)

	mock.ExpectQuery("SELECT model").
		WithArgs("doc-missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.Latest(context.Background(), "doc-missing")
	require.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
