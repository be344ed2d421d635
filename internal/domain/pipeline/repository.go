package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/ecdf-canonical/internal/domain/canonical"
)

// PgxPool is the subset of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ExtractionRepository persists canonical models and their gate objects.
// Concurrent re-extractions of the same document produce independent rows;
// readers must treat the latest row as authoritative.
type ExtractionRepository struct {
	db PgxPool
}

// NewExtractionRepository creates a repository over a pgx pool.
func NewExtractionRepository(db PgxPool) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

// Save inserts one extraction run keyed by the gate id.
func (r *ExtractionRepository) Save(ctx context.Context, documentID string, m *canonical.Model) error {
	modelJSON, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal canonical model: %w", err)
	}
	gatesJSON, err := json.Marshal(m.Gates)
	if err != nil {
		return fmt.Errorf("failed to marshal gates: %w", err)
	}

	query := `
		INSERT INTO extractions (id, document_id, readiness, dictionary_version, model, gates)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.Exec(ctx, query,
		m.Gates.ID,
		documentID,
		string(m.Gates.Readiness),
		m.Metadata.DictionaryVersion,
		modelJSON,
		gatesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert extraction: %w", err)
	}
	return nil
}

// Latest returns the most recent extraction for a document; pgx.ErrNoRows
// when the document was never processed.
func (r *ExtractionRepository) Latest(ctx context.Context, documentID string) (*canonical.Model, error) {
	query := `
		SELECT model
		FROM extractions
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var raw []byte
	if err := r.db.QueryRow(ctx, query, documentID).Scan(&raw); err != nil {
		return nil, err
	}

	var m canonical.Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal canonical model: %w", err)
	}
	return &m, nil
}
