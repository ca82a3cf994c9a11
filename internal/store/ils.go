package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"apshelper.com/job-helper/internal/model"
)

//go:embed seed/ils_reference.yaml
var ilsSeedYAML []byte

// Embedder turns text into a vector; nil means "store without embeddings".
type Embedder func(ctx context.Context, text string) ([]float32, error)

// LoadILSSeed parses the bundled ILS reference data.
func LoadILSSeed() ([]model.ILSReference, error) {
	var refs []model.ILSReference
	if err := yaml.Unmarshal(ilsSeedYAML, &refs); err != nil {
		return nil, fmt.Errorf("failed to parse ILS seed data: %w", err)
	}
	for i, r := range refs {
		if r.CapabilityName == "" || r.Behaviour == "" || !model.ValidAPSLevel(r.APSLevel) {
			return nil, fmt.Errorf("ILS seed record %d is incomplete: %+v", i, r)
		}
	}
	return refs, nil
}

func (s *SQLiteStore) CountILSReferences(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ils_reference").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count ILS reference rows: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) CreateILSReference(ctx context.Context, ref *model.ILSReference) error {
	ref.ID = uuid.NewString()
	embeddingJSON, err := encodeEmbedding(ref.Embedding)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO ils_reference (id, capability_name, aps_level, behaviour, description, embedding_json) VALUES (?, ?, ?, ?, ?, ?)",
		ref.ID, ref.CapabilityName, ref.APSLevel, ref.Behaviour, ref.Description, embeddingJSON)
	if err != nil {
		return fmt.Errorf("failed to insert ILS reference: %w", err)
	}
	return nil
}

// ListILSReferences returns reference rows for a level, or all rows when
// level is empty. Rows whose stored embedding cannot be decoded are returned
// without one.
func (s *SQLiteStore) ListILSReferences(ctx context.Context, level string) ([]model.ILSReference, error) {
	query := "SELECT id, capability_name, aps_level, behaviour, description, COALESCE(embedding_json, '') FROM ils_reference"
	args := []any{}
	if level != "" {
		query += " WHERE aps_level = ?"
		args = append(args, level)
	}
	query += " ORDER BY capability_name, rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ILS reference: %w", err)
	}
	defer rows.Close()

	refs := []model.ILSReference{}
	for rows.Next() {
		var ref model.ILSReference
		var embeddingJSON string
		if err := rows.Scan(&ref.ID, &ref.CapabilityName, &ref.APSLevel, &ref.Behaviour, &ref.Description, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan ILS reference row: %w", err)
		}
		if embeddingJSON != "" {
			if err := json.Unmarshal([]byte(embeddingJSON), &ref.Embedding); err != nil {
				s.logger.Warn("Unreadable ILS embedding, treating as absent",
					zap.String("id", ref.ID), zap.String("behaviour", ref.Behaviour), zap.Error(err))
				ref.Embedding = nil
			}
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// SeedILSReference inserts the bundled ILS data once; an already populated
// table is left alone. Each record is embedded when embed is non-nil; a
// failed embedding is logged and the record stored without one.
func (s *SQLiteStore) SeedILSReference(ctx context.Context, embed Embedder) (int, error) {
	count, err := s.CountILSReferences(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("ILS reference data already present, skipping seed", zap.Int("rows", count))
		return 0, nil
	}

	refs, err := LoadILSSeed()
	if err != nil {
		return 0, err
	}

	inserted := 0
	for i := range refs {
		ref := refs[i]
		if embed != nil {
			if err := ctx.Err(); err != nil {
				return inserted, fmt.Errorf("seeding interrupted: %w", err)
			}
			vec, err := embed(ctx, ref.Behaviour+": "+ref.Description)
			if err != nil {
				s.logger.Warn("Failed to embed ILS behaviour, storing without embedding",
					zap.Int("record", i+1), zap.String("behaviour", ref.Behaviour), zap.Error(err))
			} else {
				ref.Embedding = vec
			}
		}
		if err := s.CreateILSReference(ctx, &ref); err != nil {
			return inserted, err
		}
		inserted++
	}
	s.logger.Info("Seeded ILS reference data", zap.Int("rows", inserted))
	return inserted, nil
}
