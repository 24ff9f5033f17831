// Package retrieval finds the labeled example thoughts closest to a
// user's thought and assembles the generation prompt around them.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Fallback text substituted for candidates whose distortion metadata is
// missing, so the prompt never carries NULL-derived holes.
const (
	unknownTrapName   = "UnknownDistortion"
	missingDefinition = "Definition not available."
	missingTips       = "No tips available."
	missingSituation  = "(no situation provided)"
)

const findNearestSQL = `SELECT
		e.thought,
		e.distortion_id,
		d.trap_name,
		d.definition,
		d.tips,
		e.embedding <-> $1 AS distance
	FROM example_dataset AS e
	LEFT JOIN distortions AS d
	  ON e.distortion_id = d.distortion_id
	ORDER BY distance
	LIMIT $2`

const findReframesSQL = `SELECT situation, thought, reframe
	FROM reframing_dataset
	WHERE distortion_id = $1
	  AND reframe IS NOT NULL
	LIMIT $2`

// Candidate is a retrieved example thought with its distortion metadata.
type Candidate struct {
	ExampleThought string
	DistortionID   int
	TrapName       string
	Definition     string
	Tips           string
	Distance       float64
}

// ReframeExample is one situation/thought/reframe triple from the
// reframing dataset.
type ReframeExample struct {
	Situation string
	Thought   string
	Reframe   string
}

// Store reads the example and reframing datasets.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a retrieval Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// FindNearest returns up to k example thoughts ordered by L2 distance
// from vec. An empty example table yields an empty slice and no error.
func (s *Store) FindNearest(ctx context.Context, vec []float32, k int) ([]Candidate, error) {
	rows, err := s.pool.Query(ctx, findNearestSQL, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("querying nearest examples: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var (
			c            Candidate
			distortionID *int
			trapName     *string
			definition   *string
			tips         *string
		)
		if err := rows.Scan(&c.ExampleThought, &distortionID, &trapName, &definition, &tips, &c.Distance); err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		if distortionID != nil {
			c.DistortionID = *distortionID
		}
		c.TrapName = orDefault(trapName, unknownTrapName)
		c.Definition = orDefault(definition, missingDefinition)
		c.Tips = orDefault(tips, missingTips)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return candidates, nil
}

// FindReframeExamples returns up to limit reframing triples for a
// distortion. Rows without a reframe text are excluded.
func (s *Store) FindReframeExamples(ctx context.Context, distortionID, limit int) ([]ReframeExample, error) {
	rows, err := s.pool.Query(ctx, findReframesSQL, distortionID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reframe examples: %w", err)
	}
	defer rows.Close()

	var examples []ReframeExample
	for rows.Next() {
		var (
			ex        ReframeExample
			situation *string
		)
		if err := rows.Scan(&situation, &ex.Thought, &ex.Reframe); err != nil {
			return nil, fmt.Errorf("scanning reframe example: %w", err)
		}
		ex.Situation = orDefault(situation, missingSituation)
		examples = append(examples, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reframe examples: %w", err)
	}
	return examples, nil
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
