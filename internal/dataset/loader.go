package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/reframelab/reframe/internal/taxonomy"
)

const deleteAllSQL = `DELETE FROM example_dataset;
	DELETE FROM reframing_dataset;
	DELETE FROM distortions;`

const insertDistortionSQL = `INSERT INTO distortions (distortion_id, trap_name, definition, example, tips)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (distortion_id) DO NOTHING`

const insertExampleSQL = `INSERT INTO example_dataset (id, thought, distortion, distortion_id, embedding)
	VALUES ($1, $2, $3, $4, $5)`

const insertReframeSQL = `INSERT INTO reframing_dataset (situation, thought, reframe, distortion_id, embedding)
	VALUES ($1, $2, NULLIF($3, ''), $4, $5)`

// Embedder converts text into a vector for the dataset's embedding
// columns.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Sources names the three CSV files of one load run.
type Sources struct {
	Definitions string
	Examples    string
	Reframes    string
}

// Stats reports what a completed load run inserted.
type Stats struct {
	Distortions int
	Examples    int
	Reframes    int
	// SkippedLabels lists distortion names dropped for lacking an id.
	SkippedLabels []string
}

// Loader replaces the dataset tables with the contents of the CSV
// sources.
type Loader struct {
	pool     *pgxpool.Pool
	embedder Embedder
	logger   *slog.Logger
}

// NewLoader creates a dataset Loader.
func NewLoader(pool *pgxpool.Pool, embedder Embedder, logger *slog.Logger) (*Loader, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{pool: pool, embedder: embedder, logger: logger}, nil
}

// Run reads the CSV sources, wipes the dataset tables, and inserts the
// parsed rows with freshly computed embeddings. Everything happens in a
// single transaction, so a failed run leaves the previous data intact.
// Running twice over the same sources yields identical row counts.
func (l *Loader) Run(ctx context.Context, src Sources) (Stats, error) {
	distortions, skipped, err := ReadDistortions(src.Definitions)
	if err != nil {
		return Stats{}, err
	}
	examples, err := ReadExamples(src.Examples)
	if err != nil {
		return Stats{}, err
	}
	reframes, err := ReadReframes(src.Reframes)
	if err != nil {
		return Stats{}, err
	}
	for _, name := range skipped {
		l.logger.Warn("skipping distortion without id", "trap_name", name)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			l.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	if _, err := tx.Exec(ctx, deleteAllSQL); err != nil {
		return Stats{}, fmt.Errorf("clearing dataset tables: %w", err)
	}

	stats := Stats{SkippedLabels: skipped}

	// The catch-all row keeps the distortion_id foreign keys satisfied
	// for unlabeled examples and reframes.
	if _, err := tx.Exec(ctx, insertDistortionSQL,
		taxonomy.UnknownID, taxonomy.UnknownName, nil, nil, nil); err != nil {
		return Stats{}, fmt.Errorf("inserting catch-all distortion: %w", err)
	}
	for _, d := range distortions {
		tag, err := tx.Exec(ctx, insertDistortionSQL,
			d.ID, d.TrapName, d.Definition, d.Example, d.Tips)
		if err != nil {
			return Stats{}, fmt.Errorf("inserting distortion %d (%s): %w", d.ID, d.TrapName, err)
		}
		// ON CONFLICT suppresses duplicate ids; only count real inserts.
		stats.Distortions += int(tag.RowsAffected())
	}

	for _, ex := range examples {
		vec, err := l.embedder.Embed(ctx, ex.Thought)
		if err != nil {
			return Stats{}, fmt.Errorf("embedding example %d: %w", ex.ID, err)
		}
		if _, err := tx.Exec(ctx, insertExampleSQL,
			ex.ID, ex.Thought, ex.Distortion, ex.DistortionID, pgvector.NewVector(vec)); err != nil {
			return Stats{}, fmt.Errorf("inserting example %d: %w", ex.ID, err)
		}
		stats.Examples++
	}

	for i, rf := range reframes {
		vec, err := l.embedder.Embed(ctx, embedText(rf))
		if err != nil {
			return Stats{}, fmt.Errorf("embedding reframe row %d: %w", i+1, err)
		}
		if _, err := tx.Exec(ctx, insertReframeSQL,
			nullable(rf.Situation), rf.Thought, rf.Reframe, rf.DistortionID, pgvector.NewVector(vec)); err != nil {
			return Stats{}, fmt.Errorf("inserting reframe row %d: %w", i+1, err)
		}
		stats.Reframes++
	}

	if err := tx.Commit(ctx); err != nil {
		return Stats{}, fmt.Errorf("committing load: %w", err)
	}

	l.logger.Info("dataset loaded",
		"distortions", stats.Distortions,
		"examples", stats.Examples,
		"reframes", stats.Reframes,
		"skipped_labels", len(stats.SkippedLabels))
	return stats, nil
}

// embedText is the text a reframe row is indexed under.
func embedText(rf ReframeRecord) string {
	if rf.Situation == "" {
		return rf.Thought
	}
	return strings.TrimSpace(rf.Situation + " " + rf.Thought)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
