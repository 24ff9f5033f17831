package retrieval_test

import (
	"context"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reframelab/reframe/internal/log"
	"github.com/reframelab/reframe/internal/retrieval"
	"github.com/reframelab/reframe/internal/testutil"
)

func axisVector(axis int, value float32) []float32 {
	vec := make([]float32, 384)
	vec[axis] = value
	return vec
}

func TestStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	pool := testDB.Pool

	_, err := pool.Exec(ctx, `INSERT INTO distortions (distortion_id, trap_name, definition, example, tips) VALUES
		(0, 'UnknownDistortion', NULL, NULL, NULL),
		(1, 'All-or-Nothing Thinking', 'Black and white view.', 'ex', 'Find middle ground.'),
		(10, 'Catastrophizing', 'Expecting the worst.', 'ex', 'Weigh likelihoods.')`)
	require.NoError(t, err)

	// Distances from the zero query vector grow with the row number.
	_, err = pool.Exec(ctx, `INSERT INTO example_dataset (id, thought, distortion, distortion_id, embedding) VALUES
		($1, 'closest thought', 'All-or-Nothing Thinking', 1, $2),
		($3, 'middle thought', 'Catastrophizing', 10, $4),
		($5, 'farthest thought', NULL, NULL, $6)`,
		1, pgvector.NewVector(axisVector(0, 0.1)),
		2, pgvector.NewVector(axisVector(1, 0.5)),
		3, pgvector.NewVector(axisVector(2, 0.9)))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO reframing_dataset (situation, thought, reframe, distortion_id, embedding) VALUES
		('Lost a match', 'I am worthless', 'One loss is not everything', 1, $1),
		(NULL, 'I always lose', 'Sometimes I win too', 1, $2),
		('Extra row', 'Skipped by limit', 'Third triple', 1, $3),
		('No reframe yet', 'Pending row', NULL, 1, $4)`,
		pgvector.NewVector(axisVector(3, 0.1)),
		pgvector.NewVector(axisVector(3, 0.2)),
		pgvector.NewVector(axisVector(3, 0.3)),
		pgvector.NewVector(axisVector(3, 0.4)))
	require.NoError(t, err)

	store, err := retrieval.NewStore(pool, log.NewNop())
	require.NoError(t, err)

	t.Run("ordering and limit", func(t *testing.T) {
		candidates, err := store.FindNearest(ctx, make([]float32, 384), 2)
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, "closest thought", candidates[0].ExampleThought)
		assert.Equal(t, 1, candidates[0].DistortionID)
		assert.Equal(t, "All-or-Nothing Thinking", candidates[0].TrapName)
		assert.Equal(t, "middle thought", candidates[1].ExampleThought)
		assert.Less(t, candidates[0].Distance, candidates[1].Distance)
	})

	t.Run("null metadata fallbacks", func(t *testing.T) {
		candidates, err := store.FindNearest(ctx, make([]float32, 384), 10)
		require.NoError(t, err)
		require.Len(t, candidates, 3)
		unlabeled := candidates[2]
		assert.Equal(t, "farthest thought", unlabeled.ExampleThought)
		assert.Equal(t, 0, unlabeled.DistortionID)
		assert.Equal(t, "UnknownDistortion", unlabeled.TrapName)
		assert.Equal(t, "Definition not available.", unlabeled.Definition)
		assert.Equal(t, "No tips available.", unlabeled.Tips)
	})

	t.Run("reframe examples respect limit and skip null reframes", func(t *testing.T) {
		examples, err := store.FindReframeExamples(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, examples, 2)
		assert.Equal(t, "Lost a match", examples[0].Situation)
		assert.Equal(t, "(no situation provided)", examples[1].Situation)
		for _, ex := range examples {
			assert.NotEmpty(t, ex.Reframe)
		}
	})

	t.Run("reframe examples for unknown distortion", func(t *testing.T) {
		examples, err := store.FindReframeExamples(ctx, 99, 2)
		require.NoError(t, err)
		assert.Empty(t, examples)
	})

	t.Run("empty table yields empty slice", func(t *testing.T) {
		_, err := pool.Exec(ctx, `DELETE FROM example_dataset`)
		require.NoError(t, err)

		candidates, err := store.FindNearest(ctx, make([]float32, 384), 3)
		require.NoError(t, err)
		assert.Empty(t, candidates)
	})
}
