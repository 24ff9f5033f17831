package chat_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reframelab/reframe/internal/chat"
	"github.com/reframelab/reframe/internal/chatlog"
	"github.com/reframelab/reframe/internal/log"
	"github.com/reframelab/reframe/internal/ollama"
	"github.com/reframelab/reframe/internal/retrieval"
	"github.com/reframelab/reframe/internal/testutil"
)

// TestAnalyzePipelineIntegration wires the real retrieval engine, the
// Ollama client against a fake server, and the chatlog store together.
func TestAnalyzePipelineIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	pool := testDB.Pool
	logger := log.NewNop()

	_, err := pool.Exec(ctx, `INSERT INTO distortions (distortion_id, trap_name, definition, example, tips) VALUES
		(2, 'Overgeneralizing', 'One event means always.', 'ex', 'Count the exceptions.')`)
	require.NoError(t, err)

	// The stored example uses the same hash embedding the fake server
	// returns for its thought text, so retrieval finds it regardless of
	// the query vector.
	exampleThought := "I never do anything right"
	_, err = pool.Exec(ctx, `INSERT INTO example_dataset (id, thought, distortion, distortion_id, embedding)
		VALUES ($1, $2, 'Overgeneralizing', 2, $3)`,
		1, exampleThought, pgvector.NewVector(testutil.HashVector(exampleThought)))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `INSERT INTO reframing_dataset (situation, thought, reframe, distortion_id, embedding)
		VALUES ('Burnt dinner', 'I fail at everything', 'One burnt meal is one meal', 2, $1)`,
		pgvector.NewVector(testutil.HashVector("Burnt dinner I fail at everything")))
	require.NoError(t, err)

	fake := testutil.NewFakeOllama(t)
	client := ollama.NewClient(fake.URL(), "llama3.2", "all-minilm")

	store, err := retrieval.NewStore(pool, logger)
	require.NoError(t, err)
	engine, err := retrieval.NewEngine(client, store, 3, 2, logger)
	require.NoError(t, err)
	logStore, err := chatlog.NewStore(pool, logger)
	require.NoError(t, err)
	svc, err := chat.NewService(engine, client, logStore, logger)
	require.NoError(t, err)

	t.Run("success records one log row", func(t *testing.T) {
		result, err := svc.Analyze(ctx, "Messed up a recipe", "I never get anything right", "alice")
		require.NoError(t, err)
		assert.Equal(t, "fake reframed answer", result.Answer)
		assert.Equal(t, 2, result.DistortionID)
		assert.Contains(t, result.PromptText, "Candidate 1: Overgeneralizing")
		assert.Contains(t, result.PromptText, "Tips to overcome Overgeneralizing: Count the exceptions.")
		assert.Contains(t, result.PromptText, "Example Reframed Thought   1: One burnt meal is one meal")

		prompts := fake.Prompts()
		require.Len(t, prompts, 1)
		assert.True(t, strings.Contains(prompts[0], retrieval.Notice))

		var logs int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs`).Scan(&logs))
		assert.Equal(t, 1, logs)
	})

	t.Run("generation failure writes nothing", func(t *testing.T) {
		fake.SetGenerate(http.StatusInternalServerError, "model not found")
		defer fake.SetGenerate(http.StatusOK, "fake reframed answer")

		_, err := svc.Analyze(ctx, "s", "another troubling thought", "alice")
		require.Error(t, err)

		var logs int
		require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM logs`).Scan(&logs))
		assert.Equal(t, 1, logs)
	})

	t.Run("empty example table yields ErrNoExamples", func(t *testing.T) {
		_, err := pool.Exec(ctx, `DELETE FROM example_dataset`)
		require.NoError(t, err)

		_, err = svc.Analyze(ctx, "s", "a thought", "alice")
		require.True(t, errors.Is(err, retrieval.ErrNoExamples))
	})
}
