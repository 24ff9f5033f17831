package chatlog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reframelab/reframe/internal/chatlog"
	"github.com/reframelab/reframe/internal/log"
	"github.com/reframelab/reframe/internal/testutil"
)

func TestStoreRecordIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	testDB, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	pool := testDB.Pool

	store, err := chatlog.NewStore(pool, log.NewNop())
	require.NoError(t, err)

	countRows := func(table string) int {
		var n int
		require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
		return n
	}

	first := chatlog.Entry{
		UserID:       "alice",
		Situation:    "Big exam tomorrow",
		Thought:      "I will fail for sure",
		Answer:       "Consider past exams you passed.",
		DistortionID: 4,
	}
	require.NoError(t, store.Record(ctx, first))
	assert.Equal(t, 1, countRows("users"))
	assert.Equal(t, 1, countRows("logs"))

	// Second interaction for the same user adds a log row only.
	second := first
	second.Thought = "Everyone will laugh at me"
	second.DistortionID = 5
	require.NoError(t, store.Record(ctx, second))
	assert.Equal(t, 1, countRows("users"))
	assert.Equal(t, 2, countRows("logs"))

	// A different user adds both.
	third := first
	third.UserID = "bob"
	require.NoError(t, store.Record(ctx, third))
	assert.Equal(t, 2, countRows("users"))
	assert.Equal(t, 3, countRows("logs"))

	var situation, thought, answer string
	var distortionID int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT situation, thought, answer, distortion_id FROM logs
		 WHERE user_id = 'alice' ORDER BY created_at LIMIT 1`).
		Scan(&situation, &thought, &answer, &distortionID))
	assert.Equal(t, "Big exam tomorrow", situation)
	assert.Equal(t, "I will fail for sure", thought)
	assert.Equal(t, "Consider past exams you passed.", answer)
	assert.Equal(t, 4, distortionID)

	t.Run("unmatched distortion stored as NULL", func(t *testing.T) {
		unmatched := first
		unmatched.Thought = "something entirely new"
		unmatched.DistortionID = 0
		require.NoError(t, store.Record(ctx, unmatched))

		var nullRows int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM logs WHERE thought = 'something entirely new' AND distortion_id IS NULL`).
			Scan(&nullRows))
		assert.Equal(t, 1, nullRows)
	})

	t.Run("rejects incomplete entries", func(t *testing.T) {
		assert.Error(t, store.Record(ctx, chatlog.Entry{Thought: "t"}))
		assert.Error(t, store.Record(ctx, chatlog.Entry{UserID: "carol"}))
		assert.Equal(t, 2, countRows("users"))
		assert.Equal(t, 4, countRows("logs"))
	})
}
