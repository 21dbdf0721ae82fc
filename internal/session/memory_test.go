package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Append_EvictsOldestByTurnCount(t *testing.T) {
	ctx := context.Background()
	s := New(WithMaxTurns(2))
	id, err := s.NewSession(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, id, "user", "one"))
	require.NoError(t, s.Append(ctx, id, "assistant", "two"))
	require.NoError(t, s.Append(ctx, id, "user", "three"))

	turns, err := s.History(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "two", turns[0].Content)
	assert.Equal(t, "three", turns[1].Content)
}

func TestStore_History_EvictsAgedOutTurnsAndSession(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := New(WithMaxAge(time.Minute), withClock(func() time.Time { return now }))

	id, err := s.NewSession(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, id, "user", "hello"))

	now = now.Add(2 * time.Minute)
	turns, err := s.History(ctx, id, 10)
	require.NoError(t, err)
	assert.Empty(t, turns)

	s.mu.Lock()
	_, exists := s.sessions[id]
	s.mu.Unlock()
	assert.False(t, exists)
}

func TestStore_Append_UnknownSessionID_CreatesIt(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Append(ctx, "custom-id", "user", "hi"))

	turns, err := s.History(ctx, "custom-id", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
}

func TestStore_History_UnknownSession_ReturnsEmpty(t *testing.T) {
	s := New()
	turns, err := s.History(context.Background(), "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}
