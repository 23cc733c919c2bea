package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherEmitSync(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store)

	err := pub.Emit(context.Background(), Event{
		NodeName: "node-a",
		ClaimID:  "c1",
		Action:   "vote_approved",
		Decision: "APPROVE",
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "vote_approved", events[0].Action)
	assert.False(t, events[0].Timestamp.IsZero(), "publisher must stamp events")
}

func TestPublisherAsyncDrainsOnClose(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(16))

	for i := 0; i < 5; i++ {
		require.NoError(t, pub.Emit(context.Background(), Event{
			ClaimID:   "c2",
			Action:    "claim_finalized",
			Timestamp: time.Now(),
		}))
	}
	pub.Close()

	events, err := store.ListByClaim(context.Background(), "c2")
	require.NoError(t, err)
	assert.Len(t, events, 5)
}
