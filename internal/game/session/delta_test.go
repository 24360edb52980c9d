package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/tarneeb41/internal/protocol"
)

func TestBroadcastFullOnPhaseChange(t *testing.T) {
	t.Parallel()
	s, sink, order := startedSession(t)
	sink.Reset()

	// The last bet flips the phase to playing: full state, not a delta
	require.NoError(t, s.PlaceBet(order[0], 7, false, false))
	require.NoError(t, s.PlaceBet(order[1], 0, true, false))
	require.NoError(t, s.PlaceBet(order[2], 0, true, false))
	require.NoError(t, s.PlaceBet(order[3], 0, true, false))

	full := sink.MessagesOfType(protocol.MsgGameUpdated)
	require.NotEmpty(t, full)
	payload, err := protocol.ParsePayload[protocol.GameUpdatedPayload](full[len(full)-1])
	require.NoError(t, err)
	assert.Equal(t, "playing", payload.State.Phase)
}

func TestBroadcastDeltaWithinPhase(t *testing.T) {
	t.Parallel()
	s, sink, order := startedSession(t)
	sink.Reset()

	// A bet that does not settle the auction changes only a few fields
	require.NoError(t, s.PlaceBet(order[0], 7, false, false))

	deltas := sink.MessagesOfType(protocol.MsgGameUpdatedDelta)
	require.NotEmpty(t, deltas)
	payload, err := protocol.ParsePayload[protocol.GameUpdatedDeltaPayload](deltas[len(deltas)-1])
	require.NoError(t, err)
	assert.Equal(t, s.ID, payload.GameID)
	assert.Contains(t, payload.Changes, "bets")
	assert.Contains(t, payload.Changes, "current_seat")
	assert.NotContains(t, payload.Changes, "team_scores")
}

func TestBroadcastSuppressedWhenNothingChanged(t *testing.T) {
	t.Parallel()
	s, sink, _ := startedSession(t)
	sink.Reset()

	s.mu.Lock()
	s.broadcastState(false)
	s.mu.Unlock()

	assert.Empty(t, sink.MessagesOfType(protocol.MsgGameUpdated))
	assert.Empty(t, sink.MessagesOfType(protocol.MsgGameUpdatedDelta))
}

func TestStateHidesHands(t *testing.T) {
	t.Parallel()
	s, _, _ := startedSession(t)

	state := s.State()
	require.Len(t, state.Seats, 4)
	for _, seat := range state.Seats {
		assert.Equal(t, 13, seat.HandCount, "public state counts cards")
	}
	// Hands themselves travel only over private messages
	assert.Len(t, s.Hand("North"), 13)
	assert.Nil(t, s.Hand("Nobody"))
}

func TestPersistAfterDebounce(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)
	require.NoError(t, s.PlaceBet(order[0], 8, false, false))

	// The debounced write lands shortly after the burst of changes
	assert.Eventually(t, func() bool {
		snap, _ := s.store.LoadGame(context.Background(), s.ID)
		return snap != nil && len(snap.Bets) == 1
	}, 2*time.Second, 20*time.Millisecond)
}
