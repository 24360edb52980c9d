package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreRound_BetSucceeded(t *testing.T) {
	t.Parallel()
	res := ScoreRound(Outcome{
		BettorTeam: 1,
		BetAmount:  9,
		Captured:   map[int]int{1: 10, 2: 3},
	})

	assert.True(t, res.Succeeded)
	assert.Equal(t, 9, res.Deltas[1])
	assert.Equal(t, 3, res.Deltas[2])
}

func TestScoreRound_BetFailed(t *testing.T) {
	t.Parallel()
	res := ScoreRound(Outcome{
		BettorTeam: 1,
		BetAmount:  9,
		Captured:   map[int]int{1: 8, 2: 5},
	})

	assert.False(t, res.Succeeded)
	assert.Equal(t, -9, res.Deltas[1])
	assert.Equal(t, 5, res.Deltas[2])
}

func TestScoreRound_WithoutTrumpDoublesStake(t *testing.T) {
	t.Parallel()

	// Failed 10-bet without trump loses double
	res := ScoreRound(Outcome{
		BettorTeam:   2,
		BetAmount:    10,
		WithoutTrump: true,
		Captured:     map[int]int{1: 6, 2: 7},
	})
	assert.False(t, res.Succeeded)
	assert.Equal(t, -20, res.Deltas[2])
	assert.Equal(t, 6, res.Deltas[1])

	// Successful one wins double
	res = ScoreRound(Outcome{
		BettorTeam:   2,
		BetAmount:    10,
		WithoutTrump: true,
		Captured:     map[int]int{1: 3, 2: 10},
	})
	assert.True(t, res.Succeeded)
	assert.Equal(t, 20, res.Deltas[2])
}

func TestScoreRound_ExactCaptureSucceeds(t *testing.T) {
	t.Parallel()
	res := ScoreRound(Outcome{
		BettorTeam: 1,
		BetAmount:  7,
		Captured:   map[int]int{1: 7, 2: 6},
	})
	assert.True(t, res.Succeeded)
	assert.Equal(t, 7, res.Deltas[1])
}

func TestCheckGameOver(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		scores     map[int]int
		bettorTeam int
		wantWinner int
		wantOver   bool
	}{
		{
			name:   "nobody over threshold",
			scores: map[int]int{1: 30, 2: 38},
		},
		{
			name:       "single team crosses",
			scores:     map[int]int{1: 44, 2: 20},
			bettorTeam: 1,
			wantWinner: 1,
			wantOver:   true,
		},
		{
			name:       "both cross, higher score wins",
			scores:     map[int]int{1: 41, 2: 45},
			bettorTeam: 1,
			wantWinner: 2,
			wantOver:   true,
		},
		{
			name:       "both cross tied, bettor wins",
			scores:     map[int]int{1: 43, 2: 43},
			bettorTeam: 2,
			wantWinner: 2,
			wantOver:   true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			winner, over := CheckGameOver(tt.scores, 41, tt.bettorTeam)
			assert.Equal(t, tt.wantOver, over)
			assert.Equal(t, tt.wantWinner, winner)
		})
	}
}
