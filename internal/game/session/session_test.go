package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/config"
	"github.com/palemoky/tarneeb41/internal/game/bot"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/testutil"
)

var seatNames = [4]string{"North", "East", "South", "West"}

// newTestSession creates a session with four seated humans, teams 1/2/1/2
func newTestSession(t *testing.T) (*Session, *testutil.RecordingSink) {
	t.Helper()

	sink := testutil.NewRecordingSink()
	s := New("g-test", config.Default(), bot.Lowest{}, testutil.NewMemoryStore(), sink)
	t.Cleanup(s.Close)

	for i, name := range seatNames {
		require.NoError(t, s.Join(name, "conn-"+name), "seat %d", i)
	}
	return s, sink
}

// startedSession additionally starts the game and returns the betting order
func startedSession(t *testing.T) (*Session, *testutil.RecordingSink, []string) {
	t.Helper()

	s, sink := newTestSession(t)
	require.NoError(t, s.Start("North"))

	// Betting starts left of the dealer
	order := make([]string, 0, card.NumSeats)
	for i := 0; i < card.NumSeats; i++ {
		order = append(order, s.seats[(s.dealerIdx+1+i)%card.NumSeats].Name)
	}
	return s, sink, order
}

func TestJoinAssignsBalancedTeams(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)

	counts := map[int]int{}
	for _, seat := range s.seats {
		counts[seat.TeamID]++
	}
	assert.Equal(t, 2, counts[1])
	assert.Equal(t, 2, counts[2])
	assert.Equal(t, "North", s.hostName)
}

func TestJoinRejectsDuplicateNameAndFullGame(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)

	assert.ErrorIs(t, s.Join("North", "conn-x"), apperrors.ErrSeatTaken)
	assert.ErrorIs(t, s.Join("Fifth", "conn-y"), apperrors.ErrGameFull)
}

func TestStartRequiresHostAndBalance(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)

	assert.ErrorIs(t, s.Start("East"), apperrors.ErrNotHost)

	// Unbalance the teams
	require.NoError(t, s.SelectTeam("East", 1))
	assert.ErrorIs(t, s.Start("North"), apperrors.ErrTeamUnbalanced)

	require.NoError(t, s.SelectTeam("East", 2))
	require.NoError(t, s.Start("North"))
	assert.Equal(t, PhaseBetting, s.Phase())
}

func TestStartArrangesTeamsAcross(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)
	require.NoError(t, s.Start("North"))

	// Teammates must sit opposite: seats alternate 1,2,1,2
	assert.Equal(t, s.seats[0].TeamID, s.seats[2].TeamID)
	assert.Equal(t, s.seats[1].TeamID, s.seats[3].TeamID)
	assert.NotEqual(t, s.seats[0].TeamID, s.seats[1].TeamID)

	// Everyone got a full hand
	for _, seat := range s.seats {
		assert.Len(t, seat.Hand, card.HandSize)
	}
}

func TestBettingSettlement(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)

	require.NoError(t, s.PlaceBet(order[0], 7, false, false))
	require.NoError(t, s.PlaceBet(order[1], 0, true, false))
	require.NoError(t, s.PlaceBet(order[2], 9, false, false))
	require.NoError(t, s.PlaceBet(order[3], 0, true, false))

	assert.Equal(t, PhasePlaying, s.Phase())
	require.NotNil(t, s.highestBet)
	assert.Equal(t, order[2], s.highestBet.SeatName)
	assert.Equal(t, 9, s.highestBet.Amount)
	// The winning bidder leads the first trick
	assert.Equal(t, order[2], s.seats[s.currentIdx].Name)
}

func TestBettingTurnOrderEnforced(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)

	assert.ErrorIs(t, s.PlaceBet(order[1], 7, false, false), apperrors.ErrNotYourTurn)
	require.NoError(t, s.PlaceBet(order[0], 7, false, false))
	assert.ErrorIs(t, s.PlaceBet(order[0], 8, false, false), apperrors.ErrNotYourTurn)
}

func TestBettingRejectsOutOfRangeAmount(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)

	assert.ErrorIs(t, s.PlaceBet(order[0], 6, false, false), apperrors.ErrInvalidBet)
	assert.ErrorIs(t, s.PlaceBet(order[0], 14, false, false), apperrors.ErrInvalidBet)
	require.NoError(t, s.PlaceBet(order[0], 13, false, false))
}

func TestBetMustRaiseCurrentHighest(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)

	require.NoError(t, s.PlaceBet(order[0], 9, false, false))

	// A lower or merely equal bet is not a raise
	assert.ErrorIs(t, s.PlaceBet(order[1], 8, false, false), apperrors.ErrInvalidBet)
	assert.ErrorIs(t, s.PlaceBet(order[1], 9, false, false), apperrors.ErrInvalidBet)

	// Same amount without trump outranks the plain bet
	require.NoError(t, s.PlaceBet(order[1], 9, false, true))

	// And now a plain 9 beats nothing, not even for the next seat
	assert.ErrorIs(t, s.PlaceBet(order[2], 9, false, false), apperrors.ErrInvalidBet)
	require.NoError(t, s.PlaceBet(order[2], 0, true, false))
}

func TestDealerMayMatchHighestBet(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)
	dealer := order[3]

	require.NoError(t, s.PlaceBet(order[0], 9, false, false))
	require.NoError(t, s.PlaceBet(order[1], 0, true, false))
	require.NoError(t, s.PlaceBet(order[2], 0, true, false))

	// The dealer only has to match to take the bet
	require.NoError(t, s.PlaceBet(dealer, 9, false, false))

	assert.Equal(t, PhasePlaying, s.Phase())
	require.NotNil(t, s.highestBet)
	assert.Equal(t, dealer, s.highestBet.SeatName)
	assert.Equal(t, 9, s.highestBet.Amount)
}

func TestAllSkipRestartsBetting(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)

	for _, name := range order {
		require.NoError(t, s.PlaceBet(name, 0, true, false))
	}

	assert.Equal(t, PhaseBetting, s.Phase())
	assert.Empty(t, s.bets)
	assert.Nil(t, s.highestBet)
	// Betting restarts left of the dealer
	assert.Equal(t, order[0], s.seats[s.currentIdx].Name)
}

func TestHighestBetPrecedence(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)
	dealer := s.seats[s.dealerIdx].Name

	s.mu.Lock()
	// Same amount: withoutTrump beats a plain bet
	s.bets = []Bet{
		{SeatName: order[0], Amount: 9},
		{SeatName: order[1], Amount: 9, WithoutTrump: true},
		{SeatName: order[2], Skipped: true},
		{SeatName: dealer, Skipped: true},
	}
	best := s.highestBetLocked()
	s.mu.Unlock()
	require.NotNil(t, best)
	assert.Equal(t, order[1], best.SeatName)

	s.mu.Lock()
	// Same amount and same withoutTrump: the dealer wins the tie
	s.bets = []Bet{
		{SeatName: order[0], Amount: 9},
		{SeatName: order[1], Skipped: true},
		{SeatName: order[2], Skipped: true},
		{SeatName: dealer, Amount: 9},
	}
	best = s.highestBetLocked()
	s.mu.Unlock()
	require.NotNil(t, best)
	assert.Equal(t, dealer, best.SeatName)
}

func TestDealerForcedToMinimumBet(t *testing.T) {
	t.Parallel()
	s, sink, order := startedSession(t)

	// Three seats skip; the dealer is last and times out with no valid bet
	require.NoError(t, s.PlaceBet(order[0], 0, true, false))
	require.NoError(t, s.PlaceBet(order[1], 0, true, false))
	require.NoError(t, s.PlaceBet(order[2], 0, true, false))

	dealer := s.seats[s.dealerIdx].Name
	s.mu.Lock()
	epoch := s.turnEpoch
	s.mu.Unlock()
	s.onTurnDeadline(dealer, epoch)

	assert.Equal(t, PhasePlaying, s.Phase())
	require.NotNil(t, s.highestBet)
	assert.Equal(t, dealer, s.highestBet.SeatName)
	assert.Equal(t, s.cfg.Game.MinBet, s.highestBet.Amount)

	auto := sink.LastOfType(protocol.MsgAutoActionTaken)
	require.NotNil(t, auto)
	payload, err := protocol.ParsePayload[protocol.AutoActionTakenPayload](auto)
	require.NoError(t, err)
	assert.Equal(t, "forced_bet", payload.Action)
	assert.Equal(t, dealer, payload.SeatName)
}

func TestTimeoutAfterActionIsNoOp(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)

	s.mu.Lock()
	staleEpoch := s.turnEpoch
	s.mu.Unlock()

	require.NoError(t, s.PlaceBet(order[0], 8, false, false))
	betsBefore := len(s.bets)

	// The deadline callback for the already-acted seat must do nothing
	s.onTurnDeadline(order[0], staleEpoch)

	assert.Equal(t, betsBefore, len(s.bets))
	assert.Equal(t, PhaseBetting, s.Phase())
}

// intoPlaying finishes betting with a single 7-bet from the first bidder
func intoPlaying(t *testing.T, s *Session, order []string, withoutTrump bool) string {
	t.Helper()
	require.NoError(t, s.PlaceBet(order[0], 7, false, withoutTrump))
	for _, name := range order[1:] {
		require.NoError(t, s.PlaceBet(name, 0, true, false))
	}
	require.Equal(t, PhasePlaying, s.Phase())
	return order[0]
}

// giveHand replaces a seat's hand, bypassing the deal
func giveHand(s *Session, seatName string, cards []card.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, _ := s.seatByName(seatName)
	seat.Hand = cards
}

func TestTrumpSetByFirstLedCard(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)
	bidder := intoPlaying(t, s, order, false)

	giveHand(s, bidder, []card.Card{{Suit: card.Diamond, Rank: 8}})
	require.NoError(t, s.PlayCard(bidder, card.Card{Suit: card.Diamond, Rank: 8}))

	require.NotNil(t, s.trump)
	assert.Equal(t, card.Diamond, *s.trump)
}

func TestWithoutTrumpRoundHasNoTrump(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)
	bidder := intoPlaying(t, s, order, true)

	giveHand(s, bidder, []card.Card{{Suit: card.Diamond, Rank: 8}})
	require.NoError(t, s.PlayCard(bidder, card.Card{Suit: card.Diamond, Rank: 8}))

	assert.Nil(t, s.trump)
}

func TestPlayCardValidation(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)
	bidder := intoPlaying(t, s, order, false)

	giveHand(s, bidder, []card.Card{{Suit: card.Club, Rank: 4}})

	// Not holding the card
	assert.ErrorIs(t, s.PlayCard(bidder, card.Card{Suit: card.Heart, Rank: 4}), apperrors.ErrInvalidCard)
	// Out of turn
	assert.ErrorIs(t, s.PlayCard(order[1], card.Card{Suit: card.Club, Rank: 4}), apperrors.ErrNotYourTurn)

	require.NoError(t, s.PlayCard(bidder, card.Card{Suit: card.Club, Rank: 4}))

	// Next seat holds the led suit and must follow it
	giveHand(s, order[1], []card.Card{
		{Suit: card.Club, Rank: 9},
		{Suit: card.Heart, Rank: 2},
	})
	assert.ErrorIs(t, s.PlayCard(order[1], card.Card{Suit: card.Heart, Rank: 2}), apperrors.ErrMustFollowSuit)
	require.NoError(t, s.PlayCard(order[1], card.Card{Suit: card.Club, Rank: 9}))
}

func TestFinalTrickEndsRound(t *testing.T) {
	t.Parallel()
	s, sink, order := startedSession(t)
	intoPlaying(t, s, order, false)

	// Fast-forward to the last trick with one card each
	s.mu.Lock()
	s.tricksPlayed = card.HandSize - 1
	suit := card.Heart
	s.trump = &suit
	for i, seat := range s.seats {
		seat.Hand = []card.Card{{Suit: card.Club, Rank: card.Rank(i + 2)}}
		seat.TricksWon = 3
		seat.PointsWon = 3
	}
	s.mu.Unlock()

	for i := 0; i < card.NumSeats; i++ {
		name := s.seats[s.currentIdx].Name
		seat, _ := s.seatByName(name)
		require.NoError(t, s.PlayCard(name, seat.Hand[0]))
	}

	// 13 points captured in total, bet of 7: outcome depends on team split,
	// but the round must have been scored and the session moved on.
	assert.Contains(t, []Phase{PhaseScoring, PhaseGameOver}, s.Phase())
	assert.Len(t, s.roundHistory, 1)
	assert.NotNil(t, sink.LastOfType(protocol.MsgRoundEnded))
	assert.NotNil(t, sink.LastOfType(protocol.MsgTrickResolved))
}

func TestPlayerReadyAdvancesRound(t *testing.T) {
	t.Parallel()
	s, sink, _ := startedSession(t)

	s.mu.Lock()
	s.phase = PhaseScoring
	s.turnEpoch++
	for _, seat := range s.seats {
		seat.Ready = false
	}
	s.mu.Unlock()

	roundBefore := s.roundNumber
	for i, name := range seatNames {
		require.NoError(t, s.PlayerReady(name), "seat %d", i)
	}

	assert.Equal(t, PhaseBetting, s.Phase())
	assert.Equal(t, roundBefore+1, s.roundNumber)
	assert.NotNil(t, sink.LastOfType(protocol.MsgRoundStarted))
}

func TestVoteRematchResetsToTeamSelection(t *testing.T) {
	t.Parallel()
	s, _, _ := startedSession(t)

	s.mu.Lock()
	s.phase = PhaseGameOver
	s.teamScores = map[int]int{1: 44, 2: 12}
	for _, seat := range s.seats {
		seat.RematchVote = false
	}
	s.mu.Unlock()

	for _, name := range seatNames[:3] {
		require.NoError(t, s.VoteRematch(name))
		assert.Equal(t, PhaseGameOver, s.Phase())
	}
	require.NoError(t, s.VoteRematch(seatNames[3]))

	assert.Equal(t, PhaseTeamSelection, s.Phase())
	assert.Equal(t, map[int]int{1: 0, 2: 0}, s.teamScores)
	assert.Equal(t, 0, s.roundNumber)
	// Seats and teams survive the reset
	assert.Equal(t, card.NumSeats, s.SeatCount())
}

func TestLeaveCompletesUnanimousRematch(t *testing.T) {
	t.Parallel()
	s, _, _ := startedSession(t)

	s.mu.Lock()
	s.phase = PhaseGameOver
	s.teamScores = map[int]int{1: 44, 2: 12}
	for _, seat := range s.seats {
		seat.RematchVote = false
	}
	s.mu.Unlock()

	for _, name := range seatNames[:3] {
		require.NoError(t, s.VoteRematch(name))
	}
	assert.Equal(t, PhaseGameOver, s.Phase())

	// The last holdout leaves: their seat turns into a bot whose
	// implicit vote completes the unanimity, so the rematch fires
	require.NoError(t, s.Leave(seatNames[3]))

	assert.Equal(t, PhaseTeamSelection, s.Phase())
	assert.Equal(t, map[int]int{1: 0, 2: 0}, s.teamScores)
	assert.Equal(t, card.NumSeats, s.SeatCount())
	seat, _ := s.seatByName(seatNames[3])
	require.NotNil(t, seat)
	assert.True(t, seat.IsBot)
}

func TestGameOverWithoutStoreSkipsArchive(t *testing.T) {
	t.Parallel()

	sink := testutil.NewRecordingSink()
	s := New("g-nostore", config.Default(), bot.Lowest{}, nil, sink)
	t.Cleanup(s.Close)
	for _, name := range seatNames {
		require.NoError(t, s.Join(name, "conn-"+name))
	}
	require.NoError(t, s.Start("North"))

	// Finishing a game with no store attached must not panic
	s.mu.Lock()
	s.enterGameOverLocked(1)
	s.mu.Unlock()

	assert.Equal(t, PhaseGameOver, s.Phase())
}

func TestLeaveDuringTeamSelectionRemovesSeat(t *testing.T) {
	t.Parallel()
	s, sink := newTestSession(t)

	require.NoError(t, s.Leave("East"))
	assert.Equal(t, 3, s.SeatCount())
	assert.False(t, s.HasSeat("East"))
	assert.NotNil(t, sink.LastOfType(protocol.MsgPlayerLeft))
}

func TestLeaveMidGameConvertsToBot(t *testing.T) {
	t.Parallel()
	s, _, _ := startedSession(t)

	require.NoError(t, s.Leave("East"))

	seat, _ := s.seatByName("East")
	require.NotNil(t, seat, "seat must survive in place")
	assert.True(t, seat.IsBot)
	assert.Empty(t, seat.ConnectionID)
	assert.Equal(t, card.NumSeats, s.SeatCount())
}

func TestHostTransferOnLeave(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)

	require.NoError(t, s.Leave("North"))
	assert.NotEqual(t, "North", s.hostName)
	assert.NotEmpty(t, s.hostName)
}

func TestKickRequiresHost(t *testing.T) {
	t.Parallel()
	s, _ := newTestSession(t)

	assert.ErrorIs(t, s.Kick("East", "South"), apperrors.ErrNotHost)
	require.NoError(t, s.Kick("North", "South"))
	assert.False(t, s.HasSeat("South"))
}

func TestAddBotAndTakeOver(t *testing.T) {
	t.Parallel()
	sink := testutil.NewRecordingSink()
	s := New("g-bot", config.Default(), bot.Lowest{}, testutil.NewMemoryStore(), sink)
	t.Cleanup(s.Close)

	require.NoError(t, s.Join("North", "conn-North"))
	assert.ErrorIs(t, s.AddBot("nobody"), apperrors.ErrNotHost)
	require.NoError(t, s.AddBot("North"))

	botSeat := s.seats[1]
	assert.True(t, botSeat.IsBot)

	// A human takes the bot seat over in place, keeping its name
	require.NoError(t, s.TakeOverBot(botSeat.Name, "conn-take"))
	assert.False(t, botSeat.IsBot)
	assert.True(t, botSeat.Connected)
	assert.Equal(t, "conn-take", botSeat.ConnectionID)

	// Taking over a human seat is rejected
	assert.ErrorIs(t, s.TakeOverBot("North", "conn-x"), apperrors.ErrNotABot)
}

func TestDisconnectAndReconnect(t *testing.T) {
	t.Parallel()
	s, sink, _ := startedSession(t)

	s.MarkDisconnected("conn-East")
	seat, _ := s.seatByName("East")
	assert.False(t, seat.Connected)
	assert.NotNil(t, sink.LastOfType(protocol.MsgPlayerDisconnected))

	// Stale connection id: no-op
	s.MarkDisconnected("conn-East")
	s.MarkDisconnected("unknown-conn")

	state, hand, err := s.Reconnect("East", "conn-East-2")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Len(t, hand, card.HandSize)
	assert.True(t, seat.Connected)
	assert.Equal(t, "conn-East-2", seat.ConnectionID)
	assert.NotNil(t, sink.LastOfType(protocol.MsgPlayerReconnected))
}

func TestReconnectUnknownSeatOrBot(t *testing.T) {
	t.Parallel()
	s, _, _ := startedSession(t)

	_, _, err := s.Reconnect("Nobody", "conn-x")
	assert.ErrorIs(t, err, apperrors.ErrSeatNotFound)

	// Seat already handed to a bot: the old token holder is out
	require.NoError(t, s.Leave("West"))
	_, _, err = s.Reconnect("West", "conn-x")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTimerSurvivesReconnect(t *testing.T) {
	t.Parallel()
	s, _, order := startedSession(t)

	// Current seat disconnects and reconnects; the pending deadline
	// still fires for the same seat name and forces a skip.
	current := order[0]
	s.MarkDisconnected("conn-" + current)
	_, _, err := s.Reconnect(current, "conn-new")
	require.NoError(t, err)

	s.mu.Lock()
	epoch := s.turnEpoch
	s.mu.Unlock()
	s.onTurnDeadline(current, epoch)

	// The first bidder is never the dealer, so the default action is a skip
	assert.Len(t, s.bets, 1)
	assert.True(t, s.bets[0].Skipped)
}
