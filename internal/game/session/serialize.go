package session

import (
	"time"

	"github.com/palemoky/tarneeb41/internal/config"
	"github.com/palemoky/tarneeb41/internal/game/bot"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/game/trick"
	"github.com/palemoky/tarneeb41/internal/storage"
)

// Snapshot 导出完整快照用于持久化
func (s *Session) Snapshot() *storage.GameSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// snapshotLocked 持锁构建快照
func (s *Session) snapshotLocked() *storage.GameSnapshot {
	snap := &storage.GameSnapshot{
		ID:            s.ID,
		Phase:         int(s.phase),
		Seats:         make([]storage.SeatData, len(s.seats)),
		DealerIdx:     s.dealerIdx,
		CurrentIdx:    s.currentIdx,
		Bets:          make([]storage.BetData, len(s.bets)),
		CurrentTrick:  playsToData(s.currentTrick),
		PreviousTrick: playsToData(s.previousTrick),
		TricksPlayed:  s.tricksPlayed,
		TeamScores:    copyTeamScores(s.teamScores),
		RoundNumber:   s.roundNumber,
		RoundHistory:  make([]storage.RoundData, len(s.roundHistory)),
		CreatedAt:     s.CreatedAt.Unix(),
		UpdatedAt:     time.Now().Unix(),
	}

	for i, seat := range s.seats {
		snap.Seats[i] = storage.SeatData{
			Name:        seat.Name,
			TeamID:      seat.TeamID,
			Hand:        cardsToData(seat.Hand),
			TricksWon:   seat.TricksWon,
			PointsWon:   seat.PointsWon,
			IsBot:       seat.IsBot,
			Connected:   seat.Connected,
			Ready:       seat.Ready,
			RematchVote: seat.RematchVote,
		}
	}

	if s.trump != nil {
		snap.TrumpSuit = s.trump.Name()
	}
	for i, b := range s.bets {
		snap.Bets[i] = betToData(b)
	}
	if s.highestBet != nil {
		d := betToData(*s.highestBet)
		snap.HighestBet = &d
	}
	for i, r := range s.roundHistory {
		snap.RoundHistory[i] = storage.RoundData{
			RoundNumber:  r.RoundNumber,
			BettorSeat:   r.BettorSeat,
			BettorTeam:   r.BettorTeam,
			BetAmount:    r.BetAmount,
			WithoutTrump: r.WithoutTrump,
			Succeeded:    r.Succeeded,
			Deltas:       r.Deltas,
			Captured:     r.Captured,
			SeatTricks:   r.SeatTricks,
			SeatPoints:   r.SeatPoints,
		}
	}

	return snap
}

// NewFromSnapshot 从快照恢复对局。所有座位先置为离线，
// 真人座位等持有令牌的客户端重连后恢复在线。叫分或出牌
// 阶段会重新武装当前座位的回合定时器，被中断的倒计时从头算。
func NewFromSnapshot(snap *storage.GameSnapshot, cfg *config.Config, strategy bot.Strategy, store storage.Store, sink EventSink) *Session {
	s := New(snap.ID, cfg, strategy, store, sink)
	s.CreatedAt = time.Unix(snap.CreatedAt, 0)
	s.phase = Phase(snap.Phase)
	s.dealerIdx = snap.DealerIdx
	s.currentIdx = snap.CurrentIdx
	s.tricksPlayed = snap.TricksPlayed
	s.roundNumber = snap.RoundNumber
	if len(snap.TeamScores) > 0 {
		s.teamScores = copyTeamScores(snap.TeamScores)
	}

	for _, sd := range snap.Seats {
		seat := &Seat{
			Name:        sd.Name,
			TeamID:      sd.TeamID,
			Hand:        dataToCards(sd.Hand),
			TricksWon:   sd.TricksWon,
			PointsWon:   sd.PointsWon,
			IsBot:       sd.IsBot,
			Connected:   sd.IsBot, // 真人恢复后先离线
			Ready:       sd.Ready,
			RematchVote: sd.RematchVote,
		}
		s.seats = append(s.seats, seat)
		if s.hostName == "" && !seat.IsBot {
			s.hostName = seat.Name
		}
	}

	if suit, ok := card.SuitByName(snap.TrumpSuit); ok {
		s.trump = &suit
	}
	for _, bd := range snap.Bets {
		s.bets = append(s.bets, dataToBet(bd))
	}
	if snap.HighestBet != nil {
		b := dataToBet(*snap.HighestBet)
		s.highestBet = &b
	}
	s.currentTrick = dataToPlays(snap.CurrentTrick)
	s.previousTrick = dataToPlays(snap.PreviousTrick)

	for _, rd := range snap.RoundHistory {
		s.roundHistory = append(s.roundHistory, RoundRecord{
			RoundNumber:  rd.RoundNumber,
			BettorSeat:   rd.BettorSeat,
			BettorTeam:   rd.BettorTeam,
			BetAmount:    rd.BetAmount,
			WithoutTrump: rd.WithoutTrump,
			Succeeded:    rd.Succeeded,
			Deltas:       rd.Deltas,
			Captured:     rd.Captured,
			SeatTricks:   rd.SeatTricks,
			SeatPoints:   rd.SeatPoints,
		})
	}

	s.mu.Lock()
	// 快照可能落在整墩的展示间隙里，恢复时直接收墩
	if len(s.currentTrick) >= card.NumSeats {
		s.currentTrick = nil
	}
	if s.phase == PhaseBetting || s.phase == PhasePlaying {
		s.armTurnLocked()
	}
	// 真人座位全部处于离线状态，各自走断线宽限：
	// 宽限内重连即恢复，否则按掉线的常规后果处理
	now := time.Now()
	for _, seat := range s.seats {
		if seat.IsBot {
			continue
		}
		seat.DisconnectedAt = now
		name := seat.Name
		s.timers.After(purposeDisconnect, name, cfg.Timing.ReconnectGraceDuration(), func() {
			s.onDisconnectGrace(name)
		})
	}
	s.scheduleEmptyCheckLocked()
	s.mu.Unlock()

	return s
}

func cardsToData(cards []card.Card) []storage.CardData {
	data := make([]storage.CardData, len(cards))
	for i, c := range cards {
		data[i] = storage.CardData{Suit: c.Suit.Name(), Rank: int(c.Rank)}
	}
	return data
}

func dataToCards(data []storage.CardData) []card.Card {
	cards := make([]card.Card, 0, len(data))
	for _, d := range data {
		suit, ok := card.SuitByName(d.Suit)
		if !ok {
			continue
		}
		cards = append(cards, card.Card{Suit: suit, Rank: card.Rank(d.Rank)})
	}
	return cards
}

func playsToData(plays []trick.Play) []storage.PlayData {
	data := make([]storage.PlayData, len(plays))
	for i, p := range plays {
		data[i] = storage.PlayData{
			SeatName: p.SeatName,
			Card:     storage.CardData{Suit: p.Card.Suit.Name(), Rank: int(p.Card.Rank)},
			Order:    p.Order,
		}
	}
	return data
}

func dataToPlays(data []storage.PlayData) []trick.Play {
	plays := make([]trick.Play, 0, len(data))
	for _, d := range data {
		suit, ok := card.SuitByName(d.Card.Suit)
		if !ok {
			continue
		}
		plays = append(plays, trick.Play{
			SeatName: d.SeatName,
			Card:     card.Card{Suit: suit, Rank: card.Rank(d.Card.Rank)},
			Order:    d.Order,
		})
	}
	return plays
}

func betToData(b Bet) storage.BetData {
	return storage.BetData{
		SeatName:     b.SeatName,
		Amount:       b.Amount,
		Skipped:      b.Skipped,
		WithoutTrump: b.WithoutTrump,
	}
}

func dataToBet(d storage.BetData) Bet {
	return Bet{
		SeatName:     d.SeatName,
		Amount:       d.Amount,
		Skipped:      d.Skipped,
		WithoutTrump: d.WithoutTrump,
	}
}
