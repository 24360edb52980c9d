package session

import (
	"log"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/game/scoring"
	"github.com/palemoky/tarneeb41/internal/game/trick"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/protocol/convert"
)

// PlayCard 处理出牌
func (s *Session) PlayCard(seatName string, c card.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playCardLocked(seatName, c)
}

// playCardLocked 出牌的核心逻辑，持锁调用
func (s *Session) playCardLocked(seatName string, c card.Card) error {
	if s.phase != PhasePlaying {
		return apperrors.ErrWrongPhase
	}

	seat, idx := s.seatByName(seatName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}
	if idx != s.currentIdx {
		return apperrors.ErrNotYourTurn
	}
	if len(s.currentTrick) >= card.NumSeats {
		// 一墩已满，等待展示延迟清墩；到这里说明指令与清墩竞速，拒绝即可
		return apperrors.ErrDuplicateAction
	}
	if !card.Contains(seat.Hand, c) {
		return apperrors.ErrInvalidCard
	}

	var led *card.Suit
	if len(s.currentTrick) > 0 {
		led = &s.currentTrick[0].Card.Suit
	}
	if !card.Contains(trick.LegalPlays(seat.Hand, led), c) {
		return apperrors.ErrMustFollowSuit
	}

	// 本局第一张牌确定将牌花色，除非是无主叫分
	if s.trump == nil && !s.highestBet.WithoutTrump && s.tricksPlayed == 0 && len(s.currentTrick) == 0 {
		suit := c.Suit
		s.trump = &suit
		log.Printf("🃏 对局 %s 将牌定为 %s", s.ID, suit.Name())
	}

	s.clearTurnLocked(seatName)
	seat.Hand = card.Remove(seat.Hand, c)
	s.currentTrick = append(s.currentTrick, trick.Play{
		SeatName: seatName,
		Card:     c,
		Order:    len(s.currentTrick),
	})
	s.touch()

	if len(s.currentTrick) < card.NumSeats {
		s.advanceSeatLocked()
		s.broadcastState(false)
		s.armTurnLocked()
		return nil
	}

	s.resolveTrickLocked()
	return nil
}

// resolveTrickLocked 一墩满四张后结算，持锁调用。
// 赢家成为下一个出牌者；这墩牌保留一小段时间供展示，
// 由延时回调清掉，绝不在处理器里阻塞等待。
func (s *Session) resolveTrickLocked() {
	result, err := trick.Resolve(s.currentTrick, s.trump, s.order, s.bonuses)
	if err != nil {
		log.Printf("结算一墩失败: %v", err)
		return
	}

	winner, winnerIdx := s.seatByName(result.WinnerSeat)
	winner.TricksWon++
	winner.PointsWon += result.Value
	s.tricksPlayed++
	s.previousTrick = s.currentTrick
	s.currentIdx = winnerIdx

	log.Printf("🏆 对局 %s 第 %d 墩由 %s 拿下，墩值 %d",
		s.ID, s.tricksPlayed, result.WinnerSeat, result.Value)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgTrickResolved, protocol.TrickResolvedPayload{
		WinnerSeat: result.WinnerSeat,
		Value:      result.Value,
		Plays:      convert.PlaysToInfos(s.currentTrick),
	}))

	// 墩数打满，立刻进入结算
	if s.tricksPlayed >= card.HandSize {
		s.currentTrick = nil
		s.broadcastState(false)
		s.finishRoundLocked()
		return
	}

	epoch := s.turnEpoch
	s.broadcastState(false)
	s.timers.After(purposeTrickHold, "", s.cfg.Timing.TrickHoldDuration(), func() {
		s.clearTrickAfterHold(epoch)
	})
}

// clearTrickAfterHold 展示延迟结束后清墩并开启下一墩
func (s *Session) clearTrickAfterHold(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 会话若已被其他事件推进（比如对局结束），这里直接放弃
	if s.turnEpoch != epoch || s.phase != PhasePlaying {
		return
	}

	s.currentTrick = nil
	s.touch()
	s.broadcastState(false)
	s.armTurnLocked()
}

// finishRoundLocked 一局打完，立即运行计分引擎，持锁调用
func (s *Session) finishRoundLocked() {
	bettor, _ := s.seatByName(s.highestBet.SeatName)

	captured := map[int]int{1: 0, 2: 0}
	seatTricks := make(map[string]int, card.NumSeats)
	seatPoints := make(map[string]int, card.NumSeats)
	for _, seat := range s.seats {
		captured[seat.TeamID] += seat.PointsWon
		seatTricks[seat.Name] = seat.TricksWon
		seatPoints[seat.Name] = seat.PointsWon
	}

	result := scoring.ScoreRound(scoring.Outcome{
		BettorTeam:   bettor.TeamID,
		BetAmount:    s.highestBet.Amount,
		WithoutTrump: s.highestBet.WithoutTrump,
		Captured:     captured,
	})

	for team, delta := range result.Deltas {
		s.teamScores[team] += delta
	}

	record := RoundRecord{
		RoundNumber:  s.roundNumber,
		BettorSeat:   bettor.Name,
		BettorTeam:   bettor.TeamID,
		BetAmount:    s.highestBet.Amount,
		WithoutTrump: s.highestBet.WithoutTrump,
		Succeeded:    result.Succeeded,
		Deltas:       result.Deltas,
		Captured:     captured,
		SeatTricks:   seatTricks,
		SeatPoints:   seatPoints,
	}
	s.roundHistory = append(s.roundHistory, record)

	log.Printf("📊 对局 %s 第 %d 局结算：%s 叫 %d，达成=%v，比分 %v",
		s.ID, s.roundNumber, bettor.Name, s.highestBet.Amount, result.Succeeded, s.teamScores)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgRoundEnded, protocol.RoundEndedPayload{
		RoundNumber:  s.roundNumber,
		BettorSeat:   bettor.Name,
		BetAmount:    s.highestBet.Amount,
		WithoutTrump: s.highestBet.WithoutTrump,
		BetSucceeded: result.Succeeded,
		Deltas:       result.Deltas,
		TeamScores:   copyTeamScores(s.teamScores),
		TeamCaptured: captured,
		SeatTricks:   seatTricks,
	}))

	// 胜负检查在每局计分后立即进行，绝不在局中
	winner, over := scoring.CheckGameOver(s.teamScores, s.cfg.Game.VictoryThreshold, bettor.TeamID)
	if over {
		s.enterGameOverLocked(winner)
		return
	}

	s.enterScoringLocked()
}

func copyTeamScores(scores map[int]int) map[int]int {
	cp := make(map[int]int, len(scores))
	for k, v := range scores {
		cp[k] = v
	}
	return cp
}
