package session

import (
	"context"
	"log"
	"reflect"

	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/protocol/convert"
)

// buildDTOLocked 构建公开状态快照。不含任何人的手牌，
// 手牌只在发牌和重连时以私信单发。持锁调用。
func (s *Session) buildDTOLocked() *protocol.GameStateDTO {
	dto := &protocol.GameStateDTO{
		GameID:       s.ID,
		Phase:        s.phase.String(),
		Seats:        make([]protocol.SeatInfo, len(s.seats)),
		TeamScores:   copyTeamScores(s.teamScores),
		RoundNumber:  s.roundNumber,
		Bets:         make([]protocol.BetInfo, len(s.bets)),
		ReadySeats:   []string{},
		RematchVotes: []string{},
	}

	for i, seat := range s.seats {
		dto.Seats[i] = protocol.SeatInfo{
			SeatName:  seat.Name,
			TeamID:    seat.TeamID,
			HandCount: len(seat.Hand),
			TricksWon: seat.TricksWon,
			PointsWon: seat.PointsWon,
			IsBot:     seat.IsBot,
			Connected: seat.Connected,
		}
		if seat.Ready {
			dto.ReadySeats = append(dto.ReadySeats, seat.Name)
		}
		if seat.RematchVote {
			dto.RematchVotes = append(dto.RematchVotes, seat.Name)
		}
	}

	if s.phase != PhaseTeamSelection && len(s.seats) > 0 {
		dto.DealerSeat = s.seats[s.dealerIdx].Name
	}
	if s.phase == PhaseBetting || s.phase == PhasePlaying {
		dto.CurrentSeat = s.seats[s.currentIdx].Name
	}
	if s.trump != nil {
		dto.TrumpSuit = s.trump.Name()
	}

	for i, b := range s.bets {
		dto.Bets[i] = protocol.BetInfo{
			SeatName:     b.SeatName,
			Amount:       b.Amount,
			Skipped:      b.Skipped,
			WithoutTrump: b.WithoutTrump,
		}
	}
	if s.highestBet != nil {
		dto.HighestBet = &protocol.BetInfo{
			SeatName:     s.highestBet.SeatName,
			Amount:       s.highestBet.Amount,
			Skipped:      s.highestBet.Skipped,
			WithoutTrump: s.highestBet.WithoutTrump,
		}
	}

	dto.CurrentTrick = convert.PlaysToInfos(s.currentTrick)
	dto.PreviousTrick = convert.PlaysToInfos(s.previousTrick)

	return dto
}

// broadcastState 广播状态。有基线且阶段未变时只发变化的字段，
// 阶段切换或 force 为真时发全量并重置基线。无任何变化则不发。
// 每次广播同时安排一次去抖的持久化。持锁调用。
func (s *Session) broadcastState(force bool) {
	cur := s.buildDTOLocked()
	prev := s.lastSnapshot
	s.lastSnapshot = cur
	s.schedulePersistLocked()

	if force || prev == nil || prev.Phase != cur.Phase {
		s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgGameUpdated, protocol.GameUpdatedPayload{State: cur}))
		return
	}

	changes := diffState(prev, cur)
	if len(changes) == 0 {
		return
	}
	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgGameUpdatedDelta, protocol.GameUpdatedDeltaPayload{
		GameID:  s.ID,
		Changes: changes,
	}))
}

// diffState 字段级对比，键与 GameStateDTO 的 JSON 字段名一致
func diffState(prev, cur *protocol.GameStateDTO) map[string]any {
	changes := make(map[string]any)
	if !reflect.DeepEqual(prev.Seats, cur.Seats) {
		changes["seats"] = cur.Seats
	}
	if prev.DealerSeat != cur.DealerSeat {
		changes["dealer_seat"] = cur.DealerSeat
	}
	if prev.CurrentSeat != cur.CurrentSeat {
		changes["current_seat"] = cur.CurrentSeat
	}
	if prev.TrumpSuit != cur.TrumpSuit {
		changes["trump_suit"] = cur.TrumpSuit
	}
	if !reflect.DeepEqual(prev.Bets, cur.Bets) {
		changes["bets"] = cur.Bets
	}
	if !reflect.DeepEqual(prev.HighestBet, cur.HighestBet) {
		changes["highest_bet"] = cur.HighestBet
	}
	if !reflect.DeepEqual(prev.CurrentTrick, cur.CurrentTrick) {
		changes["current_trick"] = cur.CurrentTrick
	}
	if !reflect.DeepEqual(prev.PreviousTrick, cur.PreviousTrick) {
		changes["previous_trick"] = cur.PreviousTrick
	}
	if !reflect.DeepEqual(prev.TeamScores, cur.TeamScores) {
		changes["team_scores"] = cur.TeamScores
	}
	if prev.RoundNumber != cur.RoundNumber {
		changes["round_number"] = cur.RoundNumber
	}
	if !reflect.DeepEqual(prev.ReadySeats, cur.ReadySeats) {
		changes["ready_seats"] = cur.ReadySeats
	}
	if !reflect.DeepEqual(prev.RematchVotes, cur.RematchVotes) {
		changes["rematch_votes"] = cur.RematchVotes
	}
	return changes
}

// State 返回公开状态快照，供列表和欢迎消息使用
func (s *Session) State() *protocol.GameStateDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buildDTOLocked()
}

// schedulePersistLocked 安排一次去抖的持久化。连续变更在
// 去抖窗口内合并为一次写入，定时器到期后取最新快照落库。
func (s *Session) schedulePersistLocked() {
	if s.store == nil {
		return
	}
	s.timers.After(purposePersist, "", s.cfg.Timing.PersistDebounceDuration(), s.persist)
}

// persist 异步落库，失败只记日志不影响对局
func (s *Session) persist() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	s.mu.RUnlock()

	if err := s.store.SaveGame(context.Background(), snap); err != nil {
		log.Printf("⚠️ 对局 %s 保存失败: %v", s.ID, err)
	}
}

// Hand 返回指定座位的手牌副本
func (s *Session) Hand(seatName string) []protocol.CardInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, _ := s.seatByName(seatName)
	if seat == nil {
		return nil
	}
	return convert.CardsToInfos(seat.Hand)
}
