package session

import (
	"context"
	"log"
	"time"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/protocol/convert"
	"github.com/palemoky/tarneeb41/internal/storage"
)

// startRoundLocked 开始新一局：洗牌发牌，进入叫分阶段，持锁调用
func (s *Session) startRoundLocked() {
	s.roundNumber++

	deck := card.NewDeck()
	deck.Shuffle()
	hands := deck.Deal()

	for i, seat := range s.seats {
		seat.Hand = hands[i]
		seat.TricksWon = 0
		seat.PointsWon = 0
		seat.Ready = false
	}

	s.bets = nil
	s.highestBet = nil
	s.trump = nil
	s.currentTrick = nil
	s.previousTrick = nil
	s.tricksPlayed = 0
	s.phase = PhaseBetting
	s.currentIdx = (s.dealerIdx + 1) % card.NumSeats
	s.turnEpoch++
	s.touch()

	dealer := s.seats[s.dealerIdx]
	current := s.seats[s.currentIdx]

	log.Printf("🆕 对局 %s 第 %d 局开始，庄家 %s，%s 先叫", s.ID, s.roundNumber, dealer.Name, current.Name)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgRoundStarted, protocol.RoundStartedPayload{
		RoundNumber: s.roundNumber,
		DealerSeat:  dealer.Name,
		CurrentSeat: current.Name,
	}))

	// 手牌只私发给各自的连接，公开状态里只有张数
	for _, seat := range s.seats {
		if seat.ConnectionID != "" {
			s.sink.SendTo(seat.ConnectionID, protocol.MustNewMessage(protocol.MsgDealHand, protocol.DealHandPayload{
				SeatName: seat.Name,
				Hand:     convert.CardsToInfos(seat.Hand),
			}))
		}
	}

	s.broadcastState(false)
	s.armTurnLocked()
}

// enterScoringLocked 进入结算阶段，等四家准备或超时自动开下一局，持锁调用
func (s *Session) enterScoringLocked() {
	s.phase = PhaseScoring
	s.turnEpoch++
	s.touch()

	for _, seat := range s.seats {
		seat.Ready = seat.IsBot // 机器人天然准备好
	}

	s.broadcastState(false)

	epoch := s.turnEpoch
	s.timers.After(purposeScoring, "", s.cfg.Timing.ScoringAdvanceDuration(), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.phase != PhaseScoring || s.turnEpoch != epoch {
			return
		}
		log.Printf("⏰ 对局 %s 结算阶段超时，自动开始下一局", s.ID)
		s.nextRoundLocked()
	})
}

// PlayerReady 结算阶段的准备。四家都准备好立即开下一局，不等超时。
func (s *Session) PlayerReady(seatName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseScoring {
		return apperrors.ErrWrongPhase
	}

	seat, _ := s.seatByName(seatName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}

	seat.Ready = true
	s.touch()
	s.broadcastState(false)

	for _, st := range s.seats {
		if !st.Ready {
			return nil
		}
	}
	s.nextRoundLocked()
	return nil
}

// nextRoundLocked 轮转庄家并开始下一局，持锁调用
func (s *Session) nextRoundLocked() {
	s.timers.Cancel(purposeScoring, "")
	s.dealerIdx = (s.dealerIdx + 1) % card.NumSeats
	s.startRoundLocked()
}

// enterGameOverLocked 对局结束，持锁调用。
// 取消全部未决定时器，广播结果，摘要落库（尽力而为）。
func (s *Session) enterGameOverLocked(winnerTeam int) {
	s.phase = PhaseGameOver
	s.turnEpoch++
	s.touch()
	s.timers.CancelAll()

	for _, seat := range s.seats {
		seat.RematchVote = seat.IsBot
	}

	log.Printf("🎉 对局 %s 结束，队伍 %d 获胜，比分 %v", s.ID, winnerTeam, s.teamScores)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgGameOver, protocol.GameOverPayload{
		WinnerTeam: winnerTeam,
		TeamScores: copyTeamScores(s.teamScores),
		Rounds:     s.roundNumber,
	}))
	s.broadcastState(false)

	if s.store != nil {
		summary := &storage.FinishedGame{
			GameID:     s.ID,
			WinnerTeam: winnerTeam,
			TeamScores: copyTeamScores(s.teamScores),
			Rounds:     s.roundNumber,
			FinishedAt: time.Now().Unix(),
		}
		go func() {
			if err := s.store.AppendFinishedGame(context.Background(), summary); err != nil {
				log.Printf("记录对局摘要失败: %v", err)
			}
		}()
	}
}

// VoteRematch 投票重赛。全票通过后回到组队阶段，
// 保留座位与队伍，清空比分与历史。
func (s *Session) VoteRematch(seatName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseGameOver {
		return apperrors.ErrWrongPhase
	}

	seat, _ := s.seatByName(seatName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}

	seat.RematchVote = true
	s.touch()
	s.broadcastState(false)

	for _, st := range s.seats {
		if !st.RematchVote {
			return nil
		}
	}
	s.resetForRematchLocked()
	return nil
}

// resetForRematchLocked 全票重赛后回到组队阶段，持锁调用。
// 保留座位与队伍，清空比分与历史。
func (s *Session) resetForRematchLocked() {
	log.Printf("🔄 对局 %s 全票重赛", s.ID)

	s.teamScores = map[int]int{1: 0, 2: 0}
	s.roundNumber = 0
	s.roundHistory = nil
	s.bets = nil
	s.highestBet = nil
	s.trump = nil
	s.currentTrick = nil
	s.previousTrick = nil
	s.tricksPlayed = 0
	for _, st := range s.seats {
		st.Hand = nil
		st.TricksWon = 0
		st.PointsWon = 0
		st.Ready = false
		st.RematchVote = false
	}
	s.phase = PhaseTeamSelection
	s.turnEpoch++
	s.broadcastState(false)
}

// Leave 主动离开。组队阶段直接撤掉座位；开局后座位原地换成
// 机器人，名下已有的叫分和出牌记录一概不动。
func (s *Session) Leave(seatName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, idx := s.seatByName(seatName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}

	if s.phase == PhaseTeamSelection {
		s.removeSeatLocked(idx, false)
		return nil
	}

	s.convertToBotLocked(seat, false)
	return nil
}

// Kick 房主把人踢出对局，后果与主动离开一致
func (s *Session) Kick(byName, targetName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if byName != s.hostName {
		return apperrors.ErrNotHost
	}
	if byName == targetName {
		return apperrors.ErrNotHost
	}

	seat, idx := s.seatByName(targetName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}

	log.Printf("🚫 对局 %s 玩家 %s 被 %s 踢出", s.ID, targetName, byName)

	if s.phase == PhaseTeamSelection {
		s.removeSeatLocked(idx, true)
		return nil
	}

	s.convertToBotLocked(seat, true)
	return nil
}

// ReplaceWithBot 把一个人类座位换成机器人。
// 本人或房主可以操作，任何阶段都允许。
func (s *Session) ReplaceWithBot(byName, targetName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if byName != targetName && byName != s.hostName {
		return apperrors.ErrNotHost
	}

	seat, _ := s.seatByName(targetName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}
	if seat.IsBot {
		return apperrors.ErrIsABot
	}

	s.convertToBotLocked(seat, false)
	return nil
}

// TakeOverBot 接管一个机器人座位。座位名保持不变，
// 名下的叫分和出牌记录因此天然延续。
func (s *Session) TakeOverBot(targetName, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, _ := s.seatByName(targetName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}
	if !seat.IsBot {
		return apperrors.ErrNotABot
	}

	seat.IsBot = false
	seat.ConnectionID = connID
	seat.Connected = true
	seat.DisconnectedAt = time.Time{}
	s.touch()
	s.timers.Cancel(purposeEmpty, "")
	if s.hostName == "" {
		s.hostName = seat.Name
	}

	log.Printf("🧑 对局 %s 座位 %s 由真人接管", s.ID, targetName)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgPlayerReconnected, protocol.PlayerConnStatusPayload{
		SeatName: seat.Name,
	}))

	// 接管进行中的对局时把手牌私发给新连接
	if len(seat.Hand) > 0 {
		s.sink.SendTo(connID, protocol.MustNewMessage(protocol.MsgDealHand, protocol.DealHandPayload{
			SeatName: seat.Name,
			Hand:     convert.CardsToInfos(seat.Hand),
		}))
	}

	s.broadcastState(true)
	return nil
}

// removeSeatLocked 组队阶段撤掉座位，持锁调用
func (s *Session) removeSeatLocked(idx int, kicked bool) {
	seat := s.seats[idx]
	s.seats = append(s.seats[:idx], s.seats[idx+1:]...)
	s.timers.CancelSeat(seat.Name)
	s.touch()

	log.Printf("👋 玩家 %s 离开对局 %s", seat.Name, s.ID)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		SeatName: seat.Name,
		Kicked:   kicked,
	}))

	if s.hostName == seat.Name {
		s.transferHostLocked()
	}

	s.scheduleEmptyCheckLocked()
	s.broadcastState(false)
}

// convertToBotLocked 人类座位原地转机器人，持锁调用。
// 座位名不变，已归属该座位的墩和叫分记录不受任何影响。
func (s *Session) convertToBotLocked(seat *Seat, kicked bool) {
	seat.IsBot = true
	seat.Connected = true
	seat.ConnectionID = ""
	seat.DisconnectedAt = time.Time{}
	s.timers.Cancel(purposeDisconnect, seat.Name)
	s.touch()

	log.Printf("🤖 对局 %s 座位 %s 转为机器人托管", s.ID, seat.Name)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgPlayerLeft, protocol.PlayerLeftPayload{
		SeatName: seat.Name,
		Kicked:   kicked,
	}))

	if s.hostName == seat.Name {
		s.transferHostLocked()
	}

	// 正轮到这个座位时，重武装成机器人的短延迟动作；
	// 一墩已满等待清墩时不动，清墩回调自会接上
	_, idx := s.seatByName(seat.Name)
	if (s.phase == PhaseBetting || s.phase == PhasePlaying) &&
		idx == s.currentIdx && len(s.currentTrick) < card.NumSeats {
		s.clearTurnLocked(seat.Name)
		s.armTurnLocked()
	}

	// 结算/终局阶段的标记代为补上，避免卡住全员一致的等待
	switch s.phase {
	case PhaseScoring:
		if !seat.Ready {
			seat.Ready = true
			allReady := true
			for _, st := range s.seats {
				if !st.Ready {
					allReady = false
					break
				}
			}
			if allReady {
				s.nextRoundLocked()
				return
			}
		}
	case PhaseGameOver:
		seat.RematchVote = true
		allVoted := true
		for _, st := range s.seats {
			if !st.RematchVote {
				allVoted = false
				break
			}
		}
		if allVoted {
			s.resetForRematchLocked()
			s.scheduleEmptyCheckLocked()
			return
		}
	}

	s.scheduleEmptyCheckLocked()
	s.broadcastState(false)
}

// transferHostLocked 房主转移给下一个人类座位，没有则悬空，持锁调用
func (s *Session) transferHostLocked() {
	s.hostName = ""
	for _, seat := range s.seats {
		if !seat.IsBot {
			s.hostName = seat.Name
			return
		}
	}
}

// scheduleEmptyCheckLocked 不剩任何人类座位时安排删除宽限，持锁调用。
// 掉线但仍占座的真人不算离开，他们由各自的断线宽限负责，
// 宽限耗尽转为机器人后才会触发这里。
func (s *Session) scheduleEmptyCheckLocked() {
	for _, seat := range s.seats {
		if !seat.IsBot {
			return
		}
	}

	s.timers.After(purposeEmpty, "", s.cfg.Timing.EmptyGraceDuration(), func() {
		s.mu.Lock()
		for _, seat := range s.seats {
			if !seat.IsBot {
				s.mu.Unlock()
				return
			}
		}
		s.mu.Unlock()

		log.Printf("🧹 对局 %s 已无真人在线，销毁", s.ID)
		if s.onEmpty != nil {
			s.onEmpty(s.ID)
		}
	})
}

// onDisconnectGrace 断线宽限到期，后果与主动离开一致
func (s *Session) onDisconnectGrace(seatName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, idx := s.seatByName(seatName)
	if seat == nil || seat.Connected || seat.IsBot {
		return
	}

	log.Printf("⏰ 对局 %s 玩家 %s 断线宽限到期", s.ID, seatName)

	if s.phase == PhaseTeamSelection {
		s.removeSeatLocked(idx, false)
		return
	}
	s.convertToBotLocked(seat, false)
}
