package session

import (
	"log"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/protocol"
)

// PlaceBet 处理叫分
func (s *Session) PlaceBet(seatName string, amount int, skip, withoutTrump bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placeBetLocked(seatName, amount, skip, withoutTrump)
}

// placeBetLocked 叫分的核心逻辑，持锁调用。
// 每个座位每轮只表态一次，四家都表态后统一结算最高叫分。
func (s *Session) placeBetLocked(seatName string, amount int, skip, withoutTrump bool) error {
	if s.phase != PhaseBetting {
		return apperrors.ErrWrongPhase
	}

	seat, idx := s.seatByName(seatName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}
	if idx != s.currentIdx {
		return apperrors.ErrNotYourTurn
	}
	for _, b := range s.bets {
		if b.SeatName == seatName {
			return apperrors.ErrDuplicateAction
		}
	}

	if !skip {
		if amount < s.cfg.Game.MinBet || amount > s.cfg.Game.MaxBet {
			return apperrors.ErrInvalidBet
		}
		// 必须压过当前最高叫分，否则只能跳过；
		// 压制规则与结算一致，庄家持平即算压过（跟叫特权）
		if best := s.highestBetLocked(); best != nil {
			cand := Bet{SeatName: seatName, Amount: amount, WithoutTrump: withoutTrump}
			if !s.betBeats(&cand, best) {
				return apperrors.ErrInvalidBet
			}
		}
	} else {
		amount, withoutTrump = 0, false
	}

	s.clearTurnLocked(seatName)
	s.bets = append(s.bets, Bet{
		SeatName:     seatName,
		Amount:       amount,
		Skipped:      skip,
		WithoutTrump: withoutTrump,
	})
	s.touch()

	if len(s.bets) < card.NumSeats {
		s.advanceSeatLocked()
		s.broadcastState(false)
		s.armTurnLocked()
		return nil
	}

	s.settleBettingLocked()
	return nil
}

// settleBettingLocked 四家表态完毕后结算叫分，持锁调用。
// 最高叫分的判定优先级：数额 → 无主 → 庄家跟叫（庄家只需持平即赢）。
// 四家全跳过则清空重新叫，从庄家下家开始。
func (s *Session) settleBettingLocked() {
	winner := s.highestBetLocked()

	if winner == nil {
		log.Printf("🔄 对局 %s 四家全部跳过，重新叫分", s.ID)
		s.bets = nil
		s.currentIdx = (s.dealerIdx + 1) % card.NumSeats
		s.touch()
		s.broadcastState(false)
		s.armTurnLocked()
		return
	}

	s.highestBet = winner
	_, idx := s.seatByName(winner.SeatName)
	s.currentIdx = idx
	s.phase = PhasePlaying
	s.touch()

	log.Printf("💰 对局 %s 叫分结束：%s 以 %d 拿下（无主=%v），进入出牌阶段",
		s.ID, winner.SeatName, winner.Amount, winner.WithoutTrump)

	s.broadcastState(false)
	s.armTurnLocked()
}

// highestBetLocked 计算最高叫分，全跳过时返回 nil，持锁调用
func (s *Session) highestBetLocked() *Bet {
	var best *Bet
	for i := range s.bets {
		b := &s.bets[i]
		if b.Skipped {
			continue
		}
		if best == nil || s.betBeats(b, best) {
			best = b
		}
	}
	if best == nil {
		return nil
	}
	cp := *best
	return &cp
}

// betBeats 判断 a 是否压过 b：数额高者胜；数额相同时无主胜有主；
// 数额与无主都相同时庄家胜（庄家跟叫特权）
func (s *Session) betBeats(a, b *Bet) bool {
	if a.Amount != b.Amount {
		return a.Amount > b.Amount
	}
	if a.WithoutTrump != b.WithoutTrump {
		return a.WithoutTrump
	}
	return a.SeatName == s.seats[s.dealerIdx].Name
}

// advanceSeatLocked 叫分阶段轮转到下一个座位，持锁调用
func (s *Session) advanceSeatLocked() {
	s.currentIdx = (s.currentIdx + 1) % card.NumSeats
}

// forcedBetLocked 叫分阶段的超时默认动作，持锁调用：
// 尚无有效叫分时庄家被强制叫最低分，其余情况一律强制跳过
func (s *Session) forcedBetLocked(seatName string) {
	isDealer := s.seats[s.dealerIdx].Name == seatName
	noValidBet := s.highestBetLocked() == nil

	if isDealer && noValidBet {
		amount := s.cfg.Game.MinBet
		log.Printf("⏰ 对局 %s 庄家 %s 超时，强制叫最低分 %d", s.ID, seatName, amount)
		s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgAutoActionTaken, protocol.AutoActionTakenPayload{
			SeatName: seatName,
			Action:   "forced_bet",
			Amount:   amount,
		}))
		_ = s.placeBetLocked(seatName, amount, false, false)
		return
	}

	log.Printf("⏰ 对局 %s 玩家 %s 叫分超时，强制跳过", s.ID, seatName)
	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgAutoActionTaken, protocol.AutoActionTakenPayload{
		SeatName: seatName,
		Action:   "forced_skip",
	}))
	_ = s.placeBetLocked(seatName, 0, true, false)
}
