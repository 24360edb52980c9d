package session

import (
	"log"
	"time"

	"github.com/palemoky/tarneeb41/internal/game/bot"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/protocol/convert"
)

// 机器人座位的行动延迟，略作停顿让节奏自然
const botActDelay = 1 * time.Second

// armTurnLocked 为当前座位武装回合时钟，持锁调用。
// 人类座位同时武装截止定时器和每秒倒计时广播；机器人座位只安排
// 一个短延迟后的默认动作。定时器以座位名为键，断线重连不受影响。
func (s *Session) armTurnLocked() {
	if s.phase != PhaseBetting && s.phase != PhasePlaying {
		return
	}

	seat := s.seats[s.currentIdx]
	name := seat.Name
	epoch := s.turnEpoch

	if seat.IsBot {
		s.timers.After(purposeTurn, name, botActDelay, func() {
			s.onTurnDeadline(name, epoch)
		})
		return
	}

	timeout := s.cfg.Timing.TurnTimeoutDuration()
	warnAt := int(s.cfg.Timing.WarningRemainingDuration().Seconds())
	deadline := time.Now().Add(timeout)

	s.timers.After(purposeTurn, name, timeout, func() {
		s.onTurnDeadline(name, epoch)
	})

	// 倒计时广播只读固定值，不碰会话状态，无需持锁
	s.timers.Every(purposeCountdown, name, time.Second, func() {
		remaining := int(time.Until(deadline).Round(time.Second).Seconds())
		if remaining < 0 {
			remaining = 0
		}

		s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgTimeoutCountdown, protocol.TimeoutCountdownPayload{
			SeatName:  name,
			Remaining: remaining,
		}))
		if remaining == warnAt {
			s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgTimeoutWarning, protocol.TimeoutWarningPayload{
				SeatName:  name,
				Remaining: remaining,
			}))
		}
		if remaining <= 0 {
			s.timers.Cancel(purposeCountdown, name)
		}
	})
}

// clearTurnLocked 清除一个座位的回合时钟，持锁调用。
// 截止定时器和配对的倒计时必须一起清，否则会留下重复计时。
// 同时推进 turnEpoch，使在途的超时回调全部作废。
func (s *Session) clearTurnLocked(seatName string) {
	s.timers.Cancel(purposeTurn, seatName)
	s.timers.Cancel(purposeCountdown, seatName)
	s.turnEpoch++
}

// onTurnDeadline 回合截止回调。座位在本回合已行动过时必须是
// 空操作：与真人指令竞速，谁先看到仍然有效的（座位，阶段）谁赢。
func (s *Session) onTurnDeadline(seatName string, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.turnEpoch != epoch {
		return // 座位已经抢先行动
	}
	if s.phase != PhaseBetting && s.phase != PhasePlaying {
		return
	}
	if s.seats[s.currentIdx].Name != seatName {
		return
	}

	switch s.phase {
	case PhaseBetting:
		s.forcedBetLocked(seatName)
	case PhasePlaying:
		s.autoPlayLocked(seatName)
	}
}

// autoPlayLocked 出牌阶段的超时默认动作：交给可插拔的选牌策略，
// 像真人一样打出去，持锁调用
func (s *Session) autoPlayLocked(seatName string) {
	seat, _ := s.seatByName(seatName)
	if seat == nil || len(seat.Hand) == 0 {
		return
	}

	c := s.strategy.SelectCard(bot.View{
		Hand:  seat.Hand,
		Trick: s.currentTrick,
		Trump: s.trump,
		Order: s.order,
	})

	if !seat.IsBot {
		log.Printf("⏰ 对局 %s 玩家 %s 出牌超时，代打 %s", s.ID, seatName, c)
	}

	info := convert.CardToInfo(c)
	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgAutoActionTaken, protocol.AutoActionTakenPayload{
		SeatName: seatName,
		Action:   "auto_play",
		Card:     &info,
	}))

	if err := s.playCardLocked(seatName, c); err != nil {
		log.Printf("代打失败: %v", err)
	}
}
