package session

import (
	"log"
	"time"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/protocol/convert"
)

// MarkDisconnected 标记一个连接掉线。座位只标记不移除，
// 等宽限到期才有后果。传入的连接 ID 已经不是座位当前绑定的
// 连接时（掉线通知与重连竞速），这里是空操作——最新绑定的
// 连接永远是赢家。
func (s *Session) MarkDisconnected(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat := s.seatByConnection(connID)
	if seat == nil || seat.IsBot {
		return
	}

	log.Printf("📴 对局 %s 玩家 %s 掉线", s.ID, seat.Name)
	s.markDisconnectedLocked(seat)
}

// Reconnect 重连：把座位重新绑定到新连接。取消断线宽限和
// 空房间删除定时器；回合定时器以座位名为键，掉线期间持续计时，
// 重连后原样继续。返回公开状态和本座位手牌，供欢迎消息使用。
func (s *Session) Reconnect(seatName, connID string) (*protocol.GameStateDTO, []protocol.CardInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat, _ := s.seatByName(seatName)
	if seat == nil {
		return nil, nil, apperrors.ErrSeatNotFound
	}
	if seat.IsBot {
		// 宽限已过，座位已被机器人接管，旧令牌不再有效
		return nil, nil, apperrors.ErrInvalidToken
	}

	seat.ConnectionID = connID
	seat.Connected = true
	seat.DisconnectedAt = time.Time{}
	s.timers.Cancel(purposeDisconnect, seatName)
	s.timers.Cancel(purposeEmpty, "")
	s.touch()

	log.Printf("📶 对局 %s 玩家 %s 重连", s.ID, seatName)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgPlayerReconnected, protocol.PlayerConnStatusPayload{
		SeatName: seatName,
	}))
	s.broadcastState(false)

	return s.buildDTOLocked(), convert.CardsToInfos(seat.Hand), nil
}

// SeatNameByConnection 返回连接当前绑定的座位名，便于传输层做掉线路由
func (s *Session) SeatNameByConnection(connID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seat := s.seatByConnection(connID)
	if seat == nil {
		return "", false
	}
	return seat.Name, true
}

// HasSeat 座位是否存在
func (s *Session) HasSeat(seatName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seat, _ := s.seatByName(seatName)
	return seat != nil
}

// Joinable 是否还能加入新玩家
func (s *Session) Joinable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase == PhaseTeamSelection && len(s.seats) < card.NumSeats
}
