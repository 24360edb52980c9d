package session

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/protocol"
)

// Join 加入对局，占一个空座位。只允许在组队阶段加入，
// 断线玩家回到对局走 Reconnect，不走这里。
func (s *Session) Join(seatName, connID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTeamSelection {
		return apperrors.ErrGameStarted
	}
	if len(s.seats) >= card.NumSeats {
		return apperrors.ErrGameFull
	}
	if seatName == "" {
		return apperrors.ErrInvalidToken
	}
	if seat, _ := s.seatByName(seatName); seat != nil {
		return apperrors.ErrSeatTaken
	}

	seat := &Seat{
		Name:         seatName,
		ConnectionID: connID,
		TeamID:       s.smallerTeam(),
		Connected:    true,
	}
	s.seats = append(s.seats, seat)
	s.touch()
	s.timers.Cancel(purposeEmpty, "")
	if s.hostName == "" {
		s.hostName = seatName
	}

	log.Printf("👤 玩家 %s 加入对局 %s（队伍 %d）", seatName, s.ID, seat.TeamID)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		SeatName: seatName,
	}))
	s.broadcastState(false)
	return nil
}

// AddBot 房主补一个机器人座位（组队阶段的 bot-fill）
func (s *Session) AddBot(byName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTeamSelection {
		return apperrors.ErrGameStarted
	}
	if byName != s.hostName {
		return apperrors.ErrNotHost
	}
	if len(s.seats) >= card.NumSeats {
		return apperrors.ErrGameFull
	}

	seat := &Seat{
		Name:      s.nextBotName(),
		TeamID:    s.smallerTeam(),
		IsBot:     true,
		Connected: true,
	}
	s.seats = append(s.seats, seat)
	s.touch()

	log.Printf("🤖 机器人 %s 加入对局 %s（队伍 %d）", seat.Name, s.ID, seat.TeamID)

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgPlayerJoined, protocol.PlayerJoinedPayload{
		SeatName: seat.Name,
		IsBot:    true,
	}))
	s.broadcastState(false)
	return nil
}

// SelectTeam 选择队伍
func (s *Session) SelectTeam(seatName string, teamID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTeamSelection {
		return apperrors.ErrGameStarted
	}
	if teamID != 1 && teamID != 2 {
		return apperrors.ErrTeamUnbalanced
	}

	seat, _ := s.seatByName(seatName)
	if seat == nil {
		return apperrors.ErrSeatNotFound
	}

	seat.TeamID = teamID
	s.touch()
	s.broadcastState(false)
	return nil
}

// SwapPosition 与目标座位交换位置
func (s *Session) SwapPosition(seatName, targetName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTeamSelection {
		return apperrors.ErrGameStarted
	}

	_, i := s.seatByName(seatName)
	_, j := s.seatByName(targetName)
	if i == -1 || j == -1 {
		return apperrors.ErrSeatNotFound
	}

	s.seats[i], s.seats[j] = s.seats[j], s.seats[i]
	s.touch()
	s.broadcastState(false)
	return nil
}

// Start 开始游戏。要求 4 个座位且两队各两人，开局后重排座位
// 使两队交错落座（队友对面坐）。
func (s *Session) Start(seatName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseTeamSelection {
		return apperrors.ErrGameStarted
	}
	if seat, _ := s.seatByName(seatName); seat == nil {
		return apperrors.ErrNotInGame
	}
	if seatName != s.hostName {
		return apperrors.ErrNotHost
	}
	if len(s.seats) != card.NumSeats {
		return apperrors.ErrTeamUnbalanced
	}

	var team1, team2 []*Seat
	for _, seat := range s.seats {
		switch seat.TeamID {
		case 1:
			team1 = append(team1, seat)
		case 2:
			team2 = append(team2, seat)
		}
	}
	if len(team1) != 2 || len(team2) != 2 {
		return apperrors.ErrTeamUnbalanced
	}

	s.seats = []*Seat{team1[0], team2[0], team1[1], team2[1]}
	s.dealerIdx = rand.Intn(card.NumSeats)
	s.roundNumber = 0
	s.teamScores = map[int]int{1: 0, 2: 0}
	s.roundHistory = nil

	log.Printf("🎮 对局 %s 开始，庄家 %s", s.ID, s.seats[s.dealerIdx].Name)

	s.startRoundLocked()
	return nil
}

// smallerTeam 返回人数较少的队伍，持锁调用
func (s *Session) smallerTeam() int {
	count := map[int]int{}
	for _, seat := range s.seats {
		count[seat.TeamID]++
	}
	if count[2] < count[1] {
		return 2
	}
	return 1
}

// nextBotName 生成不冲突的机器人座位名，持锁调用
func (s *Session) nextBotName() string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("Bot %d", i)
		if seat, _ := s.seatByName(name); seat == nil {
			return name
		}
	}
}

// markDisconnectedLocked 标记座位断线并安排宽限定时器，持锁调用
func (s *Session) markDisconnectedLocked(seat *Seat) {
	seat.Connected = false
	seat.ConnectionID = ""
	seat.DisconnectedAt = time.Now()

	grace := s.cfg.Timing.ReconnectGraceDuration()

	s.sink.Broadcast(s.ID, protocol.MustNewMessage(protocol.MsgPlayerDisconnected, protocol.PlayerConnStatusPayload{
		SeatName:     seat.Name,
		GraceSeconds: int(grace.Seconds()),
	}))

	// 宽限到期仍未重连，等同主动离开
	name := seat.Name
	s.timers.After(purposeDisconnect, name, grace, func() {
		s.onDisconnectGrace(name)
	})

	s.scheduleEmptyCheckLocked()
	s.broadcastState(false)
}
