package session

import (
	"sync"
	"time"

	"github.com/palemoky/tarneeb41/internal/config"
	"github.com/palemoky/tarneeb41/internal/game/bot"
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/game/trick"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/storage"
)

// Phase 对局阶段
type Phase int

const (
	PhaseTeamSelection Phase = iota
	PhaseBetting
	PhasePlaying
	PhaseScoring
	PhaseGameOver
)

// phaseNames 阶段的线上名称
var phaseNames = map[Phase]string{
	PhaseTeamSelection: "team_selection",
	PhaseBetting:       "betting",
	PhasePlaying:       "playing",
	PhaseScoring:       "scoring",
	PhaseGameOver:      "game_over",
}

func (p Phase) String() string {
	return phaseNames[p]
}

// Seat 座位：以名字为持久主键，连接 ID 可随重连更换。
// 游戏逻辑只认名字，永远不用连接 ID 做查找。
type Seat struct {
	Name           string
	ConnectionID   string // 当前绑定的连接，可为空
	TeamID         int    // 1 或 2，0 表示未选
	Hand           []card.Card
	TricksWon      int
	PointsWon      int
	IsBot          bool
	Ready          bool // 结算阶段的准备标记
	RematchVote    bool
	Connected      bool
	DisconnectedAt time.Time
}

// Bet 一次叫分。每个座位每轮叫分至多表态一次。
type Bet struct {
	SeatName     string
	Amount       int // Skipped 时为 0
	Skipped      bool
	WithoutTrump bool
}

// RoundRecord 一局的只读存档，结算后追加，不再修改
type RoundRecord struct {
	RoundNumber  int
	BettorSeat   string
	BettorTeam   int
	BetAmount    int
	WithoutTrump bool
	Succeeded    bool
	Deltas       map[int]int
	Captured     map[int]int
	SeatTricks   map[string]int
	SeatPoints   map[string]int
}

// EventSink 对局事件的出口，由传输层实现
type EventSink interface {
	// Broadcast 发给对局内全部在线连接
	Broadcast(gameID string, msg *protocol.Message)
	// SendTo 发给指定连接
	SendTo(connectionID string, msg *protocol.Message)
}

// Session 一个对局的唯一内存主本。所有变更经 mu 串行化，
// 处理器内不做任何阻塞等待，展示延迟走 scheduler 的延时回调。
type Session struct {
	ID        string
	CreatedAt time.Time

	phase         Phase
	hostName      string  // 房主座位名，踢人等操作需要
	seats         []*Seat // 按座位顺序
	dealerIdx     int
	currentIdx    int
	trump         *card.Suit
	bets          []Bet
	highestBet    *Bet
	currentTrick  []trick.Play
	previousTrick []trick.Play
	tricksPlayed  int
	teamScores    map[int]int
	roundNumber   int
	roundHistory  []RoundRecord

	// turnEpoch 在每次回合被清除或重新武装时自增，
	// 超时回调据此判断自己是否已经过期（幂等保护）
	turnEpoch uint64

	cfg      *config.Config
	order    *card.OrderTable
	bonuses  card.BonusTable
	strategy bot.Strategy
	store    storage.Store
	sink     EventSink

	timers *scheduler

	// onEmpty 在空置宽限到期时由 Registry 注入的删除回调
	onEmpty func(gameID string)

	// 增量广播基线
	lastSnapshot *protocol.GameStateDTO

	lastActivity time.Time

	mu sync.RWMutex
}

// New 创建对局
func New(id string, cfg *config.Config, strategy bot.Strategy, store storage.Store, sink EventSink) *Session {
	return &Session{
		ID:           id,
		CreatedAt:    time.Now(),
		phase:        PhaseTeamSelection,
		seats:        make([]*Seat, 0, card.NumSeats),
		teamScores:   map[int]int{1: 0, 2: 0},
		cfg:          cfg,
		order:        card.DefaultOrder(),
		bonuses:      card.NewBonusTable(cfg.Game.BonusCardPoints, cfg.Game.PenaltyCardPoints),
		strategy:     strategy,
		store:        store,
		sink:         sink,
		timers:       newScheduler(),
		lastActivity: time.Now(),
	}
}

// SetOnEmpty 注册空置删除回调
func (s *Session) SetOnEmpty(fn func(gameID string)) {
	s.onEmpty = fn
}

// Phase 返回当前阶段
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SeatCount 返回已占用的座位数
func (s *Session) SeatCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seats)
}

// LastActivity 返回最后一次被接受操作的时间
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// seatByName 按名字查座位，持锁调用
func (s *Session) seatByName(name string) (*Seat, int) {
	for i, seat := range s.seats {
		if seat.Name == name {
			return seat, i
		}
	}
	return nil, -1
}

// seatByConnection 按连接 ID 查座位，仅供传输层入口使用
func (s *Session) seatByConnection(connID string) *Seat {
	for _, seat := range s.seats {
		if seat.ConnectionID == connID {
			return seat
		}
	}
	return nil
}

// touch 记录活跃时间，持锁调用
func (s *Session) touch() {
	s.lastActivity = time.Now()
}

// Close 终止对局，取消全部未决定时器
func (s *Session) Close() {
	s.timers.CancelAll()
}
