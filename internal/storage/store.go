package storage

import "context"

// Store 对局持久化接口。写入相对内存主本是尽力而为：
// 失败只记日志，绝不回滚内存状态。
type Store interface {
	// LoadGame 加载对局快照，不存在时返回 (nil, nil)
	LoadGame(ctx context.Context, gameID string) (*GameSnapshot, error)
	// SaveGame 保存对局快照
	SaveGame(ctx context.Context, snapshot *GameSnapshot) error
	// DeleteGame 删除对局快照
	DeleteGame(ctx context.Context, gameID string) error
	// AppendFinishedGame 追加已结束对局的摘要
	AppendFinishedGame(ctx context.Context, summary *FinishedGame) error
	// LoadActiveSnapshots 启动恢复：加载全部未结束对局的快照
	LoadActiveSnapshots(ctx context.Context) ([]*GameSnapshot, error)
}

// CardData 牌（用于序列化）
type CardData struct {
	Suit string `json:"suit"`
	Rank int    `json:"rank"`
}

// PlayData 一墩中的一手牌（用于序列化）
type PlayData struct {
	SeatName string   `json:"seat_name"`
	Card     CardData `json:"card"`
	Order    int      `json:"order"`
}

// SeatData 座位数据（用于序列化）
type SeatData struct {
	Name        string     `json:"name"`
	TeamID      int        `json:"team_id"`
	Hand        []CardData `json:"hand"`
	TricksWon   int        `json:"tricks_won"`
	PointsWon   int        `json:"points_won"`
	IsBot       bool       `json:"is_bot"`
	Connected   bool       `json:"connected"`
	Ready       bool       `json:"ready"`
	RematchVote bool       `json:"rematch_vote"`
}

// BetData 叫分数据（用于序列化）
type BetData struct {
	SeatName     string `json:"seat_name"`
	Amount       int    `json:"amount"`
	Skipped      bool   `json:"skipped"`
	WithoutTrump bool   `json:"without_trump"`
}

// RoundData 一局存档（用于序列化）
type RoundData struct {
	RoundNumber  int            `json:"round_number"`
	BettorSeat   string         `json:"bettor_seat"`
	BettorTeam   int            `json:"bettor_team"`
	BetAmount    int            `json:"bet_amount"`
	WithoutTrump bool           `json:"without_trump"`
	Succeeded    bool           `json:"succeeded"`
	Deltas       map[int]int    `json:"deltas"`
	Captured     map[int]int    `json:"captured"`
	SeatTricks   map[string]int `json:"seat_tricks"`
	SeatPoints   map[string]int `json:"seat_points"`
}

// GameSnapshot 对局快照（用于 Redis 序列化与启动恢复）
type GameSnapshot struct {
	ID            string      `json:"id"`
	Phase         int         `json:"phase"`
	Seats         []SeatData  `json:"seats"`
	DealerIdx     int         `json:"dealer_idx"`
	CurrentIdx    int         `json:"current_idx"`
	TrumpSuit     string      `json:"trump_suit,omitempty"`
	Bets          []BetData   `json:"bets"`
	HighestBet    *BetData    `json:"highest_bet,omitempty"`
	CurrentTrick  []PlayData  `json:"current_trick"`
	PreviousTrick []PlayData  `json:"previous_trick"`
	TricksPlayed  int         `json:"tricks_played"`
	TeamScores    map[int]int `json:"team_scores"`
	RoundNumber   int         `json:"round_number"`
	RoundHistory  []RoundData `json:"round_history"`
	CreatedAt     int64       `json:"created_at"`
	UpdatedAt     int64       `json:"updated_at"`
}

// FinishedGame 已结束对局的摘要
type FinishedGame struct {
	GameID     string      `json:"game_id"`
	WinnerTeam int         `json:"winner_team"`
	TeamScores map[int]int `json:"team_scores"`
	Rounds     int         `json:"rounds"`
	FinishedAt int64       `json:"finished_at"`
}
