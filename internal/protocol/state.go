package protocol

// GameStateDTO 对局公开状态（不含任何人的手牌），
// 既是全量广播的载荷，也是增量广播做字段级对比的基线。
type GameStateDTO struct {
	GameID        string          `json:"game_id"`
	Phase         string          `json:"phase"` // team_selection/betting/playing/scoring/game_over
	Seats         []SeatInfo      `json:"seats"`
	DealerSeat    string          `json:"dealer_seat"`
	CurrentSeat   string          `json:"current_seat"`
	TrumpSuit     string          `json:"trump_suit"` // 空串表示未定或无主
	Bets          []BetInfo       `json:"bets"`
	HighestBet    *BetInfo        `json:"highest_bet"`
	CurrentTrick  []TrickPlayInfo `json:"current_trick"`
	PreviousTrick []TrickPlayInfo `json:"previous_trick"`
	TeamScores    map[int]int     `json:"team_scores"`
	RoundNumber   int             `json:"round_number"`
	ReadySeats    []string        `json:"ready_seats"`
	RematchVotes  []string        `json:"rematch_votes"`
}

// SeatInfo 座位的公开信息
type SeatInfo struct {
	SeatName  string `json:"seat_name"`
	TeamID    int    `json:"team_id"`
	HandCount int    `json:"hand_count"`
	TricksWon int    `json:"tricks_won"`
	PointsWon int    `json:"points_won"`
	IsBot     bool   `json:"is_bot"`
	Connected bool   `json:"connected"`
}

// BetInfo 一次叫分的公开信息
type BetInfo struct {
	SeatName     string `json:"seat_name"`
	Amount       int    `json:"amount"` // skip 时为 0
	Skipped      bool   `json:"skipped"`
	WithoutTrump bool   `json:"without_trump"`
}

// GameUpdatedPayload 全量状态广播
type GameUpdatedPayload struct {
	State *GameStateDTO `json:"state"`
}

// GameUpdatedDeltaPayload 增量状态广播，键为 GameStateDTO 的 JSON 字段名
type GameUpdatedDeltaPayload struct {
	GameID  string         `json:"game_id"`
	Changes map[string]any `json:"changes"`
}

// DealHandPayload 发给单个座位的私有手牌
type DealHandPayload struct {
	SeatName string     `json:"seat_name"`
	Hand     []CardInfo `json:"hand"`
}
