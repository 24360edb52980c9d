package protocol

// CardInfo 牌的线上表示
type CardInfo struct {
	Suit string `json:"suit"`
	Rank int    `json:"rank"`
}

// --- 客户端请求 Payloads ---

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	Token string `json:"token"` // 重连令牌
}

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateGamePayload 创建牌局请求
type CreateGamePayload struct {
	SeatName string `json:"seat_name"` // 创建者座位名
}

// JoinGamePayload 加入牌局请求
type JoinGamePayload struct {
	GameID   string `json:"game_id"`
	SeatName string `json:"seat_name"`
}

// SelectTeamPayload 选择队伍请求
type SelectTeamPayload struct {
	TeamID int `json:"team_id"` // 1 或 2
}

// SwapPositionPayload 交换座位请求
type SwapPositionPayload struct {
	TargetSeat string `json:"target_seat"` // 要交换的座位名
}

// PlaceBetPayload 叫分请求
type PlaceBetPayload struct {
	Amount       int  `json:"amount"`        // 叫分，0 表示不叫
	Skip         bool `json:"skip"`          // 是否跳过
	WithoutTrump bool `json:"without_trump"` // 无主叫分（得失翻倍）
}

// PlayCardPayload 出牌请求
type PlayCardPayload struct {
	Card CardInfo `json:"card"`
}

// KickPlayerPayload 踢人请求
type KickPlayerPayload struct {
	SeatName string `json:"seat_name"`
}

// ReplaceBotPayload 换成机器人请求
type ReplaceBotPayload struct {
	SeatName string `json:"seat_name"`
}

// TakeOverBotPayload 接管机器人请求。座位名不变，
// 接管者沿用机器人座位的名字。
type TakeOverBotPayload struct {
	SeatName string `json:"seat_name"` // 要接管的机器人座位
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	ConnectionID string `json:"connection_id"`
}

// GameCreatedPayload 牌局创建成功响应
type GameCreatedPayload struct {
	GameID         string `json:"game_id"`
	SeatName       string `json:"seat_name"`
	ReconnectToken string `json:"reconnect_token"`
}

// GameJoinedPayload 加入牌局成功响应
type GameJoinedPayload struct {
	GameID         string `json:"game_id"`
	SeatName       string `json:"seat_name"`
	ReconnectToken string `json:"reconnect_token"`
}

// ReconnectedPayload 重连成功响应
type ReconnectedPayload struct {
	GameID         string        `json:"game_id"`
	SeatName       string        `json:"seat_name"`
	ReconnectToken string        `json:"reconnect_token"` // 轮换后的新令牌
	GameState      *GameStateDTO `json:"game_state"`
}

// PongPayload 心跳响应
type PongPayload struct {
	Timestamp int64 `json:"timestamp"` // 回显客户端时间戳
}

// GameListItem 牌局列表项
type GameListItem struct {
	GameID    string `json:"game_id"`
	SeatCount int    `json:"seat_count"`
	MaxSeats  int    `json:"max_seats"`
}

// GameListPayload 牌局列表
type GameListPayload struct {
	Games []GameListItem `json:"games"`
}

// PlayerJoinedPayload 玩家加入广播
type PlayerJoinedPayload struct {
	SeatName string `json:"seat_name"`
	IsBot    bool   `json:"is_bot"`
}

// PlayerLeftPayload 玩家离开广播
type PlayerLeftPayload struct {
	SeatName string `json:"seat_name"`
	Kicked   bool   `json:"kicked,omitempty"`
}

// PlayerConnStatusPayload 玩家掉线/重连广播
type PlayerConnStatusPayload struct {
	SeatName     string `json:"seat_name"`
	GraceSeconds int    `json:"grace_seconds,omitempty"` // 掉线时的宽限时长
}

// RoundStartedPayload 新一局开始广播
type RoundStartedPayload struct {
	RoundNumber int    `json:"round_number"`
	DealerSeat  string `json:"dealer_seat"`
	CurrentSeat string `json:"current_seat"`
}

// TrickResolvedPayload 一墩结算广播
type TrickResolvedPayload struct {
	WinnerSeat string          `json:"winner_seat"`
	Value      int             `json:"value"`
	Plays      []TrickPlayInfo `json:"plays"`
}

// TrickPlayInfo 一墩中的一手牌
type TrickPlayInfo struct {
	SeatName string   `json:"seat_name"`
	Card     CardInfo `json:"card"`
	Order    int      `json:"order"`
}

// RoundEndedPayload 一局结算广播
type RoundEndedPayload struct {
	RoundNumber  int            `json:"round_number"`
	BettorSeat   string         `json:"bettor_seat"`
	BetAmount    int            `json:"bet_amount"`
	WithoutTrump bool           `json:"without_trump"`
	BetSucceeded bool           `json:"bet_succeeded"`
	Deltas       map[int]int    `json:"deltas"`        // teamID → 本局得分
	TeamScores   map[int]int    `json:"team_scores"`   // teamID → 累计得分
	TeamCaptured map[int]int    `json:"team_captured"` // teamID → 本局吃到的分
	SeatTricks   map[string]int `json:"seat_tricks"`   // 座位 → 赢墩数
}

// GameOverPayload 游戏结束广播
type GameOverPayload struct {
	WinnerTeam int         `json:"winner_team"`
	TeamScores map[int]int `json:"team_scores"`
	Rounds     int         `json:"rounds"`
}

// TimeoutCountdownPayload 回合倒计时广播
type TimeoutCountdownPayload struct {
	SeatName  string `json:"seat_name"`
	Remaining int    `json:"remaining"` // 剩余秒数
}

// TimeoutWarningPayload 超时警告广播
type TimeoutWarningPayload struct {
	SeatName  string `json:"seat_name"`
	Remaining int    `json:"remaining"`
}

// AutoActionTakenPayload 超时自动操作广播
type AutoActionTakenPayload struct {
	SeatName string    `json:"seat_name"`
	Action   string    `json:"action"`           // forced_bet / forced_skip / auto_play
	Card     *CardInfo `json:"card,omitempty"`   // auto_play 时出的牌
	Amount   int       `json:"amount,omitempty"` // forced_bet 时的叫分
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}
