package protocol

// 错误码
const (
	ErrCodeUnknown           = 1000
	ErrCodeInvalidMsg        = 1001
	ErrCodeRateLimit         = 1002 // 速率限制
	ErrCodeGameNotFound      = 2001
	ErrCodeGameFull          = 2002
	ErrCodeNotInGame         = 2003
	ErrCodeGameStarted       = 2004 // 游戏已开始
	ErrCodeSeatNotFound      = 2005
	ErrCodeSeatTaken         = 2006 // 座位名已被占用
	ErrCodeTeamUnbalanced    = 2007 // 队伍人数不平衡
	ErrCodeNotHost           = 2008 // 只有房主可以操作
	ErrCodeGameNotStart      = 3001
	ErrCodeNotYourTurn       = 3002
	ErrCodeInvalidBet        = 3003
	ErrCodeInvalidCard       = 3004
	ErrCodeMustFollowSuit    = 3005 // 必须跟牌
	ErrCodeWrongPhase        = 3006 // 当前阶段不允许此操作
	ErrCodeDuplicateAction   = 3007 // 重复操作
	ErrCodeInvalidToken      = 4001 // 重连令牌无效或已过期
	ErrCodeTokenReused       = 4002 // 重连令牌被重复使用
	ErrCodeNotABot           = 4003 // 目标座位不是机器人
	ErrCodeIsABot            = 4004 // 目标座位是机器人
	ErrCodeStorage           = 5001 // 存储不可用
	ErrCodeServerMaintenance = 5003 // 服务器维护中
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:           "未知错误",
	ErrCodeInvalidMsg:        "无效的消息格式",
	ErrCodeRateLimit:         "请求过于频繁",
	ErrCodeGameNotFound:      "牌局不存在",
	ErrCodeGameFull:          "牌局已满",
	ErrCodeNotInGame:         "您不在牌局中",
	ErrCodeGameStarted:       "游戏已开始",
	ErrCodeSeatNotFound:      "座位不存在",
	ErrCodeSeatTaken:         "座位名已被占用",
	ErrCodeTeamUnbalanced:    "两队人数必须各为两人",
	ErrCodeNotHost:           "只有房主可以操作",
	ErrCodeGameNotStart:      "游戏尚未开始",
	ErrCodeNotYourTurn:       "还没轮到您",
	ErrCodeInvalidBet:        "无效的叫分",
	ErrCodeInvalidCard:       "无效的牌",
	ErrCodeMustFollowSuit:    "必须跟出首攻花色",
	ErrCodeWrongPhase:        "当前阶段不允许此操作",
	ErrCodeDuplicateAction:   "重复操作",
	ErrCodeInvalidToken:      "重连令牌无效或已过期",
	ErrCodeTokenReused:       "重连令牌已失效",
	ErrCodeNotABot:           "目标座位不是机器人",
	ErrCodeIsABot:            "目标座位是机器人",
	ErrCodeStorage:           "存储暂时不可用",
	ErrCodeServerMaintenance: "服务器维护中",
}
