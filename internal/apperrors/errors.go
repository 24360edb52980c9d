package apperrors

import (
	"github.com/palemoky/tarneeb41/internal/protocol"
)

// Kind 错误类别
type Kind int

const (
	KindValidation  Kind = iota // 非法/不合时宜的指令，状态不变
	KindNotFound                // 牌局或座位不存在
	KindConflict                // 重复操作或竞态，由幂等保护解决
	KindSecurity                // 令牌被盗用等安全问题
	KindPersistence             // 存储不可用，不影响内存状态
)

// GameError 游戏错误（牌局和会话共享）
type GameError struct {
	Kind    Kind
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrGameNotFound    = &GameError{Kind: KindNotFound, Code: protocol.ErrCodeGameNotFound, Message: "牌局不存在"}
	ErrGameFull        = &GameError{Kind: KindValidation, Code: protocol.ErrCodeGameFull, Message: "牌局已满"}
	ErrNotInGame       = &GameError{Kind: KindNotFound, Code: protocol.ErrCodeNotInGame, Message: "您不在牌局中"}
	ErrSeatNotFound    = &GameError{Kind: KindNotFound, Code: protocol.ErrCodeSeatNotFound, Message: "座位不存在"}
	ErrSeatTaken       = &GameError{Kind: KindConflict, Code: protocol.ErrCodeSeatTaken, Message: "座位名已被占用"}
	ErrTeamUnbalanced  = &GameError{Kind: KindValidation, Code: protocol.ErrCodeTeamUnbalanced, Message: "两队人数必须各为两人"}
	ErrNotHost         = &GameError{Kind: KindValidation, Code: protocol.ErrCodeNotHost, Message: "只有房主可以操作"}
	ErrGameStarted     = &GameError{Kind: KindValidation, Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrGameNotStart    = &GameError{Kind: KindValidation, Code: protocol.ErrCodeGameNotStart, Message: "游戏尚未开始"}
	ErrNotYourTurn     = &GameError{Kind: KindValidation, Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrInvalidBet      = &GameError{Kind: KindValidation, Code: protocol.ErrCodeInvalidBet, Message: "无效的叫分"}
	ErrInvalidCard     = &GameError{Kind: KindValidation, Code: protocol.ErrCodeInvalidCard, Message: "无效的牌"}
	ErrMustFollowSuit  = &GameError{Kind: KindValidation, Code: protocol.ErrCodeMustFollowSuit, Message: "必须跟出首攻花色"}
	ErrWrongPhase      = &GameError{Kind: KindValidation, Code: protocol.ErrCodeWrongPhase, Message: "当前阶段不允许此操作"}
	ErrDuplicateAction = &GameError{Kind: KindConflict, Code: protocol.ErrCodeDuplicateAction, Message: "重复操作"}
	ErrInvalidToken    = &GameError{Kind: KindSecurity, Code: protocol.ErrCodeInvalidToken, Message: "重连令牌无效或已过期"}
	ErrTokenReused     = &GameError{Kind: KindSecurity, Code: protocol.ErrCodeTokenReused, Message: "重连令牌已失效"}
	ErrNotABot         = &GameError{Kind: KindValidation, Code: protocol.ErrCodeNotABot, Message: "目标座位不是机器人"}
	ErrIsABot          = &GameError{Kind: KindValidation, Code: protocol.ErrCodeIsABot, Message: "目标座位是机器人"}
	ErrStorage         = &GameError{Kind: KindPersistence, Code: protocol.ErrCodeStorage, Message: "存储暂时不可用"}
)
