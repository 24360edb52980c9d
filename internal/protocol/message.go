package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgReconnect MessageType = "reconnect_to_game" // 断线重连
	MsgPing      MessageType = "ping"              // 心跳 ping

	// 座位/组队操作
	MsgCreateGame   MessageType = "create_game"      // 创建牌局
	MsgJoinGame     MessageType = "join_game"        // 加入牌局
	MsgListGames    MessageType = "list_games"       // 获取可加入的牌局列表
	MsgSelectTeam   MessageType = "select_team"      // 选择队伍
	MsgSwapPosition MessageType = "swap_position"    // 交换座位
	MsgStartGame    MessageType = "start_game"       // 开始游戏
	MsgLeaveGame    MessageType = "leave_game"       // 离开牌局
	MsgKickPlayer   MessageType = "kick_player"      // 踢出玩家
	MsgAddBot       MessageType = "add_bot"          // 补一个机器人座位
	MsgReplaceBot   MessageType = "replace_with_bot" // 换成机器人
	MsgTakeOverBot  MessageType = "take_over_bot"    // 接管机器人

	// 游戏操作
	MsgPlaceBet    MessageType = "place_bet"    // 叫分
	MsgPlayCard    MessageType = "play_card"    // 出牌
	MsgPlayerReady MessageType = "player_ready" // 结算后准备下一局
	MsgVoteRematch MessageType = "vote_rematch" // 投票重赛
)

// 服务端 → 客户端 消息类型
const (
	// 连接相关
	MsgConnected          MessageType = "connected"           // 连接成功
	MsgReconnected        MessageType = "reconnected"         // 重连成功
	MsgPong               MessageType = "pong"                // 心跳 pong
	MsgPlayerDisconnected MessageType = "player_disconnected" // 玩家掉线通知
	MsgPlayerReconnected  MessageType = "player_reconnected"  // 玩家重连通知

	// 牌局相关
	MsgGameCreated  MessageType = "game_created"  // 牌局创建成功
	MsgGameJoined   MessageType = "game_joined"   // 加入牌局成功
	MsgGameList     MessageType = "game_list"     // 牌局列表
	MsgPlayerJoined MessageType = "player_joined" // 其他玩家加入
	MsgPlayerLeft   MessageType = "player_left"   // 玩家离开

	// 游戏流程
	MsgDealHand         MessageType = "deal_hand"          // 私发手牌
	MsgGameUpdated      MessageType = "game_updated"       // 完整状态广播
	MsgGameUpdatedDelta MessageType = "game_updated_delta" // 增量状态广播
	MsgRoundStarted     MessageType = "round_started"      // 新一局开始
	MsgTrickResolved    MessageType = "trick_resolved"     // 一墩结算
	MsgRoundEnded       MessageType = "round_ended"        // 一局结算
	MsgGameOver         MessageType = "game_over"          // 游戏结束
	MsgTimeoutCountdown MessageType = "timeout_countdown"  // 回合倒计时
	MsgTimeoutWarning   MessageType = "timeout_warning"    // 超时警告
	MsgAutoActionTaken  MessageType = "auto_action_taken"  // 超时自动操作

	// 错误
	MsgError MessageType = "error" // 错误消息
)
