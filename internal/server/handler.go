package server

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/game/session"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/protocol/convert"
)

// Handler 消息处理器
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client *Client, msg *protocol.Message) {
	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(client, msg)
	case protocol.MsgReconnect:
		h.handleReconnect(client, msg)

	// 座位/组队操作
	case protocol.MsgCreateGame:
		h.handleCreateGame(client, msg)
	case protocol.MsgJoinGame:
		h.handleJoinGame(client, msg)
	case protocol.MsgListGames:
		h.handleListGames(client)
	case protocol.MsgSelectTeam:
		h.handleSelectTeam(client, msg)
	case protocol.MsgSwapPosition:
		h.handleSwapPosition(client, msg)
	case protocol.MsgStartGame:
		h.handleStartGame(client)
	case protocol.MsgLeaveGame:
		h.handleLeaveGame(client)
	case protocol.MsgKickPlayer:
		h.handleKickPlayer(client, msg)
	case protocol.MsgAddBot:
		h.handleAddBot(client)
	case protocol.MsgReplaceBot:
		h.handleReplaceBot(client, msg)
	case protocol.MsgTakeOverBot:
		h.handleTakeOverBot(client, msg)

	// 游戏操作
	case protocol.MsgPlaceBet:
		h.handlePlaceBet(client, msg)
	case protocol.MsgPlayCard:
		h.handlePlayCard(client, msg)
	case protocol.MsgPlayerReady:
		h.handlePlayerReady(client)
	case protocol.MsgVoteRematch:
		h.handleVoteRematch(client)

	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// sendError 把游戏错误翻译成错误消息发给客户端
func (h *Handler) sendError(client *Client, err error) {
	var gameErr *apperrors.GameError
	if errors.As(err, &gameErr) {
		client.SendMessage(protocol.NewErrorMessage(gameErr.Code))
		return
	}
	client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

// gameFor 取出客户端绑定的对局
func (h *Handler) gameFor(client *Client) (*session.Session, string, bool) {
	gameID, seatName := client.Game()
	if gameID == "" {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeNotInGame))
		return nil, "", false
	}
	sess, err := h.server.registry.Get(gameID)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeGameNotFound))
		return nil, "", false
	}
	return sess, seatName, true
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		Timestamp: payload.Timestamp,
	}))
}

// handleCreateGame 创建牌局并入座
func (h *Handler) handleCreateGame(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CreateGamePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if h.server.IsMaintenanceMode() {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeServerMaintenance))
		return
	}
	if gameID, _ := client.Game(); gameID != "" {
		h.handleLeaveGame(client)
	}

	sess := h.server.registry.CreateGame()
	if err := sess.Join(payload.SeatName, client.ID); err != nil {
		h.server.registry.Delete(sess.ID)
		h.sendError(client, err)
		return
	}

	token := h.issueToken(sess.ID, payload.SeatName)
	client.SetGame(sess.ID, payload.SeatName)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgGameCreated, protocol.GameCreatedPayload{
		GameID:         sess.ID,
		SeatName:       payload.SeatName,
		ReconnectToken: token,
	}))
}

// handleJoinGame 加入已有牌局
func (h *Handler) handleJoinGame(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinGamePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	if gameID, _ := client.Game(); gameID != "" {
		h.handleLeaveGame(client)
	}

	sess, err := h.server.registry.Get(payload.GameID)
	if err != nil {
		h.sendError(client, err)
		return
	}
	if err := sess.Join(payload.SeatName, client.ID); err != nil {
		h.sendError(client, err)
		return
	}

	token := h.issueToken(sess.ID, payload.SeatName)
	client.SetGame(sess.ID, payload.SeatName)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgGameJoined, protocol.GameJoinedPayload{
		GameID:         sess.ID,
		SeatName:       payload.SeatName,
		ReconnectToken: token,
	}))
	client.SendMessage(protocol.MustNewMessage(protocol.MsgGameUpdated, protocol.GameUpdatedPayload{
		State: sess.State(),
	}))
}

// handleListGames 返回可加入的牌局列表
func (h *Handler) handleListGames(client *Client) {
	client.SendMessage(protocol.MustNewMessage(protocol.MsgGameList, protocol.GameListPayload{
		Games: h.server.registry.List(),
	}))
}

// handleReconnect 凭令牌重连回原座位
func (h *Handler) handleReconnect(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReconnectPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	claims, err := h.server.tokens.Validate(ctx, payload.Token)
	if err != nil {
		// 旧令牌重放：座位的全部令牌已被吊销，在座的连接也要踢掉
		if errors.Is(err, apperrors.ErrTokenReused) {
			log.Printf("🚨 检测到令牌重放，连接 %s (IP: %s)", client.ID, client.IP)
		}
		h.sendError(client, err)
		return
	}

	sess, err := h.server.registry.Get(claims.GameID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	// 同座位的旧连接还挂着时先断开，最新连接赢
	if old := h.server.clientBySeat(claims.GameID, claims.SeatName); old != nil && old.ID != client.ID {
		old.ClearGame()
		old.Close()
	}

	state, hand, err := sess.Reconnect(claims.SeatName, client.ID)
	if err != nil {
		h.sendError(client, err)
		return
	}

	newToken, err := h.server.tokens.Rotate(ctx, payload.Token, claims)
	if err != nil {
		log.Printf("⚠️ 令牌轮换失败: %v", err)
		newToken = payload.Token
	}

	client.SetGame(claims.GameID, claims.SeatName)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgReconnected, protocol.ReconnectedPayload{
		GameID:         claims.GameID,
		SeatName:       claims.SeatName,
		ReconnectToken: newToken,
		GameState:      state,
	}))
	client.SendMessage(protocol.MustNewMessage(protocol.MsgDealHand, protocol.DealHandPayload{
		SeatName: claims.SeatName,
		Hand:     hand,
	}))

	log.Printf("🔄 座位 %s 重连成功（对局 %s）", claims.SeatName, claims.GameID)
}

// handleSelectTeam 处理选队
func (h *Handler) handleSelectTeam(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.SelectTeamPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.SelectTeam(seatName, payload.TeamID); err != nil {
		h.sendError(client, err)
	}
}

// handleSwapPosition 处理换座
func (h *Handler) handleSwapPosition(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.SwapPositionPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.SwapPosition(seatName, payload.TargetSeat); err != nil {
		h.sendError(client, err)
	}
}

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client *Client) {
	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.Start(seatName); err != nil {
		h.sendError(client, err)
	}
}

// handleLeaveGame 处理离开牌局
func (h *Handler) handleLeaveGame(client *Client) {
	gameID, seatName := client.Game()
	if gameID == "" {
		return
	}

	sess, err := h.server.registry.Get(gameID)
	if err == nil {
		if err := sess.Leave(seatName); err != nil {
			h.sendError(client, err)
			return
		}
	}

	h.revokeToken(gameID, seatName)
	client.ClearGame()
}

// handleKickPlayer 房主踢人
func (h *Handler) handleKickPlayer(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.KickPlayerPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.Kick(seatName, payload.SeatName); err != nil {
		h.sendError(client, err)
		return
	}

	h.revokeToken(sess.ID, payload.SeatName)
	if target := h.server.clientBySeat(sess.ID, payload.SeatName); target != nil {
		target.ClearGame()
	}
}

// handleAddBot 房主补机器人
func (h *Handler) handleAddBot(client *Client) {
	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.AddBot(seatName); err != nil {
		h.sendError(client, err)
	}
}

// handleReplaceBot 把座位换成机器人（自己或房主操作）
func (h *Handler) handleReplaceBot(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ReplaceBotPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	target := payload.SeatName
	if target == "" {
		target = seatName
	}
	if err := sess.ReplaceWithBot(seatName, target); err != nil {
		h.sendError(client, err)
		return
	}

	h.revokeToken(sess.ID, target)
	if tc := h.server.clientBySeat(sess.ID, target); tc != nil {
		tc.ClearGame()
	}
}

// handleTakeOverBot 接管机器人座位
func (h *Handler) handleTakeOverBot(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.TakeOverBotPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess, _, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.TakeOverBot(payload.SeatName, client.ID); err != nil {
		h.sendError(client, err)
		return
	}

	token := h.issueToken(sess.ID, payload.SeatName)
	client.SetGame(sess.ID, payload.SeatName)

	client.SendMessage(protocol.MustNewMessage(protocol.MsgGameJoined, protocol.GameJoinedPayload{
		GameID:         sess.ID,
		SeatName:       payload.SeatName,
		ReconnectToken: token,
	}))
}

// handlePlaceBet 处理叫分
func (h *Handler) handlePlaceBet(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PlaceBetPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.PlaceBet(seatName, payload.Amount, payload.Skip, payload.WithoutTrump); err != nil {
		h.sendError(client, err)
	}
}

// handlePlayCard 处理出牌
func (h *Handler) handlePlayCard(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PlayCardPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	c, ok := convert.InfoToCard(payload.Card)
	if !ok {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidCard))
		return
	}

	sess, seatName, okGame := h.gameFor(client)
	if !okGame {
		return
	}
	if err := sess.PlayCard(seatName, c); err != nil {
		h.sendError(client, err)
	}
}

// handlePlayerReady 结算阶段的准备
func (h *Handler) handlePlayerReady(client *Client) {
	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.PlayerReady(seatName); err != nil {
		h.sendError(client, err)
	}
}

// handleVoteRematch 处理重赛投票
func (h *Handler) handleVoteRematch(client *Client) {
	sess, seatName, ok := h.gameFor(client)
	if !ok {
		return
	}
	if err := sess.VoteRematch(seatName); err != nil {
		h.sendError(client, err)
	}
}

// issueToken 签发重连令牌。签发失败只记日志，玩家照常游戏，
// 只是断线后无法重连。
func (h *Handler) issueToken(gameID, seatName string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	token, err := h.server.tokens.Issue(ctx, gameID, seatName)
	if err != nil {
		log.Printf("⚠️ 令牌签发失败（对局 %s 座位 %s）: %v", gameID, seatName, err)
		return ""
	}
	return token
}

// revokeToken 吊销座位令牌
func (h *Handler) revokeToken(gameID, seatName string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := h.server.tokens.RevokeSeat(ctx, gameID, seatName); err != nil {
		log.Printf("⚠️ 令牌吊销失败（对局 %s 座位 %s）: %v", gameID, seatName, err)
	}
}
