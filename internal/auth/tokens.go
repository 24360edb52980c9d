// Package auth 管理重连令牌。令牌是不透明的随机串，
// 由服务端签发给入座的玩家，断线后凭令牌找回座位。
// 每次成功重连都会轮换令牌，旧令牌立即作废；作废令牌
// 再次出现视为凭据泄露，整个座位的令牌全部吊销。
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/tarneeb41/internal/apperrors"
)

const (
	tokenKeyPrefix = "token:"
	usedKeyPrefix  = "token:used:"
	seatKeyPrefix  = "token:seat:"

	// tokenTTL 令牌有效期，覆盖一整场对局绰绰有余
	tokenTTL = 2 * time.Hour
	// usedTTL 作废标记的保留时长，用于识别旧令牌重放
	usedTTL = 2 * time.Hour
)

// Claims 令牌指向的座位
type Claims struct {
	GameID   string `json:"game_id"`
	SeatName string `json:"seat_name"`
	IssuedAt int64  `json:"issued_at"`
}

// TokenStore 基于 Redis 的令牌存储
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore 创建令牌存储
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// Issue 为座位签发新令牌，并作废该座位先前的令牌
func (ts *TokenStore) Issue(ctx context.Context, gameID, seatName string) (string, error) {
	if err := ts.revokeSeat(ctx, gameID, seatName); err != nil {
		return "", err
	}

	token := uuid.New().String()
	claims := Claims{GameID: gameID, SeatName: seatName, IssuedAt: time.Now().Unix()}
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	pipe := ts.client.TxPipeline()
	pipe.Set(ctx, tokenKeyPrefix+token, data, tokenTTL)
	pipe.Set(ctx, seatKeyPrefix+gameID+":"+seatName, token, tokenTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", apperrors.ErrStorage
	}
	return token, nil
}

// Validate 校验令牌并返回其指向的座位。已作废的令牌再次
// 出现说明有人拿到了旧凭据，吊销该座位的全部令牌并报告
// 安全错误，由调用方断开双方连接。
func (ts *TokenStore) Validate(ctx context.Context, token string) (*Claims, error) {
	used, err := ts.client.Get(ctx, usedKeyPrefix+token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrStorage
	}
	if err == nil {
		// used 键的值记录着令牌原本指向的座位
		var claims Claims
		if jsonErr := json.Unmarshal([]byte(used), &claims); jsonErr == nil {
			_ = ts.revokeSeat(ctx, claims.GameID, claims.SeatName)
		}
		return nil, apperrors.ErrTokenReused
	}

	data, err := ts.client.Get(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrInvalidToken
	}
	if err != nil {
		return nil, apperrors.ErrStorage
	}

	var claims Claims
	if err := json.Unmarshal([]byte(data), &claims); err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	return &claims, nil
}

// Rotate 作废旧令牌并为同一座位签发新令牌。
// 应在每次成功重连后调用。
func (ts *TokenStore) Rotate(ctx context.Context, token string, claims *Claims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	if err := ts.client.Set(ctx, usedKeyPrefix+token, data, usedTTL).Err(); err != nil {
		return "", apperrors.ErrStorage
	}
	if err := ts.client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return "", apperrors.ErrStorage
	}
	return ts.Issue(ctx, claims.GameID, claims.SeatName)
}

// RevokeSeat 吊销座位当前的令牌。玩家被踢、主动退出或
// 座位交给机器人后调用，旧令牌不能再用于重连。
func (ts *TokenStore) RevokeSeat(ctx context.Context, gameID, seatName string) error {
	return ts.revokeSeat(ctx, gameID, seatName)
}

// revokeSeat 通过反向索引删除座位当前令牌
func (ts *TokenStore) revokeSeat(ctx context.Context, gameID, seatName string) error {
	seatKey := seatKeyPrefix + gameID + ":" + seatName
	token, err := ts.client.Get(ctx, seatKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return apperrors.ErrStorage
	}

	pipe := ts.client.TxPipeline()
	pipe.Del(ctx, tokenKeyPrefix+token)
	pipe.Del(ctx, seatKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return apperrors.ErrStorage
	}
	return nil
}
