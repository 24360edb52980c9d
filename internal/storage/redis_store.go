package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	gameKeyPrefix    = "game:"
	finishedGamesKey = "finished:games"

	// 对局快照过期时间
	gameExpiration = 2 * time.Hour

	// 摘要列表最多保留的条数
	finishedGamesCap = 1000
)

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// SaveGame 保存对局快照
func (rs *RedisStore) SaveGame(ctx context.Context, snapshot *GameSnapshot) error {
	if snapshot == nil {
		return nil
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("序列化对局快照失败: %w", err)
	}

	key := gameKeyPrefix + snapshot.ID
	return rs.client.Set(ctx, key, jsonData, gameExpiration).Err()
}

// LoadGame 加载对局快照，不存在时返回 (nil, nil)
func (rs *RedisStore) LoadGame(ctx context.Context, gameID string) (*GameSnapshot, error) {
	key := gameKeyPrefix + gameID
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 对局不存在
		}
		return nil, err
	}

	var snapshot GameSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("反序列化对局快照失败: %w", err)
	}

	return &snapshot, nil
}

// DeleteGame 删除对局快照
func (rs *RedisStore) DeleteGame(ctx context.Context, gameID string) error {
	key := gameKeyPrefix + gameID
	return rs.client.Del(ctx, key).Err()
}

// AppendFinishedGame 追加已结束对局的摘要，列表超长时裁剪最旧的
func (rs *RedisStore) AppendFinishedGame(ctx context.Context, summary *FinishedGame) error {
	if summary == nil {
		return nil
	}

	jsonData, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("序列化对局摘要失败: %w", err)
	}

	pipe := rs.client.Pipeline()
	pipe.RPush(ctx, finishedGamesKey, jsonData)
	pipe.LTrim(ctx, finishedGamesKey, -finishedGamesCap, -1)
	_, err = pipe.Exec(ctx)
	return err
}

// LoadActiveSnapshots 启动恢复：加载全部未过期的对局快照
func (rs *RedisStore) LoadActiveSnapshots(ctx context.Context) ([]*GameSnapshot, error) {
	keys, err := rs.client.Keys(ctx, gameKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	snapshots := make([]*GameSnapshot, 0, len(keys))
	for _, key := range keys {
		data, err := rs.client.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // 读取期间刚好过期
			}
			return nil, err
		}

		var snapshot GameSnapshot
		if err := json.Unmarshal(data, &snapshot); err != nil {
			// 跳过坏数据，不让单条记录拖垮启动恢复
			continue
		}
		snapshots = append(snapshots, &snapshot)
	}

	return snapshots, nil
}
