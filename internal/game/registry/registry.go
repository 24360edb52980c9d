// Package registry 维护全部活跃对局的索引：内存优先，
// Redis 兜底。查不到的对局会尝试从快照热加载，重启后
// 玩家凭令牌重连即可回到原局。
package registry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/tarneeb41/internal/apperrors"
	"github.com/palemoky/tarneeb41/internal/config"
	"github.com/palemoky/tarneeb41/internal/game/bot"
	"github.com/palemoky/tarneeb41/internal/game/session"
	"github.com/palemoky/tarneeb41/internal/protocol"
	"github.com/palemoky/tarneeb41/internal/storage"
)

// Registry 对局注册表
type Registry struct {
	mu       sync.RWMutex
	games    map[string]*session.Session
	cfg      *config.Config
	strategy bot.Strategy
	store    storage.Store
	sink     session.EventSink
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New 创建注册表
func New(cfg *config.Config, strategy bot.Strategy, store storage.Store, sink session.EventSink) *Registry {
	return &Registry{
		games:    make(map[string]*session.Session),
		cfg:      cfg,
		strategy: strategy,
		store:    store,
		sink:     sink,
		stopCh:   make(chan struct{}),
	}
}

// CreateGame 创建新对局
func (r *Registry) CreateGame() *session.Session {
	id := uuid.New().String()
	s := session.New(id, r.cfg, r.strategy, r.store, r.sink)
	s.SetOnEmpty(r.Delete)

	r.mu.Lock()
	r.games[id] = s
	r.mu.Unlock()

	log.Printf("🏠 创建对局: %s", id)
	return s
}

// Get 查找对局。内存没有时尝试从存储热加载，
// 用于服务重启后的令牌重连。
func (r *Registry) Get(gameID string) (*session.Session, error) {
	r.mu.RLock()
	s, ok := r.games[gameID]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}

	if r.store == nil {
		return nil, apperrors.ErrGameNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	snap, err := r.store.LoadGame(ctx, gameID)
	if err != nil {
		log.Printf("⚠️ 对局 %s 加载失败: %v", gameID, err)
		return nil, apperrors.ErrStorage
	}
	if snap == nil {
		return nil, apperrors.ErrGameNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// 加载期间可能有其他请求先一步恢复了同一对局
	if existing, ok := r.games[gameID]; ok {
		return existing, nil
	}
	s = session.NewFromSnapshot(snap, r.cfg, r.strategy, r.store, r.sink)
	s.SetOnEmpty(r.Delete)
	r.games[gameID] = s
	log.Printf("♻️ 对局 %s 从快照恢复", gameID)
	return s, nil
}

// Delete 销毁对局并清除快照
func (r *Registry) Delete(gameID string) {
	r.mu.Lock()
	s, ok := r.games[gameID]
	delete(r.games, gameID)
	r.mu.Unlock()

	if !ok {
		return
	}
	s.Close()

	if r.store != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := r.store.DeleteGame(ctx, gameID); err != nil {
				log.Printf("⚠️ 对局 %s 快照删除失败: %v", gameID, err)
			}
		}()
	}
	log.Printf("🗑️ 销毁对局: %s", gameID)
}

// List 返回可加入的对局列表
func (r *Registry) List() []protocol.GameListItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]protocol.GameListItem, 0, len(r.games))
	for id, s := range r.games {
		if !s.Joinable() {
			continue
		}
		items = append(items, protocol.GameListItem{
			GameID:    id,
			SeatCount: s.SeatCount(),
			MaxSeats:  4,
		})
	}
	return items
}

// Count 当前活跃对局数
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}

// RecoverActive 启动时从存储恢复全部未结束对局
func (r *Registry) RecoverActive(ctx context.Context) {
	if r.store == nil {
		return
	}

	snaps, err := r.store.LoadActiveSnapshots(ctx)
	if err != nil {
		log.Printf("⚠️ 启动恢复失败: %v", err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, snap := range snaps {
		if _, ok := r.games[snap.ID]; ok {
			continue
		}
		s := session.NewFromSnapshot(snap, r.cfg, r.strategy, r.store, r.sink)
		s.SetOnEmpty(r.Delete)
		r.games[snap.ID] = s
	}
	if len(snaps) > 0 {
		log.Printf("♻️ 启动恢复 %d 个对局", len(snaps))
	}
}

// StartSweeper 启动后台清扫，回收长时间无人操作的对局
func (r *Registry) StartSweeper(idleLimit time.Duration) {
	ticker := time.NewTicker(r.cfg.Timing.StaleSweepDuration())
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep(idleLimit)
			case <-r.stopCh:
				return
			}
		}
	}()
}

// sweep 清理闲置超限的对局
func (r *Registry) sweep(idleLimit time.Duration) {
	r.mu.RLock()
	var stale []string
	for id, s := range r.games {
		if time.Since(s.LastActivity()) > idleLimit {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	for _, id := range stale {
		log.Printf("🧹 清理闲置对局: %s", id)
		r.Delete(id)
	}
}

// Stop 停止后台清扫
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
