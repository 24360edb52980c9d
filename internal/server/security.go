package server

import (
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// rollingCount 固定窗口计数。窗口走完即整体归零，
// 两级限速（连接级、消息级）共用这一个原语。
type rollingCount struct {
	n     int
	since time.Time
}

// bump 记一次数并返回窗口内的累计值
func (rc *rollingCount) bump(now time.Time, span time.Duration) int {
	if now.Sub(rc.since) >= span {
		rc.n = 0
		rc.since = now
	}
	rc.n++
	return rc.n
}

// RateLimiter 连接级速率限制器，按 IP 计数。
// 秒、分两个窗口任一超限即封禁该 IP 一段时间。
type RateLimiter struct {
	mu    sync.RWMutex
	perIP map[string]*ipRecord

	perSecondLimit int
	perMinuteLimit int
	banFor         time.Duration
}

type ipRecord struct {
	second      rollingCount
	minute      rollingCount
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		perIP:          make(map[string]*ipRecord),
		perSecondLimit: maxPerSecond,
		perMinuteLimit: maxPerMinute,
		banFor:         banDuration,
	}

	go rl.sweep(5 * time.Minute)

	return rl
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rec := rl.perIP[ip]
	if rec == nil {
		rec = &ipRecord{}
		rl.perIP[ip] = rec
	}

	if now.Before(rec.bannedUntil) {
		return false
	}

	inSecond := rec.second.bump(now, time.Second)
	inMinute := rec.minute.bump(now, time.Minute)

	if inSecond > rl.perSecondLimit || inMinute > rl.perMinuteLimit {
		rec.bannedUntil = now.Add(rl.banFor)
		log.Printf("⚠️ IP %s 因请求过于频繁被暂时封禁 %v", ip, rl.banFor)
		return false
	}

	return true
}

// IsBanned 检查 IP 是否被封禁
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	rec := rl.perIP[ip]
	if rec == nil {
		return false
	}
	return time.Now().Before(rec.bannedUntil)
}

// sweep 定期丢掉长时间安静、又不在封禁中的 IP 记录
func (rl *RateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for ip, rec := range rl.perIP {
			if now.Sub(rec.minute.since) > 10*time.Minute && now.After(rec.bannedUntil) {
				delete(rl.perIP, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

// NewOriginChecker 创建来源验证器。列表含 "*" 时放行一切来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			break
		}
		oc.allowed[strings.ToLower(origin)] = struct{}{}
	}
	return oc
}

// Check 检查来源是否允许。
// 没带 Origin 头的请求放行，同源请求和本地客户端都不带。
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	_, ok := oc.allowed[strings.ToLower(origin)]
	return ok
}

// --- 消息速率限制 ---

// MessageRateLimiter 消息速率限制器，按连接 ID 计数。
// 超过上限一半开始带警告标记，超过上限则拒绝并累计警告次数，
// 警告累计过多由调用方决定踢人。
type MessageRateLimiter struct {
	mu      sync.RWMutex
	perConn map[string]*connRecord

	perSecondLimit int
}

type connRecord struct {
	second   rollingCount
	warnings int
}

// NewMessageRateLimiter 创建消息速率限制器
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		perConn:        make(map[string]*connRecord),
		perSecondLimit: maxPerSecond,
	}
}

// AllowMessage 检查是否允许发送消息
func (ml *MessageRateLimiter) AllowMessage(connID string) (allowed bool, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	rec := ml.perConn[connID]
	if rec == nil {
		rec = &connRecord{}
		ml.perConn[connID] = rec
	}

	inSecond := rec.second.bump(time.Now(), time.Second)
	switch {
	case inSecond > ml.perSecondLimit:
		rec.warnings++
		return false, true
	case inSecond > ml.perSecondLimit/2:
		return true, true
	default:
		return true, false
	}
}

// GetWarningCount 获取警告次数
func (ml *MessageRateLimiter) GetWarningCount(connID string) int {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	rec := ml.perConn[connID]
	if rec == nil {
		return 0
	}
	return rec.warnings
}

// RemoveClient 移除连接记录
func (ml *MessageRateLimiter) RemoveClient(connID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.perConn, connID)
}

// GetClientIP 获取客户端真实 IP，代理头优先于连接地址
func GetClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// 链上最左是原始客户端
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}

	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
