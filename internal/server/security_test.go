package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(5, 100, time.Minute)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("192.168.1.1"), "request %d should be allowed", i)
	}
}

func TestRateLimiterBansOnSecondBurst(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(3, 100, time.Minute)

	for i := 0; i < 3; i++ {
		rl.Allow("192.168.1.2")
	}
	assert.False(t, rl.Allow("192.168.1.2"))
	assert.True(t, rl.IsBanned("192.168.1.2"))

	// The ban stands until its deadline even for polite requests
	assert.False(t, rl.Allow("192.168.1.2"))
}

func TestRateLimiterTracksIPsIndependently(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(2, 100, time.Minute)

	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.1")
	assert.False(t, rl.Allow("10.0.0.1"))

	assert.True(t, rl.Allow("10.0.0.2"))
	assert.False(t, rl.IsBanned("10.0.0.2"))
}

func TestRateLimiterMinuteLimit(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(1000, 5, time.Minute)

	for i := 0; i < 5; i++ {
		assert.True(t, rl.Allow("10.0.0.3"))
	}
	assert.False(t, rl.Allow("10.0.0.3"))
	assert.True(t, rl.IsBanned("10.0.0.3"))
}

func TestOriginCheckerAllowAll(t *testing.T) {
	t.Parallel()
	oc := NewOriginChecker([]string{"*"})

	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.True(t, oc.Check(req))
}

func TestOriginCheckerAllowList(t *testing.T) {
	t.Parallel()
	oc := NewOriginChecker([]string{"https://game.example.com"})

	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://game.example.com")
	assert.True(t, oc.Check(req))

	// Matching is case-insensitive
	req.Header.Set("Origin", "HTTPS://GAME.EXAMPLE.COM")
	assert.True(t, oc.Check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, oc.Check(req))
}

func TestOriginCheckerNoOriginHeader(t *testing.T) {
	t.Parallel()
	oc := NewOriginChecker([]string{"https://game.example.com"})

	// Same-origin requests and native clients carry no Origin header
	req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, oc.Check(req))
}

func TestMessageRateLimiter(t *testing.T) {
	t.Parallel()
	ml := NewMessageRateLimiter(10)

	// Up to the warning threshold: silent
	for i := 0; i < 5; i++ {
		allowed, warning := ml.AllowMessage("conn-1")
		assert.True(t, allowed)
		assert.False(t, warning, "message %d", i)
	}

	// Past half the budget: allowed, but with a warning
	allowed, warning := ml.AllowMessage("conn-1")
	assert.True(t, allowed)
	assert.True(t, warning)

	for i := 6; i < 10; i++ {
		allowed, _ = ml.AllowMessage("conn-1")
		assert.True(t, allowed)
	}

	// Over budget: rejected and counted
	allowed, warning = ml.AllowMessage("conn-1")
	assert.False(t, allowed)
	assert.True(t, warning)
	assert.Equal(t, 1, ml.GetWarningCount("conn-1"))
}

func TestMessageRateLimiterRemoveClient(t *testing.T) {
	t.Parallel()
	ml := NewMessageRateLimiter(1)

	ml.AllowMessage("conn-1")
	ml.AllowMessage("conn-1")
	ml.AllowMessage("conn-1")
	assert.Positive(t, ml.GetWarningCount("conn-1"))

	ml.RemoveClient("conn-1")
	assert.Equal(t, 0, ml.GetWarningCount("conn-1"))
}

func TestGetClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for takes the first hop",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"},
			want:       "198.51.100.4",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req, _ := http.NewRequest(http.MethodGet, "/ws", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetClientIP(req))
		})
	}
}
