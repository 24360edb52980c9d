package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Timing   TimingConfig   `yaml:"timing"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	MaxConnections int      `yaml:"max_connections"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏规则常量（胜利阈值、叫分范围、特殊牌分值均可配置）
type GameConfig struct {
	VictoryThreshold  int `yaml:"victory_threshold"`   // 获胜分数线
	MinBet            int `yaml:"min_bet"`             // 最低叫分
	MaxBet            int `yaml:"max_bet"`             // 最高叫分
	BonusCardPoints   int `yaml:"bonus_card_points"`   // 红桃 0 奖励分
	PenaltyCardPoints int `yaml:"penalty_card_points"` // 黑桃 0 惩罚分
}

// TimingConfig 计时相关配置
type TimingConfig struct {
	TurnTimeout      int `yaml:"turn_timeout"`      // 叫分/出牌超时（秒）
	WarningRemaining int `yaml:"warning_remaining"` // 剩余多少秒时发出警告
	ReconnectGrace   int `yaml:"reconnect_grace"`   // 断线重连宽限（分钟）
	TrickHold        int `yaml:"trick_hold"`        // 完整一墩展示时长（毫秒）
	ScoringAdvance   int `yaml:"scoring_advance"`   // 结算阶段自动进入下一局（秒）
	PersistDebounce  int `yaml:"persist_debounce"`  // 持久化去抖（毫秒）
	StaleSweep       int `yaml:"stale_sweep"`       // 过期会话清扫间隔（分钟）
	EmptyGrace       int `yaml:"empty_grace"`       // 空房间保留时长（秒）
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接级速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 封禁时长（分钟）
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Minute
}

// MessageLimitConfig 消息级速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// TurnTimeoutDuration 返回回合超时时长
func (c *TimingConfig) TurnTimeoutDuration() time.Duration {
	return time.Duration(c.TurnTimeout) * time.Second
}

// WarningRemainingDuration 返回警告提前量
func (c *TimingConfig) WarningRemainingDuration() time.Duration {
	return time.Duration(c.WarningRemaining) * time.Second
}

// ReconnectGraceDuration 返回重连宽限时长
func (c *TimingConfig) ReconnectGraceDuration() time.Duration {
	return time.Duration(c.ReconnectGrace) * time.Minute
}

// TrickHoldDuration 返回一墩牌的展示时长
func (c *TimingConfig) TrickHoldDuration() time.Duration {
	return time.Duration(c.TrickHold) * time.Millisecond
}

// ScoringAdvanceDuration 返回结算阶段超时时长
func (c *TimingConfig) ScoringAdvanceDuration() time.Duration {
	return time.Duration(c.ScoringAdvance) * time.Second
}

// PersistDebounceDuration 返回持久化去抖时长
func (c *TimingConfig) PersistDebounceDuration() time.Duration {
	return time.Duration(c.PersistDebounce) * time.Millisecond
}

// StaleSweepDuration 返回清扫间隔
func (c *TimingConfig) StaleSweepDuration() time.Duration {
	return time.Duration(c.StaleSweep) * time.Minute
}

// EmptyGraceDuration 返回空房间保留时长
func (c *TimingConfig) EmptyGraceDuration() time.Duration {
	return time.Duration(c.EmptyGrace) * time.Second
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults 设置默认值
func (cfg *Config) applyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1441
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 1000
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Game.VictoryThreshold == 0 {
		cfg.Game.VictoryThreshold = 41
	}
	if cfg.Game.MinBet == 0 {
		cfg.Game.MinBet = 7
	}
	if cfg.Game.MaxBet == 0 {
		cfg.Game.MaxBet = 13
	}
	if cfg.Game.BonusCardPoints == 0 {
		cfg.Game.BonusCardPoints = 5
	}
	if cfg.Game.PenaltyCardPoints == 0 {
		cfg.Game.PenaltyCardPoints = -5
	}
	if cfg.Timing.TurnTimeout == 0 {
		cfg.Timing.TurnTimeout = 60
	}
	if cfg.Timing.WarningRemaining == 0 {
		cfg.Timing.WarningRemaining = 15
	}
	if cfg.Timing.ReconnectGrace == 0 {
		cfg.Timing.ReconnectGrace = 15
	}
	if cfg.Timing.TrickHold == 0 {
		cfg.Timing.TrickHold = 1000
	}
	if cfg.Timing.ScoringAdvance == 0 {
		cfg.Timing.ScoringAdvance = 60
	}
	if cfg.Timing.PersistDebounce == 0 {
		cfg.Timing.PersistDebounce = 100
	}
	if cfg.Timing.StaleSweep == 0 {
		cfg.Timing.StaleSweep = 60
	}
	if cfg.Timing.EmptyGrace == 0 {
		cfg.Timing.EmptyGrace = 30
	}
	if cfg.Security.RateLimit.MaxPerSecond == 0 {
		cfg.Security.RateLimit.MaxPerSecond = 10
	}
	if cfg.Security.RateLimit.MaxPerMinute == 0 {
		cfg.Security.RateLimit.MaxPerMinute = 100
	}
	if cfg.Security.RateLimit.BanDuration == 0 {
		cfg.Security.RateLimit.BanDuration = 10
	}
	if cfg.Security.MessageLimit.MaxPerSecond == 0 {
		cfg.Security.MessageLimit.MaxPerSecond = 20
	}
}
