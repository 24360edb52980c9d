package bot

import (
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/game/trick"
)

// View 策略可见的牌局信息，不含他人手牌
type View struct {
	Hand  []card.Card
	Trick []trick.Play     // 当前墩已出的牌
	Trump *card.Suit       // 本局将牌，nil 表示无主
	Order *card.OrderTable // 牌力顺序表
}

// Strategy 选牌策略。实现必须是纯函数：相同 View 恒返回相同的牌，
// 且返回的牌必须是 View.Hand 中的合法出牌。
type Strategy interface {
	SelectCard(v View) card.Card
}

// Lowest 默认策略：打出最小的合法牌。超时代打和机器人座位共用。
type Lowest struct{}

// SelectCard 实现 Strategy
func (Lowest) SelectCard(v View) card.Card {
	var led *card.Suit
	if len(v.Trick) > 0 {
		led = &v.Trick[0].Card.Suit
	}

	legal := trick.LegalPlays(v.Hand, led)

	lowest := legal[0]
	for _, c := range legal[1:] {
		if v.Order.PlainStrength(c) < v.Order.PlainStrength(lowest) {
			lowest = c
		}
	}
	return lowest
}
