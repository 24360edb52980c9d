package trick

import (
	"github.com/palemoky/tarneeb41/internal/game/card"
)

// LegalPlays 返回当前可以合法打出的牌：有首攻花色必须跟，否则任意出。
// led 为 nil 表示自己首攻。
func LegalPlays(hand []card.Card, led *card.Suit) []card.Card {
	if led == nil {
		return hand
	}

	var follow []card.Card
	for _, c := range hand {
		if c.Suit == *led {
			follow = append(follow, c)
		}
	}
	if len(follow) > 0 {
		return follow
	}
	return hand
}
