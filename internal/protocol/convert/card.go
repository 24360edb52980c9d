package convert

import (
	"github.com/palemoky/tarneeb41/internal/game/card"
	"github.com/palemoky/tarneeb41/internal/game/trick"
	"github.com/palemoky/tarneeb41/internal/protocol"
)

// CardToInfo 将 Card 转为线上表示
func CardToInfo(c card.Card) protocol.CardInfo {
	return protocol.CardInfo{Suit: c.Suit.Name(), Rank: int(c.Rank)}
}

// CardsToInfos 批量转换
func CardsToInfos(cards []card.Card) []protocol.CardInfo {
	infos := make([]protocol.CardInfo, len(cards))
	for i, c := range cards {
		infos[i] = CardToInfo(c)
	}
	return infos
}

// InfoToCard 将线上表示转回 Card，花色名非法时返回 false
func InfoToCard(info protocol.CardInfo) (card.Card, bool) {
	suit, ok := card.SuitByName(info.Suit)
	if !ok {
		return card.Card{}, false
	}
	if card.Rank(info.Rank) < card.MinRank || card.Rank(info.Rank) > card.MaxRank {
		return card.Card{}, false
	}
	return card.Card{Suit: suit, Rank: card.Rank(info.Rank)}, true
}

// PlaysToInfos 将一墩出牌转为线上表示
func PlaysToInfos(plays []trick.Play) []protocol.TrickPlayInfo {
	infos := make([]protocol.TrickPlayInfo, len(plays))
	for i, p := range plays {
		infos[i] = protocol.TrickPlayInfo{
			SeatName: p.SeatName,
			Card:     CardToInfo(p.Card),
			Order:    p.Order,
		}
	}
	return infos
}
