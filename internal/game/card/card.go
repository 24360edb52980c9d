package card

import (
	"fmt"
	"math/rand"
)

// Suit 定义花色
type Suit int

// Rank 定义点数，0 为特殊牌
type Rank int

const (
	Heart   Suit = iota // 红桃
	Spade               // 黑桃
	Diamond             // 方块
	Club                // 梅花
)

const (
	// MinRank 每门花色的最小点数（0 为特殊分牌）
	MinRank Rank = 0
	// MaxRank 每门花色的最大点数
	MaxRank Rank = 12
	// HandSize 每人手牌数，同时也是每局的墩数
	HandSize = 13
	// NumSeats 座位数
	NumSeats = 4
)

// suitSymbols 花色符号映射表
var suitSymbols = map[Suit]string{
	Heart:   "♥",
	Spade:   "♠",
	Diamond: "♦",
	Club:    "♣",
}

// suitNames 花色的线上名称
var suitNames = map[Suit]string{
	Heart:   "hearts",
	Spade:   "spades",
	Diamond: "diamonds",
	Club:    "clubs",
}

// suitByName 线上名称反查
var suitByName = map[string]Suit{
	"hearts":   Heart,
	"spades":   Spade,
	"diamonds": Diamond,
	"clubs":    Club,
}

func (s Suit) String() string {
	if symbol, ok := suitSymbols[s]; ok {
		return symbol
	}
	return "?"
}

// Name 返回花色的线上名称
func (s Suit) Name() string {
	return suitNames[s]
}

// SuitByName 通过线上名称查找花色
func SuitByName(name string) (Suit, bool) {
	s, ok := suitByName[name]
	return s, ok
}

// Card 定义一张牌
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s%d", c.Suit, c.Rank)
}

// Deck 一副牌
type Deck []Card

// NewDeck 创建一副完整的牌：4 门花色 × 点数 0-12，共 52 张
func NewDeck() Deck {
	deck := make(Deck, 0, NumSeats*HandSize)
	for suit := Heart; suit <= Club; suit++ {
		for rank := MinRank; rank <= MaxRank; rank++ {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	return deck
}

// Shuffle 洗牌
func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}

// Deal 发牌，每人 HandSize 张
func (d Deck) Deal() [NumSeats][]Card {
	var hands [NumSeats][]Card
	for i := range hands {
		hands[i] = make([]Card, 0, HandSize)
	}
	for i, c := range d {
		hands[i%NumSeats] = append(hands[i%NumSeats], c)
	}
	return hands
}

// Contains 检查牌堆中是否含有指定的牌
func Contains(cards []Card, c Card) bool {
	for _, x := range cards {
		if x == c {
			return true
		}
	}
	return false
}

// Remove 从牌堆中移除指定的牌，返回新切片
func Remove(cards []Card, c Card) []Card {
	out := make([]Card, 0, len(cards))
	for _, x := range cards {
		if x != c {
			out = append(out, x)
		}
	}
	return out
}
