package trick

import (
	"errors"

	"github.com/palemoky/tarneeb41/internal/game/card"
)

// Play 一墩中的一手牌
type Play struct {
	SeatName string
	Card     card.Card
	Order    int // 出牌顺序，从 0 开始
}

// Result 一墩的结算结果
type Result struct {
	WinnerSeat string
	Value      int // 1 分基础分 + 特殊牌加成
}

// ErrEmptyTrick 空墩无法结算
var ErrEmptyTrick = errors.New("trick: no plays to resolve")

// Resolve 结算一墩：首攻花色最大者赢，除非墩中出现将牌，届时将牌中
// 最大者赢。墩值为 1 分基础分加上墩内全部特殊牌的加成，无论特殊牌
// 由谁打出，都记在赢家头上。纯函数，相同输入恒得相同输出。
func Resolve(plays []Play, trump *card.Suit, order *card.OrderTable, bonuses card.BonusTable) (Result, error) {
	if len(plays) == 0 {
		return Result{}, ErrEmptyTrick
	}

	ledSuit := plays[0].Card.Suit

	winner := plays[0]
	winnerIsTrump := trump != nil && plays[0].Card.Suit == *trump

	for _, p := range plays[1:] {
		isTrump := trump != nil && p.Card.Suit == *trump

		switch {
		case isTrump && !winnerIsTrump:
			winner, winnerIsTrump = p, true
		case isTrump && winnerIsTrump:
			if order.TrumpStrength(p.Card) > order.TrumpStrength(winner.Card) {
				winner = p
			}
		case !isTrump && !winnerIsTrump && p.Card.Suit == ledSuit:
			if order.PlainStrength(p.Card) > order.PlainStrength(winner.Card) {
				winner = p
			}
		}
	}

	value := 1
	for _, p := range plays {
		value += bonuses.Bonus(p.Card)
	}

	return Result{WinnerSeat: winner.SeatName, Value: value}, nil
}
