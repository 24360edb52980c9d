package card

// BonusTable 特殊牌的墩分加成：赢下含特殊牌的一墩时，赢家额外
// 获得（或被扣除）对应分数，与出牌者无关。
type BonusTable map[Card]int

// NewBonusTable 按配置构建特殊牌表。红桃 0 为奖励牌，黑桃 0 为惩罚牌。
func NewBonusTable(bonus, penalty int) BonusTable {
	return BonusTable{
		{Suit: Heart, Rank: 0}: bonus,
		{Suit: Spade, Rank: 0}: penalty,
	}
}

// Bonus 返回一张牌的加成分，普通牌为 0
func (t BonusTable) Bonus(c Card) int {
	return t[c]
}

// Sum 返回整副牌的加成分总和
func (t BonusTable) Sum() int {
	total := 0
	for _, v := range t {
		total += v
	}
	return total
}

// PointPool 返回一副牌的总分池：每墩 1 分的基础分加上全部特殊牌加成。
// 无论怎么发牌、怎么打，双方吃到的分数之和恒等于该值。
func (t BonusTable) PointPool() int {
	return HandSize + t.Sum()
}
