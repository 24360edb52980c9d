package card

// OrderTable 定义牌力排序：每门花色有自己的点数顺序表，将牌另有一套顺序。
// 默认实现中顺序都是点数升序（0 最小），但保留表驱动的形式，便于
// 按规则变体调整单门花色的强弱。
type OrderTable struct {
	Plain map[Suit][]Rank // 各花色点数从弱到强
	Trump []Rank          // 将牌点数从弱到强
}

// DefaultOrder 返回默认顺序表
func DefaultOrder() *OrderTable {
	ascending := make([]Rank, 0, int(MaxRank)+1)
	for r := MinRank; r <= MaxRank; r++ {
		ascending = append(ascending, r)
	}

	plain := make(map[Suit][]Rank, NumSeats)
	for suit := Heart; suit <= Club; suit++ {
		plain[suit] = ascending
	}

	return &OrderTable{Plain: plain, Trump: ascending}
}

// PlainStrength 返回一张牌在其花色内的牌力，越大越强
func (t *OrderTable) PlainStrength(c Card) int {
	for i, r := range t.Plain[c.Suit] {
		if r == c.Rank {
			return i
		}
	}
	return -1
}

// TrumpStrength 返回一张将牌的牌力，越大越强
func (t *OrderTable) TrumpStrength(c Card) int {
	for i, r := range t.Trump {
		if r == c.Rank {
			return i
		}
	}
	return -1
}
