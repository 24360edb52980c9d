package scoring

// Outcome 一局的叫分结果与吃分情况
type Outcome struct {
	BettorTeam   int         // 叫分方队伍
	BetAmount    int         // 叫分
	WithoutTrump bool        // 无主叫分，得失翻倍
	Captured     map[int]int // teamID → 本局吃到的分
}

// Result 一局的计分结果
type Result struct {
	Succeeded bool        // 叫分方是否达成目标
	Deltas    map[int]int // teamID → 得分变化
}

// ScoreRound 结算一局：叫分方吃分 ≥ 叫分则 +叫分（无主翻倍），否则
// −叫分（无主翻倍）；防守方无论如何加上自己实际吃到的分。纯函数。
func ScoreRound(o Outcome) Result {
	stake := o.BetAmount
	if o.WithoutTrump {
		stake *= 2
	}

	deltas := make(map[int]int, len(o.Captured))
	succeeded := o.Captured[o.BettorTeam] >= o.BetAmount

	for team, captured := range o.Captured {
		if team == o.BettorTeam {
			if succeeded {
				deltas[team] = stake
			} else {
				deltas[team] = -stake
			}
		} else {
			deltas[team] = captured
		}
	}

	return Result{Succeeded: succeeded, Deltas: deltas}
}

// CheckGameOver 在每局计分后立即检查胜负：任一队伍达到分数线即结束。
// 两队同局同时过线时总分高者胜，完全打平时叫分方胜。
func CheckGameOver(scores map[int]int, threshold, bettorTeam int) (winner int, over bool) {
	best := 0
	for team, score := range scores {
		if score < threshold {
			continue
		}
		over = true
		switch {
		case winner == 0 || score > best:
			winner, best = team, score
		case score == best && team == bettorTeam:
			winner = team
		}
	}
	return winner, over
}
