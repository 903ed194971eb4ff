package domain

import "math"

// EloK is the fixed update factor applied to every battle.
const EloK = 32

// ExpectedScore is the probability that a player rated a beats one rated b.
func ExpectedScore(a, b float64) float64 {
	return 1 / (1 + math.Pow(10, (b-a)/400))
}

// UpdateElo returns the new scores after the winner beats the loser.
// Results are rounded half up.
func UpdateElo(winnerBefore, loserBefore int) (winnerAfter, loserAfter int) {
	w, l := float64(winnerBefore), float64(loserBefore)
	expectedWinner := ExpectedScore(w, l)
	expectedLoser := ExpectedScore(l, w)

	winnerAfter = roundHalfUp(w + EloK*(1-expectedWinner))
	loserAfter = roundHalfUp(l + EloK*(0-expectedLoser))
	return winnerAfter, loserAfter
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
