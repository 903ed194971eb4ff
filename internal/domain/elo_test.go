package domain

import (
	"math"
	"testing"
)

func TestExpectedScore(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"equal", 1200, 1200, 0.5},
		{"400 points stronger", 1400, 1000, 10.0 / 11.0},
		{"400 points weaker", 1000, 1400, 1.0 / 11.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpectedScore(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ExpectedScore(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	if sum := ExpectedScore(1337, 1042) + ExpectedScore(1042, 1337); math.Abs(sum-1) > 1e-9 {
		t.Errorf("expected scores sum to %v, want 1", sum)
	}
}

func TestUpdateElo(t *testing.T) {
	tests := []struct {
		name                      string
		winnerBefore, loserBefore int
		winnerAfter, loserAfter   int
	}{
		{"equal ratings", 1200, 1200, 1216, 1184},
		{"upset", 1000, 1400, 1029, 1371},
		{"favourite wins", 1400, 1000, 1403, 997},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, l := UpdateElo(tt.winnerBefore, tt.loserBefore)
			if w != tt.winnerAfter || l != tt.loserAfter {
				t.Errorf("UpdateElo(%d, %d) = (%d, %d), want (%d, %d)",
					tt.winnerBefore, tt.loserBefore, w, l, tt.winnerAfter, tt.loserAfter)
			}
		})
	}
}

func TestUpdateElo_UpsetGainsMoreThanHalfK(t *testing.T) {
	w, l := UpdateElo(1000, 1400)
	if w-1000 <= EloK/2 {
		t.Errorf("underdog gained %d, want more than %d", w-1000, EloK/2)
	}
	if l >= 1400 {
		t.Errorf("favourite score %d did not decrease", l)
	}
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{1.5, 2},
		{-1.5, -1},
		{1183.5, 1184},
		{2.49, 2},
	}
	for _, tt := range tests {
		if got := roundHalfUp(tt.in); got != tt.want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
