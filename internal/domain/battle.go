package domain

import "time"

// Battle is one pairwise comparison between two experiments.
// Battles are append-only.
type Battle struct {
	ID           string
	WinnerID     string
	LoserID      string
	WinnerBefore int
	WinnerAfter  int
	LoserBefore  int
	LoserAfter   int
	Goal         string
	Board        string
	UserID       *string
	CreatedAt    time.Time
}
