package domain

import "time"

// DefaultEloRating is the strength score every experiment starts from.
const DefaultEloRating = 1200

// NoGoalLabel is used wherever an experiment has no goal.
const NoGoalLabel = "No Goal"

type Experiment struct {
	ID        string
	Name      string
	Goal      *string
	Board     *string
	Prompt    string
	Context   string
	Output    string
	Notes     *string
	Rating    *int
	EloRating int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GoalLabel returns the goal, or NoGoalLabel when it is missing or empty.
func (e Experiment) GoalLabel() string {
	if e.Goal == nil || *e.Goal == "" {
		return NoGoalLabel
	}
	return *e.Goal
}

// IsRated reports whether a human rating has been recorded.
func (e Experiment) IsRated() bool {
	return e.Rating != nil
}
