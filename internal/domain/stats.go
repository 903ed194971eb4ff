package domain

import (
	"math"
	"sort"
	"time"
)

const (
	// GoalLabelMaxRunes is the display length goals are truncated to before grouping.
	GoalLabelMaxRunes = 30
	// TopGoalsLimit caps the goal performance ranking.
	TopGoalsLimit = 5
	// SuccessThreshold is the lowest rating counted as a success.
	SuccessThreshold = 4

	shortDateLayout = "Jan 2"
	dayKeyLayout    = "2006-01-02"
)

// Summary holds the headline counters for a collection of experiments.
type Summary struct {
	Total           int     `json:"total"`
	Rated           int     `json:"rated"`
	Unrated         int     `json:"unrated"`
	AverageRating   float64 `json:"averageRating"`
	SuccessRate     int     `json:"successRate"`
	CreatedThisWeek int     `json:"createdThisWeek"`
}

// RatingBucket counts experiments with exactly one rating value.
type RatingBucket struct {
	Rating int `json:"rating"`
	Count  int `json:"count"`
}

// TimelinePoint is one calendar day with at least one experiment.
type TimelinePoint struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	Cumulative int    `json:"cumulative"`
}

// GoalPerformance summarises experiments sharing a (display) goal.
type GoalPerformance struct {
	Goal          string  `json:"goal"`
	Count         int     `json:"count"`
	RatedCount    int     `json:"ratedCount"`
	AverageRating float64 `json:"averageRating"`
}

// WeeklyRating is the mean rating of experiments created in one week.
type WeeklyRating struct {
	Week          string  `json:"week"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
}

// Dashboard bundles every analytics view derived from one snapshot.
type Dashboard struct {
	Summary            Summary           `json:"summary"`
	RatingDistribution []RatingBucket    `json:"ratingDistribution"`
	Timeline           []TimelinePoint   `json:"timeline"`
	GoalPerformance    []GoalPerformance `json:"goalPerformance"`
	RatingTrend        []WeeklyRating    `json:"ratingTrend"`
}

// ComputeDashboard derives all views from experiments as of now.
// now's location decides which calendar day and week a record falls in.
func ComputeDashboard(experiments []Experiment, now time.Time) Dashboard {
	return Dashboard{
		Summary:            ComputeSummary(experiments, now),
		RatingDistribution: ComputeRatingDistribution(experiments),
		Timeline:           ComputeTimeline(experiments, now),
		GoalPerformance:    ComputeGoalPerformance(experiments),
		RatingTrend:        ComputeRatingTrend(experiments, now),
	}
}

func ComputeSummary(experiments []Experiment, now time.Time) Summary {
	s := Summary{Total: len(experiments)}

	weekAgo := now.AddDate(0, 0, -7)
	sum, successes := 0, 0
	for _, e := range experiments {
		if e.CreatedAt.After(weekAgo) && !e.CreatedAt.After(now) {
			s.CreatedThisWeek++
		}
		if e.Rating == nil {
			continue
		}
		s.Rated++
		sum += *e.Rating
		if *e.Rating >= SuccessThreshold {
			successes++
		}
	}
	s.Unrated = s.Total - s.Rated

	if s.Rated > 0 {
		s.AverageRating = round2(float64(sum) / float64(s.Rated))
		s.SuccessRate = int(math.Round(float64(successes) / float64(s.Rated) * 100))
	}
	return s
}

// ComputeRatingDistribution always returns five buckets, ratings 1 through 5.
// Ratings outside that range are not counted.
func ComputeRatingDistribution(experiments []Experiment) []RatingBucket {
	buckets := make([]RatingBucket, 5)
	for i := range buckets {
		buckets[i].Rating = i + 1
	}
	for _, e := range experiments {
		if e.Rating == nil || *e.Rating < 1 || *e.Rating > 5 {
			continue
		}
		buckets[*e.Rating-1].Count++
	}
	return buckets
}

func ComputeTimeline(experiments []Experiment, now time.Time) []TimelinePoint {
	loc := now.Location()
	points := []TimelinePoint{}
	index := make(map[string]int)

	for _, e := range sortedByCreation(experiments) {
		local := e.CreatedAt.In(loc)
		key := local.Format(dayKeyLayout)
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, TimelinePoint{Date: local.Format(shortDateLayout)})
		}
		points[i].Count++
	}

	cumulative := 0
	for i := range points {
		cumulative += points[i].Count
		points[i].Cumulative = cumulative
	}
	return points
}

// ComputeGoalPerformance ranks goals by mean rating, best first.
// Goals are truncated for display before grouping, so two long goals with the
// same first 30 runes end up in one group.
func ComputeGoalPerformance(experiments []Experiment) []GoalPerformance {
	type acc struct {
		GoalPerformance
		sum int
	}
	groups := []*acc{}
	index := make(map[string]*acc)

	for _, e := range experiments {
		label := TruncateGoal(e.GoalLabel())
		g, ok := index[label]
		if !ok {
			g = &acc{GoalPerformance: GoalPerformance{Goal: label}}
			index[label] = g
			groups = append(groups, g)
		}
		g.Count++
		if e.Rating != nil {
			g.RatedCount++
			g.sum += *e.Rating
		}
	}

	result := make([]GoalPerformance, 0, len(groups))
	for _, g := range groups {
		if g.RatedCount > 0 {
			g.AverageRating = round2(float64(g.sum) / float64(g.RatedCount))
		}
		result = append(result, g.GoalPerformance)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].AverageRating > result[j].AverageRating
	})
	if len(result) > TopGoalsLimit {
		result = result[:TopGoalsLimit]
	}
	return result
}

// ComputeRatingTrend groups rated experiments by the Sunday-starting week
// they were created in.
func ComputeRatingTrend(experiments []Experiment, now time.Time) []WeeklyRating {
	loc := now.Location()
	rated := make([]Experiment, 0, len(experiments))
	for _, e := range experiments {
		if e.Rating != nil {
			rated = append(rated, e)
		}
	}

	weeks := []WeeklyRating{}
	sums := []int{}
	index := make(map[string]int)

	for _, e := range sortedByCreation(rated) {
		start := WeekStart(e.CreatedAt.In(loc))
		key := start.Format(dayKeyLayout)
		i, ok := index[key]
		if !ok {
			i = len(weeks)
			index[key] = i
			weeks = append(weeks, WeeklyRating{Week: start.Format(shortDateLayout)})
			sums = append(sums, 0)
		}
		weeks[i].Count++
		sums[i] += *e.Rating
	}

	for i := range weeks {
		weeks[i].AverageRating = round2(float64(sums[i]) / float64(weeks[i].Count))
	}
	return weeks
}

// TruncateGoal shortens labels longer than GoalLabelMaxRunes, appending "...".
func TruncateGoal(label string) string {
	runes := []rune(label)
	if len(runes) <= GoalLabelMaxRunes {
		return label
	}
	return string(runes[:GoalLabelMaxRunes]) + "..."
}

// WeekStart returns midnight of the Sunday on or before t, in t's location.
func WeekStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day()-int(t.Weekday()), 0, 0, 0, 0, t.Location())
}

func sortedByCreation(experiments []Experiment) []Experiment {
	sorted := make([]Experiment, len(experiments))
	copy(sorted, experiments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
