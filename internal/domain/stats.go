package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Thresholds used by the statistics views.
const (
	// MasteredIntervalDays is the interval above which an item counts as mastered.
	MasteredIntervalDays = 21

	// DailyStatsWindowDays is how far back the daily history reaches.
	DailyStatsWindowDays = 30

	// ForecastDays is the number of days covered by the due forecast.
	ForecastDays = 7
)

const dateLayout = "2006-01-02"

// CollectionStats is an aggregate snapshot of one user's progress in a collection.
type CollectionStats struct {
	CollectionID uuid.UUID `json:"collection_id"`
	Total        int       `json:"total"`
	Learned      int       `json:"learned"`
	Due          int       `json:"due"`
	New          int       `json:"new"`
}

// NewCollectionStats builds a snapshot from raw counts. New is derived as
// total minus learned and never goes below zero.
func NewCollectionStats(collectionID uuid.UUID, total, learned, due int) CollectionStats {
	newItems := total - learned
	if newItems < 0 {
		newItems = 0
	}
	return CollectionStats{
		CollectionID: collectionID,
		Total:        total,
		Learned:      learned,
		Due:          due,
		New:          newItems,
	}
}

// DailyStats summarizes the reviews of one calendar day.
type DailyStats struct {
	Date       string `json:"date"`
	Reviewed   int    `json:"reviewed"`
	Correct    int    `json:"correct"`
	NewLearned int    `json:"new_learned"`
}

// ForecastDay is the number of items falling due on one upcoming day.
type ForecastDay struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// UserStats is the cross-collection progress overview for one user.
type UserStats struct {
	TotalItems      int           `json:"total_items"`
	LearnedItems    int           `json:"learned_items"`
	MasteredItems   int           `json:"mastered_items"`
	TodayReviewed   int           `json:"today_reviewed"`
	TodayNewLearned int           `json:"today_new_learned"`
	CurrentStreak   int           `json:"current_streak"`
	DailyStats      []DailyStats  `json:"daily_stats"`
	Forecast        []ForecastDay `json:"forecast"`
}

// BuildUserStats derives the overview from a user's learning states, the
// review logs of the last DailyStatsWindowDays days, and the time of every
// review the user has made. The streak is not limited to the log window.
func BuildUserStats(
	states []LearningState,
	logs []ReviewLogEntry,
	reviewedAt []time.Time,
	now time.Time,
) UserStats {
	stats := UserStats{TotalItems: len(states)}
	for _, s := range states {
		if s.Repetitions > 0 {
			stats.LearnedItems++
		}
		if s.IntervalDays > MasteredIntervalDays {
			stats.MasteredItems++
		}
	}

	today := StartOfDay(now)
	for _, l := range logs {
		if l.ReviewedAt.Before(today) {
			continue
		}
		stats.TodayReviewed++
		if l.FirstLearned() {
			stats.TodayNewLearned++
		}
	}

	stats.CurrentStreak = Streak(reviewedAt, now)
	stats.DailyStats = GroupByDate(logs, now.Location())
	stats.Forecast = Forecast(states, now, ForecastDays)
	return stats
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Streak counts consecutive review days ending today or yesterday.
// A gap of more than one day before the most recent review day yields zero.
func Streak(reviewedAt []time.Time, now time.Time) int {
	if len(reviewedAt) == 0 {
		return 0
	}

	loc := now.Location()
	seen := make(map[string]struct{}, len(reviewedAt))
	days := make([]time.Time, 0, len(reviewedAt))
	for _, t := range reviewedAt {
		day := StartOfDay(t.In(loc))
		key := day.Format(dateLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)
	if !days[0].Equal(today) && !days[0].Equal(yesterday) {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i-1].AddDate(0, 0, -1).Equal(days[i]) {
			break
		}
		streak++
	}
	return streak
}

// GroupByDate buckets review logs by calendar day in loc, oldest first.
func GroupByDate(logs []ReviewLogEntry, loc *time.Location) []DailyStats {
	byDate := make(map[string]*DailyStats)
	for _, l := range logs {
		key := l.ReviewedAt.In(loc).Format(dateLayout)
		day, ok := byDate[key]
		if !ok {
			day = &DailyStats{Date: key}
			byDate[key] = day
		}
		day.Reviewed++
		if l.Quality.IsCorrect() {
			day.Correct++
		}
		if l.FirstLearned() {
			day.NewLearned++
		}
	}

	result := make([]DailyStats, 0, len(byDate))
	for _, day := range byDate {
		result = append(result, *day)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result
}

// Forecast counts the states falling due on each of the next days, starting
// today. Overdue states are counted on the first day.
func Forecast(states []LearningState, now time.Time, days int) []ForecastDay {
	if days <= 0 {
		return nil
	}

	today := StartOfDay(now)
	forecast := make([]ForecastDay, days)
	for i := range forecast {
		day := today.AddDate(0, 0, i)
		forecast[i] = ForecastDay{
			Date:  day.Format(dateLayout),
			Label: forecastLabel(i, day),
		}
	}

	for _, s := range states {
		due := StartOfDay(s.DueAt.In(now.Location()))
		if due.Before(today) {
			forecast[0].Count++
			continue
		}
		for i := range forecast {
			if due.Equal(today.AddDate(0, 0, i)) {
				forecast[i].Count++
				break
			}
		}
	}
	return forecast
}

func forecastLabel(offset int, day time.Time) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return day.Weekday().String()[:3]
	}
}
