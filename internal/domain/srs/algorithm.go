package srs

import (
	"math"
	"time"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

// Result is the outcome of applying one rating to a schedule.
type Result struct {
	NextState   domain.Schedule `json:"next_state"`
	NextDueDate time.Time       `json:"next_due_date"`
	WasCorrect  bool            `json:"was_correct"`
}

// calculateNewEaseFactor applies the SM-2 ease adjustment for a rating.
//
// The adjustment is 0.1 - (5-q)*(0.08 + (5-q)*0.02): a perfect recall adds 0.1,
// a 4 leaves the factor unchanged and anything lower shrinks it, with the
// penalty growing quadratically as quality drops. The result never goes below
// params.MinEaseFactor.
func calculateNewEaseFactor(currentEF float64, quality domain.Quality, params *Params) float64 {
	miss := float64(domain.QualityEasy - quality)
	delta := 0.1 - miss*(0.08+miss*0.02)
	return math.Max(params.MinEaseFactor, currentEF+delta)
}

// calculateNewInterval returns the next interval in days.
//
// The first two correct recalls use fixed spacing regardless of ease; after
// that the previous interval grows by the ease factor. repetitions is the
// count before the current review is applied.
func calculateNewInterval(repetitions int, easeFactor float64, previousInterval int, params *Params) int {
	switch repetitions {
	case 0:
		return params.FirstInterval
	case 1:
		return params.SecondInterval
	default:
		return int(math.Round(float64(previousInterval) * easeFactor))
	}
}

// calculateNextReviewDate schedules the next review at the start of the day
// that lies interval days after now, in now's location.
func calculateNextReviewDate(interval int, now time.Time) time.Time {
	return domain.StartOfDay(now.AddDate(0, 0, interval))
}

// roundEaseFactor keeps two decimal places.
func roundEaseFactor(ef float64) float64 {
	return math.Round(ef*100) / 100
}

// calculateNextSchedule is the full SM-2 transition. It never mutates state.
//
// A correct rating increments repetitions and grows the interval. An incorrect
// rating resets repetitions and the interval to the first step, but the ease
// factor is still adjusted by the rating.
func calculateNextSchedule(
	state domain.Schedule,
	quality domain.Quality,
	now time.Time,
	params *Params,
) Result {
	wasCorrect := quality >= params.PassingQuality
	newEF := calculateNewEaseFactor(state.EaseFactor, quality, params)

	next := domain.Schedule{EaseFactor: roundEaseFactor(newEF)}
	if wasCorrect {
		next.Repetitions = state.Repetitions + 1
		next.IntervalDays = calculateNewInterval(state.Repetitions, newEF, state.IntervalDays, params)
	} else {
		next.Repetitions = 0
		next.IntervalDays = params.FirstInterval
	}

	return Result{
		NextState:   next,
		NextDueDate: calculateNextReviewDate(next.IntervalDays, now),
		WasCorrect:  wasCorrect,
	}
}

// calculateMastery scores proficiency from 0 to 100, half from the repetition
// streak and half from the interval length. Display only.
func calculateMastery(state domain.Schedule, params *Params) int {
	repScore := math.Min(float64(state.Repetitions)/float64(params.MasteryRepetitions), 1) * 50
	intervalScore := math.Min(float64(state.IntervalDays)/float64(params.MasteryIntervalDays), 1) * 50
	return int(math.Round(repScore + intervalScore))
}
