package srs

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

// Common errors
var (
	ErrInvalidQuality = errors.New("quality must be between 0 and 5")
)

// Service defines the interface for SM-2 scheduling operations
type Service interface {
	// ProcessReview computes the schedule that follows a rating
	ProcessReview(state domain.Schedule, quality domain.Quality, now time.Time) (Result, error)

	// PreviewIntervals returns the interval every possible rating would produce
	PreviewIntervals(state domain.Schedule) Preview

	// InitialState is the schedule of an item that has never been reviewed
	InitialState() domain.Schedule

	// MasteryScore is a 0-100 proficiency heuristic for display
	MasteryScore(state domain.Schedule) int
}

// Preview maps each quality 0-5 to the interval in days it would schedule.
type Preview [6]int

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

// ProcessReview implements the Service interface
func (s *defaultService) ProcessReview(
	state domain.Schedule,
	quality domain.Quality,
	now time.Time,
) (Result, error) {
	if !quality.IsValid() {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}
	return calculateNextSchedule(state, quality, now, s.params), nil
}

// PreviewIntervals implements the Service interface. state is passed by value
// and is never modified.
func (s *defaultService) PreviewIntervals(state domain.Schedule) Preview {
	var preview Preview
	for q := domain.QualityBlackout; q <= domain.QualityEasy; q++ {
		preview[q] = calculateNextSchedule(state, q, time.Time{}, s.params).NextState.IntervalDays
	}
	return preview
}

// InitialState implements the Service interface
func (s *defaultService) InitialState() domain.Schedule {
	return domain.Schedule{EaseFactor: s.params.DefaultEaseFactor}
}

// MasteryScore implements the Service interface
func (s *defaultService) MasteryScore(state domain.Schedule) int {
	return calculateMastery(state, s.params)
}

var defaultParams = NewDefaultParams()

// NextEaseFactor applies the SM-2 ease adjustment with default parameters.
func NextEaseFactor(currentEF float64, quality domain.Quality) float64 {
	return calculateNewEaseFactor(currentEF, quality, defaultParams)
}

// NextInterval returns the SM-2 interval for the pre-review repetition count.
func NextInterval(repetitions int, easeFactor float64, previousInterval int) int {
	return calculateNewInterval(repetitions, easeFactor, previousInterval, defaultParams)
}

// ProcessReview applies one rating with default parameters. quality must be in 0-5.
func ProcessReview(state domain.Schedule, quality domain.Quality, now time.Time) Result {
	return calculateNextSchedule(state, quality, now, defaultParams)
}

// InitialState is the schedule of a never-reviewed item.
func InitialState() domain.Schedule {
	return domain.Schedule{EaseFactor: defaultParams.DefaultEaseFactor}
}

// MasteryScore scores proficiency from 0 to 100 with default parameters.
func MasteryScore(state domain.Schedule) int {
	return calculateMastery(state, defaultParams)
}

// FormatInterval renders an interval for display.
func FormatInterval(days int) string {
	switch {
	case days <= 0:
		return "now"
	case days == 1:
		return "1 day"
	case days < 7:
		return strconv.Itoa(days) + " days"
	case days < 30:
		return pluralize(int(math.Round(float64(days)/7)), "week")
	case days < 365:
		return pluralize(int(math.Round(float64(days)/30)), "month")
	default:
		years := math.Round(float64(days)/365*10) / 10
		if years == 1 {
			return "1 year"
		}
		return strconv.FormatFloat(years, 'f', -1, 64) + " years"
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
