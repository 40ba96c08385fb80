package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

// ErrInvalidParams is returned when a Params value cannot drive the algorithm.
var ErrInvalidParams = errors.New("invalid SRS parameters")

// Params defines all configurable parameters for the SM-2 algorithm
type Params struct {
	// Ease factor limits
	MinEaseFactor     float64
	DefaultEaseFactor float64

	// Fixed intervals after the first and second consecutive correct recall
	FirstInterval  int
	SecondInterval int

	// Lowest quality that counts as a correct recall
	PassingQuality domain.Quality

	// Saturation points for the mastery score
	MasteryRepetitions  int
	MasteryIntervalDays int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	MinEaseFactor       float64
	DefaultEaseFactor   float64
	FirstInterval       int
	SecondInterval      int
	PassingQuality      domain.Quality
	MasteryRepetitions  int
	MasteryIntervalDays int
}

// NewDefaultParams creates a new Params instance with the classic SM-2 values
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:       domain.MinEaseFactor,
		DefaultEaseFactor:   domain.DefaultEaseFactor,
		FirstInterval:       1,
		SecondInterval:      6,
		PassingQuality:      domain.PassingQuality,
		MasteryRepetitions:  5,
		MasteryIntervalDays: 30,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero values in config keep the defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.DefaultEaseFactor > 0 {
		params.DefaultEaseFactor = config.DefaultEaseFactor
	}
	if config.FirstInterval > 0 {
		params.FirstInterval = config.FirstInterval
	}
	if config.SecondInterval > 0 {
		params.SecondInterval = config.SecondInterval
	}
	if config.PassingQuality > 0 {
		params.PassingQuality = config.PassingQuality
	}
	if config.MasteryRepetitions > 0 {
		params.MasteryRepetitions = config.MasteryRepetitions
	}
	if config.MasteryIntervalDays > 0 {
		params.MasteryIntervalDays = config.MasteryIntervalDays
	}

	return params
}

// Validate checks that the parameters are internally consistent.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: params cannot be nil", ErrInvalidParams)
	}
	if p.MinEaseFactor <= 1.0 {
		return fmt.Errorf("%w: minimum ease factor must exceed 1.0", ErrInvalidParams)
	}
	if p.DefaultEaseFactor < p.MinEaseFactor {
		return fmt.Errorf("%w: default ease factor below minimum", ErrInvalidParams)
	}
	if p.FirstInterval < 1 || p.SecondInterval < p.FirstInterval {
		return fmt.Errorf("%w: intervals must be positive and non-decreasing", ErrInvalidParams)
	}
	if !p.PassingQuality.IsValid() {
		return fmt.Errorf("%w: passing quality out of range", ErrInvalidParams)
	}
	if p.MasteryRepetitions < 1 || p.MasteryIntervalDays < 1 {
		return fmt.Errorf("%w: mastery saturation points must be positive", ErrInvalidParams)
	}
	return nil
}
