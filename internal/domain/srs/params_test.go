package srs

import (
	"errors"
	"testing"

	"github.com/phrazzld/scry-vocab/internal/domain"
)

func TestNewDefaultParams(t *testing.T) {
	params := NewDefaultParams()

	if params.MinEaseFactor != 1.3 {
		t.Errorf("MinEaseFactor should be 1.3, got %f", params.MinEaseFactor)
	}

	if params.DefaultEaseFactor != 2.5 {
		t.Errorf("DefaultEaseFactor should be 2.5, got %f", params.DefaultEaseFactor)
	}

	if params.FirstInterval != 1 || params.SecondInterval != 6 {
		t.Errorf("Expected intervals 1 and 6, got %d and %d", params.FirstInterval, params.SecondInterval)
	}

	if params.PassingQuality != domain.QualityHard {
		t.Errorf("Expected passing quality 3, got %d", params.PassingQuality)
	}

	if err := params.Validate(); err != nil {
		t.Errorf("Default params should validate, got %v", err)
	}
}

func TestNewParams(t *testing.T) {
	params := NewParams(ParamsConfig{
		FirstInterval:  2,
		SecondInterval: 5,
	})

	if params.FirstInterval != 2 || params.SecondInterval != 5 {
		t.Errorf("Expected overridden intervals, got %d and %d", params.FirstInterval, params.SecondInterval)
	}

	if params.MinEaseFactor != 1.3 {
		t.Errorf("Expected default MinEaseFactor to be kept, got %f", params.MinEaseFactor)
	}
}

func TestParamsValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"min ease at or below one", func(p *Params) { p.MinEaseFactor = 1.0 }},
		{"default ease below min", func(p *Params) { p.DefaultEaseFactor = 1.2 }},
		{"zero first interval", func(p *Params) { p.FirstInterval = 0 }},
		{"decreasing intervals", func(p *Params) { p.SecondInterval = 0 }},
		{"passing quality out of range", func(p *Params) { p.PassingQuality = 7 }},
		{"zero mastery repetitions", func(p *Params) { p.MasteryRepetitions = 0 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			params := NewDefaultParams()
			tc.mutate(params)
			if err := params.Validate(); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("Expected ErrInvalidParams, got %v", err)
			}
		})
	}

	var nilParams *Params
	if err := nilParams.Validate(); !errors.Is(err, ErrInvalidParams) {
		t.Errorf("Expected ErrInvalidParams for nil params, got %v", err)
	}
}
