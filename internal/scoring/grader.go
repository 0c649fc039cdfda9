package scoring

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidDecay = errors.New("invalid flag decay configuration")

// Grader holds the flag decay curve parameters.
type Grader struct {
	MinPointsDivisor int `toml:"min_points_divisor"`
	HalfPointsCount  int `toml:"half_points_count"`
}

func NewGrader(minPointsDivisor, halfPointsCount int) (*Grader, error) {
	g := &Grader{
		MinPointsDivisor: minPointsDivisor,
		HalfPointsCount:  halfPointsCount,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Grader) Validate() error {
	if g.MinPointsDivisor < 2 {
		return fmt.Errorf("%w: min_points_divisor must be at least 2, got %d", ErrInvalidDecay, g.MinPointsDivisor)
	}
	if g.HalfPointsCount < 2 {
		return fmt.Errorf("%w: half_points_count must be at least 2, got %d", ErrInvalidDecay, g.HalfPointsCount)
	}
	return nil
}

// FlagPoints returns the current value of a flag that has been submitted
// submissionCount times. Bounty flags never decay. Non-bounty flags decay
// from basePoints towards basePoints/MinPointsDivisor and sit halfway between
// the two after HalfPointsCount submissions.
//
// Calling it on a grader that fails Validate panics.
func (g *Grader) FlagPoints(basePoints int, bounty bool, submissionCount int) int {
	if bounty {
		return basePoints
	}
	if err := g.Validate(); err != nil {
		panic(err)
	}

	floor := float64(basePoints) / float64(g.MinPointsDivisor)
	amplitude := float64(basePoints) - floor
	exponent := float64(1-submissionCount) / float64(g.HalfPointsCount-1)

	points := int(math.Round(amplitude*math.Pow(2, exponent) + floor))
	if points > basePoints {
		return basePoints
	}
	return points
}
