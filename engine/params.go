package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidBoard     = errors.New("invalid board")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Variant selects the rule set a simulation runs with.
type Variant int8

const (
	// Mutation is the evolvable rule: heritable thresholds with birth-time mutation.
	Mutation Variant = iota
	// Radiation adds cumulative damage and periodic radiation death to Mutation.
	Radiation
	// Classic is the unmodified B3/S23 game applied to every cell.
	Classic
)

func (v Variant) String() string {
	switch v {
	case Mutation:
		return "mutation"
	case Radiation:
		return "radiation"
	case Classic:
		return "classic"
	}
	return "unknown"
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mutation":
		return Mutation, nil
	case "radiation":
		return Radiation, nil
	case "classic":
		return Classic, nil
	}
	return Mutation, fmt.Errorf("%w: unknown variant %q", ErrInvalidParameter, s)
}

func (v Variant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

func (v *Variant) UnmarshalText(text []byte) error {
	p, err := ParseVariant(string(text))
	if err != nil {
		return err
	}
	*v = p
	return nil
}

// Comparator decides whether a neighbour count satisfies a parent's born threshold.
type Comparator int8

const (
	Equal Comparator = iota
	AtLeast
	AtMost
)

func (c Comparator) Test(n, born int) bool {
	switch c {
	case AtLeast:
		return n >= born
	case AtMost:
		return n <= born
	}
	return n == born
}

func (c Comparator) String() string {
	switch c {
	case Equal:
		return "eq"
	case AtLeast:
		return "ge"
	case AtMost:
		return "le"
	}
	return "unknown"
}

func ParseComparator(s string) (Comparator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "eq", "==":
		return Equal, nil
	case "ge", ">=":
		return AtLeast, nil
	case "le", "<=":
		return AtMost, nil
	}
	return Equal, fmt.Errorf("%w: unknown comparator %q", ErrInvalidParameter, s)
}

func (c Comparator) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Comparator) UnmarshalText(text []byte) error {
	p, err := ParseComparator(string(text))
	if err != nil {
		return err
	}
	*c = p
	return nil
}

// RadiationParams configures periodic exposure. Every Gap generations live cells
// take Strength damage; half a period later any cell still damaged dies.
type RadiationParams struct {
	Strength float64 `json:"strength"`
	Gap      int     `json:"gap"`
}

const DefaultSteadyWindow = 10

type Params struct {
	Variant           Variant          `json:"variant"`
	Generations       int              `json:"generations"`
	MutationRate      float64          `json:"mutation_rate"`
	MutationMagnitude float64          `json:"mutation_magnitude"`
	IntegerMutation   bool             `json:"integer_mutation,omitempty"`
	Radiation         *RadiationParams `json:"radiation,omitempty"`
	Birth             Comparator       `json:"birth"`
	Initial           Thresholds       `json:"initial"`
	SteadyWindow      int              `json:"steady_window"`
	Seed              uint64           `json:"seed"`
	Workers           int              `json:"workers,omitempty"`
	// NoHistory leaves Result.History empty. The last board is still in Result.Final.
	NoHistory         bool             `json:"no_history,omitempty"`
}

func DefaultParams() Params {
	return Params{
		Variant:      Mutation,
		Generations:  10000,
		Birth:        Equal,
		Initial:      DefaultThresholds,
		SteadyWindow: DefaultSteadyWindow,
		Workers:      1,
	}
}

// Normalize fills zero values with defaults and resolves the variant: radiation
// settings on a Mutation run select the Radiation variant.
func (p Params) Normalize() Params {
	if p.SteadyWindow == 0 {
		p.SteadyWindow = DefaultSteadyWindow
	}
	if p.Initial == (Thresholds{}) {
		p.Initial = DefaultThresholds
	}
	if p.Workers == 0 {
		p.Workers = 1
	}
	if p.Variant == Mutation && p.Radiation != nil {
		p.Variant = Radiation
	}
	return p
}

// inRange reports whether lo <= v <= hi. NaN and infinities are never in range.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi && !math.IsInf(v, 0)
}

func (p Params) Validate() error {
	if p.Generations < 1 {
		return fmt.Errorf("%w: generations must be positive, got %d", ErrInvalidParameter, p.Generations)
	}
	if !inRange(p.MutationRate, 0, 1) {
		return fmt.Errorf("%w: mutation rate %v outside [0,1]", ErrInvalidParameter, p.MutationRate)
	}
	if !inRange(p.MutationMagnitude, 0, math.MaxFloat64) {
		return fmt.Errorf("%w: mutation magnitude %v must be finite and non-negative", ErrInvalidParameter, p.MutationMagnitude)
	}
	if p.SteadyWindow < 1 {
		return fmt.Errorf("%w: steady window must be positive, got %d", ErrInvalidParameter, p.SteadyWindow)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrInvalidParameter, p.Workers)
	}
	for name, v := range map[string]float64{"lonely": p.Initial.Lonely, "born": p.Initial.Born, "crowded": p.Initial.Crowded} {
		if !inRange(v, MinThreshold, MaxThreshold) {
			return fmt.Errorf("%w: initial %s threshold %v outside [0,8]", ErrInvalidParameter, name, v)
		}
	}
	switch p.Variant {
	case Mutation, Classic:
	case Radiation:
		if p.Radiation == nil {
			return fmt.Errorf("%w: radiation variant without radiation settings", ErrInvalidParameter)
		}
		if p.Radiation.Gap < 1 {
			return fmt.Errorf("%w: radiation gap must be positive, got %d", ErrInvalidParameter, p.Radiation.Gap)
		}
		if !inRange(p.Radiation.Strength, 0, math.MaxFloat64) {
			return fmt.Errorf("%w: radiation strength %v must be finite and non-negative", ErrInvalidParameter, p.Radiation.Strength)
		}
	default:
		return fmt.Errorf("%w: unknown variant %d", ErrInvalidParameter, p.Variant)
	}
	if p.Birth != Equal && p.Birth != AtLeast && p.Birth != AtMost {
		return fmt.Errorf("%w: unknown comparator %d", ErrInvalidParameter, p.Birth)
	}
	return nil
}
