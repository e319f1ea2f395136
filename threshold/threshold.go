// Package threshold picks the 95th percentile ceiling of a series and classifies its values
// against an over/under, absolute/percent policy.
package threshold

import (
	"math"
	"sort"
	"strconv"

	"github.com/ansel1/merry"
)

// CeilingRank is the rank used to pick the ceiling out of the sorted series.
const CeilingRank = 0.95

var ErrEmptySeries = merry.New("can't evaluate empty series")

// Direction selects which side of the threshold is alerting.
type Direction int

const (
	DirectionUnset Direction = iota
	Over
	Under
)

func (d Direction) String() string {
	switch d {
	case Over:
		return "over"
	case Under:
		return "under"
	default:
		return "unset"
	}
}

// ModeKind tells how Mode.Value is interpreted.
type ModeKind int

const (
	ModeUnset ModeKind = iota
	// Percent compares against Value percent of the ceiling.
	Percent
	// Absolute compares against Value itself.
	Absolute
)

func (k ModeKind) String() string {
	switch k {
	case Percent:
		return "percent"
	case Absolute:
		return "absolute"
	default:
		return "unset"
	}
}

type Mode struct {
	Kind  ModeKind
	Value float64
}

func PercentOf(p float64) Mode {
	return Mode{Kind: Percent, Value: p}
}

func AbsoluteAt(v float64) Mode {
	return Mode{Kind: Absolute, Value: v}
}

func (m Mode) String() string {
	v := strconv.FormatFloat(m.Value, 'f', -1, 64)
	if m.Kind == Percent {
		return v + "%"
	}
	return v
}

// Limit returns the value a sample is compared with for the given ceiling.
func (m Mode) Limit(ceiling float64) float64 {
	if m.Kind == Percent {
		return ceiling * (m.Value / 100.0)
	}
	return m.Value
}

type Policy struct {
	Direction Direction
	Mode      Mode
}

func (p Policy) String() string {
	return p.Direction.String() + " " + p.Mode.String()
}

// Classify reports whether value breaches the policy. An incomplete policy never breaches.
func Classify(p Policy, value, ceiling float64) bool {
	if p.Mode.Kind == ModeUnset {
		return false
	}
	limit := p.Mode.Limit(ceiling)

	switch p.Direction {
	case Over:
		return value > limit
	case Under:
		return value < limit
	default:
		return false
	}
}

type Result struct {
	Ceiling   float64
	Breaching []float64
}

// CeilingIndex returns ceil(n*0.95)-1, the zero based index of the ceiling in a sorted series of length n.
func CeilingIndex(n int) int {
	return int(math.Ceil(float64(n)*CeilingRank)) - 1
}

// Evaluate sorts values, picks the ceiling and returns every value breaching the policy in ascending order.
// values is not modified.
func Evaluate(values []float64, p Policy) (Result, error) {
	if len(values) == 0 {
		return Result{}, ErrEmptySeries
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	res := Result{
		Ceiling:   sorted[CeilingIndex(len(sorted))],
		Breaching: make([]float64, 0),
	}

	for _, v := range sorted {
		if Classify(p, v, res.Ceiling) {
			res.Breaching = append(res.Breaching, v)
		}
	}

	return res, nil
}
