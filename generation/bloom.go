package generation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/andyMattick/eduagents/core"
)

// BloomLevel is a cognitive level of Bloom's revised taxonomy.
type BloomLevel string

// Bloom levels in ascending cognitive order.
const (
	Remember   BloomLevel = "remember"
	Understand BloomLevel = "understand"
	Apply      BloomLevel = "apply"
	Analyze    BloomLevel = "analyze"
	Evaluate   BloomLevel = "evaluate"
	Create     BloomLevel = "create"
)

// Levels lists every BloomLevel in canonical order.
var Levels = []BloomLevel{Remember, Understand, Apply, Analyze, Evaluate, Create}

// ParseLevel normalizes s (case and surrounding space insensitive) into a
// BloomLevel.
func ParseLevel(s string) (BloomLevel, bool) {
	l := BloomLevel(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

// Goals maps a Bloom level name to a relative target weight.
type Goals map[string]float64

// ParseGoals reads "level=weight" pairs such as "apply=2". A bare level name
// counts as weight 1. Repeated levels accumulate. Negative, NaN and infinite
// weights are rejected.
func ParseGoals(pairs []string) (Goals, error) {
	goals := Goals{}
	for _, pair := range pairs {
		name, raw, hasWeight := strings.Cut(pair, "=")
		level, ok := ParseLevel(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown bloom level %q", core.ErrInvalidArgument, name)
		}
		weight := 1.0
		if hasWeight {
			w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: weight for %s: %v", core.ErrInvalidArgument, level, err)
			}
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return nil, fmt.Errorf("%w: invalid weight %q for %s", core.ErrInvalidArgument, raw, level)
			}
			weight = w
		}
		goals[string(level)] += weight
	}
	return goals, nil
}

// Validate rejects unknown levels, negative or non-finite weights and goal
// sets whose weights sum to zero.
func (g Goals) Validate() error {
	if len(g) == 0 {
		return fmt.Errorf("%w: no bloom goals given", core.ErrInvalidArgument)
	}
	var total float64
	for name, w := range g {
		if _, ok := ParseLevel(name); !ok {
			return fmt.Errorf("%w: unknown bloom level %q", core.ErrInvalidArgument, name)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: invalid weight %v for %s", core.ErrInvalidArgument, w, name)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("%w: bloom goal weights sum to zero", core.ErrInvalidArgument)
	}
	return nil
}

// Normalized returns the goals keyed by canonical level with weights summing
// to 1. Zero weights are dropped. The receiver must be valid.
func (g Goals) Normalized() map[BloomLevel]float64 {
	var total float64
	for _, w := range g {
		total += w
	}
	out := make(map[BloomLevel]float64, len(g))
	if total == 0 {
		return out
	}
	for name, w := range g {
		level, ok := ParseLevel(name)
		if !ok || w == 0 {
			continue
		}
		out[level] += w / total
	}
	return out
}

// Allocation is the number of problems targeted at one Bloom level.
type Allocation struct {
	Level BloomLevel `json:"level" yaml:"level"`
	Count int        `json:"count" yaml:"count"`
}

// Allocate distributes count problems across the goal levels by largest
// remainder. Ties go to the lower cognitive level. Levels receiving zero
// problems are omitted; the result is in canonical level order.
func (g Goals) Allocate(count int) []Allocation {
	if count <= 0 {
		return nil
	}
	norm := g.Normalized()

	type share struct {
		level     BloomLevel
		count     int
		remainder float64
	}
	var shares []share
	assigned := 0
	for _, level := range Levels {
		w, ok := norm[level]
		if !ok {
			continue
		}
		exact := w * float64(count)
		n := int(math.Floor(exact))
		shares = append(shares, share{level: level, count: n, remainder: exact - float64(n)})
		assigned += n
	}

	byRemainder := make([]int, len(shares))
	for i := range byRemainder {
		byRemainder[i] = i
	}
	sort.SliceStable(byRemainder, func(a, b int) bool {
		return shares[byRemainder[a]].remainder > shares[byRemainder[b]].remainder
	})
	for i := 0; assigned < count && len(shares) > 0; i++ {
		shares[byRemainder[i%len(shares)]].count++
		assigned++
	}

	out := make([]Allocation, 0, len(shares))
	for _, s := range shares {
		if s.count > 0 {
			out = append(out, Allocation{Level: s.level, Count: s.count})
		}
	}
	return out
}
