package generation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andyMattick/eduagents/core"
)

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("  Apply ")
	assert.True(t, ok)
	assert.Equal(t, Apply, l)

	_, ok = ParseLevel("memorize")
	assert.False(t, ok)
}

func TestParseGoals(t *testing.T) {
	goals, err := ParseGoals([]string{"remember=2", "Apply=1.5", "create", "apply=0.5"})
	require.NoError(t, err)
	assert.Equal(t, Goals{"remember": 2, "apply": 2, "create": 1}, goals)

	_, err = ParseGoals([]string{"memorize=1"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	_, err = ParseGoals([]string{"apply=lots"})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	for _, bad := range []string{"apply=NaN", "apply=Inf", "apply=-inf", "apply=-1"} {
		_, err = ParseGoals([]string{bad})
		assert.ErrorIs(t, err, core.ErrInvalidArgument, bad)
	}
}

func TestGoals_Validate(t *testing.T) {
	tests := []struct {
		name    string
		goals   Goals
		wantErr bool
	}{
		{"valid", Goals{"remember": 1, "apply": 3}, false},
		{"mixed case", Goals{"Analyze": 1}, false},
		{"empty", Goals{}, true},
		{"unknown level", Goals{"memorize": 1}, true},
		{"negative", Goals{"apply": -1, "create": 2}, true},
		{"nan", Goals{"apply": math.NaN()}, true},
		{"zero total", Goals{"apply": 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.goals.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrInvalidArgument)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGoals_Normalized(t *testing.T) {
	norm := Goals{"remember": 1, "Apply": 3, "create": 0}.Normalized()
	assert.Len(t, norm, 2)
	assert.InDelta(t, 0.25, norm[Remember], 1e-9)
	assert.InDelta(t, 0.75, norm[Apply], 1e-9)
}

func TestGoals_Allocate(t *testing.T) {
	tests := []struct {
		name  string
		goals Goals
		count int
		want  []Allocation
	}{
		{
			name:  "even split",
			goals: Goals{"remember": 1, "apply": 1},
			count: 4,
			want:  []Allocation{{Remember, 2}, {Apply, 2}},
		},
		{
			name:  "largest remainder",
			goals: Goals{"remember": 1, "understand": 1, "apply": 1},
			count: 5,
			want:  []Allocation{{Remember, 2}, {Understand, 2}, {Apply, 1}},
		},
		{
			name:  "canonical order regardless of weight",
			goals: Goals{"create": 3, "remember": 1},
			count: 4,
			want:  []Allocation{{Remember, 1}, {Create, 3}},
		},
		{
			name:  "small count drops levels",
			goals: Goals{"remember": 1, "apply": 1, "create": 1},
			count: 1,
			want:  []Allocation{{Remember, 1}},
		},
		{
			name:  "zero count",
			goals: Goals{"remember": 1},
			count: 0,
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.goals.Allocate(tt.count)
			assert.Equal(t, tt.want, got)

			total := 0
			for _, a := range got {
				total += a.Count
			}
			if tt.count > 0 {
				assert.Equal(t, tt.count, total)
			}
		})
	}
}
