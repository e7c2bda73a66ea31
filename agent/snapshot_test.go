package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshot(t *testing.T) {
	start := time.UnixMilli(1_700_000_000_123)
	ms := start.UnixMilli()

	tests := []struct {
		name  string
		input any
		want  map[string]any
	}{
		{
			name:  "generic map is merged",
			input: map[string]any{"topic": "fractions"},
			want:  map[string]any{"topic": "fractions", StartedAtKey: ms},
		},
		{
			name:  "typed string map is merged",
			input: map[string]string{"topic": "fractions"},
			want:  map[string]any{"topic": "fractions", StartedAtKey: ms},
		},
		{
			name:  "existing timestamp key is overwritten",
			input: map[string]any{StartedAtKey: 1},
			want:  map[string]any{StartedAtKey: ms},
		},
		{
			name:  "primitive is wrapped",
			input: 42,
			want:  map[string]any{PayloadKey: 42, WrappedStartedAtKey: ms},
		},
		{
			name:  "nil is wrapped",
			input: nil,
			want:  map[string]any{PayloadKey: nil, WrappedStartedAtKey: ms},
		},
		{
			name:  "int keyed map is wrapped",
			input: map[int]string{1: "a"},
			want:  map[string]any{PayloadKey: map[int]string{1: "a"}, WrappedStartedAtKey: ms},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snapshot(tt.input, start))
		})
	}
}

func TestSnapshot_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"topic": "fractions"}
	_ = Snapshot(in, time.Now())
	assert.Len(t, in, 1)
}
