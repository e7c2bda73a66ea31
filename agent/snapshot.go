package agent

import (
	"reflect"
	"time"
)

const (
	// StartedAtKey is merged into mapping inputs with the start time in Unix
	// milliseconds.
	StartedAtKey = "_startedAt"
	// PayloadKey holds a non-mapping input inside its snapshot wrapper.
	PayloadKey = "payload"
	// WrappedStartedAtKey holds the start time inside a snapshot wrapper.
	WrappedStartedAtKey = "startedAt"
)

// Snapshot builds the input snapshot recorded for an invocation.
//
// Inputs that are maps with string keys are shallow-copied and receive the
// start timestamp under StartedAtKey (an existing key of that name is
// overwritten). Any other input, including nil, is wrapped as
// {"payload": input, "startedAt": ms}.
func Snapshot(input any, startedAt time.Time) map[string]any {
	ms := startedAt.UnixMilli()

	if m, ok := input.(map[string]any); ok && m != nil {
		out := make(map[string]any, len(m)+1)
		for k, v := range m {
			out[k] = v
		}
		out[StartedAtKey] = ms
		return out
	}

	if rv := reflect.ValueOf(input); rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String && !rv.IsNil() {
		out := make(map[string]any, rv.Len()+1)
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		out[StartedAtKey] = ms
		return out
	}

	return map[string]any{PayloadKey: input, WrappedStartedAtKey: ms}
}
