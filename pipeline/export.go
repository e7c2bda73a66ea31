package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andyMattick/eduagents/core"
)

// Format is a trace file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: unknown trace format %q", core.ErrInvalidArgument, s)
	}
}

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WriteTrace encodes a snapshot of tr to w.
func WriteTrace(w io.Writer, tr *core.PipelineTrace, format Format) error {
	if tr == nil {
		return fmt.Errorf("%w: trace is nil", core.ErrInvalidArgument)
	}
	snap := tr.Snapshot()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("trace: encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("trace: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("trace: encode yaml: %w", err)
		}
	default:
		return fmt.Errorf("%w: unknown trace format %q", core.ErrInvalidArgument, format)
	}
	return nil
}

// SaveTrace writes tr to path, choosing the format from the file extension.
func SaveTrace(path string, tr *core.PipelineTrace) error {
	var buf bytes.Buffer
	if err := WriteTrace(&buf, tr, FormatFromPath(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("trace: write %q: %w", path, err)
	}
	return nil
}

// LoadTrace reads a trace previously written by SaveTrace. Outputs and inputs
// come back as generic maps, slices and scalars.
func LoadTrace(path string) (core.TraceSnapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return core.TraceSnapshot{}, fmt.Errorf("trace: read %q: %w", path, err)
	}

	var snap core.TraceSnapshot
	switch FormatFromPath(path) {
	case FormatYAML:
		err = yaml.Unmarshal(b, &snap)
	default:
		err = json.Unmarshal(b, &snap)
	}
	if err != nil {
		return core.TraceSnapshot{}, fmt.Errorf("trace: unmarshal %q: %w", path, err)
	}
	return snap, nil
}
