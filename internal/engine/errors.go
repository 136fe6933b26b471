package engine

import (
	"fmt"
	"strings"
)

// ConfigError is a static authoring mistake in a creative-type config:
// unknown source, malformed slot name, pool length mismatch. Never retried.
type ConfigError struct {
	CreativeType string
	Detail       string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %q: %s", e.CreativeType, e.Detail)
}

func configErrf(creativeType, format string, args ...any) *ConfigError {
	return &ConfigError{CreativeType: creativeType, Detail: fmt.Sprintf(format, args...)}
}

// GeneratorError means a generator could not produce its required values.
// Fatal for the whole invocation; no partial batch is returned.
type GeneratorError struct {
	Source string
	Err    error
}

func (e *GeneratorError) Error() string {
	return fmt.Sprintf("generator %q: %v", e.Source, e.Err)
}

func (e *GeneratorError) Unwrap() error { return e.Err }

// RenderError is a terminal failure of one render job, including poll timeout.
type RenderError struct {
	Index   int
	Reason  string
	Timeout bool
}

func (e *RenderError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("render job for creative %d timed out", e.Index)
	}
	return fmt.Sprintf("render job for creative %d failed: %s", e.Index, e.Reason)
}

// BatchError reports a partially failed batch: which creative indices
// rendered and which did not. The successful subset is still returned to the
// caller, who decides whether a partial batch is acceptable.
type BatchError struct {
	Failed    []*RenderError
	Succeeded []int
}

func (e *BatchError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%d/%d render jobs failed: %s",
		len(e.Failed), len(e.Failed)+len(e.Succeeded), strings.Join(parts, "; "))
}
