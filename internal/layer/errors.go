package layer

import (
	"errors"
	"fmt"
)

// Lifecycle errors. Layers panic with these (possibly wrapped) when the
// orchestrator breaks the Init -> Forward -> Backward protocol.
var (
	ErrNotInitialized     = errors.New("layer used before Init")
	ErrNoForward          = errors.New("backward without a preceding training forward")
	ErrNoUpstreamGradient = errors.New("output activation has no gradient")
)

// ShapeError reports an input volume whose shape disagrees with the shape
// declared at Init.
type ShapeError struct {
	Layer string // Layer name, e.g. "conv"
	Dim   string // "width", "height" or "depth"
	Got   int
	Want  int
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s: input %s %d != %d declared at Init", e.Layer, e.Dim, e.Got, e.Want)
}

// ConfigError reports an invalid hyperparameter or input shape given to Init.
type ConfigError struct {
	Layer  string
	Field  string
	Value  int
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: invalid %s %d: %s", e.Layer, e.Field, e.Value, e.Reason)
}
