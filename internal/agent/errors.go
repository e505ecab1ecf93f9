package agent

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPreset = errors.New("unknown agent preset")
	ErrInvalidAgent  = errors.New("invalid agent descriptor")
	ErrMaxTurns      = errors.New("agent exceeded max turns")
	ErrEmptyResponse = errors.New("model returned no choices")
)

// UnknownPresetError is returned by Preset for a name that is not registered.
type UnknownPresetError struct {
	Name      string
	Available []string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("agent: unknown preset %q; must be one of: %s",
		e.Name, strings.Join(e.Available, ", "))
}

func (e *UnknownPresetError) Unwrap() error { return ErrUnknownPreset }

// MaxTurnsError is returned by Run when the model keeps requesting tools
// after the turn budget is spent. Result carries the partial run.
type MaxTurnsError struct {
	Agent    string
	MaxTurns int
	Result   *Result
}

func (e *MaxTurnsError) Error() string {
	return fmt.Sprintf("agent: %s: no final answer after %d turns", e.Agent, e.MaxTurns)
}

func (e *MaxTurnsError) Unwrap() error { return ErrMaxTurns }
