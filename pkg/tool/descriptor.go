package tool

import (
	"context"
	"fmt"
)

// InputParam describes a single input parameter of a tool
type InputParam struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        string      `json:"type"`
	Required    bool        `json:"required"`
	Example     interface{} `json:"example,omitempty"`
	ItemsType   string      `json:"items_type,omitempty"`
}

// OutputSchema describes the shape of a tool's output
type OutputSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]interface{} `json:"properties,omitempty"`
	Items       map[string]interface{} `json:"items,omitempty"`
	Example     interface{}            `json:"example,omitempty"`
}

// Descriptor is the static metadata of a tool. It is immutable once
// registered; callers must not mutate a descriptor obtained from a Registry.
type Descriptor struct {
	Name        string       `json:"tool_name"`
	Description string       `json:"description"`
	Inputs      []InputParam `json:"inputs"`
	Output      OutputSchema `json:"output"`
}

// Validate checks a descriptor for structural problems before registration
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if d.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	for _, param := range d.Inputs {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %q for %s", param.Type, param.Name)
		}
	}

	return nil
}

// Status tags an invocation outcome
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Outcome is the uniform envelope every tool execution returns. Exactly one
// shape is valid: success with a payload, or failure with a message. The
// dispatcher forwards outcomes verbatim and never inspects Output.
type Outcome struct {
	Status Status      `json:"status"`
	Output interface{} `json:"output"`
	Error  *string     `json:"error"`
}

// Success builds a success outcome wrapping the tool-specific payload
func Success(output interface{}) Outcome {
	return Outcome{Status: StatusSuccess, Output: output}
}

// Failure builds a failure outcome with a human-readable message
func Failure(format string, args ...interface{}) Outcome {
	msg := fmt.Sprintf(format, args...)
	return Outcome{Status: StatusFailure, Error: &msg}
}

// ExecuteFunc runs one tool invocation. Expected (business) failures must be
// reported through a failure outcome, never through a panic; only truly
// unexpected faults may escape, to be recovered by the dispatcher.
type ExecuteFunc func(ctx context.Context, inputs map[string]interface{}) Outcome

// InitFunc establishes a tool's external dependency. Implementations must be
// idempotent and safe to call concurrently with first use of the executor.
type InitFunc func(ctx context.Context) error
