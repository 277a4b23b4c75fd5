package tool

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// Registration binds a tool name to its descriptor and executor, with an
// optional initializer. SharedInitializer marks an initializer that several
// tools reference so it is recorded only once.
type Registration struct {
	Name              string
	Descriptor        Descriptor
	Execute           ExecuteFunc
	Initializer       InitFunc
	SharedInitializer bool
}

type registeredTool struct {
	descriptor Descriptor
	execute    ExecuteFunc
	schema     *gojsonschema.Schema
}

// Registry is the process-wide lookup table from tool name to descriptor and
// executor. It is populated once during startup and read-only afterwards;
// rebuilding a registry while requests are being served is unsupported.
type Registry struct {
	mu           sync.RWMutex
	tools        map[string]*registeredTool
	order        []string
	initializers []InitFunc
	logger       zerolog.Logger
}

// NewRegistry creates an empty tool registry
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]*registeredTool),
		logger: logger.With().Str("component", "tool-registry").Logger(),
	}
}

// Register adds a tool to the registry. It fails if the descriptor's name
// does not match the registration key, or if the descriptor or executor is
// structurally invalid. Registering the same name twice overwrites the
// previous entry with a warning; the original ordering slot is kept.
func (r *Registry) Register(reg Registration) error {
	if reg.Name == "" {
		return fmt.Errorf("registration name cannot be empty")
	}
	if reg.Descriptor.Name != reg.Name {
		return fmt.Errorf("tool name mismatch for %s: descriptor has %s", reg.Name, reg.Descriptor.Name)
	}
	if err := reg.Descriptor.Validate(); err != nil {
		return fmt.Errorf("invalid descriptor for %s: %w", reg.Name, err)
	}
	if reg.Execute == nil {
		return fmt.Errorf("executor cannot be nil for %s", reg.Name)
	}

	schema, err := compileInputSchema(reg.Descriptor)
	if err != nil {
		return fmt.Errorf("failed to compile input schema for %s: %w", reg.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[reg.Name]; exists {
		r.logger.Warn().Str("tool", reg.Name).Msg("Duplicate tool registration, overwriting")
	} else {
		r.order = append(r.order, reg.Name)
	}

	r.tools[reg.Name] = &registeredTool{
		descriptor: reg.Descriptor,
		execute:    reg.Execute,
		schema:     schema,
	}

	if reg.Initializer != nil {
		if !reg.SharedInitializer || !containsInitializer(r.initializers, reg.Initializer) {
			r.initializers = append(r.initializers, reg.Initializer)
		}
	}

	r.logger.Info().Str("tool", reg.Name).Msg("Tool registered")
	return nil
}

// Descriptor returns the descriptor registered under name
func (r *Registry) Descriptor(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return Descriptor{}, false
	}
	return t.descriptor, true
}

// Executor returns the execute function registered under name
func (r *Registry) Executor(name string) (ExecuteFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return t.execute, true
}

// Descriptors returns all registered descriptors in registration order
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.tools[name].descriptor)
	}
	return descriptors
}

// Initializers returns the recorded initializers in append order
func (r *Registry) Initializers() []InitFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]InitFunc, len(r.initializers))
	copy(out, r.initializers)
	return out
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.tools)
}

// ValidateInputs checks an input map against the tool's declared parameters.
// A violation is a business-level problem, reported by the caller as a
// failure outcome rather than a protocol error.
func (r *Registry) ValidateInputs(name string, inputs map[string]interface{}) error {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("tool not found: %s", name)
	}
	if t.schema == nil {
		return nil
	}

	result, err := t.schema.Validate(gojsonschema.NewGoLoader(inputs))
	if err != nil {
		return fmt.Errorf("input validation error: %w", err)
	}
	if !result.Valid() {
		errs := result.Errors()
		if len(errs) > 0 {
			return fmt.Errorf("invalid input: %s", errs[0].String())
		}
		return fmt.Errorf("invalid input")
	}
	return nil
}

// compileInputSchema builds a JSON Schema from the descriptor's declared
// input parameters. Unknown properties are allowed so backends can accept
// provider-specific extras.
func compileInputSchema(d Descriptor) (*gojsonschema.Schema, error) {
	properties := make(map[string]interface{})
	required := []string{}

	for _, param := range d.Inputs {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Type == "array" && param.ItemsType != "" {
			paramSchema["items"] = map[string]interface{}{"type": param.ItemsType}
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}

	return gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
}

// containsInitializer reports whether fn is already present, compared by
// function identity rather than value.
func containsInitializer(list []InitFunc, fn InitFunc) bool {
	ptr := reflect.ValueOf(fn).Pointer()
	for _, existing := range list {
		if reflect.ValueOf(existing).Pointer() == ptr {
			return true
		}
	}
	return false
}
