package component

import (
	"fmt"
	"maps"
	"sync"

	"github.com/c360/activekit/errors"
)

// Factory creates a component instance from configuration. The factory
// receives the component-specific config map and dependencies, parses its own
// config, and returns an initialized (but not started) component. Factories
// perform no I/O; that belongs in Start.
type Factory func(config map[string]any, deps Dependencies) (Component, error)

// Registration holds factory and metadata for a component type.
type Registration struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Version     string  `json:"version"`
	Factory     Factory `json:"-"`
}

// Registry manages component factories and instances. It provides
// thread-safe registration and lookup of both factories (for creation) and
// instances (for discovery and management).
type Registry struct {
	factories map[string]*Registration
	instances map[string]Component
	mu        sync.RWMutex
}

// NewRegistry creates a new empty component registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]*Registration),
		instances: make(map[string]Component),
	}
}

// RegisterFactory registers a component factory under its name.
func (r *Registry) RegisterFactory(reg *Registration) error {
	if reg == nil || reg.Name == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "registration validation")
	}
	if reg.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterFactory", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reg.Name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("factory %q is already registered", reg.Name),
			"Registry", "RegisterFactory", "duplicate factory check")
	}

	r.factories[reg.Name] = reg
	return nil
}

// Create builds a component instance using the named factory and registers
// it under instanceName.
func (r *Registry) Create(
	instanceName, factoryName string, config map[string]any, deps Dependencies,
) (Component, error) {
	if instanceName == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "Create", "instance name validation")
	}

	r.mu.RLock()
	reg, exists := r.factories[factoryName]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unknown component factory %q", factoryName),
			"Registry", "Create", "factory lookup")
	}

	comp, err := reg.Factory(config, deps)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", "factory execution")
	}

	if err := r.RegisterInstance(instanceName, comp); err != nil {
		return nil, err
	}
	return comp, nil
}

// RegisterInstance registers a component instance for discovery.
func (r *Registry) RegisterInstance(name string, comp Component) error {
	if name == "" || comp == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterInstance", "argument validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("instance %q is already registered", name),
			"Registry", "RegisterInstance", "duplicate instance check")
	}

	r.instances[name] = comp
	return nil
}

// Instance retrieves a component instance by name, or nil if absent.
func (r *Registry) Instance(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instances[name]
}

// Instances returns a copy of all registered component instances.
func (r *Registry) Instances() map[string]Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Component, len(r.instances))
	maps.Copy(result, r.instances)
	return result
}

// Factories returns the names of all registered factories.
func (r *Registry) Factories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Config helper functions for factories.

// GetString safely extracts a string value from config with a default fallback.
func GetString(config map[string]any, key, defaultValue string) string {
	if value, exists := config[key]; exists {
		if s, ok := value.(string); ok {
			return s
		}
	}
	return defaultValue
}

// GetInt safely extracts an integer value from config with a default fallback.
func GetInt(config map[string]any, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// GetFloat64 safely extracts a float64 value from config with a default fallback.
func GetFloat64(config map[string]any, key string, defaultValue float64) float64 {
	if value, exists := config[key]; exists {
		switch v := value.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		}
	}
	return defaultValue
}
