package mathops

import (
	"github.com/c360/activekit/component"
)

// Component type names used in registry lookups and deployment config.
const (
	TypeSender   = "math-sender"
	TypeReceiver = "math-receiver"
)

// Register adds the sender and receiver factories to a component registry.
func Register(registry *component.Registry) error {
	if err := registry.RegisterFactory(&component.Registration{
		Name:        TypeSender,
		Type:        TypeSender,
		Description: "Command-driven math request source and result reporter",
		Version:     "1.0.0",
		Factory: func(config map[string]any, deps component.Dependencies) (component.Component, error) {
			return NewSender(
				component.GetString(config, "name", "mathSender"),
				component.GetInt(config, "queue_capacity", 64),
				deps)
		},
	}); err != nil {
		return err
	}

	return registry.RegisterFactory(&component.Registration{
		Name:        TypeReceiver,
		Type:        TypeReceiver,
		Description: "Queued math computation with parameter-scaled results",
		Version:     "1.0.0",
		Factory: func(config map[string]any, deps component.Dependencies) (component.Component, error) {
			return NewReceiver(
				component.GetString(config, "name", "mathReceiver"),
				component.GetInt(config, "queue_capacity", 64),
				deps)
		},
	})
}
