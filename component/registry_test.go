package component

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/activekit/event"
)

// stubComponent is a minimal Component for registry tests.
type stubComponent struct {
	*Active
	typeName string
}

func (s *stubComponent) Meta() Metadata {
	return Metadata{Name: s.Name(), Type: s.typeName, Version: "1.0.0"}
}
func (s *stubComponent) Initialize() error           { return s.MarkInitialized() }
func (s *stubComponent) Start(context.Context) error { return s.MarkStarted() }
func (s *stubComponent) Stop(time.Duration) error    { return s.MarkStopped() }

func stubFactory(typeName string) Factory {
	return func(config map[string]any, deps Dependencies) (Component, error) {
		base, err := NewActive(GetString(config, "name", "stub"), GetInt(config, "queue_capacity", 4), deps)
		if err != nil {
			return nil, err
		}
		return &stubComponent{Active: base, typeName: typeName}, nil
	}
}

func TestRegistryCreate(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFactory(&Registration{
		Name:    "stub",
		Type:    "stub",
		Version: "1.0.0",
		Factory: stubFactory("stub"),
	}))

	deps := Dependencies{Sink: event.NewMemorySink()}
	comp, err := r.Create("inst1", "stub", map[string]any{"name": "inst1"}, deps)
	require.NoError(t, err)
	assert.Equal(t, "inst1", comp.Meta().Name)

	// Instance is retrievable by name afterwards
	assert.Same(t, comp, r.Instance("inst1"))
	assert.Len(t, r.Instances(), 1)
}

func TestRegistryCreateUnknownFactory(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("inst", "missing", nil, Dependencies{Sink: event.NewMemorySink()})
	require.Error(t, err)
}

func TestRegistryDuplicateFactory(t *testing.T) {
	r := NewRegistry()
	reg := &Registration{Name: "stub", Factory: stubFactory("stub")}
	require.NoError(t, r.RegisterFactory(reg))
	require.Error(t, r.RegisterFactory(reg))
}

func TestRegistryInvalidRegistration(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.RegisterFactory(nil))
	require.Error(t, r.RegisterFactory(&Registration{Name: ""}))
	require.Error(t, r.RegisterFactory(&Registration{Name: "x", Factory: nil}))
}

func TestRegistryFactories(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterFactory(&Registration{Name: "a", Factory: stubFactory("a")}))
	require.NoError(t, r.RegisterFactory(&Registration{Name: "b", Factory: stubFactory("b")}))
	assert.ElementsMatch(t, []string{"a", "b"}, r.Factories())
}

func TestConfigHelpers(t *testing.T) {
	config := map[string]any{
		"str":     "value",
		"int":     3,
		"int64":   int64(4),
		"float":   2.5,
		"badType": []string{},
	}

	assert.Equal(t, "value", GetString(config, "str", "d"))
	assert.Equal(t, "d", GetString(config, "missing", "d"))
	assert.Equal(t, "d", GetString(config, "int", "d"))

	assert.Equal(t, 3, GetInt(config, "int", 9))
	assert.Equal(t, 4, GetInt(config, "int64", 9))
	assert.Equal(t, 9, GetInt(config, "missing", 9))

	assert.Equal(t, 2.5, GetFloat64(config, "float", 9.0))
	assert.Equal(t, 3.0, GetFloat64(config, "int", 9.0))
	assert.Equal(t, 9.0, GetFloat64(config, "missing", 9.0))
}
