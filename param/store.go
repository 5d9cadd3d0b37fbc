// Package param provides the validated parameter store owned by an active
// component.
//
// Every parameter carries a validity tag. Computation handlers may only trust
// a read when validity is Default or Valid; Uninitialized at read time is a
// configuration defect, not a recoverable condition. Mutation happens only on
// the owning component's dispatch goroutine (command-driven updates), so the
// store carries no internal locking — the dispatch loop's serial ordering is
// the synchronization.
package param

import (
	"fmt"

	"github.com/c360/activekit/errors"
)

// ID identifies a parameter within one component's store.
type ID string

// Validity is the tri-state indicator gating whether a stored value may be
// trusted by computation logic.
type Validity int

const (
	// Uninitialized means the parameter was defined but never given a value.
	// A handler reading an Uninitialized parameter is a fatal assembly defect.
	Uninitialized Validity = iota
	// Default means the built-in default was loaded and no external update
	// has occurred.
	Default
	// Valid means the value was explicitly set through the update path.
	Valid
)

// String returns the string representation of Validity.
func (v Validity) String() string {
	switch v {
	case Uninitialized:
		return "uninitialized"
	case Default:
		return "default"
	case Valid:
		return "valid"
	default:
		return "unknown"
	}
}

// Trusted reports whether a read with this validity may be used by
// computation handlers.
func (v Validity) Trusted() bool {
	return v == Default || v == Valid
}

// Validator checks a candidate value before it is stored. A nil validator
// accepts everything.
type Validator func(value any) error

// UpdateFunc is the post-update notification callback supplied by the owning
// component. It runs synchronously inside Set, before Set returns, so the
// component can re-validate and emit a confirmation event with the new value
// already visible.
type UpdateFunc func(id ID)

type entry struct {
	value     any
	validity  Validity
	validator Validator
}

// Store holds named, typed configuration values with validity state.
type Store struct {
	params   map[ID]*entry
	order    []ID // definition order, for deterministic persistence
	onUpdate UpdateFunc
}

// NewStore creates an empty parameter store.
func NewStore() *Store {
	return &Store{
		params: make(map[ID]*entry),
	}
}

// OnUpdate installs the post-update notification callback. At most one
// callback is supported; installing replaces the previous one.
func (s *Store) OnUpdate(fn UpdateFunc) {
	s.onUpdate = fn
}

// Define registers a parameter in the Uninitialized state. Defining the same
// id twice is a configuration error.
func (s *Store) Define(id ID, validator Validator) error {
	if id == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ParamStore", "Define", "empty id")
	}
	if _, exists := s.params[id]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("parameter %q already defined", id),
			"ParamStore", "Define", "duplicate check")
	}

	s.params[id] = &entry{validity: Uninitialized, validator: validator}
	s.order = append(s.order, id)
	return nil
}

// LoadDefault installs the built-in default for a parameter, moving it from
// Uninitialized to Default. Defaults are validated like any other value.
// A parameter already explicitly set keeps its Valid value.
func (s *Store) LoadDefault(id ID, value any) error {
	e, exists := s.params[id]
	if !exists {
		return errors.WrapInvalid(errors.ErrUnknownParam, "ParamStore", "LoadDefault", string(id))
	}
	if e.validity == Valid {
		return nil
	}
	if e.validator != nil {
		if err := e.validator(value); err != nil {
			return errors.WrapInvalid(err, "ParamStore", "LoadDefault", string(id))
		}
	}

	e.value = value
	e.validity = Default
	return nil
}

// Get returns the current value and validity of a parameter. An undefined id
// reads as (nil, Uninitialized); callers enforcing the trust invariant treat
// that identically to a defined-but-unset parameter.
func (s *Store) Get(id ID) (any, Validity) {
	e, exists := s.params[id]
	if !exists {
		return nil, Uninitialized
	}
	return e.value, e.validity
}

// Set updates a parameter through the command-driven update path. The value
// is validated first; on acceptance validity becomes Valid and the update
// notification fires synchronously before Set returns.
func (s *Store) Set(id ID, value any) error {
	e, exists := s.params[id]
	if !exists {
		return errors.WrapInvalid(errors.ErrUnknownParam, "ParamStore", "Set", string(id))
	}
	if e.validator != nil {
		if err := e.validator(value); err != nil {
			return errors.WrapInvalid(errors.ErrInvalidValue, "ParamStore", "Set",
				fmt.Sprintf("%s: %v", id, err))
		}
	}

	e.value = value
	e.validity = Valid

	if s.onUpdate != nil {
		s.onUpdate(id)
	}
	return nil
}

// IDs returns all defined parameter ids in definition order.
func (s *Store) IDs() []ID {
	ids := make([]ID, len(s.order))
	copy(ids, s.order)
	return ids
}

// GetAs returns a parameter value converted to T along with its validity.
// A defined parameter holding a value of the wrong type is a wiring defect
// and reported as a fatal error.
func GetAs[T any](s *Store, id ID) (T, Validity, error) {
	var zero T

	raw, validity := s.Get(id)
	if raw == nil {
		return zero, validity, nil
	}

	v, ok := raw.(T)
	if !ok {
		return zero, validity, errors.WrapFatal(
			fmt.Errorf("parameter %q holds %T, want %T", id, raw, zero),
			"ParamStore", "GetAs", "type check")
	}
	return v, validity, nil
}

// Float64Range returns a validator accepting float64 values in [min, max].
func Float64Range(min, max float64) Validator {
	return func(value any) error {
		f, ok := value.(float64)
		if !ok {
			return fmt.Errorf("want float64, got %T", value)
		}
		if f < min || f > max {
			return fmt.Errorf("%v outside range [%v, %v]", f, min, max)
		}
		return nil
	}
}
