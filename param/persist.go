package param

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360/activekit/errors"
)

// paramFile is the on-disk shape of a persisted parameter set. Only
// explicitly-set (Valid) values are persisted; defaults are code, not state.
type paramFile struct {
	Params map[string]any `yaml:"params"`
}

// Save writes all Valid parameter values to a YAML file. The file is written
// atomically via a temp file rename so a crash mid-write never corrupts the
// previous snapshot.
func (s *Store) Save(path string) error {
	pf := paramFile{Params: make(map[string]any)}
	for _, id := range s.order {
		e := s.params[id]
		if e.validity == Valid {
			pf.Params[string(id)] = e.value
		}
	}

	data, err := yaml.Marshal(&pf)
	if err != nil {
		return errors.Wrap(err, "ParamStore", "Save", "yaml marshal")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.WrapTransient(err, "ParamStore", "Save", "temp file write")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.WrapTransient(err, "ParamStore", "Save", "atomic rename")
	}
	return nil
}

// Load reads a persisted parameter file and applies each value through the
// normal Set path, so validation and update notifications still run. Values
// for undefined parameters are an error: a stale file must not silently
// carry dead configuration.
func (s *Store) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapTransient(err, "ParamStore", "Load", "file read")
	}

	var pf paramFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return errors.WrapInvalid(err, "ParamStore", "Load", "yaml unmarshal")
	}

	// Apply in definition order for deterministic notification sequence.
	for _, id := range s.order {
		raw, present := pf.Params[string(id)]
		if !present {
			continue
		}
		if err := s.Set(id, normalizeYAML(raw)); err != nil {
			return errors.Wrap(err, "ParamStore", "Load", fmt.Sprintf("apply %s", id))
		}
		delete(pf.Params, string(id))
	}

	if len(pf.Params) > 0 {
		for name := range pf.Params {
			return errors.WrapInvalid(errors.ErrUnknownParam, "ParamStore", "Load", name)
		}
	}
	return nil
}

// normalizeYAML widens yaml.v3's int decoding so numeric parameters validated
// as float64 round-trip through a file.
func normalizeYAML(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return v
	}
}
