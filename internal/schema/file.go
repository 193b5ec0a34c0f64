package schema

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// fileModel is the TOML layout of a schema file:
//
//	[[collections]]
//	name = "users"
//	type = "auth"
//	  [[collections.fields]]
//	  name = "email"
//	  type = "email"
type fileModel struct {
	Collections []Collection `toml:"collections"`
}

// LoadFile reads collection models from a TOML file into a new registry.
// Every model is validated; the first invalid one aborts the load.
func LoadFile(path string) (*Registry, error) {
	var fm fileModel
	if _, err := toml.DecodeFile(path, &fm); err != nil {
		return nil, fmt.Errorf("decode schema file %s: %w", path, err)
	}
	for _, c := range fm.Collections {
		if err := ValidateCollection(c); err != nil {
			return nil, fmt.Errorf("collection %q: %w", c.Name, err)
		}
	}
	return NewRegistry(fm.Collections...), nil
}

// WriteFile writes collection models to path as TOML.
func WriteFile(path string, collections []Collection) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open schema file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(fileModel{Collections: collections}); err != nil {
		return fmt.Errorf("encode schema file: %w", err)
	}
	return nil
}
