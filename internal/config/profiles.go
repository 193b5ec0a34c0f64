package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Profiles holds all named server profiles and tracks which one is active.
type Profiles struct {
	Active   string             `toml:"active"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile is a named PocketBase server.
type Profile struct {
	URL     string `toml:"url"`
	Token   string `toml:"token,omitempty"`
	NATSURL string `toml:"nats_url,omitempty"`
}

// ErrProfileNotFound is returned when a named profile does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// ProfilesPath returns the location of profiles.toml, creating its
// directory if needed.
func ProfilesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "pbquery")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "profiles.toml"), nil
}

// LoadProfiles reads profiles.toml. A missing file yields an empty set.
func LoadProfiles() (Profiles, error) {
	path, err := ProfilesPath()
	if err != nil {
		return Profiles{}, err
	}
	var p Profiles
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Profiles{Profiles: map[string]Profile{}}, nil
		}
		return Profiles{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if p.Profiles == nil {
		p.Profiles = map[string]Profile{}
	}
	return p, nil
}

// SaveProfiles writes profiles.toml with owner-only permissions since it
// may hold tokens.
func SaveProfiles(p Profiles) error {
	path, err := ProfilesPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ActiveProfile returns the active profile, if one is set and exists.
func (p Profiles) ActiveProfile() (Profile, bool) {
	if p.Active == "" {
		return Profile{}, false
	}
	prof, ok := p.Profiles[p.Active]
	return prof, ok
}

// Use marks name as active. An empty name clears the active profile.
func (p *Profiles) Use(name string) error {
	if name != "" {
		if _, ok := p.Profiles[name]; !ok {
			return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
		}
	}
	p.Active = name
	return nil
}

// Remove deletes name, clearing it as active if needed.
func (p *Profiles) Remove(name string) error {
	if _, ok := p.Profiles[name]; !ok {
		return fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	delete(p.Profiles, name)
	if p.Active == name {
		p.Active = ""
	}
	return nil
}

// Names returns the profile names in sorted order.
func (p Profiles) Names() []string {
	names := make([]string, 0, len(p.Profiles))
	for name := range p.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
