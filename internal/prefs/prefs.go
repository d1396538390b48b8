// Package prefs persists the UI preferences kept on this machine.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Prefs is the preference file's content
type Prefs struct {
	Theme string `yaml:"theme"`
}

func Default() Prefs {
	return Prefs{Theme: ThemeDark}
}

// ToggleTheme flips between the dark and light themes
func (p Prefs) ToggleTheme() Prefs {
	if p.Theme == ThemeLight {
		p.Theme = ThemeDark
	} else {
		p.Theme = ThemeLight
	}
	return p
}

// Load reads path. A missing file yields the defaults; an unknown theme
// falls back to dark.
func Load(path string) (Prefs, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Default(), err
	}

	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Default(), fmt.Errorf("parse %s: %w", path, err)
	}
	if p.Theme != ThemeLight {
		p.Theme = ThemeDark
	}
	return p, nil
}

// Save writes p to path, creating the parent directory
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
