package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Theme != ThemeDark {
		t.Fatalf("Theme = %q, want dark", p.Theme)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	if err := Save(path, Default().ToggleTheme()); err != nil {
		t.Fatalf("save: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Theme != ThemeLight {
		t.Fatalf("Theme = %q, want light", p.Theme)
	}
	if p.ToggleTheme().Theme != ThemeDark {
		t.Fatal("toggle should return to dark")
	}
}

func TestLoadUnknownThemeFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	os.WriteFile(path, []byte("theme: solarized\n"), 0644)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Theme != ThemeDark {
		t.Fatalf("Theme = %q, want dark", p.Theme)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	os.WriteFile(path, []byte("theme: [unclosed\n"), 0644)

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
