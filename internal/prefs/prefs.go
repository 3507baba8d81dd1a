// Package prefs stores client display preferences in a small YAML file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Theme is the color scheme of the client.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts light or dark, case-insensitively.
func ParseTheme(raw string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(raw))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", fmt.Errorf("unknown theme %q", raw)
	}
}

type file struct {
	Theme string `yaml:"theme"`
}

// Store persists the theme at Path.
type Store struct {
	Path string

	mu sync.Mutex
}

// New returns a store backed by path.
func New(path string) *Store {
	return &Store{Path: path}
}

// DefaultPath is the preferences file under the user's config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".docpay.yaml"
	}
	return filepath.Join(dir, "docpay", "prefs.yaml")
}

// Theme returns the saved theme. A missing or unreadable value means light.
func (s *Store) Theme() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// SetTheme saves t.
func (s *Store) SetTheme(t Theme) error {
	if _, err := ParseTheme(string(t)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(t)
}

// Toggle flips between light and dark and returns the new theme.
func (s *Store) Toggle() (Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load()
	if err != nil {
		return "", err
	}
	next := ThemeDark
	if cur == ThemeDark {
		next = ThemeLight
	}
	if err := s.save(next); err != nil {
		return "", err
	}
	return next, nil
}

func (s *Store) load() (Theme, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return ThemeLight, nil
	}
	if err != nil {
		return "", fmt.Errorf("read prefs: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return ThemeLight, nil
	}
	t, err := ParseTheme(f.Theme)
	if err != nil {
		return ThemeLight, nil
	}
	return t, nil
}

func (s *Store) save(t Theme) error {
	data, err := yaml.Marshal(file{Theme: string(t)})
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create prefs dir: %w", err)
		}
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}
