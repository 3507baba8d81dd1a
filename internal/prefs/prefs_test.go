package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemeDefaultsToLight(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prefs.yaml"))
	theme, err := s.Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
}

func TestTogglePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	s := New(path)

	theme, err := s.Toggle()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "theme: dark\n", string(data))

	reopened := New(path)
	theme, err = reopened.Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)

	theme, err = reopened.Toggle()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
}

func TestCorruptFileFallsBackToLight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("theme: [not, a, string\n"), 0o644))

	theme, err := New(path).Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)

	require.NoError(t, os.WriteFile(path, []byte("theme: purple\n"), 0o644))
	theme, err = New(path).Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, theme)
}

func TestSetThemeRejectsUnknown(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "prefs.yaml"))
	assert.Error(t, s.SetTheme("sepia"))
	require.NoError(t, s.SetTheme(ThemeDark))
	theme, err := s.Theme()
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
}

func TestParseTheme(t *testing.T) {
	theme, err := ParseTheme(" DARK ")
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, theme)
	_, err = ParseTheme("")
	assert.Error(t, err)
}
