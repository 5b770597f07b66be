package configutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string   `json:"name" yaml:"name"`
	Size    int      `json:"size" yaml:"size"`
	Items   []string `json:"items" yaml:"items"`
	Enabled *bool    `json:"enabled" yaml:"enabled"`
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigJson5WithLocalOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json5"), `{
		// comments are allowed
		name: "base",
		size: 10,
		items: ["a"],
	}`)
	writeFile(t, filepath.Join(dir, "app.local.json5"), `{size: 20}`)

	out, err := ReadConfig[sample](filepath.Join(dir, "app.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, sample{Name: "base", Size: 20, Items: []string{"a"}}, out)
}

func TestReadConfigYaml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.yaml"), "name: base\nsize: 3\nitems:\n  - x\n  - y\n")

	out, err := ReadConfig[sample](filepath.Join(dir, "app.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, sample{Name: "base", Size: 3, Items: []string{"x", "y"}}, out)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.local.json"), `{"name": "local"}`)

	out, err := ReadConfig[sample](filepath.Join(dir, "app.json"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "local", out.Name)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[sample](filepath.Join(t.TempDir(), "app.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json5"), `{name: `)

	_, err := ReadConfig[sample](filepath.Join(dir, "app.json5"))
	require.Error(t, err)
	require.False(t, os.IsNotExist(err))
}

func TestReadConfigLocalOverrideSetsFalse(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json5"), `{name: "base", enabled: true}`)
	writeFile(t, filepath.Join(dir, "app.local.json5"), `{enabled: false}`)

	out, err := ReadConfig[sample](filepath.Join(dir, "app.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "base", out.Name)
	require.NotNil(t, out.Enabled)
	require.False(t, *out.Enabled)
}

func TestReadConfigLocalOverrideKeepsUnsetFlag(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app.json5"), `{enabled: false}`)
	writeFile(t, filepath.Join(dir, "app.local.json5"), `{name: "local"}`)

	out, err := ReadConfig[sample](filepath.Join(dir, "app.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "local", out.Name)
	require.NotNil(t, out.Enabled)
	require.False(t, *out.Enabled)
}

func TestReadRecursivelyFromFindsParentConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	err := os.MkdirAll(nested, 0700)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "app.json5"), `{name: "root"}`)
	writeFile(t, filepath.Join(root, "a", "app.json5"), `{name: "a"}`)

	out, err := ReadRecursivelyFrom[sample](nested, "app.json5")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "a", out.Name)
}

func TestReadRecursivelyFromStopsOnParseError(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a")
	err := os.MkdirAll(nested, 0700)
	if err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(nested, "app.json5"), `{name: `)
	writeFile(t, filepath.Join(root, "app.json5"), `{name: "root"}`)

	_, err = ReadRecursivelyFrom[sample](nested, "app.json5")
	require.Error(t, err)
	require.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadRecursivelyFromMissing(t *testing.T) {
	_, err := ReadRecursivelyFrom[sample](t.TempDir(), "vkposter-missing-config.json5")
	require.ErrorIs(t, err, fs.ErrNotExist)
}
