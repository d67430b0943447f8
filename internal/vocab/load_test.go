package vocab

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	base := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(base, "color.txt"), "  red  \n\nblue\r\ngreen\n   \n")
	writeFile(t, filepath.Join(base, "Obj", "Person.TXT"), "Alice\nBob\n")
	writeFile(t, filepath.Join(base, "empty.txt"), "\n  \n\t\n")
	writeFile(t, filepath.Join(base, "readme.md"), "not vocabulary")
	writeFile(t, filepath.Join(base, ".cache", "hidden.txt"), "nope")

	mapping, err := Load(context.Background(), []string{base}, DefaultOptions())
	require.NoError(t, err)

	want := Mapping{
		"color":      {"red", "blue", "green"},
		"obj/person": {"Alice", "Bob"},
		"person":     {"Alice", "Bob"},
	}
	if diff := cmp.Diff(want, mapping); diff != "" {
		t.Errorf("mapping mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, mapping.Has("empty"), "a file without options contributes no key")
}

func TestLoad_AliasMerge(t *testing.T) {
	base := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(base, "a", "person.txt"), "Alice\n")
	writeFile(t, filepath.Join(base, "b", "person.txt"), "Alice\nBob\n")

	mapping, err := Load(context.Background(), []string{base}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Alice", "Bob"}, mapping["person"])
	assert.Equal(t, []string{"Alice"}, mapping["a/person"])
	assert.Equal(t, []string{"Alice", "Bob"}, mapping["b/person"])
}

func TestLoad_TopLevelFileBeforeSubdirAlias(t *testing.T) {
	base := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(base, "person.txt"), "Carol\n")
	writeFile(t, filepath.Join(base, "a", "person.txt"), "Alice\nCarol\n")

	mapping, err := Load(context.Background(), []string{base}, DefaultOptions())
	require.NoError(t, err)

	// person.txt is read first (files before subdirectories), then the
	// alias from a/person.txt merges into the same key.
	assert.Equal(t, []string{"Carol", "Alice"}, mapping["person"])
}

func TestLoad_LaterBaseOverridesFullKey(t *testing.T) {
	first := filepath.Join(t.TempDir(), "custom_wildcards")
	second := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(first, "color.txt"), "red\n")
	writeFile(t, filepath.Join(second, "color.txt"), "blue\n")
	writeFile(t, filepath.Join(first, "x", "shape.txt"), "circle\n")
	writeFile(t, filepath.Join(second, "y", "shape.txt"), "square\ncircle\n")

	mapping, err := Load(context.Background(), []string{first, second}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"blue"}, mapping["color"])
	assert.Equal(t, []string{"circle", "square"}, mapping["shape"])
}

func TestLoad_InvalidUTF8AndBOM(t *testing.T) {
	base := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(base, "odd.txt"), "\xef\xbb\xbfcaf\xff\n\xfe\nok\n")

	mapping, err := Load(context.Background(), []string{base}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"caf\uFFFD", "\uFFFD", "ok"}, mapping["odd"])
}

func TestLoad_BOMDoesNotDisableReplacement(t *testing.T) {
	base := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(base, "plain.txt"), "caf\xff\nok\n")
	writeFile(t, filepath.Join(base, "bom.txt"), "\xef\xbb\xbfcaf\xff\nok\n")

	mapping, err := Load(context.Background(), []string{base}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, mapping["plain"], mapping["bom"])
	for _, line := range mapping["bom"] {
		assert.True(t, utf8.ValidString(line), "line %q", line)
	}
}

func TestLoad_UnreadableFileIsSkipped(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	base := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(base, "good.txt"), "fine\n")
	locked := filepath.Join(base, "locked.txt")
	writeFile(t, locked, "secret\n")
	require.NoError(t, os.Chmod(locked, 0))

	mapping, err := Load(context.Background(), []string{base}, DefaultOptions())
	require.NoError(t, err)

	assert.True(t, mapping.Has("good"))
	assert.False(t, mapping.Has("locked"))
}

func TestLoad_CancelledContext(t *testing.T) {
	base := filepath.Join(t.TempDir(), "custom_wildcards")
	writeFile(t, filepath.Join(base, "a.txt"), "x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, []string{base}, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseOptions(t *testing.T) {
	got := parseOptions("a\rb\r\nc\u2028d\x0be\u2029g h\u0085i\n\n  f  ")
	assert.Equal(t, []string{"a", "b", "c", "d", "e", "g h", "i", "f"}, got)
}

func TestMapping_Keys(t *testing.T) {
	m := Mapping{"b": {"1"}, "a": {"2"}}
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("c"))
}
