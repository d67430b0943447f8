package vocab

import (
	"path/filepath"
	"strings"
)

// Options controls discovery and traversal.
type Options struct {
	// PluginsDir is the directory under the root that is searched recursively
	// for nested wildcard directories.
	PluginsDir string
	// WildcardsDir is the literal directory name holding vocabulary files.
	WildcardsDir string
	// CacheDirName is skipped during traversal, like hidden directories.
	CacheDirName string
	// Extensions are matched case-insensitively, with the leading dot.
	Extensions []string
	// LoadWorkers bounds concurrent file reads during a load.
	LoadWorkers int
}

// DefaultOptions returns the conventional layout.
func DefaultOptions() Options {
	return Options{
		PluginsDir:   "custom_nodes",
		WildcardsDir: "custom_wildcards",
		CacheDirName: "__pycache__",
		Extensions:   []string{".txt"},
		LoadWorkers:  8,
	}
}

func (o Options) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || (o.CacheDirName != "" && name == o.CacheDirName)
}

// vocabExt returns the lowercase extension of name if it is a vocabulary
// file, or "" otherwise. A name whose only dot is the leading one has no
// extension.
func (o Options) vocabExt(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return ""
	}
	lower := strings.ToLower(ext)
	for _, want := range o.Extensions {
		if lower == strings.ToLower(want) {
			return ext
		}
	}
	return ""
}
