package vocab

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// fileRef is one vocabulary file found under a base directory.
type fileRef struct {
	Base string
	Path string
	// Rel is the forward-slash path relative to Base.
	Rel string
	Ext string
}

// walkVocab visits every vocabulary file under base, top-down: the files of
// a directory (sorted by name) before its subdirectories (sorted by name).
// Hidden and cache directories are not descended. Unreadable directories
// are skipped.
func walkVocab(base string, opts Options, fn func(fileRef)) {
	var visit func(dir string)
	visit = func(dir string) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		var subdirs []string
		for _, e := range entries {
			name := e.Name()
			if isSymlinkDir(dir, e) {
				continue
			}
			if e.IsDir() {
				if !opts.skipDir(name) {
					subdirs = append(subdirs, filepath.Join(dir, name))
				}
				continue
			}
			ext := opts.vocabExt(name)
			if ext == "" {
				continue
			}
			path := filepath.Join(dir, name)
			rel, err := filepath.Rel(base, path)
			if err != nil {
				continue
			}
			fn(fileRef{Base: base, Path: path, Rel: filepath.ToSlash(rel), Ext: ext})
		}
		for _, sub := range subdirs {
			visit(sub)
		}
	}

	if !isDir(base) {
		return
	}
	visit(base)
}

// walkDirs visits base and every non-skipped directory below it, top-down.
func walkDirs(base string, opts Options, fn func(dir, name string)) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var subdirs []string
	for _, e := range entries {
		if opts.skipDir(e.Name()) {
			continue
		}
		// Symlinked directories are reported but not descended.
		if isSymlinkDir(base, e) {
			fn(base, e.Name())
			continue
		}
		if !e.IsDir() {
			continue
		}
		fn(base, e.Name())
		subdirs = append(subdirs, filepath.Join(base, e.Name()))
	}
	for _, sub := range subdirs {
		walkDirs(sub, opts, fn)
	}
}

// isSymlinkDir reports whether e is a symlink that resolves to a directory.
func isSymlinkDir(parent string, e fs.DirEntry) bool {
	return e.Type()&fs.ModeSymlink != 0 && isDir(filepath.Join(parent, e.Name()))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
