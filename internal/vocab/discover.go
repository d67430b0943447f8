package vocab

import (
	"path/filepath"
)

// maxRootSearch bounds how far FindRoot climbs.
const maxRootSearch = 12

// FindRoot locates the host root starting from start. It climbs towards the
// filesystem root looking for a directory that contains pluginsDir; failing
// that, if start lies inside a directory named pluginsDir, it returns that
// directory's parent; otherwise it returns start itself.
func FindRoot(start, pluginsDir string) (string, error) {
	here, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	cur := here
	for i := 0; i < maxRootSearch; i++ {
		if isDir(filepath.Join(cur, pluginsDir)) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	cur = here
	for i := 0; i < maxRootSearch; i++ {
		if filepath.Base(cur) == pluginsDir {
			return filepath.Dir(cur), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return here, nil
}

// DiscoverBaseDirs returns the wildcard directories for root in resolution
// order: root/<WildcardsDir> if present, then every directory named
// WildcardsDir below root/<PluginsDir>. Paths are absolute and unique; the
// first occurrence wins.
func DiscoverBaseDirs(root string, opts Options) []string {
	var dirs []string

	direct := filepath.Join(root, opts.WildcardsDir)
	if isDir(direct) {
		dirs = append(dirs, direct)
	}

	if opts.PluginsDir != "" {
		plugins := filepath.Join(root, opts.PluginsDir)
		if isDir(plugins) {
			walkDirs(plugins, opts, func(parent, name string) {
				if name == opts.WildcardsDir {
					dirs = append(dirs, filepath.Join(parent, name))
				}
			})
		}
	}

	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
