package vocab

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"wildgold/internal/logging"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// slowLoad is the duration above which a Load is logged as a warning.
const slowLoad = 2 * time.Second

// Mapping maps a lowercase vocabulary key to its candidate lines.
// Every list is non-empty.
type Mapping map[string][]string

// Has reports whether key resolves.
func (m Mapping) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Keys returns all keys in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Load reads every vocabulary file under baseDirs into a Mapping.
//
// Base directories are applied in the given order, so a later directory
// overrides an earlier one on a full-key collision. Files are read
// concurrently but merged in traversal order, which keeps the result
// independent of scheduling. Files that cannot be read are skipped.
func Load(ctx context.Context, baseDirs []string, opts Options) (Mapping, error) {
	timer := logging.StartTimer(logging.CategoryVocab, "vocab.Load")
	defer timer.StopWithThreshold(slowLoad)

	var refs []fileRef
	for _, base := range baseDirs {
		walkVocab(base, opts, func(f fileRef) {
			refs = append(refs, f)
		})
	}

	contents := make([][]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	workers := opts.LoadWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lines, err := readOptions(ref.Path)
			if err != nil {
				logging.VocabWarn("skipping %s: %v", ref.Path, err)
				return nil
			}
			contents[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	mapping := make(Mapping)
	for i, ref := range refs {
		merge(mapping, ref, contents[i])
	}

	logging.Vocab("Loaded %d keys from %d files in %d base dirs", len(mapping), len(refs), len(baseDirs))
	return mapping, nil
}

// merge applies one file's options: the full key is replaced, the basename
// alias is seeded or extended with lines it does not already hold.
func merge(mapping Mapping, ref fileRef, options []string) {
	if len(options) == 0 {
		return
	}

	fullKey := strings.ToLower(strings.TrimSuffix(ref.Rel, ref.Ext))
	aliasKey := strings.ToLower(strings.TrimSuffix(path.Base(ref.Rel), ref.Ext))

	mapping[fullKey] = options

	if aliasKey == "" || aliasKey == fullKey {
		return
	}
	existing, ok := mapping[aliasKey]
	if !ok {
		mapping[aliasKey] = append([]string(nil), options...)
		return
	}
	have := make(map[string]struct{}, len(existing))
	for _, opt := range existing {
		have[opt] = struct{}{}
	}
	for _, opt := range options {
		if _, dup := have[opt]; dup {
			continue
		}
		have[opt] = struct{}{}
		existing = append(existing, opt)
	}
	mapping[aliasKey] = existing
}

// readOptions reads a vocabulary file: invalid UTF-8 is replaced, a leading
// BOM is dropped, lines are trimmed and blank lines discarded.
func readOptions(p string) ([]string, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	text, _, err := transform.String(unicode.UTF8BOM.NewDecoder(), string(raw))
	if err != nil {
		return nil, err
	}
	return parseOptions(text), nil
}

// parseOptions splits text on every line boundary, trims each line and
// drops blank ones.
func parseOptions(text string) []string {
	var out []string
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
