package vocab

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sort"
	"strconv"
)

// Signature fingerprints every vocabulary file under baseDirs. Base
// directories are visited in sorted order; for each file the tuple
// (base, relative path, mtime in ns, size) is hashed. Files that cannot be
// stat'ed are left out. The value changes whenever a tracked file is added,
// removed, renamed, resized or touched.
func Signature(baseDirs []string, opts Options) string {
	sorted := append([]string(nil), baseDirs...)
	sort.Strings(sorted)

	h := sha256.New()
	field := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}

	for _, base := range sorted {
		walkVocab(base, opts, func(f fileRef) {
			info, err := os.Stat(f.Path)
			if err != nil {
				return
			}
			field(base)
			field(f.Rel)
			field(strconv.FormatInt(info.ModTime().UnixNano(), 10))
			field(strconv.FormatInt(info.Size(), 10))
		})
	}
	return hex.EncodeToString(h.Sum(nil))
}
