package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"wildgold/internal/random"

	"github.com/google/uuid"
)

// Key tells a host whether re-running a request could change its output.
type Key struct {
	Value string
	// Volatile keys come from randomized requests and never equal anything.
	Volatile bool
}

// Equal reports whether two keys promise the same output.
func (k Key) Equal(other Key) bool {
	if k.Volatile || other.Volatile {
		return false
	}
	return k.Value == other.Value
}

func (k Key) String() string {
	if k.Volatile {
		return "volatile:" + k.Value
	}
	return k.Value
}

// CacheKey derives the key for req from its inputs and the vocabulary
// signature currently on disk. It does not load the vocabulary.
func (g *Generator) CacheKey(req Request) (Key, error) {
	if err := req.Validate(); err != nil {
		return Key{}, err
	}
	if req.SeedMode == random.SeedRandomize {
		return Key{Value: uuid.NewString(), Volatile: true}, nil
	}
	return Key{Value: fixedKey(req, g.maxDepth, g.store.Signature())}, nil
}

func fixedKey(req Request, maxDepth int, signature string) string {
	h := sha256.New()
	for _, part := range []string{
		req.Template,
		string(req.SeedMode),
		strconv.FormatUint(req.Seed, 10),
		strconv.Itoa(req.MaxPasses),
		string(req.MissingPolicy),
		strconv.Itoa(maxDepth),
		signature,
	} {
		fmt.Fprintf(h, "%d:%s\x00", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}
