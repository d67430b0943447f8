// Package generator is the entry point hosts call: it validates a request,
// resolves the seed, takes a vocabulary snapshot and runs the expansion.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wildgold/internal/config"
	"wildgold/internal/expand"
	"wildgold/internal/logging"
	"wildgold/internal/random"
	"wildgold/internal/vocab"

	"github.com/google/uuid"
)

// ErrInvalidRequest is wrapped by every validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// Request is one expansion call.
type Request struct {
	Template string
	SeedMode random.SeedMode
	Seed     uint64
	// HasSeed marks Seed as explicit, so a zero Seed is kept in fixed mode.
	HasSeed       bool
	MaxPasses     int
	MissingPolicy expand.MissingPolicy
}

// Validate checks the enumerations and the pass bound.
func (r Request) Validate() error {
	if _, err := random.ParseSeedMode(string(r.SeedMode)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if _, err := expand.ParseMissingPolicy(string(r.MissingPolicy)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if r.MaxPasses < config.MinPasses || r.MaxPasses > config.MaxPasses {
		return fmt.Errorf("%w: max passes must be between %d and %d (got %d)",
			ErrInvalidRequest, config.MinPasses, config.MaxPasses, r.MaxPasses)
	}
	return nil
}

// Result is the outcome of Compute.
type Result struct {
	Text string
	// Seed is the seed actually used; for randomized requests it can be fed
	// back as a fixed seed to reproduce Text.
	Seed          uint64
	Signature     string
	Passes        int
	Substitutions int
	CycleBreaks   int
	DepthBreaks   int
	RequestID     string
	Duration      time.Duration
}

// Generator runs requests against a vocabulary store.
type Generator struct {
	store    *vocab.Store
	maxDepth int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxDepth overrides the nesting ceiling.
func WithMaxDepth(n int) Option {
	return func(g *Generator) {
		g.maxDepth = n
	}
}

// New creates a generator over store.
func New(store *vocab.Store, opts ...Option) *Generator {
	g := &Generator{store: store, maxDepth: expand.DefaultMaxDepth}
	for _, o := range opts {
		o(g)
	}
	return g
}

// FromConfig fills the request fields left at their zero value from the
// expansion defaults in cfg.
func FromConfig(cfg config.ExpansionConfig, req Request) Request {
	if req.SeedMode == "" {
		req.SeedMode = random.SeedMode(cfg.SeedMode)
	}
	if req.SeedMode == random.SeedFixed && !req.HasSeed && req.Seed == 0 {
		req.Seed = cfg.Seed
	}
	if req.MaxPasses == 0 {
		req.MaxPasses = cfg.MaxPasses
	}
	if req.MissingPolicy == "" {
		req.MissingPolicy = expand.MissingPolicy(cfg.MissingPolicy)
	}
	return req
}

// Compute expands req.Template. The vocabulary is refreshed first if the
// files on disk changed; the expansion itself does no I/O.
func (g *Generator) Compute(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	reqID := uuid.NewString()
	log := logging.WithRequestID(logging.CategoryExpand, reqID).
		WithField("mode", string(req.SeedMode)).
		WithField("passes", req.MaxPasses)
	start := time.Now()

	snap, err := g.store.Snapshot(ctx)
	if err != nil {
		log.Error("vocabulary refresh failed: %v", err)
		return Result{}, err
	}

	seed, err := random.Resolve(req.SeedMode, req.Seed)
	if err != nil {
		return Result{}, err
	}

	res, err := expand.Expand(req.Template, snap.Mapping, random.NewSource(seed), expand.Options{
		MaxPasses: req.MaxPasses,
		Policy:    req.MissingPolicy,
		MaxDepth:  g.maxDepth,
	})
	if err != nil {
		log.Warn("expansion aborted: %v", err)
		return Result{}, err
	}

	out := Result{
		Text:          res.Text,
		Seed:          seed,
		Signature:     snap.Signature,
		Passes:        res.Passes,
		Substitutions: res.Substitutions,
		CycleBreaks:   res.CycleBreaks,
		DepthBreaks:   res.DepthBreaks,
		RequestID:     reqID,
		Duration:      time.Since(start),
	}
	log.Debug("expanded seed=%d passes=%d subs=%d cycles=%d depth=%d in %v",
		seed, out.Passes, out.Substitutions, out.CycleBreaks, out.DepthBreaks, out.Duration)
	return out, nil
}
