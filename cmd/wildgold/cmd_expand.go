package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"wildgold/internal/config"
	"wildgold/internal/expand"
	"wildgold/internal/generator"
	"wildgold/internal/random"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// requestFlags are shared by expand, cache-key and watch.
type requestFlags struct {
	file      string
	seed      uint64
	seedMode  string
	maxPasses int
	missing   string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "Read the template from a file")
	cmd.Flags().Uint64VarP(&f.seed, "seed", "s", 0, "Seed used in fixed mode")
	cmd.Flags().StringVar(&f.seedMode, "seed-mode", "", "fixed or randomize (default from config)")
	cmd.Flags().IntVarP(&f.maxPasses, "max-passes", "p", 0, fmt.Sprintf("Pass limit, %d-%d (default from config)", config.MinPasses, config.MaxPasses))
	cmd.Flags().StringVarP(&f.missing, "missing", "m", "", "Missing-key policy: keep, empty or error (default from config)")
}

// request builds a generator request: explicit flags win, config fills the rest.
func (f *requestFlags) request(cmd *cobra.Command, cfg *config.Config, template string) generator.Request {
	req := generator.Request{Template: template}
	if cmd.Flags().Changed("seed-mode") {
		req.SeedMode = random.SeedMode(f.seedMode)
	}
	if cmd.Flags().Changed("seed") {
		req.Seed = f.seed
		req.HasSeed = true
		if req.SeedMode == "" {
			req.SeedMode = random.SeedFixed
		}
	}
	if cmd.Flags().Changed("max-passes") {
		req.MaxPasses = f.maxPasses
		// An explicit 0 is rejected instead of falling back to the default.
		if req.MaxPasses == 0 {
			req.MaxPasses = -1
		}
	}
	if cmd.Flags().Changed("missing") {
		req.MissingPolicy = expand.MissingPolicy(f.missing)
	}
	return generator.FromConfig(cfg.Expansion, req)
}

// template reads the template from args, --file or stdin, in that order.
func (f *requestFlags) template(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return "", fmt.Errorf("failed to read template: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read template from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

var (
	expandFlags requestFlags
	expandCount int
	showSeed    bool
)

// expandCmd expands a template
var expandCmd = &cobra.Command{
	Use:   "expand [template]",
	Short: "Expand the wildcards in a template",
	Long: `Expands every <wildcard> token in the template.

The template is taken from the arguments, --file, or standard input.

Examples:
  wildgold expand "a <color> <animal>"
  wildgold expand --seed 42 "<color:1> and <color:1>"
  wildgold expand --seed-mode randomize --count 5 -f prompt.txt`,
	RunE: runExpand,
}

func init() {
	addExpandFlags(expandCmd)
}

func addExpandFlags(cmd *cobra.Command) {
	expandFlags.register(cmd)
	cmd.Flags().IntVarP(&expandCount, "count", "n", 1, "Number of expansions; fixed seeds increase by one per expansion")
	cmd.Flags().BoolVar(&showSeed, "show-seed", false, "Prefix each result with the seed used")
}

func runExpand(cmd *cobra.Command, args []string) error {
	if expandCount < 1 {
		return fmt.Errorf("--count must be at least 1")
	}
	template, err := expandFlags.template(cmd, args)
	if err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	req := expandFlags.request(cmd, rt.cfg, template)
	out := cmd.OutOrStdout()
	for i := 0; i < expandCount; i++ {
		r := req
		if r.SeedMode == random.SeedFixed {
			r.Seed = req.Seed + uint64(i)
		}
		res, err := rt.gen.Compute(ctx, r)
		if err != nil {
			return err
		}
		logger.Debug("Expanded template",
			zap.String("request_id", res.RequestID),
			zap.Uint64("seed", res.Seed),
			zap.Int("passes", res.Passes),
			zap.Int("substitutions", res.Substitutions),
			zap.Duration("duration", res.Duration))

		if showSeed {
			fmt.Fprintf(out, "%s %s\n", dimStyle.Render(fmt.Sprintf("[%d]", res.Seed)), res.Text)
		} else {
			fmt.Fprintln(out, res.Text)
		}
	}
	return nil
}

var cacheKeyFlags requestFlags

// cacheKeyCmd prints the cache key for a request
var cacheKeyCmd = &cobra.Command{
	Use:   "cache-key [template]",
	Short: "Print the cache key a host would store for a request",
	Long: `Prints a key that stays the same as long as re-running the request would
give the same output: same template, seed settings and vocabulary files.
Randomized requests print a volatile key that never matches.`,
	RunE: runCacheKey,
}

func init() {
	cacheKeyFlags.register(cacheKeyCmd)
}

func runCacheKey(cmd *cobra.Command, args []string) error {
	template, err := cacheKeyFlags.template(cmd, args)
	if err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	key, err := rt.gen.CacheKey(cacheKeyFlags.request(cmd, rt.cfg, template))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key.String())
	return nil
}
