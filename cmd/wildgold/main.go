package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"wildgold/internal/config"
	"wildgold/internal/generator"
	"wildgold/internal/logging"
	"wildgold/internal/store"
	"wildgold/internal/vocab"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultConfigPath = ".wildgold/config.yaml"

var (
	// Global flags
	verbose    bool
	configPath string
	rootDir    string
	timeout    time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "wildgold",
	Short: "wildgold - wildcard prompt expansion",
	Long: `wildgold expands <wildcard> tokens in text templates using vocabulary
files discovered under a host root.

A token names one or more keys (<color>, <object|person>) and may carry a
variable id (<color:1>) so that every occurrence in the same scope resolves
to the same value. Expansion is deterministic for a fixed seed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Config file")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "Host root directory (default: detected from the working directory)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(cacheKeyCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles what the commands share: resolved config, the vocabulary
// store and the generator over it.
type runtime struct {
	cfg   *config.Config
	root  string
	store *vocab.Store
	db    *store.SnapshotDB
	gen   *generator.Generator
}

// openRuntime loads configuration and wires the store. Callers must Close it.
func openRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if rootDir != "" {
		cfg.Vocabulary.RootDir = rootDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Initialize(cfg.Logging.ToLogging()); err != nil {
		return nil, err
	}

	root := cfg.Vocabulary.RootDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err = vocab.FindRoot(wd, cfg.Vocabulary.PluginsDir); err != nil {
			return nil, fmt.Errorf("failed to detect root: %w", err)
		}
	}
	logging.Boot("Root resolved: %s", root)
	logger.Debug("Runtime opened", zap.String("root", root), zap.String("config", configPath))

	opts := vocab.Options{
		PluginsDir:   cfg.Vocabulary.PluginsDir,
		WildcardsDir: cfg.Vocabulary.WildcardsDir,
		CacheDirName: cfg.Vocabulary.CacheDirName,
		Extensions:   cfg.Vocabulary.Extensions,
		LoadWorkers:  cfg.GetLoadWorkers(),
	}

	rt := &runtime{cfg: cfg, root: root}
	var storeOpts []vocab.StoreOption
	if cfg.Store.Enabled {
		path := cfg.Store.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		db, err := store.Open(path)
		if err != nil {
			logging.CloseAll()
			return nil, err
		}
		rt.db = db
		storeOpts = append(storeOpts, vocab.WithPersister(db))
	}

	rt.store = vocab.NewStore(root, opts, storeOpts...)
	rt.gen = generator.New(rt.store, generator.WithMaxDepth(cfg.Expansion.MaxDepth))
	return rt, nil
}

// Close prunes and closes the snapshot database and flushes log files.
func (r *runtime) Close() {
	if r.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if _, err := r.db.Prune(ctx, r.cfg.Store.Keep); err != nil {
			logger.Warn("Snapshot prune failed", zap.Error(err))
		}
		cancel()
		_ = r.db.Close()
	}
	logging.CloseAll()
}

// commandContext derives a context bounded by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
