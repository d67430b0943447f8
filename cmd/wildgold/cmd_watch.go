package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"wildgold/internal/generator"
	"wildgold/internal/vocab"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchFlags requestFlags

// watchCmd re-expands a template whenever the vocabulary changes
var watchCmd = &cobra.Command{
	Use:   "watch [template]",
	Short: "Expand a template and re-expand it whenever vocabulary files change",
	Long: `Expands the template once, then watches every wildcard directory and
prints a new expansion after each change. Stop with Ctrl+C.`,
	RunE: runWatch,
}

func init() {
	watchFlags.register(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	template, err := watchFlags.template(cmd, args)
	if err != nil {
		return err
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req := watchFlags.request(cmd, rt.cfg, template)
	if err := req.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	emit := func() {
		mu.Lock()
		defer mu.Unlock()
		printExpansion(ctx, out, rt.gen, req)
	}

	emit()

	w, err := vocab.NewWatcher(rt.store, rt.cfg.GetWatchDebounce(), func(snap *vocab.Snapshot) {
		logger.Info("Vocabulary changed", zap.String("signature", snap.Signature), zap.Int("keys", len(snap.Mapping)))
		emit()
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Debug("Watching", zap.Strings("dirs", w.WatchedDirs()))
	<-ctx.Done()

	stats := w.Stats()
	logger.Debug("Watcher stopped",
		zap.Int("events", stats.Events),
		zap.Int("refreshes", stats.Refreshes),
		zap.Int("errors", stats.Errors),
		zap.Int64("reloads", rt.store.Reloads()))
	return nil
}

func printExpansion(ctx context.Context, out io.Writer, gen *generator.Generator, req generator.Request) {
	res, err := gen.Compute(ctx, req)
	if err != nil {
		fmt.Fprintln(out, warnStyle.Render("error: "+err.Error()))
		return
	}
	fmt.Fprintln(out, res.Text)
}
