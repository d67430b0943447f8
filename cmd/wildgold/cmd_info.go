package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// infoCmd shows vocabulary status
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the root, base directories and vocabulary signature",
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	snap, err := rt.store.Snapshot(ctx)
	if err != nil {
		return err
	}

	lines := 0
	for _, opts := range snap.Mapping {
		lines += len(opts)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("wildgold vocabulary"))
	fmt.Fprintln(out, field("Root", rt.root))
	fmt.Fprintln(out, field("Signature", snap.Signature))
	fmt.Fprintln(out, field("Keys", len(snap.Mapping)))
	fmt.Fprintln(out, field("Lines", lines))
	fmt.Fprintln(out, field("Loaded", snap.LoadedAt.Format("2006-01-02 15:04:05")))
	if len(snap.BaseDirs) == 0 {
		fmt.Fprintln(out, field("Base dirs", warnStyle.Render("none found")))
	} else {
		fmt.Fprintln(out, field("Base dirs", len(snap.BaseDirs)))
		for _, d := range snap.BaseDirs {
			fmt.Fprintln(out, "  "+dimStyle.Render(d))
		}
	}

	if rt.db == nil {
		return nil
	}
	infos, err := rt.db.List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, field("Snapshots", fmt.Sprintf("%d in %s", len(infos), rt.db.Path())))
	for _, info := range infos {
		fmt.Fprintf(out, "  %s %s\n", keyStyle.Render(fmt.Sprintf("%.12s", info.Signature)),
			dimStyle.Render(fmt.Sprintf("keys=%d lines=%d hits=%d", info.Keys, info.Lines, info.Hits)))
	}
	return nil
}
