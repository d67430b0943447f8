package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var keysCounts bool

// keysCmd lists vocabulary keys
var keysCmd = &cobra.Command{
	Use:   "keys [prefix]",
	Short: "List the vocabulary keys that tokens can reference",
	Long: `Lists every key in the loaded vocabulary, optionally filtered by prefix.

Keys are lowercased relative paths without extension (people/names) plus a
basename alias (names) merged across every file with that name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKeys,
}

func init() {
	keysCmd.Flags().BoolVar(&keysCounts, "counts", false, "Show the number of lines per key")
}

func runKeys(cmd *cobra.Command, args []string) error {
	prefix := ""
	if len(args) == 1 {
		prefix = strings.ToLower(args[0])
	}

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

	out := cmd.OutOrStdout()
	shown := 0
	for _, k := range snap.Mapping.Keys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		shown++
		if keysCounts {
			fmt.Fprintf(out, "%s %s\n", keyStyle.Render(k), dimStyle.Render(fmt.Sprintf("(%d)", len(snap.Mapping[k]))))
		} else {
			fmt.Fprintln(out, keyStyle.Render(k))
		}
	}
	if shown == 0 {
		fmt.Fprintln(out, warnStyle.Render("No matching keys"))
	}
	return nil
}
