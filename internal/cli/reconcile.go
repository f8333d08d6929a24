package cli

import (
	"os"

	"github.com/spf13/cobra"

	"metasync/internal/engine"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Prune cache entries, metadata records and artwork for removed media",
	Long:  "reconcile enumerates the libraries without syncing and removes every\ncache entry, metadata record and artwork file that no longer maps to a\nlive item. Combine with --dry-run to preview what would be removed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		result, err := a.engine.Reconcile(ctx)
		if err != nil {
			return err
		}
		engine.RenderReconcile(os.Stdout, result)
		return nil
	},
}
