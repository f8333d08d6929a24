package cli

import (
	"os"

	"github.com/spf13/cobra"

	"metasync/internal/engine"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sync metadata and artwork for every configured library",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		report, err := a.engine.Run(ctx)
		if err != nil {
			return err
		}
		engine.RenderSummary(os.Stdout, report)
		return nil
	},
}
