package cli

import (
	"github.com/spf13/cobra"

	"github.com/BinToss/DeadLock/internal/tui"
)

func newUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui [PATH...]",
		Short: "Watch paths interactively",
		Long: `Open a full-screen list of watched paths. Scans run in the background
and can be cancelled while in progress.

Keys: a add a path, r rescan, R rescan all, c cancel a scan, d stop
watching, enter show lockers, S save a markdown snapshot, q quit.`,
		Aliases: []string{"i", "interactive"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a.newResolver(a), a.logger, args)
		},
	}
}
