package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/output"
	"github.com/BinToss/DeadLock/internal/watch"
	"github.com/BinToss/DeadLock/pkg/model"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		interval      time.Duration
		untilUnlocked bool
		noColor       bool
	)
	cmd := &cobra.Command{
		Use:   "watch PATH",
		Short: "Rescan a path until it is unlocked",
		Long: `Rescan PATH periodically and print a line each time the set of
locking processes changes. Changes to the path itself trigger an early
rescan. Watching ends when the path is removed or on Ctrl+C.`,
		Example: `  deadlock watch --until-unlocked ./app.log && rm ./app.log`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wp, err := model.NewWatchedPath(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("interval") {
				interval = a.cfg.Watch.Interval
			}

			out := cmd.OutOrStdout()
			color := a.colorEnabled(out, noColor)
			safe := output.NewSafeTerminalWriter(out)

			w := &watch.Watcher{
				Scanner:       a.newResolver(a),
				Interval:      interval,
				UntilUnlocked: untilUnlocked,
				Logger:        a.logger,
			}
			err = w.Run(cmd.Context(), wp, func(ev watch.Event) {
				stamp := ev.Time.Format("15:04:05")
				switch {
				case ev.Removed:
					fmt.Fprintf(safe, "%s %s: removed\n", stamp, wp.Path())
				case ev.Err != nil:
					fmt.Fprintf(safe, "%s %s: %v\n", stamp, wp.Path(), ev.Err)
				default:
					fmt.Fprintf(safe, "%s %s\n", stamp, output.Summary(ev.Result))
					if len(ev.Result.Lockers) > 0 {
						output.RenderShort(out, ev.Result, color)
					}
				}
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "time between rescans")
	cmd.Flags().BoolVar(&untilUnlocked, "until-unlocked", false, "exit as soon as no process holds the path")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colorized output")
	return cmd
}
