package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BinToss/DeadLock/internal/acl"
	"github.com/BinToss/DeadLock/internal/errors"
	"github.com/BinToss/DeadLock/internal/output"
	"github.com/BinToss/DeadLock/pkg/model"
)

type scanFlags struct {
	json         bool
	yaml         bool
	short        bool
	tree         bool
	noColor      bool
	ownership    bool
	failIfLocked bool
	maxFiles     int
}

func newScanCmd(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan PATH...",
		Short: "Report the processes locking files or folders",
		Long: `Scan each PATH once and report every process holding it open. For a
folder, every file below it is checked and each process is reported once,
with the first file it was found holding.

Press Ctrl+C to stop a long folder scan; the processes found so far are
still reported.

Exit status is 0 on success, 1 if a path could not be scanned, and 3 when
--fail-if-locked is given and any path is locked.`,
		Example: `  deadlock scan ./build
  deadlock scan --short report.xlsx
  deadlock scan --json --ownership C:\Users\me\Documents`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runScan(cmd, args, f)
		},
	}

	cmd.Flags().BoolVar(&f.json, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&f.yaml, "yaml", false, "output as YAML")
	cmd.Flags().BoolVar(&f.short, "short", false, "one line per locking process")
	cmd.Flags().BoolVar(&f.tree, "tree", false, "group lockers by file")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colorized output")
	cmd.Flags().BoolVar(&f.ownership, "ownership", false, "also check whether the path's access list allows access")
	cmd.Flags().BoolVar(&f.failIfLocked, "fail-if-locked", false, "exit with status 3 when any path is locked")
	cmd.Flags().IntVar(&f.maxFiles, "max-files", -1, "stop a folder scan after this many files (0 = no limit)")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml", "short", "tree")
	return cmd
}

func (f scanFlags) format(configured string) (output.Format, error) {
	switch {
	case f.json:
		return output.FormatJSON, nil
	case f.yaml:
		return output.FormatYAML, nil
	case f.short:
		return output.FormatShort, nil
	case f.tree:
		return output.FormatTree, nil
	}
	return output.ParseFormat(configured)
}

func (a *app) runScan(cmd *cobra.Command, args []string, f scanFlags) error {
	format, err := f.format(a.cfg.Output.Format)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	color := a.colorEnabled(out, f.noColor)

	resolver := a.newResolver(a)
	if f.maxFiles >= 0 {
		resolver.MaxFiles = f.maxFiles
	}

	ctx := cmd.Context()
	var results []model.Result
	failed, locked := false, false
	for _, path := range args {
		wp, err := model.NewWatchedPath(path)
		if err != nil {
			output.RenderError(cmd.ErrOrStderr(), path, err, a.colorEnabled(cmd.ErrOrStderr(), f.noColor))
			failed = true
			continue
		}
		if f.ownership {
			acl.Check(wp, a.logger)
		}

		res, err := resolver.GetLockers(ctx, wp)
		if err != nil {
			if errors.Is(err, errors.ErrUnsupported) {
				return err
			}
			output.RenderError(cmd.ErrOrStderr(), wp.Path(), err, color)
			failed = true
			continue
		}
		if res.Status == model.StatusLocked {
			locked = true
		}
		results = append(results, res)

		if ctx.Err() != nil {
			break
		}
	}

	if err := output.Render(out, format, results, color); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	switch {
	case failed:
		return &exitError{code: ExitError}
	case f.failIfLocked && locked:
		return &exitError{code: ExitLocked}
	}
	return nil
}
