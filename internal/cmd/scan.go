package cmd

import (
	"context"
	"fmt"

	"github.com/memsieve/pescan/internal/engine"
	"github.com/memsieve/pescan/internal/output"
	"github.com/memsieve/pescan/internal/peformat"
	"github.com/memsieve/pescan/internal/winapi"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// logrusAdapter bridges the engine's minimal Logger seam to the root
// command's shared logrus.Logger, so scan progress lines obey --verbose
// and --quiet the same way every other pescan subcommand does.
type logrusAdapter struct {
	entry *logrus.Entry
}

func (a logrusAdapter) Infof(format string, args ...any)  { a.entry.Infof(format, args...) }
func (a logrusAdapter) Debugf(format string, args ...any) { a.entry.Debugf(format, args...) }
func (a logrusAdapter) Warnf(format string, args ...any)  { a.entry.Warnf(format, args...) }

var _ engine.Logger = logrusAdapter{}

func addScanCommand(rootCmd *cobra.Command) {
	var (
		pid      uint32
		filter   string
		noHooks  bool
		impRec   bool
		deepScan bool
	)

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a running process's memory for injected code",
		Long:  "scan inspects a target process's loaded modules and working set for process hollowing, inline API hooks, and shellcode-shaped private memory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pid == 0 {
				return fmt.Errorf("--pid is required")
			}

			modulesFilter, err := parseModulesFilter(filter)
			if err != nil {
				return err
			}

			e := engine.New(winapi.New(), peformat.New(), logrusAdapter{entry: logrus.NewEntry(log)})
			outcome := e.ScanRemote(context.Background(), engine.ScanArgs{
				PID:           pid,
				ModulesFilter: modulesFilter,
				Quiet:         output.IsQuiet(),
				NoHooks:       noHooks,
				ImpRec:        impRec,
				DeepScan:      deepScan,
			})
			if !outcome.Ok() {
				if output.IsJSON() {
					return output.PrintError(cmd.OutOrStdout(), "scan_failed", outcome.Fatal)
				}
				return fmt.Errorf("%s", outcome.Fatal)
			}

			if err := output.PrintReport(cmd.OutOrStdout(), outcome.Report); err != nil {
				return err
			}
			if outcome.Report.Summary.Replaced+outcome.Report.Summary.Hooked+outcome.Report.Summary.Implanted > 0 {
				return &exitCodeError{code: output.ExitSuspicious}
			}
			return nil
		},
	}

	flags := scanCmd.Flags()
	flags.Uint32Var(&pid, "pid", 0, "Target process ID")
	flags.StringVar(&filter, "filter", "all", "Module architecture filter: all, x86, x64")
	flags.BoolVar(&noHooks, "no-hooks", false, "Skip the inline-hook scan")
	flags.BoolVar(&impRec, "imp-rec", false, "Build an exports map for import reconstruction")
	flags.BoolVar(&deepScan, "deep-scan", false, "Search every byte offset of each page's header area for a PE header, not just offset 0")

	rootCmd.AddCommand(scanCmd)
}

func parseModulesFilter(s string) (winapi.ModulesFilter, error) {
	switch s {
	case "", "all":
		return winapi.FilterAll, nil
	case "x86":
		return winapi.FilterX86Only, nil
	case "x64":
		return winapi.FilterX64Only, nil
	default:
		return 0, fmt.Errorf("invalid --filter %q: must be all, x86, or x64", s)
	}
}

// exitCodeError lets RunE communicate a specific process exit code without
// printing an extra error line — main.go prints any other error to stderr
// (the root command sets SilenceErrors, so cobra itself prints none).
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string { return "" }

// ExitCode returns the code main.go should exit with, if err wraps one.
func ExitCode(err error) (int, bool) {
	ec, ok := err.(*exitCodeError)
	if !ok {
		return 0, false
	}
	return ec.code, true
}
