package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/memsieve/pescan/internal/engine"
	"github.com/memsieve/pescan/internal/peformat"
	"github.com/memsieve/pescan/internal/tui"
	"github.com/memsieve/pescan/internal/winapi"
)

func addTUICommand(rootCmd *cobra.Command) {
	var (
		pid     uint32
		filter  string
		noHooks bool
	)

	tuiCmd := &cobra.Command{
		Use:   "browse",
		Short: "Scan a process and browse the findings interactively",
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
				NoHooks:       noHooks,
			})
			if !outcome.Ok() {
				return fmt.Errorf("%s", outcome.Fatal)
			}

			p := tea.NewProgram(tui.NewApp(outcome.Report), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	flags := tuiCmd.Flags()
	flags.Uint32Var(&pid, "pid", 0, "Target process ID")
	flags.StringVar(&filter, "filter", "all", "Module architecture filter: all, x86, x64")
	flags.BoolVar(&noHooks, "no-hooks", false, "Skip the inline-hook scan")

	rootCmd.AddCommand(tuiCmd)
}
