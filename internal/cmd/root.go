package cmd

import (
	"fmt"
	"os"

	"github.com/memsieve/pescan/internal/config"
	"github.com/memsieve/pescan/internal/output"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	jsonFlag    bool
	verboseFlag bool
	quietFlag   bool
	noColorFlag bool
	ConfigDir   string

	log = logrus.New()
)

// NewRootCmd builds the pescan cobra command tree.
func NewRootCmd() *cobra.Command {
	cmd := newRootCmd()
	addScanCommand(cmd)
	addConfigCommands(cmd)
	addTUICommand(cmd)
	return cmd
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pescan",
		Short:         "Process memory scanner",
		Long:          "pescan — detects code injection, process hollowing, inline hooks and shellcode by inspecting a running process's memory.",
		Version:       fmt.Sprintf("pescan v%s", Version),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verboseFlag && quietFlag {
				return fmt.Errorf("--verbose and --quiet are mutually exclusive")
			}
			if jsonFlag {
				quietFlag = true
			}
			output.SetFlags(jsonFlag, quietFlag, verboseFlag)

			log.SetOutput(os.Stderr)
			log.SetFormatter(&logrus.TextFormatter{DisableColors: noColorFlag, FullTimestamp: true})
			switch {
			case verboseFlag:
				log.SetLevel(logrus.DebugLevel)
			case quietFlag:
				log.SetLevel(logrus.ErrorLevel)
			default:
				log.SetLevel(logrus.InfoLevel)
			}

			config.SetConfigDir(ConfigDir)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pflags := rootCmd.PersistentFlags()
	pflags.BoolVarP(&jsonFlag, "json", "j", false, "Output as JSON")
	pflags.BoolVarP(&verboseFlag, "verbose", "v", false, "Extra detail to stderr")
	pflags.BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	pflags.BoolVar(&noColorFlag, "no-color", false, "Disable ANSI colors")
	pflags.StringVar(&ConfigDir, "config-dir", "", "Override config directory (default: ~/.pescan)")

	if v := os.Getenv("PESCAN_HOME"); v != "" && ConfigDir == "" {
		ConfigDir = v
	}
	if os.Getenv("NO_COLOR") != "" {
		noColorFlag = true
	}
	if os.Getenv("PESCAN_JSON") == "1" {
		jsonFlag = true
	}

	return rootCmd
}

