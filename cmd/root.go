package cmd

import (
	"context"

	logger "github.com/dirvault/dirvault/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	rootCmd = &cobra.Command{
		Use:   "dirvault",
		Short: "Keep directories encrypted at rest in version control",
		Long: `Dirvault packs each top-level directory of a project into a compressed,
public-key encrypted bundle and keeps only the bundles under version
control. The plaintext directories stay on disk and out of the repository.

Run 'dirvault help <command>' for more details on a specific command.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
			}
			Logger.Debugf("Initializing command with verbose=%t, debug=%t", verbose, debug)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateKeyCmd)
	rootCmd.AddCommand(decryptKeyCmd)
	rootCmd.AddCommand(createPubCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(expandCmd)
}

// Execute runs the root command with ctx governing cancellation.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// GetRootCmd returns the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// ResetGlobalState resets all global flag variables to their defaults for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	initProjectName = ""
	resetGenerateKeyState()
	resetUpdateState()
	resetExpandState()
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
