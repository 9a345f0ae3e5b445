package cmd

import (
	"errors"
	"strings"

	"github.com/dirvault/dirvault/internal/engine"
	derrors "github.com/dirvault/dirvault/internal/errors"
	"github.com/dirvault/dirvault/internal/keystore"
	"github.com/dirvault/dirvault/internal/ui"
	"github.com/dirvault/dirvault/internal/vcs"

	"github.com/spf13/cobra"
)

var expandDryRun bool

func init() {
	expandCmd.Flags().BoolVar(&expandDryRun, "dry-run", false, "show what would be expanded without writing anything")
}

// resetExpandState resets the expand command's global state for testing.
func resetExpandState() {
	expandDryRun = false
}

var expandCmd = &cobra.Command{
	Use:   "expand [pattern...]",
	Short: "Decrypts every bundle back into its plaintext directory",
	Long: `Opens each encrypted bundle with your passphrase-protected private key and
unpacks it into the matching top-level directory, overwriting files that
exist in the bundle. Optional glob patterns restrict which bundles are
expanded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting expand command")
		spinner, cleanup := startSpinner("Expanding bundles...", verbose)
		defer cleanup()

		cfg, err := loadProjectConfig()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to load project settings: %v", err)
		}
		if cfg.ProjectRoot == "" {
			finalMessage := ui.Error.Sprint("✗") + " Not inside a dirvault project\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("dirvault init") + " first"
			spinner.FinalMSG = finalMessage
			return nil
		}
		Logger.Debugf("Project root: %s", cfg.ProjectRoot)

		var passphrase []byte
		if !expandDryRun {
			passphrase, err = readPassphrase(false, spinner)
			if err != nil {
				return Logger.ErrorfAndReturn("Failed to read passphrase: %v", err)
			}
		}

		eng := engine.New(cfg, keystore.New(cfg), vcs.NewCLI(cfg.ProjectRoot, Logger), Logger)
		result, err := eng.Expand(cmd.Context(), engine.ExpandOptions{
			Patterns:   args,
			Passphrase: passphrase,
			DryRun:     expandDryRun,
		})
		if err != nil {
			if errors.Is(err, derrors.ErrMissingKey) {
				finalMessage := ui.Error.Sprint("✗") + " No encrypted key found at " + ui.Path.Sprint(cfg.EncryptedKeyFile) + "\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("dirvault generate-key") + " first"
				spinner.FinalMSG = finalMessage
				return nil
			}
			if errors.Is(err, derrors.ErrBadPassphrase) {
				finalMessage := ui.Error.Sprint("✗") + " Wrong passphrase"
				spinner.FinalMSG = finalMessage
				return nil
			}
			if errors.Is(err, derrors.ErrDecryption) {
				finalMessage := ui.Error.Sprint("✗") + " A bundle could not be opened\n" +
					ui.Error.Sprint("Error: ") + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Directories expanded before the failure were kept"
				spinner.FinalMSG = finalMessage
				return err
			}
			return Logger.ErrorfAndReturn("Expand failed: %v", err)
		}

		if result.NothingToDo {
			finalMessage := ui.Success.Sprint("✓") + " Nothing to do: no bundles found"
			spinner.FinalMSG = finalMessage
			return nil
		}
		if result.DryRun {
			finalMessage := ui.Info.Sprint("→") + " Would expand:" + ui.FormatPaths(result.Bundles)
			spinner.FinalMSG = finalMessage
			return nil
		}

		finalMessage := ui.Success.Sprint("✓") + " Expanded " + ui.Highlight.Sprint(strings.Join(result.Dirs, ", "))
		spinner.FinalMSG = finalMessage
		return nil
	},
}
