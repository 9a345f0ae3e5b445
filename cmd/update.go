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

var (
	updateDryRun  bool
	updateNoPush  bool
	updateMessage string
)

func init() {
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "show what would be sealed without writing anything")
	updateCmd.Flags().BoolVar(&updateNoPush, "no-push", false, "seal and regenerate ignore state but skip commit and push")
	updateCmd.Flags().StringVarP(&updateMessage, "message", "m", "", "commit message for the version-control hand-off")
}

// resetUpdateState resets the update command's global state for testing.
func resetUpdateState() {
	updateDryRun = false
	updateNoPush = false
	updateMessage = ""
}

var updateCmd = &cobra.Command{
	Use:   "update [pattern...]",
	Short: "Seals every top-level directory into its encrypted bundle and pushes",
	Long: `Packs each top-level directory into a compressed, encrypted bundle,
regenerates the ignore state, and commits and pushes the result. Optional
glob patterns restrict which directories are sealed; the ignore state always
covers all of them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting update command")
		spinner, cleanup := startSpinner("Sealing directories...", verbose)
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

		eng := engine.New(cfg, keystore.New(cfg), vcs.NewCLI(cfg.ProjectRoot, Logger), Logger)
		result, err := eng.Update(cmd.Context(), engine.UpdateOptions{
			Patterns:      args,
			DryRun:        updateDryRun,
			NoPush:        updateNoPush,
			CommitMessage: updateMessage,
		})
		if err != nil {
			if errors.Is(err, derrors.ErrMissingPublicKey) {
				finalMessage := ui.Error.Sprint("✗") + " No public key found at " + ui.Path.Sprint(cfg.PublicKeyFile) + "\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("dirvault generate-key") +
					" or " + ui.Code.Sprint("dirvault create-pub") + " first"
				spinner.FinalMSG = finalMessage
				return nil
			}
			if errors.Is(err, derrors.ErrVcs) && result != nil {
				finalMessage := ui.Error.Sprint("✗") + " Bundles were sealed but the version-control hand-off failed\n" +
					ui.Error.Sprint("Error: ") + err.Error() + "\n" +
					ui.Info.Sprint("→") + " Local bundles are valid; rerun " + ui.Code.Sprint("dirvault update") + " to retry"
				spinner.FinalMSG = finalMessage
				return err
			}
			return Logger.ErrorfAndReturn("Update failed: %v", err)
		}

		if result.NothingToDo {
			finalMessage := ui.Success.Sprint("✓") + " Nothing to do: no directories found"
			spinner.FinalMSG = finalMessage
			return nil
		}
		if result.DryRun {
			finalMessage := ui.Info.Sprint("→") + " Would seal:" + ui.FormatPaths(result.Bundles)
			spinner.FinalMSG = finalMessage
			return nil
		}

		finalMessage := ui.Success.Sprint("✓") + " Sealed " + ui.Highlight.Sprint(strings.Join(result.Dirs, ", "))
		if result.Pushed {
			finalMessage += "\n" + ui.Success.Sprint("✓") + " Pushed to " +
				ui.Highlight.Sprint(cfg.Remote+"/"+cfg.Branch)
		} else if updateNoPush {
			finalMessage += "\n" + ui.Info.Sprint("→") + " Push skipped; run " +
				ui.Code.Sprint("dirvault update") + " without --no-push to publish"
		}
		spinner.FinalMSG = finalMessage
		return nil
	},
}
