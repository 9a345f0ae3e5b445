package cmd

import (
	"errors"
	"os"

	"github.com/dirvault/dirvault/internal/config"
	derrors "github.com/dirvault/dirvault/internal/errors"
	"github.com/dirvault/dirvault/internal/ui"

	"github.com/spf13/cobra"
)

var initProjectName string

func init() {
	initCmd.Flags().StringVarP(&initProjectName, "name", "n", "", "project name stored in the marker (defaults to the directory name)")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initializes the current directory as a dirvault project",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Initializing dirvault project...", verbose)
		defer cleanup()

		root, err := os.Getwd()
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to get working directory: %v", err)
		}
		Logger.Debugf("Initializing project at %s", root)

		marker, err := config.Init(root, initProjectName)
		if err != nil {
			if errors.Is(err, derrors.ErrProjectAlreadyInitialized) {
				finalMessage := ui.Error.Sprint("✗") + " This directory is already a dirvault project\n" +
					ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("dirvault generate-key") + " if you have no key pair yet"
				spinner.FinalMSG = finalMessage
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to initialize project: %v", err)
		}
		Logger.Infof("Project %s initialized with UUID %s", marker.Project.Name, marker.Project.UUID)

		finalMessage := ui.Success.Sprint("✓") + " Initialized dirvault project " + ui.Highlight.Sprint(marker.Project.Name) + "\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("dirvault generate-key") + " to create your key pair"
		spinner.FinalMSG = finalMessage
		return nil
	},
}
