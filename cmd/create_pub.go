package cmd

import (
	"errors"

	derrors "github.com/dirvault/dirvault/internal/errors"
	"github.com/dirvault/dirvault/internal/keystore"
	"github.com/dirvault/dirvault/internal/project"
	"github.com/dirvault/dirvault/internal/ui"
	"github.com/dirvault/dirvault/internal/utils"

	"github.com/spf13/cobra"
)

var createPubCmd = &cobra.Command{
	Use:   "create-pub",
	Short: "Re-derives the public key from the encrypted private key",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting create-pub command")
		spinner, cleanup := startSpinner("Deriving public key...", verbose)
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
		if err := project.Validate(cfg.ProjectRoot); err != nil {
			Logger.Debugf("Project validation failed: %v", err)
			finalMessage := ui.Error.Sprint("✗") + " " + ui.Path.Sprint(cfg.ProjectRoot) + " is not a valid dirvault project\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("dirvault init") + " first"
			spinner.FinalMSG = finalMessage
			return nil
		}

		keys := keystore.New(cfg)
		if !keys.HasEncryptedKey() {
			finalMessage := ui.Error.Sprint("✗") + " No encrypted key found at " + ui.Path.Sprint(cfg.EncryptedKeyFile) + "\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("dirvault generate-key") + " first"
			spinner.FinalMSG = finalMessage
			return nil
		}

		passphrase, err := readPassphrase(false, spinner)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read passphrase: %v", err)
		}
		defer utils.Zero(passphrase)

		priv, err := keys.Open(passphrase)
		if err != nil {
			if errors.Is(err, derrors.ErrBadPassphrase) {
				finalMessage := ui.Error.Sprint("✗") + " Wrong passphrase"
				spinner.FinalMSG = finalMessage
				return nil
			}
			return Logger.ErrorfAndReturn("Failed to decrypt private key: %v", err)
		}
		defer priv.Zero()

		if err := keys.WritePublicKey(priv.Public()); err != nil {
			return Logger.ErrorfAndReturn("Failed to write public key: %v", err)
		}
		Logger.Infof("Public key written to %s", cfg.PublicKeyPath())

		finalMessage := ui.Success.Sprint("✓") + " Public key written to " + ui.Path.Sprint(cfg.PublicKeyFile)
		spinner.FinalMSG = finalMessage
		return nil
	},
}
