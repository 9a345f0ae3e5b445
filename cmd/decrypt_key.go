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

var decryptKeyCmd = &cobra.Command{
	Use:   "decrypt-key",
	Short: "Decrypts the private key to a plaintext file for out-of-band use",
	Long: `Decrypts the passphrase-protected private key and writes it as a plaintext
file in the project root. The file is transient: the next update or expand
removes it, and it is always part of the ignore state.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting decrypt-key command")
		spinner, cleanup := startSpinner("Decrypting private key...", verbose)
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

		if err := keys.WritePlaintext(priv); err != nil {
			return Logger.ErrorfAndReturn("Failed to write plaintext key: %v", err)
		}
		Logger.Infof("Plaintext key written to %s", cfg.KeyPath())

		finalMessage := ui.Success.Sprint("✓") + " Private key decrypted to " + ui.Path.Sprint(cfg.KeyFile) + "\n" +
			ui.Info.Sprint("→") + " It is removed again by the next " + ui.Code.Sprint("dirvault update") +
			" or " + ui.Code.Sprint("dirvault expand")
		spinner.FinalMSG = finalMessage
		return nil
	},
}
