package cmd

import (
	"github.com/dirvault/dirvault/internal/keystore"
	"github.com/dirvault/dirvault/internal/project"
	"github.com/dirvault/dirvault/internal/ui"
	"github.com/dirvault/dirvault/internal/utils"

	"github.com/spf13/cobra"
)

var generateKeyForce bool

func init() {
	generateKeyCmd.Flags().BoolVarP(&generateKeyForce, "force", "f", false, "overwrite an existing encrypted key")
}

// resetGenerateKeyState resets the generate-key command's global state for testing.
func resetGenerateKeyState() {
	generateKeyForce = false
}

var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Generates a key pair and stores the private half encrypted with your passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting generate-key command")
		spinner, cleanup := startSpinner("Generating key pair...", verbose)
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
		if keys.HasEncryptedKey() && !generateKeyForce {
			finalMessage := ui.Error.Sprint("✗ ") + ui.Path.Sprint(cfg.EncryptedKeyFile) + " already exists\n" +
				"A new key makes every existing bundle unreadable. To override, run: " +
				ui.Code.Sprint("dirvault generate-key --force")
			spinner.FinalMSG = finalMessage
			return nil
		}
		if generateKeyForce {
			spinner.Stop()
			Logger.WarnfAlways("Overwriting the encrypted key - bundles sealed for the old key cannot be opened afterward")
			spinner.Restart()
		}

		passphrase, err := readPassphrase(true, spinner)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to read passphrase: %v", err)
		}
		defer utils.Zero(passphrase)

		Logger.Debugf("Generating key pair")
		pub, err := keys.Generate(passphrase)
		if err != nil {
			return Logger.ErrorfAndReturn("Failed to generate key pair: %v", err)
		}
		Logger.Infof("Key pair generated, public key fingerprint %x", pub[:4])

		finalMessage := ui.Success.Sprint("✓") + " Key pair generated\n" +
			ui.Info.Sprint("→") + " Encrypted private key: " + ui.Path.Sprint(cfg.EncryptedKeyFile) + "\n" +
			ui.Info.Sprint("→") + " Public key: " + ui.Path.Sprint(cfg.PublicKeyFile)
		spinner.FinalMSG = finalMessage
		return nil
	},
}
