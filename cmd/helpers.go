package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/dirvault/dirvault/internal/config"
	"github.com/dirvault/dirvault/internal/project"
	"github.com/dirvault/dirvault/internal/ui"
	"github.com/dirvault/dirvault/internal/utils"

	"github.com/briandowns/spinner"
)

// passphraseEnv lets scripted environments supply the passphrase without a
// terminal. Interactive prompting is the default.
const passphraseEnv = "DIRVAULT_PASSPHRASE"

// startSpinner creates and starts a spinner with the given message when not in verbose or debug mode.
// Returns the spinner and a function that should be deferred to clean up.
//
// IMPORTANT: spinner.FinalMSG values do NOT need trailing newlines. The cleanup function
// automatically calls ui.EnsureNewline() on the final message before printing it.
func startSpinner(message string, verbose bool) (*spinner.Spinner, func()) {
	Logger.Debugf("Starting spinner with message: %s", message)
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	err := s.Color("cyan")
	if err != nil {
		// If we can't set spinner color, just continue without it.
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	if !verbose && !debug {
		Logger.Debugf("Starting spinner in non-verbose mode")
		s.Start()
		// Ensure log output is discarded unless in verbose mode.
		log.SetOutput(io.Discard)
	} else {
		Logger.Infof("Running in verbose or debug mode: %s", message)
	}

	cleanup := func() {
		// Restore log output first.
		if !verbose && !debug {
			Logger.Debugf("Restoring log output")
			log.SetOutput(os.Stdout)
		}

		// Ensure final message ends with a newline.
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			// Clear FinalMSG so s.Stop() doesn't print it.
			s.FinalMSG = ""
		}

		// Stop the spinner first to clear the spinner line.
		if !verbose && !debug {
			Logger.Debugf("Stopping spinner")
			s.Stop()
		}

		if finalMsg != "" {
			fmt.Print(finalMsg)
		}
	}

	return s, cleanup
}

// loadProjectConfig resolves the project root by walking upward from the
// working directory and loads the effective configuration for it. A zero
// ProjectRoot in the result means no project was found.
func loadProjectConfig() (config.Config, error) {
	root, err := project.FindRoot()
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving project root: %w", err)
	}
	if root == "" {
		return config.Config{}, nil
	}
	return config.Load(root)
}

// readPassphrase obtains the key passphrase, preferring the environment so
// CI and scripts never need a pty. When confirm is set the interactive path
// prompts twice and requires both entries to match.
func readPassphrase(confirm bool, s *spinner.Spinner) ([]byte, error) {
	if fromEnv := os.Getenv(passphraseEnv); fromEnv != "" {
		Logger.Debugf("Using passphrase from %s", passphraseEnv)
		return []byte(fromEnv), nil
	}

	if !utils.IsTerminal() {
		return nil, fmt.Errorf("no terminal available; set %s", passphraseEnv)
	}

	// The spinner owns the terminal line while running.
	if !verbose && !debug {
		s.Stop()
		defer s.Restart()
	}

	pass, err := utils.ReadPassphrase("Enter passphrase: ")
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		return nil, fmt.Errorf("passphrase must not be empty")
	}

	if confirm {
		again, err := utils.ReadPassphrase("Confirm passphrase: ")
		if err != nil {
			utils.Zero(pass)
			return nil, err
		}
		match := bytes.Equal(pass, again)
		utils.Zero(again)
		if !match {
			utils.Zero(pass)
			return nil, fmt.Errorf("passphrases do not match")
		}
	}

	return pass, nil
}
