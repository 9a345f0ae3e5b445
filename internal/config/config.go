package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"

	derrors "github.com/dirvault/dirvault/internal/errors"
)

// MarkerDir is the directory that identifies a dirvault project root.
const MarkerDir = ".dirvault"

// markerFile is the config file inside MarkerDir. Its presence is the
// project-root marker every mutating operation validates against.
const markerFile = "config.toml"

// Config carries everything a component needs to operate on one project.
// It is passed explicitly into every constructor; there is no ambient
// global state.
type Config struct {
	// ProjectRoot is the validated base directory the tool operates within.
	// Resolved at runtime, never read from the marker or environment.
	ProjectRoot string `toml:"-"`

	// KeyFile is the transient plaintext private key artifact. It must never
	// survive a command's completion and is always part of the ignore list.
	KeyFile string `env:"DIRVAULT_KEY_FILE" toml:"key_file"`

	// EncryptedKeyFile is the durable passphrase-wrapped private key artifact.
	EncryptedKeyFile string `env:"DIRVAULT_ENCRYPTED_KEY_FILE" toml:"encrypted_key_file"`

	// PublicKeyFile is the durable public key artifact.
	PublicKeyFile string `env:"DIRVAULT_PUBLIC_KEY_FILE" toml:"public_key_file"`

	// BundleExt is the filename suffix of sealed bundles.
	BundleExt string `env:"DIRVAULT_BUNDLE_EXT" toml:"bundle_ext"`

	// IgnoreFile is the ignore-state artifact, fully regenerated each update.
	IgnoreFile string `env:"DIRVAULT_IGNORE_FILE" toml:"ignore_file"`

	// Remote and Branch name the push target for the VCS hand-off.
	Remote string `env:"DIRVAULT_REMOTE" toml:"remote"`
	Branch string `env:"DIRVAULT_BRANCH" toml:"branch"`
}

// Marker is the on-disk shape of .dirvault/config.toml.
type Marker struct {
	Project Project `toml:"project"`
	Sync    Config  `toml:"sync"`
}

// Project identifies the project in the marker file.
type Project struct {
	UUID string `toml:"project_uuid"`
	Name string `toml:"name"`
}

// Default returns the configuration for root with all defaults applied.
func Default(root string) Config {
	return Config{
		ProjectRoot:      root,
		KeyFile:          "dirvault.key",
		EncryptedKeyFile: "dirvault.key.enc",
		PublicKeyFile:    "dirvault.pub",
		BundleExt:        ".tar.gz.enc",
		IgnoreFile:       ".gitignore",
		Remote:           "origin",
		Branch:           "main",
	}
}

// Load builds the effective configuration for root: defaults, overlaid with
// the [sync] section of .dirvault/config.toml if present, overlaid with
// DIRVAULT_* environment variables.
func Load(root string) (Config, error) {
	cfg := Default(root)

	markerPath := filepath.Join(root, MarkerDir, markerFile)
	if _, err := os.Stat(markerPath); err == nil {
		var m Marker
		m.Sync = cfg
		if err := LoadTOML(markerPath, &m); err != nil {
			return Config{}, fmt.Errorf("loading %s: %w", markerPath, err)
		}
		cfg = m.Sync
		cfg.ProjectRoot = root
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment overrides: %w", err)
	}

	return cfg, nil
}

// Init creates the .dirvault marker for root with a fresh project UUID.
// Returns ErrProjectAlreadyInitialized if a marker already exists.
func Init(root, name string) (*Marker, error) {
	markerPath := filepath.Join(root, MarkerDir, markerFile)
	if _, err := os.Stat(markerPath); err == nil {
		return nil, derrors.ErrProjectAlreadyInitialized
	}

	if name == "" {
		name = filepath.Base(root)
	}

	m := &Marker{
		Project: Project{
			UUID: uuid.New().String(),
			Name: name,
		},
		Sync: Default(root),
	}
	// ProjectRoot is implied by the marker's location, not stored in it.
	m.Sync.ProjectRoot = ""

	if err := SaveTOML(markerPath, m); err != nil {
		return nil, fmt.Errorf("writing %s: %w", markerPath, err)
	}

	return m, nil
}

// LoadMarker reads the project marker for root.
func LoadMarker(root string) (*Marker, error) {
	markerPath := filepath.Join(root, MarkerDir, markerFile)

	m := &Marker{Sync: Default(root)}
	if err := LoadTOML(markerPath, m); err != nil {
		return nil, fmt.Errorf("loading project marker: %w", err)
	}
	return m, nil
}

// KeyPath returns the absolute path of the transient plaintext key artifact.
func (c Config) KeyPath() string { return filepath.Join(c.ProjectRoot, c.KeyFile) }

// EncryptedKeyPath returns the absolute path of the encrypted key artifact.
func (c Config) EncryptedKeyPath() string {
	return filepath.Join(c.ProjectRoot, c.EncryptedKeyFile)
}

// PublicKeyPath returns the absolute path of the public key artifact.
func (c Config) PublicKeyPath() string { return filepath.Join(c.ProjectRoot, c.PublicKeyFile) }

// IgnorePath returns the absolute path of the ignore-state artifact.
func (c Config) IgnorePath() string { return filepath.Join(c.ProjectRoot, c.IgnoreFile) }

// BundlePath returns the absolute path of the sealed bundle for a directory name.
func (c Config) BundlePath(name string) string {
	return filepath.Join(c.ProjectRoot, name+c.BundleExt)
}
