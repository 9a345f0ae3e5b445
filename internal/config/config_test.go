package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	derrors "github.com/dirvault/dirvault/internal/errors"
)

func TestDefaultPaths(t *testing.T) {
	cfg := Default("/work/project")

	if got := cfg.KeyPath(); got != filepath.Join("/work/project", "dirvault.key") {
		t.Errorf("KeyPath = %q", got)
	}
	if got := cfg.BundlePath("alpha"); got != filepath.Join("/work/project", "alpha.tar.gz.enc") {
		t.Errorf("BundlePath = %q", got)
	}
	if cfg.Remote != "origin" || cfg.Branch != "main" {
		t.Errorf("unexpected VCS defaults: remote=%q branch=%q", cfg.Remote, cfg.Branch)
	}
}

func TestInitCreatesMarkerOnce(t *testing.T) {
	root := t.TempDir()

	m, err := Init(root, "")
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if m.Project.UUID == "" {
		t.Error("expected a project UUID to be generated")
	}
	if m.Project.Name != filepath.Base(root) {
		t.Errorf("expected project name %q, got %q", filepath.Base(root), m.Project.Name)
	}

	if _, err := os.Stat(filepath.Join(root, MarkerDir, "config.toml")); err != nil {
		t.Fatalf("marker file missing: %v", err)
	}

	if _, err := Init(root, ""); !errors.Is(err, derrors.ErrProjectAlreadyInitialized) {
		t.Errorf("second Init: expected ErrProjectAlreadyInitialized, got %v", err)
	}
}

func TestLoadAppliesMarkerOverrides(t *testing.T) {
	root := t.TempDir()

	if _, err := Init(root, "demo"); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	markerPath := filepath.Join(root, MarkerDir, "config.toml")
	override := `
[project]
project_uuid = "fixed-uuid"
name = "demo"

[sync]
branch = "trunk"
bundle_ext = ".bundle"
`
	if err := os.WriteFile(markerPath, []byte(override), 0600); err != nil {
		t.Fatalf("failed to write marker: %v", err)
	}

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Branch != "trunk" {
		t.Errorf("expected branch override %q, got %q", "trunk", cfg.Branch)
	}
	if cfg.BundleExt != ".bundle" {
		t.Errorf("expected bundle_ext override, got %q", cfg.BundleExt)
	}
	// Fields absent from the marker keep their defaults.
	if cfg.Remote != "origin" {
		t.Errorf("expected default remote, got %q", cfg.Remote)
	}
	if cfg.ProjectRoot != root {
		t.Errorf("expected project root %q, got %q", root, cfg.ProjectRoot)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	root := t.TempDir()

	t.Setenv("DIRVAULT_BRANCH", "release")
	t.Setenv("DIRVAULT_REMOTE", "backup")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Branch != "release" {
		t.Errorf("expected env branch override, got %q", cfg.Branch)
	}
	if cfg.Remote != "backup" {
		t.Errorf("expected env remote override, got %q", cfg.Remote)
	}
}

func TestSaveAndLoadTOML(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "nested", "test.toml")

	type TestStruct struct {
		Name  string
		Count int
	}

	original := TestStruct{Name: "alpha", Count: 3}

	if err := SaveTOML(testFile, original); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	loaded := TestStruct{}
	if err := LoadTOML(testFile, &loaded); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	if loaded != original {
		t.Errorf("round trip mismatch: %+v != %+v", loaded, original)
	}
}
