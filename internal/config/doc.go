// Package config resolves the effective configuration for a dirvault project.
//
// Precedence, lowest to highest:
//
//  1. compiled-in defaults (Default)
//  2. the [sync] section of .dirvault/config.toml
//  3. DIRVAULT_* environment variables
//
// The resulting Config struct is passed explicitly into every component
// constructor. The .dirvault/config.toml file doubles as the project-root
// marker that ProjectContext validates before any destructive operation.
package config
