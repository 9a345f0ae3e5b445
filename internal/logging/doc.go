// Package logger provides leveled, colored logging for dirvault commands.
//
// Verbosity is controlled by two persistent flags:
//
//   - --verbose: shows info and warning messages
//   - --debug: shows everything including debug details
//
// Without flags, only errors and critical warnings are shown, leaving the
// spinner line as the sole progress indicator.
package logger
