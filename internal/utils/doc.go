// Package utils holds small helpers that don't belong to any one component:
// terminal passphrase prompting and byte zeroing.
package utils
