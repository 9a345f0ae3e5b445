// Package archive implements the directory <-> compressed bundle transforms.
//
// Pack and Unpack are lossless inverses over relative paths, file contents,
// permissions, and symlinks. Packing is deterministic so that an unchanged
// directory always seals to the same bytes. Unpacking overwrites existing
// paths without backup; that destructive default is part of the contract.
package archive
