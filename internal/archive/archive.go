package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	derrors "github.com/dirvault/dirvault/internal/errors"
)

// epoch is the fixed modification time stamped on every archive entry.
// Identical trees must produce byte-identical archives, so no wall-clock
// metadata may leak into the stream.
var epoch = time.Unix(0, 0)

// Pack writes a compressed tar archive of the directory tree rooted at dir.
// Entry names are relative to dir, walked in lexicographic order, with
// timestamps and ownership zeroed. Packing the same tree twice yields
// byte-identical output.
//
// Symlinks with absolute targets, or relative targets resolving outside dir,
// are rejected here so that every archive Pack produces can be unpacked.
func Pack(dir string, w io.Writer) error {
	gzw := gzip.NewWriter(w)
	tw := tar.NewWriter(gzw)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("relativizing %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		switch {
		case d.IsDir():
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeDir,
				Name:     name + "/",
				Mode:     int64(info.Mode().Perm()),
				ModTime:  epoch,
				Format:   tar.FormatUSTAR,
			})

		case info.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
			if err := checkPackedLink(name, target); err != nil {
				return err
			}
			return tw.WriteHeader(&tar.Header{
				Typeflag: tar.TypeSymlink,
				Name:     name,
				Linkname: target,
				Mode:     0777,
				ModTime:  epoch,
				Format:   tar.FormatUSTAR,
			})

		case info.Mode().IsRegular():
			hdr := &tar.Header{
				Typeflag: tar.TypeReg,
				Name:     name,
				Mode:     int64(info.Mode().Perm()),
				Size:     info.Size(),
				ModTime:  epoch,
				Format:   tar.FormatUSTAR,
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return fmt.Errorf("writing header for %s: %w", name, err)
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()
			if _, err := io.Copy(tw, f); err != nil {
				return fmt.Errorf("archiving %s: %w", name, err)
			}
			return nil

		default:
			// Sockets, pipes, devices and other irregular files are skipped.
			return nil
		}
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalizing compression: %w", err)
	}
	return nil
}

// Unpack recreates an archived directory tree rooted at destRoot,
// overwriting any existing files or symlinks with the same paths. The
// destructive overwrite is deliberate; there is no merge or backup.
// Malformed input surfaces as ErrCorruptArchive.
func Unpack(r io.Reader, destRoot string) error {
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("%w: %v", derrors.ErrCorruptArchive, err)
	}
	defer gzr.Close()

	// #nosec G301 -- extracted directories need to be traversable.
	if err := os.MkdirAll(destRoot, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", destRoot, err)
	}

	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", derrors.ErrCorruptArchive, err)
		}

		targetPath, err := secureJoin(destRoot, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(targetPath, entryMode(hdr.Mode, 0755)); err != nil {
				return fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}

		case tar.TypeSymlink:
			if err := checkLinkTarget(destRoot, targetPath, hdr.Linkname); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", hdr.Name, err)
			}
			// Overwrite an existing entry of any kind.
			_ = os.Remove(targetPath)
			if err := os.Symlink(hdr.Linkname, targetPath); err != nil {
				return fmt.Errorf("restoring symlink %s: %w", hdr.Name, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", hdr.Name, err)
			}
			if err := extractFile(tr, targetPath, hdr.Mode); err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}

		default:
			// Entry types Pack never produces.
			return fmt.Errorf("%w: unsupported entry type %d for %s",
				derrors.ErrCorruptArchive, hdr.Typeflag, hdr.Name)
		}
	}
}

// checkPackedLink rejects symlinks that Unpack would refuse to restore: the
// same rules as checkLinkTarget, applied while the entry name is still
// relative. Catching them here fails the seal instead of the later expand.
func checkPackedLink(name, target string) error {
	if filepath.IsAbs(target) {
		return fmt.Errorf("symlink %s has an absolute target: %s", name, target)
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(filepath.FromSlash(name)), target))
	if resolved == ".." || strings.HasPrefix(resolved, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("symlink %s points outside the directory: %s", name, target)
	}
	return nil
}

// secureJoin joins name onto root and rejects entries that would escape it.
func secureJoin(root, name string) (string, error) {
	// #nosec G305 -- the joined path is validated below.
	target := filepath.Join(root, name)

	if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(root)+string(os.PathSeparator)) &&
		filepath.Clean(target) != filepath.Clean(root) {
		return "", fmt.Errorf("%w: entry path escapes destination: %s", derrors.ErrCorruptArchive, name)
	}
	return target, nil
}

// checkLinkTarget rejects symlinks whose resolved target leaves destRoot.
func checkLinkTarget(destRoot, linkPath, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: absolute symlink target: %s", derrors.ErrCorruptArchive, linkname)
	}
	resolved := filepath.Clean(filepath.Join(filepath.Dir(linkPath), linkname))
	if !strings.HasPrefix(resolved, filepath.Clean(destRoot)+string(os.PathSeparator)) {
		return fmt.Errorf("%w: symlink target escapes destination: %s", derrors.ErrCorruptArchive, linkname)
	}
	return nil
}

// extractFile writes a single regular file, truncating any existing one.
func extractFile(tr *tar.Reader, targetPath string, mode int64) error {
	outFile, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, entryMode(mode, 0600))
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer outFile.Close()

	// #nosec G110 -- bundle contents were authenticated before reaching the codec.
	if _, err := io.Copy(outFile, tr); err != nil {
		return fmt.Errorf("writing file contents: %w", err)
	}
	return nil
}

// entryMode converts a tar header mode, falling back for out-of-range values.
func entryMode(mode int64, fallback os.FileMode) os.FileMode {
	if mode >= 0 && mode <= 0777 {
		return os.FileMode(mode) // #nosec G115 -- range checked above.
	}
	return fallback
}
