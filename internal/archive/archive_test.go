package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	derrors "github.com/dirvault/dirvault/internal/errors"
)

// writeTree creates a small directory tree with nested content.
func writeTree(t *testing.T, root string) {
	t.Helper()

	dirs := []string{
		filepath.Join(root, "docs"),
		filepath.Join(root, "docs", "drafts"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("failed to create %s: %v", d, err)
		}
	}

	files := map[string]string{
		filepath.Join(root, "readme.txt"):                "hello\n",
		filepath.Join(root, "docs", "notes.md"):          "# notes\n",
		filepath.Join(root, "docs", "drafts", "wip.txt"): "draft content",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	if err := os.Symlink("readme.txt", filepath.Join(root, "link-to-readme")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
	// A relative target that climbs up but stays inside the tree.
	if err := os.Symlink(filepath.Join("..", "readme.txt"), filepath.Join(root, "docs", "up-link")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}
}

// compareTrees fails the test if the file contents under want and got differ.
func compareTrees(t *testing.T, want, got string) {
	t.Helper()

	err := filepath.Walk(want, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(want, path)
		if err != nil {
			return err
		}
		other := filepath.Join(got, rel)

		if info.Mode()&os.ModeSymlink != 0 {
			wantTarget, err := os.Readlink(path)
			if err != nil {
				return err
			}
			gotTarget, err := os.Readlink(other)
			if err != nil {
				t.Errorf("symlink %s missing in extracted tree: %v", rel, err)
				return nil
			}
			if wantTarget != gotTarget {
				t.Errorf("symlink %s points to %q, want %q", rel, gotTarget, wantTarget)
			}
			return nil
		}

		if info.IsDir() {
			if stat, err := os.Stat(other); err != nil || !stat.IsDir() {
				t.Errorf("directory %s missing in extracted tree", rel)
			}
			return nil
		}

		wantData, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		gotData, err := os.ReadFile(other)
		if err != nil {
			t.Errorf("file %s missing in extracted tree: %v", rel, err)
			return nil
		}
		if !bytes.Equal(wantData, gotData) {
			t.Errorf("file %s content mismatch", rel)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("comparing trees: %v", err)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	var buf bytes.Buffer
	if err := Pack(src, &buf); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "restored")
	if err := Unpack(bytes.NewReader(buf.Bytes()), dest); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	compareTrees(t, src, dest)
}

func TestPackIsDeterministic(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	var first, second bytes.Buffer
	if err := Pack(src, &first); err != nil {
		t.Fatalf("first Pack failed: %v", err)
	}
	if err := Pack(src, &second); err != nil {
		t.Fatalf("second Pack failed: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("packing the same tree twice produced different bytes")
	}
}

func TestUnpackOverwritesExistingContent(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "config.ini"), []byte("new"), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}

	var buf bytes.Buffer
	if err := Pack(src, &buf); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	dest := t.TempDir()
	stale := filepath.Join(dest, "config.ini")
	if err := os.WriteFile(stale, []byte("stale local edits"), 0644); err != nil {
		t.Fatalf("failed to write stale file: %v", err)
	}

	if err := Unpack(bytes.NewReader(buf.Bytes()), dest); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	got, err := os.ReadFile(stale)
	if err != nil {
		t.Fatalf("reading overwritten file: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("expected overwrite with %q, got %q", "new", got)
	}
}

func TestPackRejectsEscapingSymlink(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "ok.txt"), []byte("ok"), 0644); err != nil {
		t.Fatalf("failed to write source file: %v", err)
	}
	if err := os.Symlink(filepath.Join("..", "outside", "secret"), filepath.Join(src, "leak")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	var buf bytes.Buffer
	if err := Pack(src, &buf); err == nil {
		t.Error("expected Pack to reject a symlink escaping the directory")
	}
}

func TestPackRejectsAbsoluteSymlink(t *testing.T) {
	src := t.TempDir()
	if err := os.Symlink("/etc/hostname", filepath.Join(src, "abs-link")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	var buf bytes.Buffer
	if err := Pack(src, &buf); err == nil {
		t.Error("expected Pack to reject a symlink with an absolute target")
	}
}

// craftArchive hand-builds a tar.gz stream from arbitrary headers, bypassing
// the guards Pack applies.
func craftArchive(t *testing.T, entries []*tar.Header) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gzw)
	for _, hdr := range entries {
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing crafted header %s: %v", hdr.Name, err)
		}
		if hdr.Typeflag == tar.TypeReg && hdr.Size > 0 {
			if _, err := tw.Write(bytes.Repeat([]byte("x"), int(hdr.Size))); err != nil {
				t.Fatalf("writing crafted body %s: %v", hdr.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("finalizing crafted archive: %v", err)
	}
	if err := gzw.Close(); err != nil {
		t.Fatalf("finalizing crafted compression: %v", err)
	}
	return buf.Bytes()
}

func TestUnpackRejectsTraversalEntryName(t *testing.T) {
	crafted := craftArchive(t, []*tar.Header{
		{Typeflag: tar.TypeReg, Name: "../escape", Mode: 0644, Size: 4},
	})

	parent := t.TempDir()
	dest := filepath.Join(parent, "restored")
	err := Unpack(bytes.NewReader(crafted), dest)
	if !errors.Is(err, derrors.ErrCorruptArchive) {
		t.Fatalf("expected ErrCorruptArchive, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(parent, "escape")); !os.IsNotExist(statErr) {
		t.Error("traversal entry was written outside the destination")
	}
}

func TestUnpackRejectsAbsoluteSymlinkEntry(t *testing.T) {
	crafted := craftArchive(t, []*tar.Header{
		{Typeflag: tar.TypeSymlink, Name: "abs-link", Linkname: "/etc/hostname", Mode: 0777},
	})

	err := Unpack(bytes.NewReader(crafted), t.TempDir())
	if !errors.Is(err, derrors.ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}
}

func TestUnpackRejectsEscapingSymlinkEntry(t *testing.T) {
	crafted := craftArchive(t, []*tar.Header{
		{Typeflag: tar.TypeSymlink, Name: "leak", Linkname: "../../outside", Mode: 0777},
	})

	dest := filepath.Join(t.TempDir(), "restored")
	err := Unpack(bytes.NewReader(crafted), dest)
	if !errors.Is(err, derrors.ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}
}

func TestUnpackRejectsGarbage(t *testing.T) {
	err := Unpack(bytes.NewReader([]byte("this is not a gzip stream")), t.TempDir())
	if !errors.Is(err, derrors.ErrCorruptArchive) {
		t.Errorf("expected ErrCorruptArchive, got %v", err)
	}
}

func TestUnpackRejectsTruncatedStream(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src)

	var buf bytes.Buffer
	if err := Pack(src, &buf); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	truncated := buf.Bytes()[:buf.Len()/2]
	err := Unpack(bytes.NewReader(truncated), t.TempDir())
	if err == nil {
		t.Error("expected error unpacking truncated stream")
	}
}

func TestUnpackEmptyDirectory(t *testing.T) {
	src := t.TempDir()

	var buf bytes.Buffer
	if err := Pack(src, &buf); err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "empty")
	if err := Unpack(bytes.NewReader(buf.Bytes()), dest); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty directory, found %d entries", len(entries))
	}
}
