package ytidefix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverAuxSingleMatch(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "definitions.h")

	path, err := discoverAux(dir, "", headerNames)
	if err != nil {
		t.Fatalf("discoverAux: %v", err)
	}
	if path != filepath.Join(dir, "definitions.h") {
		t.Errorf("path = %q", path)
	}
}

func TestDiscoverAuxAbsent(t *testing.T) {
	path, err := discoverAux(t.TempDir(), "", headerNames)
	if err != nil {
		t.Fatalf("discoverAux: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
}

func TestDiscoverAuxAmbiguous(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "definitions.h")
	touch(t, dir, "definitions.hpp")

	_, err := discoverAux(dir, "", headerNames)
	if !errors.Is(err, ErrAmbiguousSource) {
		t.Fatalf("got %v, want ErrAmbiguousSource", err)
	}
	var src *SourceError
	if !errors.As(err, &src) {
		t.Fatal("error does not carry the candidate paths")
	}
}

func TestDiscoverAuxExplicit(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "my_defs.h")

	// Relative explicit paths resolve against the data directory.
	path, err := discoverAux(dir, "my_defs.h", headerNames)
	if err != nil {
		t.Fatalf("discoverAux: %v", err)
	}
	if path != filepath.Join(dir, "my_defs.h") {
		t.Errorf("path = %q", path)
	}

	if _, err := discoverAux(dir, "missing.h", headerNames); !errors.Is(err, ErrNotFound) {
		t.Errorf("explicit missing: got %v, want ErrNotFound", err)
	}
}

func TestDiscoverAuxExplicitBeatsDiscovery(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "definitions.h")
	touch(t, dir, "definitions.hpp")
	touch(t, dir, "alt.h")

	// An explicit path sidesteps the ambiguity entirely.
	path, err := discoverAux(dir, "alt.h", headerNames)
	if err != nil {
		t.Fatalf("discoverAux: %v", err)
	}
	if filepath.Base(path) != "alt.h" {
		t.Errorf("path = %q", path)
	}
}
