package ytidefix

import (
	"os"
	"path/filepath"
	"strings"
)

// Default auxiliary file names, per code convention.
var (
	headerNames    = []string{"definitions.h", "definitions.hpp"}
	plutoIniNames  = []string{"pluto.ini"}
	idefixIniNames = []string{"idefix.ini"}
)

// discoverAux resolves one auxiliary file next to the data file. An
// explicit path is used verbatim (resolved against dataDir when relative)
// and must exist. Otherwise the data file's directory is searched for the
// default names: zero matches means the source is absent (empty path, no
// error); more than one match is ambiguous and discovery refuses to guess.
func discoverAux(dataDir, explicit string, names []string) (string, error) {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(dataDir, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", &SourceError{Path: path, Err: ErrNotFound}
		}
		return path, nil
	}

	var matches []string
	for _, name := range names {
		path := filepath.Join(dataDir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return filepath.Join(dataDir, matches[0]), nil
	default:
		return "", &SourceError{
			Path: filepath.Join(dataDir, strings.Join(matches, " | ")),
			Err:  ErrAmbiguousSource,
		}
	}
}
