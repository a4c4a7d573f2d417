package ytidefix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xshaokun/yt-idefix/units"
)

// Format identifies one of the three supported on-disk representations.
type Format int

const (
	FormatDump Format = iota + 1
	FormatVTK
	FormatXDMF
)

func (f Format) String() string {
	switch f {
	case FormatDump:
		return "dump"
	case FormatVTK:
		return "vtk"
	case FormatXDMF:
		return "xdmf"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// detectFormat selects the decoder for a data file, by extension first and
// by magic content when the extension is unknown.
func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dmp":
		return FormatDump, nil
	case ".vtk":
		return FormatVTK, nil
	case ".xmf", ".xdmf":
		return FormatXDMF, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	magic := make([]byte, 64)
	n, _ := f.Read(magic)
	head := string(magic[:n])
	switch {
	case strings.HasPrefix(head, "# vtk DataFile"):
		return FormatVTK, nil
	case strings.HasPrefix(head, "<?xml") || strings.HasPrefix(head, "<Xdmf"):
		return FormatXDMF, nil
	case strings.Contains(head, "Idefix"):
		return FormatDump, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, path)
}

// detectCode determines which code family wrote the data file. Dumps are
// Idefix-only and XDMF output is Pluto-only; a VTK file identifies its
// writer in the title line, with the auxiliary files next to it as a
// fallback.
func detectCode(format Format, header, dataDir string) (units.Code, error) {
	switch format {
	case FormatDump:
		return units.Idefix, nil
	case FormatXDMF:
		return units.Pluto, nil
	}

	if strings.Contains(header, "Idefix") {
		return units.Idefix, nil
	}
	if strings.Contains(strings.ToUpper(header), "PLUTO") {
		return units.Pluto, nil
	}

	plutoHint := anyExists(dataDir, "pluto.ini", "definitions.h", "definitions.hpp")
	idefixHint := anyExists(dataDir, "idefix.ini")
	switch {
	case plutoHint && !idefixHint:
		return units.Pluto, nil
	case idefixHint && !plutoHint:
		return units.Idefix, nil
	}
	return 0, fmt.Errorf("%w: cannot determine which code wrote the file (title %q)",
		ErrUnrecognizedFormat, header)
}

func anyExists(dir string, names ...string) bool {
	for _, name := range names {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}
