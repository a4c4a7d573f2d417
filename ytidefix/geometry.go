package ytidefix

import (
	"fmt"
	"strings"

	"github.com/xshaokun/yt-idefix/internal/sim/params"
)

// Geometry is the coordinate geometry of a dataset. Exactly one value
// applies per dataset; ambiguity is an error, never a best guess.
type Geometry int

const (
	geometryUnset Geometry = iota
	Cartesian
	Cylindrical
	Polar
	Spherical
)

var geometryNames = map[Geometry]string{
	Cartesian:   "cartesian",
	Cylindrical: "cylindrical",
	Polar:       "polar",
	Spherical:   "spherical",
}

func (g Geometry) String() string {
	if s, ok := geometryNames[g]; ok {
		return s
	}
	return fmt.Sprintf("Geometry(%d)", int(g))
}

// ParseGeometry maps a geometry keyword to its Geometry value.
func ParseGeometry(s string) (Geometry, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for g, n := range geometryNames {
		if n == name {
			return g, nil
		}
	}
	return geometryUnset, fmt.Errorf("%w: unknown geometry keyword %q", ErrUnresolvedGeometry, s)
}

// dumpGeometries is the integer enumeration Idefix embeds in its dumps
// and VTK metadata blocks.
var dumpGeometries = map[int]Geometry{
	1: Cartesian,
	2: Cylindrical,
	3: Polar,
	4: Spherical,
}

// resolveGeometry produces the dataset geometry. Priority order: an
// explicit keyword always wins and is never cross-checked against file
// metadata; then the indicator embedded in the data file itself; then the
// GEOMETRY define of the definitions header; then the Grid.geometry ini
// key (the header wins over the ini when both are present). With no
// indicator at all, resolution fails rather than defaulting.
func resolveGeometry(explicit string, fileMeta, headerMeta, iniMeta params.Metadata) (Geometry, error) {
	if explicit != "" {
		return ParseGeometry(explicit)
	}

	if code, ok := fileMeta.Int("geometry"); ok {
		g, known := dumpGeometries[code]
		if !known {
			return geometryUnset, fmt.Errorf("%w: unknown geometry code %d", ErrUnresolvedGeometry, code)
		}
		return g, nil
	}

	if tok, ok := headerMeta.Text("GEOMETRY"); ok {
		return ParseGeometry(tok)
	}

	if tok, ok := iniMeta.Text("Grid.geometry"); ok {
		return ParseGeometry(tok)
	}

	return geometryUnset, fmt.Errorf("%w: no indicator found and none supplied", ErrUnresolvedGeometry)
}
