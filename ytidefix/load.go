package ytidefix

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xshaokun/yt-idefix/internal/sim/dump"
	"github.com/xshaokun/yt-idefix/internal/sim/grid"
	"github.com/xshaokun/yt-idefix/internal/sim/params"
	"github.com/xshaokun/yt-idefix/internal/sim/vtk"
	"github.com/xshaokun/yt-idefix/internal/sim/xdmf"
	"github.com/xshaokun/yt-idefix/units"
)

var log = logrus.StandardLogger()

var versionRe = regexp.MustCompile(`v\d+\.\d+\.?\d*[-\w+]*`)

// Load reads one data file (native dump, legacy VTK, or XDMF index) and
// its auxiliary description files into a normalized dataset. Any failure
// aborts the whole load: there is no partial dataset and no substituted
// default for a failed resolution.
func Load(path string, opts ...Option) (*Dataset, error) {
	o := defaultLoadOptions()
	for _, opt := range opts {
		opt(o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	path, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &SourceError{Path: path, Err: ErrNotFound}
	}
	dataDir := filepath.Dir(path)

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	table, err := decode(format, path)
	if err != nil {
		return nil, err
	}

	code, err := detectCode(format, table.Header, dataDir)
	if err != nil {
		return nil, err
	}

	headerMeta, iniMeta, err := loadAuxiliary(dataDir, code, o)
	if err != nil {
		return nil, err
	}

	geom, err := resolveGeometry(o.geometry, table.Meta, headerMeta, iniMeta)
	if err != nil {
		return nil, err
	}

	sys, err := units.Resolve(units.Config{
		Code:       code,
		Overrides:  o.overrides,
		Defaults:   metadataBaseUnits(headerMeta),
		Convention: o.unitSystem,
	})
	if err != nil {
		return nil, err
	}

	ds, err := assemble(path, format, code, geom, sys, o, table)
	if err != nil {
		return nil, err
	}
	ds.Version = codeVersion(code, table.Header)
	return ds, nil
}

// decode dispatches to the format decoder and normalizes its failures: a
// wrong signature is an unrecognized format, anything else wrong with the
// file's content is corrupt data.
func decode(format Format, path string) (*grid.Table, error) {
	var (
		table *grid.Table
		err   error
	)
	switch format {
	case FormatDump:
		table, err = dump.Read(path)
	case FormatVTK:
		table, err = vtk.Read(path)
	case FormatXDMF:
		table, err = xdmf.Read(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, path)
	}
	if err != nil {
		if errors.Is(err, dump.ErrNotDump) || errors.Is(err, vtk.ErrNotVTK) || errors.Is(err, xdmf.ErrNotXDMF) {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, &SourceError{Path: path, Err: ErrNotFound}
		}
		return nil, &CorruptDataError{Path: path, Err: err}
	}
	return table, nil
}

// loadAuxiliary discovers and parses the definitions header and ini file.
// An absent source is not fatal by itself; downstream resolution decides
// whether it can proceed without it.
func loadAuxiliary(dataDir string, code units.Code, o *loadOptions) (headerMeta, iniMeta params.Metadata, err error) {
	headerPath, err := discoverAux(dataDir, o.definitionsHeader, headerNames)
	if err != nil {
		return nil, nil, err
	}
	iniCandidates := idefixIniNames
	if code == units.Pluto {
		iniCandidates = plutoIniNames
	}
	iniPath, err := discoverAux(dataDir, o.inifile, iniCandidates)
	if err != nil {
		return nil, nil, err
	}

	if headerPath != "" {
		headerMeta, err = params.LoadDefinitions(headerPath)
		if err != nil {
			return nil, nil, &SourceError{Path: headerPath, Err: malformed(err)}
		}
	}
	if iniPath == "" {
		log.Warn("no inifile found: cannot validate grid structure; " +
			"pass WithInifile to silence this warning")
	} else {
		iniMeta, err = params.LoadIni(iniPath)
		if err != nil {
			return nil, nil, &SourceError{Path: iniPath, Err: malformed(err)}
		}
		warnGridStructure(iniMeta)
	}
	return headerMeta, iniMeta, nil
}

// malformed rebrands a parser grammar error under the public sentinel,
// keeping the parser's description.
func malformed(err error) error {
	if errors.Is(err, params.ErrMalformed) {
		return fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	return err
}

// metadataBaseUnits extracts the code's own base units from the
// definitions header (cgs magnitudes, per the Pluto convention).
func metadataBaseUnits(headerMeta params.Metadata) map[units.Dim]units.Quantity {
	defaults := make(map[units.Dim]units.Quantity)
	if v, ok := headerMeta.Number("UNIT_LENGTH"); ok {
		defaults[units.Length] = units.Quantity{Value: v, Unit: "cm", Dim: units.Length}
	}
	if v, ok := headerMeta.Number("UNIT_VELOCITY"); ok {
		defaults[units.Velocity] = units.Quantity{Value: v, Unit: "cm/s", Dim: units.Velocity}
	}
	if v, ok := headerMeta.Number("UNIT_DENSITY"); ok {
		defaults[units.Density] = units.Quantity{Value: v, Unit: "g/cm**3", Dim: units.Density}
	}
	return defaults
}

// codeVersion extracts the code's version token from the data file's
// signature or title line.
func codeVersion(code units.Code, header string) string {
	if m := versionRe.FindString(header); m != "" {
		return m
	}
	log.Warnf("could not determine %s version from file header %q", code, header)
	return "unknown"
}

// warnGridStructure flags ini grid definitions outside the supported
// single-block uniform layout. The load continues: only the domain edges
// are trusted in that case.
func warnGridStructure(iniMeta params.Metadata) {
	var issues []string
	for _, ax := range []string{"X1-grid", "X2-grid", "X3-grid"} {
		v, ok := iniMeta["Grid."+ax]
		if !ok || len(v) == 0 {
			continue
		}
		toks := v.Tokens()
		if v[0].Numeric && v[0].Number > 1 {
			issues = append(issues, fmt.Sprintf("multiple blocks in direction %s: %v", ax, toks))
		}
		for i := 3; i < len(toks); i += 3 {
			if toks[i] != "u" {
				issues = append(issues, fmt.Sprintf("non-uniform block(s) in direction %s: %v", ax, toks))
				break
			}
		}
	}
	if len(issues) > 0 {
		log.Warnf("only a single uniformly spaced block per direction is supported; "+
			"the grid will be treated as uniform and only domain edges are reliable: %s",
			strings.Join(issues, "; "))
	}
}
