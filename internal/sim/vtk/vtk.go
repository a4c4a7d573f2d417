// Package vtk decodes the legacy binary VTK files written by the Idefix
// and Pluto codes: a line-oriented ASCII header followed by big-endian
// binary coordinate and data blocks. Grid dimensionality and strides are
// derived from the header, never assumed.
package vtk

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xshaokun/yt-idefix/internal/sim/binary"
	"github.com/xshaokun/yt-idefix/internal/sim/grid"
	"github.com/xshaokun/yt-idefix/internal/sim/params"
)

var (
	// ErrNotVTK reports a file without the legacy VTK signature.
	ErrNotVTK = errors.New("not a legacy VTK file")
	// ErrCorrupt reports a VTK file whose binary blocks do not match the
	// sizes its header declares.
	ErrCorrupt = errors.New("corrupt vtk file")
	// ErrUnsupported reports a VTK construct outside the subset the
	// codes write (ASCII encoding, unstructured datasets, ...).
	ErrUnsupported = errors.New("unsupported vtk feature")
)

// ReadTitle returns the title line of a legacy VTK file, which the codes
// use to identify themselves.
func ReadTitle(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := binary.NewReader(f, stdbinary.BigEndian)
	if _, err := signature(r); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	title, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, ErrNotVTK)
	}
	return title, nil
}

func signature(r *binary.Reader) (string, error) {
	line, err := r.ReadLine()
	if err != nil || !strings.HasPrefix(line, "# vtk DataFile") {
		return "", ErrNotVTK
	}
	return line, nil
}

// decoder carries the parse state across header keywords.
type decoder struct {
	r       *binary.Reader
	source  string
	nodes   [3][]float64 // node coordinate axes
	dims    [3]int       // node counts per axis
	origin  [3]float64
	spacing [3]float64
	table   *grid.Table
	// current data section: number of tuples expected per array
	sectionCount int
	sectionShape []int
}

// Read decodes a whole legacy VTK file into the normalized table.
func Read(path string) (*grid.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := &decoder{
		r:      binary.NewReader(f, stdbinary.BigEndian),
		source: path,
		table:  &grid.Table{Meta: make(params.Metadata)},
	}
	if err := d.run(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d.table, nil
}

func (d *decoder) run() error {
	if _, err := signature(d.r); err != nil {
		return err
	}
	title, err := d.r.ReadLine()
	if err != nil {
		return ErrNotVTK
	}
	d.table.Header = title

	encoding, err := d.r.ReadLine()
	if err != nil {
		return ErrNotVTK
	}
	if strings.TrimSpace(encoding) != "BINARY" {
		return fmt.Errorf("%w: %s encoding", ErrUnsupported, strings.TrimSpace(encoding))
	}

	for {
		line, err := d.r.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		toks := strings.Fields(line)
		if len(toks) == 0 {
			continue
		}
		if err := d.keyword(toks); err != nil {
			return err
		}
	}
	if err := d.finishBlock(); err != nil {
		return err
	}
	return d.table.Validate()
}

func (d *decoder) keyword(toks []string) error {
	switch toks[0] {
	case "DATASET":
		if len(toks) < 2 {
			return fmt.Errorf("%w: bare DATASET", ErrCorrupt)
		}
		switch toks[1] {
		case "STRUCTURED_POINTS", "STRUCTURED_GRID", "RECTILINEAR_GRID":
			return nil
		default:
			return fmt.Errorf("%w: dataset type %s", ErrUnsupported, toks[1])
		}
	case "DIMENSIONS":
		return d.parseDimensions(toks)
	case "ORIGIN":
		return d.parseOriginSpacing(toks, true)
	case "SPACING":
		return d.parseOriginSpacing(toks, false)
	case "X_COORDINATES", "Y_COORDINATES", "Z_COORDINATES":
		return d.parseCoordinates(toks)
	case "POINTS":
		return d.parsePoints(toks)
	case "FIELD":
		return d.parseFieldData(toks)
	case "CELL_DATA", "POINT_DATA":
		return d.startSection(toks)
	case "SCALARS":
		return d.parseScalars(toks)
	case "VECTORS":
		return d.parseVectors(toks)
	case "METADATA", "INFORMATION":
		// Written by some VTK libraries; carries nothing the codes use.
		return nil
	default:
		return fmt.Errorf("%w: keyword %s", ErrUnsupported, toks[0])
	}
}

func (d *decoder) parseDimensions(toks []string) error {
	if len(toks) != 4 {
		return fmt.Errorf("%w: DIMENSIONS wants 3 values", ErrCorrupt)
	}
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(toks[i+1])
		if err != nil || n < 1 {
			return fmt.Errorf("%w: DIMENSIONS %q", ErrCorrupt, toks[i+1])
		}
		d.dims[i] = n
	}
	return nil
}

func (d *decoder) parseOriginSpacing(toks []string, isOrigin bool) error {
	if len(toks) != 4 {
		return fmt.Errorf("%w: %s wants 3 values", ErrCorrupt, toks[0])
	}
	var vals [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(toks[i+1], 64)
		if err != nil {
			return fmt.Errorf("%w: %s %q", ErrCorrupt, toks[0], toks[i+1])
		}
		vals[i] = v
	}
	if isOrigin {
		d.origin = vals
		return nil
	}
	d.spacing = vals
	// SPACING follows ORIGIN in the files the codes write; the node axes
	// can be synthesized once both are known.
	for ax := 0; ax < 3; ax++ {
		if d.dims[ax] == 0 {
			return fmt.Errorf("%w: SPACING before DIMENSIONS", ErrCorrupt)
		}
		axis := make([]float64, d.dims[ax])
		for j := range axis {
			axis[j] = d.origin[ax] + float64(j)*d.spacing[ax]
		}
		d.nodes[ax] = axis
	}
	return nil
}

func (d *decoder) parseCoordinates(toks []string) error {
	if len(toks) != 3 {
		return fmt.Errorf("%w: %s header", ErrCorrupt, toks[0])
	}
	n, err := strconv.Atoi(toks[1])
	if err != nil || n < 1 {
		return fmt.Errorf("%w: %s count %q", ErrCorrupt, toks[0], toks[1])
	}
	elemSize, err := elemSizeOf(toks[2])
	if err != nil {
		return err
	}
	vals, err := d.r.ReadArray(n, elemSize, false)
	if err != nil {
		return fmt.Errorf("%w: truncated %s block", ErrCorrupt, toks[0])
	}
	ax := int(toks[0][0] - 'X')
	d.nodes[ax] = vals
	return nil
}

// parsePoints handles curvilinear STRUCTURED_GRID coordinates. The codes
// write product grids, so the node axes are recovered from the first
// pencil along each direction.
func (d *decoder) parsePoints(toks []string) error {
	if len(toks) != 3 {
		return fmt.Errorf("%w: POINTS header", ErrCorrupt)
	}
	n, err := strconv.Atoi(toks[1])
	if err != nil || n < 1 {
		return fmt.Errorf("%w: POINTS count %q", ErrCorrupt, toks[1])
	}
	nx, ny, nz := d.dims[0], d.dims[1], d.dims[2]
	if nx == 0 || n != nx*ny*nz {
		return fmt.Errorf("%w: POINTS count %d does not match DIMENSIONS %v", ErrCorrupt, n, d.dims)
	}
	elemSize, err := elemSizeOf(toks[2])
	if err != nil {
		return err
	}
	pts, err := d.r.ReadArray(3*n, elemSize, false)
	if err != nil {
		return fmt.Errorf("%w: truncated POINTS block", ErrCorrupt)
	}
	xs := make([]float64, nx)
	for i := 0; i < nx; i++ {
		xs[i] = pts[3*i]
	}
	ys := make([]float64, ny)
	for j := 0; j < ny; j++ {
		ys[j] = pts[3*(j*nx)+1]
	}
	zs := make([]float64, nz)
	for k := 0; k < nz; k++ {
		zs[k] = pts[3*(k*nx*ny)+2]
	}
	d.nodes = [3][]float64{xs, ys, zs}
	return nil
}

// parseFieldData reads FIELD blocks, which the codes use for scalar
// metadata (TIME, GEOMETRY, PERIODICITY).
func (d *decoder) parseFieldData(toks []string) error {
	if len(toks) < 3 {
		return fmt.Errorf("%w: FIELD header", ErrCorrupt)
	}
	count, err := strconv.Atoi(toks[len(toks)-1])
	if err != nil || count < 0 {
		return fmt.Errorf("%w: FIELD count %q", ErrCorrupt, toks[len(toks)-1])
	}
	for i := 0; i < count; i++ {
		line, err := d.nextLine()
		if err != nil {
			return fmt.Errorf("%w: truncated FIELD block", ErrCorrupt)
		}
		sub := strings.Fields(line)
		if len(sub) != 4 {
			return fmt.Errorf("%w: FIELD array header %q", ErrCorrupt, line)
		}
		comps, err1 := strconv.Atoi(sub[1])
		tuples, err2 := strconv.Atoi(sub[2])
		if err1 != nil || err2 != nil || comps < 1 || tuples < 1 {
			return fmt.Errorf("%w: FIELD array header %q", ErrCorrupt, line)
		}
		elemSize, isInt, err := fieldTypeOf(sub[3])
		if err != nil {
			return err
		}
		vals, err := d.r.ReadArray(comps*tuples, elemSize, isInt)
		if err != nil {
			return fmt.Errorf("%w: truncated FIELD array %q", ErrCorrupt, sub[0])
		}
		val := make(params.Value, len(vals))
		for j, v := range vals {
			val[j] = params.Num(v)
		}
		d.table.Meta[strings.ToLower(sub[0])] = val
	}
	return nil
}

func (d *decoder) startSection(toks []string) error {
	if err := d.finishBlock(); err != nil {
		return err
	}
	if len(toks) != 2 {
		return fmt.Errorf("%w: %s header", ErrCorrupt, toks[0])
	}
	n, err := strconv.Atoi(toks[1])
	if err != nil || n < 1 {
		return fmt.Errorf("%w: %s count %q", ErrCorrupt, toks[0], toks[1])
	}
	var shape []int
	expect := 1
	for ax := 0; ax < 3; ax++ {
		size := d.dims[ax]
		if toks[0] == "CELL_DATA" && size > 1 {
			size--
		}
		if size == 0 {
			return fmt.Errorf("%w: %s before DIMENSIONS", ErrCorrupt, toks[0])
		}
		shape = append(shape, size)
		expect *= size
	}
	if n != expect {
		return fmt.Errorf("%w: %s count %d does not match grid %v", ErrCorrupt, toks[0], n, d.dims)
	}
	d.sectionCount = n
	d.sectionShape = shape
	return nil
}

func (d *decoder) parseScalars(toks []string) error {
	if d.sectionCount == 0 {
		return fmt.Errorf("%w: SCALARS outside a data section", ErrCorrupt)
	}
	if len(toks) < 3 {
		return fmt.Errorf("%w: SCALARS header", ErrCorrupt)
	}
	name := toks[1]
	elemSize, err := elemSizeOf(toks[2])
	if err != nil {
		return err
	}
	// The optional trailing token is the component count; the codes only
	// write one component per SCALARS array.
	if len(toks) > 3 {
		n, convErr := strconv.Atoi(toks[3])
		if convErr != nil {
			return fmt.Errorf("%w: SCALARS %s: component count %q", ErrCorrupt, name, toks[3])
		}
		if n != 1 {
			return fmt.Errorf("%w: SCALARS %s: %d components", ErrUnsupported, name, n)
		}
	}
	lut, err := d.nextLine()
	if err != nil || !strings.HasPrefix(strings.TrimSpace(lut), "LOOKUP_TABLE") {
		return fmt.Errorf("%w: SCALARS %s: missing LOOKUP_TABLE", ErrCorrupt, name)
	}
	offset := d.r.Pos()
	vals, err := d.r.ReadArray(d.sectionCount, elemSize, false)
	if err != nil {
		return fmt.Errorf("%w: field %q: block undersized for %d values", ErrCorrupt, name, d.sectionCount)
	}
	d.table.Fields = append(d.table.Fields, grid.Field{
		Name:     name,
		Data:     vals,
		Shape:    append([]int(nil), d.sectionShape...),
		Source:   d.source,
		Offset:   offset,
		ElemSize: elemSize,
		Order:    stdbinary.BigEndian,
	})
	return nil
}

func (d *decoder) parseVectors(toks []string) error {
	if d.sectionCount == 0 {
		return fmt.Errorf("%w: VECTORS outside a data section", ErrCorrupt)
	}
	if len(toks) != 3 {
		return fmt.Errorf("%w: VECTORS header", ErrCorrupt)
	}
	name := toks[1]
	elemSize, err := elemSizeOf(toks[2])
	if err != nil {
		return err
	}
	offset := d.r.Pos()
	vals, err := d.r.ReadArray(3*d.sectionCount, elemSize, false)
	if err != nil {
		return fmt.Errorf("%w: field %q: block undersized for %d vectors", ErrCorrupt, name, d.sectionCount)
	}
	shape := append([]int(nil), d.sectionShape...)
	shape = append(shape, 3)
	d.table.Fields = append(d.table.Fields, grid.Field{
		Name:     name,
		Data:     vals,
		Shape:    shape,
		Source:   d.source,
		Offset:   offset,
		ElemSize: elemSize,
		Order:    stdbinary.BigEndian,
	})
	return nil
}

// nextLine returns the next non-empty line.
func (d *decoder) nextLine() (string, error) {
	for {
		line, err := d.r.ReadLine()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
	}
}

// finishBlock converts the accumulated node axes into the block
// description once the first data section begins (or at end of file).
func (d *decoder) finishBlock() error {
	if d.table.Block.Dimensions[0] != 0 {
		return nil
	}
	if d.nodes[0] == nil {
		return fmt.Errorf("%w: no grid coordinates", ErrCorrupt)
	}
	var b grid.Block
	for ax := 0; ax < 3; ax++ {
		nodes := d.nodes[ax]
		if len(nodes) == 0 {
			nodes = []float64{0}
		}
		cells := len(nodes) - 1
		if cells < 1 {
			cells = 1
		}
		centers := make([]float64, cells)
		for i := range centers {
			if len(nodes) > 1 {
				centers[i] = 0.5 * (nodes[i] + nodes[i+1])
			} else {
				centers[i] = nodes[0]
			}
		}
		b.Dimensions[ax] = cells
		b.Centers[ax] = centers
		b.LeftEdge[ax] = nodes[0]
		b.RightEdge[ax] = nodes[len(nodes)-1]
	}
	d.table.Block = b
	return nil
}

func elemSizeOf(typ string) (int, error) {
	switch typ {
	case "float":
		return 4, nil
	case "double":
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: element type %q", ErrUnsupported, typ)
	}
}

func fieldTypeOf(typ string) (elemSize int, isInt bool, err error) {
	switch typ {
	case "int":
		return 4, true, nil
	case "float":
		return 4, false, nil
	case "double":
		return 8, false, nil
	default:
		return 0, false, fmt.Errorf("%w: element type %q", ErrUnsupported, typ)
	}
}
