// Package dump decodes native Idefix binary dump snapshots.
//
// A dump starts with a 128-byte ASCII signature header naming the code and
// its version, followed by self-describing records read to end of file:
//
//	int32 nameLen | name | int32 dtype | int32 rank | int32 dims[rank] | payload
//
// with dtype 0 = float64, 1 = float32, 2 = int32, all little-endian.
// Grid arrays (x1..x3 centers, xl*/xr* edges) and scalar metadata entries
// (time, geometry, periodicity) share the record grammar with the field
// arrays (Vc-*/Vs-* entries).
package dump

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xshaokun/yt-idefix/internal/sim/binary"
	"github.com/xshaokun/yt-idefix/internal/sim/grid"
	"github.com/xshaokun/yt-idefix/internal/sim/params"
)

// HeaderSize is the fixed byte length of the signature header.
const HeaderSize = 128

// Record element types.
const (
	DTypeFloat64 = 0
	DTypeFloat32 = 1
	DTypeInt32   = 2
)

var (
	// ErrNotDump reports a file without the Idefix dump signature.
	ErrNotDump = errors.New("not an idefix dump file")
	// ErrCorrupt reports a dump whose records do not match their
	// declared shapes or sizes.
	ErrCorrupt = errors.New("corrupt dump file")
)

const maxNameLen = 256

// ReadHeader reads only the signature header of a dump file.
func ReadHeader(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := binary.NewReader(f, stdbinary.LittleEndian)
	header, err := r.ReadString(HeaderSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if !strings.Contains(header, "Idefix") {
		return "", ErrNotDump
	}
	return header, nil
}

// Read decodes a whole dump file into the normalized table.
func Read(path string) (*grid.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := binary.NewReader(f, stdbinary.LittleEndian)
	header, err := r.ReadString(HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: truncated header", path, ErrCorrupt)
	}
	if !strings.Contains(header, "Idefix") {
		return nil, fmt.Errorf("%s: %w", path, ErrNotDump)
	}

	table := &grid.Table{Header: header, Meta: make(params.Metadata)}
	centers := map[string][]float64{}
	edges := map[string][]float64{}

	for {
		peek, err := r.Peek(1)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(peek) == 0 {
			break
		}
		name, field, err := readRecord(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		switch {
		case name == "x1" || name == "x2" || name == "x3":
			centers[name] = field.Data
		case strings.HasPrefix(name, "xl") || strings.HasPrefix(name, "xr"):
			edges[name] = field.Data
		case strings.HasPrefix(name, "Vc-") || strings.HasPrefix(name, "Vs-"):
			field.Source = path
			table.Fields = append(table.Fields, field)
		default:
			val := make(params.Value, len(field.Data))
			for i, v := range field.Data {
				val[i] = params.Num(v)
			}
			table.Meta[name] = val
		}
	}

	block, err := buildBlock(centers, edges)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	table.Block = block
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
	}
	return table, nil
}

// FieldOffsets returns the byte offset of every field payload, keyed by
// field name, without decoding the payloads themselves.
func FieldOffsets(t *grid.Table) map[string]int64 {
	offsets := make(map[string]int64, len(t.Fields))
	for _, f := range t.Fields {
		offsets[f.Name] = f.Offset
	}
	return offsets
}

// readRecord consumes one self-describing record.
func readRecord(r *binary.Reader) (string, grid.Field, error) {
	nameLen, err := r.ReadInt32()
	if err != nil {
		return "", grid.Field{}, fmt.Errorf("%w: truncated record header", ErrCorrupt)
	}
	if nameLen <= 0 || nameLen > maxNameLen {
		return "", grid.Field{}, fmt.Errorf("%w: record name length %d", ErrCorrupt, nameLen)
	}
	name, err := r.ReadString(int(nameLen))
	if err != nil {
		return "", grid.Field{}, fmt.Errorf("%w: truncated record name", ErrCorrupt)
	}

	dtype, err := r.ReadInt32()
	if err != nil {
		return "", grid.Field{}, fmt.Errorf("%w: record %q: truncated dtype", ErrCorrupt, name)
	}
	var elemSize int
	isInt := false
	switch dtype {
	case DTypeFloat64:
		elemSize = 8
	case DTypeFloat32:
		elemSize = 4
	case DTypeInt32:
		elemSize = 4
		isInt = true
	default:
		return "", grid.Field{}, fmt.Errorf("%w: record %q: unknown dtype %d", ErrCorrupt, name, dtype)
	}

	rank, err := r.ReadInt32()
	if err != nil || rank < 1 || rank > 3 {
		return "", grid.Field{}, fmt.Errorf("%w: record %q: bad rank", ErrCorrupt, name)
	}
	dims, err := r.ReadInt32s(int(rank))
	if err != nil {
		return "", grid.Field{}, fmt.Errorf("%w: record %q: truncated dims", ErrCorrupt, name)
	}
	shape := make([]int, rank)
	count := 1
	for i, d := range dims {
		if d < 1 {
			return "", grid.Field{}, fmt.Errorf("%w: record %q: dimension %d", ErrCorrupt, name, d)
		}
		shape[i] = int(d)
		count *= int(d)
	}

	offset := r.Pos()
	data, err := r.ReadArray(count, elemSize, isInt)
	if err != nil {
		return "", grid.Field{}, fmt.Errorf("%w: record %q: payload undersized for shape %v",
			ErrCorrupt, name, shape)
	}
	return name, grid.Field{
		Name:     name,
		Data:     data,
		Shape:    shape,
		Offset:   offset,
		ElemSize: elemSize,
		IsInt:    isInt,
		Order:    stdbinary.LittleEndian,
	}, nil
}

// buildBlock assembles the block description from the grid arrays. Domain
// edges come from the left/right edge arrays when present, in the same
// multi-block ready form the code writes (first left edge, last right
// edge), and fall back to the cell-center endpoints otherwise.
func buildBlock(centers, edges map[string][]float64) (grid.Block, error) {
	var b grid.Block
	if len(centers["x1"]) == 0 {
		return b, fmt.Errorf("%w: missing grid array x1", ErrCorrupt)
	}
	for i, name := range []string{"x1", "x2", "x3"} {
		axis := centers[name]
		if len(axis) == 0 {
			axis = []float64{0}
		}
		b.Centers[i] = axis
		b.Dimensions[i] = len(axis)
		if left, ok := edges["xl"+name[1:]]; ok && len(left) > 0 {
			b.LeftEdge[i] = left[0]
		} else {
			b.LeftEdge[i] = axis[0]
		}
		if right, ok := edges["xr"+name[1:]]; ok && len(right) > 0 {
			b.RightEdge[i] = right[len(right)-1]
		} else {
			b.RightEdge[i] = axis[len(axis)-1]
		}
	}
	return b, nil
}
