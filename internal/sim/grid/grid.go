// Package grid defines the normalized in-memory product shared by the
// format decoders: one block description plus a table of named fields in
// double precision, with the code-native axis ordering recorded explicitly.
package grid

import (
	"encoding/binary"
	"fmt"

	"github.com/xshaokun/yt-idefix/internal/sim/params"
)

// Block describes the single uniform block the supported codes write.
// Axes are in code-native order (x1, x2, x3); collapsed directions have a
// cell count of 1.
type Block struct {
	Dimensions [3]int
	LeftEdge   [3]float64
	RightEdge  [3]float64
	// Centers holds the cell-center coordinate axis for each direction,
	// with len(Centers[i]) == Dimensions[i].
	Centers [3][]float64
}

// Dimensionality is the number of non-collapsed directions.
func (b Block) Dimensionality() int {
	n := 0
	for _, d := range b.Dimensions {
		if d > 1 {
			n++
		}
	}
	return n
}

// NumCells is the total cell count of the block.
func (b Block) NumCells() int {
	n := 1
	for _, d := range b.Dimensions {
		n *= d
	}
	return n
}

// Field is one decoded data array. Data is row-major in the order the
// shape declares; Shape is kept exactly as stored on disk.
type Field struct {
	Name  string
	Data  []float64
	Shape []int

	// Source, Offset, ElemSize, IsInt and Order locate the field's
	// payload on disk so a single field can be re-read without decoding
	// the rest. Source is the payload file, which for XDMF differs from
	// the index file handed to the decoder.
	Source   string
	Offset   int64
	ElemSize int
	IsInt    bool
	Order    binary.ByteOrder
}

// NumElements is the total element count declared by the shape.
func (f Field) NumElements() int {
	n := 1
	for _, d := range f.Shape {
		n *= d
	}
	return n
}

// Table is the normalized product of a format decoder.
type Table struct {
	Block  Block
	Fields []Field
	// Meta holds scalar metadata embedded in the data file itself
	// (time, geometry, periodicity, ...).
	Meta params.Metadata
	// Header is the raw signature or title line, when the format has one.
	Header string
}

// Field returns the named field.
func (t *Table) Field(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// FieldNames returns the field names in decode order.
func (t *Table) FieldNames() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// Validate checks that every field's declared shape matches its data.
func (t *Table) Validate() error {
	for _, f := range t.Fields {
		if len(f.Data) != f.NumElements() {
			return fmt.Errorf("field %q: %d values for shape %v", f.Name, len(f.Data), f.Shape)
		}
	}
	return nil
}
