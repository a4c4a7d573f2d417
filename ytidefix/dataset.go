package ytidefix

import (
	stdbinary "encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xshaokun/yt-idefix/internal/sim/binary"
	"github.com/xshaokun/yt-idefix/internal/sim/grid"
	"github.com/xshaokun/yt-idefix/units"
)

// Grid describes the single uniform block a dataset covers, in code-native
// axis order (x1, x2, x3). Collapsed directions have a cell count of 1.
type Grid struct {
	Dimensions [3]int
	LeftEdge   [3]float64
	RightEdge  [3]float64
	Centers    [3][]float64
}

// Dimensionality is the number of non-collapsed directions.
func (g Grid) Dimensionality() int {
	n := 0
	for _, d := range g.Dimensions {
		if d > 1 {
			n++
		}
	}
	return n
}

// Field is one decoded data array with its physical dimension tag.
type Field struct {
	Name  string
	Data  []float64
	Shape []int
	Dim   units.Dim

	source   string
	offset   int64
	elemSize int
	isInt    bool
	order    stdbinary.ByteOrder
}

// Dataset is the normalized record handed to the host framework. It is
// constructed once per load call and treated as immutable thereafter, so
// it can be shared across concurrent consumers without locking.
type Dataset struct {
	Path           string
	Format         Format
	Code           units.Code
	Geometry       Geometry
	Units          units.System
	UnitConvention string
	Grid           Grid
	Fields         map[string]Field
	CurrentTime    float64
	Periodicity    [3]bool
	Version        string
	DefaultSpecies string
}

// FieldNames returns the dataset's field names in sorted order.
func (ds *Dataset) FieldNames() []string {
	names := make([]string, 0, len(ds.Fields))
	for name := range ds.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadField re-reads a single field's payload from disk, without decoding
// the rest of the file. The result is freshly allocated.
func (ds *Dataset) ReadField(name string) ([]float64, error) {
	fld, ok := ds.Fields[name]
	if !ok {
		return nil, fmt.Errorf("unknown field %q", name)
	}
	f, err := os.Open(fld.source)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n := 1
	for _, d := range fld.Shape {
		n *= d
	}
	r := binary.NewReader(f, fld.order).At(fld.offset)
	data, err := r.ReadArray(n, fld.elemSize, fld.isInt)
	if err != nil {
		return nil, &CorruptDataError{Path: fld.source,
			Err: fmt.Errorf("field %q: %w", name, err)}
	}
	return data, nil
}

func (ds *Dataset) String() string {
	return fmt.Sprintf("%s %s dataset %q: geometry=%s, dimensions=%v, %d fields",
		ds.Code, ds.Format, filepath.Base(ds.Path), ds.Geometry,
		ds.Grid.Dimensions, len(ds.Fields))
}

// fieldDim binds a field name to its dimension tag, per the codes' naming
// convention. Names outside the convention (tracers, user scalars) are
// dimensionless rather than an error.
func fieldDim(name string) units.Dim {
	base := strings.TrimPrefix(strings.TrimPrefix(name, "Vc-"), "Vs-")
	base = strings.ToUpper(base)
	switch {
	case base == "RHO":
		return units.Density
	case strings.HasPrefix(base, "VX"):
		return units.Velocity
	case strings.HasPrefix(base, "BX"):
		return units.MagneticField
	case base == "PRS":
		return units.Pressure
	case base == "TMP":
		return units.Temperature
	default:
		return units.Dimensionless
	}
}

// assemble composes the decoder, geometry and unit resolver outputs into
// the final dataset, validating that every field's dimension tag has a
// unit in the resolved system.
func assemble(path string, format Format, code units.Code, geom Geometry,
	sys units.System, o *loadOptions, table *grid.Table) (*Dataset, error) {

	ds := &Dataset{
		Path:           path,
		Format:         format,
		Code:           code,
		Geometry:       geom,
		Units:          sys,
		UnitConvention: o.unitSystem,
		Grid:           Grid(table.Block),
		Fields:         make(map[string]Field, len(table.Fields)),
		DefaultSpecies: o.defaultSpecies,
	}

	for _, f := range table.Fields {
		dim := fieldDim(f.Name)
		if !sys.Has(dim) {
			return nil, &UnboundFieldError{Field: f.Name, Dim: dim}
		}
		ds.Fields[f.Name] = Field{
			Name:     f.Name,
			Data:     f.Data,
			Shape:    f.Shape,
			Dim:      dim,
			source:   f.Source,
			offset:   f.Offset,
			elemSize: f.ElemSize,
			isInt:    f.IsInt,
			order:    f.Order,
		}
	}

	if t, ok := table.Meta.Number("time"); ok {
		ds.CurrentTime = t
	}
	if p, ok := table.Meta["periodicity"]; ok {
		if vals, allNum := p.Numbers(); allNum {
			for i := 0; i < len(vals) && i < 3; i++ {
				ds.Periodicity[i] = vals[i] != 0
			}
		}
	}
	return ds, nil
}
