// Package xdmf decodes XDMF-indexed output: a small XML index describing
// array shapes, element types and byte offsets into a companion binary
// payload file. The index and payload are validated as a matched pair
// before any array is read.
package xdmf

import (
	stdbinary "encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xshaokun/yt-idefix/internal/sim/binary"
	"github.com/xshaokun/yt-idefix/internal/sim/grid"
	"github.com/xshaokun/yt-idefix/internal/sim/params"
)

var (
	// ErrNotXDMF reports an index file that is not an Xdmf document.
	ErrNotXDMF = errors.New("not an xdmf index")
	// ErrCorrupt reports an index/payload mismatch: a DataItem whose
	// declared extent does not fit its payload file.
	ErrCorrupt = errors.New("corrupt xdmf data")
	// ErrUnsupported reports an XDMF construct outside the subset the
	// codes write.
	ErrUnsupported = errors.New("unsupported xdmf feature")
)

type xdmfDoc struct {
	XMLName xml.Name `xml:"Xdmf"`
	Domain  struct {
		Grids []xdmfGrid `xml:"Grid"`
	} `xml:"Domain"`
}

type xdmfGrid struct {
	Name     string `xml:"Name,attr"`
	GridType string `xml:"GridType,attr"`
	Time     *struct {
		Value float64 `xml:"Value,attr"`
	} `xml:"Time"`
	Topology struct {
		TopologyType string `xml:"TopologyType,attr"`
		Dimensions   string `xml:"Dimensions,attr"`
	} `xml:"Topology"`
	Geometry struct {
		GeometryType string     `xml:"GeometryType,attr"`
		Items        []dataItem `xml:"DataItem"`
	} `xml:"Geometry"`
	Attributes []struct {
		Name   string   `xml:"Name,attr"`
		Center string   `xml:"Center,attr"`
		Item   dataItem `xml:"DataItem"`
	} `xml:"Attribute"`
}

type dataItem struct {
	Dimensions string `xml:"Dimensions,attr"`
	NumberType string `xml:"NumberType,attr"`
	Precision  int    `xml:"Precision,attr"`
	Format     string `xml:"Format,attr"`
	Seek       int64  `xml:"Seek,attr"`
	Body       string `xml:",chardata"`
}

// Read decodes an XDMF index and its binary payload into the normalized
// table. Payload paths in the index are resolved relative to the index.
func Read(indexPath string) (*grid.Table, error) {
	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, err
	}
	var doc xdmfDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", indexPath, ErrNotXDMF, err)
	}
	if len(doc.Domain.Grids) == 0 {
		return nil, fmt.Errorf("%s: %w: no grid", indexPath, ErrNotXDMF)
	}
	if len(doc.Domain.Grids) > 1 {
		return nil, fmt.Errorf("%s: %w: multiple grids", indexPath, ErrUnsupported)
	}
	g := doc.Domain.Grids[0]

	d := &decoder{dir: filepath.Dir(indexPath), sizes: map[string]int64{}}
	table, err := d.decode(g)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", indexPath, err)
	}
	return table, nil
}

type decoder struct {
	dir   string
	sizes map[string]int64 // payload file size cache, one stat per file
}

func (d *decoder) decode(g xdmfGrid) (*grid.Table, error) {
	nodeDims, err := parseDims(g.Topology.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("%w: topology dimensions %q", ErrCorrupt, g.Topology.Dimensions)
	}

	nodes, err := d.nodeAxes(g, nodeDims)
	if err != nil {
		return nil, err
	}

	table := &grid.Table{Meta: make(params.Metadata), Header: g.Name}
	if g.Time != nil {
		table.Meta["time"] = params.Value{params.Num(g.Time.Value)}
	}

	var b grid.Block
	for ax := 0; ax < 3; ax++ {
		axis := nodes[ax]
		if len(axis) == 0 {
			axis = []float64{0}
		}
		cells := len(axis) - 1
		if cells < 1 {
			cells = 1
		}
		centers := make([]float64, cells)
		for i := range centers {
			if len(axis) > 1 {
				centers[i] = 0.5 * (axis[i] + axis[i+1])
			} else {
				centers[i] = axis[0]
			}
		}
		b.Dimensions[ax] = cells
		b.Centers[ax] = centers
		b.LeftEdge[ax] = axis[0]
		b.RightEdge[ax] = axis[len(axis)-1]
	}
	table.Block = b

	for _, attr := range g.Attributes {
		if attr.Center != "" && attr.Center != "Cell" {
			return nil, fmt.Errorf("%w: attribute %q centered on %s", ErrUnsupported, attr.Name, attr.Center)
		}
		field, err := d.readItem(attr.Name, attr.Item)
		if err != nil {
			return nil, err
		}
		if field.NumElements() != b.NumCells() {
			return nil, fmt.Errorf("%w: attribute %q shape %v does not match grid %v",
				ErrCorrupt, attr.Name, field.Shape, b.Dimensions)
		}
		table.Fields = append(table.Fields, field)
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return table, nil
}

// nodeAxes recovers the node coordinate axes from the Geometry element:
// either three binary coordinate arrays (VXVYVZ) or an inline
// origin/spacing pair (ORIGIN_DXDYDZ). nodeDims is slowest-first, as the
// index declares it.
func (d *decoder) nodeAxes(g xdmfGrid, nodeDims []int) ([3][]float64, error) {
	var nodes [3][]float64
	switch g.Geometry.GeometryType {
	case "VXVYVZ":
		if len(g.Geometry.Items) != 3 {
			return nodes, fmt.Errorf("%w: VXVYVZ wants 3 DataItems", ErrCorrupt)
		}
		for ax := 0; ax < 3; ax++ {
			field, err := d.readItem(fmt.Sprintf("geometry axis %d", ax), g.Geometry.Items[ax])
			if err != nil {
				return nodes, err
			}
			nodes[ax] = field.Data
		}
	case "ORIGIN_DXDYDZ":
		if len(g.Geometry.Items) != 2 {
			return nodes, fmt.Errorf("%w: ORIGIN_DXDYDZ wants 2 DataItems", ErrCorrupt)
		}
		origin, err := parseInline(g.Geometry.Items[0])
		if err != nil {
			return nodes, err
		}
		spacing, err := parseInline(g.Geometry.Items[1])
		if err != nil {
			return nodes, err
		}
		if len(origin) != 3 || len(spacing) != 3 {
			return nodes, fmt.Errorf("%w: ORIGIN_DXDYDZ wants 3 values per item", ErrCorrupt)
		}
		for ax := 0; ax < 3; ax++ {
			// Inline origin/spacing are slowest-first, like the topology.
			n := 1
			if idx := len(nodeDims) - 1 - ax; idx >= 0 && idx < len(nodeDims) {
				n = nodeDims[idx]
			}
			axis := make([]float64, n)
			for j := range axis {
				axis[j] = origin[2-ax] + float64(j)*spacing[2-ax]
			}
			nodes[ax] = axis
		}
	default:
		return nodes, fmt.Errorf("%w: geometry type %q", ErrUnsupported, g.Geometry.GeometryType)
	}
	return nodes, nil
}

// readItem reads one binary DataItem, validating its declared extent
// against the payload file size first.
func (d *decoder) readItem(name string, item dataItem) (grid.Field, error) {
	if item.Format != "Binary" {
		return grid.Field{}, fmt.Errorf("%w: DataItem %q format %q", ErrUnsupported, name, item.Format)
	}
	dims, err := parseDims(item.Dimensions)
	if err != nil {
		return grid.Field{}, fmt.Errorf("%w: DataItem %q dimensions %q", ErrCorrupt, name, item.Dimensions)
	}
	count := 1
	// Reverse from the index's slowest-first order to code-native x1 first.
	shape := make([]int, len(dims))
	for i, n := range dims {
		shape[len(dims)-1-i] = n
		count *= n
	}

	elemSize := item.Precision
	isInt := false
	switch strings.ToLower(item.NumberType) {
	case "", "float":
		if elemSize == 0 {
			elemSize = 8
		}
		if elemSize != 4 && elemSize != 8 {
			return grid.Field{}, fmt.Errorf("%w: DataItem %q float precision %d", ErrUnsupported, name, item.Precision)
		}
	case "int":
		elemSize = 4
		isInt = true
	default:
		return grid.Field{}, fmt.Errorf("%w: DataItem %q number type %q", ErrUnsupported, name, item.NumberType)
	}

	payload := strings.TrimSpace(item.Body)
	if payload == "" {
		return grid.Field{}, fmt.Errorf("%w: DataItem %q names no payload file", ErrCorrupt, name)
	}
	if !filepath.IsAbs(payload) {
		payload = filepath.Join(d.dir, payload)
	}
	size, err := d.payloadSize(payload)
	if err != nil {
		return grid.Field{}, err
	}
	need := item.Seek + int64(count)*int64(elemSize)
	if item.Seek < 0 || need > size {
		return grid.Field{}, fmt.Errorf("%w: DataItem %q wants bytes [%d, %d) of %q (%d bytes)",
			ErrCorrupt, name, item.Seek, need, payload, size)
	}

	f, err := os.Open(payload)
	if err != nil {
		return grid.Field{}, err
	}
	defer f.Close()
	r := binary.NewReader(f, stdbinary.LittleEndian).At(item.Seek)
	data, err := r.ReadArray(count, elemSize, isInt)
	if err != nil {
		return grid.Field{}, fmt.Errorf("%w: DataItem %q: %v", ErrCorrupt, name, err)
	}
	return grid.Field{
		Name:     name,
		Data:     data,
		Shape:    shape,
		Source:   payload,
		Offset:   item.Seek,
		ElemSize: elemSize,
		IsInt:    isInt,
		Order:    stdbinary.LittleEndian,
	}, nil
}

func (d *decoder) payloadSize(path string) (int64, error) {
	if size, ok := d.sizes[path]; ok {
		return size, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: payload %q: %v", ErrCorrupt, path, err)
	}
	d.sizes[path] = info.Size()
	return info.Size(), nil
}

func parseDims(s string) ([]int, error) {
	toks := strings.Fields(s)
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty dimensions")
	}
	dims := make([]int, len(toks))
	for i, tok := range toks {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("dimension %q", tok)
		}
		dims[i] = n
	}
	return dims, nil
}

func parseInline(item dataItem) ([]float64, error) {
	if item.Format != "" && item.Format != "XML" {
		return nil, fmt.Errorf("%w: inline DataItem format %q", ErrUnsupported, item.Format)
	}
	toks := strings.Fields(item.Body)
	vals := make([]float64, len(toks))
	for i, tok := range toks {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: inline value %q", ErrCorrupt, tok)
		}
		vals[i] = v
	}
	return vals, nil
}
