package dump

import (
	"bytes"
	stdbinary "encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// writeRecord appends one self-describing record in the on-disk grammar.
func writeRecord(buf *bytes.Buffer, name string, dtype int32, dims []int32, payload interface{}) {
	stdbinary.Write(buf, stdbinary.LittleEndian, int32(len(name)))
	buf.WriteString(name)
	stdbinary.Write(buf, stdbinary.LittleEndian, dtype)
	stdbinary.Write(buf, stdbinary.LittleEndian, int32(len(dims)))
	for _, d := range dims {
		stdbinary.Write(buf, stdbinary.LittleEndian, d)
	}
	stdbinary.Write(buf, stdbinary.LittleEndian, payload)
}

// writeDump synthesizes a 2D dump: 4x2 cells with density and a geometry
// metadata record.
func writeDump(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer

	header := make([]byte, HeaderSize)
	copy(header, "Idefix version v2.0.03")
	buf.Write(header)

	writeRecord(&buf, "x1", DTypeFloat64, []int32{4}, []float64{0.5, 1.5, 2.5, 3.5})
	writeRecord(&buf, "xl1", DTypeFloat64, []int32{4}, []float64{0, 1, 2, 3})
	writeRecord(&buf, "xr1", DTypeFloat64, []int32{4}, []float64{1, 2, 3, 4})
	writeRecord(&buf, "x2", DTypeFloat64, []int32{2}, []float64{-0.5, 0.5})
	writeRecord(&buf, "xl2", DTypeFloat64, []int32{2}, []float64{-1, 0})
	writeRecord(&buf, "xr2", DTypeFloat64, []int32{2}, []float64{0, 1})
	writeRecord(&buf, "x3", DTypeFloat64, []int32{1}, []float64{0})
	writeRecord(&buf, "time", DTypeFloat64, []int32{1}, []float64{0.25})
	writeRecord(&buf, "geometry", DTypeInt32, []int32{1}, []int32{2})
	writeRecord(&buf, "periodicity", DTypeInt32, []int32{3}, []int32{1, 0, 0})
	writeRecord(&buf, "Vc-RHO", DTypeFloat64, []int32{4, 2, 1},
		[]float64{1, 2, 3, 4, 5, 6, 7, 8})
	writeRecord(&buf, "Vc-VX1", DTypeFloat32, []int32{4, 2, 1},
		[]float32{0, 0.5, 1, 1.5, 2, 2.5, 3, 3.5})

	path := filepath.Join(t.TempDir(), "data.0001.dmp")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead(t *testing.T) {
	path := writeDump(t)
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if table.Block.Dimensions != [3]int{4, 2, 1} {
		t.Errorf("Dimensions = %v, want [4 2 1]", table.Block.Dimensions)
	}
	if table.Block.Dimensionality() != 2 {
		t.Errorf("Dimensionality = %d, want 2", table.Block.Dimensionality())
	}
	if table.Block.LeftEdge != [3]float64{0, -1, 0} {
		t.Errorf("LeftEdge = %v, want [0 -1 0]", table.Block.LeftEdge)
	}
	if table.Block.RightEdge != [3]float64{4, 1, 0} {
		t.Errorf("RightEdge = %v, want [4 1 0]", table.Block.RightEdge)
	}
	if got := table.Block.Centers[0]; got[0] != 0.5 || got[3] != 3.5 {
		t.Errorf("x1 centers = %v", got)
	}

	if len(table.Fields) != 2 {
		t.Fatalf("fields = %v, want Vc-RHO and Vc-VX1", table.FieldNames())
	}
	rho, ok := table.Field("Vc-RHO")
	if !ok {
		t.Fatal("Vc-RHO missing")
	}
	if rho.Data[0] != 1 || rho.Data[7] != 8 {
		t.Errorf("Vc-RHO data = %v", rho.Data)
	}
	if rho.Source != path || rho.ElemSize != 8 || rho.IsInt {
		t.Errorf("Vc-RHO locator = %q %d %v", rho.Source, rho.ElemSize, rho.IsInt)
	}
	vx, _ := table.Field("Vc-VX1")
	if vx.ElemSize != 4 {
		t.Errorf("Vc-VX1 elemSize = %d, want 4", vx.ElemSize)
	}
	if vx.Data[1] != 0.5 {
		t.Errorf("Vc-VX1[1] = %v, want 0.5", vx.Data[1])
	}

	if tv, ok := table.Meta.Number("time"); !ok || tv != 0.25 {
		t.Errorf("time = %v", table.Meta["time"])
	}
	if g, ok := table.Meta.Int("geometry"); !ok || g != 2 {
		t.Errorf("geometry = %v", table.Meta["geometry"])
	}
	if p, ok := table.Meta["periodicity"]; !ok || len(p) != 3 {
		t.Errorf("periodicity = %v", p)
	}
}

func TestReadHeader(t *testing.T) {
	path := writeDump(t)
	header, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if header != "Idefix version v2.0.03" {
		t.Errorf("header = %q", header)
	}
}

func TestFieldOffsets(t *testing.T) {
	path := writeDump(t)
	table, err := Read(path)
	if err != nil {
		t.Fatal(err)
	}
	offsets := FieldOffsets(table)
	if len(offsets) != 2 {
		t.Fatalf("offsets = %v", offsets)
	}
	// Re-reading at the recorded offset must reproduce the decoded payload.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rho, _ := table.Field("Vc-RHO")
	off := offsets["Vc-RHO"]
	got := math.Float64frombits(stdbinary.LittleEndian.Uint64(raw[off:]))
	if got != rho.Data[0] {
		t.Errorf("value at offset = %v, want %v", got, rho.Data[0])
	}
}

func TestReadNotDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.bin")
	junk := make([]byte, 256)
	copy(junk, "definitely not the right signature")
	if err := os.WriteFile(path, junk, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); !errors.Is(err, ErrNotDump) {
		t.Errorf("got %v, want ErrNotDump", err)
	}
}

func TestReadTruncatedPayload(t *testing.T) {
	path := writeDump(t)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Cut into the last record's payload.
	short := filepath.Join(t.TempDir(), "short.dmp")
	if err := os.WriteFile(short, raw[:len(raw)-8], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(short); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}

func TestReadBadDtype(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, HeaderSize)
	copy(header, "Idefix")
	buf.Write(header)
	writeRecord(&buf, "x1", 9, []int32{1}, []float64{0})

	path := filepath.Join(t.TempDir(), "bad.dmp")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}
