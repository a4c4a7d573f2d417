package vtk

import (
	"bytes"
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func beWrite(buf *bytes.Buffer, payload interface{}) {
	if err := stdbinary.Write(buf, stdbinary.BigEndian, payload); err != nil {
		panic(err)
	}
	buf.WriteByte('\n')
}

// writeRectilinear synthesizes the rectilinear layout Idefix writes: node
// coordinates per axis, FIELD metadata, then cell-centered data blocks.
func writeRectilinear(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer

	buf.WriteString("# vtk DataFile Version 2.0\n")
	buf.WriteString("Idefix v2.0.03\n")
	buf.WriteString("BINARY\n")
	buf.WriteString("DATASET RECTILINEAR_GRID\n")
	buf.WriteString("DIMENSIONS 5 3 1\n")

	buf.WriteString("X_COORDINATES 5 float\n")
	beWrite(&buf, []float32{0, 1, 2, 3, 4})
	buf.WriteString("Y_COORDINATES 3 float\n")
	beWrite(&buf, []float32{-1, 0, 1})
	buf.WriteString("Z_COORDINATES 1 float\n")
	beWrite(&buf, []float32{0})

	buf.WriteString("FIELD FieldData 2\n")
	buf.WriteString("TIME 1 1 float\n")
	beWrite(&buf, []float32{0.25})
	buf.WriteString("GEOMETRY 1 1 int\n")
	beWrite(&buf, []int32{1})

	buf.WriteString("CELL_DATA 8\n")
	buf.WriteString("SCALARS RHO float\n")
	buf.WriteString("LOOKUP_TABLE default\n")
	beWrite(&buf, []float32{1, 2, 3, 4, 5, 6, 7, 8})
	buf.WriteString("VECTORS VEL float\n")
	vel := make([]float32, 24)
	for i := range vel {
		vel[i] = float32(i)
	}
	beWrite(&buf, vel)

	path := filepath.Join(t.TempDir(), "data.0001.vtk")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadRectilinear(t *testing.T) {
	path := writeRectilinear(t)
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if table.Header != "Idefix v2.0.03" {
		t.Errorf("title = %q", table.Header)
	}
	if table.Block.Dimensions != [3]int{4, 2, 1} {
		t.Errorf("Dimensions = %v, want [4 2 1]", table.Block.Dimensions)
	}
	if table.Block.LeftEdge != [3]float64{0, -1, 0} {
		t.Errorf("LeftEdge = %v", table.Block.LeftEdge)
	}
	if table.Block.RightEdge != [3]float64{4, 1, 0} {
		t.Errorf("RightEdge = %v", table.Block.RightEdge)
	}
	// Cell centers are node midpoints.
	if got := table.Block.Centers[0]; got[0] != 0.5 || got[3] != 3.5 {
		t.Errorf("x1 centers = %v", got)
	}

	if tv, ok := table.Meta.Number("time"); !ok || tv != 0.25 {
		t.Errorf("time = %v", table.Meta["time"])
	}
	if g, ok := table.Meta.Int("geometry"); !ok || g != 1 {
		t.Errorf("geometry = %v", table.Meta["geometry"])
	}

	rho, ok := table.Field("RHO")
	if !ok {
		t.Fatalf("fields = %v, want RHO", table.FieldNames())
	}
	if len(rho.Data) != 8 || rho.Data[7] != 8 {
		t.Errorf("RHO data = %v", rho.Data)
	}
	if fmt.Sprint(rho.Shape) != "[4 2 1]" {
		t.Errorf("RHO shape = %v", rho.Shape)
	}
	if rho.Order != stdbinary.BigEndian || rho.Source != path {
		t.Errorf("RHO locator = %v %q", rho.Order, rho.Source)
	}

	vel, ok := table.Field("VEL")
	if !ok {
		t.Fatal("VEL missing")
	}
	if fmt.Sprint(vel.Shape) != "[4 2 1 3]" {
		t.Errorf("VEL shape = %v", vel.Shape)
	}
	if len(vel.Data) != 24 {
		t.Errorf("VEL data length = %d", len(vel.Data))
	}
}

func TestReadStructuredPoints(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("# vtk DataFile Version 2.0\n")
	buf.WriteString("PLUTO 4.4 VTK Data\n")
	buf.WriteString("BINARY\n")
	buf.WriteString("DATASET STRUCTURED_POINTS\n")
	buf.WriteString("DIMENSIONS 4 2 1\n")
	buf.WriteString("ORIGIN 0 -1 0\n")
	buf.WriteString("SPACING 0.5 1 1\n")
	buf.WriteString("CELL_DATA 3\n")
	buf.WriteString("SCALARS rho double\n")
	buf.WriteString("LOOKUP_TABLE default\n")
	beWrite(&buf, []float64{1, 2, 3})

	path := filepath.Join(t.TempDir(), "data.0001.vtk")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if table.Block.Dimensions != [3]int{3, 1, 1} {
		t.Errorf("Dimensions = %v, want [3 1 1]", table.Block.Dimensions)
	}
	if table.Block.LeftEdge != [3]float64{0, -1, 0} {
		t.Errorf("LeftEdge = %v", table.Block.LeftEdge)
	}
	if table.Block.RightEdge[0] != 1.5 {
		t.Errorf("RightEdge[0] = %v, want 1.5", table.Block.RightEdge[0])
	}
	if got := table.Block.Centers[0]; got[0] != 0.25 {
		t.Errorf("x1 centers = %v", got)
	}
}

func TestReadStructuredGrid(t *testing.T) {
	// Curvilinear points on a product grid; the node axes are recovered
	// from pencils along each direction.
	var buf bytes.Buffer
	buf.WriteString("# vtk DataFile Version 2.0\n")
	buf.WriteString("Idefix v2.0.03\n")
	buf.WriteString("BINARY\n")
	buf.WriteString("DATASET STRUCTURED_GRID\n")
	buf.WriteString("DIMENSIONS 3 2 1\n")
	buf.WriteString("POINTS 6 float\n")
	pts := []float32{
		// (x, y, z) per node, x fastest
		0, 0, 5, 1, 0, 5, 2, 0, 5,
		0, 1, 5, 1, 1, 5, 2, 1, 5,
	}
	beWrite(&buf, pts)
	buf.WriteString("CELL_DATA 2\n")
	buf.WriteString("SCALARS rho float\n")
	buf.WriteString("LOOKUP_TABLE default\n")
	beWrite(&buf, []float32{7, 9})

	path := filepath.Join(t.TempDir(), "data.0001.vtk")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if table.Block.Dimensions != [3]int{2, 1, 1} {
		t.Errorf("Dimensions = %v, want [2 1 1]", table.Block.Dimensions)
	}
	if table.Block.LeftEdge != [3]float64{0, 0, 5} {
		t.Errorf("LeftEdge = %v", table.Block.LeftEdge)
	}
	if table.Block.RightEdge != [3]float64{2, 1, 5} {
		t.Errorf("RightEdge = %v", table.Block.RightEdge)
	}
}

func TestReadTitle(t *testing.T) {
	path := writeRectilinear(t)
	title, err := ReadTitle(path)
	if err != nil {
		t.Fatalf("ReadTitle: %v", err)
	}
	if title != "Idefix v2.0.03" {
		t.Errorf("title = %q", title)
	}
}

func TestReadNotVTK(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.vtk")
	if err := os.WriteFile(path, []byte("nothing here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); !errors.Is(err, ErrNotVTK) {
		t.Errorf("got %v, want ErrNotVTK", err)
	}
}

func TestReadASCIIUnsupported(t *testing.T) {
	src := "# vtk DataFile Version 2.0\ntitle\nASCII\n"
	path := filepath.Join(t.TempDir(), "ascii.vtk")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); !errors.Is(err, ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestReadTruncatedBlock(t *testing.T) {
	path := writeRectilinear(t)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	short := filepath.Join(t.TempDir(), "short.vtk")
	if err := os.WriteFile(short, raw[:len(raw)-16], 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(short); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}

func TestReadScalarsComponentCount(t *testing.T) {
	write := func(numComp string) string {
		var buf bytes.Buffer
		buf.WriteString("# vtk DataFile Version 2.0\n")
		buf.WriteString("Idefix v2.0.03\n")
		buf.WriteString("BINARY\n")
		buf.WriteString("DATASET STRUCTURED_POINTS\n")
		buf.WriteString("DIMENSIONS 4 2 1\n")
		buf.WriteString("ORIGIN 0 0 0\n")
		buf.WriteString("SPACING 1 1 1\n")
		buf.WriteString("CELL_DATA 3\n")
		buf.WriteString("SCALARS rho float " + numComp + "\n")
		buf.WriteString("LOOKUP_TABLE default\n")
		beWrite(&buf, []float32{1, 2, 3})
		path := filepath.Join(t.TempDir(), "data.0001.vtk")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	// An explicit count of 1 is the only supported spelling.
	if _, err := Read(write("1")); err != nil {
		t.Errorf("numComp 1: %v", err)
	}
	if _, err := Read(write("3")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("numComp 3: got %v, want ErrUnsupported", err)
	}
	if _, err := Read(write("x")); !errors.Is(err, ErrCorrupt) {
		t.Errorf("numComp x: got %v, want ErrCorrupt", err)
	}
}

func TestReadCellCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("# vtk DataFile Version 2.0\n")
	buf.WriteString("Idefix v2.0.03\n")
	buf.WriteString("BINARY\n")
	buf.WriteString("DATASET RECTILINEAR_GRID\n")
	buf.WriteString("DIMENSIONS 5 3 1\n")
	buf.WriteString("X_COORDINATES 5 float\n")
	beWrite(&buf, []float32{0, 1, 2, 3, 4})
	buf.WriteString("Y_COORDINATES 3 float\n")
	beWrite(&buf, []float32{-1, 0, 1})
	buf.WriteString("Z_COORDINATES 1 float\n")
	beWrite(&buf, []float32{0})
	buf.WriteString("CELL_DATA 99\n")

	path := filepath.Join(t.TempDir(), "bad.vtk")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v, want ErrCorrupt", err)
	}
}
