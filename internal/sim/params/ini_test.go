package params

import (
	"errors"
	"testing"
)

func TestParseIni(t *testing.T) {
	data := []byte(`
[Grid]
X1-grid  1  0.0  64  u  1.0
X2-grid  1  0.0  1   u  1.0
geometry cartesian

[Hydro]
gamma 1.666667

[Output]
vtk  0.1
`)
	meta, err := ParseIni(data)
	if err != nil {
		t.Fatalf("ParseIni: %v", err)
	}

	if tok, ok := meta.Text("Grid.geometry"); !ok || tok != "cartesian" {
		t.Errorf("Grid.geometry = %v, want cartesian", meta["Grid.geometry"])
	}
	if v, ok := meta.Number("Hydro.gamma"); !ok || v != 1.666667 {
		t.Errorf("Hydro.gamma = %v, want 1.666667", meta["Hydro.gamma"])
	}

	grid, ok := meta["Grid.X1-grid"]
	if !ok || len(grid) != 5 {
		t.Fatalf("Grid.X1-grid = %v, want 5 tokens", grid)
	}
	nums, allNum := grid[:3].Numbers()
	if !allNum || nums[0] != 1 || nums[1] != 0 || nums[2] != 64 {
		t.Errorf("Grid.X1-grid leading numbers = %v", grid)
	}
	if grid[3].Numeric || grid[3].Text != "u" {
		t.Errorf("Grid.X1-grid spacing token = %v, want textual u", grid[3])
	}
}

func TestParseIniDuplicateKey(t *testing.T) {
	data := []byte(`
[Output]
vtk  0.1
vtk  0.5
`)
	_, err := ParseIni(data)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("duplicate key: got %v, want ErrMalformed", err)
	}
}

func TestParseIniDuplicateKeyIdenticalValue(t *testing.T) {
	// A repeated key is malformed even when both occurrences agree.
	data := []byte(`
[Output]
vtk  0.1
vtk  0.1
`)
	_, err := ParseIni(data)
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("identical duplicate key: got %v, want ErrMalformed", err)
	}
}

func TestParseIniSectionlessKeys(t *testing.T) {
	meta, err := ParseIni([]byte("answer 42\n"))
	if err != nil {
		t.Fatalf("ParseIni: %v", err)
	}
	if v, ok := meta.Number("answer"); !ok || v != 42 {
		t.Errorf("answer = %v, want 42", meta["answer"])
	}
}

func TestParseIniGarbage(t *testing.T) {
	if _, err := ParseIni([]byte("[unterminated\n")); !errors.Is(err, ErrMalformed) {
		t.Errorf("got %v, want ErrMalformed", err)
	}
}
