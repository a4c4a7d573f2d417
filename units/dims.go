// Package units resolves a complete, internally consistent system of
// physical units for a dataset from code-specific base-unit metadata and a
// possibly partial, possibly conflicting set of user overrides.
package units

import (
	"fmt"

	"github.com/ctessum/unit"
)

// Dim is a physical dimension tag. Fields, overrides and resolved unit
// quantities are all keyed by it.
type Dim int

const (
	Length Dim = iota
	Time
	Mass
	Density
	Velocity
	MagneticField
	Temperature
	Pressure
	Dimensionless
)

var dimNames = map[Dim]string{
	Length:        "length",
	Time:          "time",
	Mass:          "mass",
	Density:       "density",
	Velocity:      "velocity",
	MagneticField: "magnetic_field",
	Temperature:   "temperature",
	Pressure:      "pressure",
	Dimensionless: "dimensionless",
}

func (d Dim) String() string {
	if s, ok := dimNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Dim(%d)", int(d))
}

// ParseDim maps a dimension-tag name to its Dim.
func ParseDim(s string) (Dim, error) {
	for d, name := range dimNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown dimension tag %q", s)
}

// overridableDims lists the dimensions a user override may target, in the
// deterministic order base quantities are collected.
var overridableDims = []Dim{Length, Time, Mass, Density, Velocity, MagneticField}

// requiredDims lists every dimension a resolved system must carry.
var requiredDims = []Dim{
	Length, Time, Mass, Density, Velocity, MagneticField, Temperature, Pressure, Dimensionless,
}

// cgsExponents gives each dimension's exponents over the cgs base (g, cm,
// s), doubled so that the Gaussian magnetic field — tracked internally as
// B/sqrt(4π), with dimensions g^1/2 cm^-1/2 s^-1 — stays integral.
var cgsExponents = map[Dim][3]int{
	Mass:          {2, 0, 0},
	Length:        {0, 2, 0},
	Time:          {0, 0, 2},
	Velocity:      {0, 2, -2},
	Density:       {2, -6, 0},
	MagneticField: {1, -1, -2},
	Pressure:      {2, -2, -4},
}

// siDimensions maps each tag to its SI dimension signature. The magnetic
// field is the SI tesla here (kg s^-2 A^-1); the Gaussian half-exponent
// form never leaves the resolver.
var siDimensions = map[Dim]unit.Dimensions{
	Length:        {unit.LengthDim: 1},
	Time:          {unit.TimeDim: 1},
	Mass:          {unit.MassDim: 1},
	Density:       {unit.MassDim: 1, unit.LengthDim: -3},
	Velocity:      {unit.LengthDim: 1, unit.TimeDim: -1},
	MagneticField: {unit.MassDim: 1, unit.TimeDim: -2, unit.CurrentDim: -1},
	Temperature:   {unit.TemperatureDim: 1},
	Pressure:      {unit.MassDim: 1, unit.LengthDim: -1, unit.TimeDim: -2},
	Dimensionless: {},
}

// cgsToSI converts a magnitude in the canonical cgs unit of each dimension
// to the corresponding SI unit.
var cgsToSI = map[Dim]float64{
	Length:        1e-2,
	Time:          1,
	Mass:          1e-3,
	Density:       1e3,
	Velocity:      1e-2,
	MagneticField: 1e-4,
	Temperature:   1,
	Pressure:      0.1,
	Dimensionless: 1,
}
