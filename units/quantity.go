package units

import (
	"errors"
	"fmt"

	"github.com/ctessum/unit"
)

// ErrUnknownUnit reports a reference unit string absent from the unit table.
var ErrUnknownUnit = errors.New("unknown reference unit")

// refUnits holds the cgs magnitude of every named reference unit, grouped
// by the dimension it measures. The table doubles as the dimension
// inference for user-supplied quantities.
var refUnits = map[Dim]map[string]float64{
	Length: {
		"cm": 1, "m": 100, "km": 1e5,
		"au": 1.49597892e13, "pc": 3.0856775807e18, "ly": 0.9461e18,
		"Rsun": 6.96e10,
	},
	Time: {
		"s": 1, "hr": 3600, "day": 86400,
		"yr": 3.15576e7, "kyr": 3.15576e10, "Myr": 3.15576e13,
	},
	Mass: {
		"g": 1, "kg": 1000, "Msun": 2.0e33, "mp": 1.67262171e-24,
	},
	Density: {
		"g/cm**3": 1, "kg/m**3": 1e-3, "mp/cm**3": 1.67262171e-24,
	},
	Velocity: {
		"cm/s": 1, "m/s": 100, "km/s": 1e5,
	},
	MagneticField: {
		"gauss": 1, "G": 1, "mG": 1e-3, "uG": 1e-6, "T": 1e4,
	},
	Temperature: {
		"K": 1,
	},
	Pressure: {
		"dyn/cm**2": 1, "Pa": 10, "bar": 1e6,
	},
}

// canonical cgs and mks unit names for resolved quantities.
var cgsUnitNames = map[Dim]string{
	Length: "cm", Time: "s", Mass: "g", Density: "g/cm**3",
	Velocity: "cm/s", MagneticField: "gauss", Temperature: "K",
	Pressure: "dyn/cm**2", Dimensionless: "",
}

var mksUnitNames = map[Dim]string{
	Length: "m", Time: "s", Mass: "kg", Density: "kg/m**3",
	Velocity: "m/s", MagneticField: "T", Temperature: "K",
	Pressure: "Pa", Dimensionless: "",
}

var codeUnitNames = map[Dim]string{
	Length: "code_length", Time: "code_time", Mass: "code_mass",
	Density: "code_density", Velocity: "code_velocity",
	MagneticField: "code_magnetic", Temperature: "K",
	Pressure: "code_pressure", Dimensionless: "",
}

// Quantity is an immutable physical magnitude expressed in a named
// reference unit.
type Quantity struct {
	Value float64
	Unit  string
	Dim   Dim
}

// New builds a quantity from a magnitude and a reference unit name,
// inferring the dimension tag from the unit table.
func New(value float64, unitName string) (Quantity, error) {
	for dim, table := range refUnits {
		if _, ok := table[unitName]; ok {
			return Quantity{Value: value, Unit: unitName, Dim: dim}, nil
		}
	}
	return Quantity{}, fmt.Errorf("%w: %q", ErrUnknownUnit, unitName)
}

func (q Quantity) String() string {
	if q.Unit == "" {
		return fmt.Sprintf("%g", q.Value)
	}
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}

// CGS returns the magnitude converted to the canonical cgs unit of the
// quantity's dimension.
func (q Quantity) CGS() (float64, error) {
	table, ok := refUnits[q.Dim]
	if !ok {
		if q.Dim == Dimensionless {
			return q.Value, nil
		}
		return 0, fmt.Errorf("%w: no table for dimension %s", ErrUnknownUnit, q.Dim)
	}
	factor, ok := table[q.Unit]
	if !ok {
		return 0, fmt.Errorf("%w: %q is not a %s unit", ErrUnknownUnit, q.Unit, q.Dim)
	}
	return q.Value * factor, nil
}

// SI returns the quantity as an SI value carrying its dimension signature,
// suitable for algebraic cross-checks between resolved quantities.
func (q Quantity) SI() (*unit.Unit, error) {
	cgs, err := q.CGS()
	if err != nil {
		return nil, err
	}
	return unit.New(cgs*cgsToSI[q.Dim], siDimensions[q.Dim]), nil
}
