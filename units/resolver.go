package units

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Code identifies the simulation code family a dataset was written by.
type Code int

const (
	Idefix Code = iota
	Pluto
)

func (c Code) String() string {
	if c == Pluto {
		return "pluto"
	}
	return "idefix"
}

// Unit-override rule violations. Every violation aborts resolution; there
// is no partial or best-effort unit system.
var (
	ErrInvalidOverride = errors.New("invalid unit override")
	ErrOverconstrained = errors.New("overconstrained unit system")
	ErrInconsistent    = errors.New("inconsistent unit override set")
)

// RuleError reports a unit-override rule violation together with the
// offending dimension tags.
type RuleError struct {
	Err    error
	Dims   []Dim
	Reason string
}

func (e *RuleError) Error() string {
	names := make([]string, len(e.Dims))
	for i, d := range e.Dims {
		names[i] = d.String()
	}
	msg := fmt.Sprintf("%v: {%s}", e.Err, strings.Join(names, ", "))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// OverrideSet maps dimension tags to user-supplied quantities. It is
// validated as a whole; a set is never partially applied.
type OverrideSet map[Dim]Quantity

// System is a resolved unit system: one quantity per required dimension
// tag. It is read-only once resolved.
type System map[Dim]Quantity

// Has reports whether the system carries a unit for the given tag.
func (s System) Has(d Dim) bool {
	_, ok := s[d]
	return ok
}

// forbiddenTriples are the override tag sets that are not dimensionally
// independent in this unit convention: accepting all three would force a
// contradiction. Checked by exact set equality.
var forbiddenTriples = [][3]Dim{
	{MagneticField, Velocity, Density},
	{Velocity, Time, Length},
	{Density, Length, Mass},
}

// builtinDefaults are the base units assumed when the code's metadata does
// not define UNIT_LENGTH / UNIT_VELOCITY / UNIT_DENSITY: one astronomical
// unit, one km/s, one proton mass per cubic centimeter.
var builtinDefaults = map[Dim]Quantity{
	Length:   {Value: 1, Unit: "au", Dim: Length},
	Velocity: {Value: 1e5, Unit: "cm/s", Dim: Velocity},
	Density:  {Value: 1.67262171e-24, Unit: "g/cm**3", Dim: Density},
}

// defaultFillOrder is the priority in which missing base dimensions are
// filled from metadata-derived defaults.
var defaultFillOrder = []Dim{Velocity, Density, Length}

const sqrt4pi = 3.5449077018110318 // sqrt(4π), Gaussian magnetic normalization

// Config carries everything resolution depends on.
type Config struct {
	Code      Code
	Overrides OverrideSet
	// Defaults are the metadata-derived base units (velocity, density,
	// length). Dimensions absent here fall back to builtinDefaults.
	Defaults map[Dim]Quantity
	// Convention selects how resolved quantities are expressed:
	// "cgs" (default), "mks", or "code".
	Convention string
}

// base is one established base quantity: its cgs magnitude (magnetic
// fields normalized by sqrt(4π)) and its doubled exponent vector.
type base struct {
	dim Dim
	cgs float64
	exp [3]int
}

// Resolve produces a complete unit system or fails with a RuleError naming
// the violated rule and the offending dimension tags.
func Resolve(cfg Config) (System, error) {
	switch cfg.Code {
	case Idefix:
		return resolveIdefix(cfg)
	case Pluto:
		return resolvePluto(cfg)
	default:
		return nil, fmt.Errorf("unknown code family %d", int(cfg.Code))
	}
}

// resolveIdefix builds the unit system for an Idefix dataset. Idefix
// derives units solely from its own metadata and has no override
// mechanism, so any override is rejected outright.
func resolveIdefix(cfg Config) (System, error) {
	if len(cfg.Overrides) > 0 {
		return nil, &RuleError{
			Err:    ErrInvalidOverride,
			Dims:   sortedDims(cfg.Overrides),
			Reason: "idefix has no unit override mechanism",
		}
	}
	bases := [3]base{}
	for i, d := range []Dim{Velocity, Density, Length} {
		q := cfg.Defaults[d]
		if q == (Quantity{}) {
			// Idefix code units are unity in cgs.
			q = Quantity{Value: 1, Unit: cgsUnitNames[d], Dim: d}
		}
		cgs, err := q.CGS()
		if err != nil {
			return nil, &RuleError{Err: ErrInvalidOverride, Dims: []Dim{d}, Reason: err.Error()}
		}
		bases[i] = base{dim: d, cgs: cgs, exp: cgsExponents[d]}
	}
	return express(bases, cfg.Convention)
}

// resolvePluto validates the override set against the closed rule table,
// fills missing base dimensions from the code's metadata-derived defaults,
// and derives every remaining unit from the established base triple.
func resolvePluto(cfg Config) (System, error) {
	overrides := cfg.Overrides

	// Rule 1: temperature is never overridable; nor are derived-only tags.
	for _, d := range []Dim{Temperature, Pressure, Dimensionless} {
		if _, ok := overrides[d]; ok {
			reason := "temperature is fixed to Kelvin"
			if d != Temperature {
				reason = fmt.Sprintf("%s is always derived", d)
			}
			return nil, &RuleError{Err: ErrInvalidOverride, Dims: []Dim{d}, Reason: reason}
		}
	}
	for d := range overrides {
		if !isOverridable(d) {
			return nil, &RuleError{Err: ErrInvalidOverride, Dims: []Dim{d},
				Reason: "not an overridable dimension"}
		}
	}

	// Rule 2: at most three overrides — more constraints than free base
	// dimensions cannot be reconciled.
	if len(overrides) > 3 {
		return nil, &RuleError{Err: ErrOverconstrained, Dims: sortedDims(overrides)}
	}

	// Rule 3: three overrides matching a forbidden triple are not
	// dimensionally independent, regardless of the magnitudes supplied.
	if len(overrides) == 3 {
		for _, triple := range forbiddenTriples {
			if matchesTriple(overrides, triple) {
				return nil, &RuleError{Err: ErrInconsistent, Dims: triple[:]}
			}
		}
	}

	var bases []base
	for _, d := range overridableDims {
		q, ok := overrides[d]
		if !ok {
			continue
		}
		if q.Dim != d {
			return nil, &RuleError{Err: ErrInvalidOverride, Dims: []Dim{d},
				Reason: fmt.Sprintf("quantity is tagged %s", q.Dim)}
		}
		cgs, err := q.CGS()
		if err != nil {
			return nil, &RuleError{Err: ErrInvalidOverride, Dims: []Dim{d}, Reason: err.Error()}
		}
		if d == MagneticField {
			cgs /= sqrt4pi
		}
		bases = append(bases, base{dim: d, cgs: cgs, exp: cgsExponents[d]})
	}

	// Rule 4: fill the missing base dimensions from the code's defaults,
	// in priority order, skipping any default that would make the triple
	// dimensionally dependent on what is already established.
	for _, d := range defaultFillOrder {
		if len(bases) == 3 {
			break
		}
		if _, ok := overrides[d]; ok {
			continue
		}
		q, ok := cfg.Defaults[d]
		if !ok {
			q = builtinDefaults[d]
		}
		cgs, err := q.CGS()
		if err != nil {
			return nil, &RuleError{Err: ErrInvalidOverride, Dims: []Dim{d}, Reason: err.Error()}
		}
		cand := base{dim: d, cgs: cgs, exp: cgsExponents[d]}
		if !independent(append(append([]base{}, bases...), cand)) {
			continue
		}
		bases = append(bases, cand)
	}
	if len(bases) != 3 {
		return nil, &RuleError{Err: ErrInconsistent, Dims: sortedDims(overrides),
			Reason: "could not establish three independent base quantities"}
	}

	return express([3]base{bases[0], bases[1], bases[2]}, cfg.Convention)
}

// express derives every required dimension from the base triple and
// formats the system per the requested convention.
func express(bases [3]base, convention string) (System, error) {
	sys := make(System, len(requiredDims))
	for _, d := range requiredDims {
		var cgs float64
		switch d {
		case Temperature, Dimensionless:
			cgs = 1
		default:
			v, err := derive(bases, d)
			if err != nil {
				return nil, err
			}
			cgs = v
			if d == MagneticField {
				cgs *= sqrt4pi
			}
		}

		switch convention {
		case "mks":
			sys[d] = Quantity{Value: cgs * cgsToSI[d], Unit: mksUnitNames[d], Dim: d}
		case "code":
			sys[d] = Quantity{Value: 1, Unit: codeUnitNames[d], Dim: d}
		default: // cgs
			sys[d] = Quantity{Value: cgs, Unit: cgsUnitNames[d], Dim: d}
		}
	}
	// Temperature is Kelvin in every convention.
	sys[Temperature] = Quantity{Value: 1, Unit: "K", Dim: Temperature}
	sys[Dimensionless] = Quantity{Value: 1, Unit: "", Dim: Dimensionless}
	return sys, nil
}

// derive computes the cgs magnitude of target as a product of powers of
// the base quantities, solving the 3×3 exponent system by Cramer's rule.
func derive(bases [3]base, target Dim) (float64, error) {
	t := cgsExponents[target]
	var m [3][3]float64
	for col, b := range bases {
		for row := 0; row < 3; row++ {
			m[row][col] = float64(b.exp[row])
		}
	}
	d := det3(m)
	if d == 0 {
		return 0, &RuleError{Err: ErrInconsistent, Dims: baseDims(bases[:]),
			Reason: "base quantities are not dimensionally independent"}
	}
	val := 1.0
	for col := range bases {
		mc := m
		for row := 0; row < 3; row++ {
			mc[row][col] = float64(t[row])
		}
		exp := det3(mc) / d
		val *= math.Pow(bases[col].cgs, exp)
	}
	return val, nil
}

func det3(m [3][3]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// independent reports whether the exponent vectors of the given bases are
// linearly independent (for fewer than three bases, whether they span a
// space of their own size).
func independent(bases []base) bool {
	switch len(bases) {
	case 0, 1:
		return len(bases) == 0 || bases[0].exp != [3]int{}
	case 2:
		// Rank 2 iff some 2×2 minor is nonzero.
		a, b := bases[0].exp, bases[1].exp
		for i := 0; i < 3; i++ {
			for j := i + 1; j < 3; j++ {
				if a[i]*b[j]-a[j]*b[i] != 0 {
					return true
				}
			}
		}
		return false
	case 3:
		var m [3][3]float64
		for col, q := range bases {
			for row := 0; row < 3; row++ {
				m[row][col] = float64(q.exp[row])
			}
		}
		return det3(m) != 0
	default:
		return false
	}
}

func isOverridable(d Dim) bool {
	for _, o := range overridableDims {
		if o == d {
			return true
		}
	}
	return false
}

func matchesTriple(overrides OverrideSet, triple [3]Dim) bool {
	for _, d := range triple {
		if _, ok := overrides[d]; !ok {
			return false
		}
	}
	return true
}

func sortedDims(overrides OverrideSet) []Dim {
	dims := make([]Dim, 0, len(overrides))
	for d := range overrides {
		dims = append(dims, d)
	}
	sort.Slice(dims, func(i, j int) bool { return dims[i] < dims[j] })
	return dims
}

func baseDims(bases []base) []Dim {
	dims := make([]Dim, len(bases))
	for i, b := range bases {
		dims[i] = b.dim
	}
	return dims
}
