package ytidefix

import (
	"fmt"

	"github.com/xshaokun/yt-idefix/units"
)

// Option configures a load call.
type Option func(*loadOptions)

type loadOptions struct {
	definitionsHeader string
	inifile           string
	geometry          string
	unitSystem        string
	overrides         units.OverrideSet
	defaultSpecies    string
}

func defaultLoadOptions() *loadOptions {
	return &loadOptions{unitSystem: "cgs"}
}

func (o *loadOptions) validate() error {
	switch o.unitSystem {
	case "code", "mks", "cgs":
	default:
		return fmt.Errorf("unit_system must be one of code, mks, cgs; got %q", o.unitSystem)
	}
	switch o.defaultSpecies {
	case "", "neutral", "ionized":
	default:
		return fmt.Errorf("default_species_fields must be neutral or ionized; got %q", o.defaultSpecies)
	}
	return nil
}

// WithDefinitionsHeader sets an explicit path for the definitions header,
// absolute or relative to the data file. An explicit path is used
// verbatim; discovery is skipped.
func WithDefinitionsHeader(path string) Option {
	return func(o *loadOptions) {
		o.definitionsHeader = path
	}
}

// WithInifile sets an explicit path for the run configuration ini file,
// absolute or relative to the data file.
func WithInifile(path string) Option {
	return func(o *loadOptions) {
		o.inifile = path
	}
}

// WithGeometry supplies the coordinate geometry keyword (cartesian,
// cylindrical, spherical or polar). An explicit geometry always wins over
// anything the files declare.
func WithGeometry(name string) Option {
	return func(o *loadOptions) {
		o.geometry = name
	}
}

// WithUnitSystem selects how resolved units are expressed: "cgs" (the
// default), "mks", or "code" for code-native units.
func WithUnitSystem(name string) Option {
	return func(o *loadOptions) {
		o.unitSystem = name
	}
}

// WithUnitsOverride supplies user unit overrides. The set is validated as
// a whole during resolution; see the units package for the rules.
func WithUnitsOverride(set units.OverrideSet) Option {
	return func(o *loadOptions) {
		o.overrides = set
	}
}

// WithDefaultSpecies selects the species assumption recorded on the
// dataset: "neutral" or "ionized".
func WithDefaultSpecies(name string) Option {
	return func(o *loadOptions) {
		o.defaultSpecies = name
	}
}
