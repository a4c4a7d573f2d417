package params

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Knetic/govaluate"
)

// ErrMalformed reports a violation of an auxiliary file's grammar.
var ErrMalformed = errors.New("malformed auxiliary file")

// physicalConstants are the CONST_* tokens the codes use in definition
// values, in cgs. Arithmetic defines such as `5.0*CONST_au` are evaluated
// against this table.
var physicalConstants = map[string]interface{}{
	"CONST_PI":    3.14159265358979,
	"CONST_amu":   1.66053886e-24,
	"CONST_au":    1.49597892e13,
	"CONST_c":     2.99792458e10,
	"CONST_G":     6.6726e-8,
	"CONST_h":     6.62606876e-27,
	"CONST_kB":    1.3806505e-16,
	"CONST_ly":    0.9461e18,
	"CONST_mp":    1.67262171e-24,
	"CONST_mn":    1.67492728e-24,
	"CONST_me":    9.1093826e-28,
	"CONST_mH":    1.6733e-24,
	"CONST_Msun":  2.0e33,
	"CONST_Mearth": 5.9736e27,
	"CONST_NA":    6.0221367e23,
	"CONST_pc":    3.0856775807e18,
	"CONST_Rsun":  6.96e10,
	"CONST_sigma": 5.67051e-5,
}

// Constant returns the cgs value of a CONST_* token.
func Constant(name string) (float64, bool) {
	v, ok := physicalConstants[name]
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// LoadDefinitions reads and parses a definitions header file.
func LoadDefinitions(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	meta, err := ParseDefinitions(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return meta, nil
}

// ParseDefinitions parses macro-style definition lines (`#define NAME
// VALUE...`) into a Metadata mapping. Comments, blank lines and all other
// preprocessor directives are skipped. Values are coerced to numbers when
// they parse as one; arithmetic expressions over numeric literals and
// CONST_* tokens are evaluated; anything else is kept as text.
func ParseDefinitions(r io.Reader) (Metadata, error) {
	meta := make(Metadata)
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if i := strings.Index(line, "/*"); i >= 0 {
			if j := strings.Index(line, "*/"); j > i {
				line = strings.TrimSpace(line[:i] + line[j+2:])
			} else {
				line = strings.TrimSpace(line[:i])
			}
		}
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || !strings.HasPrefix(line, "#") {
			continue
		}
		// Whitespace is allowed between '#' and the directive name, and
		// the name must end there: `#defineFOO` is not a definition.
		directive := strings.TrimSpace(line[1:])
		if directive != "define" && !strings.HasPrefix(directive, "define ") &&
			!strings.HasPrefix(directive, "define\t") {
			continue
		}
		rest := strings.TrimSpace(strings.TrimPrefix(directive, "define"))
		if rest == "" {
			return nil, fmt.Errorf("%w: line %d: #define without a name", ErrMalformed, lineno)
		}
		name := rest
		raw := ""
		if i := strings.IndexAny(rest, " \t"); i >= 0 {
			name = rest[:i]
			raw = strings.TrimSpace(rest[i+1:])
		}
		meta[name] = parseDefineValue(raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return meta, nil
}

// parseDefineValue coerces the raw remainder of a #define line.
func parseDefineValue(raw string) Value {
	if raw == "" {
		return Value{}
	}
	toks := strings.Fields(raw)
	if len(toks) == 1 {
		s := ParseScalar(toks[0])
		if s.Numeric {
			return Value{s}
		}
		// A bare physical constant (`#define UNIT_LENGTH CONST_pc`) is a
		// number, not an enum token.
		if v, ok := Constant(toks[0]); ok {
			return Value{Num(v)}
		}
	}
	if v, ok := evaluateExpression(raw); ok {
		return Value{Num(v)}
	}
	out := make(Value, len(toks))
	for i, tok := range toks {
		out[i] = ParseScalar(tok)
	}
	return out
}

// evaluateExpression tries to evaluate raw as an arithmetic expression with
// the physical-constant table bound. Plain enum tokens such as CARTESIAN
// contain no operator and are rejected up front so they stay textual.
func evaluateExpression(raw string) (float64, bool) {
	if !strings.ContainsAny(raw, "+-*/(") {
		return 0, false
	}
	expr, err := govaluate.NewEvaluableExpression(raw)
	if err != nil {
		return 0, false
	}
	res, err := expr.Evaluate(physicalConstants)
	if err != nil {
		return 0, false
	}
	v, ok := res.(float64)
	return v, ok
}
