package params

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/ini.v1"
)

// LoadIni reads and parses a run configuration ini file.
func LoadIni(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	meta, err := ParseIni(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return meta, nil
}

// ParseIni parses `[section]` headers and `key = value` lines into a
// Metadata mapping with keys namespaced as `section.key`. Values are
// whitespace-tokenized and each token coerced to a number when it parses
// as one. A duplicated key within a section is malformed: last-wins would
// silently hide a misconfiguration.
func ParseIni(data []byte) (Metadata, error) {
	// The codes separate keys from values with whitespace, not '='.
	// Shadow values must not be deduplicated: a key repeated with the
	// same value is still a duplicate.
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowShadows:               true,
		AllowDuplicateShadowValues: true,
		KeyValueDelimiters:         "=: \t",
	}, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	meta := make(Metadata)
	for _, sec := range f.Sections() {
		for _, key := range sec.Keys() {
			if vals := key.ValueWithShadows(); len(vals) > 1 {
				return nil, fmt.Errorf("%w: duplicate key %q in section [%s]",
					ErrMalformed, key.Name(), sec.Name())
			}
			name := key.Name()
			if sec.Name() != ini.DefaultSection {
				name = sec.Name() + "." + name
			}
			toks := strings.Fields(key.Value())
			val := make(Value, len(toks))
			for i, tok := range toks {
				val[i] = ParseScalar(tok)
			}
			meta[name] = val
		}
	}
	return meta, nil
}
