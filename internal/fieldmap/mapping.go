package fieldmap

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/fundamentals-cli/internal/model"
)

//go:embed mappings.yaml
var builtinMappings []byte

// FieldVariants binds one canonical field to the provider labels that may
// carry it, in priority order.
type FieldVariants struct {
	Field    string   `yaml:"field"`
	Variants []string `yaml:"variants"`
}

// Mapping is the ordered label-variant table for one market. When several
// variants of a field appear in one payload, the first listed variant found
// wins.
type Mapping struct {
	Market model.Market
	Fields []FieldVariants
}

// LoadMappings parses a mapping document keyed by market. Unknown canonical
// field names are rejected so a typo in the table fails loudly at startup
// rather than silently dropping data.
func LoadMappings(data []byte) (map[model.Market]*Mapping, error) {
	var doc map[string][]FieldVariants
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "fieldmap: parse mappings")
	}

	out := make(map[model.Market]*Mapping, len(doc))
	for market, fields := range doc {
		for _, fv := range fields {
			if !model.IsCanonicalField(fv.Field) {
				return nil, eris.Errorf("fieldmap: %s mapping references unknown field %q", market, fv.Field)
			}
			if len(fv.Variants) == 0 {
				return nil, eris.Errorf("fieldmap: %s mapping for %q has no variants", market, fv.Field)
			}
		}
		out[model.Market(market)] = &Mapping{
			Market: model.Market(market),
			Fields: fields,
		}
	}
	return out, nil
}

// BuiltinMappings returns the embedded per-market mapping tables.
func BuiltinMappings() (map[model.Market]*Mapping, error) {
	return LoadMappings(builtinMappings)
}

// MappingsFromFile loads mapping tables from an override file on disk,
// falling back to the embedded tables when path is empty.
func MappingsFromFile(path string) (map[model.Market]*Mapping, error) {
	if path == "" {
		return BuiltinMappings()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fieldmap: read mappings %s", path)
	}
	return LoadMappings(data)
}
