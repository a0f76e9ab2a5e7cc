package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// aliasFile is the on-disk shape of the alias tables:
//
//	businesses:
//	  happy-paws-kennels:
//	    "small dog": S
//	    "toy breed": XS
type aliasFile struct {
	Businesses map[string]map[string]Band `yaml:"businesses"`
}

// LoadAliases reads per-business size alias tables from a YAML file
// and returns a Mapper over them. A missing file yields an empty
// Mapper so weight-hint mapping still works.
func LoadAliases(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewMapper(nil), nil
		}
		return nil, eris.Wrap(err, "normalize: read alias file")
	}

	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "normalize: parse alias file")
	}

	for businessID, table := range f.Businesses {
		for label, band := range table {
			if !validBand(band) {
				return nil, eris.Errorf("normalize: invalid band %q for %s/%s", band, businessID, label)
			}
		}
	}

	return NewMapper(f.Businesses), nil
}

func validBand(b Band) bool {
	for _, known := range AllBands() {
		if b == known {
			return true
		}
	}
	return false
}
