package harness

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/runtime/golang/serde"
)

// Suite is a set of conformance vectors over one registry.
type Suite struct {
	// Name uniquely identifies this suite.
	Name string `yaml:"name"`

	// Description explains what this suite covers.
	Description string `yaml:"description"`

	// Registry is the path of the registry document. LoadSuite resolves
	// it relative to the suite file.
	Registry string `yaml:"registry"`

	Vectors []Vector `yaml:"vectors"`
}

// Vector is one value and its expected encodings.
type Vector struct {
	Name string `yaml:"name"`

	// Type is the registry container the bytes encode.
	Type string `yaml:"type"`

	// Value is the expected value in the JSON mapping. Required when
	// Canonical or NonCanonical is set.
	Value yaml.Node `yaml:"value"`

	// Decoded overrides Value as the expected result of deserializing.
	Decoded yaml.Node `yaml:"decoded"`

	// Canonical and NonCanonical are the expected encodings as hex.
	Canonical    string `yaml:"canonical,omitempty"`
	NonCanonical string `yaml:"noncanonical,omitempty"`

	Reject []Rejection `yaml:"reject,omitempty"`
}

// Rejection is an input one encoding must refuse.
type Rejection struct {
	Encoding string `yaml:"encoding"`
	Hex      string `yaml:"hex"`

	// Error is the serde error kind, e.g. "MapNotSorted".
	Error string `yaml:"error"`
}

// Expected returns the expected bytes for enc and whether the vector
// lists them.
func (v *Vector) Expected(enc encoding.Encoding) ([]byte, bool, error) {
	s := v.Canonical
	if enc == encoding.NonCanonical {
		s = v.NonCanonical
	}
	if s == "" {
		return nil, false, nil
	}
	b, err := decodeHex(s)
	return b, true, err
}

func decodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
	if err != nil {
		return nil, errors.Wrap(err, "hex")
	}
	return b, nil
}

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read suite file")
	}

	// Reject unknown fields so typos like "noncannonical:" fail loudly.
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&suite); err != nil {
		return nil, errors.Wrap(err, "parse suite YAML")
	}

	if suite.Registry != "" && !filepath.IsAbs(suite.Registry) {
		suite.Registry = filepath.Join(filepath.Dir(path), suite.Registry)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, errors.Wrap(err, "invalid suite")
	}
	return &suite, nil
}

// LoadSuites loads every .yaml file in dir, sorted by file name.
func LoadSuites(dir string) ([]*Suite, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, errors.Wrap(err, "scan suites")
	}
	if len(paths) == 0 {
		return nil, errors.Newf("no suites found in %s", dir)
	}
	suites := make([]*Suite, 0, len(paths))
	for _, p := range paths {
		s, err := LoadSuite(p)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", filepath.Base(p))
		}
		suites = append(suites, s)
	}
	return suites, nil
}

func validateSuite(s *Suite) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Description == "" {
		return errors.New("description is required")
	}
	if s.Registry == "" {
		return errors.New("registry is required")
	}
	if _, err := os.Stat(s.Registry); os.IsNotExist(err) {
		return errors.Newf("registry not found: %s", s.Registry)
	}
	if len(s.Vectors) == 0 {
		return errors.New("vectors list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Vectors))
	for i := range s.Vectors {
		v := &s.Vectors[i]
		if v.Name == "" {
			return errors.Newf("vectors[%d]: name is required", i)
		}
		if names[v.Name] {
			return errors.Newf("vectors[%d]: duplicate name %q", i, v.Name)
		}
		names[v.Name] = true
		if v.Type == "" {
			return errors.Newf("vectors[%d]: type is required", i)
		}
		if v.Canonical == "" && v.NonCanonical == "" && len(v.Reject) == 0 {
			return errors.Newf("vectors[%d]: at least one of canonical, noncanonical or reject is required", i)
		}
		if (v.Canonical != "" || v.NonCanonical != "") && v.Value.Kind == 0 {
			return errors.Newf("vectors[%d]: value is required with an expected encoding", i)
		}
		for _, enc := range encoding.All {
			if _, _, err := v.Expected(enc); err != nil {
				return errors.Wrapf(err, "vectors[%d].%s", i, enc)
			}
		}
		for j, r := range v.Reject {
			if _, err := encoding.Parse(r.Encoding); err != nil {
				return errors.Wrapf(err, "vectors[%d].reject[%d]", i, j)
			}
			if _, err := decodeHex(r.Hex); err != nil {
				return errors.Wrapf(err, "vectors[%d].reject[%d]", i, j)
			}
			if _, ok := serde.ParseErrorKind(r.Error); !ok {
				return errors.Newf("vectors[%d].reject[%d]: unknown error kind %q", i, j, r.Error)
			}
		}
	}
	return nil
}
