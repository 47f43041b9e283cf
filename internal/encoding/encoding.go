// Package encoding names the two binary encodings and binds each to its
// Go runtime implementation.
package encoding

import (
	"fmt"
	"strings"

	"github.com/roach88/serdegen/runtime/golang/bincode"
	"github.com/roach88/serdegen/runtime/golang/lcs"
	"github.com/roach88/serdegen/runtime/golang/serde"
)

// Encoding selects a wire format.
type Encoding string

const (
	// Canonical is the deterministic LCS-style encoding.
	Canonical Encoding = "canonical"
	// NonCanonical is the bincode-style interop encoding.
	NonCanonical Encoding = "noncanonical"
)

// All lists the encodings in a fixed order.
var All = []Encoding{Canonical, NonCanonical}

// Parse accepts the encoding name or its runtime name ("lcs", "bincode").
func Parse(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "canonical", "lcs":
		return Canonical, nil
	case "noncanonical", "non-canonical", "bincode":
		return NonCanonical, nil
	}
	return "", fmt.Errorf("unknown encoding %q (want canonical or noncanonical)", s)
}

// Runtime returns the runtime module name implementing the encoding.
func (e Encoding) Runtime() string {
	if e == NonCanonical {
		return "bincode"
	}
	return "lcs"
}

// Title is the runtime name with a leading capital, as used in generated
// method names (LcsSerialize, BincodeDeserialize).
func (e Encoding) Title() string {
	r := e.Runtime()
	return strings.ToUpper(r[:1]) + r[1:]
}

func (e Encoding) String() string { return string(e) }

// Deserializer is a runtime deserializer that can check for trailing
// input.
type Deserializer interface {
	serde.Deserializer
	CheckEnd() error
}

// NewSerializer returns a fresh runtime serializer.
func (e Encoding) NewSerializer() serde.Serializer {
	if e == NonCanonical {
		return bincode.NewSerializer()
	}
	return lcs.NewSerializer()
}

// NewDeserializer returns a runtime deserializer over input.
func (e Encoding) NewDeserializer(input []byte) Deserializer {
	if e == NonCanonical {
		return bincode.NewDeserializer(input)
	}
	return lcs.NewDeserializer(input)
}
