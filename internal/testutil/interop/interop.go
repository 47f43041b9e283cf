// Package interop holds byte vectors that generated code in every target
// must treat the way the reference codec does. Valid inputs decode and
// re-encode to the same bytes; rejected inputs fail with the same error
// kind.
//
// Target tests feed Input to a small driver program that answers one line
// per case, "ok <hex>" or "err <Kind>", and hand its output to Check.
package interop

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/testutil"
	"github.com/roach88/serdegen/internal/value"
	"github.com/roach88/serdegen/runtime/golang/serde"
)

// Module is the module name target tests generate Registry under.
const Module = "interop"

// MaxDepth is the canonical container depth bound.
const MaxDepth = 500

// Case is one input for one type in one encoding. Reject is zero when
// Input is valid.
type Case struct {
	Name     string
	Type     string
	Encoding encoding.Encoding
	Input    []byte
	Reject   serde.ErrorKind
}

const recordDoc = `{
	"flag": true, "small": -128,
	"big": "340282366920938463463374607431768211455", "signed_big": -5,
	"ratio": 0.5, "name": "x", "id": "dead",
	"tags": ["a", "b"], "counts": [["a", 2], ["k", 1]], "maybe": 7,
	"pos": [1, 2], "digest": [1, 2, 3, 4], "pair": [-1, "p"],
	"events": ["Ping", {"Move": {"dx": 1, "dy": -2}}, {"Pair": [3, true]}],
	"marker": null, "nothing": null
}`

// Registry merges the sample registries with two single-purpose wrappers:
// Table around Map<u8, u8> and Maybe around Option<u8>.
func Registry() *format.Registry {
	reg := format.NewRegistry()
	for _, src := range []*format.Registry{
		testutil.KitchenSinkRegistry(),
		testutil.PointRegistry(),
		testutil.ShapeRegistry(),
		testutil.TreeRegistry(),
	} {
		src.Each(func(name string, c format.ContainerFormat) {
			reg.MustRegister(name, c)
		})
	}
	reg.MustRegister("Table", format.NewTypeStruct{Inner: format.Map{Key: format.U8, Value: format.U8}})
	reg.MustRegister("Maybe", format.NewTypeStruct{Inner: format.Option{Elem: format.U8}})
	return reg
}

// Cases returns every vector. Each one is first checked against the
// reference codec so a target disagreeing with it is the target's fault.
func Cases(t *testing.T) []Case {
	t.Helper()
	reg := Registry()
	codecs := map[encoding.Encoding]*value.Codec{}
	for _, enc := range encoding.All {
		codecs[enc] = value.NewCodec(reg, enc)
	}

	record, err := value.FromJSON(reg, "Record", []byte(recordDoc))
	require.NoError(t, err)

	var cases []Case
	for _, enc := range encoding.All {
		data, err := codecs[enc].Encode("Record", record)
		require.NoError(t, err)
		cases = append(cases, Case{Name: "record", Type: "Record", Encoding: enc, Input: data})

		shape, err := codecs[enc].Encode("Shape", value.Variant{Name: "Square", Payload: value.U64(9)})
		require.NoError(t, err)
		cases = append(cases, Case{Name: "shape", Type: "Shape", Encoding: enc, Input: shape})
	}

	deepest, err := codecs[encoding.Canonical].Encode("Tree", nestedTree(MaxDepth))
	require.NoError(t, err)
	// One more Tree level wrapped around deepest: value, no children, left.
	tooDeep := append(mustHex(t, "0000000000000000 00 01"), deepest...)

	cases = append(cases,
		Case{Name: "tree-at-limit", Type: "Tree", Encoding: encoding.Canonical, Input: deepest},
		reject(t, "non-minimal-length", "Table", encoding.Canonical, "80 00", serde.NonMinimalEncoding),
		reject(t, "unsorted-map", "Table", encoding.Canonical, "02 02 14 01 0A", serde.MapNotSorted),
		reject(t, "duplicate-key", "Table", encoding.Canonical, "02 01 0A 01 0B", serde.DuplicateKey),
		reject(t, "trailing-bytes", "Maybe", encoding.Canonical, "00 00", serde.TrailingBytes),
		reject(t, "trailing-bytes", "Maybe", encoding.NonCanonical, "01 05 00", serde.TrailingBytes),
		reject(t, "option-tag", "Maybe", encoding.Canonical, "02 07", serde.InvalidTag),
		reject(t, "unknown-variant", "Shape", encoding.Canonical, "02 05000000", serde.UnknownVariant),
		reject(t, "short-input", "Point", encoding.Canonical, "01000000 0200", serde.UnexpectedEndOfInput),
		Case{Name: "tree-over-limit", Type: "Tree", Encoding: encoding.Canonical, Input: tooDeep, Reject: serde.MaxDepthExceeded},
	)

	for _, c := range cases {
		_, err := codecs[c.Encoding].Decode(c.Type, c.Input)
		if c.Reject == 0 {
			require.NoError(t, err, c.Name)
			continue
		}
		require.True(t, errors.Is(err, &serde.Error{Kind: c.Reject}), "%s: got %v", c.Name, err)
	}
	return cases
}

func reject(t *testing.T, name, typeName string, enc encoding.Encoding, h string, kind serde.ErrorKind) Case {
	t.Helper()
	return Case{Name: name, Type: typeName, Encoding: enc, Input: mustHex(t, h), Reject: kind}
}

// nestedTree builds depth Trees, each the left child of the one above.
func nestedTree(depth int) value.Value {
	var tree value.Value
	left := value.None
	for i := 0; i < depth; i++ {
		tree = value.Struct{
			{Name: "value", Value: value.U64(uint64(i))},
			{Name: "children", Value: value.Seq{}},
			{Name: "left", Value: left},
		}
		left = value.Some(tree)
	}
	return tree
}

// Types lists the distinct type names in cases, sorted.
func Types(cases []Case) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range cases {
		if !seen[c.Type] {
			seen[c.Type] = true
			out = append(out, c.Type)
		}
	}
	sort.Strings(out)
	return out
}

// Input renders cases as driver input, one "<Type> <runtime> <hex>" line
// each.
func Input(cases []Case) string {
	var b strings.Builder
	for _, c := range cases {
		fmt.Fprintf(&b, "%s %s %s\n", c.Type, c.Encoding.Runtime(), hex.EncodeToString(c.Input))
	}
	return b.String()
}

// Check matches driver output line by line against cases.
func Check(t *testing.T, cases []Case, output string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, len(cases), output)
	for i, c := range cases {
		label := fmt.Sprintf("%s/%s/%s", c.Name, c.Type, c.Encoding)
		want := "ok " + hex.EncodeToString(c.Input)
		if c.Reject != 0 {
			want = "err " + c.Reject.String()
		}
		assert.Equal(t, want, strings.TrimSpace(lines[i]), label)
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}
