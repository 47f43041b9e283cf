package value

import (
	"encoding/hex"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/testutil"
	"github.com/roach88/serdegen/runtime/golang/serde"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

func optionU8Registry() *format.Registry {
	return format.NewRegistry().MustRegister("Maybe", format.NewTypeStruct{Inner: format.Option{Elem: format.U8}})
}

func mapRegistry() *format.Registry {
	return format.NewRegistry().MustRegister("Table", format.NewTypeStruct{Inner: format.Map{Key: format.U8, Value: format.U8}})
}

func TestCanonical_Vectors(t *testing.T) {
	tests := []struct {
		name     string
		reg      *format.Registry
		typeName string
		value    Value
		want     string
	}{
		{
			name:     "struct",
			reg:      testutil.PointRegistry(),
			typeName: "Point",
			value:    Struct{{Name: "x", Value: U64(1)}, {Name: "y", Value: U64(2)}},
			want:     "01000000 02000000",
		},
		{
			name:     "enum",
			reg:      testutil.ShapeRegistry(),
			typeName: "Shape",
			value:    Variant{Index: 1, Name: "Square", Payload: U64(5)},
			want:     "01 05000000",
		},
		{
			name:     "none",
			reg:      optionU8Registry(),
			typeName: "Maybe",
			value:    None,
			want:     "00",
		},
		{
			name:     "some",
			reg:      optionU8Registry(),
			typeName: "Maybe",
			value:    Some(U64(7)),
			want:     "01 07",
		},
		{
			name:     "map sorted by key bytes",
			reg:      mapRegistry(),
			typeName: "Table",
			value:    Map{{Key: U64(2), Value: U64(20)}, {Key: U64(1), Value: U64(10)}},
			want:     "02 01 0A 02 14",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewCodec(tt.reg, encoding.Canonical)
			got, err := codec.Encode(tt.typeName, tt.value)
			require.NoError(t, err)
			assert.Equal(t, mustHex(t, tt.want), got)

			back, err := codec.Decode(tt.typeName, got)
			require.NoError(t, err)
			assert.True(t, Equal(tt.value, back), "round trip: %#v", back)
		})
	}
}

func TestCanonical_NonMinimalLength(t *testing.T) {
	reg := format.NewRegistry().MustRegister("Name", format.NewTypeStruct{Inner: format.Str})
	codec := NewCodec(reg, encoding.Canonical)

	v, err := codec.Decode("Name", mustHex(t, "80 00"))
	assert.ErrorIs(t, err, serde.ErrNonMinimalEncoding)
	assert.Nil(t, v)
}

func TestNonCanonical_Vectors(t *testing.T) {
	codec := NewCodec(testutil.ShapeRegistry(), encoding.NonCanonical)
	got, err := codec.Encode("Shape", Variant{Name: "Square", Payload: U64(5)})
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "01000000 05000000"), got)

	m := NewCodec(mapRegistry(), encoding.NonCanonical)
	got, err = m.Encode("Table", Map{{Key: U64(2), Value: U64(20)}, {Key: U64(1), Value: U64(10)}})
	require.NoError(t, err)
	assert.Equal(t, mustHex(t, "0200000000000000 0214 010A"), got, "insertion order kept")

	back, err := m.Decode("Table", got)
	require.NoError(t, err, "unsorted keys accepted")
	assert.Len(t, back.(Map), 2)
}

func kitchenSinkValue() Value {
	big128, _ := new(big.Int).SetString("340282366920938463463374607431768211455", 10)
	return Struct{
		{Name: "flag", Value: Bool(true)},
		{Name: "small", Value: I64(-128)},
		{Name: "big", Value: Int{V: big128}},
		{Name: "signed_big", Value: I64(-5)},
		{Name: "ratio", Value: Float(math.Pi)},
		{Name: "name", Value: String("naïve")},
		{Name: "id", Value: Bytes{0xde, 0xad}},
		{Name: "tags", Value: Seq{String("a"), String("bb")}},
		{Name: "counts", Value: Map{
			{Key: String("zz"), Value: U64(1)},
			{Key: String("a"), Value: U64(2)},
			{Key: String("ab"), Value: U64(3)},
		}},
		{Name: "maybe", Value: Some(U64(65535))},
		{Name: "pos", Value: Tuple{Float32(1.5), Float32(-2.25)}},
		{Name: "digest", Value: Tuple{U64(1), U64(2), U64(3), U64(4)}},
		{Name: "pair", Value: Tuple{I64(-1), String("")}},
		{Name: "events", Value: Seq{
			Variant{Name: "Ping", Payload: Unit{}},
			Variant{Name: "Move", Payload: Struct{{Name: "dx", Value: I64(3)}, {Name: "dy", Value: I64(-4)}}},
			Variant{Name: "Pair", Payload: Tuple{U64(9), Bool(false)}},
		}},
		{Name: "marker", Value: Unit{}},
		{Name: "nothing", Value: Unit{}},
	}
}

func TestRoundTrip_AllFormats(t *testing.T) {
	reg := testutil.KitchenSinkRegistry()
	for _, enc := range encoding.All {
		t.Run(string(enc), func(t *testing.T) {
			codec := NewCodec(reg, enc)
			v := kitchenSinkValue()

			first, err := codec.Encode("Record", v)
			require.NoError(t, err)
			second, err := codec.Encode("Record", v)
			require.NoError(t, err)
			assert.Equal(t, first, second, "encoding is deterministic")

			back, err := codec.Decode("Record", first)
			require.NoError(t, err)
			assert.True(t, Equal(v, back))

			again, err := codec.Encode("Record", back)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		})
	}
}

func TestRoundTrip_Recursive(t *testing.T) {
	reg := testutil.ExprRegistry()
	codec := NewCodec(reg, encoding.Canonical)
	v := Variant{Name: "Block", Payload: Struct{
		{Name: "expr", Value: Variant{Name: "Neg", Payload: Variant{Name: "Lit", Payload: I64(42)}}},
		{Name: "next", Value: Some(Struct{
			{Name: "expr", Value: Variant{Name: "Lit", Payload: I64(-1)}},
			{Name: "next", Value: None},
		})},
	}}
	b, err := codec.Encode("Expr", v)
	require.NoError(t, err)
	back, err := codec.Decode("Expr", b)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))
}

// Every single-byte mutation of a canonical encoding must either fail to
// decode or decode to a different value.
func TestCanonicality_SingleByteMutations(t *testing.T) {
	reg := testutil.KitchenSinkRegistry()
	codec := NewCodec(reg, encoding.Canonical)
	v := kitchenSinkValue()
	valid, err := codec.Encode("Record", v)
	require.NoError(t, err)

	for i := range valid {
		for _, flip := range []byte{0x01, 0x80, 0xff} {
			mutated := append([]byte(nil), valid...)
			mutated[i] ^= flip
			got, err := codec.Decode("Record", mutated)
			if err != nil {
				assert.Nil(t, got)
				continue
			}
			again, err := codec.Encode("Record", got)
			require.NoError(t, err)
			assert.Equal(t, mutated, again, "byte %d flip %#x decoded to a value with another encoding", i, flip)
			assert.False(t, Equal(v, got), "byte %d flip %#x decoded to the same value", i, flip)
		}
	}
}

func TestCanonicality_Truncation(t *testing.T) {
	codec := NewCodec(testutil.KitchenSinkRegistry(), encoding.Canonical)
	valid, err := codec.Encode("Record", kitchenSinkValue())
	require.NoError(t, err)
	for n := 0; n < len(valid); n++ {
		_, err := codec.Decode("Record", valid[:n])
		require.Error(t, err, "prefix of length %d decoded", n)
	}
}

func TestCanonicality_NamedFailures(t *testing.T) {
	tests := []struct {
		name  string
		reg   *format.Registry
		typ   string
		input string
		want  error
	}{
		{"reversed map", mapRegistry(), "Table", "02 02 14 01 0A", serde.ErrMapNotSorted},
		{"duplicate key", mapRegistry(), "Table", "02 01 0A 01 0B", serde.ErrDuplicateKey},
		{"non-minimal map length", mapRegistry(), "Table", "81 00 01 0A", serde.ErrNonMinimalEncoding},
		{"option tag", optionU8Registry(), "Maybe", "02 07", serde.ErrInvalidTag},
		{"trailing bytes", optionU8Registry(), "Maybe", "00 00", serde.ErrTrailingBytes},
		{"unknown variant", testutil.ShapeRegistry(), "Shape", "02 05000000", serde.ErrUnknownVariant},
		{"non-minimal variant", testutil.ShapeRegistry(), "Shape", "81 00 05000000", serde.ErrNonMinimalEncoding},
		{"short integer", testutil.PointRegistry(), "Point", "01000000 0200", serde.ErrUnexpectedEndOfInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewCodec(tt.reg, encoding.Canonical)
			v, err := codec.Decode(tt.typ, mustHex(t, tt.input))
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, v)
		})
	}
}

func TestDecode_InvalidUtf8(t *testing.T) {
	reg := format.NewRegistry().MustRegister("Name", format.NewTypeStruct{Inner: format.Str})
	_, err := NewCodec(reg, encoding.Canonical).Decode("Name", []byte{0x02, 0xc3, 0x28})
	assert.ErrorIs(t, err, serde.ErrInvalidUtf8)
}

func TestDecode_MaxDepth(t *testing.T) {
	reg := format.NewRegistry().MustRegister("List", format.Struct{Fields: []format.Named{
		{Name: "next", Format: format.Option{Elem: format.TypeName{Name: "List"}}},
	}})
	codec := NewCodec(reg, encoding.Canonical)

	ok := append(repeat(0x01, 499), 0x00)
	_, err := codec.Decode("List", ok)
	require.NoError(t, err)

	deep := append(repeat(0x01, 500), 0x00)
	_, err = codec.Decode("List", deep)
	assert.ErrorIs(t, err, serde.ErrMaxDepthExceeded)

	// the interop encoding has no depth bound
	_, err = NewCodec(reg, encoding.NonCanonical).Decode("List", deep)
	assert.NoError(t, err)
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestEncode_Mismatch(t *testing.T) {
	codec := NewCodec(testutil.PointRegistry(), encoding.Canonical)

	_, err := codec.Encode("Point", Tuple{U64(1), U64(2)})
	var mm *MismatchError
	assert.ErrorAs(t, err, &mm)

	_, err = codec.Encode("Point", Struct{{Name: "x", Value: U64(1)}, {Name: "y", Value: U64(1 << 32)}})
	assert.ErrorContains(t, err, "does not fit in U32")

	_, err = codec.Encode("Nope", Unit{})
	assert.ErrorContains(t, err, "unknown container")
}

func TestEqual_MapIsUnordered(t *testing.T) {
	a := Map{{Key: U64(1), Value: U64(2)}, {Key: U64(3), Value: U64(4)}}
	b := Map{{Key: U64(3), Value: U64(4)}, {Key: U64(1), Value: U64(2)}}
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, Map{{Key: U64(1), Value: U64(2)}}))
	assert.True(t, Equal(Float(math.NaN()), Float(math.NaN())))
	assert.False(t, Equal(None, Some(Unit{})))
}

func TestEqual_VariantByName(t *testing.T) {
	codec := NewCodec(testutil.ShapeRegistry(), encoding.Canonical)
	v := Variant{Name: "Square", Payload: U64(5)}

	b, err := codec.Encode("Shape", v)
	require.NoError(t, err)
	back, err := codec.Decode("Shape", b)
	require.NoError(t, err)
	assert.True(t, Equal(v, back))

	assert.True(t, Equal(Variant{Index: 1, Payload: U64(5)}, back))
	assert.False(t, Equal(Variant{Name: "Circle", Payload: U64(5)}, back))
	assert.False(t, Equal(Variant{Index: 0, Payload: U64(5)}, back))
}

func TestEncode_DuplicateMapKey(t *testing.T) {
	for _, enc := range encoding.All {
		t.Run(string(enc), func(t *testing.T) {
			codec := NewCodec(mapRegistry(), enc)
			_, err := codec.Encode("Table", Map{{Key: U64(1), Value: U64(10)}, {Key: U64(1), Value: U64(11)}})
			assert.ErrorIs(t, err, serde.ErrDuplicateKey)

			_, err = codec.Encode("Table", Map{{Key: U64(1), Value: U64(10)}, {Key: U64(2), Value: U64(11)}})
			assert.NoError(t, err)
		})
	}
}
