package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const shapesYAML = `
Shape:
  ENUM:
    0:
      Circle:
        NEWTYPE: U32
    1:
      Square:
        STRUCT:
          - side: U32
          - label:
              OPTION: STR
    5:
      Empty: UNIT
Point:
  STRUCT:
    - x: U32
    - y: U32
Ids:
  NEWTYPESTRUCT:
    SEQ:
      TUPLEARRAY:
        CONTENT: U8
        SIZE: 2
Pair:
  TUPLESTRUCT:
    - I8
    - TYPENAME: Point
Index:
  NEWTYPESTRUCT:
    MAP:
      KEY: STR
      VALUE:
        TUPLE: [BOOL, F64]
Marker: UNITSTRUCT
`

func TestParseYAML(t *testing.T) {
	reg, err := ParseYAML([]byte(shapesYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"Shape", "Point", "Ids", "Pair", "Index", "Marker"}, reg.Names())

	shape, _ := reg.Lookup("Shape")
	e, ok := shape.(Enum)
	require.True(t, ok)
	require.Len(t, e.Variants, 3)
	assert.Equal(t, uint32(5), e.Variants[2].Index)
	assert.Equal(t, StructVariant{Fields: []Named{
		{Name: "side", Format: U32},
		{Name: "label", Format: Option{Elem: Str}},
	}}, e.Variants[1].Payload)

	ids, _ := reg.Lookup("Ids")
	assert.Equal(t, NewTypeStruct{Inner: Seq{Elem: TupleArray{Content: U8, Size: 2}}}, ids)

	pair, _ := reg.Lookup("Pair")
	assert.Equal(t, TupleStruct{Elems: []Format{I8, TypeName{Name: "Point"}}}, pair)

	index, _ := reg.Lookup("Index")
	assert.Equal(t, NewTypeStruct{Inner: Map{Key: Str, Value: Tuple{Elems: []Format{Bool, F64}}}}, index)

	require.NoError(t, Validate(reg))
}

func TestJSON_RoundTripKeepsOrder(t *testing.T) {
	reg, err := ParseYAML([]byte(shapesYAML))
	require.NoError(t, err)

	data, err := reg.MarshalJSON()
	require.NoError(t, err)

	back, err := ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, reg.Names(), back.Names())
	assert.Equal(t, Hash(reg), Hash(back))

	var viaMethod Registry
	require.NoError(t, viaMethod.UnmarshalJSON(data))
	assert.Equal(t, reg.Names(), viaMethod.Names())
}

func TestJSON_Shape(t *testing.T) {
	reg := NewRegistry().MustRegister("Point", Struct{Fields: []Named{
		{Name: "x", Format: U32},
		{Name: "y", Format: TupleArray{Content: U8, Size: 3}},
	}})
	data, err := reg.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Point": {"STRUCT": [{"x": "U32"}, {"y": {"TUPLEARRAY": {"CONTENT": "U8", "SIZE": 3}}}]}}`, string(data))
}

func TestYAML_RoundTrip(t *testing.T) {
	reg, err := ParseYAML([]byte(shapesYAML))
	require.NoError(t, err)

	out, err := EncodeYAML(reg)
	require.NoError(t, err)
	assert.Contains(t, string(out), "0:\n")

	back, err := ParseYAML(out)
	require.NoError(t, err)
	assert.Equal(t, Hash(reg), Hash(back))

	var viaMethod Registry
	require.NoError(t, yaml.Unmarshal(out, &viaMethod))
	assert.Equal(t, reg.Names(), viaMethod.Names())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
	}{
		{"unknown primitive", `{"A": {"NEWTYPESTRUCT": "U7"}}`, ErrUnknownTag},
		{"unknown container", `{"A": {"RECORD": []}}`, ErrUnknownTag},
		{"bad enum index", `{"A": {"ENUM": {"x": {"V": "UNIT"}}}}`, ErrMalformedDocument},
		{"map missing value", `{"A": {"NEWTYPESTRUCT": {"MAP": {"KEY": "U8"}}}}`, ErrMalformedDocument},
		{"struct not a list", `{"A": {"STRUCT": {"x": "U8"}}}`, ErrMalformedDocument},
		{"duplicate container", `{"A": "UNITSTRUCT", "A": "UNITSTRUCT"}`, ErrDuplicateName},
		{"not an object", `[1, 2]`, ErrMalformedDocument},
		{"null format", `{"A": {"NEWTYPESTRUCT": null}}`, ErrMalformedDocument},
		{"trailing data", `{} {}`, ErrMalformedDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJSON([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParseYAML_ErrorsCarryLocation(t *testing.T) {
	_, err := ParseYAML([]byte("Point:\n  STRUCT:\n    - x: U33\n"))
	require.Error(t, err)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Point.x", ve.Field)
	assert.Contains(t, ve.Message, "line 3")
}

func TestParseYAML_Empty(t *testing.T) {
	reg, err := ParseYAML([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}
