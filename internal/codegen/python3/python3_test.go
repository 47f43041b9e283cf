package python3

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/resolver"
	"github.com/roach88/serdegen/internal/testutil"
)

func generate(t *testing.T, reg *format.Registry, cfg codegen.Config) string {
	t.Helper()
	g := New()
	src, err := g.Generate(reg, resolver.Resolve(reg), cfg, g.NewNamer())
	require.NoError(t, err)
	require.Len(t, src.Files, 1)
	assert.Equal(t, "__init__.py", src.Files[0].Path)
	assert.Equal(t, codegen.SourceFile, src.Files[0].Kind)
	return string(src.Files[0].Content)
}

func generateErr(t *testing.T, reg *format.Registry, cfg codegen.Config) error {
	t.Helper()
	g := New()
	_, err := g.Generate(reg, resolver.Resolve(reg), cfg, g.NewNamer())
	require.Error(t, err)
	return err
}

func TestGenerate_PointGolden(t *testing.T) {
	out := generate(t, testutil.PointRegistry(), codegen.Config{ModuleName: "point"})

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "point", []byte(out))
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := codegen.Config{ModuleName: "kitchen", Encodings: encoding.All}
	first := generate(t, testutil.KitchenSinkRegistry(), cfg)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, generate(t, testutil.KitchenSinkRegistry(), cfg))
	}
}

func TestGenerate_KitchenSink(t *testing.T) {
	out := generate(t, testutil.KitchenSinkRegistry(), codegen.Config{ModuleName: "kitchen", Encodings: encoding.All})

	for _, want := range []string{
		"import bincode\nimport lcs\nimport serde_binary as sb\nimport serde_types as st\n",
		"class Unit:\n    def serialize(",
		"class Id:\n    value: bytes\n",
		"class Pair:\n    field0: st.int32\n    field1: str\n",
		"class Event:\n",
		"class Event__Ping(Event):\n    INDEX = 0\n",
		"class Event__Move(Event):\n    INDEX = 1\n\n    dx: st.int16\n    dy: st.int16\n",
		"class Event__Pair(Event):\n    INDEX = 2\n\n    field0: st.uint8\n    field1: bool\n",
		"    big: st.uint128\n",
		"    signed_big: st.int128\n",
		"    ratio: st.float64\n",
		"    counts: typing.Dict[str, st.uint32]\n",
		"    maybe: typing.Optional[st.uint16]\n",
		"    pos: typing.Tuple[st.float32, st.float32]\n",
		"    digest: typing.Tuple[st.uint8, ...]\n",
		"    events: typing.List[Event]\n",
		"    nothing: st.unit\n",
		"serializer.serialize_variant_index(1)",
		`raise st.SerdeError(st.ErrorKind.UNKNOWN_VARIANT, "Event: %d" % index)`,
		"def _serialize_map_str_to_u32(value: typing.Dict[str, st.uint32], serializer: sb.BinarySerializer) -> None:",
		"deserializer.check_that_key_slices_are_increasing(previous_key_slice, (key_start, key_end))",
		"return tuple(deserializer.deserialize_u8() for _ in range(4))",
		"return (deserializer.deserialize_f32(), deserializer.deserialize_f32(),)",
		"def bincode_deserialize(content: bytes) -> Record:",
		"return bincode.from_bytes(content, Record)",
	} {
		assert.Contains(t, out, want)
	}
}

func TestGenerate_HelpersSorted(t *testing.T) {
	out := generate(t, testutil.KitchenSinkRegistry(), codegen.Config{ModuleName: "kitchen"})

	var names []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "def _serialize_") {
			names = append(names, strings.SplitN(strings.TrimPrefix(line, "def _serialize_"), "(", 2)[0])
		}
	}
	assert.Equal(t, []string{
		"array4_u8_array",
		"map_str_to_u32",
		"option_u16",
		"tuple2_f32_f32",
		"vector_Event",
		"vector_str",
	}, names)
}

func TestGenerate_Recursive(t *testing.T) {
	out := generate(t, testutil.ExprRegistry(), codegen.Config{ModuleName: "expr"})
	assert.Contains(t, out, "class Expr__Neg(Expr):\n    INDEX = 1\n\n    value: Expr\n")
	assert.Contains(t, out, "    next: typing.Optional[Stmt]\n")
	assert.Contains(t, out, "return Stmt.deserialize(deserializer)")
}

func TestGenerate_ReservedNames(t *testing.T) {
	reg := format.NewRegistry().MustRegister("Token", format.Struct{Fields: []format.Named{
		{Name: "class", Format: format.Str},
		{Name: "serialize", Format: format.U8},
		{Name: "self", Format: format.Bool},
	}})
	out := generate(t, reg, codegen.Config{ModuleName: "token"})
	assert.Contains(t, out, "    class_: str\n    serialize_: st.uint8\n    self_: bool\n")
	assert.Contains(t, out, "serializer.serialize_u8(self.serialize_)")
}

func TestGenerate_NameCollision(t *testing.T) {
	reg := format.NewRegistry()
	reg.MustRegister("my_type", format.UnitStruct{})
	reg.MustRegister("MyType", format.UnitStruct{})
	err := generateErr(t, reg, codegen.Config{ModuleName: "clash"})
	assert.Equal(t, codegen.ErrNameCollision, codegen.Code(err))
}

func TestGenerate_UnhashableMapKey(t *testing.T) {
	reg := format.NewRegistry()
	reg.MustRegister("Key", format.Struct{Fields: []format.Named{{Name: "parts", Format: format.Seq{Elem: format.Str}}}})
	reg.MustRegister("Index", format.Struct{Fields: []format.Named{
		{Name: "entries", Format: format.Map{Key: format.TypeName{Name: "Key"}, Value: format.U8}},
	}})
	err := generateErr(t, reg, codegen.Config{ModuleName: "index"})
	assert.Equal(t, codegen.ErrUnsupportedShape, codegen.Code(err))
	assert.Contains(t, err.Error(), "Index.entries")
}

func TestGenerate_FloatMapKey(t *testing.T) {
	reg := format.NewRegistry()
	reg.MustRegister("Sample", format.NewTypeStruct{Inner: format.F32})
	reg.MustRegister("Index", format.Struct{Fields: []format.Named{
		{Name: "by_sample", Format: format.Map{Key: format.TypeName{Name: "Sample"}, Value: format.U8}},
	}})
	err := generateErr(t, reg, codegen.Config{ModuleName: "index"})
	assert.Equal(t, codegen.ErrUnsupportedShape, codegen.Code(err))
	assert.Contains(t, err.Error(), "-0.0")
}

func TestGenerate_AmbiguousOption(t *testing.T) {
	for name, f := range map[string]format.Format{
		"unit":   format.Option{Elem: format.Unit},
		"nested": format.Option{Elem: format.Option{Elem: format.U8}},
	} {
		t.Run(name, func(t *testing.T) {
			reg := format.NewRegistry().MustRegister("Holder", format.Struct{Fields: []format.Named{{Name: "v", Format: f}}})
			err := generateErr(t, reg, codegen.Config{ModuleName: "holder"})
			assert.Equal(t, codegen.ErrUnsupportedShape, codegen.Code(err))
		})
	}
}

func TestGenerate_CommentsAndExternal(t *testing.T) {
	reg := format.NewRegistry()
	reg.MustRegister("Point", format.Struct{Fields: []format.Named{{Name: "x", Format: format.U32}}})
	reg.MustRegister("Place", format.Struct{Fields: []format.Named{{Name: "at", Format: format.TypeName{Name: "Point"}}}})

	out := generate(t, reg, codegen.Config{
		ModuleName:          "places",
		Comments:            map[string]string{"Place": "A named spot.\nWith a point.", "Place.at": "Where it is."},
		ExternalDefinitions: map[string][]string{"geo": {"Point"}},
	})

	assert.Contains(t, out, "from geo import Point\n")
	assert.NotContains(t, out, "class Point:")
	assert.Contains(t, out, "class Place:\n    \"\"\"A named spot.\n    With a point.\n    \"\"\"\n\n    # Where it is.\n    at: Point\n")
}

func TestRuntime(t *testing.T) {
	files, err := New().Runtime(codegen.Config{ModuleName: "point"})
	require.NoError(t, err)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
		assert.Equal(t, codegen.RuntimeFile, f.Kind)
	}
	assert.ElementsMatch(t, []string{
		"bincode/__init__.py",
		"lcs/__init__.py",
		"serde_binary/__init__.py",
		"serde_types/__init__.py",
	}, paths)
}
