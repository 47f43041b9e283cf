package codegen

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/testutil"
)

func TestNamer_Sanitize(t *testing.T) {
	n := NewNamer(Go, []string{"type", "func"}, nil)

	tests := []struct {
		name  string
		in    string
		style Style
		want  string
	}{
		{"plain", "Point", AsIs, "Point"},
		{"pascal", "signed_big", Pascal, "SignedBig"},
		{"snake", "SignedBig", Snake, "signed_big"},
		{"acronym", "HTTPServer", Snake, "http_server"},
		{"keyword", "type", AsIs, "type_"},
		{"leading digit", "3d", AsIs, "_3d"},
		{"punctuation", "a-b.c", AsIs, "a_b_c"},
		{"empty", "", AsIs, "_"},
		{"nfc", "Cafe\u0301", AsIs, "Caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Sanitize(tt.in, tt.style))
		})
	}
}

func TestNamer_Collision(t *testing.T) {
	n := NewNamer(Rust, nil, nil)

	ident, err := n.Name("types", "my-type", AsIs)
	require.NoError(t, err)
	assert.Equal(t, "my_type", ident)

	_, err = n.Name("types", "my-type", AsIs)
	require.NoError(t, err, "same source claiming twice is not a collision")

	_, err = n.Name("fields", "my_type", AsIs)
	require.NoError(t, err, "scopes are independent")

	_, err = n.Name("types", "my_type", AsIs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, &CodegenError{Code: ErrNameCollision}))
	assert.Equal(t, ErrNameCollision, Code(err))
	assert.Contains(t, err.Error(), `"my-type" and "my_type"`)
}

func TestNamer_NFCEquivalentNamesCollide(t *testing.T) {
	n := NewNamer(Python3, nil, nil)
	_, err := n.Name("types", "Caf\u00e9", AsIs)
	require.NoError(t, err)
	_, err = n.Name("types", "Cafe\u0301", AsIs)
	assert.Equal(t, ErrNameCollision, Code(err))
}

func TestReaches(t *testing.T) {
	reg := testutil.KitchenSinkRegistry()

	assert.True(t, ContainerReaches(reg, "Record", IsFloat))
	assert.False(t, ContainerReaches(reg, "Event", IsFloat))
	assert.False(t, Reaches(reg, format.TypeName{Name: "Pair"}, IsFloat))
	assert.True(t, Reaches(reg, format.Seq{Elem: format.F32}, IsFloat))
}

func TestReaches_Cycles(t *testing.T) {
	reg := testutil.ExprRegistry()
	isStr := func(f format.Format) bool { return f == format.Str }

	assert.False(t, ContainerReaches(reg, "Expr", isStr))
	assert.True(t, ContainerReaches(reg, "Stmt", func(f format.Format) bool { return f == format.I64 }))
}

func TestCheckMapKeys(t *testing.T) {
	reg := format.NewRegistry()
	reg.MustRegister("Key", format.TupleStruct{Elems: []format.Format{format.U8, format.F64}})
	reg.MustRegister("Index", format.Struct{Fields: []format.Named{
		{Name: "ok", Format: format.Map{Key: format.Str, Value: format.F64}},
		{Name: "bad", Format: format.Map{Key: format.TypeName{Name: "Key"}, Value: format.U8}},
	}})

	err := CheckMapKeys(reg, Rust, IsFloat, "reaches a float")
	require.Error(t, err)
	assert.Equal(t, ErrUnsupportedShape, Code(err))
	assert.Contains(t, err.Error(), "Index.bad")

	assert.NoError(t, CheckMapKeys(testutil.KitchenSinkRegistry(), Rust, IsFloat, "reaches a float"))
}

func TestMangle(t *testing.T) {
	tests := []struct {
		f    format.Format
		want string
	}{
		{format.Seq{Elem: format.U32}, "vector_u32"},
		{format.Map{Key: format.Str, Value: format.U8}, "map_str_to_u8"},
		{format.Option{Elem: format.TypeName{Name: "Tree"}}, "option_Tree"},
		{format.Tuple{Elems: []format.Format{format.F32, format.Bool}}, "tuple2_f32_bool"},
		{format.TupleArray{Content: format.U8, Size: 4}, "array4_u8_array"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Mangle(tt.f))
		})
	}
}

func TestComposites(t *testing.T) {
	got := Composites(testutil.KitchenSinkRegistry(), nil)
	names := make([]string, len(got))
	for i, f := range got {
		names[i] = Mangle(f)
	}
	assert.Equal(t, []string{
		"array4_u8_array",
		"map_str_to_u32",
		"option_u16",
		"tuple2_f32_f32",
		"vector_Event",
		"vector_str",
	}, names)

	skipped := Composites(testutil.KitchenSinkRegistry(), func(name string) bool { return name == "Record" })
	assert.Empty(t, skipped)
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{ModuleName: "shapes"}.WithDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []encoding.Encoding{encoding.Canonical}, cfg.Encodings)
	assert.Equal(t, DefaultGoRuntime, cfg.RuntimeImport)

	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{ModuleName: "m", Encodings: []encoding.Encoding{"lcs2"}}.Validate())
	assert.Error(t, Config{ModuleName: "m", Encodings: []encoding.Encoding{encoding.Canonical, encoding.Canonical}}.Validate())
	assert.Error(t, Config{ModuleName: "m", ExternalDefinitions: map[string][]string{
		"a": {"Point"},
		"b": {"Point"},
	}}.Validate())
}

func TestConfig_External(t *testing.T) {
	cfg := Config{ExternalDefinitions: map[string][]string{
		"geo":   {"Point"},
		"empty": nil,
	}}
	module, ok := cfg.External("Point")
	assert.True(t, ok)
	assert.Equal(t, "geo", module)
	_, ok = cfg.External("Shape")
	assert.False(t, ok)
	assert.Equal(t, []string{"geo"}, cfg.ExternalModules())
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]Target{"go": Go, "Golang": Go, "rust": Rust, "python": Python3, "python3": Python3} {
		got, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTarget("cobol")
	assert.Error(t, err)
}

func TestWriter(t *testing.T) {
	w := NewWriter("\t")
	w.Line("func f() {")
	w.Indent()
	w.Comment("// ", "first\nsecond")
	w.Line("return %d", 1)
	w.Dedent()
	w.Line("}")
	w.Blank()
	w.Line("100%")

	assert.Equal(t, "func f() {\n\t// first\n\t// second\n\treturn 1\n}\n\n100%\n", w.String())
}
