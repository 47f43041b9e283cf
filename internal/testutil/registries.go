package testutil

import "github.com/roach88/serdegen/internal/format"

// PointRegistry holds a single struct {x: u32, y: u32}.
func PointRegistry() *format.Registry {
	return format.NewRegistry().MustRegister("Point", format.Struct{Fields: []format.Named{
		{Name: "x", Format: format.U32},
		{Name: "y", Format: format.U32},
	}})
}

// ShapeRegistry holds Shape = Circle(u32) | Square(u32).
func ShapeRegistry() *format.Registry {
	return format.NewRegistry().MustRegister("Shape", format.NewEnum(
		format.Variant{Index: 0, Name: "Circle", Payload: format.NewTypeVariant{Inner: format.U32}},
		format.Variant{Index: 1, Name: "Square", Payload: format.NewTypeVariant{Inner: format.U32}},
	))
}

// TreeRegistry holds a self-referential container:
//
//	Tree { value: u64, children: Seq<Tree>, left: Option<Tree> }
//
// The Seq edge is already indirect; the Option edge needs indirection.
func TreeRegistry() *format.Registry {
	return format.NewRegistry().MustRegister("Tree", format.Struct{Fields: []format.Named{
		{Name: "value", Format: format.U64},
		{Name: "children", Format: format.Seq{Elem: format.TypeName{Name: "Tree"}}},
		{Name: "left", Format: format.Option{Elem: format.TypeName{Name: "Tree"}}},
	}})
}

// ExprRegistry holds mutually recursive containers:
//
//	Expr = Lit(i64) | Neg(Expr) | Block(Stmt)
//	Stmt { expr: Expr, next: Option<Stmt> }
func ExprRegistry() *format.Registry {
	reg := format.NewRegistry()
	reg.MustRegister("Expr", format.NewEnum(
		format.Variant{Index: 0, Name: "Lit", Payload: format.NewTypeVariant{Inner: format.I64}},
		format.Variant{Index: 1, Name: "Neg", Payload: format.NewTypeVariant{Inner: format.TypeName{Name: "Expr"}}},
		format.Variant{Index: 2, Name: "Block", Payload: format.NewTypeVariant{Inner: format.TypeName{Name: "Stmt"}}},
	))
	reg.MustRegister("Stmt", format.Struct{Fields: []format.Named{
		{Name: "expr", Format: format.TypeName{Name: "Expr"}},
		{Name: "next", Format: format.Option{Elem: format.TypeName{Name: "Stmt"}}},
	}})
	return reg
}

// KitchenSinkRegistry exercises every format and container kind.
func KitchenSinkRegistry() *format.Registry {
	reg := format.NewRegistry()
	reg.MustRegister("Unit", format.UnitStruct{})
	reg.MustRegister("Id", format.NewTypeStruct{Inner: format.Bytes})
	reg.MustRegister("Pair", format.TupleStruct{Elems: []format.Format{format.I32, format.Str}})
	reg.MustRegister("Event", format.NewEnum(
		format.Variant{Index: 0, Name: "Ping", Payload: format.UnitVariant{}},
		format.Variant{Index: 1, Name: "Move", Payload: format.StructVariant{Fields: []format.Named{
			{Name: "dx", Format: format.I16},
			{Name: "dy", Format: format.I16},
		}}},
		format.Variant{Index: 2, Name: "Pair", Payload: format.TupleVariant{Elems: []format.Format{format.U8, format.Bool}}},
	))
	reg.MustRegister("Record", format.Struct{Fields: []format.Named{
		{Name: "flag", Format: format.Bool},
		{Name: "small", Format: format.I8},
		{Name: "big", Format: format.U128},
		{Name: "signed_big", Format: format.I128},
		{Name: "ratio", Format: format.F64},
		{Name: "name", Format: format.Str},
		{Name: "id", Format: format.TypeName{Name: "Id"}},
		{Name: "tags", Format: format.Seq{Elem: format.Str}},
		{Name: "counts", Format: format.Map{Key: format.Str, Value: format.U32}},
		{Name: "maybe", Format: format.Option{Elem: format.U16}},
		{Name: "pos", Format: format.Tuple{Elems: []format.Format{format.F32, format.F32}}},
		{Name: "digest", Format: format.TupleArray{Content: format.U8, Size: 4}},
		{Name: "pair", Format: format.TypeName{Name: "Pair"}},
		{Name: "events", Format: format.Seq{Elem: format.TypeName{Name: "Event"}}},
		{Name: "marker", Format: format.TypeName{Name: "Unit"}},
		{Name: "nothing", Format: format.Unit},
	}})
	return reg
}
