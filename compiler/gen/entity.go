package gen

import (
	"github.com/dave/jennifer/jen"
)

const (
	rootPkg  = "github.com/syssam/dirtydb"
	fieldPkg = "github.com/syssam/dirtydb/field"
	uuidPkg  = "github.com/google/uuid"
)

// newFile creates a new Jennifer file with the header comment.
func (g *Graph) newFile() *jen.File {
	f := jen.NewFile(g.Package)
	if g.Header != "" {
		f.HeaderComment(g.Header)
	}
	f.ImportName(rootPkg, "dirtydb")
	f.ImportName(fieldPkg, "field")
	f.ImportName(uuidPkg, "uuid")
	return f
}

// genEntity generates the entity file ({entity}.go).
func genEntity(g *Graph, t *Type) *jen.File {
	f := g.newFile()
	genConstants(f, t)
	genStruct(f, t)
	genTableMethods(f, t)
	genFromColumnAndValue(f, t)
	genToColumnAndValue(f, t)
	return f
}

// genTables generates the package level list of entities (tables.go).
func genTables(g *Graph) *jen.File {
	f := g.newFile()
	f.Comment("Tables returns a value of every entity of the package.")
	f.Func().Id("Tables").Params().Index().Qual(rootPkg, "TableEntity").Block(
		jen.Return(jen.Index().Qual(rootPkg, "TableEntity").ValuesFunc(func(vals *jen.Group) {
			for _, t := range g.Nodes {
				vals.Id(t.Name).Values()
			}
		})),
	)
	return f
}

func genConstants(f *jen.File, t *Type) {
	f.Commentf("Table and column names of %s.", t.Name)
	f.Const().DefsFunc(func(defs *jen.Group) {
		defs.Id(t.TableConst()).Op("=").Lit(t.Table)
		for _, fd := range t.Fields {
			defs.Id(t.ColumnConst(fd)).Op("=").Lit(fd.Name)
		}
	})
}

func genStruct(f *jen.File, t *Type) {
	if t.Comment != "" {
		f.Comment(t.Comment)
	} else {
		f.Commentf("%s is a row of the %s table.", t.Name, t.Table)
	}
	f.Type().Id(t.Name).StructFunc(func(group *jen.Group) {
		group.Qual(rootPkg, "Table")
		for _, fd := range t.Fields {
			code := group.Id(fd.StructField()).Add(goType(fd)).Tag(structTags(fd))
			if fd.Comment != "" {
				code.Comment(fd.Comment)
			}
		}
	})
}

func genTableMethods(f *jen.File, t *Type) {
	method := func(name string, ret jen.Code, body jen.Code) {
		f.Func().Params(jen.Id(t.Name)).Id(name).Params().Add(ret).Block(jen.Return(body))
	}
	method("TableName", jen.String(), jen.Id(t.TableConst()))
	method("TableColumns", jen.Index().String(), jen.Index().String().ValuesFunc(func(vals *jen.Group) {
		for _, fd := range t.Fields {
			vals.Id(t.ColumnConst(fd))
		}
	}))
	conventional := []struct{ method, column string }{
		{"IDColumn", t.ID},
		{"CreatedAtColumn", t.CreatedAt},
		{"UpdatedAtColumn", t.UpdatedAt},
		{"DeletedAtColumn", t.DeletedAt},
		{"CreatorIDColumn", t.CreatorID},
		{"EditorIDColumn", t.EditorID},
	}
	for _, c := range conventional {
		if fd, ok := t.FieldByName(c.column); ok {
			method(c.method, jen.String(), jen.Id(t.ColumnConst(fd)))
		}
	}
	if t.ForeignKey != "" {
		method("ForeignIDColumn", jen.String(), jen.Lit(t.ForeignKey))
	}
}

func genFromColumnAndValue(f *jen.File, t *Type) {
	r := t.Receiver()
	f.Commentf("FromColumnAndValue sets the fields of %s from a row.", r)
	f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id("FromColumnAndValue").
		Params(jen.Id("cv").Qual(fieldPkg, "ColumnAndValue")).Error().
		BlockFunc(func(body *jen.Group) {
			for _, fd := range t.Fields {
				get := jen.Id("cv").Dot("Get").Call(jen.Id(t.ColumnConst(fd)))
				if m := fd.Getter(); m != "" {
					get = get.Dot(m).Call()
				}
				body.Id(r).Dot(fd.StructField()).Op("=").Add(get)
			}
			body.Return(jen.Nil())
		})
}

func genToColumnAndValue(f *jen.File, t *Type) {
	r := t.Receiver()
	f.Commentf("ToColumnAndValue returns the column values of %s. Nil optional fields are left out.", r)
	f.Func().Params(jen.Id(r).Id(t.Name)).Id("ToColumnAndValue").Params().Qual(fieldPkg, "ColumnAndValue").
		BlockFunc(func(body *jen.Group) {
			body.Id("b").Op(":=").Qual(fieldPkg, "NewBuilder").Call()
			for _, fd := range t.Writable() {
				col, val := jen.Id(t.ColumnConst(fd)), jen.Id(r).Dot(fd.StructField())
				switch {
				case fd.Kind == KindJSON && fd.Optional:
					body.Id("b").Dot("TryInsertValue").Call(col, val)
				case fd.Kind == KindJSON:
					body.Id("b").Dot("InsertValue").Call(col, val)
				case fd.Nillable():
					body.Id("b").Dot("TryInsert").Call(col, val)
				case fd.Auto:
					body.If(notZero(fd, val)).Block(jen.Id("b").Dot("Insert").Call(col, jen.Id(r).Dot(fd.StructField())))
				default:
					body.Id("b").Dot("Insert").Call(col, val)
				}
			}
			body.Return(jen.Id("b").Dot("Build").Call())
		})
}

// goType returns the Go type of a field.
func goType(fd *Field) jen.Code {
	var base *jen.Statement
	switch fd.Kind {
	case KindBool:
		base = jen.Bool()
	case KindInt:
		base = jen.Int()
	case KindInt64:
		base = jen.Int64()
	case KindUint64:
		base = jen.Uint64()
	case KindFloat64:
		base = jen.Float64()
	case KindTime:
		base = jen.Qual("time", "Time")
	case KindUUID:
		base = jen.Qual(uuidPkg, "UUID")
	case KindBytes:
		base = jen.Index().Byte()
	case KindJSON:
		return jen.Qual(fieldPkg, "Value")
	default:
		base = jen.String()
	}
	if fd.Nillable() {
		return jen.Op("*").Add(base)
	}
	return base
}

// notZero returns the condition that val holds a non-zero value.
func notZero(fd *Field, val *jen.Statement) jen.Code {
	switch fd.Kind {
	case KindBool:
		return val
	case KindString:
		return val.Op("!=").Lit("")
	case KindTime:
		return jen.Op("!").Add(val).Dot("IsZero").Call()
	case KindUUID:
		return val.Op("!=").Qual(uuidPkg, "Nil")
	default:
		return val.Op("!=").Lit(0)
	}
}

func structTags(fd *Field) map[string]string {
	tag := fd.Name
	if fd.Optional || fd.Auto {
		tag += ",omitempty"
	}
	return map[string]string{"json": tag}
}
