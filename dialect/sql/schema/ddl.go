package schema

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/dirtydb/dialect"
	"github.com/syssam/dirtydb/dialect/sql"
	dsl "github.com/syssam/dirtydb/schema"
)

// Statements returns the DDL statements applying t on kind, in execution
// order. New tables yield a CREATE TABLE followed by their indexes,
// existing ones one ALTER TABLE per added column, then index changes and
// the rename if any.
func Statements(kind dialect.Kind, t *dsl.TableBlueprint) ([]string, error) {
	d, err := newDDL(kind)
	if err != nil {
		return nil, err
	}
	if t.IsView() {
		stmt, err := d.view(t)
		if err != nil {
			return nil, err
		}
		return []string{stmt}, nil
	}
	var stmts []string
	if t.IsNew() {
		stmts = append(stmts, d.createTable(t))
	} else {
		for _, c := range t.Columns {
			stmts = append(stmts, d.addColumn(t.Name, c))
			if c.Unique && d.kind == dialect.SQLite {
				// SQLite cannot add a UNIQUE column, index it instead.
				idx, _ := d.index(t, dsl.Index{Kind: dsl.IndexUnique, Columns: []string{c.Name}})
				stmts = append(stmts, idx)
			}
		}
	}
	for _, idx := range t.Indexes {
		stmt, err := d.index(t, idx)
		if err != nil {
			return nil, err
		}
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	if t.NewName != "" && t.NewName != t.Name {
		stmts = append(stmts, "ALTER TABLE "+d.quote(t.Name)+" RENAME TO "+d.quote(t.NewName))
	}
	return stmts, nil
}

// HasTableQuery returns the query reporting whether a table or view
// exists. It returns a row when it does.
func HasTableQuery(kind dialect.Kind, name string) (string, []any) {
	switch kind {
	case dialect.MySQL:
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", []any{name}
	case dialect.Postgres:
		return "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1", []any{name}
	default:
		return "SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", []any{name}
	}
}

// DropViewStatement drops a view.
func DropViewStatement(kind dialect.Kind, name string) string {
	return "DROP VIEW IF EXISTS " + sql.Quote(kind, name)
}

type ddl struct {
	kind dialect.Kind
}

func newDDL(kind dialect.Kind) (ddl, error) {
	switch kind {
	case dialect.MySQL, dialect.Postgres, dialect.SQLite:
		return ddl{kind: kind}, nil
	}
	return ddl{}, fmt.Errorf("%w: %q", sql.ErrUnknownKind, kind)
}

func (d ddl) quote(ident string) string { return sql.Quote(d.kind, ident) }

func (d ddl) quoteAll(idents []string) string {
	quoted := make([]string, len(idents))
	for i, s := range idents {
		quoted[i] = d.quote(s)
	}
	return strings.Join(quoted, ", ")
}

func (d ddl) createTable(t *dsl.TableBlueprint) string {
	var (
		defs, constraints []string
		auto              = hasAutoIncrement(t)
	)
	for _, c := range t.Columns {
		// The auto-increment column holds the key, other primary columns
		// are only unique.
		defs = append(defs, d.column(t.Name, c, c.Primary && !auto, c.Unique || c.Primary && auto))
		switch {
		case c.Type.Kind == dsl.TypeAutoIncrementID && d.kind == dialect.SQLite:
			constraints = append(constraints, "PRIMARY KEY("+d.quote(c.Name)+" AUTOINCREMENT)")
		case c.Primary && !auto && d.kind == dialect.SQLite:
			constraints = append(constraints, "PRIMARY KEY("+d.quote(c.Name)+")")
		}
		if c.Relation != nil {
			constraints = append(constraints, "FOREIGN KEY ("+d.quote(c.Name)+") "+d.references(c.Relation))
		}
	}
	for _, idx := range t.Indexes {
		if idx.Kind == dsl.IndexPrimary && !idx.Drop {
			constraints = append(constraints, "PRIMARY KEY ("+d.quoteAll(idx.Columns)+")")
		}
	}
	return "CREATE TABLE " + d.quote(t.Name) + " (" + strings.Join(append(defs, constraints...), ", ") + ")"
}

func (d ddl) addColumn(table string, c *dsl.ColumnBlueprint) string {
	stmt := "ALTER TABLE " + d.quote(table) + " ADD COLUMN " + d.column(table, c, c.Primary, c.Unique && d.kind != dialect.SQLite)
	if c.Relation != nil {
		if d.kind == dialect.MySQL {
			stmt += ", ADD FOREIGN KEY (" + d.quote(c.Name) + ") " + d.references(c.Relation)
		} else {
			stmt += " " + d.references(c.Relation)
		}
	}
	if c.After != "" && d.kind == dialect.MySQL {
		stmt += " AFTER " + d.quote(c.After)
	}
	return stmt
}

func (d ddl) references(fk *dsl.ForeignKey) string {
	s := "REFERENCES " + d.quote(fk.Table) + " (" + d.quote(fk.Column) + ")"
	if fk.CascadeDelete {
		s += " ON DELETE CASCADE"
	}
	return s
}

func hasAutoIncrement(t *dsl.TableBlueprint) bool {
	for _, c := range t.Columns {
		if c.Type.Kind == dsl.TypeAutoIncrementID {
			return true
		}
	}
	return false
}

func (d ddl) column(table string, c *dsl.ColumnBlueprint, primary, unique bool) string {
	var sb strings.Builder
	sb.WriteString(d.quote(c.Name))
	sb.WriteString(" ")
	sb.WriteString(d.columnType(c))
	if c.Type.Kind != dsl.TypeAutoIncrementID {
		if c.Null {
			sb.WriteString(" NULL")
		} else {
			sb.WriteString(" NOT NULL")
		}
		if unique {
			sb.WriteString(" UNIQUE")
		}
		if primary && d.kind != dialect.SQLite {
			sb.WriteString(" PRIMARY KEY")
		}
	}
	if def := d.defaultValue(c); def != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	if check := d.check(table, c); check != "" {
		sb.WriteString(check)
	}
	return sb.String()
}

func (d ddl) columnType(c *dsl.ColumnBlueprint) string {
	size := c.Type.Size
	if size <= 0 {
		size = dsl.DefaultStringSize
	}
	switch c.Type.Kind {
	case dsl.TypeAutoIncrementID:
		switch d.kind {
		case dialect.MySQL:
			return "BIGINT AUTO_INCREMENT PRIMARY KEY"
		case dialect.Postgres:
			return "BIGSERIAL PRIMARY KEY"
		}
		return "INTEGER"
	case dsl.TypeBoolean:
		if d.kind == dialect.MySQL {
			return "TINYINT(1)"
		}
		return "BOOLEAN"
	case dsl.TypeChar:
		if d.kind == dialect.MySQL {
			return "CHAR(" + strconv.Itoa(size) + ")"
		}
		return "VARCHAR(" + strconv.Itoa(size) + ")"
	case dsl.TypeString:
		return "VARCHAR(" + strconv.Itoa(size) + ")"
	case dsl.TypeDatetime:
		if d.kind == dialect.Postgres {
			return "TIMESTAMPTZ"
		}
		return "DATETIME"
	case dsl.TypeTimestamp:
		if d.kind == dialect.Postgres {
			return "TIMESTAMPTZ"
		}
		return "TIMESTAMP"
	case dsl.TypeDate:
		return "DATE"
	case dsl.TypeFloat, dsl.TypeNumber:
		if d.kind == dialect.Postgres {
			return "DOUBLE PRECISION"
		}
		return "DOUBLE"
	case dsl.TypeInteger:
		if d.kind == dialect.SQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case dsl.TypeJSON:
		if d.kind == dialect.Postgres {
			return "JSONB"
		}
		return "JSON"
	case dsl.TypeBinary:
		if d.kind == dialect.Postgres {
			return "BYTEA"
		}
		return "BLOB"
	case dsl.TypeText:
		if d.kind == dialect.MySQL {
			return "LONGTEXT"
		}
		return "TEXT"
	case dsl.TypeUUID:
		if d.kind == dialect.MySQL {
			return "CHAR(36)"
		}
		return "UUID"
	case dsl.TypeEnum:
		if d.kind == dialect.MySQL {
			return "ENUM(" + literals(c.Type.Options) + ")"
		}
		return "VARCHAR(255)"
	}
	return "TEXT"
}

func (d ddl) defaultValue(c *dsl.ColumnBlueprint) string {
	if c.Default == nil {
		return ""
	}
	json := c.Type.Kind == dsl.TypeJSON && d.kind == dialect.MySQL
	switch c.Default.Kind {
	case dsl.DefaultCustom:
		return literal(c.Default.Value)
	case dsl.DefaultEmptyString:
		return "''"
	case dsl.DefaultZero:
		if c.Type.Kind == dsl.TypeBoolean && d.kind == dialect.Postgres {
			return "FALSE"
		}
		return "0"
	case dsl.DefaultEmptyObject:
		if json {
			return "('{}')"
		}
		return "'{}'"
	case dsl.DefaultEmptyArray:
		if json {
			return "('[]')"
		}
		return "'[]'"
	case dsl.DefaultCreatedAt:
		return "CURRENT_TIMESTAMP"
	case dsl.DefaultUpdatedAt:
		if d.kind == dialect.MySQL {
			return "CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP"
		}
		return "CURRENT_TIMESTAMP"
	case dsl.DefaultUUID:
		switch d.kind {
		case dialect.Postgres:
			return "gen_random_uuid()"
		case dialect.MySQL:
			return "(UUID())"
		}
	}
	return ""
}

func (d ddl) check(table string, c *dsl.ColumnBlueprint) string {
	var exprs []string
	if c.Check != "" {
		exprs = append(exprs, c.Check)
	}
	if c.Type.Kind == dsl.TypeEnum && d.kind != dialect.MySQL && len(c.Type.Options) > 0 {
		exprs = append(exprs, d.quote(c.Name)+" IN ("+literals(c.Type.Options)+")")
	}
	if len(exprs) == 0 {
		return ""
	}
	return " CONSTRAINT " + d.quote(table+"_"+c.Name+"_chk") + " CHECK (" + strings.Join(exprs, " AND ") + ")"
}

func (d ddl) index(t *dsl.TableBlueprint, idx dsl.Index) (string, error) {
	name := idx.Name(t.Name)
	if idx.Kind == dsl.IndexPrimary {
		switch {
		case t.IsNew() && !idx.Drop:
			// Rendered as a table constraint.
			return "", nil
		case d.kind == dialect.SQLite:
			return "", fmt.Errorf("dialect/sql/schema: sqlite cannot change the primary key of %s", t.Name)
		case idx.Drop:
			return "ALTER TABLE " + d.quote(t.Name) + " DROP PRIMARY KEY", nil
		default:
			return "ALTER TABLE " + d.quote(t.Name) + " ADD PRIMARY KEY (" + d.quoteAll(idx.Columns) + ")", nil
		}
	}
	if idx.Drop {
		if d.kind == dialect.MySQL {
			return "DROP INDEX " + d.quote(name) + " ON " + d.quote(t.Name), nil
		}
		return "DROP INDEX IF EXISTS " + d.quote(name), nil
	}
	unique := ""
	if idx.Kind == dsl.IndexUnique {
		unique = "UNIQUE "
	}
	exists := "IF NOT EXISTS "
	if d.kind == dialect.MySQL {
		exists = ""
	}
	return "CREATE " + unique + "INDEX " + exists + d.quote(name) + " ON " + d.quote(t.Name) + " (" + d.quoteAll(idx.Columns) + ")", nil
}

func (d ddl) view(t *dsl.TableBlueprint) (string, error) {
	q, args, err := sql.Compile(d.kind, t.View)
	if err != nil {
		return "", err
	}
	q, err = inline(d.kind, q, args)
	if err != nil {
		return "", err
	}
	if d.kind == dialect.SQLite {
		return "CREATE VIEW IF NOT EXISTS " + d.quote(t.Name) + " AS " + q, nil
	}
	return "CREATE OR REPLACE VIEW " + d.quote(t.Name) + " AS " + q, nil
}

// inline replaces the placeholders of q with literal args, since a view
// definition cannot bind arguments.
func inline(kind dialect.Kind, q string, args []any) (string, error) {
	lits := make([]string, len(args))
	for i, a := range args {
		lit, err := sqlLiteral(kind, a)
		if err != nil {
			return "", err
		}
		lits[i] = lit
	}
	if kind == dialect.Postgres {
		for i := len(lits); i > 0; i-- {
			q = strings.ReplaceAll(q, "$"+strconv.Itoa(i), lits[i-1])
		}
		return q, nil
	}
	var (
		sb      strings.Builder
		n       int
		inQuote bool
	)
	for _, r := range q {
		switch {
		case r == '\'':
			inQuote = !inQuote
		case r == '?' && !inQuote && n < len(lits):
			sb.WriteString(lits[n])
			n++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String(), nil
}

// sqlLiteral renders a bound argument as SQL. Postgres has no implicit
// integer to boolean cast, so booleans are TRUE and FALSE there.
func sqlLiteral(kind dialect.Kind, a any) (string, error) {
	switch v := a.(type) {
	case nil:
		return "NULL", nil
	case bool:
		switch {
		case kind == dialect.Postgres && v:
			return "TRUE", nil
		case kind == dialect.Postgres:
			return "FALSE", nil
		case v:
			return "1", nil
		}
		return "0", nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return literal(v), nil
	case []byte:
		return "X'" + hex.EncodeToString(v) + "'", nil
	case time.Time:
		return literal(v.UTC().Format("2006-01-02 15:04:05")), nil
	}
	return "", fmt.Errorf("dialect/sql/schema: cannot inline %T into a view", a)
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literals(opts []string) string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = literal(o)
	}
	return strings.Join(out, ",")
}
