package schema

import (
	"fmt"
	"strings"

	atlas "ariga.io/atlas/sql/schema"

	dsl "github.com/syssam/dirtydb/schema"
)

// ValidationError is one problem found in a blueprint.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking is set when applying the change may lose data.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult collects validation errors and warnings.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// Merge appends the errors and warnings of other to r.
func (r *ValidationResult) Merge(other *ValidationResult) *ValidationResult {
	if other != nil {
		r.Errors = append(r.Errors, other.Errors...)
		r.Warnings = append(r.Warnings, other.Warnings...)
	}
	return r
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			if w.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateOption configures schema validation.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	allowDropColumn    bool
	allowDropIndex     bool
	allowNullToNotNull bool
}

// AllowDropColumn downgrades live columns missing from a blueprint to
// warnings.
func AllowDropColumn() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropColumn = true
	}
}

// AllowDropIndex downgrades dropped live indexes to warnings.
func AllowDropIndex() ValidateOption {
	return func(c *validateConfig) {
		c.allowDropIndex = true
	}
}

// AllowNullToNotNull downgrades NULL to NOT NULL changes to warnings.
func AllowNullToNotNull() ValidateOption {
	return func(c *validateConfig) {
		c.allowNullToNotNull = true
	}
}

// ValidateBlueprint checks a single blueprint for mistakes that would
// make its DDL fail.
func ValidateBlueprint(t *dsl.TableBlueprint) *ValidationResult {
	result := &ValidationResult{}
	if t.IsView() {
		return result
	}
	cols := make(map[string]bool, len(t.Columns))
	primary := false
	for _, c := range t.Columns {
		if cols[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		cols[c.Name] = true
		if c.Primary || c.Type.Kind == dsl.TypeAutoIncrementID {
			primary = true
		}
		switch {
		case c.Type.Kind == dsl.TypeEnum && len(c.Type.Options) == 0:
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "enum without options",
			})
		case c.Type.Kind == dsl.TypeChar && c.Type.Size <= 0:
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "char without length",
			})
		}
		if !t.IsNew() && !c.Null && c.Default == nil {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   t.Name,
				Column:  c.Name,
				Message: "new NOT NULL column without default value may fail if table has data",
			})
		}
	}
	idxNames := make(map[string]bool, len(t.Indexes))
	for _, idx := range t.Indexes {
		name := idx.Name(t.Name)
		if idx.Kind == dsl.IndexPrimary && !idx.Drop {
			primary = true
		}
		if idxNames[name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: fmt.Sprintf("duplicate index name: %s", name),
			})
		}
		idxNames[name] = true
		if !t.IsNew() || idx.Drop {
			continue
		}
		for _, col := range idx.Columns {
			if !cols[col] {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   t.Name,
					Message: fmt.Sprintf("index %q references non-existent column %q", name, col),
				})
			}
		}
	}
	if t.IsNew() && !primary {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   t.Name,
			Message: "table has no primary key",
		})
	}
	return result
}

// ValidateBlueprints validates a set of blueprints applied together.
// Foreign keys to tables outside the set are reported as warnings, the
// referenced table may already exist.
func ValidateBlueprints(tables []*dsl.TableBlueprint) *ValidationResult {
	result := &ValidationResult{}
	names := make(map[string]bool, len(tables))
	for _, t := range tables {
		if t.IsNew() && names[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   t.Name,
				Message: "duplicate table name",
			})
		}
		names[t.Name] = true
		r := ValidateBlueprint(t)
		result.Errors = append(result.Errors, r.Errors...)
		result.Warnings = append(result.Warnings, r.Warnings...)
	}
	for _, t := range tables {
		for _, c := range t.Columns {
			if c.Relation != nil && !names[c.Relation.Table] {
				result.Warnings = append(result.Warnings, &ValidationError{
					Table:   t.Name,
					Column:  c.Name,
					Message: fmt.Sprintf("foreign key references table %q outside the migration", c.Relation.Table),
				})
			}
		}
	}
	return result
}

// ValidateLive checks a blueprint against the live definition of its
// table. A new-table blueprint is compared column by column, an alter
// blueprint only for the columns it adds.
//
// Example:
//
//	live, ok, err := inspector.Table(ctx, bp.Name)
//	if ok {
//	    if r := schema.ValidateLive(live, bp); r.HasBreakingChanges() {
//	        return errors.New(r.String())
//	    }
//	}
func ValidateLive(live *atlas.Table, desired *dsl.TableBlueprint, opts ...ValidateOption) *ValidationResult {
	cfg := &validateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	result := &ValidationResult{}
	if desired.IsView() {
		return result
	}
	if !desired.IsNew() {
		for _, c := range desired.Columns {
			if _, ok := live.Column(c.Name); ok {
				result.Errors = append(result.Errors, &ValidationError{
					Table:   live.Name,
					Column:  c.Name,
					Message: "column already exists",
				})
			}
		}
		return result
	}
	for _, lc := range live.Columns {
		if desired.Lookup(lc.Name) != nil {
			continue
		}
		err := &ValidationError{
			Table:    live.Name,
			Column:   lc.Name,
			Message:  "column will be dropped",
			Breaking: true,
		}
		if cfg.allowDropColumn {
			result.Warnings = append(result.Warnings, err)
		} else {
			result.Errors = append(result.Errors, err)
		}
	}
	for _, c := range desired.Columns {
		lc, ok := live.Column(c.Name)
		if !ok {
			continue
		}
		if lc.Type != nil && lc.Type.Null && !c.Null && c.Type.Kind != dsl.TypeAutoIncrementID {
			err := &ValidationError{
				Table:    live.Name,
				Column:   c.Name,
				Message:  "column changing from NULL to NOT NULL may fail if column has NULL values",
				Breaking: true,
			}
			if cfg.allowNullToNotNull {
				result.Warnings = append(result.Warnings, err)
			} else {
				result.Errors = append(result.Errors, err)
			}
		}
		if size := liveSize(lc); size > 0 && c.Type.Size > 0 && c.Type.Size < size {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   live.Name,
				Column:  c.Name,
				Message: fmt.Sprintf("column size reducing from %d to %d may truncate data", size, c.Type.Size),
			})
		}
		if c.Unique && !liveUnique(live, c.Name) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   live.Name,
				Column:  c.Name,
				Message: "adding UNIQUE constraint may fail if duplicate values exist",
			})
		}
	}
	for _, idx := range desired.Indexes {
		if !idx.Drop {
			continue
		}
		err := &ValidationError{
			Table:   live.Name,
			Message: fmt.Sprintf("index %q will be dropped", idx.Name(live.Name)),
		}
		if cfg.allowDropIndex {
			result.Warnings = append(result.Warnings, err)
		} else {
			result.Errors = append(result.Errors, err)
		}
	}
	return result
}

func liveSize(c *atlas.Column) int {
	if c.Type == nil {
		return 0
	}
	if s, ok := c.Type.Type.(*atlas.StringType); ok {
		return s.Size
	}
	return 0
}

func liveUnique(t *atlas.Table, column string) bool {
	for _, idx := range t.Indexes {
		if idx.Unique && len(idx.Parts) == 1 && idx.Parts[0].C != nil && idx.Parts[0].C.Name == column {
			return true
		}
	}
	return false
}
