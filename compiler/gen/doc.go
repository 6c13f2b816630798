// Package gen generates the entity contract of dirtydb records.
//
// The input is an entity description file read by compiler/load. For
// every entity the generator writes one Go file holding:
//
//   - the table and column name constants,
//   - the struct, embedding dirtydb.Table,
//   - TableName, TableColumns and the conventional column accessors,
//   - FromColumnAndValue and ToColumnAndValue.
//
// A tables.go file lists every entity of the package.
//
// # Pipeline
//
//	entities.yaml
//	      ↓  load.Load
//	load.Schema
//	      ↓  NewGraph (validation, naming defaults)
//	Graph / Type / Field
//	      ↓  Generate (jennifer, goimports, parallel writes)
//	{entity}.go, tables.go
//
// Table names default to the plural snake case entity name and the
// foreign key column to the singular table name joined to the id column.
//
// # Error Handling
//
// Failures are reported as SchemaError, ConfigError or GenerationError,
// which match ErrInvalidSchema, ErrMissingConfig and ErrGenerationFailed
// with errors.Is:
//
//	if _, err := gen.GenerateFile(ctx, "entities.yaml", gen.WithTarget("models")); err != nil {
//		if errors.Is(err, gen.ErrInvalidSchema) {
//			// fix the entity file
//		}
//	}
package gen
