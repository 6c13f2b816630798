// Package schema renders table blueprints into the DDL of each backend
// and checks them against the live database.
//
// Statements turns a blueprint into CREATE, ALTER and index statements.
// The Inspector reads live tables with Atlas so ValidateLive can report
// the changes that may lose data before they are applied.
package schema
