// Package db provides the embedded PostgreSQL schema and default datasets.
package db

import _ "embed"

// Schema contains the DDL statements for the collection table.
//
//go:embed migrations/001_schema.sql
var Schema string

// DefaultProducts is the menu persisted when the products collection is
// first accessed.
//
//go:embed seed/products.json
var DefaultProducts []byte
