// Package postgres holds the relational schema shared by the server
// bootstrap and the integration test harness.
package postgres

import _ "embed"

//go:embed schema.sql
var Schema string
