// Package ingest reads sensor logs and event indexes from CSV.
//
// Column names are matched case-insensitively after trimming. Rows whose
// timestamp or primary metric cannot be parsed are dropped and reported as
// ParseErrors; a missing required column fails the whole file.
package ingest
