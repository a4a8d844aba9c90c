// Package report renders detection and alignment results as CSV tables and
// per-drop folders.
//
// Output is deterministic: rows follow interval and event order, timestamps
// are written in UTC with trailing zero fractions trimmed, and floats use the
// shortest representation that round-trips.
package report
