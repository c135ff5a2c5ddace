// Package config loads, merges and validates the field-sync client
// configuration.
//
// Sources are read in this order, and for each field the first non-zero
// value wins:
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//  4. Built-in defaults
//
// The entry point is [GetStructuredConfig].
package config
