// Package types defines the Store interface, entity types, query and
// subscription types, and standard error values for the Tally data layer.
package types
