// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the external collaborator services the
// pipeline depends on, and the stores backing session state.
package driven
