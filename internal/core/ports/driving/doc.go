// Package driving provides interfaces for the user-facing adapters
// (primary/inbound ports): ingestion, question answering, and session
// administration.
package driving
