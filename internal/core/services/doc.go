// Package services implements the application's use cases on top of
// the driven ports: ingesting documents, managing indices, retrieving
// chunks, synthesising answers, and keeping session state.
package services
