// Package domain contains the core types of the document indexing and
// question-answering pipeline: documents, canonical text, chunks, search
// indices, sessions, and the error taxonomy shared by all services.
package domain
