// Package domain contains the core entities of the retrieval pipeline:
// chunks, embedding records, agent routing types, ingestion reports and
// the domain error taxonomy. It has no dependencies on adapters.
package domain
