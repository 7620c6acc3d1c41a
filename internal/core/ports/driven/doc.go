// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding, generation, vector index,
// reranking, transcription, scraping and ingestion bookkeeping.
package driven
