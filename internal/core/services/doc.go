// Package services implements the driving port interfaces.
// Services contain the orchestration logic of the pipeline and talk to
// the outside world only through driven ports: chunking and embedding
// for ingestion, classification and dispatch for answering.
package services
