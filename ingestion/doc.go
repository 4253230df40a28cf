// Package ingestion orchestrates loading a tabular source into a vector index.
//
// A VectorstoreLoader runs one sequential pipeline per call:
//   - check whether the index exists, creating it when absent
//   - load the source through a loader.Loader
//   - convert rows to documents with a processor chosen by file extension
//   - optionally split documents with a chunker.Chunker
//   - embed and store documents in batches through a vectorstore.Client
//
// FreshDataLoad skips the whole pipeline when the index already exists.
// RecreateDataLoad deletes the index first. Stage errors are returned
// unchanged so callers can match them with errors.Is.
package ingestion
