// Package docstore is the durable side of persistence: a thin interface over
// Firestore plus a change-aware batch writer.
//
// The store is the system of record read by the downstream application. To
// keep write (and downstream notification) volume down when the same data is
// polled every few minutes, the Writer reads current snapshots in one batched
// call per chunk and commits only records whose normalized content actually
// changed. Chunks are atomic groups of at most 500 writes, the store's batch
// limit; a failed commit fails the whole chunk.
//
// Every committed document is stamped with a server-assigned "updatedAt"
// timestamp, which is stripped again before any content comparison.
package docstore
