// Package canonical implements the normalization and structural equality
// rules shared by the durable writer and the live publisher.
//
// Raw API payloads arrive as decoded JSON (map[string]any with float64
// numbers), while stored snapshots come back from the document store with
// int64 numbers and time.Time values. Comparing those shapes directly would
// produce false "changed" verdicts on every poll, so both sides are first
// normalized: nil map entries dropped, all numbers widened to float64,
// timestamps reduced to their underlying instant.
package canonical
