package docstore

// SetChunkSize overrides the writer's atomic-group limit for tests.
func SetChunkSize(w *Writer, n int) { w.chunkSize = n }
