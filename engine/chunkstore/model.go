package chunkstore

import "time"

// Chunk mirrors one row of the document_chunks table (§3/§6). Vectors are
// never stored here — they live exclusively in the vector store.
type Chunk struct {
	ID          string
	DocumentID  string
	ChunkIndex  int
	Content     string
	PageNumber  *int
	CreatedAt   time.Time
}
