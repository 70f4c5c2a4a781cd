package summary

// DefaultChunkSize is the window size, in characters, used when none is configured.
const DefaultChunkSize = 1000

// Chunk is a contiguous slice of the source ticket.
type Chunk struct {
	Text  string
	Index int
}

// ChunkText splits text into non-overlapping windows of size characters.
// The last window may be shorter. Empty input yields no chunks.
// Text is never normalized: joining the chunks in index order gives back the input.
func ChunkText(text string, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if text == "" {
		return nil
	}

	runes := []rune(text)
	chunks := make([]Chunk, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  string(runes[start:end]),
		})
	}
	return chunks
}
