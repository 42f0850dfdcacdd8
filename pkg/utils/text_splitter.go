package utils

// SplitText cuts text into rune-based windows of at most chunkSize, where
// consecutive windows share overlap runes so context survives the cut.
// Inputs that already fit come back as a single chunk.
func SplitText(text string, chunkSize int, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		// An overlap this large would stall the walk; advance by full
		// windows instead.
		step = chunkSize
	}

	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; ; start += step {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		chunks = append(chunks, string(runes[start:end]))
	}
}
