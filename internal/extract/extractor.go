package extract

// Extractor defines a minimal interface for content extraction strategies.
// Implementations can swap readability tactics without changing callers.
type Extractor interface {
	// Extract converts raw HTML bytes into a simplified Document.
	Extract(input []byte) Document
}

// HeuristicExtractor uses FromHTML: <article>/<main> preference, light
// boilerplate reduction and whitespace normalization.
type HeuristicExtractor struct{}

func (HeuristicExtractor) Extract(input []byte) Document {
	return FromHTML(input)
}
