package summarize

import "unicode"

// Chunk splits text into contiguous pieces of at most max runes. Each break
// happens at the last whitespace at or before the limit and that whitespace
// rune is dropped, so no word is split; a single word longer than max is
// split hard. Joining the chunks with the dropped runes restores text.
func Chunk(text string, max int) []string {
	if max <= 0 {
		max = DefaultChunkSize
	}
	runes := []rune(text)
	var out []string
	for len(runes) > max {
		cut := -1
		for i := max; i >= 1; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		if cut < 0 {
			out = append(out, string(runes[:max]))
			runes = runes[max:]
			continue
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut+1:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
