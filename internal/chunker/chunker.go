package chunker

import "strings"

// Split cuts text into windows of at most maxLength whitespace-delimited
// tokens, each sharing overlap tokens with the next window. The stride is
// clamped to at least one token, so the walk always terminates even when
// overlap >= maxLength.
func Split(text string, maxLength, overlap int) []string {
	if maxLength <= 0 {
		return nil
	}
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	stride := maxLength - overlap
	if stride < 1 {
		stride = maxLength
	}
	var chunks []string
	for i := 0; i < len(tokens); i += stride {
		end := i + maxLength
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[i:end], " "))
	}
	return chunks
}
