package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitRecursive splits text on the first separator present in it, keeping
// the separator at the start of each following piece. Pieces that still
// reach size are split again with the remaining separators.
func splitRecursive(text string, separators []string, size, overlap int) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var chunks, good []string
	for _, piece := range splitKeep(text, separator) {
		if utf8.RuneCountInString(piece) < size {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, mergePieces(good, size, overlap)...)
			good = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, hardSplit(piece, size, overlap)...)
		} else {
			chunks = append(chunks, splitRecursive(piece, rest, size, overlap)...)
		}
	}
	if len(good) > 0 {
		chunks = append(chunks, mergePieces(good, size, overlap)...)
	}
	return chunks
}

// splitKeep splits text on sep and prefixes every piece after the first
// with sep. Empty pieces are dropped. An empty sep splits into runes.
func splitKeep(text, sep string) []string {
	if sep == "" {
		pieces := make([]string, 0, len(text))
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
		return pieces
	}
	parts := strings.Split(text, sep)
	pieces := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return pieces
}

// mergePieces packs pieces shorter than size into windows of at most size
// runes. Before a piece is added to a full window the window is emitted and
// shrunk from the front until it holds at most overlap runes and the piece
// fits. A window never starts with a blank piece, so every chunk begins
// inside its first piece.
func mergePieces(pieces []string, size, overlap int) []string {
	var (
		chunks  []string
		window  []string
		lengths []int
		total   int
	)
	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if total+n > size && len(window) > 0 {
			chunks = appendChunk(chunks, strings.Join(window, ""))
			for len(window) > 0 && (total > overlap || total+n > size || isBlank(window[0])) {
				total -= lengths[0]
				window, lengths = window[1:], lengths[1:]
			}
		}
		if len(window) == 0 && isBlank(piece) {
			continue
		}
		window = append(window, piece)
		lengths = append(lengths, n)
		total += n
	}
	if len(window) > 0 {
		chunks = appendChunk(chunks, strings.Join(window, ""))
	}
	return chunks
}

// hardSplit cuts text into windows of size runes, each starting overlap
// runes before the previous one ended. Windows start on non-space runes.
func hardSplit(text string, size, overlap int) []string {
	runes := []rune(text)
	var chunks []string
	start := 0
	for {
		for start < len(runes) && unicode.IsSpace(runes[start]) {
			start++
		}
		if start >= len(runes) {
			return chunks
		}
		end := min(start+size, len(runes))
		chunks = appendChunk(chunks, string(runes[start:end]))
		if end == len(runes) {
			return chunks
		}
		start = end - overlap
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func appendChunk(chunks []string, chunk string) []string {
	if chunk = strings.TrimSpace(chunk); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
