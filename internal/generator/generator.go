package generator

import "fmt"

// Kind selects the content generation strategy for the honeypot.
type Kind string

const (
	KindRandom Kind = "random"
	KindMarkov Kind = "markov"
	KindStatic Kind = "static"
)

// ParseKind validates a configuration string against the known kinds.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRandom, KindMarkov, KindStatic:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown generator type %q (want random, markov or static)", s)
	}
}

// MinChunkSize is the smallest accepted chunk size. Anything below this
// spends more time on markup and per-chunk bookkeeping than on content,
// so it is rejected at startup rather than tolerated at request time.
const MinChunkSize = 16

// wrapOverhead is the byte cost of wrapParagraph around one chunk.
const wrapOverhead = len("<p>\n") + len("\n</p>\n")

// Generator produces the chunks streamed to a trapped client. NextChunk
// returns the next chunk and true, or nil and false once the generator is
// exhausted. Random and Markov never exhaust; Static does after one chunk.
// A Generator is bound to a single session and is not safe for concurrent
// use; the Store behind it is shared and read-only.
type Generator interface {
	NextChunk() ([]byte, bool)
}

// New builds a session-scoped generator of the given kind. The store must
// have been built for the same kind; chunkSize must already be validated.
func New(kind Kind, chunkSize int, store *Store) Generator {
	switch kind {
	case KindMarkov:
		return newMarkov(chunkSize, store.chain)
	case KindStatic:
		return newStatic(store.static)
	default:
		return newRandom(chunkSize)
	}
}

// wrapParagraph wraps generated text in a paragraph so the stream keeps
// looking like markup to a naive parser.
func wrapParagraph(body []byte) []byte {
	out := make([]byte, 0, len(body)+wrapOverhead)
	out = append(out, "<p>\n"...)
	out = append(out, body...)
	out = append(out, "\n</p>\n"...)
	return out
}
