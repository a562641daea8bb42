package generator

import (
	"fmt"
	"os"
	"strings"

	"github.com/mb-14/gomarkov"

	"tarpitd/internal/common/fsutil"
)

// markovOrder is the n-gram order of the trained chain. Order 2 keeps the
// model small while producing locally coherent text.
const markovOrder = 2

// Store holds process-wide generator data built once at startup: a trained
// Markov chain or the bytes of a static decoy file, depending on the
// configured kind. It is immutable after NewStore returns and is shared by
// reference across all sessions for the lifetime of the process.
type Store struct {
	chain  *gomarkov.Chain
	static []byte
}

// NewStore loads and validates the data source for the given kind. Any
// failure here is a fatal configuration error; the caller must not accept
// connections. Random needs no data and gets an empty store.
func NewStore(kind Kind, dataPath string) (*Store, error) {
	if dataPath != "" {
		p, err := fsutil.ExpandHome(dataPath)
		if err != nil {
			return nil, err
		}
		dataPath = p
	}
	switch kind {
	case KindRandom:
		return &Store{}, nil
	case KindStatic:
		if dataPath == "" {
			return nil, fmt.Errorf("static generator requires generator.data to point at a file")
		}
		b, err := os.ReadFile(dataPath)
		if err != nil {
			return nil, fmt.Errorf("read static file: %w", err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("static file %s is empty", dataPath)
		}
		return &Store{static: b}, nil
	case KindMarkov:
		if dataPath == "" {
			return nil, fmt.Errorf("markov generator requires generator.data to point at a training corpus")
		}
		b, err := os.ReadFile(dataPath)
		if err != nil {
			return nil, fmt.Errorf("read markov corpus: %w", err)
		}
		chain, err := trainChain(string(b))
		if err != nil {
			return nil, fmt.Errorf("train markov chain from %s: %w", dataPath, err)
		}
		return &Store{chain: chain}, nil
	default:
		return nil, fmt.Errorf("unknown generator kind %q", kind)
	}
}

// trainChain feeds a corpus into a fresh chain, one sentence per sequence
// so sentence boundaries become chain start/end states.
func trainChain(corpus string) (*gomarkov.Chain, error) {
	chain := gomarkov.NewChain(markovOrder)
	fed := 0
	for _, sentence := range strings.FieldsFunc(corpus, isSentenceEnd) {
		tokens := strings.Fields(sentence)
		if len(tokens) == 0 {
			continue
		}
		chain.Add(tokens)
		fed++
	}
	if fed == 0 {
		return nil, fmt.Errorf("corpus contains no usable tokens")
	}
	return chain, nil
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}
