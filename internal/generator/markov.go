package generator

import "github.com/mb-14/gomarkov"

// markov produces chunks of roughly chunkSize bytes by sampling tokens
// from a shared, read-only chain. Chain walks that reach an end state are
// restarted, so the output never runs out. Chunks may exceed the target by
// one token plus the markup wrapper; that is fine, nobody is measuring.
type markov struct {
	chain     *gomarkov.Chain
	chunkSize int
	window    gomarkov.NGram
}

func newMarkov(chunkSize int, chain *gomarkov.Chain) *markov {
	return &markov{
		chain:     chain,
		chunkSize: chunkSize,
		window:    startWindow(),
	}
}

func startWindow() gomarkov.NGram {
	w := make(gomarkov.NGram, markovOrder)
	for i := range w {
		w[i] = gomarkov.StartToken
	}
	return w
}

func (g *markov) NextChunk() ([]byte, bool) {
	target := g.chunkSize - wrapOverhead
	body := make([]byte, 0, target+64)
	for len(body) < target {
		token, err := g.chain.Generate(g.window)
		if err != nil || token == gomarkov.EndToken {
			// Sentence ended (or the window left known state); start over.
			g.window = startWindow()
			continue
		}
		if len(body) > 0 {
			body = append(body, ' ')
		}
		body = append(body, token...)
		g.window = append(g.window[1:], token)
	}
	return wrapParagraph(body), true
}
