package generator

import "math/rand"

// alphabet is the set of bytes random chunks are drawn from. Text-like on
// purpose: to a scraper skimming bytes it passes for prose, and it stays
// valid inside an HTML body. No need for crypto randomness here.
const alphabet = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789 .,;:  eeetaoinshr"

// random produces chunks of exactly chunkSize bytes, forever.
type random struct {
	chunkSize int
}

func newRandom(chunkSize int) *random {
	return &random{chunkSize: chunkSize}
}

func (g *random) NextChunk() ([]byte, bool) {
	body := make([]byte, g.chunkSize-wrapOverhead)
	for i := range body {
		body[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return wrapParagraph(body), true
}
