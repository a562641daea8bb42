package generator

// static replays one preloaded file as a single chunk, then reports
// exhaustion forever. It deliberately ignores the configured chunk size:
// this kind exists for honeypots that serve one fixed decoy document
// instead of an endless stream, and the document goes out whole.
type static struct {
	data []byte
	done bool
}

func newStatic(data []byte) *static {
	return &static{data: data}
}

func (g *static) NextChunk() ([]byte, bool) {
	if g.done {
		return nil, false
	}
	g.done = true
	return g.data, true
}
