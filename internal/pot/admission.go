package pot

import "sync"

// acquire reserves one session slot without queuing: a honeypot must not
// let scrapers pile up at the front door, so a full pot rejects instantly
// and the caller closes the conversation without generating anything.
// Returns a release func to be deferred; release is safe to call more
// than once but gives the slot back exactly once.
func (p *Pot) acquire() (func(), bool) {
	if p.slots == nil {
		p.active.Add(1)
		var once sync.Once
		return func() { once.Do(func() { p.active.Add(-1) }) }, true
	}
	select {
	case p.slots <- struct{}{}:
		p.active.Add(1)
		var once sync.Once
		return func() {
			once.Do(func() {
				<-p.slots
				p.active.Add(-1)
			})
		}, true
	default:
		rejectedTotal.Inc()
		return nil, false
	}
}
