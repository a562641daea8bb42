package pot

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"tarpitd/internal/generator"
)

// Config encapsulates all tunables for Pot construction. Zero limits mean
// unlimited; the zero Prefix means no lead-in is written.
type Config struct {
	Kind          generator.Kind
	ChunkSize     int
	Prefix        string
	MaxConcurrent int           // 0 = unlimited
	TimeLimit     time.Duration // 0 = unlimited
	SizeLimit     int64         // bytes, 0 = unlimited
}

// Pot owns the shared generator data and hands out streaming sessions,
// enforcing the concurrent-session bound and per-session ceilings.
type Pot struct {
	cfg    Config
	store  *generator.Store
	slots  chan struct{} // nil when unlimited
	active atomic.Int64
	log    zerolog.Logger
}

// New constructs a Pot around an already-built store. The store and cfg
// must come from validated configuration; New does not re-validate.
func New(cfg Config, store *generator.Store, log zerolog.Logger) *Pot {
	p := &Pot{cfg: cfg, store: store, log: log}
	if cfg.MaxConcurrent > 0 {
		p.slots = make(chan struct{}, cfg.MaxConcurrent)
	}
	return p
}

// Active returns the number of sessions currently streaming.
func (p *Pot) Active() int { return int(p.active.Load()) }

// Ready reports whether the pot can serve. A constructed pot always can;
// this exists for the ops listener's readiness probe.
func (p *Pot) Ready() bool { return p.store != nil }
