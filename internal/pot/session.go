package pot

import (
	"context"
	"io"
	"time"

	"tarpitd/internal/generator"
)

// session outcomes, used as metric and log labels.
const (
	outcomeTimeLimit  = "time_limit"
	outcomeSizeLimit  = "size_limit"
	outcomeExhausted  = "exhausted"
	outcomeDisconnect = "disconnect"
)

// Stream runs one honeypot session against w until a configured ceiling
// trips, the generator exhausts, or the client goes away. It returns a
// busy error when the session bound is hit (nothing is written in that
// case) and a transport error when a write fails; both are expected
// outcomes, not server faults. Limits are checked between chunks, never
// mid-chunk, so a session may overshoot the size ceiling by up to one
// chunk and the time ceiling by one generate-and-write round trip.
func (p *Pot) Stream(ctx context.Context, w io.Writer, flush func()) error {
	release, ok := p.acquire()
	if !ok {
		return ErrBusy
	}
	defer release()

	gen := generator.New(p.cfg.Kind, p.cfg.ChunkSize, p.store)
	activeSessions.Inc()
	defer activeSessions.Dec()

	var written int64
	start := time.Now()
	outcome := outcomeExhausted
	defer func() {
		sessionsTotal.WithLabelValues(outcome).Inc()
		p.log.Debug().
			Str("outcome", outcome).
			Int64("bytes", written).
			Dur("dur", time.Since(start)).
			Msg("session ended")
	}()

	first := true
	for {
		if p.cfg.TimeLimit > 0 && time.Since(start) >= p.cfg.TimeLimit {
			outcome = outcomeTimeLimit
			return nil
		}
		if p.cfg.SizeLimit > 0 && written >= p.cfg.SizeLimit {
			outcome = outcomeSizeLimit
			return nil
		}
		if ctx.Err() != nil {
			// Client disconnect observed by the server; unwind quietly.
			outcome = outcomeDisconnect
			return nil
		}

		chunk, more := gen.NextChunk()
		if !more {
			outcome = outcomeExhausted
			return nil
		}
		if first && p.cfg.Prefix != "" {
			chunk = append([]byte(p.cfg.Prefix), chunk...)
		}
		first = false

		n, err := w.Write(chunk)
		written += int64(n)
		bytesSentTotal.Add(float64(n))
		if err != nil {
			outcome = outcomeDisconnect
			return transportError{err: err}
		}
		// Hand the chunk to the client before generating the next one.
		// The flush is also our yield point: it keeps one session from
		// monopolizing a connection goroutine's buffers.
		if flush != nil {
			flush()
		}
	}
}
