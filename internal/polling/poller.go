// Package polling implements the caller-side protocol for discovering job
// completion. The cadence is fixed per asset kind and matched to provider
// latency: images come back in seconds, videos in tens of seconds, audio in
// between. Polling is idempotent — repeated reads of a terminal state
// return the same record and trigger nothing.
package polling

import (
	"context"
	"errors"
	"time"

	"github.com/fuzzyvid/storyreel-api/internal/job"
)

// Default polling intervals per asset kind, matched to provider latency.
const (
	ImageInterval = 5 * time.Second
	AudioInterval = 10 * time.Second
	VideoInterval = 30 * time.Second
)

// StatusFunc fetches the current record for a job ID. job.ErrNotFound is
// treated as pending, not as a failure.
type StatusFunc func(ctx context.Context, jobID string) (job.Record, error)

// Poller waits for jobs to reach a terminal state.
type Poller struct {
	intervals map[job.Kind]time.Duration
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides the polling interval for a kind. Used in tests to
// keep waits short.
func WithInterval(kind job.Kind, d time.Duration) Option {
	return func(p *Poller) {
		p.intervals[kind] = d
	}
}

// New creates a Poller with the default per-kind intervals.
func New(opts ...Option) *Poller {
	p := &Poller{
		intervals: map[job.Kind]time.Duration{
			job.KindImage: ImageInterval,
			job.KindVideo: VideoInterval,
			job.KindAudio: AudioInterval,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Interval returns the polling interval for a kind.
func (p *Poller) Interval(kind job.Kind) time.Duration {
	if d, ok := p.intervals[kind]; ok {
		return d
	}
	return AudioInterval
}

// Wait polls until the job reaches done or failed, returning the terminal
// record. It polls once immediately, then at the kind's interval. Pending
// and generating states keep the loop running; the only other exits are
// context cancellation and a fetch error that is not job.ErrNotFound.
func (p *Poller) Wait(ctx context.Context, kind job.Kind, jobID string, fetch StatusFunc) (job.Record, error) {
	interval := p.Interval(kind)

	for {
		rec, err := fetch(ctx, jobID)
		switch {
		case errors.Is(err, job.ErrNotFound):
			// Not yet visible or already expired: keep polling as pending.
		case err != nil:
			return job.Record{}, err
		case rec.Status.IsTerminal():
			return rec, nil
		}

		select {
		case <-ctx.Done():
			return job.Record{}, ctx.Err()
		case <-time.After(interval):
		}
	}
}
