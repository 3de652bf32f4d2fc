package session

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/talentpulse/interview-engine/internal/domain"
	"github.com/talentpulse/interview-engine/internal/metrics"
)

// Source yields the latest out-of-band question payload, or nil when none
// has arrived. The question mailbox implements it both in-process and over
// HTTP.
type Source interface {
	Latest(ctx context.Context) (*domain.QuestionPayload, error)
}

// Poller periodically reads the source and merges externally-pushed
// progress into the session: questions the submit response did not carry,
// and completion signals. All question application goes through the same
// apply path the command dispatcher uses, so duplicate delivery is absorbed
// by the identity check there.
type Poller struct {
	source   Source
	store    *Store
	apply    func(*domain.QuestionPayload) ApplyResult
	interval time.Duration
	log      zerolog.Logger
}

// NewPoller creates a poller. The apply function must be the engine's
// single payload apply path.
func NewPoller(source Source, store *Store, apply func(*domain.QuestionPayload) ApplyResult, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{
		source:   source,
		store:    store,
		apply:    apply,
		interval: interval,
		log:      log,
	}
}

// Run polls until the context is cancelled or the session leaves the active
// state.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !p.store.Active() {
				return
			}
			p.tick(ctx)
			if !p.store.Active() {
				return
			}
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	metrics.Default.PollTicks.Inc()

	payload, err := p.source.Latest(ctx)
	if err != nil {
		metrics.Default.PollErrors.Inc()
		p.log.Debug().Err(err).Msg("poll failed")
		return
	}
	if payload.Empty() {
		return
	}

	if payload.IsComplete {
		p.apply(payload)
		return
	}

	// Guard on both the applied turn identity and the independent
	// last-received marker before re-entering the apply path; a submit
	// response may have landed the same question in this tick window.
	if payload.Question == p.store.LastReceived() {
		return
	}
	if payload.Identity() == p.store.CurrentIdentity() {
		return
	}

	p.apply(payload)
}
