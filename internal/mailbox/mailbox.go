// Package mailbox provides the single-slot question mailbox: an HTTP
// endpoint the backend posts "next question" payloads to out-of-band, and
// the source the session poller reads them back from.
package mailbox

import (
	"context"
	"sync"

	"github.com/talentpulse/interview-engine/internal/domain"
)

// Mailbox is a single-slot store for the latest question payload. A new put
// overwrites the previous payload; reads do not consume it.
type Mailbox struct {
	mu     sync.RWMutex
	latest *domain.QuestionPayload
}

// New creates an empty mailbox.
func New() *Mailbox {
	return &Mailbox{}
}

// Put stores a payload, replacing whatever was there.
func (m *Mailbox) Put(p *domain.QuestionPayload) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = p
}

// Get returns the latest payload, or nil when the mailbox is empty.
func (m *Mailbox) Get() *domain.QuestionPayload {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// Clear empties the mailbox.
func (m *Mailbox) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest = nil
}

// Latest implements the poller source interface for in-process wiring.
func (m *Mailbox) Latest(_ context.Context) (*domain.QuestionPayload, error) {
	return m.Get(), nil
}
