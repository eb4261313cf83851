// Package selection collects a one-shot numbered reply from a user, for
// example to pick one entry of a search result list.
package selection

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout = 30 * time.Second
	CancelKeyword  = "cancel"
)

var (
	ErrCancelled = errors.New("selection cancelled")
	ErrTimedOut  = errors.New("selection timed out")
)

type key struct {
	guildID     string
	requesterID string
}

type outcome struct {
	index int
	err   error
}

// Handle is one pending selection. It settles exactly once.
type Handle struct {
	ID          string
	GuildID     string
	RequesterID string
	Options     int

	hub    *Hub
	once   sync.Once
	result chan outcome
	timer  *time.Timer
}

// Wait blocks until the selection settles or ctx is done. The returned
// index is zero-based.
func (h *Handle) Wait(ctx context.Context) (int, error) {
	select {
	case r := <-h.result:
		return r.index, r.err
	case <-ctx.Done():
		h.Cancel()
		return -1, ctx.Err()
	}
}

// Cancel settles the selection with ErrCancelled if it is still open.
func (h *Handle) Cancel() {
	h.settle(-1, ErrCancelled)
}

func (h *Handle) settle(index int, err error) bool {
	settled := false
	h.once.Do(func() {
		settled = true
		h.hub.remove(h)
		h.timer.Stop()
		h.result <- outcome{index: index, err: err}
	})
	return settled
}

type Hub struct {
	mu      sync.Mutex
	pending map[key]*Handle
}

func NewHub() *Hub {
	return &Hub{pending: make(map[key]*Handle)}
}

// Begin opens a selection over options entries. An earlier selection by
// the same requester in the same guild is cancelled.
func (h *Hub) Begin(guildID, requesterID string, options int, timeout time.Duration) *Handle {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	handle := &Handle{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		RequesterID: requesterID,
		Options:     options,
		hub:         h,
		result:      make(chan outcome, 1),
	}

	h.mu.Lock()
	prev := h.pending[key{guildID, requesterID}]
	h.pending[key{guildID, requesterID}] = handle
	// armed under the lock; settle takes it before touching the timer
	handle.timer = time.AfterFunc(timeout, func() { handle.settle(-1, ErrTimedOut) })
	h.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return handle
}

// Offer routes a chat message to the author's open selection. It reports
// whether the message settled one; anything else is ignored.
func (h *Hub) Offer(guildID, authorID, content string) bool {
	h.mu.Lock()
	handle := h.pending[key{guildID, authorID}]
	h.mu.Unlock()
	if handle == nil {
		return false
	}

	content = strings.TrimSpace(content)
	if strings.EqualFold(content, CancelKeyword) {
		return handle.settle(-1, ErrCancelled)
	}
	n, err := strconv.Atoi(content)
	if err != nil || n < 1 || n > handle.Options {
		return false
	}
	return handle.settle(n-1, nil)
}

func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

func (h *Hub) remove(handle *Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	k := key{handle.GuildID, handle.RequesterID}
	if h.pending[k] == handle {
		delete(h.pending, k)
	}
}
