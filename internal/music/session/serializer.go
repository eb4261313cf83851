package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

var (
	ErrClosed = errors.New("serializer closed")
	ErrPanic  = errors.New("operation panicked")
)

type task struct {
	ctx    context.Context
	op     func(context.Context) error
	result chan error
}

// Serializer runs operations one at a time in submission order on a
// single worker goroutine.
type Serializer struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []*task
	closed bool
	done   chan struct{}
	log    zerolog.Logger
}

func NewSerializer(log zerolog.Logger) *Serializer {
	s := &Serializer{
		done: make(chan struct{}),
		log:  log,
	}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

// Submit queues op and waits for it. An op whose ctx is already done when
// its turn comes is skipped; once started it runs to completion even if
// ctx is cancelled meanwhile.
func (s *Serializer) Submit(ctx context.Context, op func(context.Context) error) error {
	t := &task{ctx: ctx, op: op, result: make(chan error, 1)}
	if !s.push(t) {
		return ErrClosed
	}
	select {
	case err := <-t.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues op without waiting for it.
func (s *Serializer) Post(op func(context.Context)) error {
	t := &task{
		ctx: context.Background(),
		op: func(ctx context.Context) error {
			op(ctx)
			return nil
		},
	}
	if !s.push(t) {
		return ErrClosed
	}
	return nil
}

// Close stops accepting work, drains what is queued and waits for the
// worker to exit.
func (s *Serializer) Close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()
	<-s.done
}

func (s *Serializer) push(t *task) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.queue = append(s.queue, t)
	s.cond.Signal()
	return true
}

func (s *Serializer) run() {
	defer close(s.done)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		t := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		err := s.exec(t)
		if t.result != nil {
			t.result <- err
		}
	}
}

func (s *Serializer) exec(t *task) (err error) {
	if err := t.ctx.Err(); err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("recovered from panic in session operation")
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return t.op(context.WithoutCancel(t.ctx))
}
