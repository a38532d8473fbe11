package flow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

type item[A any] struct {
	actions []A
	// set for the output of an effect
	fromEffect bool
	id         string
	generation uint64
}

type runningEffect struct {
	generation uint64
	cancel     context.CancelFunc
}

// Store owns a state value. Actions are reduced one at a time on a single
// goroutine, effects run concurrently and their actions are queued back.
type Store[S, A, E any] struct {
	reducer Reducer[S, A, E]
	env     E

	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}

	lock  sync.Mutex
	idle  *sync.Cond
	queue []item[A]
	// queued items plus running effects
	pending int
	closed  bool

	stateLock sync.RWMutex
	state     S

	// only touched by the loop goroutine
	running    map[string]runningEffect
	generation uint64
}

func NewStore[S, A, E any](initial S, reducer Reducer[S, A, E], env E) *Store[S, A, E] {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Store[S, A, E]{
		reducer: reducer,
		env:     env,
		ctx:     ctx,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		state:   initial,
		running: map[string]runningEffect{},
	}
	s.idle = sync.NewCond(&s.lock)
	go s.loop()
	return s
}

// Send queues an action, it is dropped once the store is closed.
func (s *Store[S, A, E]) Send(action A) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	s.queue = append(s.queue, item[A]{actions: []A{action}})
	s.pending++
	s.lock.Unlock()
	s.signal()
}

// Snapshot returns a shallow copy of the current state. Maps and slices in it
// are shared with the store and must not be modified.
func (s *Store[S, A, E]) Snapshot() S {
	s.stateLock.RLock()
	defer s.stateLock.RUnlock()
	return s.state
}

// Idle blocks until no action is queued and no effect is running.
func (s *Store[S, A, E]) Idle() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for s.pending > 0 && !s.closed {
		s.idle.Wait()
	}
}

// Close cancels every running effect and stops the loop. Actions still queued
// are dropped.
func (s *Store[S, A, E]) Close() {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	s.closed = true
	s.pending -= len(s.queue)
	s.queue = nil
	s.idle.Broadcast()
	s.lock.Unlock()

	s.cancel()
	<-s.done
}

func (s *Store[S, A, E]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store[S, A, E]) pop() (item[A], bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.queue) == 0 || s.closed {
		return item[A]{}, false
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	return next, true
}

func (s *Store[S, A, E]) finish() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pending--
	if s.pending <= 0 {
		s.idle.Broadcast()
	}
}

func (s *Store[S, A, E]) loop() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.wake:
		}
		for {
			next, ok := s.pop()
			if !ok {
				break
			}
			s.process(next)
			s.finish()
		}
	}
}

func (s *Store[S, A, E]) process(next item[A]) {
	if next.fromEffect && next.id != "" {
		current, ok := s.running[next.id]
		if !ok || current.generation != next.generation {
			slog.Debug("dropped output of superseded effect", "id", next.id)
			return
		}
		delete(s.running, next.id)
		current.cancel()
	}
	for _, action := range next.actions {
		s.reduce(action)
	}
}

func (s *Store[S, A, E]) reduce(action A) {
	slog.Debug("reduce", "action", fmt.Sprintf("%T", action))

	s.stateLock.Lock()
	effects := s.reducer(&s.state, action, s.env)
	s.stateLock.Unlock()

	for _, effect := range effects {
		s.launch(effect)
	}
}

func (s *Store[S, A, E]) launch(effect Effect[A]) {
	switch {
	case effect.cancel:
		if current, ok := s.running[effect.ID]; ok {
			current.cancel()
			delete(s.running, effect.ID)
		}
	case len(effect.actions) > 0:
		s.lock.Lock()
		if s.closed {
			s.lock.Unlock()
			return
		}
		s.queue = append(s.queue, item[A]{actions: effect.actions})
		s.pending++
		s.lock.Unlock()
		s.signal()
	case effect.run != nil:
		s.lock.Lock()
		if s.closed {
			s.lock.Unlock()
			return
		}
		s.pending++
		s.lock.Unlock()

		ctx, cancel := context.WithCancel(s.ctx)
		s.generation++
		generation := s.generation
		if effect.ID != "" {
			if previous, ok := s.running[effect.ID]; ok {
				previous.cancel()
			}
			s.running[effect.ID] = runningEffect{generation: generation, cancel: cancel}
		}

		go func() {
			actions := effect.run(ctx)
			if effect.ID == "" {
				cancel()
			}
			s.complete(item[A]{
				actions:    actions,
				fromEffect: true,
				id:         effect.ID,
				generation: generation,
			})
		}()
	}
}

func (s *Store[S, A, E]) complete(output item[A]) {
	s.lock.Lock()
	if s.closed {
		s.pending--
		if s.pending <= 0 {
			s.idle.Broadcast()
		}
		s.lock.Unlock()
		return
	}
	s.queue = append(s.queue, output)
	s.lock.Unlock()
	s.signal()
}
