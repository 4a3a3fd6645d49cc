package board

import (
	"context"
	"slices"
	"sync"
)

// sequencer hands out per-roll turns in the order they were requested, so
// server calls touching the same roll leave in mutation order even though
// they run outside the state lock.
type sequencer struct {
	mu    sync.Mutex
	tails map[int64]chan struct{}
}

func newSequencer() *sequencer {
	return &sequencer{tails: make(map[int64]chan struct{})}
}

type turn struct {
	waits []chan struct{}
	dones []chan struct{}
}

// enqueue reserves the next turn on every key. Keys are deduplicated.
func (s *sequencer) enqueue(keys ...int64) *turn {
	keys = slices.Compact(slices.Sorted(slices.Values(keys)))

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &turn{}
	for _, key := range keys {
		done := make(chan struct{})
		if prev, ok := s.tails[key]; ok {
			t.waits = append(t.waits, prev)
		}
		s.tails[key] = done
		t.dones = append(t.dones, done)
	}
	return t
}

// wait blocks until every earlier turn on the same keys has finished. When
// ctx ends first the turn is released as soon as its predecessors are done.
func (t *turn) wait(ctx context.Context) error {
	for i, w := range t.waits {
		select {
		case <-w:
		case <-ctx.Done():
			rest := t.waits[i:]
			go func() {
				for _, w := range rest {
					<-w
				}
				t.finish()
			}()
			return ctx.Err()
		}
	}
	return nil
}

func (t *turn) finish() {
	for _, d := range t.dones {
		close(d)
	}
}
