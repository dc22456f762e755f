// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package qsync

import (
	"context"
	"time"
)

// addWaiter enqueues a new node for the calling goroutine in the given
// mode and returns it, already linked onto the sync queue's tail (spec
// §4.4 "Enqueue").
func (s *Synchronizer) addWaiter(mode Mode) *node {
	n := newNode(mode)
	s.q.enqueue(n)
	return n
}

// acquireQueued runs the slow-path loop common to exclusive and shared
// acquires (spec §4.5's skeleton): park until the node reaches the head
// of the queue and tryAcquire succeeds, or until ctx ends the wait. On
// success it returns the predicate's raw non-negative/true result encoded
// as an int cascade value (see exclusive/shared wrappers); on failure it
// cancels n and returns ctx.Err().
//
// tryAcquire miricks TryAcquireShared's contract: negative means "failed",
// and any non-negative value means "acquired", with the value itself
// carried forward as the cascade signal for shared callers.
func (s *Synchronizer) acquireQueued(ctx context.Context, n *node, tryAcquire func(queued bool) int) (cascade int, err error) {
	// A panicking predicate must not leave n linked into the queue: its
	// successor would never see a SIGNAL->0 transition or an unpark, and
	// would be parked forever (spec §7 "User predicate failure"). Cancel
	// n before the panic continues unwinding.
	defer func() {
		if r := recover(); r != nil {
			s.q.cancel(n)
			panic(r)
		}
	}()
	for {
		pred := n.prev.Load()
		if pred == s.q.head.Load() {
			if result := tryAcquire(true); result >= 0 {
				s.q.setHead(n)
				return result, nil
			}
		}
		if s.q.shouldParkAfterFailedAcquire(pred, n) {
			if ctx != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					s.q.cancel(n)
					return 0, ctxErr
				}
				if parkErr := n.parker().parkContext(ctx); parkErr != nil {
					s.q.cancel(n)
					return 0, parkErr
				}
			} else {
				n.parker().park()
			}
		}
	}
}

// acquireQueuedTimed is acquireQueued's timed variant (spec §4.5 timed
// branch: "if remaining <= 0: cancel; return false"). It reports whether
// the acquire completed before deadline.
func (s *Synchronizer) acquireQueuedTimed(n *node, tryAcquire func(queued bool) int, deadline time.Time) (cascade int, acquired bool) {
	// See acquireQueued: a panicking predicate must still cancel n
	// before the panic propagates, or n's successor parks forever.
	defer func() {
		if r := recover(); r != nil {
			s.q.cancel(n)
			panic(r)
		}
	}()
	for {
		pred := n.prev.Load()
		if pred == s.q.head.Load() {
			if result := tryAcquire(true); result >= 0 {
				s.q.setHead(n)
				return result, true
			}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			s.q.cancel(n)
			return 0, false
		}
		if s.q.shouldParkAfterFailedAcquire(pred, n) {
			if n.parker().parkNanos(remaining) {
				// Timer fired; loop back around to re-check the
				// deadline precisely rather than trusting the timer
				// alone, since a spurious wakeup and a real deadline
				// both surface here identically.
				continue
			}
		}
	}
}

// AcquireExclusive blocks uninterruptibly until an exclusive acquire of
// arg succeeds.
func (s *Synchronizer) AcquireExclusive(arg int64) {
	if s.pred.tryAcquireExclusive(false, arg) {
		return
	}
	n := s.addWaiter(ModeExclusive)
	adapter := func(queued bool) int {
		if s.pred.tryAcquireExclusive(queued, arg) {
			return 0
		}
		return -1
	}
	// Uninterruptible: no context to observe, so acquireQueued cannot
	// return an error here.
	_, _ = s.acquireQueued(nil, n, adapter)
}

// AcquireExclusiveContext blocks until an exclusive acquire of arg
// succeeds or ctx ends, whichever happens first. A ctx built with
// context.WithTimeout/WithDeadline doubles as the timed variant.
func (s *Synchronizer) AcquireExclusiveContext(ctx context.Context, arg int64) error {
	if s.pred.tryAcquireExclusive(false, arg) {
		return nil
	}
	n := s.addWaiter(ModeExclusive)
	adapter := func(queued bool) int {
		if s.pred.tryAcquireExclusive(queued, arg) {
			return 0
		}
		return -1
	}
	_, err := s.acquireQueued(ctx, n, adapter)
	return err
}

// AcquireExclusiveTimed blocks until an exclusive acquire of arg succeeds
// or timeout elapses, whichever happens first. It reports whether the
// acquire completed in time.
func (s *Synchronizer) AcquireExclusiveTimed(arg int64, timeout time.Duration) bool {
	if s.pred.tryAcquireExclusive(false, arg) {
		return true
	}
	n := s.addWaiter(ModeExclusive)
	adapter := func(queued bool) int {
		if s.pred.tryAcquireExclusive(queued, arg) {
			return 0
		}
		return -1
	}
	_, acquired := s.acquireQueuedTimed(n, adapter, time.Now().Add(timeout))
	return acquired
}

// AcquireShared blocks uninterruptibly until a shared acquire of arg
// succeeds, propagating a wakeup to the next queued waiter, whatever its
// mode, if the predicate reports a positive cascade (spec §4.5 "Cancellation and
// cascade").
func (s *Synchronizer) AcquireShared(arg int64) {
	if r := s.pred.tryAcquireShared(false, arg); r >= 0 {
		if r > 0 {
			s.doReleaseShared()
		}
		return
	}
	n := s.addWaiter(ModeShared)
	adapter := func(queued bool) int {
		return s.pred.tryAcquireShared(queued, arg)
	}
	cascade, _ := s.acquireQueued(nil, n, adapter)
	if cascade > 0 {
		s.doReleaseShared()
	}
}

// AcquireSharedContext blocks until a shared acquire of arg succeeds or
// ctx ends, whichever happens first.
func (s *Synchronizer) AcquireSharedContext(ctx context.Context, arg int64) error {
	if r := s.pred.tryAcquireShared(false, arg); r >= 0 {
		if r > 0 {
			s.doReleaseShared()
		}
		return nil
	}
	n := s.addWaiter(ModeShared)
	adapter := func(queued bool) int {
		return s.pred.tryAcquireShared(queued, arg)
	}
	cascade, err := s.acquireQueued(ctx, n, adapter)
	if err != nil {
		return err
	}
	if cascade > 0 {
		s.doReleaseShared()
	}
	return nil
}

// AcquireSharedTimed blocks until a shared acquire of arg succeeds or
// timeout elapses, whichever happens first. It reports whether the
// acquire completed in time.
func (s *Synchronizer) AcquireSharedTimed(arg int64, timeout time.Duration) bool {
	if r := s.pred.tryAcquireShared(false, arg); r >= 0 {
		if r > 0 {
			s.doReleaseShared()
		}
		return true
	}
	n := s.addWaiter(ModeShared)
	adapter := func(queued bool) int {
		return s.pred.tryAcquireShared(queued, arg)
	}
	cascade, acquired := s.acquireQueuedTimed(n, adapter, time.Now().Add(timeout))
	if acquired && cascade > 0 {
		s.doReleaseShared()
	}
	return acquired
}
