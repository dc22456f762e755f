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

// All instrumentation in this file is best-effort: it walks the queue
// without blocking or synchronizing with acquirers, so a concurrent
// mutation may produce a stale but never unsafe result (spec §4.8).

// HasQueuedWaiters reports whether any goroutine is currently queued
// waiting to acquire this Synchronizer.
func (s *Synchronizer) HasQueuedWaiters() bool {
	return s.QueueLength() > 0
}

// QueueLength returns a best-effort count of goroutines waiting to
// acquire this Synchronizer, by walking prev from tail.
func (s *Synchronizer) QueueLength() int {
	n := 0
	head := s.q.head.Load()
	for t := s.q.tail.Load(); t != nil && t != head; t = t.prev.Load() {
		n++
	}
	return n
}

// QueuedModes returns the Mode of every currently queued waiter, from
// tail to head, for debugging and test assertions. It never blocks.
func (s *Synchronizer) QueuedModes() []Mode {
	var modes []Mode
	head := s.q.head.Load()
	for t := s.q.tail.Load(); t != nil && t != head; t = t.prev.Load() {
		modes = append(modes, t.mode)
	}
	return modes
}

// Waiter is a best-effort, opaque snapshot of one queued or parked
// goroutine (spec §4.8's getQueuedThreads/getWaitingThreads), adapted for
// Go: there is no addressable thread handle to hand back, so each waiter
// is reported by the Mode it is waiting in rather than by reference.
type Waiter struct {
	Mode Mode
}

// QueuedWaiters returns a best-effort snapshot of every currently queued
// waiter acquiring in mode, from tail to head (spec §4.8
// getQueuedThreads(mode)). It never blocks.
func (s *Synchronizer) QueuedWaiters(mode Mode) []Waiter {
	var waiters []Waiter
	head := s.q.head.Load()
	for t := s.q.tail.Load(); t != nil && t != head; t = t.prev.Load() {
		if t.mode == mode {
			waiters = append(waiters, Waiter{Mode: t.mode})
		}
	}
	return waiters
}

// HasWaiters reports whether c has any goroutine parked awaiting a
// signal. c must belong to s (checked via Owns).
func (s *Synchronizer) HasWaiters(c *Condition) (bool, error) {
	n, err := s.WaitQueueLength(c)
	return n > 0, err
}

// WaitQueueLength returns a best-effort count of goroutines parked on c,
// by walking nextWaiter from c.first.
func (s *Synchronizer) WaitQueueLength(c *Condition) (int, error) {
	if !s.Owns(c) {
		return 0, ErrIllegalArgument
	}
	n := 0
	for w := c.first; w != nil; w = w.nextWaiter {
		n++
	}
	return n, nil
}

// ConditionWaiters returns a best-effort snapshot of every goroutine
// currently parked on c, in arrival order (spec §4.8
// getWaitingThreads(condition)). c must belong to s.
func (s *Synchronizer) ConditionWaiters(c *Condition) ([]Waiter, error) {
	if !s.Owns(c) {
		return nil, ErrIllegalArgument
	}
	var waiters []Waiter
	for w := c.first; w != nil; w = w.nextWaiter {
		waiters = append(waiters, Waiter{Mode: w.mode})
	}
	return waiters, nil
}
