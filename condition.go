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
	"fmt"
	"runtime"
	"time"
)

// Condition is a single condition queue attached to a Synchronizer, in the
// style of spec §4.7/§3: a singly-linked list of CONDITION-status nodes,
// mutated only while the owning Synchronizer is held exclusively.
type Condition struct {
	sync *Synchronizer
	// first/last are the condition list's endpoints, linked via
	// node.nextWaiter. Mutation is serialized by the caller holding the
	// Synchronizer exclusively (enforced by CheckConditionAccess).
	first *node
	last  *node
}

// NewCondition returns a new Condition bound to s.
func (s *Synchronizer) NewCondition() *Condition {
	return &Condition{sync: s}
}

// Owns reports whether c was created by s (spec §6 "owns(condition)").
func (s *Synchronizer) Owns(c *Condition) bool {
	return c != nil && c.sync == s
}

func (c *Condition) checkAccess(isWait bool) error {
	if err := c.sync.pred.checkConditionAccess(isWait); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalMonitorState, err)
	}
	return nil
}

// addWaiter appends a new CONDITION-status node to the list. Requires the
// Synchronizer be held exclusively by the caller.
func (c *Condition) addWaiter() *node {
	n := newNode(ModeExclusive)
	n.storeStatus(statusCondition)
	if c.last == nil {
		c.first = n
	} else {
		c.last.nextWaiter = n
	}
	c.last = n
	return n
}

// transferForSignal moves n from the condition queue onto the sync queue
// (spec §4.7 "Transfer protocol"). It reports whether the transfer
// happened; it fails only if n had already cancelled itself.
func (c *Condition) transferForSignal(n *node) bool {
	if !n.casStatus(statusCondition, statusDefault) {
		return false
	}
	pred := c.sync.q.enqueue(n)
	predStatus := pred.loadStatus()
	if predStatus == statusCancelled || !pred.casStatus(predStatus, statusSignal) {
		// Predecessor is cancelled, or we lost the race to arm it:
		// wake n directly so it re-checks and re-links itself, per
		// spec's "Transfer protocol" fallback.
		if p := n.parker(); p != nil {
			p.unparkOne()
		}
	}
	return true
}

func (c *Condition) doSignal() {
	for first := c.first; first != nil; first = c.first {
		next := first.nextWaiter
		first.nextWaiter = nil
		c.first = next
		if next == nil {
			c.last = nil
		}
		if c.transferForSignal(first) {
			return
		}
	}
}

func (c *Condition) doSignalAll() {
	for first := c.first; first != nil; first = c.first {
		next := first.nextWaiter
		first.nextWaiter = nil
		c.first = next
		if next == nil {
			c.last = nil
		}
		c.transferForSignal(first)
	}
}

// Signal checks access and, if a waiter exists, transfers it onto the
// sync queue; a waiter that had already cancelled itself is skipped and
// the next one is tried (spec §4.7).
func (c *Condition) Signal() error {
	if err := c.checkAccess(false); err != nil {
		return err
	}
	c.doSignal()
	return nil
}

// SignalAll drains the condition list, transferring each waiter,
// tolerating individual cancellations.
func (c *Condition) SignalAll() error {
	if err := c.checkAccess(false); err != nil {
		return err
	}
	c.doSignalAll()
	return nil
}

// spinUntilOnSyncQueue is the "only permitted spin" of spec §4.7's
// cancellation race: a waiter that loses the self-enqueue CAS to a
// concurrent Signal must wait for that signal's enqueue to finish before
// it can participate in the re-acquire. Grounded on the corpus's
// spinDelay-then-Gosched idiom (nsync's common.go: backoff, then yield).
func spinUntilOnSyncQueue(q *syncQueue, n *node) {
	for !q.isOnSyncQueue(n) {
		runtime.Gosched()
	}
}

// reacquireAfterWait restores the Synchronizer to an exclusive hold
// encoding savedState, migrating n (already linked onto the sync queue)
// through the ordinary acquire loop (spec §4.7 "State restoration").
func (c *Condition) reacquireAfterWait(n *node, savedState int64) {
	adapter := func(queued bool) int {
		if c.sync.pred.tryAcquireExclusive(queued, savedState) {
			return 0
		}
		return -1
	}
	_, _ = c.sync.acquireQueued(nil, n, adapter)
}

// releaseFullyForWait releases the Synchronizer's exclusive hold so that
// a waiter can block, returning the state value at the moment of release
// so it can be restored verbatim on wake (spec §4.7 "State restoration").
func (c *Condition) releaseFullyForWait() (int64, error) {
	savedState := c.sync.State()
	if !c.sync.ReleaseExclusive(savedState) {
		return 0, fmt.Errorf("%w: release during await failed", ErrIllegalMonitorState)
	}
	return savedState, nil
}

// Await atomically releases the Synchronizer, blocks until Signal(All)
// or ctx ends (whichever is first), then reacquires the Synchronizer with
// its pre-wait state restored.
func (c *Condition) Await(ctx context.Context) error {
	if err := c.checkAccess(true); err != nil {
		return err
	}
	n := c.addWaiter()
	savedState, err := c.releaseFullyForWait()
	if err != nil {
		return err
	}

	var waitErr error
	for !c.sync.q.isOnSyncQueue(n) {
		if parkErr := n.parker().parkContext(ctx); parkErr != nil {
			if n.casStatus(statusCondition, statusDefault) {
				// We cancelled before any Signal could transfer us:
				// self-enqueue directly onto the sync queue.
				c.sync.q.enqueue(n)
				waitErr = parkErr
				break
			}
			// Lost the race: a concurrent Signal's CAS already won.
			// Spin briefly until its enqueue completes, then treat
			// this as an ordinary (signalled) wakeup -- but still
			// report the cancellation once re-acquired (spec §9:
			// "re-assert after re-acquire").
			spinUntilOnSyncQueue(&c.sync.q, n)
			waitErr = parkErr
			break
		}
	}

	c.reacquireAfterWait(n, savedState)
	return waitErr
}

// AwaitUninterruptibly is Await with no cancellation source: any
// cancellation signal is irrelevant because context.Background() never
// ends.
func (c *Condition) AwaitUninterruptibly() {
	_ = c.Await(context.Background())
}

// awaitDeadline is the shared engine behind AwaitNanos and AwaitUntil: it
// blocks until Signal(All) or deadline, using an absolute deadline in the
// style of nsync.CV.WaitWithDeadline (spec §4.7's AwaitUntil is exactly
// this; AwaitNanos is sugar over it).
func (c *Condition) awaitDeadline(deadline time.Time) (timedOut bool, err error) {
	if err := c.checkAccess(true); err != nil {
		return false, err
	}
	n := c.addWaiter()
	savedState, err := c.releaseFullyForWait()
	if err != nil {
		return false, err
	}

	for !c.sync.q.isOnSyncQueue(n) {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			if n.casStatus(statusCondition, statusDefault) {
				c.sync.q.enqueue(n)
				timedOut = true
				break
			}
			spinUntilOnSyncQueue(&c.sync.q, n)
			break
		}
		n.parker().parkNanos(remaining)
	}

	c.reacquireAfterWait(n, savedState)
	return timedOut, nil
}

// AwaitNanos is Await with a relative deadline. It returns the time
// remaining until the deadline at the moment it returned (negative if the
// deadline had already passed).
func (c *Condition) AwaitNanos(d time.Duration) (time.Duration, error) {
	deadline := time.Now().Add(d)
	_, err := c.awaitDeadline(deadline)
	return time.Until(deadline), err
}

// AwaitUntil is Await with an absolute wall-clock deadline. It reports
// whether Signal(All) arrived before the deadline.
func (c *Condition) AwaitUntil(deadline time.Time) (bool, error) {
	timedOut, err := c.awaitDeadline(deadline)
	return !timedOut, err
}
