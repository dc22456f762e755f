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

import "sync/atomic"

// syncQueue is the lock-free CLH FIFO of §3/§4.4. head is a sentinel node
// once initialized; tail is the last enqueued node. Both are CAS'd only.
type syncQueue struct {
	head atomic.Pointer[node]
	tail atomic.Pointer[node]
}

// enqueue lazily initializes the sentinel head/tail on first contention,
// then links n onto the tail via CAS. It returns n's predecessor at the
// moment of linking.
//
// Readers may observe tail pointing at n before n.prev's successor link
// (pred.next) has been fixed up -- backward traversal from tail via prev is
// therefore authoritative; forward traversal via next is an optimization
// only (spec §4.4).
func (q *syncQueue) enqueue(n *node) *node {
	for {
		tail := q.tail.Load()
		if tail == nil {
			// Lazily install the sentinel.
			sentinel := &node{}
			if q.head.CompareAndSwap(nil, sentinel) {
				q.tail.Store(sentinel)
			}
			continue
		}
		n.prev.Store(tail)
		if q.tail.CompareAndSwap(tail, n) {
			tail.next.Store(n)
			return tail
		}
	}
}

// setHead installs n as the new sentinel head once its acquire attempt has
// succeeded, scrubbing its thread handle so it can be collected
// independently of the rest of the queue (spec §3 Lifecycle, N3: head is
// never CANCELLED).
func (q *syncQueue) setHead(n *node) {
	n.scrub()
	n.prev.Store(nil)
	q.head.Store(n)
}

// successor returns the node that should be woken on release of n: n.next
// if it is live, otherwise the closest non-cancelled node reachable by
// scanning backward from tail (spec §4.4 "Successor finding"). Backward
// scans tolerate in-flight enqueues because tail is always authoritative.
func (q *syncQueue) successor(n *node) *node {
	s := n.next.Load()
	if s == nil || s.loadStatus() == statusCancelled {
		s = nil
		for t := q.tail.Load(); t != nil && t != n; t = t.prev.Load() {
			if t.loadStatus() != statusCancelled {
				s = t
			}
		}
	}
	return s
}

// shouldParkAfterFailedAcquire implements the three-case rule of spec
// §4.4: park only once the predecessor has promised ("SIGNAL") to wake us,
// skip over cancelled predecessors, and otherwise try to make that promise
// ourselves before parking.
func (q *syncQueue) shouldParkAfterFailedAcquire(pred, n *node) bool {
	status := pred.loadStatus()
	if status == statusSignal {
		return true
	}
	if status > statusDefault { // statusCancelled
		// Skip cancelled predecessors until we find a live one.
		for pred.loadStatus() > statusDefault {
			pred = pred.prev.Load()
		}
		pred.next.Store(n)
		n.prev.Store(pred)
		return false
	}
	// status is 0 or CONDITION (the latter should not occur on the sync
	// queue, but treat it the same as 0: try to arm the signal).
	pred.casStatus(status, statusSignal)
	return false
}

// cancel marks n CANCELLED and splices it out of the queue, unparking its
// successor so that thread re-evaluates and re-links (spec §4.4
// "Cancellation", §4.5 "Cancellation and cascade").
func (q *syncQueue) cancel(n *node) {
	if n == nil {
		return
	}
	n.storeStatus(statusCancelled)
	n.park.Store(nil)

	pred := n.prev.Load()
	for pred != nil && pred.loadStatus() == statusCancelled {
		pred = pred.prev.Load()
	}
	var predNext *node
	if pred != nil {
		predNext = pred.next.Load()
	}

	if n == q.tail.Load() && q.tail.CompareAndSwap(n, pred) {
		if pred != nil {
			pred.next.CompareAndSwap(predNext, nil)
		}
		return
	}

	// n has a successor; relink around n and wake that successor so it
	// can re-check its own predecessor.
	s := q.successor(n)
	if pred != nil {
		status := pred.loadStatus()
		if pred != q.head.Load() && (status == statusSignal || pred.casStatus(statusDefault, statusSignal)) {
			if s != nil {
				pred.next.CompareAndSwap(predNext, s)
				s.prev.Store(pred)
			}
		}
	}
	if s != nil {
		if p := s.parker(); p != nil {
			p.unparkOne()
		}
	}
}

// isOnSyncQueue reports whether n is currently part of this sync queue
// (as opposed to still sitting -- or having never left -- a condition
// queue). Used by the condition cancellation race in spec §4.7.
func (q *syncQueue) isOnSyncQueue(n *node) bool {
	if n.loadStatus() == statusCondition || n.prev.Load() == nil {
		return false
	}
	if n.next.Load() != nil {
		return true
	}
	for t := q.tail.Load(); t != nil; t = t.prev.Load() {
		if t == n {
			return true
		}
	}
	return false
}
